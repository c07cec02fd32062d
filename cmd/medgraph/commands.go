package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"strings"
	"text/tabwriter"

	"github.com/dd0wney/medgraph/pkg/backend/embedded"
	"github.com/dd0wney/medgraph/pkg/config"
	"github.com/dd0wney/medgraph/pkg/loader"
	"github.com/dd0wney/medgraph/pkg/logging"
	"github.com/dd0wney/medgraph/pkg/query"
	"github.com/dd0wney/medgraph/pkg/source"
	"github.com/dd0wney/medgraph/pkg/verify"
)

// loadFlags are the flags of the load command.
type loadFlags struct {
	common        commonFlags
	batchSize     int
	parallelism   int
	strict        bool
	metricsListen string
	expect        string
	audit         bool
}

func parseLoadFlags(args []string) (*loadFlags, error) {
	f := &loadFlags{}
	fs := newFlagSet("load", &f.common)
	fs.IntVar(&f.batchSize, "batch-size", 0, "Rows per store call")
	fs.IntVar(&f.parallelism, "parallelism", 0, "Node files loaded at once")
	fs.BoolVar(&f.strict, "strict", false, "Fail on relationship rows with a missing endpoint")
	fs.StringVar(&f.metricsListen, "metrics-listen", "", "Address serving /metrics during the load")
	fs.StringVar(&f.expect, "expect", "", "Expected counts, e.g. Disease=3,HAS_SYMPTOM=2")
	fs.BoolVar(&f.audit, "audit", false, "Audit the loaded graph (embedded driver only)")
	if err := fs.Parse(args); err != nil {
		return nil, err
	}
	if fs.NArg() > 0 {
		return nil, fmt.Errorf("load: unexpected arguments %v", fs.Args())
	}
	return f, nil
}

func handleLoad(ctx context.Context, args []string, stdout io.Writer) error {
	f, err := parseLoadFlags(args)
	if err != nil {
		return err
	}
	expected, err := verify.ParseExpectations(f.expect)
	if err != nil {
		return err
	}
	cfg, err := f.common.loadConfig()
	if err != nil {
		return err
	}
	if f.batchSize > 0 {
		cfg.Load.BatchSize = f.batchSize
	}
	if f.parallelism > 0 {
		cfg.Load.Parallelism = f.parallelism
	}
	cfg.Load.StrictEndpoints = cfg.Load.StrictEndpoints || f.strict
	override(&cfg.Metrics.Listen, f.metricsListen)
	if err := cfg.Validate(); err != nil {
		return err
	}

	a, err := newApp(ctx, cfg)
	if err != nil {
		return err
	}
	defer a.close()

	src, err := source.Open(ctx, cfg.Source.URI, source.S3Options{
		Region:          cfg.Source.S3.Region,
		Endpoint:        cfg.Source.S3.Endpoint,
		AccessKeyID:     cfg.Source.S3.AccessKeyID,
		SecretAccessKey: cfg.Source.S3.SecretAccessKey,
	})
	if err != nil {
		return err
	}

	pipeline := loader.NewPipeline(a.store, src, a.manifest, loader.Options{
		BatchSize:       cfg.Load.BatchSize,
		Parallelism:     cfg.Load.Parallelism,
		StrictEndpoints: cfg.Load.StrictEndpoints,
		Logger:          a.logger.With(logging.Component("loader")),
		Metrics:         a.metrics,
	})
	report, err := pipeline.Run(ctx)
	if report != nil {
		report.WriteTo(stdout)
	}
	if err != nil {
		return err
	}

	fmt.Fprintln(stdout)
	return a.verify(ctx, stdout, expected, f.audit)
}

func handleConstraints(ctx context.Context, args []string, stdout io.Writer) error {
	var common commonFlags
	fs := newFlagSet("constraints", &common)
	if err := fs.Parse(args); err != nil {
		return err
	}
	cfg, err := common.loadConfig()
	if err != nil {
		return err
	}

	a, err := newApp(ctx, cfg)
	if err != nil {
		return err
	}
	defer a.close()

	labels := a.manifest.Labels()
	if err := loader.SetupConstraints(ctx, a.store, labels, a.logger); err != nil {
		return err
	}
	fmt.Fprintf(stdout, "Unique id constraints in place for %s\n", strings.Join(labels, ", "))
	return nil
}

// verifyFlags are the flags of the verify command.
type verifyFlags struct {
	common commonFlags
	expect string
	audit  bool
}

func parseVerifyFlags(args []string) (*verifyFlags, error) {
	f := &verifyFlags{}
	fs := newFlagSet("verify", &f.common)
	fs.StringVar(&f.expect, "expect", "", "Expected counts, e.g. Disease=3,HAS_SYMPTOM=2")
	fs.BoolVar(&f.audit, "audit", false, "Audit the graph (embedded driver only)")
	if err := fs.Parse(args); err != nil {
		return nil, err
	}
	return f, nil
}

func handleVerify(ctx context.Context, args []string, stdout io.Writer) error {
	f, err := parseVerifyFlags(args)
	if err != nil {
		return err
	}
	expected, err := verify.ParseExpectations(f.expect)
	if err != nil {
		return err
	}
	cfg, err := f.common.loadConfig()
	if err != nil {
		return err
	}

	a, err := newApp(ctx, cfg)
	if err != nil {
		return err
	}
	defer a.close()
	return a.verify(ctx, stdout, expected, f.audit)
}

func (a *app) verify(ctx context.Context, w io.Writer, expected map[string]int64, audit bool) error {
	summary, err := verify.Run(ctx, a.store)
	if err != nil {
		return err
	}
	summary.Publish(a.metrics)
	summary.WriteTo(w)

	if audit {
		if err := a.audit(w); err != nil {
			return err
		}
	}
	return summary.Expect(expected)
}

func (a *app) audit(w io.Writer) error {
	es, ok := a.store.(*embedded.Store)
	if !ok {
		return fmt.Errorf("audit is only supported by the %s driver", config.DriverEmbedded)
	}
	result, err := verify.Audit(es.Graph(), a.manifest)
	if err != nil {
		return err
	}

	fmt.Fprintf(w, "\nAudit: %d violations\n", len(result.Violations))
	for _, v := range result.Violations {
		fmt.Fprintf(w, "  [%s] %s: %s\n", v.Severity, v.Type, v.Message)
	}
	if !result.Valid {
		return errors.New("audit found errors")
	}
	return nil
}

// queryRequest is a parsed query command.
type queryRequest struct {
	common commonFlags
	kind   string
	terms  []string
}

var queryKinds = []string{"symptoms", "treatments", "diagnose", "conditions", "describe"}

func parseQueryArgs(args []string) (*queryRequest, error) {
	if len(args) < 1 {
		return nil, fmt.Errorf("query: expected one of %s", strings.Join(queryKinds, ", "))
	}
	q := &queryRequest{kind: args[0]}
	known := false
	for _, k := range queryKinds {
		known = known || k == q.kind
	}
	if !known {
		return nil, fmt.Errorf("query: unknown lookup %q", q.kind)
	}

	fs := newFlagSet("query "+q.kind, &q.common)
	if err := fs.Parse(args[1:]); err != nil {
		return nil, err
	}
	for _, t := range fs.Args() {
		if t = strings.TrimSpace(t); t != "" {
			q.terms = append(q.terms, t)
		}
	}
	if len(q.terms) == 0 {
		return nil, fmt.Errorf("query %s: missing search term", q.kind)
	}
	if q.kind != "conditions" {
		q.terms = []string{strings.Join(q.terms, " ")}
	}
	return q, nil
}

func handleQuery(ctx context.Context, args []string, stdout io.Writer) error {
	q, err := parseQueryArgs(args)
	if err != nil {
		return err
	}
	cfg, err := q.common.loadConfig()
	if err != nil {
		return err
	}

	a, err := newApp(ctx, cfg)
	if err != nil {
		return err
	}
	defer a.close()

	svc := query.NewService(a.store, a.logger.With(logging.Component("query")), a.metrics)
	tw := tabwriter.NewWriter(stdout, 0, 0, 2, ' ', 0)
	defer tw.Flush()

	switch q.kind {
	case "symptoms", "treatments":
		lookup, column := svc.SymptomsOf, "SYMPTOMS"
		if q.kind == "treatments" {
			lookup, column = svc.TreatmentsFor, "TREATMENTS"
		}
		findings, err := lookup(ctx, q.terms[0])
		if err != nil {
			return err
		}
		fmt.Fprintf(tw, "DISEASE\t%s\n", column)
		for _, f := range findings {
			fmt.Fprintf(tw, "%s\t%s\n", f.Disease, strings.Join(f.Related, ", "))
		}
	case "diagnose", "conditions":
		var matches []query.Match
		if q.kind == "diagnose" {
			matches, err = svc.DiagnoseBySymptom(ctx, q.terms[0])
		} else {
			matches, err = svc.ConditionsWithSymptoms(ctx, q.terms)
		}
		if err != nil {
			return err
		}
		fmt.Fprintln(tw, "DISEASE\tMATCHED\tSYMPTOMS")
		for _, m := range matches {
			fmt.Fprintf(tw, "%s\t%d\t%s\n", m.Disease, len(m.Symptoms), strings.Join(m.Symptoms, ", "))
		}
	case "describe":
		profiles, err := svc.Describe(ctx, q.terms[0])
		if err != nil {
			return err
		}
		fmt.Fprintln(tw, "DISEASE\tSYMPTOMS\tTREATMENTS")
		for _, p := range profiles {
			fmt.Fprintf(tw, "%s\t%s\t%s\n", p.Disease, strings.Join(p.Symptoms, ", "), strings.Join(p.Treatments, ", "))
		}
	}
	return nil
}
