// Package query answers the read-side medical questions over a loaded graph.
package query

import (
	"context"
	"sort"
	"strings"

	"github.com/dd0wney/medgraph/pkg/backend"
	"github.com/dd0wney/medgraph/pkg/logging"
	"github.com/dd0wney/medgraph/pkg/metrics"
)

// Schema names used by the lookups
const (
	LabelDisease   = "Disease"
	LabelSymptom   = "Symptom"
	LabelTreatment = "Treatment"
	RelHasSymptom  = "HAS_SYMPTOM"
	RelTreatedBy   = "TREATED_BY"
)

// Result limits
const (
	FindingLimit   = 5
	DiagnosisLimit = 10
)

// Finding is a disease with the names of related nodes.
type Finding struct {
	Disease string
	Related []string
}

// Match is a disease ranked by how many requested symptoms it has.
type Match struct {
	Disease  string
	Symptoms []string
}

// Profile describes one disease.
type Profile struct {
	Disease    string
	Symptoms   []string
	Treatments []string
}

// Service runs lookups against a store.
type Service struct {
	store   backend.Store
	logger  logging.Logger
	metrics *metrics.Registry
}

// NewService returns a Service. logger and reg may be nil.
func NewService(store backend.Store, logger logging.Logger, reg *metrics.Registry) *Service {
	if logger == nil {
		logger = logging.NewNopLogger()
	}
	if reg == nil {
		reg = metrics.NewRegistry()
	}
	return &Service{store: store, logger: logger, metrics: reg}
}

// SymptomsOf returns the symptoms of diseases whose name contains disease.
func (s *Service) SymptomsOf(ctx context.Context, disease string) ([]Finding, error) {
	return s.findings(ctx, "symptoms", disease, LabelSymptom, RelHasSymptom)
}

// TreatmentsFor returns the treatments of diseases whose name contains disease.
func (s *Service) TreatmentsFor(ctx context.Context, disease string) ([]Finding, error) {
	return s.findings(ctx, "treatments", disease, LabelTreatment, RelTreatedBy)
}

func (s *Service) findings(ctx context.Context, kind, disease, related, rel string) ([]Finding, error) {
	rows, err := s.store.Neighbors(ctx, backend.NeighborQuery{
		SubjectLabel: LabelDisease,
		RelatedLabel: related,
		RelType:      rel,
		Direction:    backend.Outgoing,
		NameContains: disease,
		Limit:        FindingLimit,
	})
	s.record(kind, disease, err)
	if err != nil {
		return nil, err
	}

	out := make([]Finding, len(rows))
	for i, r := range rows {
		out[i] = Finding{Disease: r.Subject, Related: r.Related}
	}
	return out, nil
}

// DiagnoseBySymptom ranks diseases having a symptom whose name contains
// symptom by the number of such symptoms.
func (s *Service) DiagnoseBySymptom(ctx context.Context, symptom string) ([]Match, error) {
	rows, err := s.symptomRows(ctx, symptom)
	s.record("diagnose", symptom, err)
	if err != nil {
		return nil, err
	}
	return rank(rows), nil
}

// ConditionsWithSymptoms ranks diseases by how many of the named symptoms
// they have. Names match whole, ignoring case.
func (s *Service) ConditionsWithSymptoms(ctx context.Context, symptoms []string) ([]Match, error) {
	var matched []backend.NeighborRow
	var err error
	for _, name := range symptoms {
		var rows []backend.NeighborRow
		rows, err = s.symptomRows(ctx, name)
		if err != nil {
			break
		}
		for _, r := range rows {
			if strings.EqualFold(r.Subject, strings.TrimSpace(name)) {
				matched = append(matched, r)
			}
		}
	}
	s.record("conditions", strings.Join(symptoms, ","), err)
	if err != nil {
		return nil, err
	}
	return rank(matched), nil
}

func (s *Service) symptomRows(ctx context.Context, symptom string) ([]backend.NeighborRow, error) {
	return s.store.Neighbors(ctx, backend.NeighborQuery{
		SubjectLabel: LabelSymptom,
		RelatedLabel: LabelDisease,
		RelType:      RelHasSymptom,
		Direction:    backend.Incoming,
		NameContains: strings.TrimSpace(symptom),
	})
}

// Describe returns the symptoms and treatments of diseases whose name
// contains disease. Diseases with neither are not reported.
func (s *Service) Describe(ctx context.Context, disease string) ([]Profile, error) {
	symptoms, err := s.store.Neighbors(ctx, backend.NeighborQuery{
		SubjectLabel: LabelDisease, RelatedLabel: LabelSymptom, RelType: RelHasSymptom,
		NameContains: disease,
	})
	if err != nil {
		s.record("describe", disease, err)
		return nil, err
	}
	treatments, err := s.store.Neighbors(ctx, backend.NeighborQuery{
		SubjectLabel: LabelDisease, RelatedLabel: LabelTreatment, RelType: RelTreatedBy,
		NameContains: disease,
	})
	s.record("describe", disease, err)
	if err != nil {
		return nil, err
	}

	profiles := make(map[string]*Profile)
	get := func(name string) *Profile {
		p, ok := profiles[name]
		if !ok {
			p = &Profile{Disease: name}
			profiles[name] = p
		}
		return p
	}
	for _, r := range symptoms {
		get(r.Subject).Symptoms = r.Related
	}
	for _, r := range treatments {
		get(r.Subject).Treatments = r.Related
	}

	out := make([]Profile, 0, len(profiles))
	for _, p := range profiles {
		out = append(out, *p)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Disease < out[j].Disease })
	if len(out) > FindingLimit {
		out = out[:FindingLimit]
	}
	return out, nil
}

// rank inverts symptom rows into diseases ordered by matched symptom count,
// then name. A symptom counts once per disease however many rows or edges
// repeat it.
func rank(rows []backend.NeighborRow) []Match {
	bySymptom := make(map[string]map[string]struct{})
	for _, r := range rows {
		for _, disease := range r.Related {
			set, ok := bySymptom[disease]
			if !ok {
				set = make(map[string]struct{})
				bySymptom[disease] = set
			}
			set[r.Subject] = struct{}{}
		}
	}

	out := make([]Match, 0, len(bySymptom))
	for disease, set := range bySymptom {
		m := Match{Disease: disease}
		for symptom := range set {
			m.Symptoms = append(m.Symptoms, symptom)
		}
		sort.Strings(m.Symptoms)
		out = append(out, m)
	}
	sort.Slice(out, func(i, j int) bool {
		if len(out[i].Symptoms) != len(out[j].Symptoms) {
			return len(out[i].Symptoms) > len(out[j].Symptoms)
		}
		return out[i].Disease < out[j].Disease
	})
	if len(out) > DiagnosisLimit {
		out = out[:DiagnosisLimit]
	}
	return out
}

func (s *Service) record(kind, term string, err error) {
	s.metrics.RecordQuery(kind, err)
	if err != nil {
		s.logger.Error("query failed", logging.String("kind", kind), logging.String("term", term), logging.Error(err))
		return
	}
	s.logger.Debug("query", logging.String("kind", kind), logging.String("term", term))
}
