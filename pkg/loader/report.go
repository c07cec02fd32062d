package loader

import (
	"fmt"
	"io"
	"text/tabwriter"
	"time"
)

// FileReport summarizes the load of one file.
type FileReport struct {
	File string
	// Kind is the node label or relationship type the file feeds.
	Kind     string
	Rows     int
	Created  int
	Dropped  int
	Bytes    int64
	Digest   string
	Duration time.Duration
}

// Report summarizes one pipeline run.
type Report struct {
	RunID         string
	Source        string
	Started       time.Time
	Duration      time.Duration
	Nodes         []FileReport
	Relationships []FileReport
}

// NodesCreated returns the total number of nodes created.
func (r *Report) NodesCreated() int {
	n := 0
	for _, f := range r.Nodes {
		n += f.Created
	}
	return n
}

// RelationshipsCreated returns the total number of relationships created.
func (r *Report) RelationshipsCreated() int {
	n := 0
	for _, f := range r.Relationships {
		n += f.Created
	}
	return n
}

// Dropped returns the total number of relationship rows dropped.
func (r *Report) Dropped() int {
	n := 0
	for _, f := range r.Relationships {
		n += f.Dropped
	}
	return n
}

// WriteTo renders the report as an aligned table.
func (r *Report) WriteTo(w io.Writer) (int64, error) {
	cw := &countingWriter{w: w}
	fmt.Fprintf(cw, "Run %s from %s (%s)\n\n", r.RunID, r.Source, r.Duration.Round(time.Millisecond))

	tw := tabwriter.NewWriter(cw, 0, 0, 2, ' ', 0)
	fmt.Fprintln(tw, "FILE\tKIND\tROWS\tCREATED\tDROPPED\tBYTES\tXXHASH")
	for _, files := range [][]FileReport{r.Nodes, r.Relationships} {
		for _, f := range files {
			fmt.Fprintf(tw, "%s\t%s\t%d\t%d\t%d\t%d\t%s\n", f.File, f.Kind, f.Rows, f.Created, f.Dropped, f.Bytes, f.Digest)
		}
	}
	tw.Flush()

	fmt.Fprintf(cw, "\n%d nodes, %d relationships created, %d relationship rows dropped\n",
		r.NodesCreated(), r.RelationshipsCreated(), r.Dropped())
	return cw.n, cw.err
}

type countingWriter struct {
	w   io.Writer
	n   int64
	err error
}

func (c *countingWriter) Write(p []byte) (int, error) {
	if c.err != nil {
		return 0, c.err
	}
	n, err := c.w.Write(p)
	c.n += int64(n)
	c.err = err
	return n, err
}
