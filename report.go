package main

import (
	"fmt"
	"io"
	"text/tabwriter"

	"github.com/dustin/go-humanize"

	"monks.co/backupcloser/model"
)

type Status int

const (
	StatusSynced Status = iota
	StatusUpToDate
	StatusSkipped // broken lineage; needs operator attention
	StatusFailed  // transfer failed; backup left at its last good snapshot
)

func (s Status) String() string {
	switch s {
	case StatusSynced:
		return "synced"
	case StatusUpToDate:
		return "up to date"
	case StatusSkipped:
		return "skipped"
	case StatusFailed:
		return "failed"
	default:
		return "unknown"
	}
}

// Result is the outcome for one dataset pair.
type Result struct {
	Dataset         model.DatasetName
	Status          Status
	Reason          string
	Bytes           int64
	VerifyMismatch  bool
	VerifyError     string // verification couldn't run; not a mismatch
	DiffUnavailable bool
	DiffChanges     int
}

// Report collects per-dataset results across one run.
type Report struct {
	results []Result
}

func NewReport() *Report {
	return &Report{}
}

func (r *Report) Add(res Result) {
	r.results = append(r.results, res)
}

func (r *Report) Results() []Result {
	return r.results
}

// Failures counts datasets with lineage or transfer failures. Verification
// mismatches and unavailable diffs are reported but don't count.
func (r *Report) Failures() int {
	n := 0
	for _, res := range r.results {
		if res.Status == StatusSkipped || res.Status == StatusFailed {
			n++
		}
	}
	return n
}

func (r *Report) AllOK() bool {
	return r.Failures() == 0
}

// ExitCode is the aggregate failure count, capped to stay a valid exit
// status.
func (r *Report) ExitCode() int {
	n := r.Failures()
	if n > 125 {
		n = 125
	}
	return n
}

func (r *Report) Print(w io.Writer) {
	tw := tabwriter.NewWriter(w, 0, 8, 2, ' ', 0)
	fmt.Fprintln(tw, "DATASET\tSTATUS\tTRANSFERRED\tNOTES")
	for _, res := range r.results {
		transferred := "-"
		if res.Bytes > 0 {
			transferred = humanize.Bytes(uint64(res.Bytes))
		}
		fmt.Fprintf(tw, "%s\t%s\t%s\t%s\n", res.Dataset, res.Status, transferred, notes(res))
	}
	tw.Flush()
}

func notes(res Result) string {
	var out string
	if res.Reason != "" {
		out = res.Reason
	}
	if res.VerifyMismatch {
		out = join(out, "verification mismatch")
	}
	if res.VerifyError != "" {
		out = join(out, "verification failed: "+res.VerifyError)
	}
	if res.DiffUnavailable {
		out = join(out, "diff unavailable")
	} else if res.DiffChanges > 0 {
		out = join(out, fmt.Sprintf("%d changed paths", res.DiffChanges))
	}
	return out
}

func join(a, b string) string {
	if a == "" {
		return b
	}
	return a + "; " + b
}
