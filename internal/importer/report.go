package importer

import (
	"fmt"
	"sort"
	"strings"
)

// Outcome is the final state of one record.
type Outcome string

const (
	OutcomeCommitted Outcome = "committed"
	OutcomeRejected  Outcome = "rejected"
	OutcomeFailed    Outcome = "failed"
)

// RecordOutcome ties an outcome back to the operator's input row so the
// failing subset can be corrected and re-run.
type RecordOutcome struct {
	Row     int
	Name    string
	Outcome Outcome
	Reason  string
}

// ImportReport aggregates per-record outcomes for one run. It is not
// safe for concurrent mutation; the executor serializes access.
type ImportReport struct {
	Committed int
	Rejected  int
	Failed    int

	Records     []RecordOutcome
	ParseErrors []ParseError
}

// AddParseError records a row that never became a candidate.
func (r *ImportReport) AddParseError(e ParseError) {
	r.ParseErrors = append(r.ParseErrors, e)
}

// AddRejection records a locally rejected candidate.
func (r *ImportReport) AddRejection(rej Rejection) {
	r.Rejected++
	r.Records = append(r.Records, RecordOutcome{
		Row:     rej.Record.Row,
		Name:    rej.Record.Name,
		Outcome: OutcomeRejected,
		Reason:  rej.String(),
	})
}

// Add records an executor outcome.
func (r *ImportReport) Add(rec ValidatedSensorRecord, outcome Outcome, reason string) {
	switch outcome {
	case OutcomeCommitted:
		r.Committed++
	case OutcomeRejected:
		r.Rejected++
	case OutcomeFailed:
		r.Failed++
	}
	r.Records = append(r.Records, RecordOutcome{
		Row:     rec.Row,
		Name:    rec.Name,
		Outcome: outcome,
		Reason:  reason,
	})
}

// OK reports whether the run should exit zero: nothing rejected, nothing
// failed, every row parsed.
func (r *ImportReport) OK() bool {
	return r.Rejected == 0 && r.Failed == 0 && len(r.ParseErrors) == 0
}

// Summary renders the operator-facing result: counts first, then one
// line per problem row.
func (r *ImportReport) Summary() string {
	b := &strings.Builder{}
	fmt.Fprintf(b, "import summary: %d committed, %d rejected, %d failed, %d parse errors\n",
		r.Committed, r.Rejected, r.Failed, len(r.ParseErrors))

	for _, e := range r.ParseErrors {
		fmt.Fprintf(b, "  %v\n", e)
	}

	problems := make([]RecordOutcome, 0, len(r.Records))
	for _, rec := range r.Records {
		if rec.Outcome != OutcomeCommitted {
			problems = append(problems, rec)
		}
	}
	sort.SliceStable(problems, func(i, j int) bool { return problems[i].Row < problems[j].Row })
	for _, rec := range problems {
		name := rec.Name
		if name == "" {
			name = "-"
		}
		fmt.Fprintf(b, "  row %d (%s): %s: %s\n", rec.Row, name, rec.Outcome, rec.Reason)
	}
	return b.String()
}
