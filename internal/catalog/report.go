package catalog

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/google/uuid"

	"git.home.luguber.info/inful/stacbuilder/internal/foundation"
)

// BuildOutcome is the typed enumeration of final build result states.
type BuildOutcome string

const (
	OutcomeSuccess BuildOutcome = "success"
	OutcomeWarning BuildOutcome = "warning"
	OutcomeFailed  BuildOutcome = "failed"
)

// IssueCode enumerates machine-parseable issue identifiers. Stable
// contract: append only, never reuse.
type IssueCode string

const (
	IssueValidationFailure    IssueCode = "VALIDATION_FAILURE"
	IssueStructuralFailure    IssueCode = "STRUCTURAL_FAILURE"
	IssueSerializationFailure IssueCode = "SERIALIZATION_FAILURE"
	IssueEmptyExtent          IssueCode = "EMPTY_EXTENT"
	IssueNoRecords            IssueCode = "NO_RECORDS"
)

// IssueSeverity represents normalized severity levels.
type IssueSeverity string

const (
	SeverityError   IssueSeverity = "error"
	SeverityWarning IssueSeverity = "warning"
)

// Issue is a structured taxonomy entry describing one discrete problem.
type Issue struct {
	Code     IssueCode     `json:"code"`
	Stage    StageName     `json:"stage"`
	Severity IssueSeverity `json:"severity"`
	Message  string        `json:"message"`
	Entity   string        `json:"entity,omitempty"`
}

// Report captures the outcome of one build run. Per-record and per-node
// errors accumulate here instead of aborting the pipeline; the run's exit
// status derives from the final outcome.
type Report struct {
	SchemaVersion  int
	RunID          string
	Start          time.Time
	End            time.Time
	Records        int // normalized input records accepted
	Nodes          int // nodes in the assembled tree
	WrittenFiles   int
	Errors         []error
	Warnings       []error
	Issues         []Issue
	StageDurations map[StageName]time.Duration
	Outcome        BuildOutcome
}

// NewReport starts a report for one run.
func NewReport() *Report {
	return &Report{
		SchemaVersion:  1,
		RunID:          uuid.NewString(),
		Start:          time.Now(),
		StageDurations: make(map[StageName]time.Duration),
	}
}

// AddError records a build error, classifying it into the issue taxonomy.
func (r *Report) AddError(stage StageName, err error) {
	r.Errors = append(r.Errors, err)
	r.Issues = append(r.Issues, Issue{
		Code:     issueCodeFor(err),
		Stage:    stage,
		Severity: SeverityError,
		Message:  err.Error(),
		Entity:   entityOf(err),
	})
}

// AddWarning records a non-fatal problem.
func (r *Report) AddWarning(stage StageName, code IssueCode, err error) {
	r.Warnings = append(r.Warnings, err)
	r.Issues = append(r.Issues, Issue{
		Code:     code,
		Stage:    stage,
		Severity: SeverityWarning,
		Message:  err.Error(),
		Entity:   entityOf(err),
	})
}

// Finish stamps the end time and derives the outcome.
func (r *Report) Finish() {
	r.End = time.Now()
	switch {
	case len(r.Errors) > 0:
		r.Outcome = OutcomeFailed
	case len(r.Warnings) > 0:
		r.Outcome = OutcomeWarning
	default:
		r.Outcome = OutcomeSuccess
	}
}

// Failed reports whether the run must exit non-zero.
func (r *Report) Failed() bool { return r.Outcome == OutcomeFailed }

// Summary returns a human-readable single-line summary.
func (r *Report) Summary() string {
	dur := r.End.Sub(r.Start)
	return fmt.Sprintf("records=%d nodes=%d files=%d duration=%s errors=%d warnings=%d outcome=%s",
		r.Records, r.Nodes, r.WrittenFiles, dur.Truncate(time.Millisecond), len(r.Errors), len(r.Warnings), r.Outcome)
}

// Persist writes build-report.json and build-report.txt atomically into the
// given directory. Best effort; a persist failure never changes the build
// outcome.
func (r *Report) Persist(dir string) error {
	if r.End.IsZero() {
		r.Finish()
	}
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return fmt.Errorf("ensure report dir: %w", err)
	}

	data, err := json.MarshalIndent(r.serializable(), "", "  ")
	if err != nil {
		return fmt.Errorf("marshal report: %w", err)
	}
	jsonPath := filepath.Join(dir, "build-report.json")
	if err := writeAtomic(jsonPath, data); err != nil {
		return err
	}
	txtPath := filepath.Join(dir, "build-report.txt")
	return writeAtomic(txtPath, []byte(r.Summary()+"\n"))
}

func writeAtomic(path string, data []byte) error {
	tmp := path + ".tmp"
	if err := os.WriteFile(tmp, data, 0o644); err != nil {
		return fmt.Errorf("write temp %s: %w", path, err)
	}
	if err := os.Rename(tmp, path); err != nil {
		return fmt.Errorf("atomic rename %s: %w", path, err)
	}
	return nil
}

// reportSerializable mirrors Report with string errors for JSON output.
type reportSerializable struct {
	SchemaVersion  int                      `json:"schema_version"`
	RunID          string                   `json:"run_id"`
	Start          time.Time                `json:"start"`
	End            time.Time                `json:"end"`
	Records        int                      `json:"records"`
	Nodes          int                      `json:"nodes"`
	WrittenFiles   int                      `json:"written_files"`
	Errors         []string                 `json:"errors"`
	Warnings       []string                 `json:"warnings"`
	Issues         []Issue                  `json:"issues"`
	StageDurations map[string]time.Duration `json:"stage_durations"`
	Outcome        BuildOutcome             `json:"outcome"`
}

func (r *Report) serializable() *reportSerializable {
	s := &reportSerializable{
		SchemaVersion:  r.SchemaVersion,
		RunID:          r.RunID,
		Start:          r.Start,
		End:            r.End,
		Records:        r.Records,
		Nodes:          r.Nodes,
		WrittenFiles:   r.WrittenFiles,
		Errors:         make([]string, len(r.Errors)),
		Warnings:       make([]string, len(r.Warnings)),
		Issues:         r.Issues,
		StageDurations: make(map[string]time.Duration, len(r.StageDurations)),
		Outcome:        r.Outcome,
	}
	if s.Issues == nil {
		s.Issues = []Issue{}
	}
	for i, e := range r.Errors {
		s.Errors[i] = e.Error()
	}
	for i, w := range r.Warnings {
		s.Warnings[i] = w.Error()
	}
	for k, v := range r.StageDurations {
		s.StageDurations[string(k)] = v
	}
	return s
}

func issueCodeFor(err error) IssueCode {
	switch {
	case foundation.IsErrorCode(err, foundation.ErrorCodeValidation):
		return IssueValidationFailure
	case foundation.IsErrorCode(err, foundation.ErrorCodeStructural):
		return IssueStructuralFailure
	case foundation.IsErrorCode(err, foundation.ErrorCodeSerialization):
		return IssueSerializationFailure
	default:
		return IssueCode("GENERIC_FAILURE")
	}
}

func entityOf(err error) string {
	var classified *foundation.ClassifiedError
	if foundation.AsClassified(err, &classified) {
		return classified.Entity
	}
	return ""
}
