package message

import (
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/c360/nertag/format"
	"github.com/c360/nertag/pkg/timestamp"
)

// Annotation statuses.
const (
	StatusOK    = "ok"
	StatusError = "error"
)

// TextSubmission is a request to annotate a piece of text. Submissions
// arrive as JSON on the submit subject; any service that can reach the
// bus may produce them.
//
// TextSubmission is the input half of the annotation contract. The
// annotator answers every accepted submission with exactly one
// EntityAnnotation carrying the submission's ID as RequestID.
type TextSubmission struct {
	// ID uniquely identifies this submission; generated when absent
	ID string `json:"id"`

	// Text is the raw text to annotate
	Text string `json:"text"`

	// Source identifies the submitting service or component
	Source string `json:"source,omitempty"`

	// SubmittedAt is the submission time in Unix milliseconds
	SubmittedAt int64 `json:"submitted_at"`
}

// NewTextSubmission creates a submission with a fresh UUID and the
// current time.
func NewTextSubmission(text, source string) *TextSubmission {
	return &TextSubmission{
		ID:          uuid.New().String(),
		Text:        text,
		Source:      source,
		SubmittedAt: timestamp.Now(),
	}
}

// EnsureID generates an ID for submissions that arrived without one,
// so the annotation can always reference its request.
func (s *TextSubmission) EnsureID() {
	if s.ID == "" {
		s.ID = uuid.New().String()
	}
}

// Validate checks required fields.
func (s *TextSubmission) Validate() error {
	if s.Text == "" {
		return fmt.Errorf("text is required")
	}
	return nil
}

// EntityAnnotation is the answer to a TextSubmission. On success it
// carries the entities found in the text grouped by type; on failure it
// carries a sanitized error message instead.
type EntityAnnotation struct {
	// ID uniquely identifies this annotation
	ID string `json:"id"`

	// RequestID is the ID of the TextSubmission this annotation answers
	RequestID string `json:"request_id"`

	// Source identifies the annotating service
	Source string `json:"source,omitempty"`

	// Format is the tagged-text grammar the tagger used
	Format format.Format `json:"format"`

	// Entities maps entity types to the phrases found in the text
	Entities format.EntityMap `json:"entities,omitempty"`

	// TaggedText is the raw tagged output, when the submitter asked for it
	TaggedText string `json:"tagged_text,omitempty"`

	// Error carries a sanitized failure message when Status is "error"
	Error string `json:"error,omitempty"`

	// Status is "ok" or "error"
	Status string `json:"status"`

	// AnnotatedAt is the annotation time in Unix milliseconds
	AnnotatedAt int64 `json:"annotated_at"`
}

// NewEntityAnnotation creates a successful annotation answering req.
func NewEntityAnnotation(req *TextSubmission, f format.Format, entities format.EntityMap, source string) *EntityAnnotation {
	return &EntityAnnotation{
		ID:          uuid.New().String(),
		RequestID:   req.ID,
		Source:      source,
		Format:      f,
		Entities:    entities,
		Status:      StatusOK,
		AnnotatedAt: timestamp.Now(),
	}
}

// NewErrorAnnotation creates a failed annotation answering req. The
// message should already be sanitized; it goes on the wire as-is.
func NewErrorAnnotation(req *TextSubmission, f format.Format, errMsg, source string) *EntityAnnotation {
	return &EntityAnnotation{
		ID:          uuid.New().String(),
		RequestID:   req.ID,
		Source:      source,
		Format:      f,
		Error:       errMsg,
		Status:      StatusError,
		AnnotatedAt: timestamp.Now(),
	}
}

// Validate checks required fields and status consistency.
func (a *EntityAnnotation) Validate() error {
	if a.ID == "" {
		return fmt.Errorf("id is required")
	}
	if a.RequestID == "" {
		return fmt.Errorf("request_id is required")
	}
	if !a.Format.Valid() {
		return fmt.Errorf("format %q is not supported", a.Format)
	}
	switch a.Status {
	case StatusOK, StatusError:
	default:
		return fmt.Errorf("status must be %q or %q", StatusOK, StatusError)
	}
	if a.Status == StatusError && a.Error == "" {
		return fmt.Errorf("error message is required when status is %q", StatusError)
	}
	return nil
}

// Latency returns the time from submission to annotation, or zero when
// either timestamp is missing.
func (a *EntityAnnotation) Latency(req *TextSubmission) time.Duration {
	if req == nil {
		return 0
	}
	return timestamp.Between(req.SubmittedAt, a.AnnotatedAt)
}
