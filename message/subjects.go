package message

// Default NATS subjects for the annotation pipeline. Both are
// configurable; these are the values used when configuration is silent.
const (
	// DefaultSubmitSubject carries TextSubmission envelopes.
	DefaultSubmitSubject = "nertag.text.submit"

	// DefaultAnnotatedSubject carries EntityAnnotation envelopes.
	DefaultAnnotatedSubject = "nertag.entity.annotated"
)
