// Package message defines the JSON envelopes exchanged over NATS by the
// annotation pipeline.
//
// Two envelope types form the contract:
//
//   - TextSubmission: a request to annotate text, published on the
//     submit subject (default "nertag.text.submit")
//   - EntityAnnotation: the answer, published on the annotated subject
//     (default "nertag.entity.annotated")
//
// The annotator publishes exactly one EntityAnnotation per accepted
// TextSubmission, linked through RequestID. On success the annotation
// carries the entities grouped by type; on failure it carries Status
// "error" and a sanitized message, so submitters never need to time out
// on silence to learn their request failed.
//
// # Wire Format
//
// Envelopes marshal with snake_case field names and Unix millisecond
// timestamps:
//
//	{
//	  "id": "2b1c83e1-...",
//	  "text": "Tim Cook visited Paris.",
//	  "source": "ingest-gateway",
//	  "submitted_at": 1673785845123
//	}
//
//	{
//	  "id": "9f04aa10-...",
//	  "request_id": "2b1c83e1-...",
//	  "source": "annotator",
//	  "format": "slashTags",
//	  "entities": {"PERSON": ["Tim Cook"], "LOCATION": ["Paris"]},
//	  "status": "ok",
//	  "annotated_at": 1673785845201
//	}
//
// # Usage
//
// Producing a submission:
//
//	sub := message.NewTextSubmission("Tim Cook visited Paris.", "ingest-gateway")
//	data, _ := json.Marshal(sub)
//	client.Publish(ctx, message.DefaultSubmitSubject, data)
//
// Answering one:
//
//	ann := message.NewEntityAnnotation(sub, format.SlashTags, entities, "annotator")
//	data, _ := json.Marshal(ann)
//	client.Publish(ctx, message.DefaultAnnotatedSubject, data)
//
// Incoming submissions may lack an ID (external producers are not
// required to generate UUIDs); call EnsureID before answering so the
// annotation has something to reference.
package message
