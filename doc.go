// Package nertag provides a client library and a NATS bridge service
// for remote named entity tagging servers.
//
// # Overview
//
// A Stanford NER style tagging server accepts plain text and echoes it
// back with entity annotations. NerTag speaks both of that server's
// wire protocols and builds two layers on top:
//
// Layer 1 - Client (direct tagging):
//   - Transports: raw TCP socket, HTTP form POST
//   - Formats: slashTags, xml, inlineXML parsing into entity maps
//   - Resilience: timeouts, response caps, classified errors, retries
//
// Layer 2 - Service (messaging bridge):
//   - Submissions: JSON text submissions on a NATS subject
//   - Annotation: worker pool tags each submission concurrently
//   - Delivery: exactly one annotation published per accepted submission
//   - Infrastructure: Prometheus metrics, health checks, rate limiting
//
// # Architecture
//
// The daemon wires the two layers together:
//
//	┌─────────────────────────────────────┐
//	│         NATS submit subject         │  TextSubmission JSON
//	│      (queue group "annotators")     │  competing consumers
//	└──────────────────┬──────────────────┘
//	                   ↓
//	┌─────────────────────────────────────┐
//	│            Annotator                │  decode, validate,
//	│   (rate limit, bounded worker pool) │  rate limit, enqueue
//	└──────────────────┬──────────────────┘
//	                   ↓ tags via
//	┌─────────────────────────────────────┐
//	│          Tagging Client             │  socket or HTTP
//	│   (timeouts, retries, formats)      │  exchange per text
//	└──────────────────┬──────────────────┘
//	                   ↓
//	┌─────────────────────────────────────┐
//	│       Remote tagging server         │  Stanford NER style
//	└─────────────────────────────────────┘
//
// Results flow back as Annotation messages on the annotated subject.
// A tagging failure still produces an annotation, carrying a sanitized
// error instead of entities, so submitters always hear back.
//
// # Packages
//
// Tagging:
//   - client: transport-agnostic tagging client (socket, HTTP)
//   - format: tagged-text parsing and entity aggregation
//
// Messaging:
//   - message: text submission and annotation envelopes
//   - service: the Annotator bridging NATS to a tagging client
//   - natsclient: NATS connection management with reconnect handling
//
// Infrastructure:
//   - config: layered JSON configuration with schema validation
//   - errors: structured error handling with failure classification
//   - health: three-state health model with sanitized messages
//   - metric: Prometheus metrics registry and scrape server
//
// Utilities:
//   - pkg/retry: backoff retry policies
//   - pkg/worker: bounded worker pools
//   - pkg/timestamp: canonical UTC timestamp handling
//   - testutil: in-process fake taggers and a fake NATS bus
//
// # Usage Patterns
//
// Direct tagging:
//
//	c, _ := client.NewSocket("localhost", 1234,
//	    client.WithFormat(format.InlineXML),
//	    client.WithTimeout(10*time.Second),
//	)
//	entities, _ := c.ExtractEntities(ctx, "Tim Cook visited Paris.")
//	// entities: {"PERSON": ["Tim Cook"], "LOCATION": ["Paris"]}
//
// Running the bridge:
//
//	cfg := config.DefaultConfig()
//	nc, _ := natsclient.NewClient(cfg.NATS.URL)
//	nc.Connect(ctx)
//
//	annotator, _ := service.NewAnnotator(cfg, c, nc)
//	annotator.Start(ctx)
//	defer annotator.Stop(30 * time.Second)
//
// Submitting text over NATS:
//
//	sub := message.NewTextSubmission("Ada Lovelace wrote programs.", "ingest")
//	data, _ := json.Marshal(sub)
//	nc.Publish(ctx, cfg.NATS.SubmitSubject, data)
//
// # Design Principles
//
// Separation of Concerns:
//   - Wire exchange ≠ format parsing ≠ message flow
//   - The client knows nothing about NATS, the service nothing about
//     tagger wire protocols
//
// Classified Failures:
//   - Every error is transient, invalid, or fatal
//   - Retry policy keys off classification, not string matching
//
// Bounded Everything:
//   - Worker pools and queues have fixed sizes
//   - Overflow drops with a counter instead of unbounded growth
//
// Testability:
//   - Small consumer-side interfaces (Tagger, Bus)
//   - In-process fakes for both wire protocols and the message bus
//   - Integration tests with testcontainers where a real broker matters
//
// # Binaries
//
// Two commands ship with the module:
//
//	# Tag files or stdin from the command line
//	echo "text" | nertag
//	nertag --json --concurrency=4 notes/*.txt
//
//	# Run the NATS bridge daemon
//	nertagd --config=nertagd.json
//
// The daemon exposes Prometheus metrics on the configured scrape port
// and liveness on /healthz.
package nertag
