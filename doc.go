// Package inbox provides a composable webhook reception layer for Go.
//
// Inbox is a library, not a service. Import it into your application to
// accept signed webhook events from external systems, keep them as durable
// files, and hand them to a consumer in small, oldest-first batches.
//
// Key features:
//   - Registered webhook endpoints with per-registration HMAC-SHA256 secrets
//   - Signature, timestamp-freshness, rate-limit, and event-type checks on
//     every receipt, applied strictly in order
//   - Human-readable persistence: one JSON file per registration, event, and
//     delivery, with rebuildable index files
//   - Filesystem watcher that announces new events as they land
//   - Pending-event batches for injection, with a plain-text digest helper
//   - Retention janitor enforcing per-webhook age and count bounds
//
// Quick start:
//
//	st := fs.New("data/webhooks")
//	if err := st.Migrate(ctx); err != nil {
//	    log.Fatal(err)
//	}
//
//	ib, err := inbox.New(
//	    inbox.WithStore(st),
//	)
//	if err != nil {
//	    log.Fatal(err)
//	}
//
//	reg, _ := ib.Registrations().Create(ctx, registration.Input{
//	    Name:   "GitHub",
//	    Source: "github",
//	})
//
//	res := ib.Receive(ctx, inbox.ReceiveInput{
//	    WebhookID: reg.ID,
//	    Payload:   body,
//	    Signature: sig,
//	    Timestamp: ts,
//	    EventType: "issues.opened",
//	})
package inbox
