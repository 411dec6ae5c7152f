// Package extension bundles the inbox into a single mountable unit.
//
// The extension wires an Inbox to a store and the admin API so an embedding
// application deals with one object:
//   - Building the Inbox from a configured store on Register
//   - Preparing the store layout (directory skeleton, schema) on Register
//   - Mounting admin API routes under a configurable prefix
//   - Starting the watcher and retention janitor on application start
//   - Gracefully stopping them on application shutdown
//   - Providing health checks via store.Ping
//
// Usage:
//
//	ext := extension.New(
//	    extension.WithStore(fs.New("data/webhooks")),
//	    extension.WithPrefix("/webhooks"),
//	)
//	if err := ext.Register(ctx); err != nil {
//	    log.Fatal(err)
//	}
//	ext.Mount(http.DefaultServeMux)
//	ext.Start(ctx)
//	defer ext.Stop(ctx)
package extension
