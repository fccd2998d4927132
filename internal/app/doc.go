// Package app hosts the running CueDeck session.
//
// The Host owns the startup sequence (choose the active profile, load its
// preferences, restore its layout, unlock), profile switching, periodic
// and on-demand saves, and the awaited save on quit. The in-process View
// stands in for the renderer: it holds the current tab assignments of
// every kind and is both the source the session engine extracts from and
// the sink it restores into.
//
// Example Usage:
//
//	host, err := app.New(opts, catalog, logger)
//	if err != nil {
//	    log.Fatal(err)
//	}
//	if _, err := host.Start(ctx); err != nil {
//	    log.Fatal(err)
//	}
//	defer host.Shutdown(context.Background())
package app
