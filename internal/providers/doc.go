// Package providers groups the adapters between the domain packages and
// the outside world.
//
// Available Providers:
//   - filesystem: atomic writes, tree copies, structured formats, profile archives
//   - catalog: item catalogs backed by memory, SQLite or a remote HTTP service
package providers
