// Package catalog provides the item catalogs the session engine validates
// restored assignments against.
//
// Three implementations satisfy session.Catalog:
//   - Memory: an in-process map, for tests and the offline CLI
//   - SQLite: the local song database (table mrvoice)
//   - Remote: an HTTP catalog service behind rate limiting, retries and
//     a circuit breaker
//
// Every implementation distinguishes "item does not exist" (ok == false,
// err == nil) from "could not answer" (err != nil). The engine drops
// assignments only in the first case.
package catalog
