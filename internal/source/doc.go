// Package source implements the per-platform collection adapters.
//
// Endpoints:
//   - Reddit: public JSON listings on old.reddit.com (no auth)
//   - StockTwits: public symbol streams, api.stocktwits.com/api/2
//   - X: API v2 recent search (bearer token required)
//
// All adapters bound pagination to a small fixed page count; the pipeline
// favors timeliness over exhaustive recall. Records older than the since
// cutoff are dropped at parse time.
package source
