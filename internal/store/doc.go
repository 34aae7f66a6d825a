// Package store persists posts, sentiment scores, and embeddings to
// PostgreSQL, and serves the windowed aggregate and resolver-cache queries.
//
// All writes are idempotent upserts keyed on natural identity (source plus
// platform ID for posts, post primary key for sentiment and embeddings), so
// re-collecting a window never duplicates rows.
package store
