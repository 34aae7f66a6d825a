// Package pipeline runs the end-to-end sentiment flow for one symbol:
// resolve the query, collect posts from every configured source, filter,
// score, persist, and aggregate into a single summary.
//
// Collaborators are interfaces so deployments can swap in model-backed
// scorers, embedding services, or alternative resolvers without touching
// the run loop.
package pipeline
