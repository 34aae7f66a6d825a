// Package model defines shared data types used across the sentiment pipeline.
//
// Conventions:
//   - Timestamps: time.Time in UTC, source-reported where available
//   - Optional engagement counters: *int (not every source reports every counter)
//   - (Source, PlatformID) is the globally unique post identity and the dedup key
package model
