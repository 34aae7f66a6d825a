// Package fetch provides the rate-limited, retrying HTTP layer shared by all
// source adapters.
//
// Every physical request goes through a per-source RateLimiter and a rotated
// browser User-Agent. Responses are classified: 2xx succeeds, 429 and 5xx and
// transport errors retry with exponential backoff, any other 4xx fails
// immediately without consuming the remaining attempt budget.
package fetch
