package source

import (
	"context"
	"time"

	"github.com/sentibot/sentiment-data/internal/model"
)

// Adapter collects posts about an instrument from one platform.
//
// Collect never fails for expected degradation (missing data, one sub-request
// failing): those are logged internally and yield a partial or empty slice.
// A returned error marks whole-source failure and is worth a zero count in
// the per-source status map, nothing more.
type Adapter interface {
	Name() model.Source
	Collect(ctx context.Context, inst model.Instrument, since time.Time) ([]model.Post, error)
}
