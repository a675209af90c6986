package storage

import (
	"context"
	"errors"
	"time"

	"unitcost/models"
)

// ErrDataUnavailable marks a failed upstream fetch. Callers decide whether
// to proceed with a last-known cached set; the engine never sees partial data.
var ErrDataUnavailable = errors.New("data_unavailable")

// UnitFilter narrows a unit fetch. Zero values match everything.
type UnitFilter struct {
	Zone       models.Zone
	ActiveOnly bool
}

// UnitSource supplies raw units.
type UnitSource interface {
	FetchUnits(ctx context.Context, filter UnitFilter) ([]models.Unit, error)
}

// StateSource supplies the state of each unit as observed on a given day.
type StateSource interface {
	FetchPreviousDayStates(ctx context.Context, day time.Time) (map[string]models.PriorState, error)
}

// RateSource supplies the official/parallel exchange rate pair.
type RateSource interface {
	FetchExchangeRate(ctx context.Context) (models.ExchangeRate, error)
}

// MatchWriter exports ranked matches.
type MatchWriter interface {
	WriteMatches(matches []models.ScoredMatch) error
	Close() error
}
