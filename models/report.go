package models

import (
	"time"

	"github.com/google/uuid"
)

// Report is the buyer-facing composition of a ranking and a market snapshot.
type Report struct {
	ID          uuid.UUID
	GeneratedAt time.Time
	Context     BuyerContext
	Result      RankResult
	Snapshot    MarketSnapshot
}
