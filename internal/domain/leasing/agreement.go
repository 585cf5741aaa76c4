// Package leasing exposes the narrow read surface the billing engine needs
// from the surrounding tenancy system. Agreements and occupancy are tracked
// by separate mechanisms that are not always both populated, so the billing
// seeder consumes both ports and falls back from one to the other.
package leasing

import (
	"context"

	"github.com/shopspring/decimal"
)

// ActiveAgreement is the seed-time projection of a currently-active rental
// agreement: just the room it covers and the agreed rent
type ActiveAgreement struct {
	RoomCode   string
	RentAmount decimal.Decimal
}

// AgreementSource lists the rental agreements active as of now
type AgreementSource interface {
	ActiveAgreements(ctx context.Context) ([]ActiveAgreement, error)
}

// OccupancySource lists room codes with an active occupancy record. Used as
// the seeding fallback when no formal agreements exist.
type OccupancySource interface {
	OccupiedRoomCodes(ctx context.Context) ([]string, error)
}
