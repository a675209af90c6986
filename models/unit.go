package models

import "time"

// Status is the listing state of a unit on the market.
type Status string

const (
	StatusActive    Status = "active"
	StatusWithdrawn Status = "withdrawn"
)

// RawUnit holds unprocessed data as scraped from a listing portal.
// Every field is kept as text until the cleaner parses it.
type RawUnit struct {
	ExternalID string
	Project    string
	RawPrice   string
	RawArea    string
	RawRooms   string
	Location   string
	Amenities  string
	RawParking string
	RawStorage string
	RawHOA     string
	URL        string
	ScrapedAt  time.Time
}

// Unit is a cleaned listing as supplied to the engine. Optional cost fields
// that are zero or negative mean "not known".
type Unit struct {
	ID           string
	Project      string
	NominalPrice Money
	AreaM2       float64
	Bedrooms     int
	Zone         Zone
	Amenities    []string
	Status       Status
	ListedAt     time.Time

	ParkingPrice Money
	StoragePrice Money
	HOAFee       Money
}

// Active reports whether the unit is still on the market.
func (u Unit) Active() bool {
	return u.Status == StatusActive
}

// PriorState is the previously observed state of a unit, used to detect
// withdrawals and price drops between two observations.
type PriorState struct {
	Status Status
	Price  Money
}
