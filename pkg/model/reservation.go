package model

import "time"

type Reservation struct {
	ID          string    `json:"id,omitempty" bson:"_id,omitempty"`
	BerthNumber int       `json:"berth_number" bson:"berth_number" validate:"gte=1"`
	ClientName  string    `json:"client_name" bson:"client_name" validate:"required,max=200"`
	VesselName  string    `json:"vessel_name" bson:"vessel_name" validate:"required,max=200"`
	StartDate   time.Time `json:"start_date" bson:"start_date" validate:"required"`
	EndDate     time.Time `json:"end_date" bson:"end_date" validate:"required,gtfield=StartDate"`
	CreatedAt   time.Time `json:"created_at" bson:"created_at"`
	UpdatedAt   time.Time `json:"updated_at" bson:"updated_at"`
}

// ReservationInput carries raw client input. Dates stay strings until the
// validator parses them so unparseable values report as an invalid range.
type ReservationInput struct {
	ClientName string `json:"client_name"`
	VesselName string `json:"vessel_name"`
	StartDate  string `json:"start_date"`
	EndDate    string `json:"end_date"`
}

// Contains reports whether t falls inside the reservation, bounds included.
func (r *Reservation) Contains(t time.Time) bool {
	return !t.Before(r.StartDate) && !t.After(r.EndDate)
}
