package model

import "time"

const (
	BerthCategoryLong  = "long"
	BerthCategoryShort = "short"
)

// Berth is a numbered mooring position. Number is unique and never changes
// after creation.
type Berth struct {
	ID        string    `json:"id,omitempty" bson:"_id,omitempty"`
	Number    int       `json:"number" bson:"number" validate:"gte=1"`
	Category  string    `json:"category" bson:"category" validate:"required,oneof=long short"`
	Status    string    `json:"status" bson:"status" validate:"max=500"`
	CreatedAt time.Time `json:"created_at" bson:"created_at"`
	UpdatedAt time.Time `json:"updated_at" bson:"updated_at"`
}

type BerthInput struct {
	Number   *int   `json:"number"`
	Category string `json:"category"`
	Status   string `json:"status"`
}

type BerthStatusUpdate struct {
	Status *string `json:"status"`
}

// BerthView is a berth annotated with the reservation active at request time.
type BerthView struct {
	Berth
	CurrentReservation *Reservation `json:"current_reservation"`
}
