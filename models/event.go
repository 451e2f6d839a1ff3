package models

import (
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

// Event categories
const (
	CategoryConference = "Conference"
	CategoryWorkshop   = "Workshop"
	CategorySeminar    = "Seminar"
	CategorySocial     = "Social"
	CategoryOther      = "Other"
)

// Event statuses
const (
	StatusUpcoming  = "upcoming"
	StatusOngoing   = "ongoing"
	StatusCompleted = "completed"
	StatusCancelled = "cancelled"
)

const DefaultEventImage = "/default-event-image.jpg"

// Participant is one registration entry on an event.
type Participant struct {
	User         primitive.ObjectID `bson:"user" json:"user"`
	RegisteredAt time.Time          `bson:"registered_at" json:"registered_at"`
}

type Event struct {
	ID          primitive.ObjectID `bson:"_id,omitempty" json:"id"`
	Title       string             `bson:"title" json:"title"`
	Description string             `bson:"description,omitempty" json:"description,omitempty"`
	Date        time.Time          `bson:"date" json:"date"`
	Time        string             `bson:"time,omitempty" json:"time,omitempty"`
	Location    string             `bson:"location,omitempty" json:"location,omitempty"`
	Category    string             `bson:"category,omitempty" json:"category,omitempty"` // Conference, Workshop, Seminar, Social, Other
	Capacity    int                `bson:"capacity" json:"capacity"`
	Tags        []string           `bson:"tags" json:"tags"`
	Status      string             `bson:"status" json:"status"` // upcoming, ongoing, completed, cancelled
	CreatedBy   primitive.ObjectID `bson:"created_by" json:"created_by"`
	Registered  []Participant      `bson:"registered_participants" json:"registered_participants"`
	Image       string             `bson:"image" json:"image"`
	CreatedAt   time.Time          `bson:"created_at" json:"created_at"`
	UpdatedAt   time.Time          `bson:"updated_at" json:"updated_at"`

	// Enriched fields
	AvailableSpots int          `bson:"-" json:"available_spots"`
	IsFull         bool         `bson:"-" json:"is_full"`
	Creator        *CreatorInfo `bson:"-" json:"creator,omitempty"`
}

// CreatorInfo is the denormalized creator reference returned on reads.
type CreatorInfo struct {
	ID    primitive.ObjectID `json:"id"`
	Name  string             `json:"name"`
	Email string             `json:"email"`
}

// Enrich fills the derived registration fields before the event is returned.
func (e *Event) Enrich() {
	e.AvailableSpots = e.Capacity - len(e.Registered)
	e.IsFull = len(e.Registered) >= e.Capacity
}

// IsUserRegistered reports whether userID already appears in the registered
// participants.
func (e *Event) IsUserRegistered(userID primitive.ObjectID) bool {
	for _, p := range e.Registered {
		if p.User == userID {
			return true
		}
	}
	return false
}

// RecomputeStatus derives the status from the event date relative to now.
// A cancelled event stays cancelled. Runs on every save path.
func (e *Event) RecomputeStatus(now time.Time) {
	if e.Status == StatusCancelled {
		return
	}

	ny, nm, nd := now.Date()
	ey, em, ed := e.Date.Date()
	switch {
	case ny == ey && nm == em && nd == ed:
		e.Status = StatusOngoing
	case e.Date.Before(now):
		e.Status = StatusCompleted
	default:
		e.Status = StatusUpcoming
	}
}

// ValidCategory reports whether c is an allowed category.
func ValidCategory(c string) bool {
	switch c {
	case CategoryConference, CategoryWorkshop, CategorySeminar, CategorySocial, CategoryOther:
		return true
	}
	return false
}

// ValidStatus reports whether s is an allowed status.
func ValidStatus(s string) bool {
	switch s {
	case StatusUpcoming, StatusOngoing, StatusCompleted, StatusCancelled:
		return true
	}
	return false
}
