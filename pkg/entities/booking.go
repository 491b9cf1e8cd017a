package entities

import (
	"fmt"
	"time"
)

// BookingStatus represents where a booking is in its lifecycle
type BookingStatus string

const (
	BookingStatusUpcoming  BookingStatus = "upcoming"
	BookingStatusCompleted BookingStatus = "completed"
	BookingStatusCancelled BookingStatus = "cancelled"
)

// Layouts of the calendar fields on a booking. No timezone is stored.
const (
	BookingDateLayout = "2006-01-02"
	BookingTimeLayout = "15:04"
)

// bookingTransitions lists the allowed source -> target pairs
var bookingTransitions = map[BookingStatus][]BookingStatus{
	BookingStatusUpcoming:  {BookingStatusCompleted, BookingStatusCancelled},
	BookingStatusCompleted: {},
	BookingStatusCancelled: {},
}

// Valid reports whether s is a known booking status
func (s BookingStatus) Valid() bool {
	_, ok := bookingTransitions[s]
	return ok
}

// Terminal reports whether no transition leaves s
func (s BookingStatus) Terminal() bool {
	return len(bookingTransitions[s]) == 0
}

// CanTransitionTo reports whether a booking in status s may move to next
func (s BookingStatus) CanTransitionTo(next BookingStatus) bool {
	for _, allowed := range bookingTransitions[s] {
		if allowed == next {
			return true
		}
	}
	return false
}

// ParseBookingStatus converts a string to a BookingStatus
func ParseBookingStatus(value string) (BookingStatus, error) {
	status := BookingStatus(value)
	if !status.Valid() {
		return "", fmt.Errorf("unknown booking status %q", value)
	}
	return status, nil
}

// Booking represents a tutoring session a user has booked
type Booking struct {
	ID         string        `json:"id"`
	TopicID    int64         `json:"topicId"`
	TopicTitle string        `json:"topicTitle"`
	TutorName  string        `json:"tutorName"`
	Date       string        `json:"date"`          // YYYY-MM-DD
	Time       string        `json:"time"`          // HH:MM
	Cost       int64         `json:"supercoinCost"` // SuperCoins charged at booking time
	Status     BookingStatus `json:"status"`
	CreatedAt  time.Time     `json:"createdAt"`
	UpdatedAt  *time.Time    `json:"updatedAt,omitempty"`
}

// ScheduledAt returns the session start in loc. It fails when the date or
// time fields are not in the expected layouts.
func (b Booking) ScheduledAt(loc *time.Location) (time.Time, error) {
	return time.ParseInLocation(BookingDateLayout+" "+BookingTimeLayout, b.Date+" "+b.Time, loc)
}
