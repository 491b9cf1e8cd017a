package entities

import "time"

// NotificationType categorizes feed entries
type NotificationType string

const (
	NotificationTypeBooking      NotificationType = "booking"
	NotificationTypeCancellation NotificationType = "cancellation"
	NotificationTypeEarning      NotificationType = "earning"
	NotificationTypeReminder     NotificationType = "reminder"
	NotificationTypeMessage      NotificationType = "message"
)

// Notification is an entry in the in-app notification feed
type Notification struct {
	ID        string           `json:"id"`
	Type      NotificationType `json:"type"`
	Title     string           `json:"title"`
	Message   string           `json:"message"`
	Timestamp time.Time        `json:"timestamp"`
	IsRead    bool             `json:"isRead"`
	BookingID string           `json:"bookingId,omitempty"`
}
