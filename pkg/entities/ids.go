package entities

import "github.com/google/uuid"

// Identifier prefixes
const (
	TransactionIDPrefix  = "TX-"
	BookingIDPrefix      = "BK-"
	NotificationIDPrefix = "NT-"
)

// NewID returns prefix followed by a time-ordered UUID, so ids created
// later sort after ids created earlier.
func NewID(prefix string) string {
	id, err := uuid.NewV7()
	if err != nil {
		id = uuid.New()
	}
	return prefix + id.String()
}
