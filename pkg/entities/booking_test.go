package entities

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestBookingStatusTransitions(t *testing.T) {
	statuses := []BookingStatus{BookingStatusUpcoming, BookingStatusCompleted, BookingStatusCancelled}
	allowed := map[[2]BookingStatus]bool{
		{BookingStatusUpcoming, BookingStatusCompleted}: true,
		{BookingStatusUpcoming, BookingStatusCancelled}: true,
	}

	for _, from := range statuses {
		for _, to := range statuses {
			t.Run(string(from)+"->"+string(to), func(t *testing.T) {
				assert.Equal(t, allowed[[2]BookingStatus{from, to}], from.CanTransitionTo(to))
			})
		}
	}
}

func TestBookingStatusTerminal(t *testing.T) {
	assert.False(t, BookingStatusUpcoming.Terminal())
	assert.True(t, BookingStatusCompleted.Terminal())
	assert.True(t, BookingStatusCancelled.Terminal())
}

func TestParseBookingStatus(t *testing.T) {
	status, err := ParseBookingStatus("completed")
	require.NoError(t, err)
	assert.Equal(t, BookingStatusCompleted, status)

	_, err = ParseBookingStatus("rescheduled")
	assert.Error(t, err)
	assert.False(t, BookingStatus("in-progress").Valid())
}

func TestBookingScheduledAt(t *testing.T) {
	b := Booking{Date: "2026-10-18", Time: "14:00"}

	at, err := b.ScheduledAt(time.UTC)
	require.NoError(t, err)
	assert.Equal(t, time.Date(2026, 10, 18, 14, 0, 0, 0, time.UTC), at)

	_, err = Booking{Date: "tomorrow", Time: "14:00"}.ScheduledAt(time.UTC)
	assert.Error(t, err)
}

func TestTransactionSigned(t *testing.T) {
	assert.Equal(t, int64(15), Transaction{Type: TransactionTypeEarned, Amount: 15}.Signed())
	assert.Equal(t, int64(-15), Transaction{Type: TransactionTypeSpent, Amount: 15}.Signed())
	assert.True(t, TransactionTypeSpent.Valid())
	assert.False(t, TransactionType("refund").Valid())
}
