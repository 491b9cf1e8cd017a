package indexer

import (
	"time"

	"github.com/peerly/peerly/pkg/entities"
)

// ESTransaction represents a ledger transaction document in Elasticsearch
type ESTransaction struct {
	ID           string    `json:"id"`
	Type         string    `json:"type"`
	Amount       int64     `json:"amount"`
	SignedAmount int64     `json:"signed_amount"`
	Reason       string    `json:"reason"`
	Timestamp    time.Time `json:"timestamp"`
	BalanceAfter int64     `json:"balance_after"`
}

// ESBooking represents a booking document in Elasticsearch
type ESBooking struct {
	ID            string     `json:"id"`
	TopicID       int64      `json:"topic_id"`
	TopicTitle    string     `json:"topic_title"`
	TutorName     string     `json:"tutor_name"`
	Date          string     `json:"date"`
	Time          string     `json:"time"`
	SupercoinCost int64      `json:"supercoin_cost"`
	Status        string     `json:"status"`
	CreatedAt     time.Time  `json:"created_at"`
	UpdatedAt     *time.Time `json:"updated_at,omitempty"`
}

func toESTransaction(tx entities.Transaction) ESTransaction {
	return ESTransaction{
		ID:           tx.ID,
		Type:         string(tx.Type),
		Amount:       tx.Amount,
		SignedAmount: tx.Signed(),
		Reason:       tx.Reason,
		Timestamp:    tx.Timestamp,
		BalanceAfter: tx.BalanceAfter,
	}
}

func toESBooking(b entities.Booking) ESBooking {
	return ESBooking{
		ID:            b.ID,
		TopicID:       b.TopicID,
		TopicTitle:    b.TopicTitle,
		TutorName:     b.TutorName,
		Date:          b.Date,
		Time:          b.Time,
		SupercoinCost: b.Cost,
		Status:        string(b.Status),
		CreatedAt:     b.CreatedAt,
		UpdatedAt:     b.UpdatedAt,
	}
}
