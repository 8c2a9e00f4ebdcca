package events

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/shopspring/decimal"
)

type Type string

const (
	TypeBetPlaced       Type = "bet.placed"
	TypeBetSettled      Type = "bet.settled"
	TypeBalanceAdjusted Type = "balance.adjusted"
)

// Event is the message fanned out after a ledger unit of work commits.
type Event struct {
	Type          Type             `json:"type"`
	UserID        uint64           `json:"user_id"`
	BetID         int64            `json:"bet_id,omitempty"`
	TransactionID int64            `json:"transaction_id,omitempty"`
	Outcome       string           `json:"outcome,omitempty"`
	Amount        decimal.Decimal  `json:"amount"`
	Balance       *decimal.Decimal `json:"balance,omitempty"`
	OccurredAt    time.Time        `json:"occurred_at"`
}

type publisher interface {
	Publish(ctx context.Context, channel string, payload any) error
}

// RedisPublisher sends events to a Redis Pub/Sub channel as JSON.
type RedisPublisher struct {
	client  publisher
	channel string
}

func NewRedisPublisher(client publisher, channel string) *RedisPublisher {
	return &RedisPublisher{client: client, channel: channel}
}

func (p *RedisPublisher) Publish(ctx context.Context, e Event) error {
	payload, err := json.Marshal(e)
	if err != nil {
		return fmt.Errorf("marshal event: %w", err)
	}

	err = p.client.Publish(ctx, p.channel, string(payload))
	if err != nil {
		return fmt.Errorf("publish %s: %w", e.Type, err)
	}

	return nil
}

// Nop drops every event.
type Nop struct{}

func (Nop) Publish(context.Context, Event) error { return nil }
