package events

import (
	"context"
	"encoding/json"
	"errors"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeClient struct {
	channel string
	payload any
	err     error
}

func (f *fakeClient) Publish(_ context.Context, channel string, payload any) error {
	f.channel = channel
	f.payload = payload
	return f.err
}

func TestRedisPublisher_Publish(t *testing.T) {
	client := &fakeClient{}
	pub := NewRedisPublisher(client, "wagerledger.events")

	bal := decimal.RequireFromString("80.00")
	at := time.Date(2025, 3, 1, 12, 0, 0, 0, time.UTC)

	err := pub.Publish(context.Background(), Event{
		Type:          TypeBetPlaced,
		UserID:        1,
		BetID:         10,
		TransactionID: 55,
		Amount:        decimal.NewFromInt(20),
		Balance:       &bal,
		OccurredAt:    at,
	})
	require.NoError(t, err)
	assert.Equal(t, "wagerledger.events", client.channel)

	raw, ok := client.payload.(string)
	require.True(t, ok)

	var got map[string]any
	require.NoError(t, json.Unmarshal([]byte(raw), &got))
	assert.Equal(t, "bet.placed", got["type"])
	assert.Equal(t, "20", got["amount"])
	assert.Equal(t, "80", got["balance"])
	assert.InDelta(t, 10, got["bet_id"], 0)
	assert.NotContains(t, got, "outcome")
}

func TestRedisPublisher_PublishError(t *testing.T) {
	boom := errors.New("connection refused")
	pub := NewRedisPublisher(&fakeClient{err: boom}, "c")

	err := pub.Publish(context.Background(), Event{Type: TypeBetSettled})
	assert.ErrorIs(t, err, boom)
}

func TestNop(t *testing.T) {
	assert.NoError(t, Nop{}.Publish(context.Background(), Event{}))
}
