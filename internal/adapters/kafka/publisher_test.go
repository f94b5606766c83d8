package kafka

import (
	"context"
	"encoding/json"
	"errors"
	"testing"
	"time"

	"github.com/segmentio/kafka-go"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ammerola/bloodbank-be/internal/core/domain"
	"github.com/ammerola/bloodbank-be/test/helpers"
)

type recordingWriter struct {
	msgs   []kafka.Message
	err    error
	closed bool
}

func (w *recordingWriter) WriteMessages(_ context.Context, msgs ...kafka.Message) error {
	if w.err != nil {
		return w.err
	}
	w.msgs = append(w.msgs, msgs...)
	return nil
}

func (w *recordingWriter) Close() error {
	w.closed = true
	return nil
}

func TestPublisher_PublishLedgerEvents(t *testing.T) {
	w := &recordingWriter{}
	p := newPublisher(w, DefaultTopic, helpers.TestLogger())
	at := time.Date(2025, 1, 2, 3, 4, 5, 0, time.UTC)

	err := p.PublishLedgerEvents(context.Background(), []domain.LedgerEventMessage{
		{
			BloodGroup:     domain.GroupONeg,
			Event:          domain.LedgerEvent{Action: domain.ActionReserved, Units: 2, PerformedBy: "staff", RelatedID: "req-9", Timestamp: at},
			UnitsAvailable: 3,
			UnitsReserved:  2,
			Version:        7,
		},
		{
			BloodGroup: domain.GroupAPos,
			Event:      domain.LedgerEvent{Action: domain.ActionAdded, Units: 1, PerformedBy: "system", Timestamp: at},
		},
	})
	require.NoError(t, err)
	require.Len(t, w.msgs, 2)

	first := w.msgs[0]
	assert.Equal(t, "O-", string(first.Key))
	assert.Equal(t, at, first.Time)
	require.Len(t, first.Headers, 1)
	assert.Equal(t, "reserved", string(first.Headers[0].Value))

	var decoded domain.LedgerEventMessage
	require.NoError(t, json.Unmarshal(first.Value, &decoded))
	assert.Equal(t, int64(7), decoded.Version)
	assert.Equal(t, "req-9", decoded.Event.RelatedID)

	assert.Equal(t, "A+", string(w.msgs[1].Key))

	require.NoError(t, p.Close())
	assert.True(t, w.closed)
}

func TestPublisher_EmptyBatchSkipsWrite(t *testing.T) {
	w := &recordingWriter{err: errors.New("should not be called")}
	p := newPublisher(w, DefaultTopic, helpers.TestLogger())

	assert.NoError(t, p.PublishLedgerEvents(context.Background(), nil))
}

func TestPublisher_WrapsWriteError(t *testing.T) {
	broker := errors.New("broker unavailable")
	w := &recordingWriter{err: broker}
	p := newPublisher(w, DefaultTopic, helpers.TestLogger())

	err := p.PublishLedgerEvents(context.Background(), []domain.LedgerEventMessage{
		{BloodGroup: domain.GroupBPos, Event: domain.LedgerEvent{Action: domain.ActionIssued, Units: 1}},
	})
	require.Error(t, err)
	assert.ErrorIs(t, err, broker)
	assert.Contains(t, err.Error(), "1 ledger events")
}
