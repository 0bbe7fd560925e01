package events

import (
	"context"
	"encoding/json"
	"time"

	"github.com/MJE43/roulette-spin-go/internal/store"
)

const (
	TypeRoundSettled = "round.settled"
	TypeGameOver     = "session.game_over"
)

// RoundEvent is the payload published for every settled round.
type RoundEvent struct {
	Type      string      `json:"type"`
	SessionID string      `json:"session_id"`
	Data      store.Round `json:"data"`
	Timestamp int64       `json:"timestamp"`
}

// Publisher fans settled rounds out to external consumers. Publishing is
// best effort and never feeds back into a session.
type Publisher interface {
	PublishRound(ctx context.Context, r store.Round) error
	Close()
}

// Queue is the transport a Publisher writes to.
type Queue interface {
	Publish(subject string, data []byte) error
	Close()
}

type emitter struct {
	queue   Queue
	subject string
}

// NewPublisher returns a Publisher writing JSON events to subject.
func NewPublisher(queue Queue, subject string) Publisher {
	return &emitter{queue: queue, subject: subject}
}

func (e *emitter) PublishRound(ctx context.Context, r store.Round) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	data, err := encodeRound(r)
	if err != nil {
		return err
	}
	return e.queue.Publish(e.subject, data)
}

func (e *emitter) Close() {
	if e.queue != nil {
		e.queue.Close()
	}
}

func encodeRound(r store.Round) ([]byte, error) {
	typ := TypeRoundSettled
	if r.GameOver {
		typ = TypeGameOver
	}
	return json.Marshal(RoundEvent{
		Type:      typ,
		SessionID: r.SessionID,
		Data:      r,
		Timestamp: time.Now().UTC().Unix(),
	})
}

// Nop discards every event.
type Nop struct{}

func (Nop) PublishRound(context.Context, store.Round) error { return nil }
func (Nop) Close()                                          {}
