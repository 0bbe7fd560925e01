package events

import (
	"log/slog"
	"time"

	"github.com/nats-io/nats.go"

	"github.com/MJE43/roulette-spin-go/internal/logger"
)

// NATSQueue publishes on a NATS connection.
type NATSQueue struct {
	conn *nats.Conn
}

// ConnectNATS dials url, retrying forever on disconnects.
func ConnectNATS(url string) (*NATSQueue, error) {
	if url == "" {
		url = nats.DefaultURL
	}
	opts := []nats.Option{
		nats.Name("roulette-spin-go"),
		nats.MaxReconnects(-1), // retry forever
		nats.ReconnectWait(2 * time.Second),
		nats.DisconnectErrHandler(func(nc *nats.Conn, err error) {
			logger.Warn("Disconnected from NATS", "error", err)
		}),
		nats.ReconnectHandler(func(nc *nats.Conn) {
			logger.Info("Reconnected to NATS", "url", nc.ConnectedUrl())
		}),
		nats.ClosedHandler(func(nc *nats.Conn) {
			logger.Info("NATS connection closed")
		}),
		nats.ErrorHandler(natsErrHandler),
	}

	conn, err := nats.Connect(url, opts...)
	if err != nil {
		return nil, err
	}
	return &NATSQueue{conn: conn}, nil
}

func (q *NATSQueue) Publish(subject string, data []byte) error {
	return q.conn.Publish(subject, data)
}

// Close flushes pending messages before closing.
func (q *NATSQueue) Close() {
	if err := q.conn.Flush(); err != nil {
		logger.Warn("NATS flush failed", "error", err)
	}
	q.conn.Close()
}

func natsErrHandler(nc *nats.Conn, sub *nats.Subscription, natsErr error) {
	attrs := []any{slog.Any("error", natsErr)}
	if sub != nil {
		attrs = append(attrs, "subject", sub.Subject)
	}
	logger.Error("NATS error", attrs...)
}
