package api

import (
	"context"
	"errors"
	"net/http"
	"time"

	"github.com/gorilla/websocket"
	"golang.org/x/sync/errgroup"

	"github.com/MJE43/roulette-spin-go/internal/session"
	"github.com/MJE43/roulette-spin-go/internal/wheel"
)

const (
	writeWait  = 10 * time.Second
	pongWait   = 60 * time.Second
	pingPeriod = pongWait * 9 / 10
)

// handleStream upgrades to a WebSocket. The server ticks the session at the
// configured frame rate and pushes every frame while the wheel spins; the
// client sends intents over the same socket and gets a snapshot back for
// each one.
func (s *Server) handleStream(w http.ResponseWriter, r *http.Request) {
	sess, ok := s.lookup(w, r)
	if !ok {
		return
	}
	id := sess.ID()
	log := s.log.With("session", id)

	conn, err := s.upgrader.Upgrade(w, r, nil)
	if err != nil {
		// Upgrade already wrote the HTTP error.
		log.Warn("websocket upgrade failed", "error", err)
		return
	}
	defer conn.Close()
	log.Info("stream opened", "remote_addr", r.RemoteAddr)

	g, ctx := errgroup.WithContext(r.Context())
	out := make(chan StreamMessage, 64)
	send := func(msg StreamMessage) error {
		select {
		case out <- msg:
			return nil
		case <-ctx.Done():
			return ctx.Err()
		}
	}

	snap := sess.Snapshot()
	out <- StreamMessage{Type: StreamSnapshot, Snapshot: &snap}

	g.Go(func() error {
		return s.manager.Drive(ctx, id, func(f session.Frame) error {
			return send(StreamMessage{Type: StreamFrame, Frame: &f})
		})
	})

	g.Go(func() error {
		conn.SetReadLimit(4096)
		_ = conn.SetReadDeadline(time.Now().Add(pongWait))
		conn.SetPongHandler(func(string) error {
			return conn.SetReadDeadline(time.Now().Add(pongWait))
		})
		for {
			var intent StreamIntent
			if err := conn.ReadJSON(&intent); err != nil {
				return err
			}
			if err := send(s.applyIntent(sess, intent)); err != nil {
				return err
			}
		}
	})

	g.Go(func() error {
		// Closing the connection unblocks the reader.
		defer conn.Close()
		ping := time.NewTicker(pingPeriod)
		defer ping.Stop()
		for {
			select {
			case <-ctx.Done():
				_ = conn.WriteControl(websocket.CloseMessage,
					websocket.FormatCloseMessage(websocket.CloseNormalClosure, ""),
					time.Now().Add(writeWait))
				return nil
			case msg := <-out:
				_ = conn.SetWriteDeadline(time.Now().Add(writeWait))
				if err := conn.WriteJSON(msg); err != nil {
					return err
				}
			case <-ping.C:
				if err := conn.WriteControl(websocket.PingMessage, nil, time.Now().Add(writeWait)); err != nil {
					return err
				}
			}
		}
	})

	err = g.Wait()
	switch {
	case err == nil,
		errors.Is(err, context.Canceled),
		websocket.IsCloseError(err, websocket.CloseNormalClosure, websocket.CloseGoingAway):
		log.Info("stream closed")
	default:
		log.Warn("stream closed with error", "error", err)
	}
}

// applyIntent runs one client intent and reports the resulting snapshot.
func (s *Server) applyIntent(sess *session.Session, in StreamIntent) StreamMessage {
	if err := s.validate.Struct(in); err != nil {
		return StreamMessage{Type: StreamError, Error: validationMessage(err)}
	}

	var snap session.Snapshot
	switch in.Intent {
	case "spin":
		snap = sess.RequestSpin()
	case "adjust":
		if in.Direction == 0 {
			return StreamMessage{Type: StreamError, Error: "field Direction is required"}
		}
		snap = sess.AdjustBet(in.Direction)
	case "color":
		c, err := wheel.ParseColor(in.Color)
		if err != nil {
			return StreamMessage{Type: StreamError, Error: "field Color is required"}
		}
		snap = sess.SelectColor(c)
	case "number":
		if in.Number == 0 {
			return StreamMessage{Type: StreamError, Error: "field Number is required"}
		}
		snap = sess.SelectNumber(in.Number)
	case "reset":
		snap = sess.ResetSelection()
	case "reshuffle":
		snap = sess.Reshuffle()
	}
	return StreamMessage{Type: StreamSnapshot, Snapshot: &snap}
}
