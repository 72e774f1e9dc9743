package ingest

import (
	"context"
	"fmt"
	"math"
	"time"

	"github.com/gorilla/websocket"
	"github.com/rs/zerolog"

	"github.com/rajnet70/Pingr-ml-insights/internal/event"
	"github.com/rajnet70/Pingr-ml-insights/internal/metrics"
)

// WSSource streams event records from a websocket endpoint, one JSON event
// per text message. It reconnects with backoff until the context ends.
type WSSource struct {
	url string
	log zerolog.Logger
}

// NewWSSource builds a websocket event source for the given endpoint.
func NewWSSource(url string, log zerolog.Logger) *WSSource {
	return &WSSource{url: url, log: log}
}

// Run consumes the stream and pushes decoded events into out until the
// context is cancelled. Messages that fail to decode are dropped.
func (s *WSSource) Run(ctx context.Context, out chan<- event.Event) error {
	if s.url == "" {
		return fmt.Errorf("websocket source requires a url")
	}

	backoff := time.Second
	const maxBackoff = 30 * time.Second

	for {
		if ctx.Err() != nil {
			return ctx.Err()
		}
		if err := s.consume(ctx, out); err != nil {
			if ctx.Err() != nil {
				return ctx.Err()
			}
			s.log.Warn().Err(err).Msg("event stream disconnected, retrying")
			select {
			case <-time.After(backoff):
			case <-ctx.Done():
				return ctx.Err()
			}
			backoff = time.Duration(math.Min(float64(maxBackoff), float64(backoff)*1.8))
			continue
		}
		return nil
	}
}

func (s *WSSource) consume(ctx context.Context, out chan<- event.Event) error {
	dialer := websocket.Dialer{HandshakeTimeout: 10 * time.Second}
	conn, _, err := dialer.DialContext(ctx, s.url, nil)
	if err != nil {
		return err
	}
	defer conn.Close()

	s.log.Info().Str("url", s.url).Msg("connected event stream")

	conn.SetReadLimit(1 << 20)
	conn.SetReadDeadline(time.Now().Add(30 * time.Second))
	conn.SetPongHandler(func(string) error {
		conn.SetReadDeadline(time.Now().Add(30 * time.Second))
		return nil
	})

	pingCtx, pingCancel := context.WithCancel(ctx)
	defer pingCancel()
	go func() {
		// Unblock the read loop promptly on cancellation.
		<-pingCtx.Done()
		conn.Close()
	}()
	go func() {
		ticker := time.NewTicker(15 * time.Second)
		defer ticker.Stop()
		for {
			select {
			case <-ticker.C:
				conn.SetWriteDeadline(time.Now().Add(5 * time.Second))
				if err := conn.WriteMessage(websocket.PingMessage, nil); err != nil {
					return
				}
			case <-pingCtx.Done():
				return
			}
		}
	}()

	for {
		if ctx.Err() != nil {
			return ctx.Err()
		}
		_, msg, err := conn.ReadMessage()
		if err != nil {
			return err
		}
		conn.SetReadDeadline(time.Now().Add(30 * time.Second))

		ev, err := event.Decode(msg)
		if err != nil {
			metrics.LinesSkipped.Inc()
			s.log.Debug().Err(err).Msg("dropping undecodable event message")
			continue
		}
		metrics.EventsDecoded.Inc()

		select {
		case out <- ev:
		case <-ctx.Done():
			return ctx.Err()
		}
	}
}
