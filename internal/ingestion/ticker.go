package ingestion

import (
	"context"
	"encoding/json"
	"fmt"
	"log"
	"sync"
	"time"

	"github.com/gorilla/websocket"

	"dca-lab/internal/observability"
)

// TickerConfig configures live ticker behavior.
type TickerConfig struct {
	// ReconnectDelay is initial delay before reconnect attempt.
	ReconnectDelay time.Duration
	// MaxReconnectDelay is maximum delay between reconnect attempts.
	MaxReconnectDelay time.Duration
	// PingInterval is interval for sending ping frames.
	PingInterval time.Duration
	// ReadTimeout is timeout for reading messages.
	ReadTimeout time.Duration
	// WriteTimeout is timeout for writing messages.
	WriteTimeout time.Duration
}

// DefaultTickerConfig returns default ticker configuration.
func DefaultTickerConfig() TickerConfig {
	return TickerConfig{
		ReconnectDelay:    1 * time.Second,
		MaxReconnectDelay: 30 * time.Second,
		PingInterval:      30 * time.Second,
		ReadTimeout:       60 * time.Second,
		WriteTimeout:      10 * time.Second,
	}
}

// Tick is the latest spot observation for a symbol.
type Tick struct {
	Symbol string
	Price  float64
	SeenAt time.Time
}

// tickerMessage is the wire format of one stream update.
type tickerMessage struct {
	Symbol string  `json:"symbol"`
	Price  float64 `json:"price"`
	TsMs   int64   `json:"ts"`
}

// subscribeRequest is the subscription message sent after connect.
type subscribeRequest struct {
	Op   string   `json:"op"`
	Args []string `json:"args"`
}

// LiveTicker tracks the latest spot price per symbol from an exchange-style
// WebSocket trade stream. Spot prices feed status reporting and metrics;
// daily closes still come from the poll source.
type LiveTicker struct {
	endpoint string
	symbols  []string
	config   TickerConfig
	logger   *log.Logger

	mu     sync.RWMutex
	latest map[string]Tick
}

// NewLiveTicker creates a live ticker. Run must be called to start it.
func NewLiveTicker(endpoint string, symbols []string, config *TickerConfig, logger *log.Logger) *LiveTicker {
	cfg := DefaultTickerConfig()
	if config != nil {
		cfg = *config
	}
	if logger == nil {
		logger = log.Default()
	}
	return &LiveTicker{
		endpoint: endpoint,
		symbols:  symbols,
		config:   cfg,
		logger:   logger,
		latest:   make(map[string]Tick),
	}
}

// Latest returns the most recent tick for a symbol.
func (t *LiveTicker) Latest(symbol string) (Tick, bool) {
	t.mu.RLock()
	defer t.mu.RUnlock()
	tick, ok := t.latest[symbol]
	return tick, ok
}

// Run connects and consumes the stream until the context is cancelled,
// reconnecting with exponential backoff on any failure.
func (t *LiveTicker) Run(ctx context.Context) error {
	delay := t.config.ReconnectDelay

	for {
		err := t.consume(ctx)
		if ctx.Err() != nil {
			return ctx.Err()
		}

		t.logger.Printf("ticker stream closed: %v, reconnecting in %v", err, delay)
		observability.RecordTickerReconnect()

		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-time.After(delay):
		}

		delay *= 2
		if delay > t.config.MaxReconnectDelay {
			delay = t.config.MaxReconnectDelay
		}
	}
}

// consume runs one connection: subscribe, then read until failure.
func (t *LiveTicker) consume(ctx context.Context) error {
	dialer := websocket.Dialer{
		HandshakeTimeout: 10 * time.Second,
	}

	conn, _, err := dialer.DialContext(ctx, t.endpoint, nil)
	if err != nil {
		return fmt.Errorf("websocket dial: %w", err)
	}
	defer conn.Close()

	// Close the connection when the context ends so ReadMessage unblocks.
	done := make(chan struct{})
	defer close(done)
	go func() {
		select {
		case <-ctx.Done():
			conn.Close()
		case <-done:
		}
	}()

	args := make([]string, 0, len(t.symbols))
	for _, s := range t.symbols {
		args = append(args, "trade:"+s)
	}
	conn.SetWriteDeadline(time.Now().Add(t.config.WriteTimeout))
	if err := conn.WriteJSON(subscribeRequest{Op: "subscribe", Args: args}); err != nil {
		return fmt.Errorf("write subscribe: %w", err)
	}

	// Ping keeps intermediaries from dropping the idle connection.
	pingDone := make(chan struct{})
	defer close(pingDone)
	go t.pingLoop(conn, pingDone)

	for {
		conn.SetReadDeadline(time.Now().Add(t.config.ReadTimeout))
		_, data, err := conn.ReadMessage()
		if err != nil {
			return fmt.Errorf("read message: %w", err)
		}

		var msg tickerMessage
		if err := json.Unmarshal(data, &msg); err != nil {
			continue // control/ack frames are not tick updates
		}
		if msg.Symbol == "" || msg.Price <= 0 {
			continue
		}

		tick := Tick{
			Symbol: msg.Symbol,
			Price:  msg.Price,
			SeenAt: time.UnixMilli(msg.TsMs).UTC(),
		}
		if msg.TsMs == 0 {
			tick.SeenAt = time.Now().UTC()
		}

		t.mu.Lock()
		t.latest[msg.Symbol] = tick
		t.mu.Unlock()

		observability.UpdateSpotPrice(msg.Symbol, msg.Price)
	}
}

// pingLoop sends ping frames until the connection is done.
func (t *LiveTicker) pingLoop(conn *websocket.Conn, done <-chan struct{}) {
	ticker := time.NewTicker(t.config.PingInterval)
	defer ticker.Stop()

	for {
		select {
		case <-done:
			return
		case <-ticker.C:
			deadline := time.Now().Add(t.config.WriteTimeout)
			if err := conn.WriteControl(websocket.PingMessage, nil, deadline); err != nil {
				return
			}
		}
	}
}
