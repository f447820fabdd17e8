package sigstream

import (
	"context"
	"encoding/json"
	"fmt"
	"log"
	"time"

	"NotiGate/internal/domain/models"
	drepo "NotiGate/internal/domain/repository"

	"github.com/gorilla/websocket"
)

// Client implements a SignalStream backed by a strategy-engine WebSocket feed.
type Client struct {
	apiKey         string
	websocketURL   string
	symbols        []string
	reconnectDelay time.Duration
	pingInterval   time.Duration

	conn      *websocket.Conn
	connected bool
}

// New creates a new WebSocket SignalStream.
func New(apiKey, websocketURL string, symbols []string, reconnectDelay, pingInterval time.Duration) drepo.SignalStream {
	return &Client{
		apiKey:         apiKey,
		websocketURL:   websocketURL,
		symbols:        symbols,
		reconnectDelay: reconnectDelay,
		pingInterval:   pingInterval,
	}
}

// Connect establishes the WebSocket connection.
func (c *Client) Connect(ctx context.Context) error {
	u := fmt.Sprintf("%s?token=%s", c.websocketURL, c.apiKey)
	conn, _, err := websocket.DefaultDialer.DialContext(ctx, u, nil)
	if err != nil {
		return fmt.Errorf("sigstream connect: %w", err)
	}
	c.conn = conn
	c.connected = true
	log.Printf("sigstream: connected")
	return nil
}

// Subscribe subscribes to configured symbols.
func (c *Client) Subscribe(ctx context.Context) error {
	if c.conn == nil || !c.connected {
		return fmt.Errorf("sigstream not connected")
	}
	for _, s := range c.symbols {
		msg := map[string]string{"type": "subscribe", "symbol": s}
		if err := c.conn.WriteJSON(msg); err != nil {
			return fmt.Errorf("subscribe %s: %w", s, err)
		}
		log.Printf("sigstream: subscribed %s", s)
	}
	return nil
}

type wsSignal struct {
	Symbol     string                 `json:"symbol"`
	Indicator  string                 `json:"indicator"`
	Type       string                 `json:"type"`
	Level      string                 `json:"level"`
	Score      int                    `json:"score"`
	StopLoss   float64                `json:"stop_loss"`
	TakeProfit float64                `json:"take_profit"`
	Details    map[string]interface{} `json:"details"`
	Timestamp  int64                  `json:"timestamp"` // ms
}

type wsMessage struct {
	Type string     `json:"type"`
	Data []wsSignal `json:"data"`
}

// Read streams TradingSignal frames and errors.
func (c *Client) Read(ctx context.Context) (<-chan *models.TradingSignal, <-chan error) {
	signals := make(chan *models.TradingSignal, 1024)
	errs := make(chan error, 1)

	// ping loop
	go func() {
		ticker := time.NewTicker(c.pingInterval)
		defer ticker.Stop()
		for {
			select {
			case <-ctx.Done():
				return
			case <-ticker.C:
				if c.conn != nil {
					_ = c.conn.WriteMessage(websocket.PingMessage, nil)
				}
			}
		}
	}()

	// read loop
	go func() {
		defer close(signals)
		defer close(errs)
		for {
			select {
			case <-ctx.Done():
				return
			default:
				if c.conn == nil {
					errs <- fmt.Errorf("sigstream conn nil")
					return
				}
				_, b, err := c.conn.ReadMessage()
				if err != nil {
					errs <- fmt.Errorf("sigstream read: %w", err)
					return
				}
				var m wsMessage
				if err := json.Unmarshal(b, &m); err != nil {
					// ignore non-signal frames
					continue
				}
				if m.Type != "signal" {
					continue
				}
				for _, d := range m.Data {
					sig := &models.TradingSignal{
						Symbol:     d.Symbol,
						Indicator:  d.Indicator,
						Type:       d.Type,
						Level:      models.SignalLevel(d.Level),
						Score:      d.Score,
						StopLoss:   d.StopLoss,
						TakeProfit: d.TakeProfit,
						Details:    d.Details,
						Timestamp:  time.UnixMilli(d.Timestamp),
					}
					select {
					case signals <- sig:
					default:
						// drop on backpressure
					}
				}
			}
		}
	}()

	return signals, errs
}

// Reconnect closes and reconnects.
func (c *Client) Reconnect(ctx context.Context) error {
	_ = c.Close()
	time.Sleep(c.reconnectDelay)
	if err := c.Connect(ctx); err != nil {
		return err
	}
	return c.Subscribe(ctx)
}

// Close closes the WS connection.
func (c *Client) Close() error {
	c.connected = false
	if c.conn != nil {
		return c.conn.Close()
	}
	return nil
}

// IsConnected indicates status.
func (c *Client) IsConnected() bool { return c.connected }
