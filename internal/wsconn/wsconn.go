// Package wsconn provides a WebSocket client with automatic reconnection.
package wsconn

import (
	"context"
	"encoding/json"
	"sync"
	"time"

	"github.com/coder/websocket"

	"github.com/nlemus/solarb/internal/apperror"
)

// State represents the connection state.
type State string

const (
	StateDisconnected State = "disconnected"
	StateConnecting   State = "connecting"
	StateConnected    State = "connected"
	StateReconnecting State = "reconnecting"
	StateClosed       State = "closed"
)

// MessageHandler receives every inbound message.
type MessageHandler func(ctx context.Context, msg []byte)

// StateChangeHandler is notified on every state transition. err is non-nil
// when the transition was caused by a failure.
type StateChangeHandler func(state State, err error)

// Config holds WebSocket client configuration.
type Config struct {
	URL            string
	Name           string
	InitialBackoff time.Duration
	MaxBackoff     time.Duration
	MaxReconnects  int // 0 = infinite
	PingInterval   time.Duration
	MaxMessageSize int64
}

// DefaultConfig returns sensible defaults.
func DefaultConfig(url, name string) Config {
	return Config{
		URL:            url,
		Name:           name,
		InitialBackoff: 1 * time.Second,
		MaxBackoff:     30 * time.Second,
		MaxReconnects:  0, // infinite
		PingInterval:   30 * time.Second,
		MaxMessageSize: 1 << 21, // 2MB
	}
}

// Client is a WebSocket client that reconnects with exponential backoff.
type Client struct {
	config Config

	stateMu sync.RWMutex
	state   State

	connMu sync.Mutex
	conn   *websocket.Conn

	writeMu sync.Mutex

	onMessage     MessageHandler
	onStateChange StateChangeHandler

	done     chan struct{}
	closeOne sync.Once
}

// New creates a new WebSocket client.
func New(config Config) (*Client, error) {
	if config.URL == "" {
		return nil, apperror.New(apperror.CodeRequiredField, apperror.WithContext("wsconn url"))
	}
	if config.InitialBackoff <= 0 {
		config.InitialBackoff = time.Second
	}
	if config.MaxBackoff <= 0 {
		config.MaxBackoff = 30 * time.Second
	}
	if config.MaxMessageSize <= 0 {
		config.MaxMessageSize = 1 << 21
	}

	return &Client{
		config: config,
		state:  StateDisconnected,
		done:   make(chan struct{}),
	}, nil
}

// OnMessage registers the inbound message handler. Must be called before Connect.
func (c *Client) OnMessage(fn MessageHandler) {
	c.onMessage = fn
}

// OnStateChange registers the state transition handler. Must be called before Connect.
func (c *Client) OnStateChange(fn StateChangeHandler) {
	c.onStateChange = fn
}

// Connect establishes the connection and starts the read and ping loops.
// It returns after the first successful dial; reconnection after that
// happens in the background until Close or context cancellation.
func (c *Client) Connect(ctx context.Context) error {
	c.setState(StateConnecting, nil)

	if err := c.dial(ctx); err != nil {
		appErr := apperror.New(apperror.CodeWebSocketConnectionError,
			apperror.WithContext(c.config.Name), apperror.WithCause(err))
		c.setState(StateDisconnected, appErr)
		return appErr
	}

	c.setState(StateConnected, nil)
	go c.readLoop(ctx)
	go c.pingLoop(ctx)
	return nil
}

func (c *Client) dial(ctx context.Context) error {
	conn, _, err := websocket.Dial(ctx, c.config.URL, nil)
	if err != nil {
		return err
	}
	conn.SetReadLimit(c.config.MaxMessageSize)

	c.connMu.Lock()
	c.conn = conn
	c.connMu.Unlock()
	return nil
}

// readLoop dispatches inbound messages and drives reconnection.
func (c *Client) readLoop(ctx context.Context) {
	reconnects := 0
	for {
		c.connMu.Lock()
		conn := c.conn
		c.connMu.Unlock()

		_, data, err := conn.Read(ctx)
		if err == nil {
			if c.onMessage != nil {
				c.onMessage(ctx, data)
			}
			continue
		}

		select {
		case <-c.done:
			return
		case <-ctx.Done():
			return
		default:
		}

		// Connection lost, back off and redial.
		c.setState(StateReconnecting, apperror.New(apperror.CodeWebSocketReconnecting,
			apperror.WithContext(c.config.Name), apperror.WithCause(err)))

		backoff := c.config.InitialBackoff
		for {
			reconnects++
			if c.config.MaxReconnects > 0 && reconnects > c.config.MaxReconnects {
				c.setState(StateDisconnected, apperror.New(apperror.CodeWebSocketClosed,
					apperror.WithContext(c.config.Name)))
				return
			}

			select {
			case <-time.After(backoff):
			case <-c.done:
				return
			case <-ctx.Done():
				return
			}

			if dialErr := c.dial(ctx); dialErr == nil {
				break
			}

			backoff *= 2
			if backoff > c.config.MaxBackoff {
				backoff = c.config.MaxBackoff
			}
		}

		c.setState(StateConnected, nil)
	}
}

// pingLoop keeps the connection alive.
func (c *Client) pingLoop(ctx context.Context) {
	if c.config.PingInterval <= 0 {
		return
	}
	ticker := time.NewTicker(c.config.PingInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ticker.C:
			if c.State() != StateConnected {
				continue
			}
			c.connMu.Lock()
			conn := c.conn
			c.connMu.Unlock()
			pingCtx, cancel := context.WithTimeout(ctx, 10*time.Second)
			_ = conn.Ping(pingCtx)
			cancel()
		case <-c.done:
			return
		case <-ctx.Done():
			return
		}
	}
}

// Send sends a text message through the WebSocket.
func (c *Client) Send(ctx context.Context, msg []byte) error {
	if c.State() != StateConnected {
		return apperror.New(apperror.CodeWebSocketSendError, apperror.WithContext(c.config.Name))
	}

	c.connMu.Lock()
	conn := c.conn
	c.connMu.Unlock()

	c.writeMu.Lock()
	defer c.writeMu.Unlock()

	if err := conn.Write(ctx, websocket.MessageText, msg); err != nil {
		return apperror.New(apperror.CodeWebSocketSendError,
			apperror.WithContext(c.config.Name), apperror.WithCause(err))
	}
	return nil
}

// SendJSON marshals v to JSON and sends it.
func (c *Client) SendJSON(ctx context.Context, v any) error {
	data, err := json.Marshal(v)
	if err != nil {
		return apperror.New(apperror.CodeInvalidFormat,
			apperror.WithContext(c.config.Name), apperror.WithCause(err))
	}
	return c.Send(ctx, data)
}

// State returns the current connection state.
func (c *Client) State() State {
	c.stateMu.RLock()
	defer c.stateMu.RUnlock()
	return c.state
}

// IsConnected reports whether the connection is currently established.
func (c *Client) IsConnected() bool {
	return c.State() == StateConnected
}

// Close gracefully closes the WebSocket connection. Safe to call twice.
func (c *Client) Close() error {
	c.closeOne.Do(func() {
		close(c.done)
	})

	c.connMu.Lock()
	conn := c.conn
	c.connMu.Unlock()

	c.setState(StateClosed, nil)
	if conn != nil {
		_ = conn.Close(websocket.StatusNormalClosure, "shutdown")
	}
	return nil
}

func (c *Client) setState(state State, err error) {
	c.stateMu.Lock()
	if c.state == StateClosed {
		c.stateMu.Unlock()
		return
	}
	c.state = state
	c.stateMu.Unlock()

	if c.onStateChange != nil {
		c.onStateChange(state, err)
	}
}
