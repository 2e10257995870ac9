package websocket

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/url"
	"sync"
	"time"

	"chat-client/internal/models"
	"chat-client/pkg/logger"

	"github.com/gorilla/websocket"
	"golang.org/x/time/rate"
)

var (
	ErrNotConnected   = errors.New("not connected")
	ErrClosed         = errors.New("client closed")
	ErrSendBufferFull = errors.New("send buffer full")
)

var (
	// tuning parameters
	maxMessageSize = int64(64 * 1024) // max inbound frame size
	sendBufSize    = 256              // outbound frames queued per connection
)

type Options struct {
	URL              string
	HandshakeTimeout time.Duration
	WriteTimeout     time.Duration
	PongWait         time.Duration
	ReconnectDelay   time.Duration
	ReconnectBurst   int
}

func (o Options) withDefaults() Options {
	if o.HandshakeTimeout <= 0 {
		o.HandshakeTimeout = 10 * time.Second
	}
	if o.WriteTimeout <= 0 {
		o.WriteTimeout = 10 * time.Second
	}
	if o.PongWait <= 0 {
		o.PongWait = 60 * time.Second
	}
	if o.ReconnectDelay <= 0 {
		o.ReconnectDelay = 2 * time.Second
	}
	if o.ReconnectBurst < 1 {
		o.ReconnectBurst = 1
	}
	return o
}

// connection is one established websocket. done asks both pumps to stop;
// exited is closed once the read pump has finished, after any disconnect
// notification went out.
type connection struct {
	ws     *websocket.Conn
	send   chan []byte
	done   chan struct{}
	exited chan struct{}
	once   sync.Once
}

func (cn *connection) close() {
	cn.once.Do(func() { close(cn.done) })
}

// Client is the chat server connection. Commands are JSON frames; a command
// sent with an ack callback carries an ack id that the server echoes back in
// an "ack" frame. Pushes are routed to the handlers registered with On.
//
// Handlers and ack callbacks run on the read goroutine, one at a time, in the
// order frames arrive. They must not block.
type Client struct {
	opts     Options
	dialer   *websocket.Dialer
	registry *registry
	limiter  *rate.Limiter

	mu          sync.Mutex
	current     *connection
	established bool
	token       string
	closed      bool
	done        chan struct{}
}

func NewClient(opts Options) *Client {
	opts = opts.withDefaults()
	return &Client{
		opts:     opts,
		dialer:   &websocket.Dialer{HandshakeTimeout: opts.HandshakeTimeout},
		registry: newRegistry(),
		limiter:  rate.NewLimiter(rate.Every(opts.ReconnectDelay), opts.ReconnectBurst),
		done:     make(chan struct{}),
	}
}

// Connect dials the server unless a connection is already up.
func (c *Client) Connect(ctx context.Context) error {
	c.mu.Lock()
	closed, up := c.closed, c.current != nil
	c.mu.Unlock()

	if closed {
		return ErrClosed
	}
	if up {
		return nil
	}
	return c.dial(ctx)
}

// Run keeps the client connected until ctx is done or Close is called.
// After a drop it redials, paced by the reconnect limiter, and announces the
// new connection with a "reconnect" notification.
func (c *Client) Run(ctx context.Context) error {
	for {
		c.mu.Lock()
		cn, closed := c.current, c.closed
		c.mu.Unlock()

		if closed {
			return nil
		}
		if cn != nil {
			select {
			case <-cn.exited:
			case <-c.done:
				return nil
			case <-ctx.Done():
				return ctx.Err()
			}
		}

		if err := c.limiter.Wait(ctx); err != nil {
			return err
		}

		c.mu.Lock()
		wasEstablished, closed := c.established, c.closed
		c.mu.Unlock()
		if closed {
			return nil
		}

		if err := c.dial(ctx); err != nil {
			if errors.Is(err, ErrClosed) {
				return nil
			}
			logger.Error("Reconnect to %s failed: %v", c.opts.URL, err)
			continue
		}
		if wasEstablished {
			logger.Info("Reconnected to %s", c.opts.URL)
			c.registry.dispatch(models.EventReconnect, nil)
		}
	}
}

// SetToken sets the session token presented on subsequent dials.
func (c *Client) SetToken(token string) {
	c.mu.Lock()
	c.token = token
	c.mu.Unlock()
}

func (c *Client) Connected() bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.current != nil
}

// Emit sends a command. When ack is non-nil it is called exactly once with
// the acknowledgement payload, or never if the connection is lost first.
func (c *Client) Emit(event string, payload any, ack func(json.RawMessage)) error {
	c.mu.Lock()
	cn, closed := c.current, c.closed
	c.mu.Unlock()

	if closed {
		return ErrClosed
	}
	if cn == nil {
		return ErrNotConnected
	}

	frame := models.Frame{Event: event}
	if payload != nil {
		data, err := json.Marshal(payload)
		if err != nil {
			return fmt.Errorf("encode %s payload: %w", event, err)
		}
		frame.Data = data
	}
	if ack != nil {
		frame.AckID = c.registry.expect(ack)
	}

	msg, err := json.Marshal(frame)
	if err != nil {
		c.registry.forget(frame.AckID)
		return fmt.Errorf("encode %s frame: %w", event, err)
	}

	select {
	case cn.send <- msg:
		return nil
	case <-cn.done:
		c.registry.forget(frame.AckID)
		return ErrNotConnected
	default:
		c.registry.forget(frame.AckID)
		return ErrSendBufferFull
	}
}

// On registers a handler for a pushed event, or for the synthesized
// "disconnect" and "reconnect" notifications. The returned func removes it.
func (c *Client) On(event string, handler func(json.RawMessage)) func() {
	return c.registry.on(event, handler)
}

// Close disconnects without a "disconnect" notification and drops every
// handler and pending acknowledgement.
func (c *Client) Close() error {
	c.mu.Lock()
	if c.closed {
		c.mu.Unlock()
		return nil
	}
	c.closed = true
	close(c.done)
	cn := c.current
	c.mu.Unlock()

	if cn != nil {
		cn.close()
		<-cn.exited
	}
	c.registry.reset()
	return nil
}

func (c *Client) dial(ctx context.Context) error {
	target, err := c.dialURL()
	if err != nil {
		return err
	}

	ws, _, err := c.dialer.DialContext(ctx, target, nil)
	if err != nil {
		return fmt.Errorf("dial %s: %w", c.opts.URL, err)
	}
	ws.SetReadLimit(maxMessageSize)

	cn := &connection{
		ws:     ws,
		send:   make(chan []byte, sendBufSize),
		done:   make(chan struct{}),
		exited: make(chan struct{}),
	}

	c.mu.Lock()
	if c.closed {
		c.mu.Unlock()
		ws.Close()
		return ErrClosed
	}
	c.current = cn
	c.established = true
	c.mu.Unlock()

	go c.writePump(cn)
	go c.readPump(cn)
	return nil
}

func (c *Client) dialURL() (string, error) {
	u, err := url.Parse(c.opts.URL)
	if err != nil {
		return "", fmt.Errorf("invalid server URL: %w", err)
	}

	c.mu.Lock()
	token := c.token
	c.mu.Unlock()

	if token != "" {
		q := u.Query()
		q.Set("token", token)
		u.RawQuery = q.Encode()
	}
	return u.String(), nil
}

func (c *Client) readPump(cn *connection) {
	defer func() {
		cn.close()
		c.mu.Lock()
		if c.current == cn {
			c.current = nil
		}
		lost := !c.closed
		c.mu.Unlock()

		if lost {
			logger.Info("Disconnected from %s", c.opts.URL)
			c.registry.dispatch(models.EventDisconnect, nil)
		}
		close(cn.exited)
	}()

	cn.ws.SetReadDeadline(time.Now().Add(c.opts.PongWait))
	cn.ws.SetPongHandler(func(string) error {
		return cn.ws.SetReadDeadline(time.Now().Add(c.opts.PongWait))
	})

	for {
		_, message, err := cn.ws.ReadMessage()
		if err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseNormalClosure, websocket.CloseAbnormalClosure) {
				logger.Error("WebSocket error: %v", err)
			}
			return
		}
		cn.ws.SetReadDeadline(time.Now().Add(c.opts.PongWait))

		var frame models.Frame
		if err := json.Unmarshal(message, &frame); err != nil {
			logger.Error("Dropping malformed frame: %v", err)
			continue
		}

		if frame.Event == models.EventAck {
			if !c.registry.resolve(frame.AckID, frame.Data) {
				logger.Debug("Dropping ack %d with no pending command", frame.AckID)
			}
			continue
		}
		if c.registry.dispatch(frame.Event, frame.Data) == 0 {
			logger.Debug("No handler for %s", frame.Event)
		}
	}
}

func (c *Client) writePump(cn *connection) {
	ticker := time.NewTicker((c.opts.PongWait * 9) / 10)
	defer func() {
		ticker.Stop()
		cn.ws.Close()
	}()

	for {
		select {
		case msg := <-cn.send:
			cn.ws.SetWriteDeadline(time.Now().Add(c.opts.WriteTimeout))
			if err := cn.ws.WriteMessage(websocket.TextMessage, msg); err != nil {
				logger.Error("Write error: %v", err)
				cn.close()
				return
			}

		case <-ticker.C:
			cn.ws.SetWriteDeadline(time.Now().Add(c.opts.WriteTimeout))
			if err := cn.ws.WriteMessage(websocket.PingMessage, nil); err != nil {
				cn.close()
				return
			}

		case <-cn.done:
			cn.ws.WriteControl(websocket.CloseMessage,
				websocket.FormatCloseMessage(websocket.CloseNormalClosure, ""),
				time.Now().Add(c.opts.WriteTimeout))
			return
		}
	}
}
