package client

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/gorilla/websocket"
	"github.com/mbocsi/kkstudio-mcp/proto"
	"golang.org/x/sync/semaphore"
)

const (
	DefaultAddr    = "ws://127.0.0.1:8765/ws"
	DefaultTimeout = 5 * time.Second

	closeGrace = time.Second
)

// State is the lifecycle state of the client's peer connection.
type State int

const (
	Disconnected State = iota
	Connecting
	Open
	Closing
)

func (s State) String() string {
	switch s {
	case Disconnected:
		return "disconnected"
	case Connecting:
		return "connecting"
	case Open:
		return "open"
	case Closing:
		return "closing"
	default:
		return fmt.Sprintf("state(%d)", int(s))
	}
}

// Decoder turns one received text message into the caller's response shape.
type Decoder func(data []byte) error

// Into returns a Decoder that unmarshals into v and, when v has a
// Validate() error method, rejects payloads that fail it.
func Into(v any) Decoder {
	return func(data []byte) error {
		if err := json.Unmarshal(data, v); err != nil {
			return err
		}
		if validator, ok := v.(interface{ Validate() error }); ok {
			return validator.Validate()
		}
		return nil
	}
}

// Requester performs one command/response exchange with the peer.
type Requester interface {
	Send(ctx context.Context, cmd proto.Command, decode Decoder, timeout time.Duration) error
}

// Request sends cmd and decodes the reply as a T.
func Request[T any](ctx context.Context, r Requester, cmd proto.Command, timeout time.Duration) (*T, error) {
	out := new(T)
	if err := r.Send(ctx, cmd, Into(out), timeout); err != nil {
		return nil, err
	}
	return out, nil
}

// Client owns the single WebSocket connection to the studio peer. All
// exchanges are serialized: a command is never written while another
// exchange is waiting for its reply.
type Client struct {
	addr    string
	dialer  *websocket.Dialer
	timeout time.Duration
	logger  *slog.Logger

	// exchange admits one connect-send-receive sequence at a time. conn and
	// closed are only touched while it is held.
	exchange *semaphore.Weighted
	conn     *websocket.Conn
	closed   bool

	stateMu sync.RWMutex
	state   State
}

func NewClient(addr string) *Client {
	if addr == "" {
		addr = DefaultAddr
	}
	return &Client{
		addr:     addr,
		dialer:   websocket.DefaultDialer,
		timeout:  DefaultTimeout,
		exchange: semaphore.NewWeighted(1),
		state:    Disconnected,
	}
}

func (c *Client) SetLogger(logger *slog.Logger) {
	c.logger = logger
}

func (c *Client) SetDefaultTimeout(d time.Duration) {
	if d > 0 {
		c.timeout = d
	}
}

func (c *Client) SetDialer(d *websocket.Dialer) {
	c.dialer = d
}

func (c *Client) Addr() string {
	return c.addr
}

func (c *Client) State() State {
	c.stateMu.RLock()
	defer c.stateMu.RUnlock()
	return c.state
}

func (c *Client) setState(s State) {
	c.stateMu.Lock()
	c.state = s
	c.stateMu.Unlock()
}

func (c *Client) log() *slog.Logger {
	if c.logger != nil {
		return c.logger
	}
	return slog.Default()
}

// Send writes cmd to the peer and waits for the next text message, which is
// handed to decode. A non-positive timeout selects the client default. The
// timeout bounds connect, send and receive together; cancelling ctx aborts
// the exchange as well, whichever comes first.
//
// Any failure tears the connection down before returning; the next Send
// dials again. Send never retries.
func (c *Client) Send(ctx context.Context, cmd proto.Command, decode Decoder, timeout time.Duration) error {
	if timeout <= 0 {
		timeout = c.timeout
	}

	if err := c.exchange.Acquire(ctx, 1); err != nil {
		return newError(ErrCodeTransport, "waiting for pending exchange", err)
	}
	defer c.exchange.Release(1)

	if c.closed {
		return ErrClosed
	}

	ctx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()

	log := c.log().With("exchange_id", uuid.NewString(), "command", cmd.CommandType())
	started := time.Now()

	if err := c.roundTrip(ctx, log, cmd, decode); err != nil {
		log.Error("WebSocket exchange failed",
			"code", CodeOf(err),
			"error", err.Error(),
			"timeout", timeout,
			"elapsed", time.Since(started),
		)
		c.discard(log, graceful(err))
		return err
	}

	log.Debug("Exchange completed", "elapsed", time.Since(started))
	return nil
}

func (c *Client) roundTrip(ctx context.Context, log *slog.Logger, cmd proto.Command, decode Decoder) error {
	conn, err := c.connection(ctx, log)
	if err != nil {
		return err
	}

	payload, err := proto.Marshal(cmd)
	if err != nil {
		return newError(ErrCodeEncode, "failed to encode "+cmd.CommandType()+" command", err)
	}
	log.Info("SENT", "data", string(payload))

	// gorilla has no context support; force the socket deadline when the
	// exchange context ends so a blocked write or read returns at once.
	stop := context.AfterFunc(ctx, func() {
		_ = conn.NetConn().SetDeadline(time.Now())
	})
	defer stop()

	deadline, _ := ctx.Deadline()
	if err := conn.SetWriteDeadline(deadline); err != nil {
		return ioError(ctx, "send", err)
	}
	if err := conn.WriteMessage(websocket.TextMessage, payload); err != nil {
		return ioError(ctx, "send", err)
	}
	log.Debug("Sent WebSocket message, waiting for response", "size", len(payload))

	if err := conn.SetReadDeadline(deadline); err != nil {
		return ioError(ctx, "receive", err)
	}
	msgType, data, err := conn.ReadMessage()
	if err != nil {
		return ioError(ctx, "receive", err)
	}
	if msgType != websocket.TextMessage {
		return newError(ErrCodeConnectionClosed, fmt.Sprintf("unexpected %s frame from peer", frameName(msgType)), nil)
	}

	if cmd.CommandType() == proto.TypeScreenshot {
		log.Info("RECEIVED (processed)", "data", redactPayload(data), "size", len(data))
	} else {
		log.Info("RECEIVED", "data", string(data))
	}

	if !stop() {
		// The deadline fired after the reply arrived; the socket now carries
		// an expired deadline and must not be reused.
		c.discard(log, false)
	}

	if decode == nil {
		return nil
	}
	if err := decode(data); err != nil {
		return newError(ErrCodeDecode, "failed to decode "+cmd.CommandType()+" response", err)
	}
	return nil
}

// connection returns the open connection, dialing a fresh one when there is
// none.
func (c *Client) connection(ctx context.Context, log *slog.Logger) (*websocket.Conn, error) {
	if c.conn != nil && c.State() == Open {
		return c.conn, nil
	}
	c.discard(log, false)

	c.setState(Connecting)
	log.Debug("Connecting to studio peer", "addr", c.addr)

	conn, resp, err := c.dialer.DialContext(ctx, c.addr, nil)
	if resp != nil && resp.Body != nil {
		resp.Body.Close()
	}
	if err != nil {
		c.setState(Disconnected)
		return nil, ioError(ctx, "connect to "+c.addr, err)
	}

	c.conn = conn
	c.setState(Open)
	log.Info("Connected to studio peer", "addr", c.addr)
	return conn, nil
}

// discard releases the current connection. Errors while closing are logged
// and swallowed.
func (c *Client) discard(log *slog.Logger, graceful bool) {
	conn := c.conn
	c.conn = nil
	if conn == nil {
		c.setState(Disconnected)
		return
	}

	if graceful {
		c.setState(Closing)
		msg := websocket.FormatCloseMessage(websocket.CloseNormalClosure, "Closing")
		if err := conn.WriteControl(websocket.CloseMessage, msg, time.Now().Add(closeGrace)); err != nil {
			log.Debug("Error while sending close frame", "error", err.Error())
		}
	}
	if err := conn.Close(); err != nil {
		log.Debug("Error while closing WebSocket", "error", err.Error())
	}

	c.setState(Disconnected)
	log.Debug("Connection discarded", "graceful", graceful)
}

// Close tears down the connection and rejects further exchanges. It waits
// for an in-flight exchange to finish.
func (c *Client) Close() error {
	if err := c.exchange.Acquire(context.Background(), 1); err != nil {
		return err
	}
	defer c.exchange.Release(1)

	if c.closed {
		return nil
	}
	c.closed = true
	c.discard(c.log(), true)
	c.log().Info("Transport client closed", "addr", c.addr)
	return nil
}

// graceful reports whether a close handshake is worth attempting after err.
func graceful(err error) bool {
	return CodeOf(err) != ErrCodeConnectionClosed && !errors.Is(err, context.Canceled)
}

func frameName(msgType int) string {
	switch msgType {
	case websocket.BinaryMessage:
		return "binary"
	case websocket.CloseMessage:
		return "close"
	case websocket.PingMessage:
		return "ping"
	case websocket.PongMessage:
		return "pong"
	default:
		return fmt.Sprintf("type-%d", msgType)
	}
}
