// Package peertest runs a scripted stand-in for the studio peer so the
// transport client and the MCP tools can be tested over a real WebSocket.
package peertest

import (
	"encoding/json"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/gorilla/websocket"
)

var upgrader = websocket.Upgrader{
	CheckOrigin: func(r *http.Request) bool {
		return true
	},
}

// Request is one command received by the peer.
type Request struct {
	Raw     []byte
	Type    string
	Command string
	Fields  map[string]any
}

// Reply tells the peer how to answer a request.
type Reply struct {
	Text   string
	Binary []byte
	Close  bool          // send a close frame instead of a reply
	Silent bool          // never answer
	Delay  time.Duration // wait before answering
}

// After returns r delayed by d.
func (r Reply) After(d time.Duration) Reply {
	r.Delay = d
	return r
}

func Text(s string) Reply { return Reply{Text: s} }

// JSON replies with v encoded as JSON.
func JSON(v any) Reply {
	data, err := json.Marshal(v)
	if err != nil {
		panic("peertest: marshal reply: " + err.Error())
	}
	return Reply{Text: string(data)}
}

func Success(message string) Reply {
	return JSON(map[string]any{"type": "success", "message": message})
}

func Failure(message string) Reply {
	return JSON(map[string]any{"type": "error", "message": message})
}

func Silence() Reply { return Reply{Silent: true} }

func Binary(data []byte) Reply { return Reply{Binary: data} }

func CloseFrame() Reply { return Reply{Close: true} }

// RespondFunc decides the reply to a request.
type RespondFunc func(req Request) Reply

// EventKind distinguishes peer timeline entries.
type EventKind string

const (
	EventReceived EventKind = "received"
	EventReplied  EventKind = "replied"
)

// Event is one entry in the peer's timeline, used to check that exchanges
// never overlap on the wire.
type Event struct {
	Kind EventKind
	Type string
	Conn int
	At   time.Time
}

// Peer is a fake studio peer listening on /ws.
type Peer struct {
	server *httptest.Server

	mu         sync.Mutex
	respond    RespondFunc
	requests   []Request
	events     []Event
	handshakes int
	conns      map[*websocket.Conn]struct{}
	done       chan struct{}
	closeOnce  sync.Once
}

// New starts a peer that answers with respond, and registers its shutdown
// with t.
func New(t testing.TB, respond RespondFunc) *Peer {
	t.Helper()

	p := &Peer{
		respond: respond,
		conns:   make(map[*websocket.Conn]struct{}),
		done:    make(chan struct{}),
	}

	r := chi.NewRouter()
	r.Get("/ws", p.handleWebSocket)
	p.server = httptest.NewServer(r)

	t.Cleanup(p.Close)
	return p
}

// URL returns the ws:// address of the peer's socket endpoint.
func (p *Peer) URL() string {
	return "ws" + strings.TrimPrefix(p.server.URL, "http") + "/ws"
}

// SetRespond replaces the reply script.
func (p *Peer) SetRespond(fn RespondFunc) {
	p.mu.Lock()
	p.respond = fn
	p.mu.Unlock()
}

// Handshakes returns the number of WebSocket connections accepted so far.
func (p *Peer) Handshakes() int {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.handshakes
}

// OpenConns returns the number of connections the peer still holds.
func (p *Peer) OpenConns() int {
	p.mu.Lock()
	defer p.mu.Unlock()
	return len(p.conns)
}

func (p *Peer) Requests() []Request {
	p.mu.Lock()
	defer p.mu.Unlock()
	out := make([]Request, len(p.requests))
	copy(out, p.requests)
	return out
}

func (p *Peer) Events() []Event {
	p.mu.Lock()
	defer p.mu.Unlock()
	out := make([]Event, len(p.events))
	copy(out, p.events)
	return out
}

// DropConnections closes every live connection without a close handshake.
func (p *Peer) DropConnections() {
	p.mu.Lock()
	defer p.mu.Unlock()
	for conn := range p.conns {
		conn.Close()
	}
}

func (p *Peer) Close() {
	p.closeOnce.Do(func() {
		close(p.done)
		p.DropConnections()
		p.server.Close()
	})
}

func (p *Peer) handleWebSocket(w http.ResponseWriter, r *http.Request) {
	conn, err := upgrader.Upgrade(w, r, nil)
	if err != nil {
		slog.Error("Failed to upgrade connection", "error", err)
		return
	}

	p.mu.Lock()
	p.handshakes++
	id := p.handshakes
	p.conns[conn] = struct{}{}
	p.mu.Unlock()

	p.handleConnection(conn, id)
}

// handleConnection reads on one goroutine and answers on another, so a
// client that wrote a second command before reading the first reply would
// show up as overlapping events.
func (p *Peer) handleConnection(conn *websocket.Conn, id int) {
	queue := make(chan Request, 16)

	defer func() {
		p.mu.Lock()
		delete(p.conns, conn)
		p.mu.Unlock()
		conn.Close()
	}()

	go p.answer(conn, id, queue)
	defer close(queue)

	for {
		_, data, err := conn.ReadMessage()
		if err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseNormalClosure, websocket.CloseGoingAway, websocket.CloseAbnormalClosure) {
				slog.Debug("Peer connection error", "conn", id, "error", err)
			}
			return
		}

		req := Request{Raw: data}
		if err := json.Unmarshal(data, &req.Fields); err != nil {
			slog.Warn("Invalid JSON command received", "error", err, "data", string(data))
		}
		req.Type, _ = req.Fields["type"].(string)
		req.Command, _ = req.Fields["command"].(string)

		p.mu.Lock()
		p.requests = append(p.requests, req)
		p.events = append(p.events, Event{Kind: EventReceived, Type: req.Type, Conn: id, At: time.Now()})
		p.mu.Unlock()

		queue <- req
	}
}

func (p *Peer) answer(conn *websocket.Conn, id int, queue <-chan Request) {
	for req := range queue {
		p.mu.Lock()
		respond := p.respond
		p.mu.Unlock()

		reply := Reply{Silent: true}
		if respond != nil {
			reply = respond(req)
		}
		if reply.Silent {
			continue
		}

		if reply.Delay > 0 {
			select {
			case <-time.After(reply.Delay):
			case <-p.done:
				return
			}
		}

		// Recorded before writing: the client cannot send its next command
		// until this reply is on the wire.
		p.mu.Lock()
		p.events = append(p.events, Event{Kind: EventReplied, Type: req.Type, Conn: id, At: time.Now()})
		p.mu.Unlock()

		var err error
		switch {
		case reply.Close:
			err = conn.WriteMessage(websocket.CloseMessage, websocket.FormatCloseMessage(websocket.CloseNormalClosure, "bye"))
		case reply.Binary != nil:
			err = conn.WriteMessage(websocket.BinaryMessage, reply.Binary)
		default:
			err = conn.WriteMessage(websocket.TextMessage, []byte(reply.Text))
		}
		if err != nil {
			slog.Debug("Peer failed to reply", "conn", id, "error", err)
			return
		}
	}
}
