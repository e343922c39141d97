package client

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"math"
	"net"
	"strings"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/gorilla/websocket"
	"github.com/mbocsi/kkstudio-mcp/peertest"
	"github.com/mbocsi/kkstudio-mcp/proto"
)

func newTestClient(t *testing.T, addr string) *Client {
	t.Helper()
	c := NewClient(addr)
	c.SetLogger(slog.New(slog.NewTextHandler(io.Discard, nil)))
	t.Cleanup(func() { c.Close() })
	return c
}

func pong(req peertest.Request) peertest.Reply {
	return peertest.JSON(map[string]any{"type": "pong", "message": req.Fields["message"]})
}

func TestNewClient_Defaults(t *testing.T) {
	c := NewClient("")

	if c.Addr() != DefaultAddr {
		t.Errorf("Expected addr %s, got %s", DefaultAddr, c.Addr())
	}
	if c.timeout != DefaultTimeout {
		t.Errorf("Expected timeout %v, got %v", DefaultTimeout, c.timeout)
	}
	if c.State() != Disconnected {
		t.Errorf("Expected state disconnected, got %s", c.State())
	}
}

func TestSend_PingThenBusinessError(t *testing.T) {
	peer := peertest.New(t, func(req peertest.Request) peertest.Reply {
		switch req.Type {
		case proto.TypePing:
			return peertest.Text(`{"type":"pong","message":"hi"}`)
		case proto.TypeDelete:
			return peertest.Failure("not found")
		}
		return peertest.Failure("unexpected")
	})
	c := newTestClient(t, peer.URL())
	ctx := context.Background()

	resp, err := Request[proto.PongResponse](ctx, c, proto.NewPing("hi", time.UnixMilli(1000)), 0)
	if err != nil {
		t.Fatalf("Ping failed: %v", err)
	}
	if resp.Type != proto.TypePong || resp.Message != "hi" {
		t.Errorf("Expected pong 'hi', got %+v", resp)
	}

	del, err := Request[proto.Response](ctx, c, proto.NewDelete(42), 0)
	if err != nil {
		t.Fatalf("Delete exchange failed: %v", err)
	}
	if !del.IsError() || !strings.Contains(del.Message, "not found") {
		t.Errorf("Expected business error 'not found', got %+v", del)
	}

	if c.State() != Open {
		t.Errorf("Expected connection to stay open after business error, got %s", c.State())
	}
	if peer.Handshakes() != 1 {
		t.Errorf("Expected 1 handshake, got %d", peer.Handshakes())
	}

	reqs := peer.Requests()
	if len(reqs) != 2 {
		t.Fatalf("Expected 2 requests, got %d", len(reqs))
	}
	if reqs[0].Fields["timestamp"] != float64(1000) {
		t.Errorf("Expected timestamp 1000, got %v", reqs[0].Fields["timestamp"])
	}
	if reqs[1].Fields["id"] != float64(42) {
		t.Errorf("Expected delete id 42, got %v", reqs[1].Fields["id"])
	}
}

func TestSend_TimeoutDiscardsConnection(t *testing.T) {
	peer := peertest.New(t, func(req peertest.Request) peertest.Reply {
		return peertest.Silence()
	})
	c := newTestClient(t, peer.URL())

	const timeout = 200 * time.Millisecond
	start := time.Now()
	err := c.Send(context.Background(), proto.NewPing("x", time.Now()), nil, timeout)
	elapsed := time.Since(start)

	if !errors.Is(err, ErrTimeout) {
		t.Fatalf("Expected timeout error, got %v", err)
	}
	if elapsed < timeout {
		t.Errorf("Expected Send to wait at least %v, returned after %v", timeout, elapsed)
	}
	if elapsed > timeout+time.Second {
		t.Errorf("Expected Send to return shortly after %v, took %v", timeout, elapsed)
	}
	if c.State() != Disconnected {
		t.Errorf("Expected disconnected after timeout, got %s", c.State())
	}

	peer.SetRespond(pong)
	var resp proto.PongResponse
	if err := c.Send(context.Background(), proto.NewPing("again", time.Now()), Into(&resp), time.Second); err != nil {
		t.Fatalf("Expected next Send to succeed, got %v", err)
	}
	if resp.Message != "again" {
		t.Errorf("Expected pong 'again', got %q", resp.Message)
	}
	if peer.Handshakes() != 2 {
		t.Errorf("Expected a fresh handshake after timeout, got %d handshakes", peer.Handshakes())
	}
}

func TestSend_SerializesConcurrentExchanges(t *testing.T) {
	peer := peertest.New(t, func(req peertest.Request) peertest.Reply {
		return peertest.Success("ok").After(50 * time.Millisecond)
	})
	c := newTestClient(t, peer.URL())

	const callers = 5
	var wg sync.WaitGroup
	errs := make(chan error, callers)
	for i := 0; i < callers; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			_, err := Request[proto.Response](context.Background(), c, proto.NewDelete(i), 2*time.Second)
			errs <- err
		}(i)
	}
	wg.Wait()
	close(errs)

	for err := range errs {
		if err != nil {
			t.Errorf("Concurrent exchange failed: %v", err)
		}
	}

	events := peer.Events()
	if len(events) != 2*callers {
		t.Fatalf("Expected %d events, got %d", 2*callers, len(events))
	}
	for i, ev := range events {
		want := peertest.EventReceived
		if i%2 == 1 {
			want = peertest.EventReplied
		}
		if ev.Kind != want {
			t.Fatalf("Expected event %d to be %s, got %s (exchanges interleaved)", i, want, ev.Kind)
		}
	}
	if peer.Handshakes() != 1 {
		t.Errorf("Expected exchanges to share one connection, got %d handshakes", peer.Handshakes())
	}
}

func TestSend_TruncatesScreenshotLog(t *testing.T) {
	image := strings.Repeat("A", 10000)
	peer := peertest.New(t, func(req peertest.Request) peertest.Reply {
		return peertest.JSON(map[string]any{
			"type":    "success",
			"message": "captured",
			"data": map[string]any{
				"image":        image,
				"width":        854,
				"height":       480,
				"format":       "png",
				"transparency": false,
				"size":         7500,
			},
		})
	})

	var logs bytes.Buffer
	c := NewClient(peer.URL())
	c.SetLogger(slog.New(slog.NewJSONHandler(&logs, nil)))
	defer c.Close()

	resp, err := Request[proto.ScreenshotResponse](context.Background(), c, proto.NewScreenshot(), 0)
	if err != nil {
		t.Fatalf("Screenshot failed: %v", err)
	}

	if resp.Data == nil || len(resp.Data.Image) != len(image) {
		t.Fatalf("Expected full image in returned value, got %+v", resp.Data)
	}
	out := logs.String()
	if !strings.Contains(out, "IMAGE_DATA_TRUNCATED:10000_chars") {
		t.Errorf("Expected truncation placeholder in log, got %s", out)
	}
	if strings.Contains(out, image) {
		t.Error("Expected image payload to be kept out of the log")
	}
	if !strings.Contains(out, "captured") {
		t.Errorf("Expected short fields to be logged verbatim, got %s", out)
	}
}

func TestSend_LogsOtherResponsesVerbatim(t *testing.T) {
	long := strings.Repeat("b", 300)
	peer := peertest.New(t, pong)

	var logs bytes.Buffer
	c := NewClient(peer.URL())
	c.SetLogger(slog.New(slog.NewJSONHandler(&logs, nil)))
	defer c.Close()

	if _, err := Request[proto.PongResponse](context.Background(), c, proto.NewPing(long, time.Now()), 0); err != nil {
		t.Fatalf("Ping failed: %v", err)
	}
	if strings.Contains(logs.String(), "TRUNCATED") {
		t.Error("Expected non-screenshot responses to be logged untruncated")
	}
	if strings.Count(logs.String(), long) < 2 {
		t.Error("Expected both SENT and RECEIVED payloads in the log")
	}
}

func TestSend_ReconnectAfterPeerClose(t *testing.T) {
	calls := 0
	var mu sync.Mutex
	peer := peertest.New(t, func(req peertest.Request) peertest.Reply {
		mu.Lock()
		defer mu.Unlock()
		calls++
		if calls == 1 {
			return peertest.CloseFrame()
		}
		return peertest.Success("ok")
	})
	c := newTestClient(t, peer.URL())
	ctx := context.Background()

	err := c.Send(ctx, proto.NewDelete(1), nil, time.Second)
	if !errors.Is(err, ErrConnectionClosed) {
		t.Fatalf("Expected connection closed error, got %v", err)
	}
	if c.State() != Disconnected {
		t.Errorf("Expected disconnected after fault, got %s", c.State())
	}

	resp, err := Request[proto.Response](ctx, c, proto.NewDelete(1), time.Second)
	if err != nil {
		t.Fatalf("Expected reconnect to succeed, got %v", err)
	}
	if !resp.IsSuccess() {
		t.Errorf("Expected success, got %+v", resp)
	}
	if peer.Handshakes() != 2 {
		t.Errorf("Expected 2 handshakes, got %d", peer.Handshakes())
	}
}

func TestSend_ReconnectAfterDroppedConnection(t *testing.T) {
	peer := peertest.New(t, pong)
	c := newTestClient(t, peer.URL())
	ctx := context.Background()

	if err := c.Send(ctx, proto.NewPing("1", time.Now()), nil, time.Second); err != nil {
		t.Fatalf("First ping failed: %v", err)
	}

	peer.DropConnections()
	deadline := time.Now().Add(time.Second)
	for peer.OpenConns() > 0 && time.Now().Before(deadline) {
		time.Sleep(10 * time.Millisecond)
	}

	if err := c.Send(ctx, proto.NewPing("2", time.Now()), nil, time.Second); err == nil {
		t.Fatal("Expected send over dropped connection to fail")
	}

	var resp proto.PongResponse
	if err := c.Send(ctx, proto.NewPing("3", time.Now()), Into(&resp), time.Second); err != nil {
		t.Fatalf("Expected reconnect to succeed, got %v", err)
	}
	if resp.Message != "3" {
		t.Errorf("Expected pong '3', got %q", resp.Message)
	}
}

func TestSend_BinaryFrameIsConnectionClosed(t *testing.T) {
	peer := peertest.New(t, func(req peertest.Request) peertest.Reply {
		return peertest.Binary([]byte{0x01, 0x02})
	})
	c := newTestClient(t, peer.URL())

	err := c.Send(context.Background(), proto.NewPing("x", time.Now()), nil, time.Second)
	if !errors.Is(err, ErrConnectionClosed) {
		t.Fatalf("Expected connection closed error, got %v", err)
	}
	if !strings.Contains(err.Error(), "binary") {
		t.Errorf("Expected error to name the frame type, got %v", err)
	}
	if c.State() != Disconnected {
		t.Errorf("Expected disconnected, got %s", c.State())
	}
}

func TestSend_DecodeFailureReleasesExchange(t *testing.T) {
	replies := []peertest.Reply{
		peertest.Text("not json"),
		peertest.Text(`{"message":"missing type"}`),
		peertest.Success("fine"),
	}
	var mu sync.Mutex
	peer := peertest.New(t, func(req peertest.Request) peertest.Reply {
		mu.Lock()
		defer mu.Unlock()
		r := replies[0]
		if len(replies) > 1 {
			replies = replies[1:]
		}
		return r
	})
	c := newTestClient(t, peer.URL())
	ctx := context.Background()

	for i := 0; i < 2; i++ {
		_, err := Request[proto.Response](ctx, c, proto.NewDelete(1), time.Second)
		if !errors.Is(err, ErrDecode) {
			t.Fatalf("Expected decode error on attempt %d, got %v", i, err)
		}
	}

	resp, err := Request[proto.Response](ctx, c, proto.NewDelete(1), time.Second)
	if err != nil {
		t.Fatalf("Expected exchange after decode failure to succeed, got %v", err)
	}
	if resp.Message != "fine" {
		t.Errorf("Expected message 'fine', got %q", resp.Message)
	}
	if peer.Handshakes() != 3 {
		t.Errorf("Expected decode failures to discard the connection, got %d handshakes", peer.Handshakes())
	}
}

func TestSend_CallerCancellationWins(t *testing.T) {
	peer := peertest.New(t, func(req peertest.Request) peertest.Reply {
		return peertest.Silence()
	})
	c := newTestClient(t, peer.URL())

	ctx, cancel := context.WithCancel(context.Background())
	time.AfterFunc(100*time.Millisecond, cancel)

	start := time.Now()
	err := c.Send(ctx, proto.NewPing("x", time.Now()), nil, 5*time.Second)
	elapsed := time.Since(start)

	if err == nil {
		t.Fatal("Expected cancellation error")
	}
	if !errors.Is(err, context.Canceled) {
		t.Errorf("Expected error to wrap context.Canceled, got %v", err)
	}
	if errors.Is(err, ErrTimeout) {
		t.Errorf("Expected cancellation not to be reported as timeout, got %v", err)
	}
	if elapsed > 2*time.Second {
		t.Errorf("Expected cancellation to abort promptly, took %v", elapsed)
	}
	if c.State() != Disconnected {
		t.Errorf("Expected disconnected, got %s", c.State())
	}
}

func TestSend_EarlierCallerDeadlineIsTimeout(t *testing.T) {
	peer := peertest.New(t, func(req peertest.Request) peertest.Reply {
		return peertest.Silence()
	})
	c := newTestClient(t, peer.URL())

	ctx, cancel := context.WithTimeout(context.Background(), 150*time.Millisecond)
	defer cancel()

	start := time.Now()
	err := c.Send(ctx, proto.NewPing("x", time.Now()), nil, 5*time.Second)
	if !errors.Is(err, ErrTimeout) {
		t.Fatalf("Expected timeout, got %v", err)
	}
	if time.Since(start) > 2*time.Second {
		t.Errorf("Expected the earlier caller deadline to apply, took %v", time.Since(start))
	}
}

func TestSend_ConnectFailure(t *testing.T) {
	listener, err := net.Listen("tcp", "127.0.0.1:0")
	if err != nil {
		t.Fatalf("Failed to get port: %v", err)
	}
	addr := fmt.Sprintf("ws://%s/ws", listener.Addr().String())
	listener.Close()

	c := newTestClient(t, addr)
	err = c.Send(context.Background(), proto.NewPing("x", time.Now()), nil, time.Second)
	if !errors.Is(err, ErrTransport) {
		t.Fatalf("Expected transport failure, got %v", err)
	}
	if c.State() != Disconnected {
		t.Errorf("Expected disconnected after failed handshake, got %s", c.State())
	}
}

func TestSend_UsesConfiguredDialer(t *testing.T) {
	peer := peertest.New(t, pong)
	c := newTestClient(t, peer.URL())

	var dials atomic.Int32
	c.SetDialer(&websocket.Dialer{
		HandshakeTimeout: time.Second,
		NetDialContext: func(ctx context.Context, network, addr string) (net.Conn, error) {
			dials.Add(1)
			var d net.Dialer
			return d.DialContext(ctx, network, addr)
		},
	})

	for i := 0; i < 2; i++ {
		if err := c.Send(context.Background(), proto.NewPing("x", time.Now()), nil, time.Second); err != nil {
			t.Fatalf("Ping %d failed: %v", i, err)
		}
	}
	if dials.Load() != 1 {
		t.Errorf("Expected the configured dialer to be used once, got %d dials", dials.Load())
	}
}

func TestSend_EncodeFailure(t *testing.T) {
	peer := peertest.New(t, pong)
	c := newTestClient(t, peer.URL())

	fov := math.NaN()
	cmd := proto.NewCamera(proto.CameraSetView)
	cmd.Fov = &fov

	err := c.Send(context.Background(), cmd, nil, time.Second)
	if !errors.Is(err, ErrEncode) {
		t.Fatalf("Expected encode error, got %v", err)
	}
	if CodeOf(err) != ErrCodeEncode {
		t.Errorf("Expected code %s, got %s", ErrCodeEncode, CodeOf(err))
	}
	if len(peer.Requests()) != 0 {
		t.Errorf("Expected nothing on the wire, got %d requests", len(peer.Requests()))
	}

	if err := c.Send(context.Background(), proto.NewPing("x", time.Now()), nil, time.Second); err != nil {
		t.Errorf("Expected next send to succeed, got %v", err)
	}
}

func TestClose_RejectsFurtherSends(t *testing.T) {
	peer := peertest.New(t, pong)
	c := newTestClient(t, peer.URL())

	if err := c.Send(context.Background(), proto.NewPing("x", time.Now()), nil, time.Second); err != nil {
		t.Fatalf("Ping failed: %v", err)
	}
	if err := c.Close(); err != nil {
		t.Fatalf("Close failed: %v", err)
	}
	if c.State() != Disconnected {
		t.Errorf("Expected disconnected after close, got %s", c.State())
	}

	err := c.Send(context.Background(), proto.NewPing("x", time.Now()), nil, time.Second)
	if !errors.Is(err, ErrClosed) {
		t.Errorf("Expected closed error, got %v", err)
	}
	if err := c.Close(); err != nil {
		t.Errorf("Expected second Close to be a no-op, got %v", err)
	}
}

func TestState_String(t *testing.T) {
	tests := map[State]string{
		Disconnected: "disconnected",
		Connecting:   "connecting",
		Open:         "open",
		Closing:      "closing",
	}
	for s, want := range tests {
		if s.String() != want {
			t.Errorf("Expected %q, got %q", want, s.String())
		}
	}
}
