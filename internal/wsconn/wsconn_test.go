package wsconn

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/coder/websocket"
)

// startExchange runs a mock exchange endpoint whose per-connection behavior
// is supplied by script. It returns the ws:// URL to dial.
func startExchange(t *testing.T, script func(conn *websocket.Conn)) string {
	t.Helper()
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		conn, err := websocket.Accept(w, r, nil)
		if err != nil {
			t.Logf("websocket accept error: %v", err)
			return
		}
		defer conn.Close(websocket.StatusNormalClosure, "")

		if script != nil {
			script(conn)
		}
	}))
	t.Cleanup(server.Close)

	return "ws" + strings.TrimPrefix(server.URL, "http")
}

// holdOpen keeps the server side up until the client goes away.
func holdOpen(conn *websocket.Conn) {
	ctx := context.Background()
	for {
		if _, _, err := conn.Read(ctx); err != nil {
			return
		}
	}
}

func newTestClient(t *testing.T, url string, mutate func(*Config)) *Client {
	t.Helper()
	cfg := DefaultConfig(url, "test")
	cfg.PingInterval = 0
	if mutate != nil {
		mutate(&cfg)
	}

	client, err := New(cfg)
	if err != nil {
		t.Fatalf("failed to create client: %v", err)
	}
	t.Cleanup(func() { client.Close() })

	return client
}

func connect(t *testing.T, client *Client) {
	t.Helper()
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	if err := client.Connect(ctx); err != nil {
		t.Fatalf("Connect failed: %v", err)
	}
}

// waitForState polls until the client reaches want or the deadline passes.
func waitForState(t *testing.T, client *Client, want State) {
	t.Helper()
	deadline := time.After(2 * time.Second)
	for client.State() != want {
		select {
		case <-deadline:
			t.Fatalf("state = %v, want %v", client.State(), want)
		default:
			time.Sleep(5 * time.Millisecond)
		}
	}
}

func TestClient_ConnectSuccess(t *testing.T) {
	url := startExchange(t, holdOpen)
	client := newTestClient(t, url, nil)

	connect(t, client)

	if client.State() != StateConnected {
		t.Fatalf("state = %v, want %v", client.State(), StateConnected)
	}
	if !client.IsConnected() {
		t.Fatal("IsConnected() = false after successful Connect")
	}
}

func TestClient_ConnectFailure(t *testing.T) {
	client := newTestClient(t, "ws://localhost:59999", nil) // nothing listening

	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()

	if err := client.Connect(ctx); err == nil {
		t.Fatal("expected Connect to fail with nothing listening")
	}
	if client.State() != StateDisconnected {
		t.Fatalf("state = %v, want %v after failed dial", client.State(), StateDisconnected)
	}
}

// A dropped connection is terminal for the Client: it reports
// StateDisconnected and stays there. The retry cadence belongs to the owner
// (the exchange feed), which builds a fresh Client per attempt — the Client
// must never start dialing again on its own.
func TestClient_StaysDisconnectedAfterDrop(t *testing.T) {
	url := startExchange(t, func(conn *websocket.Conn) {
		// Accept, then hang up immediately.
	})

	client := newTestClient(t, url, nil)

	var transitions []State
	var mu sync.Mutex
	client.OnStateChange(func(state State, _ error) {
		mu.Lock()
		transitions = append(transitions, state)
		mu.Unlock()
	})

	connect(t, client)
	waitForState(t, client, StateDisconnected)

	// No self-driven transition out of StateDisconnected.
	time.Sleep(300 * time.Millisecond)
	if got := client.State(); got != StateDisconnected {
		t.Fatalf("state = %v after drop, want it to remain %v", got, StateDisconnected)
	}

	mu.Lock()
	defer mu.Unlock()
	sawDisconnected := false
	for _, s := range transitions {
		if s == StateDisconnected {
			sawDisconnected = true
			continue
		}
		if sawDisconnected {
			t.Fatalf("client transitioned to %v after %v: it must not retry on its own (transitions: %v)",
				s, StateDisconnected, transitions)
		}
	}
	if !sawDisconnected {
		t.Fatalf("state change handler never saw %v (transitions: %v)", StateDisconnected, transitions)
	}
}

// Per-frame reads are bounded: a silent server trips the read timeout and
// the connection is torn down rather than hanging.
func TestClient_ReadTimeoutDropsConnection(t *testing.T) {
	url := startExchange(t, holdOpen) // never sends a frame

	client := newTestClient(t, url, func(cfg *Config) {
		cfg.ReadTimeout = 100 * time.Millisecond
	})

	connect(t, client)
	waitForState(t, client, StateDisconnected)
}

func TestClient_SendJSONDeliversSubscribeFrame(t *testing.T) {
	received := make(chan []byte, 1)
	url := startExchange(t, func(conn *websocket.Conn) {
		_, data, err := conn.Read(context.Background())
		if err != nil {
			return
		}
		received <- data
		holdOpen(conn)
	})

	client := newTestClient(t, url, nil)
	connect(t, client)

	ctx := context.Background()
	subscribe := map[string]interface{}{
		"method": "SUBSCRIBE",
		"params": []string{"btcusdt@depth10@100ms"},
		"id":     1,
	}
	if err := client.SendJSON(ctx, subscribe); err != nil {
		t.Fatalf("SendJSON failed: %v", err)
	}

	var frame []byte
	select {
	case frame = <-received:
	case <-time.After(2 * time.Second):
		t.Fatal("server never received the subscribe frame")
	}

	var parsed map[string]interface{}
	if err := json.Unmarshal(frame, &parsed); err != nil {
		t.Fatalf("received frame is not valid JSON: %v\nframe: %s", err, frame)
	}
	if parsed["method"] != "SUBSCRIBE" {
		t.Fatalf("method = %v, want SUBSCRIBE", parsed["method"])
	}
}

func TestClient_DeliversInboundFramesToHandler(t *testing.T) {
	snapshot := []byte(`{"bids":[["10","1"]],"asks":[["11","1"]]}`)
	url := startExchange(t, func(conn *websocket.Conn) {
		if err := conn.Write(context.Background(), websocket.MessageText, snapshot); err != nil {
			return
		}
		holdOpen(conn)
	})

	client := newTestClient(t, url, nil)

	frames := make(chan []byte, 1)
	client.OnMessage(func(_ context.Context, msg []byte) {
		select {
		case frames <- msg:
		default:
		}
	})

	connect(t, client)

	select {
	case got := <-frames:
		if string(got) != string(snapshot) {
			t.Fatalf("handler got %s, want %s", got, snapshot)
		}
	case <-time.After(2 * time.Second):
		t.Fatal("handler never saw the inbound frame")
	}
}

func TestClient_StateSequenceOverOneConnection(t *testing.T) {
	release := make(chan struct{})
	url := startExchange(t, func(conn *websocket.Conn) {
		<-release
	})

	client := newTestClient(t, url, nil)

	var states []State
	var mu sync.Mutex
	client.OnStateChange(func(state State, _ error) {
		mu.Lock()
		states = append(states, state)
		mu.Unlock()
	})

	connect(t, client)
	close(release) // server hangs up
	waitForState(t, client, StateDisconnected)

	mu.Lock()
	defer mu.Unlock()
	want := []State{StateConnecting, StateConnected, StateDisconnected}
	if len(states) != len(want) {
		t.Fatalf("transitions = %v, want %v", states, want)
	}
	for i := range want {
		if states[i] != want[i] {
			t.Fatalf("transition %d = %v, want %v (all: %v)", i, states[i], want[i], states)
		}
	}
}

func TestClient_CloseIsIdempotent(t *testing.T) {
	url := startExchange(t, holdOpen)

	cfg := DefaultConfig(url, "test")
	cfg.PingInterval = 0
	client, err := New(cfg)
	if err != nil {
		t.Fatalf("failed to create client: %v", err)
	}

	connect(t, client)

	if err := client.Close(); err != nil {
		t.Fatalf("Close failed: %v", err)
	}
	if client.State() != StateClosed {
		t.Fatalf("state = %v, want %v", client.State(), StateClosed)
	}
	if err := client.Close(); err != nil {
		t.Fatalf("second Close should be a no-op, got %v", err)
	}
}

func TestClient_ConcurrentSend(t *testing.T) {
	var frames atomic.Int32
	url := startExchange(t, func(conn *websocket.Conn) {
		ctx := context.Background()
		for {
			if _, _, err := conn.Read(ctx); err != nil {
				return
			}
			frames.Add(1)
		}
	})

	client := newTestClient(t, url, nil)
	connect(t, client)

	ctx := context.Background()
	const senders = 8
	const perSender = 4
	var wg sync.WaitGroup
	for i := 0; i < senders; i++ {
		wg.Add(1)
		go func(id int) {
			defer wg.Done()
			for j := 0; j < perSender; j++ {
				if err := client.SendJSON(ctx, map[string]int{"sender": id, "seq": j}); err != nil {
					t.Errorf("SendJSON failed: %v", err)
					return
				}
			}
		}(i)
	}
	wg.Wait()

	deadline := time.After(2 * time.Second)
	for frames.Load() != senders*perSender {
		select {
		case <-deadline:
			t.Fatalf("server received %d frames, want %d", frames.Load(), senders*perSender)
		default:
			time.Sleep(5 * time.Millisecond)
		}
	}
}

// An inbound frame over MaxMessageSize is a protocol violation: the
// connection is dropped (and, as everywhere else, stays dropped).
func TestClient_OversizedFrameDropsConnection(t *testing.T) {
	url := startExchange(t, func(conn *websocket.Conn) {
		large := make([]byte, 4096)
		for i := range large {
			large[i] = 'x'
		}
		if err := conn.Write(context.Background(), websocket.MessageText, large); err != nil {
			return
		}
		holdOpen(conn)
	})

	client := newTestClient(t, url, func(cfg *Config) {
		cfg.MaxMessageSize = 100
	})

	connect(t, client)
	waitForState(t, client, StateDisconnected)

	time.Sleep(200 * time.Millisecond)
	if got := client.State(); got != StateDisconnected {
		t.Fatalf("state = %v, want %v to persist after oversized frame", got, StateDisconnected)
	}
}
