package websocket

import (
	"context"
	"encoding/json"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"
	"time"

	ws "github.com/coder/websocket"

	"github.com/dukerupert/steady/internal/auth"
	"github.com/dukerupert/steady/internal/model"
)

// mockClient creates a Client with a send channel but no real connection.
func mockClient(hub *Hub, accountID int64) *Client {
	return &Client{
		hub:       hub,
		conn:      nil,
		accountID: accountID,
		send:      make(chan []byte, sendBufferSize),
	}
}

func TestRegisterUnregister(t *testing.T) {
	hub := NewHub(slog.Default())

	c1 := mockClient(hub, 1)
	c2 := mockClient(hub, 1)

	hub.Register(c1)
	hub.Register(c2)

	if got := hub.ClientCount(); got != 2 {
		t.Fatalf("expected 2 clients, got %d", got)
	}

	hub.Unregister(c1)

	if got := hub.ClientCount(); got != 1 {
		t.Fatalf("expected 1 client after unregister, got %d", got)
	}

	hub.Unregister(c2)

	if got := hub.ClientCount(); got != 0 {
		t.Fatalf("expected 0 clients, got %d", got)
	}
	if len(hub.byAcct) != 0 {
		t.Fatalf("expected account index to be empty, got %d", len(hub.byAcct))
	}
}

func TestDoubleUnregister(t *testing.T) {
	hub := NewHub(slog.Default())
	c := mockClient(hub, 1)
	hub.Register(c)
	hub.Unregister(c)
	// Should not panic
	hub.Unregister(c)

	if got := hub.ClientCount(); got != 0 {
		t.Fatalf("expected 0 clients, got %d", got)
	}
}

func receive(t *testing.T, c *Client) (Message, bool) {
	t.Helper()
	select {
	case data := <-c.send:
		var got Message
		if err := json.Unmarshal(data, &got); err != nil {
			t.Fatalf("unmarshal: %v", err)
		}
		return got, true
	case <-time.After(50 * time.Millisecond):
		return Message{}, false
	}
}

func TestSendToAccountTargetsOnlyThatAccount(t *testing.T) {
	hub := NewHub(slog.Default())

	mine1 := mockClient(hub, 7)
	mine2 := mockClient(hub, 7)
	other := mockClient(hub, 8)
	hub.Register(mine1)
	hub.Register(mine2)
	hub.Register(other)

	if n := hub.SendToAccount(7, NewMessage("puzzle", "created", 42, nil)); n != 2 {
		t.Errorf("queued on %d connections, want 2", n)
	}
	for _, c := range []*Client{mine1, mine2} {
		got, ok := receive(t, c)
		if !ok {
			t.Fatal("expected message for account 7")
		}
		if got.Type != "puzzle_created" || got.ID != 42 {
			t.Errorf("message = %+v, want puzzle_created 42", got)
		}
	}
	if _, ok := receive(t, other); ok {
		t.Error("account 8 should not receive account 7's message")
	}
}

func TestDeliverNotification(t *testing.T) {
	hub := NewHub(slog.Default())
	c := mockClient(hub, 3)
	hub.Register(c)

	err := hub.Deliver(context.Background(), &model.Notification{
		ID: 9, From: 1, To: 3, Type: model.NotifyEmergency,
		AdditionalData: map[string]any{"message": "help"},
	})
	if err != nil {
		t.Fatalf("deliver: %v", err)
	}

	got, ok := receive(t, c)
	if !ok {
		t.Fatal("timed out waiting for message")
	}
	if got.Type != "notification_created" || got.ID != 9 {
		t.Errorf("message = %+v", got)
	}
	if got.Extra["type"] != "emergency" {
		t.Errorf("extra type = %v, want emergency", got.Extra["type"])
	}
}

func TestDeliverWithoutConnections(t *testing.T) {
	hub := NewHub(slog.Default())
	if err := hub.Deliver(context.Background(), &model.Notification{ID: 1, To: 99}); err != nil {
		t.Errorf("deliver to offline account: %v", err)
	}
}

func TestSendToAccountDropsWhenBufferFull(t *testing.T) {
	hub := NewHub(slog.Default())
	c := mockClient(hub, 1)
	hub.Register(c)

	// Fill the buffer
	for i := 0; i < sendBufferSize; i++ {
		hub.SendToAccount(1, NewMessage("test", "fill", int64(i), nil))
	}

	// This should not block
	done := make(chan int)
	go func() {
		done <- hub.SendToAccount(1, NewMessage("test", "overflow", 999, nil))
	}()

	select {
	case n := <-done:
		if n != 0 {
			t.Errorf("queued on %d connections, want 0 with a full buffer", n)
		}
	case <-time.After(time.Second):
		t.Fatal("SendToAccount blocked on full buffer")
	}
}

func TestConcurrentRegisterSend(t *testing.T) {
	hub := NewHub(slog.Default())
	var wg sync.WaitGroup

	for i := 0; i < 50; i++ {
		wg.Add(2)
		go func(id int64) {
			defer wg.Done()
			c := mockClient(hub, id)
			hub.Register(c)
			hub.Unregister(c)
		}(int64(i))
		go func(id int64) {
			defer wg.Done()
			hub.SendToAccount(id, NewMessage("test", "concurrent", id, nil))
		}(int64(i))
	}
	wg.Wait()
}

func TestHandleWebSocketEndToEnd(t *testing.T) {
	hub := NewHub(slog.Default())
	handler := HandleWebSocket(hub, nil)
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		ctx := auth.WithAuth(r.Context(), auth.AuthContext{AccountID: 5, Role: model.RolePatient})
		handler(w, r.WithContext(ctx))
	}))
	defer srv.Close()

	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()

	conn, _, err := ws.Dial(ctx, "ws"+strings.TrimPrefix(srv.URL, "http"), nil)
	if err != nil {
		t.Fatalf("dial: %v", err)
	}
	defer conn.CloseNow()

	// Wait for registration
	deadline := time.Now().Add(time.Second)
	for hub.ClientCount() == 0 && time.Now().Before(deadline) {
		time.Sleep(5 * time.Millisecond)
	}

	hub.SendToAccount(5, NewMessage("notification", "created", 77, nil))

	_, data, err := conn.Read(ctx)
	if err != nil {
		t.Fatalf("read: %v", err)
	}
	var got Message
	if err := json.Unmarshal(data, &got); err != nil {
		t.Fatalf("unmarshal: %v", err)
	}
	if got.ID != 77 {
		t.Errorf("id = %d, want 77", got.ID)
	}
}

func TestHandleWebSocketRequiresAuth(t *testing.T) {
	rec := httptest.NewRecorder()
	HandleWebSocket(NewHub(slog.Default()), nil)(rec, httptest.NewRequest("GET", "/ws", nil))
	if rec.Code != http.StatusUnauthorized {
		t.Errorf("status = %d, want %d", rec.Code, http.StatusUnauthorized)
	}
}
