package websocket

import (
	"context"
	"encoding/json"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"storefront/internal/domain"

	gw "github.com/gorilla/websocket"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/goleak"
)

func testLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func readUpdate(t *testing.T, conn *gw.Conn) OrderUpdate {
	t.Helper()
	require.NoError(t, conn.SetReadDeadline(time.Now().Add(2*time.Second)))
	_, msg, err := conn.ReadMessage()
	require.NoError(t, err)
	var upd OrderUpdate
	require.NoError(t, json.Unmarshal(msg, &upd))
	return upd
}

func TestHub_DeliversUpdatesToWatchers(t *testing.T) {
	defer goleak.VerifyNone(t)

	hub := NewHub(testLogger())
	ctx, cancel := context.WithCancel(context.Background())
	stopped := make(chan struct{})
	go func() {
		hub.Run(ctx)
		close(stopped)
	}()

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		hub.Serve(w, r, OrderUpdate{OrderID: 7, Status: domain.StatusPending})
	}))

	wsURL := "ws" + strings.TrimPrefix(srv.URL, "http")
	conn, _, err := gw.DefaultDialer.Dial(wsURL, nil)
	require.NoError(t, err)

	initial := readUpdate(t, conn)
	assert.Equal(t, uint64(7), initial.OrderID)
	assert.Equal(t, domain.StatusPending, initial.Status)
	assert.False(t, initial.Paid)

	hub.BroadcastOrderUpdate(8, domain.StatusProcessing, true)
	hub.BroadcastOrderUpdate(7, domain.StatusProcessing, true)

	upd := readUpdate(t, conn)
	assert.Equal(t, uint64(7), upd.OrderID)
	assert.Equal(t, domain.StatusProcessing, upd.Status)
	assert.True(t, upd.Paid)

	cancel()
	<-stopped

	// the server side closes the socket once the hub stops
	require.NoError(t, conn.SetReadDeadline(time.Now().Add(2*time.Second)))
	_, _, err = conn.ReadMessage()
	assert.Error(t, err)

	_ = conn.Close()
	srv.Close()
}

func TestHub_BroadcastNeverBlocks(t *testing.T) {
	defer goleak.VerifyNone(t)

	hub := NewHub(testLogger())

	done := make(chan struct{})
	go func() {
		for i := 0; i < 1000; i++ {
			hub.BroadcastOrderUpdate(uint64(i), domain.StatusPending, false)
		}
		close(done)
	}()

	select {
	case <-done:
	case <-time.After(2 * time.Second):
		t.Fatal("broadcast blocked without a running hub")
	}
}

func TestHub_ServeAfterStop(t *testing.T) {
	defer goleak.VerifyNone(t)

	hub := NewHub(testLogger())
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	hub.Run(ctx)

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		hub.Serve(w, r, OrderUpdate{OrderID: 1, Status: domain.StatusPending})
	}))
	defer srv.Close()

	conn, _, err := gw.DefaultDialer.Dial("ws"+strings.TrimPrefix(srv.URL, "http"), nil)
	require.NoError(t, err)
	defer conn.Close()

	require.NoError(t, conn.SetReadDeadline(time.Now().Add(2*time.Second)))
	_, _, err = conn.ReadMessage()
	assert.Error(t, err)
}
