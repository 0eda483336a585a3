package restdex

import (
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/coder/websocket"
	"github.com/shopspring/decimal"

	"github.com/nlemus/solarb/business/market/domain"
	"github.com/nlemus/solarb/internal/apperror"
	"github.com/nlemus/solarb/internal/logger"
	"github.com/nlemus/solarb/internal/wsconn"
)

// startPoolFeed runs a WebSocket server driven by handler and returns
// its ws:// URL.
func startPoolFeed(t *testing.T, handler func(conn *websocket.Conn)) (string, *httptest.Server) {
	t.Helper()
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		conn, err := websocket.Accept(w, r, nil)
		if err != nil {
			return
		}
		defer conn.Close(websocket.StatusNormalClosure, "")
		if handler != nil {
			handler(conn)
		}
	}))
	t.Cleanup(server.Close)
	return "ws" + strings.TrimPrefix(server.URL, "http"), server
}

func streamAdapter(wsURL string) *Adapter {
	return &Adapter{
		dex:   domain.DexRaydium,
		wsURL: wsURL,
		log:   logger.New(io.Discard, logger.LevelError, "test", nil),
	}
}

// fastFeedConfig shrinks reconnect timing so terminal disconnects
// happen within test timeouts.
func fastFeedConfig(t *testing.T, maxReconnects int) {
	t.Helper()
	prior := feedConfig
	feedConfig = func(url, name string) wsconn.Config {
		cfg := wsconn.DefaultConfig(url, name)
		cfg.PingInterval = 0
		cfg.InitialBackoff = 10 * time.Millisecond
		cfg.MaxBackoff = 50 * time.Millisecond
		cfg.MaxReconnects = maxReconnects
		return cfg
	}
	t.Cleanup(func() { feedConfig = prior })
}

// awaitClosed drains updates until the channel closes or the deadline
// passes.
func awaitClosed(t *testing.T, updates <-chan domain.PoolUpdate, timeout time.Duration) {
	t.Helper()
	deadline := time.After(timeout)
	for {
		select {
		case _, ok := <-updates:
			if !ok {
				return
			}
		case <-deadline:
			t.Fatal("updates channel never closed")
		}
	}
}

func TestAdapter_SubscribePoolUpdates_NoFeed(t *testing.T) {
	a := streamAdapter("")

	_, err := a.SubscribePoolUpdates(context.Background(), "PoolAddr111")
	if apperror.GetCode(err) != apperror.CodeDexNotSupported {
		t.Errorf("SubscribePoolUpdates() code = %v, want DEX_NOT_SUPPORTED", apperror.GetCode(err))
	}
}

func TestAdapter_SubscribePoolUpdates_DeliversAndClosesOnCancel(t *testing.T) {
	fastFeedConfig(t, 0)

	url, _ := startPoolFeed(t, func(conn *websocket.Conn) {
		ctx := context.Background()

		// Expect the subscription before streaming anything.
		_, data, err := conn.Read(ctx)
		if err != nil {
			return
		}
		var sub subscribeMessage
		if json.Unmarshal(data, &sub) != nil || sub.Pool != "PoolAddr111" {
			return
		}

		event := poolUpdateMessage{
			Kind:        "reserve_change",
			PoolAddress: "PoolAddr111",
			ReserveA:    "1000000.5",
			ReserveB:    "2000000",
		}
		payload, _ := json.Marshal(event)
		conn.Write(ctx, websocket.MessageText, payload)

		// Park until the client hangs up.
		for {
			if _, _, err := conn.Read(ctx); err != nil {
				return
			}
		}
	})

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	a := streamAdapter(url)
	updates, err := a.SubscribePoolUpdates(ctx, "PoolAddr111")
	if err != nil {
		t.Fatalf("SubscribePoolUpdates() failed: %v", err)
	}

	select {
	case update := <-updates:
		if update.PoolAddress != "PoolAddr111" || update.Dex != domain.DexRaydium {
			t.Errorf("update = %+v", update)
		}
		if !update.ReserveA.Equal(decimal.RequireFromString("1000000.5")) {
			t.Errorf("ReserveA = %s, want 1000000.5", update.ReserveA)
		}
	case <-time.After(3 * time.Second):
		t.Fatal("pool update never arrived")
	}

	cancel()
	awaitClosed(t, updates, 3*time.Second)
}

func TestAdapter_SubscribePoolUpdates_ClosesWhenFeedDies(t *testing.T) {
	fastFeedConfig(t, 1)

	url, server := startPoolFeed(t, func(conn *websocket.Conn) {
		// Accept the subscription, then vanish.
		_, _, _ = conn.Read(context.Background())
	})

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	a := streamAdapter(url)
	updates, err := a.SubscribePoolUpdates(ctx, "PoolAddr111")
	if err != nil {
		t.Fatalf("SubscribePoolUpdates() failed: %v", err)
	}

	// Kill the venue entirely so every redial fails and the client
	// exhausts its reconnect budget.
	server.CloseClientConnections()
	server.Close()

	awaitClosed(t, updates, 5*time.Second)
}
