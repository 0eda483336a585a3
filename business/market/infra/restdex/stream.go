package restdex

import (
	"context"
	"encoding/json"
	"sync"
	"time"

	"github.com/nlemus/solarb/business/market/domain"
	"github.com/nlemus/solarb/internal/apperror"
	"github.com/nlemus/solarb/internal/wsconn"
)

const (
	wsSubscribeTimeout = 10 * time.Second
	maxFeedReconnects  = 20
)

// feedConfig builds the WebSocket config for a pool update feed. The
// reconnect budget is finite so a dead venue eventually surfaces as a
// closed channel instead of silent retries.
var feedConfig = func(url, name string) wsconn.Config {
	cfg := wsconn.DefaultConfig(url, name)
	cfg.MaxReconnects = maxFeedReconnects
	return cfg
}

// SubscribePoolUpdates streams updates for one pool over the DEX
// WebSocket feed. The channel closes when ctx is done or the
// connection gives up reconnecting.
func (a *Adapter) SubscribePoolUpdates(ctx context.Context, poolAddress string) (<-chan domain.PoolUpdate, error) {
	if a.wsURL == "" {
		return nil, apperror.New(apperror.CodeDexNotSupported,
			apperror.WithContext(string(a.dex)+" has no WebSocket feed"))
	}

	ws, err := wsconn.New(feedConfig(a.wsURL, string(a.dex)+"-pool-updates"))
	if err != nil {
		return nil, err
	}

	updates := make(chan domain.PoolUpdate, 64)

	var closeOnce sync.Once
	closeUpdates := func() {
		closeOnce.Do(func() { close(updates) })
	}

	ws.OnMessage(func(msgCtx context.Context, data []byte) {
		var msg poolUpdateMessage
		if err := json.Unmarshal(data, &msg); err != nil {
			a.log.Warn(msgCtx, "dropping malformed pool update", "dex", a.dex, "error", err)
			return
		}
		if msg.PoolAddress != poolAddress {
			return
		}

		select {
		case updates <- msg.toUpdate(a.dex):
		default:
			a.log.Warn(msgCtx, "pool update buffer full, dropping event", "dex", a.dex, "pool", poolAddress)
		}
	})

	ws.OnStateChange(func(state wsconn.State, err error) {
		switch state {
		case wsconn.StateConnected:
			// Resubscribe after every (re)connect.
			subCtx, cancel := context.WithTimeout(ctx, wsSubscribeTimeout)
			defer cancel()
			if sendErr := ws.SendJSON(subCtx, subscribeMessage{Method: "subscribe", Pool: poolAddress}); sendErr != nil {
				a.log.Warn(subCtx, "failed to subscribe to pool updates",
					"dex", a.dex, "pool", poolAddress, "error", sendErr)
			}
		case wsconn.StateReconnecting:
			a.log.Warn(ctx, "pool update feed reconnecting", "dex", a.dex, "error", err)
		case wsconn.StateDisconnected:
			// Terminal: the client gave up reconnecting.
			if err != nil {
				a.log.Error(ctx, "pool update feed lost", "dex", a.dex, "error", err)
			}
			closeUpdates()
		}
	})

	if err := ws.Connect(ctx); err != nil {
		return nil, err
	}

	go func() {
		<-ctx.Done()
		_ = ws.Close()
		closeUpdates()
	}()

	return updates, nil
}
