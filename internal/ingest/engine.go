// Package ingest routes realtime bridge events into the reconciler.
package ingest

import (
	"context"

	"github.com/campuskit/campusd/internal/bus"
	"github.com/campuskit/campusd/internal/reconcile"
	"github.com/campuskit/campusd/internal/rtm"
	"github.com/campuskit/campusd/internal/store"
	"go.uber.org/zap"
)

// Engine subscribes to "rtm.*" events on the bus and feeds message
// events through the reconciler.
type Engine struct {
	reconciler *reconcile.Reconciler
	bus        *bus.Bus
	logger     *zap.Logger
	cancel     context.CancelFunc
}

// NewEngine creates a new ingestion engine.
func NewEngine(r *reconcile.Reconciler, b *bus.Bus, logger *zap.Logger) *Engine {
	return &Engine{reconciler: r, bus: b, logger: logger}
}

// Start subscribes to inbound bridge events.
func (e *Engine) Start(ctx context.Context) {
	ctx, e.cancel = context.WithCancel(ctx)
	ch, unsub := e.bus.Subscribe("rtm.", 256)

	go func() {
		defer unsub()
		for {
			select {
			case evt := <-ch:
				e.handleEvent(evt)
			case <-ctx.Done():
				return
			}
		}
	}()
}

// Stop stops the engine.
func (e *Engine) Stop() {
	if e.cancel != nil {
		e.cancel()
	}
}

func (e *Engine) handleEvent(evt bus.Event) {
	switch evt.Kind {
	case "rtm.message":
		msg, ok := evt.Payload.(*store.Message)
		if !ok {
			e.logger.Warn("rtm.message with unexpected payload type")
			return
		}
		if msg.ChannelID == "" {
			e.logger.Warn("dropping message without channel id",
				zap.String("sender_id", msg.SenderID))
			return
		}
		if err := e.reconciler.IngestRemote(msg); err != nil {
			e.logger.Error("failed to ingest message",
				zap.Error(err), zap.String("channel_id", msg.ChannelID))
		}
	case "rtm.presence":
		p, ok := evt.Payload.(rtm.Presence)
		if !ok {
			return
		}
		e.logger.Info("presence update",
			zap.String("user_id", p.UserID), zap.Bool("online", p.Online))
	}
}
