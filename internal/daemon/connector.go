package daemon

import (
	"context"
	"sync"
	"time"

	"github.com/campuskit/campusd/internal/backend"
	"github.com/campuskit/campusd/internal/bus"
	"github.com/campuskit/campusd/internal/rtm"
	"github.com/campuskit/campusd/internal/status"
	"github.com/campuskit/campusd/internal/store"
	"go.uber.org/zap"
)

const reconnectDelay = 5 * time.Second

// Connector drives the realtime bridge session: it mints a token and
// connects once a user is authenticated, pulls the channel lists during
// the syncing phase, and redials after a dropped connection.
type Connector struct {
	store   *store.Store
	backend *backend.Client
	rtm     *rtm.Adapter
	machine *status.Machine
	bus     *bus.Bus
	logger  *zap.Logger

	mu         sync.Mutex
	connecting bool
	cancel     context.CancelFunc
}

// NewConnector creates a bridge connector.
func NewConnector(s *store.Store, be *backend.Client, a *rtm.Adapter, m *status.Machine, eb *bus.Bus, logger *zap.Logger) *Connector {
	return &Connector{store: s, backend: be, rtm: a, machine: m, bus: eb, logger: logger}
}

// Start resolves the boot state and begins watching session events. A
// cached user from a previous run reconnects without re-auth.
func (c *Connector) Start(ctx context.Context) error {
	ctx, c.cancel = context.WithCancel(ctx)

	sessionCh, unsubSession := c.bus.Subscribe("session.", 64)
	rtmCh, unsubRTM := c.bus.Subscribe("rtm.", 64)
	go c.watch(ctx, sessionCh, rtmCh, unsubSession, unsubRTM)

	user, err := c.store.CurrentUser()
	if err != nil {
		return err
	}
	if user == nil {
		c.logger.Info("no cached user, auth required")
		return c.machine.Transition(status.LoggedOut)
	}
	c.logger.Info("cached user found, connecting", zap.String("user_id", user.ID))
	go c.connect(ctx, *user)
	return nil
}

// Stop tears down the watcher and the bridge connection.
func (c *Connector) Stop() {
	if c.cancel != nil {
		c.cancel()
	}
	c.rtm.Disconnect()
}

func (c *Connector) watch(ctx context.Context, sessionCh, rtmCh <-chan bus.Event, unsubs ...func()) {
	defer func() {
		for _, u := range unsubs {
			u()
		}
	}()

	for {
		select {
		case evt := <-sessionCh:
			switch evt.Kind {
			case "session.authenticated":
				if user, ok := evt.Payload.(*store.User); ok {
					go c.connect(ctx, *user)
				}
			case "session.logged_out":
				c.rtm.Disconnect()
				_ = c.machine.Transition(status.LoggedOut)
			}
		case evt := <-rtmCh:
			if evt.Kind != "rtm.disconnected" {
				continue
			}
			state := c.machine.Current()
			if state != status.Ready && state != status.Syncing {
				continue
			}
			_ = c.machine.Transition(status.Reconnecting)
			go c.redial(ctx)
		case <-ctx.Done():
			return
		}
	}
}

func (c *Connector) redial(ctx context.Context) {
	select {
	case <-time.After(reconnectDelay):
	case <-ctx.Done():
		return
	}
	user, err := c.store.CurrentUser()
	if err != nil || user == nil {
		return
	}
	c.connect(ctx, *user)
}

// connect runs the Connecting -> Syncing -> Ready sequence. Only one
// attempt runs at a time; failures schedule a redial instead of looping
// in place.
func (c *Connector) connect(ctx context.Context, user store.User) {
	c.mu.Lock()
	if c.connecting {
		c.mu.Unlock()
		return
	}
	c.connecting = true
	c.mu.Unlock()
	defer func() {
		c.mu.Lock()
		c.connecting = false
		c.mu.Unlock()
	}()

	_ = c.machine.Transition(status.Connecting)

	token, err := c.backend.RTMToken(ctx, user.ID)
	if err != nil {
		c.logger.Error("token mint failed", zap.Error(err))
		_ = c.machine.Transition(status.Reconnecting)
		go c.redial(ctx)
		return
	}
	if err := c.rtm.Connect(ctx, token); err != nil {
		c.logger.Error("bridge connect failed", zap.Error(err))
		_ = c.machine.Transition(status.Reconnecting)
		go c.redial(ctx)
		return
	}

	_ = c.machine.Transition(status.Syncing)
	c.initialSync(ctx, user)
	_ = c.machine.Transition(status.Ready)
	c.logger.Info("daemon ready", zap.String("user_id", user.ID))
}

// initialSync refreshes the channel lists so the UI has something to
// show before the first manual refresh. Failures are logged and left
// for the API refresh path; they do not block readiness.
func (c *Connector) initialSync(ctx context.Context, user store.User) {
	contacts, err := c.backend.Contacts(ctx, user.ID, user.Role)
	if err != nil {
		c.logger.Warn("contact sync failed", zap.Error(err))
		return
	}
	groups, err := c.backend.Groups(ctx, user.ID)
	if err != nil {
		c.logger.Warn("group sync failed", zap.Error(err))
		return
	}
	for _, ch := range append(contacts, groups...) {
		if err := c.store.SaveChannel(ch); err != nil {
			c.logger.Error("failed to cache channel", zap.String("channel_id", ch.ID), zap.Error(err))
			return
		}
	}
	c.logger.Info("channel lists synced",
		zap.Int("contacts", len(contacts)), zap.Int("groups", len(groups)))
}
