package scan

import (
	"context"
	"log/slog"
	"slices"
	"sync"
	"time"

	"github.com/fwojciec/muffle"
	"github.com/google/uuid"
)

// DefaultSyncWait is how long Sync waits for a peer to answer a state
// request.
const DefaultSyncWait = 100 * time.Millisecond

// Controller handles inbound control messages and keeps the in-memory state
// in sync with other running instances.
type Controller struct {
	state       *State
	processor   *Processor
	stats       muffle.StatsRecorder
	broadcaster muffle.Broadcaster
	logger      *slog.Logger
	id          string

	mu      sync.Mutex
	ctx     context.Context
	syncing chan muffle.Notification
}

// NewController returns a Controller. stats and broadcaster may be nil.
func NewController(state *State, processor *Processor, stats muffle.StatsRecorder, broadcaster muffle.Broadcaster, logger *slog.Logger) *Controller {
	if logger == nil {
		logger = slog.New(slog.DiscardHandler)
	}
	return &Controller{
		state:       state,
		processor:   processor,
		stats:       stats,
		broadcaster: broadcaster,
		logger:      logger,
		id:          uuid.NewString(),
		ctx:         context.Background(),
	}
}

// ID returns the instance id used as the sender of notifications.
func (c *Controller) ID() string {
	return c.id
}

// UpdateWords re-reads the word list from storage, applies enabled and, when
// enabled, runs one immediate pass. Disabling clears the session counters.
// Other instances are notified on a best-effort basis.
func (c *Controller) UpdateWords(ctx context.Context, enabled bool) error {
	settings := c.state.Load(ctx)
	settings.Enabled = enabled
	c.state.Set(settings)

	if !enabled {
		c.resetSession(ctx)
	}

	c.publish(ctx, muffle.Notification{
		Type:    muffle.NotifyWordsUpdated,
		Words:   settings.Words,
		Enabled: settings.Enabled,
	})

	if !enabled {
		return nil
	}
	_, err := c.processor.Force(ctx)
	return err
}

// Refresh re-reads storage and runs a pass when the settings changed. It
// lets an instance that missed a notification catch up.
func (c *Controller) Refresh(ctx context.Context) error {
	before := c.state.Settings()
	after := c.state.Load(ctx)
	if before.Enabled == after.Enabled && slices.Equal(before.Words, after.Words) {
		return nil
	}
	c.logger.Info("settings changed", "enabled", after.Enabled, "words", len(after.Words))
	if !after.Enabled {
		return nil
	}
	_, err := c.processor.Force(ctx)
	return err
}

// Listen subscribes to notifications from other instances until the
// returned function is called. Passes triggered by notifications use ctx.
func (c *Controller) Listen(ctx context.Context) (cancel func()) {
	if c.broadcaster == nil {
		return func() {}
	}
	c.mu.Lock()
	c.ctx = ctx
	c.mu.Unlock()
	return c.broadcaster.Subscribe(c.handle)
}

// Sync asks running instances for their state and adopts the first answer
// received within wait. It reports whether an answer arrived.
func (c *Controller) Sync(ctx context.Context, wait time.Duration) bool {
	if c.broadcaster == nil {
		return false
	}
	ch := make(chan muffle.Notification, 1)
	c.mu.Lock()
	c.syncing = ch
	c.mu.Unlock()
	defer func() {
		c.mu.Lock()
		c.syncing = nil
		c.mu.Unlock()
	}()

	c.publish(ctx, muffle.Notification{Type: muffle.NotifyRequestState})

	timer := time.NewTimer(wait)
	defer timer.Stop()
	select {
	case n := <-ch:
		c.state.Set(muffle.Settings{Enabled: n.Enabled, Words: NormalizeWords(n.Words)})
		return true
	case <-timer.C:
		return false
	case <-ctx.Done():
		return false
	}
}

func (c *Controller) handle(n muffle.Notification) {
	if n.Sender == c.id {
		return
	}

	c.mu.Lock()
	ctx := c.ctx
	syncing := c.syncing
	c.mu.Unlock()

	switch n.Type {
	case muffle.NotifyWordsUpdated:
		c.state.Set(muffle.Settings{Enabled: n.Enabled, Words: NormalizeWords(n.Words)})
		c.rescan(ctx, n.Enabled)
	case muffle.NotifyToggle:
		c.state.SetEnabled(n.Enabled)
		if !n.Enabled {
			c.resetSession(ctx)
		}
		c.rescan(ctx, n.Enabled)
	case muffle.NotifyRequestState:
		settings := c.state.Settings()
		c.publish(ctx, muffle.Notification{
			Type:    muffle.NotifyProvideState,
			Words:   settings.Words,
			Enabled: settings.Enabled,
		})
	case muffle.NotifyProvideState:
		if syncing != nil {
			select {
			case syncing <- n:
			default:
			}
		}
	}
}

func (c *Controller) rescan(ctx context.Context, enabled bool) {
	if !enabled {
		return
	}
	if _, err := c.processor.Force(ctx); err != nil {
		c.logger.Warn("scan failed", "err", err)
	}
}

func (c *Controller) resetSession(ctx context.Context) {
	if c.stats == nil {
		return
	}
	if err := c.stats.ResetSession(ctx); err != nil {
		c.logger.Warn("session stats reset failed", "err", err)
	}
}

func (c *Controller) publish(ctx context.Context, n muffle.Notification) {
	if c.broadcaster == nil {
		return
	}
	n.Sender = c.id
	if err := c.broadcaster.Publish(ctx, n); err != nil {
		c.logger.Warn("notification not delivered", "type", n.Type, "err", err)
	}
}
