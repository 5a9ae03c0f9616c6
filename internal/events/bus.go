package events

import (
	"context"
	"sort"
	"sync"
	"time"

	"github.com/KirkDiggler/initiative-tracker/internal/uuid"
	"github.com/rs/zerolog/log"
)

// DefaultQueueSize is the number of undelivered changes the Bus buffers
const DefaultQueueSize = 64

// BusConfig configures a Bus
type BusConfig struct {
	QueueSize     int
	UUIDGenerator uuid.Generator
	Now           func() time.Time
}

// Bus implements Notifier. Notify never blocks: changes are queued and delivered by Run.
type Bus struct {
	listeners []Listener
	mu        sync.RWMutex

	queue chan Change
	ids   uuid.Generator
	now   func() time.Time
}

// NewBus creates a new change bus
func NewBus(cfg *BusConfig) *Bus {
	if cfg == nil {
		cfg = &BusConfig{}
	}

	size := cfg.QueueSize
	if size <= 0 {
		size = DefaultQueueSize
	}

	ids := cfg.UUIDGenerator
	if ids == nil {
		ids = uuid.NewGoogleUUIDGenerator()
	}

	now := cfg.Now
	if now == nil {
		now = time.Now
	}

	return &Bus{
		queue: make(chan Change, size),
		ids:   ids,
		now:   now,
	}
}

// Subscribe adds a listener. Listeners run in ascending priority order.
func (b *Bus) Subscribe(listener Listener) {
	b.mu.Lock()
	defer b.mu.Unlock()

	b.listeners = append(b.listeners, listener)
	sort.SliceStable(b.listeners, func(i, j int) bool {
		return b.listeners[i].Priority() < b.listeners[j].Priority()
	})

	log.Debug().Str("listener", listener.ID()).Int("priority", listener.Priority()).Msg("subscribed change listener")
}

// Unsubscribe removes a listener by id
func (b *Bus) Unsubscribe(listenerID string) {
	b.mu.Lock()
	defer b.mu.Unlock()

	for i, l := range b.listeners {
		if l.ID() != listenerID {
			continue
		}
		b.listeners = append(b.listeners[:i], b.listeners[i+1:]...)
		log.Debug().Str("listener", listenerID).Msg("unsubscribed change listener")
		return
	}
}

// Notify queues a change. When the queue is full the change is dropped.
func (b *Bus) Notify() {
	change := Change{ID: b.ids.New(), At: b.now()}

	select {
	case b.queue <- change:
	default:
		log.Warn().Str("change", change.ID).Int("queued", len(b.queue)).Msg("change queue full, dropping notification")
	}
}

// Run delivers queued changes until ctx is done
func (b *Bus) Run(ctx context.Context) error {
	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case change := <-b.queue:
			b.dispatch(change)
		}
	}
}

// Drain delivers every change queued so far and returns how many were delivered
func (b *Bus) Drain() int {
	delivered := 0
	for {
		select {
		case change := <-b.queue:
			b.dispatch(change)
			delivered++
		default:
			return delivered
		}
	}
}

func (b *Bus) dispatch(change Change) {
	b.mu.RLock()
	listeners := make([]Listener, len(b.listeners))
	copy(listeners, b.listeners)
	b.mu.RUnlock()

	for _, listener := range listeners {
		if err := listener.HandleChange(change); err != nil {
			log.Error().Err(err).Str("listener", listener.ID()).Str("change", change.ID).Msg("change listener failed")
		}
	}
}
