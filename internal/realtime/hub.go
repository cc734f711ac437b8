// Package realtime delivers whole-collection snapshots to live subscribers.
//
// Collections are addressed by slash separated paths. A subscriber receives
// the current snapshot right away and a fresh one after every change under
// its path, until it closes the Subscription it was handed.
package realtime

import (
	"context"
	"errors"
	"sort"
	"strings"
	"sync"
	"time"

	"go.uber.org/zap"
)

// ErrUnknownPath is returned when subscribing to a path with no loader.
var ErrUnknownPath = errors.New("unknown collection path")

// Snapshot is the full content of a collection at a point in time.
type Snapshot struct {
	Path string      `json:"path"`
	Data interface{} `json:"data"`
	At   time.Time   `json:"at"`
}

// Loader reads the full content of a collection.
type Loader func(ctx context.Context) (interface{}, error)

// Hub keeps the collection loaders and the live subscriptions.
type Hub struct {
	log      *zap.Logger
	notifier Notifier

	mu      sync.RWMutex
	loaders map[string]Loader
	subs    map[uint64]*Subscription
	nextID  uint64
}

// NewHub returns a hub. A nil notifier keeps change announcements local to
// this process.
func NewHub(log *zap.Logger, notifier Notifier) *Hub {
	if notifier == nil {
		notifier = nopNotifier{}
	}
	return &Hub{
		log:      log,
		notifier: notifier,
		loaders:  make(map[string]Loader),
		subs:     make(map[uint64]*Subscription),
	}
}

// Register binds a loader to a collection path, replacing any previous one.
func (h *Hub) Register(path string, loader Loader) {
	h.mu.Lock()
	h.loaders[path] = loader
	h.mu.Unlock()
}

// Paths lists the registered collection paths in order.
func (h *Hub) Paths() []string {
	h.mu.RLock()
	defer h.mu.RUnlock()
	out := make([]string, 0, len(h.loaders))
	for p := range h.loaders {
		out = append(out, p)
	}
	sort.Strings(out)
	return out
}

// Read performs a one-off load of a collection.
func (h *Hub) Read(ctx context.Context, path string) (Snapshot, error) {
	h.mu.RLock()
	loader, ok := h.loaders[path]
	h.mu.RUnlock()
	if !ok {
		return Snapshot{}, ErrUnknownPath
	}
	data, err := loader(ctx)
	if err != nil {
		return Snapshot{}, err
	}
	return Snapshot{Path: path, Data: data, At: time.Now()}, nil
}

// Subscribe starts delivering snapshots of path to fn. fn runs on a goroutine
// owned by the subscription, one call at a time. The returned Subscription
// must be closed by the caller; cancelling ctx closes it as well.
func (h *Hub) Subscribe(ctx context.Context, path string, fn func(Snapshot)) (*Subscription, error) {
	h.mu.Lock()
	loader, ok := h.loaders[path]
	if !ok {
		h.mu.Unlock()
		return nil, ErrUnknownPath
	}
	h.nextID++
	subCtx, cancel := context.WithCancel(ctx)
	sub := &Subscription{
		id:      h.nextID,
		path:    path,
		hub:     h,
		loader:  loader,
		fn:      fn,
		ctx:     subCtx,
		cancel:  cancel,
		pending: make(chan struct{}, 1),
		done:    make(chan struct{}),
	}
	h.subs[sub.id] = sub
	h.mu.Unlock()

	sub.trigger()
	go sub.run()
	return sub, nil
}

// Touch announces a change under path to local subscribers and to other
// instances.
func (h *Hub) Touch(ctx context.Context, path string) {
	h.deliver(path)
	if err := h.notifier.Publish(ctx, path); err != nil {
		h.log.Warn("failed to publish change", zap.String("path", path), zap.Error(err))
	}
}

// TouchAll announces a change on every registered collection.
func (h *Hub) TouchAll(ctx context.Context) {
	for _, p := range h.Paths() {
		h.Touch(ctx, p)
	}
}

// Run relays changes announced by other instances until ctx is done.
func (h *Hub) Run(ctx context.Context) error {
	return h.notifier.Listen(ctx, h.deliver)
}

func (h *Hub) deliver(path string) {
	h.mu.RLock()
	defer h.mu.RUnlock()
	for _, sub := range h.subs {
		if related(sub.path, path) {
			sub.trigger()
		}
	}
}

func (h *Hub) remove(id uint64) {
	h.mu.Lock()
	delete(h.subs, id)
	h.mu.Unlock()
}

// related reports whether a change at b affects a subscription on a.
func related(a, b string) bool {
	if a == b || a == "/" || b == "/" {
		return true
	}
	return strings.HasPrefix(b, a+"/") || strings.HasPrefix(a, b+"/")
}

// Subscription is a live feed of one collection.
type Subscription struct {
	id     uint64
	path   string
	hub    *Hub
	loader Loader
	fn     func(Snapshot)

	ctx     context.Context
	cancel  context.CancelFunc
	pending chan struct{}
	done    chan struct{}
	once    sync.Once
}

// Path returns the subscribed collection path.
func (s *Subscription) Path() string { return s.path }

// Close stops deliveries and waits for an in-progress callback to return.
// It is safe to call more than once but must not be called from inside the
// subscription's own callback.
func (s *Subscription) Close() {
	s.once.Do(func() {
		s.cancel()
		s.hub.remove(s.id)
	})
	<-s.done
}

// Done is closed once the subscription has stopped.
func (s *Subscription) Done() <-chan struct{} { return s.done }

// trigger marks the subscription dirty. Pending reloads coalesce.
func (s *Subscription) trigger() {
	select {
	case s.pending <- struct{}{}:
	default:
	}
}

func (s *Subscription) run() {
	defer close(s.done)
	defer s.hub.remove(s.id)

	for {
		select {
		case <-s.ctx.Done():
			return
		case <-s.pending:
		}

		data, err := s.loader(s.ctx)
		if s.ctx.Err() != nil {
			return
		}
		if err != nil {
			s.hub.log.Warn("failed to load snapshot", zap.String("path", s.path), zap.Error(err))
			continue
		}
		s.fn(Snapshot{Path: s.path, Data: data, At: time.Now()})
	}
}
