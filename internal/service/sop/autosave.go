package sop

import (
	"context"
	"log/slog"
	"sync"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var autosaveFlushesTotal = promauto.NewCounterVec(prometheus.CounterOpts{
	Name: "rxops_sop_autosave_flushes_total",
	Help: "Autosave writes, by trigger (timer, flush, close)",
}, []string{"trigger"})

// PersistFunc writes a node's staged rich content to the store.
type PersistFunc func(ctx context.Context, nodeID, richContent string) error

type pendingEdit struct {
	content string
	timer   *time.Timer
}

// AutosaveScheduler debounces rich-content writes: each node has a single
// pending slot, and scheduling a new edit cancels the prior timer, so a
// rapid editing burst produces exactly one persisted write per quiet
// period. Navigation away from a node flushes the pending edit rather than
// discarding it.
type AutosaveScheduler struct {
	mu      sync.Mutex
	pending map[string]*pendingEdit
	delay   time.Duration
	persist PersistFunc
	logger  *slog.Logger
	closed  bool
}

// NewAutosaveScheduler creates a scheduler with the given quiet period.
func NewAutosaveScheduler(delay time.Duration, persist PersistFunc, logger *slog.Logger) *AutosaveScheduler {
	return &AutosaveScheduler{
		pending: make(map[string]*pendingEdit),
		delay:   delay,
		persist: persist,
		logger:  logger,
	}
}

// Schedule stages content for a node and (re)starts its timer. The prior
// pending edit for the same node, if any, is superseded atomically.
func (s *AutosaveScheduler) Schedule(nodeID, content string) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.closed {
		return
	}

	if prev, ok := s.pending[nodeID]; ok {
		prev.timer.Stop()
	}

	edit := &pendingEdit{content: content}
	edit.timer = time.AfterFunc(s.delay, func() {
		s.fire(nodeID, edit)
	})
	s.pending[nodeID] = edit
}

// fire runs when a node's timer elapses without further edits.
func (s *AutosaveScheduler) fire(nodeID string, edit *pendingEdit) {
	s.mu.Lock()
	// A later Schedule may have replaced this edit after the timer fired
	// but before we took the lock; the newer timer owns the write then.
	if s.pending[nodeID] != edit {
		s.mu.Unlock()
		return
	}
	delete(s.pending, nodeID)
	s.mu.Unlock()

	s.write(context.Background(), nodeID, edit.content, "timer")
}

// Flush persists the node's pending edit immediately, if any. Returns the
// persist error so navigation can surface a failed save.
func (s *AutosaveScheduler) Flush(ctx context.Context, nodeID string) error {
	s.mu.Lock()
	edit, ok := s.pending[nodeID]
	if ok {
		edit.timer.Stop()
		delete(s.pending, nodeID)
	}
	s.mu.Unlock()

	if !ok {
		return nil
	}
	return s.write(ctx, nodeID, edit.content, "flush")
}

// Cancel drops the node's pending edit without persisting. Used by the
// explicit discard path only; plain navigation flushes instead.
func (s *AutosaveScheduler) Cancel(nodeID string) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if edit, ok := s.pending[nodeID]; ok {
		edit.timer.Stop()
		delete(s.pending, nodeID)
	}
}

// Pending reports whether a node has a staged edit (test helper).
func (s *AutosaveScheduler) Pending(nodeID string) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	_, ok := s.pending[nodeID]
	return ok
}

// Close flushes every pending edit and rejects further scheduling.
func (s *AutosaveScheduler) Close(ctx context.Context) {
	s.mu.Lock()
	s.closed = true
	edits := make(map[string]string, len(s.pending))
	for nodeID, edit := range s.pending {
		edit.timer.Stop()
		edits[nodeID] = edit.content
	}
	s.pending = make(map[string]*pendingEdit)
	s.mu.Unlock()

	for nodeID, content := range edits {
		s.write(ctx, nodeID, content, "close")
	}
}

func (s *AutosaveScheduler) write(ctx context.Context, nodeID, content, trigger string) error {
	if err := s.persist(ctx, nodeID, content); err != nil {
		s.logger.Error("autosave persist failed",
			"node_id", nodeID,
			"trigger", trigger,
			"error", err,
		)
		return err
	}
	autosaveFlushesTotal.WithLabelValues(trigger).Inc()
	return nil
}
