package persist

import (
	"context"
	"sync"
	"time"

	"github.com/rkeshri04/CalPal/internal/logging"
	"github.com/rkeshri04/CalPal/internal/model"
	"github.com/rkeshri04/CalPal/internal/store"
)

const (
	saveTimeout = 30 * time.Second

	// After this many consecutive failed saves the saver escalates
	// from error logs to a visible data-loss warning.
	failureWarnThreshold = 3
)

// SnapshotWriter is the slice of the adapter the saver needs.
type SnapshotWriter interface {
	SaveLogs(ctx context.Context, entries []model.LogEntry) error
	SaveProfile(ctx context.Context, profile model.UserProfile) error
}

// Saver serializes all save traffic through a single writer. At most
// one save transaction is in flight; notifications arriving while one
// runs coalesce into exactly one follow-up save of the then-current
// snapshot. This closes the lost-update race between overlapping
// full-replace saves: the last snapshot taken is always the last one
// written.
type Saver struct {
	writer   SnapshotWriter
	snapshot func() store.Snapshot
	log      logging.Logger

	mu       sync.Mutex
	cond     *sync.Cond
	pending  bool
	running  bool
	failures int
	lastErr  error
}

// NewSaver builds a saver that persists snapshots taken from the given
// source, typically RecordStore.Snapshot.
func NewSaver(writer SnapshotWriter, snapshot func() store.Snapshot, log logging.Logger) *Saver {
	s := &Saver{writer: writer, snapshot: snapshot, log: log}
	s.cond = sync.NewCond(&s.mu)
	return s
}

// Notify schedules a save of the current snapshot. It never blocks and
// is safe to call from a store subscriber.
func (s *Saver) Notify() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.pending = true
	if !s.running {
		s.running = true
		go s.run()
	}
}

// Flush blocks until the saver is idle (no save in flight, none
// pending) or the context expires. It returns the error of the most
// recent save attempt, nil if it succeeded.
func (s *Saver) Flush(ctx context.Context) error {
	done := make(chan struct{})
	abandoned := false
	go func() {
		s.mu.Lock()
		for (s.running || s.pending) && !abandoned {
			s.cond.Wait()
		}
		s.mu.Unlock()
		close(done)
	}()
	select {
	case <-done:
		s.mu.Lock()
		defer s.mu.Unlock()
		return s.lastErr
	case <-ctx.Done():
		// Wake the watcher so it exits instead of waiting forever on
		// a wedged save.
		s.mu.Lock()
		abandoned = true
		s.cond.Broadcast()
		s.mu.Unlock()
		return ctx.Err()
	}
}

// Failures reports the number of consecutive failed saves since the
// last success.
func (s *Saver) Failures() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.failures
}

func (s *Saver) run() {
	for {
		s.mu.Lock()
		if !s.pending {
			s.running = false
			s.cond.Broadcast()
			s.mu.Unlock()
			return
		}
		s.pending = false
		s.mu.Unlock()

		snap := s.snapshot()
		ctx, cancel := context.WithTimeout(context.Background(), saveTimeout)
		err := s.save(ctx, snap)
		cancel()

		s.mu.Lock()
		if err != nil {
			s.failures++
			s.lastErr = err
			failures := s.failures
			s.mu.Unlock()
			s.log.Error(context.Background(), "save snapshot", "error", err, "consecutive_failures", failures)
			if failures >= failureWarnThreshold {
				s.log.Warn(context.Background(), "repeated save failures, recent data may not be saved", "consecutive_failures", failures)
			}
			continue
		}
		s.failures = 0
		s.lastErr = nil
		s.mu.Unlock()
	}
}

func (s *Saver) save(ctx context.Context, snap store.Snapshot) error {
	if err := s.writer.SaveLogs(ctx, snap.Entries); err != nil {
		return err
	}
	if snap.Profile != nil {
		return s.writer.SaveProfile(ctx, *snap.Profile)
	}
	return nil
}
