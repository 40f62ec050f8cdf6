package persist_test

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/rkeshri04/CalPal/internal/logging"
	"github.com/rkeshri04/CalPal/internal/model"
	"github.com/rkeshri04/CalPal/internal/persist"
	"github.com/rkeshri04/CalPal/internal/store"
)

func TestSaverPersistsFinalSnapshot(t *testing.T) {
	t.Parallel()
	sqldb := newTestDB(t)
	defer sqldb.Close()
	adapter := persist.NewAdapter(sqldb)

	s := store.New()
	saver := persist.NewSaver(adapter, s.Snapshot, logging.Discard())
	s.Subscribe(saver.Notify)

	require.NoError(t, s.Add(model.LogEntry{ID: "1", Name: "Apple", Cost: 0.5, Weight: 150, Date: "2024-01-01T00:00:00Z"}))
	require.NoError(t, s.Add(model.LogEntry{ID: "2", Name: "Banana", Cost: 0.3, Weight: 120, Date: "2024-01-02T00:00:00Z"}))
	require.NoError(t, s.Remove("1"))

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	require.NoError(t, saver.Flush(ctx))

	got, err := adapter.LoadLogs(context.Background())
	require.NoError(t, err)
	require.Len(t, got, 1)
	assert.Equal(t, "2", got[0].ID)
}

func TestSaverCoalescesBurstsIntoSerializedSaves(t *testing.T) {
	t.Parallel()

	w := &recordingWriter{release: make(chan struct{})}
	s := store.New()
	saver := persist.NewSaver(w, s.Snapshot, logging.Discard())
	s.Subscribe(saver.Notify)

	// First mutation starts a save that blocks inside the writer.
	require.NoError(t, s.Add(model.LogEntry{ID: "1", Name: "Apple", Date: "2024-01-01T00:00:00Z"}))
	w.waitForInFlight(t)

	// A burst of mutations while the first save is in flight must
	// coalesce into exactly one follow-up save of the final state.
	for _, e := range []model.LogEntry{
		{ID: "2", Name: "Banana", Date: "2024-01-02T00:00:00Z"},
		{ID: "3", Name: "Cherry", Date: "2024-01-03T00:00:00Z"},
		{ID: "4", Name: "Date", Date: "2024-01-04T00:00:00Z"},
	} {
		require.NoError(t, s.Add(e))
	}
	close(w.release)

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	require.NoError(t, saver.Flush(ctx))

	assert.Equal(t, 2, w.saveCount())
	last := w.lastSaved()
	require.Len(t, last, 4)
	assert.Equal(t, "4", last[0].ID)

	// One writer at a time, always.
	assert.Equal(t, 1, w.maxConcurrent())
}

func TestSaverKeepsStoreIntactOnWriteFailure(t *testing.T) {
	t.Parallel()

	w := &failingWriter{failures: 1}
	s := store.New()
	saver := persist.NewSaver(w, s.Snapshot, logging.Discard())
	s.Subscribe(saver.Notify)

	require.NoError(t, s.Add(model.LogEntry{ID: "1", Name: "Apple", Date: "2024-01-01T00:00:00Z"}))

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	err := saver.Flush(ctx)
	var writeErr *persist.WriteError
	require.ErrorAs(t, err, &writeErr)
	assert.Equal(t, 1, saver.Failures())
	assert.Equal(t, 1, s.Len())

	// The next mutation triggers a full-replace save that reconciles
	// durable state without any explicit retry of the failed one.
	require.NoError(t, s.Add(model.LogEntry{ID: "2", Name: "Banana", Date: "2024-01-02T00:00:00Z"}))
	require.NoError(t, saver.Flush(ctx))
	assert.Equal(t, 0, saver.Failures())
	require.Len(t, w.lastSaved(), 2)
}

func TestFlushHonorsContextWhileSaveIsWedged(t *testing.T) {
	t.Parallel()

	w := &recordingWriter{release: make(chan struct{})}
	s := store.New()
	saver := persist.NewSaver(w, s.Snapshot, logging.Discard())
	s.Subscribe(saver.Notify)

	require.NoError(t, s.Add(model.LogEntry{ID: "1", Name: "Apple", Date: "2024-01-01T00:00:00Z"}))
	w.waitForInFlight(t)

	// The save is stuck inside the writer; Flush must give up when its
	// context expires rather than hang.
	ctx, cancel := context.WithTimeout(context.Background(), 50*time.Millisecond)
	defer cancel()
	require.ErrorIs(t, saver.Flush(ctx), context.DeadlineExceeded)

	// Once the writer is released the saver drains normally.
	close(w.release)
	ctx2, cancel2 := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel2()
	require.NoError(t, saver.Flush(ctx2))
	assert.Equal(t, 1, w.saveCount())
}

// recordingWriter blocks its first save until released and records
// every snapshot it is asked to write.
type recordingWriter struct {
	mu         sync.Mutex
	saves      [][]model.LogEntry
	inFlight   int
	maxSeen    int
	first      bool
	release    chan struct{}
	inFlightCh chan struct{}
}

func (w *recordingWriter) SaveLogs(ctx context.Context, entries []model.LogEntry) error {
	w.mu.Lock()
	w.inFlight++
	if w.inFlight > w.maxSeen {
		w.maxSeen = w.inFlight
	}
	firstSave := !w.first
	w.first = true
	if firstSave && w.inFlightCh != nil {
		close(w.inFlightCh)
		w.inFlightCh = nil
	}
	w.mu.Unlock()

	if firstSave {
		<-w.release
	}

	w.mu.Lock()
	saved := make([]model.LogEntry, len(entries))
	copy(saved, entries)
	w.saves = append(w.saves, saved)
	w.inFlight--
	w.mu.Unlock()
	return nil
}

func (w *recordingWriter) SaveProfile(ctx context.Context, profile model.UserProfile) error {
	return nil
}

func (w *recordingWriter) waitForInFlight(t *testing.T) {
	t.Helper()
	w.mu.Lock()
	if w.first {
		w.mu.Unlock()
		return
	}
	ch := make(chan struct{})
	w.inFlightCh = ch
	w.mu.Unlock()
	select {
	case <-ch:
	case <-time.After(5 * time.Second):
		t.Fatalf("first save never started")
	}
}

func (w *recordingWriter) saveCount() int {
	w.mu.Lock()
	defer w.mu.Unlock()
	return len(w.saves)
}

func (w *recordingWriter) lastSaved() []model.LogEntry {
	w.mu.Lock()
	defer w.mu.Unlock()
	if len(w.saves) == 0 {
		return nil
	}
	return w.saves[len(w.saves)-1]
}

func (w *recordingWriter) maxConcurrent() int {
	w.mu.Lock()
	defer w.mu.Unlock()
	return w.maxSeen
}

// failingWriter fails the first n saves, then records the rest.
type failingWriter struct {
	mu       sync.Mutex
	failures int
	saves    [][]model.LogEntry
}

func (w *failingWriter) SaveLogs(ctx context.Context, entries []model.LogEntry) error {
	w.mu.Lock()
	defer w.mu.Unlock()
	if w.failures > 0 {
		w.failures--
		return &persist.WriteError{Op: "commit logs tx", Err: errors.New("disk unavailable")}
	}
	saved := make([]model.LogEntry, len(entries))
	copy(saved, entries)
	w.saves = append(w.saves, saved)
	return nil
}

func (w *failingWriter) SaveProfile(ctx context.Context, profile model.UserProfile) error {
	return nil
}

func (w *failingWriter) lastSaved() []model.LogEntry {
	w.mu.Lock()
	defer w.mu.Unlock()
	if len(w.saves) == 0 {
		return nil
	}
	return w.saves[len(w.saves)-1]
}
