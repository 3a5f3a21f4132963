package syncer

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/andresuchdata/autopo-lab/internal/domain"
)

type fakeLister struct {
	mu    sync.Mutex
	files map[string][]domain.FileMetadata
	err   error
}

func (f *fakeLister) Search(_ context.Context, c domain.SearchCriteria) ([]domain.FileMetadata, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.err != nil {
		return nil, f.err
	}
	return append([]domain.FileMetadata(nil), f.files[c.Path]...), nil
}

func (f *fakeLister) set(folder string, files ...domain.FileMetadata) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.files[folder] = files
}

func file(p string, mod time.Time) domain.FileMetadata {
	return domain.FileMetadata{Name: p, Path: p, ModifiedTime: mod}
}

func kinds(events []FileChangeEvent) map[string]ChangeKind {
	out := make(map[string]ChangeKind, len(events))
	for _, e := range events {
		out[e.Path] = e.Kind
	}
	return out
}

func TestPollingStrategyChanges(t *testing.T) {
	ctx := context.Background()
	t0 := time.Date(2024, 3, 5, 8, 0, 0, 0, time.UTC)
	lister := &fakeLister{files: map[string][]domain.FileMetadata{}}
	strategy := NewPollingStrategy(lister, "MasterData", "CurrentInventory")

	lister.set("MasterData", file("MasterData/Master_Data.xlsx", t0))
	lister.set("CurrentInventory", file("CurrentInventory/Inventory.xlsx", t0), domain.FileMetadata{Path: "CurrentInventory/old", IsFolder: true})

	events, cursor, err := strategy.Changes(ctx, Cursor{})
	if err != nil {
		t.Fatalf("Changes: %v", err)
	}
	got := kinds(events)
	if len(got) != 2 || got["MasterData/Master_Data.xlsx"] != ChangeCreated || got["CurrentInventory/Inventory.xlsx"] != ChangeCreated {
		t.Fatalf("initial events = %+v", events)
	}
	if events[0].Path != "CurrentInventory/Inventory.xlsx" {
		t.Fatalf("events not sorted by path: %+v", events)
	}

	events, cursor, err = strategy.Changes(ctx, cursor)
	if err != nil {
		t.Fatalf("Changes: %v", err)
	}
	if len(events) != 0 {
		t.Fatalf("expected no changes, got %+v", events)
	}

	lister.set("MasterData", file("MasterData/Master_Data.xlsx", t0.Add(time.Hour)), file("MasterData/Extra.xlsx", t0))
	lister.set("CurrentInventory")

	events, _, err = strategy.Changes(ctx, cursor)
	if err != nil {
		t.Fatalf("Changes: %v", err)
	}
	got = kinds(events)
	want := map[string]ChangeKind{
		"MasterData/Master_Data.xlsx":     ChangeUpdated,
		"MasterData/Extra.xlsx":           ChangeCreated,
		"CurrentInventory/Inventory.xlsx": ChangeDeleted,
	}
	if len(got) != len(want) {
		t.Fatalf("events = %+v", events)
	}
	for p, k := range want {
		if got[p] != k {
			t.Errorf("%s: kind = %q, want %q", p, got[p], k)
		}
	}
	for _, e := range events {
		if e.Kind == ChangeDeleted && e.Meta != nil {
			t.Errorf("deleted event carries metadata: %+v", e)
		}
		if e.Kind != ChangeDeleted && e.Meta == nil {
			t.Errorf("event without metadata: %+v", e)
		}
	}
}

func TestPollingStrategyErrorKeepsCursor(t *testing.T) {
	lister := &fakeLister{err: errors.New("boom")}
	strategy := NewPollingStrategy(lister, "MasterData")

	in := Cursor{Seen: map[string]time.Time{"a": time.Unix(1, 0)}, Taken: time.Unix(2, 0)}
	events, out, err := strategy.Changes(context.Background(), in)
	if err == nil {
		t.Fatal("expected error")
	}
	if events != nil {
		t.Fatalf("events = %+v", events)
	}
	if !out.Taken.Equal(in.Taken) || len(out.Seen) != 1 {
		t.Fatalf("cursor changed on error: %+v", out)
	}
}

func TestCursorIsZero(t *testing.T) {
	if !(Cursor{}).IsZero() {
		t.Error("zero cursor should be zero")
	}
	if (Cursor{Taken: time.Now()}).IsZero() {
		t.Error("taken cursor should not be zero")
	}
}

func TestWatch(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	t0 := time.Date(2024, 3, 5, 8, 0, 0, 0, time.UTC)
	lister := &fakeLister{files: map[string][]domain.FileMetadata{
		"PurchaseOrders": {file("PurchaseOrders/PO-20240305.xlsx", t0)},
	}}
	events := Watch(ctx, NewPollingStrategy(lister, "PurchaseOrders"), 10*time.Millisecond, Cursor{})

	select {
	case ev := <-events:
		if ev.Kind != ChangeCreated || ev.Path != "PurchaseOrders/PO-20240305.xlsx" {
			t.Fatalf("event = %+v", ev)
		}
	case <-time.After(2 * time.Second):
		t.Fatal("timed out waiting for first event")
	}

	lister.set("PurchaseOrders", file("PurchaseOrders/PO-20240305.xlsx", t0.Add(time.Minute)))

	select {
	case ev := <-events:
		if ev.Kind != ChangeUpdated {
			t.Fatalf("event = %+v", ev)
		}
	case <-time.After(2 * time.Second):
		t.Fatal("timed out waiting for update event")
	}

	cancel()
	for range events {
	}
}
