// Package syncer detects file changes in a store by polling listings.
// Change state lives in an explicit Cursor that callers pass in and keep.
package syncer

import (
	"context"
	"fmt"
	"sort"
	"time"

	"github.com/rs/zerolog/log"

	"github.com/andresuchdata/autopo-lab/internal/domain"
)

type ChangeKind string

const (
	ChangeCreated ChangeKind = "created"
	ChangeUpdated ChangeKind = "updated"
	ChangeDeleted ChangeKind = "deleted"
)

// FileChangeEvent describes one detected change. Meta is nil for deletions.
type FileChangeEvent struct {
	Kind ChangeKind           `json:"type"`
	Path string               `json:"path"`
	Meta *domain.FileMetadata `json:"metadata,omitempty"`
}

// Cursor is the state a poll starts from. The zero Cursor reports every
// listed file as created.
type Cursor struct {
	Seen  map[string]time.Time `json:"seen"`
	Taken time.Time            `json:"taken"`
}

func (c Cursor) IsZero() bool {
	return c.Taken.IsZero() && len(c.Seen) == 0
}

// Strategy computes the changes since cursor and the cursor to use next.
// On error the returned cursor equals the input.
type Strategy interface {
	Changes(ctx context.Context, cursor Cursor) ([]FileChangeEvent, Cursor, error)
}

// Lister is the listing half of a file store.
type Lister interface {
	Search(ctx context.Context, criteria domain.SearchCriteria) ([]domain.FileMetadata, error)
}

// PollingStrategy compares folder listings against the cursor.
type PollingStrategy struct {
	store   Lister
	folders []string
	now     func() time.Time
}

func NewPollingStrategy(store Lister, folders ...string) *PollingStrategy {
	return &PollingStrategy{store: store, folders: folders, now: time.Now}
}

func (p *PollingStrategy) Changes(ctx context.Context, cursor Cursor) ([]FileChangeEvent, Cursor, error) {
	current := make(map[string]domain.FileMetadata)
	for _, folder := range p.folders {
		files, err := p.store.Search(ctx, domain.SearchCriteria{Path: folder})
		if err != nil {
			return nil, cursor, fmt.Errorf("list %s: %w", folder, err)
		}
		for _, f := range files {
			if f.IsFolder {
				continue
			}
			current[f.Path] = f
		}
	}

	var events []FileChangeEvent
	next := Cursor{Seen: make(map[string]time.Time, len(current)), Taken: p.now().UTC()}
	for path, meta := range current {
		next.Seen[path] = meta.ModifiedTime
		seen, ok := cursor.Seen[path]
		switch {
		case !ok:
			events = append(events, FileChangeEvent{Kind: ChangeCreated, Path: path, Meta: copyMeta(meta)})
		case !seen.Equal(meta.ModifiedTime):
			events = append(events, FileChangeEvent{Kind: ChangeUpdated, Path: path, Meta: copyMeta(meta)})
		}
	}
	for path := range cursor.Seen {
		if _, ok := current[path]; !ok {
			events = append(events, FileChangeEvent{Kind: ChangeDeleted, Path: path})
		}
	}

	sort.Slice(events, func(i, j int) bool { return events[i].Path < events[j].Path })
	return events, next, nil
}

func copyMeta(m domain.FileMetadata) *domain.FileMetadata {
	return &m
}

// Watch polls strategy every interval starting from cursor and publishes
// every event. The channel is closed once ctx is done. Poll errors are
// logged and the cursor is kept.
func Watch(ctx context.Context, strategy Strategy, interval time.Duration, cursor Cursor) <-chan FileChangeEvent {
	out := make(chan FileChangeEvent)

	go func() {
		defer close(out)

		ticker := time.NewTicker(interval)
		defer ticker.Stop()

		for {
			events, next, err := strategy.Changes(ctx, cursor)
			if err != nil {
				if ctx.Err() != nil {
					return
				}
				log.Warn().Err(err).Msg("sync poll failed")
			} else {
				cursor = next
				if len(events) > 0 {
					log.Info().Int("changes", len(events)).Msg("sync detected changes")
				}
				for _, ev := range events {
					select {
					case out <- ev:
					case <-ctx.Done():
						return
					}
				}
			}

			select {
			case <-ticker.C:
			case <-ctx.Done():
				return
			}
		}
	}()

	return out
}
