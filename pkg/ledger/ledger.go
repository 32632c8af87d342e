// Package ledger keeps Tag.NoteCount consistent with note tag membership.
// It must run inside the same transaction as the note mutation it accompanies
// (bind the tags repository to the transaction); Rebuild is the idempotent
// recovery path when that is not possible.
package ledger

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/offnote/offnote/pkg/models"
	"github.com/offnote/offnote/pkg/store/tags"
)

// Ledger applies tag-count deltas derived from note mutations.
type Ledger struct {
	tags tags.Repository
	now  func() time.Time
}

func New(repo tags.Repository) *Ledger {
	return &Ledger{tags: repo, now: time.Now}
}

// Apply adjusts counts for a tag-set change from prev to next. A note
// creation passes prev=nil; a permanent deletion passes next=nil. Trashing a
// note is not a tag-set change and must not come through here.
func (l *Ledger) Apply(ctx context.Context, prev, next []string) error {
	prevSet := toSet(models.NormalizeTagSet(prev))
	nextSet := toSet(models.NormalizeTagSet(next))

	for name := range prevSet {
		if _, kept := nextSet[name]; !kept {
			if err := l.decrement(ctx, name); err != nil {
				return err
			}
		}
	}
	for name := range nextSet {
		if _, had := prevSet[name]; !had {
			if err := l.increment(ctx, name); err != nil {
				return err
			}
		}
	}
	return nil
}

// NoteCreated registers a new note's tags.
func (l *Ledger) NoteCreated(ctx context.Context, tagNames []string) error {
	return l.Apply(ctx, nil, tagNames)
}

// NoteDeleted unregisters a permanently deleted note's tags.
func (l *Ledger) NoteDeleted(ctx context.Context, tagNames []string) error {
	return l.Apply(ctx, tagNames, nil)
}

// Rebuild recomputes every tag count from the full note set, creating and
// deleting tag records as needed. Safe to run at any time; the sync engine
// runs it after a reconciliation bulk replace.
func (l *Ledger) Rebuild(ctx context.Context, notes []models.Note) error {
	counts := make(map[string]int)
	for _, n := range notes {
		for _, name := range models.NormalizeTagSet(n.Tags) {
			counts[name]++
		}
	}

	existing, err := l.tags.List(ctx)
	if err != nil {
		return fmt.Errorf("ledger rebuild: %w", err)
	}

	seen := make(map[string]struct{}, len(existing))
	for _, t := range existing {
		seen[t.Name] = struct{}{}
		count, used := counts[t.Name]
		switch {
		case !used:
			if err := l.tags.DeleteByID(ctx, t.ID); err != nil {
				return fmt.Errorf("ledger rebuild: %w", err)
			}
		case count != t.NoteCount:
			if err := l.tags.SetCount(ctx, t.ID, count); err != nil {
				return fmt.Errorf("ledger rebuild: %w", err)
			}
		}
	}

	for name, count := range counts {
		if _, ok := seen[name]; ok {
			continue
		}
		if err := l.create(ctx, name, count); err != nil {
			return err
		}
	}
	return nil
}

func (l *Ledger) increment(ctx context.Context, name string) error {
	t, err := l.tags.GetByName(ctx, name)
	if err != nil {
		return fmt.Errorf("ledger increment %q: %w", name, err)
	}
	if t == nil {
		return l.create(ctx, name, 1)
	}
	if err := l.tags.SetCount(ctx, t.ID, t.NoteCount+1); err != nil {
		return fmt.Errorf("ledger increment %q: %w", name, err)
	}
	return nil
}

func (l *Ledger) decrement(ctx context.Context, name string) error {
	t, err := l.tags.GetByName(ctx, name)
	if err != nil {
		return fmt.Errorf("ledger decrement %q: %w", name, err)
	}
	if t == nil {
		// Missing row; nothing to decrement. Rebuild repairs drift.
		return nil
	}
	if t.NoteCount <= 1 {
		if err := l.tags.DeleteByID(ctx, t.ID); err != nil {
			return fmt.Errorf("ledger decrement %q: %w", name, err)
		}
		return nil
	}
	if err := l.tags.SetCount(ctx, t.ID, t.NoteCount-1); err != nil {
		return fmt.Errorf("ledger decrement %q: %w", name, err)
	}
	return nil
}

func (l *Ledger) create(ctx context.Context, name string, count int) error {
	t := &models.Tag{
		ID:        uuid.NewString(),
		Name:      name,
		Color:     models.PickTagColor(name),
		NoteCount: count,
		CreatedAt: l.now().UTC(),
	}
	if err := l.tags.Insert(ctx, t); err != nil {
		return fmt.Errorf("ledger create %q: %w", name, err)
	}
	return nil
}

func toSet(names []string) map[string]struct{} {
	set := make(map[string]struct{}, len(names))
	for _, n := range names {
		set[n] = struct{}{}
	}
	return set
}
