package cti

import (
	"context"
	"maps"
)

// snapshot is the in-memory state of a record before a save touched it.
type snapshot struct {
	rec       *Record
	attrs     map[string]any
	changed   map[string]bool
	related   map[string]*Record
	persisted bool
}

// journal records the state of every record reachable from a save so a
// failed transaction can put them back.
type journal struct {
	entries []snapshot
	seen    map[*Record]bool
}

func newJournal() *journal {
	return &journal{seen: make(map[*Record]bool)}
}

// touch snapshots r and every record reachable from it.
func (j *journal) touch(r *Record) {
	if r == nil || j.seen[r] {
		return
	}
	j.seen[r] = true
	j.entries = append(j.entries, snapshot{
		rec:       r,
		attrs:     maps.Clone(r.attrs),
		changed:   maps.Clone(r.changed),
		related:   maps.Clone(r.related),
		persisted: r.persisted,
	})
	for _, t := range r.related {
		j.touch(t)
	}
}

func (j *journal) restore() {
	for i := len(j.entries) - 1; i >= 0; i-- {
		s := j.entries[i]
		s.rec.attrs = s.attrs
		s.rec.changed = s.changed
		s.rec.related = s.related
		s.rec.persisted = s.persisted
	}
	j.entries = nil
	j.seen = make(map[*Record]bool)
}

type journalKey struct{}

func withJournal(ctx context.Context, j *journal) context.Context {
	return context.WithValue(ctx, journalKey{}, j)
}

func journalFrom(ctx context.Context) (*journal, bool) {
	j, ok := ctx.Value(journalKey{}).(*journal)
	return j, ok
}
