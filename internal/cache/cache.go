// Package cache keeps per-user relationship counters close to the API so
// listings do not recount the graphs for every row.
package cache

import (
	"context"

	"github.com/google/uuid"
)

// Stats are the aggregate counters shown next to a user.
type Stats struct {
	Friends   int64 `json:"friends"`
	Followers int64 `json:"followers"`
	Following int64 `json:"following"`
}

// StatsCache stores Stats by user. Implementations must treat a miss and an
// error the same way from the caller's point of view: the caller recounts.
//
// Every user has a generation that Invalidate advances. A recount reads the
// generations before counting and passes them to SetMany, which skips any
// user whose generation moved in between, so a count that raced a mutation
// is never stored.
type StatsCache interface {
	GetMany(ctx context.Context, ids []uuid.UUID) (map[uuid.UUID]Stats, error)
	Generations(ctx context.Context, ids []uuid.UUID) (map[uuid.UUID]int64, error)
	SetMany(ctx context.Context, stats map[uuid.UUID]Stats, generations map[uuid.UUID]int64) error
	Invalidate(ctx context.Context, ids ...uuid.UUID) error
}

// Nop never stores anything.
type Nop struct{}

func (Nop) GetMany(context.Context, []uuid.UUID) (map[uuid.UUID]Stats, error) {
	return map[uuid.UUID]Stats{}, nil
}

func (Nop) Generations(context.Context, []uuid.UUID) (map[uuid.UUID]int64, error) {
	return map[uuid.UUID]int64{}, nil
}

func (Nop) SetMany(context.Context, map[uuid.UUID]Stats, map[uuid.UUID]int64) error { return nil }

func (Nop) Invalidate(context.Context, ...uuid.UUID) error { return nil }
