// Package pipeline holds the client-side state of the opportunity pipeline
// board: a snapshot of every opportunity grouped by status, moved between
// columns optimistically and resynchronised from the store when a move fails.
package pipeline

import (
	"context"
	"errors"
	"fmt"
	"slices"
	"sync"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/ekaya-inc/ekaya-crm/pkg/apperrors"
	"github.com/ekaya-inc/ekaya-crm/pkg/clock"
	"github.com/ekaya-inc/ekaya-crm/pkg/metrics"
	"github.com/ekaya-inc/ekaya-crm/pkg/models"
	"github.com/ekaya-inc/ekaya-crm/pkg/rules"
)

// ErrClosed is returned by operations on a closed board.
var ErrClosed = errors.New("pipeline board closed")

// Source loads and persists opportunities for the board.
// services.OpportunityService satisfies it.
type Source interface {
	List(ctx context.Context, q rules.OpportunityQuery) ([]models.Opportunity, error)
	ChangeStatus(ctx context.Context, id uuid.UUID, status models.OpportunityStatus) (*models.Opportunity, error)
}

// MoveRecorder counts move outcomes. *metrics.Metrics satisfies it.
type MoveRecorder interface {
	RecordMove(result string)
}

// Board is safe for concurrent use.
type Board struct {
	source   Source
	clock    clock.Clock
	recorder MoveRecorder
	logger   *zap.Logger

	mu         sync.Mutex
	opps       []models.Opportunity
	generation uint64
	closed     bool
}

// NewBoard returns an empty board. Call Load to populate it. recorder may be nil.
func NewBoard(source Source, clk clock.Clock, recorder MoveRecorder, logger *zap.Logger) *Board {
	return &Board{
		source:   source,
		clock:    clk,
		recorder: recorder,
		logger:   logger.Named("pipeline-board"),
	}
}

// Load replaces the snapshot with a fresh copy of every opportunity. A result
// that arrives after Close, or after a newer Load started, is discarded and
// reported as nil.
func (b *Board) Load(ctx context.Context) error {
	b.mu.Lock()
	if b.closed {
		b.mu.Unlock()
		return ErrClosed
	}
	b.generation++
	gen := b.generation
	b.mu.Unlock()

	opps, err := b.source.List(ctx, rules.OpportunityQuery{})

	b.mu.Lock()
	defer b.mu.Unlock()
	if b.closed || gen != b.generation {
		b.logger.Debug("Discarding stale pipeline load", zap.Uint64("generation", gen))
		return nil
	}
	if err != nil {
		return fmt.Errorf("failed to load pipeline: %w", err)
	}
	b.opps = opps
	return nil
}

// Move puts opportunity id in the status column. The snapshot changes before
// the write is issued. If the write fails the whole snapshot is reloaded and
// the write error is returned. Moving a card to the column it is already in
// issues no write.
func (b *Board) Move(ctx context.Context, id uuid.UUID, status models.OpportunityStatus) error {
	if !status.IsValid() {
		return apperrors.NewValidationError("status", "unknown status")
	}

	b.mu.Lock()
	if b.closed {
		b.mu.Unlock()
		return ErrClosed
	}
	i := b.indexOf(id)
	if i < 0 {
		b.mu.Unlock()
		return fmt.Errorf("opportunity %s: %w", id, apperrors.ErrNotFound)
	}
	if b.opps[i].Status == status {
		b.mu.Unlock()
		b.record(metrics.MoveNoop)
		return nil
	}
	rules.StatusTransition(status, b.clock.Today()).Apply(&b.opps[i])
	b.mu.Unlock()

	saved, err := b.source.ChangeStatus(ctx, id, status)
	if err != nil {
		b.record(metrics.MoveFailed)
		b.logger.Warn("Pipeline move failed, reloading",
			zap.String("opportunity_id", id.String()),
			zap.String("status", string(status)),
			zap.Error(err))
		if loadErr := b.Load(ctx); loadErr != nil {
			b.logger.Error("Failed to reload pipeline after failed move", zap.Error(loadErr))
		}
		return err
	}

	b.mu.Lock()
	if j := b.indexOf(id); j >= 0 && saved != nil {
		b.opps[j] = *saved
	}
	b.mu.Unlock()

	b.record(metrics.MoveApplied)
	return nil
}

// Columns groups the current snapshot into the six status columns.
func (b *Board) Columns() []rules.PipelineColumn {
	b.mu.Lock()
	defer b.mu.Unlock()
	return rules.GroupPipeline(b.opps)
}

// Opportunities returns a copy of the current snapshot.
func (b *Board) Opportunities() []models.Opportunity {
	b.mu.Lock()
	defer b.mu.Unlock()
	return slices.Clone(b.opps)
}

// Close marks the board closed. Loads still in flight are discarded.
func (b *Board) Close() {
	b.mu.Lock()
	b.closed = true
	b.mu.Unlock()
}

func (b *Board) indexOf(id uuid.UUID) int {
	return slices.IndexFunc(b.opps, func(o models.Opportunity) bool { return o.ID == id })
}

func (b *Board) record(result string) {
	if b.recorder != nil {
		b.recorder.RecordMove(result)
	}
}
