package store

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/noah-isme/idea-board/internal/models"
	"github.com/noah-isme/idea-board/internal/observability"
	"github.com/noah-isme/idea-board/internal/repository"
)

// flushLocked writes the full state. It must run with s.mu held for writing. Every key is
// attempted even if an earlier one fails.
func (s *Store) flushLocked(ctx context.Context) error {
	if !s.hydrated {
		return nil
	}

	ideas := s.ideas
	if ideas == nil {
		ideas = []models.Idea{}
	}
	votes := s.votes
	if votes == nil {
		votes = models.VoteLedger{}
	}
	notifications := s.notifications
	if notifications == nil {
		notifications = []models.Notification{}
	}

	var errs []error
	for _, blob := range []struct {
		key   string
		value any
	}{
		{s.keys.Ideas, ideas},
		{s.keys.Votes, votes},
		{s.keys.Notifications, notifications},
	} {
		payload, err := json.Marshal(blob.value)
		if err != nil {
			errs = append(errs, fmt.Errorf("encode %s: %w", blob.key, err))
			continue
		}
		if err := s.repo.Set(ctx, blob.key, string(payload)); err != nil {
			reason := "write"
			if errors.Is(err, repository.ErrQuotaExceeded) {
				reason = "quota"
			}
			observability.PersistFailures().WithLabelValues(blob.key, reason).Inc()
			errs = append(errs, err)
		}
	}

	if len(errs) == 0 {
		return nil
	}

	err := errors.Join(errs...)
	s.logger.Warn().Err(err).Msg("board change kept in memory only; it may not survive a restart")
	return &PersistError{Err: err}
}

// Reset deletes the persisted board and returns the store to its seeded state.
func (s *Store) Reset(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	var errs []error
	for _, key := range s.keys.All() {
		if err := s.repo.Delete(ctx, key); err != nil {
			errs = append(errs, fmt.Errorf("delete %s: %w", key, err))
		}
	}
	s.resetLocked()

	if err := errors.Join(errs...); err != nil {
		return err
	}
	s.logger.Info().Msg("board state reset")
	return nil
}

func (s *Store) resetLocked() {
	s.ideas = cloneIdeas(s.seed)
	s.votes = models.VoteLedger{}
	s.notifications = []models.Notification{}
}
