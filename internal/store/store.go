// Package store owns the board state: ideas with their comments and engagement, the per-actor
// vote ledger, and the owner's notification feed. Every mutation is applied in memory under a
// single lock and then flushed as three JSON blobs to a BlobRepository.
package store

import (
	"errors"
	"fmt"
	"sync"

	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"github.com/noah-isme/idea-board/internal/models"
	"github.com/noah-isme/idea-board/internal/repository"
)

var (
	// ErrIdeaNotFound is returned when no idea carries the requested id.
	ErrIdeaNotFound = errors.New("idea not found")
	// ErrCommentNotFound is returned when the idea exists but the comment does not.
	ErrCommentNotFound = errors.New("comment not found")
	// ErrUnsupportedEngagement is returned for operations outside the store's engagement mode.
	ErrUnsupportedEngagement = errors.New("operation not supported by engagement mode")
)

// Mode selects the engagement model of a store. A store never mixes modes.
type Mode string

const (
	// ModeRating records one 1-5 star rating per actor and idea.
	ModeRating Mode = "rating"
	// ModeVotes records one like or dislike per actor and idea.
	ModeVotes Mode = "votes"
)

// ParseMode validates a configured engagement mode.
func ParseMode(raw string) (Mode, error) {
	switch Mode(raw) {
	case ModeRating, ModeVotes:
		return Mode(raw), nil
	case "":
		return ModeRating, nil
	default:
		return "", fmt.Errorf("unknown engagement mode %q", raw)
	}
}

// Actor identifies who performs an operation.
type Actor struct {
	ID     string
	Name   string
	Handle string
}

// PersistError reports that a mutation was applied in memory but could not be written to storage.
type PersistError struct {
	Err error
}

func (e *PersistError) Error() string {
	return "change applied but not persisted: " + e.Err.Error()
}

func (e *PersistError) Unwrap() error {
	return e.Err
}

// IsPersistFailure reports whether err only signals a failed write of otherwise applied state.
func IsPersistFailure(err error) bool {
	var persistErr *PersistError
	return errors.As(err, &persistErr)
}

// Mutation is the outcome of an engagement change.
type Mutation struct {
	Idea          models.Idea
	Comment       *models.Comment
	Notifications []models.Notification
}

// State is a deep copy of everything the store persists.
type State struct {
	Ideas         []models.Idea
	Votes         models.VoteLedger
	Notifications []models.Notification
}

// Keys names the three storage keys.
type Keys struct {
	Ideas         string
	Votes         string
	Notifications string
}

// KeysWithPrefix derives the storage keys from a prefix such as "board".
func KeysWithPrefix(prefix string) Keys {
	if prefix == "" {
		prefix = "board"
	}
	return Keys{
		Ideas:         prefix + ":ideas",
		Votes:         prefix + ":votes",
		Notifications: prefix + ":notifications",
	}
}

// All lists the keys in write order.
func (k Keys) All() []string {
	return []string{k.Ideas, k.Votes, k.Notifications}
}

// Option customises a Store.
type Option func(*Store)

// WithLogger sets the store logger.
func WithLogger(logger zerolog.Logger) Option {
	return func(s *Store) {
		s.logger = logger.With().Str("component", "engagement_store").Logger()
	}
}

// WithMode sets the engagement mode.
func WithMode(mode Mode) Option {
	return func(s *Store) { s.mode = mode }
}

// WithOwner sets the actor whose ideas raise notifications.
func WithOwner(ownerID string) Option {
	return func(s *Store) { s.ownerID = ownerID }
}

// WithKeys overrides the storage keys.
func WithKeys(keys Keys) Option {
	return func(s *Store) { s.keys = keys }
}

// WithSeed sets the ideas used when no idea collection can be loaded.
func WithSeed(ideas ...models.Idea) Option {
	return func(s *Store) {
		s.seed = make([]models.Idea, 0, len(ideas))
		for _, idea := range ideas {
			s.seed = append(s.seed, normalizeIdea(idea))
		}
	}
}

// WithIDGenerator replaces the id source.
func WithIDGenerator(next func() string) Option {
	return func(s *Store) { s.newID = next }
}

// Store is the engagement store.
type Store struct {
	mu sync.RWMutex

	repo    repository.BlobRepository
	keys    Keys
	mode    Mode
	ownerID string
	seed    []models.Idea
	newID   func() string
	logger  zerolog.Logger

	ideas         []models.Idea
	votes         models.VoteLedger
	notifications []models.Notification
	hydrated      bool
}

// New builds a store in its pre-hydration state. Mutations before Hydrate are kept in memory only.
func New(repo repository.BlobRepository, opts ...Option) *Store {
	s := &Store{
		repo:   repo,
		keys:   KeysWithPrefix("board"),
		mode:   ModeRating,
		newID:  uuid.NewString,
		logger: zerolog.Nop(),
	}
	for _, opt := range opts {
		opt(s)
	}

	s.resetLocked()
	return s
}

// Mode returns the engagement mode.
func (s *Store) Mode() Mode {
	return s.mode
}

// OwnerID returns the actor id whose ideas raise notifications.
func (s *Store) OwnerID() string {
	return s.ownerID
}

// Hydrated reports whether the initial load has completed.
func (s *Store) Hydrated() bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.hydrated
}

// Ideas returns the collection, newest first.
func (s *Store) Ideas() []models.Idea {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return cloneIdeas(s.ideas)
}

// GetIdea returns the idea with the given id.
func (s *Store) GetIdea(id string) (models.Idea, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	idx := s.indexOf(id)
	if idx < 0 {
		return models.Idea{}, ErrIdeaNotFound
	}
	return s.ideas[idx].Clone(), nil
}

// Ledger returns what the actor has contributed so far.
func (s *Store) Ledger(actorID string) models.ActorVotes {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.votes[actorID].Clone()
}

// Notifications returns the feed, newest first.
func (s *Store) Notifications() []models.Notification {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return append([]models.Notification(nil), s.notifications...)
}

// UnreadCount counts notifications not yet marked read.
func (s *Store) UnreadCount() int {
	s.mu.RLock()
	defer s.mu.RUnlock()

	unread := 0
	for _, notification := range s.notifications {
		if !notification.Read {
			unread++
		}
	}
	return unread
}

// Snapshot returns a deep copy of the persisted state.
func (s *Store) Snapshot() State {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return State{
		Ideas:         cloneIdeas(s.ideas),
		Votes:         s.votes.Clone(),
		Notifications: append([]models.Notification(nil), s.notifications...),
	}
}

func (s *Store) indexOf(id string) int {
	for idx := range s.ideas {
		if s.ideas[idx].ID == id {
			return idx
		}
	}
	return -1
}

func (s *Store) isOwned(idea models.Idea) bool {
	return s.ownerID != "" && idea.AuthorID == s.ownerID
}

func (s *Store) isOwnedByOther(idea models.Idea, actor Actor) bool {
	return s.isOwned(idea) && actor.ID != s.ownerID
}

func cloneIdeas(ideas []models.Idea) []models.Idea {
	out := make([]models.Idea, 0, len(ideas))
	for _, idea := range ideas {
		out = append(out, idea.Clone())
	}
	return out
}

func normalizeIdea(idea models.Idea) models.Idea {
	out := idea.Clone()
	if out.Comments == nil {
		out.Comments = []models.Comment{}
	}
	if len(out.Images) == 0 {
		out.Images = nil
	}
	if len(out.Ratings) == 0 {
		out.Ratings = nil
	}
	return out
}
