// Package comments owns the in-memory comment board. Every mutation writes
// the whole collection back through a store.Store.
package comments

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"strings"
	"sync"
	"time"
	"unicode/utf8"

	"github.com/sirupsen/logrus"

	"github.com/alphabot-ai/commentwall/internal/identity"
	"github.com/alphabot-ai/commentwall/internal/metrics"
	"github.com/alphabot-ai/commentwall/internal/store"
)

// MaxTextLength is the longest accepted comment, in characters, after trimming.
const MaxTextLength = 1000

var (
	ErrValidation          = errors.New("invalid comment")
	ErrEmptyText           = fmt.Errorf("%w: comment text cannot be empty", ErrValidation)
	ErrTextTooLong         = fmt.Errorf("%w: comment text cannot be longer than %d characters", ErrValidation, MaxTextLength)
	ErrIdentityUnavailable = errors.New("identity unavailable")
	ErrNotFound            = errors.New("comment not found")
)

// Thread is a top-level comment followed by its replies.
type Thread struct {
	Comment *store.Comment   `json:"comment"`
	Replies []*store.Comment `json:"replies"`
}

type Store struct {
	mu       sync.Mutex
	persist  store.Store
	comments []*store.Comment
	byID     map[int64]*store.Comment
	children map[int64][]int64
	sort     store.SortSpec
	lastID   int64
	now      func() time.Time
	log      *logrus.Entry
}

type Option func(*Store)

// WithClock overrides the time source used for ids and timestamps.
func WithClock(now func() time.Time) Option {
	return func(s *Store) { s.now = now }
}

func WithLogger(log *logrus.Entry) Option {
	return func(s *Store) { s.log = log }
}

// New loads the persisted collection and returns a ready store.
func New(ctx context.Context, persist store.Store, opts ...Option) (*Store, error) {
	s := &Store{
		persist: persist,
		sort:    store.DefaultSort,
		now:     time.Now,
		log:     logrus.WithField("component", "comments"),
	}
	for _, opt := range opts {
		opt(s)
	}

	loaded, err := persist.LoadAll(ctx)
	if err != nil {
		return nil, fmt.Errorf("load comments: %w", err)
	}
	s.reset(loaded)

	s.log.WithField("count", len(s.comments)).Info("comment board loaded")
	return s, nil
}

// reset rebuilds the indexes from a loaded collection. Duplicate ids keep the
// first occurrence.
func (s *Store) reset(loaded []*store.Comment) {
	s.comments = make([]*store.Comment, 0, len(loaded))
	s.byID = make(map[int64]*store.Comment, len(loaded))
	s.children = make(map[int64][]int64)
	s.lastID = 0

	for _, c := range loaded {
		if _, dup := s.byID[c.ID]; dup {
			s.log.WithField("id", c.ID).Warn("dropping comment with duplicate id")
			continue
		}
		s.index(c)
	}
}

func (s *Store) index(c *store.Comment) {
	s.comments = append(s.comments, c)
	s.byID[c.ID] = c
	if c.ParentID != nil {
		s.children[*c.ParentID] = append(s.children[*c.ParentID], c.ID)
	}
	if c.ID > s.lastID {
		s.lastID = c.ID
	}
}

// unindex drops the most recently indexed comment.
func (s *Store) unindex(c *store.Comment, prevLastID int64) {
	s.comments = s.comments[:len(s.comments)-1]
	delete(s.byID, c.ID)
	if c.ParentID != nil {
		pid := *c.ParentID
		kids := s.children[pid][:len(s.children[pid])-1]
		if len(kids) == 0 {
			delete(s.children, pid)
		} else {
			s.children[pid] = kids
		}
	}
	s.lastID = prevLastID
}

// nextID hands out creation-time ids that stay unique within one millisecond.
func (s *Store) nextID(at time.Time) int64 {
	id := at.UnixMilli()
	if id <= s.lastID {
		id = s.lastID + 1
	}
	return id
}

// save writes the collection; on failure undo reverts the in-memory change.
func (s *Store) save(ctx context.Context, undo func()) error {
	err := s.persist.SaveAll(ctx, s.comments)
	metrics.StorageWrites.WithLabelValues(metrics.Result(err)).Inc()
	if err != nil {
		undo()
		s.log.WithError(err).Error("failed to persist comments")
		return fmt.Errorf("save comments: %w", err)
	}
	return nil
}

func validateText(text string) (string, error) {
	text = strings.TrimSpace(text)
	if text == "" {
		return "", ErrEmptyText
	}
	if utf8.RuneCountInString(text) > MaxTextLength {
		return "", ErrTextTooLong
	}
	return text, nil
}

func (s *Store) notFound(op string, id int64) error {
	s.log.WithFields(logrus.Fields{"op": op, "id": id}).Warn("comment not found")
	return fmt.Errorf("%w: %d", ErrNotFound, id)
}

// AddComment posts a new top-level comment under the given identity.
func (s *Store) AddComment(ctx context.Context, text string, author *identity.Identity) (*store.Comment, error) {
	return s.add(ctx, nil, text, author)
}

// AddReply posts a reply to an existing comment.
func (s *Store) AddReply(ctx context.Context, parentID int64, text string, author *identity.Identity) (*store.Comment, error) {
	return s.add(ctx, &parentID, text, author)
}

func (s *Store) add(ctx context.Context, parentID *int64, text string, author *identity.Identity) (*store.Comment, error) {
	text, err := validateText(text)
	if err != nil {
		return nil, err
	}
	if author == nil {
		return nil, ErrIdentityUnavailable
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	kind := "comment"
	if parentID != nil {
		if _, ok := s.byID[*parentID]; !ok {
			return nil, s.notFound("reply", *parentID)
		}
		kind = "reply"
	}

	at := s.now().UTC()
	c := &store.Comment{
		ID:           s.nextID(at),
		ParentID:     parentID,
		AuthorAvatar: author.AvatarURL,
		AuthorName:   author.Name,
		Text:         text,
		CreatedAt:    at,
	}

	prevLastID := s.lastID
	s.index(c)
	if err := s.save(ctx, func() { s.unindex(c, prevLastID) }); err != nil {
		return nil, err
	}

	metrics.CommentsCreated.WithLabelValues(kind).Inc()
	s.log.WithFields(logrus.Fields{"id": c.ID, "kind": kind}).Debug("comment added")
	return c.Clone(), nil
}

// Upvote raises a comment's score by one.
func (s *Store) Upvote(ctx context.Context, id int64) (*store.Comment, error) {
	return s.vote(ctx, id, 1)
}

// Downvote lowers a comment's score by one. Scores may go negative.
func (s *Store) Downvote(ctx context.Context, id int64) (*store.Comment, error) {
	return s.vote(ctx, id, -1)
}

func (s *Store) vote(ctx context.Context, id int64, delta int) (*store.Comment, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	c, ok := s.byID[id]
	if !ok {
		return nil, s.notFound("vote", id)
	}

	c.VoteScore += delta
	if err := s.save(ctx, func() { c.VoteScore -= delta }); err != nil {
		return nil, err
	}

	direction := "up"
	if delta < 0 {
		direction = "down"
	}
	metrics.Votes.WithLabelValues(direction).Inc()
	return c.Clone(), nil
}

// ToggleFavorite flips a comment's favorite flag.
func (s *Store) ToggleFavorite(ctx context.Context, id int64) (*store.Comment, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	c, ok := s.byID[id]
	if !ok {
		return nil, s.notFound("favorite", id)
	}

	c.IsFavorite = !c.IsFavorite
	if err := s.save(ctx, func() { c.IsFavorite = !c.IsFavorite }); err != nil {
		return nil, err
	}
	return c.Clone(), nil
}

// ClearAll empties the board and its storage slot.
func (s *Store) ClearAll(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if err := s.persist.ClearAll(ctx); err != nil {
		return fmt.Errorf("clear comments: %w", err)
	}
	s.reset(nil)
	s.log.Info("comment board cleared")
	return nil
}

// SetSort changes how VisibleTopLevel orders comments. Stored order is untouched.
func (s *Store) SetSort(field store.SortField, order store.SortOrder) error {
	if _, ok := store.ParseSortField(string(field)); !ok {
		return fmt.Errorf("%w: unknown sort field %q", ErrValidation, field)
	}
	if _, ok := store.ParseSortOrder(string(order)); !ok {
		return fmt.Errorf("%w: unknown sort order %q", ErrValidation, order)
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	s.sort = store.SortSpec{Field: field, Order: order}
	return nil
}

// ToggleSortOrder flips the active direction and returns the new spec.
func (s *Store) ToggleSortOrder() store.SortSpec {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.sort.Order = s.sort.Order.Toggle()
	return s.sort
}

func (s *Store) Sort() store.SortSpec {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.sort
}

func (s *Store) Len() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.comments)
}

func (s *Store) Get(id int64) (*store.Comment, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	c, ok := s.byID[id]
	if !ok {
		return nil, s.notFound("get", id)
	}
	return c.Clone(), nil
}

// VisibleTopLevel returns the top-level comments ordered by the active sort.
// Equal keys keep collection order.
func (s *Store) VisibleTopLevel() []*store.Comment {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.visibleTopLevel()
}

func (s *Store) visibleTopLevel() []*store.Comment {
	var top []*store.Comment
	for _, c := range s.comments {
		if c.IsTopLevel() {
			top = append(top, c)
		}
	}

	var cmp func(a, b *store.Comment) int
	switch s.sort.Field {
	case store.SortByRating:
		cmp = func(a, b *store.Comment) int { return compareInt(a.VoteScore, b.VoteScore) }
	case store.SortByReplyCount:
		counts := make(map[int64]int, len(top))
		for _, c := range top {
			counts[c.ID] = len(s.children[c.ID])
		}
		cmp = func(a, b *store.Comment) int { return compareInt(counts[a.ID], counts[b.ID]) }
	default:
		// Compare times directly; UnixNano overflows outside 1678..2262.
		cmp = func(a, b *store.Comment) int { return a.CreatedAt.Compare(b.CreatedAt) }
	}

	desc := s.sort.Order == store.OrderDesc
	sort.SliceStable(top, func(i, j int) bool {
		if desc {
			return cmp(top[i], top[j]) > 0
		}
		return cmp(top[i], top[j]) < 0
	})

	return cloneAll(top)
}

// RepliesOf returns the replies to parentID in the order they were posted.
func (s *Store) RepliesOf(parentID int64) []*store.Comment {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.repliesOf(parentID)
}

func (s *Store) repliesOf(parentID int64) []*store.Comment {
	ids := s.children[parentID]
	out := make([]*store.Comment, 0, len(ids))
	for _, id := range ids {
		out = append(out, s.byID[id].Clone())
	}
	return out
}

// FavoritesOnly returns favorited top-level comments in collection order.
func (s *Store) FavoritesOnly() []*store.Comment {
	s.mu.Lock()
	defer s.mu.Unlock()

	out := make([]*store.Comment, 0)
	for _, c := range s.comments {
		if c.IsTopLevel() && c.IsFavorite {
			out = append(out, c.Clone())
		}
	}
	return out
}

// Thread returns the full display order: sorted top-level comments, each with
// its replies.
func (s *Store) Thread() []Thread {
	s.mu.Lock()
	defer s.mu.Unlock()

	top := s.visibleTopLevel()
	out := make([]Thread, 0, len(top))
	for _, c := range top {
		out = append(out, Thread{Comment: c, Replies: s.repliesOf(c.ID)})
	}
	return out
}

func compareInt(a, b int) int {
	switch {
	case a < b:
		return -1
	case a > b:
		return 1
	}
	return 0
}

func cloneAll(in []*store.Comment) []*store.Comment {
	out := make([]*store.Comment, 0, len(in))
	for _, c := range in {
		out = append(out, c.Clone())
	}
	return out
}
