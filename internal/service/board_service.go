package service

import (
	"context"
	"errors"
	"fmt"
	"math"
	"sort"
	"strings"

	"github.com/go-playground/validator/v10"
	"github.com/microcosm-cc/bluemonday"
	"github.com/rs/zerolog"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"

	"github.com/noah-isme/idea-board/internal/dto"
	"github.com/noah-isme/idea-board/internal/models"
	"github.com/noah-isme/idea-board/internal/observability"
	"github.com/noah-isme/idea-board/internal/store"
)

const (
	defaultPageSize = 10
	maxPageSize     = 50
	maxPageButtons  = 10
	hallOfFameSize  = 5
	stageAll        = "all"
)

// ErrInvalidInput marks payloads that pass struct validation but are still unusable.
var ErrInvalidInput = errors.New("invalid input")

// BoardStore is the subset of the engagement store the board service drives.
type BoardStore interface {
	Mode() store.Mode
	Ideas() []models.Idea
	GetIdea(id string) (models.Idea, error)
	Ledger(actorID string) models.ActorVotes
	CreateIdea(ctx context.Context, actor store.Actor, input store.NewIdea) (models.Idea, error)
	EditIdea(ctx context.Context, id string, patch store.IdeaPatch) (models.Idea, error)
	DeleteIdea(ctx context.Context, id string) error
	AddComment(ctx context.Context, actor store.Actor, ideaID, content string, rating *float64) (store.Mutation, error)
	EditComment(ctx context.Context, ideaID, commentID, content string) (models.Comment, error)
	DeleteComment(ctx context.Context, ideaID, commentID string) error
	RateIdea(ctx context.Context, actor store.Actor, ideaID string, rating float64) (store.Mutation, error)
	LikeIdea(ctx context.Context, actor store.Actor, ideaID string) (store.Mutation, error)
	DislikeIdea(ctx context.Context, actor store.Actor, ideaID string) (store.Mutation, error)
}

// NotificationPublisher fans freshly derived notifications out to live listeners.
type NotificationPublisher interface {
	Publish(ctx context.Context, notifications []models.Notification)
}

// BoardService exposes idea, comment and engagement use cases.
//
// Mutating calls may return a usable result together with an error for which
// store.IsPersistFailure reports true: the change is live but was not saved.
type BoardService interface {
	List(ctx context.Context, req dto.IdeaListRequest) (dto.IdeaListResult, error)
	Get(ctx context.Context, viewer store.Actor, id string) (dto.IdeaDetailResponse, error)
	Create(ctx context.Context, actor store.Actor, req dto.IdeaCreateRequest) (dto.IdeaDetailResponse, error)
	Update(ctx context.Context, actor store.Actor, id string, req dto.IdeaUpdateRequest) (dto.IdeaDetailResponse, error)
	Delete(ctx context.Context, id string) error
	Rate(ctx context.Context, actor store.Actor, id string, req dto.RatingRequest) (dto.IdeaDetailResponse, error)
	Like(ctx context.Context, actor store.Actor, id string) (dto.IdeaDetailResponse, error)
	Dislike(ctx context.Context, actor store.Actor, id string) (dto.IdeaDetailResponse, error)
	AddComment(ctx context.Context, actor store.Actor, ideaID string, req dto.CommentCreateRequest) (dto.CommentResponse, error)
	EditComment(ctx context.Context, ideaID, commentID string, req dto.CommentUpdateRequest) (dto.CommentResponse, error)
	DeleteComment(ctx context.Context, ideaID, commentID string) error
	HallOfFame(ctx context.Context, viewer store.Actor) (dto.HallOfFameResponse, error)
	Profile(ctx context.Context, viewer store.Actor) (dto.ProfileResponse, error)
}

// BoardServiceConfig tunes request limits.
type BoardServiceConfig struct {
	PageSize      int
	MaxImageBytes int
}

type boardService struct {
	store     BoardStore
	publisher NotificationPublisher
	validator *validator.Validate
	sanitizer *bluemonday.Policy
	images    imageChecker
	pageSize  int
	logger    zerolog.Logger
	tracer    trace.Tracer
}

// NewBoardService constructs the board service. publisher may be nil.
func NewBoardService(boardStore BoardStore, publisher NotificationPublisher, validate *validator.Validate, cfg BoardServiceConfig, logger zerolog.Logger) BoardService {
	pageSize := cfg.PageSize
	if pageSize <= 0 || pageSize > maxPageSize {
		pageSize = defaultPageSize
	}

	return &boardService{
		store:     boardStore,
		publisher: publisher,
		validator: validate,
		sanitizer: bluemonday.StrictPolicy(),
		images:    imageChecker{maxBytes: cfg.MaxImageBytes},
		pageSize:  pageSize,
		logger:    logger.With().Str("component", "board_service").Logger(),
		tracer:    observability.Tracer("service/board"),
	}
}

func (s *boardService) List(ctx context.Context, req dto.IdeaListRequest) (result dto.IdeaListResult, err error) {
	_, span := s.tracer.Start(ctx, "board.list", trace.WithAttributes(
		attribute.String("board.search", req.Search),
		attribute.String("board.stage", req.Stage),
	))
	defer func() { s.finish(span, "list", err) }()

	stage := strings.ToLower(strings.TrimSpace(req.Stage))
	if stage == "" {
		stage = stageAll
	}
	if stage != stageAll {
		if _, ok := models.ParseStage(stage); !ok {
			return dto.IdeaListResult{}, fmt.Errorf("%w: unknown stage %q", ErrInvalidInput, req.Stage)
		}
	}

	search := strings.TrimSpace(req.Search)
	matches := make([]models.Idea, 0)
	for _, idea := range s.store.Ideas() {
		if stage != stageAll && !idea.HasStage(models.Stage(stage)) {
			continue
		}
		if !matchesSearch(idea, search) {
			continue
		}
		matches = append(matches, idea)
	}

	pageSize := req.PageSize
	if pageSize <= 0 {
		pageSize = s.pageSize
	}
	if pageSize > maxPageSize {
		pageSize = maxPageSize
	}

	meta := paginate(len(matches), req.Page, pageSize)
	start := (meta.Page - 1) * pageSize
	end := start + pageSize
	if start > len(matches) {
		start = len(matches)
	}
	if end > len(matches) {
		end = len(matches)
	}

	span.SetAttributes(attribute.Int("board.matches", len(matches)))
	return dto.IdeaListResult{
		Items:      dto.NewIdeaSummaryResponseSlice(matches[start:end]),
		Pagination: meta,
		Filters:    dto.IdeaListFilters{Search: search, Stage: stage},
	}, nil
}

func (s *boardService) Get(ctx context.Context, viewer store.Actor, id string) (detail dto.IdeaDetailResponse, err error) {
	_, span := s.tracer.Start(ctx, "board.get", trace.WithAttributes(attribute.String("board.idea_id", id)))
	defer func() { s.finish(span, "get", err) }()

	idea, err := s.store.GetIdea(id)
	if err != nil {
		return dto.IdeaDetailResponse{}, err
	}
	return s.detail(idea, viewer), nil
}

func (s *boardService) Create(ctx context.Context, actor store.Actor, req dto.IdeaCreateRequest) (detail dto.IdeaDetailResponse, err error) {
	spanCtx, span := s.tracer.Start(ctx, "board.create", trace.WithAttributes(attribute.String("board.actor_id", actor.ID)))
	defer func() { s.finish(span, "create", err) }()

	if err := s.validator.Struct(req); err != nil {
		return dto.IdeaDetailResponse{}, err
	}

	title, err := s.cleanRequired("title", req.Title)
	if err != nil {
		return dto.IdeaDetailResponse{}, err
	}
	content, err := s.cleanContent(req.Content)
	if err != nil {
		return dto.IdeaDetailResponse{}, err
	}
	if err := s.images.check(req.Images); err != nil {
		return dto.IdeaDetailResponse{}, err
	}

	stage, _ := models.ParseStage(req.Stage)
	idea, err := s.store.CreateIdea(spanCtx, actor, store.NewIdea{
		Title:   title,
		Content: content,
		Stage:   stage,
		Images:  req.Images,
	})
	if err != nil && !store.IsPersistFailure(err) {
		return dto.IdeaDetailResponse{}, err
	}

	s.logger.Info().Str("idea_id", idea.ID).Str("actor_id", actor.ID).Msg("idea posted")
	return s.detail(idea, actor), err
}

func (s *boardService) Update(ctx context.Context, actor store.Actor, id string, req dto.IdeaUpdateRequest) (detail dto.IdeaDetailResponse, err error) {
	spanCtx, span := s.tracer.Start(ctx, "board.update", trace.WithAttributes(attribute.String("board.idea_id", id)))
	defer func() { s.finish(span, "update", err) }()

	if err := s.validator.Struct(req); err != nil {
		return dto.IdeaDetailResponse{}, err
	}

	var patch store.IdeaPatch
	if req.Title != nil {
		title, err := s.cleanRequired("title", *req.Title)
		if err != nil {
			return dto.IdeaDetailResponse{}, err
		}
		patch.Title = &title
	}
	if req.Content != nil {
		content, err := s.cleanContent(*req.Content)
		if err != nil {
			return dto.IdeaDetailResponse{}, err
		}
		patch.Content = &content
	}
	if req.Stage != nil {
		stage, _ := models.ParseStage(*req.Stage)
		patch.Stage = &stage
	}
	if req.Images != nil {
		if err := s.images.check(*req.Images); err != nil {
			return dto.IdeaDetailResponse{}, err
		}
		patch.Images = append([]string{}, (*req.Images)...)
	}

	idea, err := s.store.EditIdea(spanCtx, id, patch)
	if err != nil && !store.IsPersistFailure(err) {
		return dto.IdeaDetailResponse{}, err
	}
	return s.detail(idea, actor), err
}

func (s *boardService) Delete(ctx context.Context, id string) (err error) {
	spanCtx, span := s.tracer.Start(ctx, "board.delete", trace.WithAttributes(attribute.String("board.idea_id", id)))
	defer func() { s.finish(span, "delete", err) }()

	return s.store.DeleteIdea(spanCtx, id)
}

func (s *boardService) Rate(ctx context.Context, actor store.Actor, id string, req dto.RatingRequest) (detail dto.IdeaDetailResponse, err error) {
	spanCtx, span := s.tracer.Start(ctx, "board.rate", trace.WithAttributes(
		attribute.String("board.idea_id", id),
		attribute.Float64("board.rating", req.Rating),
	))
	defer func() { s.finish(span, "rate", err) }()

	if err := s.validator.Struct(req); err != nil {
		return dto.IdeaDetailResponse{}, err
	}

	mutation, err := s.store.RateIdea(spanCtx, actor, id, req.Rating)
	return s.afterMutation(spanCtx, actor, mutation, err)
}

func (s *boardService) Like(ctx context.Context, actor store.Actor, id string) (detail dto.IdeaDetailResponse, err error) {
	spanCtx, span := s.tracer.Start(ctx, "board.like", trace.WithAttributes(attribute.String("board.idea_id", id)))
	defer func() { s.finish(span, "like", err) }()

	mutation, err := s.store.LikeIdea(spanCtx, actor, id)
	return s.afterMutation(spanCtx, actor, mutation, err)
}

func (s *boardService) Dislike(ctx context.Context, actor store.Actor, id string) (detail dto.IdeaDetailResponse, err error) {
	spanCtx, span := s.tracer.Start(ctx, "board.dislike", trace.WithAttributes(attribute.String("board.idea_id", id)))
	defer func() { s.finish(span, "dislike", err) }()

	mutation, err := s.store.DislikeIdea(spanCtx, actor, id)
	return s.afterMutation(spanCtx, actor, mutation, err)
}

func (s *boardService) AddComment(ctx context.Context, actor store.Actor, ideaID string, req dto.CommentCreateRequest) (comment dto.CommentResponse, err error) {
	spanCtx, span := s.tracer.Start(ctx, "board.comment", trace.WithAttributes(
		attribute.String("board.idea_id", ideaID),
		attribute.Bool("board.rated", req.Rating != nil),
	))
	defer func() { s.finish(span, "comment", err) }()

	if err := s.validator.Struct(req); err != nil {
		return dto.CommentResponse{}, err
	}
	content, err := s.cleanRequired("content", req.Content)
	if err != nil {
		return dto.CommentResponse{}, err
	}

	mutation, err := s.store.AddComment(spanCtx, actor, ideaID, content, req.Rating)
	if err != nil && !store.IsPersistFailure(err) {
		return dto.CommentResponse{}, err
	}
	s.publish(spanCtx, mutation.Notifications)

	if mutation.Comment == nil {
		return dto.CommentResponse{}, err
	}
	return dto.NewCommentResponse(*mutation.Comment), err
}

func (s *boardService) EditComment(ctx context.Context, ideaID, commentID string, req dto.CommentUpdateRequest) (comment dto.CommentResponse, err error) {
	spanCtx, span := s.tracer.Start(ctx, "board.comment_edit", trace.WithAttributes(
		attribute.String("board.idea_id", ideaID),
		attribute.String("board.comment_id", commentID),
	))
	defer func() { s.finish(span, "comment_edit", err) }()

	if err := s.validator.Struct(req); err != nil {
		return dto.CommentResponse{}, err
	}
	content, err := s.cleanRequired("content", req.Content)
	if err != nil {
		return dto.CommentResponse{}, err
	}

	edited, err := s.store.EditComment(spanCtx, ideaID, commentID, content)
	if err != nil && !store.IsPersistFailure(err) {
		return dto.CommentResponse{}, err
	}
	return dto.NewCommentResponse(edited), err
}

func (s *boardService) DeleteComment(ctx context.Context, ideaID, commentID string) (err error) {
	spanCtx, span := s.tracer.Start(ctx, "board.comment_delete", trace.WithAttributes(
		attribute.String("board.idea_id", ideaID),
		attribute.String("board.comment_id", commentID),
	))
	defer func() { s.finish(span, "comment_delete", err) }()

	return s.store.DeleteComment(spanCtx, ideaID, commentID)
}

func (s *boardService) HallOfFame(ctx context.Context, viewer store.Actor) (result dto.HallOfFameResponse, err error) {
	_, span := s.tracer.Start(ctx, "board.hall_of_fame")
	defer func() { s.finish(span, "hall_of_fame", err) }()

	counts := make(map[string]*dto.HallOfFameEntry)
	for _, idea := range s.store.Ideas() {
		for _, comment := range idea.Comments {
			key := comment.AuthorID
			if key == "" {
				key = comment.Author
			}
			entry, ok := counts[key]
			if !ok {
				entry = &dto.HallOfFameEntry{AuthorID: key, Author: comment.Author}
				counts[key] = entry
			}
			entry.Comments++
		}
	}

	ranked := make([]dto.HallOfFameEntry, 0, len(counts))
	for _, entry := range counts {
		ranked = append(ranked, *entry)
	}
	sort.Slice(ranked, func(i, j int) bool {
		if ranked[i].Comments != ranked[j].Comments {
			return ranked[i].Comments > ranked[j].Comments
		}
		if ranked[i].Author != ranked[j].Author {
			return ranked[i].Author < ranked[j].Author
		}
		return ranked[i].AuthorID < ranked[j].AuthorID
	})
	for idx := range ranked {
		ranked[idx].Rank = idx + 1
	}

	result.Me = dto.HallOfFameEntry{AuthorID: viewer.ID, Author: viewer.Name}
	for _, entry := range ranked {
		if entry.AuthorID == viewer.ID {
			result.Me = entry
			break
		}
	}

	top := ranked
	if len(top) > hallOfFameSize {
		top = top[:hallOfFameSize]
	}
	result.Top = top
	return result, nil
}

func (s *boardService) Profile(ctx context.Context, viewer store.Actor) (profile dto.ProfileResponse, err error) {
	_, span := s.tracer.Start(ctx, "board.profile", trace.WithAttributes(attribute.String("board.actor_id", viewer.ID)))
	defer func() { s.finish(span, "profile", err) }()

	profile = dto.ProfileResponse{
		Actor:    dto.ActorResponse{ID: viewer.ID, Name: viewer.Name, Handle: viewer.Handle},
		Ideas:    []dto.IdeaSummaryResponse{},
		Comments: []dto.ProfileComment{},
	}

	for _, idea := range s.store.Ideas() {
		if idea.AuthorID == viewer.ID {
			profile.Ideas = append(profile.Ideas, dto.NewIdeaSummaryResponse(idea))
		}
		for _, comment := range idea.Comments {
			if comment.AuthorID != viewer.ID {
				continue
			}
			profile.Comments = append(profile.Comments, dto.ProfileComment{
				IdeaID:    idea.ID,
				IdeaTitle: idea.Title,
				Comment:   dto.NewCommentResponse(comment),
			})
		}
	}
	return profile, nil
}

func (s *boardService) afterMutation(ctx context.Context, actor store.Actor, mutation store.Mutation, err error) (dto.IdeaDetailResponse, error) {
	if err != nil && !store.IsPersistFailure(err) {
		return dto.IdeaDetailResponse{}, err
	}
	s.publish(ctx, mutation.Notifications)
	return s.detail(mutation.Idea, actor), err
}

func (s *boardService) publish(ctx context.Context, notifications []models.Notification) {
	if s.publisher == nil || len(notifications) == 0 {
		return
	}
	s.publisher.Publish(ctx, notifications)
}

func (s *boardService) detail(idea models.Idea, viewer store.Actor) dto.IdeaDetailResponse {
	detail := dto.IdeaDetailResponse{
		IdeaSummaryResponse: dto.NewIdeaSummaryResponse(idea),
		Comments:            dto.NewCommentResponseSlice(idea.Comments),
		Histogram:           ratingHistogram(idea),
	}
	if rating, ok := idea.Ratings[viewer.ID]; ok {
		detail.MyRating = &rating
	}
	if reaction, ok := s.store.Ledger(viewer.ID).Reactions[idea.ID]; ok {
		detail.MyReaction = string(reaction)
	}
	return detail
}

func (s *boardService) cleanRequired(field, value string) (string, error) {
	clean := strings.TrimSpace(s.sanitizer.Sanitize(value))
	if clean == "" {
		return "", fmt.Errorf("%w: %s empty after sanitization", ErrInvalidInput, field)
	}
	return clean, nil
}

func (s *boardService) cleanContent(payload dto.IdeaContentPayload) (models.IdeaContent, error) {
	planning, err := s.cleanRequired("planning", payload.Planning)
	if err != nil {
		return models.IdeaContent{}, err
	}
	return models.IdeaContent{
		Planning: planning,
		Details:  strings.TrimSpace(s.sanitizer.Sanitize(payload.Details)),
		Roadmap:  strings.TrimSpace(s.sanitizer.Sanitize(payload.Roadmap)),
	}, nil
}

func (s *boardService) finish(span trace.Span, operation string, err error) {
	outcome := "ok"
	switch {
	case err == nil:
	case store.IsPersistFailure(err):
		outcome = "unsaved"
		span.RecordError(err)
	default:
		outcome = "error"
		span.RecordError(err)
		span.SetStatus(codes.Error, operation+" failed")
	}
	observability.BoardOperations().WithLabelValues(operation, outcome).Inc()
	span.End()
}

func matchesSearch(idea models.Idea, search string) bool {
	if search == "" {
		return true
	}
	needle := strings.ToLower(search)
	for _, haystack := range []string{idea.Title, idea.Content.Planning, idea.Content.Details, idea.Content.Roadmap} {
		if strings.Contains(strings.ToLower(haystack), needle) {
			return true
		}
	}
	return false
}

// paginate clamps page into range and offers at most maxPageButtons page numbers, starting half a
// window before the current page and sliding back when the window would run past the last page.
func paginate(total, page, pageSize int) dto.PaginationMeta {
	totalPages := 0
	if total > 0 {
		totalPages = (total + pageSize - 1) / pageSize
	}
	if page < 1 {
		page = 1
	}
	if totalPages > 0 && page > totalPages {
		page = totalPages
	}

	startPage := page - maxPageButtons/2
	if startPage < 1 {
		startPage = 1
	}
	endPage := startPage + maxPageButtons - 1
	if endPage > totalPages {
		endPage = totalPages
		startPage = endPage - maxPageButtons + 1
		if startPage < 1 {
			startPage = 1
		}
	}

	pages := make([]int, 0, maxPageButtons)
	for number := startPage; number <= endPage; number++ {
		pages = append(pages, number)
	}

	return dto.PaginationMeta{
		Page:       page,
		PageSize:   pageSize,
		TotalItems: int64(total),
		TotalPages: totalPages,
		Pages:      pages,
	}
}

// ratingHistogram buckets ratings by rounded star value, five stars first.
func ratingHistogram(idea models.Idea) []dto.RatingBucket {
	total := len(idea.Ratings)
	buckets := make([]dto.RatingBucket, 0, 5)
	for stars := 5; stars >= 1; stars-- {
		count := 0
		for _, value := range idea.Ratings {
			if int(math.Round(value)) == stars {
				count++
			}
		}
		percentage := 0.0
		if total > 0 {
			percentage = float64(count) / float64(total) * 100
		}
		buckets = append(buckets, dto.RatingBucket{Stars: stars, Count: count, Percentage: percentage})
	}
	return buckets
}
