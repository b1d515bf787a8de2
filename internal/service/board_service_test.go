package service

import (
	"context"
	"fmt"
	"strings"
	"sync"
	"testing"

	"github.com/go-playground/validator/v10"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/require"

	"github.com/noah-isme/idea-board/internal/dto"
	"github.com/noah-isme/idea-board/internal/models"
	"github.com/noah-isme/idea-board/internal/repository"
	"github.com/noah-isme/idea-board/internal/store"
)

const (
	pngDataURI  = "data:image/png;base64,iVBORw0KGgoAAAANSUhEUgAAAAAAAAAAAAAAAAAAAAAA"
	gifDataURI  = "data:image/gif;base64,R0lGODlhAQABAAAAADs="
	textDataURI = "data:image/png;base64,aGVsbG8gd29ybGQsIHBsYWluIHRleHQ="
)

var (
	ownerActor   = store.Actor{ID: "you", Name: "You", Handle: "@you"}
	visitorActor = store.Actor{ID: "me", Name: "Me", Handle: "@me"}
)

type recordingPublisher struct {
	mu      sync.Mutex
	batches [][]models.Notification
}

func (p *recordingPublisher) Publish(_ context.Context, notifications []models.Notification) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.batches = append(p.batches, append([]models.Notification(nil), notifications...))
}

func (p *recordingPublisher) all() []models.Notification {
	p.mu.Lock()
	defer p.mu.Unlock()
	var out []models.Notification
	for _, batch := range p.batches {
		out = append(out, batch...)
	}
	return out
}

type boardFixture struct {
	service   BoardService
	store     *store.Store
	publisher *recordingPublisher
}

func newBoardFixture(t *testing.T, repo repository.BlobRepository, cfg BoardServiceConfig, opts ...store.Option) boardFixture {
	t.Helper()
	if repo == nil {
		repo = repository.NewMemoryBlobRepository(0)
	}

	base := []store.Option{store.WithLogger(zerolog.Nop()), store.WithOwner(ownerActor.ID)}
	boardStore := store.New(repo, append(base, opts...)...)
	boardStore.Hydrate(context.Background())

	publisher := &recordingPublisher{}
	svc := NewBoardService(boardStore, publisher, validator.New(), cfg, zerolog.Nop())
	return boardFixture{service: svc, store: boardStore, publisher: publisher}
}

func ideaRequest(title string) dto.IdeaCreateRequest {
	return dto.IdeaCreateRequest{
		Title:   title,
		Content: dto.IdeaContentPayload{Planning: "Why it matters", Details: "How it works"},
		Stage:   "idea",
	}
}

func TestBoardServiceCreateValidatesInput(t *testing.T) {
	fx := newBoardFixture(t, nil, BoardServiceConfig{MaxImageBytes: 1024})
	ctx := context.Background()

	var validationErrs validator.ValidationErrors

	_, err := fx.service.Create(ctx, ownerActor, ideaRequest(strings.Repeat("x", 41)))
	require.ErrorAs(t, err, &validationErrs)

	bad := ideaRequest("Stage check")
	bad.Stage = "someday"
	_, err = fx.service.Create(ctx, ownerActor, bad)
	require.ErrorAs(t, err, &validationErrs)

	missingPlanning := ideaRequest("No planning")
	missingPlanning.Content.Planning = ""
	_, err = fx.service.Create(ctx, ownerActor, missingPlanning)
	require.ErrorAs(t, err, &validationErrs)

	tooMany := ideaRequest("Gallery")
	tooMany.Images = []string{pngDataURI, pngDataURI, pngDataURI, pngDataURI}
	_, err = fx.service.Create(ctx, ownerActor, tooMany)
	require.ErrorAs(t, err, &validationErrs)

	notURI := ideaRequest("Link")
	notURI.Images = []string{"https://example.com/cat.png"}
	_, err = fx.service.Create(ctx, ownerActor, notURI)
	require.ErrorAs(t, err, &validationErrs)

	_, err = fx.service.Create(ctx, ownerActor, ideaRequest("<b></b>"))
	require.ErrorIs(t, err, ErrInvalidInput)

	require.Empty(t, fx.store.Ideas())
}

func TestBoardServiceCreateChecksImagePayloads(t *testing.T) {
	ctx := context.Background()

	fx := newBoardFixture(t, nil, BoardServiceConfig{MaxImageBytes: 1024})

	text := ideaRequest("Text image")
	text.Images = []string{textDataURI}
	_, err := fx.service.Create(ctx, ownerActor, text)
	require.ErrorIs(t, err, ErrImageTypeNotAllowed)

	mislabelled := ideaRequest("Mislabelled")
	mislabelled.Images = []string{strings.Replace(pngDataURI, "image/png", "image/gif", 1)}
	_, err = fx.service.Create(ctx, ownerActor, mislabelled)
	require.ErrorIs(t, err, ErrImageTypeNotAllowed)

	small := newBoardFixture(t, nil, BoardServiceConfig{MaxImageBytes: 8})
	large := ideaRequest("Large")
	large.Images = []string{pngDataURI}
	_, err = small.service.Create(ctx, ownerActor, large)
	require.ErrorIs(t, err, ErrImageTooLarge)

	ok := ideaRequest("Pictures")
	ok.Images = []string{pngDataURI, gifDataURI}
	detail, err := fx.service.Create(ctx, ownerActor, ok)
	require.NoError(t, err)
	require.Equal(t, []string{pngDataURI, gifDataURI}, detail.Images)
}

func TestBoardServiceCreateSanitizesText(t *testing.T) {
	fx := newBoardFixture(t, nil, BoardServiceConfig{})

	req := ideaRequest("<script>x</script>Cat translator")
	req.Content.Roadmap = "<i>Phase 1</i>"
	detail, err := fx.service.Create(context.Background(), ownerActor, req)
	require.NoError(t, err)

	require.Equal(t, "Cat translator", detail.Title)
	require.Equal(t, "Phase 1", detail.Content.Roadmap)
	require.Equal(t, []models.Stage{models.StageIdea}, detail.Tags)
	require.True(t, detail.IsNew)
	require.Equal(t, "you", detail.AuthorID)
	require.Len(t, detail.Histogram, 5)
}

func TestBoardServiceListFiltersAndPaginates(t *testing.T) {
	fx := newBoardFixture(t, nil, BoardServiceConfig{})
	ctx := context.Background()

	for i := 1; i <= 25; i++ {
		req := ideaRequest(fmt.Sprintf("Idea %02d", i))
		if i%5 == 0 {
			req.Stage = "live"
		}
		if i == 7 {
			req.Content.Roadmap = "Launch on the MOON"
		}
		_, err := fx.service.Create(ctx, ownerActor, req)
		require.NoError(t, err)
	}

	page, err := fx.service.List(ctx, dto.IdeaListRequest{Page: 3})
	require.NoError(t, err)
	require.Len(t, page.Items, 5)
	require.Equal(t, dto.PaginationMeta{Page: 3, PageSize: 10, TotalItems: 25, TotalPages: 3, Pages: []int{1, 2, 3}}, page.Pagination)
	require.Equal(t, "Idea 05", page.Items[0].Title)

	first, err := fx.service.List(ctx, dto.IdeaListRequest{})
	require.NoError(t, err)
	require.Equal(t, "Idea 25", first.Items[0].Title, "newest ideas come first")
	require.Equal(t, "all", first.Filters.Stage)

	live, err := fx.service.List(ctx, dto.IdeaListRequest{Stage: "LIVE"})
	require.NoError(t, err)
	require.Len(t, live.Items, 5)
	for _, item := range live.Items {
		require.Contains(t, item.Tags, models.StageLive)
	}

	moon, err := fx.service.List(ctx, dto.IdeaListRequest{Search: "moon"})
	require.NoError(t, err)
	require.Len(t, moon.Items, 1)
	require.Equal(t, "Idea 07", moon.Items[0].Title)

	none, err := fx.service.List(ctx, dto.IdeaListRequest{Search: "moon", Stage: "live"})
	require.NoError(t, err)
	require.Empty(t, none.Items)
	require.Equal(t, 0, none.Pagination.TotalPages)

	_, err = fx.service.List(ctx, dto.IdeaListRequest{Stage: "someday"})
	require.ErrorIs(t, err, ErrInvalidInput)
}

func TestPaginateWindow(t *testing.T) {
	cases := []struct {
		name      string
		total     int
		page      int
		wantPage  int
		wantPages []int
	}{
		{name: "first page", total: 250, page: 1, wantPage: 1, wantPages: []int{1, 2, 3, 4, 5, 6, 7, 8, 9, 10}},
		{name: "centred", total: 250, page: 13, wantPage: 13, wantPages: []int{8, 9, 10, 11, 12, 13, 14, 15, 16, 17}},
		{name: "slides back at the end", total: 250, page: 25, wantPage: 25, wantPages: []int{16, 17, 18, 19, 20, 21, 22, 23, 24, 25}},
		{name: "clamps past the end", total: 30, page: 99, wantPage: 3, wantPages: []int{1, 2, 3}},
		{name: "clamps below one", total: 30, page: -4, wantPage: 1, wantPages: []int{1, 2, 3}},
		{name: "empty", total: 0, page: 1, wantPage: 1, wantPages: []int{}},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			meta := paginate(tc.total, tc.page, 10)
			require.Equal(t, tc.wantPage, meta.Page)
			require.Equal(t, tc.wantPages, meta.Pages)
		})
	}
}

func TestBoardServiceDetailAggregatesRatings(t *testing.T) {
	fx := newBoardFixture(t, nil, BoardServiceConfig{})
	ctx := context.Background()

	created, err := fx.service.Create(ctx, ownerActor, ideaRequest("Rated"))
	require.NoError(t, err)

	_, err = fx.service.Rate(ctx, visitorActor, created.ID, dto.RatingRequest{Rating: 5})
	require.NoError(t, err)
	_, err = fx.service.Rate(ctx, store.Actor{ID: "a"}, created.ID, dto.RatingRequest{Rating: 4.5})
	require.NoError(t, err)
	_, err = fx.service.Rate(ctx, store.Actor{ID: "b"}, created.ID, dto.RatingRequest{Rating: 2})
	require.NoError(t, err)

	_, err = fx.service.Rate(ctx, visitorActor, created.ID, dto.RatingRequest{Rating: 9})
	var validationErrs validator.ValidationErrors
	require.ErrorAs(t, err, &validationErrs)

	detail, err := fx.service.Get(ctx, visitorActor, created.ID)
	require.NoError(t, err)

	require.Equal(t, 3, detail.RatingCount)
	require.InDelta(t, 11.5/3, detail.AverageRating, 1e-9)
	require.NotNil(t, detail.MyRating)
	require.Equal(t, 5.0, *detail.MyRating)

	byStars := map[int]dto.RatingBucket{}
	for _, bucket := range detail.Histogram {
		byStars[bucket.Stars] = bucket
	}
	require.Equal(t, 2, byStars[5].Count)
	require.InDelta(t, 200.0/3, byStars[5].Percentage, 1e-9)
	require.Equal(t, 1, byStars[2].Count)
	require.Zero(t, byStars[1].Count)
	require.Equal(t, 5, detail.Histogram[0].Stars)

	ownerView, err := fx.service.Get(ctx, ownerActor, created.ID)
	require.NoError(t, err)
	require.Nil(t, ownerView.MyRating)

	_, err = fx.service.Get(ctx, ownerActor, "missing")
	require.ErrorIs(t, err, store.ErrIdeaNotFound)
}

func TestBoardServiceCommentPublishesNotifications(t *testing.T) {
	fx := newBoardFixture(t, nil, BoardServiceConfig{})
	ctx := context.Background()

	created, err := fx.service.Create(ctx, ownerActor, ideaRequest("Owned"))
	require.NoError(t, err)

	rating := 5.0
	comment, err := fx.service.AddComment(ctx, visitorActor, created.ID, dto.CommentCreateRequest{Content: "Love <b>it</b>", Rating: &rating})
	require.NoError(t, err)
	require.Equal(t, "Love it", comment.Content)
	require.Equal(t, "me", comment.AuthorID)

	published := fx.publisher.all()
	require.Len(t, published, 2)
	types := []models.NotificationType{published[0].Type, published[1].Type}
	require.ElementsMatch(t, []models.NotificationType{models.NotificationComment, models.NotificationLike}, types)

	edited, err := fx.service.EditComment(ctx, created.ID, comment.ID, dto.CommentUpdateRequest{Content: "Still love it"})
	require.NoError(t, err)
	require.Equal(t, "Still love it", edited.Content)

	_, err = fx.service.EditComment(ctx, created.ID, comment.ID, dto.CommentUpdateRequest{Content: "<p></p>"})
	require.ErrorIs(t, err, ErrInvalidInput)

	require.NoError(t, fx.service.DeleteComment(ctx, created.ID, comment.ID))
	require.ErrorIs(t, fx.service.DeleteComment(ctx, created.ID, comment.ID), store.ErrCommentNotFound)

	detail, err := fx.service.Get(ctx, ownerActor, created.ID)
	require.NoError(t, err)
	require.Empty(t, detail.Comments)
	require.Equal(t, 1, detail.RatingCount, "deleting a comment keeps its rating")
}

func TestBoardServiceUpdate(t *testing.T) {
	fx := newBoardFixture(t, nil, BoardServiceConfig{})
	ctx := context.Background()

	req := ideaRequest("Before")
	req.Images = []string{pngDataURI}
	created, err := fx.service.Create(ctx, ownerActor, req)
	require.NoError(t, err)

	title := "After"
	stage := "working"
	updated, err := fx.service.Update(ctx, ownerActor, created.ID, dto.IdeaUpdateRequest{Title: &title, Stage: &stage})
	require.NoError(t, err)
	require.Equal(t, "After", updated.Title)
	require.Equal(t, []models.Stage{models.StageWorking}, updated.Tags)
	require.Equal(t, created.Content, updated.Content)
	require.Equal(t, []string{pngDataURI}, updated.Images)

	cleared := []string{}
	updated, err = fx.service.Update(ctx, ownerActor, created.ID, dto.IdeaUpdateRequest{Images: &cleared})
	require.NoError(t, err)
	require.Empty(t, updated.Images)

	_, err = fx.service.Update(ctx, ownerActor, "missing", dto.IdeaUpdateRequest{Title: &title})
	require.ErrorIs(t, err, store.ErrIdeaNotFound)

	require.NoError(t, fx.service.Delete(ctx, created.ID))
	require.ErrorIs(t, fx.service.Delete(ctx, created.ID), store.ErrIdeaNotFound)
}

func TestBoardServiceVotesMode(t *testing.T) {
	fx := newBoardFixture(t, nil, BoardServiceConfig{}, store.WithMode(store.ModeVotes))
	ctx := context.Background()

	created, err := fx.service.Create(ctx, ownerActor, ideaRequest("Thumbs"))
	require.NoError(t, err)

	liked, err := fx.service.Like(ctx, visitorActor, created.ID)
	require.NoError(t, err)
	require.Equal(t, 1, liked.Likes)
	require.Equal(t, "like", liked.MyReaction)

	disliked, err := fx.service.Dislike(ctx, visitorActor, created.ID)
	require.NoError(t, err)
	require.Equal(t, 0, disliked.Likes)
	require.Equal(t, 1, disliked.Dislikes)
	require.Equal(t, "dislike", disliked.MyReaction)

	_, err = fx.service.Rate(ctx, visitorActor, created.ID, dto.RatingRequest{Rating: 4})
	require.ErrorIs(t, err, store.ErrUnsupportedEngagement)

	require.Len(t, fx.publisher.all(), 2)
}

func TestBoardServiceReportsUnsavedChanges(t *testing.T) {
	fx := newBoardFixture(t, repository.NewMemoryBlobRepository(32), BoardServiceConfig{})

	detail, err := fx.service.Create(context.Background(), ownerActor, ideaRequest("Unsaved"))
	require.Error(t, err)
	require.True(t, store.IsPersistFailure(err))
	require.NotEmpty(t, detail.ID)
	require.Equal(t, "Unsaved", detail.Title)

	_, getErr := fx.store.GetIdea(detail.ID)
	require.NoError(t, getErr)
}

func TestBoardServiceHallOfFame(t *testing.T) {
	fx := newBoardFixture(t, nil, BoardServiceConfig{})
	ctx := context.Background()

	created, err := fx.service.Create(ctx, ownerActor, ideaRequest("Popular"))
	require.NoError(t, err)

	counts := map[string]int{"ana": 4, "bo": 3, "cy": 3, "di": 2, "ed": 1, "fi": 1, "me": 1}
	for id, count := range counts {
		actor := store.Actor{ID: id, Name: strings.ToUpper(id)}
		for i := 0; i < count; i++ {
			_, err := fx.service.AddComment(ctx, actor, created.ID, dto.CommentCreateRequest{Content: "comment"})
			require.NoError(t, err)
		}
	}

	board, err := fx.service.HallOfFame(ctx, visitorActor)
	require.NoError(t, err)
	require.Len(t, board.Top, 5)

	ids := make([]string, 0, len(board.Top))
	for _, entry := range board.Top {
		ids = append(ids, entry.AuthorID)
	}
	require.Equal(t, []string{"ana", "bo", "cy", "di", "ed"}, ids)
	require.Equal(t, 1, board.Top[0].Rank)
	require.Equal(t, 4, board.Top[0].Comments)

	require.Equal(t, "me", board.Me.AuthorID)
	require.Equal(t, 7, board.Me.Rank)
	require.Equal(t, 1, board.Me.Comments)

	stranger, err := fx.service.HallOfFame(ctx, store.Actor{ID: "zed", Name: "Zed"})
	require.NoError(t, err)
	require.Equal(t, dto.HallOfFameEntry{AuthorID: "zed", Author: "Zed"}, stranger.Me)
}

func TestBoardServiceProfile(t *testing.T) {
	fx := newBoardFixture(t, nil, BoardServiceConfig{})
	ctx := context.Background()

	mine, err := fx.service.Create(ctx, visitorActor, ideaRequest("Mine"))
	require.NoError(t, err)
	theirs, err := fx.service.Create(ctx, ownerActor, ideaRequest("Theirs"))
	require.NoError(t, err)

	_, err = fx.service.AddComment(ctx, visitorActor, theirs.ID, dto.CommentCreateRequest{Content: "nice"})
	require.NoError(t, err)
	_, err = fx.service.AddComment(ctx, ownerActor, mine.ID, dto.CommentCreateRequest{Content: "thanks"})
	require.NoError(t, err)

	profile, err := fx.service.Profile(ctx, visitorActor)
	require.NoError(t, err)

	require.Equal(t, dto.ActorResponse{ID: "me", Name: "Me", Handle: "@me"}, profile.Actor)
	require.Len(t, profile.Ideas, 1)
	require.Equal(t, mine.ID, profile.Ideas[0].ID)
	require.Len(t, profile.Comments, 1)
	require.Equal(t, theirs.ID, profile.Comments[0].IdeaID)
	require.Equal(t, "Theirs", profile.Comments[0].IdeaTitle)
	require.Equal(t, "nice", profile.Comments[0].Comment.Content)
}
