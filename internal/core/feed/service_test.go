package feed

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"math"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"Picfeed/internal/core/apperr"
	"Picfeed/internal/core/comments"
	"Picfeed/internal/core/posts"
	"Picfeed/internal/core/users"
	"Picfeed/internal/metrics"
)

var base = time.Date(2024, 1, 15, 10, 0, 0, 0, time.UTC)

type fakePosts struct {
	err      error
	all      []*posts.Post // newest first
	lastOpts posts.ListOptions
	calls    int32
}

func (f *fakePosts) List(_ context.Context, opts posts.ListOptions) ([]*posts.Post, error) {
	atomic.AddInt32(&f.calls, 1)
	f.lastOpts = opts
	if f.err != nil {
		return nil, f.err
	}
	var filtered []*posts.Post
	for _, p := range f.all {
		if opts.AuthorID == nil || p.AuthorID == *opts.AuthorID {
			filtered = append(filtered, p)
		}
	}
	if opts.Offset >= len(filtered) {
		return []*posts.Post{}, nil
	}
	end := opts.Offset + opts.Limit
	if end > len(filtered) {
		end = len(filtered)
	}
	return filtered[opts.Offset:end], nil
}

type fakeUsers struct {
	err   error
	byID  map[string]*users.User
	calls int32
}

func (f *fakeUsers) GetByIDs(_ context.Context, ids []string) (map[string]*users.User, error) {
	atomic.AddInt32(&f.calls, 1)
	if f.err != nil {
		return nil, f.err
	}
	out := map[string]*users.User{}
	for _, id := range ids {
		if u, ok := f.byID[id]; ok {
			out[id] = u
		}
	}
	return out, nil
}

func (f *fakeUsers) Resolve(_ context.Context, externalID string) (*users.User, error) {
	for _, u := range f.byID {
		if u.ExternalID == externalID {
			return u, nil
		}
	}
	return nil, users.ErrUserNotFound
}

type fakeLikes struct {
	countErr error
	likedErr error
	counts   map[string]int
	liked    map[string]map[string]bool // user -> post -> liked
	block    bool
	calls    int32
}

func (f *fakeLikes) CountByPosts(ctx context.Context, _ []string) (map[string]int, error) {
	atomic.AddInt32(&f.calls, 1)
	if f.block {
		<-ctx.Done()
		return nil, ctx.Err()
	}
	if f.countErr != nil {
		return nil, f.countErr
	}
	return f.counts, nil
}

func (f *fakeLikes) LikedPostIDs(_ context.Context, userID string, postIDs []string) (map[string]bool, error) {
	atomic.AddInt32(&f.calls, 1)
	if f.likedErr != nil {
		return nil, f.likedErr
	}
	out := map[string]bool{}
	for _, id := range postIDs {
		if f.liked[userID][id] {
			out[id] = true
		}
	}
	return out, nil
}

type fakeComments struct {
	countErr error
	listErr  error
	counts   map[string]int
	all      []*comments.Comment // newest first
	calls    int32
}

func (f *fakeComments) CountByPosts(context.Context, []string) (map[string]int, error) {
	atomic.AddInt32(&f.calls, 1)
	if f.countErr != nil {
		return nil, f.countErr
	}
	return f.counts, nil
}

func (f *fakeComments) ListByPosts(_ context.Context, postIDs []string) ([]*comments.Comment, error) {
	atomic.AddInt32(&f.calls, 1)
	if f.listErr != nil {
		return nil, f.listErr
	}
	want := map[string]bool{}
	for _, id := range postIDs {
		want[id] = true
	}
	var out []*comments.Comment
	for _, c := range f.all {
		if want[c.PostID] {
			out = append(out, c)
		}
	}
	return out, nil
}

type fixture struct {
	posts    *fakePosts
	users    *fakeUsers
	likes    *fakeLikes
	comments *fakeComments
	metrics  *metrics.Recorder
	svc      Service
}

// newFixture builds n posts p1..pn (p1 newest) alternating between alice and bob.
func newFixture(t *testing.T, n int) *fixture {
	t.Helper()
	f := &fixture{
		posts: &fakePosts{},
		users: &fakeUsers{byID: map[string]*users.User{
			"u-alice": {ID: "u-alice", ExternalID: "ext-alice", DisplayName: "Alice"},
			"u-bob":   {ID: "u-bob", ExternalID: "ext-bob", DisplayName: "Bob"},
		}},
		likes:    &fakeLikes{counts: map[string]int{}, liked: map[string]map[string]bool{}},
		comments: &fakeComments{counts: map[string]int{}},
		metrics:  metrics.NewRecorder(),
	}
	for i := 1; i <= n; i++ {
		author := "u-alice"
		if i%2 == 0 {
			author = "u-bob"
		}
		f.posts.all = append(f.posts.all, &posts.Post{
			ID:        fmt.Sprintf("p%d", i),
			AuthorID:  author,
			ImageURL:  fmt.Sprintf("http://cdn.test/media/%d.png", i),
			CreatedAt: base.Add(-time.Duration(i) * time.Minute),
		})
	}
	f.svc = NewFeedService(Config{
		Posts:             f.posts,
		Users:             f.users,
		Resolver:          f.users,
		Likes:             f.likes,
		Comments:          f.comments,
		Metrics:           f.metrics,
		EnrichmentTimeout: 200 * time.Millisecond,
	})
	return f
}

// degraded reads feed_enrichment_degraded_total{step} from the registry
func (f *fixture) degraded(t *testing.T, step string) float64 {
	t.Helper()
	families, err := f.metrics.Registry().Gather()
	require.NoError(t, err)
	for _, mf := range families {
		if mf.GetName() != "feed_enrichment_degraded_total" {
			continue
		}
		for _, m := range mf.GetMetric() {
			for _, label := range m.GetLabel() {
				if label.GetName() == "step" && label.GetValue() == step {
					return m.GetCounter().GetValue()
				}
			}
		}
	}
	return 0
}

func postIDs(page *Page) []string {
	ids := make([]string, len(page.Posts))
	for i, p := range page.Posts {
		ids[i] = p.ID
	}
	return ids
}

func TestRequestNormalize(t *testing.T) {
	tests := []struct {
		in         Request
		wantPage   int
		wantLimit  int
		wantOffset int
	}{
		{Request{}, 1, DefaultLimit, 0},
		{Request{Page: -3, Limit: -1}, 1, 1, 0},
		{Request{Limit: -50}, 1, 1, 0},
		{Request{Page: 3, Limit: 5}, 3, 5, 10},
		{Request{Page: 2, Limit: 500}, 2, MaxLimit, MaxLimit},
		{Request{Page: 1, Limit: 1}, 1, 1, 0},
		{Request{Page: math.MaxInt, Limit: MaxLimit}, MaxPage, MaxLimit, (MaxPage - 1) * MaxLimit},
	}
	for _, tt := range tests {
		got := tt.in.Normalize()
		assert.Equal(t, tt.wantPage, got.Page)
		assert.Equal(t, tt.wantLimit, got.Limit)
		assert.Equal(t, tt.wantOffset, got.Offset())
	}
}

func TestGetFeedPage_EnrichesWindow(t *testing.T) {
	f := newFixture(t, 3)
	f.likes.counts = map[string]int{"p1": 2, "p3": 1}
	f.comments.counts = map[string]int{"p1": 3}
	f.comments.all = []*comments.Comment{
		{ID: "c3", PostID: "p1", UserID: "u-bob", Content: "third", CreatedAt: base.Add(3 * time.Second)},
		{ID: "c2", PostID: "p1", UserID: "u-alice", Content: "second", CreatedAt: base.Add(2 * time.Second)},
		{ID: "c1", PostID: "p1", UserID: "u-gone", Content: "first", CreatedAt: base.Add(1 * time.Second)},
	}

	page, err := f.svc.GetFeedPage(context.Background(), Request{})
	require.NoError(t, err)

	assert.Equal(t, []string{"p1", "p2", "p3"}, postIDs(page))
	assert.False(t, page.HasMore)
	assert.Nil(t, page.NextPage)

	p1 := page.Posts[0]
	assert.Equal(t, 2, p1.LikesCount)
	assert.Equal(t, 3, p1.CommentsCount)
	assert.Equal(t, "Alice", p1.AuthorName)
	assert.Equal(t, "ext-alice", p1.AuthorExternalID)
	assert.Nil(t, p1.IsLiked)
	assert.Equal(t, "Bob", page.Posts[1].AuthorName)
	assert.Equal(t, 0, page.Posts[1].LikesCount)

	require.Len(t, page.CommentsByPostID, 3)
	previews := page.CommentsByPostID["p1"]
	require.Len(t, previews, 2)
	assert.Equal(t, "c3", previews[0].ID)
	assert.Equal(t, "Bob", previews[0].AuthorName)
	assert.Equal(t, "c2", previews[1].ID)
	assert.NotNil(t, page.CommentsByPostID["p2"])
	assert.Empty(t, page.CommentsByPostID["p2"])

	// One batched author lookup for posts and one for comment authors
	assert.Equal(t, int32(2), atomic.LoadInt32(&f.users.calls))
	assert.Equal(t, int32(1), atomic.LoadInt32(&f.likes.calls))
	assert.Equal(t, int32(2), atomic.LoadInt32(&f.comments.calls))
}

func TestGetFeedPage_ViewerOverlay(t *testing.T) {
	f := newFixture(t, 3)
	f.likes.liked["u-bob"] = map[string]bool{"p2": true}

	page, err := f.svc.GetFeedPage(context.Background(), Request{ViewerExternalID: "ext-bob"})
	require.NoError(t, err)

	for _, p := range page.Posts {
		require.NotNil(t, p.IsLiked, p.ID)
		assert.Equal(t, p.ID == "p2", *p.IsLiked, p.ID)
	}
}

func TestGetFeedPage_UnknownViewerOmitsOverlay(t *testing.T) {
	f := newFixture(t, 2)

	page, err := f.svc.GetFeedPage(context.Background(), Request{ViewerExternalID: "ext-nobody"})
	require.NoError(t, err)
	for _, p := range page.Posts {
		assert.Nil(t, p.IsLiked)
	}
	assert.Equal(t, 0.0, f.degraded(t, metrics.StepViewerOverlay))
}

func TestGetFeedPage_Pagination(t *testing.T) {
	f := newFixture(t, 5)
	ctx := context.Background()

	page, err := f.svc.GetFeedPage(ctx, Request{Page: 1, Limit: 2})
	require.NoError(t, err)
	assert.Equal(t, []string{"p1", "p2"}, postIDs(page))
	assert.True(t, page.HasMore)
	require.NotNil(t, page.NextPage)
	assert.Equal(t, 2, *page.NextPage)

	page, err = f.svc.GetFeedPage(ctx, Request{Page: 3, Limit: 2})
	require.NoError(t, err)
	assert.Equal(t, []string{"p5"}, postIDs(page))
	assert.False(t, page.HasMore)
	assert.Nil(t, page.NextPage)
}

func TestGetFeedPage_ExactlyFullLastPageReportsMore(t *testing.T) {
	f := newFixture(t, 4)
	ctx := context.Background()

	page, err := f.svc.GetFeedPage(ctx, Request{Page: 2, Limit: 2})
	require.NoError(t, err)
	assert.True(t, page.HasMore)

	page, err = f.svc.GetFeedPage(ctx, Request{Page: 3, Limit: 2})
	require.NoError(t, err)
	assert.Empty(t, page.Posts)
	assert.False(t, page.HasMore)
}

func TestGetFeedPage_HugePageIsEmpty(t *testing.T) {
	f := newFixture(t, 3)

	page, err := f.svc.GetFeedPage(context.Background(), Request{Page: math.MaxInt, Limit: 10})
	require.NoError(t, err)
	assert.Empty(t, page.Posts)
	assert.False(t, page.HasMore)
	assert.Nil(t, page.NextPage)
	assert.Positive(t, f.posts.lastOpts.Offset)
}

func TestGetFeedPage_EmptyWindowSkipsEnrichment(t *testing.T) {
	f := newFixture(t, 0)

	page, err := f.svc.GetFeedPage(context.Background(), Request{ViewerExternalID: "ext-alice"})
	require.NoError(t, err)

	assert.NotNil(t, page.Posts)
	assert.Empty(t, page.Posts)
	assert.NotNil(t, page.CommentsByPostID)
	assert.False(t, page.HasMore)
	assert.Nil(t, page.NextPage)
	assert.Zero(t, atomic.LoadInt32(&f.users.calls))
	assert.Zero(t, atomic.LoadInt32(&f.likes.calls))
	assert.Zero(t, atomic.LoadInt32(&f.comments.calls))

	body, err := json.Marshal(page)
	require.NoError(t, err)
	assert.JSONEq(t, `{"posts":[],"commentsByPostId":{},"hasMore":false,"nextPage":null}`, string(body))
}

func TestGetFeedPage_AuthorFilter(t *testing.T) {
	f := newFixture(t, 4)
	author := "u-bob"

	page, err := f.svc.GetFeedPage(context.Background(), Request{AuthorID: &author})
	require.NoError(t, err)
	assert.Equal(t, []string{"p2", "p4"}, postIDs(page))
	require.NotNil(t, f.posts.lastOpts.AuthorID)
	assert.Equal(t, "u-bob", *f.posts.lastOpts.AuthorID)
}

func TestGetFeedPage_PrimaryFailure(t *testing.T) {
	f := newFixture(t, 2)
	f.posts.err = errors.New("db down")

	page, err := f.svc.GetFeedPage(context.Background(), Request{})
	assert.Nil(t, page)
	assert.ErrorIs(t, err, apperr.ErrStorageFailure)
}

func TestGetFeedPage_DegradesEachStep(t *testing.T) {
	f := newFixture(t, 2)
	f.likes.counts = map[string]int{"p1": 4}
	f.likes.liked["u-alice"] = map[string]bool{"p1": true}
	f.comments.all = []*comments.Comment{{ID: "c1", PostID: "p1", UserID: "u-bob", Content: "hi", CreatedAt: base}}

	f.users.err = errors.New("users down")
	f.likes.countErr = errors.New("likes down")
	f.likes.likedErr = errors.New("likes down")
	f.comments.countErr = errors.New("comments down")

	page, err := f.svc.GetFeedPage(context.Background(), Request{ViewerExternalID: "ext-alice"})
	require.NoError(t, err)
	require.Len(t, page.Posts, 2)

	for _, p := range page.Posts {
		assert.Equal(t, users.UnknownAuthorName, p.AuthorName)
		assert.Empty(t, p.AuthorExternalID)
		assert.Zero(t, p.LikesCount)
		assert.Zero(t, p.CommentsCount)
		assert.Nil(t, p.IsLiked)
	}

	// Previews survive with unknown authors
	require.Len(t, page.CommentsByPostID["p1"], 1)
	assert.Equal(t, users.UnknownAuthorName, page.CommentsByPostID["p1"][0].AuthorName)

	assert.Equal(t, 1.0, f.degraded(t, metrics.StepAuthors))
	assert.Equal(t, 1.0, f.degraded(t, metrics.StepLikeCounts))
	assert.Equal(t, 1.0, f.degraded(t, metrics.StepCommentCounts))
	assert.Equal(t, 1.0, f.degraded(t, metrics.StepViewerOverlay))
	assert.Equal(t, 1.0, f.degraded(t, metrics.StepCommentAuthors))
}

func TestGetFeedPage_CommentListFailureEmptiesPreviews(t *testing.T) {
	f := newFixture(t, 2)
	f.comments.listErr = errors.New("comments down")

	page, err := f.svc.GetFeedPage(context.Background(), Request{})
	require.NoError(t, err)
	require.Len(t, page.CommentsByPostID, 2)
	for _, id := range []string{"p1", "p2"} {
		assert.NotNil(t, page.CommentsByPostID[id])
		assert.Empty(t, page.CommentsByPostID[id])
	}
	assert.Equal(t, 1.0, f.degraded(t, metrics.StepCommentPreview))
}

func TestGetFeedPage_SlowStepTimesOut(t *testing.T) {
	f := newFixture(t, 1)
	f.likes.block = true

	start := time.Now()
	page, err := f.svc.GetFeedPage(context.Background(), Request{})
	require.NoError(t, err)

	assert.Less(t, time.Since(start), 2*time.Second)
	assert.Zero(t, page.Posts[0].LikesCount)
	assert.Equal(t, "Alice", page.Posts[0].AuthorName)
	assert.Equal(t, 1.0, f.degraded(t, metrics.StepLikeCounts))
}
