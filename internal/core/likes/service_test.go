package likes

import (
	"context"
	"errors"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"Picfeed/internal/core/apperr"
	"Picfeed/internal/core/users"
	"Picfeed/internal/metrics"
)

type mockResolver struct {
	mock.Mock
}

func (m *mockResolver) Resolve(ctx context.Context, externalID string) (*users.User, error) {
	args := m.Called(ctx, externalID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*users.User), args.Error(1)
}

// memoryRepo enforces (post_id, user_id) uniqueness like the real table.
type memoryRepo struct {
	rows     map[[2]string]bool
	countErr error
	mu       sync.Mutex
}

func newMemoryRepo() *memoryRepo {
	return &memoryRepo{rows: map[[2]string]bool{}}
}

func (r *memoryRepo) Create(_ context.Context, like *Like) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	key := [2]string{like.PostID, like.UserID}
	if r.rows[key] {
		return ErrAlreadyLiked
	}
	r.rows[key] = true
	return nil
}

func (r *memoryRepo) Delete(_ context.Context, postID, userID string) (bool, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	key := [2]string{postID, userID}
	if !r.rows[key] {
		return false, nil
	}
	delete(r.rows, key)
	return true, nil
}

func (r *memoryRepo) CountByPost(_ context.Context, postID string) (int, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.countErr != nil {
		return 0, r.countErr
	}
	n := 0
	for key := range r.rows {
		if key[0] == postID {
			n++
		}
	}
	return n, nil
}

func (r *memoryRepo) CountByPosts(ctx context.Context, postIDs []string) (map[string]int, error) {
	out := map[string]int{}
	for _, id := range postIDs {
		n, err := r.CountByPost(ctx, id)
		if err != nil {
			return nil, err
		}
		if n > 0 {
			out[id] = n
		}
	}
	return out, nil
}

func (r *memoryRepo) LikedPostIDs(_ context.Context, userID string, postIDs []string) (map[string]bool, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := map[string]bool{}
	for _, id := range postIDs {
		if r.rows[[2]string{id, userID}] {
			out[id] = true
		}
	}
	return out, nil
}

var (
	alice = &users.User{ID: "u-alice", ExternalID: "ext-alice"}
	bob   = &users.User{ID: "u-bob", ExternalID: "ext-bob"}
)

func knownPosts(ids ...string) PostChecker {
	return PostExistsFunc(func(_ context.Context, postID string) (bool, error) {
		for _, id := range ids {
			if id == postID {
				return true, nil
			}
		}
		return false, nil
	})
}

func newTestService(repo Repository, posts PostChecker) (Service, *mockResolver) {
	resolver := new(mockResolver)
	resolver.On("Resolve", mock.Anything, "ext-alice").Return(alice, nil).Maybe()
	resolver.On("Resolve", mock.Anything, "ext-bob").Return(bob, nil).Maybe()
	resolver.On("Resolve", mock.Anything, "ext-ghost").Return(nil, users.ErrUserNotFound).Maybe()
	return NewService(repo, posts, resolver, metrics.NewRecorder(), nil), resolver
}

func TestAddRemoveLike_RoundTrip(t *testing.T) {
	ctx := context.Background()
	svc, _ := newTestService(newMemoryRepo(), knownPosts("p1"))

	resp, err := svc.AddLike(ctx, "p1", "ext-alice")
	require.NoError(t, err)
	assert.True(t, resp.Success)
	assert.Equal(t, 1, resp.LikesCount)

	resp, err = svc.AddLike(ctx, "p1", "ext-bob")
	require.NoError(t, err)
	assert.Equal(t, 2, resp.LikesCount)

	resp, err = svc.RemoveLike(ctx, "p1", "ext-alice")
	require.NoError(t, err)
	assert.Equal(t, 1, resp.LikesCount)

	resp, err = svc.RemoveLike(ctx, "p1", "ext-bob")
	require.NoError(t, err)
	assert.Equal(t, 0, resp.LikesCount)
}

func TestAddLike_AlreadyLiked(t *testing.T) {
	ctx := context.Background()
	repo := newMemoryRepo()
	svc, _ := newTestService(repo, knownPosts("p1"))

	_, err := svc.AddLike(ctx, "p1", "ext-alice")
	require.NoError(t, err)

	_, err = svc.AddLike(ctx, "p1", "ext-alice")
	assert.ErrorIs(t, err, ErrAlreadyLiked)
	assert.ErrorIs(t, err, apperr.ErrConflict)

	count, err := repo.CountByPost(ctx, "p1")
	require.NoError(t, err)
	assert.Equal(t, 1, count)
}

func TestRemoveLike_Idempotent(t *testing.T) {
	ctx := context.Background()
	svc, _ := newTestService(newMemoryRepo(), knownPosts("p1"))

	for i := 0; i < 2; i++ {
		resp, err := svc.RemoveLike(ctx, "p1", "ext-alice")
		require.NoError(t, err)
		assert.Equal(t, 0, resp.LikesCount)
	}
}

func TestAddLike_Errors(t *testing.T) {
	ctx := context.Background()

	tests := []struct {
		name     string
		postID   string
		viewer   string
		posts    PostChecker
		wantErr  error
		wantKind error
	}{
		{name: "missing post id", postID: " ", viewer: "ext-alice", posts: knownPosts("p1"), wantErr: ErrMissingPostID, wantKind: apperr.ErrInvalidInput},
		{name: "no viewer", postID: "p1", viewer: "", posts: knownPosts("p1"), wantErr: ErrMissingViewer, wantKind: apperr.ErrUnauthenticated},
		{name: "viewer without row", postID: "p1", viewer: "ext-ghost", posts: knownPosts("p1"), wantErr: users.ErrUserNotFound, wantKind: apperr.ErrNotFound},
		{name: "unknown post", postID: "p2", viewer: "ext-alice", posts: knownPosts("p1"), wantErr: ErrPostNotFound, wantKind: apperr.ErrNotFound},
		{
			name:   "post check fails",
			postID: "p1",
			viewer: "ext-alice",
			posts: PostExistsFunc(func(context.Context, string) (bool, error) {
				return false, errors.New("db down")
			}),
			wantKind: apperr.ErrStorageFailure,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			repo := newMemoryRepo()
			svc, _ := newTestService(repo, tt.posts)

			resp, err := svc.AddLike(ctx, tt.postID, tt.viewer)
			assert.Nil(t, resp)
			if tt.wantErr != nil {
				assert.ErrorIs(t, err, tt.wantErr)
			}
			assert.ErrorIs(t, err, tt.wantKind)
			assert.Empty(t, repo.rows)
		})
	}
}

func TestRemoveLike_RequiresViewer(t *testing.T) {
	svc, _ := newTestService(newMemoryRepo(), knownPosts("p1"))

	_, err := svc.RemoveLike(context.Background(), "p1", "")
	assert.ErrorIs(t, err, apperr.ErrUnauthenticated)

	_, err = svc.RemoveLike(context.Background(), "p1", "ext-ghost")
	assert.ErrorIs(t, err, users.ErrUserNotFound)
}

func TestAddLike_CountFailureAfterWriteStillSucceeds(t *testing.T) {
	repo := newMemoryRepo()
	repo.countErr = errors.New("timeout")
	svc, _ := newTestService(repo, knownPosts("p1"))

	resp, err := svc.AddLike(context.Background(), "p1", "ext-alice")
	require.NoError(t, err)
	assert.True(t, resp.Success)
	assert.Equal(t, 0, resp.LikesCount)
	assert.Len(t, repo.rows, 1)
}

func TestAddLike_ConcurrentSameViewer(t *testing.T) {
	ctx := context.Background()
	repo := newMemoryRepo()
	svc, _ := newTestService(repo, knownPosts("p1"))

	const attempts = 20
	var (
		wg        sync.WaitGroup
		mu        sync.Mutex
		successes int
		conflicts int
	)
	for i := 0; i < attempts; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_, err := svc.AddLike(ctx, "p1", "ext-alice")
			mu.Lock()
			defer mu.Unlock()
			switch {
			case err == nil:
				successes++
			case errors.Is(err, ErrAlreadyLiked):
				conflicts++
			}
		}()
	}
	wg.Wait()

	assert.Equal(t, 1, successes)
	assert.Equal(t, attempts-1, conflicts)

	count, err := repo.CountByPost(ctx, "p1")
	require.NoError(t, err)
	assert.Equal(t, 1, count)
}
