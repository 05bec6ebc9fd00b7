package client

import (
	"context"
	"errors"
	"fmt"
	"sync"

	"Picfeed/internal/core/posts"
)

// ErrAuthRequired is returned when a signed-out actor attempts a write.
// The action is dropped, never queued for after sign-in.
var ErrAuthRequired = errors.New("authentication required")

// AuthRequiredError carries where the actor should be sent to sign in
type AuthRequiredError struct {
	RedirectTo string
}

func (e *AuthRequiredError) Error() string {
	return fmt.Sprintf("authentication required: sign in at %s", e.RedirectTo)
}

func (e *AuthRequiredError) Unwrap() error {
	return ErrAuthRequired
}

// LikeAPI performs like writes against the server
type LikeAPI interface {
	Like(ctx context.Context, postID string) (int, error)
	Unlike(ctx context.Context, postID string) (int, error)
}

// PostAPI performs post creation against the server
type PostAPI interface {
	CreatePost(ctx context.Context, p NewPost) (*posts.Post, error)
}

// CoordinatorConfig configures a Coordinator
type CoordinatorConfig struct {
	Likes         LikeAPI
	Posts         PostAPI
	Authenticated func() bool // Reports whether the actor is signed in
	SignInURL     string
}

// Coordinator drives per-post like state against the API and guards writes behind sign-in
type Coordinator struct {
	likes         LikeAPI
	posts         PostAPI
	authenticated func() bool
	states        map[string]*LikeState
	signInURL     string
	mu            sync.Mutex
}

// NewCoordinator creates a coordinator
func NewCoordinator(cfg CoordinatorConfig) *Coordinator {
	authenticated := cfg.Authenticated
	if authenticated == nil {
		authenticated = func() bool { return false }
	}
	signIn := cfg.SignInURL
	if signIn == "" {
		signIn = "/sign-in"
	}
	return &Coordinator{
		likes:         cfg.Likes,
		posts:         cfg.Posts,
		authenticated: authenticated,
		states:        make(map[string]*LikeState),
		signInURL:     signIn,
	}
}

// Track registers a post's server-provided like state, replacing any idle state.
// A pending toggle is left alone so its response can still reconcile.
func (c *Coordinator) Track(postID string, liked bool, count int) *LikeState {
	c.mu.Lock()
	defer c.mu.Unlock()

	if s, ok := c.states[postID]; ok && s.Snapshot().Phase == PhasePending {
		return s
	}
	s := NewLikeState(liked, count)
	c.states[postID] = s
	return s
}

// State returns the tracked state for postID, or nil
func (c *Coordinator) State(postID string) *LikeState {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.states[postID]
}

// ToggleLike flips the like optimistically, then reconciles with the server
func (c *Coordinator) ToggleLike(ctx context.Context, postID string) (Snapshot, error) {
	return c.run(ctx, postID, (*LikeState).Toggle)
}

// DoubleTapLike likes the post; already-liked posts are left untouched
func (c *Coordinator) DoubleTapLike(ctx context.Context, postID string) (Snapshot, error) {
	return c.run(ctx, postID, (*LikeState).DoubleTap)
}

func (c *Coordinator) run(ctx context.Context, postID string, transition func(*LikeState) (Action, error)) (Snapshot, error) {
	state := c.State(postID)
	if state == nil {
		state = c.Track(postID, false, 0)
	}
	if !c.authenticated() {
		return state.Snapshot(), c.authRequired()
	}

	action, err := transition(state)
	if err != nil {
		return state.Snapshot(), err
	}

	var count int
	switch action {
	case ActionNone:
		return state.Snapshot(), nil
	case ActionLike:
		count, err = c.likes.Like(ctx, postID)
	case ActionUnlike:
		count, err = c.likes.Unlike(ctx, postID)
	}

	if err != nil {
		state.Fail(err)
		if IsAuthError(err) {
			return state.Snapshot(), fmt.Errorf("%w: %w", c.authRequired(), err)
		}
		return state.Snapshot(), err
	}
	state.Resolve(count)
	return state.Snapshot(), nil
}

// CreatePost uploads a post for a signed-in actor
func (c *Coordinator) CreatePost(ctx context.Context, p NewPost) (*posts.Post, error) {
	if !c.authenticated() {
		return nil, c.authRequired()
	}
	post, err := c.posts.CreatePost(ctx, p)
	if err != nil {
		if IsAuthError(err) {
			return nil, fmt.Errorf("%w: %w", c.authRequired(), err)
		}
		return nil, err
	}
	return post, nil
}

func (c *Coordinator) authRequired() error {
	return &AuthRequiredError{RedirectTo: c.signInURL}
}
