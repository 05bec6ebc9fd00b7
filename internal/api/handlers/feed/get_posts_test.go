package feed

import (
	"context"
	"encoding/json"
	"errors"
	"math"
	"net/http"
	"net/http/httptest"
	"testing"

	"Picfeed/internal/api/middleware"
	"Picfeed/internal/core/apperr"
	"Picfeed/internal/core/feed"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeFeedService struct {
	err  error
	page *feed.Page
	got  *feed.Request
}

func (f *fakeFeedService) GetFeedPage(_ context.Context, req feed.Request) (*feed.Page, error) {
	f.got = &req
	if f.err != nil {
		return nil, f.err
	}
	return f.page, nil
}

func emptyPage() *feed.Page {
	return &feed.Page{
		Posts:            []*feed.PostView{},
		CommentsByPostID: map[string][]*feed.CommentPreview{},
	}
}

func TestGetPosts_ParsesQuery(t *testing.T) {
	authorID := "0b7a0c38-58a0-4c38-9b5e-8f0a4d2c1e11"
	tests := []struct {
		name       string
		query      string
		viewer     string
		wantAuthor *string
		wantPage   int
		wantLimit  int
	}{
		{"defaults", "", "", nil, 0, 0},
		{"explicit", "?page=3&limit=20", "", nil, 3, 20},
		{"zero limit", "?limit=0", "", nil, 0, 1},
		{"negative limit", "?limit=-5", "", nil, 0, 1},
		{"huge page", "?page=9223372036854775807", "", nil, math.MaxInt, 0},
		{"author filter", "?userId=" + authorID, "", &authorID, 0, 0},
		{"viewer", "?page=2", "user_alice", nil, 2, 0},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			svc := &fakeFeedService{page: emptyPage()}
			handler := NewGetPostsHandler(svc, nil)

			req := httptest.NewRequest(http.MethodGet, "/posts"+tt.query, nil)
			if tt.viewer != "" {
				req = req.WithContext(middleware.SetTestExternalID(req.Context(), tt.viewer))
			}
			w := httptest.NewRecorder()
			handler.HandleGetPosts(w, req)

			require.Equal(t, http.StatusOK, w.Code)
			require.NotNil(t, svc.got)
			assert.Equal(t, tt.wantPage, svc.got.Page)
			assert.Equal(t, tt.wantLimit, svc.got.Limit)
			assert.Equal(t, tt.viewer, svc.got.ViewerExternalID)
			assert.Equal(t, tt.wantAuthor, svc.got.AuthorID)
		})
	}
}

func TestGetPosts_RejectsMalformedQuery(t *testing.T) {
	for _, query := range []string{"?page=abc", "?limit=1.5", "?userId=not-a-uuid"} {
		t.Run(query, func(t *testing.T) {
			svc := &fakeFeedService{page: emptyPage()}
			handler := NewGetPostsHandler(svc, nil)

			w := httptest.NewRecorder()
			handler.HandleGetPosts(w, httptest.NewRequest(http.MethodGet, "/posts"+query, nil))

			assert.Equal(t, http.StatusBadRequest, w.Code)
			assert.Nil(t, svc.got)
		})
	}
}

func TestGetPosts_EmptyPageBody(t *testing.T) {
	handler := NewGetPostsHandler(&fakeFeedService{page: emptyPage()}, nil)

	w := httptest.NewRecorder()
	handler.HandleGetPosts(w, httptest.NewRequest(http.MethodGet, "/posts", nil))

	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "application/json", w.Header().Get("Content-Type"))
	assert.JSONEq(t, `{"posts":[],"commentsByPostId":{},"hasMore":false,"nextPage":null}`, w.Body.String())
}

func TestGetPosts_ServiceFailure(t *testing.T) {
	handler := NewGetPostsHandler(&fakeFeedService{err: apperr.Storage("list posts", errors.New("connection reset"))}, nil)

	w := httptest.NewRecorder()
	handler.HandleGetPosts(w, httptest.NewRequest(http.MethodGet, "/posts", nil))

	assert.Equal(t, http.StatusInternalServerError, w.Code)
	var body map[string]string
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &body))
	assert.Equal(t, "InternalServerError", body["error"])
	assert.NotContains(t, body["message"], "connection reset")
}
