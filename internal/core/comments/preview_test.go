package comments

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestGroupRecent(t *testing.T) {
	base := time.Date(2024, 1, 15, 10, 0, 0, 0, time.UTC)
	c := func(id, postID string, minutes int) *Comment {
		return &Comment{ID: id, PostID: postID, CreatedAt: base.Add(time.Duration(minutes) * time.Minute)}
	}

	// Newest first, as returned by ListByPosts
	all := []*Comment{
		c("c5", "p1", 5),
		c("c4", "p2", 4),
		c("c3", "p1", 3),
		c("c2", "p1", 2),
		c("c1", "stray", 1),
	}

	grouped := GroupRecent([]string{"p1", "p2", "p3"}, all, PreviewSize)

	require.Len(t, grouped, 3)
	assert.Equal(t, []*Comment{all[0], all[2]}, grouped["p1"])
	assert.Equal(t, []*Comment{all[1]}, grouped["p2"])
	assert.NotNil(t, grouped["p3"])
	assert.Empty(t, grouped["p3"])
	assert.NotContains(t, grouped, "stray")
}

func TestGroupRecent_Empty(t *testing.T) {
	grouped := GroupRecent(nil, nil, PreviewSize)
	assert.NotNil(t, grouped)
	assert.Empty(t, grouped)
}
