package blog

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/cppla/blogicum/models"
)

func TestCanModify(t *testing.T) {
	post := models.Post{AuthorID: 3}
	comment := models.Comment{AuthorID: 4}

	tests := []struct {
		name   string
		viewer Viewer
		record Owned
		want   bool
	}{
		{"author of post", Viewer{ID: 3}, post, true},
		{"other user on post", Viewer{ID: 4}, post, false},
		{"anonymous on post", Anonymous(), post, false},
		{"author of comment", Viewer{ID: 4}, comment, true},
		{"other user on comment", Viewer{ID: 3}, comment, false},
		{"anonymous on ownerless record", Anonymous(), models.Post{}, false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			first := CanModify(tt.viewer, tt.record)
			assert.Equal(t, tt.want, first)
			assert.Equal(t, first, CanModify(tt.viewer, tt.record), "same inputs, same answer")
		})
	}
}

func TestViewerAuthenticated(t *testing.T) {
	assert.False(t, Anonymous().Authenticated())
	assert.False(t, Viewer{Username: "ghost"}.Authenticated())
	assert.True(t, Viewer{ID: 1}.Authenticated())
}
