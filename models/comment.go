package models

import "time"

// Comment represents a reply to a post.
type Comment struct {
	ID        uint      `gorm:"primaryKey" json:"id"`
	Text      string    `gorm:"type:text;not null" json:"text"`
	PostID    uint      `gorm:"index;not null" json:"post_id"`
	AuthorID  uint      `gorm:"index;not null" json:"author_id"`
	Author    User      `gorm:"foreignKey:AuthorID" json:"author"`
	CreatedAt time.Time `gorm:"index" json:"created_at"`
}

// NewComment returns a comment by authorID on postID, created at now.
func NewComment(postID, authorID uint, text string, now time.Time) Comment {
	return Comment{
		PostID:    postID,
		AuthorID:  authorID,
		Text:      text,
		CreatedAt: now,
	}
}

// OwnerID returns the author of the comment.
func (c Comment) OwnerID() uint { return c.AuthorID }
