package models

import "time"

// Post is a publication. It is visible to other users only while published,
// past its pub_date and not inside an unpublished category.
type Post struct {
	ID          uint      `gorm:"primaryKey" json:"id"`
	Title       string    `gorm:"size:256;not null" json:"title"`
	Text        string    `gorm:"type:text;not null" json:"text"`
	Image       string    `gorm:"size:512" json:"image"`
	PubDate     time.Time `gorm:"index;not null" json:"pub_date"`
	IsPublished bool      `gorm:"index;not null" json:"is_published"`
	CreatedAt   time.Time `json:"created_at"`
	AuthorID    uint      `gorm:"index;not null" json:"author_id"`
	Author      User      `gorm:"foreignKey:AuthorID" json:"author"`
	LocationID  *uint     `gorm:"index" json:"location_id"`
	Location    *Location `json:"location,omitempty"`
	CategoryID  *uint     `gorm:"index" json:"category_id"`
	Category    *Category `json:"category,omitempty"`

	// CommentCount is filled by listing queries only.
	CommentCount int64 `gorm:"->;-:migration" json:"comment_count"`
}

// NewPost returns a published post owned by authorID, created at now.
func NewPost(authorID uint, now time.Time) Post {
	return Post{
		AuthorID:    authorID,
		IsPublished: true,
		PubDate:     now,
		CreatedAt:   now,
	}
}

// OwnerID returns the author of the post.
func (p Post) OwnerID() uint { return p.AuthorID }
