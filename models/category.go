package models

import "time"

// Category groups posts under a URL slug. Unpublishing a category hides all of its posts.
type Category struct {
	ID          uint      `gorm:"primaryKey" json:"id"`
	Title       string    `gorm:"size:256;not null" json:"title"`
	Description string    `gorm:"type:text;not null" json:"description"`
	Slug        string    `gorm:"size:64;uniqueIndex;not null" json:"slug"`
	IsPublished bool      `gorm:"not null" json:"is_published"`
	CreatedAt   time.Time `json:"created_at"`
}

// NewCategory returns a published category created at now.
func NewCategory(title, description, slug string, now time.Time) Category {
	return Category{
		Title:       title,
		Description: description,
		Slug:        slug,
		IsPublished: true,
		CreatedAt:   now,
	}
}
