package models

import "time"

// Location is an optional place attached to posts.
type Location struct {
	ID          uint      `gorm:"primaryKey" json:"id"`
	Name        string    `gorm:"size:256;not null" json:"name"`
	IsPublished bool      `gorm:"not null" json:"is_published"`
	CreatedAt   time.Time `json:"created_at"`
}

// NewLocation returns a published location created at now.
func NewLocation(name string, now time.Time) Location {
	return Location{Name: name, IsPublished: true, CreatedAt: now}
}
