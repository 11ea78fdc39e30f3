package blog

import (
	"time"

	"gorm.io/gorm"

	"github.com/cppla/blogicum/models"
)

// Published restricts a posts query to live posts: published, pub_date before now
// and either uncategorized or in a published category. A non-empty slug further
// restricts the result to that category.
func Published(now time.Time, slug string) func(*gorm.DB) *gorm.DB {
	return func(db *gorm.DB) *gorm.DB {
		db = db.Joins("LEFT JOIN categories ON categories.id = posts.category_id").
			Where("posts.is_published = ? AND posts.pub_date < ?", true, now).
			Where("(posts.category_id IS NULL OR categories.is_published = ?)", true)
		if slug != "" {
			db = db.Where("categories.slug = ?", slug)
		}
		return db
	}
}

// IsLive evaluates the Published predicate on a loaded post.
// The post's Category must be loaded when CategoryID is set.
func IsLive(p models.Post, now time.Time) bool {
	if !p.IsPublished || !p.PubDate.Before(now) {
		return false
	}
	if p.CategoryID == nil {
		return true
	}
	return p.Category != nil && p.Category.IsPublished
}

// CanView reports whether v may see p: authors always, others only while it is live.
func CanView(v Viewer, p models.Post, now time.Time) bool {
	if v.Authenticated() && v.ID == p.AuthorID {
		return true
	}
	return IsLive(p, now)
}

// postColumns selects post columns plus the number of comments on each post.
const postColumns = "posts.*, (SELECT COUNT(*) FROM comments WHERE comments.post_id = posts.id) AS comment_count"

// newestFirst orders listings by publication date, newest first.
const newestFirst = "posts.pub_date DESC, posts.id DESC"
