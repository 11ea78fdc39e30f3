package blog

import (
	"context"
	"fmt"

	"gorm.io/gorm"

	"github.com/cppla/blogicum/models"
)

// Store performs the multi-row deletes of the schema. Posts referencing a removed
// category or location are kept with the reference cleared; removing a post removes
// its comments, and removing a user removes everything they authored.
type Store struct {
	db *gorm.DB
}

// NewStore wraps db.
func NewStore(db *gorm.DB) *Store {
	return &Store{db: db}
}

// DeletePost removes a post and its comments.
func (s *Store) DeletePost(ctx context.Context, postID uint) error {
	return s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Where("post_id = ?", postID).Delete(&models.Comment{}).Error; err != nil {
			return fmt.Errorf("delete comments of post %d: %w", postID, err)
		}
		res := tx.Delete(&models.Post{}, postID)
		if res.Error != nil {
			return fmt.Errorf("delete post %d: %w", postID, res.Error)
		}
		if res.RowsAffected == 0 {
			return ErrNotFound
		}
		return nil
	})
}

// DeleteComment removes a single comment.
func (s *Store) DeleteComment(ctx context.Context, commentID uint) error {
	res := s.db.WithContext(ctx).Delete(&models.Comment{}, commentID)
	if res.Error != nil {
		return fmt.Errorf("delete comment %d: %w", commentID, res.Error)
	}
	if res.RowsAffected == 0 {
		return ErrNotFound
	}
	return nil
}

// DeleteCategory removes a category and clears it from its posts.
func (s *Store) DeleteCategory(ctx context.Context, categoryID uint) error {
	return s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Model(&models.Post{}).Where("category_id = ?", categoryID).
			Update("category_id", nil).Error; err != nil {
			return fmt.Errorf("detach posts from category %d: %w", categoryID, err)
		}
		res := tx.Delete(&models.Category{}, categoryID)
		if res.Error != nil {
			return fmt.Errorf("delete category %d: %w", categoryID, res.Error)
		}
		if res.RowsAffected == 0 {
			return ErrNotFound
		}
		return nil
	})
}

// DeleteLocation removes a location and clears it from its posts.
func (s *Store) DeleteLocation(ctx context.Context, locationID uint) error {
	return s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Model(&models.Post{}).Where("location_id = ?", locationID).
			Update("location_id", nil).Error; err != nil {
			return fmt.Errorf("detach posts from location %d: %w", locationID, err)
		}
		res := tx.Delete(&models.Location{}, locationID)
		if res.Error != nil {
			return fmt.Errorf("delete location %d: %w", locationID, res.Error)
		}
		if res.RowsAffected == 0 {
			return ErrNotFound
		}
		return nil
	})
}

// DeleteUser removes a user, their posts (with all comments on them) and their
// comments on other posts. It returns the image names of the removed posts.
func (s *Store) DeleteUser(ctx context.Context, userID uint) ([]string, error) {
	var images []string
	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var posts []models.Post
		if err := tx.Select("id", "image").Where("author_id = ?", userID).Find(&posts).Error; err != nil {
			return fmt.Errorf("load posts of user %d: %w", userID, err)
		}
		ids := make([]uint, 0, len(posts))
		for _, p := range posts {
			ids = append(ids, p.ID)
			if p.Image != "" {
				images = append(images, p.Image)
			}
		}
		if len(ids) > 0 {
			if err := tx.Where("post_id IN ?", ids).Delete(&models.Comment{}).Error; err != nil {
				return fmt.Errorf("delete comments on posts of user %d: %w", userID, err)
			}
			if err := tx.Where("id IN ?", ids).Delete(&models.Post{}).Error; err != nil {
				return fmt.Errorf("delete posts of user %d: %w", userID, err)
			}
		}
		if err := tx.Where("author_id = ?", userID).Delete(&models.Comment{}).Error; err != nil {
			return fmt.Errorf("delete comments of user %d: %w", userID, err)
		}
		res := tx.Delete(&models.User{}, userID)
		if res.Error != nil {
			return fmt.Errorf("delete user %d: %w", userID, res.Error)
		}
		if res.RowsAffected == 0 {
			return ErrNotFound
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return images, nil
}
