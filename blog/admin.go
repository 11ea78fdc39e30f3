package blog

import (
	"context"
	"errors"
	"fmt"

	"gorm.io/gorm"

	"github.com/cppla/blogicum/models"
)

// AllPosts lists every post regardless of visibility, newest first.
func (s *Service) AllPosts(ctx context.Context, page int) (PostList, error) {
	return s.listPosts(ctx, page)
}

// CreateCategory adds a category. Slugs are unique.
func (s *Service) CreateCategory(ctx context.Context, in CategoryInput) (models.Category, error) {
	errs := &ValidationError{}
	c := in.clean(s.limits, errs)
	if err := s.checkSlug(ctx, c.Slug, 0, errs); err != nil {
		return models.Category{}, err
	}
	if err := errs.Err(); err != nil {
		return models.Category{}, err
	}
	category := models.NewCategory(c.Title, c.Description, c.Slug, s.clock())
	if c.IsPublished != nil {
		category.IsPublished = *c.IsPublished
	}
	if err := s.db.WithContext(ctx).Create(&category).Error; err != nil {
		return models.Category{}, fmt.Errorf("create category: %w", err)
	}
	return category, nil
}

// UpdateCategory replaces a category's fields.
func (s *Service) UpdateCategory(ctx context.Context, categoryID uint, in CategoryInput) (models.Category, error) {
	var category models.Category
	if err := s.first(ctx, &category, categoryID); err != nil {
		return models.Category{}, err
	}
	errs := &ValidationError{}
	c := in.clean(s.limits, errs)
	if err := s.checkSlug(ctx, c.Slug, category.ID, errs); err != nil {
		return models.Category{}, err
	}
	if err := errs.Err(); err != nil {
		return models.Category{}, err
	}
	updates := map[string]interface{}{
		"title":       c.Title,
		"description": c.Description,
		"slug":        c.Slug,
	}
	if c.IsPublished != nil {
		updates["is_published"] = *c.IsPublished
	}
	if err := s.db.WithContext(ctx).Model(&models.Category{}).Where("id = ?", category.ID).Updates(updates).Error; err != nil {
		return models.Category{}, fmt.Errorf("update category %d: %w", category.ID, err)
	}
	if err := s.first(ctx, &category, category.ID); err != nil {
		return models.Category{}, err
	}
	return category, nil
}

// DeleteCategory removes a category; its posts stay, uncategorized.
func (s *Service) DeleteCategory(ctx context.Context, categoryID uint) error {
	return s.store.DeleteCategory(ctx, categoryID)
}

// CreateLocation adds a location.
func (s *Service) CreateLocation(ctx context.Context, in LocationInput) (models.Location, error) {
	errs := &ValidationError{}
	c := in.clean(s.limits, errs)
	if err := errs.Err(); err != nil {
		return models.Location{}, err
	}
	location := models.NewLocation(c.Name, s.clock())
	if c.IsPublished != nil {
		location.IsPublished = *c.IsPublished
	}
	if err := s.db.WithContext(ctx).Create(&location).Error; err != nil {
		return models.Location{}, fmt.Errorf("create location: %w", err)
	}
	return location, nil
}

// UpdateLocation replaces a location's fields.
func (s *Service) UpdateLocation(ctx context.Context, locationID uint, in LocationInput) (models.Location, error) {
	var location models.Location
	if err := s.first(ctx, &location, locationID); err != nil {
		return models.Location{}, err
	}
	errs := &ValidationError{}
	c := in.clean(s.limits, errs)
	if err := errs.Err(); err != nil {
		return models.Location{}, err
	}
	updates := map[string]interface{}{"name": c.Name}
	if c.IsPublished != nil {
		updates["is_published"] = *c.IsPublished
	}
	if err := s.db.WithContext(ctx).Model(&models.Location{}).Where("id = ?", location.ID).Updates(updates).Error; err != nil {
		return models.Location{}, fmt.Errorf("update location %d: %w", location.ID, err)
	}
	if err := s.first(ctx, &location, location.ID); err != nil {
		return models.Location{}, err
	}
	return location, nil
}

// DeleteLocation removes a location; its posts stay without one.
func (s *Service) DeleteLocation(ctx context.Context, locationID uint) error {
	return s.store.DeleteLocation(ctx, locationID)
}

// DeleteUser removes an account and everything it authored.
func (s *Service) DeleteUser(ctx context.Context, userID uint) error {
	images, err := s.store.DeleteUser(ctx, userID)
	if err != nil {
		return err
	}
	for _, name := range images {
		s.removeImage(name)
	}
	return nil
}

func (s *Service) first(ctx context.Context, dst interface{}, id uint) error {
	err := s.db.WithContext(ctx).First(dst, id).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return ErrNotFound
	}
	if err != nil {
		return fmt.Errorf("load %T %d: %w", dst, id, err)
	}
	return nil
}

// checkSlug flags a slug already used by a category other than exceptID.
func (s *Service) checkSlug(ctx context.Context, slug string, exceptID uint, errs *ValidationError) error {
	if slug == "" {
		return nil
	}
	var n int64
	if err := s.db.WithContext(ctx).Model(&models.Category{}).
		Where("slug = ? AND id <> ?", slug, exceptID).Count(&n).Error; err != nil {
		return fmt.Errorf("check slug: %w", err)
	}
	if n > 0 {
		errs.Add("slug", "a category with this slug already exists")
	}
	return nil
}
