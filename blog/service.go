package blog

import (
	"context"
	"errors"
	"fmt"
	"mime/multipart"
	"strings"
	"time"

	"go.uber.org/zap"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/cppla/blogicum/config"
	"github.com/cppla/blogicum/models"
	"github.com/cppla/blogicum/utils"
)

// MediaStore keeps uploaded post images.
type MediaStore interface {
	Save(fh *multipart.FileHeader) (string, error)
	Remove(name string) error
}

// Service implements the blog use cases on top of gorm.
type Service struct {
	db     *gorm.DB
	store  *Store
	limits config.BlogConfig
	media  MediaStore
	now    func() time.Time
	log    *zap.Logger
}

// Option configures a Service.
type Option func(*Service)

// WithClock replaces the wall clock used for visibility checks and timestamps.
func WithClock(now func() time.Time) Option {
	return func(s *Service) { s.now = now }
}

// WithMedia enables image uploads.
func WithMedia(m MediaStore) Option {
	return func(s *Service) { s.media = m }
}

// WithLogger sets the logger used for best-effort cleanup failures.
func WithLogger(l *zap.Logger) Option {
	return func(s *Service) { s.log = l }
}

// NewService builds a Service over db.
func NewService(db *gorm.DB, limits config.BlogConfig, opts ...Option) *Service {
	s := &Service{
		db:     db,
		store:  NewStore(db),
		limits: limits,
		now:    time.Now,
		log:    zap.NewNop(),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// PostList is one page of posts.
type PostList struct {
	Posts []models.Post `json:"items"`
	Page  Page          `json:"pagination"`
}

// PostDetail is a post with its comments in creation order.
type PostDetail struct {
	Post     models.Post      `json:"post"`
	Comments []models.Comment `json:"comments"`
	Live     bool             `json:"is_live"`
}

// Profile is a user with a page of their posts.
type Profile struct {
	User  models.User `json:"profile"`
	Posts PostList    `json:"posts"`
}

// CategoryPosts is a category with a page of its live posts.
type CategoryPosts struct {
	Category models.Category `json:"category"`
	Posts    PostList        `json:"posts"`
}

func (s *Service) clock() time.Time {
	return s.now().UTC()
}

// ListPosts returns live posts, newest first.
func (s *Service) ListPosts(ctx context.Context, page int) (PostList, error) {
	return s.listPosts(ctx, page, Published(s.clock(), ""))
}

// PostDetail returns the post when the viewer is its author or the post is live.
func (s *Service) PostDetail(ctx context.Context, viewer Viewer, postID uint) (PostDetail, error) {
	post, err := s.loadPost(ctx, postID)
	if err != nil {
		return PostDetail{}, err
	}
	now := s.clock()
	if !CanView(viewer, post, now) {
		return PostDetail{}, ErrNotFound
	}
	comments, err := s.comments(ctx, post.ID)
	if err != nil {
		return PostDetail{}, err
	}
	return PostDetail{Post: post, Comments: comments, Live: IsLive(post, now)}, nil
}

// CreatePost publishes a new post authored by the viewer.
func (s *Service) CreatePost(ctx context.Context, viewer Viewer, in PostInput) (models.Post, error) {
	if !viewer.Authenticated() {
		return models.Post{}, ErrUnauthenticated
	}
	errs := &ValidationError{}
	c := in.clean(s.limits, errs)
	if err := s.checkRefs(ctx, c, errs); err != nil {
		return models.Post{}, err
	}
	if err := errs.Err(); err != nil {
		return models.Post{}, err
	}

	post := models.NewPost(viewer.ID, s.clock())
	post.Title = c.title
	post.Text = c.text
	post.PubDate = c.pubDate
	post.IsPublished = c.isPublished
	post.CategoryID = c.categoryID
	post.LocationID = c.locationID
	if in.Image != nil {
		name, err := s.saveImage(in.Image)
		if err != nil {
			return models.Post{}, err
		}
		post.Image = name
	}

	if err := s.db.WithContext(ctx).Omit(clause.Associations).Create(&post).Error; err != nil {
		s.removeImage(post.Image)
		return models.Post{}, fmt.Errorf("create post: %w", err)
	}
	return s.loadPost(ctx, post.ID)
}

// UpdatePost changes the content of the viewer's own post. On ErrForbidden the
// returned post is the unchanged record.
func (s *Service) UpdatePost(ctx context.Context, viewer Viewer, postID uint, in PostInput) (models.Post, error) {
	post, err := s.EditablePost(ctx, viewer, postID)
	if err != nil {
		return post, err
	}

	errs := &ValidationError{}
	c := in.clean(s.limits, errs)
	if err := s.checkRefs(ctx, c, errs); err != nil {
		return models.Post{}, err
	}
	if err := errs.Err(); err != nil {
		return models.Post{}, err
	}

	updates := map[string]interface{}{
		"title":        c.title,
		"text":         c.text,
		"pub_date":     c.pubDate,
		"is_published": c.isPublished,
		"category_id":  c.categoryID,
		"location_id":  c.locationID,
	}
	oldImage := ""
	if in.Image != nil {
		name, err := s.saveImage(in.Image)
		if err != nil {
			return models.Post{}, err
		}
		updates["image"] = name
		oldImage = post.Image
	}

	if err := s.db.WithContext(ctx).Model(&models.Post{}).Where("id = ?", post.ID).Updates(updates).Error; err != nil {
		if name, ok := updates["image"].(string); ok {
			s.removeImage(name)
		}
		return models.Post{}, fmt.Errorf("update post %d: %w", post.ID, err)
	}
	s.removeImage(oldImage)
	return s.loadPost(ctx, post.ID)
}

// EditablePost loads a post the viewer may modify. On ErrForbidden the post is
// returned as well.
func (s *Service) EditablePost(ctx context.Context, viewer Viewer, postID uint) (models.Post, error) {
	post, err := s.loadPost(ctx, postID)
	if err != nil {
		return models.Post{}, err
	}
	if !CanModify(viewer, post) {
		return post, ErrForbidden
	}
	return post, nil
}

// DeletePost removes the viewer's own post together with its comments.
func (s *Service) DeletePost(ctx context.Context, viewer Viewer, postID uint) error {
	post, err := s.EditablePost(ctx, viewer, postID)
	if err != nil {
		return err
	}
	if err := s.store.DeletePost(ctx, post.ID); err != nil {
		return err
	}
	s.removeImage(post.Image)
	return nil
}

// Profile lists a user's posts. The owner sees all of them; everybody else
// only the live ones.
func (s *Service) Profile(ctx context.Context, viewer Viewer, username string, page int) (Profile, error) {
	user, err := s.userByUsername(ctx, username)
	if err != nil {
		return Profile{}, err
	}
	scopes := []func(*gorm.DB) *gorm.DB{byAuthor(user.ID)}
	if !viewer.Authenticated() || viewer.ID != user.ID {
		scopes = append(scopes, Published(s.clock(), ""))
	}
	posts, err := s.listPosts(ctx, page, scopes...)
	if err != nil {
		return Profile{}, err
	}
	return Profile{User: user, Posts: posts}, nil
}

// UpdateProfile changes the viewer's own account fields.
func (s *Service) UpdateProfile(ctx context.Context, viewer Viewer, in ProfileInput) (models.User, error) {
	if !viewer.Authenticated() {
		return models.User{}, ErrUnauthenticated
	}
	user, err := s.userByID(ctx, viewer.ID)
	if err != nil {
		return models.User{}, err
	}

	errs := &ValidationError{}
	c := in.clean(errs)
	if c.Username != "" && c.Username != user.Username {
		var taken int64
		if err := s.db.WithContext(ctx).Model(&models.User{}).
			Where("username = ? AND id <> ?", c.Username, user.ID).Count(&taken).Error; err != nil {
			return models.User{}, fmt.Errorf("check username: %w", err)
		}
		if taken > 0 {
			errs.Add("username", "a user with that username already exists")
		}
	}
	if err := errs.Err(); err != nil {
		return models.User{}, err
	}

	if err := s.db.WithContext(ctx).Model(&models.User{}).Where("id = ?", user.ID).Updates(map[string]interface{}{
		"username":   c.Username,
		"email":      c.Email,
		"first_name": c.FirstName,
		"last_name":  c.LastName,
		"updated_at": s.clock(),
	}).Error; err != nil {
		return models.User{}, fmt.Errorf("update profile %d: %w", user.ID, err)
	}
	return s.userByID(ctx, user.ID)
}

// CreateComment adds the viewer's comment to a post they can see.
func (s *Service) CreateComment(ctx context.Context, viewer Viewer, postID uint, in CommentInput) (models.Comment, error) {
	if !viewer.Authenticated() {
		return models.Comment{}, ErrUnauthenticated
	}
	post, err := s.loadPost(ctx, postID)
	if err != nil {
		return models.Comment{}, err
	}
	// Hidden posts do not exist for anyone but their author, comments included.
	if !CanView(viewer, post, s.clock()) {
		return models.Comment{}, ErrNotFound
	}

	errs := &ValidationError{}
	text := in.clean(s.limits, errs)
	if err := errs.Err(); err != nil {
		return models.Comment{}, err
	}

	comment := models.NewComment(post.ID, viewer.ID, text, s.clock())
	if err := s.db.WithContext(ctx).Omit(clause.Associations).Create(&comment).Error; err != nil {
		return models.Comment{}, fmt.Errorf("create comment: %w", err)
	}
	return s.loadComment(ctx, post.ID, comment.ID)
}

// UpdateComment changes the text of the viewer's own comment.
func (s *Service) UpdateComment(ctx context.Context, viewer Viewer, postID, commentID uint, in CommentInput) (models.Comment, error) {
	comment, err := s.EditableComment(ctx, viewer, postID, commentID)
	if err != nil {
		return comment, err
	}

	errs := &ValidationError{}
	text := in.clean(s.limits, errs)
	if err := errs.Err(); err != nil {
		return models.Comment{}, err
	}

	if err := s.db.WithContext(ctx).Model(&models.Comment{}).Where("id = ?", comment.ID).
		Update("text", text).Error; err != nil {
		return models.Comment{}, fmt.Errorf("update comment %d: %w", comment.ID, err)
	}
	comment.Text = text
	return comment, nil
}

// EditableComment loads a comment of postID that the viewer may modify.
func (s *Service) EditableComment(ctx context.Context, viewer Viewer, postID, commentID uint) (models.Comment, error) {
	comment, err := s.loadComment(ctx, postID, commentID)
	if err != nil {
		return models.Comment{}, err
	}
	if !CanModify(viewer, comment) {
		return comment, ErrForbidden
	}
	return comment, nil
}

// DeleteComment removes the viewer's own comment.
func (s *Service) DeleteComment(ctx context.Context, viewer Viewer, postID, commentID uint) error {
	comment, err := s.EditableComment(ctx, viewer, postID, commentID)
	if err != nil {
		return err
	}
	return s.store.DeleteComment(ctx, comment.ID)
}

// CategoryPosts lists live posts of a published category.
func (s *Service) CategoryPosts(ctx context.Context, slug string, page int) (CategoryPosts, error) {
	var category models.Category
	err := s.db.WithContext(ctx).Where("slug = ? AND is_published = ?", slug, true).First(&category).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return CategoryPosts{}, ErrNotFound
	}
	if err != nil {
		return CategoryPosts{}, fmt.Errorf("load category %q: %w", slug, err)
	}
	posts, err := s.listPosts(ctx, page, Published(s.clock(), category.Slug))
	if err != nil {
		return CategoryPosts{}, err
	}
	return CategoryPosts{Category: category, Posts: posts}, nil
}

// Categories returns the published categories ordered by title.
func (s *Service) Categories(ctx context.Context) ([]models.Category, error) {
	categories := []models.Category{}
	if err := s.db.WithContext(ctx).Where("is_published = ?", true).
		Order("title ASC").Find(&categories).Error; err != nil {
		return nil, fmt.Errorf("list categories: %w", err)
	}
	return categories, nil
}

// Locations returns the published locations ordered by name.
func (s *Service) Locations(ctx context.Context) ([]models.Location, error) {
	locations := []models.Location{}
	if err := s.db.WithContext(ctx).Where("is_published = ?", true).
		Order("name ASC").Find(&locations).Error; err != nil {
		return nil, fmt.Errorf("list locations: %w", err)
	}
	return locations, nil
}

func (s *Service) listPosts(ctx context.Context, page int, scopes ...func(*gorm.DB) *gorm.DB) (PostList, error) {
	query := func() *gorm.DB {
		return s.db.WithContext(ctx).Model(&models.Post{}).Scopes(scopes...)
	}

	var total int64
	if err := query().Count(&total).Error; err != nil {
		return PostList{}, fmt.Errorf("count posts: %w", err)
	}
	pg := NewPage(page, total, s.limits.PostsPerPage)

	posts := []models.Post{}
	if err := query().Select(postColumns).
		Preload("Author").Preload("Category").Preload("Location").
		Order(newestFirst).
		Offset(pg.Offset()).Limit(pg.PerPage).
		Find(&posts).Error; err != nil {
		return PostList{}, fmt.Errorf("list posts: %w", err)
	}
	return PostList{Posts: posts, Page: pg}, nil
}

func byAuthor(userID uint) func(*gorm.DB) *gorm.DB {
	return func(db *gorm.DB) *gorm.DB {
		return db.Where("posts.author_id = ?", userID)
	}
}

func (s *Service) loadPost(ctx context.Context, postID uint) (models.Post, error) {
	var post models.Post
	err := s.db.WithContext(ctx).
		Preload("Author").Preload("Category").Preload("Location").
		First(&post, postID).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return models.Post{}, ErrNotFound
	}
	if err != nil {
		return models.Post{}, fmt.Errorf("load post %d: %w", postID, err)
	}
	return post, nil
}

func (s *Service) comments(ctx context.Context, postID uint) ([]models.Comment, error) {
	comments := []models.Comment{}
	if err := s.db.WithContext(ctx).Preload("Author").
		Where("post_id = ?", postID).
		Order("created_at ASC, id ASC").
		Find(&comments).Error; err != nil {
		return nil, fmt.Errorf("load comments of post %d: %w", postID, err)
	}
	return comments, nil
}

// loadComment finds a comment by id that belongs to postID.
func (s *Service) loadComment(ctx context.Context, postID, commentID uint) (models.Comment, error) {
	var comment models.Comment
	err := s.db.WithContext(ctx).Preload("Author").
		Where("id = ? AND post_id = ?", commentID, postID).
		First(&comment).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return models.Comment{}, ErrNotFound
	}
	if err != nil {
		return models.Comment{}, fmt.Errorf("load comment %d: %w", commentID, err)
	}
	return comment, nil
}

func (s *Service) userByUsername(ctx context.Context, username string) (models.User, error) {
	var user models.User
	err := s.db.WithContext(ctx).Where("username = ?", username).First(&user).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return models.User{}, ErrNotFound
	}
	if err != nil {
		return models.User{}, fmt.Errorf("load user %q: %w", username, err)
	}
	return user, nil
}

func (s *Service) userByID(ctx context.Context, userID uint) (models.User, error) {
	var user models.User
	err := s.db.WithContext(ctx).First(&user, userID).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return models.User{}, ErrNotFound
	}
	if err != nil {
		return models.User{}, fmt.Errorf("load user %d: %w", userID, err)
	}
	return user, nil
}

// checkRefs records unknown category or location ids as field errors.
func (s *Service) checkRefs(ctx context.Context, c cleanPost, errs *ValidationError) error {
	if c.categoryID != nil {
		var n int64
		if err := s.db.WithContext(ctx).Model(&models.Category{}).Where("id = ?", *c.categoryID).Count(&n).Error; err != nil {
			return fmt.Errorf("check category: %w", err)
		}
		if n == 0 {
			errs.Add("category", "select a valid choice")
		}
	}
	if c.locationID != nil {
		var n int64
		if err := s.db.WithContext(ctx).Model(&models.Location{}).Where("id = ?", *c.locationID).Count(&n).Error; err != nil {
			return fmt.Errorf("check location: %w", err)
		}
		if n == 0 {
			errs.Add("location", "select a valid choice")
		}
	}
	return nil
}

func (s *Service) saveImage(fh *multipart.FileHeader) (string, error) {
	if s.media == nil {
		errs := &ValidationError{}
		errs.Add("image", "image uploads are disabled")
		return "", errs
	}
	name, err := s.media.Save(fh)
	if errors.Is(err, utils.ErrInvalidImage) {
		errs := &ValidationError{}
		errs.Add("image", strings.TrimPrefix(err.Error(), utils.ErrInvalidImage.Error()+": "))
		return "", errs
	}
	if err != nil {
		return "", fmt.Errorf("save image: %w", err)
	}
	return name, nil
}

func (s *Service) removeImage(name string) {
	if name == "" || s.media == nil {
		return
	}
	if err := s.media.Remove(name); err != nil {
		s.log.Warn("remove image failed", zap.String("image", name), zap.Error(err))
	}
}
