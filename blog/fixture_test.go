package blog

import (
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/cppla/blogicum/config"
	"github.com/cppla/blogicum/models"
)

var baseTime = time.Date(2024, 5, 1, 12, 0, 0, 0, time.UTC)

type fixture struct {
	t   *testing.T
	db  *gorm.DB
	svc *Service
	now time.Time
}

func newFixture(t *testing.T, opts ...Option) *fixture {
	t.Helper()
	db, err := config.OpenDatabase(config.AppConfig{
		DBDriver:    "sqlite",
		DatabaseURI: filepath.Join(t.TempDir(), "blog.db"),
		LogLevel:    "silent",
	})
	require.NoError(t, err)
	require.NoError(t, config.Migrate(db, models.All()...))
	sqlDB, err := db.DB()
	require.NoError(t, err)
	t.Cleanup(func() { _ = sqlDB.Close() })

	f := &fixture{t: t, db: db, now: baseTime}
	opts = append([]Option{WithClock(func() time.Time { return f.now })}, opts...)
	f.svc = NewService(db, config.DefaultBlog(), opts...)
	return f
}

func (f *fixture) user(username string) models.User {
	f.t.Helper()
	u := models.NewUser(username, username+"@example.com", "", baseTime)
	require.NoError(f.t, f.db.Create(&u).Error)
	return u
}

func (f *fixture) category(slug string, published bool) models.Category {
	f.t.Helper()
	c := models.NewCategory("Category "+slug, "About "+slug, slug, baseTime)
	c.IsPublished = published
	require.NoError(f.t, f.db.Create(&c).Error)
	return c
}

func (f *fixture) location(name string, published bool) models.Location {
	f.t.Helper()
	l := models.NewLocation(name, baseTime)
	l.IsPublished = published
	require.NoError(f.t, f.db.Create(&l).Error)
	return l
}

type postOption func(*models.Post)

func pubDate(d time.Time) postOption { return func(p *models.Post) { p.PubDate = d } }

func unpublished() postOption { return func(p *models.Post) { p.IsPublished = false } }

func inCategory(c models.Category) postOption {
	return func(p *models.Post) { p.CategoryID = &c.ID }
}

func atLocation(l models.Location) postOption {
	return func(p *models.Post) { p.LocationID = &l.ID }
}

func withImage(name string) postOption { return func(p *models.Post) { p.Image = name } }

// post inserts a published post dated one hour before baseTime unless options say otherwise.
func (f *fixture) post(author models.User, title string, opts ...postOption) models.Post {
	f.t.Helper()
	p := models.NewPost(author.ID, baseTime.Add(-time.Hour))
	p.Title = title
	p.Text = "Text of " + title
	for _, opt := range opts {
		opt(&p)
	}
	require.NoError(f.t, f.db.Omit(clause.Associations).Create(&p).Error)
	return p
}

func (f *fixture) comment(post models.Post, author models.User, text string, at time.Time) models.Comment {
	f.t.Helper()
	c := models.NewComment(post.ID, author.ID, text, at)
	require.NoError(f.t, f.db.Omit(clause.Associations).Create(&c).Error)
	return c
}

func (f *fixture) count(model interface{}, query string, args ...interface{}) int64 {
	f.t.Helper()
	var n int64
	require.NoError(f.t, f.db.Model(model).Where(query, args...).Count(&n).Error)
	return n
}

func viewerOf(u models.User) Viewer { return Viewer{ID: u.ID, Username: u.Username} }

func titles(posts []models.Post) []string {
	out := make([]string, 0, len(posts))
	for _, p := range posts {
		out = append(out, p.Title)
	}
	return out
}

func ptr[T any](v T) *T { return &v }
