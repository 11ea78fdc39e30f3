package blog

import (
	"context"
	"fmt"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/cppla/blogicum/models"
)

func postInput(title string) PostInput {
	return PostInput{
		Title:   title,
		Text:    "Body of " + title,
		PubDate: baseTime.Add(-time.Minute),
	}
}

func TestListPostsShowsOnlyLivePostsNewestFirst(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	author := f.user("author")
	reader := f.user("reader")
	hidden := f.category("hidden", false)

	older := f.post(author, "older", pubDate(baseTime.Add(-48*time.Hour)))
	f.post(author, "newer", pubDate(baseTime.Add(-time.Hour)))
	f.post(author, "scheduled", pubDate(baseTime.Add(time.Hour)))
	f.post(author, "draft", unpublished())
	f.post(author, "in hidden category", inCategory(hidden))
	f.comment(older, reader, "first", baseTime)
	f.comment(older, author, "second", baseTime)

	list, err := f.svc.ListPosts(ctx, 1)
	require.NoError(t, err)
	assert.Equal(t, []string{"newer", "older"}, titles(list.Posts))
	assert.Equal(t, int64(0), list.Posts[0].CommentCount)
	assert.Equal(t, int64(2), list.Posts[1].CommentCount)
	assert.Equal(t, "author", list.Posts[0].Author.Username)
	assert.Equal(t, Page{Number: 1, PerPage: 10, Total: 2, TotalPages: 1}, list.Page)
}

func TestListPostsPaginates(t *testing.T) {
	f := newFixture(t)
	author := f.user("author")
	for i := 0; i < 12; i++ {
		f.post(author, fmt.Sprintf("post %02d", i), pubDate(baseTime.Add(-time.Duration(i+1)*time.Minute)))
	}

	first, err := f.svc.ListPosts(context.Background(), 1)
	require.NoError(t, err)
	assert.Len(t, first.Posts, 10)
	assert.Equal(t, "post 00", first.Posts[0].Title)
	assert.True(t, first.Page.HasNext)

	last, err := f.svc.ListPosts(context.Background(), 99)
	require.NoError(t, err)
	assert.Equal(t, 2, last.Page.Number)
	assert.Equal(t, []string{"post 10", "post 11"}, titles(last.Posts))
}

func TestPostDetailAccess(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	author := f.user("author")
	other := f.user("other")
	scheduled := f.post(author, "scheduled", pubDate(baseTime.Add(time.Hour)))
	live := f.post(author, "live")

	_, err := f.svc.PostDetail(ctx, Anonymous(), scheduled.ID)
	assert.ErrorIs(t, err, ErrNotFound)
	_, err = f.svc.PostDetail(ctx, viewerOf(other), scheduled.ID)
	assert.ErrorIs(t, err, ErrNotFound)

	detail, err := f.svc.PostDetail(ctx, viewerOf(author), scheduled.ID)
	require.NoError(t, err)
	assert.Equal(t, "scheduled", detail.Post.Title)
	assert.False(t, detail.Live)

	detail, err = f.svc.PostDetail(ctx, Anonymous(), live.ID)
	require.NoError(t, err)
	assert.True(t, detail.Live)

	_, err = f.svc.PostDetail(ctx, Anonymous(), 9999)
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestPostDetailOrdersCommentsByCreation(t *testing.T) {
	f := newFixture(t)
	author := f.user("author")
	post := f.post(author, "post")
	f.comment(post, author, "late", baseTime.Add(2*time.Minute))
	f.comment(post, author, "early", baseTime)
	f.comment(post, author, "middle", baseTime.Add(time.Minute))

	detail, err := f.svc.PostDetail(context.Background(), Anonymous(), post.ID)
	require.NoError(t, err)
	var texts []string
	for _, c := range detail.Comments {
		texts = append(texts, c.Text)
	}
	assert.Equal(t, []string{"early", "middle", "late"}, texts)
	assert.Equal(t, "author", detail.Comments[0].Author.Username)
}

func TestCreatePost(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	author := f.user("author")
	travel := f.category("travel", true)
	city := f.location("City", true)

	in := postInput("Trip")
	in.CategoryID = &travel.ID
	in.LocationID = &city.ID
	in.Text = `Nice <script>alert(1)</script><b>day</b>`

	post, err := f.svc.CreatePost(ctx, viewerOf(author), in)
	require.NoError(t, err)
	assert.Equal(t, author.ID, post.AuthorID)
	assert.True(t, post.IsPublished)
	assert.Equal(t, "Nice <b>day</b>", post.Text)
	require.NotNil(t, post.Category)
	assert.Equal(t, "travel", post.Category.Slug)
	require.NotNil(t, post.Location)
	assert.Equal(t, "City", post.Location.Name)
	assert.True(t, baseTime.Equal(post.CreatedAt))

	_, err = f.svc.CreatePost(ctx, Anonymous(), postInput("nope"))
	assert.ErrorIs(t, err, ErrUnauthenticated)
}

func TestCreatePostValidation(t *testing.T) {
	f := newFixture(t)
	author := f.user("author")

	in := PostInput{Title: "   ", CategoryID: ptr(uint(404)), LocationID: ptr(uint(0))}
	_, err := f.svc.CreatePost(context.Background(), viewerOf(author), in)

	var verr *ValidationError
	require.ErrorAs(t, err, &verr)
	assert.Contains(t, verr.Fields, "title")
	assert.Contains(t, verr.Fields, "text")
	assert.Contains(t, verr.Fields, "pub_date")
	assert.Equal(t, "select a valid choice", verr.Fields["category"])
	assert.NotContains(t, verr.Fields, "location", "zero id means no location")
	assert.Equal(t, int64(0), f.count(&models.Post{}, "1 = 1"))
}

func TestUpdatePostByNonAuthorLeavesPostUnchanged(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	author := f.user("author")
	intruder := f.user("intruder")
	post := f.post(author, "original")

	got, err := f.svc.UpdatePost(ctx, viewerOf(intruder), post.ID, postInput("hijacked"))
	assert.ErrorIs(t, err, ErrForbidden)
	assert.Equal(t, post.ID, got.ID)

	var stored models.Post
	require.NoError(t, f.db.First(&stored, post.ID).Error)
	assert.Equal(t, "original", stored.Title)
	assert.Equal(t, post.Text, stored.Text)
}

func TestUpdatePostByAuthor(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	author := f.user("author")
	travel := f.category("travel", true)
	post := f.post(author, "original", inCategory(travel))

	in := postInput("edited")
	in.IsPublished = ptr(false)
	updated, err := f.svc.UpdatePost(ctx, viewerOf(author), post.ID, in)
	require.NoError(t, err)
	assert.Equal(t, "edited", updated.Title)
	assert.False(t, updated.IsPublished)
	assert.Nil(t, updated.CategoryID, "omitted category clears it")
}

func TestDeletePost(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	author := f.user("author")
	other := f.user("other")
	post := f.post(author, "post")
	f.comment(post, other, "hi", baseTime)

	assert.ErrorIs(t, f.svc.DeletePost(ctx, viewerOf(other), post.ID), ErrForbidden)
	assert.Equal(t, int64(1), f.count(&models.Post{}, "id = ?", post.ID))

	require.NoError(t, f.svc.DeletePost(ctx, viewerOf(author), post.ID))
	assert.Equal(t, int64(0), f.count(&models.Post{}, "id = ?", post.ID))
	assert.Equal(t, int64(0), f.count(&models.Comment{}, "post_id = ?", post.ID))

	assert.ErrorIs(t, f.svc.DeletePost(ctx, viewerOf(author), post.ID), ErrNotFound)
}

func TestProfileVisibility(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	owner := f.user("owner")
	visitor := f.user("visitor")
	f.post(owner, "live")
	f.post(owner, "draft", unpublished())
	f.post(owner, "scheduled", pubDate(baseTime.Add(time.Hour)))
	f.post(visitor, "not mine")

	own, err := f.svc.Profile(ctx, viewerOf(owner), "owner", 1)
	require.NoError(t, err)
	assert.Equal(t, []string{"scheduled", "draft", "live"}, titles(own.Posts.Posts))
	assert.Equal(t, "owner", own.User.Username)

	seen, err := f.svc.Profile(ctx, viewerOf(visitor), "owner", 1)
	require.NoError(t, err)
	assert.Equal(t, []string{"live"}, titles(seen.Posts.Posts))

	anon, err := f.svc.Profile(ctx, Anonymous(), "owner", 1)
	require.NoError(t, err)
	assert.Equal(t, []string{"live"}, titles(anon.Posts.Posts))

	_, err = f.svc.Profile(ctx, Anonymous(), "nobody", 1)
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestUpdateProfile(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	user := f.user("alice")
	f.user("bob")

	_, err := f.svc.UpdateProfile(ctx, viewerOf(user), ProfileInput{Username: "bob"})
	var verr *ValidationError
	require.ErrorAs(t, err, &verr)
	assert.Contains(t, verr.Fields, "username")

	_, err = f.svc.UpdateProfile(ctx, viewerOf(user), ProfileInput{Username: "bad name!"})
	require.ErrorAs(t, err, &verr)

	updated, err := f.svc.UpdateProfile(ctx, viewerOf(user), ProfileInput{
		Username:  "alice2",
		Email:     "alice@example.org",
		FirstName: "Alice",
		LastName:  "Liddell",
	})
	require.NoError(t, err)
	assert.Equal(t, "alice2", updated.Username)
	assert.Equal(t, "Alice", updated.FirstName)
	assert.Equal(t, "alice@example.org", updated.Email)

	_, err = f.svc.UpdateProfile(ctx, Anonymous(), ProfileInput{Username: "x"})
	assert.ErrorIs(t, err, ErrUnauthenticated)
}

func TestCreateComment(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	author := f.user("author")
	reader := f.user("reader")
	live := f.post(author, "live")
	draft := f.post(author, "draft", unpublished())

	c, err := f.svc.CreateComment(ctx, viewerOf(reader), live.ID, CommentInput{Text: "Great"})
	require.NoError(t, err)
	assert.Equal(t, reader.ID, c.AuthorID)
	assert.Equal(t, live.ID, c.PostID)
	assert.Equal(t, "reader", c.Author.Username)

	_, err = f.svc.CreateComment(ctx, viewerOf(reader), draft.ID, CommentInput{Text: "sneaky"})
	assert.ErrorIs(t, err, ErrNotFound)

	_, err = f.svc.CreateComment(ctx, viewerOf(author), draft.ID, CommentInput{Text: "note to self"})
	assert.NoError(t, err)

	_, err = f.svc.CreateComment(ctx, viewerOf(reader), live.ID, CommentInput{Text: "  "})
	var verr *ValidationError
	assert.ErrorAs(t, err, &verr)

	_, err = f.svc.CreateComment(ctx, Anonymous(), live.ID, CommentInput{Text: "anon"})
	assert.ErrorIs(t, err, ErrUnauthenticated)
}

func TestUpdateAndDeleteComment(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	author := f.user("author")
	commenter := f.user("commenter")
	post := f.post(author, "post")
	otherPost := f.post(author, "other post")
	c := f.comment(post, commenter, "original", baseTime)

	_, err := f.svc.UpdateComment(ctx, viewerOf(author), post.ID, c.ID, CommentInput{Text: "edited by post author"})
	assert.ErrorIs(t, err, ErrForbidden)

	_, err = f.svc.UpdateComment(ctx, viewerOf(commenter), otherPost.ID, c.ID, CommentInput{Text: "wrong post"})
	assert.ErrorIs(t, err, ErrNotFound)

	updated, err := f.svc.UpdateComment(ctx, viewerOf(commenter), post.ID, c.ID, CommentInput{Text: "edited"})
	require.NoError(t, err)
	assert.Equal(t, "edited", updated.Text)

	assert.ErrorIs(t, f.svc.DeleteComment(ctx, viewerOf(author), post.ID, c.ID), ErrForbidden)
	assert.Equal(t, int64(1), f.count(&models.Comment{}, "id = ?", c.ID))

	require.NoError(t, f.svc.DeleteComment(ctx, viewerOf(commenter), post.ID, c.ID))
	assert.Equal(t, int64(0), f.count(&models.Comment{}, "id = ?", c.ID))
	assert.ErrorIs(t, f.svc.DeleteComment(ctx, viewerOf(commenter), post.ID, c.ID), ErrNotFound)
}

func TestCategoryPosts(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	author := f.user("author")
	travel := f.category("travel", true)
	closed := f.category("closed", false)
	f.post(author, "trip", inCategory(travel))
	f.post(author, "future trip", inCategory(travel), pubDate(baseTime.Add(time.Hour)))
	f.post(author, "secret", inCategory(closed))
	f.post(author, "uncategorized")

	res, err := f.svc.CategoryPosts(ctx, "travel", 1)
	require.NoError(t, err)
	assert.Equal(t, "travel", res.Category.Slug)
	assert.Equal(t, []string{"trip"}, titles(res.Posts.Posts))

	_, err = f.svc.CategoryPosts(ctx, "closed", 1)
	assert.ErrorIs(t, err, ErrNotFound)
	_, err = f.svc.CategoryPosts(ctx, "missing", 1)
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestCategoriesAndLocationsListOnlyPublished(t *testing.T) {
	f := newFixture(t)
	f.category("b-open", true)
	f.category("a-closed", false)
	f.location("Berlin", true)
	f.location("Atlantis", false)

	categories, err := f.svc.Categories(context.Background())
	require.NoError(t, err)
	require.Len(t, categories, 1)
	assert.Equal(t, "b-open", categories[0].Slug)

	locations, err := f.svc.Locations(context.Background())
	require.NoError(t, err)
	require.Len(t, locations, 1)
	assert.Equal(t, "Berlin", locations[0].Name)
}

func TestScheduledPostGoesLiveWhenClockPasses(t *testing.T) {
	f := newFixture(t)
	author := f.user("author")
	f.post(author, "scheduled", pubDate(baseTime.Add(time.Hour)))

	list, err := f.svc.ListPosts(context.Background(), 1)
	require.NoError(t, err)
	assert.Empty(t, list.Posts)

	f.now = baseTime.Add(2 * time.Hour)
	list, err = f.svc.ListPosts(context.Background(), 1)
	require.NoError(t, err)
	assert.Equal(t, []string{"scheduled"}, titles(list.Posts))
}
