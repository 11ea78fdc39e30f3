package blog

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/cppla/blogicum/models"
)

func TestStoreDeleteCategoryKeepsPosts(t *testing.T) {
	f := newFixture(t)
	author := f.user("author")
	travel := f.category("travel", true)
	post := f.post(author, "trip", inCategory(travel))

	require.NoError(t, f.svc.store.DeleteCategory(context.Background(), travel.ID))

	var stored models.Post
	require.NoError(t, f.db.First(&stored, post.ID).Error)
	assert.Nil(t, stored.CategoryID)
	assert.Equal(t, int64(0), f.count(&models.Category{}, "id = ?", travel.ID))
	assert.ErrorIs(t, f.svc.store.DeleteCategory(context.Background(), travel.ID), ErrNotFound)
}

func TestStoreDeleteLocationKeepsPosts(t *testing.T) {
	f := newFixture(t)
	author := f.user("author")
	city := f.location("City", true)
	post := f.post(author, "walk", atLocation(city))

	require.NoError(t, f.svc.store.DeleteLocation(context.Background(), city.ID))

	var stored models.Post
	require.NoError(t, f.db.First(&stored, post.ID).Error)
	assert.Nil(t, stored.LocationID)
}

func TestStoreDeleteUserCascades(t *testing.T) {
	f := newFixture(t)
	leaving := f.user("leaving")
	staying := f.user("staying")
	theirPost := f.post(leaving, "their post", withImage("post_images/a.png"))
	otherPost := f.post(staying, "other post")
	f.comment(theirPost, staying, "reply on their post", baseTime)
	f.comment(otherPost, leaving, "their reply", baseTime)
	kept := f.comment(otherPost, staying, "kept", baseTime)

	images, err := f.svc.store.DeleteUser(context.Background(), leaving.ID)
	require.NoError(t, err)
	assert.Equal(t, []string{"post_images/a.png"}, images)

	assert.Equal(t, int64(0), f.count(&models.User{}, "id = ?", leaving.ID))
	assert.Equal(t, int64(0), f.count(&models.Post{}, "author_id = ?", leaving.ID))
	assert.Equal(t, int64(0), f.count(&models.Comment{}, "post_id = ?", theirPost.ID))
	assert.Equal(t, int64(0), f.count(&models.Comment{}, "author_id = ?", leaving.ID))
	assert.Equal(t, int64(1), f.count(&models.Comment{}, "id = ?", kept.ID))
	assert.Equal(t, int64(1), f.count(&models.Post{}, "id = ?", otherPost.ID))

	_, err = f.svc.store.DeleteUser(context.Background(), leaving.ID)
	assert.ErrorIs(t, err, ErrNotFound)
}
