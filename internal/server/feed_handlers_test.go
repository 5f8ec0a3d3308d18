package server

import (
	"fmt"
	"net/http"
	"testing"

	"yatube/internal/models"
	"yatube/internal/testutil"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestIndex_Paginates(t *testing.T) {
	_, app, db := newTestServer(t, nil)
	leo := testutil.CreateUser(t, db, "leo")
	posts := testutil.CreatePosts(t, db, leo, nil, 19)

	first, resp := getFeed(t, app, "/", "")
	assert.Equal(t, "MISS", resp.Header.Get("X-Cache"))
	assert.Equal(t, "global", first.Kind)
	assert.Len(t, first.Page.Items, 10)
	assert.Equal(t, 1, first.Page.Number)
	assert.Equal(t, 2, first.Page.TotalPages)
	assert.Equal(t, 19, first.Page.TotalItems)
	assert.True(t, first.Page.HasNext)
	assert.Equal(t, posts[18].ID, first.Page.Items[0].ID, "newest first")

	second, _ := getFeed(t, app, "/?page=2", "")
	assert.Len(t, second.Page.Items, 9)
	assert.True(t, second.Page.HasPrevious)
	assert.Equal(t, posts[0].ID, second.Page.Items[8].ID)

	for _, raw := range []string{"3", "0", "-1", "abc"} {
		t.Run("page="+raw, func(t *testing.T) {
			clamped, _ := getFeed(t, app, "/?page="+raw, "")
			assert.Equal(t, 1, clamped.Page.Number)
			assert.Len(t, clamped.Page.Items, 10)
		})
	}
}

func TestIndex_EmptyFeedHasOnePage(t *testing.T) {
	_, app, _ := newTestServer(t, nil)

	feed, _ := getFeed(t, app, "/", "")
	assert.Empty(t, feed.Page.Items)
	assert.Equal(t, 1, feed.Page.TotalPages)
	assert.False(t, feed.Page.HasNext)
}

func TestIndex_ServesStaleListingUntilCleared(t *testing.T) {
	_, app, db := newTestServer(t, nil)
	leo := testutil.CreateUser(t, db, "leo")
	staff := testutil.CreateUser(t, db, "admin")
	require.NoError(t, db.Model(staff).Update("is_staff", true).Error)
	posts := testutil.CreatePosts(t, db, leo, nil, 3)

	before, resp := getFeed(t, app, "/", "")
	assert.Equal(t, "MISS", resp.Header.Get("X-Cache"))
	assert.Equal(t, 3, before.Page.TotalItems)

	resp = do(t, app, http.MethodPost, fmt.Sprintf("/posts/%d/delete/", posts[0].ID), tokenFor(t, leo), nil)
	require.Equal(t, http.StatusFound, resp.StatusCode)
	assert.Equal(t, "/profile/leo/", resp.Header.Get("Location"))

	stale, resp := getFeed(t, app, "/", "")
	assert.Equal(t, "HIT", resp.Header.Get("X-Cache"))
	assert.Equal(t, 3, stale.Page.TotalItems)
	assert.Len(t, stale.Page.Items, 3)

	resp = do(t, app, http.MethodPost, "/admin/cache/clear/", tokenFor(t, staff), nil)
	require.Equal(t, http.StatusOK, resp.StatusCode)

	fresh, resp := getFeed(t, app, "/", "")
	assert.Equal(t, "MISS", resp.Header.Get("X-Cache"))
	assert.Equal(t, 2, fresh.Page.TotalItems)
}

func TestIndex_PagesAreCachedSeparately(t *testing.T) {
	_, app, db := newTestServer(t, nil)
	leo := testutil.CreateUser(t, db, "leo")
	testutil.CreatePosts(t, db, leo, nil, 12)

	_, resp := getFeed(t, app, "/?page=2", "")
	assert.Equal(t, "MISS", resp.Header.Get("X-Cache"))
	_, resp = getFeed(t, app, "/", "")
	assert.Equal(t, "MISS", resp.Header.Get("X-Cache"))
	second, resp := getFeed(t, app, "/?page=2", "")
	assert.Equal(t, "HIT", resp.Header.Get("X-Cache"))
	assert.Len(t, second.Page.Items, 2)
}

func TestGroupPosts(t *testing.T) {
	_, app, db := newTestServer(t, nil)
	leo := testutil.CreateUser(t, db, "leo")
	cats := testutil.CreateGroup(t, db, "cats")
	testutil.CreatePosts(t, db, leo, cats, 2)
	testutil.CreatePosts(t, db, leo, nil, 3)

	feed, _ := getFeed(t, app, "/group/cats/", "")
	assert.Equal(t, "group", feed.Kind)
	assert.Equal(t, 2, feed.Page.TotalItems)

	resp := do(t, app, http.MethodGet, "/group/dogs/", "", nil)
	assert.Equal(t, http.StatusNotFound, resp.StatusCode)
	var body models.ErrorResponse
	decode(t, resp, &body)
	assert.Equal(t, models.CodeNotFound, body.Code)
}

func TestProfile(t *testing.T) {
	_, app, db := newTestServer(t, nil)
	leo := testutil.CreateUser(t, db, "leo")
	fan := testutil.CreateUser(t, db, "fan")
	testutil.CreatePosts(t, db, leo, nil, 4)
	testutil.Follow(t, db, fan, leo)

	anon, _ := getFeed(t, app, "/profile/leo/", "")
	require.NotNil(t, anon.PostCount)
	assert.Equal(t, 4, *anon.PostCount)
	require.NotNil(t, anon.Following)
	assert.False(t, *anon.Following)
	require.NotNil(t, anon.Author)
	assert.Equal(t, "leo", anon.Author.Username)

	asFan, _ := getFeed(t, app, "/profile/leo/", tokenFor(t, fan))
	assert.True(t, *asFan.Following)

	resp := do(t, app, http.MethodGet, "/profile/ghost/", "", nil)
	assert.Equal(t, http.StatusNotFound, resp.StatusCode)
}

func TestFollowFlow(t *testing.T) {
	_, app, db := newTestServer(t, nil)
	ann := testutil.CreateUser(t, db, "ann")
	bob := testutil.CreateUser(t, db, "bob")
	carol := testutil.CreateUser(t, db, "carol")
	bobPost := testutil.CreatePosts(t, db, bob, nil, 1)[0]
	testutil.CreatePosts(t, db, carol, nil, 1)
	token := tokenFor(t, ann)

	countFollows := func() int64 {
		var n int64
		require.NoError(t, db.Model(&models.Follow{}).Count(&n).Error)
		return n
	}

	resp := do(t, app, http.MethodGet, "/profile/bob/follow/", "", nil)
	assert.Equal(t, http.StatusFound, resp.StatusCode)
	assert.Equal(t, "/auth/login/?next=%2Fprofile%2Fbob%2Ffollow%2F", resp.Header.Get("Location"))
	assert.Zero(t, countFollows())

	for i := 0; i < 2; i++ {
		resp = do(t, app, http.MethodGet, "/profile/bob/follow/", token, nil)
		assert.Equal(t, http.StatusFound, resp.StatusCode)
		assert.Equal(t, "/profile/bob/", resp.Header.Get("Location"))
	}
	assert.EqualValues(t, 1, countFollows(), "following twice keeps one row")

	feed, _ := getFeed(t, app, "/follow/", token)
	assert.Equal(t, "follow", feed.Kind)
	require.Len(t, feed.Page.Items, 1)
	assert.Equal(t, bobPost.ID, feed.Page.Items[0].ID)

	resp = do(t, app, http.MethodGet, "/follow/ann/", token, nil)
	assert.Equal(t, http.StatusFound, resp.StatusCode)
	assert.Equal(t, "/profile/ann/", resp.Header.Get("Location"))
	assert.EqualValues(t, 1, countFollows(), "self follow is ignored")

	resp = do(t, app, http.MethodGet, "/unfollow/bob/", token, nil)
	assert.Equal(t, http.StatusFound, resp.StatusCode)
	assert.Zero(t, countFollows())

	resp = do(t, app, http.MethodGet, "/profile/bob/unfollow/", token, nil)
	assert.Equal(t, http.StatusFound, resp.StatusCode, "unfollowing again is a no-op")

	resp = do(t, app, http.MethodGet, "/profile/ghost/follow/", token, nil)
	assert.Equal(t, http.StatusNotFound, resp.StatusCode)

	empty, _ := getFeed(t, app, "/follow/", token)
	assert.Empty(t, empty.Page.Items)
	assert.Equal(t, 1, empty.Page.TotalPages)
}

func TestFollowIndex_RequiresLogin(t *testing.T) {
	_, app, _ := newTestServer(t, nil)

	resp := do(t, app, http.MethodGet, "/follow/?page=2", "", nil)
	assert.Equal(t, http.StatusFound, resp.StatusCode)
	assert.Equal(t, "/auth/login/?next=%2Ffollow%2F%3Fpage%3D2", resp.Header.Get("Location"))
}
