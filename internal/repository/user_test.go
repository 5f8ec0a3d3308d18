package repository

import (
	"context"
	"testing"

	"yatube/internal/models"
	"yatube/internal/testutil"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestUserRepository_Lookup(t *testing.T) {
	db := testutil.NewTestDB(t)
	repo := NewUserRepository(db)
	ctx := context.Background()

	leo := testutil.CreateUser(t, db, "leo")

	tests := []struct {
		name     string
		username string
		wantCode string
	}{
		{name: "existing", username: "leo"},
		{name: "surrounding space", username: "  leo "},
		{name: "missing", username: "ghost", wantCode: models.CodeNotFound},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			user, err := repo.GetByUsername(ctx, tt.username)
			if tt.wantCode != "" {
				assert.Equal(t, tt.wantCode, models.ErrorCode(err))
				assert.Nil(t, user)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, leo.ID, user.ID)
		})
	}

	_, err := repo.GetByID(ctx, 9999)
	assert.Equal(t, models.CodeNotFound, models.ErrorCode(err))

	taken, err := repo.UsernameTaken(ctx, "leo")
	require.NoError(t, err)
	assert.True(t, taken)
}

func TestGroupRepository_DeleteKeepsPosts(t *testing.T) {
	db := testutil.NewTestDB(t)
	groups := NewGroupRepository(db)
	posts := NewPostRepository(db)
	ctx := context.Background()

	author := testutil.CreateUser(t, db, "leo")
	group := testutil.CreateGroup(t, db, "cats")
	created := testutil.CreatePosts(t, db, author, group, 2)

	got, err := groups.GetBySlug(ctx, "cats")
	require.NoError(t, err)
	assert.Equal(t, group.ID, got.ID)

	require.NoError(t, groups.Delete(ctx, group.ID))

	_, err = groups.GetBySlug(ctx, "cats")
	assert.Equal(t, models.CodeNotFound, models.ErrorCode(err))

	for _, p := range created {
		post, err := posts.GetByID(ctx, p.ID)
		require.NoError(t, err)
		assert.Nil(t, post.GroupID)
		assert.Nil(t, post.Group)
	}

	assert.Equal(t, models.CodeNotFound, models.ErrorCode(groups.Delete(ctx, group.ID)))
}
