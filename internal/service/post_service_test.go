package service

import (
	"context"
	"errors"
	"testing"
	"time"

	"microblog/internal/cache"
	"microblog/internal/models"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var (
	alice = models.Identity{UserID: 1, Username: "alice"}
	bob   = models.Identity{UserID: 2, Username: "bob"}
)

func setupCache(t *testing.T) (*miniredis.Miniredis, *cache.Store) {
	t.Helper()
	mr, err := miniredis.Run()
	require.NoError(t, err)
	t.Cleanup(mr.Close)

	rdb := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { _ = rdb.Close() })
	return mr, cache.NewStore(rdb)
}

func TestPostService_CreatePost(t *testing.T) {
	t.Parallel()

	repo := noopPostRepo()
	var stored *models.Post
	repo.createFn = func(_ context.Context, p *models.Post) error {
		p.ID = 10
		stored = p
		return nil
	}

	svc := NewPostService(repo, cache.NewStore(nil), fixedClock())
	post, err := svc.CreatePost(context.Background(), CreatePostInput{Author: alice, Title: "T", Content: "C"})
	require.NoError(t, err)

	assert.Equal(t, uint(10), post.ID)
	assert.Equal(t, alice.UserID, stored.UserID)
	assert.Equal(t, 0, stored.Likes)
	assert.Equal(t, fixedNow, stored.Timestamp)
	assert.Equal(t, "alice", post.Author())
}

func TestPostService_RequiresIdentity(t *testing.T) {
	t.Parallel()

	svc := NewPostService(noopPostRepo(), cache.NewStore(nil), fixedClock())
	ctx := context.Background()

	_, err := svc.CreatePost(ctx, CreatePostInput{Title: "T"})
	assertCode(t, err, models.CodeUnauthorized)

	_, err = svc.LikePost(ctx, LikePostInput{PostID: 1})
	assertCode(t, err, models.CodeUnauthorized)

	_, err = svc.DeletePost(ctx, DeletePostInput{PostID: 1})
	assertCode(t, err, models.CodeUnauthorized)

	_, err = svc.ListUserPosts(ctx, models.Identity{})
	assertCode(t, err, models.CodeUnauthorized)
}

func TestPostService_CreatePostStoreError(t *testing.T) {
	t.Parallel()

	repo := noopPostRepo()
	repo.createFn = func(context.Context, *models.Post) error {
		return models.NewInternalError(errors.New("disk full"))
	}

	_, err := NewPostService(repo, cache.NewStore(nil), nil).CreatePost(context.Background(), CreatePostInput{Author: alice})
	assertCode(t, err, models.CodeInternal)
}

func TestPostService_LikePost(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name      string
		actor     models.Identity
		repoLiked bool
		repoErr   error
		wantLiked bool
		wantCode  string
	}{
		{name: "other user likes", actor: bob, repoLiked: true, wantLiked: true},
		{name: "own or missing post is ignored", actor: alice, repoLiked: false, wantLiked: false},
		{name: "store failure", actor: bob, repoErr: models.NewInternalError(errors.New("db")), wantCode: models.CodeInternal},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			repo := noopPostRepo()
			var gotPost, gotActor uint
			repo.incrementLikesFn = func(_ context.Context, postID, actorID uint) (bool, error) {
				gotPost, gotActor = postID, actorID
				return tt.repoLiked, tt.repoErr
			}

			liked, err := NewPostService(repo, cache.NewStore(nil), fixedClock()).
				LikePost(context.Background(), LikePostInput{Actor: tt.actor, PostID: 5})
			if tt.wantCode != "" {
				assertCode(t, err, tt.wantCode)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.wantLiked, liked)
			assert.Equal(t, uint(5), gotPost)
			assert.Equal(t, tt.actor.UserID, gotActor)
		})
	}
}

func TestPostService_DeletePost(t *testing.T) {
	t.Parallel()

	repo := noopPostRepo()
	repo.deleteOwnedFn = func(_ context.Context, postID, userID uint) (bool, error) {
		return postID == 5 && userID == alice.UserID, nil
	}
	svc := NewPostService(repo, cache.NewStore(nil), fixedClock())
	ctx := context.Background()

	deleted, err := svc.DeletePost(ctx, DeletePostInput{Actor: bob, PostID: 5})
	require.NoError(t, err)
	assert.False(t, deleted)

	deleted, err = svc.DeletePost(ctx, DeletePostInput{Actor: alice, PostID: 5})
	require.NoError(t, err)
	assert.True(t, deleted)
}

func TestPostService_ListPostsCachedAndInvalidated(t *testing.T) {
	mr, store := setupCache(t)

	calls := 0
	repo := noopPostRepo()
	repo.listAllFn = func(context.Context) ([]models.Post, error) {
		calls++
		return []models.Post{{ID: 1, Title: "hi", UserID: 1, User: models.User{ID: 1, Username: "alice"}, Timestamp: fixedNow}}, nil
	}
	repo.incrementLikesFn = func(context.Context, uint, uint) (bool, error) { return true, nil }

	svc := NewPostService(repo, store, fixedClock())
	ctx := context.Background()

	posts, err := svc.ListPosts(ctx)
	require.NoError(t, err)
	require.Len(t, posts, 1)

	posts, err = svc.ListPosts(ctx)
	require.NoError(t, err)
	require.Len(t, posts, 1)
	assert.Equal(t, "alice", posts[0].Author())
	assert.True(t, posts[0].Timestamp.Equal(fixedNow))
	assert.Equal(t, 1, calls)
	assert.True(t, mr.Exists(cache.PostsListKey))

	_, err = svc.LikePost(ctx, LikePostInput{Actor: bob, PostID: 1})
	require.NoError(t, err)
	assert.False(t, mr.Exists(cache.PostsListKey))

	_, err = svc.ListPosts(ctx)
	require.NoError(t, err)
	assert.Equal(t, 2, calls)

	mr.FastForward(time.Minute)
	assert.False(t, mr.Exists(cache.PostsListKey))
}

func TestPostService_ListUserPosts(t *testing.T) {
	t.Parallel()

	repo := noopPostRepo()
	repo.listByUserIDFn = func(_ context.Context, userID uint) ([]models.Post, error) {
		return []models.Post{{ID: 7, UserID: userID}}, nil
	}

	posts, err := NewPostService(repo, cache.NewStore(nil), nil).ListUserPosts(context.Background(), alice)
	require.NoError(t, err)
	require.Len(t, posts, 1)
	assert.Equal(t, alice.UserID, posts[0].UserID)
}
