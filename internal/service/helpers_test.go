package service

import (
	"context"
	"testing"
	"time"

	"microblog/internal/models"

	"github.com/stretchr/testify/require"
)

var fixedNow = time.Date(2024, 5, 1, 10, 0, 0, 0, time.UTC)

func fixedClock() Clock {
	return ClockFunc(func() time.Time { return fixedNow })
}

// userRepoStub is a stub for repository.UserRepository.
type userRepoStub struct {
	getByIDFn       func(context.Context, uint) (*models.User, error)
	getByUsernameFn func(context.Context, string) (*models.User, error)
	createFn        func(context.Context, *models.User) error
	countFn         func(context.Context) (int64, error)
}

func (s *userRepoStub) GetByID(ctx context.Context, id uint) (*models.User, error) {
	return s.getByIDFn(ctx, id)
}
func (s *userRepoStub) GetByUsername(ctx context.Context, username string) (*models.User, error) {
	return s.getByUsernameFn(ctx, username)
}
func (s *userRepoStub) Create(ctx context.Context, user *models.User) error {
	return s.createFn(ctx, user)
}
func (s *userRepoStub) Count(ctx context.Context) (int64, error) {
	return s.countFn(ctx)
}

func noopUserRepo() *userRepoStub {
	return &userRepoStub{
		getByIDFn:       func(context.Context, uint) (*models.User, error) { return nil, models.NewNotFoundError("User", 0) },
		getByUsernameFn: func(context.Context, string) (*models.User, error) { return nil, nil },
		createFn:        func(context.Context, *models.User) error { return nil },
		countFn:         func(context.Context) (int64, error) { return 0, nil },
	}
}

// postRepoStub is a stub for repository.PostRepository.
type postRepoStub struct {
	createFn         func(context.Context, *models.Post) error
	listAllFn        func(context.Context) ([]models.Post, error)
	listByUserIDFn   func(context.Context, uint) ([]models.Post, error)
	incrementLikesFn func(context.Context, uint, uint) (bool, error)
	deleteOwnedFn    func(context.Context, uint, uint) (bool, error)
}

func (s *postRepoStub) Create(ctx context.Context, post *models.Post) error {
	return s.createFn(ctx, post)
}
func (s *postRepoStub) ListAll(ctx context.Context) ([]models.Post, error) {
	return s.listAllFn(ctx)
}
func (s *postRepoStub) ListByUserID(ctx context.Context, userID uint) ([]models.Post, error) {
	return s.listByUserIDFn(ctx, userID)
}
func (s *postRepoStub) IncrementLikes(ctx context.Context, postID, actorID uint) (bool, error) {
	return s.incrementLikesFn(ctx, postID, actorID)
}
func (s *postRepoStub) DeleteOwned(ctx context.Context, postID, userID uint) (bool, error) {
	return s.deleteOwnedFn(ctx, postID, userID)
}

func noopPostRepo() *postRepoStub {
	return &postRepoStub{
		createFn:         func(context.Context, *models.Post) error { return nil },
		listAllFn:        func(context.Context) ([]models.Post, error) { return nil, nil },
		listByUserIDFn:   func(context.Context, uint) ([]models.Post, error) { return nil, nil },
		incrementLikesFn: func(context.Context, uint, uint) (bool, error) { return false, nil },
		deleteOwnedFn:    func(context.Context, uint, uint) (bool, error) { return false, nil },
	}
}

func assertCode(t *testing.T, err error, code string) {
	t.Helper()
	require.Error(t, err)
	require.Truef(t, models.HasCode(err, code), "expected %s, got %v", code, err)
}
