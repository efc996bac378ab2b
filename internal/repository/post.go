package repository

import (
	"context"

	"microblog/internal/models"
	"microblog/internal/observability"

	"gorm.io/gorm"
)

// PostRepository defines persistence operations for posts.
type PostRepository interface {
	Create(ctx context.Context, post *models.Post) error
	ListAll(ctx context.Context) ([]models.Post, error)
	ListByUserID(ctx context.Context, userID uint) ([]models.Post, error)
	IncrementLikes(ctx context.Context, postID, actorID uint) (bool, error)
	DeleteOwned(ctx context.Context, postID, userID uint) (bool, error)
}

type postRepository struct {
	db *gorm.DB
}

// NewPostRepository returns a new PostRepository implementation.
func NewPostRepository(db *gorm.DB) PostRepository {
	return &postRepository{db: db}
}

// Create stores the timestamp in UTC so SQLite's text ordering stays chronological.
func (r *postRepository) Create(ctx context.Context, post *models.Post) error {
	defer observability.TrackQuery("insert", "posts")()

	post.Timestamp = post.Timestamp.UTC()

	if err := r.db.WithContext(ctx).Omit("User").Create(post).Error; err != nil {
		return models.NewInternalError(err)
	}
	return nil
}

// ListAll returns every post, newest first, with authors resolved.
func (r *postRepository) ListAll(ctx context.Context) ([]models.Post, error) {
	defer observability.TrackQuery("select", "posts")()

	var posts []models.Post
	if err := r.db.WithContext(ctx).
		Preload("User").
		Order("timestamp DESC").Order("id DESC").
		Find(&posts).Error; err != nil {
		return nil, models.NewInternalError(err)
	}
	return posts, nil
}

func (r *postRepository) ListByUserID(ctx context.Context, userID uint) ([]models.Post, error) {
	defer observability.TrackQuery("select", "posts")()

	var posts []models.Post
	if err := r.db.WithContext(ctx).
		Preload("User").
		Where("user_id = ?", userID).
		Order("timestamp DESC").Order("id DESC").
		Find(&posts).Error; err != nil {
		return nil, models.NewInternalError(err)
	}
	return posts, nil
}

// IncrementLikes adds one like unless the post is missing or actorID wrote it.
// The check and the increment are a single statement. Reports whether a row changed.
func (r *postRepository) IncrementLikes(ctx context.Context, postID, actorID uint) (bool, error) {
	defer observability.TrackQuery("update", "posts")()

	res := r.db.WithContext(ctx).
		Model(&models.Post{}).
		Where("id = ? AND user_id <> ?", postID, actorID).
		UpdateColumn("likes", gorm.Expr("likes + ?", 1))
	if res.Error != nil {
		return false, models.NewInternalError(res.Error)
	}
	return res.RowsAffected > 0, nil
}

// DeleteOwned removes the post only when userID is its author. Reports whether a row was deleted.
func (r *postRepository) DeleteOwned(ctx context.Context, postID, userID uint) (bool, error) {
	defer observability.TrackQuery("delete", "posts")()

	res := r.db.WithContext(ctx).
		Where("id = ? AND user_id = ?", postID, userID).
		Delete(&models.Post{})
	if res.Error != nil {
		return false, models.NewInternalError(res.Error)
	}
	return res.RowsAffected > 0, nil
}
