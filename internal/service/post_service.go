package service

import (
	"context"

	"microblog/internal/cache"
	"microblog/internal/models"
	"microblog/internal/observability"
	"microblog/internal/repository"

	"go.opentelemetry.io/otel/attribute"
)

type PostService struct {
	postRepo repository.PostRepository
	cache    *cache.Store
	clock    Clock
}

type CreatePostInput struct {
	Author  models.Identity
	Title   string
	Content string
}

type LikePostInput struct {
	Actor  models.Identity
	PostID uint
}

type DeletePostInput struct {
	Actor  models.Identity
	PostID uint
}

func NewPostService(postRepo repository.PostRepository, store *cache.Store, clock Clock) *PostService {
	if clock == nil {
		clock = SystemClock
	}
	return &PostService{postRepo: postRepo, cache: store, clock: clock}
}

// CreatePost stores a post with zero likes stamped with the current time.
// Title and content are stored as given.
func (s *PostService) CreatePost(ctx context.Context, in CreatePostInput) (*models.Post, error) {
	if in.Author.IsZero() {
		return nil, models.NewUnauthorizedError("Login required")
	}

	post := &models.Post{
		Title:     in.Title,
		Content:   in.Content,
		UserID:    in.Author.UserID,
		Timestamp: s.clock.Now(),
		Likes:     0,
	}
	if err := s.postRepo.Create(ctx, post); err != nil {
		return nil, err
	}
	post.User = models.User{ID: in.Author.UserID, Username: in.Author.Username}

	observability.PostsCreated.Inc()
	s.cache.Invalidate(ctx, cache.PostsListKey)
	return post, nil
}

// LikePost adds a like when the post exists and the actor is not its author.
// Every call counts; repeated likes are not deduplicated. Reports whether a like was recorded.
func (s *PostService) LikePost(ctx context.Context, in LikePostInput) (liked bool, err error) {
	ctx, span := observability.StartSpan(ctx, "PostService", "LikePost",
		attribute.Int("post.id", int(in.PostID)))
	defer func() { observability.EndSpan(span, err) }()

	if in.Actor.IsZero() {
		return false, models.NewUnauthorizedError("Login required")
	}

	liked, err = s.postRepo.IncrementLikes(ctx, in.PostID, in.Actor.UserID)
	if err != nil {
		return false, err
	}
	if !liked {
		observability.PostLikes.WithLabelValues("ignored").Inc()
		return false, nil
	}

	observability.PostLikes.WithLabelValues("applied").Inc()
	s.cache.Invalidate(ctx, cache.PostsListKey)
	return true, nil
}

// DeletePost removes the post only if the actor wrote it. Reports whether a row was removed.
func (s *PostService) DeletePost(ctx context.Context, in DeletePostInput) (deleted bool, err error) {
	ctx, span := observability.StartSpan(ctx, "PostService", "DeletePost",
		attribute.Int("post.id", int(in.PostID)))
	defer func() { observability.EndSpan(span, err) }()

	if in.Actor.IsZero() {
		return false, models.NewUnauthorizedError("Login required")
	}

	deleted, err = s.postRepo.DeleteOwned(ctx, in.PostID, in.Actor.UserID)
	if err != nil {
		return false, err
	}
	if !deleted {
		observability.PostDeletes.WithLabelValues("ignored").Inc()
		return false, nil
	}

	observability.PostDeletes.WithLabelValues("deleted").Inc()
	s.cache.Invalidate(ctx, cache.PostsListKey)
	return true, nil
}

// ListPosts returns every post newest first, served from cache when warm.
func (s *PostService) ListPosts(ctx context.Context) ([]models.Post, error) {
	var posts []models.Post
	err := s.cache.Aside(ctx, cache.PostsListKey, &posts, cache.PostsTTL, func() error {
		var err error
		posts, err = s.postRepo.ListAll(ctx)
		return err
	})
	if err != nil {
		return nil, err
	}
	return posts, nil
}

// ListUserPosts returns the posts authored by the given user, newest first.
func (s *PostService) ListUserPosts(ctx context.Context, author models.Identity) ([]models.Post, error) {
	if author.IsZero() {
		return nil, models.NewUnauthorizedError("Login required")
	}
	return s.postRepo.ListByUserID(ctx, author.UserID)
}
