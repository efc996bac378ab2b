package seed

import (
	"context"
	"errors"
	"fmt"

	"microblog/internal/middleware"
	"microblog/internal/models"

	"gorm.io/gorm"
)

// Options sizes a seeding run.
type Options struct {
	Users int
	Posts int
	Likes int
	Clean bool
	// Seed makes runs reproducible; zero picks a random seed.
	Seed int64
}

// Summary reports what a run created and how many users the database now holds.
type Summary struct {
	Users      int
	Posts      int
	Likes      int
	TotalUsers int64
}

// ErrNoUsers is returned when posts or likes are requested without users.
var ErrNoUsers = errors.New("seeding posts or likes requires at least one user")

// Seed fills the database with fake users, posts and likes.
func Seed(ctx context.Context, db *gorm.DB, opts Options) (Summary, error) {
	var sum Summary
	if opts.Users <= 0 && (opts.Posts > 0 || opts.Likes > 0) {
		return sum, ErrNoUsers
	}

	if opts.Clean {
		if err := ClearAll(ctx, db); err != nil {
			return sum, err
		}
	}

	f := NewFactory(db, opts.Seed)

	users := make([]*models.User, 0, opts.Users)
	for i := 0; i < opts.Users; i++ {
		u, err := f.CreateUser(ctx)
		if err != nil {
			return sum, fmt.Errorf("create user %d: %w", i+1, err)
		}
		users = append(users, u)
	}
	sum.Users = len(users)

	posts := make([]*models.Post, 0, opts.Posts)
	for i := 0; i < opts.Posts; i++ {
		p, err := f.CreatePost(ctx, users[f.pick(len(users))])
		if err != nil {
			return sum, fmt.Errorf("create post %d: %w", i+1, err)
		}
		posts = append(posts, p)
	}
	sum.Posts = len(posts)

	// Self-likes are rejected, so a lone author can never be liked.
	if len(posts) > 0 && len(users) > 1 {
		for attempts := 0; sum.Likes < opts.Likes && attempts < opts.Likes*4; attempts++ {
			liked, err := f.Like(ctx, posts[f.pick(len(posts))], users[f.pick(len(users))])
			if err != nil {
				return sum, fmt.Errorf("like post: %w", err)
			}
			if liked {
				sum.Likes++
			}
		}
	}

	total, err := f.users.Count(ctx)
	if err != nil {
		return sum, fmt.Errorf("count users: %w", err)
	}
	sum.TotalUsers = total

	middleware.Logger.InfoContext(ctx, "Seeding complete",
		"users", sum.Users, "posts", sum.Posts, "likes", sum.Likes, "total_users", sum.TotalUsers)
	return sum, nil
}

// ClearAll removes every post and user.
func ClearAll(ctx context.Context, db *gorm.DB) error {
	return db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Session(&gorm.Session{AllowGlobalUpdate: true}).Delete(&models.Post{}).Error; err != nil {
			return fmt.Errorf("clear posts: %w", err)
		}
		if err := tx.Session(&gorm.Session{AllowGlobalUpdate: true}).Delete(&models.User{}).Error; err != nil {
			return fmt.Errorf("clear users: %w", err)
		}
		return nil
	})
}
