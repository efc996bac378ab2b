// Package seed creates demo data for local development. Everything goes
// through the repositories so seeded rows obey the same rules as real ones.
package seed

import (
	"context"
	"fmt"
	"time"

	"microblog/internal/models"
	"microblog/internal/repository"

	"github.com/brianvoe/gofakeit/v6"
	"gorm.io/gorm"
)

const (
	maxUsernameAttempts = 5
	usernameStemLen     = 24
)

// Factory builds domain entities and persists them through the repositories.
type Factory struct {
	users repository.UserRepository
	posts repository.PostRepository
	faker *gofakeit.Faker
	now   func() time.Time
}

// NewFactory creates a Factory bound to db. A zero seed picks a random one.
func NewFactory(db *gorm.DB, seed int64) *Factory {
	if seed == 0 {
		seed = time.Now().UnixNano()
	}
	return &Factory{
		users: repository.NewUserRepository(db),
		posts: repository.NewPostRepository(db),
		faker: gofakeit.New(seed),
		now:   func() time.Time { return time.Now().UTC() },
	}
}

func (f *Factory) username() string {
	stem := f.faker.Username()
	if len(stem) > usernameStemLen {
		stem = stem[:usernameStemLen]
	}
	return fmt.Sprintf("%s%d", stem, f.faker.Number(100, 999))
}

// CreateUser persists a fake user. Generated names that collide with an
// existing account are retried a few times before giving up.
func (f *Factory) CreateUser(ctx context.Context, overrides ...func(*models.User)) (*models.User, error) {
	var lastErr error
	for attempt := 0; attempt < maxUsernameAttempts; attempt++ {
		user := &models.User{
			Username:    f.username(),
			MemberSince: f.faker.DateRange(f.now().AddDate(-1, 0, 0), f.now()),
		}
		for _, override := range overrides {
			override(user)
		}

		err := f.users.Create(ctx, user)
		if err == nil {
			return user, nil
		}
		if !models.HasCode(err, models.CodeConflict) || len(overrides) > 0 {
			return nil, err
		}
		lastErr = err
	}
	return nil, fmt.Errorf("no free username after %d attempts: %w", maxUsernameAttempts, lastErr)
}

// CreatePost persists a fake post written by author within the last month.
func (f *Factory) CreatePost(ctx context.Context, author *models.User, overrides ...func(*models.Post)) (*models.Post, error) {
	post := &models.Post{
		Title:     f.faker.Sentence(5),
		Content:   f.faker.Paragraph(1, 3, 12, "\n"),
		UserID:    author.ID,
		Timestamp: f.faker.DateRange(f.now().AddDate(0, -1, 0), f.now()),
	}
	for _, override := range overrides {
		override(post)
	}

	if err := f.posts.Create(ctx, post); err != nil {
		return nil, err
	}
	post.User = *author
	return post, nil
}

// Like records a like from actor on post. Self-likes are ignored, as in the app.
func (f *Factory) Like(ctx context.Context, post *models.Post, actor *models.User) (bool, error) {
	return f.posts.IncrementLikes(ctx, post.ID, actor.ID)
}

// pick returns a random index in [0, n).
func (f *Factory) pick(n int) int {
	return f.faker.Number(0, n-1)
}
