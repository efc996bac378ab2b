package service

import (
	"context"
	"errors"
	"time"

	"microblog/internal/avatar"
	"microblog/internal/cache"
	"microblog/internal/middleware"
	"microblog/internal/models"
	"microblog/internal/observability"
)

type AvatarService struct {
	generator *avatar.Generator
	cache     *cache.Store
	ttl       time.Duration
}

func NewAvatarService(generator *avatar.Generator, store *cache.Store, ttl time.Duration) *AvatarService {
	return &AvatarService{generator: generator, cache: store, ttl: ttl}
}

// Avatar is an encoded avatar image.
type Avatar struct {
	Data        []byte
	ContentType string
}

// Render returns the avatar for username's first letter in format ("png" or "webp").
// Cached bytes are identical to a fresh render.
func (s *AvatarService) Render(ctx context.Context, username, format string) (*Avatar, error) {
	if format == "" {
		format = avatar.FormatPNG
	}
	if format != avatar.FormatPNG && format != avatar.FormatWebP {
		return nil, models.NewValidationError("Unsupported avatar format")
	}

	letter := avatar.Letter(username)
	key := cache.AvatarKey(letter, s.generator.Size(), s.generator.Background(), format)

	if b, found, err := s.cache.GetBytes(ctx, key); err != nil {
		middleware.Logger.WarnContext(ctx, "avatar cache read failed", "key", key, "error", err)
	} else if found {
		observability.AvatarRenders.WithLabelValues("hit").Inc()
		return &Avatar{Data: b, ContentType: avatar.ContentType(format)}, nil
	}

	b, err := s.generator.Encode(letter, format)
	if err != nil {
		if errors.Is(err, avatar.ErrUnsupportedFormat) {
			return nil, models.NewValidationError("Unsupported avatar format")
		}
		return nil, models.NewInternalError(err)
	}

	if s.cache.Enabled() {
		observability.AvatarRenders.WithLabelValues("miss").Inc()
		if err := s.cache.SetBytes(ctx, key, b, s.ttl); err != nil {
			middleware.Logger.WarnContext(ctx, "avatar cache write failed", "key", key, "error", err)
		}
	} else {
		observability.AvatarRenders.WithLabelValues("bypass").Inc()
	}

	return &Avatar{Data: b, ContentType: avatar.ContentType(format)}, nil
}
