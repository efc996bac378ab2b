package cache

import (
	"fmt"
	"time"
)

const (
	AvatarKeyPrefix = "avatar:%s:%d:%s:%s"
	PostsListKey    = "posts:all"
)

const (
	PostsTTL = 30 * time.Second
)

// AvatarKey identifies one rendered avatar variant.
func AvatarKey(letter string, size int, background, format string) string {
	return fmt.Sprintf(AvatarKeyPrefix, format, size, background, letter)
}
