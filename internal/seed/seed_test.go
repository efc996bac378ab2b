package seed

import (
	"context"
	"testing"

	"microblog/internal/database"
	"microblog/internal/models"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

func setupDB(t *testing.T) *gorm.DB {
	t.Helper()
	db, err := gorm.Open(sqlite.Open(":memory:?_foreign_keys=on"), &gorm.Config{
		Logger:         logger.Default.LogMode(logger.Silent),
		TranslateError: true,
	})
	require.NoError(t, err)

	sqlDB, err := db.DB()
	require.NoError(t, err)
	sqlDB.SetMaxOpenConns(1)
	t.Cleanup(func() { _ = sqlDB.Close() })

	require.NoError(t, database.ApplySchema(db))
	return db
}

func count(t *testing.T, db *gorm.DB, model interface{}) int64 {
	t.Helper()
	var n int64
	require.NoError(t, db.Model(model).Count(&n).Error)
	return n
}

func TestSeed_CreatesRequestedData(t *testing.T) {
	db := setupDB(t)
	ctx := context.Background()

	sum, err := Seed(ctx, db, Options{Users: 5, Posts: 12, Likes: 8, Seed: 42})
	require.NoError(t, err)

	assert.Equal(t, 5, sum.Users)
	assert.Equal(t, 12, sum.Posts)
	assert.Equal(t, int64(5), sum.TotalUsers)
	assert.Equal(t, int64(5), count(t, db, &models.User{}))
	assert.Equal(t, int64(12), count(t, db, &models.Post{}))

	var total int64
	require.NoError(t, db.Model(&models.Post{}).Select("COALESCE(SUM(likes), 0)").Scan(&total).Error)
	assert.Equal(t, int64(sum.Likes), total)
	assert.LessOrEqual(t, sum.Likes, 8)

	var users []models.User
	require.NoError(t, db.Find(&users).Error)
	for _, u := range users {
		assert.LessOrEqual(t, len(u.Username), 30)
		assert.False(t, u.MemberSince.IsZero())
	}
}

func TestSeed_CleanRemovesExistingRows(t *testing.T) {
	db := setupDB(t)
	ctx := context.Background()

	sum, err := Seed(ctx, db, Options{Users: 3, Posts: 3, Seed: 1})
	require.NoError(t, err)
	assert.Equal(t, int64(3), sum.TotalUsers)

	sum, err = Seed(ctx, db, Options{Users: 2, Posts: 1, Clean: true, Seed: 2})
	require.NoError(t, err)
	assert.Equal(t, int64(2), sum.TotalUsers)

	assert.Equal(t, int64(2), count(t, db, &models.User{}))
	assert.Equal(t, int64(1), count(t, db, &models.Post{}))
}

func TestSeed_PostsWithoutUsers(t *testing.T) {
	db := setupDB(t)
	_, err := Seed(context.Background(), db, Options{Posts: 3})
	assert.ErrorIs(t, err, ErrNoUsers)
}

func TestFactory_SelfLikeIgnored(t *testing.T) {
	db := setupDB(t)
	ctx := context.Background()
	f := NewFactory(db, 7)

	author, err := f.CreateUser(ctx, func(u *models.User) { u.Username = "author" })
	require.NoError(t, err)
	reader, err := f.CreateUser(ctx)
	require.NoError(t, err)

	post, err := f.CreatePost(ctx, author)
	require.NoError(t, err)
	assert.Equal(t, "author", post.User.Username)

	liked, err := f.Like(ctx, post, author)
	require.NoError(t, err)
	assert.False(t, liked)

	liked, err = f.Like(ctx, post, reader)
	require.NoError(t, err)
	assert.True(t, liked)
}

func TestFactory_OverrideConflictIsNotRetried(t *testing.T) {
	db := setupDB(t)
	ctx := context.Background()
	f := NewFactory(db, 9)

	named := func(u *models.User) { u.Username = "taken" }
	_, err := f.CreateUser(ctx, named)
	require.NoError(t, err)

	_, err = f.CreateUser(ctx, named)
	assert.True(t, models.HasCode(err, models.CodeConflict))
}
