package repository

import (
	"context"
	"errors"
	"regexp"
	"testing"
	"time"

	"microblog/internal/models"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"
)

func TestUserRepository_CreateAndLookup(t *testing.T) {
	db := setupSQLiteDB(t)
	repo := NewUserRepository(db)
	ctx := context.Background()

	u := &models.User{Username: "alice", MemberSince: time.Now()}
	require.NoError(t, repo.Create(ctx, u))
	assert.NotZero(t, u.ID)

	got, err := repo.GetByUsername(ctx, "alice")
	require.NoError(t, err)
	require.NotNil(t, got)
	assert.Equal(t, u.ID, got.ID)

	byID, err := repo.GetByID(ctx, u.ID)
	require.NoError(t, err)
	assert.Equal(t, "alice", byID.Username)

	missing, err := repo.GetByUsername(ctx, "nobody")
	assert.NoError(t, err)
	assert.Nil(t, missing)

	_, err = repo.GetByID(ctx, 999)
	assert.True(t, models.HasCode(err, models.CodeNotFound))
}

func TestUserRepository_CreateDuplicateIsConflict(t *testing.T) {
	db := setupSQLiteDB(t)
	repo := NewUserRepository(db)
	ctx := context.Background()

	require.NoError(t, repo.Create(ctx, &models.User{Username: "alice", MemberSince: time.Now()}))
	err := repo.Create(ctx, &models.User{Username: "alice", MemberSince: time.Now()})
	assert.True(t, models.HasCode(err, models.CodeConflict))

	n, err := repo.Count(ctx)
	require.NoError(t, err)
	assert.Equal(t, int64(1), n)
}

func TestUserRepository_CreateStoresUTC(t *testing.T) {
	db := setupSQLiteDB(t)
	repo := NewUserRepository(db)

	joined := time.Date(2024, 2, 1, 9, 0, 0, 0, time.FixedZone("UTC-3", -3*60*60))
	u := &models.User{Username: "carol", MemberSince: joined}
	require.NoError(t, repo.Create(context.Background(), u))
	assert.Equal(t, time.UTC, u.MemberSince.Location())
	assert.True(t, u.MemberSince.Equal(joined))
}

func TestUserRepository_CreatePostgresUniqueViolation(t *testing.T) {
	db, mock := setupMockDB(t)
	repo := NewUserRepository(db)

	mock.ExpectBegin()
	mock.ExpectQuery(regexp.QuoteMeta(`INSERT INTO "users"`)).
		WillReturnError(errors.New(`ERROR: duplicate key value violates unique constraint "idx_users_username" (SQLSTATE 23505)`))
	mock.ExpectRollback()

	err := repo.Create(context.Background(), &models.User{Username: "alice", MemberSince: time.Now()})
	assert.True(t, models.HasCode(err, models.CodeConflict))
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestUserRepository_GetByUsernameErrors(t *testing.T) {
	tests := []struct {
		name         string
		mockBehavior func(mock sqlmock.Sqlmock)
		wantNil      bool
		wantCode     string
	}{
		{
			name: "not found returns nil",
			mockBehavior: func(mock sqlmock.Sqlmock) {
				mock.ExpectQuery(regexp.QuoteMeta(`SELECT * FROM "users" WHERE username = $1`)).
					WithArgs("ghost", 1).
					WillReturnRows(sqlmock.NewRows([]string{"id", "username"}))
			},
			wantNil: true,
		},
		{
			name: "driver failure is internal",
			mockBehavior: func(mock sqlmock.Sqlmock) {
				mock.ExpectQuery(regexp.QuoteMeta(`SELECT * FROM "users" WHERE username = $1`)).
					WillReturnError(errors.New("connection reset"))
			},
			wantCode: models.CodeInternal,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			db, mock := setupMockDB(t)
			repo := NewUserRepository(db)
			tt.mockBehavior(mock)

			user, err := repo.GetByUsername(context.Background(), "ghost")
			if tt.wantNil {
				assert.NoError(t, err)
				assert.Nil(t, user)
			} else {
				assert.True(t, models.HasCode(err, tt.wantCode))
			}
			assert.NoError(t, mock.ExpectationsWereMet())
		})
	}
}

func TestIsUniqueConstraintError(t *testing.T) {
	assert.True(t, isUniqueConstraintError(gorm.ErrDuplicatedKey))
	assert.True(t, isUniqueConstraintError(errors.New("UNIQUE constraint failed: users.username")))
	assert.True(t, isUniqueConstraintError(errors.New("pq: 23505")))
	assert.False(t, isUniqueConstraintError(errors.New("no such table: users")))
	assert.False(t, isUniqueConstraintError(nil))
}
