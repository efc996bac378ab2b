package database

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"microblog/internal/middleware"
	"microblog/internal/models"

	"gorm.io/gorm"
)

// Migration is a named, idempotent schema change applied on top of AutoMigrate,
// mostly to bring databases created by older releases up to date.
type Migration struct {
	Version int
	Name    string
	Up      func(ctx context.Context, db *gorm.DB) error
}

// MigrationLog represents a record of an applied migration in the database.
type MigrationLog struct {
	Version   int       `gorm:"primaryKey;autoIncrement:false"`
	Name      string    `gorm:"size:255"`
	AppliedAt time.Time `gorm:"autoCreateTime"`
}

// TableName returns the database table name for MigrationLog.
func (MigrationLog) TableName() string {
	return "migration_logs"
}

// ErrUnknownMigration is returned when a migration name is not registered.
var ErrUnknownMigration = errors.New("unknown migration")

// Migrations returns the registered migrations in version order.
func Migrations() []Migration {
	return []Migration{
		{Version: 1, Name: "member-since", Up: func(ctx context.Context, db *gorm.DB) error {
			_, err := AddMemberSinceColumn(ctx, db)
			return err
		}},
		{Version: 2, Name: "backfill-authors", Up: func(ctx context.Context, db *gorm.DB) error {
			_, err := BackfillPostAuthors(ctx, db)
			return err
		}},
	}
}

// AppliedMigrations returns versions already recorded in migration_logs.
func AppliedMigrations(ctx context.Context, db *gorm.DB) ([]int, error) {
	if !db.Migrator().HasTable(&MigrationLog{}) {
		return []int{}, nil
	}
	var versions []int
	if err := db.WithContext(ctx).Model(&MigrationLog{}).Order("version ASC").Pluck("version", &versions).Error; err != nil {
		return nil, fmt.Errorf("failed to get applied migrations: %w", err)
	}
	return versions, nil
}

// RunMigration applies one migration by name and records it. Re-running an
// applied migration is harmless: every Up is idempotent.
func RunMigration(ctx context.Context, db *gorm.DB, name string) error {
	for _, m := range Migrations() {
		if m.Name == name {
			return apply(ctx, db, m)
		}
	}
	return fmt.Errorf("%w: %s", ErrUnknownMigration, name)
}

// RunPending applies every migration not yet recorded in migration_logs.
func RunPending(ctx context.Context, db *gorm.DB) (int, error) {
	applied, err := AppliedMigrations(ctx, db)
	if err != nil {
		return 0, err
	}
	done := make(map[int]bool, len(applied))
	for _, v := range applied {
		done[v] = true
	}

	count := 0
	for _, m := range Migrations() {
		if done[m.Version] {
			continue
		}
		if err := apply(ctx, db, m); err != nil {
			return count, err
		}
		count++
	}
	return count, nil
}

func apply(ctx context.Context, db *gorm.DB, m Migration) error {
	if err := db.WithContext(ctx).AutoMigrate(&MigrationLog{}); err != nil {
		return fmt.Errorf("failed to create migration_logs: %w", err)
	}
	if err := m.Up(ctx, db); err != nil {
		return fmt.Errorf("failed to apply migration %d (%s): %w", m.Version, m.Name, err)
	}

	entry := MigrationLog{Version: m.Version, Name: m.Name}
	if err := db.WithContext(ctx).Where("version = ?", m.Version).FirstOrCreate(&entry).Error; err != nil {
		return fmt.Errorf("failed to record migration %d: %w", m.Version, err)
	}

	middleware.Logger.InfoContext(ctx, "Migration applied", slog.Int("version", m.Version), slog.String("name", m.Name))
	return nil
}

// AddMemberSinceColumn adds users.memberSince when it is missing. It reports
// whether the column was added; an existing column is not an error.
func AddMemberSinceColumn(ctx context.Context, db *gorm.DB) (bool, error) {
	m := db.WithContext(ctx).Migrator()
	if !m.HasTable(&models.User{}) {
		return false, errors.New("users table does not exist; run `migrate up` first")
	}
	if m.HasColumn(&models.User{}, "memberSince") {
		return false, nil
	}

	if err := m.AddColumn(&models.User{}, "MemberSince"); err != nil {
		if isDuplicateColumnError(err) {
			return false, nil
		}
		return false, fmt.Errorf("failed to add memberSince column: %w", err)
	}
	return true, nil
}

// upgradeLegacySchema applies the idempotent upgrades for databases created by
// older releases. AutoMigrate cannot add the NOT NULL posts.user_id to a table
// that already has rows, so this runs first.
func upgradeLegacySchema(ctx context.Context, db *gorm.DB) error {
	if db.WithContext(ctx).Migrator().HasTable(&models.User{}) {
		if _, err := AddMemberSinceColumn(ctx, db); err != nil {
			return err
		}
	}
	if _, err := BackfillPostAuthors(ctx, db); err != nil {
		return err
	}
	return nil
}

// BackfillPostAuthors converts posts created by older releases, which stored the
// author's username, to reference users by id. Authors missing from users are
// created without a memberSince, every post is linked, and the username column
// is dropped. Returns the number of posts linked.
func BackfillPostAuthors(ctx context.Context, db *gorm.DB) (int64, error) {
	tx := db.WithContext(ctx)
	m := tx.Migrator()
	if !m.HasTable(&models.Post{}) || !m.HasColumn(&models.Post{}, "username") {
		return 0, nil
	}

	if !m.HasTable(&models.User{}) {
		if err := m.CreateTable(&models.User{}); err != nil {
			return 0, fmt.Errorf("failed to create users: %w", err)
		}
	}

	if err := tx.Exec(`INSERT INTO users (username)
		SELECT DISTINCT posts.username FROM posts
		WHERE posts.username IS NOT NULL AND posts.username <> ''
		AND NOT EXISTS (SELECT 1 FROM users WHERE users.username = posts.username)`).Error; err != nil {
		return 0, fmt.Errorf("failed to create missing authors: %w", err)
	}

	if !m.HasColumn(&models.Post{}, "user_id") {
		if err := tx.Exec("ALTER TABLE posts ADD COLUMN user_id INTEGER").Error; err != nil && !isDuplicateColumnError(err) {
			return 0, fmt.Errorf("failed to add posts.user_id: %w", err)
		}
	}

	res := tx.Exec(`UPDATE posts SET user_id = (SELECT users.id FROM users WHERE users.username = posts.username)
		WHERE (user_id IS NULL OR user_id = 0)
		AND EXISTS (SELECT 1 FROM users WHERE users.username = posts.username)`)
	if res.Error != nil {
		return 0, fmt.Errorf("failed to backfill posts.user_id: %w", res.Error)
	}

	if err := m.DropColumn(&models.Post{}, "username"); err != nil {
		return res.RowsAffected, fmt.Errorf("failed to drop posts.username: %w", err)
	}
	return res.RowsAffected, nil
}

func isDuplicateColumnError(err error) bool {
	msg := strings.ToLower(err.Error())
	return strings.Contains(msg, "duplicate column") ||
		strings.Contains(msg, "already exists") ||
		strings.Contains(msg, "42701")
}
