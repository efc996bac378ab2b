// Package models contains data structures for the application's domain models.
package models

import "time"

// User is a registered account. Usernames are unique at the schema level.
type User struct {
	ID          uint      `gorm:"primaryKey" json:"id" yaml:"id"`
	Username    string    `gorm:"uniqueIndex;not null" json:"username" yaml:"username"`
	MemberSince time.Time `gorm:"column:memberSince" json:"member_since" yaml:"memberSince"`
	Posts       []Post    `gorm:"foreignKey:UserID" json:"posts,omitempty" yaml:"-"`
}

// Identity is the authenticated caller, resolved once per request from the session.
type Identity struct {
	UserID   uint
	Username string
}

// IsZero reports whether the identity carries no user.
func (i Identity) IsZero() bool {
	return i.UserID == 0
}
