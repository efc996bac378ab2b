package models

import "time"

// Post is a text entry authored by a user. The author's name is loaded
// through the User association, never stored on the post itself.
type Post struct {
	ID        uint      `gorm:"primaryKey" json:"id" yaml:"id"`
	Title     string    `gorm:"not null" json:"title" yaml:"title"`
	Content   string    `gorm:"type:text;not null" json:"content" yaml:"content"`
	UserID    uint      `gorm:"not null;index" json:"user_id" yaml:"userId"`
	User      User      `gorm:"foreignKey:UserID" json:"user" yaml:"-"`
	Timestamp time.Time `gorm:"not null;index" json:"timestamp" yaml:"timestamp"`
	Likes     int       `gorm:"not null;default:0" json:"likes" yaml:"likes"`
}

// Author returns the resolved author username, empty when the association was not loaded.
func (p Post) Author() string {
	return p.User.Username
}
