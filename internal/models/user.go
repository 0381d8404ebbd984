package models

import (
	"time"
)

// User is a registered account. Email is the login identifier.
type User struct {
	ID           uint      `gorm:"primarykey" json:"id"`
	CreatedAt    time.Time `json:"-"`
	UpdatedAt    time.Time `json:"-"`
	Email        string    `gorm:"size:254;uniqueIndex;not null" json:"email"`
	Username     string    `gorm:"size:150;uniqueIndex;not null;check:username_not_reserved,lower(username) NOT IN ('me', 'set_password')" json:"username"`
	FirstName    string    `gorm:"size:150;not null" json:"first_name"`
	LastName     string    `gorm:"size:150;not null" json:"last_name"`
	PasswordHash string    `gorm:"not null" json:"-"`
	IsStaff      bool      `gorm:"not null;default:false" json:"-"`
}

// Follow records that Follower is subscribed to Author.
type Follow struct {
	ID         uint `gorm:"primarykey"`
	CreatedAt  time.Time
	FollowerID uint `gorm:"not null;uniqueIndex:idx_follow_pair;check:no_self_follow,follower_id <> author_id"`
	AuthorID   uint `gorm:"not null;uniqueIndex:idx_follow_pair"`
	Follower   User `gorm:"constraint:OnDelete:CASCADE"`
	Author     User `gorm:"constraint:OnDelete:CASCADE"`
}

func (Follow) TableName() string {
	return "follows"
}
