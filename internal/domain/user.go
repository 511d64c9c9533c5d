package domain

import (
	"fmt"
	"math"
	"time"
)

// Roles.
const (
	RoleUser  = "user"
	RoleAdmin = "admin"
)

// DefaultAvatarURL is assigned to accounts registered without an avatar.
const DefaultAvatarURL = "/default-avatar.png"

// Ban holds the moderation state of an account.
type Ban struct {
	IsBanned bool       `json:"isBanned"`
	Expires  *time.Time `json:"banExpires"`
	Reason   string     `json:"banReason,omitempty"`
}

// User is a forum account. PasswordHash never leaves the server.
type User struct {
	ID           string    `json:"id"`
	Email        string    `json:"email"`
	Username     string    `json:"username"`
	PasswordHash string    `json:"-"`
	AvatarURL    string    `json:"avatarUrl"`
	Role         string    `json:"role"`
	Bio          string    `json:"bio"`
	IsActive     bool      `json:"isActive"`
	GithubID     string    `json:"githubId,omitempty"`
	Ban          Ban       `json:"banStatus"`
	CreatedAt    time.Time `json:"createdAt"`
	UpdatedAt    time.Time `json:"updatedAt"`
}

// IsAdmin reports whether the user has the admin role.
func (u User) IsAdmin() bool {
	return u.Role == RoleAdmin
}

// IsBanned reports whether the ban is in force at now. A ban without an
// expiry is permanent.
func (u User) IsBanned(now time.Time) bool {
	if !u.Ban.IsBanned {
		return false
	}
	if u.Ban.Expires == nil {
		return true
	}
	return now.Before(*u.Ban.Expires)
}

// BanMessage formats the message shown to a banned user at login.
func (u User) BanMessage(now time.Time) string {
	if !u.Ban.IsBanned {
		return ""
	}
	if u.Ban.Expires == nil {
		return fmt.Sprintf("Your account has been permanently banned. Reason: %s", u.Ban.Reason)
	}
	days := int(math.Ceil(u.Ban.Expires.Sub(now).Hours() / 24))
	plural := ""
	if days > 1 {
		plural = "s"
	}
	return fmt.Sprintf("Your account is banned for %d more day%s. Ban expires on %s. Reason: %s",
		days, plural, u.Ban.Expires.UTC().Format(time.RFC1123), u.Ban.Reason)
}

// Ref returns the public identity embedded in topics and comments.
func (u User) Ref() UserRef {
	return UserRef{ID: u.ID, Username: u.Username, AvatarURL: u.AvatarURL}
}

// UserRef is the resolved author identity attached to content.
type UserRef struct {
	ID        string `json:"id"`
	Username  string `json:"username"`
	AvatarURL string `json:"avatarUrl"`
}
