package models

import "time"

// User is a registered account. PasswordHash is a bcrypt hash and never leaves the server.
type User struct {
	Email        string    `json:"email"`
	FullName     string    `json:"fullName"`
	Nickname     string    `json:"nickname"`
	PasswordHash []byte    `json:"password_hash"`
	CreatedAt    time.Time `json:"created_at"`
}

// SessionUser is what a login session exposes about its user.
type SessionUser struct {
	Email    string `json:"email"`
	FullName string `json:"fullName"`
	Nickname string `json:"nickname"`
}

func (u *User) Session() SessionUser {
	return SessionUser{Email: u.Email, FullName: u.FullName, Nickname: u.Nickname}
}
