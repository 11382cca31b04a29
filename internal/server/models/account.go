// Package models defines server-side data models persisted in the database.
package models

import "time"

// Account is a registered user. PasswordHash holds an Argon2id PHC string
// (or, for rows predating hashing, the raw password).
type Account struct {
	ID           string
	Username     string
	Email        string
	PasswordHash string
	IsActive     bool
	CreatedAt    time.Time
	UpdatedAt    time.Time
}

// AccountView is the part of an Account that is safe to return to clients.
type AccountView struct {
	ID       string `json:"id"`
	Username string `json:"username"`
	Email    string `json:"email"`
}

func (a *Account) View() AccountView {
	return AccountView{ID: a.ID, Username: a.Username, Email: a.Email}
}

// ProfileView is what the owner of an account sees about themselves.
type ProfileView struct {
	ID        string    `json:"id"`
	Username  string    `json:"username"`
	Email     string    `json:"email"`
	IsActive  bool      `json:"isActive"`
	CreatedAt time.Time `json:"createdAt"`
	UpdatedAt time.Time `json:"updatedAt"`
}

func (a *Account) Profile() ProfileView {
	return ProfileView{
		ID:        a.ID,
		Username:  a.Username,
		Email:     a.Email,
		IsActive:  a.IsActive,
		CreatedAt: a.CreatedAt,
		UpdatedAt: a.UpdatedAt,
	}
}
