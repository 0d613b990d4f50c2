package model

import "time"

type Account struct {
	ID           string     `json:"id,omitempty" bson:"_id,omitempty"`
	Username     string     `json:"username" bson:"username" validate:"required,min=2,max=64"`
	Email        string     `json:"email" bson:"email" validate:"required,email,max=254"`
	PasswordHash string     `json:"-" bson:"password"`
	LastLogin    *time.Time `json:"last_login,omitempty" bson:"last_login,omitempty"`
	CreatedAt    time.Time  `json:"created_at" bson:"created_at"`
	UpdatedAt    time.Time  `json:"updated_at" bson:"updated_at"`
}

type AccountInput struct {
	Username string `json:"username"`
	Email    string `json:"email"`
	Password string `json:"password"`
}

// AccountUpdate is a partial update. Nil fields are left untouched.
type AccountUpdate struct {
	Username *string `json:"username,omitempty"`
	Email    *string `json:"email,omitempty"`
	Password *string `json:"password,omitempty"`
}

type LoginRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

type LoginResponse struct {
	Token string `json:"token"`
	Name  string `json:"name"`
	Email string `json:"email"`
}

// Identity is the subset of an account carried inside a credential.
type Identity struct {
	ID       string `json:"id"`
	Email    string `json:"email"`
	Username string `json:"username"`
}

func (a *Account) Identity() Identity {
	return Identity{ID: a.ID, Email: a.Email, Username: a.Username}
}
