// Package domain holds the catalog's entities: users, authors and books.
package domain

// User represents an account that can authenticate against the catalog.
type User struct {
	Record
	Username      string `json:"username"`
	FavoriteGenre string `json:"favorite_genre"`
	PasswordHash  string `json:"password_hash,omitempty"` // Never rendered by the API
}

// Identity returns the token payload for this user.
func (u *User) Identity() Identity {
	return Identity{ID: u.ID, Username: u.Username}
}

// Identity is the subject carried by an access token.
type Identity struct {
	ID       string `json:"id"`
	Username string `json:"username"`
}
