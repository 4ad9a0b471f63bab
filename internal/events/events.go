// Package events is the in-process publish/subscribe broker for catalog changes.
package events

import "time"

// Type identifies an event.
type Type string

const (
	// TypeBookAdded is published after a book is stored.
	TypeBookAdded Type = "book.added"
	// TypeAuthorCreated is published when addBook creates a new author.
	TypeAuthorCreated Type = "author.created"
	// TypeAuthorUpdated is published after editAuthor.
	TypeAuthorUpdated Type = "author.updated"
	// TypeUserCreated is published after createUser.
	TypeUserCreated Type = "user.created"
)

// Event is a single catalog change notification.
type Event struct {
	Timestamp time.Time `json:"timestamp"`
	Data      any       `json:"data"`
	Type      Type      `json:"type"`
}

// BookAddedData is the payload of TypeBookAdded.
type BookAddedData struct {
	BookID   string   `json:"book_id"`
	Title    string   `json:"title"`
	AuthorID string   `json:"author_id"`
	Author   string   `json:"author"`
	Genres   []string `json:"genres"`
}

// AuthorData is the payload of the author events.
type AuthorData struct {
	AuthorID string `json:"author_id"`
	Name     string `json:"name"`
	Born     *int   `json:"born,omitempty"`
}

// UserCreatedData is the payload of TypeUserCreated.
type UserCreatedData struct {
	UserID   string `json:"user_id"`
	Username string `json:"username"`
}

func newEvent(t Type, data any) Event {
	return Event{Type: t, Data: data, Timestamp: time.Now()}
}

// NewBookAddedEvent creates a book.added event.
func NewBookAddedEvent(data BookAddedData) Event {
	return newEvent(TypeBookAdded, data)
}

// NewAuthorCreatedEvent creates an author.created event.
func NewAuthorCreatedEvent(data AuthorData) Event {
	return newEvent(TypeAuthorCreated, data)
}

// NewAuthorUpdatedEvent creates an author.updated event.
func NewAuthorUpdatedEvent(data AuthorData) Event {
	return newEvent(TypeAuthorUpdated, data)
}

// NewUserCreatedEvent creates a user.created event.
func NewUserCreatedEvent(data UserCreatedData) Event {
	return newEvent(TypeUserCreated, data)
}
