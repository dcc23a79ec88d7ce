package application

import (
	"context"
	"io"
	"time"
)

// PasswordHasher is satisfied by helpers.PasswordHasher.
type PasswordHasher interface {
	Hash(password string) (string, error)
	Verify(password, stored string) bool
	DummyHash() string
}

// EventPublisher is satisfied by helpers.RabbitPublisher.
type EventPublisher interface {
	PublishJSON(ctx context.Context, body any) error
}

// PhotoStore uploads an object and returns its public URL.
type PhotoStore interface {
	Upload(ctx context.Context, objectPath, contentType string, r io.Reader) (string, error)
}

// PetCache holds PetView snapshots keyed by pet id. Put is refused when a
// newer version was already invalidated.
type PetCache interface {
	Get(ctx context.Context, id string) (PetView, bool, error)
	Put(ctx context.Context, v PetView, version int64) error
	Invalidate(ctx context.Context, id string, version int64) error
}

// PetIndex is the full-text search side of the pet catalogue.
type PetIndex interface {
	Index(ctx context.Context, p PetView) error
	Delete(ctx context.Context, id string) error
	Search(ctx context.Context, query string, size int) ([]PetView, error)
}

// AdoptionEvent is published after every committed pet lifecycle transition.
type AdoptionEvent struct {
	PetID      string    `json:"petId"`
	PetName    string    `json:"petName"`
	Action     string    `json:"action"`
	From       string    `json:"from"`
	To         string    `json:"to"`
	AdopterID  string    `json:"adopterId,omitempty"`
	OccurredAt time.Time `json:"occurredAt"`
}
