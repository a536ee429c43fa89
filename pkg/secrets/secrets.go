// Package secrets resolves named credentials for executing components.
// Values never appear in graphs, definitions or trace events; components
// receive them at execution time only.
package secrets

import (
	"context"
	"errors"
)

// ErrSecretNotFound is returned when no value exists under the name.
var ErrSecretNotFound = errors.New("secret not found")

// Secret is one resolved credential. Version increments on every rotation.
type Secret struct {
	Name    string
	Value   string
	Version int
}

// Store reads and writes named secrets.
type Store interface {
	// Get returns the latest version of the named secret, or
	// ErrSecretNotFound.
	Get(ctx context.Context, name string) (*Secret, error)

	// Set stores a new value under the name, bumping the version.
	Set(ctx context.Context, name, value string) (*Secret, error)

	// List returns the known secret names in lexical order, values omitted.
	List(ctx context.Context) ([]string, error)
}

// Getter adapts a Store to the narrow interface components consume.
type Getter struct {
	store Store
}

func NewGetter(store Store) *Getter {
	return &Getter{store: store}
}

func (g *Getter) GetSecret(ctx context.Context, name string) (string, error) {
	secret, err := g.store.Get(ctx, name)
	if err != nil {
		return "", err
	}

	return secret.Value, nil
}
