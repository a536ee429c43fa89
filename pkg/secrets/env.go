package secrets

import (
	"context"
	"fmt"
	"os"
	"sort"
	"strings"
)

// EnvPrefix marks the environment variables exposed as secrets.
const EnvPrefix = "FLOWGRAPH_SECRET_"

// EnvStore resolves secrets from prefixed environment variables. Read-only;
// rotation happens by restarting with new values, so every version is 1.
type EnvStore struct{}

func NewEnvStore() *EnvStore {
	return &EnvStore{}
}

func (s *EnvStore) Get(_ context.Context, name string) (*Secret, error) {
	value, ok := os.LookupEnv(EnvPrefix + strings.ToUpper(name))
	if !ok {
		return nil, fmt.Errorf("%w: %s", ErrSecretNotFound, name)
	}

	return &Secret{Name: name, Value: value, Version: 1}, nil
}

func (s *EnvStore) Set(_ context.Context, name, _ string) (*Secret, error) {
	return nil, fmt.Errorf("environment store is read-only, cannot set %q", name)
}

func (s *EnvStore) List(_ context.Context) ([]string, error) {
	var names []string

	for _, entry := range os.Environ() {
		key, _, ok := strings.Cut(entry, "=")
		if !ok || !strings.HasPrefix(key, EnvPrefix) {
			continue
		}

		names = append(names, strings.ToLower(strings.TrimPrefix(key, EnvPrefix)))
	}

	sort.Strings(names)

	return names, nil
}
