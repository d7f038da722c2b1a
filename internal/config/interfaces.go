package config

import "context"

// SecretProvider resolves secret values from an external parameter store.
// Implementations must return a map keyed by the requested parameter names;
// missing parameters are simply absent from the result.
type SecretProvider interface {
	GetParametersBatch(ctx context.Context, names []string) (map[string]string, error)
}
