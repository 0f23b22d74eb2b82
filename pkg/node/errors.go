package node

import (
	"errors"
	"fmt"
)

// Both error kinds are fatal for process startup. The wrapped messages are
// the operator's only diagnostic surface, so their wording is a contract:
// a missing role names the artifact that could not be built, and a storage
// misconfiguration names the configuration key to set.
var (
	// ErrMissingRoleBinding means the server role was never supplied.
	ErrMissingRoleBinding = errors.New("missing server role binding")
	// ErrInvalidStorageConfig means a role requiring local storage has no
	// configured cache locations.
	ErrInvalidStorageConfig = errors.New("invalid storage configuration")
)

func missingRole(artifact string) error {
	return fmt.Errorf("%w: node.role must be set if you want a %s", ErrMissingRoleBinding, artifact)
}

func cacheNotConfigured(role Role) error {
	return fmt.Errorf("%w: segment_cache.locations must be set on %ss", ErrInvalidStorageConfig, role)
}
