package services

import (
	"errors"
	"net/http"

	"github.com/pocha/restic-api/repositories"
)

// PasswordHeader carries the repository password on interactive requests.
const PasswordHeader = "X-Restic-Password"

// ErrNoCredential is returned when neither the password header nor a
// resolvable stored key is present. No subprocess is spawned in that case.
var ErrNoCredential = errors.New("X-Restic-Password header or a valid key is required")

// CredentialResolver unifies credential-by-value (header) and
// credential-by-reference (stored key) into one lookup, so every
// operation consumes a plain secret regardless of how it arrived.
type CredentialResolver struct {
	store *repositories.CredentialStore
}

func NewCredentialResolver(store *repositories.CredentialStore) *CredentialResolver {
	return &CredentialResolver{store: store}
}

// Resolve returns the repository password for a request. The header
// wins when present; otherwise key is looked up in the credential store.
func (r *CredentialResolver) Resolve(header http.Header, key string) (string, error) {
	if secret := header.Get(PasswordHeader); secret != "" {
		return secret, nil
	}
	if key != "" {
		secret, ok, err := r.store.Get(key)
		if err != nil {
			return "", err
		}
		if ok {
			return secret, nil
		}
	}
	return "", ErrNoCredential
}
