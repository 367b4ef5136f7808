package services

import (
	"context"
	"strings"
)

// Identity is what the mini-program login provider knows about a user.
type Identity struct {
	OpenID     string
	UnionID    string
	SessionKey string
}

//go:generate mockgen -destination=../mocks/identity_provider.go -package=mocks . IdentityProvider

// IdentityProvider exchanges a one-time login code for a stable identity.
type IdentityProvider interface {
	Exchange(ctx context.Context, code string) (*Identity, error)
}

// MockIdentityProvider derives the openid from the code. It exists for local
// development without WeChat credentials.
type MockIdentityProvider struct{}

func (MockIdentityProvider) Exchange(_ context.Context, code string) (*Identity, error) {
	code = strings.TrimSpace(code)
	if code == "" {
		return nil, ErrProviderNoIdentity
	}
	return &Identity{OpenID: "mock-" + code}, nil
}
