package api

import (
	"fmt"
	"strings"
)

// Authenticator resolves a bearer token to a user identity. The server
// scopes every store query and write to the resolved user.
type Authenticator interface {
	ResolveToken(token string) (string, error)
}

var _ Authenticator = (*StaticAuthenticator)(nil)

// StaticAuthenticator resolves tokens from a fixed token-to-user table
// configured as comma-separated "token:user" pairs.
type StaticAuthenticator struct {
	users map[string]string
}

func NewStaticAuthenticator(pairs string) (*StaticAuthenticator, error) {
	users := make(map[string]string)

	for _, pair := range strings.Split(pairs, ",") {
		pair = strings.TrimSpace(pair)
		if pair == "" {
			continue
		}

		token, user, ok := strings.Cut(pair, ":")
		if !ok || token == "" || user == "" {
			return nil, fmt.Errorf("invalid auth token pair %q, expected token:user", pair)
		}
		users[token] = user
	}

	return &StaticAuthenticator{users: users}, nil
}

func (a *StaticAuthenticator) ResolveToken(token string) (string, error) {
	user, ok := a.users[token]
	if !ok {
		return "", fmt.Errorf("unknown token")
	}
	return user, nil
}

func (a *StaticAuthenticator) TokenCount() int {
	return len(a.users)
}
