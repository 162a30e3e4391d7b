// Package session holds the authentication token pair in durable key-value
// storage. The token pair is the only state this client persists; every
// other slice lives in memory.
package session

import (
	"context"
	"errors"
)

// Fixed storage keys for the token pair.
const (
	KeyAccessToken  = "access_token"
	KeyRefreshToken = "refresh_token"
)

var ErrNoSession = errors.New("no stored session")

type Tokens struct {
	Access  string `json:"access_token"`
	Refresh string `json:"refresh_token"`
}

type Store interface {
	// Tokens returns the stored pair or ErrNoSession.
	Tokens(ctx context.Context) (Tokens, error)
	Save(ctx context.Context, tokens Tokens) error
	Clear(ctx context.Context) error
}

// IsAuthenticated reports whether a usable access token is stored. The
// consuming view checks this before dispatching authenticated operations.
func IsAuthenticated(ctx context.Context, s Store) bool {
	tokens, err := s.Tokens(ctx)
	return err == nil && tokens.Access != ""
}

func accessToken(ctx context.Context, s Store) (string, error) {
	tokens, err := s.Tokens(ctx)
	if errors.Is(err, ErrNoSession) {
		return "", nil
	}
	if err != nil {
		return "", err
	}
	return tokens.Access, nil
}
