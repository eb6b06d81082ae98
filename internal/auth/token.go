// Package auth obtains bearer tokens through the OAuth2 client
// credentials flow and caches them for the life of one run.
package auth

import (
	"context"
	"fmt"
	"sync"

	"golang.org/x/oauth2"
	"golang.org/x/oauth2/clientcredentials"
)

// Bearer exchanges client credentials for access tokens on demand. A
// fetched token is reused until it expires; each exchange runs under the
// requesting call's context.
type Bearer struct {
	cc *clientcredentials.Config

	mu  sync.Mutex
	tok *oauth2.Token
}

// New builds a Bearer for the configured token endpoint.
func New(clientID, clientSecret, tokenURL, scope string) *Bearer {
	cc := &clientcredentials.Config{
		ClientID:     clientID,
		ClientSecret: clientSecret,
		TokenURL:     tokenURL,
	}
	if scope != "" {
		cc.Scopes = []string{scope}
	}
	return &Bearer{cc: cc}
}

// Header returns the Authorization header value for the next request.
func (b *Bearer) Header(ctx context.Context) (string, error) {
	b.mu.Lock()
	defer b.mu.Unlock()
	if !b.tok.Valid() {
		tok, err := b.cc.Token(ctx)
		if err != nil {
			return "", fmt.Errorf("fetch access token: %w", err)
		}
		b.tok = tok
	}
	return "Bearer " + b.tok.AccessToken, nil
}
