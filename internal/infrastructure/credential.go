package infrastructure

import (
	"context"
	"fmt"

	"github.com/Azure/azure-sdk-for-go/sdk/azcore"
	"github.com/Azure/azure-sdk-for-go/sdk/azcore/policy"
	"github.com/Azure/azure-sdk-for-go/sdk/azidentity"

	"github.com/JaimeStill/wayfinder/internal/config"
)

// NewCredential creates the Azure credential selected by mode. The none mode
// yields a nil credential.
func NewCredential(mode string) (azcore.TokenCredential, error) {
	switch mode {
	case "", config.CredentialNone:
		return nil, nil
	case config.CredentialCLI:
		return azidentity.NewAzureCLICredential(nil)
	case config.CredentialDefault:
		return azidentity.NewDefaultAzureCredential(nil)
	default:
		return nil, fmt.Errorf("unknown credential mode %q", mode)
	}
}

// TokenSource issues bearer tokens for a single scope from an Azure credential.
type TokenSource struct {
	cred  azcore.TokenCredential
	scope string
}

// NewTokenSource returns a TokenSource, or nil when cred is nil.
func NewTokenSource(cred azcore.TokenCredential, scope string) *TokenSource {
	if cred == nil {
		return nil
	}
	return &TokenSource{cred: cred, scope: scope}
}

// Token acquires a token for the configured scope. The credential caches and
// refreshes tokens internally.
func (s *TokenSource) Token(ctx context.Context) (string, error) {
	tok, err := s.cred.GetToken(ctx, policy.TokenRequestOptions{Scopes: []string{s.scope}})
	if err != nil {
		return "", fmt.Errorf("get token for %s: %w", s.scope, err)
	}
	return tok.Token, nil
}
