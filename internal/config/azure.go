package config

import (
	"fmt"
	"os"
)

const (
	EnvAzureCredential = "WAYFINDER_AZURE_CREDENTIAL"
	EnvAzureScope      = "WAYFINDER_AZURE_SCOPE"
)

// Credential modes for Azure authentication.
const (
	CredentialNone    = "none"
	CredentialCLI     = "cli"
	CredentialDefault = "default"
)

// AzureConfig selects how Azure tokens are obtained for the model provider
// and for blob storage reached through a service URL.
type AzureConfig struct {
	Credential string `toml:"credential"`
	Scope      string `toml:"scope"`
}

// Finalize applies defaults, environment variable overrides, and validation.
func (c *AzureConfig) Finalize() error {
	if c.Credential == "" {
		c.Credential = CredentialNone
	}
	if c.Scope == "" {
		c.Scope = "https://cognitiveservices.azure.com/.default"
	}
	if v := os.Getenv(EnvAzureCredential); v != "" {
		c.Credential = v
	}
	if v := os.Getenv(EnvAzureScope); v != "" {
		c.Scope = v
	}

	switch c.Credential {
	case CredentialNone, CredentialCLI, CredentialDefault:
		return nil
	default:
		return fmt.Errorf("invalid credential %q: must be none, cli or default", c.Credential)
	}
}

// Merge overwrites non-zero fields from overlay.
func (c *AzureConfig) Merge(overlay *AzureConfig) {
	if overlay.Credential != "" {
		c.Credential = overlay.Credential
	}
	if overlay.Scope != "" {
		c.Scope = overlay.Scope
	}
}
