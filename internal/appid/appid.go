// Package appid resolves the reputebot app identity (binary name, env prefix,
// config name) from `.fulmen/app.yaml` or the embedded copy.
package appid

import (
	"context"

	"github.com/fulmenhq/gofulmen/appidentity"

	appidentityassets "github.com/reputebot/reputebot/internal/assets/appidentity"
)

func init() {
	// Explicit paths (FULMEN_APP_IDENTITY_PATH) still win over the embedded copy.
	_ = appidentity.RegisterEmbeddedIdentityYAML(appidentityassets.YAML)
}

// Get returns the process-wide app identity.
func Get(ctx context.Context) (*appidentity.Identity, error) {
	if ctx == nil {
		ctx = context.Background()
	}
	return appidentity.Get(ctx)
}

// EnvPrefix returns the identity env prefix with a trailing underscore, or
// fallback when identity is unavailable.
func EnvPrefix(identity *appidentity.Identity, fallback string) string {
	prefix := fallback
	if identity != nil && identity.EnvPrefix != "" {
		prefix = identity.EnvPrefix
	}
	if prefix != "" && prefix[len(prefix)-1] != '_' {
		prefix += "_"
	}
	return prefix
}
