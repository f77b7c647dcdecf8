package season

import "context"

// SettingsProvider resolves the active season policy for an organization.
// A nil policy with a nil error means no policy is configured.
type SettingsProvider interface {
	GetSeasonPolicy(ctx context.Context, orgID string) (*Policy, error)
}
