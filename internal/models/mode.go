package models

import "strings"

// DeploymentMode selects the static asset root and index document served by the API.
type DeploymentMode string

const (
	ModeDevelopment DeploymentMode = "development"
	ModeProduction  DeploymentMode = "production"
)

// ParseDeploymentMode maps a NODE_ENV value to a deployment mode.
// Only "production" selects production; every other value, including empty, is development.
func ParseDeploymentMode(value string) DeploymentMode {
	if strings.EqualFold(strings.TrimSpace(value), string(ModeProduction)) {
		return ModeProduction
	}
	return ModeDevelopment
}

// IsValid reports whether m is one of the known modes.
func (m DeploymentMode) IsValid() bool {
	return m == ModeDevelopment || m == ModeProduction
}

func (m DeploymentMode) String() string {
	return string(m)
}
