package config

import (
	"os"
	"strings"
)

// Environment names the deployment the process runs in. It selects the
// secrets policy applied by Validate.
type Environment string

const (
	Development Environment = "development"
	Test        Environment = "test"
	CI          Environment = "ci"
	Production  Environment = "production"
)

// ParseEnvironment maps the CI flag and the ENV name onto an Environment.
// CI=true wins over ENV; unknown names fall back to Development.
func ParseEnvironment(ci, name string) Environment {
	if strings.EqualFold(strings.TrimSpace(ci), "true") {
		return CI
	}
	switch Environment(strings.ToLower(strings.TrimSpace(name))) {
	case Production:
		return Production
	case Test:
		return Test
	default:
		return Development
	}
}

// GetEnvironment reads CI and ENV from the process environment.
func GetEnvironment() Environment {
	return ParseEnvironment(os.Getenv("CI"), os.Getenv("ENV"))
}

// RequiresSecrets is true where development defaults for credentials are
// refused.
func (e Environment) RequiresSecrets() bool {
	return e == Production || e == CI
}
