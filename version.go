package main

import (
	"fmt"

	"github.com/joltify-finance/token-staking/chaincfg"
)

// These constants define the application version and follow the semantic
// versioning 2.0.0 spec (http://semver.org/).
const (
	appMajor uint = 0
	appMinor uint = 3
	appPatch uint = 0
)

// appBuild is set at link time with -ldflags "-X main.appBuild=...".
var appBuild string

func init() {
	chaincfg.StakingBackendVersion = version()
}

// version returns the application version as a properly formed string per the
// semantic versioning 2.0.0 spec (http://semver.org/).
func version() string {
	v := fmt.Sprintf("%d.%d.%d", appMajor, appMinor, appPatch)
	if appBuild != "" {
		v = fmt.Sprintf("%s+%s", v, appBuild)
	}
	return v
}
