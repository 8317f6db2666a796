package version

import (
	"strings"
)

var (
	Program = "adnest"
	Commit  = ""
	Version = ""
)

func ProgramVersionShort() string {
	return strings.Trim(Program+" "+VersionStringShort(), " ")
}

func VersionStringShort() string {
	result := ""
	if Version != "" {
		result += Version
		if strings.Contains(Version, "-") {
			result += " (non-release)"
		}
	}
	if Commit != "" && !strings.Contains(Version, Commit) {
		result += " (commit " + Commit + ")"
	}
	if result == "" {
		result = "(unknown build)"
	}
	return result
}

func VersionString() string {
	return ProgramVersionShort() + ", nested group membership reporting for Active Directory"
}
