package roots

import (
	"strconv"

	"github.com/klarberg/adnest/modules/ui"
)

// Groups whose members AdminSDHolder stamps with adminCount. These are the
// default scan roots.
var protectedGroups = []string{
	"Administrators",
	"Account Operators",
	"Server Operators",
	"Print Operators",
	"Backup Operators",
	"Domain Admins",
	"Domain Controllers",
	"Enterprise Admins",
	"Read-only Domain Controllers",
	"Replicator",
	"Schema Admins",
}

// The 16th character of dsHeuristics (dwAdminSDExMask) can opt the four
// operator groups out of AdminSDHolder protection, bit per group.
// https://social.technet.microsoft.com/wiki/contents/articles/22331.adminsdholder-protected-groups-and-security-descriptor-propagator.aspx
var operatorExclusions = map[string]uint64{
	"Account Operators": 1,
	"Server Operators":  2,
	"Print Operators":   4,
	"Backup Operators":  8,
}

const directoryServicePrefix = "CN=Directory Service,CN=Windows NT,CN=Services,CN=Configuration,"

func protectedRoots(dir Directory) ([]string, error) {
	heuristics, err := dir.GetAttribute(directoryServicePrefix+dir.RootDN(), "dsHeuristics")
	if err != nil {
		ui.Warn().Msgf("Could not read dsHeuristics, assuming no protected group exclusions: %v", err)
		heuristics = ""
	}
	mask := adminSDExMask(heuristics)

	var names []string
	for _, name := range protectedGroups {
		if bit, found := operatorExclusions[name]; found && mask&bit != 0 {
			ui.Info().Msgf("Excluding %v, dsHeuristics opts it out of AdminSDHolder protection", name)
			continue
		}
		names = append(names, name)
	}
	return names, nil
}

func adminSDExMask(heuristics string) uint64 {
	if len(heuristics) < 16 {
		return 0
	}
	mask, err := strconv.ParseUint(string(heuristics[15]), 16, 8)
	if err != nil {
		return 0
	}
	return mask
}
