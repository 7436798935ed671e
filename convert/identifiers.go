package convert

import (
	"regexp"
	"strings"
)

var (
	orcidRE = regexp.MustCompile(`^https://orcid\.org/((?:[0-9]{4}-){3}[0-9]{3}[0-9X])`)
	rorRE   = regexp.MustCompile(`^https://ror\.org/(0[a-hj-km-np-tv-z0-9]{6}[0-9]{2})`)
)

// ORCID returns the identifier of an ORCID URI such as
// https://orcid.org/0000-0002-1825-0097. A bare identifier without the URI
// prefix does not match.
func ORCID(s string) (string, bool) {
	return submatch(orcidRE, s)
}

// ROR returns the 9 character organization code of a ROR URI such as
// https://ror.org/02mhbdp94.
func ROR(s string) (string, bool) {
	return submatch(rorRE, s)
}

func submatch(re *regexp.Regexp, s string) (string, bool) {
	match := re.FindStringSubmatch(s)
	if match == nil {
		return "", false
	}
	return match[1], true
}

// stripLocal removes the local fragment marker from an identifier.
func stripLocal(id string) string {
	return strings.TrimLeft(id, "#")
}
