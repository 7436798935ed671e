package convert

import (
	"fmt"
	"regexp"
	"strings"

	"github.com/G-Node/rocrate-zenodo/crate"
)

var spdxRE = regexp.MustCompile(`^https?://spdx\.org/licenses/([-_.a-zA-Z0-9]+\+?)$`)

// ResolutionError is returned when a license reference can't be mapped to a
// Zenodo license identifier.
type ResolutionError struct {
	// Input is the license reference as found in the crate.
	Input string
	// Queries are the strings that describe the license (identifiers and
	// names), usable for a manual or vocabulary search.
	Queries []string
}

func (e *ResolutionError) Error() string {
	return fmt.Sprintf("could not resolve license '%s': not an SPDX license URI", e.Input)
}

// licenseStrategy maps a license candidate string to a Zenodo license id.
type licenseStrategy struct {
	name    string
	resolve func(candidate string) (string, bool)
}

var licenseStrategies = []licenseStrategy{
	{name: "spdx-uri", resolve: spdxLicense},
}

// spdxLicense extracts the lower-case license id of an SPDX license URI,
// e.g. https://spdx.org/licenses/CC-BY-4.0.html.
func spdxLicense(candidate string) (string, bool) {
	id, ok := submatch(spdxRE, candidate)
	if !ok {
		return "", false
	}
	for _, ext := range []string{".html", ".json"} {
		id = strings.TrimSuffix(id, ext)
	}
	if id == "" {
		return "", false
	}
	return strings.ToLower(id), true
}

// License resolves a license reference to the identifier Zenodo expects. An
// absent license yields the empty string and no error. Only SPDX license URIs
// are accepted; anything else fails with a *ResolutionError. Of a list of
// licenses the first that resolves is used.
func License(v crate.Value) (string, error) {
	if v.IsZero() {
		return "", nil
	}
	rerr := &ResolutionError{Input: describe(v)}
	for _, item := range v.Items() {
		candidate, name := licenseCandidate(item)
		for _, strategy := range licenseStrategies {
			if id, ok := strategy.resolve(candidate); ok {
				return id, nil
			}
		}
		for _, q := range []string{candidate, name} {
			if q != "" {
				rerr.Queries = append(rerr.Queries, q)
			}
		}
	}
	return "", rerr
}

// licenseCandidate returns the string to resolve and, for entities, the
// license name.
func licenseCandidate(v crate.Value) (string, string) {
	switch v.Kind() {
	case crate.Text:
		text, _ := v.Text()
		return strings.TrimSpace(text), ""
	case crate.EntityRef:
		lic, _ := v.Entity()
		return stripLocal(lic.ID()), lic.GetString("name")
	}
	return "", ""
}

// describe renders a license value for messages. Entities are named by their
// @id, else by their name, else by their properties.
func describe(v crate.Value) string {
	switch v.Kind() {
	case crate.Text:
		text, _ := v.Text()
		return text
	case crate.EntityRef:
		e, _ := v.Entity()
		if id := strings.TrimSpace(e.ID()); id != "" {
			return id
		}
		if name := strings.TrimSpace(e.GetString("name")); name != "" {
			return name
		}
		props := make([]string, 0)
		for _, key := range e.Keys() {
			props = append(props, fmt.Sprintf("%s: %s", key, describe(e.Get(key))))
		}
		return "{" + strings.Join(props, ", ") + "}"
	case crate.List:
		items := make([]string, 0)
		for _, item := range v.Items() {
			items = append(items, describe(item))
		}
		return "[" + strings.Join(items, ", ") + "]"
	}
	return ""
}
