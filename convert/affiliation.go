package convert

import (
	"strings"

	"github.com/G-Node/rocrate-zenodo/crate"
)

// affiliationSep joins the names of multiple affiliations.
const affiliationSep = "; "

// Affiliation returns the display string of an author's affiliation. Free
// text is returned as is. An organization is represented by its ROR code if
// its @id is a ROR URI, else by its name, else by its @id. Multiple
// affiliations are joined. The second return value is false if no
// affiliation was given.
func Affiliation(v crate.Value) (string, bool) {
	if v.IsZero() {
		return "", false
	}
	switch v.Kind() {
	case crate.Text:
		text, _ := v.Text()
		return text, true
	case crate.EntityRef:
		org, _ := v.Entity()
		name := organizationName(org)
		return name, name != ""
	case crate.List:
		var names []string
		for _, item := range v.Items() {
			if name, ok := Affiliation(item); ok && name != "" {
				names = append(names, name)
			}
		}
		if len(names) == 0 {
			return "", false
		}
		return strings.Join(names, affiliationSep), true
	}
	return "", false
}

func organizationName(org *crate.Entity) string {
	if ror, ok := ROR(org.ID()); ok {
		return ror
	}
	if name := strings.TrimSpace(org.GetString("name")); name != "" {
		return name
	}
	return strings.TrimSpace(stripLocal(org.ID()))
}
