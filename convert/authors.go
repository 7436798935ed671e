package convert

import (
	"fmt"
	"strings"

	"github.com/G-Node/rocrate-zenodo/crate"
	"github.com/G-Node/rocrate-zenodo/zenodo"
)

const msgNoName = "Author has neither a name nor an @id. Enter the name manually in Zenodo before publishing."

// nameStrategy derives a creator name from an author entity. Strategies are
// tried in order; the first that yields a name wins.
type nameStrategy struct {
	name string
	// single marks strategies producing a single name string that Zenodo
	// can't split into family and given name.
	single  bool
	resolve func(author *crate.Entity) (string, bool)
}

var nameStrategies = []nameStrategy{
	{name: "family-given", resolve: familyGivenName},
	{name: "name", single: true, resolve: plainName},
	{name: "id", single: true, resolve: idName},
}

// familyGivenName formats "Family, Given" if either part is set.
func familyGivenName(author *crate.Entity) (string, bool) {
	given := strings.TrimSpace(author.GetString("givenName"))
	family := strings.TrimSpace(author.GetString("familyName"))
	if given == "" && family == "" {
		return "", false
	}
	return fmt.Sprintf("%s, %s", family, given), true
}

func plainName(author *crate.Entity) (string, bool) {
	name := strings.TrimSpace(author.GetString("name"))
	return name, name != ""
}

func idName(author *crate.Entity) (string, bool) {
	name := strings.TrimSpace(stripLocal(author.ID()))
	return name, name != ""
}

// Creators converts the author property of a crate into Zenodo creators. A
// single author and a list of authors are both accepted; the order of the
// authors is kept and every author yields exactly one creator.
func Creators(v crate.Value, diag *Diagnostics) []zenodo.Creator {
	items := v.Items()
	creators := make([]zenodo.Creator, 0, len(items))
	for idx, item := range items {
		source := "author"
		if v.Kind() == crate.List {
			source = fmt.Sprintf("author[%d]", idx)
		}
		creators = append(creators, Creator(item, source, diag))
	}
	return creators
}

// Creator converts a single author value. Free text is taken as the author's
// name.
func Creator(v crate.Value, source string, diag *Diagnostics) zenodo.Creator {
	switch {
	case v.IsZero():
	case v.Kind() == crate.Text:
		text, _ := v.Text()
		return zenodo.Creator{Name: singleName(strings.TrimSpace(text), source, diag)}
	case v.Kind() == crate.EntityRef:
		author, _ := v.Entity()
		return creatorFromEntity(author, source, diag)
	}
	diag.Warnf(source, msgNoName)
	return zenodo.Creator{}
}

func creatorFromEntity(author *crate.Entity, source string, diag *Diagnostics) zenodo.Creator {
	creator := zenodo.Creator{Name: authorName(author, source, diag)}
	if orcid, ok := ORCID(author.ID()); ok {
		creator.ORCID = &orcid
	}
	if affiliation, ok := Affiliation(author.Get("affiliation")); ok {
		creator.Affiliation = &affiliation
	}
	return creator
}

func authorName(author *crate.Entity, source string, diag *Diagnostics) string {
	for _, strategy := range nameStrategies {
		name, ok := strategy.resolve(author)
		if !ok {
			continue
		}
		if strategy.name == "id" {
			diag.Warnf(source, "Author %s: no name found, falling back on @id", author.ID())
		}
		if strategy.single {
			name = singleName(name, source, diag)
		}
		return name
	}
	diag.Warnf(source, msgNoName)
	return ""
}

// singleName appends a comma to a name that has none, which puts the whole
// name into the family name field of Zenodo.
func singleName(name, source string, diag *Diagnostics) string {
	if name == "" || strings.Contains(name, ",") {
		return name
	}
	diag.Warnf(source, "Could not separate family and given names for author %q. "+
		"Verify the name is correctly entered in Zenodo before publishing. "+
		"To remove this warning, set givenName and familyName for this author in the RO-Crate metadata.", name)
	return name + ","
}
