// Package zenodo holds the deposition metadata schema of the Zenodo REST API
// and a small client for creating, filling and publishing depositions.
package zenodo

import (
	"fmt"
	"regexp"
	"strings"
)

// UploadTypeDataset is the only upload type produced for crates.
const UploadTypeDataset = "dataset"

// allowedValues for metadata keys with a fixed vocabulary.
var allowedValues = map[string][]string{
	"upload_type": {"publication", "poster", "presentation", "dataset", "image", "video", "software", "lesson", "physicalobject", "other"},
}

var orcidRE = regexp.MustCompile(`^([[:digit:]]{4}-){3}[[:digit:]]{3}[[:digit:]X]$`)

// Creator is one entry of the deposition's creators list. Nil pointers are
// sent as absent (null) values.
type Creator struct {
	// Name in "Family, Given" form.
	Name        string  `json:"name" yaml:"name"`
	Affiliation *string `json:"affiliation,omitempty" yaml:"affiliation"`
	ORCID       *string `json:"orcid,omitempty" yaml:"orcid"`
	// GND is reserved; it is never populated from crate metadata.
	GND *string `json:"gnd,omitempty" yaml:"gnd"`
}

// Metadata is the deposition metadata sent with a new upload.
type Metadata struct {
	Title       string    `json:"title" yaml:"title"`
	UploadType  string    `json:"upload_type" yaml:"upload_type"`
	Description string    `json:"description" yaml:"description"`
	Creators    []Creator `json:"creators" yaml:"creators"`
	// License is a license identifier from the Zenodo license vocabulary
	// (lower-case SPDX id).
	License *string `json:"license,omitempty" yaml:"license"`
}

// NewMetadata returns dataset metadata with an empty creators list.
func NewMetadata() *Metadata {
	return &Metadata{UploadType: UploadTypeDataset, Creators: []Creator{}}
}

// Validate checks the metadata against the constraints of the deposition
// schema. All problems are collected into a single *ValidationError; nil is
// returned if the metadata is valid.
func (md *Metadata) Validate() error {
	verr := new(ValidationError)
	if md == nil {
		verr.Add("metadata", "no metadata provided")
		return verr
	}
	if strings.TrimSpace(md.Title) == "" {
		verr.Add("title", msgFieldRequired)
	}
	if !contains(allowedValues["upload_type"], md.UploadType) {
		verr.Add("upload_type", fmt.Sprintf("must be one of the following: %s", strings.Join(allowedValues["upload_type"], ", ")))
	}
	if strings.TrimSpace(md.Description) == "" {
		verr.Add("description", msgFieldRequired)
	}
	for idx, creator := range md.Creators {
		if creator.ORCID != nil && !orcidRE.MatchString(*creator.ORCID) {
			verr.Add(fmt.Sprintf("creators.%d.orcid", idx), fmt.Sprintf("not a valid ORCID: '%s'", *creator.ORCID))
		}
	}
	if md.License != nil && strings.TrimSpace(*md.License) == "" {
		verr.Add("license", "must not be empty if set")
	}
	if verr.Empty() {
		return nil
	}
	return verr
}

func contains(list []string, value string) bool {
	for _, valid := range list {
		if strings.ToLower(valid) == strings.ToLower(value) {
			return true
		}
	}
	return false
}
