// Package convert turns the root dataset of an RO-Crate into Zenodo
// deposition metadata.
//
// Identifiers are recognised by pattern (ORCID for authors, ROR for
// organizations, SPDX URIs for licenses). Anything that can't be mapped
// reliably is reported as a Warning rather than guessed.
package convert

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/G-Node/rocrate-zenodo/crate"
	"github.com/G-Node/rocrate-zenodo/zenodo"
	log "github.com/sirupsen/logrus"
)

const lpConvert = "Convert"

// crateFields maps Zenodo metadata fields to the RO-Crate properties they are
// read from.
var crateFields = map[string]string{
	"title":       "name",
	"description": "description",
	"creators":    "author",
	"license":     "license",
}

// ConversionError lists every metadata field that failed validation after
// conversion.
type ConversionError struct {
	Validation *zenodo.ValidationError
}

func (e *ConversionError) Error() string {
	var b strings.Builder
	b.WriteString("The RO-Crate metadata could not be converted to Zenodo metadata. Encountered the following errors:\n")
	for _, fe := range e.Validation.Fields {
		field := fe.Field
		if prop, ok := crateFields[strings.SplitN(fe.Field, ".", 2)[0]]; ok {
			field = fmt.Sprintf("%s (RO-Crate %s)", fe.Field, prop)
		}
		fmt.Fprintf(&b, "Field %s: %s\n", field, fe.Message)
	}
	return b.String()
}

func (e *ConversionError) Unwrap() error {
	return e.Validation
}

// LicenseFinder looks up a license in the Zenodo license vocabulary. It
// returns nil if no entry matches the query exactly.
type LicenseFinder interface {
	FindLicense(ctx context.Context, query string) (*zenodo.License, error)
}

// Converter builds Zenodo metadata from crates.
type Converter struct {
	// Licenses is used to suggest a license when the crate's license can't
	// be resolved. Optional.
	Licenses LicenseFinder
}

// Convert builds the deposition metadata from the root dataset of a crate.
// Warnings are returned even if the conversion fails. Missing or invalid
// required fields are reported together in a single *ConversionError.
func (c *Converter) Convert(ctx context.Context, root *crate.Entity) (*zenodo.Metadata, *Diagnostics, error) {
	diag := new(Diagnostics)
	if root == nil {
		return nil, diag, fmt.Errorf("crate has no root dataset")
	}

	md := zenodo.NewMetadata()
	md.Creators = Creators(root.Get("author"), diag)
	md.Title = root.GetString("name")
	md.Description = root.GetString("description")

	license, err := License(root.Get("license"))
	var rerr *ResolutionError
	switch {
	case errors.As(err, &rerr):
		log.WithFields(log.Fields{"source": lpConvert, "error": err}).Debug("License resolution failed")
		suggestion, err := c.suggestLicense(ctx, rerr)
		if err != nil {
			return nil, diag, err
		}
		msg := fmt.Sprintf("Could not find a matching license for %s on Zenodo. Please enter the license manually after uploading.", rerr.Input)
		if suggestion != nil {
			msg += fmt.Sprintf(" Zenodo lists '%s' (%s) as a match.", suggestion.ID, suggestion.Title)
		}
		diag.Warnf("license", "%s", msg)
	case err != nil:
		return nil, diag, err
	case license != "":
		md.License = &license
	}

	if err := md.Validate(); err != nil {
		var verr *zenodo.ValidationError
		if errors.As(err, &verr) {
			return nil, diag, &ConversionError{Validation: verr}
		}
		return nil, diag, err
	}
	return md, diag, nil
}

// suggestLicense searches the license vocabulary for each query of the
// resolution error. Only rate limiting aborts the search; other failures
// mean there is no suggestion.
func (c *Converter) suggestLicense(ctx context.Context, rerr *ResolutionError) (*zenodo.License, error) {
	if c == nil || c.Licenses == nil {
		return nil, nil
	}
	for _, q := range rerr.Queries {
		lic, err := c.Licenses.FindLicense(ctx, q)
		if errors.Is(err, zenodo.ErrRateLimited) {
			return nil, err
		}
		if err != nil {
			log.WithFields(log.Fields{"source": lpConvert, "query": q, "error": err}).Debug("License search failed")
			continue
		}
		if lic != nil {
			return lic, nil
		}
	}
	return nil, nil
}
