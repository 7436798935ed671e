package main

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"text/template"
	"time"

	"github.com/G-Node/rocrate-zenodo/convert"
	"github.com/G-Node/rocrate-zenodo/crate"
	rztmpl "github.com/G-Node/rocrate-zenodo/templates"
	"github.com/G-Node/rocrate-zenodo/zenodo"
	humanize "github.com/dustin/go-humanize"
	log "github.com/sirupsen/logrus"
)

// checklistCreator is a creator with plain strings for rendering.
type checklistCreator struct {
	Name        string
	ORCID       string
	Affiliation string
}

// checklist holds the information rendered into the review checklist of an
// upload.
type checklist struct {
	Crate       string
	Title       string
	Creators    []checklistCreator
	License     string
	Archive     string
	ArchiveSize string
	// Zenodo API address
	Target string
	// Record link; empty for dry runs
	Record    string
	Published bool
	Warnings  []convert.Warning
	// Format YYYY-MM-DD
	Date string
}

func deref(s *string) string {
	if s == nil {
		return ""
	}
	return *s
}

// newChecklist collects the checklist information of a converted crate. The
// metadata may be nil if the conversion failed.
func newChecklist(rc *crate.Crate, md *zenodo.Metadata, diag *convert.Diagnostics) checklist {
	cl := checklist{
		Crate:    rc.Path,
		Warnings: diag.Warnings(),
		Date:     time.Now().Format("2006-01-02"),
	}
	if md == nil {
		return cl
	}
	cl.Title = md.Title
	cl.License = deref(md.License)
	for _, creator := range md.Creators {
		cl.Creators = append(cl.Creators, checklistCreator{
			Name:        creator.Name,
			ORCID:       deref(creator.ORCID),
			Affiliation: deref(creator.Affiliation),
		})
	}
	return cl
}

// setArchive adds the archive file and its size to the checklist.
func (cl *checklist) setArchive(fname string, size int64) {
	cl.Archive = fname
	if size >= 0 {
		cl.ArchiveSize = humanize.IBytes(uint64(size))
	}
}

// setRecord adds the Zenodo target and the created record to the checklist.
func (cl *checklist) setRecord(client *zenodo.Client, dep *zenodo.Deposition) {
	cl.Target = client.BaseURL()
	if dep == nil {
		return
	}
	cl.Record = dep.Links.HTML
	cl.Published = dep.Submitted
}

// outFilename constructs a filename for the output markdown file from the
// current date and the crate name. If outpath is an existing directory the
// file is placed inside it, otherwise outpath is used as the file name.
func outFilename(crateName, outpath string) string {
	if fi, err := os.Stat(outpath); err == nil && fi.IsDir() {
		currdate := time.Now().Format("20060102")
		return filepath.Join(outpath, fmt.Sprintf("%s_%s-checklist.md", currdate, strings.ToLower(crateName)))
	}
	return outpath
}

// writeChecklist renders the checklist to the given file and returns the
// name of the written file.
func writeChecklist(cl checklist, crateName, outpath string) (string, error) {
	tmpl, err := template.New("Checklist").Parse(rztmpl.ChecklistFile)
	if err != nil {
		return "", fmt.Errorf("could not parse the checklist template: %w", err)
	}

	outfile := outFilename(crateName, outpath)
	fp, err := os.Create(outfile)
	if err != nil {
		return "", fmt.Errorf("could not create checklist file: %w", err)
	}
	defer fp.Close()

	if err := tmpl.Execute(fp, cl); err != nil {
		return "", fmt.Errorf("error rendering the checklist: %w", err)
	}
	log.WithFields(log.Fields{"source": lpChecklist, "file": outfile}).Info("Wrote review checklist")
	return outfile, nil
}
