// Package crate reads the metadata document of a Research Object Crate
// (RO-Crate) from a crate directory or a zipped crate and exposes its root
// dataset and the other entities of the @graph.
package crate

import (
	"archive/zip"
	"encoding/json"
	"fmt"
	"io"
	"io/ioutil"
	"os"
	"path/filepath"
	"strings"

	log "github.com/sirupsen/logrus"
)

const (
	// MetadataFile is the name of the crate metadata document.
	MetadataFile = "ro-crate-metadata.json"
	// LegacyMetadataFile is the metadata document name used before RO-Crate 1.1.
	LegacyMetadataFile = "ro-crate-metadata.jsonld"

	defaultRootID = "./"

	lpCrate = "Crate"
)

// Crate is a parsed RO-Crate.
type Crate struct {
	// Path is the crate directory or zip file the crate was read from; empty
	// for crates parsed from memory.
	Path string
	// Root is the root data entity (the described dataset).
	Root *Entity

	graph   map[string]*Entity
	order   []string
	zipped  bool
	mdfname string
}

// Open reads the crate at path, which is either a crate directory or a zip
// archive containing the crate at its top level.
func Open(cratepath string) (*Crate, error) {
	fi, err := os.Stat(cratepath)
	if err != nil {
		return nil, fmt.Errorf("cannot access crate '%s': %s", cratepath, err.Error())
	}

	var data []byte
	var mdfname string
	zipped := false
	if fi.IsDir() {
		data, mdfname, err = readDirMetadata(cratepath)
	} else if strings.EqualFold(filepath.Ext(cratepath), ".zip") {
		zipped = true
		data, mdfname, err = readZipMetadata(cratepath)
	} else {
		err = fmt.Errorf("'%s' is neither a crate directory nor a zip file", cratepath)
	}
	if err != nil {
		return nil, err
	}

	crate, err := Parse(data)
	if err != nil {
		return nil, fmt.Errorf("failed to read crate metadata in '%s': %w", cratepath, err)
	}
	crate.Path = cratepath
	crate.zipped = zipped
	crate.mdfname = mdfname
	log.WithFields(log.Fields{
		"source":   lpCrate,
		"path":     cratepath,
		"entities": len(crate.graph),
		"root":     crate.Root.ID(),
	}).Debug("Loaded crate")
	return crate, nil
}

func readDirMetadata(dir string) ([]byte, string, error) {
	for _, fname := range []string{MetadataFile, LegacyMetadataFile} {
		data, err := ioutil.ReadFile(filepath.Join(dir, fname))
		if err == nil {
			return data, fname, nil
		}
		if !os.IsNotExist(err) {
			return nil, "", err
		}
	}
	return nil, "", fmt.Errorf("no %s found in '%s'", MetadataFile, dir)
}

func readZipMetadata(zipfname string) ([]byte, string, error) {
	zr, err := zip.OpenReader(zipfname)
	if err != nil {
		return nil, "", fmt.Errorf("cannot open zip file '%s': %s", zipfname, err.Error())
	}
	defer zr.Close()

	// The document is read from the archive root. A zip holding nothing but
	// a single crate directory is read from inside that directory.
	prefixes := []string{""}
	if topdir := wrapperDir(zr.File); topdir != "" {
		prefixes = append(prefixes, topdir+"/")
	}
	for _, prefix := range prefixes {
		for _, fname := range []string{MetadataFile, LegacyMetadataFile} {
			for _, zf := range zr.File {
				if strings.TrimPrefix(zf.Name, "./") != prefix+fname {
					continue
				}
				data, err := readZipEntry(zf)
				if err != nil {
					return nil, "", err
				}
				return data, fname, nil
			}
		}
	}
	return nil, "", fmt.Errorf("no %s found in zip file '%s'", MetadataFile, zipfname)
}

// wrapperDir returns the top-level directory shared by every entry of the
// archive, or the empty string if any entry lies outside of it.
func wrapperDir(files []*zip.File) string {
	topdir := ""
	for _, zf := range files {
		name := strings.TrimPrefix(zf.Name, "./")
		idx := strings.Index(name, "/")
		if idx <= 0 {
			return ""
		}
		if topdir == "" {
			topdir = name[:idx]
		} else if name[:idx] != topdir {
			return ""
		}
	}
	return topdir
}

func readZipEntry(zf *zip.File) ([]byte, error) {
	rc, err := zf.Open()
	if err != nil {
		return nil, err
	}
	defer rc.Close()
	return ioutil.ReadAll(io.LimitReader(rc, 64<<20))
}

type document struct {
	Context interface{}              `json:"@context"`
	Graph   []map[string]interface{} `json:"@graph"`
}

// Parse reads a crate metadata document. The document must be in the flattened
// form required by RO-Crate: a top-level @graph array of entities.
func Parse(data []byte) (*Crate, error) {
	var doc document
	if err := json.Unmarshal(data, &doc); err != nil {
		return nil, fmt.Errorf("invalid JSON: %s", err.Error())
	}
	if doc.Graph == nil {
		return nil, fmt.Errorf("no @graph in metadata document")
	}

	crate := &Crate{graph: make(map[string]*Entity, len(doc.Graph))}
	for idx, obj := range doc.Graph {
		e := newEntity(obj, crate.graph)
		if e.id == "" {
			log.WithFields(log.Fields{"source": lpCrate, "index": idx}).Debug("Skipping graph entry without @id")
			continue
		}
		if _, dup := crate.graph[e.id]; !dup {
			crate.order = append(crate.order, e.id)
		}
		crate.graph[e.id] = e
	}

	rootID := crate.rootID()
	root, ok := crate.graph[rootID]
	if !ok {
		return nil, fmt.Errorf("root data entity '%s' not found in @graph", rootID)
	}
	crate.Root = root
	return crate, nil
}

// rootID finds the root data entity through the metadata descriptor's
// "about" property and falls back to "./".
func (c *Crate) rootID() string {
	for _, id := range c.order {
		if !isDescriptorID(id) {
			continue
		}
		if about, ok := c.graph[id].Get("about").Entity(); ok && about.ID() != "" {
			return about.ID()
		}
	}
	return defaultRootID
}

func isDescriptorID(id string) bool {
	for _, fname := range []string{MetadataFile, LegacyMetadataFile} {
		if id == fname || strings.HasSuffix(id, "/"+fname) {
			return true
		}
	}
	return false
}

// Entity returns the graph node with the given @id.
func (c *Crate) Entity(id string) (*Entity, bool) {
	e, ok := c.graph[id]
	return e, ok
}

// Entities returns all graph nodes in document order.
func (c *Crate) Entities() []*Entity {
	entities := make([]*Entity, 0, len(c.order))
	for _, id := range c.order {
		entities = append(entities, c.graph[id])
	}
	return entities
}

// IsZip reports whether the crate was read from a zip archive.
func (c *Crate) IsZip() bool {
	return c.zipped
}

// MetadataFileName returns the name of the metadata document the crate was
// read from.
func (c *Crate) MetadataFileName() string {
	if c.mdfname == "" {
		return MetadataFile
	}
	return c.mdfname
}

// Name returns a short name for the crate, derived from its path.
func (c *Crate) Name() string {
	if c.Path == "" {
		return "crate"
	}
	cratepath := c.Path
	if abspath, err := filepath.Abs(cratepath); err == nil {
		cratepath = abspath
	}
	base := filepath.Base(cratepath)
	if c.zipped {
		base = strings.TrimSuffix(base, filepath.Ext(base))
	}
	if base == "" || base == "." || base == string(filepath.Separator) {
		return "crate"
	}
	return base
}
