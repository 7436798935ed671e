package main

import (
	"archive/zip"
	"fmt"
	"io"
	"io/ioutil"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/G-Node/rocrate-zenodo/crate"
	humanize "github.com/dustin/go-humanize"
	log "github.com/sirupsen/logrus"
)

// zipEpoch is the modification time stored for every archive entry so that
// the same crate content always yields the same archive.
var zipEpoch = time.Date(1980, 1, 1, 0, 0, 0, 0, time.UTC)

// crateArchive is the zip file uploaded for a crate.
type crateArchive struct {
	Path string
	Size int64
	// tmpdir is the temporary directory created for the archive, if any
	tmpdir string
}

// Cleanup removes the archive if it was written to a temporary directory.
// Archives in a user supplied directory and zipped crates are kept.
func (a *crateArchive) Cleanup() {
	if a == nil || a.tmpdir == "" {
		return
	}
	if err := os.RemoveAll(a.tmpdir); err != nil {
		log.WithFields(log.Fields{"source": lpArchive, "dir": a.tmpdir, "error": err}).Warn("Failed to remove temporary archive directory")
		return
	}
	log.WithFields(log.Fields{"source": lpArchive, "dir": a.tmpdir}).Debug("Removed temporary archive directory")
}

// zipCrate returns a zip archive of the crate. A crate that already is a zip
// file is used as is. Otherwise the archive is written to zipdir, or to a new
// temporary directory if zipdir is empty.
func zipCrate(rc *crate.Crate, zipdir string) (*crateArchive, error) {
	if rc.IsZip() {
		stat, err := os.Stat(rc.Path)
		if err != nil {
			return nil, err
		}
		log.WithFields(log.Fields{"source": lpArchive, "archive": rc.Path}).Debug("Crate is a zip file; uploading as is")
		return &crateArchive{Path: rc.Path, Size: stat.Size()}, nil
	}

	archive := new(crateArchive)
	var err error
	if zipdir == "" {
		zipdir, err = ioutil.TempDir("", fmt.Sprintf("%s-%s-", appname, rc.Name()))
		if err != nil {
			return nil, fmt.Errorf("could not create archive directory: %w", err)
		}
		archive.tmpdir = zipdir
	} else if err = os.MkdirAll(zipdir, os.ModePerm); err != nil {
		return nil, fmt.Errorf("could not create archive directory: %w", err)
	}

	archive.Path = filepath.Join(zipdir, rc.Name()+".zip")
	archive.Size, err = runzip(rc.Path, archive.Path)
	if err != nil {
		archive.Cleanup()
		return nil, err
	}
	log.WithFields(log.Fields{
		"source":  lpArchive,
		"archive": archive.Path,
		"size":    humanize.IBytes(uint64(archive.Size)),
	}).Info("Created crate archive")
	return archive, nil
}

// runzip writes the content of the source directory to the zip file and
// returns the size of the archive. Paths in the archive are relative to the
// source directory.
func runzip(source, zipfilename string) (int64, error) {
	fn := fmt.Sprintf("runzip(%s, %s)", source, zipfilename) // keep original args for errmsg
	source, err := filepath.Abs(source)
	if err != nil {
		log.Printf("%s: Failed to get abs path for source directory in function '%s': %v", lpArchive, fn, err)
		return -1, err
	}

	zipfilename, err = filepath.Abs(zipfilename)
	if err != nil {
		log.Printf("%s: Failed to get abs path for target zip file in function '%s': %v", lpArchive, fn, err)
		return -1, err
	}

	zipfp, err := os.Create(zipfilename)
	if err != nil {
		log.Printf("%s: Failed to create zip file for writing in function '%s': %v", lpArchive, fn, err)
		return -1, err
	}
	defer zipfp.Close()

	// the archive must not contain itself when written into the crate
	if err := MakeZip(zipfp, source, []string{zipfilename}); err != nil {
		log.Printf("%s: Failed to create zip file in function '%s': %v", lpArchive, fn, err)
		return -1, err
	}

	stat, err := zipfp.Stat()
	if err != nil {
		return -1, err
	}
	return stat.Size(), nil
}

// MakeZip recursively writes all the files found under the source directory
// to the dest io.Writer in ZIP format. Entry names are relative to source and
// use forward slashes. Files and directories listed in exclude (absolute
// paths) are skipped; empty directories are ignored.
// The zip file has no compression: crate payloads are mostly large binary
// files that do not compress well. Entries carry a fixed timestamp.
func MakeZip(dest io.Writer, source string, exclude []string) error {
	if _, err := os.Stat(source); err != nil {
		return fmt.Errorf("cannot access '%s': %s", source, err.Error())
	}

	zipwriter := zip.NewWriter(dest)

	walker := func(path string, fi os.FileInfo, err error) error {
		// return on any error
		if err != nil {
			return err
		}

		// skip excluded directories with their content and excluded files
		for _, ex := range exclude {
			if ex == path {
				if fi.IsDir() {
					return filepath.SkipDir
				}
				return nil
			}
		}

		if fi.Mode().IsDir() {
			return nil
		}

		relpath, err := filepath.Rel(source, path)
		if err != nil {
			return err
		}

		// create a new file header
		header, err := zip.FileInfoHeader(fi)
		if err != nil {
			return err
		}
		header.Name = filepath.ToSlash(relpath)
		header.Method = zip.Store
		header.Modified = zipEpoch

		// Dereference symlinks
		var rd io.Reader
		if fi.Mode()&os.ModeSymlink != 0 {
			data, err := os.Readlink(path)
			if err != nil {
				return err
			}
			rd = strings.NewReader(data)
		} else {
			f, err := os.Open(path)
			if err != nil {
				return err
			}
			defer f.Close()
			rd = f
		}

		// write the header
		w, err := zipwriter.CreateHeader(header)
		if err != nil {
			return err
		}

		// copy file data into zip writer
		if _, err := io.Copy(w, rd); err != nil {
			return err
		}
		return nil
	}

	// filepath.Walk visits entries in lexical order
	if err := filepath.Walk(source, walker); err != nil {
		zipwriter.Close()
		return fmt.Errorf("error adding %s to zip file: %s", source, err.Error())
	}
	return zipwriter.Close()
}
