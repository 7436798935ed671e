package main

import (
	"fmt"

	"github.com/G-Node/rocrate-zenodo/convert"
	"github.com/G-Node/rocrate-zenodo/crate"
	log "github.com/sirupsen/logrus"
	"github.com/spf13/cobra"
)

// logWarnings logs the conversion warnings for the user.
func logWarnings(diag *convert.Diagnostics) {
	for _, w := range diag.Warnings() {
		log.WithFields(log.Fields{"source": lpConvert, "property": w.Source}).Warn(w.Message)
	}
}

// upload converts the crate metadata, zips the crate and uploads both to
// Zenodo. The record is published only if requested.
func upload(cmd *cobra.Command, args []string) error {
	flags := cmd.Flags()
	sandbox, _ := flags.GetBool("sandbox")
	publish, _ := flags.GetBool("publish")
	zipdir, _ := flags.GetString("zip-dir")
	checklistpath, _ := flags.GetString("checklist")
	suggest, _ := flags.GetBool("suggest-license")

	cfg, err := loadconfig(sandbox)
	if err != nil {
		return err
	}
	client := newClient(cfg)

	rc, err := crate.Open(args[0])
	if err != nil {
		return err
	}

	conv := new(convert.Converter)
	if suggest {
		conv.Licenses = client
	}
	md, diag, err := conv.Convert(cmd.Context(), rc.Root)
	logWarnings(diag)
	if err != nil {
		return err
	}

	archive, err := zipCrate(rc, zipdir)
	if err != nil {
		return err
	}
	defer archive.Cleanup()

	log.WithFields(log.Fields{
		"source":  lpUpload,
		"target":  client.BaseURL(),
		"publish": publish,
	}).Debug("Uploading crate")
	dep, err := client.Upload(cmd.Context(), md, []string{archive.Path}, publish)
	if err != nil {
		if dep != nil {
			log.WithFields(log.Fields{"source": lpUpload, "id": dep.ID}).Error("Upload failed; an incomplete draft was left on Zenodo")
		}
		return err
	}
	fmt.Fprintf(cmd.OutOrStdout(), "Created record %d (%s)\n", dep.ID, dep.Links.HTML)

	if checklistpath != "" {
		cl := newChecklist(rc, md, diag)
		cl.setArchive(archive.Path, archive.Size)
		cl.setRecord(client, dep)
		if _, err := writeChecklist(cl, rc.Name(), checklistpath); err != nil {
			return err
		}
	}
	return nil
}
