package main

import (
	"fmt"
	"io/ioutil"

	"github.com/G-Node/rocrate-zenodo/convert"
	"github.com/G-Node/rocrate-zenodo/crate"
	"github.com/spf13/cobra"
	"gopkg.in/yaml.v2"
)

// convertcrate prints the Zenodo metadata of a crate as YAML without
// uploading anything. A checklist is written even if the conversion fails.
func convertcrate(cmd *cobra.Command, args []string) error {
	outfile, _ := cmd.Flags().GetString("out")
	checklistpath, _ := cmd.Flags().GetString("checklist")

	rc, err := crate.Open(args[0])
	if err != nil {
		return err
	}

	md, diag, converr := new(convert.Converter).Convert(cmd.Context(), rc.Root)
	logWarnings(diag)

	if checklistpath != "" {
		if _, err := writeChecklist(newChecklist(rc, md, diag), rc.Name(), checklistpath); err != nil {
			return err
		}
	}
	if converr != nil {
		return converr
	}

	data, err := yaml.Marshal(md)
	if err != nil {
		return fmt.Errorf("failed to encode metadata: %w", err)
	}
	if outfile == "" {
		_, err = cmd.OutOrStdout().Write(data)
		return err
	}
	if err := ioutil.WriteFile(outfile, data, 0664); err != nil {
		return fmt.Errorf("failed to write metadata file: %w", err)
	}
	fmt.Fprintf(cmd.OutOrStdout(), "Metadata written to %s\n", outfile)
	return nil
}
