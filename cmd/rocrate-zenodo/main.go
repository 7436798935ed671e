package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"

	"github.com/joho/godotenv"
	log "github.com/sirupsen/logrus"
	"github.com/spf13/cobra"
)

const (
	appname = "rocrate-zenodo"
	version = "0.1.0"

	lpArchive   = "Archive"
	lpConvert   = "Convert"
	lpChecklist = "Checklist"
	lpUpload    = "Upload"
)

// setLogLevel enables debug output and coloured log formatting when the
// --debug flag is set.
func setLogLevel(cmd *cobra.Command, args []string) {
	debug, err := cmd.Flags().GetBool("debug")
	if err != nil || !debug {
		return
	}
	log.SetLevel(log.DebugLevel)
	log.SetFormatter(&log.TextFormatter{ForceColors: true})
	log.Debug("Debug output enabled")
}

func setUpCommands(verstr string) *cobra.Command {
	rootCmd := &cobra.Command{
		Use:   fmt.Sprintf("%s <crate>", appname),
		Short: "Upload an RO-Crate and its metadata to Zenodo",
		Long: `Convert the metadata of an RO-Crate to Zenodo deposition metadata, zip the
crate and upload the archive with the metadata to Zenodo.

The crate can be a directory containing an ro-crate-metadata.json file or a zip
file of such a directory. The record is left as a draft unless --publish is set.

The Zenodo API token is read from the environment or a .env file in the
working directory:
  ZENODO_API_TOKEN          token for zenodo.org
  ZENODO_SANDBOX_API_TOKEN  token for sandbox.zenodo.org (with --sandbox)`,
		Args:             cobra.ExactArgs(1),
		RunE:             upload,
		PersistentPreRun: setLogLevel,
		SilenceUsage:     true,
		SilenceErrors:    true,
	}
	rootCmd.PersistentFlags().Bool("debug", false, "Print debug messages")
	rootCmd.Flags().BoolP("sandbox", "s", false, "Upload to the Zenodo sandbox instead of zenodo.org")
	rootCmd.Flags().BoolP("publish", "p", false, "Publish the record after uploading (published records can't be deleted)")
	rootCmd.Flags().String("zip-dir", "", "Directory for the crate archive (default: new temporary directory)")
	rootCmd.Flags().String("checklist", "", "Write a markdown review checklist to this file or directory")
	rootCmd.Flags().Bool("suggest-license", false, "Search the Zenodo license list when the crate license can't be resolved")

	convertCmd := &cobra.Command{
		Use:   "convert <crate>",
		Short: "Print the Zenodo metadata of an RO-Crate without uploading",
		Long: `Convert the metadata of an RO-Crate to Zenodo deposition metadata and print it
as YAML. Nothing is sent to Zenodo. Conversion warnings are logged.`,
		Args: cobra.ExactArgs(1),
		RunE: convertcrate,
	}
	convertCmd.Flags().StringP("out", "o", "", "Write the metadata to this file instead of stdout")
	convertCmd.Flags().String("checklist", "", "Write a markdown review checklist to this file or directory")

	versionCmd := &cobra.Command{
		Use:   "version",
		Short: "Print version information",
		Args:  cobra.NoArgs,
		Run: func(cmd *cobra.Command, args []string) {
			fmt.Fprintln(cmd.OutOrStdout(), verstr)
		},
	}

	rootCmd.AddCommand(convertCmd, versionCmd)
	return rootCmd
}

func main() {
	// Load .env file if present (for the Zenodo API tokens)
	_ = godotenv.Load()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()

	verstr := fmt.Sprintf("%s %s", appname, version)
	cmd := setUpCommands(verstr)
	if err := cmd.ExecuteContext(ctx); err != nil {
		fmt.Fprintln(os.Stderr, err)
		stop()
		os.Exit(1)
	}
}
