package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/sensiblebit/certcheck/internal"
	"github.com/sensiblebit/certcheck/internal/inventory"
)

var (
	inspectFormat  string
	inspectFormats string
)

var inspectCmd = &cobra.Command{
	Use:   "inspect <file>",
	Short: "Show what check sees in a single file",
	Long:  "Sniff one file the way check does and print its kind, encoding and certificate details.",
	Example: `  certcheck inspect cert.pem
  certcheck inspect truststore.jks --formats any --passwords changeit
  certcheck inspect cert.pem --format json`,
	Args:              cobra.ExactArgs(1),
	ValidArgsFunction: fileCompletion,
	RunE:              runInspect,
}

func init() {
	inspectCmd.Flags().StringVar(&inspectFormat, "format", "text", "Output format: text or json")
	inspectCmd.Flags().StringVar(&inspectFormats, "formats", string(inventory.FormatsPEM), "Certificate encodings to accept: pem or any")

	registerCompletion(inspectCmd, completionInput{"format", fixedCompletion("text", "json")})
	registerCompletion(inspectCmd, completionInput{"formats", fixedCompletion("pem", "any")})
}

func runInspect(cmd *cobra.Command, args []string) error {
	formats, err := inventory.ParseFormats(inspectFormats)
	if err != nil {
		return err
	}
	passwords, err := loadPasswords(nil)
	if err != nil {
		return fmt.Errorf("loading passwords: %w", err)
	}

	result, err := internal.InspectFile(args[0], inventory.ScanOptions{Formats: formats, Passwords: passwords})
	if err != nil {
		return err
	}

	output, err := internal.FormatInspectResult(result, inspectFormat)
	if err != nil {
		return err
	}

	fmt.Fprint(cmd.OutOrStdout(), output)
	return nil
}
