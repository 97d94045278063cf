package main

import (
	"strings"

	"github.com/spf13/cobra"

	"github.com/sensiblebit/certcheck/internal"
)

var (
	logLevel     string
	logFormat    string
	configPath   string
	passwordList string
	passwordFile string
)

var rootCmd = &cobra.Command{
	Use:   "certcheck",
	Short: "Certificate directory checker",
	Long:  "Classify the files of a certificate directory: non-certificates, expired certificates, and certificates present in or missing from the system trust store.",
	PersistentPreRun: func(_ *cobra.Command, _ []string) {
		internal.SetupLogger(logLevel, logFormat)
	},
	SilenceErrors: true,
	SilenceUsage:  true,
}

func init() {
	rootCmd.PersistentFlags().StringVarP(&logLevel, "log-level", "l", "info", "Log level: debug, info, warn, error")
	rootCmd.PersistentFlags().StringVar(&logFormat, "log-format", "text", "Log format: text or json")
	rootCmd.PersistentFlags().StringVarP(&configPath, "config", "c", "", "Path to a YAML config file")
	rootCmd.PersistentFlags().StringVarP(&passwordList, "passwords", "p", "", "Comma-separated passwords for PKCS#12 and JKS files")
	rootCmd.PersistentFlags().StringVar(&passwordFile, "password-file", "", "File containing passwords, one per line")

	registerCompletion(rootCmd, completionInput{"log-level", fixedCompletion("debug", "info", "warn", "error")})
	registerCompletion(rootCmd, completionInput{"log-format", fixedCompletion("text", "json")})
	registerCompletion(rootCmd, completionInput{"config", fileCompletion})
	registerCompletion(rootCmd, completionInput{"password-file", fileCompletion})

	rootCmd.AddCommand(checkCmd)
	rootCmd.AddCommand(inspectCmd)
}

// splitPasswords splits a comma-separated password list, dropping empty items.
func splitPasswords(list string) []string {
	var out []string
	for _, p := range strings.Split(list, ",") {
		if p = strings.TrimSpace(p); p != "" {
			out = append(out, p)
		}
	}
	return out
}

// loadPasswords merges configured passwords with the --passwords and
// --password-file flags.
func loadPasswords(configured []string) ([]string, error) {
	return internal.ProcessPasswords(append(append([]string(nil), configured...), splitPasswords(passwordList)...), passwordFile)
}
