package cmd

import (
	"os"

	"github.com/spf13/cobra"
)

// rootCmd represents the base command for the inboxmatrix application
var rootCmd = newRootCmd()

// version will be set by main
var version = "dev"

// globalFlags are shared by every command.
var globalFlags struct {
	configFile  string
	platform    string
	account     string
	storageType string
	storagePath string
}

// SetVersion sets the version for the root command
func SetVersion(v string) {
	version = v
	rootCmd.Version = v
}

// Execute is the main entry point for the CLI application
func Execute() {
	rootCmd.SetVersionTemplate(`{{printf "inboxmatrix version %s\n" .Version}}`)

	// Without a subcommand, show the matrix.
	if len(os.Args) == 1 {
		os.Args = append(os.Args, "matrix", "show")
	}

	err := rootCmd.Execute()
	if err != nil {
		os.Exit(1)
	}
}

func newRootCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "inboxmatrix",
		Short: "Triage email into an Eisenhower matrix",
		Long: `inboxmatrix sorts email messages into the four quadrants of an
Eisenhower matrix: Do First, Schedule, Delegate and Eliminate.

It can run as:
  - A command-line tool to view and edit the matrix (default: matrix show)
  - An MCP (Model Context Protocol) server for AI assistants`,
		SilenceUsage: true,
	}

	pf := cmd.PersistentFlags()
	pf.StringVar(&globalFlags.configFile, "config", "", "Config file (default: $XDG_CONFIG_HOME/inboxmatrix/config.yaml)")
	pf.StringVar(&globalFlags.platform, "platform", "", "Platform adapter: local or gmail. Can also use INBOXMATRIX_PLATFORM env var.")
	pf.StringVar(&globalFlags.account, "account", "", "Account name; each account has its own matrix. Can also use INBOXMATRIX_ACCOUNT env var.")
	pf.StringVar(&globalFlags.storageType, "storage-type", "", "Storage backend: memory, file, sqlite or valkey. Can also use INBOXMATRIX_STORAGE_TYPE env var.")
	pf.StringVar(&globalFlags.storagePath, "storage-path", "", "Directory (file) or database file (sqlite). Can also use INBOXMATRIX_STORAGE_PATH env var.")

	cmd.AddCommand(newMatrixCmd())
	cmd.AddCommand(newAuthCmd())
	cmd.AddCommand(newServeCmd())
	cmd.AddCommand(newGenerateDocsCmd())
	cmd.AddCommand(newVersionCmd())
	return cmd
}
