package cmd

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
)

var (
	// Global flags
	configPath string
	logLevel   string
	logFormat  string
)

// newRootCmd assembles the command tree. Running the root without a
// subcommand starts the server.
func newRootCmd() *cobra.Command {
	root := &cobra.Command{
		Use:   "server",
		Short: "Royal House CMS server - content API and admin dashboard backend",
		Long: `Royal House CMS server backs the public Royal House site and its admin dashboard.

The server provides:
- Public read APIs for the administration roster, media gallery and updates
- Email one-time-code login with a signed session cookie
- Session-protected content management and file uploads
- Admin allow-list management`,
		SilenceUsage: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runServer(cmd.Context(), serveOptions{})
		},
	}

	root.PersistentFlags().StringVar(&configPath, "config", "", "YAML config file overlaid on env vars (optional)")
	root.PersistentFlags().StringVar(&logLevel, "log-level", "", "log level (debug, info, warn, error) (default: info)")
	root.PersistentFlags().StringVar(&logFormat, "log-format", "", "log format (json, console) (default: json)")

	root.AddCommand(newServeCmd())
	root.AddCommand(newMigrateCmd())
	root.AddCommand(newAdminsCmd())
	root.AddCommand(newHealthcheckCmd())
	root.AddCommand(newVersionCmd())
	return root
}

// Execute runs the CLI. It is called by main.main.
func Execute() {
	if err := newRootCmd().Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}
