package main

import (
	"os"

	"github.com/Abraxas-365/mailrelay/pkg/config"
	"github.com/Abraxas-365/mailrelay/pkg/logx"
	"github.com/spf13/cobra"
)

var envFiles []string

var rootCmd = &cobra.Command{
	Use:   "mailrelay",
	Short: "Transactional email relay",
	Long: `mailrelay sends single emails on behalf of authenticated users.

It authenticates the caller against the backend identity service, validates
and formats the message, hands it to the configured mail provider and records
an activity log entry.`,
	SilenceUsage: true,
	PersistentPreRun: func(cmd *cobra.Command, args []string) {
		logx.SetDefaultLogger(logx.NewLogger(logx.LoadFromEnv()))
	},
}

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Run the HTTP server",
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := config.Load(envFiles...)
		if err != nil {
			return err
		}
		return serve(cmd.Context(), cfg)
	},
}

var migrateCmd = &cobra.Command{
	Use:   "migrate [up|status]",
	Short: "Apply or inspect the database schema",
	Args:  cobra.MaximumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := config.Load(envFiles...)
		if err != nil {
			return err
		}
		action := "up"
		if len(args) == 1 {
			action = args[0]
		}
		return migrate(cmd.Context(), cfg, action)
	},
}

func init() {
	rootCmd.PersistentFlags().StringSliceVar(&envFiles, "env-file", nil, "dotenv files to load (default .env)")
	rootCmd.AddCommand(serveCmd, migrateCmd)
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		logx.Errorf("mailrelay: %v", err)
		os.Exit(1)
	}
}
