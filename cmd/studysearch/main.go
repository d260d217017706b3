package main

import (
	"context"
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/kailas-cloud/studysearch/internal/version"
)

var (
	flagConfig string
	flagEnv    string
)

var rootCmd = &cobra.Command{
	Use:   "studysearch",
	Short: "Study search over exam banks, lesson banks and videos",
	Long: "studysearch answers curriculum questions by querying the exam bank, the lesson bank " +
		"and YouTube, filtering off-topic results and returning chat-sized replies.",
	SilenceUsage: true,
}

var versionCmd = &cobra.Command{
	Use:   "version",
	Short: "Print version information",
	Run: func(cmd *cobra.Command, _ []string) {
		fmt.Fprintln(cmd.OutOrStdout(), version.String())
	},
}

func init() {
	rootCmd.PersistentFlags().StringVar(&flagConfig, "config", "", "path to config file (default config/<env>.yaml)")
	rootCmd.PersistentFlags().StringVar(&flagEnv, "env", "", "environment name (default $ENV or local)")

	rootCmd.AddCommand(versionCmd)
	rootCmd.AddCommand(serveCmd)
	rootCmd.AddCommand(askCmd)
}

func main() {
	if err := rootCmd.ExecuteContext(context.Background()); err != nil {
		os.Exit(1)
	}
}
