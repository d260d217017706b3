package main

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/spf13/cobra"

	logpkg "github.com/kailas-cloud/studysearch/internal/logger"
)

var flagAskTimeout time.Duration

var askCmd = &cobra.Command{
	Use:   "ask <query...>",
	Short: "Run one search and print the reply chunks",
	Args:  cobra.MinimumNArgs(1),
	RunE:  runAsk,
}

func init() {
	askCmd.Flags().DurationVar(&flagAskTimeout, "timeout", 30*time.Second, "overall deadline for the query")
}

func runAsk(cmd *cobra.Command, args []string) error {
	_, cfg, err := loadConfig()
	if err != nil {
		return err
	}

	level := cfg.Logging.Level
	if level == "debug" || level == "info" {
		level = "" // keep stdout readable; cli logs warn+ to stderr
	}
	logger, err := logpkg.NewLogger("cli", level)
	if err != nil {
		return fmt.Errorf("failed to create logger: %w", err)
	}
	defer func() { _ = logger.Sync() }()

	a, err := buildApp(cmd.Context(), cfg, logger)
	if err != nil {
		return err
	}

	ctx, cancel := context.WithTimeout(cmd.Context(), flagAskTimeout)
	defer cancel()

	reply := a.search.HandleQuery(ctx, strings.Join(args, " "))

	out := cmd.OutOrStdout()
	for i, c := range reply.Chunks {
		if i > 0 {
			fmt.Fprintln(out, strings.Repeat("─", 40))
		}
		fmt.Fprint(out, c)
		if !strings.HasSuffix(c, "\n") {
			fmt.Fprintln(out)
		}
	}
	return nil
}
