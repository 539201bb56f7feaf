// Copyright (c) Elliot Nunn
// Licensed under the MIT license

// Command macshim reads Macintosh resource forks, sounds and 3D metafiles
package main

import (
	"context"
	"log/slog"
	"os"
	"os/signal"

	"github.com/spf13/cobra"
)

var verbose bool

var rootCmd = &cobra.Command{
	Use:           "macshim",
	Short:         "Work with classic Macintosh resources, sounds and 3DMF models",
	SilenceUsage:  true,
	SilenceErrors: true,
	PersistentPreRun: func(cmd *cobra.Command, args []string) {
		if verbose {
			slog.SetLogLoggerLevel(slog.LevelDebug)
		} else {
			slog.SetLogLoggerLevel(slog.LevelWarn)
		}
	},
}

func init() {
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "log debug events")
	rootCmd.PersistentFlags().StringVar(&cacheDir, "cache-dir", cacheDir, "keep decoded sounds in this directory (MACSHIM_CACHE_DIR)")
}

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	err := rootCmd.ExecuteContext(ctx)
	stop()
	if err != nil {
		slog.Error("macshim", "err", err)
		os.Exit(1)
	}
}
