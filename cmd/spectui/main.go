package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"spectui/internal/app"
)

var Version = "dev"

var flags struct {
	config   string
	logFile  string
	delay    int
	nspectra int
}

var rootCmd = &cobra.Command{
	Use:     "spectui",
	Short:   "Terminal viewer for antenna autospectra",
	Long:    "spectui plots antenna autospectra in the terminal, either polled live\nfrom the station or read from a saved monitor dump.",
	Version: Version,
}

var liveCmd = &cobra.Command{
	Use:   "live [ANTENNA]...",
	Short: "Poll live spectra for the named antennas",
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx, cancel := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
		defer cancel()

		opts := app.LiveOptions{
			ConfigPath: flags.config,
			LogFile:    flags.logFile,
			Antennas:   args,
		}
		if flags.delay > 0 {
			opts.Delay = time.Duration(flags.delay) * time.Second
		}
		return app.RunLive(ctx, opts)
	},
}

var fileCmd = &cobra.Command{
	Use:   "file INPUT_FILE",
	Short: "View spectra from a saved monitor dump (.npy)",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		return app.RunFile(app.FileOptions{
			ConfigPath: flags.config,
			LogFile:    flags.logFile,
			Path:       args[0],
			NSpectra:   flags.nspectra,
		})
	},
}

func init() {
	rootCmd.PersistentFlags().StringVarP(&flags.config, "config", "c", "",
		"Config file path (default ~/.config/spectui/config.toml)")
	rootCmd.PersistentFlags().StringVarP(&flags.logFile, "log", "l", "",
		"Write logs to the specified file (empty discards)")

	liveCmd.Flags().IntVarP(&flags.delay, "delay", "d", 0,
		"Seconds between polls (default from config, 30)")
	fileCmd.Flags().IntVarP(&flags.nspectra, "nspectra", "n", 8,
		"Number of antenna stands to read from the dump")

	rootCmd.AddCommand(liveCmd, fileCmd)
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}
