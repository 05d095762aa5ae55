package commands

import (
	"fmt"
	"log/slog"
	"os"

	"github.com/spf13/cobra"

	bbs "github.com/tmaru-eng/legacy-homepage"
)

var (
	// Global flags
	cfgFile string
	verbose bool
)

// rootCmd represents the base command
var rootCmd = &cobra.Command{
	Use:   "legacyhp",
	Short: "legacyhp - nostalgic homepage guestbook backend",
	Long: `legacyhp runs the guestbook (BBS) and visit counter behind the
nostalgic homepage: an API server over SQLite or PostgreSQL, and client
commands that work against a remote API or a local on-device snapshot,
depending on configuration.`,
	SilenceUsage: true,
}

// Execute runs the root command
func Execute() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func init() {
	rootCmd.PersistentFlags().StringVar(&cfgFile, "config", "", "Path to legacyhp.yaml (defaults apply when omitted)")
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "Verbose logging")
}

func loadConfig() (bbs.Config, error) {
	return bbs.LoadConfig(cfgFile)
}

func newLogger() *slog.Logger {
	level := slog.LevelWarn
	if verbose {
		level = slog.LevelDebug
	}
	return slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: level}))
}

func newService() (*bbs.Service, error) {
	cfg, err := loadConfig()
	if err != nil {
		return nil, err
	}
	return bbs.NewService(cfg, newLogger())
}
