package main

import (
	"errors"
	"fmt"
	"os"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/mattn/go-isatty"
	"github.com/spf13/cobra"

	"github.com/pders01/reels/internal/debuglog"
	"github.com/pders01/reels/internal/media"
	"github.com/pders01/reels/internal/tui"
)

var (
	configPath string
	dbPath     string
	logLevel   string
	quiet      bool
)

var rootCmd = &cobra.Command{
	Use:           "reels",
	Short:         "Vertical short-video feed for the terminal",
	Long:          "reels plays short videos from RSS, Atom, YouTube and Reddit sources as a scrolling feed.",
	SilenceUsage:  true,
	SilenceErrors: true,
	RunE:          runFeed,
}

func init() {
	rootCmd.PersistentFlags().StringVar(&configPath, "config", "", "Path to configuration file")
	rootCmd.PersistentFlags().StringVar(&dbPath, "db", "", "Path to database file (overrides config)")
	rootCmd.PersistentFlags().StringVar(&logLevel, "log-level", "", "Log level: off, error, warn, info, debug (overrides config)")
	rootCmd.Flags().BoolVarP(&quiet, "quiet", "q", false, "Skip startup banner")

	configCmd.AddCommand(configGenCmd)
	rootCmd.AddCommand(addCmd, refreshCmd, listCmd, sourcesCmd, removeCmd, versionCmd, configCmd)
}

var errNotTerminal = errors.New("the feed needs an interactive terminal; use 'reels list' to print reels")

func runFeed(cmd *cobra.Command, _ []string) error {
	if !isTerminal(os.Stdout) || !isTerminal(os.Stdin) {
		return errNotTerminal
	}

	e, err := openEnv()
	if err != nil {
		return err
	}
	defer e.Close()

	if !quiet {
		tui.ShowBanner(Version)
	}

	app, err := tui.NewApp(e.cfg, e.store, e.manager, e.searcher, media.NewLauncher(e.cfg))
	if err != nil {
		return err
	}
	p := tea.NewProgram(app, tea.WithAltScreen(), tea.WithReportFocus())

	_, runErr := p.Run()
	if err := app.Shutdown(); err != nil {
		debuglog.Errorf("saving feed position: %v", err)
	}
	if runErr != nil {
		return fmt.Errorf("running feed: %w", runErr)
	}
	return nil
}

func isTerminal(f *os.File) bool {
	fd := f.Fd()
	return isatty.IsTerminal(fd) || isatty.IsCygwinTerminal(fd)
}
