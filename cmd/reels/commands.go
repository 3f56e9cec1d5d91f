package main

import (
	"errors"
	"fmt"
	"os"
	"os/signal"
	"path/filepath"
	"strconv"
	"time"

	"github.com/gofrs/flock"
	"github.com/spf13/cobra"

	"github.com/pders01/reels/internal/config"
	"github.com/pders01/reels/internal/storage"
	"github.com/pders01/reels/internal/validation"
)

var (
	forceRefresh     bool
	permissiveSource bool
	listLimit        int
	listSource       string
	listLiked        bool
)

var addCmd = &cobra.Command{
	Use:   "add <url>",
	Short: "Subscribe to a reel source",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		e, err := openEnv()
		if err != nil {
			return err
		}
		defer e.Close()

		e.manager.SetPermissiveValidation(permissiveSource)
		ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt)
		defer stop()

		src, err := e.manager.AddSource(ctx, args[0])
		if err != nil {
			return err
		}
		reels, err := e.store.GetReels(src.ID, 0)
		if err != nil {
			return err
		}
		fmt.Fprintf(cmd.OutOrStdout(), "Added %s (%d reels)\n", src.Title, len(reels))
		return nil
	},
}

var refreshCmd = &cobra.Command{
	Use:   "refresh",
	Short: "Fetch new reels from every source",
	RunE: func(cmd *cobra.Command, _ []string) error {
		e, err := openEnv()
		if err != nil {
			return err
		}
		defer e.Close()

		lock, err := acquireRefreshLock(e.dataDir())
		if err != nil {
			return err
		}
		defer lock.Unlock()

		e.manager.SetForceRefresh(forceRefresh)
		ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt)
		defer stop()

		start := time.Now()
		added, err := e.manager.RefreshAll(ctx)
		fmt.Fprintf(cmd.OutOrStdout(), "Refreshed in %s: %d reels\n", time.Since(start).Round(time.Millisecond), added)
		return err
	},
}

var errRefreshRunning = errors.New("another refresh is already running")

// acquireRefreshLock keeps two refreshes from writing the same sources at
// once. The TUI and cron jobs may both trigger one.
func acquireRefreshLock(dir string) (*flock.Flock, error) {
	lock := flock.New(filepath.Join(dir, "refresh.lock"))
	ok, err := lock.TryLock()
	if err != nil {
		return nil, fmt.Errorf("acquire refresh lock: %w", err)
	}
	if !ok {
		return nil, errRefreshRunning
	}
	return lock, nil
}

var listCmd = &cobra.Command{
	Use:   "list",
	Short: "Print stored reels",
	RunE: func(cmd *cobra.Command, _ []string) error {
		e, err := openEnv()
		if err != nil {
			return err
		}
		defer e.Close()

		reels, err := e.store.GetReels(listSource, listLimit)
		if err != nil {
			return err
		}
		sources, err := e.store.GetAllSources()
		if err != nil {
			return err
		}
		fmt.Fprintln(cmd.OutOrStdout(), reelTable(reels, sources, listLiked))
		return nil
	},
}

func reelTable(reels []*storage.Reel, sources []*storage.Source, likedOnly bool) string {
	titles := make(map[string]string, len(sources))
	for _, s := range sources {
		titles[s.ID] = s.Title
	}

	rows := make([][]string, 0, len(reels))
	for _, r := range reels {
		if likedOnly && !r.Liked {
			continue
		}
		flags := ""
		if r.Liked {
			flags += "♥"
		}
		if r.Seen {
			flags += "✓"
		}
		title := r.Title
		if title == "" {
			title = r.Caption
		}
		rows = append(rows, []string{
			truncate(title, 48),
			truncate(titles[r.SourceID], 24),
			r.Author,
			formatDuration(r.Duration),
			flags,
		})
	}
	return renderTable(
		[]string{"Title", "Source", "Author", "Length", ""},
		rows,
		[]columnAlignment{alignLeft, alignLeft, alignLeft, alignRight, alignLeft},
	)
}

func formatDuration(d time.Duration) string {
	if d <= 0 {
		return "-"
	}
	secs := int(d.Round(time.Second) / time.Second)
	return strconv.Itoa(secs/60) + ":" + fmt.Sprintf("%02d", secs%60)
}

func truncate(s string, limit int) string {
	r := []rune(s)
	if len(r) <= limit {
		return s
	}
	return string(r[:limit-1]) + "…"
}

var sourcesCmd = &cobra.Command{
	Use:   "sources",
	Short: "Print subscribed sources",
	RunE: func(cmd *cobra.Command, _ []string) error {
		e, err := openEnv()
		if err != nil {
			return err
		}
		defer e.Close()

		sources, err := e.store.GetAllSources()
		if err != nil {
			return err
		}
		rows := make([][]string, 0, len(sources))
		for _, s := range sources {
			fetched := "never"
			if !s.LastFetched.IsZero() {
				fetched = s.LastFetched.Local().Format("Jan 2 15:04")
			}
			rows = append(rows, []string{s.ID, truncate(s.Title, 32), truncate(s.URL, 48), fetched})
		}
		fmt.Fprintln(cmd.OutOrStdout(), renderTable(
			[]string{"ID", "Title", "URL", "Fetched"},
			rows,
			nil,
		))
		return nil
	},
}

var removeCmd = &cobra.Command{
	Use:   "remove <source-id>",
	Short: "Unsubscribe from a source and delete its reels",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		e, err := openEnv()
		if err != nil {
			return err
		}
		defer e.Close()

		src, err := e.store.GetSource(args[0])
		if err != nil {
			return err
		}
		if err := e.manager.DeleteSource(src.ID); err != nil {
			return err
		}
		fmt.Fprintf(cmd.OutOrStdout(), "Removed %s\n", src.Title)
		return nil
	},
}

var versionCmd = &cobra.Command{
	Use:   "version",
	Short: "Print version information",
	Run: func(cmd *cobra.Command, _ []string) {
		fmt.Printf("reels %s\n", Version)
		fmt.Println("Short video feed")
		fmt.Println("github.com/pders01/reels")
	},
}

var configCmd = &cobra.Command{
	Use:   "config",
	Short: "Manage the configuration file",
}

var configGenCmd = &cobra.Command{
	Use:   "generate",
	Short: "Write the default configuration",
	Run: func(cmd *cobra.Command, _ []string) {
		path, err := validation.NewSecurePathHandler().ConfigPath("")
		if err == nil {
			err = config.GenerateDefaultConfig(path)
		}
		if err != nil {
			fmt.Fprintf(os.Stderr, "Failed to generate config: %v\n", err)
			return
		}
		fmt.Printf("Generated default configuration at: %s\n", path)
	},
}

func init() {
	addCmd.Flags().BoolVar(&permissiveSource, "allow-private", false, "Allow localhost and private network sources")
	refreshCmd.Flags().BoolVarP(&forceRefresh, "force", "f", false, "Ignore refresh interval and HTTP caching")
	listCmd.Flags().IntVarP(&listLimit, "limit", "n", 50, "Maximum number of reels (0 for all)")
	listCmd.Flags().StringVar(&listSource, "source", "", "Only list reels of this source id")
	listCmd.Flags().BoolVar(&listLiked, "liked", false, "Only list liked reels")
}
