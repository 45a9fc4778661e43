package main

import (
	"encoding/json"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/bastiangx/shelfserve/internal/cli"
	"github.com/bastiangx/shelfserve/internal/httpapi"
	"github.com/bastiangx/shelfserve/internal/logger"
	"github.com/bastiangx/shelfserve/internal/metrics"
	"github.com/bastiangx/shelfserve/internal/watcher"
	"github.com/bastiangx/shelfserve/pkg/browse"
	"github.com/bastiangx/shelfserve/pkg/catalog"
	"github.com/bastiangx/shelfserve/pkg/config"
	"github.com/bastiangx/shelfserve/pkg/server"
	"github.com/bastiangx/shelfserve/pkg/shelf"
	"github.com/charmbracelet/lipgloss"
	"github.com/charmbracelet/log"
	"github.com/spf13/cobra"
	"golang.org/x/sync/errgroup"
)

func newRootCmd() *cobra.Command {
	flags := &globalFlags{}
	var rebuildConfig bool

	root := &cobra.Command{
		Use:           AppName,
		Short:         "Storefront product search, filters and paging",
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRun: func(cmd *cobra.Command, args []string) {
			logger.Setup(flags.debug)
		},
		RunE: func(cmd *cobra.Command, args []string) error {
			if !rebuildConfig {
				return cmd.Help()
			}
			path, err := config.RebuildConfigFile(flags.configPath)
			if err != nil {
				return fmt.Errorf("failed to rebuild config: %w", err)
			}
			log.Infof("Wrote default config to %s", path)
			return nil
		},
	}
	root.Flags().BoolVar(&rebuildConfig, "rebuild-config", false, "Overwrite the config file (--config or the default one) with defaults")
	root.PersistentFlags().StringVar(&flags.configPath, "config", "", "Path to config.toml")
	root.PersistentFlags().StringVar(&flags.catalogPath, "catalog", "", "Catalog file (.json, .yaml, .msgpack or .db)")
	root.PersistentFlags().BoolVarP(&flags.debug, "debug", "d", false, "Toggle debug mode")

	root.AddCommand(
		newServeCmd(flags),
		newSearchCmd(flags),
		newReplCmd(flags),
		newHistoryCmd(flags),
		newConvertCmd(),
		newVersionCmd(),
	)
	return root
}

func newServeCmd(flags *globalFlags) *cobra.Command {
	var (
		enableIPC  bool
		enableHTTP bool
		addr       string
		watch      bool
	)

	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Serve MessagePack IPC on stdin/stdout, and optionally HTTP",
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
			defer stop()

			a, err := newApp(ctx, flags)
			if err != nil {
				return err
			}
			defer a.Close()

			if !enableIPC && !enableHTTP {
				return fmt.Errorf("nothing to serve: enable --ipc or --http")
			}
			if !cmd.Flags().Changed("addr") {
				addr = a.cfg.HTTP.Addr
			}
			if !cmd.Flags().Changed("watch") {
				watch = a.cfg.Catalog.Watch
			}

			metrics.Register()
			metrics.SetCatalog(a.shelf.Catalog().Len(), a.shelf.Catalog().Invalid())

			g, gctx := errgroup.WithContext(ctx)

			if enableIPC {
				if stdoutIsTerminal() {
					log.Info("Waiting for MessagePack requests on stdin")
				}
				srv := server.NewServer(a.shelf)
				g.Go(func() error {
					err := srv.Start(gctx)
					if !enableHTTP {
						// input closed, nothing else to serve
						stop()
					}
					return err
				})
			}

			if enableHTTP {
				api := httpapi.NewServer(a.shelf, httpapi.Options{
					Addr:              addr,
					RequestsPerMinute: a.cfg.HTTP.RequestsPerMinute,
					Burst:             a.cfg.HTTP.Burst,
					LimiterIdle:       time.Duration(a.cfg.HTTP.LimiterIdleMinutes) * time.Minute,
				})
				g.Go(func() error { return api.Run(gctx) })
			}

			if watch {
				w, err := watcher.New(a.catalogPath, a.shelf, watcher.DefaultDebounce)
				if err != nil {
					log.Warnf("Catalog will not reload: %v", err)
				} else {
					g.Go(func() error { return w.Run(gctx) })
				}
			}

			showStartupInfo(a, enableIPC, enableHTTP, addr, watch)
			return g.Wait()
		},
	}
	cmd.Flags().BoolVar(&enableIPC, "ipc", true, "Serve MessagePack on stdin/stdout")
	cmd.Flags().BoolVar(&enableHTTP, "http", false, "Serve the JSON API")
	cmd.Flags().StringVar(&addr, "addr", "", "HTTP listen address (default from config)")
	cmd.Flags().BoolVar(&watch, "watch", false, "Reload the catalog when its file changes (default from config)")
	return cmd
}

func newSearchCmd(flags *globalFlags) *cobra.Command {
	var (
		price    string
		genres   []string
		tags     []string
		sortKey  string
		page     int
		size     int
		asJSON   bool
		remember bool
	)

	cmd := &cobra.Command{
		Use:   "search [query]",
		Short: "Run one listing query and print the page",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			key, err := browse.ParseSortKey(sortKey)
			if err != nil {
				return err
			}
			if page < 1 || size < 0 {
				return fmt.Errorf("page must be >= 1 and size >= 0")
			}
			a, err := newApp(cmd.Context(), flags)
			if err != nil {
				return err
			}
			defer a.Close()

			q := shelf.Query{
				FilterState: browse.FilterState{PriceRangeID: price, Genres: genres, Tags: tags},
				Page:        page,
				PageSize:    size,
				Commit:      remember,
			}
			if len(args) == 1 {
				q.Search = args[0]
			}
			if cmd.Flags().Changed("sort") {
				q.Sort = key
			}

			res := a.shelf.Search(q)
			if asJSON {
				enc := json.NewEncoder(cmd.OutOrStdout())
				enc.SetIndent("", "  ")
				return enc.Encode(res)
			}
			cli.RenderResult(cmd.OutOrStdout(), res)
			return nil
		},
	}
	cmd.Flags().StringVar(&price, "price", "", "Price range id (free, under-50, 50-200, 200-plus)")
	cmd.Flags().StringArrayVar(&genres, "genre", nil, "Genre, repeat for any of several")
	cmd.Flags().StringArrayVar(&tags, "tag", nil, "Feature tag, repeat to require all")
	cmd.Flags().StringVar(&sortKey, "sort", "", "popularity, price_asc, price_desc, release_date or rating")
	cmd.Flags().IntVar(&page, "page", 1, "1-based page")
	cmd.Flags().IntVar(&size, "size", 0, "Page size (default from config)")
	cmd.Flags().BoolVar(&asJSON, "json", false, "Print the result as JSON")
	cmd.Flags().BoolVar(&remember, "remember", false, "Record the query in the search history")
	return cmd
}

func newReplCmd(flags *globalFlags) *cobra.Command {
	return &cobra.Command{
		Use:   "repl",
		Short: "Browse the catalog interactively",
		RunE: func(cmd *cobra.Command, args []string) error {
			log.SetReportCaller(false)
			a, err := newApp(cmd.Context(), flags)
			if err != nil {
				return err
			}
			defer a.Close()
			return cli.NewInputHandler(a.shelf, cmd.InOrStdin(), cmd.OutOrStdout()).Start()
		},
	}
}

func newHistoryCmd(flags *globalFlags) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "history",
		Short: "Show recent searches",
		RunE: func(cmd *cobra.Command, args []string) error {
			a, err := newApp(cmd.Context(), flags)
			if err != nil {
				return err
			}
			defer a.Close()
			if a.cfg.History.Path == "" {
				log.Warn("History is in memory only, set [history] path to keep it")
			}
			for i, t := range a.shelf.History().Terms() {
				fmt.Fprintf(cmd.OutOrStdout(), "%2d. %s\n", i+1, t)
			}
			return nil
		},
	}
	cmd.AddCommand(&cobra.Command{
		Use:   "clear",
		Short: "Forget all recent searches",
		RunE: func(cmd *cobra.Command, args []string) error {
			a, err := newApp(cmd.Context(), flags)
			if err != nil {
				return err
			}
			defer a.Close()
			a.shelf.History().Clear()
			return nil
		},
	})
	return cmd
}

func newConvertCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "convert <input> <output>",
		Short: "Rewrite a catalog as msgpack (.msgpack, .mpk) or SQLite (.db, .sqlite)",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			in, out := args[0], args[1]
			format, err := catalog.DetectFormat(out)
			if err != nil {
				return err
			}
			info, _ := catalog.GetFormatInfo(format)
			if format != catalog.FormatMsgpack && format != catalog.FormatSQLite {
				return fmt.Errorf("cannot write %s, use a msgpack or sqlite extension", info.Description)
			}

			c, err := catalog.LoadFile(cmd.Context(), in)
			if err != nil {
				return err
			}
			if c.Invalid() > 0 {
				log.Warnf("%d malformed records are copied as-is", c.Invalid())
			}
			products := c.Products()
			if format == catalog.FormatSQLite {
				err = catalog.SaveSQLite(cmd.Context(), out, products)
			} else {
				err = catalog.WriteMsgpack(out, products)
			}
			if err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Wrote %d products to %s (%s)\n", len(products), out, info.Description)
			return nil
		},
	}
}

func newVersionCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "version",
		Short: "Show current version",
		Run: func(cmd *cobra.Command, args []string) {
			printer := logger.NewWithConfig(cmd.ErrOrStderr(), "", log.InfoLevel, false, log.TextFormatter)

			styles := log.DefaultStyles()
			styles.Values["version"] = lipgloss.NewStyle().Bold(true).
				Foreground(lipgloss.AdaptiveColor{Light: "#575279", Dark: "#e0def4"})
			styles.Values["gh"] = lipgloss.NewStyle().Italic(true).
				Foreground(lipgloss.AdaptiveColor{Light: "#575279", Dark: "#e0def4"})
			printer.SetStyles(styles)

			printer.Print("")
			printer.Print("[ ShelfServe ] storefront search, filters and paging")
			printer.Print("", "version", Version)
			printer.Print("")
			printer.Print("use -h or --help to see available commands")
			printer.Print("Github Repo", "gh", gh)
		},
	}
}

// showStartupInfo displays some basic info about the init process.
func showStartupInfo(a *app, ipc, http bool, addr string, watch bool) {
	currentLevel := log.GetLevel()
	log.SetLevel(log.InfoLevel)
	defer log.SetLevel(currentLevel)

	log.Infof("Version: %s", Version)
	log.Infof("Process ID: [ %d ]", os.Getpid())
	log.Infof("catalog: ( %s ) %d products", a.catalogPath, a.shelf.Catalog().Len())
	log.Infof("loaded at: %s", a.shelf.LoadedAt().Format(time.RFC3339))
	if ipc {
		log.Info("ipc: stdin/stdout")
	}
	if http {
		log.Infof("http: %s", addr)
	}
	if watch {
		log.Info("watching catalog for changes")
	}
	log.Info("status: ready")
}
