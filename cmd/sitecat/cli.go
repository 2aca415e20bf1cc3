package main

import (
	"context"
	"database/sql"
	"encoding/json"
	stderrors "errors"
	"fmt"
	"log"
	"os"
	"os/signal"
	"path/filepath"
	"strconv"
	"strings"
	"syscall"
	"time"

	"github.com/urfave/cli/v2"
	"gopkg.in/yaml.v3"

	"github.com/hpungsan/sitecat/internal/catalog"
	"github.com/hpungsan/sitecat/internal/config"
	"github.com/hpungsan/sitecat/internal/errors"
	"github.com/hpungsan/sitecat/internal/history"
	"github.com/hpungsan/sitecat/internal/watch"
	"github.com/hpungsan/sitecat/internal/web"
)

// newCLIApp creates the CLI application with all commands.
func newCLIApp(db *sql.DB, cfg *config.Config) *cli.App {
	if cfg == nil {
		cfg = config.DefaultConfig()
	}

	app := &cli.App{
		Name:    "sitecat",
		Usage:   "Tool manifest builder and dev server for static sites",
		Version: Version,
		Commands: []*cli.Command{
			buildCmd(db, cfg),
			inspectCmd(),
			listCmd(cfg),
			serveCmd(db, cfg),
			watchCmd(db, cfg),
			historyCmd(db, cfg),
		},
	}

	// Don't exit on errors (let tests handle them)
	app.ExitErrHandler = func(_ *cli.Context, _ error) {}

	return app
}

func buildCmd(db *sql.DB, cfg *config.Config) *cli.Command {
	return &cli.Command{
		Name:  "build",
		Usage: "Scan the pages tree and write the tools manifest",
		Flags: []cli.Flag{
			&cli.StringFlag{Name: "root", Aliases: []string{"r"}, Value: cfg.Root, Usage: "Directory to scan for pages"},
			&cli.StringFlag{Name: "out", Aliases: []string{"o"}, Value: cfg.Output, Usage: "Manifest file to write"},
			&cli.BoolFlag{Name: "strict", Usage: "Abort on the first page error instead of skipping it"},
		},
		Action: func(c *cli.Context) error {
			output, err := catalog.Build(catalog.BuildInput{
				Root:   c.String("root"),
				Output: c.String("out"),
				Strict: c.Bool("strict"),
			})
			if err != nil {
				return outputError(err)
			}

			recordBuild(db, output)

			return outputJSON(output)
		},
	}
}

func inspectCmd() *cli.Command {
	return &cli.Command{
		Name:      "inspect",
		Usage:     "Show the manifest entry a single page would produce",
		ArgsUsage: "<file>",
		Flags: []cli.Flag{
			&cli.StringFlag{Name: "format", Aliases: []string{"f"}, Value: "json", Usage: "Output format: json or yaml"},
		},
		Action: func(c *cli.Context) error {
			if c.NArg() < 1 {
				return outputError(errors.NewInvalidRequest("inspect requires a page path"))
			}

			output, err := catalog.Inspect(catalog.InspectInput{Path: c.Args().First()})
			if err != nil {
				return outputError(err)
			}

			return outputFormatted(output, c.String("format"))
		},
	}
}

func listCmd(cfg *config.Config) *cli.Command {
	return &cli.Command{
		Name:  "list",
		Usage: "List every page with its title, visibility, and rank",
		Flags: []cli.Flag{
			&cli.StringFlag{Name: "root", Aliases: []string{"r"}, Value: cfg.Root, Usage: "Directory to scan for pages"},
			&cli.StringFlag{Name: "format", Aliases: []string{"f"}, Value: "json", Usage: "Output format: json or yaml"},
		},
		Action: func(c *cli.Context) error {
			output, err := catalog.List(catalog.ListInput{Root: c.String("root")})
			if err != nil {
				return outputError(err)
			}

			return outputFormatted(output, c.String("format"))
		},
	}
}

func serveCmd(db *sql.DB, cfg *config.Config) *cli.Command {
	return &cli.Command{
		Name:  "serve",
		Usage: "Serve the site directory and open the landing page",
		Flags: []cli.Flag{
			&cli.StringFlag{Name: "dir", Aliases: []string{"d"}, Value: ".", Usage: "Directory to serve"},
			&cli.StringFlag{Name: "bind", Value: cfg.Bind, Usage: "Address to listen on"},
			&cli.IntFlag{Name: "port", Aliases: []string{"p"}, Value: cfg.Port, Usage: "Port to listen on"},
			&cli.StringFlag{Name: "page", Value: cfg.OpenPath, Usage: "Page to open in the browser"},
			&cli.BoolFlag{Name: "no-open", Value: cfg.DisableOpen, Usage: "Do not open the browser"},
			&cli.BoolFlag{Name: "live", Usage: "Rebuild the manifest and reload browsers when pages change"},
			&cli.StringFlag{Name: "root", Value: cfg.Root, Usage: "Pages directory for live rebuilds"},
			&cli.StringFlag{Name: "out", Value: cfg.Output, Usage: "Manifest file for live rebuilds"},
		},
		Action: func(c *cli.Context) error {
			dir := c.String("dir")
			port := c.Int("port")
			page := c.String("page")

			// The landing page must exist before a browser opens onto a 404.
			if _, err := os.Stat(filepath.Join(dir, filepath.FromSlash(page))); err != nil {
				if os.IsNotExist(err) {
					return outputError(errors.NewNotFound(page))
				}
				return outputError(errors.NewIO("stat "+page, err))
			}

			srv := web.NewServer(db, web.Options{
				Dir:      dir,
				Bind:     c.String("bind"),
				Port:     port,
				OpenPath: page,
				Live:     c.Bool("live"),
				Version:  Version,
			})

			if err := srv.Listen(); err != nil {
				if errors.Is(err, errors.ErrPortInUse) {
					fmt.Fprintf(os.Stderr, "Error: port %d is already in use.\n", port)
					fmt.Fprintf(os.Stderr, "Try the viewer at: http://localhost:%d/%s\n", port, page)
					fmt.Fprintln(os.Stderr, "To free the port:")
					for _, hint := range web.PortInUseHints(port) {
						fmt.Fprintf(os.Stderr, "  %s\n", hint)
					}
				}
				return outputError(err)
			}

			var w *watch.Watcher
			if c.Bool("live") {
				root := c.String("root")
				out := c.String("out")
				rebuild := rebuildFunc(db, root, out)

				var err error
				w, err = watch.New(watch.Config{
					Root:     root,
					Debounce: time.Duration(cfg.DebounceMS) * time.Millisecond,
					OnChange: func(paths []string) {
						rebuild(paths)
						// Reload even when the rebuild fails: the page
						// itself changed.
						srv.Hub().Broadcast("reload")
					},
				})
				if err != nil {
					return outputError(err)
				}
				if err := w.Start(context.Background()); err != nil {
					return outputError(err)
				}
			}

			if !c.Bool("no-open") {
				url := fmt.Sprintf("http://localhost:%d/%s", port, page)
				if err := web.OpenBrowser(url); err != nil {
					log.Printf("could not open browser: %v (visit %s)", err, url)
				}
			}

			err := srv.Run(context.Background())
			if w != nil {
				w.Stop()
			}
			if err != nil {
				return outputError(err)
			}
			return nil
		},
	}
}

func watchCmd(db *sql.DB, cfg *config.Config) *cli.Command {
	return &cli.Command{
		Name:  "watch",
		Usage: "Rebuild the manifest whenever pages change",
		Flags: []cli.Flag{
			&cli.StringFlag{Name: "root", Aliases: []string{"r"}, Value: cfg.Root, Usage: "Directory to scan for pages"},
			&cli.StringFlag{Name: "out", Aliases: []string{"o"}, Value: cfg.Output, Usage: "Manifest file to write"},
			&cli.IntFlag{Name: "debounce", Value: cfg.DebounceMS, Usage: "Debounce window in milliseconds"},
		},
		Action: func(c *cli.Context) error {
			root := c.String("root")
			out := c.String("out")

			// The initial build fails hard; later rebuilds only log.
			output, err := catalog.Build(catalog.BuildInput{Root: root, Output: out})
			if err != nil {
				return outputError(err)
			}
			recordBuild(db, output)
			log.Printf("built %s: %d tools, %d skipped, %d failed", out, output.ToolsCount, output.Skipped, output.Failed)

			w, err := watch.New(watch.Config{
				Root:     root,
				Debounce: time.Duration(c.Int("debounce")) * time.Millisecond,
				OnChange: rebuildFunc(db, root, out),
			})
			if err != nil {
				return outputError(err)
			}
			if err := w.Start(context.Background()); err != nil {
				return outputError(err)
			}

			log.Printf("watching %s (Ctrl+C to stop)", root)

			sigCh := make(chan os.Signal, 1)
			signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
			<-sigCh
			signal.Stop(sigCh)

			log.Println("Stopping...")
			w.Stop()
			return nil
		},
	}
}

func historyCmd(db *sql.DB, cfg *config.Config) *cli.Command {
	return &cli.Command{
		Name:  "history",
		Usage: "Show recent manifest builds",
		Flags: []cli.Flag{
			&cli.IntFlag{Name: "limit", Aliases: []string{"l"}, Value: cfg.HistoryLimit, Usage: "Maximum builds to return"},
			&cli.StringFlag{Name: "prune", Usage: "Delete builds older than a duration (e.g., 30d) instead of listing"},
			&cli.StringFlag{Name: "format", Aliases: []string{"f"}, Value: "json", Usage: "Output format: json or yaml"},
		},
		Action: func(c *cli.Context) error {
			if db == nil {
				return outputError(errors.NewInvalidRequest("build history requires the database"))
			}

			if prune := c.String("prune"); prune != "" {
				days, err := parseDuration(prune)
				if err != nil {
					return outputError(errors.NewInvalidRequest(err.Error()))
				}
				pruned, err := history.Prune(db, days)
				if err != nil {
					return outputError(err)
				}
				return outputFormatted(&history.PruneOutput{Pruned: pruned}, c.String("format"))
			}

			builds, err := history.Recent(db, c.Int("limit"))
			if err != nil {
				return outputError(err)
			}
			return outputFormatted(&history.RecentOutput{Builds: builds}, c.String("format"))
		},
	}
}

// rebuildFunc returns a change callback that rebuilds the manifest and logs
// the result. Rebuild failures are logged, never fatal.
func rebuildFunc(db *sql.DB, root, out string) func([]string) {
	return func(_ []string) {
		output, err := catalog.Build(catalog.BuildInput{Root: root, Output: out})
		if err != nil {
			log.Printf("rebuild failed: %v", err)
			return
		}
		recordBuild(db, output)
		log.Printf("rebuilt %s: %d tools, %d skipped, %d failed", out, output.ToolsCount, output.Skipped, output.Failed)
	}
}

// recordBuild saves a build to history, best effort.
func recordBuild(db *sql.DB, output *catalog.BuildOutput) {
	if db == nil {
		return
	}
	if _, err := history.RecordBuild(db, output); err != nil {
		fmt.Fprintf(os.Stderr, "warning: failed to record build history: %v\n", err)
	}
}

// outputJSON marshals result to stdout as indented JSON.
func outputJSON(v any) error {
	enc := json.NewEncoder(os.Stdout)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}

// outputFormatted marshals result to stdout in the requested format.
func outputFormatted(v any, format string) error {
	switch format {
	case "", "json":
		return outputJSON(v)
	case "yaml":
		data, err := yaml.Marshal(v)
		if err != nil {
			return outputError(errors.NewInternal(err))
		}
		_, err = os.Stdout.Write(data)
		return err
	default:
		return outputError(errors.NewInvalidRequest(fmt.Sprintf("unknown format %q", format)))
	}
}

// outputError formats an error for CLI display.
func outputError(err error) error {
	var siteErr *errors.SiteError
	if stderrors.As(err, &siteErr) {
		return cli.Exit(fmt.Sprintf("[%s] %s", siteErr.Code, siteErr.Message), 1)
	}
	return cli.Exit(err.Error(), 1)
}

// parseDuration parses duration strings like "30d" into a day count.
func parseDuration(s string) (int, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return 0, fmt.Errorf("empty duration")
	}

	numStr, ok := strings.CutSuffix(s, "d")
	if !ok {
		return 0, fmt.Errorf("duration must end in 'd' (days), got %q", s)
	}

	days, err := strconv.Atoi(numStr)
	if err != nil {
		return 0, fmt.Errorf("invalid duration %q", s)
	}
	if days < 0 {
		return 0, fmt.Errorf("duration cannot be negative")
	}

	return days, nil
}
