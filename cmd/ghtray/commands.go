package main

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/marcin-skalski/ghtray/internal/avatar"
	"github.com/marcin-skalski/ghtray/internal/config"
	"github.com/marcin-skalski/ghtray/internal/daemon"
	"github.com/marcin-skalski/ghtray/internal/github"
	"github.com/marcin-skalski/ghtray/internal/logging"
	"github.com/marcin-skalski/ghtray/internal/notify"
	"github.com/marcin-skalski/ghtray/internal/state"
	"github.com/marcin-skalski/ghtray/internal/tui"
	"github.com/mattn/go-isatty"
	"github.com/urfave/cli/v2"
)

func loadConfig(c *cli.Context) (*config.Config, error) {
	path := c.String("config")
	if path == "" {
		path = filepath.Join(config.DefaultDataDir(), "config.yaml")
	}
	cfg, err := config.Load(path)
	if err != nil {
		return nil, err
	}
	if c.Bool("demo") {
		cfg.Demo = true
	}
	return cfg, nil
}

// build wires the poller for cfg. The returned store must be closed by the caller.
func build(ctx context.Context, cfg *config.Config, logger *slog.Logger) (*daemon.Daemon, state.Store, error) {
	cache := avatar.NewCache(cfg.Avatars.Dir, logger)

	var (
		source  github.Source
		avatars daemon.AvatarFiller
	)
	if cfg.Demo {
		source = github.DemoFixture(time.Now())
		avatars = avatar.NewIdenticonGenerator(cache)
	} else {
		source = github.NewClient(logger)
		avatars = avatar.NewDownloader(cache, cfg.Avatars.URLTemplate, cfg.Avatars.Timeout)
	}

	store, err := state.Open(ctx, cfg.State.Driver, cfg.State.Path)
	if err != nil {
		return nil, nil, fmt.Errorf("open state: %w", err)
	}

	sinks := []notify.Sink{notify.NewLogSink(logger)}
	if cfg.Notifications.Slack.WebhookURL != "" {
		sinks = append(sinks, notify.NewSlackSink(cfg.Notifications.Slack.WebhookURL))
	}
	if cfg.Notifications.Telegram.Token != "" {
		sinks = append(sinks, notify.NewTelegramSink(cfg.Notifications.Telegram.Token, cfg.Notifications.Telegram.ChatID))
	}
	notifier := notify.NewNotifier(logger, cfg.NotificationSound(), sinks...)
	for _, s := range notifier.Sinks() {
		logger.Debug("notification sink enabled", "sink", s.Name())
	}

	return daemon.New(cfg, source, store, avatars, cache, notifier, logger), store, nil
}

func runAction(c *cli.Context) error {
	cfg, err := loadConfig(c)
	if err != nil {
		return err
	}

	enableTUI := !c.Bool("no-tui") &&
		isatty.IsTerminal(os.Stdin.Fd()) && isatty.IsTerminal(os.Stdout.Fd())

	logger, err := logging.SetupLogger(cfg.LogFile, cfg.Log.Level, enableTUI)
	if err != nil {
		return fmt.Errorf("setup logger: %w", err)
	}
	defer logging.CloseFile()

	ctx, stop := signal.NotifyContext(c.Context, syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	d, store, err := build(ctx, cfg, logger)
	if err != nil {
		return err
	}
	defer store.Close()

	if !enableTUI {
		logger.Info("ghtray starting (headless)", "config", c.String("config"))
		return d.Run(ctx)
	}

	runCtx, cancel := context.WithCancel(ctx)
	defer cancel()

	done := make(chan error, 1)
	go func() {
		logger.Info("ghtray poller starting in background")
		done <- d.Run(runCtx)
	}()

	p := tea.NewProgram(tui.NewModel(d, cfg.TUI.RefreshInterval), tea.WithAltScreen(), tea.WithContext(ctx))
	if _, err := p.Run(); err != nil && ctx.Err() == nil {
		return fmt.Errorf("tui: %w", err)
	}

	cancel()
	return <-done
}

func onceCommand() *cli.Command {
	return &cli.Command{
		Name:  "once",
		Usage: "Run a single poll cycle and print the buckets",
		Action: func(c *cli.Context) error {
			cfg, err := loadConfig(c)
			if err != nil {
				return err
			}
			lvl := logging.ParseLevel(cfg.Log.Level)
			logger := slog.New(logging.NewConsoleHandler(os.Stderr, lvl))

			d, store, err := build(c.Context, cfg, logger)
			if err != nil {
				return err
			}
			defer store.Close()

			if err := d.RunOnce(c.Context); err != nil {
				return err
			}
			printSnapshot(c.App.Writer, d.GetSnapshot())
			return nil
		},
	}
}

func printSnapshot(w io.Writer, snap tui.Snapshot) {
	if snap.Total == 0 {
		fmt.Fprintln(w, "No pull requests")
		return
	}
	for _, b := range snap.Buckets {
		if len(b.Items) == 0 {
			continue
		}
		fmt.Fprintf(w, "%s (%d)\n", b.Bucket.Label(), len(b.Items))
		for _, it := range b.Items {
			fmt.Fprintf(w, "  #%d %s (%s) %s\n", it.Number, it.Title, it.Repo, it.URL)
		}
	}
	fmt.Fprintf(w, "badge: %d\n", snap.Badge)
}

func identiconCommand() *cli.Command {
	return &cli.Command{
		Name:      "identicon",
		Usage:     "Write the identicon PNG for a login",
		ArgsUsage: "LOGIN",
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:    "out",
				Aliases: []string{"o"},
				Usage:   "Write to `FILE` (default: LOGIN.png)",
			},
		},
		Action: func(c *cli.Context) error {
			login := c.Args().First()
			if login == "" {
				return cli.Exit("identicon: LOGIN is required", 2)
			}
			data, err := avatar.GenerateIdenticon(login)
			if err != nil {
				return err
			}
			out := c.String("out")
			if out == "" {
				out = login + ".png"
			}
			if err := os.WriteFile(out, data, 0o644); err != nil {
				return fmt.Errorf("write identicon: %w", err)
			}
			fmt.Fprintln(c.App.Writer, out)
			return nil
		},
	}
}

func statusCommand() *cli.Command {
	return &cli.Command{
		Name:  "status",
		Usage: "Check that the gh CLI is installed and authenticated",
		Action: func(c *cli.Context) error {
			client := github.NewClient(logging.Discard())
			st := client.CheckStatus(c.Context)
			if st.Kind != github.StatusOK {
				return cli.Exit(st.Hint(), 1)
			}
			login, err := client.Viewer(c.Context)
			if err != nil {
				return err
			}
			fmt.Fprintf(c.App.Writer, "gh %s: authenticated as %s\n", github.ResolveBinary(), login)
			return nil
		},
	}
}
