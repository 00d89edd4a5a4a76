package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"strings"
	"sync"
	"time"

	"overlay-studio/internal/platform/config"
	"overlay-studio/internal/platform/logger"
	"overlay-studio/internal/studio"

	"github.com/spf13/cobra"
)

// cli carries the state shared by every subcommand.
type cli struct {
	apiURL   string
	timeout  time.Duration
	output   string
	logLevel string

	log    *slog.Logger
	client *studio.Client
}

func newRootCmd() *cobra.Command {
	c := &cli{}

	root := &cobra.Command{
		Use:          "overlayctl",
		Short:        "Manage stream overlays on an overlay server",
		SilenceUsage: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			switch c.output {
			case outputText, outputJSON, outputYAML:
			default:
				return fmt.Errorf("unknown output format %q", c.output)
			}
			c.log = logger.NewWithWriter(cmd.ErrOrStderr(), c.logLevel, "text")
			c.client = studio.NewClient(c.apiURL, &http.Client{Timeout: c.timeout})
			return nil
		},
	}

	flags := root.PersistentFlags()
	flags.StringVar(&c.apiURL, "api", config.GetEnv("OVERLAY_API_URL", studio.DefaultAPIURL), "overlay server base URL")
	flags.DurationVar(&c.timeout, "timeout", config.GetEnvDuration("OVERLAY_API_TIMEOUT", studio.DefaultTimeout), "per-request timeout")
	flags.StringVarP(&c.output, "output", "o", outputText, "output format: text, json or yaml")
	flags.StringVar(&c.logLevel, "log-level", config.GetEnv("LOG_LEVEL", "warn"), "log level written to stderr")

	root.AddCommand(
		c.listCmd(),
		c.addCmd(),
		c.updateCmd(),
		c.moveCmd(),
		c.resizeCmd(),
		c.removeCmd(),
		c.configCmd(),
		c.healthCmd(),
		c.probeCmd(),
	)
	return root
}

// session is a Store bound to the server plus the failures it reported.
type session struct {
	store *studio.Store

	mu       sync.Mutex
	failures []studio.Notification
}

// openSession loads the current collection. A failed load is fatal since
// every command acts on it.
func (c *cli) openSession(ctx context.Context) (*session, error) {
	s := &session{store: studio.NewStore(c.client, studio.WithLogger(c.log))}
	s.store.Subscribe(func(ev studio.Event) {
		if ev.Kind != studio.Notified || !ev.Notification.Kind.Failure() {
			return
		}
		s.mu.Lock()
		defer s.mu.Unlock()
		s.failures = append(s.failures, *ev.Notification)
	})
	if err := s.store.Refresh(ctx); err != nil {
		return nil, describe(err)
	}
	return s, nil
}

// err folds the failures raised since the session opened into one error.
func (s *session) err() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if len(s.failures) == 0 {
		return nil
	}
	msgs := make([]string, 0, len(s.failures))
	for _, n := range s.failures {
		msg := n.Description
		if n.Err != nil {
			msg += ": " + describe(n.Err).Error()
		}
		msgs = append(msgs, msg)
	}
	return errors.New(strings.Join(msgs, "; "))
}

// describe expands an APIError into its detailed form.
func describe(err error) error {
	var apiErr *studio.APIError
	if errors.As(err, &apiErr) {
		return errors.New(apiErr.Detail())
	}
	return err
}
