// Package cli implements the protsearch command line client.
package cli

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/cockroachdb/errors"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/kailas-cloud/protsearch"
	"github.com/kailas-cloud/protsearch/internal/logger"
)

// Config keys shared by flags, environment and the config file.
const (
	keyUpstream = "upstream"
	keyTimeout  = "timeout"
	keyRedis    = "redis"
	keyConfig   = "config"
	keyLogLevel = "log-level"

	envPrefix = "PROTSEARCH"
)

// client is what the commands need from the SDK.
type client interface {
	Search(ctx context.Context, p protsearch.Params) ([]protsearch.Row, error)
	Suggest(ctx context.Context, q string) (protsearch.Suggestions, error)
	NewSession(opts protsearch.SessionOptions) *protsearch.Session
	Close()
}

// clientFactory builds a client from the resolved settings.
type clientFactory func(v *viper.Viper) (client, error)

// app carries state shared by the subcommands.
type app struct {
	v         *viper.Viper
	newClient clientFactory
}

// NewRootCmd creates the protsearch-cli root command with all subcommands attached.
func NewRootCmd() *cobra.Command {
	return newRootCmd(defaultClient)
}

func newRootCmd(factory clientFactory) *cobra.Command {
	a := &app{v: viper.New(), newClient: factory}

	cmd := &cobra.Command{
		Use:   "protsearch-cli",
		Short: "Search proteins and genes from the terminal",
		Long: `protsearch-cli queries the protein and gene search service.

Settings come from flags, PROTSEARCH_* environment variables or a YAML config
file (./protsearch.yaml or ~/.config/protsearch/config.yaml), in that order.`,
		SilenceUsage: true,
		PersistentPreRunE: func(cmd *cobra.Command, _ []string) error {
			return a.initConfig(cmd)
		},
	}

	flags := cmd.PersistentFlags()
	flags.String(keyUpstream, "http://localhost:8000", "search service base URL")
	flags.Duration(keyTimeout, 15*time.Second, "per-request timeout")
	flags.String(keyRedis, "", "cache responses in Redis or Valkey at this address")
	flags.String(keyConfig, "", "config file")
	flags.String(keyLogLevel, "", "log to stderr at this level: debug, info, warn, error")

	cmd.AddCommand(
		NewSearchCmd(a),
		NewSuggestCmd(a),
		NewInteractiveCmd(a),
		NewVersionCmd(),
	)
	return cmd
}

func (a *app) initConfig(cmd *cobra.Command) error {
	if err := a.v.BindPFlags(cmd.Flags()); err != nil {
		return errors.Wrap(err, "bind flags")
	}
	a.v.SetEnvPrefix(envPrefix)
	a.v.SetEnvKeyReplacer(strings.NewReplacer("-", "_"))
	a.v.AutomaticEnv()

	if cfgFile := a.v.GetString(keyConfig); cfgFile != "" {
		a.v.SetConfigFile(cfgFile)
	} else {
		a.v.SetConfigName("protsearch")
		a.v.SetConfigType("yaml")
		a.v.AddConfigPath(".")
		if home, err := os.UserHomeDir(); err == nil {
			a.v.AddConfigPath(filepath.Join(home, ".config", "protsearch"))
		}
	}

	if err := a.v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if errors.As(err, &notFound) {
			return nil
		}
		return errors.WithHint(errors.Wrap(err, "read config"),
			"check the file passed to --config")
	}
	return nil
}

func defaultClient(v *viper.Viper) (client, error) {
	opts := []protsearch.Option{
		protsearch.WithBaseURL(v.GetString(keyUpstream)),
		protsearch.WithTimeout(v.GetDuration(keyTimeout)),
	}
	if level := v.GetString(keyLogLevel); level != "" {
		l, err := logger.NewLogger("local", "protsearch-cli", level)
		if err != nil {
			return nil, errors.WithHint(errors.Wrap(err, "create logger"),
				fmt.Sprintf("--%s accepts debug, info, warn or error", keyLogLevel))
		}
		opts = append(opts, protsearch.WithLogger(l))
	}
	if addr := v.GetString(keyRedis); addr != "" {
		opts = append(opts, protsearch.WithRedis(addr, os.Getenv(envPrefix+"_REDIS_PASSWORD")))
	}

	c, err := protsearch.New(opts...)
	if err != nil {
		return nil, errors.WithHint(errors.Wrap(err, "create client"),
			fmt.Sprintf("set --%s or %s_UPSTREAM to the search service URL", keyUpstream, envPrefix))
	}
	return c, nil
}

// explain attaches a user-facing hint to well-known failures.
func explain(err error, upstreamURL string) error {
	switch {
	case errors.Is(err, protsearch.ErrInvalidParams):
		return errors.WithHint(err, "k must be a positive number no larger than the service limit")
	case errors.Is(err, protsearch.ErrUpstreamUnavailable):
		return errors.WithHintf(err, "is the search service running at %s?", upstreamURL)
	case errors.Is(err, protsearch.ErrUpstreamStatus), errors.Is(err, protsearch.ErrUpstreamResponse):
		return errors.WithHint(err, "the search service answered with an error; try again later")
	default:
		return err
	}
}

// FormatError renders err with its hints for the terminal.
func FormatError(err error) string {
	var b strings.Builder
	b.WriteString("Error: ")
	b.WriteString(err.Error())
	for _, h := range errors.GetAllHints(err) {
		b.WriteString("\nHint: ")
		b.WriteString(h)
	}
	return b.String()
}
