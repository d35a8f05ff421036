package serve

import (
	"context"
	"flag"
	"fmt"

	"github.com/peterbourgon/ff/v3"
	"github.com/peterbourgon/ff/v3/ffcli"

	"github.com/sig-0/fxgrab/cmd/env"
	"github.com/sig-0/fxgrab/grabber"
	"github.com/sig-0/fxgrab/server/config"
)

// serveCfg wraps the serve configuration
type serveCfg struct {
	config *config.Config

	configPath  string
	insecureTLS bool
}

// NewServeCmd creates the serve subcommand
func NewServeCmd() *ffcli.Command {
	cfg := &serveCfg{
		config: config.DefaultConfig(),
	}

	fs := flag.NewFlagSet("serve", flag.ExitOnError)
	cfg.registerFlags(fs)

	cmd := &ffcli.Command{
		Name:       "serve",
		ShortUsage: "serve <subcommand> [flags]",
		LongHelp:   "Serves the fxgrab API, and grabs the configured banks",
		FlagSet:    fs,
		Exec: func(_ context.Context, _ []string) error {
			return flag.ErrHelp
		},
		Options: []ff.Option{
			// Allow using ENV variables
			ff.WithEnvVars(),
			ff.WithEnvVarPrefix(env.Prefix),
		},
	}

	cmd.Subcommands = []*ffcli.Command{
		newServeSQLCmd(cfg),
		newServeMemoryCmd(cfg),
	}

	return cmd
}

func (c *serveCfg) registerFlags(fs *flag.FlagSet) {
	fs.StringVar(
		&c.config.ListenAddress,
		"listen",
		config.DefaultListenAddress,
		"the IP:PORT URL for the server",
	)

	fs.StringVar(
		&c.configPath,
		"config",
		"",
		"the path to the server TOML configuration, if any",
	)

	fs.BoolVar(
		&c.insecureTLS,
		"insecure-tls",
		false,
		"skip TLS verification of bank pages",
	)
}

// fetcherOptions returns the bank page fetcher options
func (c *serveCfg) fetcherOptions() []grabber.FetcherOption {
	if !c.insecureTLS {
		return nil
	}

	return []grabber.FetcherOption{grabber.WithInsecureTLS()}
}

// loadConfig reads the configuration file, if any
func (c *serveCfg) loadConfig() error {
	if c.configPath == "" {
		return nil
	}

	serverCfg, err := config.Read(c.configPath)
	if err != nil {
		return fmt.Errorf("unable to read server config, %w", err)
	}

	// The listen flag takes precedence over the file,
	// if set to something else than the default
	if c.config.ListenAddress != config.DefaultListenAddress {
		serverCfg.ListenAddress = c.config.ListenAddress
	}

	c.config = serverCfg

	return nil
}
