package grab

import (
	"context"
	"encoding/json"
	"errors"
	"flag"
	"fmt"
	"io"
	"log/slog"
	"maps"
	"os"
	"slices"
	"time"

	"github.com/peterbourgon/ff/v3"
	"github.com/peterbourgon/ff/v3/ffcli"
	"github.com/shopspring/decimal"
	"golang.org/x/sync/errgroup"

	"github.com/sig-0/fxgrab/cmd/env"
	"github.com/sig-0/fxgrab/grabber"
	"github.com/sig-0/fxgrab/grabber/banks"
	"github.com/sig-0/fxgrab/server/config"
	"github.com/sig-0/fxgrab/storage/memory"
	"github.com/sig-0/fxgrab/storage/types"
)

var errGrabFailed = errors.New("one or more banks failed")

// grabCfg wraps the grab configuration
type grabCfg struct {
	out    io.Writer
	logger *slog.Logger

	configPath  string
	timeout     time.Duration
	insecureTLS bool
}

// bankResult is the outcome of a single bank grab
type bankResult struct {
	Bank  string        `json:"bank"`
	Kind  string        `json:"kind"`
	Error string        `json:"error,omitempty"`
	Rates []grabbedRate `json:"rates,omitempty"`
}

// grabbedRate is a single validated rate
type grabbedRate struct {
	Currency types.Currency  `json:"currency"`
	Check    string          `json:"check"`
	Buy      decimal.Decimal `json:"buy"`
	Sale     decimal.Decimal `json:"sale"`
	ID       int64           `json:"id"`
}

// NewGrabCmd creates the grab command
func NewGrabCmd() *ffcli.Command {
	cfg := &grabCfg{
		out:    os.Stdout,
		logger: slog.New(slog.NewTextHandler(os.Stderr, nil)),
	}

	fs := flag.NewFlagSet("grab", flag.ExitOnError)
	cfg.registerFlags(fs)

	return &ffcli.Command{
		Name:       "grab",
		ShortUsage: "grab [flags] [<bank>...]",
		LongHelp:   "Grabs the given banks once (all configured banks if none), and prints the validated rates",
		FlagSet:    fs,
		Exec:       cfg.exec,
		Options: []ff.Option{
			// Allow using ENV variables
			ff.WithEnvVars(),
			ff.WithEnvVarPrefix(env.Prefix),
		},
	}
}

func (c *grabCfg) registerFlags(fs *flag.FlagSet) {
	fs.StringVar(
		&c.configPath,
		"config",
		"",
		"the path to the TOML configuration, if any",
	)

	fs.DurationVar(
		&c.timeout,
		"timeout",
		time.Minute,
		"the overall grab timeout",
	)

	fs.BoolVar(
		&c.insecureTLS,
		"insecure-tls",
		false,
		"skip TLS verification of bank pages",
	)
}

func (c *grabCfg) exec(ctx context.Context, args []string) error {
	cfg := config.DefaultConfig()

	// Read the configuration, if any
	if c.configPath != "" {
		fileCfg, err := config.Read(c.configPath)
		if err != nil {
			return fmt.Errorf("unable to read config, %w", err)
		}

		cfg = fileCfg
	}

	if err := config.ValidateConfig(cfg); err != nil {
		return fmt.Errorf("invalid configuration, %w", err)
	}

	names := args
	if len(names) == 0 {
		for _, bank := range cfg.Banks {
			names = append(names, bank.Name)
		}
	}

	// Seed the reference and metadata from the config
	store := memory.NewStorage(
		memory.WithCurrencies(cfg.CurrencyInfos()),
		memory.WithGrabbers(cfg.GrabberInfos()),
	)

	var fetcherOpts []grabber.FetcherOption
	if c.insecureTLS {
		fetcherOpts = append(fetcherOpts, grabber.WithInsecureTLS())
	}

	registry := grabber.NewRegistry(
		store,
		store,
		grabber.WithFetcher(grabber.NewFetcher(fetcherOpts...)),
	)

	banks.Register(registry)

	grabCtx, cancelFn := context.WithTimeout(ctx, c.timeout)
	defer cancelFn()

	var (
		results = make([]bankResult, len(names))
		group   errgroup.Group
	)

	for i, name := range names {
		group.Go(func() error {
			results[i] = c.grabBank(grabCtx, registry, name)

			return nil
		})
	}

	_ = group.Wait() //nolint:errcheck // Workers don't fail

	encoder := json.NewEncoder(c.out)
	encoder.SetIndent("", "  ")

	if err := encoder.Encode(results); err != nil {
		return fmt.Errorf("unable to write results: %w", err)
	}

	for _, result := range results {
		if result.Kind != grabber.KindNone {
			return errGrabFailed
		}
	}

	return nil
}

// grabBank grabs a single bank, using a freshly resolved strategy
func (c *grabCfg) grabBank(
	ctx context.Context,
	registry *grabber.Registry,
	name string,
) bankResult {
	result := bankResult{
		Bank: name,
	}

	rates, err := grab(ctx, registry, name)

	result.Kind = grabber.Kind(err)
	if err != nil {
		c.logger.Error(
			"unable to grab bank",
			"bank", name,
			"kind", result.Kind,
			"err", err,
		)

		result.Error = err.Error()

		return result
	}

	for _, id := range slices.Sorted(maps.Keys(rates)) {
		currency, _, err := registry.Table().Currency(ctx, id)
		if err != nil {
			result.Kind = grabber.Kind(err)
			result.Error = err.Error()

			return result
		}

		rate := rates[id]

		result.Rates = append(result.Rates, grabbedRate{
			ID:       id,
			Currency: currency.Code,
			Check:    rate.Check,
			Buy:      rate.Buy,
			Sale:     rate.Sale,
		})
	}

	return result
}

func grab(ctx context.Context, registry *grabber.Registry, name string) (grabber.Rates, error) {
	strategy, err := registry.Resolve(ctx, name)
	if err != nil {
		return nil, err
	}

	return strategy.Grab(ctx)
}
