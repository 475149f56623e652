package main

import (
	"amfilter/internal/datefilter"
	"amfilter/internal/unpacker"

	"go.uber.org/zap"
)

type latestDateCommand struct {
	app *app
}

func (c *latestDateCommand) Execute(args []string) error {
	err := noArguments("latest-date", args)
	if err != nil {
		return err
	}

	logger := c.app.logger()
	defer logger.Sync() //nolint:errcheck

	cfg, err := c.app.loadConfig(logger)
	if err != nil {
		return err
	}

	err = cfg.Validate()
	if err != nil {
		return err
	}

	filter := datefilter.New(c.app.stderr, logger,
		datefilter.WithClock(c.app.now),
		datefilter.WithLayout(cfg.Dates.OutputLayout))

	return filter.Run(c.app.stdin, c.app.stdout)
}

type unpackMediaCommand struct {
	MediaRoot     string `long:"media-root" env:"AMFILTER_MEDIA_ROOT" description:"Directory holding the rendition files"`
	MinSize       *int64 `long:"min-size" description:"Smallest accepted file size in bytes"`
	MaxSize       *int64 `long:"max-size" description:"Largest accepted file size in bytes"`
	Strategy      string `long:"strategy" choice:"top_only" choice:"first_match" description:"Which renditions to try, largest first"`
	SkipMalformed bool   `long:"skip-malformed" description:"Report malformed records and continue instead of stopping"`

	app *app
}

func (c *unpackMediaCommand) Execute(args []string) error {
	err := noArguments("unpack-media", args)
	if err != nil {
		return err
	}

	logger := c.app.logger()
	defer logger.Sync() //nolint:errcheck

	cfg, err := c.app.loadConfig(logger)
	if err != nil {
		return err
	}

	if c.MediaRoot != "" {
		cfg.Media.MediaRoot = c.MediaRoot
	}

	if c.MinSize != nil {
		cfg.Media.MinSize = *c.MinSize
	}

	if c.MaxSize != nil {
		cfg.Media.MaxSize = *c.MaxSize
	}

	if c.Strategy != "" {
		cfg.Media.Strategy = c.Strategy
	}

	if c.SkipMalformed {
		cfg.Media.SkipMalformed = true
	}

	err = cfg.Validate()
	if err != nil {
		return err
	}

	logger.Debug("Unpacking media records",
		zap.String("media_root", cfg.Media.MediaRoot),
		zap.Int64("min_size", cfg.Media.MinSize),
		zap.Int64("max_size", cfg.Media.MaxSize),
		zap.String("strategy", cfg.Media.Strategy))

	u, err := unpacker.New(cfg.Media, c.app.oracle, c.app.stdout, c.app.stderr, logger)
	if err != nil {
		return err
	}

	return u.Process(c.app.stdin)
}
