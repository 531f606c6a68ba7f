package main

import (
	"context"
	"os"

	"github.com/vango-dev/routekit"
	"github.com/vango-dev/routekit/internal/config"
	rkerrors "github.com/vango-dev/routekit/internal/errors"
)

// loadConfig reads --config, or searches upward from the working
// directory. A project without a config file runs on defaults.
func loadConfig(flags *globalFlags) (*config.Config, error) {
	var (
		cfg *config.Config
		err error
	)
	if flags.config != "" {
		cfg, err = config.LoadFile(flags.config)
	} else {
		cfg, err = config.LoadFromWorkingDir()
		if rkerrors.Code(err) == "E006" {
			cfg, err = config.New(), nil
		}
	}
	if err != nil {
		return nil, err
	}

	if flags.manifest != "" {
		cfg.Manifest = flags.manifest
	}
	if flags.logLevel != "" {
		cfg.Log.Level = flags.logLevel
	}
	return cfg, nil
}

func loadApp(ctx context.Context, flags *globalFlags) (*routekit.App, error) {
	cfg, err := loadConfig(flags)
	if err != nil {
		return nil, err
	}
	return routekit.New(ctx, routekit.Options{
		Config:    cfg,
		Logger:    cfg.Logger(os.Stderr),
		StubHooks: true,
	})
}
