package main

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"sync"

	"github.com/dss-visualizer/backend/internal/chart"
	"github.com/dss-visualizer/backend/internal/config"
	"github.com/dss-visualizer/backend/internal/convert"
	"github.com/dss-visualizer/backend/internal/dss"
	"github.com/dss-visualizer/backend/internal/logging"
	"github.com/dss-visualizer/backend/internal/stats"
	"github.com/dss-visualizer/backend/internal/storage"
	"github.com/labstack/gommon/log"
)

type commandContext struct {
	configFlag *string

	configOnce sync.Once
	configPath string
	config     *config.AppConfig
	configErr  error
}

func newCommandContext(configFlag *string) *commandContext {
	return &commandContext{configFlag: configFlag}
}

func (c *commandContext) ensureConfig() (*config.AppConfig, error) {
	c.configOnce.Do(func() {
		path, err := c.resolveConfigPath()
		if err != nil {
			c.configErr = err
			return
		}
		cfg, err := config.Load(path)
		if err != nil {
			c.configErr = err
			return
		}
		if err := cfg.EnsureDirectories(); err != nil {
			c.configErr = err
			return
		}
		c.configPath = path
		c.config = cfg
	})
	return c.config, c.configErr
}

func (c *commandContext) resolveConfigPath() (string, error) {
	if c.configFlag != nil {
		if path := strings.TrimSpace(*c.configFlag); path != "" {
			return path, nil
		}
	}
	exePath, err := os.Executable()
	if err != nil {
		return "", fmt.Errorf("failed to get executable path: %w", err)
	}
	return filepath.Join(filepath.Dir(exePath), config.DefaultFileName), nil
}

func (c *commandContext) logger(component string) *log.Logger {
	cfg := c.config
	if cfg == nil {
		return logging.Discard(component)
	}
	return logging.New(component, logging.Options{Level: cfg.Log.Level, Format: cfg.Log.Format})
}

type stores struct {
	uploads *storage.LocalStore
	exports *storage.LocalStore
}

func (c *commandContext) openStores() (*stores, error) {
	uploads, err := storage.NewLocalStore(c.config.UploadDir())
	if err != nil {
		return nil, fmt.Errorf("failed to initialize uploads: %w", err)
	}
	exports, err := storage.NewLocalStore(c.config.ExportDir())
	if err != nil {
		return nil, fmt.Errorf("failed to initialize exports: %w", err)
	}
	return &stores{uploads: uploads, exports: exports}, nil
}

var newDecoder = func(cfg *config.AppConfig) dss.Decoder {
	return dss.NewCLI(
		dss.WithBinary(cfg.Decoder.Binary),
		dss.WithFormat(cfg.Decoder.Format),
		dss.WithTimeout(cfg.DecoderTimeout()),
	)
}

// newConverter wires the decoder, renderer and summarizer from the loaded config.
func (c *commandContext) newConverter(exports storage.Store) (*convert.Converter, error) {
	cfg := c.config
	decoder := newDecoder(cfg)
	renderer, err := chart.NewGoChart(cfg.Chart.FontPath)
	if err != nil {
		return nil, err
	}
	return convert.New(decoder, renderer, exports, stats.NewDuckSummarizer(1), c.logger("Convert")), nil
}
