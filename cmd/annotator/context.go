package main

import (
	"errors"
	"log/slog"
	"strings"
	"sync"

	"github.com/spf13/cobra"

	"annotator/internal/annotations"
	"annotator/internal/config"
	"annotator/internal/dataset"
	"annotator/internal/generate"
	"annotator/internal/logging"
	"annotator/internal/media/framecache"
	"annotator/internal/preflight"
	"annotator/internal/prompts"
	"annotator/internal/services/llm"
)

type commandContext struct {
	configFlag  *string
	datasetFlag *string
	jsonFlag    *bool

	configOnce   sync.Once
	config       *config.Config
	configPath   string
	configExists bool
	configErr    error

	loggerOnce sync.Once
	logger     *slog.Logger
}

func newCommandContext(configFlag, datasetFlag *string, jsonFlag *bool) *commandContext {
	return &commandContext{
		configFlag:  configFlag,
		datasetFlag: datasetFlag,
		jsonFlag:    jsonFlag,
	}
}

func (c *commandContext) ensureConfig() (*config.Config, error) {
	c.configOnce.Do(func() {
		var path string
		if c.configFlag != nil {
			path = strings.TrimSpace(*c.configFlag)
		}
		cfg, resolved, exists, err := config.Load(path)
		if err != nil {
			c.configErr = err
			return
		}
		if err := cfg.EnsureDirectories(); err != nil {
			c.configErr = err
			return
		}
		c.config = cfg
		c.configPath = resolved
		c.configExists = exists
	})
	return c.config, c.configErr
}

func (c *commandContext) jsonOutput() bool {
	return c.jsonFlag != nil && *c.jsonFlag
}

func (c *commandContext) loggerValue() *slog.Logger {
	c.loggerOnce.Do(func() {
		cfg, err := c.ensureConfig()
		if err != nil {
			c.logger = logging.NewNop()
			return
		}
		logger, err := logging.NewFromConfig(cfg)
		if err != nil {
			c.logger = logging.NewNop()
			return
		}
		c.logger = logger
	})
	return c.logger
}

func (c *commandContext) datasetRoot() (string, error) {
	if c.datasetFlag != nil {
		if root := strings.TrimSpace(*c.datasetFlag); root != "" {
			return config.ExpandPath(root)
		}
	}
	cfg, err := c.ensureConfig()
	if err != nil {
		return "", err
	}
	if cfg.Dataset.Root == "" {
		return "", errors.New("no dataset selected: pass --dataset or set dataset.root in the config")
	}
	return cfg.Dataset.Root, nil
}

// loadDataset opens the selected dataset into a fresh manager.
func (c *commandContext) loadDataset() (*dataset.Manager, *dataset.Dataset, error) {
	cfg, err := c.ensureConfig()
	if err != nil {
		return nil, nil, err
	}
	root, err := c.datasetRoot()
	if err != nil {
		return nil, nil, err
	}
	manager := dataset.NewManager(dataset.WithDefaultFPS(cfg.Dataset.DefaultFPS))
	ds, err := manager.Load(root)
	if err != nil {
		return nil, nil, err
	}
	return manager, ds, nil
}

func (c *commandContext) openStore(ds *dataset.Dataset) (*annotations.Store, error) {
	cfg, err := c.ensureConfig()
	if err != nil {
		return nil, err
	}
	return annotations.Open(cfg.AnnotationsPath(ds.Root()), annotations.WithLogger(c.loggerValue()))
}

func (c *commandContext) frameCache() (*framecache.Cache, error) {
	cfg, err := c.ensureConfig()
	if err != nil {
		return nil, err
	}
	return framecache.New(cfg.Paths.CacheDir,
		framecache.WithFFmpegBinary(cfg.Media.FFmpegBinary),
		framecache.WithMaxSide(cfg.Media.ImageMaxSide),
		framecache.WithLogger(c.loggerValue()),
	)
}

func (c *commandContext) promptStore() (*prompts.Store, error) {
	cfg, err := c.ensureConfig()
	if err != nil {
		return nil, err
	}
	return prompts.NewStore(cfg.Paths.PromptsDir), nil
}

// generationService wires every collaborator a generate command needs.
func (c *commandContext) generationService() (*generate.Service, error) {
	cfg, err := c.ensureConfig()
	if err != nil {
		return nil, err
	}
	manager, ds, err := c.loadDataset()
	if err != nil {
		return nil, err
	}
	store, err := c.openStore(ds)
	if err != nil {
		return nil, err
	}
	cache, err := c.frameCache()
	if err != nil {
		return nil, err
	}
	promptStore, err := c.promptStore()
	if err != nil {
		return nil, err
	}
	svc := generate.NewService(cfg, generate.Deps{
		Resolver: manager,
		Media:    cache,
		Chat:     llm.NewClient(preflight.ClientConfig(cfg)),
		Store:    store,
		Prompts:  promptStore,
		Logger:   c.loggerValue(),
	})
	return svc, nil
}

func shouldSkipConfig(cmd *cobra.Command) bool {
	for c := cmd; c != nil; c = c.Parent() {
		if c.Annotations != nil && c.Annotations["skipConfigLoad"] == "true" {
			return true
		}
	}
	return false
}

func yesNo(value bool) string {
	if value {
		return "yes"
	}
	return "no"
}
