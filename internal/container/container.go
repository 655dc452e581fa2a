package container

import (
	"context"
	"errors"
	"fmt"
	"io"
	"path/filepath"

	"github.com/sirupsen/logrus"

	"piscinemarket/scraper/internal/assets"
	"piscinemarket/scraper/internal/client"
	"piscinemarket/scraper/internal/config"
	"piscinemarket/scraper/internal/logging"
	"piscinemarket/scraper/internal/service"
	"piscinemarket/scraper/internal/storage"
)

// Container holds all initialized components
type Container struct {
	Config  *config.Config
	Logger  *logrus.Logger
	Fetcher client.Fetcher
	Client  client.MarketClient
	Store   *storage.Store

	Service *service.Service

	logFile io.Closer
}

// New creates a new container with all dependencies initialized
func New(ctx context.Context, cfg *config.Config) (*Container, error) {
	logger, logFile, err := logging.New(cfg.Log)
	if err != nil {
		return nil, fmt.Errorf("failed to initialize logger: %w", err)
	}

	container := &Container{
		Config:  cfg,
		Logger:  logger,
		logFile: logFile,
	}

	store, err := storage.Open(ctx, cfg.Storage)
	if err != nil {
		_ = logFile.Close()
		return nil, fmt.Errorf("failed to open %s storage: %w", cfg.Storage.Backend, err)
	}
	container.Store = store
	logger.Infof("✅ Storage ready (%s backend)", cfg.Storage.Backend)

	fetcher := client.NewFetcher(cfg.Scraper, logger.WithField("component", "fetcher"))
	container.Fetcher = fetcher

	marketClient, err := client.NewMarketClient(fetcher, cfg.Scraper.BaseURL, logger.WithField("component", "client"))
	if err != nil {
		_ = container.Close()
		return nil, err
	}
	container.Client = marketClient

	downloader := assets.NewDownloader(fetcher, cfg.Storage.OutputDir, logger.WithField("component", "assets"))

	container.Service = service.NewService(
		marketClient,
		downloader,
		store.Subcategories,
		store.Products,
		cfg.Scraper.CategoryURL(),
		service.Folders{
			SubcategoryImages: cfg.Assets.SubcategoryImagesDir,
			Thumbnails:        cfg.Assets.ThumbnailsDir,
			ProductImages:     cfg.Assets.ProductImagesDir,
		},
		logger.WithField("component", "service"),
	)

	return container, nil
}

// Run executes one crawl
func (c *Container) Run(ctx context.Context) error {
	c.Logger.Infof("🔄 Crawling %s into %s", c.Config.Scraper.CategoryURL(), filepath.Clean(c.Config.Storage.OutputDir))

	_, err := c.Service.Run(ctx)
	return err
}

// Close performs cleanup when shutting down
func (c *Container) Close() error {
	var errs []error
	if c.Store != nil {
		if err := c.Store.Close(); err != nil {
			errs = append(errs, fmt.Errorf("failed to close storage: %w", err))
		}
	}
	if c.logFile != nil {
		if err := c.logFile.Close(); err != nil {
			errs = append(errs, fmt.Errorf("failed to close log file: %w", err))
		}
	}
	return errors.Join(errs...)
}
