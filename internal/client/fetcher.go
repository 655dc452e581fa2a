package client

import (
	"context"
	"io"
	"time"

	"github.com/sirupsen/logrus"
	"go.uber.org/ratelimit"
	"resty.dev/v3"

	"piscinemarket/scraper/internal/config"
	"piscinemarket/scraper/internal/domain"
)

// Fetcher issues single GET requests against the catalog site.
type Fetcher interface {
	// Fetch returns the page body. It sleeps the configured delay after the
	// request completes and before returning.
	Fetch(ctx context.Context, url string) (string, error)
	// Download streams a binary asset into w without the page delay.
	Download(ctx context.Context, url string, w io.Writer) (int64, error)
}

type fetcher struct {
	rl         ratelimit.Limiter
	httpClient *resty.Client
	delay      time.Duration
	log        *logrus.Entry
}

func NewFetcher(cfg config.ScraperConfig, logger *logrus.Entry) Fetcher {
	client := resty.New().
		SetTimeout(cfg.Timeout).
		SetRetryCount(0).
		SetHeader("User-Agent", cfg.UserAgent)

	if cfg.ProxyURL != "" {
		client.SetProxy(cfg.ProxyURL)
		logger.Infof("🔗 Using proxy: %s", cfg.ProxyURL)
	}

	return &fetcher{
		rl:         ratelimit.New(cfg.MaxRequestsPerSecond),
		httpClient: client,
		delay:      cfg.RequestDelay,
		log:        logger,
	}
}

func (f *fetcher) Fetch(ctx context.Context, url string) (string, error) {
	f.rl.Take()

	f.log.Debugf("GET %s", url)
	resp, err := f.httpClient.R().
		SetContext(ctx).
		Get(url)

	// Throttle regardless of how fast or how badly the server answered.
	f.pause()

	if err != nil {
		return "", &domain.NetworkError{URL: url, Err: err}
	}

	if resp.IsError() {
		return "", &domain.NetworkError{URL: url, StatusCode: resp.StatusCode()}
	}

	return resp.String(), nil
}

func (f *fetcher) Download(ctx context.Context, url string, w io.Writer) (int64, error) {
	f.rl.Take()

	f.log.Debugf("GET %s (asset)", url)
	resp, err := f.httpClient.R().
		SetContext(ctx).
		SetDoNotParseResponse(true).
		Get(url)
	if err != nil {
		return 0, &domain.NetworkError{URL: url, Err: err}
	}
	defer resp.Body.Close()

	if resp.IsError() {
		return 0, &domain.NetworkError{URL: url, StatusCode: resp.StatusCode()}
	}

	n, err := io.Copy(w, resp.Body)
	if err != nil {
		return n, &domain.NetworkError{URL: url, Err: err}
	}

	return n, nil
}

func (f *fetcher) pause() {
	if f.delay > 0 {
		time.Sleep(f.delay)
	}
}
