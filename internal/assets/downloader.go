package assets

import (
	"context"
	"fmt"
	"net/url"
	"os"
	"path"
	"path/filepath"
	"strings"
	"unicode"

	"github.com/sirupsen/logrus"

	"piscinemarket/scraper/internal/client"
)

// Downloader saves images referenced by scraped pages.
type Downloader interface {
	// Download fetches url into folder and returns the written filename.
	// When ext is empty the extension of the URL's last path segment is used.
	Download(ctx context.Context, url, folder, baseName, ext string) (string, error)
}

type downloader struct {
	fetcher client.Fetcher
	root    string
	log     *logrus.Entry
}

// NewDownloader returns a Downloader writing below root.
func NewDownloader(fetcher client.Fetcher, root string, logger *logrus.Entry) Downloader {
	return &downloader{
		fetcher: fetcher,
		root:    root,
		log:     logger,
	}
}

func (d *downloader) Download(ctx context.Context, imageURL, folder, baseName, ext string) (string, error) {
	dir := filepath.Join(d.root, folder)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return "", fmt.Errorf("failed to create image folder %s: %w", dir, err)
	}

	if ext == "" {
		ext = ExtensionFromURL(imageURL)
	}
	name := SanitizeFilename(baseName) + ext
	target := filepath.Join(dir, name)

	file, err := os.Create(target)
	if err != nil {
		return "", fmt.Errorf("failed to create file %s: %w", target, err)
	}

	n, err := d.fetcher.Download(ctx, imageURL, file)
	closeErr := file.Close()
	if err == nil && closeErr != nil {
		err = fmt.Errorf("failed to write %s: %w", target, closeErr)
	}
	if err != nil {
		_ = os.Remove(target)
		d.log.Errorf("❌ Failed to download image %s: %v", imageURL, err)
		return "", fmt.Errorf("failed to download image %s: %w", imageURL, err)
	}

	d.log.Infof("🖼️ Downloaded image: %s from %s (%d bytes)", name, imageURL, n)
	return name, nil
}

// SanitizeFilename keeps letters, digits, underscores and hyphens. Whitespace
// becomes an underscore; everything else is dropped.
func SanitizeFilename(name string) string {
	kept := strings.Map(func(r rune) rune {
		switch {
		case unicode.IsLetter(r), unicode.IsDigit(r), r == '_', r == '-', unicode.IsSpace(r):
			return r
		default:
			return -1
		}
	}, name)

	return strings.Map(func(r rune) rune {
		if unicode.IsSpace(r) {
			return '_'
		}
		return r
	}, strings.TrimSpace(kept))
}

// ExtensionFromURL returns the extension of the last path segment, query excluded.
func ExtensionFromURL(rawURL string) string {
	u, err := url.Parse(rawURL)
	if err != nil {
		return path.Ext(rawURL)
	}
	return path.Ext(u.Path)
}
