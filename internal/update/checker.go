package update

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"path/filepath"
	"runtime"
	"strings"
	"sync"
	"time"

	"github.com/dustin/go-humanize"
	"github.com/go-resty/resty/v2"
)

// Release is the subset of a GitHub release the checker needs.
type Release struct {
	TagName string  `json:"tag_name"`
	HTMLURL string  `json:"html_url"`
	Assets  []Asset `json:"assets"`
}

// Asset is a downloadable file attached to a release.
type Asset struct {
	Name               string `json:"name"`
	BrowserDownloadURL string `json:"browser_download_url"`
	Size               int64  `json:"size"`
}

// Result is the outcome of one check.
type Result struct {
	Available      bool
	CurrentVersion string
	LatestVersion  string
	ReleaseURL     string
	Release        *Release
}

// Sink receives update progress. Bridge implements it.
type Sink interface {
	OnAvailable()
	OnDownloaded()
}

// CheckerConfig configures a Checker.
type CheckerConfig struct {
	// Feed is the GitHub "latest release" API URL.
	Feed string
	// CurrentVersion is the running version.
	CurrentVersion string
	// AssetName is the release asset for this platform.
	AssetName string
	// StagingDir receives downloaded assets.
	StagingDir string
	// Timeout bounds each HTTP request.
	Timeout time.Duration
}

// AssetName returns the release asset name for the daemon on goos/goarch.
func AssetName(goos, goarch string) string {
	return fmt.Sprintf("summond-%s-%s", goos, goarch)
}

// Checker polls the release feed and downloads newer releases.
type Checker struct {
	client *resty.Client
	cfg    CheckerConfig
	sink   Sink
	logger *slog.Logger

	mu     sync.Mutex
	staged string
}

// NewChecker creates a checker that reports to sink.
func NewChecker(cfg CheckerConfig, sink Sink, logger *slog.Logger) *Checker {
	if logger == nil {
		logger = slog.Default()
	}
	if cfg.Timeout <= 0 {
		cfg.Timeout = 30 * time.Second
	}
	if cfg.AssetName == "" {
		cfg.AssetName = AssetName(runtime.GOOS, runtime.GOARCH)
	}
	if cfg.StagingDir == "" {
		cfg.StagingDir = os.TempDir()
	}

	client := resty.New().
		SetTimeout(cfg.Timeout).
		SetRetryCount(2).
		SetRetryWaitTime(2*time.Second).
		SetHeader("Accept", "application/vnd.github.v3+json").
		SetHeader("User-Agent", "summon/"+cfg.CurrentVersion)

	return &Checker{
		client: client,
		cfg:    cfg,
		sink:   sink,
		logger: logger,
	}
}

// Check queries the feed once.
func (c *Checker) Check(ctx context.Context) (*Result, error) {
	var release Release
	resp, err := c.client.R().
		SetContext(ctx).
		SetResult(&release).
		Get(c.cfg.Feed)
	if err != nil {
		return nil, fmt.Errorf("fetch releases: %w", err)
	}

	if resp.StatusCode() == http.StatusNotFound {
		return &Result{CurrentVersion: c.cfg.CurrentVersion}, nil
	}
	if resp.StatusCode() != http.StatusOK {
		return nil, fmt.Errorf("release feed returned %d", resp.StatusCode())
	}

	latestVersion := strings.TrimPrefix(release.TagName, "v")
	result := &Result{
		CurrentVersion: c.cfg.CurrentVersion,
		LatestVersion:  latestVersion,
		ReleaseURL:     release.HTMLURL,
		Release:        &release,
	}

	latest, err := ParseSemver(latestVersion)
	if err != nil {
		return nil, fmt.Errorf("parse latest version %q: %w", latestVersion, err)
	}
	current, err := ParseSemver(c.cfg.CurrentVersion)
	if err != nil {
		// Development builds never update themselves.
		c.logger.Debug("current version is not a release", "version", c.cfg.CurrentVersion)
		return result, nil
	}

	result.Available = current.LessThan(latest)
	return result, nil
}

// FindAsset returns the asset called name, or nil.
func FindAsset(release *Release, name string) *Asset {
	for i := range release.Assets {
		if release.Assets[i].Name == name {
			return &release.Assets[i]
		}
	}
	return nil
}

// Download fetches asset into the staging directory and returns its path.
func (c *Checker) Download(ctx context.Context, asset *Asset) (string, error) {
	if err := os.MkdirAll(c.cfg.StagingDir, 0755); err != nil {
		return "", fmt.Errorf("create staging directory: %w", err)
	}
	path := filepath.Join(c.cfg.StagingDir, asset.Name+".download")

	c.logger.Info("downloading update", "asset", asset.Name, "size", humanize.Bytes(uint64(asset.Size)))
	resp, err := c.client.R().
		SetContext(ctx).
		SetHeader("Accept", "application/octet-stream").
		SetOutput(path).
		Get(asset.BrowserDownloadURL)
	if err != nil {
		_ = os.Remove(path)
		return "", fmt.Errorf("download asset: %w", err)
	}
	if resp.StatusCode() != http.StatusOK {
		_ = os.Remove(path)
		return "", fmt.Errorf("download returned %d", resp.StatusCode())
	}

	if err := os.Chmod(path, 0755); err != nil {
		_ = os.Remove(path)
		return "", fmt.Errorf("chmod staged asset: %w", err)
	}
	return path, nil
}

// CheckAndStage runs one check and, when a newer release exists, downloads it
// and reports progress to the sink. A release that is already staged is not
// downloaded again.
func (c *Checker) CheckAndStage(ctx context.Context) error {
	result, err := c.Check(ctx)
	if err != nil {
		return err
	}
	if !result.Available {
		c.logger.Debug("no update available", "current", result.CurrentVersion, "latest", result.LatestVersion)
		return nil
	}

	if c.Staged() != "" {
		return nil
	}

	asset := FindAsset(result.Release, c.cfg.AssetName)
	if asset == nil {
		return fmt.Errorf("release %s has no asset %s", result.LatestVersion, c.cfg.AssetName)
	}

	c.sink.OnAvailable()

	path, err := c.Download(ctx, asset)
	if err != nil {
		return err
	}

	c.mu.Lock()
	c.staged = path
	c.mu.Unlock()

	c.logger.Info("update downloaded", "version", result.LatestVersion, "path", path)
	c.sink.OnDownloaded()
	return nil
}

// Staged returns the path of the downloaded update, or "".
func (c *Checker) Staged() string {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.staged
}

// Run checks immediately and then every interval until ctx is done.
func (c *Checker) Run(ctx context.Context, interval time.Duration) {
	check := func() {
		if err := c.CheckAndStage(ctx); err != nil && ctx.Err() == nil {
			c.logger.Warn("update check failed", "error", err)
		}
	}

	check()
	if interval <= 0 {
		return
	}

	ticker := time.NewTicker(interval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			check()
		}
	}
}
