package tiles

import (
	"context"
	"crypto/sha1"
	"encoding/hex"
	"fmt"
	"io"
	"net/http"
	"os"
	"path/filepath"
	"strings"
	"time"

	"go.uber.org/zap"
	"golang.org/x/time/rate"
)

// Fetcher downloads tiles politely: rate limited, retried and cached on disk.
type Fetcher struct {
	Client     *http.Client
	Limiter    *rate.Limiter
	CacheDir   string
	UserAgent  string
	MaxRetries int
	Backoff    time.Duration
	Logger     *zap.Logger
}

func NewFetcher(cacheDir string, rps float64, burst int, timeout time.Duration, log *zap.Logger) (*Fetcher, error) {
	if cacheDir == "" {
		cacheDir = ".tile-cache"
	}
	if err := os.MkdirAll(cacheDir, 0o755); err != nil {
		return nil, fmt.Errorf("tile cache: %w", err)
	}
	if log == nil {
		log = zap.NewNop()
	}
	return &Fetcher{
		Client: &http.Client{
			Timeout: timeout,
		},
		Limiter:    rate.NewLimiter(rate.Limit(rps), burst),
		CacheDir:   cacheDir,
		UserAgent:  "gpxheat/1.0 (+tiles; https://openstreetmap.org)",
		MaxRetries: 3,
		Backoff:    200 * time.Millisecond,
		Logger:     log,
	}, nil
}

func (f *Fetcher) cachePath(u string) string {
	sum := sha1.Sum([]byte(u))
	hexid := hex.EncodeToString(sum[:])
	ext := ".tile"
	if i := strings.IndexByte(u, '?'); i >= 0 {
		u = u[:i]
	}
	if j := strings.LastIndexByte(u, '.'); j >= 0 && j > len(u)-6 {
		ext = u[j:]
		if len(ext) > 5 || strings.ContainsRune(ext, '/') {
			ext = ".tile"
		}
	}
	return filepath.Join(f.CacheDir, hexid[:2], hexid[2:4], hexid+ext)
}

// GetTile returns the body of url, from the cache when present.
func (f *Fetcher) GetTile(ctx context.Context, url string, headers map[string]string) ([]byte, error) {
	cp := f.cachePath(url)
	if b, err := os.ReadFile(cp); err == nil {
		f.Logger.Debug("tile cache hit", zap.String("url", url))
		return b, nil
	}
	if err := os.MkdirAll(filepath.Dir(cp), 0o755); err != nil {
		return nil, err
	}

	var lastErr error
	for attempt := 0; attempt < f.MaxRetries; attempt++ {
		if attempt > 0 {
			f.Logger.Debug("retrying tile", zap.String("url", url), zap.Int("attempt", attempt), zap.Error(lastErr))
			if err := sleep(ctx, f.Backoff*time.Duration(attempt)); err != nil {
				return nil, err
			}
		}
		if err := f.Limiter.Wait(ctx); err != nil {
			return nil, err
		}
		body, err := f.download(ctx, url, headers)
		if err != nil {
			lastErr = err
			continue
		}
		tmp := cp + ".tmp"
		if err := os.WriteFile(tmp, body, 0o644); err != nil {
			return nil, err
		}
		if err := os.Rename(tmp, cp); err != nil {
			return nil, err
		}
		return body, nil
	}
	return nil, lastErr
}

func (f *Fetcher) download(ctx context.Context, url string, headers map[string]string) ([]byte, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return nil, err
	}
	req.Header.Set("User-Agent", f.UserAgent)
	for k, v := range headers {
		req.Header.Set(k, v)
	}
	resp, err := f.Client.Do(req)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()
	if resp.StatusCode/100 != 2 {
		return nil, httpError("tile", resp)
	}
	return io.ReadAll(resp.Body)
}

func httpError(what string, resp *http.Response) error {
	b, _ := io.ReadAll(io.LimitReader(resp.Body, 2<<10))
	return fmt.Errorf("%s HTTP %d: %s", what, resp.StatusCode, strings.TrimSpace(string(b)))
}

func sleep(ctx context.Context, d time.Duration) error {
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-t.C:
		return nil
	}
}
