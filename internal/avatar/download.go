package avatar

import (
	"context"
	"fmt"
	"image"
	_ "image/gif"
	_ "image/jpeg"
	"io"
	"net/http"
	"os"
	"strings"
	"time"

	"golang.org/x/image/draw"
	_ "golang.org/x/image/webp"
)

const (
	DefaultURLTemplate = "https://github.com/{login}.png?size=64"
	DefaultTimeout     = 5 * time.Second

	maxDownloadBytes = 5 << 20
)

// Downloader fills the cache from the hosting platform's avatar endpoint.
type Downloader struct {
	cache       *Cache
	client      *http.Client
	urlTemplate string
	timeout     time.Duration
}

// NewDownloader builds a Downloader. urlTemplate must contain "{login}".
func NewDownloader(cache *Cache, urlTemplate string, timeout time.Duration) *Downloader {
	if urlTemplate == "" {
		urlTemplate = DefaultURLTemplate
	}
	if timeout <= 0 {
		timeout = DefaultTimeout
	}
	return &Downloader{
		cache:       cache,
		client:      &http.Client{Timeout: timeout},
		urlTemplate: urlTemplate,
		timeout:     timeout,
	}
}

func (d *Downloader) URL(login string) string {
	return strings.ReplaceAll(d.urlTemplate, "{login}", login)
}

// Ensure downloads, masks and caches login's avatar unless it is already cached.
// The temp file is removed whatever the outcome.
func (d *Downloader) Ensure(ctx context.Context, login string) error {
	if err := validLogin(login); err != nil {
		return err
	}
	if Exists(d.cache.Path(login)) {
		return nil
	}
	if err := os.MkdirAll(d.cache.dir, 0o755); err != nil {
		return fmt.Errorf("create avatar dir: %w", err)
	}

	tmp := d.cache.tempPath(login)
	defer os.Remove(tmp)

	if err := d.download(ctx, login, tmp); err != nil {
		return err
	}

	f, err := os.Open(tmp)
	if err != nil {
		return fmt.Errorf("open download: %w", err)
	}
	img, _, err := image.Decode(f)
	f.Close()
	if err != nil {
		return fmt.Errorf("decode avatar: %w", err)
	}

	data, err := encodePNG(CircularMask(Resize(img, Size)))
	if err != nil {
		return err
	}
	return d.cache.store(login, data)
}

func (d *Downloader) download(ctx context.Context, login, dest string) error {
	ctx, cancel := context.WithTimeout(ctx, d.timeout)
	defer cancel()

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, d.URL(login), nil)
	if err != nil {
		return fmt.Errorf("build request: %w", err)
	}
	resp, err := d.client.Do(req)
	if err != nil {
		return fmt.Errorf("download avatar: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("download avatar: unexpected status %d", resp.StatusCode)
	}

	f, err := os.Create(dest)
	if err != nil {
		return fmt.Errorf("create temp file: %w", err)
	}
	_, copyErr := io.Copy(f, io.LimitReader(resp.Body, maxDownloadBytes))
	closeErr := f.Close()
	if copyErr != nil {
		return fmt.Errorf("read avatar: %w", copyErr)
	}
	return closeErr
}

// Fill ensures an avatar for each login, one at a time. A failure only affects
// that login; it is retried on the next call since the cache check runs every time.
func (d *Downloader) Fill(ctx context.Context, logins []string) {
	for _, login := range logins {
		if ctx.Err() != nil {
			return
		}
		if err := d.Ensure(ctx, login); err != nil {
			d.cache.logger.Debug("avatar download failed", "login", login, "err", err)
		}
	}
}

// Resize scales img to size x size with Catmull-Rom resampling.
func Resize(img image.Image, size int) *image.NRGBA {
	dst := image.NewNRGBA(image.Rect(0, 0, size, size))
	draw.CatmullRom.Scale(dst, dst.Bounds(), img, img.Bounds(), draw.Src, nil)
	return dst
}
