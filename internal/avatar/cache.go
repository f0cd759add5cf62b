package avatar

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
)

var errInvalidLogin = errors.New("invalid login")

// Cache is a directory holding one "{login}.png" per author. A file counts as
// cached only when it exists and is non-empty.
type Cache struct {
	dir    string
	logger *slog.Logger
}

func NewCache(dir string, logger *slog.Logger) *Cache {
	return &Cache{dir: dir, logger: logger}
}

// Path is the deterministic location of login's avatar, whether or not it exists.
func (c *Cache) Path(login string) string {
	return filepath.Join(c.dir, login+".png")
}

func (c *Cache) tempPath(login string) string {
	return filepath.Join(c.dir, login+".tmp")
}

// Lookup returns the avatar path for login if it is cached.
func (c *Cache) Lookup(login string) (string, bool) {
	if validLogin(login) != nil {
		return "", false
	}
	p := c.Path(login)
	return p, Exists(p)
}

// Exists reports whether path is a non-empty regular file.
func Exists(path string) bool {
	info, err := os.Stat(path)
	if err != nil {
		return false
	}
	return info.Mode().IsRegular() && info.Size() > 0
}

// store writes data through the login's temp file and renames it into place,
// so an interrupted write never leaves a partial avatar behind.
func (c *Cache) store(login string, data []byte) error {
	if err := os.MkdirAll(c.dir, 0o755); err != nil {
		return fmt.Errorf("create avatar dir: %w", err)
	}
	tmp := c.tempPath(login)
	defer os.Remove(tmp)

	if err := os.WriteFile(tmp, data, 0o644); err != nil {
		return fmt.Errorf("write avatar: %w", err)
	}
	if err := os.Rename(tmp, c.Path(login)); err != nil {
		return fmt.Errorf("rename avatar: %w", err)
	}
	return nil
}

func validLogin(login string) error {
	if login == "" || login == "." || login == ".." ||
		strings.ContainsAny(login, `/\`) || strings.ContainsRune(login, os.PathSeparator) {
		return fmt.Errorf("%w: %q", errInvalidLogin, login)
	}
	return nil
}

// IdenticonGenerator fills the cache with synthetic avatars, without network access.
type IdenticonGenerator struct {
	cache *Cache
}

func NewIdenticonGenerator(cache *Cache) *IdenticonGenerator {
	return &IdenticonGenerator{cache: cache}
}

// Ensure writes the identicon for login unless it is already cached.
func (g *IdenticonGenerator) Ensure(login string) error {
	if err := validLogin(login); err != nil {
		return err
	}
	if Exists(g.cache.Path(login)) {
		return nil
	}
	data, err := GenerateIdenticon(login)
	if err != nil {
		return err
	}
	return g.cache.store(login, data)
}

// Fill ensures an identicon for every login until ctx is done. Failures are logged and skipped.
func (g *IdenticonGenerator) Fill(ctx context.Context, logins []string) {
	for _, login := range logins {
		if ctx.Err() != nil {
			return
		}
		if err := g.Ensure(login); err != nil {
			g.cache.logger.Debug("identicon failed", "login", login, "err", err)
		}
	}
}
