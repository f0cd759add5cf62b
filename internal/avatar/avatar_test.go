package avatar

import (
	"bytes"
	"context"
	"image"
	"image/color"
	"image/png"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func testLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func solid(size int, c color.NRGBA) *image.NRGBA {
	img := image.NewNRGBA(image.Rect(0, 0, size, size))
	for y := 0; y < size; y++ {
		for x := 0; x < size; x++ {
			img.SetNRGBA(x, y, c)
		}
	}
	return img
}

func pngBytes(t *testing.T, img image.Image) []byte {
	t.Helper()
	var buf bytes.Buffer
	require.NoError(t, png.Encode(&buf, img))
	return buf.Bytes()
}

func TestMaskAlpha(t *testing.T) {
	const radius = 32.0

	a, inside := MaskAlpha(radius, radius, 255)
	assert.True(t, inside)
	assert.Equal(t, uint8(0), a, "outer edge of the feather is transparent")

	a, inside = MaskAlpha(radius-2, radius, 255)
	assert.True(t, inside)
	assert.Equal(t, uint8(255), a)

	a, _ = MaskAlpha(radius-2, radius, 90)
	assert.Equal(t, uint8(90), a, "interior keeps source alpha")

	a, _ = MaskAlpha(radius-1, radius, 255)
	assert.Equal(t, uint8(255), a)

	a, _ = MaskAlpha(radius-0.5, radius, 255)
	assert.Equal(t, uint8(128), a)

	a, _ = MaskAlpha(radius-0.5, radius, 40)
	assert.Equal(t, uint8(40), a, "feather never exceeds source alpha")

	_, inside = MaskAlpha(radius+0.01, radius, 255)
	assert.False(t, inside)
}

func TestCircularMask(t *testing.T) {
	red := color.NRGBA{R: 200, G: 10, B: 10, A: 255}
	out := CircularMask(solid(Size, red))

	require.Equal(t, image.Rect(0, 0, Size, Size), out.Bounds())
	for _, p := range []image.Point{{0, 0}, {Size - 1, 0}, {0, Size - 1}, {Size - 1, Size - 1}} {
		assert.Equal(t, uint8(0), out.NRGBAAt(p.X, p.Y).A, "corner %v", p)
	}
	assert.Equal(t, red, out.NRGBAAt(Size/2, Size/2))
	assert.Equal(t, red, out.NRGBAAt(Size/2, 3))

	edge := out.NRGBAAt(Size/2, 0)
	assert.Equal(t, uint8(200), edge.R, "color channels are untouched")
	assert.Less(t, edge.A, uint8(255))
}

func TestHash(t *testing.T) {
	assert.Equal(t, uint64(5381), Hash(""))
	assert.Equal(t, uint64(5381*33+'a'), Hash("a"))
	assert.Equal(t, Hash("alice"), Hash("alice"))
	assert.NotEqual(t, Hash("alice"), Hash("bob"))
}

func TestHSLToRGB(t *testing.T) {
	r, g, b := HSLToRGB(0, 0.65, 0.55)
	assert.Equal(t, []uint8{214, 65, 65}, []uint8{r, g, b})

	r, g, b = HSLToRGB(120, 0.65, 0.55)
	assert.Equal(t, []uint8{65, 214, 65}, []uint8{r, g, b})

	r, g, b = HSLToRGB(240, 0.65, 0.55)
	assert.Equal(t, []uint8{65, 65, 214}, []uint8{r, g, b})
}

func TestIdenticon(t *testing.T) {
	t.Run("deterministic", func(t *testing.T) {
		a1, err := GenerateIdenticon("alice")
		require.NoError(t, err)
		a2, err := GenerateIdenticon("alice")
		require.NoError(t, err)
		assert.Equal(t, a1, a2)

		b, err := GenerateIdenticon("bob")
		require.NoError(t, err)
		assert.NotEqual(t, a1, b)
	})

	t.Run("mirror symmetric", func(t *testing.T) {
		img := Identicon("octocat")
		for y := 0; y < Size; y++ {
			for x := 0; x < Size/2; x++ {
				require.Equal(t, img.NRGBAAt(x, y), img.NRGBAAt(Size-1-x, y), "pixel %d,%d", x, y)
			}
		}
	})

	t.Run("decodes as circular png", func(t *testing.T) {
		data, err := GenerateIdenticon("carol")
		require.NoError(t, err)
		img, err := png.Decode(bytes.NewReader(data))
		require.NoError(t, err)
		assert.Equal(t, image.Rect(0, 0, Size, Size), img.Bounds())
		_, _, _, a := img.At(0, 0).RGBA()
		assert.Zero(t, a)
		_, _, _, a = img.At(Size/2, Size/2).RGBA()
		assert.Equal(t, uint32(0xffff), a)
	})

	t.Run("uses hue from hash", func(t *testing.T) {
		h := Hash("dave")
		grid := identiconGrid(h)
		r, g, b := HSLToRGB(float64(h%360), 0.65, 0.55)
		fg := color.NRGBA{R: r, G: g, B: b, A: 255}

		img := Identicon("dave")
		cell := Size / gridCells
		pad := (Size - gridCells*cell) / 2
		for row := 0; row < gridCells; row++ {
			for col := 0; col < gridCells; col++ {
				got := img.NRGBAAt(pad+col*cell+cell/2, pad+row*cell+cell/2)
				if grid[row][col] {
					assert.Equal(t, fg, got)
				} else {
					assert.Equal(t, identiconBackground, got)
				}
			}
		}
	})
}

func TestIdenticonGenerator(t *testing.T) {
	dir := t.TempDir()
	cache := NewCache(dir, testLogger())
	gen := NewIdenticonGenerator(cache)

	gen.Fill(context.Background(), []string{"alice", "", "../etc"})

	p, ok := cache.Lookup("alice")
	require.True(t, ok)
	want, err := GenerateIdenticon("alice")
	require.NoError(t, err)
	got, err := os.ReadFile(p)
	require.NoError(t, err)
	assert.Equal(t, want, got)

	_, err = os.Stat(filepath.Join(dir, "alice.tmp"))
	assert.True(t, os.IsNotExist(err))

	existing := cache.Path("bob")
	require.NoError(t, os.WriteFile(existing, []byte("keep"), 0o644))
	require.NoError(t, gen.Ensure("bob"))
	got, err = os.ReadFile(existing)
	require.NoError(t, err)
	assert.Equal(t, "keep", string(got))

	assert.Error(t, gen.Ensure("../etc"))
}

func TestIdenticonGeneratorStopsWhenCancelled(t *testing.T) {
	cache := NewCache(t.TempDir(), testLogger())
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	NewIdenticonGenerator(cache).Fill(ctx, []string{"alice", "bob"})

	_, ok := cache.Lookup("alice")
	assert.False(t, ok)
	_, ok = cache.Lookup("bob")
	assert.False(t, ok)
}

func TestCacheLookup(t *testing.T) {
	dir := t.TempDir()
	cache := NewCache(dir, testLogger())

	_, ok := cache.Lookup("ghost")
	assert.False(t, ok)

	require.NoError(t, os.WriteFile(cache.Path("empty"), nil, 0o644))
	_, ok = cache.Lookup("empty")
	assert.False(t, ok, "empty files are not cached")

	require.NoError(t, os.WriteFile(cache.Path("full"), []byte{1}, 0o644))
	p, ok := cache.Lookup("full")
	assert.True(t, ok)
	assert.Equal(t, filepath.Join(dir, "full.png"), p)

	_, ok = cache.Lookup("a/b")
	assert.False(t, ok)
}

func avatarServer(t *testing.T, hits *int32, handler http.HandlerFunc) *httptest.Server {
	t.Helper()
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		atomic.AddInt32(hits, 1)
		handler(w, r)
	}))
	t.Cleanup(srv.Close)
	return srv
}

func TestDownloader(t *testing.T) {
	blue := color.NRGBA{R: 20, G: 40, B: 220, A: 255}
	source := pngBytes(t, solid(128, blue))

	t.Run("downloads resizes and masks", func(t *testing.T) {
		var hits int32
		srv := avatarServer(t, &hits, func(w http.ResponseWriter, r *http.Request) {
			assert.Equal(t, "/alice.png", r.URL.Path)
			w.Header().Set("Content-Type", "image/png")
			_, _ = w.Write(source)
		})

		dir := t.TempDir()
		cache := NewCache(dir, testLogger())
		d := NewDownloader(cache, srv.URL+"/{login}.png?size=64", time.Second)

		require.NoError(t, d.Ensure(context.Background(), "alice"))
		assert.Equal(t, int32(1), atomic.LoadInt32(&hits))

		p, ok := cache.Lookup("alice")
		require.True(t, ok)
		f, err := os.Open(p)
		require.NoError(t, err)
		defer f.Close()
		img, err := png.Decode(f)
		require.NoError(t, err)
		assert.Equal(t, image.Rect(0, 0, Size, Size), img.Bounds())

		_, _, _, a := img.At(0, 0).RGBA()
		assert.Zero(t, a)
		r, g, b, a := img.At(Size/2, Size/2).RGBA()
		assert.Equal(t, uint32(0xffff), a)
		assert.InDelta(t, 20, r>>8, 1)
		assert.InDelta(t, 40, g>>8, 1)
		assert.InDelta(t, 220, b>>8, 1)

		_, err = os.Stat(filepath.Join(dir, "alice.tmp"))
		assert.True(t, os.IsNotExist(err))
	})

	t.Run("cached file means no request and no write", func(t *testing.T) {
		var hits int32
		srv := avatarServer(t, &hits, func(w http.ResponseWriter, r *http.Request) {
			_, _ = w.Write(source)
		})

		dir := t.TempDir()
		cache := NewCache(dir, testLogger())
		p := cache.Path("alice")
		require.NoError(t, os.WriteFile(p, []byte("cached"), 0o644))
		old := time.Now().Add(-time.Hour)
		require.NoError(t, os.Chtimes(p, old, old))

		d := NewDownloader(cache, srv.URL+"/{login}.png", time.Second)
		d.Fill(context.Background(), []string{"alice"})
		d.Fill(context.Background(), []string{"alice"})

		assert.Zero(t, atomic.LoadInt32(&hits))
		info, err := os.Stat(p)
		require.NoError(t, err)
		assert.True(t, info.ModTime().Equal(old))
		data, err := os.ReadFile(p)
		require.NoError(t, err)
		assert.Equal(t, "cached", string(data))
	})

	t.Run("empty file is refilled", func(t *testing.T) {
		var hits int32
		srv := avatarServer(t, &hits, func(w http.ResponseWriter, r *http.Request) {
			_, _ = w.Write(source)
		})

		cache := NewCache(t.TempDir(), testLogger())
		require.NoError(t, os.WriteFile(cache.Path("alice"), nil, 0o644))

		d := NewDownloader(cache, srv.URL+"/{login}.png", time.Second)
		require.NoError(t, d.Ensure(context.Background(), "alice"))
		assert.Equal(t, int32(1), atomic.LoadInt32(&hits))
		_, ok := cache.Lookup("alice")
		assert.True(t, ok)
	})

	failures := map[string]http.HandlerFunc{
		"not found": func(w http.ResponseWriter, r *http.Request) {
			http.NotFound(w, r)
		},
		"undecodable": func(w http.ResponseWriter, r *http.Request) {
			_, _ = w.Write([]byte("<html>definitely not an image</html>"))
		},
		"timeout": func(w http.ResponseWriter, r *http.Request) {
			select {
			case <-r.Context().Done():
			case <-time.After(2 * time.Second):
			}
		},
	}
	for name, handler := range failures {
		t.Run(name, func(t *testing.T) {
			var hits int32
			srv := avatarServer(t, &hits, handler)

			dir := t.TempDir()
			cache := NewCache(dir, testLogger())
			d := NewDownloader(cache, srv.URL+"/{login}.png", 100*time.Millisecond)

			assert.Error(t, d.Ensure(context.Background(), "alice"))
			d.Fill(context.Background(), []string{"alice"})

			_, ok := cache.Lookup("alice")
			assert.False(t, ok)
			entries, err := os.ReadDir(dir)
			require.NoError(t, err)
			assert.Empty(t, entries, "no avatar or temp file left behind")
		})
	}

	t.Run("invalid login", func(t *testing.T) {
		d := NewDownloader(NewCache(t.TempDir(), testLogger()), "", 0)
		assert.ErrorIs(t, d.Ensure(context.Background(), "../x"), errInvalidLogin)
		assert.Equal(t, "https://github.com/bob.png?size=64", d.URL("bob"))
	})
}

func TestResize(t *testing.T) {
	out := Resize(solid(200, color.NRGBA{R: 1, G: 2, B: 3, A: 255}), Size)
	assert.Equal(t, image.Rect(0, 0, Size, Size), out.Bounds())
	px := out.NRGBAAt(10, 10)
	assert.InDelta(t, 1, px.R, 1)
	assert.InDelta(t, 2, px.G, 1)
	assert.InDelta(t, 3, px.B, 1)
	assert.InDelta(t, 255, px.A, 1)
}
