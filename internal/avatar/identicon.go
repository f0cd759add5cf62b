package avatar

import (
	"bytes"
	"fmt"
	"image"
	"image/color"
	"image/png"
	"math"

	"golang.org/x/image/draw"
)

const (
	Size      = 64
	gridCells = 5
)

var identiconBackground = color.NRGBA{R: 30, G: 30, B: 50, A: 255}

// Hash is the djb2 hash of login over its raw bytes, with wrapping arithmetic.
func Hash(login string) uint64 {
	var h uint64 = 5381
	for i := 0; i < len(login); i++ {
		h = h*33 + uint64(login[i])
	}
	return h
}

// Identicon renders the 5x5 mirrored grid for login, before masking.
func Identicon(login string) *image.NRGBA {
	h := Hash(login)
	r, g, b := HSLToRGB(float64(h%360), 0.65, 0.55)
	fg := color.NRGBA{R: r, G: g, B: b, A: 255}

	grid := identiconGrid(h)

	cell := Size / gridCells
	padding := (Size - gridCells*cell) / 2

	img := image.NewNRGBA(image.Rect(0, 0, Size, Size))
	draw.Draw(img, img.Bounds(), &image.Uniform{C: identiconBackground}, image.Point{}, draw.Src)
	fill := &image.Uniform{C: fg}
	for row := 0; row < gridCells; row++ {
		for col := 0; col < gridCells; col++ {
			if !grid[row][col] {
				continue
			}
			x0 := padding + col*cell
			y0 := padding + row*cell
			draw.Draw(img, image.Rect(x0, y0, x0+cell, y0+cell), fill, image.Point{}, draw.Src)
		}
	}
	return img
}

// identiconGrid takes 15 bits above the low byte of the hash for the three left
// columns of each row; the right columns mirror them.
func identiconGrid(h uint64) [gridCells][gridCells]bool {
	var grid [gridCells][gridCells]bool
	bits := h >> 8
	for row := 0; row < gridCells; row++ {
		for col := 0; col < 3; col++ {
			on := (bits>>(row*3+col))&1 == 1
			grid[row][col] = on
			grid[row][gridCells-1-col] = on
		}
	}
	return grid
}

// GenerateIdenticon returns the circular identicon for login as PNG bytes.
// The output depends only on login.
func GenerateIdenticon(login string) ([]byte, error) {
	return encodePNG(CircularMask(Identicon(login)))
}

func encodePNG(img image.Image) ([]byte, error) {
	var buf bytes.Buffer
	if err := png.Encode(&buf, img); err != nil {
		return nil, fmt.Errorf("encode png: %w", err)
	}
	return buf.Bytes(), nil
}

// HSLToRGB converts h in [0,360) and s, l in [0,1] to 8-bit RGB, truncating each channel.
func HSLToRGB(h, s, l float64) (uint8, uint8, uint8) {
	c := (1 - math.Abs(2*l-1)) * s
	x := c * (1 - math.Abs(math.Mod(h/60, 2)-1))
	m := l - c/2

	var r, g, b float64
	switch {
	case h < 60:
		r, g, b = c, x, 0
	case h < 120:
		r, g, b = x, c, 0
	case h < 180:
		r, g, b = 0, c, x
	case h < 240:
		r, g, b = 0, x, c
	case h < 300:
		r, g, b = x, 0, c
	default:
		r, g, b = c, 0, x
	}
	return channel(r + m), channel(g + m), channel(b + m)
}

func channel(v float64) uint8 {
	v *= 255
	if v <= 0 {
		return 0
	}
	if v >= 255 {
		return 255
	}
	return uint8(v)
}
