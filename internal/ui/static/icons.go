// icons.go — генерация иконок приложения (PNG) заданного размера.
// Готовые изображения кэшируются в LRU.
package static

import (
	"bytes"
	"encoding/binary"
	"fmt"
	"image"
	"image/color"
	"image/png"
	"slices"

	lru "github.com/hashicorp/golang-lru/v2"
)

// Размеры иконок по умолчанию.
const (
	// DefaultIconSize — размер /icon.
	DefaultIconSize = 192
	// AppleIconSize — размер /apple-icon.
	AppleIconSize = 180
	// FaviconSize — размер PNG внутри favicon.ico.
	FaviconSize = 32
)

// IconSizes — размеры, для которых отдаются иконки (стандартные для
// favicon, Apple touch icon и web manifest).
var IconSizes = []int{16, 32, 48, 64, 96, 128, 144, 152, 167, 180, 192, 256, 384, 512, 1024}

var (
	iconBackground = color.RGBA{R: 0x0f, G: 0x17, B: 0x2a, A: 0xff}
	iconTile       = color.RGBA{R: 0x38, G: 0xbd, B: 0xf8, A: 0xff}
	iconTileAlt    = color.RGBA{R: 0xe2, G: 0xe8, B: 0xf0, A: 0xff}
)

// iconCache — PNG по размеру; вмещает все допустимые размеры.
var iconCache, _ = lru.New[int, []byte](len(IconSizes))

// IconPNG возвращает иконку size×size в формате PNG: сетка 2×2 плиток на тёмном фоне.
func IconPNG(size int) ([]byte, error) {
	if !slices.Contains(IconSizes, size) {
		return nil, fmt.Errorf("размер иконки %d не поддерживается", size)
	}
	if data, ok := iconCache.Get(size); ok {
		return data, nil
	}

	img := image.NewRGBA(image.Rect(0, 0, size, size))
	pad := size / 8
	gap := size / 16
	tile := (size - 2*pad - gap) / 2

	for y := 0; y < size; y++ {
		for x := 0; x < size; x++ {
			img.SetRGBA(x, y, iconBackground)
		}
	}
	for row := 0; row < 2; row++ {
		for col := 0; col < 2; col++ {
			c := iconTile
			if (row+col)%2 == 1 {
				c = iconTileAlt
			}
			x0 := pad + col*(tile+gap)
			y0 := pad + row*(tile+gap)
			for y := y0; y < y0+tile; y++ {
				for x := x0; x < x0+tile; x++ {
					img.SetRGBA(x, y, c)
				}
			}
		}
	}

	var buf bytes.Buffer
	if err := png.Encode(&buf, img); err != nil {
		return nil, fmt.Errorf("кодирование PNG: %w", err)
	}
	data := buf.Bytes()
	iconCache.Add(size, data)
	return data, nil
}

// FaviconICO возвращает favicon.ico с одной PNG-иконкой 32×32.
func FaviconICO() ([]byte, error) {
	pngData, err := IconPNG(FaviconSize)
	if err != nil {
		return nil, err
	}

	var buf bytes.Buffer
	// ICONDIR: reserved, type=1 (icon), count=1
	_ = binary.Write(&buf, binary.LittleEndian, [3]uint16{0, 1, 1})
	// ICONDIRENTRY: width, height, colors, reserved, planes, bpp, size, offset
	buf.Write([]byte{FaviconSize, FaviconSize, 0, 0})
	_ = binary.Write(&buf, binary.LittleEndian, [2]uint16{1, 32})
	_ = binary.Write(&buf, binary.LittleEndian, [2]uint32{uint32(len(pngData)), 6 + 16})
	buf.Write(pngData)
	return buf.Bytes(), nil
}
