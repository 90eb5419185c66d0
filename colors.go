package main

import (
	"errors"
	"fmt"
	"image/color"
	"strconv"
	"strings"
)

// ParseColor reads an opaque overlay color written as "r,g,b" or "#RRGGBB".
func ParseColor(s string) (color.RGBA, error) {
	s = strings.TrimSpace(s)
	if strings.HasPrefix(s, "#") {
		return parseHexColor(s)
	}
	parts := strings.Split(s, ",")
	if len(parts) != 3 {
		return color.RGBA{}, errors.New("color must be r,g,b (ex: 0,0,255) or #RRGGBB")
	}
	var ch [3]uint8
	for i, p := range parts {
		v, err := strconv.ParseUint(strings.TrimSpace(p), 10, 8)
		if err != nil {
			return color.RGBA{}, fmt.Errorf("color channel %d: %w", i+1, err)
		}
		ch[i] = uint8(v)
	}
	return color.RGBA{R: ch[0], G: ch[1], B: ch[2], A: 0xFF}, nil
}

func parseHexColor(s string) (color.RGBA, error) {
	h := strings.TrimPrefix(s, "#")
	if len(h) != 6 {
		return color.RGBA{}, errors.New("hex color format: #RRGGBB")
	}
	v, err := strconv.ParseUint(h, 16, 32)
	if err != nil {
		return color.RGBA{}, fmt.Errorf("hex color: %w", err)
	}
	return color.RGBA{R: uint8(v >> 16), G: uint8(v >> 8), B: uint8(v), A: 0xFF}, nil
}
