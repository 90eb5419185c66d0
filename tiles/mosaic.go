package tiles

import (
	"bytes"
	"context"
	"fmt"
	"image"
	"image/draw"
	"image/jpeg"
	"image/png"
	"math"

	xdraw "golang.org/x/image/draw"
	"golang.org/x/sync/errgroup"
	"go.uber.org/zap"

	_ "image/gif"
)

// Workers bounds concurrent tile downloads; the limiter still sets the pace.
var Workers = 6

// BuildMosaic fetches the tiles covering win at zoom z, crops exactly to win
// and scales the result to edge×edge.
func BuildMosaic(ctx context.Context, f *Fetcher, preset Preset, win Window, z, edge int) (*image.RGBA, error) {
	z = preset.ClampZoom(z)
	tlx, tly, brx, bry := win.Pixels(z)
	if brx-tlx < 1 || bry-tly < 1 {
		return nil, fmt.Errorf("invalid mosaic window %.1fx%.1f at zoom %d", brx-tlx, bry-tly, z)
	}

	minTX, minTY, maxTX, maxTY := win.CoveringTiles(z)
	big := image.NewRGBA(image.Rect(0, 0, (maxTX-minTX+1)*TileSize, (maxTY-minTY+1)*TileSize))

	f.Logger.Info("fetching tiles",
		zap.String("preset", preset.Name),
		zap.Int("zoom", z),
		zap.Int("count", (maxTX-minTX+1)*(maxTY-minTY+1)))

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(Workers)
	for ty := minTY; ty <= maxTY; ty++ {
		for tx := minTX; tx <= maxTX; tx++ {
			g.Go(func() error {
				u, err := preset.FillURL(z, tx, ty)
				if err != nil {
					return err
				}
				data, err := f.GetTile(gctx, u, preset.Headers)
				if err != nil {
					return fmt.Errorf("get tile %d/%d/%d: %w", z, tx, ty, err)
				}
				img, err := decodeTile(data)
				if err != nil {
					return fmt.Errorf("decode tile %d/%d/%d: %w", z, tx, ty, err)
				}
				// tiles own disjoint rectangles of big
				off := image.Pt((tx-minTX)*TileSize, (ty-minTY)*TileSize)
				draw.Draw(big, image.Rectangle{Min: off, Max: off.Add(image.Pt(TileSize, TileSize))}, img, img.Bounds().Min, draw.Src)
				return nil
			})
		}
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}

	ox, oy := float64(minTX*TileSize), float64(minTY*TileSize)
	crop := image.Rect(
		int(math.Floor(tlx-ox)), int(math.Floor(tly-oy)),
		int(math.Ceil(brx-ox)), int(math.Ceil(bry-oy)),
	).Intersect(big.Bounds())

	dst := image.NewRGBA(image.Rect(0, 0, edge, edge))
	xdraw.ApproxBiLinear.Scale(dst, dst.Bounds(), big, crop, draw.Src, nil)
	return dst, nil
}

// ToRGBA returns img as an edge×edge RGBA canvas, scaling when sizes differ.
func ToRGBA(img image.Image, edge int) *image.RGBA {
	b := img.Bounds()
	if rgba, ok := img.(*image.RGBA); ok && b.Dx() == edge && b.Dy() == edge && b.Min == (image.Point{}) {
		return rgba
	}
	dst := image.NewRGBA(image.Rect(0, 0, edge, edge))
	if b.Dx() == edge && b.Dy() == edge {
		draw.Draw(dst, dst.Bounds(), img, b.Min, draw.Src)
		return dst
	}
	xdraw.CatmullRom.Scale(dst, dst.Bounds(), img, b, draw.Src, nil)
	return dst
}

func decodeTile(b []byte) (image.Image, error) {
	// Fast path: check first bytes for PNG/JPEG
	if len(b) >= 8 && bytes.Equal(b[:8], []byte{137, 80, 78, 71, 13, 10, 26, 10}) {
		return png.Decode(bytes.NewReader(b))
	}
	if len(b) >= 3 && b[0] == 0xFF && b[1] == 0xD8 && b[2] == 0xFF {
		return jpeg.Decode(bytes.NewReader(b))
	}
	// fallback to image.Decode (slower, but robust)
	img, _, err := image.Decode(bytes.NewReader(b))
	return img, err
}
