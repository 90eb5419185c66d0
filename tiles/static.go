package tiles

import (
	"context"
	"errors"
	"fmt"
	"image"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"go.uber.org/zap"
)

const (
	DefaultStaticBase  = "https://api.mapbox.com"
	DefaultStaticStyle = "mapbox/streets-v11"
)

var ErrNoToken = errors.New("static map access token is empty")

// StaticClient requests a single centred base image from a Mapbox-compatible
// static images API. Images are requested at @2x density.
type StaticClient struct {
	BaseURL string
	Style   string
	Token   string
	Client  *http.Client
	Logger  *zap.Logger
}

func NewStaticClient(token, style string, timeout time.Duration, log *zap.Logger) *StaticClient {
	if style == "" {
		style = DefaultStaticStyle
	}
	if log == nil {
		log = zap.NewNop()
	}
	return &StaticClient{
		BaseURL: DefaultStaticBase,
		Style:   style,
		Token:   token,
		Client:  &http.Client{Timeout: timeout},
		Logger:  log,
	}
}

func (c *StaticClient) URL(lat, lng, zoom float64, px int) string {
	return fmt.Sprintf("%s/styles/v1/%s/static/%s,%s,%s/%dx%d@2x?access_token=%s",
		strings.TrimRight(c.BaseURL, "/"), c.Style,
		strconv.FormatFloat(lng, 'f', -1, 64),
		strconv.FormatFloat(lat, 'f', -1, 64),
		strconv.FormatFloat(zoom, 'f', -1, 64),
		px, px, url.QueryEscape(c.Token))
}

// Fetch downloads and decodes the px×px (logical) image centred on lat,lng.
func (c *StaticClient) Fetch(ctx context.Context, lat, lng, zoom float64, px int) (image.Image, error) {
	if c.Token == "" {
		return nil, ErrNoToken
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.URL(lat, lng, zoom, px), nil)
	if err != nil {
		return nil, err
	}
	c.Logger.Debug("requesting static map", zap.String("style", c.Style), zap.Float64("zoom", zoom), zap.Int("px", px))

	resp, err := c.Client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("static map: %w", err)
	}
	defer resp.Body.Close()
	if resp.StatusCode/100 != 2 {
		return nil, httpError("map", resp)
	}
	buf, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("static map: %w", err)
	}
	img, err := decodeTile(buf)
	if err != nil {
		return nil, fmt.Errorf("decode static map: %w", err)
	}
	return img, nil
}
