package tiles

import (
	"errors"
	"fmt"
	"net/url"
	"os"
	"slices"
	"strconv"
	"strings"
)

var ErrMissingEnv = errors.New("tile url references an unset environment variable")

type Preset struct {
	Name        string
	URLTmpl     string // .../{z}/{x}/{y}.png, ${VAR} expanded from the environment
	Attribution string
	MinZoom     int
	MaxZoom     int
	Headers     map[string]string // optional
}

var Presets = map[string]Preset{
	"osm": {
		Name:        "OpenStreetMap",
		URLTmpl:     "https://tile.openstreetmap.org/{z}/{x}/{y}.png",
		Attribution: "© OpenStreetMap contributors",
		MinZoom:     0, MaxZoom: 19,
	},
	"opentopomap": {
		Name:        "OpenTopoMap",
		URLTmpl:     "https://tile.opentopomap.org/{z}/{x}/{y}.png",
		Attribution: "© OpenTopoMap (CC-BY-SA), © OpenStreetMap contributors",
		MinZoom:     0, MaxZoom: 17,
	},
	"esri-satellite": {
		Name:        "ESRI World Imagery",
		URLTmpl:     "https://server.arcgisonline.com/ArcGIS/rest/services/World_Imagery/MapServer/tile/{z}/{y}/{x}",
		Attribution: "© Esri, Maxar, Earthstar Geographics",
		MinZoom:     0, MaxZoom: 20,
	},
	"alidade-smooth-dark": {
		Name:        "Stadia Alidade Smooth Dark",
		URLTmpl:     "https://tiles.stadiamaps.com/tiles/alidade_smooth_dark/{z}/{x}/{y}.png?api_key=${STADIA_KEY}",
		Attribution: "© Stadia Maps, © OpenMapTiles, © OpenStreetMap contributors",
		MinZoom:     0, MaxZoom: 20,
	},
	"stamen-toner": {
		Name:        "Stadia Stamen Toner",
		URLTmpl:     "https://tiles.stadiamaps.com/tiles/stamen_toner/{z}/{x}/{y}.png?api_key=${STADIA_KEY}",
		Attribution: "© Stadia Maps, © Stamen Design, © OpenStreetMap contributors",
		MinZoom:     0, MaxZoom: 20,
	},
	"maptiler-satellite": {
		Name:        "MapTiler Satellite",
		URLTmpl:     "https://api.maptiler.com/tiles/satellite/{z}/{x}/{y}.jpg?key=${MAPTILER_KEY}",
		Attribution: "© MapTiler, © OpenStreetMap contributors, © NASA",
		MinZoom:     0, MaxZoom: 20,
	},
}

// LookupPreset resolves a preset name. A value containing {z} is taken as a
// custom template served at zoom 0..19.
func LookupPreset(name string) (Preset, error) {
	if strings.Contains(name, "{z}") {
		return Preset{Name: "custom", URLTmpl: name, MinZoom: 0, MaxZoom: 19}, nil
	}
	if p, ok := Presets[name]; ok {
		return p, nil
	}
	names := make([]string, 0, len(Presets))
	for k := range Presets {
		names = append(names, k)
	}
	slices.Sort(names)
	return Preset{}, fmt.Errorf("unknown tile preset %q (known: %s)", name, strings.Join(names, ", "))
}

func (p Preset) FillURL(z, x, y int) (string, error) {
	var missing []string
	u := os.Expand(p.URLTmpl, func(key string) string {
		v, ok := os.LookupEnv(key)
		if !ok || v == "" {
			missing = append(missing, key)
		}
		return v
	})
	if len(missing) > 0 {
		return "", fmt.Errorf("%w: %s", ErrMissingEnv, strings.Join(missing, ", "))
	}
	u = strings.ReplaceAll(u, "{z}", strconv.Itoa(z))
	u = strings.ReplaceAll(u, "{x}", strconv.Itoa(x))
	u = strings.ReplaceAll(u, "{y}", strconv.Itoa(y))
	_, err := url.Parse(u)
	return u, err
}

func (p Preset) ClampZoom(z int) int {
	return min(max(z, p.MinZoom), p.MaxZoom)
}
