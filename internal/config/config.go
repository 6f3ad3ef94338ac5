package config

import (
	"bytes"
	_ "embed"
	"fmt"
	"os"
	"strings"

	yaml "gopkg.in/yaml.v3"

	"github.com/rupor-github/gencfg"

	"github.com/gompdf/docpager/internal/pagination"
	"github.com/gompdf/docpager/internal/res"
)

//go:embed config.yaml
var defaults []byte

type (
	MarginsConfig struct {
		Top    float64 `yaml:"top" validate:"gte=0"`
		Right  float64 `yaml:"right" validate:"gte=0"`
		Bottom float64 `yaml:"bottom" validate:"gte=0"`
		Left   float64 `yaml:"left" validate:"gte=0"`
	}

	PageConfig struct {
		Size        string        `yaml:"size" validate:"omitempty,oneof=A3 A4 A5 Letter Legal a3 a4 a5 letter legal"`
		Orientation string        `yaml:"orientation" validate:"omitempty,oneof=portrait landscape"`
		Width       float64       `yaml:"width" validate:"gte=0"`
		Height      float64       `yaml:"height" validate:"gte=0"`
		Margins     MarginsConfig `yaml:"margins"`
	}

	LayoutConfig struct {
		SafetyBuffer      float64 `yaml:"safety_buffer" validate:"gte=0"`
		BandGap           float64 `yaml:"band_gap" validate:"gte=0"`
		DefaultBandHeight float64 `yaml:"default_band_height" validate:"gt=0"`
	}

	BandConfig struct {
		Content   string  `yaml:"content"`
		Height    float64 `yaml:"height" validate:"gte=0"`
		Frequency string  `yaml:"frequency" validate:"omitempty,oneof=all first even odd"`
	}

	FontConfig struct {
		Family string `yaml:"family" validate:"required"`
		Style  string `yaml:"style,omitempty"`
		Src    string `yaml:"src" validate:"required"`
	}

	ResourcesConfig struct {
		BaseURL     string   `yaml:"base_url"`
		SearchPaths []string `yaml:"search_paths" validate:"dive,required"`
		Workers     int      `yaml:"workers" validate:"min=1,max=64"`
	}

	Config struct {
		Version   int             `yaml:"version" validate:"eq=1"`
		Page      PageConfig      `yaml:"page"`
		Layout    LayoutConfig    `yaml:"layout"`
		Header    BandConfig      `yaml:"header"`
		Footer    BandConfig      `yaml:"footer"`
		Fonts     []FontConfig    `yaml:"fonts" validate:"dive"`
		Resources ResourcesConfig `yaml:"resources"`
		Logging   LoggingConfig   `yaml:"logging"`
	}
)

func unmarshalConfig(data []byte, cfg *Config, validate bool) (*Config, error) {
	// only fields defined above are accepted
	dec := yaml.NewDecoder(bytes.NewReader(data))
	dec.KnownFields(true)
	if err := dec.Decode(cfg); err != nil {
		return nil, fmt.Errorf("failed to decode configuration data: %w", err)
	}
	if validate {
		if err := gencfg.Validate(cfg); err != nil {
			return nil, err
		}
	}
	return cfg, nil
}

// LoadConfiguration reads the configuration from the file at the given path,
// superimposes its values on top of the embedded defaults and performs
// validation. An empty path returns the defaults.
func LoadConfiguration(path string) (*Config, error) {
	haveFile := len(path) > 0

	cfg, err := unmarshalConfig(defaults, &Config{}, !haveFile)
	if err != nil {
		return nil, fmt.Errorf("failed to process default configuration: %w", err)
	}
	if !haveFile {
		return cfg, nil
	}

	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read config file: %w", err)
	}
	cfg, err = unmarshalConfig(data, cfg, haveFile)
	if err != nil {
		return nil, fmt.Errorf("failed to process configuration file: %w", err)
	}
	return cfg, nil
}

// Prepare returns the default configuration file
func Prepare() []byte {
	return bytes.Clone(defaults)
}

func Dump(cfg *Config) ([]byte, error) {
	data, err := yaml.Marshal(*cfg)
	if err != nil {
		return nil, fmt.Errorf("failed to marshal config to yaml: %w", err)
	}
	return data, nil
}

// Geometry resolves the page section. An explicit width and height win over
// the named size.
func (c *PageConfig) Geometry() (pagination.Geometry, error) {
	size := pagination.PageSize{Width: c.Width, Height: c.Height, Name: "Custom"}
	if c.Width == 0 || c.Height == 0 {
		var err error
		if size, err = pagination.PageSizeByName(c.Size); err != nil {
			return pagination.Geometry{}, err
		}
	}
	if strings.EqualFold(c.Orientation, "landscape") {
		size = size.Landscape()
	}
	g := pagination.NewGeometry(size, pagination.Margins{
		Top:    c.Margins.Top,
		Right:  c.Margins.Right,
		Bottom: c.Margins.Bottom,
		Left:   c.Margins.Left,
	})
	if err := g.Validate(); err != nil {
		return pagination.Geometry{}, err
	}
	return g, nil
}

// Settings returns the budget settings
func (c *LayoutConfig) Settings() pagination.Settings {
	return pagination.Settings{
		SafetyBuffer:      c.SafetyBuffer,
		BandGap:           c.BandGap,
		DefaultBandHeight: c.DefaultBandHeight,
	}
}

// HeaderFooter returns nil for a band without content
func (c *BandConfig) HeaderFooter() (*pagination.HeaderFooter, error) {
	if strings.TrimSpace(c.Content) == "" {
		return nil, nil
	}
	f, err := pagination.ParseFrequency(c.Frequency)
	if err != nil {
		return nil, err
	}
	return &pagination.HeaderFooter{Content: c.Content, Height: c.Height, Frequency: f}, nil
}

// FontSources lists the configured font files
func (c *Config) FontSources() []res.FontSource {
	out := make([]res.FontSource, 0, len(c.Fonts))
	for _, f := range c.Fonts {
		out = append(out, res.FontSource{Family: f.Family, Style: f.Style, Src: f.Src})
	}
	return out
}
