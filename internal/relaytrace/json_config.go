package relaytrace

import (
	"encoding/json"
	"fmt"
	"os"
)

// BinsCfg selects an explicit histogram window in metres.
type BinsCfg struct {
	Lo Real `json:"lo"`
	Hi Real `json:"hi"`
}

type Config struct {
	Objective   Real     `json:"objective"`
	Tube        Real     `json:"tube"`
	NA          Real     `json:"na"`
	MediumIndex Real     `json:"mediumIndex"`
	PixelPitch  Real     `json:"pixelPitch"`
	NumPixels   int      `json:"numPixels"`
	RayDensity  int      `json:"rayDensity"`
	Source      Source   `json:"source"`
	BinZoom     Real     `json:"binZoom,omitempty"`
	Bins        *BinsCfg `json:"bins,omitempty"` // overrides binZoom
	Workers     int      `json:"workers,omitempty"`
	OutDir      string   `json:"outDir,omitempty"`
}

// DefaultConfig is the reference relay with an on-axis, in-focus source.
func DefaultConfig() *Config {
	cfg := &Config{}
	cfg.applyDefaults()
	return cfg
}

// Params extracts the optical parameters.
func (c *Config) Params() Params {
	return Params{
		FocalObjective: c.Objective,
		FocalTube:      c.Tube,
		NA:             c.NA,
		MediumIndex:    c.MediumIndex,
		PixelPitch:     c.PixelPitch,
		NumPixels:      c.NumPixels,
		RayDensity:     c.RayDensity,
	}
}

// Window returns the histogram range for a sensor of the given size.
func (c *Config) Window(sensorSize Real) (lo, hi Real, err error) {
	if c.Bins != nil {
		if !isFinite(c.Bins.Lo) || !isFinite(c.Bins.Hi) {
			return 0, 0, fmt.Errorf("%w: bins [%g, %g)", ErrInvalidBins, c.Bins.Lo, c.Bins.Hi)
		}
		return c.Bins.Lo, c.Bins.Hi, nil
	}
	return SensorWindow(sensorSize, c.BinZoom)
}

// Zero means "use the reference value" for every optical field.
func (c *Config) applyDefaults() {
	if c.Objective == 0 {
		c.Objective = FocalObjective
	}
	if c.Tube == 0 {
		c.Tube = FocalTube
	}
	if c.NA == 0 {
		c.NA = NumAperture
	}
	if c.MediumIndex == 0 {
		c.MediumIndex = MediumIndex
	}
	if c.PixelPitch == 0 {
		c.PixelPitch = PixelPitch
	}
	if c.NumPixels == 0 {
		c.NumPixels = NumPixels
	}
	if c.RayDensity == 0 {
		c.RayDensity = RayDensity
	}
	if c.BinZoom <= 0 {
		c.BinZoom = BinZoom
	}
	if c.OutDir == "" {
		c.OutDir = OutDir
	}
}

func loadConfig(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	var cfg Config
	if err := json.Unmarshal(data, &cfg); err != nil {
		return nil, fmt.Errorf("%w: %s: %w", ErrInvalidConfig, path, err)
	}
	cfg.applyDefaults()
	if err := cfg.Params().Validate(); err != nil {
		return nil, fmt.Errorf("%w: %s: %w", ErrInvalidConfig, path, err)
	}
	if cfg.Workers < 0 {
		return nil, fmt.Errorf("%w: %s: workers %d", ErrInvalidConfig, path, cfg.Workers)
	}
	DebugLog("Loaded config from %s: fOb=%g fT=%g NA=%g n=%g pitch=%g px=%d rays=%d src=%+v",
		path, cfg.Objective, cfg.Tube, cfg.NA, cfg.MediumIndex, cfg.PixelPitch, cfg.NumPixels, cfg.RayDensity, cfg.Source)
	return &cfg, nil
}
