package relaytrace

import (
	"errors"
	"os"
	"path/filepath"
	"testing"
)

func writeConfig(t *testing.T, body string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "config.json")
	if err := os.WriteFile(path, []byte(body), 0o644); err != nil {
		t.Fatal(err)
	}
	return path
}

func TestLoadConfigDefaults(t *testing.T) {
	cfg, err := loadConfig(writeConfig(t, `{"source": {"h": 2.5e-6}}`))
	if err != nil {
		t.Fatal(err)
	}
	if cfg.Params() != DefaultParams() {
		t.Fatalf("defaults not applied: %+v", cfg.Params())
	}
	if cfg.Source != (Source{H: 2.5e-6}) || cfg.BinZoom != BinZoom || cfg.OutDir != OutDir {
		t.Fatalf("unexpected config %+v", cfg)
	}
}

func TestLoadConfigOverrides(t *testing.T) {
	cfg, err := loadConfig(writeConfig(t, `{
		"objective": 9e-3, "tube": 200e-3, "na": 0.8, "mediumIndex": 1.0,
		"pixelPitch": 5e-6, "numPixels": 1024, "rayDensity": 50,
		"source": {"h": 1e-6, "z": -2e-6},
		"bins": {"lo": -1e-4, "hi": 1e-4}, "workers": 3, "outDir": "out"
	}`))
	if err != nil {
		t.Fatal(err)
	}
	want := Params{FocalObjective: 9e-3, FocalTube: 200e-3, NA: 0.8, MediumIndex: 1, PixelPitch: 5e-6, NumPixels: 1024, RayDensity: 50}
	if cfg.Params() != want {
		t.Fatalf("params %+v", cfg.Params())
	}
	lo, hi, err := cfg.Window(1)
	if err != nil || lo != -1e-4 || hi != 1e-4 {
		t.Fatalf("explicit bins ignored: %g %g %v", lo, hi, err)
	}
	if cfg.Workers != 3 || cfg.OutDir != "out" {
		t.Fatalf("workers/outDir: %+v", cfg)
	}
}

func TestLoadConfigZoomWindow(t *testing.T) {
	cfg := DefaultConfig()
	lo, hi, err := cfg.Window(0.01)
	if err != nil || lo != -0.01/BinZoom || hi != 0.01/BinZoom {
		t.Fatalf("zoom window: %g %g %v", lo, hi, err)
	}
}

func TestLoadConfigErrors(t *testing.T) {
	if _, err := loadConfig(filepath.Join(t.TempDir(), "missing.json")); !errors.Is(err, os.ErrNotExist) {
		t.Fatalf("missing file: %v", err)
	}
	if _, err := loadConfig(writeConfig(t, `{`)); !errors.Is(err, ErrInvalidConfig) {
		t.Fatalf("bad json: %v", err)
	}
	_, err := loadConfig(writeConfig(t, `{"na": 1.2, "mediumIndex": 1}`))
	if !errors.Is(err, ErrInvalidConfig) || !errors.Is(err, ErrInvalidGeometry) {
		t.Fatalf("NA > n: %v", err)
	}
	if _, err := loadConfig(writeConfig(t, `{"workers": -1}`)); !errors.Is(err, ErrInvalidConfig) {
		t.Fatalf("negative workers: %v", err)
	}
	for _, body := range []string{`{"rayDensity": -5}`, `{"numPixels": -1}`} {
		_, err := loadConfig(writeConfig(t, body))
		if !errors.Is(err, ErrInvalidConfig) || !errors.Is(err, ErrInvalidGeometry) {
			t.Fatalf("%s: %v", body, err)
		}
	}
}
