package main

import (
	"context"
	"fmt"
	"os"
	"runtime/pprof"

	"github.com/prometheus/client_golang/prometheus"

	"github.com/lukaszgryglicki/relaytrace/internal/relaytrace"
)

func main() {
	relaytrace.Debug = os.Getenv("DEBUG") != ""
	relaytrace.PNG = os.Getenv("PNG") != ""
	relaytrace.CSV = os.Getenv("CSV") != ""
	relaytrace.Parallel = os.Getenv("PARALLEL") != ""
	metricsPath := os.Getenv("METRICS")
	profile := os.Getenv("PROFILE") != ""

	level := "info"
	if relaytrace.Debug {
		level = "debug"
	}
	relaytrace.SetLogger(relaytrace.NewLogger(relaytrace.LogConfig{Level: level, Format: os.Getenv("LOG_FORMAT")}))

	if profile {
		f, err := os.Create("cpu.out")
		if err != nil {
			panic(err)
		}
		if err := pprof.StartCPUProfile(f); err != nil {
			panic(err)
		}
		defer func() {
			pprof.StopCPUProfile()
			_ = f.Close()
		}()
	}

	cfg := relaytrace.ConfigPath
	if len(os.Args) > 1 {
		cfg = os.Args[1]
	}
	if err := run(context.Background(), cfg, metricsPath); err != nil {
		fmt.Printf("Error: %v\n", err)
		os.Exit(1)
	}
}

func run(ctx context.Context, cfgPath, metricsPath string) error {
	shutdown, err := relaytrace.InitTracing(ctx, relaytrace.TracingConfigFromEnv())
	if err != nil {
		return err
	}
	defer relaytrace.ShutdownWithTimeout(ctx, shutdown)

	var m *relaytrace.Collector
	if metricsPath != "" {
		m, err = relaytrace.NewCollector(prometheus.NewRegistry())
		if err != nil {
			return err
		}
	}
	if _, err := relaytrace.RunFile(ctx, cfgPath, m); err != nil {
		return err
	}
	if m != nil {
		if err := m.WriteTextfile(metricsPath); err != nil {
			return fmt.Errorf("metrics: %w", err)
		}
	}
	return nil
}
