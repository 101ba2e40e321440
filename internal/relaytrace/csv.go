package relaytrace

import (
	"context"
	"encoding/csv"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
)

// CSVSink dumps ray heights and histogram counts for external plotting.
type CSVSink struct {
	Dir string
}

func (s CSVSink) Emit(ctx context.Context, res *Result) error {
	if err := os.MkdirAll(s.Dir, 0o755); err != nil {
		return err
	}
	suffix := fileSuffix(res.Source)
	rays := [][]string{{"index", "angle", "h_source", "h_objective", "h_tube", "h_sensor", "theta_sensor"}}
	for _, p := range res.Paths {
		h := p.Heights()
		rays = append(rays, []string{
			strconv.Itoa(p.Index), fstr(p.Angle),
			fstr(h[0]), fstr(h[1]), fstr(h[2]), fstr(h[3]), fstr(p.Sensor.Theta),
		})
	}
	if err := writeCSV(filepath.Join(s.Dir, "rays_"+suffix+".csv"), rays); err != nil {
		return err
	}
	if err := ctx.Err(); err != nil {
		return err
	}
	hist := [][]string{{"lo", "hi", "count"}}
	for i, c := range res.Histogram.Counts {
		hist = append(hist, []string{fstr(res.Histogram.Edges[i]), fstr(res.Histogram.Edges[i+1]), strconv.Itoa(c)})
	}
	return writeCSV(filepath.Join(s.Dir, "histogram_"+suffix+".csv"), hist)
}

func fstr(v Real) string { return strconv.FormatFloat(v, 'g', -1, 64) }

func writeCSV(path string, rows [][]string) error {
	f, err := os.Create(path)
	if err != nil {
		return err
	}
	w := csv.NewWriter(f)
	if err := w.WriteAll(rows); err != nil {
		f.Close()
		return fmt.Errorf("write %s: %w", path, err)
	}
	if err := f.Close(); err != nil {
		return err
	}
	DebugLog("Saved %d rows to %s", len(rows)-1, path)
	return nil
}
