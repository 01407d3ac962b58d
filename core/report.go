package core

import (
	"bytes"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"time"

	"github.com/elankath/go-memwatch/api"
	"github.com/go-echarts/go-echarts/v2/charts"
	"github.com/go-echarts/go-echarts/v2/components"
	"github.com/go-echarts/go-echarts/v2/opts"
)

type MemorySample struct {
	ProbeTime time.Time
	FreeBytes uint64
}

// MemoryChartRecorder collects the supervisor's memory samples and renders
// them as an HTML line chart once the run is over.
type MemoryChartRecorder struct {
	cfg     api.SupervisorConfig
	runID   string
	samples []MemorySample
}

func NewMemoryChartRecorder(cfg api.SupervisorConfig, runID string) (*MemoryChartRecorder, error) {
	if cfg.ReportNamePrefix == "" {
		cfg.ReportNamePrefix = api.DefaultReportNamePrefix
	}
	err := os.MkdirAll(cfg.ReportDir, 0755)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", api.ErrWriteReport, err)
	}
	return &MemoryChartRecorder{
		cfg:     cfg,
		runID:   runID,
		samples: make([]MemorySample, 0, 200),
	}, nil
}

func (r *MemoryChartRecorder) Observe(at time.Time, freeBytes uint64) {
	r.samples = append(r.samples, MemorySample{ProbeTime: at, FreeBytes: freeBytes})
}

func (r *MemoryChartRecorder) Samples() []MemorySample {
	return r.samples
}

func (r *MemoryChartRecorder) ChartPath() string {
	name := r.cfg.ReportNamePrefix
	if r.runID != "" {
		name = fmt.Sprintf("%s-%s", name, r.runID)
	}
	return filepath.Join(r.cfg.ReportDir, name+"-charts.html")
}

// WriteReport renders the collected samples. It is a no-op when nothing was
// sampled, which happens when the child exits before the first check.
func (r *MemoryChartRecorder) WriteReport() error {
	if len(r.samples) == 0 {
		slog.Warn("skipping memory chart since no samples were taken", "runID", r.runID)
		return nil
	}
	page := components.NewPage()
	page.SetPageTitle(fmt.Sprintf("%s Charts", r.cfg.ReportNamePrefix))
	page.AddCharts(generateFreeMemoryChart(r.cfg, r.samples))

	err := writePage(r.ChartPath(), page)
	if err != nil {
		return fmt.Errorf("%w: %w", api.ErrWriteReport, err)
	}
	return nil
}

func generateFreeMemoryChart(cfg api.SupervisorConfig, samples []MemorySample) *charts.Line {
	var xVals []string
	var yValsFree []opts.LineData
	var yValsThreshold []opts.LineData
	threshold := float64(cfg.ThresholdBytes()) / float64(api.GiB)
	for _, s := range samples {
		xVals = append(xVals, s.ProbeTime.Format("15:04:05"))
		yValsFree = append(yValsFree, opts.LineData{Value: float64(s.FreeBytes) / float64(api.GiB)})
		yValsThreshold = append(yValsThreshold, opts.LineData{Value: threshold})
	}

	line := charts.NewLine()
	line.SetGlobalOptions(
		charts.WithXAxisOpts(opts.XAxis{Name: "Time"}),
		charts.WithYAxisOpts(opts.YAxis{Name: "Free Memory (GB)"}),
		charts.WithTitleOpts(opts.Title{
			Title:    "Free Memory",
			Subtitle: fmt.Sprintf("%v every %s", cfg.Command, cfg.Interval),
		}))
	line.SetXAxis(xVals).
		AddSeries("Free", yValsFree).
		AddSeries("Threshold", yValsThreshold).
		SetSeriesOptions(charts.WithLineChartOpts(opts.LineChart{Smooth: opts.Bool(true)}))
	return line
}

func writePage(chartPath string, page *components.Page) error {
	var buf bytes.Buffer
	err := page.Render(&buf)
	if err != nil {
		return err
	}
	err = os.WriteFile(chartPath, buf.Bytes(), 0644)
	if err != nil {
		return err
	}
	slog.Debug("Generated chart", "chartPath", chartPath)
	return nil
}

var _ api.SampleObserver = (*MemoryChartRecorder)(nil)
