// Command plan-filter prints the channel filter cascade designed for a rate
// conversion and passband: the decimation plan, each stage's taps and its
// measured response.
//
// Usage:
//
//	plan-filter --input-rate 2.4e6 --output-rate 48e3 --cutoff 8e3 --transition 2e3
//	plan-filter --input-rate 1e6 --output-rate 192e3 --cutoff 80e3 --transition 20e3 --window kaiser --format yaml
package main

import (
	"errors"
	"fmt"
	"io"
	"os"

	"github.com/charmbracelet/log"
	"github.com/spf13/pflag"
	"gopkg.in/yaml.v3"

	"github.com/tphakala/go-sdr-receiver/internal/channel"
	"github.com/tphakala/go-sdr-receiver/internal/filter"
	"github.com/tphakala/go-sdr-receiver/internal/mathutil"
	"github.com/tphakala/go-sdr-receiver/internal/simdops"
)

const (
	defaultInputRate  = 2400000.0
	defaultOutputRate = 48000.0
	defaultCutoff     = 8000.0
	defaultTransition = 2000.0

	// Response grid density per stage
	responsePoints = 2048
)

type stageReport struct {
	Index      int     `yaml:"index"`
	Role       string  `yaml:"role"`
	Decimation int     `yaml:"decimation"`
	InputRate  float64 `yaml:"input_rate"`
	OutputRate float64 `yaml:"output_rate"`
	Cutoff     float64 `yaml:"cutoff"`
	Transition float64 `yaml:"transition"`
	Taps       int     `yaml:"taps"`
	PassbandDB float64 `yaml:"passband_edge_db"`
	StopbandDB float64 `yaml:"worst_stopband_db"`
	DCGain     float64 `yaml:"dc_gain"`
}

type planReport struct {
	InputRate      float64       `yaml:"input_rate"`
	OutputRate     float64       `yaml:"output_rate"`
	Window         string        `yaml:"window"`
	Decimations    []int         `yaml:"decimations"`
	Stages         []stageReport `yaml:"stages"`
	ResamplerRatio float64       `yaml:"resampler_ratio,omitempty"`
	LatencySamples int           `yaml:"latency_samples"`
	SIMD           string        `yaml:"simd"`
}

func main() {
	if err := run(os.Args[1:], os.Stdout); err != nil {
		log.Fatal(err)
	}
}

func run(args []string, w io.Writer) error {
	fs := pflag.NewFlagSet("plan-filter", pflag.ContinueOnError)
	inputRate := fs.Float64("input-rate", defaultInputRate, "input sample rate, Hz")
	outputRate := fs.Float64("output-rate", defaultOutputRate, "channel sample rate, Hz")
	cutoff := fs.Float64("cutoff", defaultCutoff, "passband edge, Hz")
	transition := fs.Float64("transition", defaultTransition, "transition width, Hz")
	windowName := fs.String("window", "hamming", "hamming, blackman or kaiser")
	format := fs.String("format", "text", "text or yaml")
	if err := fs.Parse(args); err != nil {
		return err
	}

	window, err := filter.ParseWindow(*windowName)
	if err != nil {
		return err
	}

	report, err := buildReport(channel.Config{
		InputRate:  *inputRate,
		OutputRate: *outputRate,
		Cutoff:     *cutoff,
		Transition: *transition,
		Window:     window,
	})
	if err != nil {
		return err
	}

	switch *format {
	case "text":
		return printText(w, report)
	case "yaml":
		enc := yaml.NewEncoder(w)
		defer enc.Close()
		return enc.Encode(report)
	default:
		return errors.New("--format must be text or yaml")
	}
}

// buildReport designs the cascade and measures every stage.
func buildReport(cfg channel.Config) (*planReport, error) {
	f, err := channel.New(cfg)
	if err != nil {
		return nil, err
	}

	report := &planReport{
		InputRate:      cfg.InputRate,
		OutputRate:     cfg.OutputRate,
		Window:         cfg.Window.String(),
		Decimations:    f.Decimations(),
		LatencySamples: f.Latency(),
		SIMD:           simdops.Info(),
	}
	if ratio, ok := f.ResamplerRatio(); ok {
		report.ResamplerRatio = ratio
	}

	for i, st := range f.Stages() {
		c, tw, err := filter.StageBand(filter.StageDesign{
			InputRate:  st.InputRate,
			Role:       st.Role,
			Cutoff:     cfg.Cutoff,
			Transition: cfg.Transition,
			NextRate:   st.OutputRate,
		})
		if err != nil {
			return nil, err
		}

		taps := f.StageTaps(i)
		report.Stages = append(report.Stages, stageReport{
			Index:      st.Index,
			Role:       st.Role.String(),
			Decimation: st.Decimation,
			InputRate:  st.InputRate,
			OutputRate: st.OutputRate,
			Cutoff:     c,
			Transition: tw,
			Taps:       len(taps),
			PassbandDB: mathutil.MagnitudeDB(filter.MagnitudeAt(taps, c-tw/2, st.InputRate)),
			StopbandDB: worstStopband(taps, st.InputRate, c+tw),
			DCGain:     filter.MagnitudeAt(taps, 0, st.InputRate),
		})
	}
	return report, nil
}

// worstStopband returns the highest response in dB from stopEdge to Nyquist.
// The window length rule reaches full attenuation one transition width past
// the cutoff.
func worstStopband(taps []float64, fs, stopEdge float64) float64 {
	resp := filter.ComputeFrequencyResponse(taps, fs, responsePoints)
	db := resp.MagnitudeDB()

	worst := mathutil.MagnitudeDB(0)
	for k, freq := range resp.Frequencies {
		if freq >= stopEdge {
			worst = max(worst, db[k])
		}
	}
	return worst
}

func printText(w io.Writer, r *planReport) error {
	var err error
	printf := func(format string, args ...any) {
		if err == nil {
			_, err = fmt.Fprintf(w, format, args...)
		}
	}

	printf("=== Channel filter plan ===\n")
	printf("  Rates: %g Hz -> %g Hz\n", r.InputRate, r.OutputRate)
	printf("  Window: %s\n", r.Window)
	printf("  Decimations: %v\n", r.Decimations)
	if r.ResamplerRatio != 0 {
		printf("  Fractional resampler: ratio %.6f\n", r.ResamplerRatio)
	} else {
		printf("  Fractional resampler: none\n")
	}
	printf("  Latency: %d input samples\n", r.LatencySamples)
	printf("  SIMD: %s\n\n", r.SIMD)

	for _, s := range r.Stages {
		printf("Stage %d (%s): %g Hz / %d -> %g Hz\n", s.Index, s.Role, s.InputRate, s.Decimation, s.OutputRate)
		printf("  Cutoff %.1f Hz, transition %.1f Hz, %d taps\n", s.Cutoff, s.Transition, s.Taps)
		printf("  DC gain %.6f, passband edge %.2f dB, worst stopband %.1f dB\n", s.DCGain, s.PassbandDB, s.StopbandDB)
	}
	return err
}
