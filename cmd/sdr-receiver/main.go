// Command sdr-receiver demodulates one channel of an IQ recording to a
// stereo WAV file.
//
// Usage:
//
//	sdr-receiver --mode NFM --center 145e6 --freq 145.5e6 --input capture.rfcap --output out.wav
//	sdr-receiver --config receiver.yaml --input - --output out.wav < capture.rfcap
//	sdr-receiver --mode AM --synth-offset 10e3 --freq 10e3 --duration 2 --output tone.wav
//
// Without --input a test carrier is synthesized, AM modulated for AM and
// SSB modes and FM modulated otherwise.
package main

import (
	"errors"
	"fmt"
	"io"
	"os"
	"time"

	"github.com/charmbracelet/log"
	"github.com/spf13/pflag"
	"hz.tools/rf"

	receiver "github.com/tphakala/go-sdr-receiver"
	"github.com/tphakala/go-sdr-receiver/demod"
	"github.com/tphakala/go-sdr-receiver/internal/flowgraph"
)

const (
	// IQ samples per processing block
	blockSize = 1 << 16

	defaultDuration   = 5.0 // seconds of synthesized input
	defaultBitDepth   = 16
	powerLogInterval  = time.Second
	defaultSynthTone  = 1000.0
	defaultSynthDepth = 0.5
)

type options struct {
	configPath  string
	inputPath   string
	outputPath  string
	statePath   string
	logLevel    string
	duration    float64
	synthOffset float64
	bitDepth    int
	squelch     float64
}

func main() {
	if err := run(os.Args[1:]); err != nil {
		log.Fatal(err)
	}
}

func run(args []string) error {
	fs := pflag.NewFlagSet("sdr-receiver", pflag.ContinueOnError)
	fs.Usage = func() {
		fmt.Fprintf(os.Stderr, "Usage of sdr-receiver:\n%s", fs.FlagUsages())
	}

	var opts options
	fs.StringVar(&opts.configPath, "config", "", "YAML receiver configuration")
	fs.StringVarP(&opts.inputPath, "input", "i", "", "rfcap IQ capture, - for stdin (default: synthesized carrier)")
	fs.StringVarP(&opts.outputPath, "output", "o", "", "output WAV file (required)")
	fs.StringVar(&opts.statePath, "save-state", "", "write the final demodulator settings as YAML")
	fs.StringVar(&opts.logLevel, "log-level", "info", "debug, info, warn or error")
	fs.Float64Var(&opts.duration, "duration", defaultDuration, "seconds of synthesized input")
	fs.Float64Var(&opts.synthOffset, "synth-offset", 0, "synthesized carrier offset from the center frequency, Hz")
	fs.IntVar(&opts.bitDepth, "bits", defaultBitDepth, "output bit depth: 16, 24 or 32")
	fs.Float64Var(&opts.squelch, "squelch", 0, "squelch level in dB")

	mode := fs.StringP("mode", "m", "", "demodulation mode")
	inputRate := fs.Int("input-rate", 0, "IQ sample rate in Hz (ignored for rfcap input)")
	audioRate := fs.Int("audio-rate", 0, "output sample rate in Hz")
	center := fs.Float64("center", 0, "input center frequency, Hz")
	freq := fs.Float64P("freq", "f", 0, "receive frequency, Hz")
	gain := fs.Float64("gain", 0, "audio gain")
	pan := fs.Float64("pan", 0, "stereo pan, -1 to 1")

	if err := fs.Parse(args); err != nil {
		return err
	}
	if opts.outputPath == "" {
		fs.Usage()
		return errors.New("--output is required")
	}

	logger, err := newLogger(opts.logLevel)
	if err != nil {
		return err
	}
	receiver.SetLogger(logger.WithPrefix("receiver"))

	cfg := receiver.DefaultConfig()
	if opts.configPath != "" {
		if cfg, err = receiver.LoadConfig(opts.configPath); err != nil {
			return err
		}
	}

	// Flags override the file.
	if fs.Changed("mode") {
		cfg.Mode = *mode
	}
	if fs.Changed("input-rate") {
		cfg.InputRate = *inputRate
	}
	if fs.Changed("audio-rate") {
		cfg.AudioRate = *audioRate
	}
	if fs.Changed("center") {
		cfg.InputCenterFreq = *center
	}
	if fs.Changed("freq") {
		cfg.RecFreq = *freq
	}
	if fs.Changed("gain") {
		cfg.AudioGain = *gain
	}
	if fs.Changed("pan") {
		cfg.AudioPan = *pan
	}
	if fs.Changed("squelch") {
		cfg.State = receiver.Merge(cfg.State, receiver.DemodState{Squelch: receiver.Float(opts.squelch)})
	}

	src, err := openSource(opts, cfg)
	if err != nil {
		return err
	}
	defer src.Close()
	cfg.InputRate = src.SampleRate()

	eng := flowgraph.NewEngine(flowgraph.WithRevalidate(func() {
		logger.Debug("receiver revalidated")
	}))
	r, err := receiver.New(cfg, demod.NewRegistry(), eng)
	if err != nil {
		return err
	}
	if !r.IsValid() {
		logger.Warn("receive frequency is outside the input band",
			"freq", rf.Hz(cfg.RecFreq), "center", rf.Hz(cfg.InputCenterFreq), "input_rate", cfg.InputRate)
	}

	sink, err := createWAVOutput(opts.outputPath, cfg.AudioRate, opts.bitDepth)
	if err != nil {
		return err
	}

	logger.Info("receiving",
		"mode", r.Mode(),
		"freq", rf.Hz(cfg.RecFreq),
		"input_rate", cfg.InputRate,
		"audio_rate", cfg.AudioRate,
		"output", opts.outputPath)

	stats, err := pump(r, eng, src, sink, logger)
	if cerr := sink.Close(); err == nil {
		err = cerr
	}
	if err != nil {
		return err
	}

	logger.Info("done",
		"iq_samples", stats.iqSamples,
		"audio_frames", stats.audioFrames,
		"audio_power_db", fmt.Sprintf("%.1f", r.AudioPower()))

	if opts.statePath != "" {
		return saveState(opts.statePath, r.State())
	}
	return nil
}

func newLogger(level string) (*log.Logger, error) {
	lvl, err := log.ParseLevel(level)
	if err != nil {
		return nil, fmt.Errorf("--log-level: %w", err)
	}
	return log.NewWithOptions(os.Stderr, log.Options{
		Level:           lvl,
		ReportTimestamp: true,
		TimeFormat:      time.TimeOnly,
	}), nil
}

type streamStats struct {
	iqSamples   int64
	audioFrames int64
}

// pump runs src through the receiver until the source is exhausted.
func pump(r *receiver.Receiver, eng *flowgraph.Engine, src iqSource, sink *wavOutput, logger *log.Logger) (streamStats, error) {
	var stats streamStats
	buf := make([]complex64, blockSize)
	lastReport := time.Now()

	for {
		n, readErr := src.Read(buf)
		if n > 0 {
			var left, right []float32
			err := eng.Do(func() error {
				var err error
				left, right, err = r.Process(buf[:n])
				return err
			})
			if err != nil {
				return stats, err
			}
			if err := sink.Write(left, right); err != nil {
				return stats, err
			}
			stats.iqSamples += int64(n)
			stats.audioFrames += int64(len(left))
		}

		if time.Since(lastReport) >= powerLogInterval {
			logger.Info("audio", "power_db", fmt.Sprintf("%.1f", r.AudioPower()), "valid", r.IsValid())
			lastReport = time.Now()
		}

		switch {
		case readErr == nil:
		case errors.Is(readErr, io.EOF), errors.Is(readErr, io.ErrUnexpectedEOF):
			return stats, nil
		default:
			return stats, fmt.Errorf("read IQ: %w", readErr)
		}
	}
}

func saveState(path string, s receiver.DemodState) error {
	data, err := receiver.MarshalState(s)
	if err != nil {
		return err
	}
	if err := os.WriteFile(path, data, 0o644); err != nil {
		return fmt.Errorf("write state: %w", err)
	}
	return nil
}
