package main

import (
	"fmt"
	"io"
	"math"
	"math/cmplx"
	"os"

	"hz.tools/rfcap"
	"hz.tools/sdr"
	"hz.tools/sdr/stream"

	receiver "github.com/tphakala/go-sdr-receiver"
	"github.com/tphakala/go-sdr-receiver/demod"
)

// iqSource yields complex baseband samples.
type iqSource interface {
	// Read fills buf and returns the number of samples written. It returns
	// io.EOF once the source is exhausted.
	Read(buf []complex64) (int, error)
	SampleRate() int
	Close() error
}

func openSource(opts options, cfg *receiver.Config) (iqSource, error) {
	if opts.inputPath == "" {
		return newSynthSource(cfg, opts.synthOffset, opts.duration)
	}
	return openRFCap(opts.inputPath)
}

// rfcapSource reads an rfcap capture, converting any sample format to
// complex64.
type rfcapSource struct {
	closer io.Closer
	reader sdr.Reader
	buf    sdr.SamplesC64
}

func openRFCap(path string) (*rfcapSource, error) {
	var (
		in     io.Reader = os.Stdin
		closer io.Closer = io.NopCloser(os.Stdin)
	)
	if path != "-" {
		f, err := os.Open(path)
		if err != nil {
			return nil, fmt.Errorf("failed to open input file: %w", err)
		}
		in, closer = f, f
	}

	reader, _, err := rfcap.Reader(in)
	if err != nil {
		_ = closer.Close()
		return nil, fmt.Errorf("invalid rfcap capture %s: %w", path, err)
	}
	reader, err = stream.ConvertReader(reader, sdr.SampleFormatC64)
	if err != nil {
		_ = closer.Close()
		return nil, fmt.Errorf("convert %s to complex64: %w", path, err)
	}

	return &rfcapSource{closer: closer, reader: reader}, nil
}

func (s *rfcapSource) Read(buf []complex64) (int, error) {
	if cap(s.buf) < len(buf) {
		s.buf = make(sdr.SamplesC64, len(buf))
	}
	n, err := sdr.ReadFull(s.reader, s.buf[:len(buf)])
	copy(buf, s.buf[:n])
	return n, err
}

func (s *rfcapSource) SampleRate() int { return int(s.reader.SampleRate()) }

func (s *rfcapSource) Close() error { return s.closer.Close() }

// synthSource generates a modulated test carrier.
type synthSource struct {
	rate      float64
	offset    float64
	fm        bool
	deviation float64
	remaining int64
	n         int64
	phase     float64
}

func newSynthSource(cfg *receiver.Config, offset, seconds float64) (*synthSource, error) {
	if seconds <= 0 {
		return nil, fmt.Errorf("%w: duration %g", receiver.ErrInvalidArgument, seconds)
	}
	s := &synthSource{
		rate:      float64(cfg.InputRate),
		offset:    offset,
		remaining: int64(seconds * float64(cfg.InputRate)),
	}
	switch cfg.Mode {
	case demod.ModeAM, demod.ModeUSB, demod.ModeLSB:
	case demod.ModeWFM:
		s.fm, s.deviation = true, 37500
	default:
		s.fm, s.deviation = true, 2500
	}
	return s, nil
}

func (s *synthSource) Read(buf []complex64) (int, error) {
	if s.remaining <= 0 {
		return 0, io.EOF
	}
	n := min(int64(len(buf)), s.remaining)

	wc := 2 * math.Pi * s.offset / s.rate
	wm := 2 * math.Pi * defaultSynthTone / s.rate
	for i := range n {
		t := float64(s.n + i)
		if s.fm {
			s.phase += wc + 2*math.Pi*s.deviation/s.rate*math.Cos(wm*t)
			buf[i] = complex64(cmplx.Rect(1, s.phase))
		} else {
			env := 0.5 * (1 + defaultSynthDepth*math.Sin(wm*t))
			buf[i] = complex64(cmplx.Rect(env, wc*t))
		}
	}
	s.phase = math.Remainder(s.phase, 2*math.Pi)
	s.n += n
	s.remaining -= n
	return int(n), nil
}

func (s *synthSource) SampleRate() int { return int(s.rate) }

func (s *synthSource) Close() error { return nil }
