package main

import (
	"fmt"
	"math"
	"os"

	"github.com/go-audio/audio"
	"github.com/go-audio/wav"
)

const (
	stereoChannels = 2
	wavFormatPCM   = 1
)

// wavOutput writes interleaved stereo PCM.
type wavOutput struct {
	file    *os.File
	encoder *wav.Encoder
	buf     *audio.IntBuffer
	maxVal  float64
}

// createWAVOutput creates the output file and encoder.
func createWAVOutput(path string, sampleRate, bitDepth int) (*wavOutput, error) {
	maxVal, err := maxValue(bitDepth)
	if err != nil {
		return nil, err
	}

	f, err := os.Create(path)
	if err != nil {
		return nil, fmt.Errorf("failed to create output file: %w", err)
	}

	return &wavOutput{
		file:    f,
		encoder: wav.NewEncoder(f, sampleRate, bitDepth, stereoChannels, wavFormatPCM),
		buf: &audio.IntBuffer{
			Format:         &audio.Format{NumChannels: stereoChannels, SampleRate: sampleRate},
			SourceBitDepth: bitDepth,
		},
		maxVal: maxVal,
	}, nil
}

func maxValue(bitDepth int) (float64, error) {
	switch bitDepth {
	case 16, 24, 32:
		return math.Exp2(float64(bitDepth-1)) - 1, nil
	default:
		return 0, fmt.Errorf("unsupported bit depth %d", bitDepth)
	}
}

// Write interleaves and quantizes one block. Samples outside [-1, 1] are
// clipped.
func (w *wavOutput) Write(left, right []float32) error {
	n := min(len(left), len(right))
	if n == 0 {
		return nil
	}

	data := w.buf.Data[:0]
	for i := range n {
		data = append(data, w.quantize(left[i]), w.quantize(right[i]))
	}
	w.buf.Data = data
	return w.encoder.Write(w.buf)
}

func (w *wavOutput) quantize(v float32) int {
	x := math.Max(-1, math.Min(1, float64(v)))
	return int(math.Round(x * w.maxVal))
}

// Close finalizes the header and closes the file.
func (w *wavOutput) Close() error {
	if err := w.encoder.Close(); err != nil {
		_ = w.file.Close()
		return err
	}
	return w.file.Close()
}
