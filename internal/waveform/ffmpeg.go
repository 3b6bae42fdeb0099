package waveform

import (
	"context"
	"encoding/binary"
	"encoding/json"
	"fmt"
	"log/slog"
	"os"
	"os/exec"
	"path/filepath"
	"time"
)

const (
	decodeRate       = 8000 // mono s16le decode rate for peak extraction
	samplesPerBucket = 800  // 10 peak buckets per second
	computeTimeout   = 2 * time.Minute
)

// Peaks is the waveform summary stored per source file.
type Peaks struct {
	SampleRate       int       `json:"sampleRate"`
	SamplesPerBucket int       `json:"samplesPerBucket"`
	Buckets          []float64 `json:"buckets"`
}

// Resolver maps a file id to its on-disk media path.
type Resolver func(fileID string) (string, error)

// NewFFmpegComputer returns a Computer that decodes each invalidated
// source file with ffmpeg and writes peak buckets to outDir as
// <fileID>.json. Clip ids in the batch are logged only; peaks are per
// file, so every clip of the file shares the same output.
func NewFFmpegComputer(ffmpegPath string, resolve Resolver, outDir string, log *slog.Logger) Computer {
	if err := os.MkdirAll(outDir, 0755); err != nil {
		log.Error("create waveform dir", "error", err, "dir", outDir)
	}

	return func(batch map[string][]string) {
		for fileID, clipIDs := range batch {
			path, err := resolve(fileID)
			if err != nil {
				log.Warn("waveform source missing", "file", fileID, "error", err)
				continue
			}

			peaks, err := extractPeaks(ffmpegPath, path)
			if err != nil {
				log.Error("extract waveform peaks", "file", fileID, "error", err)
				continue
			}

			out := filepath.Join(outDir, fileID+".json")
			if err := writePeaks(out, peaks); err != nil {
				log.Error("write waveform peaks", "file", fileID, "error", err)
				continue
			}

			log.Debug("waveform recomputed", "file", fileID, "clips", len(clipIDs), "buckets", len(peaks.Buckets))
		}
	}
}

func extractPeaks(ffmpegPath, mediaPath string) (*Peaks, error) {
	ctx, cancel := context.WithTimeout(context.Background(), computeTimeout)
	defer cancel()

	cmd := exec.CommandContext(ctx, ffmpegPath,
		"-i", mediaPath,
		"-vn",
		"-ac", "1",
		"-ar", fmt.Sprint(decodeRate),
		"-f", "s16le",
		"pipe:1",
	)
	raw, err := cmd.Output()
	if err != nil {
		return nil, fmt.Errorf("ffmpeg decode: %w", err)
	}

	peaks := &Peaks{SampleRate: decodeRate, SamplesPerBucket: samplesPerBucket}
	var peak int16
	count := 0
	for i := 0; i+1 < len(raw); i += 2 {
		s := int16(binary.LittleEndian.Uint16(raw[i:]))
		if s == -32768 {
			s = 32767
		} else if s < 0 {
			s = -s
		}
		if s > peak {
			peak = s
		}
		count++
		if count == samplesPerBucket {
			peaks.Buckets = append(peaks.Buckets, float64(peak)/32767)
			peak, count = 0, 0
		}
	}
	if count > 0 {
		peaks.Buckets = append(peaks.Buckets, float64(peak)/32767)
	}

	return peaks, nil
}

func writePeaks(path string, peaks *Peaks) error {
	data, err := json.Marshal(peaks)
	if err != nil {
		return err
	}
	return os.WriteFile(path, data, 0644)
}
