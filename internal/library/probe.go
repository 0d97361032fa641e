package library

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"os/exec"
	"strconv"
	"time"

	"github.com/castawaytv/castaway/internal/logger"
)

const probeTimeout = 30 * time.Second

var (
	ErrFFprobeNotFound = errors.New("ffprobe not found in PATH")
	ErrInvalidFile     = errors.New("invalid or corrupted video file")
	ErrProbeTimeout    = errors.New("ffprobe execution timed out")
)

// probeResult is the JSON shape ffprobe emits with -show_format,
// -show_streams and -show_chapters
type probeResult struct {
	Streams []probeStream `json:"streams"`
	Format  probeFormat   `json:"format"`
	Chapters []probeChapter `json:"chapters"`
}

type probeStream struct {
	CodecName string `json:"codec_name"`
	CodecType string `json:"codec_type"`
	Width     int    `json:"width,omitempty"`
	Height    int    `json:"height,omitempty"`
	Duration  string `json:"duration,omitempty"`
}

type probeFormat struct {
	Duration string `json:"duration"`
	Size     string `json:"size"`
}

type probeChapter struct {
	StartTime string `json:"start_time"`
	EndTime   string `json:"end_time"`
}

// FileMetadata is the probed metadata the scanner stores
type FileMetadata struct {
	Duration     int64 // seconds
	VideoCodec   string
	AudioCodec   string
	Resolution   string
	FileSize     int64
	ChapterMarks []int64 // chapter start offsets in seconds
}

// CheckFFprobeInstalled reports whether ffprobe is available in PATH
func CheckFFprobeInstalled() error {
	if _, err := exec.LookPath("ffprobe"); err != nil {
		return ErrFFprobeNotFound
	}
	return nil
}

// ProbeFile runs ffprobe on a file and returns its metadata. Chapter
// marks are collected so filler injection can break at chapter
// boundaries.
func ProbeFile(ctx context.Context, filePath string) (*FileMetadata, error) {
	if err := CheckFFprobeInstalled(); err != nil {
		return nil, err
	}

	ctx, cancel := context.WithTimeout(ctx, probeTimeout)
	defer cancel()

	cmd := exec.CommandContext(ctx,
		"ffprobe",
		"-v", "quiet",
		"-print_format", "json",
		"-show_format",
		"-show_streams",
		"-show_chapters",
		filePath,
	)

	output, err := cmd.Output()
	if err != nil {
		if ctx.Err() == context.DeadlineExceeded {
			logger.Log.Error().
				Str("file_path", filePath).
				Msg("FFprobe execution timed out")
			return nil, ErrProbeTimeout
		}
		if exitErr, ok := err.(*exec.ExitError); ok && len(exitErr.Stderr) > 0 {
			return nil, fmt.Errorf("%w: %s", ErrInvalidFile, string(exitErr.Stderr))
		}
		return nil, fmt.Errorf("%w: %v", ErrInvalidFile, err)
	}

	var result probeResult
	if err := json.Unmarshal(output, &result); err != nil {
		return nil, fmt.Errorf("failed to parse ffprobe output: %w", err)
	}

	metadata, err := extractMetadata(&result)
	if err != nil {
		return nil, err
	}

	logger.Log.Debug().
		Str("file_path", filePath).
		Int64("duration", metadata.Duration).
		Str("video_codec", metadata.VideoCodec).
		Int("chapters", len(metadata.ChapterMarks)).
		Msg("Probed video file")

	return metadata, nil
}

func extractMetadata(result *probeResult) (*FileMetadata, error) {
	metadata := &FileMetadata{}

	for i := range result.Streams {
		stream := &result.Streams[i]
		switch stream.CodecType {
		case "video":
			if metadata.VideoCodec == "" {
				metadata.VideoCodec = stream.CodecName
				if stream.Width > 0 && stream.Height > 0 {
					metadata.Resolution = fmt.Sprintf("%dx%d", stream.Width, stream.Height)
				}
				if d, err := strconv.ParseFloat(stream.Duration, 64); err == nil {
					metadata.Duration = int64(d)
				}
			}
		case "audio":
			if metadata.AudioCodec == "" {
				metadata.AudioCodec = stream.CodecName
			}
		}
	}

	if metadata.Duration == 0 && result.Format.Duration != "" {
		if d, err := strconv.ParseFloat(result.Format.Duration, 64); err == nil {
			metadata.Duration = int64(d)
		}
	}

	if size, err := strconv.ParseInt(result.Format.Size, 10, 64); err == nil {
		metadata.FileSize = size
	}

	for _, chapter := range result.Chapters {
		start, err := strconv.ParseFloat(chapter.StartTime, 64)
		if err != nil {
			continue
		}
		// chapter 0 at offset 0 is not a usable break point
		if int64(start) > 0 {
			metadata.ChapterMarks = append(metadata.ChapterMarks, int64(start))
		}
	}

	if metadata.Duration == 0 {
		return nil, fmt.Errorf("%w: could not determine video duration", ErrInvalidFile)
	}

	return metadata, nil
}
