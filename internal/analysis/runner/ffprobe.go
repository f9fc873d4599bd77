package runner

import (
	"context"
	"math"
	"strconv"
	"strings"

	"github.com/pkg/errors"
	"github.com/sara-ai/checkin-service/internal/analysis"
)

type ffprobeOutput struct {
	Streams []struct {
		CodecType    string `json:"codec_type"`
		AvgFrameRate string `json:"avg_frame_rate"`
		RFrameRate   string `json:"r_frame_rate"`
		NbFrames     string `json:"nb_frames"`
		Duration     string `json:"duration"`
	} `json:"streams"`
	Format struct {
		Duration string `json:"duration"`
	} `json:"format"`
}

// FFProbe reads container properties with ffprobe.
type FFProbe struct {
	cmd *Command
}

func NewFFProbe(binary string) *FFProbe {
	return &FFProbe{cmd: NewCommand(binary, "-v", "error", "-show_streams", "-show_format", "-of", "json")}
}

func (f *FFProbe) Probe(ctx context.Context, path string) (analysis.MediaInfo, error) {
	var out ffprobeOutput
	if err := f.cmd.RunJSON(ctx, &out, path); err != nil {
		return analysis.MediaInfo{}, err
	}
	return parseProbe(out)
}

func parseProbe(out ffprobeOutput) (analysis.MediaInfo, error) {
	var info analysis.MediaInfo
	videoFound := false

	for _, s := range out.Streams {
		switch s.CodecType {
		case "audio":
			info.HasAudio = true
		case "video":
			if videoFound {
				continue
			}
			videoFound = true

			info.FPS = parseRate(s.AvgFrameRate)
			if info.FPS == 0 {
				info.FPS = parseRate(s.RFrameRate)
			}
			info.TotalFrames, _ = strconv.Atoi(s.NbFrames)
			info.DurationSeconds, _ = strconv.ParseFloat(s.Duration, 64)
		}
	}

	if !videoFound {
		return analysis.MediaInfo{}, errors.New("no video stream")
	}

	if info.DurationSeconds == 0 {
		info.DurationSeconds, _ = strconv.ParseFloat(out.Format.Duration, 64)
	}
	// webm and mkv do not store a frame count
	if info.TotalFrames == 0 && info.FPS > 0 {
		info.TotalFrames = int(math.Round(info.DurationSeconds * info.FPS))
	}
	return info, nil
}

// parseRate reads ffprobe rationals such as "30000/1001".
func parseRate(rate string) float64 {
	num, den, found := strings.Cut(rate, "/")
	n, err := strconv.ParseFloat(num, 64)
	if err != nil {
		return 0
	}
	if !found {
		return n
	}
	d, err := strconv.ParseFloat(den, 64)
	if err != nil || d == 0 {
		return 0
	}
	return n / d
}
