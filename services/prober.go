package services

import (
	"encoding/json"
	"fmt"
	"os"
	"os/exec"
	"strconv"

	"videotheque/models"
)

// FFProbeService extracts technical metadata from video files by shelling
// out to ffprobe.
type FFProbeService struct {
	binary string
}

// NewFFProbeService creates a prober using the given ffprobe binary.
func NewFFProbeService(binary string) *FFProbeService {
	return &FFProbeService{binary: binary}
}

type ffprobeOutput struct {
	Streams []ffprobeStream `json:"streams"`
	Format  struct {
		Duration string `json:"duration"`
	} `json:"format"`
}

type ffprobeStream struct {
	CodecName string `json:"codec_name"`
	CodecType string `json:"codec_type"`
	Width     int    `json:"width"`
	Height    int    `json:"height"`
	Channels  int    `json:"channels"`
	Tags      struct {
		Language string `json:"language"`
	} `json:"tags"`
}

// Probe runs ffprobe on the file and collects stream descriptors along with
// the file's size and creation time.
func (p *FFProbeService) Probe(path string) (*models.FileMetadata, error) {
	stat, err := os.Stat(path)
	if err != nil {
		return nil, fmt.Errorf("failed to stat %s: %w", path, err)
	}

	cmd := exec.Command(p.binary,
		"-v", "quiet",
		"-print_format", "json",
		"-show_streams",
		"-show_format",
		path)

	out, err := cmd.Output()
	if err != nil {
		return nil, fmt.Errorf("ffprobe %s: %w", path, err)
	}

	var data ffprobeOutput
	if err := json.Unmarshal(out, &data); err != nil {
		return nil, fmt.Errorf("failed to parse ffprobe output: %w", err)
	}

	meta := &models.FileMetadata{
		FileSize:  stat.Size(),
		CreatedAt: stat.ModTime(),
		Audio:     []models.AudioTrack{},
		Subtitles: []string{},
	}

	for _, s := range data.Streams {
		switch s.CodecType {
		case "video":
			if meta.Video.Codec == "" {
				meta.Video = models.VideoStream{Width: s.Width, Height: s.Height, Codec: s.CodecName}
			}
		case "audio":
			meta.Audio = append(meta.Audio, models.AudioTrack{
				Channels: s.Channels,
				Codec:    s.CodecName,
				Lang:     s.Tags.Language,
			})
		case "subtitle":
			meta.Subtitles = append(meta.Subtitles, s.Tags.Language)
		}
	}

	if data.Format.Duration != "" {
		seconds, err := strconv.ParseFloat(data.Format.Duration, 64)
		if err == nil {
			meta.Duration = int(seconds)
		}
	}

	return meta, nil
}
