package engine

import (
	"bufio"
	"bytes"
	"context"
	"fmt"
	"os/exec"
	"regexp"
	"strings"
)

// videoFormat prefers widely compatible H.264 video muxed with m4a audio in a
// single mp4, degrading through less constrained selections down to "best".
const videoFormat = "bestvideo[vcodec^=avc1][ext=mp4]+bestaudio[ext=m4a]/" +
	"bestvideo[vcodec^=avc1]+bestaudio/" +
	"bestvideo[ext=mp4]+bestaudio[ext=m4a]/" +
	"best[ext=mp4]/best"

// percentRe matches the percentage token in yt-dlp "[download]  42.3% of ..."
// progress lines.
var percentRe = regexp.MustCompile(`(\d{1,3}(?:\.\d+)?)%`)

// YtDlp invokes the external yt-dlp binary. It is the only place the process
// shells out; everything above it sees plain Go errors and progress strings.
//
// No timeout is applied to the engine: a hung extraction holds its worker slot
// until the process exits or the service shuts down.
type YtDlp struct {
	Path string
}

// New returns an invoker for the yt-dlp binary at path ("yt-dlp" resolves via
// PATH).
func New(path string) *YtDlp {
	return &YtDlp{Path: path}
}

// Probe fetches the canonical media title without downloading anything. On
// failure the returned error carries the engine's stderr verbatim so the
// failure message can be shown to the client as-is.
func (y *YtDlp) Probe(ctx context.Context, url string) (string, error) {
	cmd := exec.CommandContext(ctx, y.Path,
		"--skip-download",
		"--no-warnings",
		"--print", "%(title)s",
		url,
	)

	var out, stderr bytes.Buffer
	cmd.Stdout = &out
	cmd.Stderr = &stderr

	if err := cmd.Run(); err != nil {
		if ctx.Err() != nil {
			return "", ctx.Err()
		}
		return "", engineError("probe", err, stderr.String())
	}

	title := strings.TrimSpace(out.String())
	if title == "" {
		title = "video"
	}
	return title, nil
}

// DownloadVideo fetches the media at url as an H.264 mp4 written to outPath,
// forwarding progress percentages to onProgress.
func (y *YtDlp) DownloadVideo(ctx context.Context, url, outPath string, onProgress func(string)) error {
	args := []string{
		"-f", videoFormat,
		"--merge-output-format", "mp4",
		"-o", outPath,
		"--newline",
		"--no-warnings",
		url,
	}
	return y.download(ctx, args, onProgress)
}

// DownloadAudio fetches the best available audio for url and transcodes it to
// mp3 at 192K. outTemplate is a yt-dlp output template (the pre-transcode
// extension is the engine's choice, so the template must leave it open, e.g.
// "dir/id_title.%(ext)s").
func (y *YtDlp) DownloadAudio(ctx context.Context, url, outTemplate string, onProgress func(string)) error {
	args := []string{
		"-f", "bestaudio/best",
		"-x",
		"--audio-format", "mp3",
		"--audio-quality", "192K",
		"-o", outTemplate,
		"--newline",
		"--no-warnings",
		url,
	}
	return y.download(ctx, args, onProgress)
}

// download runs the engine and scans its stdout line by line, forwarding any
// percentage token it finds. A clean exit reports "100%" as the finished
// signal.
func (y *YtDlp) download(ctx context.Context, args []string, onProgress func(string)) error {
	cmd := exec.CommandContext(ctx, y.Path, args...)

	var stderr bytes.Buffer
	cmd.Stderr = &stderr

	stdout, err := cmd.StdoutPipe()
	if err != nil {
		return fmt.Errorf("stdout pipe: %w", err)
	}

	if err := cmd.Start(); err != nil {
		return fmt.Errorf("start %s: %w", y.Path, err)
	}

	scanner := bufio.NewScanner(stdout)
	for scanner.Scan() {
		line := scanner.Text()
		if onProgress == nil {
			continue
		}
		if m := percentRe.FindStringSubmatch(line); m != nil {
			onProgress(m[1] + "%")
		}
	}

	if err := cmd.Wait(); err != nil {
		if ctx.Err() != nil {
			return ctx.Err()
		}
		return engineError("download", err, stderr.String())
	}

	if onProgress != nil {
		onProgress("100%")
	}
	return nil
}

// engineError wraps an exec failure, preferring the engine's own stderr
// message since that is what the user needs to see (private video, bad URL,
// network failure and so on).
func engineError(phase string, err error, stderr string) error {
	detail := strings.TrimSpace(stderr)
	if detail == "" {
		return fmt.Errorf("yt-dlp %s failed: %w", phase, err)
	}
	return fmt.Errorf("yt-dlp %s failed: %s", phase, detail)
}
