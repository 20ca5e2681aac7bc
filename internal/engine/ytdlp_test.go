package engine

import (
	"context"
	"os"
	"path/filepath"
	"strings"
	"testing"
)

// writeScript drops an executable shell script into a temp dir and returns its
// path. Tests use scripts in place of the real yt-dlp binary.
func writeScript(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "mock-ytdlp.sh")
	if err := os.WriteFile(path, []byte(content), 0o755); err != nil {
		t.Fatalf("WriteFile: %v", err)
	}
	return path
}

func TestProbe_ReturnsTitle(t *testing.T) {
	t.Parallel()
	path := writeScript(t, "#!/bin/sh\necho 'Never Gonna Give You Up'\n")

	y := New(path)
	title, err := y.Probe(context.Background(), "https://example.com/v")
	if err != nil {
		t.Fatalf("Probe: %v", err)
	}
	if title != "Never Gonna Give You Up" {
		t.Errorf("title = %q", title)
	}
}

func TestProbe_EmptyTitleFallsBack(t *testing.T) {
	t.Parallel()
	path := writeScript(t, "#!/bin/sh\necho ''\n")

	y := New(path)
	title, err := y.Probe(context.Background(), "https://example.com/v")
	if err != nil {
		t.Fatalf("Probe: %v", err)
	}
	if title != "video" {
		t.Errorf("title = %q, want fallback \"video\"", title)
	}
}

func TestProbe_FailureCarriesStderr(t *testing.T) {
	t.Parallel()
	path := writeScript(t, "#!/bin/sh\necho 'ERROR: Private video' >&2\nexit 1\n")

	y := New(path)
	_, err := y.Probe(context.Background(), "https://example.com/v")
	if err == nil {
		t.Fatal("expected error, got nil")
	}
	// The engine's own message must survive verbatim so it can be shown to
	// the client.
	if !strings.Contains(err.Error(), "ERROR: Private video") {
		t.Errorf("error = %q, want engine stderr included", err)
	}
}

func TestProbe_ContextCancelled(t *testing.T) {
	t.Parallel()
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	path := writeScript(t, "#!/bin/sh\nsleep 10\n")
	y := New(path)
	if _, err := y.Probe(ctx, "https://example.com/v"); err == nil {
		t.Fatal("expected error when context is cancelled, got nil")
	}
}

func TestDownloadVideo_ForwardsProgress(t *testing.T) {
	t.Parallel()
	path := writeScript(t, `#!/bin/sh
echo '[download] Destination: out.mp4'
echo '[download]  10.0% of 10.00MiB at 1.00MiB/s ETA 00:09'
echo '[download]  55.5% of 10.00MiB at 1.00MiB/s ETA 00:04'
echo '[download] 100% of 10.00MiB in 00:10'
`)

	y := New(path)
	var seen []string
	err := y.DownloadVideo(context.Background(), "https://example.com/v", "out.mp4", func(p string) {
		seen = append(seen, p)
	})
	if err != nil {
		t.Fatalf("DownloadVideo: %v", err)
	}

	want := []string{"10.0%", "55.5%", "100%", "100%"} // trailing 100% is the finished signal
	if len(seen) != len(want) {
		t.Fatalf("progress updates = %v, want %v", seen, want)
	}
	for i := range want {
		if seen[i] != want[i] {
			t.Errorf("progress[%d] = %q, want %q", i, seen[i], want[i])
		}
	}
}

func TestDownloadAudio_FailureCarriesStderr(t *testing.T) {
	t.Parallel()
	path := writeScript(t, "#!/bin/sh\necho 'ERROR: ffmpeg not found' >&2\nexit 1\n")

	y := New(path)
	err := y.DownloadAudio(context.Background(), "https://example.com/v", "out.%(ext)s", nil)
	if err == nil {
		t.Fatal("expected error, got nil")
	}
	if !strings.Contains(err.Error(), "ERROR: ffmpeg not found") {
		t.Errorf("error = %q, want engine stderr included", err)
	}
}

func TestDownload_NilProgressCallback(t *testing.T) {
	t.Parallel()
	path := writeScript(t, "#!/bin/sh\necho '[download]  50.0% of 1.00MiB'\n")

	y := New(path)
	if err := y.DownloadVideo(context.Background(), "https://example.com/v", "out.mp4", nil); err != nil {
		t.Fatalf("DownloadVideo with nil callback: %v", err)
	}
}

func TestPercentRe(t *testing.T) {
	t.Parallel()
	tests := []struct {
		line string
		want string
	}{
		{"[download]  42.3% of 10.00MiB at 1.00MiB/s ETA 00:05", "42.3"},
		{"[download] 100% of 10.00MiB in 00:10", "100"},
		{"[download]   0.0% of ~5.00MiB", "0.0"},
		{"[download] Destination: file.mp4", ""},
		{"[ExtractAudio] Destination: file.mp3", ""},
	}
	for _, tt := range tests {
		m := percentRe.FindStringSubmatch(tt.line)
		got := ""
		if m != nil {
			got = m[1]
		}
		if got != tt.want {
			t.Errorf("percentRe(%q) = %q, want %q", tt.line, got, tt.want)
		}
	}
}
