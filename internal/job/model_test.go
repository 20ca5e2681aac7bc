package job

import "testing"

func TestIsTerminal(t *testing.T) {
	t.Parallel()
	tests := []struct {
		status   Status
		terminal bool
	}{
		{StatusPending, false},
		{StatusProbing, false},
		{StatusDownloadingVideo, false},
		{StatusDownloadingAudio, false},
		{StatusCompleted, true},
		{StatusError, true},
	}
	for _, tt := range tests {
		if got := tt.status.IsTerminal(); got != tt.terminal {
			t.Errorf("Status(%q).IsTerminal() = %v, want %v", tt.status, got, tt.terminal)
		}
	}
}

func TestIsDownloading(t *testing.T) {
	t.Parallel()
	tests := []struct {
		status      Status
		downloading bool
	}{
		{StatusPending, false},
		{StatusProbing, false},
		{StatusDownloadingVideo, true},
		{StatusDownloadingAudio, true},
		{StatusCompleted, false},
		{StatusError, false},
	}
	for _, tt := range tests {
		if got := tt.status.IsDownloading(); got != tt.downloading {
			t.Errorf("Status(%q).IsDownloading() = %v, want %v", tt.status, got, tt.downloading)
		}
	}
}

func TestNewID_ShortAndUnique(t *testing.T) {
	t.Parallel()
	seen := make(map[string]bool)
	for range 100 {
		id := NewID()
		if len(id) != 8 {
			t.Fatalf("len(id) = %d, want 8", len(id))
		}
		if seen[id] {
			t.Fatalf("duplicate id %q", id)
		}
		seen[id] = true
	}
}

func TestValidate_EmptyURL(t *testing.T) {
	t.Parallel()
	for _, raw := range []string{"", "   ", "\t\n"} {
		r := &SubmitRequest{URL: raw}
		if err := r.Validate(nil); err == nil {
			t.Errorf("expected error for URL %q, got nil", raw)
		}
	}
}

func TestValidate_TrimsURL(t *testing.T) {
	t.Parallel()
	r := &SubmitRequest{URL: "  https://example.com/watch  "}
	if err := r.Validate(nil); err != nil {
		t.Fatalf("Validate: %v", err)
	}
	if r.URL != "https://example.com/watch" {
		t.Errorf("URL = %q, want trimmed", r.URL)
	}
}

func TestValidate_DomainPolicyOffByDefault(t *testing.T) {
	t.Parallel()
	r := &SubmitRequest{URL: "https://anything.example.org/clip"}
	if err := r.Validate(nil); err != nil {
		t.Errorf("no policy configured, want any URL accepted: %v", err)
	}
}

func TestValidate_DomainPolicy(t *testing.T) {
	t.Parallel()
	allowed := []string{"youtube.com", "youtu.be"}
	tests := []struct {
		name    string
		url     string
		wantErr bool
	}{
		{"exact host", "https://youtube.com/watch?v=x", false},
		{"subdomain", "https://www.youtube.com/watch?v=x", false},
		{"short host", "https://youtu.be/x", false},
		{"other host", "https://example.com/watch", true},
		{"suffix trick", "https://notyoutube.com/watch", true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			r := &SubmitRequest{URL: tt.url}
			err := r.Validate(allowed)
			if (err != nil) != tt.wantErr {
				t.Errorf("Validate(%q) error = %v, wantErr %v", tt.url, err, tt.wantErr)
			}
		})
	}
}
