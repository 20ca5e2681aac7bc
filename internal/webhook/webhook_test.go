package webhook

import "testing"

func TestValidateURL(t *testing.T) {
	tests := []struct {
		name    string
		url     string
		wantErr bool
	}{
		{
			name:    "valid public IP",
			url:     "http://93.184.216.34/hook",
			wantErr: false,
		},
		{
			name:    "invalid scheme ftp",
			url:     "ftp://example.com/hook",
			wantErr: true,
		},
		{
			name:    "loopback IP blocked",
			url:     "http://127.0.0.1/hook",
			wantErr: true,
		},
		{
			name:    "private IP blocked",
			url:     "http://192.168.1.1/hook",
			wantErr: true,
		},
		{
			name:    "link-local IP blocked (AWS metadata)",
			url:     "http://169.254.169.254/hook",
			wantErr: true,
		},
		{
			name:    "garbled URL",
			url:     "://not a valid url%%",
			wantErr: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := validateURL(tt.url)
			if (err != nil) != tt.wantErr {
				t.Errorf("validateURL(%q) error = %v, wantErr %v", tt.url, err, tt.wantErr)
			}
		})
	}
}

func TestJitter_WithinBounds(t *testing.T) {
	for attempt := 1; attempt <= retryAttempts; attempt++ {
		for range 20 {
			d := jitter(attempt)
			if d < 0 || d > retryCap {
				t.Fatalf("jitter(%d) = %v, out of [0, %v]", attempt, d, retryCap)
			}
		}
	}
}

func TestJitter_CapApplies(t *testing.T) {
	// A large attempt number must never exceed the cap.
	for range 50 {
		if d := jitter(20); d > retryCap {
			t.Fatalf("jitter(20) = %v exceeds cap %v", d, retryCap)
		}
	}
}
