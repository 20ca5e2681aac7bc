package job

import (
	"errors"
	"fmt"
	"net/url"
	"strings"
	"time"

	"github.com/google/uuid"
)

type Status string

const (
	StatusPending          Status = "pending"
	StatusProbing          Status = "probing"
	StatusDownloadingVideo Status = "downloading_video"
	StatusDownloadingAudio Status = "downloading_audio"
	StatusCompleted        Status = "completed"
	StatusError            Status = "error"
)

// IsTerminal returns true for statuses that represent a final state.
func (s Status) IsTerminal() bool {
	return s == StatusCompleted || s == StatusError
}

// IsDownloading returns true while the engine is transferring media.
func (s Status) IsDownloading() bool {
	return s == StatusDownloadingVideo || s == StatusDownloadingAudio
}

// Job tracks one download request from submission to a terminal state.
// ID and URL never change after creation; everything else is written by the
// single worker that owns the job and read by pollers through the Store.
type Job struct {
	ID          string    `json:"job_id"`
	URL         string    `json:"url"`
	Status      Status    `json:"status"`
	Progress    string    `json:"progress,omitempty"`
	Title       string    `json:"title,omitempty"`
	VideoURL    string    `json:"video_url,omitempty"`
	AudioURL    string    `json:"audio_url,omitempty"`
	Error       string    `json:"error,omitempty"`
	CallbackURL string    `json:"callback_url,omitempty"`
	CreatedAt   time.Time `json:"created_at"`
}

// NewID returns a short opaque job identifier: the first 8 hex characters of a
// random UUID. Uniqueness comes from the generator, it is not checked against
// the store.
func NewID() string {
	return uuid.New().String()[:8]
}

// SubmitRequest is the payload used to submit a new download.
type SubmitRequest struct {
	URL         string `json:"url"`
	CallbackURL string `json:"callback_url,omitempty"`
}

// Validate trims and checks the media URL. allowedDomains is the optional
// domain policy: empty means any host is accepted; otherwise the URL host must
// equal or be a subdomain of one of the entries. The policy ships disabled.
func (r *SubmitRequest) Validate(allowedDomains []string) error {
	r.URL = strings.TrimSpace(r.URL)
	if r.URL == "" {
		return errors.New("url must not be empty")
	}

	if len(allowedDomains) == 0 {
		return nil
	}

	u, err := url.Parse(r.URL)
	if err != nil {
		return fmt.Errorf("invalid url: %w", err)
	}
	host := u.Hostname()
	for _, d := range allowedDomains {
		if host == d || strings.HasSuffix(host, "."+d) {
			return nil
		}
	}
	return fmt.Errorf("host %q is not an allowed domain", host)
}
