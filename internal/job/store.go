package job

import (
	"sync"
	"time"
)

// Store is a concurrent-safe in-memory map of jobs keyed by id. It is the
// single source of truth for job state; nothing survives a process restart.
//
// Each record has exactly one writer (the worker running the job), but reads
// may come from any request goroutine, so every access goes through the store
// mutex for visibility. Get hands out copies so callers never alias a record
// that a worker is still mutating.
type Store struct {
	mu   sync.RWMutex
	jobs map[string]*Job
}

// NewStore creates an empty Store.
func NewStore() *Store {
	return &Store{jobs: make(map[string]*Job)}
}

// Create inserts a new pending job for the given URL and returns its id.
func (s *Store) Create(url, callbackURL string) string {
	j := &Job{
		ID:          NewID(),
		URL:         url,
		Status:      StatusPending,
		CallbackURL: callbackURL,
		CreatedAt:   time.Now().UTC(),
	}

	s.mu.Lock()
	s.jobs[j.ID] = j
	s.mu.Unlock()
	return j.ID
}

// Get returns a snapshot of the job, or false if the id is unknown.
func (s *Store) Get(id string) (Job, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	j, ok := s.jobs[id]
	if !ok {
		return Job{}, false
	}
	return *j, true
}

// Delete removes the job record. Unknown ids are a no-op.
func (s *Store) Delete(id string) {
	s.mu.Lock()
	delete(s.jobs, id)
	s.mu.Unlock()
}

// Len returns the number of live records.
func (s *Store) Len() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.jobs)
}

// SetStatus advances the job to the given status. Transitions only move
// forward along pending → probing → downloading_video → downloading_audio →
// completed, with error reachable from any non-terminal state; the single
// owning worker enforces that order by calling phases sequentially.
func (s *Store) SetStatus(id string, status Status) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if j, ok := s.jobs[id]; ok {
		j.Status = status
	}
}

// SetProgress records the last progress string reported by the engine.
func (s *Store) SetProgress(id, progress string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if j, ok := s.jobs[id]; ok {
		j.Progress = progress
	}
}

// SetTitle records the probed media title.
func (s *Store) SetTitle(id, title string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if j, ok := s.jobs[id]; ok {
		j.Title = title
	}
}

// Complete marks the job completed with the resolved artifact locations.
// Either URL may be empty when the corresponding file was not found on disk;
// that is a valid outcome, not an error.
func (s *Store) Complete(id, videoURL, audioURL string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if j, ok := s.jobs[id]; ok {
		j.Status = StatusCompleted
		j.VideoURL = videoURL
		j.AudioURL = audioURL
		j.Progress = "100%"
	}
}

// Fail moves the job to the error state with a human-readable detail string.
// The detail is descriptive only; callers must not parse it.
func (s *Store) Fail(id, detail string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if j, ok := s.jobs[id]; ok {
		j.Status = StatusError
		j.Error = detail
	}
}
