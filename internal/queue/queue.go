package queue

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"path/filepath"
	"sync"

	"github.com/fetchbox/fetchbox/internal/config"
	"github.com/fetchbox/fetchbox/internal/job"
	"github.com/fetchbox/fetchbox/internal/media"
	"github.com/fetchbox/fetchbox/internal/webhook"
)

// Engine is the external extraction collaborator. Given a URL it probes
// metadata and produces media files on disk; format selection and transcoding
// are its problem.
type Engine interface {
	Probe(ctx context.Context, url string) (title string, err error)
	DownloadVideo(ctx context.Context, url, outPath string, onProgress func(string)) error
	DownloadAudio(ctx context.Context, url, outTemplate string, onProgress func(string)) error
}

// SSEEvent represents a Server-Sent Events event.
type SSEEvent struct {
	Event string // "status", "progress", "result"
	Data  string // JSON string
}

// Queue owns job submission and the bounded worker pool that executes
// downloads. Submission never blocks on download work: it creates the record,
// pushes the id onto a buffered channel and returns; a fixed number of workers
// drain the channel.
type Queue struct {
	jobs   chan string
	store  *job.Store
	engine Engine
	subs   map[string][]chan SSEEvent
	mu     sync.RWMutex
	cfg    *config.Config
}

// New creates a Queue backed by the given store and extraction engine.
func New(cfg *config.Config, store *job.Store, engine Engine) *Queue {
	return &Queue{
		jobs:   make(chan string, cfg.QueueSize),
		store:  store,
		engine: engine,
		subs:   make(map[string][]chan SSEEvent),
		cfg:    cfg,
	}
}

// Start launches cfg.Concurrency worker goroutines. The ceiling caps how many
// extractions hit the network at once; jobs beyond it stay pending until a
// slot frees.
func (q *Queue) Start(ctx context.Context) {
	for range q.cfg.Concurrency {
		go q.runWorker(ctx)
	}
}

// Submit validates nothing beyond what the caller already did: it creates the
// pending record and enqueues it, returning the new job id immediately.
func (q *Queue) Submit(url, callbackURL string) (string, error) {
	id := q.store.Create(url, callbackURL)
	select {
	case q.jobs <- id:
		return id, nil
	default:
		q.store.Delete(id)
		return "", fmt.Errorf("queue full: cannot enqueue job %s", id)
	}
}

// Cleanup deletes every artifact file prefixed by the job id, then drops the
// record. It is idempotent: a second call (or a call for an unknown id) is a
// no-op that still succeeds. A cleanup racing an in-flight job may delete
// files the worker is still writing; that is a known limitation.
func (q *Queue) Cleanup(id string) error {
	if err := media.RemoveJobFiles(q.cfg.DownloadDir, id); err != nil {
		return fmt.Errorf("remove job files: %w", err)
	}
	q.store.Delete(id)
	return nil
}

// Subscribe creates a buffered SSE channel for a job and returns it.
func (q *Queue) Subscribe(jobID string) chan SSEEvent {
	ch := make(chan SSEEvent, 64)
	q.mu.Lock()
	q.subs[jobID] = append(q.subs[jobID], ch)
	q.mu.Unlock()
	return ch
}

// Unsubscribe removes an SSE channel from the map.
func (q *Queue) Unsubscribe(jobID string, ch chan SSEEvent) {
	q.mu.Lock()
	defer q.mu.Unlock()

	chans := q.subs[jobID]
	for i, c := range chans {
		if c == ch {
			q.subs[jobID] = append(chans[:i], chans[i+1:]...)
			break
		}
	}
	if len(q.subs[jobID]) == 0 {
		delete(q.subs, jobID)
	}
}

// runWorker is a worker loop: dequeues job ids and processes them.
func (q *Queue) runWorker(ctx context.Context) {
	for {
		select {
		case <-ctx.Done():
			return
		case jobID := <-q.jobs:
			q.processJob(ctx, jobID)
		}
	}
}

// processJob drives one job through its phases in strict order:
// probing → downloading_video → downloading_audio → resolve → completed.
// Every failure, including a panic, ends in the error status; nothing
// propagates out of the pool.
func (q *Queue) processJob(ctx context.Context, jobID string) {
	defer func() {
		if r := recover(); r != nil {
			slog.Error("worker panic", "job_id", jobID, "panic", r)
			q.fail(jobID, fmt.Sprintf("internal error: %v", r))
		}
	}()

	j, ok := q.store.Get(jobID)
	if !ok {
		// Cleaned up while still queued.
		slog.Info("worker: job gone before start", "job_id", jobID)
		return
	}

	q.setStatus(jobID, job.StatusProbing)

	title, err := q.engine.Probe(ctx, j.URL)
	if err != nil {
		q.fail(jobID, err.Error())
		return
	}
	q.store.SetTitle(jobID, title)

	// Paths are namespaced by job id and sanitized title so concurrent jobs
	// never collide on disk.
	stem := media.SanitizeTitle(title)
	videoPath := filepath.Join(q.cfg.DownloadDir, jobID+"_"+stem+".mp4")
	audioTemplate := filepath.Join(q.cfg.DownloadDir, jobID+"_"+stem+".%(ext)s")

	onProgress := func(percent string) {
		q.store.SetProgress(jobID, percent)
		data, _ := json.Marshal(map[string]string{"progress": percent})
		q.notify(jobID, SSEEvent{Event: "progress", Data: string(data)})
	}

	q.setStatus(jobID, job.StatusDownloadingVideo)
	if err := q.engine.DownloadVideo(ctx, j.URL, videoPath, onProgress); err != nil {
		q.fail(jobID, err.Error())
		return
	}

	// The audio phase tracks its own counter; the two phases deliberately do
	// not share a single progress scale.
	q.setStatus(jobID, job.StatusDownloadingAudio)
	q.store.SetProgress(jobID, "0%")
	if err := q.engine.DownloadAudio(ctx, j.URL, audioTemplate, onProgress); err != nil {
		q.fail(jobID, err.Error())
		return
	}

	// Resolve both artifacts independently. A missing file is not a job
	// error: the job completes with that artifact absent.
	resolver := &media.Resolver{Dir: q.cfg.DownloadDir}
	videoURL := ""
	if name, found := resolver.Resolve(jobID, stem, ".mp4"); found {
		videoURL = "/downloads/" + name
	}
	audioURL := ""
	if name, found := resolver.Resolve(jobID, stem, ".mp3"); found {
		audioURL = "/downloads/" + name
	}

	q.store.Complete(jobID, videoURL, audioURL)
	slog.Info("job completed", "job_id", jobID, "title", title,
		"video", videoURL != "", "audio", audioURL != "")
	q.finalize(ctx, jobID)
}

func (q *Queue) setStatus(jobID string, status job.Status) {
	q.store.SetStatus(jobID, status)
	data, _ := json.Marshal(map[string]string{"status": string(status)})
	q.notify(jobID, SSEEvent{Event: "status", Data: string(data)})
}

func (q *Queue) fail(jobID, detail string) {
	slog.Warn("job failed", "job_id", jobID, "detail", detail)
	q.store.Fail(jobID, detail)
	q.finalize(context.Background(), jobID)
}

// finalize publishes the terminal result to SSE subscribers and fires the
// completion webhook when one was requested.
func (q *Queue) finalize(ctx context.Context, jobID string) {
	j, ok := q.store.Get(jobID)
	if !ok {
		return
	}

	data, _ := json.Marshal(j)
	q.notifyAndClose(jobID, SSEEvent{Event: "result", Data: string(data)})

	if j.CallbackURL != "" {
		webhook.Send(context.WithoutCancel(ctx), j.CallbackURL, data)
	}
}

// notify sends an event to all subscribers of a job without blocking.
func (q *Queue) notify(jobID string, event SSEEvent) {
	q.mu.RLock()
	chans := q.subs[jobID]
	q.mu.RUnlock()

	for _, ch := range chans {
		select {
		case ch <- event:
		default:
		}
	}
}

// notifyAndClose sends the final event and closes all channels for the job.
func (q *Queue) notifyAndClose(jobID string, event SSEEvent) {
	q.mu.Lock()
	chans := q.subs[jobID]
	delete(q.subs, jobID)
	q.mu.Unlock()

	for _, ch := range chans {
		select {
		case ch <- event:
		default:
		}
		close(ch)
	}
}
