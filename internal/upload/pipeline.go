package upload

import (
	"context"
	"io"
	"os"
	"path/filepath"
	"sync"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/youruser/aerochat/internal/api"
)

// File statuses. pending and error are eligible for (re)submission;
// success and error are terminal for a given polling cycle.
const (
	StatusPending   = "pending"
	StatusUploading = "uploading"
	StatusSuccess   = "success"
	StatusError     = "error"
)

const defaultPollInterval = time.Second

// pollState tracks the lifecycle of the status poller.
type pollState int

const (
	pollIdle pollState = iota
	pollRunning
	pollSettled
)

// Source provides the bytes of a file queued for upload.
type Source interface {
	Name() string
	Size() int64
	Open() (io.ReadCloser, error)
}

// pathSource reads a file from disk.
type pathSource struct {
	path string
	size int64
}

// FromPath creates a Source backed by a file on disk.
func FromPath(path string) (Source, error) {
	info, err := os.Stat(path)
	if err != nil {
		return nil, err
	}
	return &pathSource{path: path, size: info.Size()}, nil
}

func (p *pathSource) Name() string { return filepath.Base(p.path) }
func (p *pathSource) Size() int64  { return p.size }
func (p *pathSource) Open() (io.ReadCloser, error) {
	return os.Open(p.path)
}

// File is one queued file with its upload progress.
type File struct {
	ID               string
	Source           Source
	Status           string
	Progress         float64
	Err              string
	UploadID         string
	ChunksCount      int
	TargetCollection string
}

// Client is the backend surface the pipeline needs.
type Client interface {
	Upload(ctx context.Context, parts []api.UploadPart, targetCollection string) (*api.UploadResponse, error)
	UploadStatus(ctx context.Context, uploadID string) (*api.UploadResponse, error)
}

// Pipeline manages a queue of files through submission and status
// polling. After a successful submission it polls the batch status on a
// fixed interval until every queued file reaches a terminal status.
type Pipeline struct {
	mu               sync.Mutex
	client           Client
	log              *zap.Logger
	interval         time.Duration
	files            []File
	targetCollection string
	isUploading      bool
	overallProgress  float64
	currentUploadID  string
	state            pollState
	stopPoll         chan struct{}
}

// NewPipeline creates an upload pipeline. interval <= 0 selects the
// default one-second polling interval.
func NewPipeline(client Client, interval time.Duration, log *zap.Logger) *Pipeline {
	if interval <= 0 {
		interval = defaultPollInterval
	}
	if log == nil {
		log = zap.NewNop()
	}
	return &Pipeline{
		client:   client,
		log:      log,
		interval: interval,
	}
}

// AddFiles queues sources as pending files. Queueing performs no
// validation; callers validate with the Validate helpers before adding.
func (p *Pipeline) AddFiles(sources ...Source) []File {
	p.mu.Lock()
	defer p.mu.Unlock()

	added := make([]File, 0, len(sources))
	for _, src := range sources {
		f := File{
			ID:     "file-" + uuid.New().String(),
			Source: src,
			Status: StatusPending,
		}
		p.files = append(p.files, f)
		added = append(added, f)
	}
	return added
}

// RemoveFile drops a file from the queue by id.
func (p *Pipeline) RemoveFile(id string) {
	p.mu.Lock()
	defer p.mu.Unlock()
	kept := p.files[:0]
	for _, f := range p.files {
		if f.ID != id {
			kept = append(kept, f)
		}
	}
	p.files = kept
}

// ClearCompleted drops successful files. Errored files stay queued so a
// later Upload can resubmit them.
func (p *Pipeline) ClearCompleted() {
	p.mu.Lock()
	defer p.mu.Unlock()
	kept := p.files[:0]
	for _, f := range p.files {
		if f.Status != StatusSuccess {
			kept = append(kept, f)
		}
	}
	p.files = kept
}

// SetTargetCollection sets the collection for subsequent submissions.
// "" and "auto-map" both mean server-side classification.
func (p *Pipeline) SetTargetCollection(name string) {
	p.mu.Lock()
	defer p.mu.Unlock()
	if name == api.AutoMapCollection {
		name = ""
	}
	p.targetCollection = name
}

// Files returns a copy of the queue.
func (p *Pipeline) Files() []File {
	p.mu.Lock()
	defer p.mu.Unlock()
	out := make([]File, len(p.files))
	copy(out, p.files)
	return out
}

// IsUploading reports whether a batch is being submitted or processed.
func (p *Pipeline) IsUploading() bool {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.isUploading
}

// OverallProgress returns the batch progress last reported by the server.
func (p *Pipeline) OverallProgress() float64 {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.overallProgress
}

// Upload submits every pending or errored file as one batch. Files
// already successful or mid-flight are skipped. On submission failure
// the submitted subset is marked errored and no polling starts. On
// success an immediate status poll runs, then polling continues in the
// background until all files settle.
func (p *Pipeline) Upload(ctx context.Context) error {
	p.mu.Lock()
	var eligible []*File
	for i := range p.files {
		f := &p.files[i]
		if f.Status == StatusPending || f.Status == StatusError {
			eligible = append(eligible, f)
		}
	}
	if len(eligible) == 0 {
		p.mu.Unlock()
		return nil
	}

	parts := make([]api.UploadPart, 0, len(eligible))
	closers := make([]io.Closer, 0, len(eligible))
	for _, f := range eligible {
		rc, err := f.Source.Open()
		if err != nil {
			f.Status = StatusError
			f.Err = err.Error()
			continue
		}
		parts = append(parts, api.UploadPart{Name: f.Source.Name(), Reader: rc})
		closers = append(closers, rc)

		f.Status = StatusUploading
		f.Progress = 0
		f.Err = ""
	}
	if len(parts) == 0 {
		p.mu.Unlock()
		return nil
	}

	target := p.targetCollection
	p.isUploading = true
	p.overallProgress = 0
	p.mu.Unlock()

	resp, err := p.client.Upload(ctx, parts, target)
	for _, c := range closers {
		c.Close()
	}

	p.mu.Lock()
	if err != nil {
		p.log.Error("upload submission failed", zap.Error(err))
		for _, f := range eligible {
			if f.Status == StatusUploading {
				f.Status = StatusError
				f.Err = err.Error()
			}
		}
		p.isUploading = false
		p.mu.Unlock()
		return err
	}

	p.currentUploadID = resp.UploadID
	for _, f := range eligible {
		if f.Status == StatusUploading {
			f.UploadID = resp.UploadID
		}
	}
	p.applyResponseLocked(resp)
	p.mu.Unlock()

	p.startPolling(ctx)
	return nil
}

// startPolling runs an immediate poll and then ticks until every file
// settles or Close is called.
func (p *Pipeline) startPolling(ctx context.Context) {
	p.mu.Lock()
	if p.state == pollRunning {
		p.mu.Unlock()
		return
	}
	p.state = pollRunning
	p.stopPoll = make(chan struct{})
	stop := p.stopPoll
	p.mu.Unlock()

	p.poll(ctx)

	go func() {
		ticker := time.NewTicker(p.interval)
		defer ticker.Stop()
		for {
			select {
			case <-stop:
				return
			case <-ctx.Done():
				return
			case <-ticker.C:
				p.poll(ctx)
			}
		}
	}()
}

// poll fetches the batch status once and reconciles it into the queue.
// A failed poll is logged and skipped; polling continues on the next
// tick.
func (p *Pipeline) poll(ctx context.Context) {
	p.mu.Lock()
	uploadID := p.currentUploadID
	p.mu.Unlock()
	if uploadID == "" {
		return
	}

	resp, err := p.client.UploadStatus(ctx, uploadID)
	if err != nil {
		p.log.Warn("upload status poll failed", zap.String("upload_id", uploadID), zap.Error(err))
		return
	}

	p.mu.Lock()
	p.applyResponseLocked(resp)
	if p.allSettledLocked() {
		p.stopLocked(pollSettled)
	}
	p.mu.Unlock()
}

// applyResponseLocked reconciles one server status response into the
// local queue. Server entries are matched to local files by name, first
// unclaimed match wins; local files absent from the response keep their
// current status.
func (p *Pipeline) applyResponseLocked(resp *api.UploadResponse) {
	claimed := make(map[int]bool, len(p.files))
	for _, entry := range resp.Files {
		for i := range p.files {
			f := &p.files[i]
			if claimed[i] || f.UploadID != resp.UploadID || f.Source.Name() != entry.FileName {
				continue
			}
			claimed[i] = true
			f.Status = mapServerStatus(entry.Status)
			f.Progress = entry.Progress
			f.Err = entry.Error
			f.ChunksCount = entry.ChunksCount
			f.TargetCollection = entry.TargetCollection
			break
		}
	}

	p.overallProgress = resp.OverallProgress
	p.isUploading = resp.Status == "processing" || resp.Status == "queued"
}

// mapServerStatus translates server batch statuses to local file
// statuses. Unknown values map to pending so a new server state never
// strands a file in a terminal status prematurely.
func mapServerStatus(s string) string {
	switch s {
	case "queued":
		return StatusPending
	case "processing":
		return StatusUploading
	case "completed":
		return StatusSuccess
	case "failed":
		return StatusError
	default:
		return StatusPending
	}
}

// allSettledLocked reports whether every file that was submitted has
// reached a terminal status.
func (p *Pipeline) allSettledLocked() bool {
	submitted := 0
	for _, f := range p.files {
		if f.UploadID != p.currentUploadID || f.UploadID == "" {
			continue
		}
		submitted++
		if f.Status != StatusSuccess && f.Status != StatusError {
			return false
		}
	}
	return submitted > 0
}

// stopLocked halts the poller. Idempotent.
func (p *Pipeline) stopLocked(next pollState) {
	if p.stopPoll != nil {
		close(p.stopPoll)
		p.stopPoll = nil
	}
	p.state = next
	p.isUploading = false
}

// Close stops any background polling. Safe to call multiple times.
func (p *Pipeline) Close() {
	p.mu.Lock()
	p.stopLocked(pollIdle)
	p.mu.Unlock()
}
