package upload

import (
	"context"
	"errors"
	"io"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/youruser/aerochat/internal/api"
)

type memSource struct {
	name string
	data string
}

func (m *memSource) Name() string { return m.name }
func (m *memSource) Size() int64  { return int64(len(m.data)) }
func (m *memSource) Open() (io.ReadCloser, error) {
	return io.NopCloser(strings.NewReader(m.data)), nil
}

// fakeClient scripts the submission response and a sequence of status
// responses served on successive polls.
type fakeClient struct {
	mu        sync.Mutex
	uploadErr error
	submitted []api.UploadPart
	target    string
	initial   *api.UploadResponse
	statuses  []*api.UploadResponse
	statusErr error
	polls     int
	onUpload  func()
}

func (f *fakeClient) Upload(ctx context.Context, parts []api.UploadPart, targetCollection string) (*api.UploadResponse, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.onUpload != nil {
		f.onUpload()
	}
	if f.uploadErr != nil {
		return nil, f.uploadErr
	}
	f.submitted = parts
	f.target = targetCollection
	return f.initial, nil
}

func (f *fakeClient) UploadStatus(ctx context.Context, uploadID string) (*api.UploadResponse, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.polls++
	if f.statusErr != nil {
		return nil, f.statusErr
	}
	idx := f.polls - 1
	if idx >= len(f.statuses) {
		idx = len(f.statuses) - 1
	}
	return f.statuses[idx], nil
}

func (f *fakeClient) pollCount() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.polls
}

func batchResponse(id, status string, files ...api.UploadFileStatus) *api.UploadResponse {
	return &api.UploadResponse{UploadID: id, Status: status, Files: files}
}

func TestAddAndRemoveFiles(t *testing.T) {
	p := NewPipeline(&fakeClient{}, time.Second, nil)

	added := p.AddFiles(&memSource{name: "a.txt", data: "x"}, &memSource{name: "b.txt", data: "y"})
	require.Len(t, added, 2)
	assert.Equal(t, StatusPending, added[0].Status)

	p.RemoveFile(added[0].ID)
	files := p.Files()
	require.Len(t, files, 1)
	assert.Equal(t, "b.txt", files[0].Source.Name())
}

func TestUploadWithNoEligibleFilesIsNoOp(t *testing.T) {
	client := &fakeClient{}
	p := NewPipeline(client, time.Second, nil)

	require.NoError(t, p.Upload(context.Background()))
	assert.Empty(t, client.submitted)
	assert.False(t, p.IsUploading())
}

func TestUploadSubmissionFailureMarksSubsetErrored(t *testing.T) {
	client := &fakeClient{uploadErr: errors.New("502 bad gateway")}
	p := NewPipeline(client, 10*time.Millisecond, nil)
	defer p.Close()

	p.AddFiles(&memSource{name: "a.txt", data: "x"})

	err := p.Upload(context.Background())
	require.Error(t, err)

	files := p.Files()
	require.Len(t, files, 1)
	assert.Equal(t, StatusError, files[0].Status)
	assert.Contains(t, files[0].Err, "502")
	assert.False(t, p.IsUploading())
	assert.Zero(t, client.pollCount(), "no polling after a failed submission")
}

func TestUploadPollsUntilAllFilesSettle(t *testing.T) {
	client := &fakeClient{
		initial: batchResponse("up-1", "queued",
			api.UploadFileStatus{FileName: "a.txt", Status: "queued"},
			api.UploadFileStatus{FileName: "b.txt", Status: "queued"},
		),
		statuses: []*api.UploadResponse{
			batchResponse("up-1", "processing",
				api.UploadFileStatus{FileName: "a.txt", Status: "processing", Progress: 0.4},
				api.UploadFileStatus{FileName: "b.txt", Status: "queued"},
			),
			batchResponse("up-1", "completed",
				api.UploadFileStatus{FileName: "a.txt", Status: "completed", Progress: 1, ChunksCount: 12, TargetCollection: "manuals"},
				api.UploadFileStatus{FileName: "b.txt", Status: "failed", Error: "parse error"},
			),
		},
	}
	p := NewPipeline(client, 5*time.Millisecond, nil)
	defer p.Close()

	p.AddFiles(&memSource{name: "a.txt", data: "x"}, &memSource{name: "b.txt", data: "y"})
	require.NoError(t, p.Upload(context.Background()))

	require.Eventually(t, func() bool {
		for _, f := range p.Files() {
			if f.Status != StatusSuccess && f.Status != StatusError {
				return false
			}
		}
		return true
	}, time.Second, 5*time.Millisecond)

	files := p.Files()
	require.Len(t, files, 2)
	assert.Equal(t, StatusSuccess, files[0].Status)
	assert.Equal(t, 12, files[0].ChunksCount)
	assert.Equal(t, "manuals", files[0].TargetCollection)
	assert.Equal(t, StatusError, files[1].Status)
	assert.Equal(t, "parse error", files[1].Err)
	assert.False(t, p.IsUploading())

	// Poller stops once everything is terminal.
	settled := client.pollCount()
	time.Sleep(30 * time.Millisecond)
	assert.Equal(t, settled, client.pollCount())
}

func TestPollFailureKeepsPolling(t *testing.T) {
	client := &fakeClient{
		initial:   batchResponse("up-1", "queued", api.UploadFileStatus{FileName: "a.txt", Status: "queued"}),
		statusErr: errors.New("timeout"),
	}
	p := NewPipeline(client, 5*time.Millisecond, nil)
	defer p.Close()

	p.AddFiles(&memSource{name: "a.txt", data: "x"})
	require.NoError(t, p.Upload(context.Background()))

	require.Eventually(t, func() bool { return client.pollCount() >= 3 },
		time.Second, 5*time.Millisecond)

	// Failed polls leave file state alone.
	files := p.Files()
	require.Len(t, files, 1)
	assert.Equal(t, StatusPending, files[0].Status)
}

func TestOnlyEligibleFilesAreSubmitted(t *testing.T) {
	client := &fakeClient{
		initial:  batchResponse("up-2", "completed", api.UploadFileStatus{FileName: "new.txt", Status: "completed"}),
		statuses: []*api.UploadResponse{batchResponse("up-2", "completed", api.UploadFileStatus{FileName: "new.txt", Status: "completed"})},
	}
	p := NewPipeline(client, 5*time.Millisecond, nil)
	defer p.Close()

	added := p.AddFiles(&memSource{name: "done.txt", data: "x"}, &memSource{name: "new.txt", data: "y"})

	// Simulate an earlier successful run for the first file.
	p.mu.Lock()
	for i := range p.files {
		if p.files[i].ID == added[0].ID {
			p.files[i].Status = StatusSuccess
		}
	}
	p.mu.Unlock()

	require.NoError(t, p.Upload(context.Background()))

	require.Len(t, client.submitted, 1)
	assert.Equal(t, "new.txt", client.submitted[0].Name)
}

func TestServerStatusMapping(t *testing.T) {
	cases := map[string]string{
		"queued":     StatusPending,
		"processing": StatusUploading,
		"completed":  StatusSuccess,
		"failed":     StatusError,
		"surprise":   StatusPending,
	}
	for server, local := range cases {
		assert.Equal(t, local, mapServerStatus(server), server)
	}
}

func TestClearCompletedKeepsErroredFiles(t *testing.T) {
	p := NewPipeline(&fakeClient{}, time.Second, nil)
	added := p.AddFiles(
		&memSource{name: "a.txt", data: "x"},
		&memSource{name: "b.txt", data: "y"},
		&memSource{name: "c.txt", data: "z"},
	)

	p.mu.Lock()
	p.files[0].Status = StatusSuccess
	p.files[1].Status = StatusError
	p.mu.Unlock()

	p.ClearCompleted()

	// Only the successful file is dropped; the errored one stays queued
	// for resubmission.
	files := p.Files()
	require.Len(t, files, 2)
	assert.Equal(t, added[1].ID, files[0].ID)
	assert.Equal(t, StatusError, files[0].Status)
	assert.Equal(t, added[2].ID, files[1].ID)
}

func TestClearedErrorFileIsResubmitted(t *testing.T) {
	client := &fakeClient{
		initial:  batchResponse("up-4", "completed", api.UploadFileStatus{FileName: "retry.txt", Status: "completed"}),
		statuses: []*api.UploadResponse{batchResponse("up-4", "completed", api.UploadFileStatus{FileName: "retry.txt", Status: "completed"})},
	}
	p := NewPipeline(client, 5*time.Millisecond, nil)
	defer p.Close()

	p.AddFiles(&memSource{name: "retry.txt", data: "x"}, &memSource{name: "done.txt", data: "y"})
	p.mu.Lock()
	p.files[0].Status = StatusError
	p.files[0].Err = "parse error"
	p.files[1].Status = StatusSuccess
	p.mu.Unlock()

	p.ClearCompleted()
	require.NoError(t, p.Upload(context.Background()))

	require.Len(t, client.submitted, 1)
	assert.Equal(t, "retry.txt", client.submitted[0].Name)
}

func TestUploadResetsOverallProgress(t *testing.T) {
	client := &fakeClient{
		initial:  batchResponse("up-5", "completed", api.UploadFileStatus{FileName: "a.txt", Status: "completed"}),
		statuses: []*api.UploadResponse{batchResponse("up-5", "completed", api.UploadFileStatus{FileName: "a.txt", Status: "completed"})},
	}
	p := NewPipeline(client, 5*time.Millisecond, nil)
	defer p.Close()

	// Leftover progress from an earlier batch.
	p.mu.Lock()
	p.overallProgress = 0.75
	p.mu.Unlock()

	// Capture the value the moment the backend sees the submission,
	// before any status response is applied.
	progressAtSubmit := -1.0
	client.onUpload = func() { progressAtSubmit = p.OverallProgress() }

	p.AddFiles(&memSource{name: "a.txt", data: "x"})
	require.NoError(t, p.Upload(context.Background()))

	assert.Equal(t, 0.0, progressAtSubmit)
}

func TestSetTargetCollectionAutoMapMeansEmpty(t *testing.T) {
	client := &fakeClient{
		initial:  batchResponse("up-3", "completed", api.UploadFileStatus{FileName: "a.txt", Status: "completed"}),
		statuses: []*api.UploadResponse{batchResponse("up-3", "completed", api.UploadFileStatus{FileName: "a.txt", Status: "completed"})},
	}
	p := NewPipeline(client, 5*time.Millisecond, nil)
	defer p.Close()

	p.SetTargetCollection(api.AutoMapCollection)
	p.AddFiles(&memSource{name: "a.txt", data: "x"})
	require.NoError(t, p.Upload(context.Background()))

	assert.Equal(t, "", client.target)
}
