package transcript

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/johnquangdev/speaker-attribution/internal/domain/entities"
	"github.com/johnquangdev/speaker-attribution/pkg/ai"
)

type fakeTranscriptRepo struct {
	mu           sync.Mutex
	items        map[uuid.UUID]*entities.Transcript
	attributions *fakeAttributionRepo
	// createErr fails CreateTranscript before anything is stored
	createErr error
}

func newFakeTranscriptRepo() *fakeTranscriptRepo {
	return &fakeTranscriptRepo{items: map[uuid.UUID]*entities.Transcript{}}
}

func (r *fakeTranscriptRepo) CreateTranscript(_ context.Context, t *entities.Transcript, attributions ...*entities.SpeakerAttribution) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.createErr != nil {
		return r.createErr
	}
	r.items[t.ID] = t
	for _, a := range attributions {
		a.TranscriptID = t.ID
		r.attributions.put(a)
	}
	return nil
}

func (r *fakeTranscriptRepo) GetTranscriptByID(_ context.Context, id uuid.UUID) (*entities.Transcript, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.items[id], nil
}

func (r *fakeTranscriptRepo) GetTranscriptByExternalID(_ context.Context, externalID string) (*entities.Transcript, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, t := range r.items {
		if t.ExternalID != nil && *t.ExternalID == externalID {
			return t, nil
		}
	}
	return nil, nil
}

func (r *fakeTranscriptRepo) DeleteTranscript(_ context.Context, id uuid.UUID) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	delete(r.items, id)
	return nil
}

type fakeAttributionRepo struct {
	mu          sync.Mutex
	items       map[uuid.UUID]*entities.SpeakerAttribution
	transcripts *fakeTranscriptRepo
}

func newFakeAttributionRepo(transcripts *fakeTranscriptRepo) *fakeAttributionRepo {
	r := &fakeAttributionRepo{items: map[uuid.UUID]*entities.SpeakerAttribution{}, transcripts: transcripts}
	transcripts.attributions = r
	return r
}

func (r *fakeAttributionRepo) put(a *entities.SpeakerAttribution) {
	r.mu.Lock()
	defer r.mu.Unlock()
	cp := *a
	r.items[a.ID] = &cp
}

func (r *fakeAttributionRepo) count() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.items)
}

func (r *fakeAttributionRepo) GetAttributionByID(ctx context.Context, id uuid.UUID) (*entities.SpeakerAttribution, error) {
	r.mu.Lock()
	a, ok := r.items[id]
	r.mu.Unlock()
	if !ok {
		return nil, nil
	}
	cp := *a
	cp.Transcript, _ = r.transcripts.GetTranscriptByID(ctx, a.TranscriptID)
	return &cp, nil
}

func (r *fakeAttributionRepo) ListAttributionsByTranscript(_ context.Context, transcriptID uuid.UUID) ([]entities.SpeakerAttribution, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var out []entities.SpeakerAttribution
	for _, a := range r.items {
		if a.TranscriptID == transcriptID {
			out = append(out, *a)
		}
	}
	return out, nil
}

func (r *fakeAttributionRepo) UpdateArtifacts(_ context.Context, a *entities.SpeakerAttribution) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	stored, ok := r.items[a.ID]
	if !ok {
		return fmt.Errorf("attribution %s not found", a.ID)
	}
	stored.Artifacts = a.Artifacts
	return nil
}

type fakeJobRepo struct {
	mu   sync.Mutex
	jobs map[uuid.UUID]*entities.AttributionJob
}

func newFakeJobRepo() *fakeJobRepo {
	return &fakeJobRepo{jobs: map[uuid.UUID]*entities.AttributionJob{}}
}

func (r *fakeJobRepo) CreateJob(_ context.Context, job *entities.AttributionJob) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	cp := *job
	r.jobs[job.ID] = &cp
	return nil
}

func (r *fakeJobRepo) GetJobByID(_ context.Context, id uuid.UUID) (*entities.AttributionJob, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	job, ok := r.jobs[id]
	if !ok {
		return nil, nil
	}
	cp := *job
	return &cp, nil
}

func (r *fakeJobRepo) GetJobByExternalID(_ context.Context, externalID string) (*entities.AttributionJob, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, job := range r.jobs {
		if job.ExternalID != nil && *job.ExternalID == externalID {
			cp := *job
			return &cp, nil
		}
	}
	return nil, nil
}

func (r *fakeJobRepo) GetJobsForProcessing(_ context.Context, _ int) ([]entities.AttributionJob, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var out []entities.AttributionJob
	for _, job := range r.jobs {
		if job.Status == entities.JobStatusPending || job.Status == entities.JobStatusRetrying {
			out = append(out, *job)
		}
	}
	return out, nil
}

func (r *fakeJobRepo) ClaimJob(_ context.Context, id uuid.UUID, from ...entities.AttributionJobStatus) (bool, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	job, ok := r.jobs[id]
	if !ok {
		return false, nil
	}
	for _, st := range from {
		if job.Status == st {
			now := time.Now()
			job.Status = entities.JobStatusProcessing
			job.StartedAt = &now
			return true, nil
		}
	}
	return false, nil
}

func (r *fakeJobRepo) update(id uuid.UUID, fn func(*entities.AttributionJob)) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	job, ok := r.jobs[id]
	if !ok {
		return fmt.Errorf("job %s not found", id)
	}
	fn(job)
	job.UpdatedAt = time.Now()
	return nil
}

func (r *fakeJobRepo) MarkAwaitingTranscript(_ context.Context, id uuid.UUID, externalID string) error {
	return r.update(id, func(j *entities.AttributionJob) { j.MarkAwaitingTranscript(externalID) })
}

func (r *fakeJobRepo) MarkReady(_ context.Context, externalID string) (bool, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	released := false
	for _, job := range r.jobs {
		if job.ExternalID != nil && *job.ExternalID == externalID && job.Status == entities.JobStatusAwaitingTranscript {
			job.Status = entities.JobStatusPending
			released = true
		}
	}
	return released, nil
}

func (r *fakeJobRepo) MarkCompleted(_ context.Context, id, attributionID uuid.UUID) error {
	return r.update(id, func(j *entities.AttributionJob) { j.MarkAsCompleted(attributionID) })
}

func (r *fakeJobRepo) MarkFailed(_ context.Context, id uuid.UUID, errMsg string) error {
	return r.update(id, func(j *entities.AttributionJob) { j.MarkAsFailed(errMsg) })
}

func (r *fakeJobRepo) IncrementRetryCount(_ context.Context, id uuid.UUID, errMsg string) error {
	return r.update(id, func(j *entities.AttributionJob) {
		j.RetryCount++
		j.Status = entities.JobStatusRetrying
		j.LastError = &errMsg
	})
}

func (r *fakeJobRepo) GetStaleJobs(_ context.Context, status entities.AttributionJobStatus, before time.Time, _ int) ([]entities.AttributionJob, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var out []entities.AttributionJob
	for _, job := range r.jobs {
		if job.Status == status && job.UpdatedAt.Before(before) {
			out = append(out, *job)
		}
	}
	return out, nil
}

func (r *fakeJobRepo) ResetJob(_ context.Context, id uuid.UUID, status entities.AttributionJobStatus) error {
	return r.update(id, func(j *entities.AttributionJob) { j.Status = status })
}

func (r *fakeJobRepo) status(id uuid.UUID) entities.AttributionJobStatus {
	r.mu.Lock()
	defer r.mu.Unlock()
	if job, ok := r.jobs[id]; ok {
		return job.Status
	}
	return ""
}

// setUpdatedAt ages a job so the stale worker picks it up
func (r *fakeJobRepo) setUpdatedAt(id uuid.UUID, at time.Time) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.jobs[id].UpdatedAt = at
}

type fakeProvider struct {
	mu          sync.Mutex
	configured  bool
	transcripts map[string]*ai.ProviderTranscript
	fetchErr    error
	submitErr   error
	submitted   []string
	speakers    []int
}

func newFakeProvider() *fakeProvider {
	return &fakeProvider{configured: true, transcripts: map[string]*ai.ProviderTranscript{}}
}

func (p *fakeProvider) Configured() bool { return p.configured }

func (p *fakeProvider) FetchUtterances(_ context.Context, transcriptID string) (*ai.ProviderTranscript, error) {
	p.mu.Lock()
	defer p.mu.Unlock()
	pt, ok := p.transcripts[transcriptID]
	if !ok {
		return nil, fmt.Errorf("%w: %s", ai.ErrTranscriptNotFound, transcriptID)
	}
	if p.fetchErr != nil {
		return pt, p.fetchErr
	}
	return pt, nil
}

func (p *fakeProvider) Submit(_ context.Context, audioURL string, speakersExpected int) (string, error) {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.submitErr != nil {
		return "", p.submitErr
	}
	p.submitted = append(p.submitted, audioURL)
	p.speakers = append(p.speakers, speakersExpected)
	return fmt.Sprintf("tr_%d", len(p.submitted)), nil
}

type fakeArtifacts struct {
	mu      sync.Mutex
	objects map[string][]byte
	types   map[string]string
}

func newFakeArtifacts() *fakeArtifacts {
	return &fakeArtifacts{objects: map[string][]byte{}, types: map[string]string{}}
}

func (a *fakeArtifacts) Upload(_ context.Context, key string, content []byte, contentType string) error {
	a.mu.Lock()
	defer a.mu.Unlock()
	a.objects[key] = content
	a.types[key] = contentType
	return nil
}

func (a *fakeArtifacts) URL(_ context.Context, key string) (string, error) {
	return "https://files.test/" + key, nil
}
