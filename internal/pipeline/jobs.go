// ABOUTME: In-memory job store tracking per-document processing status
// ABOUTME: Jobs report pending, processing, done or failed with a message
package pipeline

import (
	"sync"
	"time"

	"github.com/google/uuid"
)

// JobStatus is the lifecycle state of one processing job.
type JobStatus string

const (
	JobPending    JobStatus = "pending"
	JobProcessing JobStatus = "processing"
	JobDone       JobStatus = "done"
	JobFailed     JobStatus = "failed"
)

// Job records the progress of one document through the pipeline.
type Job struct {
	ID        string    `json:"id"`
	DocID     string    `json:"doc_id,omitempty"`
	Status    JobStatus `json:"status"`
	Message   string    `json:"message,omitempty"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

// JobStore is a concurrency-safe in-memory job registry.
type JobStore struct {
	mu   sync.RWMutex
	jobs map[string]*Job
}

// NewJobStore returns an empty store.
func NewJobStore() *JobStore {
	return &JobStore{jobs: make(map[string]*Job)}
}

// Create registers a new pending job and returns a snapshot of it.
func (s *JobStore) Create() Job {
	now := time.Now().UTC()
	job := &Job{
		ID:        uuid.NewString(),
		Status:    JobPending,
		CreatedAt: now,
		UpdatedAt: now,
	}
	s.mu.Lock()
	s.jobs[job.ID] = job
	s.mu.Unlock()
	return *job
}

// Get returns a snapshot of a job by id.
func (s *JobStore) Get(id string) (Job, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	job, ok := s.jobs[id]
	if !ok {
		return Job{}, false
	}
	return *job, true
}

// Start marks a job as actively processing.
func (s *JobStore) Start(id string) {
	s.update(id, func(j *Job) {
		j.Status = JobProcessing
	})
}

// Complete marks a job done and records the resulting document id.
func (s *JobStore) Complete(id, docID string) {
	s.update(id, func(j *Job) {
		j.Status = JobDone
		j.DocID = docID
	})
}

// Fail marks a job failed with a human-readable message.
func (s *JobStore) Fail(id, message string) {
	s.update(id, func(j *Job) {
		j.Status = JobFailed
		j.Message = message
	})
}

func (s *JobStore) update(id string, fn func(*Job)) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if job, ok := s.jobs[id]; ok {
		fn(job)
		job.UpdatedAt = time.Now().UTC()
	}
}
