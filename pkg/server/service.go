package server

import (
	"context"
	"errors"
	"log/slog"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/mikeboe/knowledge-aggregator/pkg/aggregator"
)

var ErrJobNotFound = errors.New("job not found")

const maxListedJobs = 50

// Job tracks one aggregation run submitted through the API.
type Job struct {
	ID         uuid.UUID               `json:"id"`
	Topic      string                  `json:"topic"`
	MaxResults int                     `json:"max_results,omitempty"`
	Status     string                  `json:"status"`
	Error      string                  `json:"error,omitempty"`
	ReportPath string                  `json:"report_path,omitempty"`
	BackupPath string                  `json:"backup_path,omitempty"`
	Report     *aggregator.TopicReport `json:"report,omitempty"`
	CreatedAt  time.Time               `json:"created_at"`
	UpdatedAt  time.Time               `json:"updated_at"`
}

type CreateJobRequest struct {
	Topic      string `json:"topic" binding:"required"`
	MaxResults int    `json:"max_results"`
}

// Service runs aggregation jobs in the background and keeps their state in
// memory. Jobs do not survive a restart; the report files on disk do.
type Service struct {
	agg    *aggregator.Aggregator
	logger *slog.Logger

	mu    sync.RWMutex
	jobs  map[uuid.UUID]*Job
	order []uuid.UUID
}

func NewService(agg *aggregator.Aggregator) *Service {
	return &Service{
		agg:    agg,
		logger: slog.Default().With("component", "server"),
		jobs:   make(map[uuid.UUID]*Job),
	}
}

func (s *Service) CreateJob(req CreateJobRequest) (*Job, error) {
	if req.Topic == "" {
		return nil, errors.New("topic is required")
	}

	now := time.Now()
	job := &Job{
		ID:         uuid.New(),
		Topic:      req.Topic,
		MaxResults: req.MaxResults,
		Status:     "pending",
		CreatedAt:  now,
		UpdatedAt:  now,
	}

	s.mu.Lock()
	s.jobs[job.ID] = job
	s.order = append(s.order, job.ID)
	s.mu.Unlock()

	go s.runWorker(job.ID, req.Topic, req.MaxResults)

	return snapshot(job), nil
}

func (s *Service) GetJob(id uuid.UUID) (*Job, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	job, ok := s.jobs[id]
	if !ok {
		return nil, ErrJobNotFound
	}
	return snapshot(job), nil
}

// ListJobs returns the most recent jobs, newest first.
func (s *Service) ListJobs() []Job {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var jobs []Job
	for i := len(s.order) - 1; i >= 0 && len(jobs) < maxListedJobs; i-- {
		jobs = append(jobs, *snapshot(s.jobs[s.order[i]]))
	}
	return jobs
}

func (s *Service) runWorker(jobID uuid.UUID, topic string, maxResults int) {
	s.update(jobID, func(job *Job) {
		job.Status = "running"
	})

	result := s.agg.ProcessTopic(context.Background(), topic, maxResults)

	s.update(jobID, func(job *Job) {
		job.Report = result.Report
		job.ReportPath = result.ReportPath
		job.BackupPath = result.BackupPath
		if result.Status == aggregator.StatusCompleted {
			job.Status = "completed"
		} else {
			job.Status = "failed"
			if result.Err != nil {
				job.Error = result.Err.Error()
			}
		}
	})

	s.logger.Info("job finished", "job_id", jobID, "topic", topic, "status", string(result.Status))
}

func (s *Service) update(jobID uuid.UUID, fn func(*Job)) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if job, ok := s.jobs[jobID]; ok {
		fn(job)
		job.UpdatedAt = time.Now()
	}
}

// snapshot copies a job so callers never share memory with the store.
func snapshot(job *Job) *Job {
	copied := *job
	return &copied
}
