package transcript

import (
	"context"
	"errors"
	"fmt"
	"time"

	"go.uber.org/zap"

	"github.com/johnquangdev/speaker-attribution/internal/domain/entities"
	"github.com/johnquangdev/speaker-attribution/pkg/ai"
	"github.com/johnquangdev/speaker-attribution/pkg/jobcontext"
)

const jobTypeAttribution = "attribution"

// StartWorkerPool starts background workers that attribute queued jobs
func (s *service) StartWorkerPool(ctx context.Context, workerCount int) error {
	s.workerMutex.Lock()
	defer s.workerMutex.Unlock()

	if s.isWorkerPoolRunning {
		return fmt.Errorf("worker pool already running")
	}
	if workerCount <= 0 {
		workerCount = 1
	}

	s.isWorkerPoolRunning = true
	s.workerStopChan = make(chan struct{})

	if s.logger != nil {
		s.logger.Info("🚀 Starting attribution worker pool",
			zap.Int("worker_count", workerCount),
			zap.Duration("poll_interval", s.pollInterval()),
		)
	}

	for i := 0; i < workerCount; i++ {
		s.workerWg.Add(1)
		go s.attributionWorker(ctx, i)
	}

	s.workerWg.Add(1)
	go s.staleJobWorker(ctx)

	return nil
}

// StopWorkerPool gracefully stops all worker goroutines
func (s *service) StopWorkerPool() error {
	s.workerMutex.Lock()
	defer s.workerMutex.Unlock()

	if !s.isWorkerPoolRunning {
		return fmt.Errorf("worker pool not running")
	}

	if s.logger != nil {
		s.logger.Info("🛑 Stopping attribution worker pool...")
	}

	close(s.workerStopChan)
	s.workerWg.Wait()
	s.isWorkerPoolRunning = false

	if s.logger != nil {
		s.logger.Info("✅ Attribution worker pool stopped")
	}
	return nil
}

func (s *service) pollInterval() time.Duration {
	if s.opts.PollInterval > 0 {
		return s.opts.PollInterval
	}
	return 10 * time.Second
}

func (s *service) staleAfter() time.Duration {
	if s.opts.StaleAfter > 0 {
		return s.opts.StaleAfter
	}
	return 10 * time.Minute
}

// attributionWorker polls for pending and retrying jobs
func (s *service) attributionWorker(parentCtx context.Context, workerID int) {
	defer s.workerWg.Done()

	ticker := time.NewTicker(s.pollInterval())
	defer ticker.Stop()

	if s.logger != nil {
		s.logger.Info("👷 Worker started", zap.Int("worker_id", workerID))
	}

	for {
		select {
		case <-s.workerStopChan:
			if s.logger != nil {
				s.logger.Info("👷 Worker stopping", zap.Int("worker_id", workerID))
			}
			return
		case <-parentCtx.Done():
			return
		case <-ticker.C:
			s.pollJobs(parentCtx, workerID)
		}
	}
}

// pollJobs claims and runs at most one job per tick
func (s *service) pollJobs(ctx context.Context, workerID int) {
	jobs, err := s.jobRepo.GetJobsForProcessing(ctx, s.opts.BatchSize)
	if err != nil {
		if s.logger != nil {
			s.logger.Error("❌ Failed to poll jobs", zap.Int("worker_id", workerID), zap.Error(err))
		}
		return
	}

	for i := range jobs {
		job := jobs[i]
		claimed, err := s.jobRepo.ClaimJob(ctx, job.ID, entities.JobStatusPending, entities.JobStatusRetrying)
		if err != nil {
			if s.logger != nil {
				s.logger.Error("❌ Failed to claim job", zap.String("job_id", job.ID.String()), zap.Error(err))
			}
			continue
		}
		if !claimed {
			continue
		}

		if s.logger != nil {
			s.logger.Info("👷 Worker claimed job",
				zap.Int("worker_id", workerID),
				zap.String("job_id", job.ID.String()),
				zap.String("meeting_id", job.MeetingID),
			)
		}
		s.runJob(ctx, workerID, &job)
		return
	}
}

// runJob executes one claimed job and records its outcome
func (s *service) runJob(parentCtx context.Context, workerID int, job *entities.AttributionJob) {
	jobCtx, cancel := jobcontext.JobBegin(parentCtx, job.ID, jobTypeAttribution, workerID,
		jobcontext.WithTimeout(s.opts.JobTimeout),
		jobcontext.WithBaseDelay(s.opts.RetryBaseDelay),
	)
	defer cancel()

	var attributionID = job.AttributionID
	err := jobcontext.JobEnd(jobCtx, func(ctx context.Context) error {
		id, err := s.processJob(ctx, job)
		if err != nil {
			return err
		}
		attributionID = &id
		return nil
	})

	if err == nil {
		if err := s.jobRepo.MarkCompleted(parentCtx, job.ID, *attributionID); err != nil && s.logger != nil {
			s.logger.Error("❌ Failed to mark job completed", zap.String("job_id", job.ID.String()), zap.Error(err))
		}
		if s.logger != nil {
			s.logger.Info("✅ Job completed successfully",
				zap.String("job_id", job.ID.String()),
				zap.String("attribution_id", attributionID.String()),
			)
		}
		return
	}

	if !errors.Is(err, jobcontext.ErrNonRetryable) && job.RetryCount+1 < job.MaxRetries {
		if s.logger != nil {
			s.logger.Warn("🔄 Job failed, scheduling retry",
				zap.String("job_id", job.ID.String()),
				zap.Int("retry_count", job.RetryCount+1),
				zap.Int("max_retries", job.MaxRetries),
				zap.Error(err),
			)
		}
		if markErr := s.jobRepo.IncrementRetryCount(parentCtx, job.ID, err.Error()); markErr != nil && s.logger != nil {
			s.logger.Error("❌ Failed to schedule retry", zap.String("job_id", job.ID.String()), zap.Error(markErr))
		}
		return
	}

	if s.logger != nil {
		s.logger.Error("❌ Job failed", zap.String("job_id", job.ID.String()), zap.Error(err))
	}
	if markErr := s.jobRepo.MarkFailed(parentCtx, job.ID, err.Error()); markErr != nil && s.logger != nil {
		s.logger.Error("❌ Failed to mark job as failed", zap.String("job_id", job.ID.String()), zap.Error(markErr))
	}
}

// staleJobWorker recovers jobs whose webhook never arrived or whose worker died
func (s *service) staleJobWorker(parentCtx context.Context) {
	defer s.workerWg.Done()

	ticker := time.NewTicker(s.pollInterval())
	defer ticker.Stop()

	if s.logger != nil {
		s.logger.Info("👷 Stale job worker started", zap.Duration("stale_after", s.staleAfter()))
	}

	for {
		select {
		case <-s.workerStopChan:
			if s.logger != nil {
				s.logger.Info("👷 Stale job worker stopping")
			}
			return
		case <-parentCtx.Done():
			return
		case <-ticker.C:
			s.recoverStaleJobs(parentCtx)
		}
	}
}

func (s *service) recoverStaleJobs(ctx context.Context) {
	cutoff := time.Now().Add(-s.staleAfter())

	awaiting, err := s.jobRepo.GetStaleJobs(ctx, entities.JobStatusAwaitingTranscript, cutoff, s.opts.BatchSize)
	if err != nil {
		if s.logger != nil {
			s.logger.Error("❌ Failed to query stale jobs", zap.Error(err))
		}
	}
	for i := range awaiting {
		s.pollProvider(ctx, &awaiting[i])
	}

	// A processing job this old outlived its timeout, so its worker is gone
	stuck, err := s.jobRepo.GetStaleJobs(ctx, entities.JobStatusProcessing, cutoff, s.opts.BatchSize)
	if err != nil {
		if s.logger != nil {
			s.logger.Error("❌ Failed to query stuck jobs", zap.Error(err))
		}
		return
	}
	for _, job := range stuck {
		if s.logger != nil {
			s.logger.Warn("⏰ Requeueing stuck job",
				zap.String("job_id", job.ID.String()),
				zap.Duration("stuck_for", time.Since(job.UpdatedAt)),
			)
		}
		if err := s.jobRepo.ResetJob(ctx, job.ID, entities.JobStatusRetrying); err != nil && s.logger != nil {
			s.logger.Error("❌ Failed to requeue job", zap.String("job_id", job.ID.String()), zap.Error(err))
		}
	}
}

// pollProvider checks a job's transcript directly when its webhook is late
func (s *service) pollProvider(ctx context.Context, job *entities.AttributionJob) {
	if job.ExternalID == nil || *job.ExternalID == "" {
		if err := s.jobRepo.MarkFailed(ctx, job.ID, "no external transcript ID"); err != nil && s.logger != nil {
			s.logger.Error("❌ Failed to mark job as failed", zap.String("job_id", job.ID.String()), zap.Error(err))
		}
		return
	}
	if s.provider == nil || !s.provider.Configured() {
		return
	}
	transcriptID := *job.ExternalID

	if s.logger != nil {
		s.logger.Info("🔍 Polling AssemblyAI for stale job",
			zap.String("job_id", job.ID.String()),
			zap.String("transcript_id", transcriptID),
			zap.Duration("waiting_for", time.Since(job.UpdatedAt)),
		)
	}

	_, err := s.provider.FetchUtterances(ctx, transcriptID)
	switch {
	case err == nil:
		if _, err := s.jobRepo.MarkReady(ctx, transcriptID); err != nil && s.logger != nil {
			s.logger.Error("❌ Failed to release job", zap.String("job_id", job.ID.String()), zap.Error(err))
		}
	case errors.Is(err, ai.ErrTranscriptFailed):
		if err := s.jobRepo.MarkFailed(ctx, job.ID, err.Error()); err != nil && s.logger != nil {
			s.logger.Error("❌ Failed to mark job as failed", zap.String("job_id", job.ID.String()), zap.Error(err))
		}
	case errors.Is(err, ai.ErrTranscriptNotReady):
		// Still transcribing; refresh so the next check waits a full interval
		if err := s.jobRepo.ResetJob(ctx, job.ID, entities.JobStatusAwaitingTranscript); err != nil && s.logger != nil {
			s.logger.Error("❌ Failed to refresh job", zap.String("job_id", job.ID.String()), zap.Error(err))
		}
	default:
		if s.logger != nil {
			s.logger.Error("❌ Failed to poll AssemblyAI",
				zap.String("transcript_id", transcriptID),
				zap.Error(err),
			)
		}
	}
}
