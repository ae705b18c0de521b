package services

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/google/uuid"
	"golang.org/x/sync/errgroup"

	"github.com/giftpool/forecaster/internal/config"
	"github.com/giftpool/forecaster/internal/logging"
	"github.com/giftpool/forecaster/internal/metrics"
	"github.com/giftpool/forecaster/internal/models"
	"github.com/giftpool/forecaster/internal/queue"
	"github.com/giftpool/forecaster/internal/storage"
)

// MaxJobPairs caps subject and metric combinations per batch job
const MaxJobPairs = 1000

const defaultJobWorkers = 4

// JobService submits batch forecast jobs and, when started, works them off
// the jobs subject. Each subject and metric pair produces one result message.
type JobService struct {
	logger         *logging.Logger
	queue          queue.Queue
	forecasts      *ForecastService
	metrics        *metrics.Metrics
	jobsSubject    string
	resultsSubject string
	workers        int
	now            func() time.Time
}

// NewJobService creates a new JobService
func NewJobService(
	logger *logging.Logger,
	q queue.Queue,
	forecasts *ForecastService,
	m *metrics.Metrics,
	cfg config.QueueConfig,
) *JobService {
	if logger == nil {
		logger = logging.Global()
	}
	if m == nil {
		m = metrics.NewNop()
	}
	workers := cfg.Workers
	if workers <= 0 {
		workers = defaultJobWorkers
	}
	return &JobService{
		logger:         logger.With("component", "jobs"),
		queue:          q,
		forecasts:      forecasts,
		metrics:        m,
		jobsSubject:    cfg.JobsSubject,
		resultsSubject: cfg.ResultsSubject,
		workers:        workers,
		now:            time.Now,
	}
}

// Submit validates a job request and publishes it on the jobs subject
func (s *JobService) Submit(ctx context.Context, req *models.SubmitJobRequest) (*models.JobAcceptedResponse, error) {
	if err := validateJobRequest(req); err != nil {
		return nil, err
	}

	job := models.ForecastJob{
		ID:          uuid.NewString(),
		Subjects:    dedupe(req.Subjects),
		Metrics:     dedupe(req.Metrics),
		TargetYear:  req.TargetYear,
		Method:      req.Method,
		RequestID:   logging.RequestID(ctx),
		SubmittedAt: s.now().UTC(),
	}

	data, err := json.Marshal(job)
	if err != nil {
		return nil, internalError(CodeQueueFailed, "failed to encode job", err)
	}
	if err := s.queue.Publish(ctx, s.jobsSubject, data); err != nil {
		s.metrics.RecordError("queue", "publish_job")
		return nil, internalError(CodeQueueFailed, "failed to enqueue job", err)
	}

	s.logger.WithContext(logging.WithJobID(ctx, job.ID)).Info("Forecast job submitted",
		"subjects", len(job.Subjects), "metrics", len(job.Metrics), "pairs", job.Pairs())

	return &models.JobAcceptedResponse{
		JobID:     job.ID,
		Pairs:     job.Pairs(),
		RequestID: job.RequestID,
	}, nil
}

func validateJobRequest(req *models.SubmitJobRequest) error {
	if len(req.Subjects) == 0 || len(req.Metrics) == 0 {
		return invalidRequest("subjects and metrics are required")
	}
	for _, subject := range req.Subjects {
		if err := storage.ValidateName("subject", subject); err != nil {
			return invalidRequest(err.Error())
		}
	}
	for _, metric := range req.Metrics {
		if err := storage.ValidateName("metric", metric); err != nil {
			return invalidRequest(err.Error())
		}
	}
	if pairs := len(dedupe(req.Subjects)) * len(dedupe(req.Metrics)); pairs > MaxJobPairs {
		return invalidRequest(fmt.Sprintf("job asks for %d forecasts, the limit is %d", pairs, MaxJobPairs))
	}
	if req.TargetYear < 0 || req.TargetYear > maxTargetYear {
		return invalidRequest(fmt.Sprintf("target_year must be between 0 and %d", maxTargetYear))
	}
	if _, err := parseMethod(req.Method); err != nil {
		return err
	}
	return nil
}

// dedupe drops repeated names and keeps first-seen order
func dedupe(names []string) []string {
	seen := make(map[string]struct{}, len(names))
	out := make([]string, 0, len(names))
	for _, n := range names {
		if _, ok := seen[n]; ok {
			continue
		}
		seen[n] = struct{}{}
		out = append(out, n)
	}
	return out
}

// Start subscribes the worker to the jobs subject
func (s *JobService) Start() error {
	if err := s.queue.Subscribe(s.jobsSubject, s.handleJob); err != nil {
		return fmt.Errorf("failed to subscribe to %s: %w", s.jobsSubject, err)
	}
	s.logger.Info("Job worker started", "jobs_subject", s.jobsSubject, "results_subject", s.resultsSubject)
	return nil
}

// Stop unsubscribes the worker
func (s *JobService) Stop() error {
	return s.queue.Unsubscribe(s.jobsSubject)
}

// handleJob processes one job message. Malformed messages are dropped;
// a failure to publish results returns an error so the job is redelivered.
func (s *JobService) handleJob(ctx context.Context, data []byte) error {
	var job models.ForecastJob
	if err := json.Unmarshal(data, &job); err != nil {
		s.metrics.RecordError("jobs", "decode")
		s.logger.Error("Dropping malformed job message", "error", err, "bytes", len(data))
		return nil
	}
	// Messages may come from publishers other than Submit.
	if pairs := job.Pairs(); pairs > MaxJobPairs {
		s.metrics.RecordError("jobs", "too_many_pairs")
		s.logger.Error("Dropping oversized job message", "job_id", job.ID, "pairs", pairs, "limit", MaxJobPairs)
		return nil
	}

	ctx = logging.WithJobID(ctx, job.ID)
	if job.RequestID != "" {
		ctx = logging.WithRequestID(ctx, job.RequestID)
	}

	results := s.Process(ctx, job)

	messages := make([]queue.BatchMessage, 0, len(results))
	for _, r := range results {
		payload, err := json.Marshal(r)
		if err != nil {
			s.metrics.RecordError("jobs", "encode_result")
			s.logger.WithContext(ctx).Error("Failed to encode job result", "subject", r.Subject, "metric", r.Metric, "error", err)
			continue
		}
		messages = append(messages, queue.BatchMessage{Subject: s.resultsSubject, Data: payload})
	}
	if len(messages) == 0 {
		return nil
	}

	published, err := s.queue.PublishBatch(ctx, messages)
	if err != nil {
		s.metrics.RecordError("queue", "publish_results")
		return fmt.Errorf("failed to publish results of job %s: %w", job.ID, err)
	}
	if published < len(messages) {
		s.logger.WithContext(ctx).Warn("Some job results were not published",
			"published", published, "expected", len(messages))
	}

	s.logger.WithContext(ctx).Info("Forecast job completed", "pairs", len(results), "published", published)
	return nil
}

// Process forecasts every pair of job, at most s.workers at a time. Results
// come back in subject-major order regardless of completion order.
func (s *JobService) Process(ctx context.Context, job models.ForecastJob) []models.ForecastJobResult {
	results := make([]models.ForecastJobResult, job.Pairs())

	var g errgroup.Group
	g.SetLimit(s.workers)

	i := 0
	for _, subject := range job.Subjects {
		for _, metric := range job.Metrics {
			idx := i
			i++
			g.Go(func() error {
				results[idx] = s.processPair(ctx, job, subject, metric)
				return nil
			})
		}
	}
	_ = g.Wait()

	return results
}

func (s *JobService) processPair(ctx context.Context, job models.ForecastJob, subject, metric string) models.ForecastJobResult {
	result := models.ForecastJobResult{
		JobID:   job.ID,
		Subject: subject,
		Metric:  metric,
	}

	resp, err := s.forecasts.Execute(ctx, &ForecastRequest{
		Subject:    subject,
		Metric:     metric,
		TargetYear: job.TargetYear,
		Method:     job.Method,
	})
	if err != nil {
		result.Status = models.JobStatusFailed
		result.Error = errorDetail(err)
	} else {
		result.Status = models.JobStatusSucceeded
		result.Response = resp
	}
	result.CompletedAt = s.now().UTC()

	s.metrics.RecordJob(result.Status)
	return result
}

func errorDetail(err error) *models.ErrorDetail {
	if svcErr, ok := AsServiceError(err); ok {
		return &models.ErrorDetail{
			Code:    svcErr.Code,
			Message: svcErr.Message,
			Details: svcErr.Details,
		}
	}
	return &models.ErrorDetail{Code: "INTERNAL_ERROR", Message: err.Error()}
}
