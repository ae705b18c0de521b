package services

import (
	"context"
	"errors"
	"time"

	"github.com/giftpool/forecaster/internal/logging"
	"github.com/giftpool/forecaster/internal/metadata"
	"github.com/giftpool/forecaster/internal/models"
	"github.com/giftpool/forecaster/internal/storage"
)

// SubjectService manages the subject registry and method preferences
type SubjectService struct {
	logger   *logging.Logger
	metadata metadata.Manager
}

// NewSubjectService creates a new SubjectService
func NewSubjectService(logger *logging.Logger, metadataManager metadata.Manager) *SubjectService {
	if logger == nil {
		logger = logging.Global()
	}
	return &SubjectService{logger: logger, metadata: metadataManager}
}

// Create registers a subject
func (s *SubjectService) Create(ctx context.Context, req *models.CreateSubjectRequest) (*models.SubjectResponse, error) {
	if err := storage.ValidateName("subject", req.Key); err != nil {
		return nil, invalidRequest(err.Error())
	}
	for _, m := range req.Metrics {
		if err := storage.ValidateName("metric", m); err != nil {
			return nil, invalidRequest(err.Error())
		}
	}

	subject := &metadata.Subject{
		Key:         req.Key,
		Name:        req.Name,
		Description: req.Description,
		Metrics:     req.Metrics,
	}
	if err := s.metadata.CreateSubject(ctx, subject); err != nil {
		if errors.Is(err, metadata.ErrAlreadyExists) {
			return nil, NewServiceError(CodeSubjectExists, "subject already exists: "+req.Key)
		}
		return nil, internalError(CodeMetadataFailed, "failed to create subject", err)
	}

	s.logger.WithContext(ctx).Info("Subject created", "subject", req.Key)
	return s.Get(ctx, req.Key)
}

// Get returns one subject
func (s *SubjectService) Get(ctx context.Context, key string) (*models.SubjectResponse, error) {
	subject, err := s.metadata.GetSubject(ctx, key)
	if err != nil {
		return nil, s.lookupError(key, err)
	}
	return subjectResponse(subject), nil
}

// List returns every subject ordered by key
func (s *SubjectService) List(ctx context.Context) (*models.SubjectListResponse, error) {
	subjects, err := s.metadata.ListSubjects(ctx)
	if err != nil {
		return nil, internalError(CodeMetadataFailed, "failed to list subjects", err)
	}

	resp := &models.SubjectListResponse{Subjects: make([]models.SubjectResponse, 0, len(subjects))}
	for _, subject := range subjects {
		resp.Subjects = append(resp.Subjects, *subjectResponse(subject))
	}
	return resp, nil
}

// Delete removes a subject. Stored series are kept.
func (s *SubjectService) Delete(ctx context.Context, key string) error {
	if err := s.metadata.DeleteSubject(ctx, key); err != nil {
		return s.lookupError(key, err)
	}
	s.logger.WithContext(ctx).Info("Subject deleted", "subject", key)
	return nil
}

// SetPreference records the method forecasts of metric should use when the
// request does not name one
func (s *SubjectService) SetPreference(ctx context.Context, key, metric, method string) (*models.SubjectResponse, error) {
	if err := storage.ValidateName("metric", metric); err != nil {
		return nil, invalidRequest(err.Error())
	}
	m, err := parseMethod(method)
	if err != nil {
		return nil, err
	}
	if m == "" {
		return nil, NewServiceError(CodeInvalidMethod, "a concrete method is required, clear the preference to use automatic selection")
	}

	if err := s.metadata.SetPreferredMethod(ctx, key, metric, string(m)); err != nil {
		return nil, s.lookupError(key, err)
	}
	s.logger.WithContext(ctx).Info("Method preference set", "subject", key, "metric", metric, "method", m)
	return s.Get(ctx, key)
}

// ClearPreference removes the preference of metric
func (s *SubjectService) ClearPreference(ctx context.Context, key, metric string) (*models.SubjectResponse, error) {
	if err := s.metadata.ClearPreferredMethod(ctx, key, metric); err != nil {
		return nil, s.lookupError(key, err)
	}
	return s.Get(ctx, key)
}

func (s *SubjectService) lookupError(key string, err error) error {
	if errors.Is(err, metadata.ErrNotFound) {
		return NewServiceError(CodeSubjectNotFound, "subject not found: "+key)
	}
	return internalError(CodeMetadataFailed, "metadata operation failed", err)
}

func subjectResponse(s *metadata.Subject) *models.SubjectResponse {
	return &models.SubjectResponse{
		Key:              s.Key,
		Name:             s.Name,
		Description:      s.Description,
		Metrics:          s.Metrics,
		PreferredMethods: s.PreferredMethods,
		CreatedAt:        s.CreatedAt.UTC().Format(time.RFC3339),
	}
}
