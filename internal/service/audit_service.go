package service

import (
	"context"
	"fmt"
	"strconv"

	jsoniter "github.com/json-iterator/go"
	"go.uber.org/zap"

	"github.com/noah-isme/knowledgevault-api/internal/models"
	"github.com/noah-isme/knowledgevault-api/pkg/jobs"
)

const (
	auditQueueName   = "audit"
	auditJobType     = "audit_log"
	auditResourceKey = "achievement"
)

var auditJSON = jsoniter.ConfigCompatibleWithStandardLibrary

type auditLogWriter interface {
	CreateAuditLog(ctx context.Context, log *models.AuditLog) error
}

// AuditServiceConfig sizes the background writer.
type AuditServiceConfig struct {
	Workers    int
	MaxRetries int
}

// AuditService records achievement mutations on a background worker pool so
// request latency never depends on the audit store.
type AuditService struct {
	repo    auditLogWriter
	queue   *jobs.Queue
	metrics *MetricsService
	logger  *zap.Logger
}

// NewAuditService wires the audit writer onto a job queue.
func NewAuditService(repo auditLogWriter, cfg AuditServiceConfig, metrics *MetricsService, logger *zap.Logger) *AuditService {
	if logger == nil {
		logger = zap.NewNop()
	}
	s := &AuditService{repo: repo, metrics: metrics, logger: logger}
	s.queue = jobs.NewQueue(auditQueueName, s.handle, jobs.QueueConfig{
		Workers:    cfg.Workers,
		MaxRetries: cfg.MaxRetries,
		Logger:     logger,
	})
	return s
}

// Start launches the audit workers.
func (s *AuditService) Start(ctx context.Context) {
	s.queue.Start(ctx)
}

// Stop flushes pending entries and stops the workers.
func (s *AuditService) Stop() {
	s.queue.Stop()
}

// Record enqueues an audit entry for an achievement mutation. Failures are
// logged and counted, never returned.
func (s *AuditService) Record(ctx context.Context, action string, achievementID int64, values interface{}) {
	if s == nil {
		return
	}
	entry := &models.AuditLog{
		Action:   action,
		Resource: auditResourceKey,
	}
	if achievementID > 0 {
		id := strconv.FormatInt(achievementID, 10)
		entry.ResourceID = &id
	}
	if caller := models.CallerFrom(ctx); caller != nil {
		entry.Actor = caller.Actor()
		entry.IPAddress = caller.IPAddress
		entry.UserAgent = caller.UserAgent
	}
	if values != nil {
		payload, err := auditJSON.Marshal(values)
		if err != nil {
			s.logger.Warn("audit payload not serialisable", zap.String("action", action), zap.Error(err))
		} else {
			entry.NewValues = payload
		}
	}

	if err := s.queue.TryEnqueue(jobs.Job{ID: fmt.Sprintf("%s:%d", action, achievementID), Type: auditJobType, Payload: entry}); err != nil {
		s.metrics.RecordAudit(false)
		s.logger.Warn("audit entry dropped", zap.String("action", action), zap.Int64("achievement_id", achievementID), zap.Error(err))
		return
	}
	s.metrics.RecordAudit(true)
}

func (s *AuditService) handle(ctx context.Context, job jobs.Job) error {
	entry, ok := job.Payload.(*models.AuditLog)
	if !ok {
		s.logger.Error("unexpected audit payload", zap.String("job_id", job.ID))
		return nil
	}
	if err := s.repo.CreateAuditLog(ctx, entry); err != nil {
		return fmt.Errorf("persist audit log: %w", err)
	}
	return nil
}
