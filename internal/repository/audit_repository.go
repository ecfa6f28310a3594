package repository

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"

	"github.com/noah-isme/knowledgevault-api/internal/models"
)

// AuditRepository writes audit trail entries to PostgreSQL.
type AuditRepository struct {
	db *sqlx.DB
}

// NewAuditRepository constructs an AuditRepository.
func NewAuditRepository(db *sqlx.DB) *AuditRepository {
	return &AuditRepository{db: db}
}

// CreateAuditLog inserts an audit entry.
func (r *AuditRepository) CreateAuditLog(ctx context.Context, log *models.AuditLog) error {
	prepareAuditLog(log)
	const query = `INSERT INTO audit_logs (id, actor, action, resource, resource_id, new_values, ip_address, user_agent, created_at)
        VALUES (:id, :actor, :action, :resource, :resource_id, :new_values, :ip_address, :user_agent, :created_at)`
	if _, err := r.db.NamedExecContext(ctx, query, log); err != nil {
		return fmt.Errorf("create audit log: %w", err)
	}
	return nil
}

// MemoryAuditRepository keeps audit entries in memory.
type MemoryAuditRepository struct {
	mu   sync.Mutex
	logs []models.AuditLog
}

// NewMemoryAuditRepository constructs an empty recorder.
func NewMemoryAuditRepository() *MemoryAuditRepository {
	return &MemoryAuditRepository{}
}

// CreateAuditLog records an audit entry.
func (r *MemoryAuditRepository) CreateAuditLog(ctx context.Context, log *models.AuditLog) error {
	prepareAuditLog(log)
	r.mu.Lock()
	defer r.mu.Unlock()
	r.logs = append(r.logs, *log)
	return nil
}

// Logs returns a copy of the recorded entries.
func (r *MemoryAuditRepository) Logs() []models.AuditLog {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := make([]models.AuditLog, len(r.logs))
	copy(out, r.logs)
	return out
}

func prepareAuditLog(log *models.AuditLog) {
	if log.ID == "" {
		log.ID = uuid.NewString()
	}
	if log.CreatedAt.IsZero() {
		log.CreatedAt = time.Now().UTC()
	}
}
