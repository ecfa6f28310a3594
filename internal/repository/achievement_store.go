package repository

import (
	"context"

	"github.com/noah-isme/knowledgevault-api/internal/models"
)

// AchievementStore is implemented by every achievement backend. Lookups and
// mutations on missing or soft-deleted records return sql.ErrNoRows; title+type
// collisions return models.ErrDuplicateAchievement.
type AchievementStore interface {
	List(ctx context.Context, filter models.AchievementFilter) ([]models.Achievement, int, error)
	FindByID(ctx context.Context, id int64) (*models.Achievement, error)
	FindByFileID(ctx context.Context, fileID string) (*models.Achievement, error)
	Create(ctx context.Context, achievement *models.Achievement) error
	Update(ctx context.Context, achievement *models.Achievement) error
	SoftDelete(ctx context.Context, id int64) error
	AttachFile(ctx context.Context, id int64, fileID, extension, checksum string) error
}

var (
	_ AchievementStore = (*AchievementRepository)(nil)
	_ AchievementStore = (*MemoryAchievementRepository)(nil)
)

// AuditLogWriter persists audit trail entries.
type AuditLogWriter interface {
	CreateAuditLog(ctx context.Context, log *models.AuditLog) error
}

var (
	_ AuditLogWriter = (*AuditRepository)(nil)
	_ AuditLogWriter = (*MemoryAuditRepository)(nil)
)
