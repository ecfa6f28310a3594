package repository

import (
	"context"
	"testing"

	sqlmock "github.com/DATA-DOG/go-sqlmock"
	"github.com/jmoiron/sqlx"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/noah-isme/knowledgevault-api/internal/models"
)

func TestAuditRepositoryCreateAuditLog(t *testing.T) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	defer db.Close()
	repo := NewAuditRepository(sqlx.NewDb(db, "postgres"))

	resourceID := "12"
	mock.ExpectExec(`INSERT INTO audit_logs`).
		WithArgs(sqlmock.AnyArg(), nil, models.AuditActionAchievementDelete, "achievement", "12", sqlmock.AnyArg(), "127.0.0.1", "curl", sqlmock.AnyArg()).
		WillReturnResult(sqlmock.NewResult(0, 1))

	entry := &models.AuditLog{
		Action:     models.AuditActionAchievementDelete,
		Resource:   "achievement",
		ResourceID: &resourceID,
		IPAddress:  "127.0.0.1",
		UserAgent:  "curl",
	}
	require.NoError(t, repo.CreateAuditLog(context.Background(), entry))
	assert.NotEmpty(t, entry.ID)
	assert.False(t, entry.CreatedAt.IsZero())
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestMemoryAuditRepositoryCopiesLogs(t *testing.T) {
	repo := NewMemoryAuditRepository()
	require.NoError(t, repo.CreateAuditLog(context.Background(), &models.AuditLog{Action: models.AuditActionAchievementCreate}))

	logs := repo.Logs()
	require.Len(t, logs, 1)
	logs[0].Action = "mutated"
	assert.Equal(t, models.AuditActionAchievementCreate, repo.Logs()[0].Action)
}
