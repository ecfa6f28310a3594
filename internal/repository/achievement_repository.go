package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/jmoiron/sqlx"
	"github.com/lib/pq"

	"github.com/noah-isme/knowledgevault-api/internal/models"
)

const pqUniqueViolation = "23505"

// AchievementRepository persists achievements in PostgreSQL.
type AchievementRepository struct {
	db *sqlx.DB
}

// NewAchievementRepository constructs an AchievementRepository.
func NewAchievementRepository(db *sqlx.DB) *AchievementRepository {
	return &AchievementRepository{db: db}
}

// List returns the requested page of live achievements and the filtered total.
func (r *AchievementRepository) List(ctx context.Context, filter models.AchievementFilter) ([]models.Achievement, int, error) {
	countQuery, countArgs, err := buildAchievementCountQuery(filter)
	if err != nil {
		return nil, 0, fmt.Errorf("build achievement count: %w", err)
	}
	var total int
	if err := r.db.GetContext(ctx, &total, countQuery, countArgs...); err != nil {
		return nil, 0, fmt.Errorf("count achievements: %w", err)
	}

	items := make([]models.Achievement, 0)
	if total == 0 {
		return items, 0, nil
	}

	query, args, err := buildAchievementListQuery(filter)
	if err != nil {
		return nil, 0, fmt.Errorf("build achievement list: %w", err)
	}
	if err := r.db.SelectContext(ctx, &items, query, args...); err != nil {
		return nil, 0, fmt.Errorf("list achievements: %w", err)
	}
	return items, total, nil
}

// FindByID fetches a live achievement. Missing and soft-deleted rows yield sql.ErrNoRows.
func (r *AchievementRepository) FindByID(ctx context.Context, id int64) (*models.Achievement, error) {
	query, args, err := buildAchievementByIDQuery(id, false)
	if err != nil {
		return nil, fmt.Errorf("build achievement lookup: %w", err)
	}
	var achievement models.Achievement
	if err := r.db.GetContext(ctx, &achievement, query, args...); err != nil {
		return nil, err
	}
	return &achievement, nil
}

// FindByFileID resolves the live achievement owning an attachment.
func (r *AchievementRepository) FindByFileID(ctx context.Context, fileID string) (*models.Achievement, error) {
	query, args, err := buildAchievementByFileIDQuery(fileID)
	if err != nil {
		return nil, fmt.Errorf("build achievement file lookup: %w", err)
	}
	var achievement models.Achievement
	if err := r.db.GetContext(ctx, &achievement, query, args...); err != nil {
		return nil, err
	}
	return &achievement, nil
}

// Create inserts a new achievement after checking title+type uniqueness within one transaction.
func (r *AchievementRepository) Create(ctx context.Context, achievement *models.Achievement) (err error) {
	tx, err := r.db.BeginTxx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin achievement transaction: %w", err)
	}
	defer func() {
		if err != nil {
			_ = tx.Rollback()
		}
	}()

	if err = r.ensureUnique(ctx, tx, achievement.Title, achievement.Type, 0); err != nil {
		return err
	}

	now := time.Now().UTC()
	achievement.CreatedAt = now
	achievement.ModifiedAt = now
	achievement.IsDeleted = false

	const query = `INSERT INTO achievements (title, first_author, correspond, other_authors, year, type, sub_type, theme, journal, note, file_id, file_extension, file_checksum, is_deleted, created_at, modified_at)
        VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, FALSE, $14, $15) RETURNING id`
	err = tx.QueryRowxContext(ctx, query,
		achievement.Title, achievement.FirstAuthor, achievement.Correspond, achievement.OtherAuthors,
		achievement.Year, achievement.Type, achievement.SubType, achievement.Theme,
		achievement.Journal, achievement.Note, achievement.FileID, achievement.FileExtension, achievement.FileChecksum,
		achievement.CreatedAt, achievement.ModifiedAt,
	).Scan(&achievement.ID)
	if err != nil {
		err = translateWriteError(err)
		if errors.Is(err, models.ErrDuplicateAchievement) {
			return err
		}
		return fmt.Errorf("create achievement: %w", err)
	}

	if err = tx.Commit(); err != nil {
		return fmt.Errorf("commit achievement: %w", err)
	}
	return nil
}

// Update rewrites the descriptive fields of a live achievement and refreshes its modified time.
func (r *AchievementRepository) Update(ctx context.Context, achievement *models.Achievement) (err error) {
	tx, err := r.db.BeginTxx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin achievement transaction: %w", err)
	}
	defer func() {
		if err != nil {
			_ = tx.Rollback()
		}
	}()

	lockQuery, lockArgs, err := buildAchievementByIDQuery(achievement.ID, true)
	if err != nil {
		return fmt.Errorf("build achievement lock: %w", err)
	}
	var current models.Achievement
	if err = tx.GetContext(ctx, &current, lockQuery, lockArgs...); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return sql.ErrNoRows
		}
		return fmt.Errorf("lock achievement: %w", err)
	}

	if err = r.ensureUnique(ctx, tx, achievement.Title, achievement.Type, achievement.ID); err != nil {
		return err
	}

	achievement.CreatedAt = current.CreatedAt
	achievement.ModifiedAt = time.Now().UTC()

	const query = `UPDATE achievements SET title = $2, first_author = $3, correspond = $4, other_authors = $5, year = $6, type = $7, sub_type = $8, theme = $9, journal = $10, note = $11, modified_at = $12
        WHERE id = $1 AND is_deleted = FALSE`
	if _, err = tx.ExecContext(ctx, query,
		achievement.ID, achievement.Title, achievement.FirstAuthor, achievement.Correspond, achievement.OtherAuthors,
		achievement.Year, achievement.Type, achievement.SubType, achievement.Theme,
		achievement.Journal, achievement.Note, achievement.ModifiedAt,
	); err != nil {
		err = translateWriteError(err)
		if errors.Is(err, models.ErrDuplicateAchievement) {
			return err
		}
		return fmt.Errorf("update achievement: %w", err)
	}

	if err = tx.Commit(); err != nil {
		return fmt.Errorf("commit achievement: %w", err)
	}
	achievement.FileID = current.FileID
	achievement.FileExtension = current.FileExtension
	achievement.FileChecksum = current.FileChecksum
	return nil
}

// SoftDelete flags a live achievement as deleted. Missing or already deleted rows yield sql.ErrNoRows.
func (r *AchievementRepository) SoftDelete(ctx context.Context, id int64) error {
	const query = `UPDATE achievements SET is_deleted = TRUE, modified_at = $2 WHERE id = $1 AND is_deleted = FALSE`
	res, err := r.db.ExecContext(ctx, query, id, time.Now().UTC())
	if err != nil {
		return fmt.Errorf("delete achievement: %w", err)
	}
	return requireAffected(res)
}

// AttachFile records attachment metadata on a live achievement.
func (r *AchievementRepository) AttachFile(ctx context.Context, id int64, fileID, extension, checksum string) error {
	const query = `UPDATE achievements SET file_id = $2, file_extension = $3, file_checksum = $4, modified_at = $5 WHERE id = $1 AND is_deleted = FALSE`
	res, err := r.db.ExecContext(ctx, query, id, fileID, extension, checksum, time.Now().UTC())
	if err != nil {
		return fmt.Errorf("attach achievement file: %w", err)
	}
	return requireAffected(res)
}

func (r *AchievementRepository) ensureUnique(ctx context.Context, q sqlx.QueryerContext, title string, typ int, excludeID int64) error {
	query, args, err := buildAchievementDuplicateQuery(title, typ, excludeID)
	if err != nil {
		return fmt.Errorf("build achievement duplicate check: %w", err)
	}
	var exists int
	if err := sqlx.GetContext(ctx, q, &exists, query, args...); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil
		}
		return fmt.Errorf("check achievement duplicate: %w", err)
	}
	return models.ErrDuplicateAchievement
}

func requireAffected(res sql.Result) error {
	affected, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("rows affected: %w", err)
	}
	if affected == 0 {
		return sql.ErrNoRows
	}
	return nil
}

func translateWriteError(err error) error {
	var pqErr *pq.Error
	if errors.As(err, &pqErr) && pqErr.Code == pqUniqueViolation {
		return models.ErrDuplicateAchievement
	}
	return err
}
