package repository

import (
	"cmp"
	"context"
	"database/sql"
	"slices"
	"strings"
	"sync"
	"time"

	"github.com/noah-isme/knowledgevault-api/internal/models"
)

type achievementComparator func(a, b *models.Achievement) int

var achievementComparators = map[models.SortField]achievementComparator{
	models.SortCreateTime:   func(a, b *models.Achievement) int { return a.CreatedAt.Compare(b.CreatedAt) },
	models.SortModifiedTime: func(a, b *models.Achievement) int { return a.ModifiedAt.Compare(b.ModifiedAt) },
	models.SortYear:         func(a, b *models.Achievement) int { return cmp.Compare(a.Year, b.Year) },
	models.SortFirstAuthor:  func(a, b *models.Achievement) int { return strings.Compare(a.FirstAuthor, b.FirstAuthor) },
	models.SortCorrespond:   func(a, b *models.Achievement) int { return strings.Compare(a.Correspond, b.Correspond) },
	models.SortType:         func(a, b *models.Achievement) int { return cmp.Compare(a.Type, b.Type) },
	models.SortSubType:      func(a, b *models.Achievement) int { return strings.Compare(a.SubType, b.SubType) },
	models.SortTitle:        func(a, b *models.Achievement) int { return strings.Compare(a.Title, b.Title) },
	models.SortTheme:        func(a, b *models.Achievement) int { return strings.Compare(a.Theme, b.Theme) },
}

// MemoryAchievementRepository keeps achievements in process memory, in insertion order.
type MemoryAchievementRepository struct {
	mu     sync.RWMutex
	items  []models.Achievement
	nextID int64
	now    func() time.Time
}

// NewMemoryAchievementRepository constructs an empty in-memory store.
func NewMemoryAchievementRepository() *MemoryAchievementRepository {
	return &MemoryAchievementRepository{nextID: 1, now: func() time.Time { return time.Now().UTC() }}
}

// Seed appends records verbatim, keeping their ids, flags and timestamps.
func (r *MemoryAchievementRepository) Seed(records ...models.Achievement) {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, rec := range records {
		if rec.ID == 0 {
			rec.ID = r.nextID
		}
		if rec.ID >= r.nextID {
			r.nextID = rec.ID + 1
		}
		r.items = append(r.items, rec)
	}
}

// List returns the requested page of live achievements and the filtered total.
func (r *MemoryAchievementRepository) List(ctx context.Context, filter models.AchievementFilter) ([]models.Achievement, int, error) {
	if err := ctx.Err(); err != nil {
		return nil, 0, err
	}
	matchers := achievementMatchers(filter)

	r.mu.RLock()
	matched := make([]models.Achievement, 0, len(r.items))
	for i := range r.items {
		if matchesAll(&r.items[i], matchers) {
			matched = append(matched, r.items[i])
		}
	}
	r.mu.RUnlock()

	total := len(matched)

	if compare, ok := achievementComparators[filter.Sort]; ok {
		if filter.Ascending {
			slices.SortStableFunc(matched, func(a, b models.Achievement) int { return compare(&a, &b) })
		} else {
			slices.SortStableFunc(matched, func(a, b models.Achievement) int { return compare(&b, &a) })
		}
	}

	if filter.Paginated() {
		start := min(filter.Offset(), len(matched))
		end := min(start+filter.PageSize, len(matched))
		matched = matched[start:end]
	}
	return matched, total, nil
}

// FindByID fetches a live achievement. Missing and soft-deleted records yield sql.ErrNoRows.
func (r *MemoryAchievementRepository) FindByID(ctx context.Context, id int64) (*models.Achievement, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	idx := r.indexLive(func(a *models.Achievement) bool { return a.ID == id })
	if idx < 0 {
		return nil, sql.ErrNoRows
	}
	found := r.items[idx]
	return &found, nil
}

// FindByFileID resolves the live achievement owning an attachment.
func (r *MemoryAchievementRepository) FindByFileID(ctx context.Context, fileID string) (*models.Achievement, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	idx := r.indexLive(func(a *models.Achievement) bool { return a.FileID != nil && *a.FileID == fileID })
	if idx < 0 {
		return nil, sql.ErrNoRows
	}
	found := r.items[idx]
	return &found, nil
}

// Create appends a new achievement unless a live one shares its title and type.
func (r *MemoryAchievementRepository) Create(ctx context.Context, achievement *models.Achievement) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.hasDuplicate(achievement.Title, achievement.Type, 0) {
		return models.ErrDuplicateAchievement
	}
	now := r.now()
	achievement.ID = r.nextID
	achievement.CreatedAt = now
	achievement.ModifiedAt = now
	achievement.IsDeleted = false
	r.nextID++
	r.items = append(r.items, *achievement)
	return nil
}

// Update rewrites the descriptive fields of a live achievement.
func (r *MemoryAchievementRepository) Update(ctx context.Context, achievement *models.Achievement) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	idx := r.indexLive(func(a *models.Achievement) bool { return a.ID == achievement.ID })
	if idx < 0 {
		return sql.ErrNoRows
	}
	if r.hasDuplicate(achievement.Title, achievement.Type, achievement.ID) {
		return models.ErrDuplicateAchievement
	}
	current := &r.items[idx]
	achievement.CreatedAt = current.CreatedAt
	achievement.ModifiedAt = r.now()
	achievement.FileID = current.FileID
	achievement.FileExtension = current.FileExtension
	achievement.FileChecksum = current.FileChecksum
	achievement.IsDeleted = false
	*current = *achievement
	return nil
}

// SoftDelete flags a live achievement as deleted.
func (r *MemoryAchievementRepository) SoftDelete(ctx context.Context, id int64) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	idx := r.indexLive(func(a *models.Achievement) bool { return a.ID == id })
	if idx < 0 {
		return sql.ErrNoRows
	}
	r.items[idx].IsDeleted = true
	r.items[idx].ModifiedAt = r.now()
	return nil
}

// AttachFile records attachment metadata on a live achievement.
func (r *MemoryAchievementRepository) AttachFile(ctx context.Context, id int64, fileID, extension, checksum string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	idx := r.indexLive(func(a *models.Achievement) bool { return a.ID == id })
	if idx < 0 {
		return sql.ErrNoRows
	}
	item := &r.items[idx]
	item.FileID = &fileID
	item.FileExtension = extension
	item.FileChecksum = checksum
	item.ModifiedAt = r.now()
	return nil
}

func (r *MemoryAchievementRepository) indexLive(match func(*models.Achievement) bool) int {
	for i := range r.items {
		if !r.items[i].IsDeleted && match(&r.items[i]) {
			return i
		}
	}
	return -1
}

func (r *MemoryAchievementRepository) hasDuplicate(title string, typ int, excludeID int64) bool {
	return r.indexLive(func(a *models.Achievement) bool {
		return a.ID != excludeID && a.Title == title && a.Type == typ
	}) >= 0
}

type achievementMatcher func(*models.Achievement) bool

func achievementMatchers(filter models.AchievementFilter) []achievementMatcher {
	matchers := []achievementMatcher{func(a *models.Achievement) bool { return !a.IsDeleted }}
	if year, ok := filter.Year.Get(); ok {
		matchers = append(matchers, func(a *models.Achievement) bool { return a.Year == year })
	}
	if typ, ok := filter.Type.Get(); ok {
		matchers = append(matchers, func(a *models.Achievement) bool { return a.Type == typ })
	}
	if subType, ok := filter.SubType.Get(); ok {
		matchers = append(matchers, func(a *models.Achievement) bool { return a.SubType == subType })
	}
	if theme, ok := filter.Theme.Get(); ok {
		matchers = append(matchers, func(a *models.Achievement) bool { return a.Theme == theme })
	}
	if author, ok := filter.Author.Get(); ok {
		matchers = append(matchers, func(a *models.Achievement) bool { return containsFold(a.FirstAuthor, author) })
	}
	if correspond, ok := filter.Correspond.Get(); ok {
		matchers = append(matchers, func(a *models.Achievement) bool { return containsFold(a.Correspond, correspond) })
	}
	if title, ok := filter.Title.Get(); ok {
		matchers = append(matchers, func(a *models.Achievement) bool { return containsFold(a.Title, title) })
	}
	return matchers
}

func matchesAll(a *models.Achievement, matchers []achievementMatcher) bool {
	for _, match := range matchers {
		if !match(a) {
			return false
		}
	}
	return true
}

func containsFold(value, substr string) bool {
	return strings.Contains(strings.ToLower(value), strings.ToLower(substr))
}
