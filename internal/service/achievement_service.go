package service

import (
	"bytes"
	"context"
	"database/sql"
	"errors"
	"fmt"
	"io"
	"mime"
	"net/http"
	"net/url"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/noah-isme/knowledgevault-api/internal/dto"
	"github.com/noah-isme/knowledgevault-api/internal/models"
	appErrors "github.com/noah-isme/knowledgevault-api/pkg/errors"
	"github.com/noah-isme/knowledgevault-api/pkg/export"
	"github.com/noah-isme/knowledgevault-api/pkg/storage"
)

type achievementStore interface {
	List(ctx context.Context, filter models.AchievementFilter) ([]models.Achievement, int, error)
	FindByID(ctx context.Context, id int64) (*models.Achievement, error)
	FindByFileID(ctx context.Context, fileID string) (*models.Achievement, error)
	Create(ctx context.Context, achievement *models.Achievement) error
	Update(ctx context.Context, achievement *models.Achievement) error
	SoftDelete(ctx context.Context, id int64) error
	AttachFile(ctx context.Context, id int64, fileID, extension, checksum string) error
}

type attachmentStorage interface {
	SaveStream(name string, r io.Reader, maxBytes int64) (*storage.StoredFile, error)
	Open(name string) (*os.File, error)
	Delete(name string) error
}

type attachmentSigner interface {
	Sign(fileID, name string) (string, time.Time, error)
	Verify(token string) (*storage.SignedFile, error)
}

type auditRecorder interface {
	Record(ctx context.Context, action string, achievementID int64, values interface{})
}

// AttachmentUpload is a file received for an achievement.
type AttachmentUpload struct {
	FileName    string
	ContentType string
	Size        int64
	Content     io.ReadSeeker
}

// AttachmentDownload is an opened attachment ready to stream. Callers close File.
type AttachmentDownload struct {
	File        *os.File
	FileName    string
	ContentType string
	Checksum    string
	SizeBytes   int64
	ModifiedAt  time.Time
}

// ExportResult is a rendered listing export.
type ExportResult struct {
	Content     []byte
	ContentType string
	FileName    string
}

// AchievementServiceConfig holds attachment limits and URL settings.
type AchievementServiceConfig struct {
	APIPrefix    string
	MaxFileSize  int64
	AllowedMIMEs []string
	CacheTTL     time.Duration
}

// AchievementService implements the achievement use cases on top of a store.
type AchievementService struct {
	store     achievementStore
	cache     *CacheService
	metrics   *MetricsService
	audit     auditRecorder
	files     attachmentStorage
	signer    attachmentSigner
	validator *validator.Validate
	logger    *zap.Logger
	cfg       AchievementServiceConfig
	mimeSet   map[string]struct{}
	now       func() time.Time
}

// AchievementServiceDeps groups the optional collaborators of AchievementService.
type AchievementServiceDeps struct {
	Cache     *CacheService
	Metrics   *MetricsService
	Audit     auditRecorder
	Files     attachmentStorage
	Signer    attachmentSigner
	Validator *validator.Validate
	Logger    *zap.Logger
}

// NewAchievementService constructs the service with defaults.
func NewAchievementService(store achievementStore, deps AchievementServiceDeps, cfg AchievementServiceConfig) *AchievementService {
	if deps.Validator == nil {
		deps.Validator = validator.New()
	}
	if deps.Logger == nil {
		deps.Logger = zap.NewNop()
	}
	if cfg.APIPrefix == "" {
		cfg.APIPrefix = "/api/v1"
	}
	if cfg.MaxFileSize <= 0 {
		cfg.MaxFileSize = 20 * 1024 * 1024
	}
	if len(cfg.AllowedMIMEs) == 0 {
		cfg.AllowedMIMEs = []string{
			"application/pdf",
			"application/msword",
			"application/vnd.openxmlformats-officedocument.wordprocessingml.document",
			"application/zip",
		}
	}
	mimeSet := make(map[string]struct{}, len(cfg.AllowedMIMEs))
	for _, mt := range cfg.AllowedMIMEs {
		mimeSet[strings.ToLower(strings.TrimSpace(mt))] = struct{}{}
	}
	return &AchievementService{
		store:     store,
		cache:     deps.Cache,
		metrics:   deps.Metrics,
		audit:     deps.Audit,
		files:     deps.Files,
		signer:    deps.Signer,
		validator: deps.Validator,
		logger:    deps.Logger,
		cfg:       cfg,
		mimeSet:   mimeSet,
		now:       time.Now,
	}
}

// List runs the listing query, serving repeated requests from the cache. The
// boolean reports a cache hit.
func (s *AchievementService) List(ctx context.Context, filter models.AchievementFilter) (*models.AchievementPage, bool, error) {
	// the generation is read before the store so a concurrent mutation
	// retires whatever this call ends up caching
	version, cacheable := s.cache.Version(ctx, achievementCacheNamespace)
	key := achievementListKey(version, filter.CacheKey())
	if cacheable {
		var cached models.AchievementPage
		if hit, _ := s.cache.Get(ctx, key, &cached); hit {
			return &cached, true, nil
		}
	}

	start := time.Now()
	items, total, err := s.store.List(ctx, filter)
	s.metrics.ObserveStoreOperation("list", time.Since(start))
	if err != nil {
		s.logger.Error("list achievements failed", zap.Error(err))
		return nil, false, appErrors.Internal(err, "failed to list achievements")
	}
	if items == nil {
		items = []models.Achievement{}
	}

	page := &models.AchievementPage{Items: items, TotalCount: total, Page: filter.Page, PageSize: filter.PageSize}
	if cacheable {
		_ = s.cache.Set(ctx, key, page, s.cfg.CacheTTL)
	}
	return page, false, nil
}

// Get returns a live achievement.
func (s *AchievementService) Get(ctx context.Context, id int64) (*models.Achievement, error) {
	start := time.Now()
	achievement, err := s.store.FindByID(ctx, id)
	s.metrics.ObserveStoreOperation("get", time.Since(start))
	if err != nil {
		return nil, s.storeError(err, "failed to load achievement")
	}
	return achievement, nil
}

// Create registers a new achievement. A live record with the same title and type is a conflict.
func (s *AchievementService) Create(ctx context.Context, req dto.CreateAchievementRequest) (*models.Achievement, error) {
	if err := s.validator.Struct(req); err != nil {
		return nil, appErrors.Invalid(err, "invalid achievement payload")
	}
	achievement := req.ToModel()
	if err := requireText(achievement); err != nil {
		return nil, err
	}

	start := time.Now()
	err := s.store.Create(ctx, achievement)
	s.metrics.ObserveStoreOperation("create", time.Since(start))
	if err != nil {
		return nil, s.storeError(err, "failed to create achievement")
	}

	s.logger.Info("achievement created", zap.Int64("id", achievement.ID), zap.String("title", achievement.Title))
	s.afterMutation(ctx, models.AuditActionAchievementCreate, achievement.ID, achievement)
	return achievement, nil
}

// Update replaces the descriptive fields of a live achievement.
func (s *AchievementService) Update(ctx context.Context, id int64, req dto.UpdateAchievementRequest) (*models.Achievement, error) {
	if err := s.validator.Struct(req); err != nil {
		return nil, appErrors.Invalid(err, "invalid achievement payload")
	}
	achievement := &models.Achievement{ID: id}
	req.Apply(achievement)
	if err := requireText(achievement); err != nil {
		return nil, err
	}

	start := time.Now()
	err := s.store.Update(ctx, achievement)
	s.metrics.ObserveStoreOperation("update", time.Since(start))
	if err != nil {
		return nil, s.storeError(err, "failed to update achievement")
	}

	s.afterMutation(ctx, models.AuditActionAchievementUpdate, id, achievement)
	return achievement, nil
}

// Delete soft-deletes a live achievement.
func (s *AchievementService) Delete(ctx context.Context, id int64) error {
	start := time.Now()
	err := s.store.SoftDelete(ctx, id)
	s.metrics.ObserveStoreOperation("delete", time.Since(start))
	if err != nil {
		return s.storeError(err, "failed to delete achievement")
	}
	s.afterMutation(ctx, models.AuditActionAchievementDelete, id, nil)
	return nil
}

// UploadFile stores an attachment for a live achievement, replacing any previous one.
func (s *AchievementService) UploadFile(ctx context.Context, id int64, upload AttachmentUpload) (*models.Achievement, error) {
	if s.files == nil {
		return nil, appErrors.Clone(appErrors.ErrUnavailable, "attachment storage not configured")
	}
	current, err := s.Get(ctx, id)
	if err != nil {
		return nil, err
	}
	if upload.Content == nil || upload.Size <= 0 {
		return nil, appErrors.Clone(appErrors.ErrValidation, "file is required")
	}
	if upload.Size > s.cfg.MaxFileSize {
		return nil, appErrors.Clone(appErrors.ErrValidation, fmt.Sprintf("file exceeds %d bytes limit", s.cfg.MaxFileSize))
	}
	mimeType, err := detectMime(upload)
	if err != nil {
		return nil, err
	}
	if _, allowed := s.mimeSet[mimeType]; !allowed {
		return nil, appErrors.Clone(appErrors.ErrValidation, "mime type not allowed")
	}

	ext := attachmentExtension(mimeType)
	fileID := uuid.NewString()
	stored, err := s.files.SaveStream(fileID+ext, upload.Content, s.cfg.MaxFileSize)
	if err != nil {
		if errors.Is(err, storage.ErrTooLarge) {
			return nil, appErrors.Clone(appErrors.ErrValidation, fmt.Sprintf("file exceeds %d bytes limit", s.cfg.MaxFileSize))
		}
		return nil, appErrors.Internal(err, "failed to persist attachment")
	}

	if err := s.store.AttachFile(ctx, id, fileID, ext, stored.Checksum); err != nil {
		_ = s.files.Delete(stored.Name)
		return nil, s.storeError(err, "failed to record attachment")
	}
	if current.HasFile() {
		if err := s.files.Delete(*current.FileID + current.FileExtension); err != nil {
			s.logger.Warn("failed to remove replaced attachment", zap.Int64("id", id), zap.Error(err))
		}
	}

	updated, err := s.Get(ctx, id)
	if err != nil {
		return nil, err
	}
	s.afterMutation(ctx, models.AuditActionAchievementUpload, id, map[string]interface{}{
		"file_id":    fileID,
		"file_name":  upload.FileName,
		"extension":  ext,
		"size_bytes": stored.SizeBytes,
		"checksum":   stored.Checksum,
	})
	return updated, nil
}

// FileURL issues a signed, expiring download link for the achievement's attachment.
func (s *AchievementService) FileURL(ctx context.Context, id int64) (*dto.AchievementFileURLResponse, error) {
	if s.signer == nil {
		return nil, appErrors.Clone(appErrors.ErrUnavailable, "attachment signing not configured")
	}
	achievement, err := s.Get(ctx, id)
	if err != nil {
		return nil, err
	}
	if !achievement.HasFile() {
		return nil, appErrors.Clone(appErrors.ErrNotFound, "achievement has no attachment")
	}
	fileID := *achievement.FileID
	token, expiresAt, err := s.signer.Sign(fileID, fileID+achievement.FileExtension)
	if err != nil {
		return nil, appErrors.Internal(err, "failed to sign download url")
	}
	downloadURL := fmt.Sprintf("%s/achievements/files/%s?token=%s", strings.TrimRight(s.cfg.APIPrefix, "/"), url.PathEscape(fileID), url.QueryEscape(token))
	return &dto.AchievementFileURLResponse{
		FileID:      fileID,
		FileName:    achievement.DownloadName(),
		DownloadURL: downloadURL,
		ExpiresAt:   expiresAt.UTC(),
	}, nil
}

// Download validates a signed token and opens the attachment it names.
func (s *AchievementService) Download(ctx context.Context, fileID, token string) (*AttachmentDownload, error) {
	if s.files == nil || s.signer == nil {
		return nil, appErrors.Clone(appErrors.ErrUnavailable, "attachment storage not configured")
	}
	if strings.TrimSpace(token) == "" {
		return nil, appErrors.Clone(appErrors.ErrUnauthorized, "download token required")
	}
	signed, err := s.signer.Verify(token)
	if err != nil || signed.FileID != fileID {
		return nil, appErrors.Clone(appErrors.ErrUnauthorized, "invalid or expired download token")
	}

	achievement, err := s.store.FindByFileID(ctx, fileID)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, appErrors.Clone(appErrors.ErrNotFound, "attachment not found")
		}
		return nil, appErrors.Internal(err, "failed to resolve attachment")
	}
	if signed.Name != fileID+achievement.FileExtension {
		return nil, appErrors.Clone(appErrors.ErrUnauthorized, "invalid or expired download token")
	}

	file, err := s.files.Open(signed.Name)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return nil, appErrors.Clone(appErrors.ErrNotFound, "attachment not found")
		}
		return nil, appErrors.Internal(err, "failed to open attachment")
	}
	info, err := file.Stat()
	if err != nil {
		_ = file.Close()
		return nil, appErrors.Internal(err, "failed to stat attachment")
	}

	contentType := mime.TypeByExtension(achievement.FileExtension)
	if contentType == "" {
		contentType = "application/octet-stream"
	}
	return &AttachmentDownload{
		File:        file,
		FileName:    achievement.DownloadName(),
		ContentType: contentType,
		Checksum:    achievement.FileChecksum,
		SizeBytes:   info.Size(),
		ModifiedAt:  achievement.ModifiedAt,
	}, nil
}

// Export renders the filtered, sorted listing without a page window.
func (s *AchievementService) Export(ctx context.Context, filter models.AchievementFilter, rawFormat string) (*ExportResult, error) {
	format, err := export.ParseFormat(rawFormat)
	if err != nil {
		return nil, appErrors.Clone(appErrors.ErrValidation, err.Error())
	}
	renderer, err := export.NewRenderer(format)
	if err != nil {
		return nil, appErrors.Clone(appErrors.ErrValidation, err.Error())
	}

	start := time.Now()
	items, _, err := s.store.List(ctx, filter.Unpaginated())
	s.metrics.ObserveStoreOperation("export", time.Since(start))
	if err != nil {
		return nil, appErrors.Internal(err, "failed to load achievements for export")
	}

	content, err := renderer.Render(achievementTable(items))
	if err != nil {
		return nil, appErrors.Internal(err, "failed to render export")
	}
	return &ExportResult{
		Content:     content,
		ContentType: renderer.ContentType(),
		FileName:    fmt.Sprintf("achievements-%s%s", s.now().UTC().Format("20060102-150405"), renderer.Extension()),
	}, nil
}

func (s *AchievementService) afterMutation(ctx context.Context, action string, id int64, values interface{}) {
	if err := s.cache.Invalidate(ctx, achievementCacheNamespace); err != nil {
		s.logger.Warn("listing cache not invalidated", zap.String("action", action), zap.Error(err))
	}
	if s.audit != nil {
		s.audit.Record(ctx, action, id, values)
	}
}

func (s *AchievementService) storeError(err error, message string) error {
	switch {
	case errors.Is(err, sql.ErrNoRows):
		return appErrors.Clone(appErrors.ErrNotFound, "achievement not found")
	case errors.Is(err, models.ErrDuplicateAchievement):
		return appErrors.Clone(appErrors.ErrConflict, models.ErrDuplicateAchievement.Error())
	default:
		s.logger.Error(message, zap.Error(err))
		return appErrors.Internal(err, message)
	}
}

func requireText(a *models.Achievement) error {
	if a.Title == "" {
		return appErrors.Clone(appErrors.ErrValidation, "title is required")
	}
	if a.FirstAuthor == "" {
		return appErrors.Clone(appErrors.ErrValidation, "first_author is required")
	}
	return nil
}

// oleHeader opens legacy Office compound documents, which the content sniffer
// reports as application/octet-stream.
var oleHeader = []byte{0xD0, 0xCF, 0x11, 0xE0, 0xA1, 0xB1, 0x1A, 0xE1}

const (
	mimeMSWord = "application/msword"
	mimeDOCX   = "application/vnd.openxmlformats-officedocument.wordprocessingml.document"
	mimeZIP    = "application/zip"
)

// detectMime classifies the upload by its leading bytes. The declared type
// only narrows a container format the sniffer cannot tell apart.
func detectMime(upload AttachmentUpload) (string, error) {
	header := make([]byte, 512)
	n, err := io.ReadFull(upload.Content, header)
	if err != nil && err != io.EOF && err != io.ErrUnexpectedEOF {
		return "", appErrors.Internal(err, "failed to inspect file")
	}
	if _, err := upload.Content.Seek(0, io.SeekStart); err != nil {
		return "", appErrors.Internal(err, "failed to reset upload stream")
	}
	if n == 0 {
		return "", appErrors.Clone(appErrors.ErrValidation, "empty file")
	}
	header = header[:n]
	sniffed, _, _ := mime.ParseMediaType(http.DetectContentType(header))
	sniffed = strings.ToLower(sniffed)
	declared, _, _ := mime.ParseMediaType(upload.ContentType)
	declared = strings.ToLower(declared)

	switch {
	case sniffed == mimeZIP && declared == mimeDOCX:
		return mimeDOCX, nil
	case sniffed == "application/octet-stream" && bytes.HasPrefix(header, oleHeader) && declared == mimeMSWord:
		return mimeMSWord, nil
	}
	return sniffed, nil
}

// attachmentExtension derives the stored extension from the accepted type,
// never from the client file name.
func attachmentExtension(mimeType string) string {
	switch mimeType {
	case "application/pdf":
		return ".pdf"
	case mimeMSWord:
		return ".doc"
	case mimeDOCX:
		return ".docx"
	case mimeZIP:
		return ".zip"
	case "image/png":
		return ".png"
	case "image/jpeg":
		return ".jpg"
	}
	if exts, err := mime.ExtensionsByType(mimeType); err == nil && len(exts) > 0 {
		return exts[0]
	}
	return ".bin"
}

func achievementTable(items []models.Achievement) export.Table {
	table := export.Table{
		Title: "Achievements",
		Columns: []export.Column{
			{Title: "ID", Width: 0.6},
			{Title: "Title", Width: 4},
			{Title: "First Author", Width: 1.8},
			{Title: "Correspond", Width: 1.8},
			{Title: "Other Authors", Width: 2.2},
			{Title: "Year", Width: 0.7},
			{Title: "Type", Width: 0.6},
			{Title: "Sub Type", Width: 1},
			{Title: "Theme", Width: 1.4},
			{Title: "Journal", Width: 2},
			{Title: "Created", Width: 1.2},
			{Title: "Modified", Width: 1.2},
		},
		Rows: make([][]string, 0, len(items)),
	}
	for _, a := range items {
		table.Rows = append(table.Rows, []string{
			strconv.FormatInt(a.ID, 10),
			a.Title,
			a.FirstAuthor,
			a.Correspond,
			a.OtherAuthors,
			strconv.Itoa(a.Year),
			strconv.Itoa(a.Type),
			a.SubType,
			a.Theme,
			a.Journal,
			a.CreatedAt.UTC().Format("2006-01-02"),
			a.ModifiedAt.UTC().Format("2006-01-02"),
		})
	}
	return table
}
