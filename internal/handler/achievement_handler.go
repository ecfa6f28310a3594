package handler

import (
	"context"
	"fmt"
	"net/http"
	"strconv"
	"strings"

	"github.com/gin-gonic/gin"

	"github.com/noah-isme/knowledgevault-api/internal/dto"
	"github.com/noah-isme/knowledgevault-api/internal/middleware"
	"github.com/noah-isme/knowledgevault-api/internal/models"
	"github.com/noah-isme/knowledgevault-api/internal/service"
	appErrors "github.com/noah-isme/knowledgevault-api/pkg/errors"
	"github.com/noah-isme/knowledgevault-api/pkg/response"
)

const (
	defaultPage     = 1
	defaultPageSize = 20
)

type achievementService interface {
	List(ctx context.Context, filter models.AchievementFilter) (*models.AchievementPage, bool, error)
	Get(ctx context.Context, id int64) (*models.Achievement, error)
	Create(ctx context.Context, req dto.CreateAchievementRequest) (*models.Achievement, error)
	Update(ctx context.Context, id int64, req dto.UpdateAchievementRequest) (*models.Achievement, error)
	Delete(ctx context.Context, id int64) error
	UploadFile(ctx context.Context, id int64, upload service.AttachmentUpload) (*models.Achievement, error)
	FileURL(ctx context.Context, id int64) (*dto.AchievementFileURLResponse, error)
	Download(ctx context.Context, fileID, token string) (*service.AttachmentDownload, error)
	Export(ctx context.Context, filter models.AchievementFilter, rawFormat string) (*service.ExportResult, error)
}

// AchievementHandler exposes achievement endpoints.
type AchievementHandler struct {
	service achievementService
}

// NewAchievementHandler constructs an achievement handler.
func NewAchievementHandler(svc achievementService) *AchievementHandler {
	return &AchievementHandler{service: svc}
}

// List godoc
// @Summary List achievements
// @Description Filters, sorts and pages live achievements. A page or size below 1 returns every match.
// @Tags Achievements
// @Produce json
// @Param year query int false "Exact year"
// @Param type query int false "Exact type"
// @Param subType query string false "Exact sub type"
// @Param theme query string false "Exact theme"
// @Param author query string false "First author contains (case-insensitive)"
// @Param correspond query string false "Corresponding author contains (case-insensitive)"
// @Param title query string false "Title contains (case-insensitive)"
// @Param sortField query string false "createtime, modifiedtime, year, firstauthor, correspond, type, subtype, title or theme"
// @Param sortOrder query string false "asc or desc, defaults to desc"
// @Param pageIndex query int false "Page (1-based)"
// @Param pageSize query int false "Page size"
// @Success 200 {object} response.Envelope
// @Failure 400 {object} response.Envelope
// @Router /achievements [get]
func (h *AchievementHandler) List(c *gin.Context) {
	filter, err := parseFilter(c, true)
	if err != nil {
		response.Error(c, err)
		return
	}
	page, cacheHit, err := h.service.List(c.Request.Context(), filter)
	if err != nil {
		response.Error(c, err)
		return
	}
	middleware.SetCacheHit(c, cacheHit)
	response.JSON(c, http.StatusOK, page.Items, page.Pagination(), middleware.ResponseMeta(c))
}

// Export godoc
// @Summary Export achievements
// @Description Renders every achievement matching the filters, ignoring the page window.
// @Tags Achievements
// @Produce text/csv
// @Produce application/pdf
// @Param format query string false "csv (default) or pdf"
// @Param sortField query string false "Sort field"
// @Param sortOrder query string false "asc or desc, defaults to desc"
// @Success 200 {file} binary
// @Failure 400 {object} response.Envelope
// @Router /achievements/export [get]
func (h *AchievementHandler) Export(c *gin.Context) {
	filter, err := parseFilter(c, false)
	if err != nil {
		response.Error(c, err)
		return
	}
	result, err := h.service.Export(c.Request.Context(), filter, c.Query("format"))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Attachment(c, result.FileName, result.ContentType, result.Content)
}

// Get godoc
// @Summary Get achievement detail
// @Tags Achievements
// @Produce json
// @Param id path int true "Achievement ID"
// @Success 200 {object} response.Envelope
// @Failure 404 {object} response.Envelope
// @Router /achievements/{id} [get]
func (h *AchievementHandler) Get(c *gin.Context) {
	id, err := pathID(c)
	if err != nil {
		response.Error(c, err)
		return
	}
	achievement, err := h.service.Get(c.Request.Context(), id)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, achievement, nil)
}

// Create godoc
// @Summary Create achievement
// @Tags Achievements
// @Accept json
// @Produce json
// @Param payload body dto.CreateAchievementRequest true "Achievement payload"
// @Success 201 {object} response.Envelope
// @Failure 400 {object} response.Envelope
// @Failure 409 {object} response.Envelope
// @Router /achievements [post]
func (h *AchievementHandler) Create(c *gin.Context) {
	var req dto.CreateAchievementRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, appErrors.Invalid(err, "invalid payload"))
		return
	}
	achievement, err := h.service.Create(c.Request.Context(), req)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Created(c, achievement)
}

// Update godoc
// @Summary Update achievement
// @Tags Achievements
// @Accept json
// @Produce json
// @Param id path int true "Achievement ID"
// @Param payload body dto.UpdateAchievementRequest true "Achievement payload"
// @Success 200 {object} response.Envelope
// @Failure 404 {object} response.Envelope
// @Failure 409 {object} response.Envelope
// @Router /achievements/{id} [put]
func (h *AchievementHandler) Update(c *gin.Context) {
	id, err := pathID(c)
	if err != nil {
		response.Error(c, err)
		return
	}
	var req dto.UpdateAchievementRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, appErrors.Invalid(err, "invalid payload"))
		return
	}
	achievement, err := h.service.Update(c.Request.Context(), id, req)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, achievement, nil)
}

// Delete godoc
// @Summary Delete achievement
// @Tags Achievements
// @Param id path int true "Achievement ID"
// @Success 204
// @Failure 404 {object} response.Envelope
// @Router /achievements/{id} [delete]
func (h *AchievementHandler) Delete(c *gin.Context) {
	id, err := pathID(c)
	if err != nil {
		response.Error(c, err)
		return
	}
	if err := h.service.Delete(c.Request.Context(), id); err != nil {
		response.Error(c, err)
		return
	}
	response.NoContent(c)
}

// UploadFile godoc
// @Summary Attach a file to an achievement
// @Tags Achievements
// @Accept multipart/form-data
// @Produce json
// @Param id path int true "Achievement ID"
// @Param file formData file true "Attachment"
// @Success 200 {object} response.Envelope
// @Failure 400 {object} response.Envelope
// @Router /achievements/{id}/file [post]
func (h *AchievementHandler) UploadFile(c *gin.Context) {
	id, err := pathID(c)
	if err != nil {
		response.Error(c, err)
		return
	}
	header, err := c.FormFile("file")
	if err != nil {
		response.Error(c, appErrors.Invalid(err, "file is required"))
		return
	}
	file, err := header.Open()
	if err != nil {
		response.Error(c, appErrors.Invalid(err, "unable to read uploaded file"))
		return
	}
	defer file.Close()

	achievement, err := h.service.UploadFile(c.Request.Context(), id, service.AttachmentUpload{
		FileName:    header.Filename,
		ContentType: header.Header.Get("Content-Type"),
		Size:        header.Size,
		Content:     file,
	})
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, achievement, nil)
}

// FileURL godoc
// @Summary Issue a signed download link
// @Tags Achievements
// @Produce json
// @Param id path int true "Achievement ID"
// @Success 200 {object} response.Envelope
// @Failure 404 {object} response.Envelope
// @Router /achievements/{id}/file-url [get]
func (h *AchievementHandler) FileURL(c *gin.Context) {
	id, err := pathID(c)
	if err != nil {
		response.Error(c, err)
		return
	}
	link, err := h.service.FileURL(c.Request.Context(), id)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, link, nil)
}

// Download godoc
// @Summary Download an attachment
// @Tags Achievements
// @Produce octet-stream
// @Param fileId path string true "File ID"
// @Param token query string true "Signed token"
// @Success 200 {file} binary
// @Failure 401 {object} response.Envelope
// @Failure 404 {object} response.Envelope
// @Router /achievements/files/{fileId} [get]
func (h *AchievementHandler) Download(c *gin.Context) {
	download, err := h.service.Download(c.Request.Context(), c.Param("fileId"), c.Query("token"))
	if err != nil {
		response.Error(c, err)
		return
	}
	defer download.File.Close()

	c.Header("Content-Type", download.ContentType)
	c.Header("Content-Disposition", response.ContentDisposition(download.FileName))
	if download.Checksum != "" {
		c.Header("ETag", fmt.Sprintf("%q", download.Checksum))
	}
	http.ServeContent(c.Writer, c.Request, download.FileName, download.ModifiedAt, download.File)
}

func pathID(c *gin.Context) (int64, error) {
	id, err := strconv.ParseInt(c.Param("id"), 10, 64)
	if err != nil || id < 1 {
		return 0, appErrors.Clone(appErrors.ErrValidation, "id must be a positive integer")
	}
	return id, nil
}

// parseFilter reads the listing query. Export passes paged=false and always
// receives the full result set.
func parseFilter(c *gin.Context, paged bool) (models.AchievementFilter, error) {
	var filter models.AchievementFilter
	var err error

	if filter.Year, err = optionalInt(c, "year"); err != nil {
		return filter, err
	}
	if filter.Type, err = optionalInt(c, "type"); err != nil {
		return filter, err
	}
	filter.SubType = optionalString(c, "subType")
	filter.Theme = optionalString(c, "theme")
	filter.Author = optionalString(c, "author")
	filter.Correspond = optionalString(c, "correspond")
	filter.Title = optionalString(c, "title")

	filter.Sort = models.ParseSortField(c.Query("sortField"))
	if filter.Ascending, err = parseSortOrder(c.Query("sortOrder")); err != nil {
		return filter, err
	}

	if !paged {
		return filter, nil
	}
	if filter.Page, err = intQuery(c, defaultPage, "pageIndex", "page"); err != nil {
		return filter, err
	}
	if filter.PageSize, err = intQuery(c, defaultPageSize, "pageSize", "limit"); err != nil {
		return filter, err
	}
	return filter, nil
}

func optionalString(c *gin.Context, key string) models.Optional[string] {
	value := strings.TrimSpace(c.Query(key))
	if value == "" {
		return models.None[string]()
	}
	return models.Some(value)
}

func optionalInt(c *gin.Context, key string) (models.Optional[int], error) {
	raw := strings.TrimSpace(c.Query(key))
	if raw == "" {
		return models.None[int](), nil
	}
	value, err := strconv.Atoi(raw)
	if err != nil {
		return models.None[int](), appErrors.Clone(appErrors.ErrValidation, key+" must be an integer")
	}
	return models.Some(value), nil
}

// intQuery returns the first non-empty key among aliases, or fallback.
func intQuery(c *gin.Context, fallback int, keys ...string) (int, error) {
	for _, key := range keys {
		raw := strings.TrimSpace(c.Query(key))
		if raw == "" {
			continue
		}
		value, err := strconv.Atoi(raw)
		if err != nil {
			return 0, appErrors.Clone(appErrors.ErrValidation, key+" must be an integer")
		}
		return value, nil
	}
	return fallback, nil
}

// parseSortOrder reports whether the listing sorts ascending; an omitted
// direction sorts newest-first.
func parseSortOrder(raw string) (bool, error) {
	switch strings.ToLower(strings.TrimSpace(raw)) {
	case "asc", "true":
		return true, nil
	case "", "desc", "false":
		return false, nil
	default:
		return false, appErrors.Clone(appErrors.ErrValidation, "sortOrder must be asc or desc")
	}
}
