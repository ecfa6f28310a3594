package handler

import (
	"bytes"
	"encoding/json"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"net/url"
	"strconv"
	"strings"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/noah-isme/knowledgevault-api/internal/dto"
	"github.com/noah-isme/knowledgevault-api/internal/middleware"
	"github.com/noah-isme/knowledgevault-api/internal/models"
	"github.com/noah-isme/knowledgevault-api/internal/repository"
	"github.com/noah-isme/knowledgevault-api/internal/service"
	"github.com/noah-isme/knowledgevault-api/pkg/storage"
)

type envelope struct {
	Data       json.RawMessage        `json:"data"`
	Error      *struct{ Code string } `json:"error"`
	Pagination *models.Pagination     `json:"pagination"`
	Meta       map[string]interface{} `json:"meta"`
}

func newTestRouter(t *testing.T, requireToken bool) *gin.Engine {
	t.Helper()
	gin.SetMode(gin.TestMode)

	files, err := storage.NewLocalStorage(t.TempDir())
	require.NoError(t, err)
	svc := service.NewAchievementService(repository.NewMemoryAchievementRepository(), service.AchievementServiceDeps{
		Metrics: service.NewMetricsService(),
		Files:   files,
		Signer:  storage.NewSignedURLSigner("handler-secret", time.Hour),
	}, service.AchievementServiceConfig{APIPrefix: "/api/v1"})

	r := gin.New()
	r.Use(middleware.WithResponseMeta(), middleware.Token(middleware.TokenConfig{}))
	var guard gin.HandlerFunc
	if requireToken {
		guard = middleware.RequireToken()
	}
	RegisterAchievementRoutes(r.Group("/api/v1"), NewAchievementHandler(svc), guard)
	return r
}

func do(r http.Handler, method, target string, body []byte) *httptest.ResponseRecorder {
	req := httptest.NewRequest(method, target, bytes.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	rec := httptest.NewRecorder()
	r.ServeHTTP(rec, req)
	return rec
}

func decode(t *testing.T, rec *httptest.ResponseRecorder) envelope {
	t.Helper()
	var env envelope
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &env))
	return env
}

func seed(t *testing.T, r http.Handler, title, author string, year int) models.Achievement {
	t.Helper()
	payload, _ := json.Marshal(dto.CreateAchievementRequest{Title: title, FirstAuthor: author, Year: year, Type: 1})
	rec := do(r, http.MethodPost, "/api/v1/achievements", payload)
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())
	var created models.Achievement
	require.NoError(t, json.Unmarshal(decode(t, rec).Data, &created))
	return created
}

func TestAchievementHandlerCRUD(t *testing.T) {
	r := newTestRouter(t, false)
	created := seed(t, r, "Graph Theory", "Alice", 2020)

	rec := do(r, http.MethodGet, "/api/v1/achievements/"+itoa(created.ID), nil)
	require.Equal(t, http.StatusOK, rec.Code)

	payload, _ := json.Marshal(dto.UpdateAchievementRequest{Title: "Graph Theory II", FirstAuthor: "Alice", Year: 2021, Type: 1})
	rec = do(r, http.MethodPut, "/api/v1/achievements/"+itoa(created.ID), payload)
	require.Equal(t, http.StatusOK, rec.Code)
	var updated models.Achievement
	require.NoError(t, json.Unmarshal(decode(t, rec).Data, &updated))
	assert.Equal(t, "Graph Theory II", updated.Title)

	rec = do(r, http.MethodDelete, "/api/v1/achievements/"+itoa(created.ID), nil)
	assert.Equal(t, http.StatusNoContent, rec.Code)

	rec = do(r, http.MethodGet, "/api/v1/achievements/"+itoa(created.ID), nil)
	assert.Equal(t, http.StatusNotFound, rec.Code)
	assert.Equal(t, "NOT_FOUND", decode(t, rec).Error.Code)
}

func TestAchievementHandlerCreateErrors(t *testing.T) {
	r := newTestRouter(t, false)

	rec := do(r, http.MethodPost, "/api/v1/achievements", []byte("{not json"))
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	seed(t, r, "Duplicate", "Alice", 2020)
	payload, _ := json.Marshal(dto.CreateAchievementRequest{Title: "Duplicate", FirstAuthor: "Bob", Year: 2020, Type: 1})
	rec = do(r, http.MethodPost, "/api/v1/achievements", payload)
	assert.Equal(t, http.StatusConflict, rec.Code)

	rec = do(r, http.MethodGet, "/api/v1/achievements/abc", nil)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestAchievementHandlerListFiltersSortsAndPages(t *testing.T) {
	r := newTestRouter(t, false)
	seed(t, r, "A", "Zed", 2020)
	seed(t, r, "B", "Amy", 2021)
	seed(t, r, "C", "Max", 2020)

	rec := do(r, http.MethodGet, "/api/v1/achievements?year=2020&sortField=firstAuthor&sortOrder=asc&pageIndex=1&pageSize=10", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	env := decode(t, rec)
	var items []models.Achievement
	require.NoError(t, json.Unmarshal(env.Data, &items))
	require.Len(t, items, 2)
	assert.Equal(t, "Max", items[0].FirstAuthor)
	assert.Equal(t, "Zed", items[1].FirstAuthor)
	require.NotNil(t, env.Pagination)
	assert.Equal(t, 2, env.Pagination.TotalCount)
	assert.Equal(t, false, env.Meta["cache_hit"])

	rec = do(r, http.MethodGet, "/api/v1/achievements?sortField=year&sortOrder=desc&page=1&limit=1", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	env = decode(t, rec)
	require.NoError(t, json.Unmarshal(env.Data, &items))
	require.Len(t, items, 1)
	assert.Equal(t, "B", items[0].Title)
	assert.Equal(t, 3, env.Pagination.TotalCount)

	rec = do(r, http.MethodGet, "/api/v1/achievements?pageIndex=0", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	require.NoError(t, json.Unmarshal(decode(t, rec).Data, &items))
	assert.Len(t, items, 3)
}

func TestAchievementHandlerListDefaults(t *testing.T) {
	r := newTestRouter(t, false)
	for i := 0; i < 25; i++ {
		seed(t, r, "Paper "+itoa(int64(i)), "Author", 2000+i)
	}

	rec := do(r, http.MethodGet, "/api/v1/achievements", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	env := decode(t, rec)
	var items []models.Achievement
	require.NoError(t, json.Unmarshal(env.Data, &items))
	assert.Len(t, items, 20)
	require.NotNil(t, env.Pagination)
	assert.Equal(t, models.Pagination{Page: 1, PageSize: 20, TotalCount: 25}, *env.Pagination)

	rec = do(r, http.MethodGet, "/api/v1/achievements?sortField=year&pageSize=3", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	require.NoError(t, json.Unmarshal(decode(t, rec).Data, &items))
	require.Len(t, items, 3)
	assert.Equal(t, []int{2024, 2023, 2022}, []int{items[0].Year, items[1].Year, items[2].Year})
}

func TestAchievementHandlerListRejectsBadQuery(t *testing.T) {
	r := newTestRouter(t, false)
	for _, query := range []string{"year=twenty", "type=x", "sortOrder=sideways", "pageSize=ten"} {
		rec := do(r, http.MethodGet, "/api/v1/achievements?"+query, nil)
		assert.Equal(t, http.StatusBadRequest, rec.Code, query)
	}
}

func TestAchievementHandlerExportCSV(t *testing.T) {
	r := newTestRouter(t, false)
	seed(t, r, "Graph Theory", "Alice", 2020)

	rec := do(r, http.MethodGet, "/api/v1/achievements/export?format=csv", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "text/csv; charset=utf-8", rec.Header().Get("Content-Type"))
	assert.Contains(t, rec.Header().Get("Content-Disposition"), "attachment")
	assert.Contains(t, rec.Body.String(), "Graph Theory")

	rec = do(r, http.MethodGet, "/api/v1/achievements/export?format=xlsx", nil)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestAchievementHandlerUploadAndDownload(t *testing.T) {
	r := newTestRouter(t, false)
	created := seed(t, r, "Graph Theory", "Alice", 2020)

	var body bytes.Buffer
	writer := multipart.NewWriter(&body)
	part, err := writer.CreateFormFile("file", "paper.pdf")
	require.NoError(t, err)
	_, _ = part.Write([]byte("%PDF-1.4 handler test"))
	require.NoError(t, writer.Close())

	req := httptest.NewRequest(http.MethodPost, "/api/v1/achievements/"+itoa(created.ID)+"/file", &body)
	req.Header.Set("Content-Type", writer.FormDataContentType())
	rec := httptest.NewRecorder()
	r.ServeHTTP(rec, req)
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())

	rec = do(r, http.MethodGet, "/api/v1/achievements/"+itoa(created.ID)+"/file-url", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	var link dto.AchievementFileURLResponse
	require.NoError(t, json.Unmarshal(decode(t, rec).Data, &link))
	assert.Equal(t, "Alice Graph Theory.pdf", link.FileName)

	parsed, err := url.Parse(link.DownloadURL)
	require.NoError(t, err)
	rec = do(r, http.MethodGet, parsed.RequestURI(), nil)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "%PDF-1.4 handler test", rec.Body.String())
	assert.Contains(t, rec.Header().Get("Content-Disposition"), "Alice Graph Theory.pdf")
	assert.NotEmpty(t, rec.Header().Get("ETag"))

	rec = do(r, http.MethodGet, "/api/v1/achievements/files/"+link.FileID+"?token=bogus", nil)
	assert.Equal(t, http.StatusUnauthorized, rec.Code)
}

func TestAchievementHandlerUploadRequiresFile(t *testing.T) {
	r := newTestRouter(t, false)
	created := seed(t, r, "Graph Theory", "Alice", 2020)

	req := httptest.NewRequest(http.MethodPost, "/api/v1/achievements/"+itoa(created.ID)+"/file", strings.NewReader(""))
	req.Header.Set("Content-Type", "multipart/form-data; boundary=x")
	rec := httptest.NewRecorder()
	r.ServeHTTP(rec, req)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestAchievementHandlerGuardsMutations(t *testing.T) {
	r := newTestRouter(t, true)

	payload, _ := json.Marshal(dto.CreateAchievementRequest{Title: "Guarded", FirstAuthor: "Alice", Year: 2020})
	rec := do(r, http.MethodPost, "/api/v1/achievements", payload)
	assert.Equal(t, http.StatusUnauthorized, rec.Code)

	req := httptest.NewRequest(http.MethodPost, "/api/v1/achievements", bytes.NewReader(payload))
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Authorization", "Bearer opaque")
	rec = httptest.NewRecorder()
	r.ServeHTTP(rec, req)
	assert.Equal(t, http.StatusCreated, rec.Code)

	rec = do(r, http.MethodGet, "/api/v1/achievements", nil)
	assert.Equal(t, http.StatusOK, rec.Code)
}

func itoa(id int64) string {
	return strconv.FormatInt(id, 10)
}
