package repository

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/noah-isme/knowledgevault-api/internal/models"
)

func TestBuildAchievementQueriesAlwaysExcludeDeleted(t *testing.T) {
	filter := models.AchievementFilter{Year: models.Some(2020), Page: 1, PageSize: 10}
	builders := map[string]func() (string, []interface{}, error){
		"count":     func() (string, []interface{}, error) { return buildAchievementCountQuery(filter) },
		"list":      func() (string, []interface{}, error) { return buildAchievementListQuery(filter) },
		"by id":     func() (string, []interface{}, error) { return buildAchievementByIDQuery(1, false) },
		"lock":      func() (string, []interface{}, error) { return buildAchievementByIDQuery(1, true) },
		"by file":   func() (string, []interface{}, error) { return buildAchievementByFileIDQuery("f") },
		"duplicate": func() (string, []interface{}, error) { return buildAchievementDuplicateQuery("t", 1, 0) },
	}
	for name, build := range builders {
		query, _, err := build()
		require.NoError(t, err, name)
		assert.Contains(t, query, `"is_deleted" IS`, name)
		assert.Contains(t, query, `FROM "achievements"`, name)
	}
}

func TestBuildAchievementListQueryFilters(t *testing.T) {
	filter := models.AchievementFilter{
		Year:       models.Some(2020),
		Type:       models.Some(1),
		SubType:    models.Some("SCI"),
		Theme:      models.Some("AI"),
		Author:     models.Some("ali_ce%"),
		Correspond: models.Some("bob"),
		Title:      models.Some(`graph\`),
	}
	query, args, err := buildAchievementListQuery(filter)
	require.NoError(t, err)

	for _, fragment := range []string{
		`"year" = $`, `"type" = $`, `"sub_type" = $`, `"theme" = $`,
		`"first_author" ILIKE $`, `"correspond" ILIKE $`, `"title" ILIKE $`,
	} {
		assert.Contains(t, query, fragment)
	}
	assert.Contains(t, args, `%ali\_ce\%%`)
	assert.Contains(t, args, `%bob%`)
	assert.Contains(t, args, `%graph\\%`)
	assert.Contains(t, args, "SCI")
	assert.NotContains(t, query, "ali")
}

func TestBuildAchievementListQueryOmitsAbsentFilters(t *testing.T) {
	query, _, err := buildAchievementListQuery(models.AchievementFilter{})
	require.NoError(t, err)
	assert.NotContains(t, query, "ILIKE")
	assert.NotContains(t, query, `"year" =`)
	assert.NotContains(t, query, "LIMIT")
	assert.NotContains(t, query, "OFFSET")
	assert.True(t, strings.HasSuffix(query, `ORDER BY "id" ASC`), query)
}

func TestBuildAchievementListQueryOrdering(t *testing.T) {
	for _, field := range models.SortFields() {
		column := achievementSortColumns[field]
		require.NotEmpty(t, column, field.String())

		asc, _, err := buildAchievementListQuery(models.AchievementFilter{Sort: field, Ascending: true})
		require.NoError(t, err)
		assert.Contains(t, asc, `ORDER BY "`+column+`" ASC, "id" ASC`)

		desc, _, err := buildAchievementListQuery(models.AchievementFilter{Sort: field})
		require.NoError(t, err)
		assert.Contains(t, desc, `ORDER BY "`+column+`" DESC, "id" ASC`)
	}
}

func TestBuildAchievementListQueryUnknownSortFallsBackToID(t *testing.T) {
	filter := models.AchievementFilter{Sort: models.ParseSortField("popularity"), Ascending: false}
	query, _, err := buildAchievementListQuery(filter)
	require.NoError(t, err)
	assert.True(t, strings.HasSuffix(query, `ORDER BY "id" ASC`), query)
}

func TestBuildAchievementListQueryPageWindow(t *testing.T) {
	query, _, err := buildAchievementListQuery(models.AchievementFilter{Page: 3, PageSize: 10})
	require.NoError(t, err)
	assert.Contains(t, query, "LIMIT $")
	assert.Contains(t, query, "OFFSET $")

	for _, filter := range []models.AchievementFilter{
		{Page: 0, PageSize: 10},
		{Page: 1, PageSize: 0},
		{Page: -2, PageSize: -5},
	} {
		query, _, err := buildAchievementListQuery(filter)
		require.NoError(t, err)
		assert.NotContains(t, query, "LIMIT")
		assert.NotContains(t, query, "OFFSET")
	}
}

func TestBuildAchievementCountQueryIgnoresOrderAndWindow(t *testing.T) {
	query, _, err := buildAchievementCountQuery(models.AchievementFilter{Sort: models.SortTitle, Page: 2, PageSize: 5})
	require.NoError(t, err)
	assert.True(t, strings.HasPrefix(query, "SELECT COUNT(*)"), query)
	assert.NotContains(t, query, "ORDER BY")
	assert.NotContains(t, query, "LIMIT")
}

func TestBuildAchievementDuplicateQueryExcludesSelf(t *testing.T) {
	query, _, err := buildAchievementDuplicateQuery("Graph", 1, 0)
	require.NoError(t, err)
	assert.NotContains(t, query, `"id" !=`)

	query, args, err := buildAchievementDuplicateQuery("Graph", 1, 9)
	require.NoError(t, err)
	assert.Contains(t, query, `"id" != $`)
	assert.Contains(t, args, "Graph")
}

func TestBuildAchievementByIDQueryLocks(t *testing.T) {
	query, _, err := buildAchievementByIDQuery(1, true)
	require.NoError(t, err)
	assert.True(t, strings.HasSuffix(query, "FOR UPDATE"), query)

	query, _, err = buildAchievementByIDQuery(1, false)
	require.NoError(t, err)
	assert.NotContains(t, query, "FOR UPDATE")
}
