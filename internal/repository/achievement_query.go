package repository

import (
	"strings"

	"github.com/doug-martin/goqu/v9"
	_ "github.com/doug-martin/goqu/v9/dialect/postgres" // dialect registration
	"github.com/doug-martin/goqu/v9/exp"

	"github.com/noah-isme/knowledgevault-api/internal/models"
)

const (
	dialectPostgres  = "postgres"
	achievementTable = "achievements"

	colID            = "id"
	colTitle         = "title"
	colFirstAuthor   = "first_author"
	colCorrespond    = "correspond"
	colOtherAuthors  = "other_authors"
	colYear          = "year"
	colType          = "type"
	colSubType       = "sub_type"
	colTheme         = "theme"
	colJournal       = "journal"
	colNote          = "note"
	colFileID        = "file_id"
	colFileExtension = "file_extension"
	colFileChecksum  = "file_checksum"
	colIsDeleted     = "is_deleted"
	colCreatedAt     = "created_at"
	colModifiedAt    = "modified_at"
)

var achievementColumns = []interface{}{
	colID, colTitle, colFirstAuthor, colCorrespond, colOtherAuthors, colYear, colType,
	colSubType, colTheme, colJournal, colNote, colFileID, colFileExtension, colFileChecksum,
	colIsDeleted, colCreatedAt, colModifiedAt,
}

var achievementSortColumns = map[models.SortField]string{
	models.SortCreateTime:   colCreatedAt,
	models.SortModifiedTime: colModifiedAt,
	models.SortYear:         colYear,
	models.SortFirstAuthor:  colFirstAuthor,
	models.SortCorrespond:   colCorrespond,
	models.SortType:         colType,
	models.SortSubType:      colSubType,
	models.SortTitle:        colTitle,
	models.SortTheme:        colTheme,
}

var likeEscaper = strings.NewReplacer(`\`, `\\`, `%`, `\%`, `_`, `\_`)

// liveAchievements is the root of every achievement read: soft-deleted rows are never visible.
func liveAchievements() *goqu.SelectDataset {
	return goqu.Dialect(dialectPostgres).
		From(achievementTable).
		Prepared(true).
		Where(goqu.C(colIsDeleted).IsFalse())
}

func achievementPredicates(filter models.AchievementFilter) []exp.Expression {
	preds := make([]exp.Expression, 0, 7)
	if year, ok := filter.Year.Get(); ok {
		preds = append(preds, goqu.C(colYear).Eq(year))
	}
	if typ, ok := filter.Type.Get(); ok {
		preds = append(preds, goqu.C(colType).Eq(typ))
	}
	if subType, ok := filter.SubType.Get(); ok {
		preds = append(preds, goqu.C(colSubType).Eq(subType))
	}
	if theme, ok := filter.Theme.Get(); ok {
		preds = append(preds, goqu.C(colTheme).Eq(theme))
	}
	if author, ok := filter.Author.Get(); ok {
		preds = append(preds, goqu.C(colFirstAuthor).ILike(containsPattern(author)))
	}
	if correspond, ok := filter.Correspond.Get(); ok {
		preds = append(preds, goqu.C(colCorrespond).ILike(containsPattern(correspond)))
	}
	if title, ok := filter.Title.Get(); ok {
		preds = append(preds, goqu.C(colTitle).ILike(containsPattern(title)))
	}
	return preds
}

func achievementOrder(filter models.AchievementFilter) []exp.OrderedExpression {
	column, ok := achievementSortColumns[filter.Sort]
	if !ok {
		return []exp.OrderedExpression{goqu.C(colID).Asc()}
	}
	primary := goqu.C(column).Desc()
	if filter.Ascending {
		primary = goqu.C(column).Asc()
	}
	return []exp.OrderedExpression{primary, goqu.C(colID).Asc()}
}

func containsPattern(value string) string {
	return "%" + likeEscaper.Replace(value) + "%"
}

// buildAchievementCountQuery counts filtered rows ignoring order and page window.
func buildAchievementCountQuery(filter models.AchievementFilter) (string, []interface{}, error) {
	return liveAchievements().
		Select(goqu.COUNT(goqu.Star())).
		Where(achievementPredicates(filter)...).
		ToSQL()
}

// buildAchievementListQuery selects the filtered, ordered page.
func buildAchievementListQuery(filter models.AchievementFilter) (string, []interface{}, error) {
	ds := liveAchievements().
		Select(achievementColumns...).
		Where(achievementPredicates(filter)...).
		Order(achievementOrder(filter)...)
	if filter.Paginated() {
		ds = ds.Offset(uint(filter.Offset())).Limit(uint(filter.PageSize))
	}
	return ds.ToSQL()
}

func buildAchievementByIDQuery(id int64, forUpdate bool) (string, []interface{}, error) {
	ds := liveAchievements().
		Select(achievementColumns...).
		Where(goqu.C(colID).Eq(id))
	if forUpdate {
		ds = ds.ForUpdate(exp.Wait)
	}
	return ds.ToSQL()
}

func buildAchievementByFileIDQuery(fileID string) (string, []interface{}, error) {
	return liveAchievements().
		Select(achievementColumns...).
		Where(goqu.C(colFileID).Eq(fileID)).
		Limit(1).
		ToSQL()
}

func buildAchievementDuplicateQuery(title string, typ int, excludeID int64) (string, []interface{}, error) {
	ds := liveAchievements().
		Select(goqu.L("1")).
		Where(goqu.C(colTitle).Eq(title), goqu.C(colType).Eq(typ))
	if excludeID > 0 {
		ds = ds.Where(goqu.C(colID).Neq(excludeID))
	}
	return ds.Limit(1).ToSQL()
}
