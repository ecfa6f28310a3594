package models

import "strings"

// SortField enumerates the achievement columns a listing can be ordered by.
type SortField int

const (
	SortNone SortField = iota
	SortCreateTime
	SortModifiedTime
	SortYear
	SortFirstAuthor
	SortCorrespond
	SortType
	SortSubType
	SortTitle
	SortTheme
)

var sortFieldNames = map[string]SortField{
	"createtime":    SortCreateTime,
	"create_time":   SortCreateTime,
	"created_at":    SortCreateTime,
	"modifiedtime":  SortModifiedTime,
	"modified_time": SortModifiedTime,
	"modified_at":   SortModifiedTime,
	"year":          SortYear,
	"firstauthor":   SortFirstAuthor,
	"first_author":  SortFirstAuthor,
	"correspond":    SortCorrespond,
	"type":          SortType,
	"subtype":       SortSubType,
	"sub_type":      SortSubType,
	"title":         SortTitle,
	"theme":         SortTheme,
}

// ParseSortField resolves a client supplied sort name. Unknown or empty names
// resolve to SortNone.
func ParseSortField(raw string) SortField {
	field, ok := sortFieldNames[strings.ToLower(strings.TrimSpace(raw))]
	if !ok {
		return SortNone
	}
	return field
}

// SortFields lists every sortable field in declaration order.
func SortFields() []SortField {
	return []SortField{
		SortCreateTime,
		SortModifiedTime,
		SortYear,
		SortFirstAuthor,
		SortCorrespond,
		SortType,
		SortSubType,
		SortTitle,
		SortTheme,
	}
}

// String returns the canonical lower-case name.
func (f SortField) String() string {
	switch f {
	case SortCreateTime:
		return "createtime"
	case SortModifiedTime:
		return "modifiedtime"
	case SortYear:
		return "year"
	case SortFirstAuthor:
		return "firstauthor"
	case SortCorrespond:
		return "correspond"
	case SortType:
		return "type"
	case SortSubType:
		return "subtype"
	case SortTitle:
		return "title"
	case SortTheme:
		return "theme"
	default:
		return ""
	}
}
