package models

import (
	"errors"
	"fmt"
	"strings"
	"time"
)

// ErrDuplicateAchievement is returned by stores when a live achievement with the
// same title and type already exists.
var ErrDuplicateAchievement = errors.New("achievement with the same title and type already exists")

// Achievement represents a publication or other academic output.
type Achievement struct {
	ID            int64     `db:"id" json:"id"`
	Title         string    `db:"title" json:"title"`
	FirstAuthor   string    `db:"first_author" json:"first_author"`
	Correspond    string    `db:"correspond" json:"correspond"`
	OtherAuthors  string    `db:"other_authors" json:"other_authors"`
	Year          int       `db:"year" json:"year"`
	Type          int       `db:"type" json:"type"`
	SubType       string    `db:"sub_type" json:"sub_type"`
	Theme         string    `db:"theme" json:"theme"`
	Journal       string    `db:"journal" json:"journal"`
	Note          string    `db:"note" json:"note"`
	FileID        *string   `db:"file_id" json:"file_id,omitempty"`
	FileExtension string    `db:"file_extension" json:"file_extension,omitempty"`
	FileChecksum  string    `db:"file_checksum" json:"-"`
	IsDeleted     bool      `db:"is_deleted" json:"-"`
	CreatedAt     time.Time `db:"created_at" json:"created_at"`
	ModifiedAt    time.Time `db:"modified_at" json:"modified_at"`
}

// DownloadName is the file name presented to clients downloading the attachment.
func (a Achievement) DownloadName() string {
	return fmt.Sprintf("%s %s%s", strings.TrimSpace(a.FirstAuthor), strings.TrimSpace(a.Title), a.FileExtension)
}

// HasFile reports whether an attachment is recorded.
func (a Achievement) HasFile() bool {
	return a.FileID != nil && *a.FileID != ""
}

// AchievementFilter is the listing request: optional filters, ordering and the page window.
type AchievementFilter struct {
	Year       Optional[int]
	Type       Optional[int]
	SubType    Optional[string]
	Theme      Optional[string]
	Author     Optional[string]
	Correspond Optional[string]
	Title      Optional[string]

	Sort      SortField
	Ascending bool

	Page     int
	PageSize int
}

// Paginated reports whether the page window applies. A page below 1 or a size
// below 1 disables pagination and the full result set is returned.
func (f AchievementFilter) Paginated() bool {
	return f.Page >= 1 && f.PageSize >= 1
}

// Offset returns the number of matching records skipped before the page.
func (f AchievementFilter) Offset() int {
	if !f.Paginated() {
		return 0
	}
	return (f.Page - 1) * f.PageSize
}

// Unpaginated returns a copy of the filter with the page window removed.
func (f AchievementFilter) Unpaginated() AchievementFilter {
	f.Page = 0
	f.PageSize = 0
	return f
}

// CacheKey renders a canonical, order-independent encoding of the filter.
func (f AchievementFilter) CacheKey() string {
	var b strings.Builder
	writeOpt := func(name string, value interface{}, set bool) {
		if !set {
			fmt.Fprintf(&b, "%s=;", name)
			return
		}
		fmt.Fprintf(&b, "%s=%v;", name, value)
	}
	year, ok := f.Year.Get()
	writeOpt("year", year, ok)
	typ, ok := f.Type.Get()
	writeOpt("type", typ, ok)
	subType, ok := f.SubType.Get()
	writeOpt("sub_type", subType, ok)
	theme, ok := f.Theme.Get()
	writeOpt("theme", theme, ok)
	author, ok := f.Author.Get()
	writeOpt("author", strings.ToLower(author), ok)
	correspond, ok := f.Correspond.Get()
	writeOpt("correspond", strings.ToLower(correspond), ok)
	title, ok := f.Title.Get()
	writeOpt("title", strings.ToLower(title), ok)
	fmt.Fprintf(&b, "sort=%s;asc=%t;page=%d;size=%d", f.Sort, f.Ascending, f.Page, f.PageSize)
	return b.String()
}

// AchievementPage is the listing result.
type AchievementPage struct {
	Items      []Achievement `json:"items"`
	TotalCount int           `json:"total_count"`
	Page       int           `json:"page"`
	PageSize   int           `json:"page_size"`
}

// Pagination returns the envelope metadata for the page.
func (p AchievementPage) Pagination() *Pagination {
	return &Pagination{Page: p.Page, PageSize: p.PageSize, TotalCount: p.TotalCount}
}
