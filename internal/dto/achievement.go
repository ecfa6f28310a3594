package dto

import (
	"strings"
	"time"

	"github.com/noah-isme/knowledgevault-api/internal/models"
)

// CreateAchievementRequest is the payload for registering an achievement.
type CreateAchievementRequest struct {
	Title        string `json:"title" validate:"required,max=500"`
	FirstAuthor  string `json:"first_author" validate:"required,max=200"`
	Correspond   string `json:"correspond" validate:"max=200"`
	OtherAuthors string `json:"other_authors" validate:"max=2000"`
	Year         int    `json:"year" validate:"required,min=1900,max=2100"`
	Type         int    `json:"type" validate:"min=0"`
	SubType      string `json:"sub_type" validate:"max=100"`
	Theme        string `json:"theme" validate:"max=200"`
	Journal      string `json:"journal" validate:"max=500"`
	Note         string `json:"note" validate:"max=4000"`
}

// UpdateAchievementRequest replaces the descriptive fields of an achievement.
type UpdateAchievementRequest struct {
	Title        string `json:"title" validate:"required,max=500"`
	FirstAuthor  string `json:"first_author" validate:"required,max=200"`
	Correspond   string `json:"correspond" validate:"max=200"`
	OtherAuthors string `json:"other_authors" validate:"max=2000"`
	Year         int    `json:"year" validate:"required,min=1900,max=2100"`
	Type         int    `json:"type" validate:"min=0"`
	SubType      string `json:"sub_type" validate:"max=100"`
	Theme        string `json:"theme" validate:"max=200"`
	Journal      string `json:"journal" validate:"max=500"`
	Note         string `json:"note" validate:"max=4000"`
}

// ToModel builds a new achievement from the request.
func (r CreateAchievementRequest) ToModel() *models.Achievement {
	return &models.Achievement{
		Title:        strings.TrimSpace(r.Title),
		FirstAuthor:  strings.TrimSpace(r.FirstAuthor),
		Correspond:   strings.TrimSpace(r.Correspond),
		OtherAuthors: strings.TrimSpace(r.OtherAuthors),
		Year:         r.Year,
		Type:         r.Type,
		SubType:      strings.TrimSpace(r.SubType),
		Theme:        strings.TrimSpace(r.Theme),
		Journal:      strings.TrimSpace(r.Journal),
		Note:         strings.TrimSpace(r.Note),
	}
}

// Apply copies the request onto an existing achievement.
func (r UpdateAchievementRequest) Apply(a *models.Achievement) {
	a.Title = strings.TrimSpace(r.Title)
	a.FirstAuthor = strings.TrimSpace(r.FirstAuthor)
	a.Correspond = strings.TrimSpace(r.Correspond)
	a.OtherAuthors = strings.TrimSpace(r.OtherAuthors)
	a.Year = r.Year
	a.Type = r.Type
	a.SubType = strings.TrimSpace(r.SubType)
	a.Theme = strings.TrimSpace(r.Theme)
	a.Journal = strings.TrimSpace(r.Journal)
	a.Note = strings.TrimSpace(r.Note)
}

// AchievementFileURLResponse carries a signed attachment download link.
type AchievementFileURLResponse struct {
	FileID      string    `json:"file_id"`
	FileName    string    `json:"file_name"`
	DownloadURL string    `json:"download_url"`
	ExpiresAt   time.Time `json:"expires_at"`
}
