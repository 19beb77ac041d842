package updates

import (
	"errors"
	"time"

	"github.com/royalhouse/server/internal/domain/media"
)

var ErrNotFound = errors.New("update not found")

// Update is a site announcement. Media holds the attached files when the
// update is loaded individually.
type Update struct {
	ID          int64        `json:"id"`
	Type        string       `json:"type"`
	Title       string       `json:"title"`
	Content     *string      `json:"content"`
	IsActive    bool         `json:"is_active"`
	ActionLink  *string      `json:"action_link"`
	ActionText  *string      `json:"action_text"`
	PublishedAt time.Time    `json:"published_at"`
	Media       []media.File `json:"media,omitempty"`
}

type MediaInput struct {
	FileURL     string
	FileType    media.FileType
	IsPrimary   bool
	Title       string
	Description string
}

type UpdateInput struct {
	Type       string
	Title      string
	Content    *string
	IsActive   bool
	ActionLink *string
	ActionText *string
	Media      []MediaInput
}
