package media

import (
	"errors"
	"time"
)

type FileType string

const (
	TypeImage         FileType = "IMAGE"
	TypeVideo         FileType = "VIDEO"
	TypeFeaturedImage FileType = "FIMG"
	TypeFeaturedVideo FileType = "FVID"
)

// FilterFeatured selects both featured types in List.
const FilterFeatured = "FEATURED"

// Featured slots on the landing page.
const (
	MaxFeaturedImages = 4
	MaxFeaturedVideos = 1
)

var ErrNotFound = errors.New("media not found")

// File is a gallery item or a file attached to an update.
type File struct {
	ID          int64     `json:"id"`
	FileURL     string    `json:"file_url"`
	FileType    FileType  `json:"file_type"`
	UpdateID    *int64    `json:"update_id"`
	IsPrimary   bool      `json:"is_primary"`
	Title       string    `json:"title"`
	SubTitle    string    `json:"subTitle"`
	Description string    `json:"description"`
	CreatedAt   time.Time `json:"created_at"`
}

type FileInput struct {
	FileURL     string
	FileType    FileType
	Title       string
	SubTitle    string
	Description string
}

func (t FileType) Valid() bool {
	switch t {
	case TypeImage, TypeVideo, TypeFeaturedImage, TypeFeaturedVideo:
		return true
	}
	return false
}
