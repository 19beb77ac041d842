package administration

import (
	"errors"
	"regexp"
	"strings"
	"time"
)

type Category string

const (
	CategoryOfficer  Category = "OFFICER"
	CategoryAdvisor  Category = "ADVISOR"
	CategoryDelegate Category = "DELEGATE"
)

var (
	ErrNotFound = errors.New("member not found")
)

// Member is one entry of the royal administration roster.
type Member struct {
	ID           int64     `json:"id"`
	Name         *string   `json:"name"`
	RoleTitle    string    `json:"role_title"`
	Category     Category  `json:"category"`
	DisplayOrder int       `json:"display_order"`
	IsActive     bool      `json:"is_active"`
	Bio          *string   `json:"bio"`
	ImageURL     *string   `json:"image_url"`
	CreatedAt    time.Time `json:"created_at"`
	UpdatedAt    time.Time `json:"updated_at"`
}

// MemberInput is the writable part of a member. Nil pointers take defaults:
// display order 0, active true.
type MemberInput struct {
	Name         *string
	RoleTitle    string
	Category     Category
	DisplayOrder *int
	IsActive     *bool
	Bio          *string
	ImageURL     *string
}

const (
	titleChancellor      = "chancellor"
	titleGrandChancellor = "grand chancellor"
	titleViceChancellor  = "vice-chancellor"
)

// RequiresPortrait reports whether title names a chancellor of any rank.
// Those titles must carry an image; every other title has its image cleared.
func RequiresPortrait(title string) bool {
	return strings.Contains(strings.ToLower(title), titleChancellor)
}

// IsSingularTitle reports whether at most one active member may hold title.
func IsSingularTitle(title string) bool {
	lower := strings.ToLower(strings.TrimSpace(title))
	return lower == titleGrandChancellor || lower == titleViceChancellor
}

var driveShareLink = regexp.MustCompile(`drive\.google\.com/file/d/([-_\w]+)`)

// DriveThumbnail rewrites a Google Drive share link into a direct thumbnail
// URL. Other URLs are returned unchanged.
func DriveThumbnail(link string) string {
	match := driveShareLink.FindStringSubmatch(link)
	if len(match) < 2 || match[1] == "" {
		return link
	}
	return "https://drive.google.com/thumbnail?id=" + match[1] + "&sz=w2000"
}
