package uploads

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"os"
	"path/filepath"
	"strings"
	"time"
	"unicode"

	"github.com/gabriel-vasile/mimetype"

	"github.com/royalhouse/server/internal/domain/media"
)

// URLPrefix is where stored files are served from.
const URLPrefix = "/uploads/"

// sniffLen matches mimetype's default read limit.
const sniffLen = 3072

var ErrEmptyFile = errors.New("empty upload")

// Stored describes a file written by LocalStore.
type Stored struct {
	Name     string         `json:"-"`
	URL      string         `json:"url"`
	Type     media.FileType `json:"type"`
	MIMEType string         `json:"-"`
	Size     int64          `json:"-"`
}

// LocalStore keeps uploads in a directory on local disk.
type LocalStore struct {
	dir string
	now func() time.Time
}

func NewLocalStore(dir string) (*LocalStore, error) {
	if strings.TrimSpace(dir) == "" {
		return nil, fmt.Errorf("upload dir is empty")
	}
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("create upload dir: %w", err)
	}
	return &LocalStore{dir: dir, now: time.Now}, nil
}

func (s *LocalStore) Dir() string {
	return s.dir
}

// Save writes r under a timestamped name derived from filename and reports
// whether the content is a video or an image.
func (s *LocalStore) Save(ctx context.Context, filename string, r io.Reader) (Stored, error) {
	if err := ctx.Err(); err != nil {
		return Stored{}, err
	}

	br := bufio.NewReaderSize(r, sniffLen)
	head, err := br.Peek(sniffLen)
	if err != nil && !errors.Is(err, io.EOF) && !errors.Is(err, bufio.ErrBufferFull) {
		return Stored{}, fmt.Errorf("read upload: %w", err)
	}
	if len(head) == 0 {
		return Stored{}, ErrEmptyFile
	}
	detected := mimetype.Detect(head)

	name := fmt.Sprintf("%d_%s", s.now().UnixMilli(), cleanName(filename))
	path := filepath.Join(s.dir, name)

	f, err := os.OpenFile(path, os.O_WRONLY|os.O_CREATE|os.O_EXCL, 0o644)
	if err != nil {
		return Stored{}, fmt.Errorf("create upload file: %w", err)
	}
	size, err := io.Copy(f, br)
	if closeErr := f.Close(); err == nil {
		err = closeErr
	}
	if err != nil {
		_ = os.Remove(path)
		return Stored{}, fmt.Errorf("write upload file: %w", err)
	}

	fileType := media.TypeImage
	if strings.HasPrefix(detected.String(), "video") {
		fileType = media.TypeVideo
	}

	return Stored{
		Name:     name,
		URL:      URLPrefix + url.PathEscape(name),
		Type:     fileType,
		MIMEType: detected.String(),
		Size:     size,
	}, nil
}

// Handler serves stored files; mount it under URLPrefix.
func (s *LocalStore) Handler() http.Handler {
	return http.StripPrefix(URLPrefix, http.FileServer(http.Dir(s.dir)))
}

// cleanName drops any directory part and replaces whitespace with
// underscores.
func cleanName(filename string) string {
	base := filepath.Base(strings.ReplaceAll(filename, "\\", "/"))
	base = strings.Map(func(r rune) rune {
		if unicode.IsSpace(r) {
			return '_'
		}
		return r
	}, base)
	if base == "" || base == "." || base == ".." || base == "/" {
		return "upload"
	}
	return base
}
