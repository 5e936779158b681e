package storage

import (
	"context"
	"errors"
	"fmt"
	"io"
	"regexp"
	"strings"
	"time"

	"github.com/Mani-Selvam/Portfolio-Builder/backend/errs"
	"github.com/gabriel-vasile/mimetype"
	"github.com/google/uuid"
)

// Role says what an uploaded file is for. It decides the size limit and the accepted content types.
type Role string

const (
	RoleResume            Role = "resume"
	RoleProfilePhoto      Role = "profile-photo"
	RoleProjectScreenshot Role = "project-screenshot"
)

// PublicPrefix is the URL path under which stored files are served.
const PublicPrefix = "/api/uploads/"

var ErrFileNotFound = errors.New("file not found")

// FileStore persists uploaded files under generated names. There is no update or delete.
type FileStore interface {
	Save(ctx context.Context, upload Upload) (FileRef, error)
	Open(ctx context.Context, name string) (*File, error)
}

// Upload is one file received from a client.
type Upload struct {
	Role        Role
	Field       string // form field it arrived in, used in error messages
	FileName    string
	ContentType string
	Data        []byte
}

// FileRef points at a stored file.
type FileRef struct {
	Name string `json:"name"`
	URL  string `json:"url"`
}

// File is an opened stored file. Callers must close Body.
type File struct {
	Name        string
	ContentType string
	Size        int64
	ModTime     time.Time
	Body        io.ReadCloser
}

type Limits struct {
	MaxResumeBytes int64
	MaxImageBytes  int64
}

var DefaultLimits = Limits{
	MaxResumeBytes: 10 * 1024 * 1024,
	MaxImageBytes:  5 * 1024 * 1024,
}

func (l Limits) maxFor(role Role) int64 {
	if role == RoleResume {
		return l.MaxResumeBytes
	}
	return l.MaxImageBytes
}

// Detected is the verified type of an accepted upload.
type Detected struct {
	ContentType string
	Extension   string // with the leading dot, empty when the type has none
}

// Check enforces the size limit and content type family of the upload's role.
// The type is always detected from the bytes; a declared type must agree with the
// role as well. The detected type is what gets stored and served.
func (l Limits) Check(u Upload) (Detected, error) {
	field := u.Field
	if field == "" {
		field = string(u.Role)
	}

	expected, ok := expectedFamily[u.Role]
	if !ok {
		return Detected{}, errs.NewInvalidFieldError(field, fmt.Sprintf("unknown upload role %q", u.Role))
	}

	if max := l.maxFor(u.Role); max > 0 && int64(len(u.Data)) > max {
		return Detected{}, errs.NewFileTooLargeError(field, int64(len(u.Data)), max)
	}

	declared := baseType(u.ContentType)
	if declared != "" && declared != octetStream && !Accepts(u.Role, declared) {
		return Detected{}, errs.NewInvalidFileTypeError(field, declared, expected)
	}

	mtype := mimetype.Detect(u.Data)
	detected := baseType(mtype.String())
	if !Accepts(u.Role, detected) {
		return Detected{}, errs.NewInvalidFileTypeError(field, detected, expected)
	}
	return Detected{ContentType: detected, Extension: mtype.Extension()}, nil
}

const octetStream = "application/octet-stream"

var expectedFamily = map[Role]string{
	RoleResume:            "an application/* document such as PDF",
	RoleProfilePhoto:      "an image/* file",
	RoleProjectScreenshot: "an image/* file",
}

// scriptable types are never accepted: browsers run scripts embedded in them.
var scriptable = map[string]bool{
	"image/svg+xml":         true,
	"application/xhtml+xml": true,
	"application/xml":       true,
	"text/xml":              true,
	"text/html":             true,
}

// Accepts reports whether contentType belongs to the family a role stores.
func Accepts(role Role, contentType string) bool {
	contentType = baseType(contentType)
	if scriptable[contentType] {
		return false
	}
	switch role {
	case RoleResume:
		return strings.HasPrefix(contentType, "application/")
	case RoleProfilePhoto, RoleProjectScreenshot:
		return strings.HasPrefix(contentType, "image/")
	}
	return false
}

// ServedType is the content type a stored file is served with. Files whose name or
// content does not match an accepted role fall back to application/octet-stream.
func ServedType(name, contentType string) string {
	role, ok := RoleOf(name)
	if !ok || !Accepts(role, contentType) {
		return octetStream
	}
	return baseType(contentType)
}

// RoleOf recovers the role from a name built by NewFileName.
func RoleOf(name string) (Role, bool) {
	for role := range expectedFamily {
		if strings.HasPrefix(name, string(role)+"-") {
			return role, true
		}
	}
	return "", false
}

func baseType(contentType string) string {
	contentType = strings.ToLower(strings.TrimSpace(contentType))
	if i := strings.Index(contentType, ";"); i >= 0 {
		contentType = strings.TrimSpace(contentType[:i])
	}
	return contentType
}

var unsafeExtChars = regexp.MustCompile(`[^a-z0-9]+`)

// NewFileName builds <role>-<unix millis>-<random><ext>. ext is the extension of the
// detected type, lower-cased and stripped of anything but letters and digits.
func NewFileName(role Role, ext string, now time.Time) string {
	ext = unsafeExtChars.ReplaceAllString(strings.ToLower(strings.TrimPrefix(ext, ".")), "")
	if len(ext) > 10 {
		ext = ext[:10]
	}

	random := strings.ReplaceAll(uuid.NewString(), "-", "")[:12]
	name := fmt.Sprintf("%s-%d-%s", role, now.UnixMilli(), random)
	if ext != "" {
		name += "." + ext
	}
	return name
}

// URLFor returns the public reference for a stored name.
func URLFor(name string) string {
	return PublicPrefix + name
}

// ValidName rejects names that could escape the store, such as "../x" or "a/b".
func ValidName(name string) bool {
	if name == "" || name == "." || name == ".." {
		return false
	}
	if strings.ContainsAny(name, `/\`) || strings.Contains(name, "..") {
		return false
	}
	return true
}
