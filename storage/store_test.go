package storage

import (
	"bytes"
	"context"
	"io"
	"os"
	"path/filepath"
	"regexp"
	"strings"
	"testing"
	"time"

	"github.com/Mani-Selvam/Portfolio-Builder/backend/errs"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var pdfBytes = []byte("%PDF-1.4\n1 0 obj\n<< /Type /Catalog >>\nendobj\ntrailer\n%%EOF\n")

var pngBytes = []byte{
	0x89, 0x50, 0x4e, 0x47, 0x0d, 0x0a, 0x1a, 0x0a,
	0x00, 0x00, 0x00, 0x0d, 0x49, 0x48, 0x44, 0x52,
	0x00, 0x00, 0x00, 0x01, 0x00, 0x00, 0x00, 0x01,
	0x08, 0x06, 0x00, 0x00, 0x00, 0x1f, 0x15, 0xc4, 0x89,
}

var jpegBytes = []byte{0xff, 0xd8, 0xff, 0xe0, 0x00, 0x10, 'J', 'F', 'I', 'F', 0x00, 0x01}

var htmlBytes = []byte("<html><script>alert(document.cookie)</script></html>")

func TestLimitsCheck(t *testing.T) {
	limits := Limits{MaxResumeBytes: 100, MaxImageBytes: 40}

	tests := []struct {
		name     string
		upload   Upload
		wantType string
		wantExt  string
		wantErr  error
	}{
		{
			name:     "resume with declared pdf type",
			upload:   Upload{Role: RoleResume, ContentType: "application/pdf", Data: pdfBytes},
			wantType: "application/pdf",
			wantExt:  ".pdf",
		},
		{
			name:     "resume with octet-stream is sniffed",
			upload:   Upload{Role: RoleResume, ContentType: "application/octet-stream", Data: pdfBytes},
			wantType: "application/pdf",
			wantExt:  ".pdf",
		},
		{
			name:    "resume that is an image",
			upload:  Upload{Role: RoleResume, ContentType: "image/png", Data: pngBytes},
			wantErr: errs.ErrInvalidFileType,
		},
		{
			name:    "resume declared as pdf holding html",
			upload:  Upload{Role: RoleResume, ContentType: "application/pdf", Data: htmlBytes},
			wantErr: errs.ErrInvalidFileType,
		},
		{
			name:    "resume over the limit",
			upload:  Upload{Role: RoleResume, ContentType: "application/pdf", Data: bytes.Repeat([]byte("a"), 101)},
			wantErr: errs.ErrFileTooLarge,
		},
		{
			name:     "screenshot with no declared type is sniffed",
			upload:   Upload{Role: RoleProjectScreenshot, Data: pngBytes},
			wantType: "image/png",
			wantExt:  ".png",
		},
		{
			name:     "profile photo with parameters in content type",
			upload:   Upload{Role: RoleProfilePhoto, ContentType: "image/jpeg; name=x.jpg", Data: jpegBytes},
			wantType: "image/jpeg",
			wantExt:  ".jpg",
		},
		{
			name:    "profile photo declared as png holding html",
			upload:  Upload{Role: RoleProfilePhoto, FileName: "me.html", ContentType: "image/png", Data: htmlBytes},
			wantErr: errs.ErrInvalidFileType,
		},
		{
			name:    "profile photo declared as png holding a pdf",
			upload:  Upload{Role: RoleProfilePhoto, ContentType: "image/png", Data: pdfBytes},
			wantErr: errs.ErrInvalidFileType,
		},
		{
			name:    "svg profile photo",
			upload:  Upload{Role: RoleProfilePhoto, ContentType: "image/svg+xml", Data: []byte(`<svg xmlns="http://www.w3.org/2000/svg"></svg>`)},
			wantErr: errs.ErrInvalidFileType,
		},
		{
			name:    "profile photo that is a pdf",
			upload:  Upload{Role: RoleProfilePhoto, ContentType: "application/pdf", Data: []byte("x")},
			wantErr: errs.ErrInvalidFileType,
		},
		{
			name:    "image over the image limit",
			upload:  Upload{Role: RoleProfilePhoto, ContentType: "image/png", Data: bytes.Repeat([]byte("a"), 41)},
			wantErr: errs.ErrFileTooLarge,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			detected, err := limits.Check(tt.upload)
			if tt.wantErr != nil {
				require.Error(t, err)
				assert.ErrorIs(t, err, tt.wantErr)
				assert.Equal(t, 400, errs.StatusCode(err))
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.wantType, detected.ContentType)
			assert.Equal(t, tt.wantExt, detected.Extension)
		})
	}
}

func TestNewFileName(t *testing.T) {
	now := time.UnixMilli(1700000000123)
	pattern := regexp.MustCompile(`^resume-1700000000123-[0-9a-f]{12}\.pdf$`)

	name := NewFileName(RoleResume, ".PDF", now)
	assert.Regexp(t, pattern, name)

	other := NewFileName(RoleResume, ".PDF", now)
	assert.NotEqual(t, name, other, "names must not collide within the same millisecond")

	assert.NotContains(t, NewFileName(RoleProfilePhoto, "../../etc/passwd", now), "/")
	assert.True(t, strings.HasSuffix(NewFileName(RoleProfilePhoto, ".P-N_G", now), ".png"))
	assert.NotContains(t, NewFileName(RoleProjectScreenshot, "", now), ".")
}

func TestServedType(t *testing.T) {
	assert.Equal(t, "application/pdf", ServedType("resume-1-abc.pdf", "application/pdf"))
	assert.Equal(t, "image/png", ServedType("profile-photo-1-abc.png", "image/png"))
	assert.Equal(t, "image/jpeg", ServedType("project-screenshot-1-abc.jpg", "image/jpeg"))

	assert.Equal(t, "application/octet-stream", ServedType("profile-photo-1-abc.html", "text/html; charset=utf-8"))
	assert.Equal(t, "application/octet-stream", ServedType("resume-1-abc.png", "image/png"))
	assert.Equal(t, "application/octet-stream", ServedType("notes-1-abc.pdf", "application/pdf"))
}

func TestValidName(t *testing.T) {
	assert.True(t, ValidName("resume-1-abc.pdf"))
	for _, bad := range []string{"", ".", "..", "../secret", "a/b", `a\b`, "x..y"} {
		assert.False(t, ValidName(bad), bad)
	}
}

func TestDiskStoreRoundTrip(t *testing.T) {
	ctx := context.Background()
	store, err := NewDiskStore(t.TempDir(), DefaultLimits)
	require.NoError(t, err)

	ref, err := store.Save(ctx, Upload{Role: RoleResume, FileName: "cv.html", ContentType: "application/pdf", Data: pdfBytes})
	require.NoError(t, err)
	assert.Equal(t, PublicPrefix+ref.Name, ref.URL)
	assert.True(t, strings.HasSuffix(ref.Name, ".pdf"), "extension comes from the content, not the client name")

	f, err := store.Open(ctx, ref.Name)
	require.NoError(t, err)
	defer f.Body.Close()

	got, err := io.ReadAll(f.Body)
	require.NoError(t, err)
	assert.Equal(t, pdfBytes, got)
	assert.Equal(t, int64(len(pdfBytes)), f.Size)
	assert.Equal(t, "application/pdf", f.ContentType)
}

func TestDiskStoreRejectsBeforeWriting(t *testing.T) {
	dir := t.TempDir()
	store, err := NewDiskStore(dir, DefaultLimits)
	require.NoError(t, err)

	_, err = store.Save(context.Background(), Upload{Role: RoleResume, ContentType: "image/png", Data: pngBytes})
	require.Error(t, err)

	entries, err := os.ReadDir(dir)
	require.NoError(t, err)
	assert.Empty(t, entries)
}

func TestDiskStoreOpenMissing(t *testing.T) {
	store, err := NewDiskStore(t.TempDir(), DefaultLimits)
	require.NoError(t, err)

	for _, name := range []string{"missing.pdf", "../store_test.go", ""} {
		_, err := store.Open(context.Background(), name)
		assert.ErrorIs(t, err, ErrFileNotFound, name)
	}
}

func TestDiskStoreRejectsDisguisedHTML(t *testing.T) {
	dir := t.TempDir()
	store, err := NewDiskStore(dir, DefaultLimits)
	require.NoError(t, err)

	_, err = store.Save(context.Background(), Upload{Role: RoleProfilePhoto, FileName: "me.html", ContentType: "image/png", Data: htmlBytes})
	assert.ErrorIs(t, err, errs.ErrInvalidFileType)

	entries, err := os.ReadDir(dir)
	require.NoError(t, err)
	assert.Empty(t, entries)
}

func TestDiskStoreServesMismatchedFilesAsDownloads(t *testing.T) {
	dir := t.TempDir()
	store, err := NewDiskStore(dir, DefaultLimits)
	require.NoError(t, err)

	name := "profile-photo-1700000000123-0123456789ab.html"
	require.NoError(t, os.WriteFile(filepath.Join(dir, name), htmlBytes, 0o644))

	f, err := store.Open(context.Background(), name)
	require.NoError(t, err)
	defer f.Body.Close()
	assert.Equal(t, "application/octet-stream", f.ContentType)
}
