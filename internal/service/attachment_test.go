package service

import (
	"context"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	pkgerrors "CareOnboard/pkg/errors"
)

const (
	jpegBytes = "\xff\xd8\xff\xe0jpeg-bytes"
	pdfBytes  = "%PDF-1.7 x"
)

func TestAttachmentSave(t *testing.T) {
	sessions := newMemSessions()
	require.NoError(t, sessions.Save(context.Background(), "s1", []byte(`{}`), 0))

	dir := t.TempDir()
	svc := NewAttachmentService(sessions, AttachmentOptions{Dir: dir, PublicBaseURL: "http://localhost:8080/", MaxBytes: 32})
	svc.newID = func() string { return "a1" }

	att, err := svc.Save(context.Background(), "s1", "../Photo.JPEG", "image/jpg", strings.NewReader(jpegBytes))
	require.NoError(t, err)
	assert.Equal(t, "a1", att.ID)
	assert.Equal(t, "Photo.JPEG", att.FileName)
	assert.Equal(t, "image/jpeg", att.ContentType)
	assert.Equal(t, int64(len(jpegBytes)), att.Size)
	// 地址只含附件 id，不暴露会话 id
	assert.Equal(t, "http://localhost:8080/uploads/a1.jpg", att.PreviewURL)
	assert.NotContains(t, att.PreviewURL, "s1")

	data, err := os.ReadFile(filepath.Join(dir, "a1.jpg"))
	require.NoError(t, err)
	assert.Equal(t, jpegBytes, string(data))
}

func TestAttachmentExtensionFollowsContent(t *testing.T) {
	sessions := newMemSessions()
	require.NoError(t, sessions.Save(context.Background(), "s1", []byte(`{}`), 0))
	dir := t.TempDir()
	svc := NewAttachmentService(sessions, AttachmentOptions{Dir: dir})
	svc.newID = func() string { return "a2" }

	att, err := svc.Save(context.Background(), "s1", "aadhar.html", "application/pdf; charset=binary", strings.NewReader(pdfBytes))
	require.NoError(t, err)
	assert.Equal(t, "/uploads/a2.pdf", att.PreviewURL)
	assert.FileExists(t, filepath.Join(dir, "a2.pdf"))
}

func TestAttachmentRejects(t *testing.T) {
	sessions := newMemSessions()
	require.NoError(t, sessions.Save(context.Background(), "s1", []byte(`{}`), 0))
	dir := t.TempDir()
	svc := NewAttachmentService(sessions, AttachmentOptions{Dir: dir, MaxBytes: 12})
	ctx := context.Background()

	_, err := svc.Save(ctx, "missing", "a.pdf", "application/pdf", strings.NewReader(pdfBytes))
	assert.ErrorIs(t, err, pkgerrors.SessionNotFound)

	_, err = svc.Save(ctx, "s1", "a.exe", "application/octet-stream", strings.NewReader("x"))
	assert.ErrorIs(t, err, pkgerrors.AttachmentInvalid)

	// 声明成图片的 html 不能落盘
	_, err = svc.Save(ctx, "s1", "x.html", "image/png", strings.NewReader("<script>alert(1)</script>"))
	assert.ErrorIs(t, err, pkgerrors.AttachmentInvalid)

	_, err = svc.Save(ctx, "s1", "x.svg", "image/svg+xml", strings.NewReader(`<svg xmlns="http://www.w3.org/2000/svg"/>`))
	assert.ErrorIs(t, err, pkgerrors.AttachmentInvalid)

	// 内容与声明类型不符
	_, err = svc.Save(ctx, "s1", "a.png", "image/png", strings.NewReader(pdfBytes))
	assert.ErrorIs(t, err, pkgerrors.AttachmentInvalid)

	_, err = svc.Save(ctx, "s1", "a.pdf", "application/pdf", strings.NewReader(pdfBytes+" too large"))
	assert.ErrorIs(t, err, pkgerrors.AttachmentInvalid)

	_, err = svc.Save(ctx, "s1", "a.pdf", "application/pdf", strings.NewReader(""))
	assert.ErrorIs(t, err, pkgerrors.AttachmentInvalid)

	// 失败的上传不留文件
	entries, err := os.ReadDir(dir)
	require.NoError(t, err)
	assert.Empty(t, entries)
}
