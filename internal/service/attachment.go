package service

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"mime"
	"net/http"
	"os"
	"path"
	"path/filepath"
	"strings"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"CareOnboard/internal/onboarding"
	pkgerrors "CareOnboard/pkg/errors"
	"CareOnboard/pkg/logger"
)

// sniffLen 与 http.DetectContentType 读取的长度一致
const sniffLen = 512

// attachmentTypes 允许的类型（以嗅探结果为准）及落盘扩展名。
// 扩展名只从这里取，客户端文件名不参与，静态目录里不会出现 .html/.svg
var attachmentTypes = map[string]string{
	"image/jpeg":      ".jpg",
	"image/png":       ".png",
	"image/gif":       ".gif",
	"image/webp":      ".webp",
	"application/pdf": ".pdf",
	"audio/mpeg":      ".mp3",
	"audio/wave":      ".wav",
	"application/ogg": ".ogg",
	"video/mp4":       ".mp4",
	"video/webm":      ".webm",
}

// 浏览器常报的别名，映射到嗅探器给出的名字
var contentTypeAliases = map[string]string{
	"image/jpg":   "image/jpeg",
	"audio/mp3":   "audio/mpeg",
	"audio/wav":   "audio/wave",
	"audio/x-wav": "audio/wave",
	"audio/ogg":   "application/ogg",
	"audio/webm":  "video/webm",
	"audio/mp4":   "video/mp4",
}

type AttachmentOptions struct {
	Dir           string
	PublicBaseURL string
	MaxBytes      int64
}

// AttachmentService 上传文件落到本地目录，向导里只保存句柄
type AttachmentService struct {
	sessions SessionStore
	opts     AttachmentOptions
	newID    func() string
}

func NewAttachmentService(sessions SessionStore, opts AttachmentOptions) *AttachmentService {
	if opts.MaxBytes <= 0 {
		opts.MaxBytes = 10 << 20
	}
	return &AttachmentService{sessions: sessions, opts: opts, newID: uuid.NewString}
}

// Save 存储一个上传文件并返回句柄。
// 文件按附件 id 平铺存放，预览地址里不带会话 id
func (s *AttachmentService) Save(ctx context.Context, sessionID, fileName, contentType string, r io.Reader) (*onboarding.Attachment, error) {
	if _, err := s.sessions.Load(ctx, sessionID); err != nil {
		return nil, err
	}
	declared, ok := canonicalContentType(contentType)
	if !ok {
		return nil, fmt.Errorf("%w: content type %q", pkgerrors.AttachmentInvalid, contentType)
	}

	head := make([]byte, sniffLen)
	hn, err := io.ReadFull(r, head)
	if err != nil && err != io.EOF && err != io.ErrUnexpectedEOF {
		return nil, fmt.Errorf("failed to read upload: %w", err)
	}
	head = head[:hn]
	if hn == 0 {
		return nil, fmt.Errorf("%w: empty file", pkgerrors.AttachmentInvalid)
	}
	if sniffed := sniffContentType(head); sniffed != declared {
		return nil, fmt.Errorf("%w: content looks like %q, declared %q", pkgerrors.AttachmentInvalid, sniffed, contentType)
	}

	if err := os.MkdirAll(s.opts.Dir, 0o750); err != nil {
		return nil, fmt.Errorf("failed to create upload dir: %w", err)
	}

	id := s.newID()
	stored := id + attachmentTypes[declared]
	fullPath := filepath.Join(s.opts.Dir, stored)

	f, err := os.OpenFile(fullPath, os.O_CREATE|os.O_EXCL|os.O_WRONLY, 0o640)
	if err != nil {
		return nil, fmt.Errorf("failed to create upload file: %w", err)
	}

	body := io.MultiReader(bytes.NewReader(head), r)
	n, err := io.Copy(f, io.LimitReader(body, s.opts.MaxBytes+1))
	closeErr := f.Close()
	switch {
	case err != nil:
		_ = os.Remove(fullPath)
		return nil, fmt.Errorf("failed to write upload: %w", err)
	case closeErr != nil:
		_ = os.Remove(fullPath)
		return nil, fmt.Errorf("failed to write upload: %w", closeErr)
	case n > s.opts.MaxBytes:
		_ = os.Remove(fullPath)
		return nil, fmt.Errorf("%w: file exceeds %d bytes", pkgerrors.AttachmentInvalid, s.opts.MaxBytes)
	}

	logger.Ctx(ctx).Info("Attachment stored",
		zap.String("session_id", sessionID),
		zap.String("attachment_id", id),
		zap.String("content_type", declared),
		zap.Int64("size", n),
	)

	return &onboarding.Attachment{
		ID:          id,
		FileName:    filepath.Base(fileName),
		ContentType: declared,
		Size:        n,
		PreviewURL:  strings.TrimRight(s.opts.PublicBaseURL, "/") + path.Join("/uploads", stored),
	}, nil
}

// canonicalContentType 去掉参数并折叠别名，不在白名单里返回 false
func canonicalContentType(ct string) (string, bool) {
	mt, _, err := mime.ParseMediaType(ct)
	if err != nil {
		return "", false
	}
	if alias, ok := contentTypeAliases[mt]; ok {
		mt = alias
	}
	_, ok := attachmentTypes[mt]
	return mt, ok
}

func sniffContentType(head []byte) string {
	mt, _, err := mime.ParseMediaType(http.DetectContentType(head))
	if err != nil {
		return ""
	}
	return mt
}
