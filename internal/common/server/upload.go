package server

import (
	"bytes"
	"fmt"
	"io"
	"net/http"
	"path/filepath"
	"strings"
)

const (
	maxImageSize      = 5 << 20 // 5MB
	maxMultipartInMem = 8 << 20
)

var allowedImageExts = map[string]struct{}{
	".jpg":  {},
	".jpeg": {},
	".png":  {},
	".webp": {},
}

// FormImage 从 multipart 表单读取可选的图片文件。
// 未携带该字段时返回 (nil, nil)；超过 5MB 或扩展名不在
// jpg/jpeg/png/webp 内时返回错误。
func FormImage(r *http.Request, field string) (io.Reader, error) {
	if err := r.ParseMultipartForm(maxMultipartInMem); err != nil {
		return nil, fmt.Errorf("invalid multipart form: %w", err)
	}

	file, header, err := r.FormFile(field)
	if err == http.ErrMissingFile {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to read file field %q: %w", field, err)
	}
	defer file.Close()

	if header.Size > maxImageSize {
		return nil, fmt.Errorf("image exceeds %d bytes", maxImageSize)
	}
	ext := strings.ToLower(filepath.Ext(header.Filename))
	if _, ok := allowedImageExts[ext]; !ok {
		return nil, fmt.Errorf("unsupported image type %q", ext)
	}

	// 读入内存，避免把 multipart 临时文件的生命周期泄漏给 service 层
	buf, err := io.ReadAll(io.LimitReader(file, maxImageSize+1))
	if err != nil {
		return nil, fmt.Errorf("failed to read image: %w", err)
	}
	if len(buf) > maxImageSize {
		return nil, fmt.Errorf("image exceeds %d bytes", maxImageSize)
	}
	return bytes.NewReader(buf), nil
}

// HasFormValue 判断 multipart/表单中是否携带了某字段（patch 语义需要区分
// “未提供”与“提供了空值”）。
func HasFormValue(r *http.Request, field string) bool {
	if r.MultipartForm != nil {
		if _, ok := r.MultipartForm.Value[field]; ok {
			return true
		}
	}
	if r.PostForm != nil {
		if _, ok := r.PostForm[field]; ok {
			return true
		}
	}
	return false
}
