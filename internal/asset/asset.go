// Package asset 抽象图片托管能力：上传返回可持久化的引用
// （URL + public id），并支持按 public id 删除。
package asset

import (
	"context"
	"io"
	"strings"
)

// Image 一次成功上传的结果引用。
type Image struct {
	URL      string // 可直接访问的 https 地址
	PublicID string // 托管方内部标识，删除时使用
}

// Store 图片托管能力。Upload 失败视为调用方操作失败；
// Delete 在各清理路径上按“尽力而为”处理（见各业务 service）。
type Store interface {
	Upload(ctx context.Context, r io.Reader, folder string) (*Image, error)
	Delete(ctx context.Context, publicID string) error
}

// ExtractPublicID 从 Cloudinary URL 中还原 public id（纯函数）。
// 例：https://res.cloudinary.com/demo/image/upload/v1234567/folder/image.jpg
// 返回：folder/image
// 对同一 Store 必须满足回环：ExtractPublicID(img.URL) == img.PublicID。
func ExtractPublicID(url string) string {
	parts := strings.Split(url, "/")
	uploadIndex := -1
	for i, p := range parts {
		if p == "upload" {
			uploadIndex = i
			break
		}
	}
	if uploadIndex == -1 {
		return ""
	}

	// 跳过 upload 后面的版本号段（v1234567）
	rest := parts[uploadIndex+2:]
	if len(rest) == 0 {
		return ""
	}
	publicID := strings.Join(rest, "/")
	if dot := strings.Index(publicID, "."); dot >= 0 {
		publicID = publicID[:dot]
	}
	return publicID
}
