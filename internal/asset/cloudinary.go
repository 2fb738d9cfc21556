package asset

import (
	"context"
	"fmt"
	"io"
	"strings"
	"time"

	"github.com/Abukstech/folocom/internal/common/config"
	"github.com/Abukstech/folocom/internal/common/middleware"
	"github.com/cloudinary/cloudinary-go/v2"
	"github.com/cloudinary/cloudinary-go/v2/api/uploader"
)

// CloudinaryStore 基于 Cloudinary 的 Store 实现。
// 远程调用经过熔断器：托管方持续不可用时快速失败，
// 由调用方决定该失败是否致命（上传致命、删除尽力而为）。
type CloudinaryStore struct {
	cld        *cloudinary.Cloudinary
	breaker    *middleware.CircuitBreaker
	baseFolder string
}

// NewCloudinaryStore 创建 CloudinaryStore。
func NewCloudinaryStore(cfg config.CloudinaryConfig) (*CloudinaryStore, error) {
	if cfg.CloudName == "" || cfg.APIKey == "" || cfg.APISecret == "" {
		return nil, fmt.Errorf("cloudinary credentials are not configured")
	}
	cld, err := cloudinary.NewFromParams(cfg.CloudName, cfg.APIKey, cfg.APISecret)
	if err != nil {
		return nil, fmt.Errorf("failed to init cloudinary: %w", err)
	}
	return &CloudinaryStore{
		cld:        cld,
		breaker:    middleware.NewCircuitBreaker("cloudinary", 5, 30*time.Second),
		baseFolder: strings.TrimSuffix(cfg.Folder, "/"),
	}, nil
}

// Upload 上传图片到 baseFolder/folder 下，返回 URL + public id。
func (s *CloudinaryStore) Upload(ctx context.Context, r io.Reader, folder string) (*Image, error) {
	if s == nil || s.cld == nil {
		return nil, fmt.Errorf("cloudinary store not initialized")
	}

	target := folder
	if s.baseFolder != "" {
		target = s.baseFolder + "/" + strings.Trim(folder, "/")
	}

	var res *uploader.UploadResult
	err := s.breaker.Call(ctx, func() error {
		var uploadErr error
		res, uploadErr = s.cld.Upload.Upload(ctx, r, uploader.UploadParams{
			Folder: target,
		})
		if uploadErr != nil {
			return uploadErr
		}
		if res != nil && res.Error.Message != "" {
			return fmt.Errorf("cloudinary upload rejected: %s", res.Error.Message)
		}
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("cloudinary upload failed: %w", err)
	}
	if res == nil || res.SecureURL == "" {
		return nil, fmt.Errorf("cloudinary upload returned empty result")
	}

	return &Image{URL: res.SecureURL, PublicID: res.PublicID}, nil
}

// Delete 按 public id 删除。"not found" 不视为错误，
// 保证调用方在清理路径上不会因重复删除而失败。
func (s *CloudinaryStore) Delete(ctx context.Context, publicID string) error {
	if s == nil || s.cld == nil {
		return fmt.Errorf("cloudinary store not initialized")
	}
	publicID = strings.TrimSpace(publicID)
	if publicID == "" {
		return fmt.Errorf("public id is empty")
	}

	return s.breaker.Call(ctx, func() error {
		res, err := s.cld.Upload.Destroy(ctx, uploader.DestroyParams{PublicID: publicID})
		if err != nil {
			return err
		}
		if res != nil && res.Result != "" && res.Result != "ok" && res.Result != "not found" {
			return fmt.Errorf("cloudinary destroy: %s", res.Result)
		}
		return nil
	})
}
