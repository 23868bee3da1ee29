package storage

import (
	"fmt"
	"io"
	"mime/multipart"
	"os"
	"path/filepath"
	"strings"

	"go.uber.org/zap"

	"github.com/heyirisdotdev/hades-kitten/internal/util"
)

// AvatarStorage 管理身份头像：本地文件落盘，引用解析为可访问的URL
type AvatarStorage struct {
	basePath string
	baseURL  string
}

func NewAvatarStorage(basePath, baseURL string) (*AvatarStorage, error) {
	if err := os.MkdirAll(basePath, 0755); err != nil {
		return nil, fmt.Errorf("创建存储目录失败: %w", err)
	}
	return &AvatarStorage{basePath: basePath, baseURL: strings.TrimSuffix(baseURL, "/")}, nil
}

// URL 把头像引用解析为公开URL。
// 完整URL原样返回，本地文件名映射到 /avatars 静态路径，空引用返回空串。
func (s *AvatarStorage) URL(ref string) string {
	if ref == "" {
		return ""
	}
	if strings.HasPrefix(ref, "http://") || strings.HasPrefix(ref, "https://") {
		return ref
	}
	return s.baseURL + "/avatars/" + ref
}

// UploadFile 保存上传的头像文件并返回相对引用
func (s *AvatarStorage) UploadFile(file *multipart.FileHeader, path string) (string, error) {
	src, err := file.Open()
	if err != nil {
		return "", err
	}
	defer src.Close()

	fullPath := filepath.Join(s.basePath, path)
	if err := os.MkdirAll(filepath.Dir(fullPath), 0755); err != nil {
		return "", fmt.Errorf("创建目录失败: %w", err)
	}

	dst, err := os.Create(fullPath)
	if err != nil {
		return "", fmt.Errorf("创建文件失败: %w", err)
	}
	defer dst.Close()

	if _, err = io.Copy(dst, src); err != nil {
		return "", fmt.Errorf("保存文件失败: %w", err)
	}

	util.Logger.Info("头像上传成功", zap.String("fullPath", fullPath))
	return path, nil // 返回相对引用
}

// BasePath 返回本地落盘目录，供静态路由挂载
func (s *AvatarStorage) BasePath() string {
	return s.basePath
}
