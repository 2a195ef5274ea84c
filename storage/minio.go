package storage

import (
	"context"
	"fmt"
	"io"
	"strings"
	"time"

	"SplitTrackFM/config"
	"SplitTrackFM/logger"

	"github.com/minio/minio-go/v7"
	"github.com/minio/minio-go/v7/pkg/credentials"
)

var (
	minioClient *minio.Client
)

// InitMinio 初始化 MinIO 客户端并确认存储桶可用
func InitMinio(cfg *config.Config) error {
	if cfg.MinioEndpoint == "" {
		return fmt.Errorf("MINIO_ENDPOINT is not set")
	}

	logger.Info("正在连接 MinIO 服务器",
		logger.String("endpoint", cfg.MinioEndpoint),
		logger.String("bucket", cfg.MinioBucket))

	client, err := minio.New(cfg.MinioEndpoint, &minio.Options{
		Creds:  credentials.NewStaticV4(cfg.MinioAccessKey, cfg.MinioSecretKey, ""),
		Secure: cfg.MinioUseSSL,
		Region: cfg.MinioRegion,
	})
	if err != nil {
		return fmt.Errorf("创建 MinIO 客户端失败: %w", err)
	}

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	exists, err := client.BucketExists(ctx, cfg.MinioBucket)
	if err != nil {
		return fmt.Errorf("检查存储桶失败: %w", err)
	}

	if !exists {
		err = client.MakeBucket(ctx, cfg.MinioBucket, minio.MakeBucketOptions{
			Region: cfg.MinioRegion,
		})
		if err != nil {
			return fmt.Errorf("创建存储桶失败: %w", err)
		}
		logger.Info("成功创建存储桶", logger.String("bucket", cfg.MinioBucket))
	}

	minioClient = client
	logger.Info("MinIO 客户端初始化成功")
	return nil
}

// UploadObject 上传一个对象并返回可公开访问的URL。
// MINIO_PUBLIC_URL 未配置时按 endpoint/bucket/object 拼接。
func UploadObject(ctx context.Context, cfg *config.Config, objectName, contentType string, reader io.Reader, size int64) (string, error) {
	if minioClient == nil {
		return "", fmt.Errorf("MinIO client not initialized")
	}

	_, err := minioClient.PutObject(ctx, cfg.MinioBucket, objectName, reader, size, minio.PutObjectOptions{
		ContentType: contentType,
	})
	if err != nil {
		return "", fmt.Errorf("上传对象 %s 失败: %w", objectName, err)
	}

	return PublicURL(cfg, objectName), nil
}

// PublicURL 拼接对象的公开访问URL
func PublicURL(cfg *config.Config, objectName string) string {
	if cfg.MinioPublicURL != "" {
		return fmt.Sprintf("%s/%s", strings.TrimRight(cfg.MinioPublicURL, "/"), objectName)
	}

	scheme := "http"
	if cfg.MinioUseSSL {
		scheme = "https"
	}
	return fmt.Sprintf("%s://%s/%s/%s", scheme, cfg.MinioEndpoint, cfg.MinioBucket, objectName)
}

// ListObjects 列出存储桶中指定前缀下的对象（cobra minio 命令用）
func ListObjects(ctx context.Context, cfg *config.Config, prefix string) error {
	if minioClient == nil {
		return fmt.Errorf("MinIO client not initialized")
	}

	objectCh := minioClient.ListObjects(ctx, cfg.MinioBucket, minio.ListObjectsOptions{
		Prefix:    prefix,
		Recursive: true,
	})

	count := 0
	var totalSize int64
	for object := range objectCh {
		if object.Err != nil {
			return fmt.Errorf("列出对象失败: %w", object.Err)
		}
		fmt.Printf("  %s\t%d bytes\t%s\n", object.Key, object.Size, object.LastModified.Format(time.RFC3339))
		count++
		totalSize += object.Size
	}

	fmt.Printf("共 %d 个对象，总大小 %d bytes\n", count, totalSize)
	return nil
}
