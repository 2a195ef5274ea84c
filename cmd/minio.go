package cmd

import (
	"context"
	"fmt"
	"log"

	"SplitTrackFM/config"
	"SplitTrackFM/logger"
	"SplitTrackFM/storage"

	"github.com/spf13/cobra"
)

var minioPrefix string

var minioCmd = &cobra.Command{
	Use:   "minio",
	Short: "MinIO存储桶检查",
	Long:  `检查MinIO连接并列出存储桶中的媒体文件。`,
	Run: func(cmd *cobra.Command, args []string) {
		fmt.Println("开始连接MinIO服务器...")

		// 加载配置
		cfg := config.Load()
		logger.Init(logger.Config{Level: cfg.LogLevel})
		fmt.Printf("MinIO配置: %s, Bucket: %s\n", cfg.MinioEndpoint, cfg.MinioBucket)

		// 初始化MinIO客户端
		if err := storage.InitMinio(cfg); err != nil {
			log.Fatalf("无法连接到MinIO: %v", err)
		}
		fmt.Println("MinIO连接成功！")

		// 列出文件
		fmt.Printf("\n列出存储桶中的文件 (前缀: %s)...\n", minioPrefix)
		if err := storage.ListObjects(context.Background(), cfg, minioPrefix); err != nil {
			log.Fatalf("列出文件失败: %v", err)
		}

		fmt.Println("\nMinIO操作完成！")
	},
}

func init() {
	rootCmd.AddCommand(minioCmd)

	minioCmd.Flags().StringVarP(&minioPrefix, "prefix", "p", "", "按前缀过滤文件")

	minioCmd.Example = `  # 列出所有文件
  splittrack_server minio

  # 只看封面图
  splittrack_server minio -p "covers/"`
}
