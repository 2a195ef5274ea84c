package cmd

import (
	"context"
	"fmt"
	"log"
	"time"

	"SplitTrackFM/arkiv"
	"SplitTrackFM/config"
	"SplitTrackFM/logger"

	"github.com/spf13/cobra"
)

var arkivCmd = &cobra.Command{
	Use:   "arkiv",
	Short: "存储网络连接测试",
	Long:  `测试到存储网络的连接：创建一个短TTL的测试实体并读回校验。注意创建实体是付费的链上写入。`,
	Run: func(cmd *cobra.Command, args []string) {
		fmt.Println("开始测试存储网络连接...")

		// 加载配置
		cfg := config.Load()
		logger.Init(logger.Config{Level: cfg.LogLevel})
		if err := cfg.ValidateStore(); err != nil {
			log.Fatalf("存储网络配置不完整: %v", err)
		}
		fmt.Printf("端点: %s\n", cfg.ArkivRPCURL)

		ctx, cancel := context.WithTimeout(context.Background(), 2*time.Minute)
		defer cancel()

		client, err := arkiv.NewClient(ctx, cfg.ArkivRPCURL, cfg.ArkivPrivateKey)
		if err != nil {
			log.Fatalf("无法连接到存储网络: %v", err)
		}
		defer client.Close()
		fmt.Println("存储网络连接成功！")

		// 创建一个30分钟后过期的测试实体
		fmt.Println("创建测试实体...")
		entityKey, txHash, err := client.CreateEntity(ctx, map[string]interface{}{
			"message":   "connection test",
			"timestamp": time.Now().UTC().Format(time.RFC3339),
		}, "connection-test", 1, 30)
		if err != nil {
			log.Fatalf("创建测试实体失败: %v", err)
		}
		fmt.Printf("测试实体已创建:\n  Entity Key: %s\n  TX Hash: %s\n", entityKey, txHash)

		// 读回校验
		m, err := client.GetByKey(ctx, entityKey)
		if err != nil {
			log.Fatalf("读回测试实体失败: %v", err)
		}
		if m == nil {
			fmt.Println("警告：刚创建的实体暂时读不到（索引可能有延迟）")
		} else {
			fmt.Println("读回校验成功！")
		}

		fmt.Println("存储网络测试完成。")
	},
}

func init() {
	rootCmd.AddCommand(arkivCmd)
}
