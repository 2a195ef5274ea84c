package cmd

import (
	"SplitTrackFM/server"

	"github.com/spf13/cobra"
)

var serverCmd = &cobra.Command{
	Use:   "server",
	Short: "启动SplitTrack FM服务器",
	Long:  `启动SplitTrack FM的HTTP服务器，提供歌曲创建、元数据查询和媒体上传API`,
	Run: func(cmd *cobra.Command, args []string) {
		server.Start()
	},
}

func init() {
	rootCmd.AddCommand(serverCmd)
}
