package model

import "time"

// SongRecord 本地登记表中的一行，用于快速列出已创建的歌曲
// 元数据本体始终以存储网络中的记录为准
type SongRecord struct {
	ID              int64     `json:"id"`
	EntityKey       string    `json:"entityKey"`
	SongTitle       string    `json:"songTitle"`
	Artist          string    `json:"artist"`
	NFTAddress      string    `json:"nftAddress"`
	SplitterAddress string    `json:"splitterAddress"`
	TxHash          string    `json:"txHash"`
	AgreementHash   string    `json:"agreementHash"`
	CreatedAt       time.Time `json:"createdAt"`
	ExpiresAt       time.Time `json:"expiresAt"`
}
