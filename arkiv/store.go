package arkiv

import (
	"context"
	"errors"

	"SplitTrackFM/model"
)

// URIScheme 元数据引用的scheme前缀，仅在底层记录未过期时有效
const URIScheme = "arkiv://"

// EntityTypeSong 歌曲元数据实体的类型标签
const EntityTypeSong = "song-metadata"

// 存储网关的错误分类。写入失败时网关绝不自动重试，
// 由调用方根据错误类型决定是否重新提交（每次写入都是付费操作）。
var (
	// ErrStoreUnreachable 网络/传输层失败，调用方可重试
	ErrStoreUnreachable = errors.New("metadata store unreachable")
	// ErrInvalidCredentials 签名私钥配置错误，重试无意义
	ErrInvalidCredentials = errors.New("invalid store credentials")
	// ErrMalformedPayload 载荷无法序列化或解码，属于调用方缺陷
	ErrMalformedPayload = errors.New("malformed metadata payload")
	// ErrEntityKeyNotFound 写入交易已上链但回执中找不到实体键，
	// 需要人工检查（如通过区块浏览器），不应盲目重试
	ErrEntityKeyNotFound = errors.New("entity key not found in transaction receipt")
)

// SaveResult 一次成功写入的结果
type SaveResult struct {
	EntityKey   string `json:"entityKey"`
	TxHash      string `json:"txHash"`
	MetadataURI string `json:"metadataUri"`
}

// MetadataStore 歌曲元数据的存储网关。
// 记录只写一次，由存储网络按TTL淘汰，没有更新或删除操作。
type MetadataStore interface {
	// Save 将元数据连同索引属性写入存储网络，请求ttlSeconds后过期
	Save(ctx context.Context, m *model.SongMetadata, ttlSeconds int64) (*SaveResult, error)
	// GetByKey 按实体键读回元数据；键不存在（含过期后缺失）时返回 (nil, nil)
	GetByKey(ctx context.Context, entityKey string) (*model.SongMetadata, error)
	// QueryByAttribute 按索引属性做等值查询，结果数量受存储网络单次返回上限约束
	QueryByAttribute(ctx context.Context, name, value string) ([]*model.SongMetadata, error)
	// IsValid 判断记录是否仍然有效。键从未存在与已过期都返回false，
	// 单凭此调用无法区分两者
	IsValid(ctx context.Context, entityKey string) (bool, error)
}

// EntityCreator 通用实体创建（legacy /create-entity 透传所用）
type EntityCreator interface {
	CreateEntity(ctx context.Context, data interface{}, entityType string, priority int, expiresInMinutes int64) (entityKey, txHash string, err error)
}

// indexedAttributes 写入时附带的固定索引属性集
func indexedAttributes(m *model.SongMetadata) []stringAnnotation {
	return []stringAnnotation{
		{Key: "type", Value: EntityTypeSong},
		{Key: "songTitle", Value: m.SongTitle},
		{Key: "artist", Value: m.Artist},
		{Key: "nftContract", Value: m.NFTContractAddress},
		{Key: "tokenId", Value: m.TokenID},
		{Key: "agreementHash", Value: m.AgreementHash},
	}
}

type stringAnnotation struct {
	Key   string
	Value string
}

type numericAnnotation struct {
	Key   string
	Value uint64
}
