package model

// Collaborator 歌曲的一位参与者及其分成比例
// Role 为开放字符串，下方常量仅为建议集合（前端表单允许自定义角色）
type Collaborator struct {
	Name                  string `json:"name"`
	Role                  string `json:"role"`
	Percentage            int    `json:"percentage"` // 0-100
	WalletAddress         string `json:"walletAddress,omitempty"`
	CustodialAccountEmail string `json:"custodialAccountEmail,omitempty"` // 托管钱包邮箱，无钱包地址时使用
}

// 建议的协作者角色集合
const (
	RoleArtist   = "Artist"
	RoleProducer = "Producer"
	RoleDesigner = "Designer"
	RoleComposer = "Composer"
	RoleEngineer = "Engineer"
	RoleOther    = "Other"
)

// HasPayoutTarget 判断该协作者是否具备至少一个收款目标
func (c Collaborator) HasPayoutTarget() bool {
	return c.WalletAddress != "" || c.CustodialAccountEmail != ""
}

// NFTAttribute NFT市场兼容的属性键值对
type NFTAttribute struct {
	TraitType string      `json:"trait_type"`
	Value     interface{} `json:"value"`
}

// SongMetadata 持久化到存储网络的歌曲元数据记录
// EntityKey 由存储网络在首次写入时分配，之前为空
type SongMetadata struct {
	EntityKey string `json:"entityKey,omitempty"`

	SongTitle     string `json:"songTitle"`
	Artist        string `json:"artist"`
	Album         string `json:"album,omitempty"`
	Genre         string `json:"genre,omitempty"`
	ReleaseDate   string `json:"releaseDate"` // ISO 8601
	CoverImageUrl string `json:"coverImageUrl,omitempty"`
	AudioUrl      string `json:"audioUrl,omitempty"`
	Description   string `json:"description,omitempty"`

	Collaborators []Collaborator `json:"collaborators"`

	NFTContractAddress string `json:"nftContractAddress"`
	TokenID            string `json:"tokenId"`
	ChainID            int64  `json:"chainId"`

	AgreementHash string `json:"agreementHash"`

	CreatedAt int64 `json:"createdAt"` // 毫秒时间戳
	ExpiresAt int64 `json:"expiresAt"` // CreatedAt + 6个月，由存储网络强制执行的TTL

	Attributes []NFTAttribute `json:"attributes,omitempty"`
}

// CreateSongRequest 创建歌曲的请求体
type CreateSongRequest struct {
	SongTitle          string         `json:"songTitle"`
	Artist             string         `json:"artist"`
	Album              string         `json:"album,omitempty"`
	Genre              string         `json:"genre,omitempty"`
	ReleaseDate        string         `json:"releaseDate,omitempty"`
	CoverImageUrl      string         `json:"coverImageUrl,omitempty"`
	AudioUrl           string         `json:"audioUrl,omitempty"`
	Description        string         `json:"description,omitempty"`
	Collaborators      []Collaborator `json:"collaborators"`
	NFTContractAddress string         `json:"nftContractAddress,omitempty"`
	TokenID            string         `json:"tokenId,omitempty"`
}
