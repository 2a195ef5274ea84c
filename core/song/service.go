package song

import (
	"context"
	"errors"
	"fmt"
	"time"

	"SplitTrackFM/arkiv"
	"SplitTrackFM/cache"
	"SplitTrackFM/core/chain"
	"SplitTrackFM/core/notify"
	"SplitTrackFM/core/splits"
	"SplitTrackFM/logger"
	"SplitTrackFM/model"
	"SplitTrackFM/repository"
)

var (
	// ErrNotFound 实体键不存在或记录已过期
	ErrNotFound = errors.New("song metadata not found")
	// ErrChainNotConfigured 链配置缺失，创建操作立即失败（配置类错误）
	ErrChainNotConfigured = errors.New("chain is not configured: set PRIVATE_KEY and FACTORY_ADDRESS")
)

// SongCreator 工厂合约调用的抽象，测试中用mock替换
type SongCreator interface {
	CreateSong(ctx context.Context, title, symbol, metadataURI string, recipients []string, percentages []int) (*chain.CreateResult, error)
}

// CreateSongResponse 一次完整创建流程的结果
type CreateSongResponse struct {
	EntityKey       string `json:"entityKey"`
	TxHash          string `json:"txHash"` // 链上 createSong 交易
	StoreTxHash     string `json:"storeTxHash"`
	MetadataURI     string `json:"metadataUri"`
	ExpiresAt       int64  `json:"expiresAt"`
	SongNFT         string `json:"songNFT"`
	RevenueSplitter string `json:"revenueSplitter"`
}

// MetadataDocument NFT市场兼容的元数据文档（GET /api/metadata 的响应体）
type MetadataDocument struct {
	Name         string               `json:"name"`
	Description  string               `json:"description"`
	Image        string               `json:"image"`
	AnimationURL string               `json:"animation_url"`
	ExternalURL  string               `json:"external_url"`
	Attributes   []model.NFTAttribute `json:"attributes"`

	Artist        string               `json:"artist"`
	Collaborators []model.Collaborator `json:"collaborators"`
	ChainID       int64                `json:"chainId"`
	AgreementHash string               `json:"agreementHash"`
	CreatedAt     int64                `json:"createdAt"`
	ExpiresAt     int64                `json:"expiresAt"`
	IsValid       bool                 `json:"isValid"`
}

// Service 把校验、装配、哈希、链上调用和存储写入串成一条流水线。
// 所有依赖在构造时显式注入，没有包级单例；registry 和 songCache
// 允许为 nil（对应后端未配置时的降级运行）。
type Service struct {
	store    arkiv.MetadataStore
	creator  SongCreator
	registry repository.SongRepository
	cache    *cache.SongCache
	notifier notify.Notifier
	chainID  int64
	now      func() time.Time
}

// NewService 构造服务层
func NewService(store arkiv.MetadataStore, creator SongCreator, registry repository.SongRepository,
	songCache *cache.SongCache, notifier notify.Notifier, chainID int64) *Service {
	return &Service{
		store:    store,
		creator:  creator,
		registry: registry,
		cache:    songCache,
		notifier: notifier,
		chainID:  chainID,
		now:      time.Now,
	}
}

// SetClock 替换时钟，仅用于测试
func (s *Service) SetClock(now func() time.Time) {
	s.now = now
}

// Create 执行完整的歌曲创建流程：
// 校验 → 装配 → 哈希 → 链上 createSong → 存储网络写入 → 本地登记 → 通知。
// 校验失败在任何网络调用之前返回。链上和存储写入都不自动重试，
// 部分成功的流程（交易已上链但存储写入失败）把错误原样交给调用方处理。
func (s *Service) Create(ctx context.Context, req model.CreateSongRequest) (*CreateSongResponse, error) {
	if err := splits.ValidateCollaborators(req.Collaborators); err != nil {
		return nil, err
	}

	if req.Artist == "" {
		// 缺省取第一位协作者的名字
		req.Artist = req.Collaborators[0].Name
		if req.Artist == "" {
			req.Artist = "Unknown Artist"
		}
	}

	// 装配包含结构性字段校验，必须在任何网络调用之前完成；
	// 链上地址在交易确认后再补进记录
	m, err := splits.BuildMetadata(req, s.now(), s.chainID)
	if err != nil {
		return nil, err
	}

	if s.creator == nil {
		return nil, ErrChainNotConfigured
	}

	// 只有带钱包地址的协作者进入链上收款人列表，
	// 托管邮箱用户的地址由托管方后续绑定
	var recipients []string
	var percentages []int
	for _, c := range req.Collaborators {
		if c.WalletAddress != "" {
			recipients = append(recipients, c.WalletAddress)
			percentages = append(percentages, c.Percentage)
		}
	}
	if len(recipients) == 0 {
		return nil, errors.New("at least one collaborator must have a wallet address")
	}

	symbol := chain.DeriveSymbol(req.SongTitle)

	// 先用空的 metadataURI 创建合约，元数据保存后才有实体键
	chainRes, err := s.creator.CreateSong(ctx, req.SongTitle, symbol, "", recipients, percentages)
	if err != nil {
		return nil, fmt.Errorf("create song on chain: %w", err)
	}

	m.NFTContractAddress = chainRes.NFTAddress
	if m.TokenID == "" {
		m.TokenID = "1"
	}

	m.AgreementHash, err = splits.AgreementHash(m)
	if err != nil {
		return nil, err
	}

	saveRes, err := s.store.Save(ctx, m, splits.RetentionSeconds)
	if err != nil {
		// 此时链上合约已经创建成功，错误必须原样上抛，
		// 让调用方拿着交易哈希决定怎么处理
		return nil, fmt.Errorf("save metadata (song contracts already created in tx %s): %w", chainRes.TxHash, err)
	}
	m.EntityKey = saveRes.EntityKey

	if err := s.cache.Set(ctx, m); err != nil {
		logger.Warn("缓存歌曲元数据失败", logger.ErrorField(err))
	}

	s.registerSong(m, chainRes)
	s.notifyCollaborators(ctx, m, chainRes)

	return &CreateSongResponse{
		EntityKey:       saveRes.EntityKey,
		TxHash:          chainRes.TxHash,
		StoreTxHash:     saveRes.TxHash,
		MetadataURI:     saveRes.MetadataURI,
		ExpiresAt:       m.ExpiresAt,
		SongNFT:         chainRes.NFTAddress,
		RevenueSplitter: chainRes.SplitterAddress,
	}, nil
}

// registerSong 写本地登记表，失败只记日志（登记表不是事实来源）
func (s *Service) registerSong(m *model.SongMetadata, chainRes *chain.CreateResult) {
	if s.registry == nil {
		return
	}

	_, err := s.registry.CreateSong(&model.SongRecord{
		EntityKey:       m.EntityKey,
		SongTitle:       m.SongTitle,
		Artist:          m.Artist,
		NFTAddress:      chainRes.NFTAddress,
		SplitterAddress: chainRes.SplitterAddress,
		TxHash:          chainRes.TxHash,
		AgreementHash:   m.AgreementHash,
		CreatedAt:       time.UnixMilli(m.CreatedAt),
		ExpiresAt:       time.UnixMilli(m.ExpiresAt),
	})
	if err != nil {
		logger.Warn("写入本地歌曲登记表失败",
			logger.String("entityKey", m.EntityKey),
			logger.ErrorField(err))
	}
}

// notifyCollaborators 给托管邮箱协作者发送分成确认，失败只记日志
func (s *Service) notifyCollaborators(ctx context.Context, m *model.SongMetadata, chainRes *chain.CreateResult) {
	if s.notifier == nil {
		return
	}

	info := notify.SplitInfo{
		SongTitle:       m.SongTitle,
		SplitterAddress: chainRes.SplitterAddress,
		NFTAddress:      chainRes.NFTAddress,
		TxHash:          chainRes.TxHash,
		ChainID:         s.chainID,
	}

	for _, c := range m.Collaborators {
		info.Percentage = c.Percentage
		if err := s.notifier.NotifySplit(ctx, c, info); err != nil {
			logger.Warn("发送分成确认通知失败",
				logger.String("collaborator", c.Name),
				logger.ErrorField(err))
		}
	}
}

// Metadata 读取歌曲元数据并组装成市场兼容文档
func (s *Service) Metadata(ctx context.Context, entityKey string) (*MetadataDocument, error) {
	m, err := s.getMetadata(ctx, entityKey)
	if err != nil {
		return nil, err
	}

	description := m.Description
	if description == "" {
		description = fmt.Sprintf("%s by %s", m.SongTitle, m.Artist)
	}

	attributes := m.Attributes
	if attributes == nil {
		attributes = []model.NFTAttribute{}
	}

	return &MetadataDocument{
		Name:          m.SongTitle,
		Description:   description,
		Image:         m.CoverImageUrl,
		AnimationURL:  m.AudioUrl,
		ExternalURL:   arkiv.URIScheme + m.EntityKey,
		Attributes:    attributes,
		Artist:        m.Artist,
		Collaborators: m.Collaborators,
		ChainID:       m.ChainID,
		AgreementHash: m.AgreementHash,
		CreatedAt:     m.CreatedAt,
		ExpiresAt:     m.ExpiresAt,
		IsValid:       s.now().UnixMilli() < m.ExpiresAt,
	}, nil
}

// SongsByArtist 按艺人名查询存储网络中的所有歌曲
func (s *Service) SongsByArtist(ctx context.Context, artist string) ([]*model.SongMetadata, error) {
	return s.store.QueryByAttribute(ctx, "artist", artist)
}

// Collaborators 读取一首歌的协作者和分成
func (s *Service) Collaborators(ctx context.Context, entityKey string) ([]model.Collaborator, error) {
	m, err := s.getMetadata(ctx, entityKey)
	if err != nil {
		return nil, err
	}
	return m.Collaborators, nil
}

// IsValid 判断记录是否仍然有效；不存在与已过期都返回false
func (s *Service) IsValid(ctx context.Context, entityKey string) (bool, error) {
	return s.store.IsValid(ctx, entityKey)
}

// ListRegistry 列出本地登记表中的歌曲（没有登记表时返回空列表）
func (s *Service) ListRegistry(limit int) ([]*model.SongRecord, error) {
	if s.registry == nil {
		return []*model.SongRecord{}, nil
	}
	return s.registry.ListSongs(limit)
}

// getMetadata 读穿缓存：先查Redis，未命中回源存储网络
func (s *Service) getMetadata(ctx context.Context, entityKey string) (*model.SongMetadata, error) {
	if cached, err := s.cache.Get(ctx, entityKey); err != nil {
		logger.Warn("读取元数据缓存失败", logger.ErrorField(err))
	} else if cached != nil {
		return cached, nil
	}

	m, err := s.store.GetByKey(ctx, entityKey)
	if err != nil {
		return nil, err
	}
	if m == nil {
		return nil, ErrNotFound
	}

	if err := s.cache.Set(ctx, m); err != nil {
		logger.Warn("缓存歌曲元数据失败", logger.ErrorField(err))
	}

	return m, nil
}
