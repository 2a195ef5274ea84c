package splits

import (
	"errors"
	"time"

	"SplitTrackFM/model"
)

// RetentionSeconds 元数据在存储网络中的保留时长，固定按 6×30天 近似，
// 不做日历月计算
const RetentionSeconds int64 = 6 * 30 * 24 * 60 * 60

// 结构性缺失错误，Builder 只负责这些；比例校验由 ValidateCollaborators 在调用前完成
var (
	ErrMissingSongTitle     = errors.New("songTitle is required")
	ErrMissingArtist        = errors.New("artist is required")
	ErrMissingCollaborators = errors.New("collaborators are required")
)

// BuildMetadata 根据创建请求装配完整的歌曲元数据记录。
// EntityKey 与 AgreementHash 留空，由后续阶段填入。
func BuildMetadata(req model.CreateSongRequest, now time.Time, chainID int64) (*model.SongMetadata, error) {
	if req.SongTitle == "" {
		return nil, ErrMissingSongTitle
	}
	if req.Artist == "" {
		return nil, ErrMissingArtist
	}
	if len(req.Collaborators) == 0 {
		return nil, ErrMissingCollaborators
	}

	createdAt := now.UnixMilli()

	releaseDate := req.ReleaseDate
	if releaseDate == "" {
		releaseDate = now.UTC().Format(time.RFC3339)
	}

	return &model.SongMetadata{
		SongTitle:          req.SongTitle,
		Artist:             req.Artist,
		Album:              req.Album,
		Genre:              req.Genre,
		ReleaseDate:        releaseDate,
		CoverImageUrl:      req.CoverImageUrl,
		AudioUrl:           req.AudioUrl,
		Description:        req.Description,
		Collaborators:      req.Collaborators,
		NFTContractAddress: req.NFTContractAddress,
		TokenID:            req.TokenID,
		ChainID:            chainID,
		CreatedAt:          createdAt,
		ExpiresAt:          createdAt + RetentionSeconds*1000,
		Attributes:         BuildNFTAttributes(req),
	}, nil
}

// BuildNFTAttributes 派生NFT市场兼容的属性，顺序稳定
func BuildNFTAttributes(req model.CreateSongRequest) []model.NFTAttribute {
	attributes := []model.NFTAttribute{
		{TraitType: "Artist", Value: req.Artist},
		{TraitType: "Song Title", Value: req.SongTitle},
	}

	if req.Genre != "" {
		attributes = append(attributes, model.NFTAttribute{TraitType: "Genre", Value: req.Genre})
	}
	if req.Album != "" {
		attributes = append(attributes, model.NFTAttribute{TraitType: "Album", Value: req.Album})
	}

	attributes = append(attributes, model.NFTAttribute{
		TraitType: "Collaborators",
		Value:     len(req.Collaborators),
	})

	return attributes
}
