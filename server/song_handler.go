package server

import (
	"encoding/json"
	"errors"
	"net/http"
	"time"

	"SplitTrackFM/arkiv"
	"SplitTrackFM/core/chain"
	"SplitTrackFM/core/song"
	"SplitTrackFM/core/splits"
	"SplitTrackFM/logger"
	"SplitTrackFM/model"

	"github.com/gorilla/mux"
)

// ServiceName 健康检查里报告的服务名
const ServiceName = "SplitTrack FM API"

// SongHandler 处理歌曲相关的API请求
type SongHandler struct {
	svc      *song.Service
	entities arkiv.EntityCreator
}

// NewSongHandler 创建歌曲处理器
func NewSongHandler(svc *song.Service, entities arkiv.EntityCreator) *SongHandler {
	return &SongHandler{
		svc:      svc,
		entities: entities,
	}
}

// CreateSongHandler 创建歌曲：校验 → 链上合约 → 存储网络元数据
func (h *SongHandler) CreateSongHandler(w http.ResponseWriter, r *http.Request) {
	// 在边界处做显式的结构化解码，不信任松散的JSON对象
	var req model.CreateSongRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body: "+err.Error())
		return
	}

	result, err := h.svc.Create(r.Context(), req)
	if err != nil {
		logger.Error("创建歌曲失败",
			logger.String("songTitle", req.SongTitle),
			logger.ErrorField(err))
		writeError(w, statusForError(err), err.Error())
		return
	}

	writeJSON(w, http.StatusCreated, map[string]interface{}{
		"success": true,
		"data":    result,
	})
}

// ListSongsHandler 列出本地登记表中的歌曲
func (h *SongHandler) ListSongsHandler(w http.ResponseWriter, r *http.Request) {
	records, err := h.svc.ListRegistry(100)
	if err != nil {
		logger.Error("读取歌曲登记表失败", logger.ErrorField(err))
		writeError(w, http.StatusInternalServerError, "failed to list songs")
		return
	}

	writeJSON(w, http.StatusOK, map[string]interface{}{
		"success": true,
		"count":   len(records),
		"data":    records,
	})
}

// MetadataHandler 返回NFT市场兼容的元数据文档
func (h *SongHandler) MetadataHandler(w http.ResponseWriter, r *http.Request) {
	entityKey := mux.Vars(r)["entityKey"]

	doc, err := h.svc.Metadata(r.Context(), entityKey)
	if err != nil {
		if errors.Is(err, song.ErrNotFound) {
			writeError(w, http.StatusNotFound, "metadata not found")
			return
		}
		logger.Error("读取元数据失败", logger.String("entityKey", entityKey), logger.ErrorField(err))
		writeError(w, statusForError(err), err.Error())
		return
	}

	writeJSON(w, http.StatusOK, doc)
}

// SongsByArtistHandler 按艺人名查询存储网络中的歌曲
func (h *SongHandler) SongsByArtistHandler(w http.ResponseWriter, r *http.Request) {
	artistName := mux.Vars(r)["artistName"]

	songs, err := h.svc.SongsByArtist(r.Context(), artistName)
	if err != nil {
		logger.Error("按艺人查询失败", logger.String("artist", artistName), logger.ErrorField(err))
		writeError(w, statusForError(err), err.Error())
		return
	}

	writeJSON(w, http.StatusOK, map[string]interface{}{
		"success": true,
		"count":   len(songs),
		"data":    songs,
	})
}

// CollaboratorsHandler 返回一首歌的协作者和分成
func (h *SongHandler) CollaboratorsHandler(w http.ResponseWriter, r *http.Request) {
	entityKey := mux.Vars(r)["entityKey"]

	collaborators, err := h.svc.Collaborators(r.Context(), entityKey)
	if err != nil {
		if errors.Is(err, song.ErrNotFound) {
			writeError(w, http.StatusNotFound, "collaborators not found")
			return
		}
		logger.Error("读取协作者失败", logger.String("entityKey", entityKey), logger.ErrorField(err))
		writeError(w, statusForError(err), err.Error())
		return
	}

	writeJSON(w, http.StatusOK, map[string]interface{}{
		"success": true,
		"data":    collaborators,
	})
}

// CreateEntityHandler legacy通用实体创建透传
func (h *SongHandler) CreateEntityHandler(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Data      interface{} `json:"data"`
		Type      string      `json:"type"`
		Priority  int         `json:"priority"`
		ExpiresIn int64       `json:"expiresIn"` // 分钟
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body: "+err.Error())
		return
	}

	entityKey, txHash, err := h.entities.CreateEntity(r.Context(), req.Data, req.Type, req.Priority, req.ExpiresIn)
	if err != nil {
		logger.Error("创建实体失败", logger.String("type", req.Type), logger.ErrorField(err))
		writeError(w, statusForError(err), err.Error())
		return
	}

	writeJSON(w, http.StatusCreated, map[string]interface{}{
		"entityKey": entityKey,
		"txHash":    txHash,
	})
}

// HealthHandler 存活探针
func (h *SongHandler) HealthHandler(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]interface{}{
		"status":    "ok",
		"service":   ServiceName,
		"timestamp": time.Now().UTC().Format(time.RFC3339),
	})
}

// statusForError 把错误分类映射到HTTP状态码，
// 调用方至少能从状态和消息上区分校验/网络/配置/数据完整性
func statusForError(err error) int {
	var percentageErr *splits.PercentageMismatchError
	var payoutErr *splits.MissingPayoutTargetError
	var eventErr *chain.EventNotFoundError

	switch {
	case errors.Is(err, splits.ErrEmptyCollaborators),
		errors.As(err, &percentageErr),
		errors.As(err, &payoutErr),
		errors.Is(err, splits.ErrMissingSongTitle),
		errors.Is(err, splits.ErrMissingArtist),
		errors.Is(err, splits.ErrMissingCollaborators):
		return http.StatusBadRequest
	case errors.Is(err, song.ErrNotFound):
		return http.StatusNotFound
	case errors.Is(err, arkiv.ErrStoreUnreachable),
		errors.Is(err, chain.ErrChainUnreachable):
		return http.StatusBadGateway
	case errors.Is(err, song.ErrChainNotConfigured),
		errors.Is(err, arkiv.ErrInvalidCredentials):
		return http.StatusServiceUnavailable
	case errors.As(err, &eventErr),
		errors.Is(err, arkiv.ErrEntityKeyNotFound),
		errors.Is(err, arkiv.ErrMalformedPayload):
		return http.StatusBadGateway
	default:
		return http.StatusInternalServerError
	}
}

func writeJSON(w http.ResponseWriter, status int, body interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(body); err != nil {
		logger.Error("编码响应失败", logger.ErrorField(err))
	}
}

func writeError(w http.ResponseWriter, status int, message string) {
	writeJSON(w, status, map[string]interface{}{
		"success": false,
		"error":   message,
	})
}
