package server

import (
	"fmt"
	"net/http"
	"path/filepath"
	"strings"

	"SplitTrackFM/config"
	"SplitTrackFM/logger"
	"SplitTrackFM/storage"

	"github.com/google/uuid"
)

// 上传大小上限
const (
	maxCoverSize = 10 << 20  // 10MB
	maxAudioSize = 100 << 20 // 100MB
)

var allowedAudioTypes = []string{
	"audio/mpeg", "audio/mp3", // MP3
	"audio/wav", "audio/x-wav", // WAV
	"audio/flac", "audio/x-flac", // FLAC
	"audio/aac",  // AAC
	"audio/mp4",  // M4A
	"audio/ogg",  // OGG
}

// UploadHandler 处理封面图与音频文件上传，产出的URL
// 填入歌曲元数据的 coverImageUrl / audioUrl
type UploadHandler struct {
	cfg   *config.Config
	ready bool
}

// NewUploadHandler 创建上传处理器；MinIO未就绪时所有上传返回503
func NewUploadHandler(cfg *config.Config, ready bool) *UploadHandler {
	return &UploadHandler{cfg: cfg, ready: ready}
}

// UploadCoverHandler 上传封面图
func (h *UploadHandler) UploadCoverHandler(w http.ResponseWriter, r *http.Request) {
	h.handleUpload(w, r, "cover", "covers", maxCoverSize, func(contentType string) bool {
		return strings.HasPrefix(contentType, "image/")
	})
}

// UploadAudioHandler 上传音频文件
func (h *UploadHandler) UploadAudioHandler(w http.ResponseWriter, r *http.Request) {
	h.handleUpload(w, r, "audio", "audio", maxAudioSize, func(contentType string) bool {
		for _, t := range allowedAudioTypes {
			if contentType == t {
				return true
			}
		}
		return false
	})
}

func (h *UploadHandler) handleUpload(w http.ResponseWriter, r *http.Request, field, prefix string, maxSize int64, typeOK func(string) bool) {
	if !h.ready {
		writeError(w, http.StatusServiceUnavailable, "media storage is not configured")
		return
	}

	r.Body = http.MaxBytesReader(w, r.Body, maxSize)
	if err := r.ParseMultipartForm(maxSize); err != nil {
		writeError(w, http.StatusBadRequest, "failed to parse upload: "+err.Error())
		return
	}

	file, header, err := r.FormFile(field)
	if err != nil {
		writeError(w, http.StatusBadRequest, fmt.Sprintf("missing %q form file", field))
		return
	}
	defer file.Close()

	contentType := header.Header.Get("Content-Type")
	if !typeOK(contentType) {
		writeError(w, http.StatusBadRequest, fmt.Sprintf("unsupported content type %q", contentType))
		return
	}

	// 对象名用uuid避免覆盖，保留原始扩展名
	ext := filepath.Ext(header.Filename)
	objectName := fmt.Sprintf("%s/%s%s", prefix, uuid.NewString(), ext)

	url, err := storage.UploadObject(r.Context(), h.cfg, objectName, contentType, file, header.Size)
	if err != nil {
		logger.Error("上传媒体文件失败",
			logger.String("object", objectName),
			logger.ErrorField(err))
		writeError(w, http.StatusInternalServerError, "upload failed")
		return
	}

	logger.Info("媒体文件上传成功",
		logger.String("object", objectName),
		logger.Int64("size", header.Size))

	writeJSON(w, http.StatusCreated, map[string]interface{}{
		"success": true,
		"data": map[string]string{
			"object": objectName,
			"url":    url,
		},
	})
}
