package arkiv

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"fmt"
	"sync"
	"time"

	"SplitTrackFM/model"
)

// MemStore 是 MetadataStore 的进程内实现，在没有配置存储网络
// 端点时作为演示模式使用，也用于测试。行为与真实网关一致：
// 只写一次、按TTL过期、键不存在与已过期不可区分。
type MemStore struct {
	mu      sync.Mutex
	entries map[string]memEntry
	seq     uint64

	// now 可注入，测试中用来推进时钟
	now func() time.Time
}

type memEntry struct {
	payload    []byte
	attributes map[string]string
	expiresAt  time.Time
}

// NewMemStore 创建空的内存存储
func NewMemStore() *MemStore {
	return &MemStore{
		entries: make(map[string]memEntry),
		now:     time.Now,
	}
}

// SetClock 替换时钟，仅用于测试TTL行为
func (s *MemStore) SetClock(now func() time.Time) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.now = now
}

// Save 写入元数据并分配实体键
func (s *MemStore) Save(_ context.Context, m *model.SongMetadata, ttlSeconds int64) (*SaveResult, error) {
	payload, err := json.Marshal(m)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrMalformedPayload, err)
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	s.seq++
	entityKey := deriveKey(payload, s.seq)
	txHash := deriveKey([]byte(entityKey), s.seq)

	attributes := make(map[string]string)
	for _, a := range indexedAttributes(m) {
		attributes[a.Key] = a.Value
	}

	s.entries[entityKey] = memEntry{
		payload:    payload,
		attributes: attributes,
		expiresAt:  s.now().Add(time.Duration(ttlSeconds) * time.Second),
	}

	return &SaveResult{
		EntityKey:   entityKey,
		TxHash:      txHash,
		MetadataURI: URIScheme + entityKey,
	}, nil
}

// CreateEntity 通用实体创建（legacy透传的演示模式）
func (s *MemStore) CreateEntity(_ context.Context, data interface{}, entityType string, priority int, expiresInMinutes int64) (string, string, error) {
	payload, err := json.Marshal(data)
	if err != nil {
		return "", "", fmt.Errorf("%w: %v", ErrMalformedPayload, err)
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	s.seq++
	entityKey := deriveKey(payload, s.seq)
	txHash := deriveKey([]byte(entityKey), s.seq)

	s.entries[entityKey] = memEntry{
		payload: payload,
		attributes: map[string]string{
			"type": entityType,
		},
		expiresAt: s.now().Add(time.Duration(expiresInMinutes) * time.Minute),
	}
	_ = priority

	return entityKey, txHash, nil
}

// GetByKey 读回元数据；键不存在或已过期都返回 (nil, nil)
func (s *MemStore) GetByKey(_ context.Context, entityKey string) (*model.SongMetadata, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	entry, ok := s.entries[entityKey]
	if !ok || !s.now().Before(entry.expiresAt) {
		return nil, nil
	}

	return decodeMetadata(entityKey, entry.payload)
}

// QueryByAttribute 属性等值查询
func (s *MemStore) QueryByAttribute(_ context.Context, name, value string) ([]*model.SongMetadata, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	songs := make([]*model.SongMetadata, 0)
	for key, entry := range s.entries {
		if !s.now().Before(entry.expiresAt) {
			continue
		}
		if entry.attributes[name] != value {
			continue
		}
		m, err := decodeMetadata(key, entry.payload)
		if err != nil {
			continue
		}
		songs = append(songs, m)
	}

	return songs, nil
}

// IsValid 检查记录是否仍然有效
func (s *MemStore) IsValid(ctx context.Context, entityKey string) (bool, error) {
	m, err := s.GetByKey(ctx, entityKey)
	if err != nil {
		return false, err
	}
	if m == nil {
		return false, nil
	}

	s.mu.Lock()
	now := s.now()
	s.mu.Unlock()

	return now.UnixMilli() < m.ExpiresAt, nil
}

func deriveKey(payload []byte, seq uint64) string {
	h := sha256.New()
	h.Write(payload)
	fmt.Fprintf(h, "#%d", seq)
	return "0x" + hex.EncodeToString(h.Sum(nil))
}
