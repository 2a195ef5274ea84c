package splits

import (
	"bytes"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"fmt"

	"SplitTrackFM/model"
)

// agreementView 参与承诺哈希的字段子集，字段顺序即序列化顺序
type agreementView struct {
	SongTitle     string               `json:"songTitle"`
	Collaborators []model.Collaborator `json:"collaborators"`
	CreatedAt     int64                `json:"createdAt"`
}

// AgreementHash 对 {songTitle, collaborators, createdAt} 的紧凑JSON
// 计算SHA-256，返回带0x前缀的十六进制摘要。相同输入必然产生相同摘要。
// 协作者顺序保持原样，不重新排序。
func AgreementHash(m *model.SongMetadata) (string, error) {
	view := agreementView{
		SongTitle:     m.SongTitle,
		Collaborators: m.Collaborators,
		CreatedAt:     m.CreatedAt,
	}

	var buf bytes.Buffer
	enc := json.NewEncoder(&buf)
	enc.SetEscapeHTML(false)
	if err := enc.Encode(view); err != nil {
		return "", fmt.Errorf("hashing unavailable: %w", err)
	}

	// Encode 会追加换行符，承诺内容不包含它
	data := bytes.TrimRight(buf.Bytes(), "\n")

	digest := sha256.Sum256(data)
	return "0x" + hex.EncodeToString(digest[:]), nil
}
