package splits

import (
	"errors"
	"testing"
	"time"

	"SplitTrackFM/model"
)

func sampleRequest() model.CreateSongRequest {
	return model.CreateSongRequest{
		SongTitle: "Midnight Drive",
		Artist:    "DJ Arkiv",
		Genre:     "Synthwave",
		Collaborators: []model.Collaborator{
			{Name: "Ana", Percentage: 60, WalletAddress: "0x1111111111111111111111111111111111111111"},
			{Name: "Luis", Percentage: 40, CustodialAccountEmail: "luis@example.com"},
		},
	}
}

func TestBuildMetadata(t *testing.T) {
	now := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)

	t.Run("retention window is exactly six 30-day months", func(t *testing.T) {
		m, err := BuildMetadata(sampleRequest(), now, 534351)
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}

		wantWindow := int64(6*30*24*3600) * 1000
		if got := m.ExpiresAt - m.CreatedAt; got != wantWindow {
			t.Errorf("expected expiresAt-createdAt == %d ms, got %d", wantWindow, got)
		}
		if m.CreatedAt != now.UnixMilli() {
			t.Errorf("expected createdAt %d, got %d", now.UnixMilli(), m.CreatedAt)
		}
	})

	t.Run("release date defaults to now", func(t *testing.T) {
		m, err := BuildMetadata(sampleRequest(), now, 534351)
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if m.ReleaseDate != now.UTC().Format(time.RFC3339) {
			t.Errorf("expected default release date %s, got %s", now.UTC().Format(time.RFC3339), m.ReleaseDate)
		}

		req := sampleRequest()
		req.ReleaseDate = "2025-12-31T00:00:00Z"
		m, err = BuildMetadata(req, now, 534351)
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if m.ReleaseDate != "2025-12-31T00:00:00Z" {
			t.Errorf("explicit release date overwritten: %s", m.ReleaseDate)
		}
	})

	t.Run("chain id comes from configuration", func(t *testing.T) {
		m, err := BuildMetadata(sampleRequest(), now, 534351)
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if m.ChainID != 534351 {
			t.Errorf("expected chainId 534351, got %d", m.ChainID)
		}
	})

	t.Run("attributes are derived deterministically", func(t *testing.T) {
		m, err := BuildMetadata(sampleRequest(), now, 534351)
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}

		want := []model.NFTAttribute{
			{TraitType: "Artist", Value: "DJ Arkiv"},
			{TraitType: "Song Title", Value: "Midnight Drive"},
			{TraitType: "Genre", Value: "Synthwave"},
			{TraitType: "Collaborators", Value: 2},
		}
		if len(m.Attributes) != len(want) {
			t.Fatalf("expected %d attributes, got %d", len(want), len(m.Attributes))
		}
		for i, attr := range want {
			if m.Attributes[i].TraitType != attr.TraitType || m.Attributes[i].Value != attr.Value {
				t.Errorf("attribute %d: expected %+v, got %+v", i, attr, m.Attributes[i])
			}
		}
	})

	t.Run("optional genre and album are omitted", func(t *testing.T) {
		req := sampleRequest()
		req.Genre = ""
		m, err := BuildMetadata(req, now, 534351)
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		for _, attr := range m.Attributes {
			if attr.TraitType == "Genre" || attr.TraitType == "Album" {
				t.Errorf("unexpected attribute %+v for empty field", attr)
			}
		}
	})

	t.Run("structurally missing fields", func(t *testing.T) {
		req := sampleRequest()
		req.SongTitle = ""
		if _, err := BuildMetadata(req, now, 534351); !errors.Is(err, ErrMissingSongTitle) {
			t.Errorf("expected ErrMissingSongTitle, got %v", err)
		}

		req = sampleRequest()
		req.Artist = ""
		if _, err := BuildMetadata(req, now, 534351); !errors.Is(err, ErrMissingArtist) {
			t.Errorf("expected ErrMissingArtist, got %v", err)
		}

		req = sampleRequest()
		req.Collaborators = nil
		if _, err := BuildMetadata(req, now, 534351); !errors.Is(err, ErrMissingCollaborators) {
			t.Errorf("expected ErrMissingCollaborators, got %v", err)
		}
	})

	t.Run("builder does not validate percentages", func(t *testing.T) {
		// 校验是调用方的职责，Builder 对比例不合法的请求照常装配
		req := sampleRequest()
		req.Collaborators[0].Percentage = 10
		if _, err := BuildMetadata(req, now, 534351); err != nil {
			t.Errorf("builder should not reject bad percentages, got %v", err)
		}
	})
}
