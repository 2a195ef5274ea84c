package arkiv

import (
	"context"
	"strings"
	"testing"
	"time"

	"SplitTrackFM/model"
)

func testMetadata(title, artist string) *model.SongMetadata {
	created := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC).UnixMilli()
	return &model.SongMetadata{
		SongTitle:   title,
		Artist:      artist,
		ReleaseDate: "2026-03-01T12:00:00Z",
		Collaborators: []model.Collaborator{
			{Name: artist, Role: model.RoleArtist, Percentage: 100, WalletAddress: "0x1111111111111111111111111111111111111111"},
		},
		NFTContractAddress: "0x2222222222222222222222222222222222222222",
		TokenID:            "1",
		ChainID:            534351,
		AgreementHash:      "0xabc",
		CreatedAt:          created,
		ExpiresAt:          created + 6*30*24*3600*1000,
	}
}

func TestMemStoreSaveAndGet(t *testing.T) {
	ctx := context.Background()
	store := NewMemStore()

	saved, err := store.Save(ctx, testMetadata("Midnight Drive", "DJ Arkiv"), 3600)
	if err != nil {
		t.Fatalf("save: %v", err)
	}
	if !strings.HasPrefix(saved.EntityKey, "0x") {
		t.Errorf("entity key should be 0x-prefixed: %s", saved.EntityKey)
	}
	if saved.MetadataURI != URIScheme+saved.EntityKey {
		t.Errorf("metadata uri should be scheme plus key, got %s", saved.MetadataURI)
	}

	t.Run("round trip preserves the record", func(t *testing.T) {
		got, err := store.GetByKey(ctx, saved.EntityKey)
		if err != nil {
			t.Fatalf("get: %v", err)
		}
		if got == nil {
			t.Fatal("expected a record back")
		}
		if got.EntityKey != saved.EntityKey {
			t.Errorf("entity key not stamped on read: %s", got.EntityKey)
		}
		if got.SongTitle != "Midnight Drive" || got.Artist != "DJ Arkiv" {
			t.Errorf("record fields lost: %+v", got)
		}
		if len(got.Collaborators) != 1 || got.Collaborators[0].Percentage != 100 {
			t.Errorf("collaborators lost: %+v", got.Collaborators)
		}
	})

	t.Run("unknown key reads as nil nil", func(t *testing.T) {
		got, err := store.GetByKey(ctx, "0xdeadbeef")
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if got != nil {
			t.Errorf("expected nil for unknown key, got %+v", got)
		}
	})

	t.Run("distinct writes get distinct keys", func(t *testing.T) {
		a, err := store.Save(ctx, testMetadata("Same", "Same"), 3600)
		if err != nil {
			t.Fatalf("save: %v", err)
		}
		b, err := store.Save(ctx, testMetadata("Same", "Same"), 3600)
		if err != nil {
			t.Fatalf("save: %v", err)
		}
		if a.EntityKey == b.EntityKey {
			t.Error("identical payloads must still receive unique entity keys")
		}
	})
}

func TestMemStoreExpiry(t *testing.T) {
	ctx := context.Background()
	store := NewMemStore()

	base := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)
	now := base
	store.SetClock(func() time.Time { return now })

	saved, err := store.Save(ctx, testMetadata("Ephemeral", "DJ Arkiv"), 60)
	if err != nil {
		t.Fatalf("save: %v", err)
	}

	t.Run("valid before ttl", func(t *testing.T) {
		ok, err := store.IsValid(ctx, saved.EntityKey)
		if err != nil {
			t.Fatalf("isValid: %v", err)
		}
		if !ok {
			t.Error("record should be valid right after write")
		}
	})

	t.Run("never written key is not valid", func(t *testing.T) {
		ok, err := store.IsValid(ctx, "0x0000000000000000000000000000000000000000000000000000000000000000")
		if err != nil {
			t.Fatalf("isValid: %v", err)
		}
		if ok {
			t.Error("never written key must report invalid")
		}
	})

	t.Run("expired record disappears", func(t *testing.T) {
		// 过期后与从未存在不可区分
		now = base.Add(61 * time.Second)

		ok, err := store.IsValid(ctx, saved.EntityKey)
		if err != nil {
			t.Fatalf("isValid: %v", err)
		}
		if ok {
			t.Error("expired record must report invalid")
		}

		got, err := store.GetByKey(ctx, saved.EntityKey)
		if err != nil {
			t.Fatalf("get: %v", err)
		}
		if got != nil {
			t.Errorf("expired record should read as missing, got %+v", got)
		}
	})

	t.Run("zero ttl expires immediately", func(t *testing.T) {
		now = base
		zero, err := store.Save(ctx, testMetadata("Zero", "DJ Arkiv"), 0)
		if err != nil {
			t.Fatalf("save: %v", err)
		}
		ok, err := store.IsValid(ctx, zero.EntityKey)
		if err != nil {
			t.Fatalf("isValid: %v", err)
		}
		if ok {
			t.Error("ttl 0 record must never be valid")
		}
	})
}

func TestMemStoreQueryByAttribute(t *testing.T) {
	ctx := context.Background()
	store := NewMemStore()

	for _, seed := range []struct{ title, artist string }{
		{"First Song", "DJ Arkiv"},
		{"Second Song", "DJ Arkiv"},
		{"Other Song", "Someone Else"},
	} {
		if _, err := store.Save(ctx, testMetadata(seed.title, seed.artist), 3600); err != nil {
			t.Fatalf("save %s: %v", seed.title, err)
		}
	}

	songs, err := store.QueryByAttribute(ctx, "artist", "DJ Arkiv")
	if err != nil {
		t.Fatalf("query: %v", err)
	}
	if len(songs) != 2 {
		t.Fatalf("expected 2 songs for the artist, got %d", len(songs))
	}
	for _, s := range songs {
		if s.Artist != "DJ Arkiv" {
			t.Errorf("foreign record in result set: %+v", s)
		}
	}

	t.Run("no matches yields empty set", func(t *testing.T) {
		songs, err := store.QueryByAttribute(ctx, "artist", "Nobody")
		if err != nil {
			t.Fatalf("query: %v", err)
		}
		// 空结果必须是空切片而不是nil，序列化成 [] 而不是 null
		if songs == nil {
			t.Fatal("expected an empty slice, got nil")
		}
		if len(songs) != 0 {
			t.Errorf("expected empty result, got %d", len(songs))
		}
	})
}

func TestMemStoreCreateEntity(t *testing.T) {
	ctx := context.Background()
	store := NewMemStore()

	key, txHash, err := store.CreateEntity(ctx, map[string]string{"hello": "world"}, "test-data", 1, 30)
	if err != nil {
		t.Fatalf("createEntity: %v", err)
	}
	if !strings.HasPrefix(key, "0x") || !strings.HasPrefix(txHash, "0x") {
		t.Errorf("key and tx hash should be 0x-prefixed: %s %s", key, txHash)
	}
}
