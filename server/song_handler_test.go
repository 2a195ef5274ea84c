package server

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"SplitTrackFM/arkiv"
	"SplitTrackFM/core/chain"
	"SplitTrackFM/core/song"

	"github.com/gorilla/mux"
)

type stubCreator struct{}

func (stubCreator) CreateSong(_ context.Context, _, _, _ string, _ []string, _ []int) (*chain.CreateResult, error) {
	return &chain.CreateResult{
		NFTAddress:      "0xaAaAaAaaAaAaAaaAaAAAAAAAAaaaAaAaAaaAaaAa",
		SplitterAddress: "0xBbbBBbbbBbBBbbbBBbBbbbbBBbBbbbbBbBbbBBbB",
		TxHash:          "0xfeedfeedfeedfeedfeedfeedfeedfeedfeedfeedfeedfeedfeedfeedfeedfeed",
		BlockNumber:     42,
	}, nil
}

func newTestRouter(t *testing.T, creator song.SongCreator) *mux.Router {
	t.Helper()

	mem := arkiv.NewMemStore()
	svc := song.NewService(mem, creator, nil, nil, nil, 534351)
	h := NewSongHandler(svc, mem)

	router := mux.NewRouter()
	router.HandleFunc("/api/songs", h.CreateSongHandler).Methods(http.MethodPost)
	router.HandleFunc("/api/songs", h.ListSongsHandler).Methods(http.MethodGet)
	router.HandleFunc("/api/songs/artist/{artistName}", h.SongsByArtistHandler).Methods(http.MethodGet)
	router.HandleFunc("/api/metadata/{entityKey}", h.MetadataHandler).Methods(http.MethodGet)
	router.HandleFunc("/api/collaborators/{entityKey}", h.CollaboratorsHandler).Methods(http.MethodGet)
	router.HandleFunc("/create-entity", h.CreateEntityHandler).Methods(http.MethodPost)
	router.HandleFunc("/health", h.HealthHandler).Methods(http.MethodGet)
	return router
}

const createBody = `{
	"songTitle": "Midnight Drive",
	"artist": "DJ Arkiv",
	"genre": "Synthwave",
	"collaborators": [
		{"name": "Ana", "role": "Artist", "percentage": 60, "walletAddress": "0x1111111111111111111111111111111111111111"},
		{"name": "Luis", "role": "Producer", "percentage": 30, "walletAddress": "0x2222222222222222222222222222222222222222"},
		{"name": "Mia", "role": "Designer", "percentage": 10, "custodialAccountEmail": "mia@example.com"}
	]
}`

func doRequest(router *mux.Router, method, path, body string) *httptest.ResponseRecorder {
	var reader *bytes.Reader
	if body == "" {
		reader = bytes.NewReader(nil)
	} else {
		reader = bytes.NewReader([]byte(body))
	}
	req := httptest.NewRequest(method, path, reader)
	req.Header.Set("Content-Type", "application/json")
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)
	return rec
}

func createSong(t *testing.T, router *mux.Router) map[string]interface{} {
	t.Helper()

	rec := doRequest(router, http.MethodPost, "/api/songs", createBody)
	if rec.Code != http.StatusCreated {
		t.Fatalf("create: expected 201, got %d: %s", rec.Code, rec.Body.String())
	}

	var envelope struct {
		Success bool                   `json:"success"`
		Data    map[string]interface{} `json:"data"`
	}
	if err := json.Unmarshal(rec.Body.Bytes(), &envelope); err != nil {
		t.Fatalf("decode create response: %v", err)
	}
	if !envelope.Success {
		t.Fatal("expected success envelope")
	}
	return envelope.Data
}

func TestCreateSongHandler(t *testing.T) {
	t.Run("successful creation", func(t *testing.T) {
		router := newTestRouter(t, stubCreator{})
		data := createSong(t, router)

		entityKey, _ := data["entityKey"].(string)
		if entityKey == "" {
			t.Error("expected an entity key in the response")
		}
		if uri, _ := data["metadataUri"].(string); uri != arkiv.URIScheme+entityKey {
			t.Errorf("metadata uri: got %s", uri)
		}
		if nft, _ := data["songNFT"].(string); nft == "" {
			t.Error("expected the song NFT address in the response")
		}
	})

	t.Run("percentage mismatch yields 400", func(t *testing.T) {
		router := newTestRouter(t, stubCreator{})

		body := `{"songTitle":"Bad Split","artist":"DJ Arkiv","collaborators":[
			{"name":"Ana","percentage":60,"walletAddress":"0x1111111111111111111111111111111111111111"},
			{"name":"Luis","percentage":39,"walletAddress":"0x2222222222222222222222222222222222222222"}]}`
		rec := doRequest(router, http.MethodPost, "/api/songs", body)
		if rec.Code != http.StatusBadRequest {
			t.Fatalf("expected 400, got %d: %s", rec.Code, rec.Body.String())
		}

		var envelope struct {
			Success bool   `json:"success"`
			Error   string `json:"error"`
		}
		if err := json.Unmarshal(rec.Body.Bytes(), &envelope); err != nil {
			t.Fatalf("decode error response: %v", err)
		}
		if envelope.Success || envelope.Error == "" {
			t.Errorf("expected error envelope, got %+v", envelope)
		}
	})

	t.Run("malformed body yields 400", func(t *testing.T) {
		router := newTestRouter(t, stubCreator{})
		rec := doRequest(router, http.MethodPost, "/api/songs", "{not json")
		if rec.Code != http.StatusBadRequest {
			t.Errorf("expected 400, got %d", rec.Code)
		}
	})

	t.Run("chain not configured yields 503", func(t *testing.T) {
		router := newTestRouter(t, nil)
		rec := doRequest(router, http.MethodPost, "/api/songs", createBody)
		if rec.Code != http.StatusServiceUnavailable {
			t.Errorf("expected 503, got %d: %s", rec.Code, rec.Body.String())
		}
	})
}

func TestMetadataHandler(t *testing.T) {
	router := newTestRouter(t, stubCreator{})
	data := createSong(t, router)
	entityKey := data["entityKey"].(string)

	t.Run("marketplace document", func(t *testing.T) {
		rec := doRequest(router, http.MethodGet, "/api/metadata/"+entityKey, "")
		if rec.Code != http.StatusOK {
			t.Fatalf("expected 200, got %d: %s", rec.Code, rec.Body.String())
		}

		var doc struct {
			Name          string                   `json:"name"`
			Artist        string                   `json:"artist"`
			AgreementHash string                   `json:"agreementHash"`
			IsValid       bool                     `json:"isValid"`
			Attributes    []map[string]interface{} `json:"attributes"`
		}
		if err := json.Unmarshal(rec.Body.Bytes(), &doc); err != nil {
			t.Fatalf("decode document: %v", err)
		}
		if doc.Name != "Midnight Drive" || doc.Artist != "DJ Arkiv" {
			t.Errorf("document fields: %+v", doc)
		}
		if len(doc.AgreementHash) != 66 {
			t.Errorf("agreement hash length: %d", len(doc.AgreementHash))
		}
		if !doc.IsValid {
			t.Error("fresh record should report valid")
		}
		if doc.Attributes == nil {
			t.Error("attributes must be present in the document")
		}
	})

	t.Run("unknown key yields 404", func(t *testing.T) {
		rec := doRequest(router, http.MethodGet, "/api/metadata/0xdeadbeef", "")
		if rec.Code != http.StatusNotFound {
			t.Errorf("expected 404, got %d", rec.Code)
		}
	})
}

func TestCollaboratorsHandler(t *testing.T) {
	router := newTestRouter(t, stubCreator{})
	data := createSong(t, router)
	entityKey := data["entityKey"].(string)

	rec := doRequest(router, http.MethodGet, "/api/collaborators/"+entityKey, "")
	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", rec.Code)
	}

	var envelope struct {
		Success bool `json:"success"`
		Data    []struct {
			Name       string `json:"name"`
			Percentage int    `json:"percentage"`
		} `json:"data"`
	}
	if err := json.Unmarshal(rec.Body.Bytes(), &envelope); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if len(envelope.Data) != 3 {
		t.Fatalf("expected 3 collaborators, got %d", len(envelope.Data))
	}
	total := 0
	for _, c := range envelope.Data {
		total += c.Percentage
	}
	if total != 100 {
		t.Errorf("percentages should sum to 100, got %d", total)
	}

	t.Run("unknown key yields 404", func(t *testing.T) {
		rec := doRequest(router, http.MethodGet, "/api/collaborators/0xdeadbeef", "")
		if rec.Code != http.StatusNotFound {
			t.Errorf("expected 404, got %d", rec.Code)
		}
	})
}

func TestSongsByArtistHandler(t *testing.T) {
	router := newTestRouter(t, stubCreator{})
	createSong(t, router)

	rec := doRequest(router, http.MethodGet, "/api/songs/artist/DJ%20Arkiv", "")
	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", rec.Code)
	}

	var envelope struct {
		Success bool                     `json:"success"`
		Count   int                      `json:"count"`
		Data    []map[string]interface{} `json:"data"`
	}
	if err := json.Unmarshal(rec.Body.Bytes(), &envelope); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if envelope.Count != 1 || len(envelope.Data) != 1 {
		t.Errorf("expected one song, got count=%d len=%d", envelope.Count, len(envelope.Data))
	}

	t.Run("unknown artist serializes an empty array", func(t *testing.T) {
		rec := doRequest(router, http.MethodGet, "/api/songs/artist/Nobody", "")
		if rec.Code != http.StatusOK {
			t.Fatalf("expected 200, got %d", rec.Code)
		}
		if !strings.Contains(rec.Body.String(), `"data":[]`) {
			t.Errorf("empty result must serialize as [], got %s", rec.Body.String())
		}
	})
}

func TestCreateEntityHandler(t *testing.T) {
	router := newTestRouter(t, stubCreator{})

	body := `{"data":{"hello":"world"},"type":"test-data","priority":1,"expiresIn":30}`
	rec := doRequest(router, http.MethodPost, "/create-entity", body)
	if rec.Code != http.StatusCreated {
		t.Fatalf("expected 201, got %d: %s", rec.Code, rec.Body.String())
	}

	var res struct {
		EntityKey string `json:"entityKey"`
		TxHash    string `json:"txHash"`
	}
	if err := json.Unmarshal(rec.Body.Bytes(), &res); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if res.EntityKey == "" || res.TxHash == "" {
		t.Errorf("expected entity key and tx hash, got %+v", res)
	}
}

func TestHealthHandler(t *testing.T) {
	router := newTestRouter(t, nil)

	rec := doRequest(router, http.MethodGet, "/health", "")
	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", rec.Code)
	}

	var res struct {
		Status  string `json:"status"`
		Service string `json:"service"`
	}
	if err := json.Unmarshal(rec.Body.Bytes(), &res); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if res.Status != "ok" || res.Service != ServiceName {
		t.Errorf("health payload: %+v", res)
	}
}
