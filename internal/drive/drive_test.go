package drive

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"path"
	"strings"
	"testing"
	"time"

	"github.com/gorilla/mux"

	"github.com/andresuchdata/autopo-lab/internal/domain"
)

type memStore struct {
	files map[string][]byte
}

func (m *memStore) GetFileContent(_ context.Context, p string) ([]byte, error) {
	data, ok := m.files[p]
	if !ok {
		return nil, domain.ErrFileNotFound
	}
	return data, nil
}

func (m *memStore) WriteFile(_ context.Context, p string, data []byte) (domain.FileMetadata, error) {
	m.files[p] = data
	return domain.FileMetadata{Name: path.Base(p), Path: p, Size: int64(len(data)), ModifiedTime: time.Now()}, nil
}

func (m *memStore) Search(_ context.Context, c domain.SearchCriteria) ([]domain.FileMetadata, error) {
	out := []domain.FileMetadata{}
	for p := range m.files {
		if path.Dir(p) == c.Path && strings.Contains(path.Base(p), c.NameContains) {
			out = append(out, domain.FileMetadata{Name: path.Base(p), Path: p})
		}
	}
	return out, nil
}

func newRouter(store FileStore) *mux.Router {
	r := mux.NewRouter()
	NewHandler(store).RegisterRoutes(r)
	return r
}

func TestHandlerDownload(t *testing.T) {
	store := &memStore{files: map[string][]byte{"PurchaseOrders/PO-20240305.xlsx": []byte("xlsx")}}
	router := newRouter(store)

	tests := []struct {
		name   string
		url    string
		status int
	}{
		{"existing file", "/api/files/download?path=PurchaseOrders/PO-20240305.xlsx", http.StatusOK},
		{"missing file", "/api/files/download?path=PurchaseOrders/none.xlsx", http.StatusNotFound},
		{"missing path", "/api/files/download", http.StatusBadRequest},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rec := httptest.NewRecorder()
			router.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, tt.url, nil))
			if rec.Code != tt.status {
				t.Fatalf("status = %d, want %d", rec.Code, tt.status)
			}
		})
	}

	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, tests[0].url, nil))
	if got := rec.Header().Get("Content-Type"); got != domain.MimeXLSX {
		t.Errorf("content type = %q", got)
	}
	if rec.Body.String() != "xlsx" {
		t.Errorf("body = %q", rec.Body.String())
	}
}

func TestHandlerUploadAndList(t *testing.T) {
	store := &memStore{files: map[string][]byte{}}
	router := newRouter(store)

	rec := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodPut, "/api/files/upload?path=CurrentInventory/Inventory.xlsx", bytes.NewReader([]byte("data")))
	router.ServeHTTP(rec, req)
	if rec.Code != http.StatusCreated {
		t.Fatalf("upload status = %d", rec.Code)
	}

	rec = httptest.NewRecorder()
	router.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/api/files?path=CurrentInventory", nil))
	if rec.Code != http.StatusOK {
		t.Fatalf("list status = %d", rec.Code)
	}

	var files []domain.FileMetadata
	if err := json.Unmarshal(rec.Body.Bytes(), &files); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if len(files) != 1 || files[0].Name != "Inventory.xlsx" {
		t.Fatalf("files = %+v", files)
	}
}

func TestSearchQuery(t *testing.T) {
	tests := []struct {
		name     string
		criteria domain.SearchCriteria
		want     string
	}{
		{
			name: "folder only",
			want: "'abc' in parents and trashed=false",
		},
		{
			name:     "mime and name",
			criteria: domain.SearchCriteria{MimeType: domain.MimeXLSX, NameContains: "PO-"},
			want:     "'abc' in parents and trashed=false and mimeType='" + domain.MimeXLSX + "' and name contains 'PO-'",
		},
		{
			name:     "quotes escaped",
			criteria: domain.SearchCriteria{NameContains: "O'Brien"},
			want:     `'abc' in parents and trashed=false and name contains 'O\'Brien'`,
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := searchQuery("abc", tt.criteria); got != tt.want {
				t.Errorf("searchQuery() = %q, want %q", got, tt.want)
			}
		})
	}
}

func TestSplit(t *testing.T) {
	dir, name := split("/MasterData/Master_Data.xlsx")
	if dir != "MasterData" || name != "Master_Data.xlsx" {
		t.Fatalf("split = %q, %q", dir, name)
	}
	dir, name = split("file.xlsx")
	if dir != "" || name != "file.xlsx" {
		t.Fatalf("split = %q, %q", dir, name)
	}
}
