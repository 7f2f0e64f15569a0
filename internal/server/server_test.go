package server

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/mercadoapps/filemonitor/constants"
	"github.com/mercadoapps/filemonitor/internal/async"
	"github.com/mercadoapps/filemonitor/internal/common"
	"github.com/mercadoapps/filemonitor/internal/entity"
	"github.com/mercadoapps/filemonitor/internal/export"
	"github.com/mercadoapps/filemonitor/internal/pipeline"
	"github.com/mercadoapps/filemonitor/internal/repository"
	"github.com/mercadoapps/filemonitor/internal/watch"
)

type dropQueue struct{}

func (dropQueue) Enqueue(context.Context, async.Job) error { return nil }

func (dropQueue) Shutdown(context.Context) {}

type nullSender struct{}

func (nullSender) SendProducts(context.Context, []entity.Product) error { return nil }

func testServer(t *testing.T, repo *repository.MemoryRepository) (*Server, string) {
	t.Helper()
	dir := t.TempDir()
	proc := pipeline.NewProcessor(nil, repo, nullSender{}, filepath.Join(dir, "out"), filepath.Join(dir, "out", "produtos"))
	// the watcher itself is not started for handler tests
	monitor := watch.NewMonitor(
		common.MonitorConfig{InputDir: dir, FilePattern: "txitens.txt"},
		watch.NewInFlight(),
		proc,
		dropQueue{},
		nil,
	)
	return New(repo, monitor, proc, export.NewService(repo, nil), nil), dir
}

func seed(t *testing.T, repo *repository.MemoryRepository, status constants.ProcessingStatus) *entity.FileRecord {
	t.Helper()
	now := time.Now().UTC()
	rec := &entity.FileRecord{
		FileName:     "txitens.txt",
		FilePath:     "/in/txitens.txt",
		FileSize:     100,
		LastModified: now,
		Status:       status,
	}
	if status == constants.StatusCompleted || status == constants.StatusError {
		rec.ProcessedAt = &now
	}
	if err := repo.Create(context.Background(), rec); err != nil {
		t.Fatal(err)
	}
	return rec
}

func doRequest(t *testing.T, s *Server, method, target string) *httptest.ResponseRecorder {
	t.Helper()
	req := httptest.NewRequest(method, target, nil)
	rr := httptest.NewRecorder()
	s.Router().ServeHTTP(rr, req)
	return rr
}

func TestListAndGet(t *testing.T) {
	repo := repository.NewMemoryRepository()
	rec := seed(t, repo, constants.StatusCompleted)
	s, _ := testServer(t, repo)

	t.Run("list", func(t *testing.T) {
		rr := doRequest(t, s, http.MethodGet, "/api/files?page=0&size=5")
		if rr.Code != http.StatusOK {
			t.Fatalf("status = %d", rr.Code)
		}
		var body struct {
			Content []entity.FileRecord `json:"content"`
			Total   int64               `json:"total"`
		}
		if err := json.Unmarshal(rr.Body.Bytes(), &body); err != nil {
			t.Fatal(err)
		}
		if body.Total != 1 || len(body.Content) != 1 {
			t.Errorf("body = %+v", body)
		}
	})

	t.Run("get by id", func(t *testing.T) {
		rr := doRequest(t, s, http.MethodGet, "/api/files/"+rec.ID.String())
		if rr.Code != http.StatusOK {
			t.Fatalf("status = %d", rr.Code)
		}
		var got entity.FileRecord
		if err := json.Unmarshal(rr.Body.Bytes(), &got); err != nil {
			t.Fatal(err)
		}
		if got.ID != rec.ID {
			t.Errorf("id = %s, want %s", got.ID, rec.ID)
		}
	})

	t.Run("get unknown id", func(t *testing.T) {
		rr := doRequest(t, s, http.MethodGet, "/api/files/00000000-0000-0000-0000-000000000001")
		if rr.Code != http.StatusNotFound {
			t.Errorf("status = %d, want 404", rr.Code)
		}
	})

	t.Run("get malformed id", func(t *testing.T) {
		rr := doRequest(t, s, http.MethodGet, "/api/files/not-a-uuid")
		if rr.Code != http.StatusBadRequest {
			t.Errorf("status = %d, want 400", rr.Code)
		}
	})
}

func TestByStatus(t *testing.T) {
	repo := repository.NewMemoryRepository()
	seed(t, repo, constants.StatusCompleted)
	seed(t, repo, constants.StatusError)
	s, _ := testServer(t, repo)

	rr := doRequest(t, s, http.MethodGet, "/api/files/status/ERROR")
	if rr.Code != http.StatusOK {
		t.Fatalf("status = %d", rr.Code)
	}
	var recs []entity.FileRecord
	if err := json.Unmarshal(rr.Body.Bytes(), &recs); err != nil {
		t.Fatal(err)
	}
	if len(recs) != 1 || recs[0].Status != constants.StatusError {
		t.Errorf("recs = %+v", recs)
	}

	rr = doRequest(t, s, http.MethodGet, "/api/files/status/BOGUS")
	if rr.Code != http.StatusBadRequest {
		t.Errorf("status = %d, want 400 for unknown status", rr.Code)
	}
}

func TestStatistics(t *testing.T) {
	repo := repository.NewMemoryRepository()
	seed(t, repo, constants.StatusCompleted)
	seed(t, repo, constants.StatusCompleted)
	seed(t, repo, constants.StatusError)
	s, _ := testServer(t, repo)

	rr := doRequest(t, s, http.MethodGet, "/api/files/statistics")
	if rr.Code != http.StatusOK {
		t.Fatalf("status = %d", rr.Code)
	}
	var stats map[string]float64
	if err := json.Unmarshal(rr.Body.Bytes(), &stats); err != nil {
		t.Fatal(err)
	}
	if stats["total_files"] != 3 || stats["completed"] != 2 || stats["errors"] != 1 {
		t.Errorf("stats = %v", stats)
	}
	if stats["processed_last_24h"] != 3 {
		t.Errorf("processed_last_24h = %v", stats["processed_last_24h"])
	}
}

func TestHealth(t *testing.T) {
	s, _ := testServer(t, repository.NewMemoryRepository())
	rr := doRequest(t, s, http.MethodGet, "/api/files/health")
	if rr.Code != http.StatusOK {
		t.Fatalf("status = %d", rr.Code)
	}
	if !strings.Contains(rr.Body.String(), `"UP"`) {
		t.Errorf("body = %s", rr.Body.String())
	}
}

func TestProcessEndpoint(t *testing.T) {
	repo := repository.NewMemoryRepository()
	s, dir := testServer(t, repo)

	t.Run("missing filePath", func(t *testing.T) {
		rr := doRequest(t, s, http.MethodPost, "/api/files/process")
		if rr.Code != http.StatusBadRequest {
			t.Errorf("status = %d, want 400", rr.Code)
		}
	})

	t.Run("admitted file", func(t *testing.T) {
		path := filepath.Join(dir, "txitens.txt")
		if err := os.WriteFile(path, []byte("x"), 0o644); err != nil {
			t.Fatal(err)
		}
		rr := doRequest(t, s, http.MethodPost, "/api/files/process?filePath="+path)
		if rr.Code != http.StatusAccepted {
			t.Fatalf("status = %d, want 202: %s", rr.Code, rr.Body.String())
		}
	})

	t.Run("rejected file reports reason", func(t *testing.T) {
		rr := doRequest(t, s, http.MethodPost, "/api/files/process?filePath="+filepath.Join(dir, "missing.txt"))
		if rr.Code != http.StatusOK {
			t.Fatalf("status = %d, want 200 skipped", rr.Code)
		}
		if !strings.Contains(rr.Body.String(), "skipped") {
			t.Errorf("body = %s", rr.Body.String())
		}
	})
}

func TestPreviewEndpoint(t *testing.T) {
	repo := repository.NewMemoryRepository()
	s, dir := testServer(t, repo)

	t.Run("missing filePath", func(t *testing.T) {
		rr := doRequest(t, s, http.MethodGet, "/api/files/produtos/preview")
		if rr.Code != http.StatusBadRequest {
			t.Errorf("status = %d, want 400", rr.Code)
		}
	})

	t.Run("valid file", func(t *testing.T) {
		line := make([]byte, constants.MinLineLength)
		for i := range line {
			line[i] = ' '
		}
		copy(line[constants.CategoryStart:], "10")
		copy(line[constants.ProductTypeStart:], "P")
		copy(line[constants.CodeStart:], "000001")
		copy(line[constants.AmountStart:], "000100")
		copy(line[constants.ExpiryDaysStart:], "030")
		copy(line[constants.NameStart:], "PRODUTO")

		path := filepath.Join(dir, "txitens.txt")
		if err := os.WriteFile(path, append(line, '\n'), 0o644); err != nil {
			t.Fatal(err)
		}

		rr := doRequest(t, s, http.MethodGet, "/api/files/produtos/preview?filePath="+path)
		if rr.Code != http.StatusOK {
			t.Fatalf("status = %d: %s", rr.Code, rr.Body.String())
		}
		var result pipeline.PreviewResult
		if err := json.Unmarshal(rr.Body.Bytes(), &result); err != nil {
			t.Fatal(err)
		}
		if result.TotalRecords != 1 || result.TotalProducts != 1 {
			t.Errorf("result = %+v", result)
		}
	})

	t.Run("unreadable file", func(t *testing.T) {
		rr := doRequest(t, s, http.MethodGet, "/api/files/produtos/preview?filePath="+filepath.Join(dir, "nope.txt"))
		if rr.Code != http.StatusInternalServerError {
			t.Errorf("status = %d, want 500", rr.Code)
		}
	})
}

func TestGenerateEndpoint(t *testing.T) {
	repo := repository.NewMemoryRepository()
	s, dir := testServer(t, repo)

	t.Run("missing filePath", func(t *testing.T) {
		rr := doRequest(t, s, http.MethodPost, "/api/files/produtos/generate")
		if rr.Code != http.StatusBadRequest {
			t.Errorf("status = %d, want 400", rr.Code)
		}
	})

	t.Run("valid file", func(t *testing.T) {
		line := make([]byte, constants.MinLineLength)
		for i := range line {
			line[i] = ' '
		}
		copy(line[constants.CategoryStart:], "10")
		copy(line[constants.ProductTypeStart:], "P")
		copy(line[constants.CodeStart:], "000002")
		copy(line[constants.AmountStart:], "000250")
		copy(line[constants.ExpiryDaysStart:], "060")
		copy(line[constants.NameStart:], "FEIJAO")

		path := filepath.Join(dir, "txitens.txt")
		if err := os.WriteFile(path, append(line, '\n'), 0o644); err != nil {
			t.Fatal(err)
		}

		rr := doRequest(t, s, http.MethodPost, "/api/files/produtos/generate?filePath="+path)
		if rr.Code != http.StatusOK {
			t.Fatalf("status = %d: %s", rr.Code, rr.Body.String())
		}
		var result pipeline.GenerateResult
		if err := json.Unmarshal(rr.Body.Bytes(), &result); err != nil {
			t.Fatal(err)
		}
		if result.TotalProducts != 1 {
			t.Errorf("TotalProducts = %d, want 1", result.TotalProducts)
		}
		if _, err := os.Stat(result.OutputPath); err != nil {
			t.Errorf("products artifact missing: %v", err)
		}
		// Generation leaves no processing record behind.
		rows, err := repo.Count(context.Background())
		if err != nil {
			t.Fatal(err)
		}
		if rows != 0 {
			t.Errorf("record rows = %d, want 0", rows)
		}
	})

	t.Run("unreadable file", func(t *testing.T) {
		rr := doRequest(t, s, http.MethodPost, "/api/files/produtos/generate?filePath="+filepath.Join(dir, "nope.txt"))
		if rr.Code != http.StatusInternalServerError {
			t.Errorf("status = %d, want 500", rr.Code)
		}
	})
}

func TestExportEndpoint(t *testing.T) {
	repo := repository.NewMemoryRepository()
	seed(t, repo, constants.StatusCompleted)
	s, _ := testServer(t, repo)

	rr := doRequest(t, s, http.MethodGet, "/api/files/export")
	if rr.Code != http.StatusOK {
		t.Fatalf("status = %d", rr.Code)
	}
	if ct := rr.Header().Get("Content-Type"); !strings.Contains(ct, "spreadsheetml") {
		t.Errorf("content type = %q", ct)
	}
	if rr.Body.Len() == 0 {
		t.Error("empty export body")
	}

	rr = doRequest(t, s, http.MethodGet, "/api/files/export?from=not-a-date")
	if rr.Code != http.StatusBadRequest {
		t.Errorf("status = %d, want 400", rr.Code)
	}
}
