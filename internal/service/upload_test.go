package service

import (
	"context"
	"errors"
	"strings"
	"testing"

	"holocron/internal/domain"
)

func TestUpload(t *testing.T) {
	store := newFakeNodeStore()
	storage := newFakeStorage()
	svc := NewFilesystemService(store, storage)
	p := regular()

	node, err := svc.Upload(context.Background(), p, "episodio.mp4", nil, domain.CategoryDesenhos, []byte("video bytes"))
	if err != nil {
		t.Fatalf("Upload() error = %v", err)
	}
	if node.Status != domain.NodeStatusActive {
		t.Errorf("Status = %q, want active", node.Status)
	}
	if node.FileSize != int64(len("video bytes")) {
		t.Errorf("FileSize = %d, want %d", node.FileSize, len("video bytes"))
	}
	if node.CreatedByID != p.ID {
		t.Errorf("CreatedByID = %q, want %q", node.CreatedByID, p.ID)
	}
	if node.FilePath == nil {
		t.Fatal("FilePath = nil, want storage key")
	}
	if !strings.HasPrefix(*node.FilePath, "Desenhos/") || !strings.HasSuffix(*node.FilePath, ".mp4") {
		t.Errorf("storage key = %q, want Desenhos/<uuid>.mp4", *node.FilePath)
	}
	if _, ok := storage.objects[*node.FilePath]; !ok {
		t.Errorf("blob %q not stored", *node.FilePath)
	}
}

func TestUploadPermissionDenied(t *testing.T) {
	store := newFakeNodeStore()
	storage := newFakeStorage()
	svc := NewFilesystemService(store, storage)

	_, err := svc.Upload(context.Background(), regular(), "filme.mkv", nil, domain.CategoryFilmes, []byte("x"))
	if !errors.Is(err, domain.ErrPermissionDenied) {
		t.Fatalf("Upload() error = %v, want ErrPermissionDenied", err)
	}
	if len(store.calls) != 0 {
		t.Errorf("store calls = %v, want none", store.calls)
	}
	if len(storage.objects) != 0 {
		t.Errorf("objects stored = %d, want 0", len(storage.objects))
	}
}

func TestUploadStorageFailureRemovesPending(t *testing.T) {
	store := newFakeNodeStore()
	storage := newFakeStorage()
	storage.uploadErr = errors.New("s3 unavailable")
	svc := NewFilesystemService(store, storage)

	_, err := svc.Upload(context.Background(), admin(), "serie.mkv", nil, domain.CategorySeries, []byte("x"))
	if !errors.Is(err, domain.ErrStorage) {
		t.Fatalf("Upload() error = %v, want ErrStorage", err)
	}
	// Байты не записались, pending-строка не должна пережить отказ
	if len(store.nodes) != 0 {
		t.Errorf("nodes after failed upload = %d, want 0", len(store.nodes))
	}
}

func TestUploadConfirmFailureMarksOrphan(t *testing.T) {
	store := newFakeNodeStore()
	store.markActiveErr = errors.New("connection reset")
	storage := newFakeStorage()
	svc := NewFilesystemService(store, storage)

	_, err := svc.Upload(context.Background(), admin(), "serie.mkv", nil, domain.CategorySeries, []byte("x"))
	if err == nil {
		t.Fatal("Upload() error = nil, want confirm failure")
	}
	// Блоб записан: строка остаётся со статусом orphaned и ключом для сверки
	if len(store.nodes) != 1 {
		t.Fatalf("nodes = %d, want 1 orphaned row", len(store.nodes))
	}
	for _, node := range store.nodes {
		if node.Status != domain.NodeStatusOrphaned {
			t.Errorf("Status = %q, want orphaned", node.Status)
		}
		if node.FilePath == nil {
			t.Error("FilePath = nil, want preserved storage key")
		}
	}
}

func TestReconcileOrphans(t *testing.T) {
	store := newFakeNodeStore()
	storage := newFakeStorage()
	svc := NewFilesystemService(store, storage)
	ctx := context.Background()

	key := "Series/orphan.mkv"
	storage.objects[key] = []byte("stale")
	orphan := &domain.Node{
		Name:     "orphan.mkv",
		Category: domain.CategorySeries,
		FilePath: &key,
		Status:   domain.NodeStatusOrphaned,
	}
	if err := store.Create(ctx, orphan); err != nil {
		t.Fatalf("Create() error = %v", err)
	}
	store.orphans = []domain.Node{*orphan}

	if err := svc.ReconcileOrphans(ctx); err != nil {
		t.Fatalf("ReconcileOrphans() error = %v", err)
	}
	if _, ok := storage.objects[key]; ok {
		t.Error("orphaned blob still in storage")
	}
	if len(store.nodes) != 0 {
		t.Errorf("nodes after reconcile = %d, want 0", len(store.nodes))
	}
}

func TestReconcileOrphansKeepsRowOnBlobFailure(t *testing.T) {
	store := newFakeNodeStore()
	storage := newFakeStorage()
	storage.deleteErr = errors.New("s3 unavailable")
	svc := NewFilesystemService(store, storage)
	ctx := context.Background()

	key := "Series/orphan.mkv"
	orphan := &domain.Node{
		Name:     "orphan.mkv",
		Category: domain.CategorySeries,
		FilePath: &key,
		Status:   domain.NodeStatusOrphaned,
	}
	if err := store.Create(ctx, orphan); err != nil {
		t.Fatalf("Create() error = %v", err)
	}
	store.orphans = []domain.Node{*orphan}

	if err := svc.ReconcileOrphans(ctx); err != nil {
		t.Fatalf("ReconcileOrphans() error = %v", err)
	}
	// Строка сохраняется до успешного удаления блоба, иначе ключ потеряется
	if len(store.nodes) != 1 {
		t.Errorf("nodes after failed reconcile = %d, want 1", len(store.nodes))
	}
}

func TestStorageKey(t *testing.T) {
	tests := []struct {
		name       string
		fileName   string
		category   domain.Category
		wantPrefix string
		wantExt    string
	}{
		{"series uses ascii prefix", "ep01.mkv", domain.CategorySeries, "Series/", ".mkv"},
		{"filmes", "filme.mp4", domain.CategoryFilmes, "Filmes/", ".mp4"},
		{"no extension falls back", "README", domain.CategoryDesenhos, "Desenhos/", ".bin"},
		{"trailing dot falls back", "arquivo.", domain.CategoryDesenhos, "Desenhos/", ".bin"},
		{"double extension keeps last", "dump.tar.gz", domain.CategoryFilmes, "Filmes/", ".gz"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			key := storageKey(tt.fileName, tt.category)
			if !strings.HasPrefix(key, tt.wantPrefix) {
				t.Errorf("key = %q, want prefix %q", key, tt.wantPrefix)
			}
			if !strings.HasSuffix(key, tt.wantExt) {
				t.Errorf("key = %q, want suffix %q", key, tt.wantExt)
			}
		})
	}
}
