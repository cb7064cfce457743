package core

import (
	"context"
	"fmt"
	"testing"
	"time"
)

func seedNumberedWords(t *testing.T, store *Store, n int) {
	t.Helper()

	for i := 0; i < n; i++ {
		addWord(t, store, fmt.Sprintf("word%02d", i), fmt.Sprintf("description %d", i))
		// Distinct created_at per row keeps chronological order deterministic.
		time.Sleep(2 * time.Millisecond)
	}
}

func TestListWordsPagination(t *testing.T) {
	store := newTestStore(t)
	seedNumberedWords(t, store, 5)
	ctx := context.Background()

	tests := []struct {
		name      string
		offset    int
		limit     int
		wantItems int
		wantMore  bool
	}{
		{"first page", 0, 2, 2, true},
		{"middle page", 2, 2, 2, true},
		{"last partial page", 4, 2, 1, false},
		{"past the end", 10, 2, 0, false},
		{"whole set", 0, 10, 5, false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			page, err := store.ListWords(ctx, tt.offset, tt.limit, OrderAsc)
			if err != nil {
				t.Fatalf("failed to list words: %v", err)
			}
			if len(page.Items) != tt.wantItems {
				t.Errorf("expected %d items, got %d", tt.wantItems, len(page.Items))
			}
			if page.Total != 5 {
				t.Errorf("expected total 5, got %d", page.Total)
			}
			if page.HasMore != tt.wantMore {
				t.Errorf("expected hasMore=%v, got %v", tt.wantMore, page.HasMore)
			}
		})
	}
}

func TestListWordsOrder(t *testing.T) {
	store := newTestStore(t)
	seedNumberedWords(t, store, 3)
	ctx := context.Background()

	asc, err := store.ListWords(ctx, 0, 10, OrderAsc)
	if err != nil {
		t.Fatalf("failed to list ascending: %v", err)
	}
	for i, item := range asc.Items {
		if want := fmt.Sprintf("word%02d", i); item.Word != want {
			t.Errorf("ascending item %d: expected %q, got %q", i, want, item.Word)
		}
	}

	desc, err := store.ListWords(ctx, 0, 10, OrderDesc)
	if err != nil {
		t.Fatalf("failed to list descending: %v", err)
	}
	for i, item := range desc.Items {
		if want := fmt.Sprintf("word%02d", len(desc.Items)-1-i); item.Word != want {
			t.Errorf("descending item %d: expected %q, got %q", i, want, item.Word)
		}
	}
}

func TestListWordsSummaryFields(t *testing.T) {
	store := newTestStore(t)
	ctx := context.Background()

	if _, err := store.AddOrUpdateWord(ctx, WordData{
		Word:        "laconic",
		OneLineDesc: "using few words",
		Details:     "A long detail body that listing should never need to decode.",
		Tags:        []string{"adjective", "style"},
	}); err != nil {
		t.Fatalf("failed to add word: %v", err)
	}

	page, err := store.ListWords(ctx, 0, 10, OrderAsc)
	if err != nil {
		t.Fatalf("failed to list words: %v", err)
	}
	if len(page.Items) != 1 {
		t.Fatalf("expected 1 item, got %d", len(page.Items))
	}

	item := page.Items[0]
	if item.Word != "laconic" || item.OneLineDesc != "using few words" {
		t.Errorf("summary fields mismatch: %+v", item)
	}
	if len(item.Tags) != 2 || item.Tags[0] != "adjective" {
		t.Errorf("summary tags mismatch: %v", item.Tags)
	}
	if item.CreatedAt.IsZero() || item.UpdatedAt.IsZero() {
		t.Error("expected summary timestamps to be set")
	}
}

func TestListWordsEmptyStore(t *testing.T) {
	store := newTestStore(t)

	page, err := store.ListWords(context.Background(), 0, 10, OrderAsc)
	if err != nil {
		t.Fatalf("failed to list words: %v", err)
	}
	if len(page.Items) != 0 || page.Total != 0 || page.HasMore {
		t.Errorf("expected empty page: %+v", page)
	}
}

func TestListWordsNegativeOffset(t *testing.T) {
	store := newTestStore(t)
	seedNumberedWords(t, store, 2)

	page, err := store.ListWords(context.Background(), -5, 10, OrderAsc)
	if err != nil {
		t.Fatalf("failed to list words: %v", err)
	}
	if len(page.Items) != 2 {
		t.Errorf("expected negative offset clamped to 0, got %d items", len(page.Items))
	}
}

func TestListByType(t *testing.T) {
	store := newTestStore(t)
	ctx := context.Background()

	addWord(t, store, "alpha", "first")
	if err := store.SetProfileConfig(ctx, ProfileConfig{EmbeddingEnabled: true, EmbeddingModel: "m"}); err != nil {
		t.Fatalf("failed to set profile config: %v", err)
	}

	docs, total, err := store.ListByType(ctx, DocTypeWord, 0, 10, OrderAsc)
	if err != nil {
		t.Fatalf("failed to list by type: %v", err)
	}
	if total != 1 || len(docs) != 1 {
		t.Errorf("expected exactly the word document, got total=%d len=%d", total, len(docs))
	}
	if docs[0].Type != DocTypeWord {
		t.Errorf("unexpected doc type: %s", docs[0].Type)
	}
}

func TestWordCount(t *testing.T) {
	store := newTestStore(t)
	ctx := context.Background()

	count, err := store.WordCount(ctx)
	if err != nil {
		t.Fatalf("failed to count words: %v", err)
	}
	if count != 0 {
		t.Errorf("expected 0, got %d", count)
	}

	seedNumberedWords(t, store, 3)
	// The config singleton is not a word.
	if err := store.SetProfileConfig(ctx, ProfileConfig{}); err != nil {
		t.Fatalf("failed to set profile config: %v", err)
	}

	count, err = store.WordCount(ctx)
	if err != nil {
		t.Fatalf("failed to count words: %v", err)
	}
	if count != 3 {
		t.Errorf("expected 3, got %d", count)
	}
}
