package core

import (
	"context"
	"errors"
	"testing"
	"time"
)

func TestAddWordRoundTrip(t *testing.T) {
	store := newTestStore(t)
	ctx := context.Background()

	data := WordData{
		Word:        "ephemeral",
		OneLineDesc: "lasting a very short time",
		Details:     "From Greek ephemeros, lasting only a day.",
		Tags:        []string{"adjective", "formal"},
		TagColors:   map[string]string{"adjective": "#ff0000"},
		Synonyms:    []string{"transient", "fleeting"},
		Antonyms:    []string{"permanent"},
		Remark:      "common in technical writing",
	}

	created, err := store.AddOrUpdateWord(ctx, data)
	if err != nil {
		t.Fatalf("failed to add word: %v", err)
	}
	if created.ID == "" {
		t.Fatal("expected a generated id")
	}
	if created.CreatedAt.IsZero() || created.UpdatedAt.IsZero() {
		t.Fatal("expected timestamps to be set")
	}

	got, err := store.GetWord(ctx, created.ID)
	if err != nil {
		t.Fatalf("failed to get word: %v", err)
	}
	if got.Word != data.Word || got.OneLineDesc != data.OneLineDesc || got.Details != data.Details {
		t.Errorf("text fields mismatch: %+v", got)
	}
	if len(got.Tags) != 2 || got.Tags[0] != "adjective" {
		t.Errorf("tags mismatch: %v", got.Tags)
	}
	if got.TagColors["adjective"] != "#ff0000" {
		t.Errorf("tag colors mismatch: %v", got.TagColors)
	}
	if len(got.Synonyms) != 2 || len(got.Antonyms) != 1 {
		t.Errorf("synonyms/antonyms mismatch: %v %v", got.Synonyms, got.Antonyms)
	}
	if got.Remark != data.Remark {
		t.Errorf("remark mismatch: %q", got.Remark)
	}
}

func TestAddWordEmptyWord(t *testing.T) {
	store := newTestStore(t)

	for _, word := range []string{"", "   ", "\t\n"} {
		_, err := store.AddOrUpdateWord(context.Background(), WordData{Word: word})
		if !errors.Is(err, ErrEmptyWord) {
			t.Errorf("word %q: expected ErrEmptyWord, got %v", word, err)
		}
	}

	count, err := store.WordCount(context.Background())
	if err != nil {
		t.Fatalf("failed to count words: %v", err)
	}
	if count != 0 {
		t.Errorf("expected 0 words after rejected writes, got %d", count)
	}
}

func TestUpsertByWordKeepsIdentity(t *testing.T) {
	store := newTestStore(t)
	ctx := context.Background()

	created := addWord(t, store, "serendipity", "a happy accident")
	time.Sleep(5 * time.Millisecond)

	updated, err := store.AddOrUpdateWord(ctx, WordData{Word: "serendipity", OneLineDesc: "finding good things unsought"})
	if err != nil {
		t.Fatalf("failed to upsert word: %v", err)
	}

	if updated.ID != created.ID {
		t.Errorf("id changed on upsert: %s != %s", updated.ID, created.ID)
	}
	if updated.CreatedAt.UnixMilli() != created.CreatedAt.UnixMilli() {
		t.Errorf("created_at changed on upsert: %v != %v", updated.CreatedAt, created.CreatedAt)
	}
	if !updated.UpdatedAt.After(created.UpdatedAt) {
		t.Errorf("updated_at did not advance: %v <= %v", updated.UpdatedAt, created.UpdatedAt)
	}
	if updated.OneLineDesc != "finding good things unsought" {
		t.Errorf("description not replaced: %q", updated.OneLineDesc)
	}

	count, err := store.WordCount(ctx)
	if err != nil {
		t.Fatalf("failed to count words: %v", err)
	}
	if count != 1 {
		t.Errorf("expected 1 word after upsert, got %d", count)
	}
}

func TestGetWordByNameExact(t *testing.T) {
	store := newTestStore(t)
	ctx := context.Background()

	addWord(t, store, "Cat", "a small animal")

	doc, err := store.GetWordByName(ctx, "Cat")
	if err != nil {
		t.Fatalf("failed to get word by name: %v", err)
	}
	if doc.Word != "Cat" {
		t.Errorf("expected Cat, got %s", doc.Word)
	}

	// Lookup is case-sensitive.
	if _, err := store.GetWordByName(ctx, "cat"); !errors.Is(err, ErrNotFound) {
		t.Errorf("expected ErrNotFound for different case, got %v", err)
	}
}

func TestUpdateWordPatch(t *testing.T) {
	store := newTestStore(t)
	ctx := context.Background()

	created, err := store.AddOrUpdateWord(ctx, WordData{
		Word:        "gregarious",
		OneLineDesc: "fond of company",
		Tags:        []string{"adjective"},
		Synonyms:    []string{"sociable"},
	})
	if err != nil {
		t.Fatalf("failed to add word: %v", err)
	}

	newDesc := "sociable, seeking company"
	updated, err := store.UpdateWord(ctx, created.ID, WordPatch{OneLineDesc: &newDesc})
	if err != nil {
		t.Fatalf("failed to update word: %v", err)
	}

	if updated.OneLineDesc != newDesc {
		t.Errorf("description not updated: %q", updated.OneLineDesc)
	}
	// Untouched fields survive.
	if updated.Word != "gregarious" || len(updated.Tags) != 1 || len(updated.Synonyms) != 1 {
		t.Errorf("patch clobbered unrelated fields: %+v", updated)
	}
	if updated.CreatedAt.UnixMilli() != created.CreatedAt.UnixMilli() {
		t.Errorf("created_at changed on patch")
	}
}

func TestUpdateWordErrors(t *testing.T) {
	store := newTestStore(t)
	ctx := context.Background()

	created := addWord(t, store, "stoic", "unmoved by emotion")

	if _, err := store.UpdateWord(ctx, "no-such-id", WordPatch{}); !errors.Is(err, ErrNotFound) {
		t.Errorf("expected ErrNotFound, got %v", err)
	}

	empty := "  "
	if _, err := store.UpdateWord(ctx, created.ID, WordPatch{Word: &empty}); !errors.Is(err, ErrEmptyWord) {
		t.Errorf("expected ErrEmptyWord, got %v", err)
	}

	// The rejected patch left the document untouched.
	got, err := store.GetWord(ctx, created.ID)
	if err != nil {
		t.Fatalf("failed to get word: %v", err)
	}
	if got.Word != "stoic" {
		t.Errorf("word changed after rejected patch: %q", got.Word)
	}
}

func TestTagColorsNormalized(t *testing.T) {
	store := newTestStore(t)
	ctx := context.Background()

	doc, err := store.AddOrUpdateWord(ctx, WordData{
		Word:      "azure",
		Tags:      []string{"color"},
		TagColors: map[string]string{"color": "#0000ff", "orphan": "#00ff00"},
	})
	if err != nil {
		t.Fatalf("failed to add word: %v", err)
	}

	if _, ok := doc.TagColors["orphan"]; ok {
		t.Error("expected color for absent tag to be dropped")
	}
	if doc.TagColors["color"] != "#0000ff" {
		t.Errorf("expected color for present tag to survive: %v", doc.TagColors)
	}

	// Removing the last tag drops its color too.
	updated, err := store.UpdateWord(ctx, doc.ID, WordPatch{Tags: []string{"hue"}})
	if err != nil {
		t.Fatalf("failed to update word: %v", err)
	}
	if len(updated.TagColors) != 0 {
		t.Errorf("expected colors cleared when tags change: %v", updated.TagColors)
	}
}

func TestDeleteWord(t *testing.T) {
	store := newTestStore(t)
	ctx := context.Background()

	created := addWord(t, store, "obsolete", "no longer in use")

	deleted, err := store.DeleteWord(ctx, created.ID)
	if err != nil {
		t.Fatalf("failed to delete word: %v", err)
	}
	if !deleted {
		t.Error("expected deleted=true")
	}

	if _, err := store.GetWord(ctx, created.ID); !errors.Is(err, ErrNotFound) {
		t.Errorf("expected ErrNotFound after delete, got %v", err)
	}

	deleted, err = store.DeleteWord(ctx, created.ID)
	if err != nil {
		t.Fatalf("second delete failed: %v", err)
	}
	if deleted {
		t.Error("expected deleted=false for missing word")
	}
}
