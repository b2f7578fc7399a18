package store

import (
	"bytes"
	"context"
	"testing"

	"github.com/erazemk/ewaste/internal/db"
)

func TestItemPhotoRoundTrip(t *testing.T) {
	database := db.NewTestDB(t)
	ctx := context.Background()

	if p, err := GetItemPhoto(ctx, database, "it-1"); err != nil || p != nil {
		t.Fatalf("expected no photo, got %v %v", p, err)
	}

	if err := SetItemPhoto(ctx, database, "it-1", []byte("full"), []byte("thumb"), "image/jpeg"); err != nil {
		t.Fatalf("SetItemPhoto: %v", err)
	}
	if err := SetItemPhoto(ctx, database, "it-1", []byte("full2"), nil, "image/jpeg"); err != nil {
		t.Fatalf("replace SetItemPhoto: %v", err)
	}

	p, err := GetItemPhoto(ctx, database, "it-1")
	if err != nil {
		t.Fatalf("GetItemPhoto: %v", err)
	}
	if !bytes.Equal(p.Image, []byte("full2")) || p.Mime != "image/jpeg" {
		t.Errorf("unexpected photo: %+v", p)
	}

	if err := DeleteItemPhoto(ctx, database, "it-1"); err != nil {
		t.Fatalf("DeleteItemPhoto: %v", err)
	}
	if p, _ := GetItemPhoto(ctx, database, "it-1"); p != nil {
		t.Error("expected photo to be gone")
	}
}
