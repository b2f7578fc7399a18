package store

import (
	"context"
	"database/sql"
	"fmt"
	"time"
)

// Photo is a condition photo attached to an item at intake.
type Photo struct {
	ItemID    string
	Image     []byte
	Thumbnail []byte
	Mime      string
	UpdatedAt time.Time
}

// SetItemPhoto stores or replaces the photo for an item.
func SetItemPhoto(ctx context.Context, db *sql.DB, itemID string, image, thumbnail []byte, mime string) error {
	_, err := db.ExecContext(ctx,
		`INSERT INTO item_photos (item_id, image, thumbnail, mime, updated_at)
		 VALUES (?, ?, ?, ?, CURRENT_TIMESTAMP)
		 ON CONFLICT(item_id) DO UPDATE SET
		     image = excluded.image,
		     thumbnail = excluded.thumbnail,
		     mime = excluded.mime,
		     updated_at = excluded.updated_at`,
		itemID, image, thumbnail, mime,
	)
	if err != nil {
		return fmt.Errorf("setting item photo: %w", err)
	}
	return nil
}

// GetItemPhoto returns the photo for an item, or nil if none is stored.
func GetItemPhoto(ctx context.Context, db *sql.DB, itemID string) (*Photo, error) {
	p := &Photo{ItemID: itemID}
	err := db.QueryRowContext(ctx,
		`SELECT image, thumbnail, mime, updated_at FROM item_photos WHERE item_id = ?`,
		itemID,
	).Scan(&p.Image, &p.Thumbnail, &p.Mime, &p.UpdatedAt)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("getting item photo: %w", err)
	}
	return p, nil
}

// DeleteItemPhoto removes an item's photo. Missing photos are not an error.
func DeleteItemPhoto(ctx context.Context, db *sql.DB, itemID string) error {
	if _, err := db.ExecContext(ctx,
		`DELETE FROM item_photos WHERE item_id = ?`, itemID,
	); err != nil {
		return fmt.Errorf("deleting item photo: %w", err)
	}
	return nil
}
