package store

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"log/slog"

	"github.com/erazemk/ewaste/internal/model"
)

// StateKey is the row holding the serialized item store.
const StateKey = "ewaste:data"

// SQLitePersister keeps the state record in the state table.
type SQLitePersister struct {
	DB *sql.DB
}

// rawState defers decoding of individual records so that one malformed
// record does not discard the rest.
type rawState struct {
	Items   []json.RawMessage `json:"items"`
	Pickups []json.RawMessage `json:"pickups"`
	Vendors []json.RawMessage `json:"vendors"`
}

// LoadState reads the stored record. It returns nil, nil if none exists.
func (p *SQLitePersister) LoadState(ctx context.Context) (*model.State, error) {
	var value string
	err := p.DB.QueryRowContext(ctx,
		`SELECT value FROM state WHERE key = ?`, StateKey,
	).Scan(&value)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("reading state: %w", err)
	}

	return DecodeState([]byte(value))
}

// SaveState replaces the stored record.
func (p *SQLitePersister) SaveState(ctx context.Context, state *model.State) error {
	data, err := json.Marshal(state)
	if err != nil {
		return fmt.Errorf("encoding state: %w", err)
	}

	_, err = p.DB.ExecContext(ctx,
		`INSERT INTO state (key, value, updated_at) VALUES (?, ?, CURRENT_TIMESTAMP)
		 ON CONFLICT(key) DO UPDATE SET value = excluded.value, updated_at = excluded.updated_at`,
		StateKey, string(data),
	)
	if err != nil {
		return fmt.Errorf("writing state: %w", err)
	}
	return nil
}

// DecodeState parses a serialized state record, dropping records that do
// not decode or fail validation.
func DecodeState(data []byte) (*model.State, error) {
	var raw rawState
	if err := json.Unmarshal(data, &raw); err != nil {
		return nil, fmt.Errorf("decoding state: %w", err)
	}

	state := &model.State{
		Items:   []model.Item{},
		Pickups: []model.Pickup{},
		Vendors: []model.Vendor{},
	}
	dropped := 0

	for _, r := range raw.Items {
		var it model.Item
		if json.Unmarshal(r, &it) != nil || !it.Valid() {
			dropped++
			continue
		}
		if it.QRID == "" {
			it.QRID = it.ID
		}
		state.Items = append(state.Items, it)
	}
	for _, r := range raw.Pickups {
		var pk model.Pickup
		if json.Unmarshal(r, &pk) != nil || !pk.Valid() {
			dropped++
			continue
		}
		if pk.ItemIDs == nil {
			pk.ItemIDs = []string{}
		}
		state.Pickups = append(state.Pickups, pk)
	}
	for _, r := range raw.Vendors {
		var v model.Vendor
		if json.Unmarshal(r, &v) != nil || !v.Valid() {
			dropped++
			continue
		}
		state.Vendors = append(state.Vendors, v)
	}

	if dropped > 0 {
		slog.Warn("dropped malformed stored records", "count", dropped)
	}
	return state, nil
}
