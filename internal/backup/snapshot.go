package backup

import (
	"bytes"
	"encoding/json"
	"fmt"
	"time"

	"github.com/sipico/catalog-backend/internal/storage"
)

// SnapshotVersion is written to every snapshot built by this package.
const SnapshotVersion = "1.0"

// Defaults applied to products whose optional fields are absent on restore.
const (
	DefaultFav       = 300
	DefaultViews     = 3000
	DefaultSortOrder = 0
)

// SnapshotPayload is the portable backup format shared by download and upload.
type SnapshotPayload struct {
	Version   string `json:"version"`
	Timestamp string `json:"timestamp"`
	// RecordCount is nil when an uploaded payload omits record_count.
	RecordCount  *int                   `json:"record_count"`
	Products     []SnapshotProduct      `json:"products"`
	SiteSettings []storage.SiteSettings `json:"site_settings"`
}

// SnapshotProduct is a product as it appears in a snapshot. Optional columns
// are pointers so that absent fields can be defaulted on restore.
type SnapshotProduct struct {
	ID          *int64   `json:"id"`
	Title       string   `json:"title"`
	Description *string  `json:"description"`
	Images      []string `json:"images"`
	Tag         *string  `json:"tag"`
	Fav         *int64   `json:"fav"`
	Views       *int64   `json:"views"`
	SortOrder   *int64   `json:"sort_order"`
	CreatedAt   *string  `json:"created_at"`
	UserID      *string  `json:"user_id"`
}

// FromProduct converts a stored product into its snapshot form.
func FromProduct(p *storage.Product) SnapshotProduct {
	id, fav, views, sortOrder := p.ID, p.Fav, p.Views, p.SortOrder
	description, createdAt := p.Description, p.CreatedAt
	images := p.Images
	if images == nil {
		images = []string{}
	}
	return SnapshotProduct{
		ID:          &id,
		Title:       p.Title,
		Description: &description,
		Images:      images,
		Tag:         p.Tag,
		Fav:         &fav,
		Views:       &views,
		SortOrder:   &sortOrder,
		CreatedAt:   &createdAt,
		UserID:      p.UserID,
	}
}

// Normalize returns the product to insert, with defaults for absent fields.
// now is used for created_at when the snapshot has none.
func (sp SnapshotProduct) Normalize(now time.Time) *storage.Product {
	p := &storage.Product{
		Title:     sp.Title,
		Images:    sp.Images,
		Tag:       sp.Tag,
		Fav:       DefaultFav,
		Views:     DefaultViews,
		SortOrder: DefaultSortOrder,
		UserID:    sp.UserID,
	}
	if sp.ID != nil {
		p.ID = *sp.ID
	}
	if sp.Description != nil {
		p.Description = *sp.Description
	}
	if p.Images == nil {
		p.Images = []string{}
	}
	if sp.Tag != nil && *sp.Tag == "" {
		p.Tag = nil
	}
	if sp.UserID != nil && *sp.UserID == "" {
		p.UserID = nil
	}
	if sp.Fav != nil {
		p.Fav = *sp.Fav
	}
	if sp.Views != nil {
		p.Views = *sp.Views
	}
	if sp.SortOrder != nil {
		p.SortOrder = *sp.SortOrder
	}
	if sp.CreatedAt != nil && *sp.CreatedAt != "" {
		p.CreatedAt = *sp.CreatedAt
	} else {
		p.CreatedAt = storage.FormatTimestamp(now)
	}
	return p
}

// ParsePayload decodes snapshot JSON. It fails with ErrInvalidFormat when the
// document is not a JSON object or products is missing or not a list, and with
// ErrIntegrityMismatch when a declared record_count differs from len(products).
func ParsePayload(data []byte) (*SnapshotPayload, error) {
	var probe struct {
		Products json.RawMessage `json:"products"`
	}
	if err := json.Unmarshal(data, &probe); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidFormat, err)
	}
	raw := bytes.TrimSpace(probe.Products)
	if len(raw) == 0 || raw[0] != '[' {
		return nil, fmt.Errorf("%w: products must be a list", ErrInvalidFormat)
	}

	var payload SnapshotPayload
	if err := json.Unmarshal(data, &payload); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidFormat, err)
	}

	if payload.RecordCount != nil && *payload.RecordCount != len(payload.Products) {
		return nil, fmt.Errorf("%w: record_count %d, products %d", ErrIntegrityMismatch, *payload.RecordCount, len(payload.Products))
	}
	return &payload, nil
}

// Marshal encodes the payload as it is stored and downloaded.
func (p *SnapshotPayload) Marshal() ([]byte, error) {
	data, err := json.Marshal(p)
	if err != nil {
		return nil, fmt.Errorf("failed to encode snapshot: %w", err)
	}
	return data, nil
}
