package storage

import "time"

// TimestampLayout is the ISO-8601 layout used for product created_at values
// and snapshot timestamps (millisecond precision, UTC "Z").
const TimestampLayout = "2006-01-02T15:04:05.000Z07:00"

// FormatTimestamp renders t in TimestampLayout.
func FormatTimestamp(t time.Time) string {
	return t.UTC().Format(TimestampLayout)
}

// Product is one catalog entry as shown in the public feed.
type Product struct {
	ID          int64    `json:"id"`
	Title       string   `json:"title"`
	Description string   `json:"description"`
	Images      []string `json:"images"`
	Tag         *string  `json:"tag"`
	Fav         int64    `json:"fav"`
	Views       int64    `json:"views"`
	SortOrder   int64    `json:"sort_order"`
	CreatedAt   string   `json:"created_at"`
	UserID      *string  `json:"user_id"`
}

// ProductPatch holds the fields of a partial product update. Nil fields are left unchanged.
type ProductPatch struct {
	Title       *string   `json:"title,omitempty"`
	Description *string   `json:"description,omitempty"`
	Images      *[]string `json:"images,omitempty"`
	Tag         *string   `json:"tag,omitempty"`
	Fav         *int64    `json:"fav,omitempty"`
	Views       *int64    `json:"views,omitempty"`
	SortOrder   *int64    `json:"sort_order,omitempty"`
}

// SortOrderUpdate moves one product to a new position.
type SortOrderUpdate struct {
	ID        int64 `json:"id"`
	SortOrder int64 `json:"sort_order"`
}

// Counter names an engagement counter column on products.
type Counter string

const (
	// CounterViews is the view counter.
	CounterViews Counter = "views"
	// CounterFav is the like counter.
	CounterFav Counter = "fav"
)

// SiteSettings holds the about and contact texts.
type SiteSettings struct {
	ID          int64  `json:"id"`
	AboutText   string `json:"about_text"`
	ContactText string `json:"contact_text"`
}

// BackupSummary describes a stored backup without its payload.
type BackupSummary struct {
	ID          int64     `json:"id"`
	Label       string    `json:"label"`
	RecordCount int       `json:"record_count"`
	CreatedAt   time.Time `json:"created_at"`
}

// Backup is a stored snapshot including its serialized payload.
// Data is returned exactly as it was stored.
type Backup struct {
	BackupSummary
	Data []byte
}
