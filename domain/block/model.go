package block

import (
	"database/sql"
	"time"

	"github.com/coution-app/be-kb-platform/pkg/props"
)

// Block is an ordered, typed unit of content within a page (kb store,
// table blocks). The content string is opaque to this service; the
// presentation layer interprets type and props.
type Block struct {
	ID        int64          `db:"id"`
	PageID    int64          `db:"page_id"`
	Type      string         `db:"type"`
	Content   sql.NullString `db:"content"`
	Props     props.Props    `db:"props"`
	Position  int            `db:"position"`
	CreatedAt time.Time      `db:"created_at"`
	UpdatedAt time.Time      `db:"updated_at"`
}

// BlockOut is the wire representation. Props is never null on output; a
// block without props serializes as {}.
type BlockOut struct {
	ID       int64       `json:"id"`
	Type     string      `json:"type"`
	Content  *string     `json:"content"`
	Props    props.Props `json:"props"`
	Position int         `json:"position"`
}

// CreateBlockRequest creates a block on a page. Empty content is stored
// as NULL.
type CreateBlockRequest struct {
	Type     string      `json:"type"`
	Content  string      `json:"content"`
	Props    props.Props `json:"props"`
	Position int         `json:"position"`
}

// UpdateBlockRequest is a partial update; only provided fields are applied.
type UpdateBlockRequest struct {
	Type     *string      `json:"type"`
	Content  *string      `json:"content"`
	Props    *props.Props `json:"props"`
	Position *int         `json:"position"`
}

// DeleteResponse acknowledges a delete.
type DeleteResponse struct {
	OK bool `json:"ok"`
}

func (b *Block) out() BlockOut {
	out := BlockOut{
		ID:       b.ID,
		Type:     b.Type,
		Props:    b.Props,
		Position: b.Position,
	}
	if out.Props == nil {
		out.Props = props.Props{}
	}
	if b.Content.Valid {
		out.Content = &b.Content.String
	}
	return out
}
