package page

import (
	"database/sql"
	"time"

	"github.com/coution-app/be-kb-platform/domain/block"
)

// Page is a node in the knowledge-base tree (kb store, table pages).
// created_by_id is a soft reference into the auth store; there is no FK and
// no cross-store integrity to rely on.
type Page struct {
	ID          int64          `db:"id"`
	ParentID    sql.NullInt64  `db:"parent_id"`
	Title       string         `db:"title"`
	Icon        sql.NullString `db:"icon"`
	CreatedByID sql.NullInt64  `db:"created_by_id"`
	IsPublic    bool           `db:"is_public"`
	PublicSlug  sql.NullString `db:"public_slug"`
	Position    int            `db:"position"`
	CreatedAt   time.Time      `db:"created_at"`
	UpdatedAt   time.Time      `db:"updated_at"`
}

// PageOut is the base page representation returned by create and update.
type PageOut struct {
	ID         int64   `json:"id"`
	Title      string  `json:"title"`
	Icon       *string `json:"icon"`
	ParentID   *int64  `json:"parent_id"`
	IsPublic   bool    `json:"is_public"`
	PublicSlug *string `json:"public_slug"`
	Position   int     `json:"position"`
}

// PageNode is a page with its recursively nested children (no blocks).
type PageNode struct {
	PageOut
	Children []PageNode `json:"children"`
}

// PageDetail is a single page with its ordered blocks (no children).
type PageDetail struct {
	PageOut
	Blocks []block.BlockOut `json:"blocks"`
}

// PublicPageOut is the unauthenticated view of a published page: nested
// children plus the root page's blocks.
type PublicPageOut struct {
	PageOut
	Children []PageNode       `json:"children"`
	Blocks   []block.BlockOut `json:"blocks"`
}

// CreatePageRequest creates a page. A zero or absent parent_id means root.
type CreatePageRequest struct {
	Title    string `json:"title"`
	Icon     *string `json:"icon"`
	ParentID int64  `json:"parent_id"`
}

// UpdatePageRequest is a partial update; only provided fields are applied.
// parent_id zero moves the page to the root.
type UpdatePageRequest struct {
	Title    *string `json:"title"`
	Icon     *string `json:"icon"`
	ParentID *int64  `json:"parent_id"`
}

// PublishResponse is returned by publish and refresh-slug.
type PublishResponse struct {
	OK         bool   `json:"ok"`
	PublicSlug string `json:"public_slug"`
}

func (p *Page) out() PageOut {
	out := PageOut{
		ID:       p.ID,
		Title:    p.Title,
		IsPublic: p.IsPublic,
		Position: p.Position,
	}
	if p.Icon.Valid {
		out.Icon = &p.Icon.String
	}
	if p.ParentID.Valid {
		out.ParentID = &p.ParentID.Int64
	}
	if p.PublicSlug.Valid {
		out.PublicSlug = &p.PublicSlug.String
	}
	return out
}
