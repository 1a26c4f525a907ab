package page

import (
	"github.com/coution-app/be-kb-platform/config"
)

const selectColumns = "id, parent_id, title, icon, created_by_id, is_public, public_slug, position, created_at, updated_at"

// arena holds every page indexed by id, with children as a computed
// relation. Parent and child pointers are never stored on the records
// themselves.
type arena struct {
	byID     map[int64]*Page
	children map[int64][]*Page // keyed by parent id; 0 collects roots
}

// loadArena reads the whole tree in one ordered scan. Sibling order is
// (position, id) ascending, so per-parent slices come out already sorted.
func loadArena() (*arena, error) {
	var pages []Page
	err := config.KBDB.Select(&pages, "SELECT "+selectColumns+" FROM pages ORDER BY position, id")
	if err != nil {
		return nil, err
	}

	a := &arena{
		byID:     make(map[int64]*Page, len(pages)),
		children: make(map[int64][]*Page),
	}
	for i := range pages {
		p := &pages[i]
		a.byID[p.ID] = p
		a.children[p.ParentID.Int64] = append(a.children[p.ParentID.Int64], p)
	}
	return a, nil
}

// node builds the nested output for a page, recursing into children.
func (a *arena) node(p *Page) PageNode {
	kids := a.children[p.ID]
	n := PageNode{
		PageOut:  p.out(),
		Children: make([]PageNode, 0, len(kids)),
	}
	for _, child := range kids {
		n.Children = append(n.Children, a.node(child))
	}
	return n
}

// wouldCycle reports whether reparenting pageID under newParentID would make
// the page an ancestor of itself. The walk is bounded by the arena size so a
// pre-existing corrupt chain cannot loop forever.
func (a *arena) wouldCycle(pageID, newParentID int64) bool {
	cur := newParentID
	for steps := 0; steps <= len(a.byID); steps++ {
		if cur == pageID {
			return true
		}
		p, ok := a.byID[cur]
		if !ok || !p.ParentID.Valid {
			return false
		}
		cur = p.ParentID.Int64
	}
	return true
}
