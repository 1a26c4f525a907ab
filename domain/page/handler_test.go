package page

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strconv"
	"strings"
	"testing"

	"github.com/jmoiron/sqlx"
	"github.com/labstack/echo/v4"
	_ "modernc.org/sqlite"

	"github.com/coution-app/be-kb-platform/config"
)

const kbSchema = `
CREATE TABLE pages (
	id INTEGER PRIMARY KEY AUTOINCREMENT,
	parent_id INTEGER REFERENCES pages(id) ON DELETE CASCADE,
	title TEXT NOT NULL DEFAULT 'Untitled',
	icon TEXT,
	created_by_id INTEGER,
	is_public BOOLEAN NOT NULL DEFAULT FALSE,
	public_slug TEXT UNIQUE,
	position INTEGER NOT NULL DEFAULT 0,
	created_at TIMESTAMP NOT NULL,
	updated_at TIMESTAMP NOT NULL
);
CREATE TABLE blocks (
	id INTEGER PRIMARY KEY AUTOINCREMENT,
	page_id INTEGER NOT NULL REFERENCES pages(id) ON DELETE CASCADE,
	type TEXT NOT NULL,
	content TEXT,
	props TEXT,
	position INTEGER NOT NULL DEFAULT 0,
	created_at TIMESTAMP NOT NULL,
	updated_at TIMESTAMP NOT NULL
);`

func setupKBDB(t *testing.T) *sqlx.DB {
	t.Helper()
	db, err := sqlx.Connect("sqlite", ":memory:")
	if err != nil {
		t.Fatalf("open sqlite: %v", err)
	}
	db.SetMaxOpenConns(1)
	db.MustExec("PRAGMA foreign_keys = ON")
	db.MustExec(kbSchema)
	config.KBDB = db
	t.Cleanup(func() {
		config.KBDB = nil
		db.Close()
	})
	return db
}

func newContext(t *testing.T, method, target, body string) (echo.Context, *httptest.ResponseRecorder) {
	t.Helper()
	e := echo.New()
	var req *http.Request
	if body == "" {
		req = httptest.NewRequest(method, target, nil)
	} else {
		req = httptest.NewRequest(method, target, strings.NewReader(body))
		req.Header.Set(echo.HeaderContentType, echo.MIMEApplicationJSON)
	}
	rec := httptest.NewRecorder()
	c := e.NewContext(req, rec)
	c.Set("mentor_id", int64(1))
	return c, rec
}

func createPage(t *testing.T, body string) PageOut {
	t.Helper()
	c, rec := newContext(t, http.MethodPost, "/kb/pages", body)
	if err := CreatePageHandler(c); err != nil {
		t.Fatalf("create page: %v", err)
	}
	if rec.Code != http.StatusOK {
		t.Fatalf("create page status: %d body=%s", rec.Code, rec.Body.String())
	}
	var out PageOut
	if err := json.Unmarshal(rec.Body.Bytes(), &out); err != nil {
		t.Fatalf("decode created page: %v", err)
	}
	return out
}

func seedBlock(t *testing.T, db *sqlx.DB, pageID int64, blockType, content string, position int) int64 {
	t.Helper()
	var id int64
	err := db.QueryRow(`
		INSERT INTO blocks (page_id, type, content, position, created_at, updated_at)
		VALUES ($1, $2, $3, $4, CURRENT_TIMESTAMP, CURRENT_TIMESTAMP)
		RETURNING id
	`, pageID, blockType, content, position).Scan(&id)
	if err != nil {
		t.Fatalf("seed block: %v", err)
	}
	return id
}

func TestCreatePageDefaults(t *testing.T) {
	setupKBDB(t)

	out := createPage(t, `{}`)
	if out.Title != "Untitled" {
		t.Fatalf("title: got %q", out.Title)
	}
	if out.ParentID != nil {
		t.Fatalf("parent_id: got %v, want nil", *out.ParentID)
	}
	if out.IsPublic || out.PublicSlug != nil {
		t.Fatalf("new page must not be public: %+v", out)
	}
}

func TestCreatePageUnderParent(t *testing.T) {
	setupKBDB(t)

	root := createPage(t, `{"title": "Handbook"}`)
	child := createPage(t, `{"title": "Onboarding", "parent_id": `+strconv.FormatInt(root.ID, 10)+`}`)
	if child.ParentID == nil || *child.ParentID != root.ID {
		t.Fatalf("child parent_id: got %v", child.ParentID)
	}

	// Explicit zero means root, same as absent.
	loner := createPage(t, `{"title": "Loner", "parent_id": 0}`)
	if loner.ParentID != nil {
		t.Fatalf("loner parent_id: got %v, want nil", *loner.ParentID)
	}
}

func TestListPagesNestsChildren(t *testing.T) {
	setupKBDB(t)

	root := createPage(t, `{"title": "Root"}`)
	child := createPage(t, `{"title": "Child", "parent_id": `+strconv.FormatInt(root.ID, 10)+`}`)
	grand := createPage(t, `{"title": "Grand", "parent_id": `+strconv.FormatInt(child.ID, 10)+`}`)

	c, rec := newContext(t, http.MethodGet, "/kb/pages", "")
	if err := ListPagesHandler(c); err != nil {
		t.Fatalf("list pages: %v", err)
	}
	var roots []PageNode
	if err := json.Unmarshal(rec.Body.Bytes(), &roots); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if len(roots) != 1 || roots[0].ID != root.ID {
		t.Fatalf("roots: %+v", roots)
	}
	if len(roots[0].Children) != 1 || roots[0].Children[0].ID != child.ID {
		t.Fatalf("children: %+v", roots[0].Children)
	}
	if len(roots[0].Children[0].Children) != 1 || roots[0].Children[0].Children[0].ID != grand.ID {
		t.Fatalf("grandchildren: %+v", roots[0].Children[0].Children)
	}

	// Scoped to a parent: only that page's subtree, starting at its
	// direct children.
	c, rec = newContext(t, http.MethodGet, "/kb/pages?parent_id="+strconv.FormatInt(root.ID, 10), "")
	if err := ListPagesHandler(c); err != nil {
		t.Fatalf("list children: %v", err)
	}
	var kids []PageNode
	if err := json.Unmarshal(rec.Body.Bytes(), &kids); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if len(kids) != 1 || kids[0].ID != child.ID || len(kids[0].Children) != 1 {
		t.Fatalf("scoped listing: %+v", kids)
	}
}

func TestListPagesEmptyIsArray(t *testing.T) {
	setupKBDB(t)

	c, rec := newContext(t, http.MethodGet, "/kb/pages", "")
	if err := ListPagesHandler(c); err != nil {
		t.Fatalf("list pages: %v", err)
	}
	if got := strings.TrimSpace(rec.Body.String()); got != "[]" {
		t.Fatalf("empty listing: got %s", got)
	}
}

func TestGetPageHasBlocksButNoChildren(t *testing.T) {
	db := setupKBDB(t)

	root := createPage(t, `{"title": "Root"}`)
	createPage(t, `{"title": "Child", "parent_id": `+strconv.FormatInt(root.ID, 10)+`}`)
	seedBlock(t, db, root.ID, "paragraph", "second", 1)
	seedBlock(t, db, root.ID, "heading", "first", 0)

	c, rec := newContext(t, http.MethodGet, "/kb/pages/:id", "")
	c.SetParamNames("id")
	c.SetParamValues(strconv.FormatInt(root.ID, 10))
	if err := GetPageHandler(c); err != nil {
		t.Fatalf("get page: %v", err)
	}
	if rec.Code != http.StatusOK {
		t.Fatalf("status: %d body=%s", rec.Code, rec.Body.String())
	}

	var raw map[string]json.RawMessage
	if err := json.Unmarshal(rec.Body.Bytes(), &raw); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if _, ok := raw["children"]; ok {
		t.Fatalf("detail view must not nest children: %s", rec.Body.String())
	}

	var detail PageDetail
	if err := json.Unmarshal(rec.Body.Bytes(), &detail); err != nil {
		t.Fatalf("decode detail: %v", err)
	}
	if len(detail.Blocks) != 2 {
		t.Fatalf("blocks: %+v", detail.Blocks)
	}
	if detail.Blocks[0].Type != "heading" || detail.Blocks[1].Type != "paragraph" {
		t.Fatalf("block order: %+v", detail.Blocks)
	}
}

func TestGetPageNotFound(t *testing.T) {
	setupKBDB(t)

	c, rec := newContext(t, http.MethodGet, "/kb/pages/:id", "")
	c.SetParamNames("id")
	c.SetParamValues("9999")
	if err := GetPageHandler(c); err != nil {
		t.Fatalf("get page: %v", err)
	}
	if rec.Code != http.StatusNotFound {
		t.Fatalf("status: got %d", rec.Code)
	}
}

func TestUpdatePagePartial(t *testing.T) {
	setupKBDB(t)

	p := createPage(t, `{"title": "Draft", "icon": "📄"}`)

	c, rec := newContext(t, http.MethodPatch, "/kb/pages/:id", `{"title": "Final"}`)
	c.SetParamNames("id")
	c.SetParamValues(strconv.FormatInt(p.ID, 10))
	if err := UpdatePageHandler(c); err != nil {
		t.Fatalf("update page: %v", err)
	}

	var out PageOut
	if err := json.Unmarshal(rec.Body.Bytes(), &out); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if out.Title != "Final" {
		t.Fatalf("title: got %q", out.Title)
	}
	if out.Icon == nil || *out.Icon != "📄" {
		t.Fatalf("icon must survive a title-only update: %v", out.Icon)
	}
}

func TestUpdatePageMoveToRoot(t *testing.T) {
	setupKBDB(t)

	root := createPage(t, `{"title": "Root"}`)
	child := createPage(t, `{"title": "Child", "parent_id": `+strconv.FormatInt(root.ID, 10)+`}`)

	c, rec := newContext(t, http.MethodPatch, "/kb/pages/:id", `{"parent_id": 0}`)
	c.SetParamNames("id")
	c.SetParamValues(strconv.FormatInt(child.ID, 10))
	if err := UpdatePageHandler(c); err != nil {
		t.Fatalf("update page: %v", err)
	}

	var out PageOut
	if err := json.Unmarshal(rec.Body.Bytes(), &out); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if out.ParentID != nil {
		t.Fatalf("parent_id: got %v, want nil", *out.ParentID)
	}
}

func TestUpdatePageRejectsCycle(t *testing.T) {
	setupKBDB(t)

	root := createPage(t, `{"title": "Root"}`)
	child := createPage(t, `{"title": "Child", "parent_id": `+strconv.FormatInt(root.ID, 10)+`}`)
	grand := createPage(t, `{"title": "Grand", "parent_id": `+strconv.FormatInt(child.ID, 10)+`}`)

	for _, target := range []int64{root.ID, grand.ID} {
		c, rec := newContext(t, http.MethodPatch, "/kb/pages/:id",
			`{"parent_id": `+strconv.FormatInt(target, 10)+`}`)
		c.SetParamNames("id")
		c.SetParamValues(strconv.FormatInt(root.ID, 10))
		if err := UpdatePageHandler(c); err != nil {
			t.Fatalf("update page: %v", err)
		}
		if rec.Code != http.StatusBadRequest {
			t.Fatalf("reparent under %d: got %d, want 400", target, rec.Code)
		}
	}
}

func TestDeletePageCascades(t *testing.T) {
	db := setupKBDB(t)

	root := createPage(t, `{"title": "Root"}`)
	child := createPage(t, `{"title": "Child", "parent_id": `+strconv.FormatInt(root.ID, 10)+`}`)
	seedBlock(t, db, child.ID, "paragraph", "gone with the page", 0)

	c, rec := newContext(t, http.MethodDelete, "/kb/pages/:id", "")
	c.SetParamNames("id")
	c.SetParamValues(strconv.FormatInt(root.ID, 10))
	if err := DeletePageHandler(c); err != nil {
		t.Fatalf("delete page: %v", err)
	}
	if rec.Code != http.StatusOK {
		t.Fatalf("status: %d body=%s", rec.Code, rec.Body.String())
	}

	var pages, blocks int
	if err := db.Get(&pages, "SELECT COUNT(*) FROM pages"); err != nil {
		t.Fatalf("count pages: %v", err)
	}
	if err := db.Get(&blocks, "SELECT COUNT(*) FROM blocks"); err != nil {
		t.Fatalf("count blocks: %v", err)
	}
	if pages != 0 || blocks != 0 {
		t.Fatalf("cascade left pages=%d blocks=%d", pages, blocks)
	}

	// Deleting again is a 404, not a silent success.
	c, rec = newContext(t, http.MethodDelete, "/kb/pages/:id", "")
	c.SetParamNames("id")
	c.SetParamValues(strconv.FormatInt(root.ID, 10))
	if err := DeletePageHandler(c); err != nil {
		t.Fatalf("delete page: %v", err)
	}
	if rec.Code != http.StatusNotFound {
		t.Fatalf("second delete: got %d", rec.Code)
	}
}

func publish(t *testing.T, handler echo.HandlerFunc, pageID int64) PublishResponse {
	t.Helper()
	c, rec := newContext(t, http.MethodPost, "/kb/pages/:id/publish", "")
	c.SetParamNames("id")
	c.SetParamValues(strconv.FormatInt(pageID, 10))
	if err := handler(c); err != nil {
		t.Fatalf("publish handler: %v", err)
	}
	if rec.Code != http.StatusOK {
		t.Fatalf("publish status: %d body=%s", rec.Code, rec.Body.String())
	}
	var resp PublishResponse
	if err := json.Unmarshal(rec.Body.Bytes(), &resp); err != nil {
		t.Fatalf("decode publish response: %v", err)
	}
	return resp
}

func TestPublishKeepsExistingSlug(t *testing.T) {
	setupKBDB(t)

	p := createPage(t, `{"title": "Public doc"}`)

	first := publish(t, PublishPageHandler, p.ID)
	if !first.OK || len(first.PublicSlug) != 22 {
		t.Fatalf("first publish: %+v", first)
	}

	second := publish(t, PublishPageHandler, p.ID)
	if second.PublicSlug != first.PublicSlug {
		t.Fatalf("re-publish rotated the slug: %q != %q", second.PublicSlug, first.PublicSlug)
	}
}

func TestRefreshSlugRotates(t *testing.T) {
	setupKBDB(t)

	p := createPage(t, `{"title": "Public doc"}`)
	published := publish(t, PublishPageHandler, p.ID)

	refreshed := publish(t, RefreshSlugHandler, p.ID)
	if refreshed.PublicSlug == published.PublicSlug {
		t.Fatalf("refresh kept the old slug %q", published.PublicSlug)
	}

	// The old link is dead, the new one serves the page.
	c, rec := newContext(t, http.MethodGet, "/kb/public/:slug", "")
	c.SetParamNames("slug")
	c.SetParamValues(published.PublicSlug)
	if err := PublicPageHandler(c); err != nil {
		t.Fatalf("public page: %v", err)
	}
	if rec.Code != http.StatusNotFound {
		t.Fatalf("old slug: got %d, want 404", rec.Code)
	}

	c, rec = newContext(t, http.MethodGet, "/kb/public/:slug", "")
	c.SetParamNames("slug")
	c.SetParamValues(refreshed.PublicSlug)
	if err := PublicPageHandler(c); err != nil {
		t.Fatalf("public page: %v", err)
	}
	if rec.Code != http.StatusOK {
		t.Fatalf("new slug: got %d body=%s", rec.Code, rec.Body.String())
	}
}

func TestUnpublishClearsSlug(t *testing.T) {
	setupKBDB(t)

	p := createPage(t, `{"title": "Public doc"}`)
	published := publish(t, PublishPageHandler, p.ID)

	c, rec := newContext(t, http.MethodPost, "/kb/pages/:id/unpublish", "")
	c.SetParamNames("id")
	c.SetParamValues(strconv.FormatInt(p.ID, 10))
	if err := UnpublishPageHandler(c); err != nil {
		t.Fatalf("unpublish: %v", err)
	}
	if rec.Code != http.StatusOK {
		t.Fatalf("status: %d", rec.Code)
	}

	got, err := getByID(p.ID)
	if err != nil {
		t.Fatalf("fetch page: %v", err)
	}
	if got.IsPublic || got.PublicSlug.Valid {
		t.Fatalf("unpublish left is_public=%v slug=%v", got.IsPublic, got.PublicSlug)
	}

	c, rec = newContext(t, http.MethodGet, "/kb/public/:slug", "")
	c.SetParamNames("slug")
	c.SetParamValues(published.PublicSlug)
	if err := PublicPageHandler(c); err != nil {
		t.Fatalf("public page: %v", err)
	}
	if rec.Code != http.StatusNotFound {
		t.Fatalf("unpublished slug still served: %d", rec.Code)
	}
}

func TestPublicPageHasChildrenAndBlocks(t *testing.T) {
	db := setupKBDB(t)

	root := createPage(t, `{"title": "Guide"}`)
	child := createPage(t, `{"title": "Chapter", "parent_id": `+strconv.FormatInt(root.ID, 10)+`}`)
	seedBlock(t, db, root.ID, "paragraph", "welcome", 0)

	published := publish(t, PublishPageHandler, root.ID)

	c, rec := newContext(t, http.MethodGet, "/kb/public/:slug", "")
	c.SetParamNames("slug")
	c.SetParamValues(published.PublicSlug)
	if err := PublicPageHandler(c); err != nil {
		t.Fatalf("public page: %v", err)
	}
	if rec.Code != http.StatusOK {
		t.Fatalf("status: %d body=%s", rec.Code, rec.Body.String())
	}

	var out PublicPageOut
	if err := json.Unmarshal(rec.Body.Bytes(), &out); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if out.ID != root.ID {
		t.Fatalf("id: got %d", out.ID)
	}
	if len(out.Children) != 1 || out.Children[0].ID != child.ID {
		t.Fatalf("children: %+v", out.Children)
	}
	if len(out.Blocks) != 1 || out.Blocks[0].Content == nil || *out.Blocks[0].Content != "welcome" {
		t.Fatalf("blocks: %+v", out.Blocks)
	}
}

func TestPublicPageUnknownSlug(t *testing.T) {
	setupKBDB(t)

	c, rec := newContext(t, http.MethodGet, "/kb/public/:slug", "")
	c.SetParamNames("slug")
	c.SetParamValues("does-not-exist")
	if err := PublicPageHandler(c); err != nil {
		t.Fatalf("public page: %v", err)
	}
	if rec.Code != http.StatusNotFound {
		t.Fatalf("status: got %d", rec.Code)
	}
}
