package page

import (
	"database/sql"
	"net/http"
	"strconv"
	"time"

	"github.com/labstack/echo/v4"

	"github.com/coution-app/be-kb-platform/config"
	"github.com/coution-app/be-kb-platform/domain/block"
	"github.com/coution-app/be-kb-platform/pkg/apperrors"
	"github.com/coution-app/be-kb-platform/pkg/logger"
	"github.com/coution-app/be-kb-platform/utils"
)

// ListPagesHandler handles GET /kb/pages?parent_id=. Without parent_id it
// returns root pages (parent_id IS NULL); with it, direct children of that
// page. Every returned page nests its children recursively; blocks are
// never included here.
func ListPagesHandler(c echo.Context) error {
	log := logger.Get().WithComponent("page")

	var parentID int64
	if raw := c.QueryParam("parent_id"); raw != "" {
		var err error
		parentID, err = strconv.ParseInt(raw, 10, 64)
		if err != nil {
			return apperrors.RespondWithError(c, apperrors.NewBadRequest(
				apperrors.ErrCodeInvalidInput,
				"Invalid parent_id.",
			))
		}
	}

	a, err := loadArena()
	if err != nil {
		log.Error("Failed to load pages", err)
		return apperrors.RespondWithError(c, apperrors.NewInternal(
			apperrors.ErrCodeDatabaseError,
			"Internal server error.",
			err,
		))
	}

	// Roots and NULL parents share the zero key in the arena.
	selected := a.children[parentID]
	out := make([]PageNode, 0, len(selected))
	for _, p := range selected {
		out = append(out, a.node(p))
	}

	return c.JSON(http.StatusOK, out)
}

// CreatePageHandler handles POST /kb/pages. A zero or absent parent_id
// creates a root page. created_by_id records the acting mentor, a soft
// reference into the auth store.
func CreatePageHandler(c echo.Context) error {
	log := logger.Get().WithComponent("page")
	mentorID := c.Get("mentor_id").(int64)

	req := new(CreatePageRequest)
	if err := c.Bind(req); err != nil {
		return apperrors.RespondWithError(c, apperrors.NewBadRequest(
			apperrors.ErrCodeValidationFailed,
			"Invalid request payload.",
		))
	}

	title := req.Title
	if title == "" {
		title = "Untitled"
	}

	parentID := sql.NullInt64{Int64: req.ParentID, Valid: req.ParentID != 0}
	icon := sql.NullString{}
	if req.Icon != nil {
		icon = sql.NullString{String: *req.Icon, Valid: true}
	}
	now := time.Now()

	var id int64
	err := config.KBDB.QueryRow(`
		INSERT INTO pages (parent_id, title, icon, created_by_id, is_public, position, created_at, updated_at)
		VALUES ($1, $2, $3, $4, FALSE, 0, $5, $6)
		RETURNING id
	`, parentID, title, icon, mentorID, now, now).Scan(&id)
	if err != nil {
		log.Error("Failed to create page", err, logger.MentorID(mentorID))
		return apperrors.RespondWithError(c, apperrors.NewInternal(
			apperrors.ErrCodeDatabaseError,
			"Internal server error.",
			err,
		))
	}

	p, err := getByID(id)
	if err != nil {
		log.Error("Failed to fetch created page", err, logger.PageID(id))
		return apperrors.RespondWithError(c, apperrors.NewInternal(
			apperrors.ErrCodeDatabaseError,
			"Internal server error.",
			err,
		))
	}

	log.Info("Page created", logger.PageID(id), logger.MentorID(mentorID))
	return c.JSON(http.StatusOK, p.out())
}

// GetPageHandler handles GET /kb/pages/:id — the page with its ordered
// blocks. Children are not nested here, unlike the listing.
func GetPageHandler(c echo.Context) error {
	log := logger.Get().WithComponent("page")

	id, err := strconv.ParseInt(c.Param("id"), 10, 64)
	if err != nil {
		return apperrors.RespondWithError(c, apperrors.NewBadRequest(
			apperrors.ErrCodeInvalidInput,
			"Invalid page id.",
		))
	}

	p, err := getByID(id)
	if err != nil {
		if err == sql.ErrNoRows {
			return apperrors.RespondWithError(c, apperrors.NewNotFound(
				apperrors.ErrCodePageNotFound,
				"Page not found.",
			))
		}
		log.Error("Failed to fetch page", err, logger.PageID(id))
		return apperrors.RespondWithError(c, apperrors.NewInternal(
			apperrors.ErrCodeDatabaseError,
			"Internal server error.",
			err,
		))
	}

	blocks, err := block.ListByPage(id)
	if err != nil {
		log.Error("Failed to fetch blocks", err, logger.PageID(id))
		return apperrors.RespondWithError(c, apperrors.NewInternal(
			apperrors.ErrCodeDatabaseError,
			"Internal server error.",
			err,
		))
	}

	return c.JSON(http.StatusOK, PageDetail{PageOut: p.out(), Blocks: blocks})
}

// UpdatePageHandler handles PATCH /kb/pages/:id. Partial semantics: only
// provided fields are applied. parent_id zero moves the page to the root;
// reparenting under the page itself or one of its descendants is refused.
func UpdatePageHandler(c echo.Context) error {
	log := logger.Get().WithComponent("page")

	id, err := strconv.ParseInt(c.Param("id"), 10, 64)
	if err != nil {
		return apperrors.RespondWithError(c, apperrors.NewBadRequest(
			apperrors.ErrCodeInvalidInput,
			"Invalid page id.",
		))
	}

	req := new(UpdatePageRequest)
	if err := c.Bind(req); err != nil {
		return apperrors.RespondWithError(c, apperrors.NewBadRequest(
			apperrors.ErrCodeValidationFailed,
			"Invalid request payload.",
		))
	}

	p, err := getByID(id)
	if err != nil {
		if err == sql.ErrNoRows {
			return apperrors.RespondWithError(c, apperrors.NewNotFound(
				apperrors.ErrCodePageNotFound,
				"Page not found.",
			))
		}
		log.Error("Failed to fetch page", err, logger.PageID(id))
		return apperrors.RespondWithError(c, apperrors.NewInternal(
			apperrors.ErrCodeDatabaseError,
			"Internal server error.",
			err,
		))
	}

	if req.Title != nil {
		p.Title = *req.Title
	}
	if req.Icon != nil {
		p.Icon = sql.NullString{String: *req.Icon, Valid: true}
	}
	if req.ParentID != nil {
		if *req.ParentID == 0 {
			p.ParentID = sql.NullInt64{}
		} else {
			a, err := loadArena()
			if err != nil {
				log.Error("Failed to load pages for cycle check", err, logger.PageID(id))
				return apperrors.RespondWithError(c, apperrors.NewInternal(
					apperrors.ErrCodeDatabaseError,
					"Internal server error.",
					err,
				))
			}
			if a.wouldCycle(id, *req.ParentID) {
				return apperrors.RespondWithError(c, apperrors.NewBadRequest(
					apperrors.ErrCodeInvalidInput,
					"Cannot move a page under itself or its descendant.",
				))
			}
			p.ParentID = sql.NullInt64{Int64: *req.ParentID, Valid: true}
		}
	}

	_, err = config.KBDB.Exec(`
		UPDATE pages SET title = $1, icon = $2, parent_id = $3, updated_at = $4
		WHERE id = $5
	`, p.Title, p.Icon, p.ParentID, time.Now(), id)
	if err != nil {
		log.Error("Failed to update page", err, logger.PageID(id))
		return apperrors.RespondWithError(c, apperrors.NewInternal(
			apperrors.ErrCodeDatabaseError,
			"Internal server error.",
			err,
		))
	}

	return c.JSON(http.StatusOK, p.out())
}

// DeletePageHandler handles DELETE /kb/pages/:id. The store cascades the
// delete to descendant pages and their blocks.
func DeletePageHandler(c echo.Context) error {
	log := logger.Get().WithComponent("page")

	id, err := strconv.ParseInt(c.Param("id"), 10, 64)
	if err != nil {
		return apperrors.RespondWithError(c, apperrors.NewBadRequest(
			apperrors.ErrCodeInvalidInput,
			"Invalid page id.",
		))
	}

	res, err := config.KBDB.Exec("DELETE FROM pages WHERE id = $1", id)
	if err != nil {
		log.Error("Failed to delete page", err, logger.PageID(id))
		return apperrors.RespondWithError(c, apperrors.NewInternal(
			apperrors.ErrCodeDatabaseError,
			"Internal server error.",
			err,
		))
	}
	affected, _ := res.RowsAffected()
	if affected == 0 {
		return apperrors.RespondWithError(c, apperrors.NewNotFound(
			apperrors.ErrCodePageNotFound,
			"Page not found.",
		))
	}

	log.Info("Page deleted", logger.PageID(id))
	return c.JSON(http.StatusOK, block.DeleteResponse{OK: true})
}

// PublishPageHandler handles POST /kb/pages/:id/publish (admin only).
// Re-publishing keeps the existing slug; a slug is generated only when the
// page has never had one.
func PublishPageHandler(c echo.Context) error {
	log := logger.Get().WithComponent("page")

	id, p, appErr := fetchForAdmin(c)
	if appErr != nil {
		return apperrors.RespondWithError(c, appErr)
	}

	if !p.PublicSlug.Valid {
		slug, err := utils.GenerateSlug()
		if err != nil {
			log.Error("Failed to generate slug", err, logger.PageID(id))
			return apperrors.RespondWithError(c, apperrors.NewInternal(
				apperrors.ErrCodeUnexpectedError,
				"Internal server error.",
				err,
			))
		}
		p.PublicSlug = sql.NullString{String: slug, Valid: true}
	}
	p.IsPublic = true

	if err := storePublishState(p); err != nil {
		log.Error("Failed to publish page", err, logger.PageID(id))
		return apperrors.RespondWithError(c, apperrors.NewInternal(
			apperrors.ErrCodeDatabaseError,
			"Internal server error.",
			err,
		))
	}

	log.Info("Page published", logger.PageID(id), logger.Slug(p.PublicSlug.String))
	return c.JSON(http.StatusOK, PublishResponse{OK: true, PublicSlug: p.PublicSlug.String})
}

// RefreshSlugHandler handles POST /kb/pages/:id/refresh-slug (admin only).
// The slug is replaced unconditionally, invalidating any shared links.
func RefreshSlugHandler(c echo.Context) error {
	log := logger.Get().WithComponent("page")

	id, p, appErr := fetchForAdmin(c)
	if appErr != nil {
		return apperrors.RespondWithError(c, appErr)
	}

	slug, err := utils.GenerateSlug()
	if err != nil {
		log.Error("Failed to generate slug", err, logger.PageID(id))
		return apperrors.RespondWithError(c, apperrors.NewInternal(
			apperrors.ErrCodeUnexpectedError,
			"Internal server error.",
			err,
		))
	}
	p.PublicSlug = sql.NullString{String: slug, Valid: true}

	if err := storePublishState(p); err != nil {
		log.Error("Failed to refresh slug", err, logger.PageID(id))
		return apperrors.RespondWithError(c, apperrors.NewInternal(
			apperrors.ErrCodeDatabaseError,
			"Internal server error.",
			err,
		))
	}

	log.Info("Slug refreshed", logger.PageID(id), logger.Slug(slug))
	return c.JSON(http.StatusOK, PublishResponse{OK: true, PublicSlug: slug})
}

// UnpublishPageHandler handles POST /kb/pages/:id/unpublish (admin only).
// Clears the public flag and the slug together.
func UnpublishPageHandler(c echo.Context) error {
	log := logger.Get().WithComponent("page")

	id, p, appErr := fetchForAdmin(c)
	if appErr != nil {
		return apperrors.RespondWithError(c, appErr)
	}

	p.IsPublic = false
	p.PublicSlug = sql.NullString{}

	if err := storePublishState(p); err != nil {
		log.Error("Failed to unpublish page", err, logger.PageID(id))
		return apperrors.RespondWithError(c, apperrors.NewInternal(
			apperrors.ErrCodeDatabaseError,
			"Internal server error.",
			err,
		))
	}

	log.Info("Page unpublished", logger.PageID(id))
	return c.JSON(http.StatusOK, block.DeleteResponse{OK: true})
}

// PublicPageHandler handles GET /kb/public/:slug without authentication. A
// slug on an unpublished page is invisible; both conditions are checked in
// one query.
func PublicPageHandler(c echo.Context) error {
	log := logger.Get().WithComponent("page")
	slug := c.Param("slug")

	var p Page
	err := config.KBDB.Get(&p,
		"SELECT "+selectColumns+" FROM pages WHERE public_slug = $1 AND is_public = TRUE", slug)
	if err != nil {
		if err == sql.ErrNoRows {
			return apperrors.RespondWithError(c, apperrors.NewNotFound(
				apperrors.ErrCodePageNotFound,
				"Page not found.",
			))
		}
		log.Error("Failed to fetch public page", err, logger.Slug(slug))
		return apperrors.RespondWithError(c, apperrors.NewInternal(
			apperrors.ErrCodeDatabaseError,
			"Internal server error.",
			err,
		))
	}

	a, err := loadArena()
	if err != nil {
		log.Error("Failed to load pages", err, logger.Slug(slug))
		return apperrors.RespondWithError(c, apperrors.NewInternal(
			apperrors.ErrCodeDatabaseError,
			"Internal server error.",
			err,
		))
	}

	blocks, err := block.ListByPage(p.ID)
	if err != nil {
		log.Error("Failed to fetch blocks", err, logger.PageID(p.ID))
		return apperrors.RespondWithError(c, apperrors.NewInternal(
			apperrors.ErrCodeDatabaseError,
			"Internal server error.",
			err,
		))
	}

	node := a.node(a.byID[p.ID])
	return c.JSON(http.StatusOK, PublicPageOut{
		PageOut:  node.PageOut,
		Children: node.Children,
		Blocks:   blocks,
	})
}

// fetchForAdmin parses the id param and loads the page for the admin-only
// publish workflow handlers.
func fetchForAdmin(c echo.Context) (int64, *Page, *apperrors.AppError) {
	id, err := strconv.ParseInt(c.Param("id"), 10, 64)
	if err != nil {
		return 0, nil, apperrors.NewBadRequest(apperrors.ErrCodeInvalidInput, "Invalid page id.")
	}

	p, err := getByID(id)
	if err != nil {
		if err == sql.ErrNoRows {
			return 0, nil, apperrors.NewNotFound(apperrors.ErrCodePageNotFound, "Page not found.")
		}
		return 0, nil, apperrors.NewInternal(apperrors.ErrCodeDatabaseError, "Internal server error.", err)
	}
	return id, p, nil
}

func storePublishState(p *Page) error {
	_, err := config.KBDB.Exec(`
		UPDATE pages SET is_public = $1, public_slug = $2, updated_at = $3
		WHERE id = $4
	`, p.IsPublic, p.PublicSlug, time.Now(), p.ID)
	return err
}

func getByID(id int64) (*Page, error) {
	var p Page
	err := config.KBDB.Get(&p, "SELECT "+selectColumns+" FROM pages WHERE id = $1", id)
	if err != nil {
		return nil, err
	}
	return &p, nil
}
