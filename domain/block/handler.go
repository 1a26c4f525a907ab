package block

import (
	"database/sql"
	"net/http"
	"strconv"
	"time"

	"github.com/labstack/echo/v4"

	"github.com/coution-app/be-kb-platform/config"
	"github.com/coution-app/be-kb-platform/pkg/apperrors"
	"github.com/coution-app/be-kb-platform/pkg/logger"
)

// CreateBlockHandler handles POST /kb/pages/:id/blocks. Any authenticated
// mentor may add blocks to any page.
func CreateBlockHandler(c echo.Context) error {
	log := logger.Get().WithComponent("block")

	pageID, err := strconv.ParseInt(c.Param("id"), 10, 64)
	if err != nil {
		return apperrors.RespondWithError(c, apperrors.NewBadRequest(
			apperrors.ErrCodeInvalidInput,
			"Invalid page id.",
		))
	}

	req := new(CreateBlockRequest)
	if err := c.Bind(req); err != nil {
		return apperrors.RespondWithError(c, apperrors.NewBadRequest(
			apperrors.ErrCodeValidationFailed,
			"Invalid request payload.",
		))
	}

	if req.Type == "" {
		return apperrors.RespondWithError(c, apperrors.NewBadRequest(
			apperrors.ErrCodeMissingField,
			"Block type required.",
		))
	}

	var pageExists bool
	err = config.KBDB.Get(&pageExists, "SELECT EXISTS(SELECT 1 FROM pages WHERE id = $1)", pageID)
	if err != nil {
		log.Error("Failed to check page existence", err, logger.PageID(pageID))
		return apperrors.RespondWithError(c, apperrors.NewInternal(
			apperrors.ErrCodeDatabaseError,
			"Internal server error.",
			err,
		))
	}
	if !pageExists {
		return apperrors.RespondWithError(c, apperrors.NewNotFound(
			apperrors.ErrCodePageNotFound,
			"Page not found.",
		))
	}

	// Empty content is normalized to absent.
	content := sql.NullString{String: req.Content, Valid: req.Content != ""}
	now := time.Now()

	var id int64
	err = config.KBDB.QueryRow(`
		INSERT INTO blocks (page_id, type, content, props, position, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7)
		RETURNING id
	`, pageID, req.Type, content, req.Props, req.Position, now, now).Scan(&id)
	if err != nil {
		log.Error("Failed to create block", err, logger.PageID(pageID))
		return apperrors.RespondWithError(c, apperrors.NewInternal(
			apperrors.ErrCodeDatabaseError,
			"Internal server error.",
			err,
		))
	}

	b, err := getByID(id)
	if err != nil {
		log.Error("Failed to fetch created block", err, logger.BlockID(id))
		return apperrors.RespondWithError(c, apperrors.NewInternal(
			apperrors.ErrCodeDatabaseError,
			"Internal server error.",
			err,
		))
	}

	log.Info("Block created", logger.BlockID(id), logger.PageID(pageID))
	return c.JSON(http.StatusOK, b.out())
}

// UpdateBlockHandler handles PATCH /kb/blocks/:id with partial semantics:
// each field is applied only if explicitly provided.
func UpdateBlockHandler(c echo.Context) error {
	log := logger.Get().WithComponent("block")

	id, err := strconv.ParseInt(c.Param("id"), 10, 64)
	if err != nil {
		return apperrors.RespondWithError(c, apperrors.NewBadRequest(
			apperrors.ErrCodeInvalidInput,
			"Invalid block id.",
		))
	}

	req := new(UpdateBlockRequest)
	if err := c.Bind(req); err != nil {
		return apperrors.RespondWithError(c, apperrors.NewBadRequest(
			apperrors.ErrCodeValidationFailed,
			"Invalid request payload.",
		))
	}

	b, err := getByID(id)
	if err != nil {
		if err == sql.ErrNoRows {
			return apperrors.RespondWithError(c, apperrors.NewNotFound(
				apperrors.ErrCodeBlockNotFound,
				"Block not found.",
			))
		}
		log.Error("Failed to fetch block", err, logger.BlockID(id))
		return apperrors.RespondWithError(c, apperrors.NewInternal(
			apperrors.ErrCodeDatabaseError,
			"Internal server error.",
			err,
		))
	}

	if req.Type != nil {
		b.Type = *req.Type
	}
	if req.Content != nil {
		b.Content = sql.NullString{String: *req.Content, Valid: true}
	}
	if req.Props != nil {
		b.Props = *req.Props
	}
	if req.Position != nil {
		b.Position = *req.Position
	}

	_, err = config.KBDB.Exec(`
		UPDATE blocks SET type = $1, content = $2, props = $3, position = $4, updated_at = $5
		WHERE id = $6
	`, b.Type, b.Content, b.Props, b.Position, time.Now(), id)
	if err != nil {
		log.Error("Failed to update block", err, logger.BlockID(id))
		return apperrors.RespondWithError(c, apperrors.NewInternal(
			apperrors.ErrCodeDatabaseError,
			"Internal server error.",
			err,
		))
	}

	return c.JSON(http.StatusOK, b.out())
}

// DeleteBlockHandler handles DELETE /kb/blocks/:id.
func DeleteBlockHandler(c echo.Context) error {
	log := logger.Get().WithComponent("block")

	id, err := strconv.ParseInt(c.Param("id"), 10, 64)
	if err != nil {
		return apperrors.RespondWithError(c, apperrors.NewBadRequest(
			apperrors.ErrCodeInvalidInput,
			"Invalid block id.",
		))
	}

	res, err := config.KBDB.Exec("DELETE FROM blocks WHERE id = $1", id)
	if err != nil {
		log.Error("Failed to delete block", err, logger.BlockID(id))
		return apperrors.RespondWithError(c, apperrors.NewInternal(
			apperrors.ErrCodeDatabaseError,
			"Internal server error.",
			err,
		))
	}
	affected, _ := res.RowsAffected()
	if affected == 0 {
		return apperrors.RespondWithError(c, apperrors.NewNotFound(
			apperrors.ErrCodeBlockNotFound,
			"Block not found.",
		))
	}

	log.Info("Block deleted", logger.BlockID(id))
	return c.JSON(http.StatusOK, DeleteResponse{OK: true})
}

func getByID(id int64) (*Block, error) {
	var b Block
	err := config.KBDB.Get(&b, "SELECT "+selectColumns+" FROM blocks WHERE id = $1", id)
	if err != nil {
		return nil, err
	}
	return &b, nil
}
