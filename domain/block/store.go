package block

import (
	"github.com/coution-app/be-kb-platform/config"
)

const selectColumns = "id, page_id, type, content, props, position, created_at, updated_at"

// ListByPage returns a page's blocks ordered by (position, id), ready for
// output (props normalized to {}).
func ListByPage(pageID int64) ([]BlockOut, error) {
	var blocks []Block
	err := config.KBDB.Select(&blocks,
		"SELECT "+selectColumns+" FROM blocks WHERE page_id = $1 ORDER BY position, id", pageID)
	if err != nil {
		return nil, err
	}

	out := make([]BlockOut, 0, len(blocks))
	for i := range blocks {
		out = append(out, blocks[i].out())
	}
	return out, nil
}
