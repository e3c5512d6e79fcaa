package echoapi

import (
	"strings"

	"github.com/labstack/echo/v4"

	"github.com/findmytutor/findmytutor/core"
	"github.com/findmytutor/findmytutor/core/tutor"
)

const (
	searchParam   = "search"
	orderingParam = "ordering"
)

// listQuery is the tutor list query string, e.g. `?search=math&ordering=-dateJoined,name`.
type listQuery struct {
	Filter    tutor.QueryFilter
	Orderings []core.DBOrdering
}

func bindListQuery(ctx echo.Context) listQuery {
	return listQuery{
		Filter:    tutor.QueryFilter{Search: ctx.QueryParam(searchParam)},
		Orderings: parseOrdering(ctx.QueryParam(orderingParam)),
	}
}

// parseOrdering reads a comma-separated field list; a "-" prefix sorts descending.
// Empty items are skipped and a repeated field keeps its first position.
func parseOrdering(raw string) []core.DBOrdering {
	if strings.TrimSpace(raw) == "" {
		return nil
	}
	var orderings []core.DBOrdering
	seen := make(map[string]bool)
	for _, field := range strings.Split(raw, ",") {
		field = strings.TrimSpace(field)
		descending := strings.HasPrefix(field, "-")
		field = strings.TrimSpace(strings.TrimPrefix(field, "-"))
		if field == "" || seen[field] {
			continue
		}
		seen[field] = true
		orderings = append(orderings, core.DBOrdering{Field: field, Ascending: !descending})
	}
	return orderings
}
