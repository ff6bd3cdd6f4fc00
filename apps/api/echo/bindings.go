package echoapi

import (
	"strings"

	"github.com/labstack/echo/v4"

	"github.com/trezcool/soma/core"
)

const orderingParam = "ordering"

// bindOrdering reads `?ordering=title,-created_at` (the param may be repeated).
// A leading "-" sorts descending; blank entries are skipped and the first occurrence of a field wins.
func bindOrdering(ctx echo.Context) []core.DBOrdering {
	var ords []core.DBOrdering
	seen := make(map[string]struct{})

	for _, val := range ctx.QueryParams()[orderingParam] {
		for _, field := range strings.Split(val, ",") {
			field = strings.TrimSpace(field)
			ascending := !strings.HasPrefix(field, "-")
			field = strings.ToLower(strings.TrimSpace(strings.TrimPrefix(field, "-")))
			if field == "" {
				continue
			}
			if _, ok := seen[field]; ok {
				continue
			}
			seen[field] = struct{}{}
			ords = append(ords, core.DBOrdering{Field: field, Ascending: ascending})
		}
	}
	return ords
}
