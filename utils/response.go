package utils

import (
	"fmt"

	"github.com/kataras/iris/v12"
)

type PageMeta struct {
	Page       int   `json:"page"`
	PerPage    int   `json:"per_page"`
	Total      int64 `json:"total"`
	TotalPages int   `json:"total_pages"`
}

// JSONPage writes a paginated envelope with prev/next links relative to
// the current request path.
func JSONPage(ctx iris.Context, data interface{}, page, perPage int, total int64) {
	totalPages := int((total + int64(perPage) - 1) / int64(perPage))

	links := iris.Map{}
	path := ctx.Path()
	if page > 1 {
		links["prev"] = fmt.Sprintf("%s?page=%d&per_page=%d", path, page-1, perPage)
	}
	if page < totalPages {
		links["next"] = fmt.Sprintf("%s?page=%d&per_page=%d", path, page+1, perPage)
	}

	ctx.JSON(iris.Map{
		"data":  data,
		"meta":  PageMeta{Page: page, PerPage: perPage, Total: total, TotalPages: totalPages},
		"links": links,
	})
}

func JSONError(ctx iris.Context, status int, code, message string) {
	ctx.StatusCode(status)
	ctx.JSON(iris.Map{"error": code, "message": message})
}
