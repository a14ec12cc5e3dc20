package api

import (
	"fmt"
	"strings"

	"github.com/danielgtaylor/huma/v2"
)

// links maps operation paths to their RFC 8288 Link header values.
// Enables restish hypermedia navigation via `restish links <url>`.
var links = map[string][]string{
	"/health": {
		`</api/v1/info>; rel="info"`,
		`</api/v1/mapstyle>; rel="mapstyle"`,
	},
	"/api/v1/info": {
		`</health>; rel="health"`,
		`</api/v1/mapstyle>; rel="mapstyle"`,
	},
	"/api/v1/mapstyle": {
		`</api/v1/mapstyle/styles>; rel="styles"`,
		`</api/v1/mapstyle/document>; rel="document"`,
		`</api/v1/mapstyle/export>; rel="export"`,
		`</api/v1/mapstyle/snapshots>; rel="snapshots"`,
	},
	"/api/v1/mapstyle/styles": {
		`</api/v1/mapstyle>; rel="mapstyle"`,
		`</api/v1/mapstyle/files>; rel="files"`,
	},
	"/api/v1/mapstyle/style/{id}": {
		`</api/v1/mapstyle/styles>; rel="collection"`,
	},
	"/api/v1/mapstyle/files": {
		`</api/v1/mapstyle/styles>; rel="styles"`,
	},
	"/api/v1/mapstyle/snapshots": {
		`</api/v1/mapstyle>; rel="mapstyle"`,
	},
	"/api/v1/mapstyle/snapshots/{name}": {
		`</api/v1/mapstyle/snapshots>; rel="collection"`,
	},
}

// LinkTransformer returns a Huma Transformer that injects RFC 8288 Link headers.
func LinkTransformer() huma.Transformer {
	return func(ctx huma.Context, status string, v any) (any, error) {
		op := ctx.Operation()
		if op == nil {
			return v, nil
		}

		for _, link := range links[op.Path] {
			ctx.AppendHeader("Link", link)
		}

		if p, ok := v.(Pager); ok {
			for _, link := range p.PaginationLinks(ctx.URL().Path) {
				ctx.AppendHeader("Link", link)
			}
		}

		// Item endpoints get a self link
		if strings.Contains(op.Path, "{") {
			ctx.AppendHeader("Link", fmt.Sprintf(`<%s>; rel="self"`, ctx.URL().Path))
		}

		return v, nil
	}
}
