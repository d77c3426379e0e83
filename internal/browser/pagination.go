// internal/browser/pagination.go
//
// Page-structure probes run over a snapshot: pagination candidates and the
// iframe inventory. Pure functions over the parsed DOM; the host decides what
// to do with the findings.
package browser

import (
	"math"
	"strings"

	"golang.org/x/net/html"

	"github.com/18999029117-create/weaver/api/schemas"
	"github.com/18999029117-create/weaver/internal/analyzer/locator"
	"github.com/18999029117-create/weaver/internal/dom"
)

// paginationKeywords match the visible text of next-page controls, CJK
// variants first since the latin ones need case folding.
var paginationKeywords = []string{
	"下一页", "下页", "next", "next page", "»", ">", "更多", "加载更多", "load more",
}

var paginationTags = map[string]bool{
	"a": true, "button": true, "li": true, "span": true,
}

// DetectPagination returns the controls on the page that look like next-page
// triggers: clickable tags whose trimmed text matches a keyword and that are
// currently rendered and not disabled.
func DetectPagination(doc *dom.Document) []schemas.PaginationCandidate {
	candidates := []schemas.PaginationCandidate{}
	dom.DescendantsSkip(doc.Root, func(n *html.Node) bool {
		if !paginationTags[dom.Tag(n)] {
			return true
		}
		text := strings.TrimSpace(dom.InnerText(n))
		if text == "" || len([]rune(text)) > 12 || !matchesPaginationKeyword(text) {
			return true
		}
		if dom.HasAttr(n, "disabled") || dom.HasClassContaining(n, "disabled") {
			return true
		}
		if !doc.Style(n).Visible() {
			return true
		}
		candidates = append(candidates, schemas.PaginationCandidate{
			Text:      text,
			Tag:       dom.Tag(n),
			DOMID:     dom.ID(n),
			ClassName: dom.Attr(n, "class"),
			XPath:     locator.PositionalXPath(n),
		})
		// A matched control's children would match again on the same text;
		// skip its subtree and keep walking the rest of the page.
		return false
	})
	return candidates
}

func matchesPaginationKeyword(text string) bool {
	folded := strings.ToLower(text)
	for _, kw := range paginationKeywords {
		if folded == kw || strings.HasPrefix(folded, kw+" ") {
			return true
		}
	}
	return false
}

// DetectIframes inventories every iframe in the snapshot so the host can
// decide frame targeting before a scan; the engine itself never crosses frame
// boundaries.
func DetectIframes(doc *dom.Document) []schemas.IframeInfo {
	frames := []schemas.IframeInfo{}
	dom.Descendants(doc.Root, func(n *html.Node) bool {
		if dom.Tag(n) != "iframe" {
			return true
		}
		info := schemas.IframeInfo{
			Index:     len(frames),
			DOMID:     dom.ID(n),
			Name:      dom.Attr(n, "name"),
			Src:       dom.Attr(n, "src"),
			ClassName: dom.Attr(n, "class"),
		}
		if box, ok := doc.BoundingBox(n); ok {
			info.Rect = schemas.Rect{
				X:      int(math.Round(box.X)),
				Y:      int(math.Round(box.Y)),
				Width:  int(math.Round(box.Width)),
				Height: int(math.Round(box.Height)),
			}
		}
		frames = append(frames, info)
		return true
	})
	return frames
}
