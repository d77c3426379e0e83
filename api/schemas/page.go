// api/schemas/page.go
package schemas

// PaginationCandidate describes one control on the page that looks like a
// next-page trigger. The engine only reports candidates; deciding whether and
// when to paginate belongs to the host.
type PaginationCandidate struct {
	Text      string `json:"text"`
	Tag       string `json:"tagName"`
	DOMID     string `json:"id"`
	ClassName string `json:"className"`
	XPath     string `json:"xpath"`
}

// IframeInfo is one entry of the page's iframe inventory, used by the host to
// decide frame targeting before a scan.
type IframeInfo struct {
	Index     int    `json:"index"`
	DOMID     string `json:"id"`
	Name      string `json:"name"`
	Src       string `json:"src"`
	ClassName string `json:"className"`
	Rect      Rect   `json:"rect"`
}
