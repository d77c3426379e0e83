// api/schemas/fingerprint.go
package schemas

import "time"

// SelectorKind identifies the locator language a Selector is written in.
type SelectorKind string

const (
	SelectorID    SelectorKind = "id"
	SelectorCSS   SelectorKind = "css"
	SelectorXPath SelectorKind = "xpath"
)

// Selector is one independently re-resolvable locator for an element.
// Confidence is a rank, not a probability: lower ranks were produced by more
// reliable strategies and should be retried first.
type Selector struct {
	Kind       SelectorKind `json:"kind"`
	Value      string       `json:"value"`
	Confidence int          `json:"confidence"`
}

// LabelSource names the strategy that produced a label, in decreasing order of
// reliability.
type LabelSource string

const (
	LabelExplicitFor    LabelSource = "explicit-for"
	LabelWrapping       LabelSource = "wrapping-label"
	LabelAria           LabelSource = "aria-label"
	LabelAriaLabelledBy LabelSource = "aria-labelledby"
	LabelSibling        LabelSource = "adjacent-sibling"
	LabelFormItem       LabelSource = "framework-form-item"
	LabelTableHeader    LabelSource = "table-header"
	LabelProximity      LabelSource = "visual-proximity"
	LabelFallback       LabelSource = "placeholder-fallback"
)

// Label is the inferred human-readable name of an element. Text is never empty
// unless every strategy, including the placeholder/name/id fallback, came up dry.
type Label struct {
	Text   string      `json:"text"`
	Source LabelSource `json:"source"`
}

// Rect is a viewport-relative bounding box, integer-rounded.
type Rect struct {
	X      int `json:"x"`
	Y      int `json:"y"`
	Width  int `json:"width"`
	Height int `json:"height"`
}

// TableContext records table membership for elements inside a <td>/<th>.
// Indices are 0-based DOM ordinals, not user-facing numbering.
type TableContext struct {
	RowIndex   int    `json:"rowIndex"`
	ColIndex   int    `json:"colIndex"`
	TableID    string `json:"tableId"`
	HeaderText string `json:"headerText"`
}

// ElementState mirrors the element's DOM state at capture time.
type ElementState struct {
	Disabled bool `json:"disabled"`
	Readonly bool `json:"readonly"`
	Required bool `json:"required"`
}

// Fingerprint is a portable, multi-selector description of one interactive
// element, sufficient to relocate it after markup churn. Fingerprints are
// immutable once assembled; they are created fresh on every scan and never
// persisted by the engine.
type Fingerprint struct {
	// Index is the element's ordinal within its scan batch.
	Index int `json:"index"`

	// Selectors is ordered: Selectors[0] is the primary locator, the rest are
	// fallbacks tried in order. Re-resolving Selectors[0] against the same DOM
	// snapshot returns exactly the captured node.
	Selectors []Selector `json:"selectors"`

	Tag          string   `json:"tagName"`
	InputKind    string   `json:"type"`
	Name         string   `json:"name"`
	DOMID        string   `json:"id"`
	ClassList    []string `json:"classList,omitempty"`
	Placeholder  string   `json:"placeholder"`
	CurrentValue string   `json:"value"`

	Label    Label `json:"label"`
	Geometry Rect  `json:"rect"`

	// TableContext and DialogTitle are independent; either, both, or neither
	// may be present.
	TableContext *TableContext `json:"tableContext,omitempty"`
	DialogTitle  string        `json:"dialogContext,omitempty"`

	// ShadowDepth counts shadow-root boundaries crossed to reach the element.
	ShadowDepth int `json:"shadowDepth"`

	State ElementState `json:"state"`

	// IsAutocompleteOption marks records harvested from transient dropdown or
	// suggestion panels. AssociatedInput then points back at the input the
	// panel belongs to.
	IsAutocompleteOption bool   `json:"isAutocompleteOption,omitempty"`
	AssociatedInput      string `json:"associatedInput,omitempty"`
	OptionText           string `json:"optionText,omitempty"`

	// CapturedAt is a staleness diagnostic only; it never participates in
	// element identity.
	CapturedAt time.Time `json:"capturedAt"`
}

// PrimarySelector returns the strongest locator, or a zero Selector if the
// fingerprint carries none (a detached node that should have been skipped).
func (f *Fingerprint) PrimarySelector() Selector {
	if len(f.Selectors) == 0 {
		return Selector{}
	}
	return f.Selectors[0]
}

// ScanStatus tags the outcome of a full-page scan.
type ScanStatus string

const (
	ScanOK      ScanStatus = "ok"
	ScanLoading ScanStatus = "loading"
	ScanError   ScanStatus = "error"
)

// ScanResult is the single synchronous answer of the batch scanner. Exactly one
// of the three shapes is populated: elements on ok, Loader on loading, and
// Error/Stack on error. Elements is never nil on ok, so an empty page encodes
// as an empty array rather than null.
type ScanResult struct {
	Status   ScanStatus    `json:"status"`
	BatchID  string        `json:"batchId,omitempty"`
	Elements []Fingerprint `json:"elements"`
	Loader   string        `json:"loader,omitempty"`
	Error    string        `json:"error,omitempty"`
	Stack    string        `json:"stack,omitempty"`
}

// SiblingRef is a compact descriptor of one same-column or same-name sibling of
// a picked element, enough for downstream "apply to whole column" operations.
type SiblingRef struct {
	Selectors   []Selector `json:"selectors"`
	DOMID       string     `json:"id"`
	Placeholder string     `json:"placeholder"`
}

// PickResult is the payload of an interactive pick: the fingerprint of the
// committed element plus its sibling/column context.
type PickResult struct {
	Fingerprint

	// ParentHeader is the result of the dedicated header-text search run at
	// commit time; consumers prefer it when the inferred label is a generic
	// prompt.
	ParentHeader string `json:"parentHeader,omitempty"`

	HasSiblings  bool         `json:"hasSiblings"`
	SiblingCount int          `json:"siblingCount"`
	Siblings     []SiblingRef `json:"siblingInputs,omitempty"`
}
