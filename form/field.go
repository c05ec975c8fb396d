package form

import (
	"maps"
	"slices"
	"strconv"

	"github.com/vk/jsonform/expr"
	"github.com/vk/jsonform/field"
	"github.com/vk/jsonform/keypath"
	"github.com/vk/jsonform/validation"
)

// ID identifies a field within one Store. IDs are never reused.
type ID uint64

// Root is the parent ID of top-level fields.
const Root ID = 0

// Field is a read-only copy of one resolved field.
type Field struct {
	ID       ID     `json:"id"`
	ParentID ID     `json:"parentId,omitempty"`
	Name     string `json:"name,omitempty"`
	Type     string `json:"type,omitempty"`
	// KeyPath is the canonical form of Path, empty for unbound fields at the root.
	KeyPath string       `json:"keyPath,omitempty"`
	Path    keypath.Path `json:"-"`
	// Bound is false for fields without a name of their own; such fields
	// share their parent's key-path and have no control.
	Bound    bool           `json:"bound"`
	Wrapper  []string       `json:"wrapper,omitempty"`
	GroupIDs []ID           `json:"groupIds,omitempty"`
	IsArray  bool           `json:"isArray,omitempty"`
	Hide     bool           `json:"hide,omitempty"`
	Disabled bool           `json:"disabled,omitempty"`
	Required bool           `json:"required,omitempty"`
	Readonly bool           `json:"readonly,omitempty"`
	Props    map[string]any `json:"props,omitempty"`

	Raw *field.Field `json:"-"`
}

// node is the engine-owned state of one field.
type node struct {
	id     ID
	parent ID
	raw    *field.Field
	fp     uint64

	// segs is the parsed name; index >= 0 marks an array element.
	segs  keypath.Path
	index int
	path  keypath.Path

	children []ID

	compiled *expr.Compiled
	ownHide  bool
	ownProps map[string]any

	hide     bool
	disabled bool
	required bool
	readonly bool
	props    map[string]any

	implied      []string
	routine      validation.Routine
	routineGen   uint64
	resolved     bool
	registered   bool
	registeredAt keypath.Path
	registeredAs uint64

	shadowed bool
	// fresh nodes have not been through a recompute pass yet.
	fresh bool
}

func (n *node) bound() bool {
	return n.index >= 0 || len(n.segs) > 0
}

func (n *node) isArray() bool {
	return n.raw.Array != nil
}

func (n *node) name() string {
	if n.index >= 0 {
		return strconv.Itoa(n.index)
	}
	return n.raw.Name
}

func (n *node) snapshot() Field {
	f := Field{
		ID:       n.id,
		ParentID: n.parent,
		Name:     n.name(),
		Type:     n.raw.Type,
		KeyPath:  n.path.String(),
		Path:     slices.Clone(n.path),
		Bound:    n.bound(),
		Wrapper:  slices.Clone(n.raw.Wrapper),
		GroupIDs: slices.Clone(n.children),
		IsArray:  n.isArray(),
		Hide:     n.hide,
		Disabled: n.disabled,
		Required: n.required,
		Readonly: n.readonly,
		Props:    maps.Clone(n.props),
		Raw:      n.raw,
	}
	if f.IsArray && f.GroupIDs == nil {
		f.GroupIDs = []ID{}
	}
	return f
}
