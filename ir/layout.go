package ir

import "github.com/gogpu/psc/diag"

// TextureKind is the dimensionality of a texture or compute image.
type TextureKind uint8

const (
	Texture2D TextureKind = iota
	Texture2DArray
	Texture3D
)

var textureKindNames = [...]string{
	Texture2D:      "2d",
	Texture2DArray: "2darray",
	Texture3D:      "3d",
}

// String returns the kind as spelled in the dialect.
func (k TextureKind) String() string {
	if int(k) < len(textureKindNames) {
		return textureKindNames[k]
	}
	return "unknown"
}

// ParseTextureKind parses 2d, 2darray or 3d.
func ParseTextureKind(s string) (TextureKind, bool) {
	for k, name := range textureKindNames {
		if name == s {
			return TextureKind(k), true
		}
	}
	return Texture2D, false
}

// Binding is a declaration with its assigned position.
type Binding struct {
	Declaration

	// Index is the dense, zero-based position within the category.
	// It becomes the location, binding, attribute or texture slot.
	Index uint32

	// Kind is the resolved texture kind for images and textures.
	Kind TextureKind
}

// Layout is the binding plan shared by all backends.
type Layout struct {
	Uniforms      []Binding
	VertexInputs  []Binding
	VertexOutputs []Binding
	Images        []Binding
	Textures      []Binding
}

// NewLayout assigns indices to the module's declarations in source order.
//
// Unknown texture kinds fall back to Texture2D and report UnknownTextureKind.
// A name declared twice in one category reports DuplicateDeclaration; both
// declarations keep their positions.
func NewLayout(m *Module, diags *diag.List) *Layout {
	l := &Layout{}
	seen := make(map[Category]map[string]Declaration, CategoryCount)

	for _, d := range m.Declarations {
		if seen[d.Category] == nil {
			seen[d.Category] = make(map[string]Declaration)
		}
		if prev, dup := seen[d.Category][d.Name]; dup && diags != nil {
			diags.Report(diag.DuplicateDeclaration, d.File, d.Line, 0,
				"%s %q already declared at line %d", d.Category, d.Name, prev.Line)
		} else if !dup {
			seen[d.Category][d.Name] = d
		}

		list := l.list(d.Category)
		b := Binding{Declaration: d, Index: uint32(len(*list))} //nolint:gosec // G115: declaration count fits uint32
		if d.Category == CategoryImage || d.Category == CategoryTexture {
			kind, ok := ParseTextureKind(d.Type)
			if !ok && diags != nil {
				diags.Report(diag.UnknownTextureKind, d.File, d.Line, 0,
					"unknown texture type: %s, defaulting to 2d", d.Type)
			}
			b.Kind = kind
		}
		*list = append(*list, b)
	}
	return l
}

// Category returns the bindings of category c.
func (l *Layout) Category(c Category) []Binding {
	return *l.list(c)
}

// Len returns the total number of bindings.
func (l *Layout) Len() int {
	n := 0
	for _, c := range Categories {
		n += len(l.Category(c))
	}
	return n
}

func (l *Layout) list(c Category) *[]Binding {
	switch c {
	case CategoryUniform:
		return &l.Uniforms
	case CategoryVertexInput:
		return &l.VertexInputs
	case CategoryVertexOutput:
		return &l.VertexOutputs
	case CategoryImage:
		return &l.Images
	default:
		return &l.Textures
	}
}
