package ir

// Module represents one annotated shader unit after declaration extraction.
type Module struct {
	// Declarations holds every well-formed declaration in source order.
	Declarations []Declaration

	// Body holds the pruned source as tagged fragments.
	Body []Fragment

	// Present records which stages have a balanced sentinel pair in Body.
	Present [StageCount]bool
}

// Stage represents a shader stage.
type Stage uint8

const (
	StageVertex Stage = iota
	StageFragment
	StageCompute

	// StageCount is the number of stages.
	StageCount = 3
)

// Stages lists every stage in emission order.
var Stages = [StageCount]Stage{StageVertex, StageFragment, StageCompute}

var stageNames = [StageCount]string{"vertex", "fragment", "compute"}

var stageSentinels = [StageCount][2]string{
	{"VS_BEGIN", "VS_END"},
	{"FS_BEGIN", "FS_END"},
	{"CS_BEGIN", "CS_END"},
}

// String returns the stage name.
func (s Stage) String() string {
	if s < StageCount {
		return stageNames[s]
	}
	return "unknown"
}

// Begin returns the sentinel that opens the stage's region.
func (s Stage) Begin() string {
	return stageSentinels[s][0]
}

// End returns the sentinel that closes the stage's region.
func (s Stage) End() string {
	return stageSentinels[s][1]
}

// LookupSentinel maps a sentinel word to its stage. begin is false for END sentinels.
func LookupSentinel(word string) (stage Stage, begin bool, ok bool) {
	for i, pair := range stageSentinels {
		switch word {
		case pair[0]:
			return Stage(i), true, true
		case pair[1]:
			return Stage(i), false, true
		}
	}
	return 0, false, false
}

// Category identifies the kind of symbol a declaration introduces.
type Category uint8

const (
	CategoryUniform      Category = iota // uniform-block member (u_in)
	CategoryVertexInput                  // vertex input attribute (v_in)
	CategoryVertexOutput                 // vertex output / fragment input (v_out)
	CategoryImage                        // compute read/write image (cs_in)
	CategoryTexture                      // sampled texture (in_texture)

	// CategoryCount is the number of categories.
	CategoryCount = 5
)

// Categories lists the categories in matching priority order.
var Categories = [CategoryCount]Category{
	CategoryUniform,
	CategoryVertexInput,
	CategoryVertexOutput,
	CategoryImage,
	CategoryTexture,
}

var categoryKeywords = [CategoryCount]string{"u_in", "v_in", "v_out", "cs_in", "in_texture"}

// Keyword returns the annotation keyword that introduces the category.
func (c Category) Keyword() string {
	if c < CategoryCount {
		return categoryKeywords[c]
	}
	return ""
}

// String returns the keyword, which is also the category's name in messages.
func (c Category) String() string {
	return c.Keyword()
}

// LookupKeyword maps an annotation keyword to its category.
func LookupKeyword(word string) (Category, bool) {
	for _, c := range Categories {
		if categoryKeywords[c] == word {
			return c, true
		}
	}
	return 0, false
}

// Declaration is a typed symbol extracted from a KEYWORD <type> <name>; line.
// For images and textures Type holds the texture kind as written.
type Declaration struct {
	Category Category
	Type     string
	Name     string

	// File and Line locate the declaration in the original sources.
	File string
	Line int
}

// FragmentKind tags a body fragment.
type FragmentKind uint8

const (
	// FragmentText is verbatim source text.
	FragmentText FragmentKind = iota

	// FragmentBegin is the begin sentinel of Stage.
	FragmentBegin

	// FragmentEnd is the end sentinel of Stage.
	FragmentEnd

	// FragmentCommonData is the //!COMMON_DATA insertion marker.
	FragmentCommonData
)

// CommonDataMarker is the comment that marks where common data is inserted.
const CommonDataMarker = "//!COMMON_DATA"

// Fragment is one piece of the pruned body.
type Fragment struct {
	Kind  FragmentKind
	Stage Stage  // For FragmentBegin and FragmentEnd
	Text  string // For FragmentText; the original spelling for markers
}

// HasStage reports whether stage s has a balanced region.
func (m *Module) HasStage(s Stage) bool {
	return s < StageCount && m.Present[s]
}

// PresentStages returns the present stages in emission order.
func (m *Module) PresentStages() []Stage {
	var out []Stage
	for _, s := range Stages {
		if m.Present[s] {
			out = append(out, s)
		}
	}
	return out
}

// Unit is the input of a backend: one module, its layout and the common data.
type Unit struct {
	// Name identifies the unit in diagnostics, usually the source path.
	Name string

	Module *Module
	Layout *Layout

	// CommonData is the shared text every generated source embeds.
	CommonData string
}
