// Package ir defines the intermediate representation shared by the psc backends.
//
// The IR is deliberately small. psc never parses the shading language itself;
// it only understands the annotation dialect around it. The IR therefore holds:
//   - Declarations: typed symbols extracted from annotation lines, in source order
//   - Body: the remaining text as tagged fragments (text, stage sentinels, the
//     common-data marker)
//   - Layout: the binding plan derived from the declarations
//
// # Structure
//
// A Module is produced by the dialect parser. NewLayout turns its declarations
// into a Layout, where every binding carries a dense index starting at 0. A
// Unit bundles the module, its layout and the shared common-data text; it is
// the input of every backend.
//
// # Translation Pipeline
//
//	Source (annotated) → includes resolved → Module → Layout → Target (GLSL/MSL)
//
// Binding indices are assigned purely by position in the Layout, so every
// backend rendering the same Unit produces positionally identical resource
// layouts even though the binding mechanisms differ.
package ir
