package dialect

import (
	"os"
	"path/filepath"
	"strings"

	"github.com/gogpu/psc/diag"
)

// IncludeKeyword starts an include directive at column 0.
const IncludeKeyword = "#include"

// Origin locates a line of resolved text in the original files.
type Origin struct {
	File string
	Line int
}

// Source is shader text after include resolution.
type Source struct {
	Text string

	// origins[i] is the origin of line i+1 of Text.
	origins []Origin
}

// NewSource wraps text that needs no include resolution. Every line maps to
// the same line of file.
func NewSource(text, file string) *Source {
	n := strings.Count(text, "\n") + 1
	origins := make([]Origin, n)
	for i := range origins {
		origins[i] = Origin{File: file, Line: i + 1}
	}
	return &Source{Text: text, origins: origins}
}

// Origin returns where line (1-based) of Text came from. Lines outside the
// text map to an empty origin carrying only the line number.
func (s *Source) Origin(line int) Origin {
	if line >= 1 && line <= len(s.origins) {
		return s.origins[line-1]
	}
	return Origin{Line: line}
}

// Resolver inlines include directives.
//
// A directive is a line that begins with #include followed by exactly one
// argument. The argument names a file relative to Dir; "name" and <name> are
// unwrapped. The line is replaced by the file's contents plus a newline.
type Resolver struct {
	// Dir is the include directory.
	Dir string

	// MaxDepth is how many levels of directives are expanded. 1 expands the
	// unit's own directives and leaves included text unscanned. Zero means 1.
	MaxDepth int

	// ReadFile reads an include. Nil means os.ReadFile.
	ReadFile func(name string) ([]byte, error)

	// Diags receives MalformedDirective, IncludeNotFound and IncludeCycle.
	Diags *diag.List
}

// Resolve expands the directives in source, whose name is origin.
//
// Malformed directives and unreadable includes are reported and their lines
// dropped; the rest of the text is still resolved.
func (r *Resolver) Resolve(source, origin string) *Source {
	depth := r.MaxDepth
	if depth <= 0 {
		depth = 1
	}
	out := &resolved{}
	r.resolve(out, source, origin, depth, []string{r.key(origin)})
	return &Source{Text: out.text.String(), origins: out.finish()}
}

type resolved struct {
	text    strings.Builder
	origins []Origin
	// partial is the origin of the current line when it has no newline yet.
	partial *Origin
}

func (o *resolved) write(text string, origin Origin) {
	if text == "" {
		return
	}
	if o.partial == nil {
		first := origin
		o.partial = &first
	}
	o.text.WriteString(text)
	for i := 0; i < strings.Count(text, "\n"); i++ {
		o.origins = append(o.origins, *o.partial)
		origin.Line++
		next := origin
		o.partial = &next
	}
	if strings.HasSuffix(text, "\n") {
		o.partial = nil
	}
}

// writeFile copies text whose first line is line 1 of file.
func (o *resolved) writeFile(text, file string) {
	line := 1
	for _, l := range strings.SplitAfter(text, "\n") {
		o.write(l, Origin{File: file, Line: line})
		line++
	}
}

func (o *resolved) finish() []Origin {
	if o.partial != nil {
		return append(o.origins, *o.partial)
	}
	// The empty line after a trailing newline.
	last := Origin{}
	if n := len(o.origins); n > 0 {
		last = o.origins[n-1]
		last.Line++
	}
	return append(o.origins, last)
}

func (r *Resolver) resolve(out *resolved, source, file string, depth int, stack []string) {
	for i, line := range strings.SplitAfter(source, "\n") {
		lineNo := i + 1
		if !isDirective(line) {
			out.write(line, Origin{File: file, Line: lineNo})
			continue
		}

		args := strings.Fields(line)
		if len(args) != 2 {
			r.report(diag.MalformedDirective, file, lineNo,
				"wrong usage of '%s': want one argument, got %d", IncludeKeyword, len(args)-1)
			continue
		}

		name := unwrapIncludeName(args[1])
		path := filepath.Join(r.Dir, name)
		key := r.key(path)
		if depth > 1 && contains(stack, key) {
			r.report(diag.IncludeCycle, file, lineNo, "%s includes itself", name)
			continue
		}

		data, err := r.read(path)
		if err != nil {
			r.report(diag.IncludeNotFound, file, lineNo, "cannot read include %s: %v", name, err)
			continue
		}

		text := string(data) + "\n"
		if depth > 1 {
			r.resolve(out, text, path, depth-1, append(stack, key))
		} else {
			out.writeFile(text, path)
		}
	}
}

func (r *Resolver) read(path string) ([]byte, error) {
	if r.ReadFile != nil {
		return r.ReadFile(path)
	}
	return os.ReadFile(path)
}

func (r *Resolver) report(k diag.Kind, file string, line int, format string, args ...any) {
	if r.Diags != nil {
		r.Diags.Report(k, file, line, 1, format, args...)
	}
}

// key identifies a file for cycle detection.
func (r *Resolver) key(path string) string {
	if r.ReadFile == nil {
		if abs, err := filepath.Abs(path); err == nil {
			return abs
		}
	}
	return filepath.Clean(path)
}

// isDirective reports whether line starts with the include keyword as a
// whole word.
func isDirective(line string) bool {
	if !strings.HasPrefix(line, IncludeKeyword) {
		return false
	}
	rest := line[len(IncludeKeyword):]
	return rest == "" || isSpace(rest[0]) || rest[0] == '\n'
}

func unwrapIncludeName(name string) string {
	if len(name) >= 2 {
		first, last := name[0], name[len(name)-1]
		if (first == '"' && last == '"') || (first == '<' && last == '>') {
			return name[1 : len(name)-1]
		}
	}
	return name
}

func contains(list []string, s string) bool {
	for _, v := range list {
		if v == s {
			return true
		}
	}
	return false
}
