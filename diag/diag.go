// Copyright 2025 The GoGPU Authors
// SPDX-License-Identifier: MIT

// Package diag collects diagnostics produced while compiling a shader unit.
//
// Every stage of the pipeline reports problems into a shared List instead of
// printing and continuing or aborting on its own. Each diagnostic carries a
// Kind, and a Policy decides the Severity of each kind. The caller inspects the
// list afterwards and decides whether to stop: any Error-severity diagnostic
// makes the run fatal.
package diag

import (
	"fmt"
	"strings"
)

// Kind categorizes a diagnostic.
type Kind uint8

const (
	// IncludeNotFound indicates an include directive names a file that cannot be read.
	IncludeNotFound Kind = iota

	// IncludeCycle indicates an included file includes itself, directly or not.
	IncludeCycle

	// MalformedDirective indicates an include directive without exactly one argument.
	MalformedDirective

	// MalformedDeclaration indicates a declaration that is not KEYWORD <type> <name>;.
	MalformedDeclaration

	// DiscardedContent indicates code after a declaration's semicolon that was dropped.
	DiscardedContent

	// UnknownTextureKind indicates a texture or image kind other than 2d, 2darray or 3d.
	UnknownTextureKind

	// EmptyCommonData indicates the shared common data text is empty.
	EmptyCommonData

	// DuplicateSentinel indicates a stage sentinel that occurs more than once.
	DuplicateSentinel

	// UnbalancedStage indicates a stage with only one sentinel, or with END before BEGIN.
	UnbalancedStage

	// DuplicateDeclaration indicates a name declared twice in the same category.
	DuplicateDeclaration

	// ReservedIdentifier indicates a declared name that is reserved by a target language.
	ReservedIdentifier

	// CompilerFailed indicates the external shader compiler did not produce bytecode.
	CompilerFailed

	// VersionTooLow indicates the requested target language version lacks a
	// feature the generated code uses.
	VersionTooLow
)

var kindNames = [...]string{
	IncludeNotFound:      "IncludeNotFound",
	IncludeCycle:         "IncludeCycle",
	MalformedDirective:   "MalformedDirective",
	MalformedDeclaration: "MalformedDeclaration",
	DiscardedContent:     "DiscardedContent",
	UnknownTextureKind:   "UnknownTextureKind",
	EmptyCommonData:      "EmptyCommonData",
	DuplicateSentinel:    "DuplicateSentinel",
	UnbalancedStage:      "UnbalancedStage",
	DuplicateDeclaration: "DuplicateDeclaration",
	ReservedIdentifier:   "ReservedIdentifier",
	CompilerFailed:       "CompilerFailed",
	VersionTooLow:        "VersionTooLow",
}

// String returns a human-readable kind name.
func (k Kind) String() string {
	if int(k) < len(kindNames) {
		return kindNames[k]
	}
	return "Unknown"
}

// Severity is the level a Policy assigns to a Kind.
type Severity uint8

const (
	// Error makes the run fatal.
	Error Severity = iota
	// Warning is reported and the run continues.
	Warning
	// Note is informational.
	Note
)

func (s Severity) String() string {
	switch s {
	case Error:
		return "error"
	case Warning:
		return "warning"
	case Note:
		return "note"
	default:
		return "unknown"
	}
}

// Diagnostic is a single reported problem.
type Diagnostic struct {
	Kind     Kind
	Severity Severity
	File     string // Source file, empty when not tied to a file
	Line     int    // 1-based, 0 when unknown
	Column   int    // 1-based, 0 when unknown
	Message  string
}

// Error formats the diagnostic as file:line:col: severity: message [Kind].
func (d Diagnostic) Error() string {
	var sb strings.Builder
	if d.File != "" {
		sb.WriteString(d.File)
		sb.WriteString(":")
	}
	if d.Line > 0 {
		fmt.Fprintf(&sb, "%d:", d.Line)
		if d.Column > 0 {
			fmt.Fprintf(&sb, "%d:", d.Column)
		}
	}
	if sb.Len() > 0 {
		sb.WriteString(" ")
	}
	fmt.Fprintf(&sb, "%s: %s [%s]", d.Severity, d.Message, d.Kind)
	return sb.String()
}

// Policy maps diagnostic kinds to severities.
type Policy map[Kind]Severity

// DefaultPolicy makes unreadable includes, include cycles and compiler
// failures fatal and everything else a warning.
func DefaultPolicy() Policy {
	return Policy{
		IncludeNotFound: Error,
		IncludeCycle:    Error,
		CompilerFailed:  Error,
	}
}

// StrictPolicy is DefaultPolicy with malformed directives and declarations
// promoted to errors.
func StrictPolicy() Policy {
	p := DefaultPolicy()
	p[MalformedDirective] = Error
	p[MalformedDeclaration] = Error
	return p
}

// Severity returns the severity for k. Kinds missing from the policy are warnings.
func (p Policy) Severity(k Kind) Severity {
	if s, ok := p[k]; ok {
		return s
	}
	return Warning
}

// List accumulates diagnostics. A nil policy means DefaultPolicy.
type List struct {
	policy      Policy
	diagnostics []Diagnostic
	errors      int
}

// NewList creates an empty list that classifies diagnostics with policy.
func NewList(policy Policy) *List {
	if policy == nil {
		policy = DefaultPolicy()
	}
	return &List{policy: policy}
}

// Report adds a diagnostic of kind k. The severity comes from the policy.
func (l *List) Report(k Kind, file string, line, column int, format string, args ...any) {
	if l.policy == nil {
		l.policy = DefaultPolicy()
	}
	l.Add(Diagnostic{
		Kind:     k,
		Severity: l.policy.Severity(k),
		File:     file,
		Line:     line,
		Column:   column,
		Message:  fmt.Sprintf(format, args...),
	})
}

// Add appends d as is.
func (l *List) Add(d Diagnostic) {
	l.diagnostics = append(l.diagnostics, d)
	if d.Severity == Error {
		l.errors++
	}
}

// HasErrors reports whether any Error-severity diagnostic was added.
func (l *List) HasErrors() bool {
	return l.errors > 0
}

// Diagnostics returns all diagnostics in report order.
func (l *List) Diagnostics() []Diagnostic {
	return l.diagnostics
}

// Errors returns only error-level diagnostics.
func (l *List) Errors() []Diagnostic {
	return l.filter(Error)
}

// Warnings returns only warning-level diagnostics.
func (l *List) Warnings() []Diagnostic {
	return l.filter(Warning)
}

// OfKind returns the diagnostics of kind k.
func (l *List) OfKind(k Kind) []Diagnostic {
	var out []Diagnostic
	for _, d := range l.diagnostics {
		if d.Kind == k {
			out = append(out, d)
		}
	}
	return out
}

func (l *List) filter(s Severity) []Diagnostic {
	var out []Diagnostic
	for _, d := range l.diagnostics {
		if d.Severity == s {
			out = append(out, d)
		}
	}
	return out
}

// Len returns the number of diagnostics.
func (l *List) Len() int {
	return len(l.diagnostics)
}

// Err returns an *ErrorList holding the error-level diagnostics, or nil.
func (l *List) Err() error {
	if !l.HasErrors() {
		return nil
	}
	return &ErrorList{Diagnostics: l.Errors()}
}

// ErrorList is returned when a run has fatal diagnostics.
type ErrorList struct {
	Diagnostics []Diagnostic
}

// Error implements the error interface.
func (e *ErrorList) Error() string {
	switch len(e.Diagnostics) {
	case 0:
		return "no errors"
	case 1:
		return e.Diagnostics[0].Error()
	default:
		return fmt.Sprintf("%s (and %d more errors)", e.Diagnostics[0].Error(), len(e.Diagnostics)-1)
	}
}

// Has reports whether the error contains a diagnostic of kind k.
func (e *ErrorList) Has(k Kind) bool {
	for _, d := range e.Diagnostics {
		if d.Kind == k {
			return true
		}
	}
	return false
}
