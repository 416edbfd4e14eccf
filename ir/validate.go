package ir

import (
	"fmt"
)

// ValidationError represents a structural problem in a Module.
type ValidationError struct {
	Message string
	// Optional context
	Stage    *Stage
	Fragment int
}

// Error implements the error interface.
func (e ValidationError) Error() string {
	if e.Stage != nil {
		if e.Fragment >= 0 {
			return fmt.Sprintf("stage %s, fragment %d: %s", *e.Stage, e.Fragment, e.Message)
		}
		return fmt.Sprintf("stage %s: %s", *e.Stage, e.Message)
	}
	return e.Message
}

// Validate checks the invariants backends rely on:
//   - every present stage has exactly one begin and one end fragment, in that order
//   - absent stages have no sentinel fragments
//   - stage regions do not overlap
//
// Returns validation errors if any, or nil if the module is valid.
func Validate(module *Module) ([]ValidationError, error) {
	if module == nil {
		return nil, fmt.Errorf("module is nil")
	}

	var errs []ValidationError
	var begins, ends [StageCount]int
	open := -1

	for i, f := range module.Body {
		if f.Kind != FragmentBegin && f.Kind != FragmentEnd {
			continue
		}
		stage := f.Stage
		if stage >= StageCount {
			errs = append(errs, ValidationError{Message: fmt.Sprintf("invalid stage %d", stage), Fragment: i})
			continue
		}
		if !module.Present[stage] {
			errs = append(errs, ValidationError{Message: "sentinel of absent stage", Stage: &stage, Fragment: i})
			continue
		}

		if f.Kind == FragmentBegin {
			begins[stage]++
			if open >= 0 {
				errs = append(errs, ValidationError{
					Message:  fmt.Sprintf("region overlaps stage %s", Stage(open)),
					Stage:    &stage,
					Fragment: i,
				})
			}
			open = int(stage)
			continue
		}

		ends[stage]++
		if begins[stage] == 0 {
			errs = append(errs, ValidationError{Message: "end before begin", Stage: &stage, Fragment: i})
		}
		if open == int(stage) {
			open = -1
		}
	}

	for _, s := range Stages {
		if !module.Present[s] {
			continue
		}
		stage := s
		if begins[s] != 1 || ends[s] != 1 {
			errs = append(errs, ValidationError{
				Message:  fmt.Sprintf("want one begin and one end, got %d and %d", begins[s], ends[s]),
				Stage:    &stage,
				Fragment: -1,
			})
		}
	}

	return errs, nil
}
