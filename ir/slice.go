package ir

// Slice returns the body as seen by stage s.
//
// The regions of every other present stage, from its begin sentinel through
// its end sentinel, are excised. The fragments of s itself, including its two
// sentinels, text shared by all stages and common-data markers are kept in
// order. Regions are assumed not to overlap, so the order in which the other
// stages are excised does not matter.
func (m *Module) Slice(s Stage) []Fragment {
	out := make([]Fragment, 0, len(m.Body))
	skipping := false
	var skipped Stage

	for _, f := range m.Body {
		if skipping {
			if f.Kind == FragmentEnd && f.Stage == skipped {
				skipping = false
			}
			continue
		}
		if f.Kind == FragmentBegin && f.Stage != s && m.HasStage(f.Stage) {
			skipping = true
			skipped = f.Stage
			continue
		}
		out = append(out, f)
	}
	return out
}

// Region returns the fragments strictly between the sentinels of stage s,
// or nil if s is not present.
func (m *Module) Region(s Stage) []Fragment {
	if !m.HasStage(s) {
		return nil
	}
	var out []Fragment
	inside := false
	for _, f := range m.Body {
		switch {
		case f.Kind == FragmentBegin && f.Stage == s:
			inside = true
		case f.Kind == FragmentEnd && f.Stage == s:
			return out
		case inside:
			out = append(out, f)
		}
	}
	return out
}

// PlainText concatenates fragments, writing sentinels and markers with their
// original spelling.
func PlainText(frags []Fragment) string {
	n := 0
	for _, f := range frags {
		n += len(f.Text)
	}
	buf := make([]byte, 0, n)
	for _, f := range frags {
		buf = append(buf, f.Text...)
	}
	return string(buf)
}
