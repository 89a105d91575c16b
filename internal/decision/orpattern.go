package decision

import "ori/internal/typedast"

// expandOrRows replaces every row containing an OrPattern in any column
// with one row per alternative, all sharing the row's ArmIndex (so they
// compile to independent tree branches joining the same arm body, per
// spec.md §4.2). Runs to a fixed point since an alternative can itself
// contain a nested OrPattern.
func expandOrRows(rows []Row) []Row {
	changed := true
	for changed {
		changed = false
		var next []Row
		for _, r := range rows {
			col, or, ok := firstOrPattern(r.Cols)
			if !ok {
				next = append(next, r)
				continue
			}
			changed = true
			for _, alt := range or.Alternatives {
				cols := append([]typedast.Pattern{}, r.Cols...)
				cols[col] = alt
				next = append(next, Row{Cols: cols, ArmIndex: r.ArmIndex, Guarded: r.Guarded, Bound: r.Bound})
			}
		}
		rows = next
	}
	return rows
}

func firstOrPattern(cols []typedast.Pattern) (int, typedast.OrPattern, bool) {
	for i, p := range cols {
		if or, ok := p.(typedast.OrPattern); ok {
			return i, or, true
		}
	}
	return 0, typedast.OrPattern{}, false
}
