package product

// FlatRow is one flattened ingredient row. Nested blend children carry a
// back-reference to the blend that declared them.
type FlatRow struct {
	Row         Row
	ParentBlend string
	IsNested    bool
}

// FlattenRows expands nested blend children into one ordered sequence, each
// parent immediately followed by its children, depth first. Traversal uses an
// explicit stack so pathological nesting depth cannot blow the goroutine
// stack, and the input rows are never modified.
func FlattenRows(rows []Row) []FlatRow {
	type frame struct {
		row    Row
		parent string
		nested bool
	}
	stack := make([]frame, 0, len(rows))
	for i := len(rows) - 1; i >= 0; i-- {
		stack = append(stack, frame{row: rows[i]})
	}

	out := make([]FlatRow, 0, len(rows))
	for len(stack) > 0 {
		top := stack[len(stack)-1]
		stack = stack[:len(stack)-1]
		out = append(out, FlatRow{Row: top.row, ParentBlend: top.parent, IsNested: top.nested})

		parentName := top.row.Name
		if parentName == "" {
			parentName = "Unknown Blend"
		}
		for i := len(top.row.Nested) - 1; i >= 0; i-- {
			stack = append(stack, frame{row: top.row.Nested[i], parent: parentName, nested: true})
		}
	}
	return out
}
