package grid

// ApplyCopy appends rows copied from another week onto the existing grid.
// Nothing is merged or overwritten, even when a copied row duplicates an
// existing (project, activity) pair; reconciling duplicates is left to the
// user. Blank placeholder rows in the existing grid are dropped so the
// caller can re-append a single trailing one.
func ApplyCopy(existing, copied []Row) []Row {
	out := make([]Row, 0, len(existing)+len(copied))

	for _, r := range existing {
		if r.Blank() {
			continue
		}
		out = append(out, r)
	}

	for _, r := range copied {
		r.OrderIndex = len(out)
		out = append(out, r)
	}

	return out
}
