package grid

// Dirty reports whether the grid holds meaningful unsaved input: at least
// one row with a project or activity selected, or at least one non-zero
// time value. Empty placeholder rows never count.
func Dirty(rows []Row) bool {
	for _, r := range rows {
		if r.Project != "" || r.ActivityType != "" {
			return true
		}
		if r.Total() > 0 {
			return true
		}
	}
	return false
}
