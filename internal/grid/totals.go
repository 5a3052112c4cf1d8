package grid

// Totals are the derived aggregates of a grid. They are recomputed from
// scratch after every edit; nothing is maintained incrementally.
type Totals struct {
	PerRow      []float64
	PerDay      [DaysPerWeek]float64
	Week        float64
	Billable    float64
	NonBillable float64
}

// Calculate derives all grid aggregates. The billable split follows each
// day's billable flag, not the row-level one.
func Calculate(rows []Row) Totals {
	t := Totals{PerRow: make([]float64, len(rows))}

	for i, row := range rows {
		for day, hours := range row.DailyHours {
			t.PerRow[i] += hours
			t.PerDay[day] += hours
			if row.Billable[day] == 1 {
				t.Billable += hours
			} else {
				t.NonBillable += hours
			}
		}
		t.Week += t.PerRow[i]
	}

	return t
}
