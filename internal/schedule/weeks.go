package schedule

import (
	"sort"

	"plan2ics/internal/model"
)

// GroupWeeks buckets the table's dates by their Monday. Buckets are ordered
// by Monday, member dates ascending, subjects sorted and distinct.
func GroupWeeks(table model.ScheduleTable) []model.WeekBucket {
	byMonday := make(map[model.Date]*model.WeekBucket)
	subjects := make(map[model.Date]map[string]struct{})

	for _, d := range table.Dates() {
		mon := d.Monday()
		b, ok := byMonday[mon]
		if !ok {
			b = &model.WeekBucket{Monday: mon}
			byMonday[mon] = b
			subjects[mon] = make(map[string]struct{})
		}
		b.Dates = append(b.Dates, d)
		for _, s := range table[d].Subjects {
			subjects[mon][s] = struct{}{}
		}
	}

	out := make([]model.WeekBucket, 0, len(byMonday))
	for mon, b := range byMonday {
		for s := range subjects[mon] {
			b.Subjects = append(b.Subjects, s)
		}
		sort.Strings(b.Subjects)
		out = append(out, *b)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Monday.Before(out[j].Monday) })
	return out
}

// DatesIn returns the table's dates inside the week starting at monday.
func DatesIn(table model.ScheduleTable, monday model.Date) []model.Date {
	w := model.WeekBucket{Monday: monday}
	var out []model.Date
	for _, d := range table.Dates() {
		if w.Contains(d) {
			out = append(out, d)
		}
	}
	return out
}
