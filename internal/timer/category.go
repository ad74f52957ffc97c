package timer

import "sort"

// AllCategories is the filter value that matches every timer.
const AllCategories = "All"

// Categories returns the distinct categories present in timers, sorted.
func Categories(timers []Timer) []string {
	seen := make(map[string]struct{}, len(timers))
	out := make([]string, 0, len(timers))
	for _, t := range timers {
		if _, ok := seen[t.Category]; ok {
			continue
		}
		seen[t.Category] = struct{}{}
		out = append(out, t.Category)
	}
	sort.Strings(out)
	return out
}

// Filter returns the timers in category, keeping their order. An empty
// category or AllCategories returns every timer.
func Filter(timers []Timer, category string) []Timer {
	if category == "" || category == AllCategories {
		return append([]Timer(nil), timers...)
	}
	var out []Timer
	for _, t := range timers {
		if t.Category == category {
			out = append(out, t)
		}
	}
	return out
}

// HasCategory reports whether any timer belongs to category.
func HasCategory(timers []Timer, category string) bool {
	for _, t := range timers {
		if t.Category == category {
			return true
		}
	}
	return false
}
