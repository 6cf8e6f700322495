package config

import "sort"

// CategoryWeights orders help categories; unknown categories sort last.
var CategoryWeights = map[string]int{
	"General":    0,
	"Moderation": 10,
	"Settings":   50,
}

// SortCategories orders names by weight, then alphabetically.
func SortCategories(names []string) {
	weight := func(n string) int {
		if w, ok := CategoryWeights[n]; ok {
			return w
		}
		return 1000
	}
	sort.SliceStable(names, func(i, j int) bool {
		wi, wj := weight(names[i]), weight(names[j])
		if wi != wj {
			return wi < wj
		}
		return names[i] < names[j]
	})
}
