package sources

import "testing"

func TestLocaleHeuristics(t *testing.T) {
	tests := []struct {
		title   string
		english bool
		spanish bool
	}{
		{"The Lord of the Rings", true, false},
		{"Cien años de soledad", false, true},
		{"El amor en los tiempos del cólera", false, true},
		{"Dune", false, false},
		{"THE HOBBIT", true, false},
		{"", false, false},
	}

	for _, tt := range tests {
		t.Run(tt.title, func(t *testing.T) {
			if got := IsEnglishTitle(tt.title); got != tt.english {
				t.Errorf("IsEnglishTitle: expected %v, got %v", tt.english, got)
			}
			if got := IsSpanishTitle(tt.title); got != tt.spanish {
				t.Errorf("IsSpanishTitle: expected %v, got %v", tt.spanish, got)
			}
		})
	}
}
