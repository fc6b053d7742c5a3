package core

import "testing"

func TestCleanString(t *testing.T) {
	tests := []struct {
		name  string
		s     string
		lower bool
		want  string
	}{
		{"trims", "  std1  ", false, "std1"},
		{"lowers", "  Alice Mukasa ", true, "alice mukasa"},
		{"keeps case by default", "Alice", false, "Alice"},
		{"empty", "   ", true, ""},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var got string
			if tt.lower {
				got = CleanString(tt.s, true)
			} else {
				got = CleanString(tt.s)
			}
			if got != tt.want {
				t.Errorf("CleanString() = %q, want %q", got, tt.want)
			}
		})
	}
}

func TestRound3(t *testing.T) {
	tests := []struct {
		v    float64
		want float64
	}{
		{0.6555, 0.656},
		{0.65549, 0.655},
		{1.0, 1.0},
		{-0.0005, -0.001},
		{0, 0},
	}
	for _, tt := range tests {
		if got := Round3(tt.v); got != tt.want {
			t.Errorf("Round3(%v) = %v, want %v", tt.v, got, tt.want)
		}
	}
}

func TestClamp01(t *testing.T) {
	tests := []struct {
		v    float64
		want float64
	}{
		{-0.2, 0},
		{0, 0},
		{0.42, 0.42},
		{1, 1},
		{1.8, 1},
	}
	for _, tt := range tests {
		if got := Clamp01(tt.v); got != tt.want {
			t.Errorf("Clamp01(%v) = %v, want %v", tt.v, got, tt.want)
		}
	}
}
