package layout

import "testing"

func TestPlacementAtlasZero(t *testing.T) {
	for _, s := range []Strategy{Overlap, SpreadX, UDIM} {
		for _, n := range []int{0, 1, 2, 11, 100} {
			u, v := Placement(0, s, n)
			if u != 0 || v != 0 {
				t.Errorf("Placement(0, %s, %d) = (%v, %v), want (0, 0)", s, n, u, v)
			}
		}
	}
}

func TestPlacementOverlap(t *testing.T) {
	for i := int32(1); i < 30; i++ {
		u, v := Placement(i, Overlap, 30)
		if u != 0 || v != 0 {
			t.Errorf("Placement(%d, overlap) = (%v, %v), want (0, 0)", i, u, v)
		}
	}
}

func TestPlacementSpreadX(t *testing.T) {
	for i := int32(1); i < 30; i++ {
		u, v := Placement(i, SpreadX, 30)
		if u != float32(i) || v != 0 {
			t.Errorf("Placement(%d, spreadX) = (%v, %v), want (%d, 0)", i, u, v, i)
		}
	}
}

func TestPlacementUDIM(t *testing.T) {
	for i := int32(1); i < 250; i++ {
		u, v := Placement(i, UDIM, 250)
		if u != float32(i%10) || v != float32(i/10) {
			t.Errorf("Placement(%d, udim) = (%v, %v), want (%d, %d)", i, u, v, i%10, i/10)
		}
	}

	u, v := Placement(10, UDIM, 11)
	if u != 0 || v != 1 {
		t.Errorf("Placement(10, udim, 11) = (%v, %v), want (0, 1)", u, v)
	}
}

func TestPlacementUnpacked(t *testing.T) {
	u, v := Placement(-1, SpreadX, 3)
	if u != 0 || v != 0 {
		t.Errorf("Placement(-1) = (%v, %v), want (0, 0)", u, v)
	}
}

func TestParseStrategy(t *testing.T) {
	tests := []struct {
		in   string
		want Strategy
		ok   bool
	}{
		{"overlap", Overlap, true},
		{"OVERLAP", Overlap, true},
		{"spreadX", SpreadX, true},
		{"SPREADX", SpreadX, true},
		{"udim", UDIM, true},
		{"Udim", UDIM, true},
		{"grid", Overlap, false},
		{"", Overlap, false},
	}
	for _, tt := range tests {
		got, ok := ParseStrategy(tt.in)
		if got != tt.want || ok != tt.ok {
			t.Errorf("ParseStrategy(%q) = (%s, %v), want (%s, %v)", tt.in, got, ok, tt.want, tt.ok)
		}
	}
}

func TestStrategyStringRoundTrip(t *testing.T) {
	for _, s := range []Strategy{Overlap, SpreadX, UDIM} {
		got, ok := ParseStrategy(s.String())
		if !ok || got != s {
			t.Errorf("ParseStrategy(%q) = (%s, %v), want %s", s.String(), got, ok, s)
		}
	}
}

func TestTile(t *testing.T) {
	tests := map[int32]int{0: 1001, 1: 1002, 9: 1010, 10: 1011, 23: 1024}
	for i, want := range tests {
		if got := Tile(i); got != want {
			t.Errorf("Tile(%d) = %d, want %d", i, got, want)
		}
	}
}
