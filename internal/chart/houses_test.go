package chart

import (
	"errors"
	"math"
	"testing"
)

func TestEvenCusps(t *testing.T) {
	cusps, err := EvenCusps(100)
	if err != nil {
		t.Fatalf("EvenCusps error: %v", err)
	}
	if len(cusps) != HouseCount {
		t.Fatalf("len(cusps) = %d, want 12", len(cusps))
	}
	if cusps[0] != 100 {
		t.Errorf("cusps[0] = %v, want 100", cusps[0])
	}
	for i := range cusps {
		next := cusps[(i+1)%HouseCount]
		if d := math.Mod(next-cusps[i]+360, 360); math.Abs(d-30) > 1e-9 {
			t.Errorf("cusp %d -> %d spacing = %v, want 30", i+1, (i+1)%HouseCount+1, d)
		}
		if cusps[i] < 0 || cusps[i] >= 360 {
			t.Errorf("cusp %d = %v out of range", i+1, cusps[i])
		}
	}
	if cusps[9] != 10 {
		t.Errorf("cusps[9] = %v, want 10 (wrapped)", cusps[9])
	}
}

func TestEvenCusps_Default(t *testing.T) {
	cusps, _ := EvenCusps(0)
	for i, c := range cusps {
		if c != float64(i)*30 {
			t.Errorf("cusp %d = %v, want %v", i+1, c, float64(i)*30)
		}
	}
}

func TestWholeSignCusps(t *testing.T) {
	cusps, err := WholeSignCusps(100) // 10° Cancer
	if err != nil {
		t.Fatal(err)
	}
	if cusps[0] != 90 {
		t.Errorf("first cusp = %v, want 90", cusps[0])
	}
}

func TestCusps_PlaceholderSystems(t *testing.T) {
	for _, sys := range []HouseSystem{HousePlacidus, HouseKoch} {
		cusps, exact, err := Cusps(sys, 15)
		if err != nil {
			t.Fatalf("Cusps(%v) error: %v", sys, err)
		}
		if exact {
			t.Errorf("Cusps(%v) exact = true, want false", sys)
		}
		if cusps[0] != 15 {
			t.Errorf("Cusps(%v)[0] = %v, want 15", sys, cusps[0])
		}
	}

	_, exact, _ := Cusps(HouseEqual, 15)
	if !exact {
		t.Error("equal houses should be exact")
	}
}

func TestHouseOf(t *testing.T) {
	cusps, _ := EvenCusps(100)

	for i, c := range cusps {
		got, err := HouseOf(c, cusps)
		if err != nil {
			t.Fatal(err)
		}
		if got != i+1 {
			t.Errorf("HouseOf(cusp %d = %v) = %d", i+1, c, got)
		}
	}

	tests := []struct {
		lon  float64
		want int
	}{
		{115, 1},
		{99.9, 12},
		{5, 9}, // house 9 spans 340° through the Aries point to 10°
		{355, 9},
		{10, 10},
	}
	for _, tt := range tests {
		got, err := HouseOf(tt.lon, cusps)
		if err != nil {
			t.Fatal(err)
		}
		if got != tt.want {
			t.Errorf("HouseOf(%v) = %d, want %d", tt.lon, got, tt.want)
		}
	}

	if _, err := HouseOf(10, cusps[:11]); !errors.Is(err, ErrInvalidHouseCount) {
		t.Errorf("HouseOf with 11 cusps error = %v, want ErrInvalidHouseCount", err)
	}
}

func TestParseHouseSystem(t *testing.T) {
	tests := []struct {
		input string
		want  HouseSystem
		ok    bool
	}{
		{"equal", HouseEqual, true},
		{"Whole-Sign", HouseWholeSign, true},
		{"placidus", HousePlacidus, true},
		{"KOCH", HouseKoch, true},
		{"", HouseEqual, true},
		{"regiomontanus", HouseEqual, false},
	}
	for _, tt := range tests {
		got, ok := ParseHouseSystem(tt.input)
		if got != tt.want || ok != tt.ok {
			t.Errorf("ParseHouseSystem(%q) = %v, %v; want %v, %v", tt.input, got, ok, tt.want, tt.ok)
		}
	}
}
