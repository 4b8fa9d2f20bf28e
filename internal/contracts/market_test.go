package contracts

import (
	"encoding/json"
	"math"
	"testing"
	"time"

	"github.com/guregu/null/v6"
)

func TestParsePeriod(t *testing.T) {
	tests := []struct {
		in      string
		want    Period
		wantErr bool
	}{
		{"daily", Daily, false},
		{"Weekly", Weekly, false},
		{" month ", Monthly, false},
		{"day", Daily, false},
		{"yearly", "", true},
		{"", "", true},
	}

	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			got, err := ParsePeriod(tt.in)
			if (err != nil) != tt.wantErr {
				t.Fatalf("ParsePeriod(%q) error = %v, wantErr %v", tt.in, err, tt.wantErr)
			}
			if got != tt.want {
				t.Errorf("ParsePeriod(%q) = %q, want %q", tt.in, got, tt.want)
			}
		})
	}
}

func TestReturnSet_Usable(t *testing.T) {
	r := ReturnSet{
		Daily:   null.FloatFrom(1.5),
		Weekly:  null.FloatFrom(math.NaN()),
		Monthly: null.Float{},
	}

	if !r.Usable(Daily) {
		t.Error("daily should be usable")
	}
	if r.Usable(Weekly) {
		t.Error("NaN must not be usable")
	}
	if r.Usable(Monthly) {
		t.Error("null must not be usable")
	}
	if r.Usable(Period("yearly")) {
		t.Error("unknown period must not be usable")
	}
}

func TestFinite(t *testing.T) {
	if Finite(math.NaN()).Valid {
		t.Error("NaN should map to null")
	}
	if Finite(math.Inf(-1)).Valid {
		t.Error("-Inf should map to null")
	}
	if f := Finite(2.5); !f.Valid || f.Float64 != 2.5 {
		t.Errorf("Finite(2.5) = %v", f)
	}
}

func TestReturnSet_JSONNulls(t *testing.T) {
	data, err := json.Marshal(ReturnSet{Daily: null.FloatFrom(1)})
	if err != nil {
		t.Fatalf("marshal: %v", err)
	}

	want := `{"daily":1,"weekly":null,"monthly":null}`
	if string(data) != want {
		t.Errorf("got %s, want %s", data, want)
	}
}

func TestNewPriceSeries(t *testing.T) {
	day := func(d int, hour int) time.Time {
		return time.Date(2024, 1, d, hour, 0, 0, 0, time.UTC)
	}

	s := NewPriceSeries("AAA", []PricePoint{
		{Date: day(17, 14), Close: 103},
		{Date: day(15, 14), Close: 100},
		{Date: day(16, 14), Close: math.NaN()},
		{Date: day(17, 20), Close: 104},
		{Date: day(18, 14), Close: math.Inf(1)},
	})

	if s.Symbol != "AAA" {
		t.Errorf("symbol = %q", s.Symbol)
	}
	if s.Len() != 2 {
		t.Fatalf("len = %d, want 2: %+v", s.Len(), s.Points)
	}
	if !s.Points[0].Date.Equal(time.Date(2024, 1, 15, 0, 0, 0, 0, time.UTC)) {
		t.Errorf("first date = %v", s.Points[0].Date)
	}
	if s.Last().Close != 104 {
		t.Errorf("duplicate date should keep the last point, got %v", s.Last().Close)
	}
}

func TestNewPriceSeries_KeepsZeroClose(t *testing.T) {
	s := NewPriceSeries("AAA", []PricePoint{
		{Date: time.Date(2024, 1, 17, 0, 0, 0, 0, time.UTC), Close: 100},
		{Date: time.Date(2024, 1, 18, 0, 0, 0, 0, time.UTC), Close: 0},
		{Date: time.Date(2024, 1, 19, 0, 0, 0, 0, time.UTC), Close: 50},
	})

	if s.Len() != 3 {
		t.Fatalf("len = %d, want 3: %+v", s.Len(), s.Points)
	}
	if s.Points[1].Close != 0 {
		t.Errorf("second close = %v, want 0", s.Points[1].Close)
	}
}

func TestRangeStart(t *testing.T) {
	end := time.Date(2024, 5, 31, 0, 0, 0, 0, time.UTC)

	got, err := RangeStart(end, "3mo")
	if err != nil {
		t.Fatalf("RangeStart: %v", err)
	}
	if got.Month() != time.March {
		t.Errorf("3mo start = %v", got)
	}

	if _, err := RangeStart(end, "7w"); err == nil {
		t.Error("expected error for unknown range")
	}
	if !ValidRange("1y") || ValidRange("") {
		t.Error("ValidRange mismatch")
	}
}
