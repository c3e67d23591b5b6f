package shared

import "testing"

func TestNormalizePagination(t *testing.T) {
	cases := []struct {
		page, size         int
		wantPage, wantSize int
	}{
		{0, 0, 1, 20},
		{3, 50, 3, 50},
		{-1, 1000, 1, 100},
	}
	for _, tc := range cases {
		page, size := NormalizePagination(tc.page, tc.size)
		if page != tc.wantPage || size != tc.wantSize {
			t.Fatalf("NormalizePagination(%d,%d) = %d,%d", tc.page, tc.size, page, size)
		}
	}
}

func TestParseDateNullable(t *testing.T) {
	got, err := ParseDateNullable("")
	if err != nil || got != nil {
		t.Fatalf("expected nil for empty input, got %v %v", got, err)
	}
	got, err = ParseDateNullable("2024-03-09")
	if err != nil || got == nil || got.Day() != 9 {
		t.Fatalf("unexpected date: %v %v", got, err)
	}
	end := EndOfDay(got)
	if end.Hour() != 23 || end.Minute() != 59 || !end.After(*got) {
		t.Fatalf("unexpected end of day: %v", end)
	}
	if _, err := ParseDateNullable("09/03/2024"); err == nil {
		t.Fatalf("expected parse error")
	}
	if got, err := ParseDateNullable("2024-03-09T10:00:00Z"); err != nil || got.UTC().Hour() != 10 {
		t.Fatalf("unexpected rfc3339 parse: %v %v", got, err)
	}
}
