package sheets

import "testing"

func TestQualify(t *testing.T) {
	tests := []struct {
		sheet, a1, want string
	}{
		{"Journal", "A:L", "Journal!A:L"},
		{"My Journal", "C5", "'My Journal'!C5"},
		{"Журнал", "A:L", "'Журнал'!A:L"},
		{"Bob's", "H:H", "'Bob''s'!H:H"},
		{"", "A1", "A1"},
	}
	for _, tt := range tests {
		if got := qualify(tt.sheet, tt.a1); got != tt.want {
			t.Errorf("qualify(%q, %q) = %q, want %q", tt.sheet, tt.a1, got, tt.want)
		}
	}
}

func TestToStrings(t *testing.T) {
	got := toStrings([]interface{}{"a", float64(3000), nil, true})
	want := []string{"a", "3000", "", "true"}
	for i := range want {
		if got[i] != want[i] {
			t.Errorf("toStrings()[%d] = %q, want %q", i, got[i], want[i])
		}
	}
}
