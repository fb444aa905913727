package money_test

import (
	"testing"

	"github.com/amirasaad/payledger/pkg/domain/money"
)

// FuzzParse checks that every accepted amount is positive and survives a
// String/Parse round trip.
func FuzzParse(f *testing.F) {
	f.Add("100")
	f.Add("25.50")
	f.Add("0.01")
	f.Add("-3")
	f.Add("1.005")
	f.Add("92233720368547758.07")
	f.Add("1e3")

	f.Fuzz(func(t *testing.T, s string) {
		a, err := money.Parse(s)
		if err != nil {
			return
		}
		if a <= 0 {
			t.Fatalf("Parse(%q) = %d, want positive", s, a)
		}
		again, err := money.Parse(a.String())
		if err != nil {
			t.Fatalf("Parse(%q) round trip: %v", a.String(), err)
		}
		if again != a {
			t.Fatalf("round trip %q: got %d, want %d", s, again, a)
		}
	})
}
