package dcacoeff

import (
	"math"
	"testing"
)

func TestPointEqualsPlaneAtArrayRadius(t *testing.T) {
	const arrayRadius = 1.5
	const c = 343.0
	for mode := 0; mode <= 5; mode++ {
		bk, err := NewBank(mode, 44100, arrayRadius, c)
		if err != nil {
			t.Fatalf("mode %d: %v", mode, err)
		}
		point := bk.Reset(arrayRadius, PointSource)
		plane := bk.Reset(arrayRadius, PlaneWave)
		for i := range point {
			if math.Abs(point[i].B0-plane[i].B0) > 1e-9 ||
				math.Abs(point[i].B1-plane[i].B1) > 1e-9 ||
				math.Abs(point[i].B2-plane[i].B2) > 1e-9 ||
				math.Abs(point[i].A1-plane[i].A1) > 1e-9 ||
				math.Abs(point[i].A2-plane[i].A2) > 1e-9 {
				t.Fatalf("mode %d section %d: point %+v != plane %+v at distance==array_radius",
					mode, i, point[i], plane[i])
			}
		}
	}
}

func TestRowsForOrderMatchesSpecFormula(t *testing.T) {
	cases := []struct{ mode, rows int }{
		{0, 1}, {1, 1}, {2, 2}, {3, 2}, {4, 3}, {5, 3},
	}
	for _, c := range cases {
		if got := rowsForOrder(c.mode); got != c.rows {
			t.Errorf("rowsForOrder(%d) = %d, want %d", c.mode, got, c.rows)
		}
	}
}

func TestUnsupportedOrderRejected(t *testing.T) {
	if _, err := NewBank(MaxSupportedOrder+1, 44100, 1, 343); err == nil {
		t.Fatal("expected error for order beyond table capacity")
	}
}
