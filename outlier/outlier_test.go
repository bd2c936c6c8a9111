package outlier

import (
	"math"
	"testing"
)

func TestEncodeDecodeRoundTrip(t *testing.T) {
	const n = 1000
	const tol = 0.01

	enc := NewCoder()
	enc.SetLength(n)
	enc.SetTolerance(tol)
	want := []Outlier{
		{Pos: 5, Err: 0.05},
		{Pos: 17, Err: -0.2},
		{Pos: 999, Err: 1.234},
	}
	enc.UseOutlierList(want)

	stream, err := enc.Encode()
	if err != nil {
		t.Fatalf("Encode: %v", err)
	}

	dec := NewCoder()
	dec.SetLength(n)
	dec.SetTolerance(tol)
	got, err := dec.Decode(stream)
	if err != nil {
		t.Fatalf("Decode: %v", err)
	}

	byPos := make(map[int]float64)
	for _, o := range got {
		byPos[o.Pos] = o.Err
	}
	for _, w := range want {
		g, ok := byPos[w.Pos]
		if !ok {
			t.Fatalf("missing outlier at pos %d", w.Pos)
		}
		if math.Abs(g-w.Err) > tol {
			t.Errorf("pos %d: got err %v, want ~%v (tol %v)", w.Pos, g, w.Err, tol)
		}
	}
}

func TestEncodeRejectsBadInput(t *testing.T) {
	c := NewCoder()
	c.SetLength(10)
	c.SetTolerance(0.1)
	if _, err := c.Encode(); err != ErrNoOutliers {
		t.Errorf("empty list: got %v, want ErrNoOutliers", err)
	}

	c.UseOutlierList([]Outlier{{Pos: 0, Err: 0.05}}) // below tolerance
	if _, err := c.Encode(); err != ErrOutOfRange {
		t.Errorf("sub-tolerance error: got %v, want ErrOutOfRange", err)
	}

	c.UseOutlierList([]Outlier{{Pos: 50, Err: 1.0}}) // out of range position
	if _, err := c.Encode(); err != ErrOutOfRange {
		t.Errorf("out-of-range pos: got %v, want ErrOutOfRange", err)
	}
}
