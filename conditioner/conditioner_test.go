package conditioner

import (
	"math"
	"math/rand"
	"testing"
)

func TestConstantField(t *testing.T) {
	buf := make([]float64, 1000)
	for i := range buf {
		buf[i] = 3.5
	}
	c := New()
	h := c.Condition(buf)
	if !IsConstant(h[0]) {
		t.Fatal("expected constant field to be detected")
	}

	out := c.InverseCondition(nil, h)
	if len(out) != 1000 {
		t.Fatalf("len(out) = %d, want 1000", len(out))
	}
	for i, v := range out {
		if v != 3.5 {
			t.Fatalf("out[%d] = %v, want 3.5", i, v)
		}
	}
}

func TestMeanRemovalRoundTrip(t *testing.T) {
	rng := rand.New(rand.NewSource(7))
	buf := make([]float64, 10007) // prime length exercises adjustStrides fallback
	for i := range buf {
		buf[i] = rng.NormFloat64()*10 + 42
	}
	orig := append([]float64(nil), buf...)

	c := New()
	h := c.Condition(buf)
	if IsConstant(h[0]) {
		t.Fatal("random field should not be detected as constant")
	}

	restored := c.InverseCondition(buf, h)
	for i := range orig {
		if math.Abs(restored[i]-orig[i]) > 1e-8 {
			t.Fatalf("restored[%d] = %v, want %v", i, restored[i], orig[i])
		}
	}
}

func TestSaveRetrieveQ(t *testing.T) {
	buf := make([]float64, 4096)
	for i := range buf {
		buf[i] = float64(i) * 0.001
	}
	c := New()
	h := c.Condition(buf)
	SaveQ(&h, 0.015625)
	if got := RetrieveQ(h); got != 0.015625 {
		t.Fatalf("RetrieveQ() = %v, want 0.015625", got)
	}
}
