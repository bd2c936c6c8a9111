package bitmask

import "testing"

func TestSetGetBit(t *testing.T) {
	m := New(200)
	m.WTrue(5)
	m.WTrue(130)
	for _, tt := range []struct {
		idx  int
		want bool
	}{
		{0, false},
		{5, true},
		{63, false},
		{64, false},
		{130, true},
		{199, false},
	} {
		if got := m.RBit(tt.idx); got != tt.want {
			t.Errorf("RBit(%d) = %v, want %v", tt.idx, got, tt.want)
		}
	}
}

func TestWFalse(t *testing.T) {
	m := New(64)
	m.WTrue(10)
	m.WFalse(10)
	if m.RBit(10) {
		t.Error("bit 10 should be false after WFalse")
	}
}

func TestResetAndResetTrue(t *testing.T) {
	m := New(128)
	m.WTrue(3)
	m.Reset()
	if m.CountTrue() != 0 {
		t.Errorf("CountTrue after Reset = %d, want 0", m.CountTrue())
	}
	m.ResetTrue()
	if got := m.CountTrue(); got != 128 {
		t.Errorf("CountTrue after ResetTrue = %d, want 128", got)
	}
}

func TestCountTrue(t *testing.T) {
	m := New(70)
	m.WTrue(0)
	m.WTrue(63)
	m.WTrue(64)
	m.WTrue(69)
	if got := m.CountTrue(); got != 4 {
		t.Errorf("CountTrue() = %d, want 4", got)
	}
}

func TestResize(t *testing.T) {
	m := New(10)
	m.WTrue(5)
	m.Resize(200)
	if !m.RBit(5) {
		t.Error("bit 5 should survive growth")
	}
	if m.Len() != 200 {
		t.Errorf("Len() = %d, want 200", m.Len())
	}
}

func TestHasTruePosAndAny(t *testing.T) {
	m := New(300)
	m.WTrue(150)

	if pos := m.HasTruePos(0, 300); pos != 150 {
		t.Errorf("HasTruePos = %d, want 150", pos)
	}
	if pos := m.HasTruePos(0, 100); pos != -1 {
		t.Errorf("HasTruePos over empty range = %d, want -1", pos)
	}
	if !m.HasTrueAny(100, 100) {
		t.Error("HasTrueAny should find bit 150 in [100,200)")
	}
	if m.HasTrueAny(0, 100) {
		t.Error("HasTrueAny should not find any bit in [0,100)")
	}
}

func TestHasTrueCrossWordBoundary(t *testing.T) {
	m := New(200)
	m.WTrue(128)
	if pos := m.HasTruePos(60, 140); pos != 68 {
		t.Errorf("HasTruePos crossing word boundary = %d, want 68", pos)
	}
}

func TestViewAndUseBitstream(t *testing.T) {
	m := New(128)
	m.WTrue(0)
	m.WTrue(127)
	words := append([]uint64(nil), m.ViewBuffer()...)

	n := New(128)
	n.UseBitstream(words)
	if !m.Equal(n) {
		t.Error("mask restored from UseBitstream should equal the original")
	}
}

func TestEqualIgnoresTailGarbage(t *testing.T) {
	a := New(70)
	b := New(70)
	a.WTrue(69)
	b.WTrue(69)
	// Poison bits beyond the logical length in b's last word only.
	b.buf[1] |= uint64(1) << 10
	if !a.Equal(b) {
		t.Error("Equal should ignore garbage bits beyond the logical length")
	}
}
