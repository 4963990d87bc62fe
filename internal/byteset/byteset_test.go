package byteset

import (
	"math/rand"
	"sort"
	"testing"
)

func TestAddContains(t *testing.T) {
	s := Empty()
	for _, e := range []byte{0, 1, 63, 64, 128, 255} {
		s = s.Add(e)
	}
	for _, e := range []byte{0, 1, 63, 64, 128, 255} {
		if !s.Contains(e) {
			t.Errorf("set should contain %d", e)
		}
	}
	if s.Contains(2) {
		t.Errorf("set should not contain 2")
	}
	if got := s.Size(); got != 6 {
		t.Errorf("Size() = %d, want 6", got)
	}
}

func TestFullIsEmptyIntersectUnion(t *testing.T) {
	if !Empty().IsEmpty() {
		t.Error("Empty() is not empty")
	}
	if Full().IsEmpty() {
		t.Error("Full() is empty")
	}
	if got := Full().Size(); got != 256 {
		t.Errorf("Full().Size() = %d, want 256", got)
	}
	a := Of(1, 2, 3)
	b := Of(2, 3, 4)
	if got := Intersect(a, b); got.Size() != 2 || !got.Contains(2) || !got.Contains(3) {
		t.Errorf("Intersect(a, b) = %v, want {2,3}", got.Elements())
	}
	if got := Union(a, b); got.Size() != 4 {
		t.Errorf("Union(a, b).Size() = %d, want 4", got.Size())
	}
}

func TestShiftZeroIsIdentity(t *testing.T) {
	s := Of(3, 17, 200)
	if got := s.Shift(0); got != s {
		t.Errorf("Shift(0) changed the set: %v != %v", got.Elements(), s.Elements())
	}
}

func TestShiftIsInvolution(t *testing.T) {
	r := rand.New(rand.NewSource(1))
	for trial := 0; trial < 100; trial++ {
		var s Set
		for i := 0; i < 20; i++ {
			s = s.Add(byte(r.Intn(256)))
		}
		c := byte(r.Intn(256))
		twice := s.Shift(c).Shift(c)
		if twice != s {
			t.Fatalf("Shift(%d) twice != identity: %v != %v", c, twice.Elements(), s.Elements())
		}
	}
}

func TestShiftPreservesSize(t *testing.T) {
	s := Of(1, 2, 3, 100, 255)
	for c := 0; c < 256; c++ {
		if got := s.Shift(byte(c)).Size(); got != s.Size() {
			t.Fatalf("Shift(%d).Size() = %d, want %d", c, got, s.Size())
		}
	}
}

func TestShiftMatchesDefinition(t *testing.T) {
	s := Of(0, 5, 17, 63, 64, 128, 200, 255)
	c := byte(0xA5)
	shifted := s.Shift(c)
	for v := 0; v < 256; v++ {
		want := s.Contains(byte(v) ^ c)
		got := shifted.Contains(byte(v))
		if got != want {
			t.Fatalf("Shift(%d) membership mismatch at %d: got %v want %v", c, v, got, want)
		}
	}
}

func TestElementsSorted(t *testing.T) {
	s := Of(200, 5, 100, 0, 255)
	elems := s.Elements()
	if !sort.SliceIsSorted(elems, func(i, j int) bool { return elems[i] < elems[j] }) {
		t.Errorf("Elements() not sorted: %v", elems)
	}
}
