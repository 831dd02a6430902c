package ctypes

import "testing"

func TestWrapValue(t *testing.T) {
	cases := []struct {
		value    int64
		size     int
		unsigned bool
		want     int64
	}{
		{300, 4, false, 300},             // int x = 300, no wrap
		{200 + 100, 1, false, 44},         // 300 narrowed to one byte wraps to 44
		{200, 1, true, 200},
		{-1, 1, true, 255},
		{256, 1, false, 0},
	}
	for _, c := range cases {
		got := WrapValue(c.value, c.size, c.unsigned)
		if got != c.want {
			t.Errorf("WrapValue(%d,%d,%v) = %d, want %d", c.value, c.size, c.unsigned, got, c.want)
		}
	}
}

func TestCastNumbersPromotesNarrowCharToInt(t *testing.T) {
	// unsigned char c; int x = c + 100; must promote c to int so the sum
	// does not wrap to char width — spec.md §8 scenario 2.
	uchar := GetFixnumType(Char, true, 0)
	intT := GetFixnumType(Int, false, 0)
	result, madeInt := CastNumbers(uchar, intT)
	if !madeInt {
		t.Fatal("expected promotion flag for narrower-than-int operand")
	}
	if result.Kind != KindFixnum || result.FixKind != Int {
		t.Fatalf("expected int result, got %v", result)
	}
}

func TestSameTypeWithoutQualifierIgnoresQualifiers(t *testing.T) {
	a := GetFixnumType(Int, false, QualConst)
	b := GetFixnumType(Int, false, 0)
	if !SameTypeWithoutQualifier(a, b) {
		t.Fatal("expected qualifier-insensitive equality")
	}
	if SameType(a, b) {
		t.Fatal("SameType should be qualifier-sensitive")
	}
}

func TestStructLayoutWithBitFields(t *testing.T) {
	reg := NewRegistry()
	si := reg.EnsureStruct("S", false)
	members := []Member{
		{Name: "a", Type: GetFixnumType(Int, false, 0), Bits: &BitField{Width: 3}},
		{Name: "b", Type: GetFixnumType(Int, false, 0), Bits: &BitField{Width: 5}},
	}
	reg.Define(si, members)
	if si.Members[0].Bits.Position != 0 {
		t.Fatalf("field a position = %d, want 0", si.Members[0].Bits.Position)
	}
	if si.Members[1].Bits.Position != 3 {
		t.Fatalf("field b position = %d, want 3", si.Members[1].Bits.Position)
	}
	if si.Size != 4 {
		t.Fatalf("backing int struct size = %d, want 4", si.Size)
	}
}

func TestCanCastTable(t *testing.T) {
	voidT := Void
	intT := GetFixnumType(Int, false, 0)
	voidPtr := Ptrof(voidT)
	intPtr := Ptrof(intT)
	arr := ArrayOf(intT, 4)

	if !CanCast(voidT, intT, false, false) {
		t.Error("any -> void should be ok")
	}
	if CanCast(intT, voidT, false, false) {
		t.Error("void -> any should fail")
	}
	if CanCast(arr, intPtr, false, true) {
		t.Error("array as destination should always fail")
	}
	if !CanCast(voidPtr, intPtr, false, false) {
		t.Error("T* -> void* should be ok implicitly")
	}
	if !CanCast(intPtr, intT, true, false) {
		t.Error("literal zero -> pointer should be ok")
	}
}
