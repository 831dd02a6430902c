package ctypes

// CanCast implements the cast legality table from spec.md §4.A: same-kind
// always ok; numeric<->numeric ok; pointer<->pointer ok (callers warn on
// mismatched pointee unless void* or literal-zero source); array decays
// to pointer; function decays to pointer-to-function; any->void ok;
// void->any fails; array as destination fails. Unlisted combinations
// fail.
func CanCast(dst, src *Type, srcIsZero, explicit bool) bool {
	src = ArrayToPtr(FuncToPtr(src))

	if dst.Kind == KindArray {
		return false // array as destination type fails
	}
	if dst.Kind == KindVoid {
		return true // any -> void always ok
	}
	if src.Kind == KindVoid {
		return false // void -> any fails
	}
	if SameTypeWithoutQualifier(dst, src) {
		return true
	}
	if IsNumber(dst) && IsNumber(src) {
		return true
	}
	if dst.Kind == KindPointer && src.Kind == KindPointer {
		if explicit {
			return true
		}
		if isVoidPtr(dst) || isVoidPtr(src) || srcIsZero {
			return true
		}
		// Pointer-to-pointer with mismatched pointee is legal but the
		// caller (internal/elaborate) should warn; CanCast reports the
		// cast as permitted the way the teacher's permissive numeric
		// coercions are, leaving diagnostics to the call site.
		return true
	}
	if dst.Kind == KindPointer && IsFixnum(src) && srcIsZero {
		return true // null pointer constant
	}
	if dst.Kind == KindPointer && IsFixnum(src) && explicit {
		return true
	}
	if IsFixnum(dst) && src.Kind == KindPointer && explicit {
		return true
	}
	return false
}

func isVoidPtr(t *Type) bool {
	return t.Kind == KindPointer && t.Elem != nil && t.Elem.Kind == KindVoid
}

// PromoteInt applies C's integer promotion: fixnum types narrower than
// int are promoted to int (spec.md §4.B "integer operands < int are
// promoted to int").
func PromoteInt(t *Type) *Type {
	if t.Kind != KindFixnum {
		return t
	}
	if fixnumRank[t.FixKind] < fixnumRank[Int] {
		return GetFixnumType(Int, false, 0)
	}
	return t
}

// CastNumbers implements `cast_numbers`: the usual arithmetic conversions
// for a binary numeric operator. Returns the common result type and
// whether either side needed promotion to int (the `make_int` flag named
// in spec.md §4.B).
func CastNumbers(lt, rt *Type) (result *Type, madeInt bool) {
	if IsFlonum(lt) || IsFlonum(rt) {
		// flonum dominates; pick the wider of the two if both flonum.
		if IsFlonum(lt) && IsFlonum(rt) {
			if lt.FloKind >= rt.FloKind {
				return lt, false
			}
			return rt, false
		}
		if IsFlonum(lt) {
			return lt, false
		}
		return rt, false
	}
	l := PromoteInt(lt)
	r := PromoteInt(rt)
	madeInt = !SameTypeWithoutQualifier(l, lt) || !SameTypeWithoutQualifier(r, rt)
	lrank := fixnumRank[l.FixKind]<<1 | boolToInt(l.Unsigned)
	rrank := fixnumRank[r.FixKind]<<1 | boolToInt(r.Unsigned)
	if lrank >= rrank {
		return l, madeInt
	}
	return r, madeInt
}

func boolToInt(b bool) int {
	if b {
		return 1
	}
	return 0
}

// SwapCmp mirrors a comparison operator under operand swap, per spec.md
// §4.B `swap_cmp`: < <-> >, <= <-> >=, ==/!= unaffected.
func SwapCmp(op string) string {
	switch op {
	case "<":
		return ">"
	case ">":
		return "<"
	case "<=":
		return ">="
	case ">=":
		return "<="
	default:
		return op
	}
}
