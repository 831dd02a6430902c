package rv64

import "minicc/internal/irgen"

// emitCast implements spec.md §4.G casts: "Fixnum→fixnum narrowing uses
// shift-left/shift-right with bit-width derived from the smaller of
// source and destination sizes and signed vs unsigned chosen by the
// source's sign. Widening signed uses sign-extend-word for the 32→64
// case. Fixnum↔flonum uses the target's convert opcodes sized by the
// destination."
func (t *Target) emitCast(e *emitter, in irgen.Instr) {
	srcInfo := e.fn.VRegs[in.B]
	dstInfo := e.fn.VRegs[in.A]
	src, _ := e.resolveSrc(in.B, 0)
	dst, commit := e.resolveDst(in.A)
	defer commit()

	switch {
	case srcInfo.IsFloat && dstInfo.IsFloat:
		e.printf("\tfmv.d %s, %s\n", dst, src)
	case srcInfo.IsFloat && !dstInfo.IsFloat:
		e.printf("\t%s %s, %s\n", convertToInt(dstInfo.Size, dstInfo.Unsigned), dst, src)
	case !srcInfo.IsFloat && dstInfo.IsFloat:
		e.printf("\t%s %s, %s\n", convertToFloat(dstInfo.Size, srcInfo.Unsigned), dst, src)
	default:
		narrowOrWiden(e, dst, src, srcInfo, dstInfo)
	}
}

func narrowOrWiden(e *emitter, dst, src string, srcInfo, dstInfo irgen.VRegInfo) {
	if dstInfo.Size >= srcInfo.Size {
		if srcInfo.Size == irgen.Size4 && dstInfo.Size == irgen.Size8 && !srcInfo.Unsigned {
			e.printf("\tsext.w %s, %s\n", dst, src)
			return
		}
		if dst != src {
			e.printf("\tmv %s, %s\n", dst, src)
		}
		return
	}
	bits := uint(dstInfo.Size) * 8
	shift := 64 - bits
	e.printf("\tslli %s, %s, %d\n", dst, src, shift)
	if srcInfo.Unsigned {
		e.printf("\tsrli %s, %s, %d\n", dst, dst, shift)
	} else {
		e.printf("\tsrai %s, %s, %d\n", dst, dst, shift)
	}
}

func convertToInt(size irgen.SizeClass, unsigned bool) string {
	if size == irgen.Size8 {
		if unsigned {
			return "fcvt.lu.d"
		}
		return "fcvt.l.d"
	}
	if unsigned {
		return "fcvt.wu.d"
	}
	return "fcvt.w.d"
}

func convertToFloat(size irgen.SizeClass, srcUnsigned bool) string {
	mnemonic := "fcvt.d.w"
	if size == irgen.Size8 {
		mnemonic = "fcvt.d.l"
	}
	if srcUnsigned {
		mnemonic += "u"
	}
	return mnemonic
}
