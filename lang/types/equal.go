package types

// Equal reports whether a and b are structurally identical. It does not
// resolve TypeVars itself — callers performing subtype/instance-of checks
// are expected to resolve through the tyvar store first (see lang/check),
// since this package has no dependency on it.
func Equal(a, b Type) bool {
	switch a := a.(type) {
	case Any:
		_, ok := b.(Any)
		return ok
	case Nothing:
		_, ok := b.(Nothing)
		return ok
	case Unknown:
		_, ok := b.(Unknown)
		return ok
	case TypeVar:
		bv, ok := b.(TypeVar)
		return ok && a.ID == bv.ID
	case *Named:
		bn, ok := b.(*Named)
		if !ok || a.Path != bn.Path || len(a.Args) != len(bn.Args) {
			return false
		}
		for i := range a.Args {
			if !Equal(a.Args[i], bn.Args[i]) {
				return false
			}
		}
		return true
	case *Generic:
		bg, ok := b.(*Generic)
		return ok && a.Name == bg.Name
	case *Tuple:
		bt, ok := b.(*Tuple)
		if !ok || len(a.Elems) != len(bt.Elems) {
			return false
		}
		for i := range a.Elems {
			if !Equal(a.Elems[i], bt.Elems[i]) {
				return false
			}
		}
		return true
	case *Sum:
		bs, ok := b.(*Sum)
		if !ok || len(a.Elems) != len(bs.Elems) {
			return false
		}
		for i := range a.Elems {
			if !Equal(a.Elems[i], bs.Elems[i]) {
				return false
			}
		}
		return true
	case *Function:
		bf, ok := b.(*Function)
		if !ok || len(a.Args) != len(bf.Args) || !Equal(a.Ret, bf.Ret) {
			return false
		}
		if (a.Receiver == nil) != (bf.Receiver == nil) {
			return false
		}
		if a.Receiver != nil && !Equal(a.Receiver, bf.Receiver) {
			return false
		}
		for i := range a.Args {
			if !Equal(a.Args[i], bf.Args[i]) {
				return false
			}
		}
		return true
	case *Meta:
		bm, ok := b.(*Meta)
		return ok && Equal(a.Of, bm.Of)
	default:
		return false
	}
}
