package types

import "github.com/mna/gib/lang/decl"

// VarSink lets IsSubtype interact with the type-variable store (lang/tyvar)
// without lang/types importing it (tyvar imports types, not the reverse).
type VarSink interface {
	// LookupVar returns the current resolution of id's representative, if
	// the store has one.
	LookupVar(id int) (Type, bool)
	// ResolveVar registers t as id's resolved value, merging with any
	// existing resolution per the union-find merge rule (spec.md §4.C/§4.D).
	ResolveVar(id int, t Type)
}

// ImplEdge is an already name-resolved `impl from_ty for to_ty` witness:
// the syntactic ast.TypeExpr forms the resolver collected have already
// been turned into Types by the checker before subtype testing begins.
type ImplEdge struct {
	Generics []*Generic
	From     *Named
	To       Type
}

// ImplLookup enumerates the sub-type edges available for a Named type's
// declaration path (spec.md §4.B "sub-type enumeration via impls").
type ImplLookup interface {
	For(path decl.Path) []ImplEdge
}

// IsSubtype decides T <: U per the rules of spec.md §4.B. Passing a nil
// VarSink disables type-var binding (useful for read-only checks, e.g.
// trait dispatch ambiguity detection).
func IsSubtype(t, u Type, impls ImplLookup, vars VarSink) bool {
	t = resolveVar(t, vars)
	u = resolveVar(u, vars)

	if Equal(t, u) {
		return true
	}
	if _, ok := u.(Any); ok {
		return true
	}
	if _, ok := t.(Nothing); ok {
		return true
	}
	if _, ok := t.(Unknown); ok {
		return true
	}
	if _, ok := u.(Unknown); ok {
		return true
	}

	if tv, ok := t.(TypeVar); ok {
		if vars != nil {
			vars.ResolveVar(tv.ID, u)
		}
		return true
	}
	if uv, ok := u.(TypeVar); ok {
		if vars != nil {
			vars.ResolveVar(uv.ID, t)
		}
		return true
	}

	switch t := t.(type) {
	case *Tuple:
		ut, ok := u.(*Tuple)
		if !ok || len(t.Elems) != len(ut.Elems) {
			return false
		}
		for i := range t.Elems {
			if !IsSubtype(t.Elems[i], ut.Elems[i], impls, vars) {
				return false
			}
		}
		return true

	case *Sum:
		for _, e := range t.Elems {
			if !IsSubtype(e, u, impls, vars) {
				return false
			}
		}
		return true

	case *Function:
		uf, ok := u.(*Function)
		if !ok || len(t.Args) != len(uf.Args) {
			return false
		}
		for i := range t.Args {
			// contravariant in argument position
			if !IsSubtype(uf.Args[i], t.Args[i], impls, vars) {
				return false
			}
		}
		if !IsSubtype(t.Ret, uf.Ret, impls, vars) { // covariant in return
			return false
		}
		if (t.Receiver == nil) != (uf.Receiver == nil) {
			return false
		}
		if t.Receiver != nil && !IsSubtype(t.Receiver, uf.Receiver, impls, vars) {
			return false
		}
		return true

	case *Named:
		un, isNamed := u.(*Named)
		if isNamed && t.Path == un.Path {
			if len(t.Args) != len(un.Args) {
				return false
			}
			for i := range t.Args {
				if !IsSubtype(t.Args[i], un.Args[i], impls, vars) {
					return false
				}
			}
			return true
		}
		if impls == nil {
			return false
		}
		for _, edge := range impls.For(t.Path) {
			sub, ok := unifyNamedArgs(edge.From, t)
			if !ok {
				continue
			}
			witnessed := substGenericNames(edge.To, sub)
			if IsSubtype(witnessed, u, impls, vars) {
				return true
			}
		}
		return false

	default:
		return false
	}
}

func resolveVar(t Type, vars VarSink) Type {
	if vars == nil {
		return t
	}
	for {
		tv, ok := t.(TypeVar)
		if !ok {
			return t
		}
		resolved, ok := vars.LookupVar(tv.ID)
		if !ok {
			return t
		}
		t = resolved
	}
}

// unifyNamedArgs matches a Named impl pattern (whose Args may contain
// *Generic placeholders standing for the impl's own generics) against a
// concrete Named type, returning the generic-name substitution implied.
func unifyNamedArgs(pattern, concrete *Named) (map[string]Type, bool) {
	if pattern.Path != concrete.Path || len(pattern.Args) != len(concrete.Args) {
		return nil, false
	}
	sub := make(map[string]Type, len(pattern.Args))
	for i, pa := range pattern.Args {
		if g, ok := pa.(*Generic); ok {
			sub[g.Name] = concrete.Args[i]
			continue
		}
		if !Equal(pa, concrete.Args[i]) {
			return nil, false
		}
	}
	return sub, true
}

// SubstituteGenerics replaces *Generic leaves by name, the parameter
// substitution operation of spec.md §3 ("Operations: parameter
// substitution"). It is how a declared field/argument type written in
// terms of a declaration's own generics becomes concrete once the use
// site supplies (or infers) the arguments.
func SubstituteGenerics(t Type, sub map[string]Type) Type { return substGenericNames(t, sub) }

// substGenericNames replaces *Generic leaves by name, as opposed to Subst
// which replaces TypeVar leaves by id.
func substGenericNames(t Type, sub map[string]Type) Type {
	switch t := t.(type) {
	case *Generic:
		if repl, ok := sub[t.Name]; ok {
			return repl
		}
		return t
	case *Named:
		args := make([]Type, len(t.Args))
		for i, a := range t.Args {
			args[i] = substGenericNames(a, sub)
		}
		return &Named{Path: t.Path, Args: args}
	case *Tuple:
		elems := make([]Type, len(t.Elems))
		for i, e := range t.Elems {
			elems[i] = substGenericNames(e, sub)
		}
		return &Tuple{Elems: elems}
	case *Sum:
		elems := make([]Type, len(t.Elems))
		for i, e := range t.Elems {
			elems[i] = substGenericNames(e, sub)
		}
		return &Sum{Elems: elems}
	case *Function:
		var recv Type
		if t.Receiver != nil {
			recv = substGenericNames(t.Receiver, sub)
		}
		args := make([]Type, len(t.Args))
		for i, a := range t.Args {
			args[i] = substGenericNames(a, sub)
		}
		return &Function{Receiver: recv, Args: args, Ret: substGenericNames(t.Ret, sub)}
	case *Meta:
		return &Meta{Of: substGenericNames(t.Of, sub)}
	default:
		return t
	}
}
