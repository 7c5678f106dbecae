package serialize

import "fmt"

// Deserialize parses a complete BINA 1.00 file (spec §4.M) into a
// Transaction, following the five-step pipeline: (1) read the
// deduplication tables, resolving class and property names against
// reg; (2) allocate every object header-first via its class factory,
// or as a named foreign placeholder for OIMP; (3) walk #OBD, assigning
// each non-default property back onto its object; (4) apply #EXP's
// name assignments; (5) the transaction's #TOP list becomes its roots.
//
// Any structural mismatch returns a *SerializerError and discards all
// partial state, per spec §7.iv.
func Deserialize(data []byte, reg Registry) (*Transaction, error) {
	r := NewReader(data)

	if err := r.ExpectTag(tagMagic); err != nil {
		return nil, &SerializerError{Reason: "bad magic: expected BINA"}
	}
	var version [4]byte
	if err := r.Read(version[:], 4); err != nil || string(version[:]) != fileVersion {
		return nil, &SerializerError{Reason: fmt.Sprintf("unsupported version: expected %q", fileVersion)}
	}

	names, err := readStringTable(r, tagNames)
	if err != nil {
		return nil, err
	}
	strs, err := readStringTable(r, tagStrings)
	if err != nil {
		return nil, err
	}
	wide, err := readStringTable(r, tagWide)
	if err != nil {
		return nil, err
	}

	classes, props, err := readClassTables(r, reg)
	if err != nil {
		return nil, err
	}

	topIdx, err := readTopSection(r)
	if err != nil {
		return nil, err
	}

	exports, err := readExportSection(r)
	if err != nil {
		return nil, err
	}
	for _, e := range exports {
		if int(e.NameIdx) >= len(names) {
			return nil, &SerializerError{Reason: fmt.Sprintf("#EXP: name index %d out of range", e.NameIdx)}
		}
	}

	headers, err := readObjectHeaders(r, classes)
	if err != nil {
		return nil, err
	}

	if err := r.ExpectTag(tagObjData); err != nil {
		return nil, &SerializerError{Reason: "missing #OBD section"}
	}
	var dataLen uint64
	if !ReadPOD(r, &dataLen) {
		return nil, shortRead("#OBD data length")
	}
	body, err := r.SubRange(r.TellI(), int(dataLen))
	if err != nil {
		return nil, &SerializerError{Reason: "#OBD: declared data length exceeds file"}
	}
	if err := r.Eat(int(dataLen)); err != nil {
		return nil, err
	}

	if err := r.ExpectTag(tagEnd); err != nil {
		return nil, &SerializerError{Reason: "missing #END section"}
	}

	tx := NewTransaction()
	tx.Names, tx.Strings, tx.WideStrings = names, strs, wide

	objects := make([]any, len(headers))
	for i, h := range headers {
		switch h.Kind {
		case tagObjImport:
			if int(h.NameIdx) >= len(names) {
				return nil, &SerializerError{Reason: fmt.Sprintf("object %d: OIMP name index %d out of range", i, h.NameIdx)}
			}
			tx.AddImport(names[h.NameIdx])
		case tagObjPrivate, tagObjExport:
			if int(h.ClassIdx) >= len(classes) {
				return nil, &SerializerError{Reason: fmt.Sprintf("object %d: class index %d out of range", i, h.ClassIdx)}
			}
			class := classes[h.ClassIdx]
			value := class.CreateInstance()
			objects[i] = value
			tx.Add(value, class, "", false)
		default:
			return nil, &SerializerError{Reason: fmt.Sprintf("object %d: unknown header kind %q", i, h.Kind)}
		}
	}

	objReader := NewReader(body)
	for i, h := range headers {
		if h.Kind == tagObjImport {
			continue
		}
		if h.DataOff == noIndex {
			return nil, &SerializerError{Reason: fmt.Sprintf("object %d: missing body offset", i)}
		}
		if err := objReader.SeekI(int(h.DataOff), Begin); err != nil {
			return nil, &SerializerError{Reason: fmt.Sprintf("object %d: body offset %d out of range", i, h.DataOff)}
		}
		if err := readObjectBody(objReader, objects, objects[i], classes, props); err != nil {
			return nil, err
		}
	}

	for _, e := range exports {
		if int(e.ObjectIdx) >= len(headers) {
			return nil, &SerializerError{Reason: fmt.Sprintf("#EXP: object index %d out of range", e.ObjectIdx)}
		}
		tx.setExportName(int(e.ObjectIdx), names[e.NameIdx])
	}

	tx.setTop(topIdx)
	return tx, nil
}

func readStringTable(r *Reader, tag Tag) ([]string, error) {
	if err := r.ExpectTag(tag); err != nil {
		return nil, &SerializerError{Reason: fmt.Sprintf("missing %q section", tag)}
	}
	var count uint32
	if !ReadPOD(r, &count) {
		return nil, shortRead(tag.String() + " count")
	}
	out := make([]string, count)
	for i := range out {
		s, err := readBlock(r)
		if err != nil {
			return nil, err
		}
		out[i] = s
	}
	return out, nil
}

func readBlock(r *Reader) (string, error) {
	var n uint32
	if !ReadPOD(r, &n) {
		return "", shortRead("block length")
	}
	buf := make([]byte, n)
	if err := r.Read(buf, int(n)); err != nil {
		return "", &SerializerError{Reason: "short read: block bytes"}
	}
	return string(buf), nil
}

// readClassTables reads #CLS then #PRP, resolving every class and
// property name against reg. classes[i] and props[i] are indexed in
// #CLS order; props[i] holds each class's own properties resolved from
// the declared name order, suitable for later propIdx lookups.
func readClassTables(r *Reader, reg Registry) ([]ClassDescriptor, [][]PropertyDescriptor, error) {
	if err := r.ExpectTag(tagClasses); err != nil {
		return nil, nil, &SerializerError{Reason: "missing #CLS section"}
	}
	var classCount uint32
	if !ReadPOD(r, &classCount) {
		return nil, nil, shortRead("#CLS count")
	}
	classes := make([]ClassDescriptor, classCount)
	for i := range classes {
		name, err := readBlock(r)
		if err != nil {
			return nil, nil, err
		}
		c, ok := reg.ClassByName(name)
		if !ok {
			return nil, nil, &SerializerError{Reason: fmt.Sprintf("unknown class %q", name)}
		}
		classes[i] = c
	}

	if err := r.ExpectTag(tagProps); err != nil {
		return nil, nil, &SerializerError{Reason: "missing #PRP section"}
	}
	props := make([][]PropertyDescriptor, classCount)
	for i, c := range classes {
		var propCount uint32
		if !ReadPOD(r, &propCount) {
			return nil, nil, shortRead("#PRP count")
		}
		decls := c.Properties()
		resolved := make([]PropertyDescriptor, propCount)
		for j := range resolved {
			name, err := readBlock(r)
			if err != nil {
				return nil, nil, err
			}
			p := findProperty(decls, name)
			if p == nil {
				return nil, nil, &SerializerError{Reason: fmt.Sprintf("class %q: unknown property %q", c.Name(), name)}
			}
			resolved[j] = p
		}
		props[i] = resolved
	}
	return classes, props, nil
}

func findProperty(decls []PropertyDescriptor, name string) PropertyDescriptor {
	for _, p := range decls {
		if p.Name() == name {
			return p
		}
	}
	return nil
}

func readTopSection(r *Reader) ([]int, error) {
	if err := r.ExpectTag(tagTop); err != nil {
		return nil, &SerializerError{Reason: "missing #TOP section"}
	}
	var count uint32
	if !ReadPOD(r, &count) {
		return nil, shortRead("#TOP count")
	}
	out := make([]int, count)
	for i := range out {
		var idx uint32
		if !ReadPOD(r, &idx) {
			return nil, shortRead("#TOP entry")
		}
		out[i] = int(idx)
	}
	return out, nil
}

func readExportSection(r *Reader) ([]exportEntry, error) {
	if err := r.ExpectTag(tagExports); err != nil {
		return nil, &SerializerError{Reason: "missing #EXP section"}
	}
	var count uint32
	if !ReadPOD(r, &count) {
		return nil, shortRead("#EXP count")
	}
	out := make([]exportEntry, count)
	for i := range out {
		if !ReadPOD(r, &out[i].NameIdx) || !ReadPOD(r, &out[i].ObjectIdx) {
			return nil, shortRead("#EXP entry")
		}
	}
	return out, nil
}

func readObjectHeaders(r *Reader, classes []ClassDescriptor) ([]objectHeader, error) {
	if err := r.ExpectTag(tagObjHdrs); err != nil {
		return nil, &SerializerError{Reason: "missing #OBH section"}
	}
	var count uint32
	if !ReadPOD(r, &count) {
		return nil, shortRead("#OBH count")
	}
	out := make([]objectHeader, count)
	for i := range out {
		kind, err := r.ReadTag()
		if err != nil {
			return nil, &SerializerError{Reason: "short read: #OBH kind"}
		}
		var classIdx, nameIdx, dataOff uint32
		if !ReadPOD(r, &classIdx) || !ReadPOD(r, &nameIdx) || !ReadPOD(r, &dataOff) {
			return nil, shortRead("#OBH entry")
		}
		if kind != tagObjPrivate && kind != tagObjExport && kind != tagObjImport {
			return nil, &SerializerError{Reason: fmt.Sprintf("#OBH entry %d: unknown kind %q", i, kind)}
		}
		out[i] = objectHeader{Kind: kind, ClassIdx: classIdx, NameIdx: nameIdx, DataOff: dataOff}
	}
	return out, nil
}

// readObjectBody parses one OSTA ... OEND frame and assigns every
// property it carries back onto value via PropertyDescriptor.MoveFrom.
// objects is the fully-allocated object table, needed to resolve an
// object-ref atom's ObjectIndex back into a live referent before
// MoveFrom is called — the read-side mirror of
// resolveObjectRefsForWrite, since MoveFrom never sees a Transaction
// either.
func readObjectBody(r *Reader, objects []any, value any, classes []ClassDescriptor, props [][]PropertyDescriptor) error {
	if err := r.ExpectTag(tagObjStart); err != nil {
		return &SerializerError{Reason: "object body: missing OSTA"}
	}
	var metaclassCount uint32
	if !ReadPOD(r, &metaclassCount) {
		return shortRead("metaclass count")
	}
	for m := uint32(0); m < metaclassCount; m++ {
		if err := r.ExpectTag(tagMetaclss); err != nil {
			return &SerializerError{Reason: "object body: missing OMTC"}
		}
		var classIdx, propCount uint32
		if !ReadPOD(r, &classIdx) || !ReadPOD(r, &propCount) {
			return shortRead("metaclass header")
		}
		if int(classIdx) >= len(classes) {
			return &SerializerError{Reason: fmt.Sprintf("object body: class index %d out of range", classIdx)}
		}
		decls := props[classIdx]
		for p := uint32(0); p < propCount; p++ {
			var propIdx uint32
			if !ReadPOD(r, &propIdx) {
				return shortRead("property index")
			}
			if int(propIdx) >= len(decls) {
				return &SerializerError{Reason: fmt.Sprintf("object body: property index %d out of range for class %q", propIdx, classes[classIdx].Name())}
			}
			prop := decls[propIdx]
			atom, err := readAtom(r, prop.Traits())
			if err != nil {
				return err
			}
			atom, err = resolveObjectRefsForRead(objects, atom)
			if err != nil {
				return err
			}
			prop.MoveFrom(value, atom)
		}
	}
	if err := r.ExpectTag(tagObjEnd); err != nil {
		return &SerializerError{Reason: "object body: missing OEND"}
	}
	return nil
}

func readAtom(r *Reader, traits PropertyTraits) (Atom, error) {
	if traits != nil && traits.IsObjectRef() {
		return readObjectRefAtom(r)
	}
	tag, err := r.ReadTag()
	if err != nil {
		return Atom{}, &SerializerError{Reason: "short read: atom tag"}
	}
	switch tag {
	case tagAtomNull:
		return Null(), nil
	case tagAtomScalar:
		var typeID uint32
		if !ReadPOD(r, &typeID) {
			return Atom{}, shortRead("scalar type id")
		}
		switch typeID {
		case TypeIDName, TypeIDString, TypeIDWString:
			var idx uint32
			if !ReadPOD(r, &idx) {
				return Atom{}, shortRead("scalar pool index")
			}
			return Atom{Kind: AtomScalar, TypeID: typeID, Scalar: uint64(idx)}, nil
		default:
			var bits uint64
			if !ReadPOD(r, &bits) {
				return Atom{}, shortRead("scalar value")
			}
			return Atom{Kind: AtomScalar, TypeID: typeID, Scalar: bits}, nil
		}
	case tagAtomPair:
		var typeID uint32
		if !ReadPOD(r, &typeID) {
			return Atom{}, shortRead("pair type id")
		}
		var firstT, secondT PropertyTraits
		if traits != nil {
			firstT, secondT = traits.FirstTraits(), traits.SecondTraits()
		}
		first, err := readAtom(r, firstT)
		if err != nil {
			return Atom{}, err
		}
		second, err := readAtom(r, secondT)
		if err != nil {
			return Atom{}, err
		}
		return Atom{Kind: AtomPair, TypeID: typeID, Pair: [2]*Atom{&first, &second}}, nil
	case tagAtomVector:
		var typeID, n uint32
		if !ReadPOD(r, &typeID) || !ReadPOD(r, &n) {
			return Atom{}, shortRead("vector header")
		}
		var eltT PropertyTraits
		if traits != nil {
			eltT = traits.ValueTraits()
		}
		items := make([]Atom, 0, n)
		for i := uint32(0); i < n; i++ {
			a, err := readAtom(r, eltT)
			if err != nil {
				return Atom{}, err
			}
			items = append(items, a)
		}
		return Atom{Kind: AtomVector, TypeID: typeID, Items: items}, nil
	case tagAtomDict:
		var typeID, n uint32
		if !ReadPOD(r, &typeID) || !ReadPOD(r, &n) {
			return Atom{}, shortRead("dict header")
		}
		var keyT, valT PropertyTraits
		if traits != nil {
			keyT, valT = traits.KeyTraits(), traits.ValueTraits()
		}
		entries := make([]DictEntry, 0, n)
		for i := uint32(0); i < n; i++ {
			k, err := readAtom(r, keyT)
			if err != nil {
				return Atom{}, err
			}
			v, err := readAtom(r, valT)
			if err != nil {
				return Atom{}, err
			}
			entries = append(entries, DictEntry{Key: k, Value: v})
		}
		return Atom{Kind: AtomDict, TypeID: typeID, Entries: entries}, nil
	case tagAtomNested:
		var typeID uint32
		if !ReadPOD(r, &typeID) {
			return Atom{}, shortRead("nested type id")
		}
		nested, err := readAtom(r, traits)
		if err != nil {
			return Atom{}, err
		}
		return Atom{Kind: AtomNested, TypeID: typeID, Nested: &nested}, nil
	default:
		return Atom{}, &SerializerError{Reason: fmt.Sprintf("unknown atom tag %q", tag)}
	}
}

func readObjectRefAtom(r *Reader) (Atom, error) {
	mark := r.TellI()
	if err := r.ExpectTag(tagObjNull); err == nil {
		return NewObjectRef(-1), nil
	}
	if err := r.SeekI(mark, Begin); err != nil {
		return Atom{}, err
	}
	var idx uint32
	if !ReadPOD(r, &idx) {
		return Atom{}, shortRead("object reference index")
	}
	return NewObjectRef(int32(idx)), nil
}

// resolveObjectRefsForRead walks a freshly decoded atom and turns
// every AtomObjectRef's ObjectIndex back into a live Object referent
// by indexing into objects — the read-side mirror of
// resolveObjectRefsForWrite, run immediately before MoveFrom.
func resolveObjectRefsForRead(objects []any, a Atom) (Atom, error) {
	switch a.Kind {
	case AtomObjectRef:
		if a.ObjectIndex < 0 {
			a.Object = nil
			return a, nil
		}
		if int(a.ObjectIndex) >= len(objects) {
			return Atom{}, &SerializerError{Reason: fmt.Sprintf("object reference index %d out of range", a.ObjectIndex)}
		}
		a.Object = objects[a.ObjectIndex]
		return a, nil
	case AtomPair:
		first, err := resolveObjectRefsForRead(objects, *a.Pair[0])
		if err != nil {
			return Atom{}, err
		}
		second, err := resolveObjectRefsForRead(objects, *a.Pair[1])
		if err != nil {
			return Atom{}, err
		}
		a.Pair = [2]*Atom{&first, &second}
		return a, nil
	case AtomVector:
		items := make([]Atom, len(a.Items))
		for i, it := range a.Items {
			r, err := resolveObjectRefsForRead(objects, it)
			if err != nil {
				return Atom{}, err
			}
			items[i] = r
		}
		a.Items = items
		return a, nil
	case AtomDict:
		entries := make([]DictEntry, len(a.Entries))
		for i, e := range a.Entries {
			k, err := resolveObjectRefsForRead(objects, e.Key)
			if err != nil {
				return Atom{}, err
			}
			v, err := resolveObjectRefsForRead(objects, e.Value)
			if err != nil {
				return Atom{}, err
			}
			entries[i] = DictEntry{Key: k, Value: v}
		}
		a.Entries = entries
		return a, nil
	case AtomNested:
		n, err := resolveObjectRefsForRead(objects, *a.Nested)
		if err != nil {
			return Atom{}, err
		}
		a.Nested = &n
		return a, nil
	default:
		return a, nil
	}
}
