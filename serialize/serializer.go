package serialize

import (
	"bytes"
	"fmt"
	"sort"
)

// Serialize writes tx as a complete BINA 1.00 file (spec §4.M),
// following the four-step pipeline: (1) walk the transaction's already-
// queued objects; (2) classify each as OEXP/OPRI/OIMP; (3) walk each
// local object's meta-class chain most-derived to root, emitting only
// non-default properties and dropping empty metaclass frames; (4) back-
// patch the run-length fields once each body's size is known.
func Serialize(tx *Transaction, reg Registry) ([]byte, error) {
	classIndex, classOrder, err := collectClasses(tx)
	if err != nil {
		return nil, err
	}

	w := &writer{}
	w.WriteTag(tagMagic)
	w.buf.WriteString(fileVersion)

	writeStringTable(w, tagNames, tx.Names)
	writeStringTable(w, tagStrings, tx.Strings)
	writeStringTable(w, tagWide, tx.WideStrings)

	w.WriteTag(tagClasses)
	w.WriteU32(uint32(len(classOrder)))
	for _, c := range classOrder {
		w.WriteBlock(c.Name())
	}

	w.WriteTag(tagProps)
	for _, c := range classOrder {
		props := c.Properties()
		w.WriteU32(uint32(len(props)))
		for _, p := range props {
			w.WriteBlock(p.Name())
		}
	}

	w.WriteTag(tagTop)
	top := tx.Top()
	w.WriteU32(uint32(len(top)))
	for _, idx := range top {
		w.WriteU32(uint32(idx))
	}

	exports, err := collectExports(tx)
	if err != nil {
		return nil, err
	}
	w.WriteTag(tagExports)
	w.WriteU32(uint32(len(exports)))
	for _, e := range exports {
		w.WriteU32(e.NameIdx)
		w.WriteU32(e.ObjectIdx)
	}

	headers, data, err := buildObjectSection(tx, classIndex)
	if err != nil {
		return nil, err
	}
	w.WriteTag(tagObjHdrs)
	w.WriteU32(uint32(len(headers)))
	for _, h := range headers {
		w.WriteTag(h.Kind)
		w.WriteU32(h.ClassIdx)
		w.WriteU32(h.NameIdx)
		w.WriteU32(h.DataOff)
	}

	w.WriteTag(tagObjData)
	w.WriteU64(uint64(len(data)))
	w.WriteBytes(data)

	w.WriteTag(tagEnd)
	return w.buf.Bytes(), nil
}

func writeStringTable(w *writer, tag Tag, strs []string) {
	w.WriteTag(tag)
	w.WriteU32(uint32(len(strs)))
	for _, s := range strs {
		w.WriteBlock(s)
	}
}

// collectClasses walks every object's meta-class chain (its own class
// plus every Parent() ancestor) and assigns each distinct class a
// stable, first-seen index — the #CLS table.
func collectClasses(tx *Transaction) (map[string]int, []ClassDescriptor, error) {
	classIndex := map[string]int{}
	var order []ClassDescriptor
	for i, o := range tx.objects {
		if o.Foreign {
			continue
		}
		if o.Class == nil {
			return nil, nil, &SerializerError{Reason: fmt.Sprintf("object %d has no class descriptor", i)}
		}
		for c := o.Class; c != nil; c = c.Parent() {
			if _, ok := classIndex[c.Name()]; !ok {
				classIndex[c.Name()] = len(order)
				order = append(order, c)
			}
		}
	}
	return classIndex, order, nil
}

func collectExports(tx *Transaction) ([]exportEntry, error) {
	var out []exportEntry
	for i, o := range tx.objects {
		if o.ExportName == "" || o.Foreign {
			continue
		}
		ni, ok := indexOfString(tx.Names, o.ExportName)
		if !ok {
			return nil, &SerializerError{Reason: fmt.Sprintf("exported object %d: name %q is not in the transaction's name pool", i, o.ExportName)}
		}
		out = append(out, exportEntry{NameIdx: uint32(ni), ObjectIdx: uint32(i)})
	}
	sort.Slice(out, func(a, b int) bool { return out[a].NameIdx < out[b].NameIdx })
	return out, nil
}

// buildObjectSection builds every #OBH entry and the concatenated
// #OBD body blob. Bodies are serialized before headers are written so
// each header's DataOff is already known.
func buildObjectSection(tx *Transaction, classIndex map[string]int) ([]objectHeader, []byte, error) {
	headers := make([]objectHeader, len(tx.objects))
	var data bytes.Buffer

	for i, o := range tx.objects {
		if o.Foreign {
			nameIdx := noIndex
			if o.ExportName != "" {
				ni, ok := indexOfString(tx.Names, o.ExportName)
				if !ok {
					return nil, nil, &SerializerError{Reason: fmt.Sprintf("imported object %d: name %q is not in the transaction's name pool", i, o.ExportName)}
				}
				nameIdx = uint32(ni)
			}
			headers[i] = objectHeader{Kind: tagObjImport, ClassIdx: noIndex, NameIdx: nameIdx, DataOff: noIndex}
			continue
		}

		kind := tagObjPrivate
		nameIdx := noIndex
		if o.ExportName != "" {
			kind = tagObjExport
			ni, ok := indexOfString(tx.Names, o.ExportName)
			if !ok {
				return nil, nil, &SerializerError{Reason: fmt.Sprintf("exported object %d: name %q is not in the transaction's name pool", i, o.ExportName)}
			}
			nameIdx = uint32(ni)
		}

		body, err := serializeObjectBody(tx, o, classIndex)
		if err != nil {
			return nil, nil, err
		}
		headers[i] = objectHeader{
			Kind:     kind,
			ClassIdx: uint32(classIndex[o.Class.Name()]),
			NameIdx:  uint32(nameIdx),
			DataOff:  uint32(data.Len()),
		}
		data.Write(body)
	}
	return headers, data.Bytes(), nil
}

// serializeObjectBody writes one OSTA ... OEND frame: the object's
// meta-class chain, most-derived first, each frame listing only its
// non-default properties. A frame with no non-default property is
// dropped entirely rather than written empty.
func serializeObjectBody(tx *Transaction, o *object, classIndex map[string]int) ([]byte, error) {
	w := &writer{}
	w.WriteTag(tagObjStart)
	countOff := w.len()
	w.WriteU32(0) // metaclassCount, patched below

	metaclassCount := uint32(0)
	for c := o.Class; c != nil; c = c.Parent() {
		props := c.Properties()
		type kept struct {
			idx int
			p   PropertyDescriptor
		}
		var have []kept
		for idx, p := range props {
			if !p.IsDefaultValue(o.Value) {
				have = append(have, kept{idx, p})
			}
		}
		if len(have) == 0 {
			continue
		}
		w.WriteTag(tagMetaclss)
		w.WriteU32(uint32(classIndex[c.Name()]))
		w.WriteU32(uint32(len(have)))
		for _, k := range have {
			w.WriteU32(uint32(k.idx))
			atom, err := resolveObjectRefsForWrite(tx, k.p.WrapCopy(o.Value))
			if err != nil {
				return nil, err
			}
			if err := writeAtom(w, atom); err != nil {
				return nil, err
			}
		}
		metaclassCount++
	}
	w.patchU32(countOff, metaclassCount)
	w.WriteTag(tagObjEnd)
	return w.buf.Bytes(), nil
}

func writeAtom(w *writer, a Atom) error {
	switch a.Kind {
	case AtomNull:
		w.WriteTag(tagAtomNull)
	case AtomObjectRef:
		if a.ObjectIndex < 0 {
			w.WriteTag(tagObjNull)
		} else {
			w.WriteU32(uint32(a.ObjectIndex))
		}
	case AtomScalar:
		w.WriteTag(tagAtomScalar)
		w.WriteU32(a.TypeID)
		switch a.TypeID {
		case TypeIDName, TypeIDString, TypeIDWString:
			w.WriteU32(uint32(a.Scalar))
		default:
			w.WriteU64(a.Scalar)
		}
	case AtomPair:
		w.WriteTag(tagAtomPair)
		w.WriteU32(a.TypeID)
		if a.Pair[0] == nil || a.Pair[1] == nil {
			return &SerializerError{Reason: "pair atom has a nil half"}
		}
		if err := writeAtom(w, *a.Pair[0]); err != nil {
			return err
		}
		if err := writeAtom(w, *a.Pair[1]); err != nil {
			return err
		}
	case AtomVector:
		w.WriteTag(tagAtomVector)
		w.WriteU32(a.TypeID)
		w.WriteU32(uint32(len(a.Items)))
		for _, it := range a.Items {
			if err := writeAtom(w, it); err != nil {
				return err
			}
		}
	case AtomDict:
		w.WriteTag(tagAtomDict)
		w.WriteU32(a.TypeID)
		w.WriteU32(uint32(len(a.Entries)))
		for _, e := range a.Entries {
			if err := writeAtom(w, e.Key); err != nil {
				return err
			}
			if err := writeAtom(w, e.Value); err != nil {
				return err
			}
		}
	case AtomNested:
		w.WriteTag(tagAtomNested)
		w.WriteU32(a.TypeID)
		if a.Nested == nil {
			return &SerializerError{Reason: "nested atom is nil"}
		}
		if err := writeAtom(w, *a.Nested); err != nil {
			return err
		}
	default:
		return &SerializerError{Reason: fmt.Sprintf("unknown atom kind %d", a.Kind)}
	}
	return nil
}

// resolveObjectRefsForWrite walks a freshly wrapped atom and turns
// every AtomObjectRef's live Object referent into an ObjectIndex —
// the one step WrapCopy itself cannot do, since PropertyDescriptor
// methods never see the Transaction (spec §6: the reflection contract
// is a dependency, not re-specified here).
func resolveObjectRefsForWrite(tx *Transaction, a Atom) (Atom, error) {
	switch a.Kind {
	case AtomObjectRef:
		if a.Object == nil {
			a.ObjectIndex = -1
			return a, nil
		}
		idx, ok := tx.IndexOf(a.Object)
		if !ok {
			return Atom{}, &SerializerError{Reason: "object reference points outside the transaction"}
		}
		a.ObjectIndex = int32(idx)
		a.Object = nil
		return a, nil
	case AtomPair:
		first, err := resolveObjectRefsForWrite(tx, *a.Pair[0])
		if err != nil {
			return Atom{}, err
		}
		second, err := resolveObjectRefsForWrite(tx, *a.Pair[1])
		if err != nil {
			return Atom{}, err
		}
		a.Pair = [2]*Atom{&first, &second}
		return a, nil
	case AtomVector:
		items := make([]Atom, len(a.Items))
		for i, it := range a.Items {
			r, err := resolveObjectRefsForWrite(tx, it)
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
			k, err := resolveObjectRefsForWrite(tx, e.Key)
			if err != nil {
				return Atom{}, err
			}
			v, err := resolveObjectRefsForWrite(tx, e.Value)
			if err != nil {
				return Atom{}, err
			}
			entries[i] = DictEntry{Key: k, Value: v}
		}
		a.Entries = entries
		return a, nil
	case AtomNested:
		n, err := resolveObjectRefsForWrite(tx, *a.Nested)
		if err != nil {
			return Atom{}, err
		}
		a.Nested = &n
		return a, nil
	default:
		return a, nil
	}
}

func indexOfString(list []string, s string) (int, bool) {
	for i, v := range list {
		if v == s {
			return i, true
		}
	}
	return -1, false
}
