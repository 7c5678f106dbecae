package serialize

// object is one entry in a Transaction's object list, carrying enough
// to drive both halves of the pipeline: the live value, the
// meta-class it was constructed against, and its export name (if any).
type object struct {
	Value      any
	Class      ClassDescriptor
	ExportName string // "" means not exported
	Foreign    bool   // true for an OIMP placeholder: a named reference to an object outside this transaction
}

// Transaction is the unit of serialization: every object reachable
// from the scene, in queue order, plus which of them are top-level
// roots. String/name interning is transaction-scoped — Names,
// Strings, and WideStrings are the pools that scalar atoms with
// TypeIDName/TypeIDString/TypeIDWString index into; the caller (via
// the Reflector that produced the atoms) is responsible for using
// consistent indices into these same pools.
type Transaction struct {
	objects     []*object
	top         []int
	Names       []string
	Strings     []string
	WideStrings []string
}

// NewTransaction returns an empty transaction.
func NewTransaction() *Transaction {
	return &Transaction{}
}

// Add queues obj under class, optionally exported under name, and
// returns its object index. Pass top=true for a scene root. A non-empty
// exportName is appended to Names if it is not already there.
func (t *Transaction) Add(value any, class ClassDescriptor, exportName string, top bool) int {
	idx := len(t.objects)
	t.objects = append(t.objects, &object{Value: value, Class: class, ExportName: exportName})
	if _, ok := indexOfString(t.Names, exportName); exportName != "" && !ok {
		t.Names = append(t.Names, exportName)
	}
	if top {
		t.top = append(t.top, idx)
	}
	return idx
}

// AddImport queues a placeholder for an object that lives in a
// different transaction, referenced here only by export name (an
// OIMP entry). Per spec §4.M step (2), resolving it against a global
// atom database is the engine's job, not this package's; Deserialize
// returns the placeholder as-is, with Value left nil. exportName is
// appended to Names if it is not already there.
func (t *Transaction) AddImport(exportName string) int {
	idx := len(t.objects)
	t.objects = append(t.objects, &object{ExportName: exportName, Foreign: true})
	if _, ok := indexOfString(t.Names, exportName); !ok {
		t.Names = append(t.Names, exportName)
	}
	return idx
}

// IndexOf returns the object index of value, or (-1, false) if value
// was never added to this transaction — used to tell a local reference
// from a foreign one when walking object-valued atoms.
func (t *Transaction) IndexOf(value any) (int, bool) {
	for i, o := range t.objects {
		if o.Value == value {
			return i, true
		}
	}
	return -1, false
}

// Object returns the live value at object index idx.
func (t *Transaction) Object(idx int) any {
	if idx < 0 || idx >= len(t.objects) {
		return nil
	}
	return t.objects[idx].Value
}

// Objects returns the transaction's queued objects, in order.
func (t *Transaction) Objects() []any {
	out := make([]any, len(t.objects))
	for i, o := range t.objects {
		out[i] = o.Value
	}
	return out
}

// Top returns the object indices of the transaction's top-level roots.
func (t *Transaction) Top() []int { return append([]int(nil), t.top...) }

// setTop replaces the transaction's top-level root list — used by
// Deserialize once #TOP has been read, since object indices aren't
// known until every object has been allocated.
func (t *Transaction) setTop(idxs []int) { t.top = idxs }

// setExportName assigns idx's export name — used by Deserialize to
// apply #EXP's name assignments (spec §4.M deserialize step 4) after
// every object has already been allocated header-first.
func (t *Transaction) setExportName(idx int, name string) {
	if idx >= 0 && idx < len(t.objects) {
		t.objects[idx].ExportName = name
	}
}
