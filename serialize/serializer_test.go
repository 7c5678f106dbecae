package serialize

import (
	"math"
	"testing"
)

// testNode is a minimal scene-graph node exercising a scalar property,
// a nested vector property, and an object-ref property (a parent
// pointer), enough to drive Serialize/Deserialize end to end without
// a real engine reflection database behind it.
type testNode struct {
	Label    string
	Score    int64
	Children []float64
	Parent   *testNode
}

// --- traits ---

type scalarTraits struct{ typeID uint32 }

func (scalarTraits) IsObjectRef() bool               { return false }
func (t scalarTraits) TypeID() uint32                { return t.typeID }
func (t scalarTraits) CreateDefaultValue() Atom      { return NewScalar(t.typeID, 0) }
func (scalarTraits) KeyTraits() PropertyTraits       { return nil }
func (scalarTraits) ValueTraits() PropertyTraits     { return nil }
func (scalarTraits) FirstTraits() PropertyTraits     { return nil }
func (scalarTraits) SecondTraits() PropertyTraits    { return nil }

type vectorTraits struct{ elt PropertyTraits }

func (vectorTraits) IsObjectRef() bool            { return false }
func (vectorTraits) TypeID() uint32               { return 0 }
func (vectorTraits) CreateDefaultValue() Atom     { return Atom{Kind: AtomVector} }
func (vectorTraits) KeyTraits() PropertyTraits    { return nil }
func (v vectorTraits) ValueTraits() PropertyTraits { return v.elt }
func (vectorTraits) FirstTraits() PropertyTraits  { return nil }
func (vectorTraits) SecondTraits() PropertyTraits { return nil }

type objectRefTraits struct{}

func (objectRefTraits) IsObjectRef() bool            { return true }
func (objectRefTraits) TypeID() uint32               { return 0 }
func (objectRefTraits) CreateDefaultValue() Atom     { return NewObjectRef(-1) }
func (objectRefTraits) KeyTraits() PropertyTraits    { return nil }
func (objectRefTraits) ValueTraits() PropertyTraits  { return nil }
func (objectRefTraits) FirstTraits() PropertyTraits  { return nil }
func (objectRefTraits) SecondTraits() PropertyTraits { return nil }

const floatTypeID uint32 = 100

// --- properties ---

type labelProperty struct{ tx *Transaction }

func (labelProperty) Name() string           { return "Label" }
func (labelProperty) Traits() PropertyTraits { return scalarTraits{typeID: TypeIDString} }
func (p labelProperty) WrapCopy(obj any) Atom {
	n := obj.(*testNode)
	idx, ok := indexOfString(p.tx.Strings, n.Label)
	if !ok {
		idx = len(p.tx.Strings)
		p.tx.Strings = append(p.tx.Strings, n.Label)
	}
	return NewScalar(TypeIDString, uint64(idx))
}
func (labelProperty) UnwrapMove(obj any, a Atom) {}
func (labelProperty) IsDefaultValue(obj any) bool { return obj.(*testNode).Label == "" }
func (p labelProperty) MoveFrom(obj any, a Atom) {
	obj.(*testNode).Label = p.tx.Strings[a.Scalar]
}

type scoreProperty struct{}

func (scoreProperty) Name() string           { return "Score" }
func (scoreProperty) Traits() PropertyTraits { return scalarTraits{typeID: 1} }
func (scoreProperty) WrapCopy(obj any) Atom {
	return NewScalar(1, uint64(obj.(*testNode).Score))
}
func (scoreProperty) UnwrapMove(obj any, a Atom)  {}
func (scoreProperty) IsDefaultValue(obj any) bool { return obj.(*testNode).Score == 0 }
func (scoreProperty) MoveFrom(obj any, a Atom)    { obj.(*testNode).Score = int64(a.Scalar) }

type childrenProperty struct{}

func (childrenProperty) Name() string { return "Children" }
func (childrenProperty) Traits() PropertyTraits {
	return vectorTraits{elt: scalarTraits{typeID: floatTypeID}}
}
func (childrenProperty) WrapCopy(obj any) Atom {
	n := obj.(*testNode)
	items := make([]Atom, len(n.Children))
	for i, v := range n.Children {
		items[i] = NewScalar(floatTypeID, float64Bits(v))
	}
	return Atom{Kind: AtomVector, TypeID: floatTypeID, Items: items}
}
func (childrenProperty) UnwrapMove(obj any, a Atom)  {}
func (childrenProperty) IsDefaultValue(obj any) bool { return len(obj.(*testNode).Children) == 0 }
func (childrenProperty) MoveFrom(obj any, a Atom) {
	n := obj.(*testNode)
	n.Children = make([]float64, len(a.Items))
	for i, it := range a.Items {
		n.Children[i] = bitsToFloat64(it.Scalar)
	}
}

type parentProperty struct{}

func (parentProperty) Name() string           { return "Parent" }
func (parentProperty) Traits() PropertyTraits { return objectRefTraits{} }
func (parentProperty) WrapCopy(obj any) Atom {
	n := obj.(*testNode)
	if n.Parent == nil {
		return ObjectRef(nil)
	}
	return ObjectRef(n.Parent)
}
func (parentProperty) UnwrapMove(obj any, a Atom)  {}
func (parentProperty) IsDefaultValue(obj any) bool { return obj.(*testNode).Parent == nil }
func (parentProperty) MoveFrom(obj any, a Atom) {
	n := obj.(*testNode)
	if a.Object == nil {
		n.Parent = nil
		return
	}
	n.Parent = a.Object.(*testNode)
}

// --- class / registry ---

type nodeClass struct{ tx *Transaction }

func (nodeClass) Name() string          { return "Node" }
func (nodeClass) Parent() ClassDescriptor { return nil }
func (c nodeClass) Properties() []PropertyDescriptor {
	return []PropertyDescriptor{labelProperty{tx: c.tx}, scoreProperty{}, childrenProperty{}, parentProperty{}}
}
func (nodeClass) CreateInstance() any { return &testNode{} }

type nodeRegistry struct{ class ClassDescriptor }

func (r nodeRegistry) ClassByName(name string) (ClassDescriptor, bool) {
	if name == "Node" {
		return r.class, true
	}
	return nil, false
}

func float64Bits(f float64) uint64   { return math.Float64bits(f) }
func bitsToFloat64(b uint64) float64 { return math.Float64frombits(b) }

func TestSerializeDeserializeRoundTrip(t *testing.T) {
	tx := NewTransaction()
	class := nodeClass{tx: tx}
	reg := nodeRegistry{class: class}

	root := &testNode{Label: "root", Score: 7, Children: []float64{1.5, 2.5}}
	child := &testNode{Label: "child", Score: 3, Parent: root}

	tx.Add(root, class, "root-export", true)
	tx.Add(child, class, "", false)

	data, err := Serialize(tx, reg)
	if err != nil {
		t.Fatalf("Serialize: %v", err)
	}

	out, err := Deserialize(data, reg)
	if err != nil {
		t.Fatalf("Deserialize: %v", err)
	}

	objs := out.Objects()
	if len(objs) != 2 {
		t.Fatalf("got %d objects, want 2", len(objs))
	}
	gotRoot := objs[0].(*testNode)
	gotChild := objs[1].(*testNode)

	if gotRoot.Label != "root" || gotRoot.Score != 7 {
		t.Fatalf("root = %+v, want Label=root Score=7", gotRoot)
	}
	if len(gotRoot.Children) != 2 || gotRoot.Children[0] != 1.5 || gotRoot.Children[1] != 2.5 {
		t.Fatalf("root.Children = %v, want [1.5 2.5]", gotRoot.Children)
	}
	if gotChild.Label != "child" || gotChild.Score != 3 {
		t.Fatalf("child = %+v, want Label=child Score=3", gotChild)
	}
	if gotChild.Parent != gotRoot {
		t.Fatalf("child.Parent = %p, want it to point at the deserialized root %p", gotChild.Parent, gotRoot)
	}
	if gotRoot.Parent != nil {
		t.Fatalf("root.Parent should be nil, got %+v", gotRoot.Parent)
	}

	top := out.Top()
	if len(top) != 1 || top[0] != 0 {
		t.Fatalf("Top() = %v, want [0]", top)
	}
}
