package serialize

// Section tags, in file order, per spec §4.M. Magic is "BINA"; the
// version that must follow it is encoded separately since it is a
// fixed ASCII literal, not a FourCC.
var (
	tagMagic   = NewTag("BINA")
	tagNames   = NewTag("#NME")
	tagStrings = NewTag("#STR")
	tagWide    = NewTag("#WST")
	tagClasses = NewTag("#CLS")
	tagProps   = NewTag("#PRP")
	tagTop     = NewTag("#TOP")
	tagExports = NewTag("#EXP")
	tagObjHdrs = NewTag("#OBH")
	tagObjData = NewTag("#OBD")
	tagEnd     = NewTag("#END")
)

// fileVersion is the exact ASCII version literal that must follow the
// BINA magic — spec §6: "no forward-compatibility is promised."
const fileVersion = "1.00"

// Object body framing tags, inside #OBD.
var (
	tagObjStart = NewTag("OSTA")
	tagMetaclss = NewTag("OMTC")
	tagObjEnd   = NewTag("OEND")
)

// Atom tags.
var (
	tagAtomScalar = NewTag("ASCR")
	tagAtomPair   = NewTag("APAR")
	tagAtomVector = NewTag("AVEC")
	tagAtomDict   = NewTag("ADIC")
	tagAtomNested = NewTag("ATOM")
	tagAtomNull   = NewTag("ANUL")
)

// Object reference tags, inside an #OBH entry's Kind field.
var (
	tagObjPrivate = NewTag("OPRI")
	tagObjExport  = NewTag("OEXP")
	tagObjImport  = NewTag("OIMP")
	tagObjNull    = NewTag("ONUL")
)

// objectHeader is one #OBH entry: a FourCC kind plus the indices the
// rest of the pipeline resolves it through.
type objectHeader struct {
	Kind      Tag
	ClassIdx  uint32
	NameIdx   uint32
	DataOff   uint32
}

// exportEntry is one #EXP entry, sorted by NameIdx in the file.
type exportEntry struct {
	NameIdx   uint32
	ObjectIdx uint32
}
