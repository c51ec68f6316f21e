package ply

// Property is one declared column of an element row.
type Property struct {
	Name      string
	Type      string
	ByteWidth int
	IsFloat   bool
}

// Schema is the ordered property list of an element. Offsets follow declaration order.
type Schema []Property

type scalarType struct {
	width   int
	isFloat bool
}

var scalarTypes = map[string]scalarType{
	"char":    {1, false},
	"int8":    {1, false},
	"uchar":   {1, false},
	"uint8":   {1, false},
	"short":   {2, false},
	"int16":   {2, false},
	"ushort":  {2, false},
	"uint16":  {2, false},
	"int":     {4, false},
	"int32":   {4, false},
	"uint":    {4, false},
	"uint32":  {4, false},
	"float":   {4, true},
	"float32": {4, true},
	"double":  {8, false},
	"float64": {8, false},
}

// NewProperty resolves a declared type name. Unrecognized names become a 4-byte
// non-float column and known is false.
func NewProperty(typeName, name string) (p Property, known bool) {
	st, known := scalarTypes[typeName]
	if !known {
		st = scalarType{4, false}
	}
	return Property{Name: name, Type: typeName, ByteWidth: st.width, IsFloat: st.isFloat}, known
}

func (s Schema) RowSize() int {
	n := 0
	for _, p := range s {
		n += p.ByteWidth
	}
	return n
}

func (s Schema) Offsets() []int {
	offsets := make([]int, len(s))
	n := 0
	for i, p := range s {
		offsets[i] = n
		n += p.ByteWidth
	}
	return offsets
}

// Index returns the position of the first property with the exact name, or -1.
func (s Schema) Index(name string) int {
	for i, p := range s {
		if p.Name == name {
			return i
		}
	}
	return -1
}

func (s Schema) HasPosition() bool {
	return s.Index("x") >= 0 && s.Index("y") >= 0 && s.Index("z") >= 0
}

// Splat field indices into fieldLayout.index.
const (
	fieldX = iota
	fieldY
	fieldZ
	fieldDC0
	fieldDC1
	fieldDC2
	fieldOpacity
	fieldScale0
	fieldScale1
	fieldScale2
	fieldRot0
	fieldRot1
	fieldRot2
	fieldRot3
	fieldCount
)

var fieldNames = [fieldCount]string{
	"x", "y", "z",
	"f_dc_0", "f_dc_1", "f_dc_2",
	"opacity",
	"scale_0", "scale_1", "scale_2",
	"rot_0", "rot_1", "rot_2", "rot_3",
}

// fieldLayout is the schema resolved once per file for row decoding.
// index is -1 for absent fields; offset is only meaningful for binary rows.
type fieldLayout struct {
	index   [fieldCount]int
	offset  [fieldCount]int
	isF32   [fieldCount]bool
	rowSize int
}

func (s Schema) layout() fieldLayout {
	var l fieldLayout
	offsets := s.Offsets()
	for f, name := range fieldNames {
		i := s.Index(name)
		l.index[f] = i
		if i >= 0 {
			l.offset[f] = offsets[i]
			l.isF32[f] = s[i].IsFloat && s[i].ByteWidth == 4
		}
	}
	l.rowSize = s.RowSize()
	return l
}
