package escn

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/go-gl/mathgl/mgl32"
)

// Literal is dumped into the document verbatim, for the rare spots where
// the key=value encoders don't fit.
type Literal string

// Color is an RGBA value in the 0..1 range.
type Color [4]float32

// SubResourceRef references an internal resource by pool id.
type SubResourceRef int

// ExtResourceRef references an external resource by pool id.
type ExtResourceRef int

// CommentedNull renders as `null, ; <comment>` inside a typed-array list.
// The joining comma the writer appends afterwards lands behind the line
// comment, which is how the target grammar skips absent attribute arrays.
type CommentedNull string

// value is implemented by composite values that control their own
// serialized form (arrays, maps, surfaces).
type value interface {
	encodeTo(b *strings.Builder, e *Encoder)
}

// Encoder turns property values into the target grammar's literal syntax.
// Precision is the number of significant decimal digits for floats; a
// negative value selects the shortest form that round-trips a float32.
// The chosen precision is part of the output contract: regression diffing
// relies on identical input producing identical text.
type Encoder struct {
	Precision int
}

// FormatFloat renders one float32 with the configured precision.
// Negative zero normalizes to "0" so semantically equal inputs cannot
// produce differing documents.
func (e *Encoder) FormatFloat(f float32) string {
	if f == 0 {
		return "0"
	}
	return strconv.FormatFloat(float64(f), 'g', e.Precision, 32)
}

// EncodeValue renders any supported property value.
func (e *Encoder) EncodeValue(v interface{}) string {
	var b strings.Builder
	e.encodeValue(&b, v)
	return b.String()
}

func (e *Encoder) encodeValue(b *strings.Builder, v interface{}) {
	switch t := v.(type) {
	case nil:
		b.WriteString("null")
	case bool:
		if t {
			b.WriteString("true")
		} else {
			b.WriteString("false")
		}
	case int:
		b.WriteString(strconv.Itoa(t))
	case int64:
		b.WriteString(strconv.FormatInt(t, 10))
	case uint32:
		b.WriteString(strconv.FormatUint(uint64(t), 10))
	case float32:
		b.WriteString(e.FormatFloat(t))
	case float64:
		b.WriteString(e.FormatFloat(float32(t)))
	case string:
		b.WriteString(strconv.Quote(t))
	case Literal:
		b.WriteString(string(t))
	case CommentedNull:
		b.WriteString("null, ; ")
		b.WriteString(string(t))
	case SubResourceRef:
		fmt.Fprintf(b, "SubResource(%d)", int(t))
	case ExtResourceRef:
		fmt.Fprintf(b, "ExtResource(%d)", int(t))
	case NodePath:
		b.WriteString("NodePath(\"")
		b.WriteString(t.String())
		b.WriteString("\")")
	case mgl32.Vec2:
		fmt.Fprintf(b, "Vector2(%s, %s)", e.FormatFloat(t.X()), e.FormatFloat(t.Y()))
	case mgl32.Vec3:
		fmt.Fprintf(b, "Vector3(%s, %s, %s)",
			e.FormatFloat(t.X()), e.FormatFloat(t.Y()), e.FormatFloat(t.Z()))
	case mgl32.Quat:
		fmt.Fprintf(b, "Quat(%s, %s, %s, %s)",
			e.FormatFloat(t.X()), e.FormatFloat(t.Y()), e.FormatFloat(t.Z()),
			e.FormatFloat(t.W))
	case Color:
		fmt.Fprintf(b, "Color( %s, %s, %s, %s )",
			e.FormatFloat(t[0]), e.FormatFloat(t[1]),
			e.FormatFloat(t[2]), e.FormatFloat(t[3]))
	case mgl32.Mat4:
		e.encodeTransform(b, t)
	case value:
		t.encodeTo(b, e)
	default:
		// Unknown types indicate a converter bug; make it visible in the
		// output rather than silently dropping the property.
		fmt.Fprintf(b, "null ; unencodable %T", v)
	}
}

// encodeTransform writes the 3x3 basis in row-major order followed by the
// origin, the target grammar's Transform constructor.
func (e *Encoder) encodeTransform(b *strings.Builder, m mgl32.Mat4) {
	parts := make([]string, 0, 12)
	for row := 0; row < 3; row++ {
		for col := 0; col < 3; col++ {
			parts = append(parts, e.FormatFloat(m.At(row, col)))
		}
	}
	for row := 0; row < 3; row++ {
		parts = append(parts, e.FormatFloat(m.At(row, 3)))
	}
	b.WriteString("Transform( ")
	b.WriteString(strings.Join(parts, ", "))
	b.WriteString(" )")
}
