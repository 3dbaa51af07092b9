package escn

import (
	"fmt"
	"io"
	"os"
	"strconv"
	"strings"

	"github.com/spaghettifunk/escargot/exporter/core"
)

// FormatVersion is the escn grammar revision this writer emits.
const FormatVersion = 2

// Writer projects a finished File onto text. It performs no mutation of
// ids or paths; everything is fixed by the time it runs, which is what
// makes the output reproducible. No host paths or timestamps are emitted.
type Writer struct {
	enc Encoder
}

// NewWriter creates a writer with the given float precision (see
// Encoder.Precision).
func NewWriter(precision int) *Writer {
	return &Writer{enc: Encoder{Precision: precision}}
}

// Marshal renders the whole document: header, external resources,
// internal sub-resources in pool order, then nodes in traversal order.
func (w *Writer) Marshal(f *File) []byte {
	var b strings.Builder

	fmt.Fprintf(&b, "[gd_scene load_steps=%d format=%d]\n", f.LoadSteps(), FormatVersion)

	for _, ext := range f.ExternalResources() {
		fmt.Fprintf(&b, "\n[ext_resource path=%s type=%s id=%d]\n",
			strconv.Quote(ext.Path()), strconv.Quote(ext.Type()), ext.ID())
	}

	for _, res := range f.InternalResources() {
		fmt.Fprintf(&b, "\n[sub_resource type=%s id=%d]\n",
			strconv.Quote(res.Type()), res.ID())
		w.writeProps(&b, &res.props)
	}

	for _, n := range f.Nodes() {
		if n.Parent() == nil {
			fmt.Fprintf(&b, "\n[node name=%s type=%s]\n",
				strconv.Quote(n.Name()), strconv.Quote(n.Type()))
		} else {
			fmt.Fprintf(&b, "\n[node name=%s type=%s parent=%s]\n",
				strconv.Quote(n.Name()), strconv.Quote(n.Type()),
				strconv.Quote(n.ParentPath()))
		}
		w.writeProps(&b, &n.props)
	}

	return []byte(b.String())
}

// WriteTo streams the document to out.
func (w *Writer) WriteTo(f *File, out io.Writer) error {
	if _, err := out.Write(w.Marshal(f)); err != nil {
		return fmt.Errorf("%w: %v", core.ErrOutputIO, err)
	}
	return nil
}

// WriteFile serializes to memory first and writes in one call, so an I/O
// failure never leaves a truncated document behind.
func (w *Writer) WriteFile(f *File, path string) error {
	data := w.Marshal(f)
	if err := os.WriteFile(path, data, 0o644); err != nil {
		return fmt.Errorf("%w: %v", core.ErrOutputIO, err)
	}
	return nil
}

func (w *Writer) writeProps(b *strings.Builder, props *propList) {
	if len(props.keys) == 0 {
		return
	}
	b.WriteString("\n")
	for _, key := range props.keys {
		b.WriteString(key)
		b.WriteString(" = ")
		b.WriteString(w.enc.EncodeValue(props.values[key]))
		b.WriteString("\n")
	}
}
