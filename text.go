package bytepipe

import (
	"io"
	"unicode/utf8"

	"golang.org/x/text/encoding"
	"golang.org/x/text/transform"
)

// TextWriter accepts UTF-8 text, encodes it with a character encoding and forwards the
// encoded bytes to an underlying writer, typically a PipeWriter or an InvertedWriter.
type TextWriter struct {
	dst io.WriteCloser
	enc *transform.Writer
	// scratch holds one encoded rune for WriteRune.
	scratch [utf8.UTFMax]byte
}

// NewTextWriter returns a TextWriter encoding into dst with enc. A nil enc passes
// the text through unchanged.
func NewTextWriter(dst io.WriteCloser, enc encoding.Encoding) *TextWriter {
	if enc == nil {
		enc = encoding.Nop
	}
	return &TextWriter{
		dst: dst,
		enc: transform.NewWriter(dst, enc.NewEncoder()),
	}
}

// Write encodes p, which must be UTF-8. It returns the number of bytes of p consumed.
// A rune the encoding cannot represent fails the write.
func (t *TextWriter) Write(p []byte) (int, error) {
	return t.enc.Write(p)
}

// WriteString implements io.StringWriter.
func (t *TextWriter) WriteString(s string) (int, error) {
	return t.enc.Write([]byte(s))
}

// WriteRune writes a single rune and returns the number of UTF-8 bytes it occupies.
func (t *TextWriter) WriteRune(r rune) (int, error) {
	n := utf8.EncodeRune(t.scratch[:], r)
	return t.enc.Write(t.scratch[:n])
}

// Close flushes text held by the encoder and closes the underlying writer. The first
// error encountered is returned; the underlying writer is closed either way. If the
// flush fails and dst has CloseWithError, dst is closed with that error so its
// reader does not mistake the truncated text for a clean end.
func (t *TextWriter) Close() error {
	err := t.enc.Close()
	var cerr error
	if ec, ok := t.dst.(errCloser); ok && err != nil {
		cerr = ec.CloseWithError(err)
	} else {
		cerr = t.dst.Close()
	}
	if err == nil {
		err = cerr
	}
	return err
}

type errCloser interface {
	CloseWithError(err error) error
}
