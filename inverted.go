package bytepipe

import (
	"context"
	"errors"
	"io"
	"sync"

	"golang.org/x/sync/errgroup"
)

var (
	_ io.ReadCloser   = (*InvertedReader)(nil)
	_ io.WriterTo     = (*InvertedReader)(nil)
	_ io.WriteCloser  = (*InvertedWriter)(nil)
	_ io.StringWriter = (*InvertedWriter)(nil)
)

// InvertedReader reads what a producer function writes. The producer runs on its own
// goroutine and blocks whenever the pipe between them is full.
type InvertedReader struct {
	r     *PipeReader
	group errgroup.Group
	stop  func() bool

	closeOnce sync.Once
	closeErr  error
}

// NewInvertedReader starts produce on a new goroutine and returns a reader over the
// bytes it writes. The reader returns io.EOF after produce returns nil and produce's
// error after it fails. Cancelling ctx unblocks both sides with the context's cause.
// Close must be called to release the producer.
func NewInvertedReader(ctx context.Context, bufferSize int, produce func(ctx context.Context, w io.Writer) error) *InvertedReader {
	r, w := Pipe(bufferSize)
	ir := &InvertedReader{r: r}
	ir.stop = CloseOnDone(ctx, r, w)
	ir.group.Go(func() error {
		err := produce(ctx, w)
		w.CloseWithError(err)
		return err
	})
	return ir
}

// Read implements io.Reader.
func (ir *InvertedReader) Read(b []byte) (int, error) {
	return ir.r.Read(b)
}

// WriteTo implements io.WriterTo.
func (ir *InvertedReader) WriteTo(w io.Writer) (int64, error) {
	return ir.r.WriteTo(w)
}

// Close abandons the stream, waits for the producer to return and reports its error.
// The ErrClosedPipe the producer gets from writing into the abandoned pipe is not
// reported.
func (ir *InvertedReader) Close() error {
	ir.closeOnce.Do(func() {
		ir.r.Close()
		err := ir.group.Wait()
		ir.stop()
		if !errors.Is(err, ErrClosedPipe) {
			ir.closeErr = err
		}
	})
	return ir.closeErr
}

// Stats returns a snapshot of the underlying pipe counters.
func (ir *InvertedReader) Stats() Stats {
	return ir.r.Stats()
}

// InvertedWriter feeds what is written to it into a consumer function running on its
// own goroutine.
type InvertedWriter struct {
	w     *PipeWriter
	group errgroup.Group
	stop  func() bool

	closeOnce sync.Once
	closeErr  error
}

// NewInvertedWriter starts consume on a new goroutine and returns a writer whose bytes
// consume reads. If consume fails, writes fail with its error; if it returns nil
// before reading everything, writes fail with ErrClosedPipe. Cancelling ctx unblocks
// both sides with the context's cause.
func NewInvertedWriter(ctx context.Context, bufferSize int, consume func(ctx context.Context, r io.Reader) error) *InvertedWriter {
	r, w := Pipe(bufferSize)
	iw := &InvertedWriter{w: w}
	iw.stop = CloseOnDone(ctx, r, w)
	iw.group.Go(func() error {
		err := consume(ctx, r)
		r.CloseWithError(err)
		return err
	})
	return iw
}

// Write implements io.Writer.
func (iw *InvertedWriter) Write(b []byte) (int, error) {
	return iw.w.Write(b)
}

// WriteString implements io.StringWriter.
func (iw *InvertedWriter) WriteString(s string) (int, error) {
	return iw.w.WriteString(s)
}

// ReadFrom implements io.ReaderFrom.
func (iw *InvertedWriter) ReadFrom(r io.Reader) (int64, error) {
	return iw.w.ReadFrom(r)
}

// Close ends the stream, waits for the consumer to return and reports its error.
func (iw *InvertedWriter) Close() error {
	return iw.CloseWithError(nil)
}

// CloseWithError ends the stream so the consumer reads err instead of io.EOF, then
// waits for the consumer to return and reports its error. Only the first call has
// an effect.
func (iw *InvertedWriter) CloseWithError(err error) error {
	iw.closeOnce.Do(func() {
		iw.w.CloseWithError(err)
		iw.closeErr = iw.group.Wait()
		iw.stop()
	})
	return iw.closeErr
}

// Stats returns a snapshot of the underlying pipe counters.
func (iw *InvertedWriter) Stats() Stats {
	return iw.w.Stats()
}
