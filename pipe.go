package bytepipe

import (
	"io"
	"sync"
)

// ErrClosedPipe is returned by operations on a pipe end that can no longer be used:
// writes once the reader went away or the writer closed, reads once the reader closed.
var ErrClosedPipe = io.ErrClosedPipe

var (
	_ io.Reader       = (*PipeReader)(nil)
	_ io.WriterTo     = (*PipeReader)(nil)
	_ io.Closer       = (*PipeReader)(nil)
	_ io.Writer       = (*PipeWriter)(nil)
	_ io.StringWriter = (*PipeWriter)(nil)
	_ io.ReaderFrom   = (*PipeWriter)(nil)
	_ io.Closer       = (*PipeWriter)(nil)
)

type pipe struct {
	// readErr is returned to the reader once the writer closed and the ring drained.
	readErr error
	// writeErr is returned to the writer once the reader closed.
	writeErr error
	// closedErr is returned to the reader once it closed itself.
	closedErr error

	writerWait sync.Cond
	readerWait sync.Cond

	ring *ringBuffer
	mu   sync.Mutex

	written     int64
	read        int64
	readerWaits int64
	writerWaits int64

	readerClosed bool
	writerClosed bool
}

func newPipe(ring *ringBuffer) *pipe {
	p := &pipe{ring: ring}
	p.writerWait.L = &p.mu
	p.readerWait.L = &p.mu
	return p
}

func (p *pipe) Read(b []byte) (n int, err error) {
	if len(b) == 0 {
		return 0, nil
	}

	p.mu.Lock()
	defer p.mu.Unlock()
	if err := p.waitForReadableLocked(); err != nil {
		return 0, err
	}

	wasFull := p.ring.full()
	n = p.ring.read(b)
	p.read += int64(n)

	if wasFull {
		p.writerWait.Signal()
	}

	return n, nil
}

func (p *pipe) Write(b []byte) (n int, err error) {
	p.mu.Lock()
	defer p.mu.Unlock()
	if len(b) == 0 {
		return 0, p.writableErrLocked()
	}
	waited := false
	for len(b) > 0 {
		if err := p.waitForWritableLocked(&waited); err != nil {
			return n, err
		}
		wasEmpty := p.ring.empty()
		wrote := p.ring.write(b)
		b = b[wrote:]
		n += wrote
		p.written += int64(wrote)
		if wasEmpty {
			p.readerWait.Signal()
		}
	}
	return n, nil
}

// closeReader marks the reader gone. Writes fail with writeErr and reads fail with
// readErr; nil means ErrClosedPipe. Buffered bytes are discarded unless drain is set,
// in which case reads return them before readErr.
func (p *pipe) closeReader(writeErr, readErr error, drain bool) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.readerClosed = true
	if !drain {
		p.ring.reset()
	}
	if p.writeErr == nil {
		p.writeErr = orClosedPipe(writeErr)
	}
	if p.closedErr == nil {
		p.closedErr = orClosedPipe(readErr)
	}
	p.readerWait.Broadcast()
	p.writerWait.Broadcast()
}

func (p *pipe) closeWriter(err error) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.writerClosed = true
	if p.readErr == nil {
		if err == nil {
			err = io.EOF
		}
		p.readErr = err
	}
	p.readerWait.Broadcast()
	p.writerWait.Broadcast()
}

func orClosedPipe(err error) error {
	if err == nil {
		return ErrClosedPipe
	}
	return err
}

func (p *pipe) waitForReadableLocked() error {
	waited := false
	for {
		if !p.ring.empty() {
			return nil
		}
		if p.readerClosed {
			return p.closedErr
		}
		if p.writerClosed {
			return p.readErr
		}
		if !waited {
			p.readerWaits++
			waited = true
		}
		p.readerWait.Wait()
	}
}

func (p *pipe) writableErrLocked() error {
	if p.readerClosed {
		return p.writeErr
	}
	if p.writerClosed {
		return ErrClosedPipe
	}
	return nil
}

// waitForWritableLocked blocks until the ring has room. waited is shared by the
// waits of one Write call so the call counts once.
func (p *pipe) waitForWritableLocked(waited *bool) error {
	for {
		if err := p.writableErrLocked(); err != nil {
			return err
		}
		if !p.ring.full() {
			return nil
		}
		if !*waited {
			p.writerWaits++
			*waited = true
		}
		p.writerWait.Wait()
	}
}

// Pipe creates a pipe that buffers at most bufferSize bytes. Writes block while the
// buffer is full. A bufferSize below one is treated as one.
func Pipe(bufferSize int) (*PipeReader, *PipeWriter) {
	if bufferSize <= 0 {
		bufferSize = 1
	}
	return newPair(newPipe(newRingBuffer(bufferSize)))
}

// UnboundedPipe creates a pipe whose buffer grows to hold everything written and not
// yet read. Writes never block.
func UnboundedPipe() (*PipeReader, *PipeWriter) {
	return newPair(newPipe(newGrowableRingBuffer()))
}

func newPair(p *pipe) (*PipeReader, *PipeWriter) {
	return &PipeReader{p}, &PipeWriter{p}
}

// PipeReader is the read half of a pipe.
type PipeReader struct {
	p *pipe
}

// Read implements io.Reader. It blocks until at least one byte is buffered, returns
// io.EOF once the writer closed and the buffer drained, and ErrClosedPipe once the
// reader itself closed.
func (r *PipeReader) Read(b []byte) (int, error) {
	return r.p.Read(b)
}

// Close closes the reader side of the pipe. Bytes still buffered are discarded,
// further reads fail with ErrClosedPipe and so do pending and future writes.
func (r *PipeReader) Close() error {
	r.p.closeReader(nil, nil, false)
	return nil
}

// CloseWithError closes the reader side of the pipe with an error.
// The error will be returned to pending and future writes on the writer side;
// reads fail with ErrClosedPipe as after Close. Only the first error is kept.
func (r *PipeReader) CloseWithError(err error) error {
	r.p.closeReader(err, nil, false)
	return nil
}

// WriteTo implements io.WriterTo by reading data from the pipe
// and writing it to w until EOF or an error occurs.
func (r *PipeReader) WriteTo(w io.Writer) (n int64, err error) {
	return copyBuffered(r.Read, w.Write)
}

// Stats returns a snapshot of the pipe counters.
func (r *PipeReader) Stats() Stats {
	return r.p.stats()
}

// PipeWriter is the write half of a pipe.
type PipeWriter struct {
	p *pipe
}

// Write implements io.Writer. It blocks while a bounded buffer is full. If the reader
// closed before the call nothing is written and the reader's close error is returned.
// If the reader closes while a write larger than the free space is blocked, Write
// returns the count of bytes already buffered with the error; the close discards them.
func (w *PipeWriter) Write(b []byte) (int, error) {
	return w.p.Write(b)
}

// WriteString implements io.StringWriter.
func (w *PipeWriter) WriteString(s string) (int, error) {
	return w.p.Write([]byte(s))
}

// ReadFrom implements io.ReaderFrom by reading data from r
// and writing it to the pipe until EOF or an error occurs.
func (w *PipeWriter) ReadFrom(r io.Reader) (n int64, err error) {
	return copyBuffered(r.Read, w.Write)
}

// Close closes the writer side of the pipe. The reader drains what is buffered and
// then gets io.EOF.
func (w *PipeWriter) Close() error {
	w.p.closeWriter(nil)
	return nil
}

// CloseWithError closes the writer side of the pipe with an error.
// The error will be returned to reads on the reader side once the buffer drained.
// A nil error behaves like Close. Only the first error is kept.
func (w *PipeWriter) CloseWithError(err error) error {
	w.p.closeWriter(err)
	return nil
}

// Stats returns a snapshot of the pipe counters.
func (w *PipeWriter) Stats() Stats {
	return w.p.stats()
}
