package bytepipe

// Stats is a consistent snapshot of a pipe's counters.
type Stats struct {
	// Written and Read are the total bytes accepted by the writer and handed to the reader.
	Written int64
	Read    int64
	// Buffered is the number of bytes written and not yet read.
	Buffered int
	// Capacity is the current buffer size. It only changes for unbounded pipes.
	Capacity int
	Bounded  bool
	// ReaderWaits and WriterWaits count the Read and Write calls that had to wait on
	// the other side, each call once however often it woke up.
	ReaderWaits int64
	WriterWaits int64

	ReaderClosed bool
	WriterClosed bool
}

func (p *pipe) stats() Stats {
	p.mu.Lock()
	defer p.mu.Unlock()
	return Stats{
		Written:      p.written,
		Read:         p.read,
		Buffered:     p.ring.len(),
		Capacity:     p.ring.capacity(),
		Bounded:      !p.ring.growable,
		ReaderWaits:  p.readerWaits,
		WriterWaits:  p.writerWaits,
		ReaderClosed: p.readerClosed,
		WriterClosed: p.writerClosed,
	}
}
