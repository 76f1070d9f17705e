package bytepipe

// initialUnboundedSize is the starting capacity of a growable ring.
const initialUnboundedSize = 4096

// ringBuffer is a single-producer, single-consumer byte ring.
// One slot is always left unused to tell full from empty.
type ringBuffer struct {
	data     []byte
	readPos  int
	writePos int
	growable bool
}

// newRingBuffer creates a ring holding at most size bytes.
func newRingBuffer(size int) *ringBuffer {
	return &ringBuffer{
		data: make([]byte, size+1),
	}
}

// newGrowableRingBuffer creates a ring that doubles when a write finds it full.
func newGrowableRingBuffer() *ringBuffer {
	r := newRingBuffer(initialUnboundedSize)
	r.growable = true
	return r
}

// len returns the number of buffered bytes.
func (r *ringBuffer) len() int {
	if r.writePos >= r.readPos {
		return r.writePos - r.readPos
	}
	return len(r.data) - r.readPos + r.writePos
}

// capacity returns the number of bytes the ring holds before it is full.
func (r *ringBuffer) capacity() int {
	return len(r.data) - 1
}

func (r *ringBuffer) free() int {
	return r.capacity() - r.len()
}

// read copies buffered bytes into dst and returns how many were copied.
func (r *ringBuffer) read(dst []byte) int {
	toRead := min(r.len(), len(dst))
	if toRead == 0 {
		return 0
	}

	bufLen := len(r.data)
	if r.readPos+toRead <= bufLen {
		copy(dst[:toRead], r.data[r.readPos:r.readPos+toRead])
		r.readPos = (r.readPos + toRead) % bufLen
	} else {
		firstChunk := bufLen - r.readPos
		secondChunk := toRead - firstChunk

		copy(dst[:firstChunk], r.data[r.readPos:])
		copy(dst[firstChunk:toRead], r.data[:secondChunk])

		r.readPos = secondChunk
	}

	if r.empty() {
		// rewind so the next writes are contiguous
		r.readPos, r.writePos = 0, 0
	}

	return toRead
}

// write copies as much of src as fits and returns how many bytes were taken.
// A growable ring takes all of src.
func (r *ringBuffer) write(src []byte) int {
	if r.growable && r.free() < len(src) {
		r.grow(r.len() + len(src))
	}

	toWrite := min(r.free(), len(src))
	if toWrite == 0 {
		return 0
	}

	bufLen := len(r.data)
	if r.writePos+toWrite < bufLen {
		copy(r.data[r.writePos:r.writePos+toWrite], src[:toWrite])
		r.writePos += toWrite
	} else {
		firstChunk := bufLen - r.writePos
		secondChunk := toWrite - firstChunk

		copy(r.data[r.writePos:], src[:firstChunk])
		copy(r.data[:secondChunk], src[firstChunk:toWrite])

		r.writePos = secondChunk
	}

	return toWrite
}

// reset discards the buffered bytes.
func (r *ringBuffer) reset() {
	r.readPos, r.writePos = 0, 0
}

// grow reallocates the ring so it holds at least need bytes, preserving order.
func (r *ringBuffer) grow(need int) {
	size := r.capacity()
	for size < need {
		size *= 2
	}

	data := make([]byte, size+1)
	n := r.read(data)
	r.data = data
	r.readPos = 0
	r.writePos = n
}

// empty reports whether no bytes are buffered.
func (r *ringBuffer) empty() bool {
	return r.readPos == r.writePos
}

// full reports whether a write would take no bytes.
func (r *ringBuffer) full() bool {
	if r.growable {
		return false
	}
	return (r.writePos+1)%len(r.data) == r.readPos
}
