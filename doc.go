// Package bytepipe provides an in-process byte pipe whose write end and read end
// are driven from different goroutines. Bytes come out of the reader in the order
// they went into the writer; a bounded pipe applies backpressure to the writer,
// an unbounded one grows instead. Closing either end wakes the other so neither
// side is left blocked.
//
// On top of the pipe the package offers inverted streams: NewInvertedReader turns
// a function that writes into something the caller reads, and NewInvertedWriter
// turns a function that reads into something the caller writes.
package bytepipe
