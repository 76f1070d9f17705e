package main

import (
	"context"
	"fmt"
	"io"
	"time"

	"github.com/jacoelho/bytepipe"
	"github.com/jacoelho/bytepipe/metrics"
	"go.uber.org/zap"
	"golang.org/x/text/encoding"
)

// pipeName is the label the stdio pipe is reported under.
const pipeName = "stdio"

type pump struct {
	bufferSize int
	unbounded  bool
	encoding   encoding.Encoding
	collector  *metrics.Collector
	logger     *zap.Logger
}

func (p *pump) newPipe() (*bytepipe.PipeReader, *bytepipe.PipeWriter) {
	if p.unbounded {
		return bytepipe.UnboundedPipe()
	}
	return bytepipe.Pipe(p.bufferSize)
}

// run copies src to dst, encoding the text on the way. src is read on its own
// goroutine and dst written on the calling one; the pipe couples them. A read from
// src that never returns does not keep run from returning once ctx is done or the
// output failed.
func (p *pump) run(ctx context.Context, src io.Reader, dst io.Writer) error {
	r, w := p.newPipe()
	stop := bytepipe.CloseOnDone(ctx, r, w)
	defer stop()

	if p.collector != nil {
		p.collector.Track(pipeName, r)
		defer p.collector.Untrack(pipeName)
	}

	p.logger.Debug("starting copy",
		zap.Int("buffer_size", p.bufferSize),
		zap.Bool("unbounded", p.unbounded))
	start := time.Now()

	// Each side labels its own I/O errors and hands them to the other side through
	// the pipe, so the error that surfaces names where it happened.
	inputDone := make(chan error, 1)
	go func() {
		inputDone <- p.copyIn(w, src)
	}()

	err := p.copyOut(r, dst)
	if err == nil {
		// The output only ends cleanly after the input side closed the pipe.
		select {
		case err = <-inputDone:
		case <-ctx.Done():
			err = context.Cause(ctx)
		}
	}

	s := r.Stats()
	p.logger.Info("copy finished",
		zap.Int64("bytes_written", s.Written),
		zap.Int64("bytes_read", s.Read),
		zap.Int("capacity", s.Capacity),
		zap.Int64("reader_waits", s.ReaderWaits),
		zap.Int64("writer_waits", s.WriterWaits),
		zap.Duration("elapsed", time.Since(start)))
	return err
}

func (p *pump) copyIn(w *bytepipe.PipeWriter, src io.Reader) error {
	tw := bytepipe.NewTextWriter(w, p.encoding)
	if _, err := io.Copy(tw, inputReader{src}); err != nil {
		w.CloseWithError(err)
		tw.Close()
		return err
	}
	if err := tw.Close(); err != nil {
		return fmt.Errorf("flush input: %w", err)
	}
	return nil
}

func (p *pump) copyOut(r *bytepipe.PipeReader, dst io.Writer) error {
	if _, err := r.WriteTo(outputWriter{dst}); err != nil {
		r.CloseWithError(err)
		return err
	}
	return nil
}

type inputReader struct{ r io.Reader }

func (i inputReader) Read(b []byte) (int, error) {
	n, err := i.r.Read(b)
	if err != nil && err != io.EOF {
		err = fmt.Errorf("read input: %w", err)
	}
	return n, err
}

type outputWriter struct{ w io.Writer }

func (o outputWriter) Write(b []byte) (int, error) {
	n, err := o.w.Write(b)
	if err != nil {
		err = fmt.Errorf("write output: %w", err)
	}
	return n, err
}
