package bytepipe

import "context"

// CloseOnDone closes both ends of a pipe with the context's cause once ctx is done,
// so blocked reads and writes return that error instead of waiting; reads still
// drain what is buffered first. Either end may be nil. Calling stop detaches the hook; it reports whether the hook was still
// pending.
func CloseOnDone(ctx context.Context, r *PipeReader, w *PipeWriter) (stop func() bool) {
	return context.AfterFunc(ctx, func() {
		err := context.Cause(ctx)
		if r != nil {
			r.p.closeReader(err, err, true)
		}
		if w != nil {
			w.CloseWithError(err)
		}
	})
}
