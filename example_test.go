package bytepipe

import (
	"context"
	"fmt"
	"io"
	"os"
	"strings"
)

func ExamplePipe() {
	r, w := Pipe(32 * 1024)
	defer r.Close()

	go func() {
		defer w.Close()
		for i := range 3 {
			fmt.Fprintf(w, "message %d\n", i)
		}
	}()

	_, _ = io.Copy(os.Stdout, r)
	// Output:
	// message 0
	// message 1
	// message 2
}

func ExampleNewInvertedReader() {
	r := NewInvertedReader(context.Background(), 16, func(_ context.Context, w io.Writer) error {
		_, err := io.WriteString(w, "produced on another goroutine\n")
		return err
	})
	defer r.Close()

	_, _ = io.Copy(os.Stdout, r)
	// Output:
	// produced on another goroutine
}

func ExampleNewInvertedWriter() {
	w := NewInvertedWriter(context.Background(), 16, func(_ context.Context, r io.Reader) error {
		data, err := io.ReadAll(r)
		if err != nil {
			return err
		}
		fmt.Println(strings.ToUpper(string(data)))
		return nil
	})

	fmt.Fprint(w, "consumed on another goroutine")
	_ = w.Close()
	// Output:
	// CONSUMED ON ANOTHER GOROUTINE
}
