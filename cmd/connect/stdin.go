package connect

import (
	"os"

	"github.com/muesli/cancelreader"
)

// stdin reads from standard input, using a cancelable reader when the
// platform supports it so a blocked read can be interrupted via Close.
type stdin struct {
	file        *os.File
	cancellable cancelreader.CancelReader
}

func newStdin() *stdin {
	in := &stdin{file: os.Stdin}

	cr, err := cancelreader.NewReader(os.Stdin)
	if err != nil {
		return in
	}
	in.cancellable = cr
	return in
}

func (s *stdin) Read(p []byte) (int, error) {
	if s.cancellable != nil {
		return s.cancellable.Read(p)
	}
	return s.file.Read(p)
}

// Close cancels a pending read if using a cancelable reader.
func (s *stdin) Close() error {
	if s.cancellable != nil {
		s.cancellable.Cancel()
	}
	return nil
}
