package motion

import (
	"errors"
	"fmt"
)

// ErrEmptyStream is returned when the record stream holds no motion vectors at all.
var ErrEmptyStream = errors.New("motion: stream contains no valid motion records")

// MalformedRecordError reports a row that breaks the source/destination co-presence rule
// or cannot be decoded. Line is 1-based and counts the header; it is 0 when unknown.
type MalformedRecordError struct {
	Line        int
	FrameNumber int
	Reason      string
}

func (e *MalformedRecordError) Error() string {
	if e.Line > 0 {
		return fmt.Sprintf("motion: malformed record at line %d (frame %d): %s", e.Line, e.FrameNumber, e.Reason)
	}
	return fmt.Sprintf("motion: malformed record (frame %d): %s", e.FrameNumber, e.Reason)
}

type FrameIndexOutOfRangeError struct {
	Index int
	Len   int
}

func (e *FrameIndexOutOfRangeError) Error() string {
	return fmt.Sprintf("motion: frame index %d out of range [0, %d)", e.Index, e.Len)
}

// IsPermanent reports whether err comes from the vector data itself, so that
// re-running extraction on the same video cannot fix it.
func IsPermanent(err error) bool {
	if err == nil {
		return false
	}
	var malformed *MalformedRecordError
	var outOfRange *FrameIndexOutOfRangeError
	return errors.Is(err, ErrEmptyStream) || errors.As(err, &malformed) || errors.As(err, &outOfRange)
}
