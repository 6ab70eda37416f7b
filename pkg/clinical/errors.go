package clinical

import (
	"context"
	"errors"
	"fmt"
	"net"
)

var (
	ErrRetrievalUnavailable  = errors.New("retrieval store unavailable")
	ErrGenerationUnavailable = errors.New("generation backend unavailable")
	ErrMalformedOutput       = errors.New("malformed generation output")
)

type Stage string

const (
	StageDraft    Stage = "draft"
	StageCritique Stage = "critique"
	StageMarkers  Stage = "markers"
)

// ParseError reports generation output that could not be turned into its typed form.
// Raw is kept verbatim for diagnostic replay.
type ParseError struct {
	Stage Stage
	Raw   string
	Err   error
}

func (e *ParseError) Error() string {
	return fmt.Sprintf("%s: %v", e.Stage, e.Err)
}

func (e *ParseError) Unwrap() []error {
	return []error{ErrMalformedOutput, e.Err}
}

// IsTimeout reports whether err came from a deadline, either a context deadline
// or a transport-level timeout of the generation client.
func IsTimeout(err error) bool {
	if err == nil {
		return false
	}
	if errors.Is(err, context.DeadlineExceeded) {
		return true
	}
	var netErr net.Error
	return errors.As(err, &netErr) && netErr.Timeout()
}
