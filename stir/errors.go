package stir

import (
	"github.com/golang/glog"
	"github.com/pkg/errors"
)

// ErrIntegrity is returned when a transition references a slot id outside
// the declared state. The original C loader accepted this silently; here
// it is detected and rejected.
var ErrIntegrity = errors.New("stir: transition references an undeclared slot")

// Fatal logs msg (wrapping err, if non-nil, for context) to the diagnostic
// stream and terminates the process. It is the one place in this module
// that implements the "every error is fatal and terminal" policy; callers
// of the parser, the adapter, and the CLIs may otherwise assume success or
// non-return.
func Fatal(err error, msg string) {
	defer glog.Flush()
	if err != nil {
		glog.Fatalf("%s: %v", msg, err)
		return
	}
	glog.Fatalf("%s", msg)
}
