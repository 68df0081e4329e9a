//go:build !cbqn

package cbqn

import (
	bqnbridge "github.com/wippyai/bqn-bridge"
	"github.com/wippyai/bqn-bridge/errors"
)

// Available reports whether the binary was built against libcbqn.
const Available = false

// Interpreter is unavailable without the cbqn build tag.
type Interpreter struct {
	bqnbridge.Interpreter
}

// New always fails; rebuild with -tags cbqn.
func New() (*Interpreter, error) {
	return nil, errors.New(errors.PhaseRuntime, errors.KindNotInitialized).
		Detail("libcbqn support not compiled in (build with -tags cbqn)").
		Build()
}
