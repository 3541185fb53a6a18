package resilience

import (
	"github.com/sourcegraph/conc/panics"
)

// guard runs a caller-supplied closure. A panic comes back as a PolicyError
// naming the closure.
func guard[R any](policy string, fn func() R) (result R, err error) {
	var catcher panics.Catcher
	catcher.Try(func() { result = fn() })
	if r := catcher.Recovered(); r != nil {
		return result, &PolicyError{Policy: policy, Err: r.AsError()}
	}
	return result, nil
}
