package deps

import "errors"

// ExitStack collects the release functions of scoped providers during one
// resolution pass. Close runs them in reverse registration order, always -
// on normal return and when the agent function failed alike - and joins any
// release errors.
//
// An ExitStack belongs to exactly one invocation and must not be shared.
type ExitStack struct {
	releases []func() error
}

// NewExitStack creates an empty exit stack.
func NewExitStack() *ExitStack {
	return &ExitStack{}
}

// Push registers a release function. Nil releases are ignored.
func (s *ExitStack) Push(release func() error) {
	if release == nil {
		return
	}
	s.releases = append(s.releases, release)
}

// Len returns the number of registered release functions.
func (s *ExitStack) Len() int {
	return len(s.releases)
}

// Close runs all registered release functions in reverse registration order.
// Every release runs exactly once even when earlier ones fail; Close returns
// the joined errors. The stack is empty afterwards.
func (s *ExitStack) Close() error {
	var errs []error
	for i := len(s.releases) - 1; i >= 0; i-- {
		if err := s.releases[i](); err != nil {
			errs = append(errs, err)
		}
	}
	s.releases = nil
	return errors.Join(errs...)
}
