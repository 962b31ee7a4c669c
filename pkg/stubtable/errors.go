package stubtable

import "fmt"

// ResolveError reports a failed read during an import walk. Op names the step
// that failed and Addr the absolute address it was working on.
type ResolveError struct {
	Op   string
	Addr uint64
	Err  error
}

func (e *ResolveError) Error() string {
	return fmt.Sprintf("%s at 0x%x: %v", e.Op, e.Addr, e.Err)
}

func (e *ResolveError) Unwrap() error { return e.Err }
