package menucache

import (
	"fmt"
)

// BackendError is returned once a provider call has exhausted its retries or
// failed with a non-retryable error.
type BackendError struct {
	Op       string // get, set, exists, del, clear
	Key      string // storage key; empty for clear
	Attempts int
	Err      error
}

func (e *BackendError) Error() string {
	if e.Key == "" {
		return fmt.Sprintf("menucache: %s failed after %d attempt(s): %v", e.Op, e.Attempts, e.Err)
	}
	return fmt.Sprintf("menucache: %s %q failed after %d attempt(s): %v", e.Op, e.Key, e.Attempts, e.Err)
}

func (e *BackendError) Unwrap() error { return e.Err }

type InvalidateError struct {
	Key     string
	BumpErr error
	DelErr  error
}

func (e *InvalidateError) Error() string {
	switch {
	case e.BumpErr != nil && e.DelErr != nil:
		return fmt.Sprintf("invalidate %q failed: gen bump and delete failed: bump=%v; delete=%v",
			e.Key, e.BumpErr, e.DelErr)
	case e.BumpErr != nil:
		return fmt.Sprintf("invalidate %q: gen bump failed: %v", e.Key, e.BumpErr)
	case e.DelErr != nil:
		return fmt.Sprintf("invalidate %q: delete failed: %v", e.Key, e.DelErr)
	default:
		return fmt.Sprintf("invalidate %q: unknown error", e.Key)
	}
}

func (e *InvalidateError) Unwrap() []error {
	errs := make([]error, 0, 2)
	if e.BumpErr != nil {
		errs = append(errs, e.BumpErr)
	}
	if e.DelErr != nil {
		errs = append(errs, e.DelErr)
	}
	return errs
}
