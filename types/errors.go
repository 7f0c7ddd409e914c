package types

import "fmt"

// InputError means a required local input is missing or unreadable. It is
// fatal and aborts the run before any stage executes.
type InputError struct {
	Path   string
	Reason string
}

func (e *InputError) Error() string {
	return fmt.Sprintf("input %s: %s", e.Path, e.Reason)
}

// DriveError means cloud-storage authentication, listing or download failed.
// It is fatal at mode resolution: there is no content to substitute.
type DriveError struct {
	Op  string
	Err error
}

func (e *DriveError) Error() string {
	return fmt.Sprintf("drive %s: %v", e.Op, e.Err)
}

func (e *DriveError) Unwrap() error { return e.Err }

// PackagingError means the final archive or JSON could not be written.
type PackagingError struct {
	Path string
	Err  error
}

func (e *PackagingError) Error() string {
	return fmt.Sprintf("packaging %s: %v", e.Path, e.Err)
}

func (e *PackagingError) Unwrap() error { return e.Err }

// RunError is the structured terminal error of a failed run, naming the
// stage that failed.
type RunError struct {
	Status  string `json:"status"`
	Stage   string `json:"stage"`
	Message string `json:"message"`
	Err     error  `json:"-"`
}

func (e *RunError) Error() string {
	return fmt.Sprintf("stage %s: %s", e.Stage, e.Message)
}

func (e *RunError) Unwrap() error { return e.Err }
