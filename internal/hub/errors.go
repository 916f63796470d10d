package hub

import "fmt"

// GatedRepoError is returned when the hub refuses access to a repo that
// requires explicit access approval.
type GatedRepoError struct {
	RepoID string
	Err    error
}

func (e *GatedRepoError) Error() string {
	return fmt.Sprintf("access to gated repository %s denied: %v", e.RepoID, e.Err)
}

func (e *GatedRepoError) Unwrap() error {
	return e.Err
}

// NotFoundError is returned when the requested repo does not exist on the
// selected hub.
type NotFoundError struct {
	RepoID string
	Source Source
	Err    error
}

func (e *NotFoundError) Error() string {
	return fmt.Sprintf("repository %s not found on %s: %v", e.RepoID, e.Source, e.Err)
}

func (e *NotFoundError) Unwrap() error {
	return e.Err
}

// UnauthorizedError is returned when the hub rejects the supplied
// credentials.
type UnauthorizedError struct {
	Source Source
	Err    error
}

func (e *UnauthorizedError) Error() string {
	return fmt.Sprintf("unauthorized by %s: %v", e.Source, e.Err)
}

func (e *UnauthorizedError) Unwrap() error {
	return e.Err
}

// CopyError is returned when relocating a downloaded repo from the provider
// cache to the requested output directory fails.
type CopyError struct {
	Src string
	Dst string
	Err error
}

func (e *CopyError) Error() string {
	return fmt.Sprintf("failed to copy %s to %s: %v", e.Src, e.Dst, e.Err)
}

func (e *CopyError) Unwrap() error {
	return e.Err
}
