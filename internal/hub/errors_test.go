package hub

import (
	"errors"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestErrorsUnwrap(t *testing.T) {
	cause := errors.New("403 Forbidden")

	var gated *GatedRepoError
	err := fmt.Errorf("download failed: %w", &GatedRepoError{RepoID: "meta-llama/Llama-2-7b", Err: cause})
	assert.True(t, errors.As(err, &gated))
	assert.Equal(t, "meta-llama/Llama-2-7b", gated.RepoID)
	assert.ErrorIs(t, err, cause)

	var notFound *NotFoundError
	err = &NotFoundError{RepoID: "x/y", Source: SourceKaggle, Err: cause}
	assert.True(t, errors.As(err, &notFound))
	assert.Equal(t, SourceKaggle, notFound.Source)

	var unauthorized *UnauthorizedError
	err = &UnauthorizedError{Source: SourceKaggle, Err: cause}
	assert.True(t, errors.As(err, &unauthorized))

	var copyErr *CopyError
	err = &CopyError{Src: "/a", Dst: "/b", Err: cause}
	assert.True(t, errors.As(err, &copyErr))
	assert.Contains(t, err.Error(), "failed to copy")
}

func TestErrorClassesAreDistinct(t *testing.T) {
	var gated *GatedRepoError
	assert.False(t, errors.As(&NotFoundError{Err: errors.New("404")}, &gated))

	var unauthorized *UnauthorizedError
	assert.False(t, errors.As(&GatedRepoError{Err: errors.New("403")}, &unauthorized))
}
