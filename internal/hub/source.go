package hub

import (
	"fmt"
	"strings"
)

type Source string

const (
	SourceHuggingFace Source = "huggingface"
	SourceKaggle      Source = "kaggle"
)

// ParseSource validates a --source flag value.
func ParseSource(source string) (Source, error) {
	switch strings.ToLower(strings.TrimSpace(source)) {
	case "huggingface":
		return SourceHuggingFace, nil
	case "kaggle":
		return SourceKaggle, nil
	case "":
		return "", fmt.Errorf("empty source string. Source is required")
	default:
		return "", fmt.Errorf("unsupported source: %s (expected huggingface or kaggle)", source)
	}
}

// DownloadRequest describes a single model repo download. It is built once
// per invocation and never mutated afterwards.
type DownloadRequest struct {
	RepoID         string
	Source         Source
	OutputDir      string
	IgnorePatterns []string

	// HuggingFace credentials
	Token string

	// Kaggle credentials
	KaggleUsername string
	KaggleKey      string
}

// HasToken reports whether a HuggingFace API token was supplied, either via
// flag or environment. The gated-repo remediation message depends on this.
func (r *DownloadRequest) HasToken() bool {
	return r.Token != ""
}
