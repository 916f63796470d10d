package huggingface

import (
	"strings"

	hfhub "github.com/cozy-creator/hf-hub/hub"
	"go.uber.org/zap"

	"github.com/tunelab/tune/internal/hub"
)

// Downloader fetches model repo snapshots from the Hugging Face Hub. Unlike
// the Kaggle path, files land directly in the requested output directory with
// no relocation step.
type Downloader struct {
	client *hfhub.Client
	logger *zap.Logger
}

func NewDownloader(logger *zap.Logger) *Downloader {
	return &Downloader{
		client: hfhub.DefaultClient(),
		logger: logger,
	}
}

func (d *Downloader) Download(req *hub.DownloadRequest) (string, error) {
	if req.OutputDir != "" {
		d.client.CacheDir = req.OutputDir
	}
	if req.Token != "" {
		d.client.WithToken(req.Token)
	}

	d.logger.Info("Downloading from HuggingFace",
		zap.String("repo_id", req.RepoID),
		zap.Strings("ignore_patterns", req.IgnorePatterns),
	)

	params := hfhub.DownloadParams{
		Repo: &hfhub.Repo{
			Id:       req.RepoID,
			Type:     hfhub.ModelRepoType,
			Revision: hfhub.DefaultRevision,
		},
		IgnorePatterns: req.IgnorePatterns,
	}

	path, err := d.client.Download(&params)
	if err != nil {
		return "", classify(req, err)
	}

	return path, nil
}

// classify maps hub client failures onto the common error taxonomy. The hub
// client surfaces HTTP failures as opaque errors carrying the status code and
// the hub's reason phrase, so classification goes by those.
func classify(req *hub.DownloadRequest, err error) error {
	msg := strings.ToLower(err.Error())
	switch {
	case strings.Contains(msg, "403") || strings.Contains(msg, "gated"):
		return &hub.GatedRepoError{RepoID: req.RepoID, Err: err}
	case strings.Contains(msg, "404") || strings.Contains(msg, "not found"):
		return &hub.NotFoundError{RepoID: req.RepoID, Source: hub.SourceHuggingFace, Err: err}
	}

	return err
}
