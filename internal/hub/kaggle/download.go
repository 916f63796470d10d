package kaggle

import (
	"errors"
	"fmt"
	"io"
	"os"
	"path"
	"path/filepath"
	"strconv"
	"time"

	"github.com/cenkalti/backoff/v4"
	"github.com/gammazero/workerpool"
	"github.com/google/uuid"
	"github.com/vbauerster/mpb/v7"
	"github.com/vbauerster/mpb/v7/decor"
	"go.uber.org/zap"

	"github.com/tunelab/tune/internal/hub"
)

const downloadWorkers = 4

// ModelDownload fetches the files of the model variation into the client's
// cache directory and returns the local snapshot path, skipping any file
// whose name matches one of ignorePatterns. The caller is responsible for
// relocating the snapshot to its final destination.
func (c *Client) ModelDownload(handleStr string, ignorePatterns []string) (string, error) {
	handle, err := ParseHandle(handleStr)
	if err != nil {
		return "", err
	}

	version := handle.Version
	if version == 0 {
		version, err = c.latestVersion(handle)
		if err != nil {
			return "", err
		}
	}

	dest := filepath.Join(c.cacheDir, "kaggle",
		handle.Owner, handle.Model, handle.Framework, handle.Variation, strconv.Itoa(version))
	if _, err := os.Stat(dest); err == nil {
		c.logger.Info("Model already in cache", zap.String("path", dest))
		return dest, nil
	}

	files, err := c.listFiles(handle, version)
	if err != nil {
		return "", err
	}
	if len(files) == 0 {
		return "", fmt.Errorf("model %s has no files", handle)
	}

	files = filterFiles(files, ignorePatterns)
	if len(files) == 0 {
		return "", fmt.Errorf("all files of model %s match the ignore patterns", handle)
	}

	// Download into a staging directory first so a partially fetched
	// snapshot never appears at the cache path.
	staging := filepath.Join(c.cacheDir, "kaggle", ".staging", uuid.NewString())
	if err := os.MkdirAll(staging, 0755); err != nil {
		return "", fmt.Errorf("failed to create staging directory: %w", err)
	}
	defer os.RemoveAll(staging)

	c.logger.Info("Downloading from Kaggle",
		zap.String("handle", handle.String()),
		zap.Int("version", version),
		zap.Int("files", len(files)),
	)

	progress := mpb.New(
		mpb.WithWidth(60),
		mpb.WithRefreshRate(180*time.Millisecond),
	)

	pool := workerpool.New(downloadWorkers)
	errorChan := make(chan error, len(files))

	for _, file := range files {
		file := file
		pool.Submit(func() {
			if err := c.downloadFile(handle, version, file, staging, progress); err != nil {
				errorChan <- err
			}
		})
	}

	pool.StopWait()
	progress.Wait()
	close(errorChan)

	for err := range errorChan {
		if err != nil {
			return "", err
		}
	}

	if err := os.MkdirAll(filepath.Dir(dest), 0755); err != nil {
		return "", fmt.Errorf("failed to create cache directory: %w", err)
	}

	if err := os.Rename(staging, dest); err != nil {
		return "", fmt.Errorf("failed to move snapshot into cache: %w", err)
	}

	return dest, nil
}

func filterFiles(files []fileInfo, ignorePatterns []string) []fileInfo {
	if len(ignorePatterns) == 0 {
		return files
	}

	kept := make([]fileInfo, 0, len(files))
	for _, file := range files {
		if !matchesAny(file.Name, ignorePatterns) {
			kept = append(kept, file)
		}
	}

	return kept
}

func matchesAny(name string, patterns []string) bool {
	for _, pattern := range patterns {
		if ok, _ := path.Match(pattern, name); ok {
			return true
		}
		if ok, _ := path.Match(pattern, path.Base(name)); ok {
			return true
		}
	}

	return false
}

func (c *Client) downloadFile(handle *Handle, version int, file fileInfo, destDir string, progress *mpb.Progress) error {
	destPath := filepath.Join(destDir, filepath.FromSlash(file.Name))
	if err := os.MkdirAll(filepath.Dir(destPath), 0755); err != nil {
		return fmt.Errorf("failed to create directory for %s: %w", file.Name, err)
	}

	b := backoff.NewExponentialBackOff()
	b.MaxElapsedTime = 5 * time.Minute
	b.InitialInterval = 1 * time.Second
	b.MaxInterval = 30 * time.Second

	// retry with backoff; auth and not-found failures are permanent
	return backoff.Retry(func() error {
		err := c.fetchFile(handle, version, file, destPath, progress)
		if err == nil {
			return nil
		}

		var unauthorized *hub.UnauthorizedError
		var notFound *hub.NotFoundError
		if errors.As(err, &unauthorized) || errors.As(err, &notFound) {
			return backoff.Permanent(err)
		}

		return err
	}, b)
}

func (c *Client) fetchFile(handle *Handle, version int, file fileInfo, destPath string, progress *mpb.Progress) error {
	urlPath := fmt.Sprintf("/models/%s/%s/%s/%s/%d/download/%s",
		handle.Owner, handle.Model, handle.Framework, handle.Variation, version, file.Name)

	resp, err := c.do(urlPath, handle)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	bar := progress.AddBar(file.TotalBytes,
		mpb.BarRemoveOnComplete(),
		mpb.PrependDecorators(
			decor.Name(file.Name, decor.WC{W: 40, C: decor.DidentRight}),
			decor.CountersKibiByte("% .2f / % .2f"),
		),
		mpb.AppendDecorators(
			decor.EwmaETA(decor.ET_STYLE_GO, 90),
			decor.Name(" ] "),
			decor.EwmaSpeed(decor.UnitKiB, "% .2f", 60),
		),
	)

	f, err := os.OpenFile(destPath, os.O_CREATE|os.O_WRONLY|os.O_TRUNC, 0644)
	if err != nil {
		bar.Abort(true)
		return fmt.Errorf("failed to open file: %w", err)
	}
	defer f.Close()

	reader := bar.ProxyReader(resp.Body)
	defer reader.Close()

	if _, err := io.Copy(f, reader); err != nil {
		bar.Abort(true)
		return fmt.Errorf("write failed: %w", err)
	}

	// The reported size can disagree with the actual body length, so force
	// completion off the bytes actually written.
	bar.SetTotal(bar.Current(), true)

	return nil
}
