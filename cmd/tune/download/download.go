package cmd

import (
	"errors"
	"fmt"
	"io"
	"os"
	"path"
	"path/filepath"
	"strings"

	"github.com/spf13/cobra"

	"github.com/tunelab/tune/internal/config"
	"github.com/tunelab/tune/internal/hub"
	"github.com/tunelab/tune/internal/hub/huggingface"
	"github.com/tunelab/tune/internal/hub/kaggle"
	"github.com/tunelab/tune/internal/services/logger"
	"github.com/tunelab/tune/internal/utils/pathutil"
)

const (
	gatedRepoMsg = "It looks like you are trying to access a gated repository. " +
		"Please ensure you have access to the repository."
	gatedRepoNoTokenMsg = "It looks like you are trying to access a gated repository. " +
		"Please ensure you have access to the repository and have provided the proper Hugging Face API token " +
		"using the option `--hf-token` or the HF_TOKEN environment variable. " +
		"You can find your token by visiting https://huggingface.co/settings/tokens"
	kaggleUnauthorizedMsg = "Please ensure you have access to the model and have provided the proper Kaggle credentials " +
		"using the options `--kaggle-username` and `--kaggle-api-key`. " +
		"You can also set these to environment variables as KAGGLE_USERNAME and KAGGLE_KEY."
)

// errDownloadFailed marks failures already reported to the user with
// remediation text. The root command maps any returned error to exit code 2.
var errDownloadFailed = errors.New("download failed")

// providers are the external collaborators of the download command: one hub
// download function per source plus the relocation utility. Tests swap them
// out for fakes.
type providers struct {
	hfDownload     func(req *hub.DownloadRequest) (string, error)
	kaggleDownload func(req *hub.DownloadRequest) (string, error)
	copyTree       func(src, dst string) error
}

var Cmd = &cobra.Command{
	Use:   "download <repo-id>",
	Short: "Download a model repository from the Hugging Face Hub or the Kaggle Model Hub",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		req, err := buildRequest(cmd, args[0])
		if err != nil {
			return err
		}

		return run(req, defaultProviders(), cmd.OutOrStdout(), cmd.ErrOrStderr())
	},
}

func buildRequest(cmd *cobra.Command, repoID string) (*hub.DownloadRequest, error) {
	sourceStr, err := cmd.Flags().GetString("source")
	if err != nil {
		return nil, err
	}

	source, err := hub.ParseSource(sourceStr)
	if err != nil {
		return nil, err
	}

	outputDir, err := cmd.Flags().GetString("output-dir")
	if err != nil {
		return nil, err
	}
	if outputDir == "" {
		outputDir = filepath.Join(os.TempDir(), path.Base(repoID))
	}

	ignorePatterns, err := cmd.Flags().GetStringSlice("ignore-patterns")
	if err != nil {
		return nil, err
	}

	token, err := cmd.Flags().GetString("hf-token")
	if err != nil {
		return nil, err
	}
	if token == "" {
		token = os.Getenv("HF_TOKEN")
	}

	kaggleUsername, err := cmd.Flags().GetString("kaggle-username")
	if err != nil {
		return nil, err
	}
	if kaggleUsername == "" {
		kaggleUsername = os.Getenv("KAGGLE_USERNAME")
	}

	kaggleKey, err := cmd.Flags().GetString("kaggle-api-key")
	if err != nil {
		return nil, err
	}
	if kaggleKey == "" {
		kaggleKey = os.Getenv("KAGGLE_KEY")
	}

	return &hub.DownloadRequest{
		RepoID:         repoID,
		Source:         source,
		OutputDir:      outputDir,
		IgnorePatterns: ignorePatterns,
		Token:          token,
		KaggleUsername: kaggleUsername,
		KaggleKey:      kaggleKey,
	}, nil
}

func defaultProviders() providers {
	log := logger.GetLogger()

	return providers{
		hfDownload: huggingface.NewDownloader(log).Download,
		kaggleDownload: func(req *hub.DownloadRequest) (string, error) {
			client := kaggle.NewClient(req.KaggleUsername, req.KaggleKey, config.GetConfig().CacheDir, log)
			return client.ModelDownload(req.RepoID, req.IgnorePatterns)
		},
		copyTree: pathutil.CopyTree,
	}
}

func run(req *hub.DownloadRequest, p providers, stdout, stderr io.Writer) error {
	fmt.Fprintf(stdout, "Ignoring files matching the following patterns: %s\n",
		strings.Join(req.IgnorePatterns, ", "))

	switch req.Source {
	case hub.SourceKaggle:
		return downloadFromKaggle(req, p, stdout, stderr)
	default:
		return downloadFromHuggingFace(req, p, stdout, stderr)
	}
}

func downloadFromHuggingFace(req *hub.DownloadRequest, p providers, stdout, stderr io.Writer) error {
	localPath, err := p.hfDownload(req)
	if err != nil {
		var gated *hub.GatedRepoError
		var notFound *hub.NotFoundError
		switch {
		case errors.As(err, &gated):
			if req.HasToken() {
				fmt.Fprintln(stderr, gatedRepoMsg)
			} else {
				fmt.Fprintln(stderr, gatedRepoNoTokenMsg)
			}
		case errors.As(err, &notFound):
			fmt.Fprintf(stderr, "Repository '%s' not found on the Hugging Face Hub.\n", req.RepoID)
		default:
			return err
		}

		return errDownloadFailed
	}

	fmt.Fprintf(stdout, "Successfully downloaded model repo and wrote to %s\n", localPath)
	return nil
}

func downloadFromKaggle(req *hub.DownloadRequest, p providers, stdout, stderr io.Writer) error {
	cachePath, err := p.kaggleDownload(req)
	if err == nil {
		// Kaggle downloads land in an intermediate cache; relocate the
		// snapshot into the requested output directory with merge semantics.
		if copyErr := p.copyTree(cachePath, req.OutputDir); copyErr != nil {
			err = &hub.CopyError{Src: cachePath, Dst: req.OutputDir, Err: copyErr}
		}
	}

	if err != nil {
		var unauthorized *hub.UnauthorizedError
		var notFound *hub.NotFoundError
		var copyFailed *hub.CopyError
		switch {
		case errors.As(err, &unauthorized):
			fmt.Fprintln(stderr, kaggleUnauthorizedMsg)
		case errors.As(err, &notFound):
			fmt.Fprintf(stderr, "'%s' not found on the Kaggle Model Hub.\n", req.RepoID)
		case errors.As(err, &copyFailed):
			fmt.Fprintf(stderr, "Failed to copy: %v\n", copyFailed.Err)
		default:
			return err
		}

		return errDownloadFailed
	}

	fmt.Fprintf(stdout, "Successfully downloaded model repo and wrote to %s\n", req.OutputDir)
	return nil
}

func init() {
	flags := Cmd.Flags()

	flags.String("source", "huggingface", "The hub to download from (huggingface or kaggle)")
	flags.String("output-dir", "", "Directory in which to save the model (defaults to a directory under the system temp dir)")
	flags.String("hf-token", "", "Hugging Face API token, required for gated repositories")
	flags.String("kaggle-username", "", "Kaggle username for authentication")
	flags.String("kaggle-api-key", "", "Kaggle API key, available at https://www.kaggle.com/settings")
	flags.StringSlice("ignore-patterns", []string{"*.safetensors"}, "Glob patterns of files to skip when downloading")
}
