// Package cli defines the treecat command.
package cli

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"strconv"
	"strings"

	"github.com/spf13/cobra"

	githubadapter "github.com/tilsley/treecat/apps/treecat/internal/adapters/github"
	"github.com/tilsley/treecat/apps/treecat/internal/gitrepo"
	platformgithub "github.com/tilsley/treecat/apps/treecat/internal/platform/github"
	"github.com/tilsley/treecat/apps/treecat/internal/walker"
)

// Defaults name the repository snapshot printed when nothing else is given.
const (
	DefaultOwner  = "fenwick-t"
	DefaultRepo   = "MyRepo1"
	DefaultCommit = "de4d316bfe286862c52206cb99042563dcd7fd09"
)

// ClientFactory builds the git object client for the configured auth.
type ClientFactory func(auth platformgithub.Auth) (gitrepo.Client, error)

// GitHubClient is the ClientFactory backed by go-github.
func GitHubClient(auth platformgithub.Auth) (gitrepo.Client, error) {
	gh, err := platformgithub.New(auth)
	if err != nil {
		return nil, err
	}
	return githubadapter.New(gh), nil
}

type options struct {
	owner        string
	repo         string
	commit       string
	apiURL       string
	naturalOrder bool
	pause        bool
}

// NewCLI creates the treecat command.
func NewCLI(log *slog.Logger, newClient ClientFactory) *cobra.Command {
	opts := &options{}

	cmd := &cobra.Command{
		Use:   "treecat [OWNER/REPO] [COMMIT]",
		Short: "Print every file of a GitHub repository at a commit.",
		Long: `treecat lists the recursive tree of a commit through the GitHub Git Data API,
fetches every blob in it and writes the decoded content to stdout, one blob
after another. Entries are visited last-to-first unless --natural-order is set.

Authentication:
  GITHUB_TOKEN                      personal access token (anonymous if unset)
  GITHUB_APP_ID,
  GITHUB_APP_INSTALLATION_ID,
  GITHUB_APP_PRIVATE_KEY_PATH       GitHub App installation auth, used when all are set`,
		Args:          cobra.MaximumNArgs(2),
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			if err := opts.applyArgs(args); err != nil {
				return err
			}

			auth, err := authFromEnv(opts.apiURL)
			if err != nil {
				return err
			}
			if auth.UsesApp() {
				log.Info("github: using app auth", "appID", auth.AppID, "installationID", auth.InstallationID)
			} else {
				log.Info("github: using token auth", "url", apiURLOrDefault(opts.apiURL), "anonymous", auth.Token == "")
			}

			client, err := newClient(auth)
			if err != nil {
				return fmt.Errorf("create github client: %w", err)
			}

			order := walker.OrderReverse
			if opts.naturalOrder {
				order = walker.OrderNatural
			}
			target := walker.Target{Owner: opts.owner, Repo: opts.repo, CommitSHA: opts.commit}

			sum, err := walker.New(client, cmd.OutOrStdout(), log, order).Run(cmd.Context(), target)
			if err != nil {
				return err
			}
			log.Info("tree printed",
				"target", target.String(),
				"entries", sum.Entries,
				"blobs", sum.Blobs,
				"skipped", sum.Skipped,
				"bytes", sum.Bytes,
			)

			if opts.pause {
				waitForKey(cmd.Context(), cmd.InOrStdin())
			}
			return nil
		},
	}

	f := cmd.Flags()
	f.StringVar(&opts.owner, "owner", envOr("TREECAT_OWNER", DefaultOwner), "repository owner")
	f.StringVar(&opts.repo, "repo", envOr("TREECAT_REPO", DefaultRepo), "repository name")
	f.StringVar(&opts.commit, "commit", envOr("TREECAT_COMMIT", DefaultCommit), "commit SHA to print")
	f.StringVar(&opts.apiURL, "api-url", envOr("GITHUB_API_URL", ""), "GitHub API base URL (empty for api.github.com)")
	f.BoolVar(&opts.naturalOrder, "natural-order", false, "visit tree entries in API order instead of reverse")
	f.BoolVar(&opts.pause, "pause", envOr("TREECAT_PAUSE", "") == "true", "wait for a key press before exiting, as an interactive console run would (off by default so output can be piped)")

	return cmd
}

// applyArgs lets positional OWNER/REPO and COMMIT override the flags.
func (o *options) applyArgs(args []string) error {
	if len(args) > 0 {
		owner, repo, ok := strings.Cut(args[0], "/")
		if !ok || owner == "" || repo == "" || strings.Contains(repo, "/") {
			return fmt.Errorf("invalid repository %q: want OWNER/REPO", args[0])
		}
		o.owner, o.repo = owner, repo
	}
	if len(args) > 1 {
		o.commit = args[1]
	}
	if o.owner == "" || o.repo == "" || o.commit == "" {
		return errors.New("owner, repo and commit must not be empty")
	}
	return nil
}

func authFromEnv(apiURL string) (platformgithub.Auth, error) {
	auth := platformgithub.Auth{
		Token:          os.Getenv("GITHUB_TOKEN"),
		PrivateKeyPath: os.Getenv("GITHUB_APP_PRIVATE_KEY_PATH"),
		BaseURL:        apiURL,
	}

	var err error
	if v := os.Getenv("GITHUB_APP_ID"); v != "" {
		if auth.AppID, err = strconv.ParseInt(v, 10, 64); err != nil {
			return auth, fmt.Errorf("invalid GITHUB_APP_ID: %w", err)
		}
	}
	if v := os.Getenv("GITHUB_APP_INSTALLATION_ID"); v != "" {
		if auth.InstallationID, err = strconv.ParseInt(v, 10, 64); err != nil {
			return auth, fmt.Errorf("invalid GITHUB_APP_INSTALLATION_ID: %w", err)
		}
	}
	return auth, nil
}

// waitForKey blocks until one byte can be read from r, r is exhausted, or ctx
// is cancelled. On cancellation the pending read is abandoned.
func waitForKey(ctx context.Context, r io.Reader) {
	done := make(chan struct{})
	go func() {
		defer close(done)
		var b [1]byte
		_, _ = r.Read(b[:])
	}()
	select {
	case <-done:
	case <-ctx.Done():
	}
}

func apiURLOrDefault(u string) string {
	if u == "" {
		return "https://api.github.com"
	}
	return u
}

func envOr(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}
