package transcript

import (
	"context"
	"fmt"
	"net/http"
	"net/url"
	"path"
	"strings"

	"github.com/google/go-github/v68/github"
	"golang.org/x/oauth2"
)

// GitHubArchive commits each record as a file in a GitHub repository.
type GitHubArchive struct {
	client *github.Client
	owner  string
	repo   string
	branch string
	dir    string
}

// GitHubArchiveOpts holds parameters for creating a GitHubArchive.
type GitHubArchiveOpts struct {
	Token      string
	Owner      string
	Repo       string
	Branch     string // defaults to the repository default branch when empty
	Path       string // directory inside the repository
	BaseURL    string // API base for GitHub Enterprise or tests
	HTTPClient *http.Client
}

// NewGitHubArchive creates a GitHubArchive authenticated with an OAuth2
// static token.
func NewGitHubArchive(opts GitHubArchiveOpts) (*GitHubArchive, error) {
	if opts.Token == "" {
		return nil, fmt.Errorf("transcript: github token is required")
	}
	if opts.Owner == "" || opts.Repo == "" {
		return nil, fmt.Errorf("transcript: github owner and repo are required")
	}

	ctx := context.Background()
	if opts.HTTPClient != nil {
		ctx = context.WithValue(ctx, oauth2.HTTPClient, opts.HTTPClient)
	}
	ts := oauth2.StaticTokenSource(&oauth2.Token{AccessToken: opts.Token})
	client := github.NewClient(oauth2.NewClient(ctx, ts))

	if opts.BaseURL != "" {
		base := opts.BaseURL
		if !strings.HasSuffix(base, "/") {
			base += "/"
		}
		u, err := url.Parse(base)
		if err != nil {
			return nil, fmt.Errorf("transcript: github base url: %w", err)
		}
		client.BaseURL = u
	}

	return &GitHubArchive{
		client: client,
		owner:  opts.Owner,
		repo:   opts.Repo,
		branch: opts.Branch,
		dir:    strings.Trim(opts.Path, "/"),
	}, nil
}

// Mirror implements Mirror by creating <path>/<name> in the repository.
func (g *GitHubArchive) Mirror(ctx context.Context, rec Record) error {
	data, err := Encode(rec)
	if err != nil {
		return err
	}
	file := path.Join(g.dir, rec.Name)
	opts := &github.RepositoryContentFileOptions{
		Message: github.Ptr(fmt.Sprintf("Add case study %s", rec.Name)),
		Content: data,
	}
	if g.branch != "" {
		opts.Branch = github.Ptr(g.branch)
	}
	if _, _, err := g.client.Repositories.CreateFile(ctx, g.owner, g.repo, file, opts); err != nil {
		return fmt.Errorf("transcript: github commit %s: %w", file, err)
	}
	return nil
}
