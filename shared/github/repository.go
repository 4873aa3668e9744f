package github

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/go-github/v75/github"
	"github.com/marcolomele/makeup-portfolio/portfolio/domain"
)

var _ domain.DocumentSource = (*ContentsSource)(nil)

// ContentsSource is an implementation of domain.DocumentSource that reads the portfolio
// document from a repository through the GitHub contents API.
type ContentsSource struct {
	client  *github.Client
	owner   string
	gitRepo string
	path    string
	ref     string
}

// NewContentsSource creates a source for path in owner/gitRepo. An empty ref means the default branch.
func NewContentsSource(client *github.Client, owner string, gitRepo string, path string, ref string) *ContentsSource {
	return &ContentsSource{
		client:  client,
		owner:   owner,
		gitRepo: gitRepo,
		path:    path,
		ref:     ref,
	}
}

// Fetch downloads the document at the configured ref.
func (g *ContentsSource) Fetch(ctx context.Context) ([]byte, error) {
	op := fmt.Sprintf("getting file %s at ref %q", g.path, g.ref)
	fileContent, _, _, err := g.client.Repositories.GetContents(ctx, g.owner, g.gitRepo, g.path, &github.RepositoryContentGetOptions{
		Ref: g.ref,
	})
	if err != nil {
		return nil, handleGithubError(op, err)
	}

	if fileContent == nil {
		return nil, fmt.Errorf("github: %s returned a directory, not a file", op)
	}

	content, err := fileContent.GetContent()
	if err != nil {
		return nil, fmt.Errorf("github: %s failed to decode content: %w", op, err)
	}

	return []byte(content), nil
}

func (g *ContentsSource) Describe() string {
	d := fmt.Sprintf("github://%s/%s", g.GetRepoFullName(), g.path)
	if g.ref != "" {
		d += "@" + g.ref
	}
	return d
}

// GetRepoFullName returns the repository's full name (e.g., "owner/repo").
func (g *ContentsSource) GetRepoFullName() string {
	return fmt.Sprintf("%s/%s", g.owner, g.gitRepo)
}

// Path is the document's path inside the repository.
func (g *ContentsSource) Path() string {
	return g.path
}

// Ref is the configured branch, tag or commit. Empty means the default branch.
func (g *ContentsSource) Ref() string {
	return g.ref
}

// GetDefaultBranchName fetches the repository metadata and returns the name of the default branch.
func (g *ContentsSource) GetDefaultBranchName(ctx context.Context) (string, error) {
	op := fmt.Sprintf("getting repository info for %s/%s", g.owner, g.gitRepo)
	repo, _, err := g.client.Repositories.Get(ctx, g.owner, g.gitRepo)
	if err != nil {
		return "", handleGithubError(op, err)
	}
	return repo.GetDefaultBranch(), nil
}

// handleGithubError inspects an error from the go-github client and returns a more informative, structured error.
func handleGithubError(op string, err error) error {
	if err == nil {
		return nil
	}

	var errResp *github.ErrorResponse
	if errors.As(err, &errResp) && errResp.Response != nil {
		return fmt.Errorf("github: %s failed with status %d: %s", op, errResp.Response.StatusCode, errResp.Message)
	}

	return fmt.Errorf("github: %s failed: %w", op, err)
}
