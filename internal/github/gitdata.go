package github

import (
	"context"
	"encoding/base64"

	"github.com/google/go-github/v57/github"
)

// FileChange is one file written by CommitFiles
type FileChange struct {
	Path    string
	Content []byte
}

// CommitFiles commits files on top of branch through the git data API
// without a local clone: read the branch ref and its commit, upload a blob
// per file, create a tree and a commit, then move the ref. It returns the new
// commit SHA.
func (c *Client) CommitFiles(ctx context.Context, branch, message string, files ...FileChange) (string, error) {
	c.log.Debug().Str("org", c.owner).Str("repo", c.repo).Str("branch", branch).Msg("GitHub API: Getting branch ref")
	ref, resp, err := c.client.Git.GetRef(ctx, c.owner, c.repo, "heads/"+branch)
	if err != nil {
		return "", apiError("get ref heads/"+branch, resp, err)
	}

	parentSHA := ref.GetObject().GetSHA()
	parent, resp, err := c.client.Git.GetCommit(ctx, c.owner, c.repo, parentSHA)
	if err != nil {
		return "", apiError("get commit "+parentSHA, resp, err)
	}

	entries := make([]*github.TreeEntry, 0, len(files))
	for _, f := range files {
		c.log.Debug().Str("org", c.owner).Str("repo", c.repo).Str("path", f.Path).Msg("GitHub API: Creating blob")
		blob, resp, err := c.client.Git.CreateBlob(ctx, c.owner, c.repo, &github.Blob{
			Content:  github.String(base64.StdEncoding.EncodeToString(f.Content)),
			Encoding: github.String("base64"),
		})
		if err != nil {
			return "", apiError("create blob "+f.Path, resp, err)
		}
		entries = append(entries, &github.TreeEntry{
			Path: github.String(f.Path),
			Mode: github.String("100644"),
			Type: github.String("blob"),
			SHA:  blob.SHA,
		})
	}

	c.log.Debug().Str("org", c.owner).Str("repo", c.repo).Int("entries", len(entries)).Msg("GitHub API: Creating tree")
	tree, resp, err := c.client.Git.CreateTree(ctx, c.owner, c.repo, parent.GetTree().GetSHA(), entries)
	if err != nil {
		return "", apiError("create tree", resp, err)
	}

	c.log.Debug().Str("org", c.owner).Str("repo", c.repo).Msg("GitHub API: Creating commit")
	commit, resp, err := c.client.Git.CreateCommit(ctx, c.owner, c.repo, &github.Commit{
		Message: github.String(message),
		Tree:    tree,
		Parents: []*github.Commit{{SHA: github.String(parentSHA)}},
	}, nil)
	if err != nil {
		return "", apiError("create commit", resp, err)
	}

	c.log.Debug().Str("org", c.owner).Str("repo", c.repo).Str("sha", commit.GetSHA()).Msg("GitHub API: Updating ref")
	_, resp, err = c.client.Git.UpdateRef(ctx, c.owner, c.repo, &github.Reference{
		Ref:    github.String("refs/heads/" + branch),
		Object: &github.GitObject{SHA: commit.SHA},
	}, false)
	if err != nil {
		return "", apiError("update ref heads/"+branch, resp, err)
	}

	return commit.GetSHA(), nil
}
