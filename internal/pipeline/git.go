package pipeline

import (
	"fmt"
	"time"

	"github.com/go-git/go-git/v5"
	gitconfig "github.com/go-git/go-git/v5/config"
	"github.com/go-git/go-git/v5/plumbing"
	"github.com/go-git/go-git/v5/plumbing/object"
	githttp "github.com/go-git/go-git/v5/plumbing/transport/http"
)

// Author is the identity used for catalog commits.
type Author struct {
	Name  string
	Email string
}

// GitOps handles git operations for the repository holding the catalog.
type GitOps struct {
	repo     *git.Repository
	worktree *git.Worktree
	token    string
	author   Author
}

// OpenRepo opens the git repository containing path. path may be a
// subdirectory of the worktree.
func OpenRepo(path, token string, author Author) (*GitOps, error) {
	repo, err := git.PlainOpenWithOptions(path, &git.PlainOpenOptions{DetectDotGit: true})
	if err != nil {
		return nil, fmt.Errorf("opening repo: %w", err)
	}

	wt, err := repo.Worktree()
	if err != nil {
		return nil, fmt.Errorf("getting worktree: %w", err)
	}

	return &GitOps{repo: repo, worktree: wt, token: token, author: author}, nil
}

// CreateBranch creates a branch at HEAD and checks it out, keeping
// uncommitted changes in the worktree.
func (g *GitOps) CreateBranch(name string) error {
	headRef, err := g.repo.Head()
	if err != nil {
		return fmt.Errorf("getting HEAD: %w", err)
	}

	branchRef := plumbing.NewBranchReferenceName(name)
	ref := plumbing.NewHashReference(branchRef, headRef.Hash())

	if err := g.repo.Storer.SetReference(ref); err != nil {
		return fmt.Errorf("creating branch ref: %w", err)
	}

	return g.worktree.Checkout(&git.CheckoutOptions{
		Branch: branchRef,
		Keep:   true,
	})
}

// AddAll stages all changes.
func (g *GitOps) AddAll() error {
	return g.worktree.AddWithOptions(&git.AddOptions{All: true})
}

// Commit creates a commit with the given message and returns its hash.
func (g *GitOps) Commit(message string) (string, error) {
	hash, err := g.worktree.Commit(message, &git.CommitOptions{
		Author: &object.Signature{
			Name:  g.author.Name,
			Email: g.author.Email,
			When:  time.Now(),
		},
	})
	if err != nil {
		return "", err
	}
	return hash.String(), nil
}

// Push pushes branch to origin.
func (g *GitOps) Push(branch string) error {
	spec := fmt.Sprintf("+refs/heads/%s:refs/heads/%s", branch, branch)
	return g.repo.Push(&git.PushOptions{
		RemoteName: "origin",
		RefSpecs:   []gitconfig.RefSpec{gitconfig.RefSpec(spec)},
		Auth: &githttp.BasicAuth{
			Username: "x-access-token",
			Password: g.token,
		},
	})
}
