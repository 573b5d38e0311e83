package pipeline

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/go-github/v60/github"
	"golang.org/x/oauth2"

	"github.com/everstacklabs/presenter/internal/config"
	"github.com/everstacklabs/presenter/internal/diff"
)

const commitTitle = "chore(catalog): update model presentations"

// publish commits the written catalog on a new branch, pushes it and opens a PR.
func (p *Pipeline) publish(ctx context.Context, changesets []*diff.ChangeSet, result *SyncResult) error {
	branchName := fmt.Sprintf("presenter/catalog-%s", time.Now().UTC().Format("20060102-150405"))

	gitOps, err := OpenRepo(p.cfg.CatalogPath, p.cfg.GitHub.Token, Author{
		Name:  p.cfg.Git.AuthorName,
		Email: p.cfg.Git.AuthorEmail,
	})
	if err != nil {
		return err
	}

	if err := gitOps.CreateBranch(branchName); err != nil {
		return fmt.Errorf("creating branch: %w", err)
	}
	if err := gitOps.AddAll(); err != nil {
		return fmt.Errorf("staging changes: %w", err)
	}
	if _, err := gitOps.Commit(fmt.Sprintf("%s to %s", commitTitle, result.Version)); err != nil {
		return fmt.Errorf("committing: %w", err)
	}
	if err := gitOps.Push(branchName); err != nil {
		return fmt.Errorf("pushing: %w", err)
	}

	client, err := newGitHubClient(ctx, p.cfg.GitHub)
	if err != nil {
		return err
	}

	body := diff.RenderPRBody(changesets)
	if len(result.DraftReasons) > 0 {
		body += "\n### Opened as draft\n\n"
		for _, r := range result.DraftReasons {
			body += "- " + r + "\n"
		}
	}

	number, url, err := openPullRequest(ctx, client, p.cfg.GitHub, PullRequest{
		Title: fmt.Sprintf("%s (%s)", commitTitle, result.Version),
		Body:  body,
		Head:  branchName,
		Draft: result.PRDraft,
	})
	if err != nil {
		return err
	}
	result.PRNumber = number
	result.PRURL = url
	return nil
}

func newGitHubClient(ctx context.Context, cfg config.GitHubConfig) (*github.Client, error) {
	ts := oauth2.StaticTokenSource(&oauth2.Token{AccessToken: cfg.Token})
	client := github.NewClient(oauth2.NewClient(ctx, ts))
	if cfg.APIURL == "" {
		return client, nil
	}
	client, err := client.WithEnterpriseURLs(cfg.APIURL, cfg.APIURL)
	if err != nil {
		return nil, fmt.Errorf("configuring GitHub API URL: %w", err)
	}
	return client, nil
}

// PullRequest describes the PR opened for a catalog update.
type PullRequest struct {
	Title string
	Body  string
	Head  string
	Draft bool
}

func openPullRequest(ctx context.Context, client *github.Client, cfg config.GitHubConfig, pr PullRequest) (int, string, error) {
	created, _, err := client.PullRequests.Create(ctx, cfg.Owner, cfg.Repo, &github.NewPullRequest{
		Title: github.String(pr.Title),
		Body:  github.String(pr.Body),
		Head:  github.String(pr.Head),
		Base:  github.String(cfg.BaseBranch),
		Draft: github.Bool(pr.Draft),
	})
	if err != nil {
		return 0, "", fmt.Errorf("creating PR: %w", err)
	}

	slog.Info("PR created",
		"number", created.GetNumber(),
		"draft", pr.Draft,
		"url", created.GetHTMLURL())

	return created.GetNumber(), created.GetHTMLURL(), nil
}
