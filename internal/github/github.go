// Package github implements the reference tracker adapter: a spec document
// maps to one parent issue, its subtask-eligible files map to issues linked
// under that parent, and identity rides in an HTML comment marker embedded
// in every generated body so it survives front-matter loss and hand edits.
//
// All remote access goes through internal/ghcli; the adapter never reads or
// writes spec files itself. Identity minted or confirmed during a push
// travels back to the engine in RemoteRef.Files and is persisted there.
package github

import (
	"context"
	"strings"
	"sync"
	"time"

	"github.com/amondnet/spec-kit-sdk-sub001/internal/ghcli"
	"github.com/amondnet/spec-kit-sdk-sub001/internal/logging"
	"github.com/amondnet/spec-kit-sdk-sub001/internal/tracker"
)

var logger = logging.New("github")

// Platform is the adapter's registry name.
const Platform = "github"

// defaultConcurrency bounds parallel creates and updates in a batch when the
// caller does not override it.
const defaultConcurrency = 5

// Auth modes accepted in configuration. Token auth exports the token to the
// CLI subprocess environment; app auth has no native support and falls back
// to the CLI's own credentials.
const (
	AuthCLI   = "cli"
	AuthToken = "token"
	AuthApp   = "app"
)

// RepoDetector resolves a repository coordinate from the environment. It is
// the last fallback when no coordinate is configured and the tracker CLI
// cannot tell; *git.Client satisfies it.
type RepoDetector interface {
	DetectRepo(ctx context.Context) (owner, repo string, err error)
}

// Options configures the adapter. The zero value is usable: it talks to the
// default CLI binary and auto-detects the repository.
type Options struct {
	// Client is the tracker CLI facade. A default one is built when nil.
	Client *ghcli.Client

	// Git is the repository-detection fallback, consulted only when Owner
	// and Repo are empty and the CLI cannot detect them. May be nil.
	Git RepoDetector

	// Owner and Repo pin the repository coordinate. When empty it is
	// auto-detected once on first use.
	Owner string
	Repo  string

	// Auth selects the credential mode: cli (default), token, or app.
	Auth string

	// Token is required when Auth is "token".
	Token string

	// Labels maps a file kind ("spec", "plan", ..., "common") to the labels
	// applied on push. Missing kinds fall back to the kind name itself.
	Labels map[string][]string

	// Assignees and Milestone are defaults applied when creating issues.
	Assignees []string
	Milestone int

	// Concurrency bounds parallel batch operations. Defaults to 5.
	Concurrency int
}

// Adapter is the GitHub-backed tracker.Adapter. It is safe for concurrent
// use: the label cache is mutex-guarded and the repository coordinate is
// resolved once.
type Adapter struct {
	client      *ghcli.Client
	git         RepoDetector
	owner       string
	repo        string
	auth        string
	token       string
	labels      map[string][]string
	assignees   []string
	milestone   int
	concurrency int

	now func() time.Time

	repoOnce sync.Once

	labelMu     sync.Mutex
	knownLabels map[string]struct{}
}

var (
	_ tracker.Adapter        = (*Adapter)(nil)
	_ tracker.SubtaskAdapter = (*Adapter)(nil)
	_ tracker.CommentAdapter = (*Adapter)(nil)
)

// New builds the adapter from options.
func New(opts Options) *Adapter {
	client := opts.Client
	if client == nil {
		client = ghcli.NewClient(ghcli.Options{})
	}
	auth := opts.Auth
	if auth == "" {
		auth = AuthCLI
	}
	if auth == AuthApp {
		logger.Warn("auth mode \"app\" has no native support; using the tracker CLI's own credentials")
	}
	concurrency := opts.Concurrency
	if concurrency <= 0 {
		concurrency = defaultConcurrency
	}
	return &Adapter{
		client:      client,
		git:         opts.Git,
		owner:       opts.Owner,
		repo:        opts.Repo,
		auth:        auth,
		token:       opts.Token,
		labels:      opts.Labels,
		assignees:   opts.Assignees,
		milestone:   opts.Milestone,
		concurrency: concurrency,
		now:         time.Now,
		knownLabels: make(map[string]struct{}),
	}
}

// Name returns the platform identifier.
func (a *Adapter) Name() string { return Platform }

// Capabilities reports full support: batching, subtasks, labels, assignees,
// milestones, comments, and conflict resolution.
func (a *Adapter) Capabilities() tracker.Capabilities {
	return tracker.Capabilities{
		Batch:              true,
		Subtasks:           true,
		Labels:             true,
		Assignees:          true,
		Milestones:         true,
		Comments:           true,
		ConflictResolution: true,
	}
}

// Authenticate probes the tracker CLI's credentials. Token mode additionally
// requires a configured token.
func (a *Adapter) Authenticate(ctx context.Context) error {
	if a.auth == AuthToken && a.token == "" {
		return &tracker.SyncError{
			Code:    tracker.CodeAuthRequired,
			Message: "auth mode \"token\" is configured but no token is set",
		}
	}
	if err := a.client.AuthStatus(ctx); err != nil {
		se := tracker.ErrAuthRequired(Platform)
		se.Err = err
		return se
	}
	return nil
}

// CheckAuth is the non-throwing probe.
func (a *Adapter) CheckAuth(ctx context.Context) bool {
	return a.Authenticate(ctx) == nil
}

// ensureRepo resolves the repository coordinate exactly once: configured
// values win, then CLI detection, then the git remote. When everything
// fails the coordinate stays unset and the CLI falls back to its own
// working-directory resolution.
func (a *Adapter) ensureRepo(ctx context.Context) {
	a.repoOnce.Do(func() {
		if a.owner != "" && a.repo != "" {
			a.client.SetRepo(a.owner, a.repo)
			return
		}
		if owner, repo, err := a.client.DetectRepo(ctx); err == nil {
			logger.Debug("detected repository via tracker CLI", "owner", owner, "repo", repo)
			a.client.SetRepo(owner, repo)
			return
		}
		if a.git != nil {
			if owner, repo, err := a.git.DetectRepo(ctx); err == nil {
				logger.Debug("detected repository via git remote", "owner", owner, "repo", repo)
				a.client.SetRepo(owner, repo)
				return
			}
		}
		logger.Warn("could not determine the repository; relying on the tracker CLI's working-directory default")
	})
}

// toTrackerIssue projects a CLI issue into the tracker-neutral shape.
func toTrackerIssue(issue *ghcli.Issue) *tracker.Issue {
	out := &tracker.Issue{
		Number:    issue.Number,
		Title:     issue.Title,
		Body:      issue.Body,
		State:     tracker.IssueState(strings.ToUpper(issue.State)),
		Labels:    issue.LabelNames(),
		Assignees: issue.AssigneeLogins(),
		UpdatedAt: issue.UpdatedAt,
		URL:       issue.URL,
	}
	if issue.Milestone != nil {
		out.Milestone = issue.Milestone.Number
	}
	return out
}
