package github

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"os/exec"
	"strings"
	"sync"
	"time"
)

// Source produces the four pull request lists for one poll cycle.
type Source interface {
	Viewer(ctx context.Context) (string, error)
	Fetch(ctx context.Context, q Query) (*QueryResult, error)
}

type Query struct {
	Viewer      string
	MergedSince time.Time
}

// ErrNotAuthenticated is returned when gh reports a missing or expired login.
var ErrNotAuthenticated = errors.New("gh CLI is not authenticated, run `gh auth login` first")

// Client is the live Source, backed by the gh CLI.
type Client struct {
	bin    string
	logger *slog.Logger
}

func NewClient(logger *slog.Logger) *Client {
	return NewClientWithBinary(ResolveBinary(), logger)
}

// NewClientWithBinary pins the gh executable instead of searching for it.
func NewClientWithBinary(bin string, logger *slog.Logger) *Client {
	return &Client{bin: bin, logger: logger}
}

var binaryCandidates = []string{
	"/opt/homebrew/bin/gh",
	"/usr/local/bin/gh",
	"/usr/bin/gh",
	"/run/current-system/sw/bin/gh",
}

var (
	resolveOnce sync.Once
	resolvedBin string
)

// ResolveBinary finds gh in the usual install locations before falling back to PATH.
// Launchers started outside a login shell often lack the Homebrew paths.
func ResolveBinary() string {
	resolveOnce.Do(func() {
		resolvedBin = resolveBinary(binaryCandidates, exec.LookPath)
	})
	return resolvedBin
}

func resolveBinary(candidates []string, lookPath func(string) (string, error)) string {
	for _, p := range candidates {
		if info, err := os.Stat(p); err == nil && !info.IsDir() {
			return p
		}
	}
	if p, err := lookPath("gh"); err == nil {
		return p
	}
	return "gh"
}

type StatusKind int

const (
	StatusOK StatusKind = iota
	StatusNotInstalled
	StatusNotAuthenticated
)

type Status struct {
	Kind   StatusKind
	Detail string
}

// Hint is the message shown to the user for a failed status check.
func (s Status) Hint() string {
	switch s.Kind {
	case StatusNotInstalled:
		return "gh CLI not installed. Install from https://cli.github.com"
	case StatusNotAuthenticated:
		return "gh not authenticated. Run `gh auth login` in terminal"
	default:
		return ""
	}
}

// CheckStatus runs `gh auth status`.
func (c *Client) CheckStatus(ctx context.Context) Status {
	cmd := exec.CommandContext(ctx, c.bin, "auth", "status")
	out, err := cmd.CombinedOutput()
	if err == nil {
		return Status{Kind: StatusOK}
	}
	var exitErr *exec.ExitError
	if errors.As(err, &exitErr) {
		return Status{Kind: StatusNotAuthenticated, Detail: strings.TrimSpace(string(out))}
	}
	return Status{Kind: StatusNotInstalled, Detail: err.Error()}
}

type viewerResponse struct {
	Data struct {
		Viewer struct {
			Login string `json:"login"`
		} `json:"viewer"`
	} `json:"data"`
}

func (c *Client) Viewer(ctx context.Context) (string, error) {
	out, err := c.gh(ctx, "api", "graphql", "-f", "query={ viewer { login } }")
	if errors.Is(err, ErrNotAuthenticated) {
		return "", err
	}
	if err != nil {
		return "", fmt.Errorf("gh auth check failed: %w", err)
	}

	var resp viewerResponse
	if err := json.Unmarshal(out, &resp); err != nil {
		return "", fmt.Errorf("parse viewer: %w", err)
	}
	if resp.Data.Viewer.Login == "" {
		return "", fmt.Errorf("parse viewer: empty login")
	}
	return resp.Data.Viewer.Login, nil
}

func (c *Client) Fetch(ctx context.Context, q Query) (*QueryResult, error) {
	query := BuildQuery(q.MergedSince)
	out, err := c.gh(ctx, "api", "graphql", "-f", "query="+query)
	if errors.Is(err, ErrNotAuthenticated) {
		return nil, err
	}
	if err != nil {
		return nil, fmt.Errorf("gh api graphql failed: %w", err)
	}
	return ParseResponse(out)
}

// ParseResponse decodes the GraphQL payload of the search query.
func ParseResponse(data []byte) (*QueryResult, error) {
	var resp searchResponse
	if err := json.Unmarshal(data, &resp); err != nil {
		return nil, fmt.Errorf("parse GraphQL response: %w", err)
	}
	return resp.result(), nil
}

func (c *Client) gh(ctx context.Context, args ...string) ([]byte, error) {
	c.logger.Debug("gh", "args", strings.Join(args[:min(len(args), 3)], " "))
	cmd := exec.CommandContext(ctx, c.bin, args...)
	out, err := cmd.Output()
	if err != nil {
		var exitErr *exec.ExitError
		if errors.As(err, &exitErr) {
			stderr := strings.TrimSpace(string(exitErr.Stderr))
			if isAuthError(stderr) {
				return nil, ErrNotAuthenticated
			}
			return nil, fmt.Errorf("%w: %s", err, stderr)
		}
		return nil, fmt.Errorf("failed to execute gh (is it installed?): %w", err)
	}
	return out, nil
}

func isAuthError(stderr string) bool {
	return strings.Contains(stderr, "not logged in") || strings.Contains(stderr, "authentication")
}
