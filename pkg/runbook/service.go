package runbook

import (
	"context"
	"fmt"

	"github.com/codeready-toolchain/remedy/pkg/config"
)

// Service resolves runbook URLs into content for the investigation sweep.
// It satisfies the investigator's RunbookFetcher interface.
type Service struct {
	github *GitHubClient
	cache  *Cache
	cfg    *config.RunbookConfig
}

// NewService creates a runbook service. githubToken is the resolved token
// value; empty means unauthenticated (public repositories only).
func NewService(cfg *config.RunbookConfig, githubToken string) *Service {
	if cfg == nil {
		cfg = config.DefaultRunbookConfig()
	}

	maxBytes := cfg.MaxSizeBytes
	if maxBytes <= 0 {
		maxBytes = config.DefaultRunbookConfig().MaxSizeBytes
	}
	cacheTTL := cfg.CacheTTL()
	if cacheTTL <= 0 {
		cacheTTL = config.DefaultRunbookConfig().CacheTTL()
	}

	return &Service{
		github: NewGitHubClient(githubToken, int64(maxBytes)),
		cache:  NewCache(cacheTTL),
		cfg:    cfg,
	}
}

// Fetch returns the content behind a runbook URL. Errors are returned to the
// caller; the investigator treats runbooks as optional context and degrades
// without them.
func (s *Service) Fetch(ctx context.Context, rawURL string) (string, error) {
	if err := ValidateRunbookURL(rawURL, s.cfg.AllowedDomains); err != nil {
		return "", fmt.Errorf("runbook URL rejected: %w", err)
	}

	// Blob and raw forms of the same document share one cache entry.
	key := ConvertToRawURL(rawURL)
	if content, ok := s.cache.Get(key); ok {
		return content, nil
	}

	content, err := s.github.DownloadContent(ctx, rawURL)
	if err != nil {
		return "", err
	}

	s.cache.Set(key, content)
	return content, nil
}
