// ABOUTME: Shared utility functions for CLI commands
// ABOUTME: Config loading, backend construction, text input and output formatting
package commands

import (
	"bufio"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"strings"
	"time"

	"github.com/goccy/go-json"
	"github.com/harper/driftcheck/internal/baseline"
	"github.com/harper/driftcheck/internal/config"
	"github.com/harper/driftcheck/internal/embedding"
	"github.com/harper/driftcheck/internal/models"
	"github.com/harper/driftcheck/internal/similarity"
	"github.com/mattn/go-isatty"
	"github.com/spf13/cobra"
)

// ErrCheckFailed is returned when an evaluation ran but did not pass
var ErrCheckFailed = errors.New("check failed")

// loadConfig reads configuration from the environment
func loadConfig() (*config.Config, error) {
	cfg, err := config.Load()
	if err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}
	return cfg, nil
}

// openScorer builds the configured embedder and a scorer over it.
// The returned close function releases the embedder.
func openScorer(cfg *config.Config) (*similarity.Scorer, func(), error) {
	e, err := embedding.Open(cfg.EmbeddingConfig())
	if err != nil {
		return nil, nil, fmt.Errorf("failed to open embedder: %w", err)
	}
	scorer := similarity.NewScorer(e, similarity.WithLogger(slog.Default()))
	return scorer, func() { _ = e.Close() }, nil
}

// baselineEnv bundles the pieces every baseline command needs
type baselineEnv struct {
	cfg        *config.Config
	store      baseline.Store
	scorer     *similarity.Scorer
	manager    *baseline.Manager
	comparator *baseline.Comparator
	closeFn    func()
}

func (b *baselineEnv) Close() {
	b.closeFn()
	_ = b.store.Close()
}

func openBaselines() (*baselineEnv, error) {
	cfg, err := loadConfig()
	if err != nil {
		return nil, err
	}
	scorer, closeFn, err := openScorer(cfg)
	if err != nil {
		return nil, err
	}
	store, err := cfg.OpenBaselineStore()
	if err != nil {
		closeFn()
		return nil, fmt.Errorf("failed to open baseline store: %w", err)
	}
	return &baselineEnv{
		cfg:        cfg,
		store:      store,
		scorer:     scorer,
		manager:    baseline.NewManager(store, baseline.WithVectors(scorer), baseline.WithManagerLogger(slog.Default())),
		comparator: baseline.NewComparator(store, scorer, nil),
		closeFn:    closeFn,
	}, nil
}

// readText returns args[idx] if present, else the contents of file, else stdin
func readText(cmd *cobra.Command, args []string, idx int, file string) (string, error) {
	var text string
	switch {
	case file != "":
		data, err := os.ReadFile(file)
		if err != nil {
			return "", fmt.Errorf("reading file: %w", err)
		}
		text = string(data)
	case len(args) > idx:
		text = args[idx]
	default:
		data, err := io.ReadAll(cmd.InOrStdin())
		if err != nil {
			return "", fmt.Errorf("reading stdin: %w", err)
		}
		text = string(data)
	}

	text = strings.TrimSpace(text)
	if text == "" {
		return "", fmt.Errorf("no text provided")
	}
	return text, nil
}

// readLines returns the non-blank lines of r
func readLines(r io.Reader) ([]string, error) {
	var lines []string
	scanner := bufio.NewScanner(r)
	scanner.Buffer(make([]byte, 0, 64*1024), 1024*1024)
	for scanner.Scan() {
		if line := strings.TrimSpace(scanner.Text()); line != "" {
			lines = append(lines, line)
		}
	}
	return lines, scanner.Err()
}

// wantJSON reports whether output should be JSON.
// auto picks JSON when stdout is redirected to a file or pipe.
func wantJSON(cmd *cobra.Command) bool {
	switch format {
	case "json":
		return true
	case "text":
		return false
	}
	f, ok := cmd.OutOrStdout().(*os.File)
	if !ok {
		return false
	}
	return !isatty.IsTerminal(f.Fd()) && !isatty.IsCygwinTerminal(f.Fd())
}

// printJSON writes v to the command output as indented JSON
func printJSON(cmd *cobra.Command, v any) error {
	data, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to marshal output: %w", err)
	}
	_, err = fmt.Fprintln(cmd.OutOrStdout(), string(data))
	return err
}

// parseFailOn parses a --fail-on flag value
func parseFailOn(v string) (models.Severity, error) {
	s, err := models.ParseSeverity(v)
	if err != nil {
		return "", err
	}
	if s == models.SeverityNone {
		return "", fmt.Errorf("--fail-on must be LOW, MEDIUM, HIGH or CRITICAL")
	}
	return s, nil
}

// truncate shortens a string to maxLen, adding "..." if truncated
func truncate(s string, maxLen int) string {
	runes := []rune(s)
	if len(runes) <= maxLen {
		return s
	}
	if maxLen <= 3 {
		return string(runes[:maxLen])
	}
	return string(runes[:maxLen-3]) + "..."
}

// formatTime formats a time for display
func formatTime(t time.Time) string {
	now := time.Now()
	diff := now.Sub(t)

	if diff < time.Minute {
		return "just now"
	} else if diff < time.Hour {
		mins := int(diff.Minutes())
		return fmt.Sprintf("%dm ago", mins)
	} else if diff < 24*time.Hour {
		hours := int(diff.Hours())
		return fmt.Sprintf("%dh ago", hours)
	} else if diff < 7*24*time.Hour {
		days := int(diff.Hours() / 24)
		return fmt.Sprintf("%dd ago", days)
	}
	return t.Format("2006-01-02")
}
