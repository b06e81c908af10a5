package commands

import (
	"errors"
	"fmt"
	"io/fs"
	"os"

	"github.com/mheir/blogsmith/internal/config"
	"github.com/mheir/blogsmith/internal/lint"
)

// LintCmd implements the 'lint' command.
type LintCmd struct {
	Quiet bool `short:"q" help:"Only show errors, suppress warnings"`
}

func (l *LintCmd) Run(_ *Global, root *CLI) error {
	contentDir := "content"
	cfg, err := config.Load(root.Config)
	switch {
	case err == nil:
		contentDir = cfg.Content.Directory
	case errors.Is(err, fs.ErrNotExist):
		// No config file; lint the default content directory.
	default:
		return fmt.Errorf("load config: %w", err)
	}

	result, err := lint.NewLinter(contentDir).Run()
	if err != nil {
		return err
	}

	for _, issue := range result.Issues {
		if l.Quiet && issue.Severity == lint.SeverityWarning {
			continue
		}
		fmt.Fprintf(os.Stdout, "%s: %s: [%s] %s\n",
			severityLabel(issue.Severity), issue.FilePath, issue.Rule, issue.Message)
	}

	if result.HasErrors() {
		return fmt.Errorf("%d error(s), %d warning(s)", result.ErrorCount(), result.WarningCount())
	}
	if result.WarningCount() > 0 && !l.Quiet {
		fmt.Fprintf(os.Stdout, "%d warning(s)\n", result.WarningCount())
	}
	return nil
}

func severityLabel(s lint.Severity) string {
	if s == lint.SeverityError {
		return "error"
	}
	return "warning"
}
