// Package reporter renders audit reports in terminal, JSON, and markdown
// formats.
package reporter

import "healthaudit/pkg/core"

// Reporter writes an audit report.
type Reporter interface {
	Report(report core.AuditReport) error
}

const (
	FormatJSON     = "json"
	FormatTable    = "table"
	FormatMarkdown = "markdown"
)
