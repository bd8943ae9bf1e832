package slim

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"sync"

	"github.com/charmbracelet/lipgloss"
	"github.com/specslim/specslim/circular"
	"github.com/specslim/specslim/cmd/specslim/commands/cmdutil"
	"github.com/specslim/specslim/document"
	"github.com/specslim/specslim/internal/config"
	"github.com/specslim/specslim/system"
	"github.com/spf13/cobra"
)

var (
	successStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("#22C55E"))
	infoStyle    = lipgloss.NewStyle().Foreground(lipgloss.Color("#60A5FA"))
	warningStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("#F97316"))
)

// Processor carries what every command needs: settings, filesystem, logger and the standard streams.
type Processor struct {
	Settings *config.Settings
	FS       system.WritableVirtualFS
	Logger   *slog.Logger

	// Optional overrides for testing. When nil, os.Stdin/os.Stdout/os.Stderr are used.
	Stdin  io.Reader
	Stdout io.Writer
	Stderr io.Writer

	// mu serialises writes to stderr from concurrent batch runs.
	mu sync.Mutex
}

func newProcessor(cmd *cobra.Command) *Processor {
	p := &Processor{
		Settings: settingsFrom(cmd.Context()),
		FS:       &system.FileSystem{},
		Stdin:    cmd.InOrStdin(),
		Stdout:   cmd.OutOrStdout(),
		Stderr:   cmd.ErrOrStderr(),
	}
	p.Logger = newLogger(p.stderr(), p.Settings)
	return p
}

// newLogger writes warnings and errors by default, everything with verbose and only errors with quiet.
func newLogger(w io.Writer, settings *config.Settings) *slog.Logger {
	level := slog.LevelWarn
	switch {
	case settings.Verbose:
		level = slog.LevelDebug
	case settings.Quiet:
		level = slog.LevelError
	}

	opts := &slog.HandlerOptions{Level: level}
	if settings.LogFormat == "json" {
		return slog.New(slog.NewJSONHandler(w, opts))
	}
	return slog.New(slog.NewTextHandler(w, opts))
}

func (p *Processor) stdin() io.Reader {
	if p.Stdin != nil {
		return p.Stdin
	}
	return os.Stdin
}

func (p *Processor) stdout() io.Writer {
	if p.Stdout != nil {
		return p.Stdout
	}
	return os.Stdout
}

func (p *Processor) stderr() io.Writer {
	w := io.Writer(os.Stderr)
	if p.Stderr != nil {
		w = p.Stderr
	}
	return &lockedWriter{mu: &p.mu, w: w}
}

type lockedWriter struct {
	mu *sync.Mutex
	w  io.Writer
}

func (l *lockedWriter) Write(b []byte) (int, error) {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.w.Write(b)
}

// LoadDocument reads a document from path, or from stdin when path is "-".
func (p *Processor) LoadDocument(ctx context.Context, path string) (*document.Document, error) {
	if cmdutil.IsStdin(path) {
		p.PrintInfo("Processing document from stdin")
		return document.Read(p.stdin())
	}

	p.PrintInfo("Processing document: " + filepath.Clean(path))
	return document.Load(ctx, p.FS, path)
}

// WriteDocument writes doc to path, or to stdout when path is "-".
func (p *Processor) WriteDocument(ctx context.Context, doc *document.Document, path string) error {
	if cmdutil.IsStdout(path) {
		return doc.Write(ctx, p.stdout())
	}

	if err := document.Save(ctx, p.FS, doc, path); err != nil {
		return err
	}

	p.status(infoStyle, "📄 Document written to: "+filepath.Clean(path))
	return nil
}

// WriteReport writes a circular reference report as JSON, or YAML when path ends in .yaml or .yml.
func (p *Processor) WriteReport(report *circular.Report, path string) error {
	format, err := document.FormatFromPath(path)
	if err != nil {
		return fmt.Errorf("report: %w", err)
	}

	var buf bytes.Buffer
	if err := report.Write(&buf, format); err != nil {
		return err
	}

	if err := p.FS.WriteFile(path, buf.Bytes(), 0o644); err != nil {
		return fmt.Errorf("failed to write report %s: %w", path, err)
	}

	p.PrintInfo("Report written to: " + filepath.Clean(path))
	return nil
}

// PrintSuccess prints a success message to stderr.
func (p *Processor) PrintSuccess(message string) {
	p.status(successStyle, "✅ "+message)
}

// PrintInfo prints an info message to stderr.
func (p *Processor) PrintInfo(message string) {
	p.status(infoStyle, "📋 "+message)
}

// PrintWarning prints a warning message to stderr.
func (p *Processor) PrintWarning(message string) {
	p.status(warningStyle, "⚠️  Warning: "+message)
}

// status lines are dropped in quiet mode.
func (p *Processor) status(style lipgloss.Style, line string) {
	if p.Settings.Quiet {
		return
	}
	fmt.Fprintln(p.stderr(), style.Render(line))
}
