package cli

import (
	"context"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/briandowns/spinner"
	"github.com/chzyer/readline"
	"github.com/dustin/go-humanize"
	"github.com/jedib0t/go-pretty/v6/table"
	"github.com/jedib0t/go-pretty/v6/text"
	"github.com/m-mizutani/goerr/v2"
	"github.com/m-mizutani/vidscribe/pkg/model"
	"github.com/m-mizutani/vidscribe/pkg/utils/logging"
	"github.com/mattn/go-isatty"
)

func isTerminal(f *os.File) bool {
	fd := f.Fd()
	return isatty.IsTerminal(fd) || isatty.IsCygwinTerminal(fd)
}

// withSpinner runs fn while showing a spinner on stderr. Nothing is drawn
// when stderr is not a terminal.
func withSpinner[T any](ctx context.Context, msg string, fn func(ctx context.Context) (T, error)) (T, error) {
	if !isTerminal(os.Stderr) {
		logging.From(ctx).Info(msg)
		return fn(ctx)
	}

	s := spinner.New(spinner.CharSets[14], 100*time.Millisecond, spinner.WithWriter(os.Stderr))
	s.Suffix = " " + msg
	s.Start()
	started := time.Now()

	v, err := fn(ctx)
	s.Stop()

	mark := "done"
	if err != nil {
		mark = "failed"
	}
	fmt.Fprintf(os.Stderr, "%s %s (%s)\n", msg, mark, time.Since(started).Round(100*time.Millisecond))
	return v, err
}

func renderTable(w io.Writer, headers []string, rows [][]string) {
	tw := table.NewWriter()
	tw.SetOutputMirror(w)
	tw.SetStyle(table.StyleRounded)

	header := make(table.Row, len(headers))
	for i, h := range headers {
		header[i] = h
	}
	tw.AppendHeader(header)

	for _, row := range rows {
		r := make(table.Row, len(headers))
		for i := range headers {
			if i < len(row) {
				r[i] = row[i]
			}
		}
		tw.AppendRow(r)
	}

	configs := make([]table.ColumnConfig, len(headers))
	for i := range headers {
		configs[i] = table.ColumnConfig{Number: i + 1, AlignHeader: text.AlignLeft, WidthMax: 60}
	}
	tw.SetColumnConfigs(configs)
	tw.Render()
}

func itemRows(items []*model.SavedItem) [][]string {
	rows := make([][]string, 0, len(items))
	for _, item := range items {
		age := "-"
		if created := item.CreatedAt(); !created.IsZero() {
			age = humanize.Time(created)
		}
		rows = append(rows, []string{
			string(item.ID),
			string(item.Type),
			item.Meta.Title,
			item.Meta.Platform,
			humanize.Bytes(uint64(len(item.Content))),
			age,
		})
	}
	return rows
}

var itemHeaders = []string{"ID", "TYPE", "TITLE", "PLATFORM", "SIZE", "CREATED"}

func defaultOutput(kind string, m *model.Media) string {
	return fmt.Sprintf("vidscribe-%s-%s%s", kind, time.Now().Format("20060102-150405"), m.Extension())
}

// writeMedia writes m to path. An empty path picks a name in the working
// directory from kind and the MIME type.
func writeMedia(w io.Writer, path, kind string, m *model.Media) error {
	if path == "" {
		path = defaultOutput(kind, m)
	}
	if dir := filepath.Dir(path); dir != "" {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return goerr.Wrap(err, "failed to create output directory", goerr.V("dir", dir))
		}
	}
	if err := os.WriteFile(path, m.Data, 0o644); err != nil {
		return goerr.Wrap(err, "failed to write output", goerr.V("path", path))
	}

	fmt.Fprintf(w, "%s saved to %s (%s)\n", kind, path, humanize.Bytes(uint64(len(m.Data))))
	return nil
}

// readSecret prompts for a value without echo
func readSecret(prompt string) (string, error) {
	rl, err := readline.New("")
	if err != nil {
		return "", goerr.Wrap(err, "failed to open terminal")
	}
	defer rl.Close()

	raw, err := rl.ReadPassword(prompt)
	if err != nil {
		return "", goerr.Wrap(err, "failed to read input")
	}
	return strings.TrimSpace(string(raw)), nil
}

func maskSecret(s string) string {
	if len(s) <= 8 {
		return strings.Repeat("*", len(s))
	}
	return s[:4] + strings.Repeat("*", len(s)-8) + s[len(s)-4:]
}

// renderError prints err according to what the user can do about it
func renderError(w io.Writer, err error) {
	switch model.KindOf(err) {
	case model.ErrorKindConfiguration:
		fmt.Fprintf(w, "Configuration error: %s\n", err.Error())
		fmt.Fprintln(w, "Set a valid key with `vidscribe key set gemini` (or `key set elevenlabs`), or check the selected project.")
	case model.ErrorKindStorage:
		fmt.Fprintf(w, "STORAGE FULL: %s\n", err.Error())
		fmt.Fprintln(w, "Delete saved items with `vidscribe items delete <id>` and try again.")
	case model.ErrorKindRefusal:
		fmt.Fprintf(w, "The model declined the request: %s\n", err.Error())
		fmt.Fprintln(w, "Try rephrasing the prompt.")
	case model.ErrorKindMalformed:
		fmt.Fprintf(w, "The model returned an unexpected response: %s\n", err.Error())
		fmt.Fprintln(w, "This is usually temporary, please try again.")
	case model.ErrorKindValidation:
		fmt.Fprintf(w, "Invalid input: %s\n", err.Error())
	default:
		fmt.Fprintf(w, "Error: %s\n", err.Error())
		fmt.Fprintln(w, "Please try again.")
	}
}
