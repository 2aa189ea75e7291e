package commands

import (
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"slices"
	"strconv"
	"strings"

	"github.com/Framian/umami/pkg/core"
	"github.com/Framian/umami/pkg/paging"
	"github.com/chzyer/readline"
	"github.com/spf13/cobra"
)

const (
	replPrompt     = "umami> "
	replContPrompt = "  ...> "
)

// replSession is the mutable state of an interactive query session.
type replSession struct {
	cmd  *cobra.Command
	q    paging.RawQuerier
	qf   *QueryFile
	opts core.QueryOptions
	cfg  *QueryOptions
}

func runQueryREPL(cmd *cobra.Command, q paging.RawQuerier, qf *QueryFile, opts *QueryOptions) error {
	historyFile := ""
	if home, err := os.UserHomeDir(); err == nil {
		historyFile = filepath.Join(home, ".umamidb_history")
	}

	rl, err := readline.NewEx(&readline.Config{
		Prompt:          replPrompt,
		HistoryFile:     historyFile,
		AutoComplete:    newREPLCompleter(),
		InterruptPrompt: "^C",
		EOFPrompt:       ".quit",
	})
	if err != nil {
		return fmt.Errorf("failed to initialize REPL: %w", err)
	}
	defer func() { _ = rl.Close() }()

	s := &replSession{cmd: cmd, q: q, qf: qf, opts: qf.QueryOptions(), cfg: opts}

	_, _ = fmt.Fprintln(cmd.OutOrStdout(), "umamidb query REPL")
	_, _ = fmt.Fprintln(cmd.OutOrStdout(), "Type .help for commands, .quit to exit")
	_, _ = fmt.Fprintln(cmd.OutOrStdout())

	var buf strings.Builder
	for {
		line, err := rl.Readline()
		if errors.Is(err, readline.ErrInterrupt) {
			buf.Reset()
			rl.SetPrompt(replPrompt)
			continue
		}
		if errors.Is(err, io.EOF) {
			break
		}

		line = strings.TrimSpace(line)
		if line == "" {
			continue
		}

		if buf.Len() == 0 && strings.HasPrefix(line, ".") {
			if quit := s.handleDotCommand(line); quit {
				break
			}
			continue
		}

		// Accumulate multi-line SQL until semicolon
		buf.WriteString(line)
		if !strings.HasSuffix(line, ";") {
			buf.WriteString("\n")
			rl.SetPrompt(replContPrompt)
			continue
		}
		rl.SetPrompt(replPrompt)

		template := strings.TrimSuffix(buf.String(), ";")
		buf.Reset()

		if err := executeAndRender(cmd.Context(), cmd.OutOrStdout(), q, template, s.qf, s.opts, s.cfg); err != nil {
			_, _ = fmt.Fprintf(cmd.ErrOrStderr(), "Error: %v\n", err)
		}
		_, _ = fmt.Fprintln(cmd.OutOrStdout())
	}

	return nil
}

// handleDotCommand applies a dot command and reports whether to quit.
func (s *replSession) handleDotCommand(line string) bool {
	w, errW := s.cmd.OutOrStdout(), s.cmd.ErrOrStderr()
	parts := strings.Fields(line)
	command := strings.ToLower(parts[0])

	switch command {
	case ".quit", ".exit":
		return true

	case ".help":
		printREPLHelp(w)

	case ".page", ".size":
		if len(parts) < 2 {
			_, _ = fmt.Fprintf(errW, "Usage: %s <n>\n", command)
			return false
		}
		n, err := strconv.Atoi(parts[1])
		if err != nil {
			_, _ = fmt.Fprintf(errW, "Error: %s is not a number\n", parts[1])
			return false
		}
		if command == ".page" {
			s.opts.Page = n
		} else {
			s.opts.PageSize = core.IntPtr(n)
		}

	case ".order":
		switch len(parts) {
		case 1:
			s.opts.OrderBy = ""
		case 2:
			s.opts.OrderBy, s.opts.SortDescending = parts[1], false
		default:
			s.opts.OrderBy, s.opts.SortDescending = parts[1], strings.EqualFold(parts[2], "desc")
		}

	case ".filters":
		if len(parts) < 2 {
			_, _ = fmt.Fprintln(errW, "Usage: .filters <file>")
			return false
		}
		qf, err := LoadQueryFile(parts[1])
		if err != nil {
			_, _ = fmt.Fprintf(errW, "Error: %v\n", err)
			return false
		}
		s.qf, s.opts = qf, qf.QueryOptions()

	case ".show":
		s.printState(w)

	case ".format":
		if len(parts) < 2 {
			_, _ = fmt.Fprintln(errW, "Usage: .format <table|json|csv|md>")
			return false
		}
		s.cfg.Format = parts[1]

	case ".clear":
		_, _ = fmt.Fprint(w, "\033[H\033[2J")

	default:
		_, _ = fmt.Fprintf(errW, "Unknown command: %s (type .help for commands)\n", command)
	}
	return false
}

func (s *replSession) printState(w io.Writer) {
	_, _ = fmt.Fprintf(w, "page: %d\n", s.opts.PageNumber())
	_, _ = fmt.Fprintf(w, "page size: %d\n", s.opts.Size())
	if s.opts.OrderBy != "" {
		_, _ = fmt.Fprintf(w, "order by: %s %s\n", s.opts.OrderBy, s.opts.Direction())
	}
	_, _ = fmt.Fprintf(w, "format: %s\n", s.cfg.Format)
	for _, name := range sortedKeys(s.qf.Filters) {
		_, _ = fmt.Fprintf(w, "filter %s: %v\n", name, s.qf.Filters[name])
	}
}

func printREPLHelp(w io.Writer) {
	help := `
Commands:
  .help                  Show this help message
  .page <n>              Select the result page
  .size <n>              Set the page size (0 disables paging)
  .order [col [desc]]    Order results, or clear the ordering
  .filters <file>        Load filters, params and options from a file
  .format <fmt>          Output format: table, json, csv, md
  .show                  Show the current session settings
  .clear                 Clear the screen
  .quit / .exit          Exit the REPL

Tips:
  - Templates must end with a semicolon (;)
  - {{name}} placeholders are bound from the filters file
  - Use arrow keys to navigate history
`
	_, _ = fmt.Fprintln(w, help)
}

func newREPLCompleter() *readline.PrefixCompleter {
	return readline.NewPrefixCompleter(
		readline.PcItem(".help"),
		readline.PcItem(".page"),
		readline.PcItem(".size"),
		readline.PcItem(".order"),
		readline.PcItem(".filters"),
		readline.PcItem(".format",
			readline.PcItem("table"),
			readline.PcItem("json"),
			readline.PcItem("csv"),
			readline.PcItem("md"),
		),
		readline.PcItem(".show"),
		readline.PcItem(".clear"),
		readline.PcItem(".quit"),
		readline.PcItem(".exit"),
	)
}

func sortedKeys(m map[string]any) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	slices.Sort(keys)
	return keys
}
