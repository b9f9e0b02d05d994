// Package shell provides an interactive prompt session bound to one workbook.
package shell

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"time"

	"github.com/chzyer/readline"

	"github.com/klytics/sheetai/internal/bridge"
	"github.com/klytics/sheetai/internal/formats/xlsx"
	"github.com/klytics/sheetai/internal/progress"
)

// errQuit ends the session.
var errQuit = errors.New("quit")

// Session holds the state of one interactive shell.
type Session struct {
	book   *xlsx.Book
	bridge *bridge.Bridge

	Source     bridge.Source
	PasteRange string
	NewSheet   bool

	History     []string
	HistoryFile string
	StartTime   time.Time

	asked int
	dirty bool
}

// commands lists the shell directives for help and completion.
var commands = map[string]string{
	":source":   "show or set the cells sent with each prompt (table:Sales, sheet:Data, A1:C9)",
	":paste":    "write answers at this range; no argument restores overwrite-in-place",
	":newsheet": "on|off — write each answer to a new AI_Result sheet",
	":tables":   "list named tables",
	":sheets":   "list sheets",
	":save":     "save the workbook, or save a copy with :save <path>",
	":history":  "show prompt history",
	":help":     "show this help",
	":quit":     "leave the shell (:quit! discards unsaved changes)",
}

// NewSession binds a session to book. historyFile may be empty.
func NewSession(book *xlsx.Book, br *bridge.Bridge, historyFile string) *Session {
	if historyFile != "" {
		os.MkdirAll(filepath.Dir(historyFile), 0755)
	}
	return &Session{
		book:        book,
		bridge:      br,
		Source:      bridge.Source{Kind: bridge.SourceSheet},
		HistoryFile: historyFile,
		StartTime:   time.Now(),
	}
}

// Run starts the REPL loop. Blocks until :quit or Ctrl+D.
func (s *Session) Run(ctx context.Context) error {
	rl, err := readline.NewEx(&readline.Config{
		Prompt:          "sheetai> ",
		HistoryFile:     s.HistoryFile,
		AutoComplete:    readline.NewPrefixCompleter(s.buildCompleter()...),
		InterruptPrompt: "^C",
		EOFPrompt:       ":quit",
	})
	if err != nil {
		return err
	}
	defer rl.Close()

	out := rl.Stdout()
	fmt.Fprintf(out, "sheetai — %s (active sheet %s)\n", filepath.Base(s.book.Path()), s.book.ActiveSheet())
	fmt.Fprintln(out, "Type a request, or :help for commands.")
	fmt.Fprintln(out)

	for {
		line, err := rl.Readline()
		if err != nil { // io.EOF or interrupt
			break
		}

		trimmed := strings.TrimSpace(line)
		spin := progress.NewSpinner("Asking…", trimmed == "" || strings.HasPrefix(trimmed, ":"))
		spin.Start()
		msg, err := s.Eval(ctx, line)
		spin.Stop("")
		if errors.Is(err, errQuit) {
			fmt.Fprintln(out, msg)
			return nil
		}
		if err != nil {
			fmt.Fprintf(rl.Stderr(), "Error: %s\n", err)
			continue
		}
		if msg != "" {
			fmt.Fprintln(out, strings.TrimRight(msg, "\n"))
		}
	}

	if s.dirty {
		fmt.Fprintln(out, "Unsaved changes discarded.")
	}
	return nil
}

// Eval runs one line: a shell directive or a prompt for the model.
func (s *Session) Eval(ctx context.Context, line string) (string, error) {
	line = strings.TrimSpace(line)
	if line == "" {
		return "", nil
	}
	s.History = append(s.History, line)

	if !strings.HasPrefix(line, ":") {
		return s.ask(ctx, line)
	}

	name, arg, _ := strings.Cut(line, " ")
	arg = strings.TrimSpace(arg)

	switch name {
	case ":quit", ":exit", ":q":
		if s.dirty {
			return "", fmt.Errorf("unsaved changes — use :save, or :quit! to discard them")
		}
		return s.goodbye(), errQuit
	case ":quit!", ":q!":
		return s.goodbye(), errQuit
	case ":help":
		return s.help(), nil
	case ":history":
		var b strings.Builder
		for i, h := range s.History {
			fmt.Fprintf(&b, "  %d  %s\n", i+1, h)
		}
		return b.String(), nil
	case ":source":
		if arg == "" {
			return "Source: " + s.Source.String(), nil
		}
		src, err := bridge.ParseSource(arg)
		if err != nil {
			return "", err
		}
		s.Source = src
		return "Source: " + src.String(), nil
	case ":paste":
		s.PasteRange = arg
		if arg == "" {
			return "Answers overwrite the source range.", nil
		}
		return "Answers go to " + arg, nil
	case ":newsheet":
		switch strings.ToLower(arg) {
		case "", "on", "true":
			s.NewSheet = true
		case "off", "false":
			s.NewSheet = false
		default:
			return "", fmt.Errorf("use :newsheet on or :newsheet off")
		}
		return fmt.Sprintf("New sheet per answer: %t", s.NewSheet), nil
	case ":tables":
		tables, err := s.book.Tables()
		if err != nil {
			return "", err
		}
		if len(tables) == 0 {
			return "No named tables.", nil
		}
		var b strings.Builder
		for _, t := range tables {
			fmt.Fprintf(&b, "  %-20s %s!%s\n", t.Name, t.Sheet, t.Range)
		}
		return b.String(), nil
	case ":sheets":
		var b strings.Builder
		active := s.book.ActiveSheet()
		for _, name := range s.book.SheetNames() {
			marker := " "
			if name == active {
				marker = "*"
			}
			fmt.Fprintf(&b, " %s %s\n", marker, name)
		}
		return b.String(), nil
	case ":save":
		var err error
		if arg != "" {
			err = s.book.SaveAs(arg)
		} else {
			err = s.book.Save()
		}
		if err != nil {
			return "", err
		}
		s.dirty = false
		return "Saved " + s.book.Path(), nil
	default:
		return "", fmt.Errorf("unknown command %s — type :help", name)
	}
}

func (s *Session) ask(ctx context.Context, prompt string) (string, error) {
	res, err := s.bridge.Ask(ctx, s.book, bridge.Request{
		Prompt:     prompt,
		Source:     s.Source,
		PasteRange: s.PasteRange,
		NewSheet:   s.NewSheet,
	})
	if err != nil {
		return "", err
	}
	s.asked++
	s.dirty = true

	if res.Output.IsTable() {
		ext := res.Output.Extent()
		return fmt.Sprintf("Wrote %d×%d table to %s", ext.Rows, ext.Cols, res.Region), nil
	}
	return fmt.Sprintf("%s\n(written to %s)", res.Output.Text, res.Region), nil
}

func (s *Session) goodbye() string {
	return fmt.Sprintf("Session ended. %d prompts in %s.", s.asked, formatDuration(time.Since(s.StartTime)))
}

func (s *Session) help() string {
	var b strings.Builder
	b.WriteString("Type a request to send it with the current source cells.\n\nCommands:\n")
	for _, name := range commandNames() {
		fmt.Fprintf(&b, "  %-10s %s\n", name, commands[name])
	}
	return b.String()
}

// Complete returns completion candidates for the given input.
func (s *Session) Complete(input string) []string {
	input = strings.TrimLeft(input, " ")
	if !strings.HasPrefix(input, ":") {
		return nil
	}

	name, arg, hasArg := strings.Cut(input, " ")
	if !hasArg {
		var matches []string
		for _, c := range commandNames() {
			if strings.HasPrefix(c, name) {
				matches = append(matches, c)
			}
		}
		return matches
	}

	var candidates []string
	switch name {
	case ":source":
		candidates = s.sourceCandidates()
	case ":newsheet":
		candidates = []string{"on", "off"}
	}
	var matches []string
	for _, c := range candidates {
		if strings.HasPrefix(c, strings.TrimSpace(arg)) {
			matches = append(matches, c)
		}
	}
	return matches
}

func (s *Session) sourceCandidates() []string {
	var out []string
	if tables, err := s.book.Tables(); err == nil {
		for _, t := range tables {
			out = append(out, "table:"+t.Name)
		}
	}
	for _, name := range s.book.SheetNames() {
		out = append(out, "sheet:"+name)
	}
	return out
}

func (s *Session) buildCompleter() []readline.PrefixCompleterInterface {
	var items []readline.PrefixCompleterInterface
	for _, name := range commandNames() {
		var subs []readline.PrefixCompleterInterface
		switch name {
		case ":source":
			for _, c := range s.sourceCandidates() {
				subs = append(subs, readline.PcItem(c))
			}
		case ":newsheet":
			subs = append(subs, readline.PcItem("on"), readline.PcItem("off"))
		}
		items = append(items, readline.PcItem(name, subs...))
	}
	return items
}

func commandNames() []string {
	names := make([]string, 0, len(commands))
	for name := range commands {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

func formatDuration(d time.Duration) string {
	if d < time.Minute {
		return fmt.Sprintf("%.0fs", d.Seconds())
	}
	m := int(d.Minutes())
	s := int(d.Seconds()) % 60
	return fmt.Sprintf("%dm %ds", m, s)
}
