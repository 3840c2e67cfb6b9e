package repl

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"io"
	"strings"
)

// Executor runs one command line split into arguments.
type Executor func(ctx context.Context, args []string) error

// Prompt is printed before every line.
const Prompt = "rollcall> "

// REPL represents the Read-Eval-Print Loop.
type REPL struct {
	input     io.Reader
	output    io.Writer
	exec      Executor
	completer *Completer
	history   *History
}

// New creates a REPL reading from in and writing prompts and errors to out.
func New(in io.Reader, out io.Writer, exec Executor, history *History) *REPL {
	if history == nil {
		history = NewHistory("")
	}
	return &REPL{
		input:     in,
		output:    out,
		exec:      exec,
		completer: NewCompleter(),
		history:   history,
	}
}

// Run reads and executes lines until exit, quit, EOF or ctx is done.
// History is loaded first and saved on return.
func (r *REPL) Run(ctx context.Context) error {
	if err := r.history.Load(); err != nil {
		fmt.Fprintf(r.output, "warning: history not loaded: %v\n", err)
	}
	defer func() {
		if err := r.history.Save(); err != nil {
			fmt.Fprintf(r.output, "warning: history not saved: %v\n", err)
		}
	}()

	reader := bufio.NewReader(r.input)
	for {
		if ctx.Err() != nil {
			return nil
		}
		fmt.Fprint(r.output, Prompt)

		line, err := reader.ReadString('\n')
		if err != nil && !errors.Is(err, io.EOF) {
			return err
		}
		eof := errors.Is(err, io.EOF)

		line = strings.TrimSpace(line)
		switch {
		case line == "":
		case line == "exit" || line == "quit":
			return nil
		case strings.HasSuffix(line, "?"):
			for _, s := range r.completer.Complete(strings.TrimSpace(strings.TrimSuffix(line, "?"))) {
				fmt.Fprintln(r.output, s)
			}
		default:
			r.history.Add(line)
			if execErr := r.execute(ctx, line); execErr != nil {
				fmt.Fprintf(r.output, "error: %v\n", execErr)
			}
		}

		if eof {
			fmt.Fprintln(r.output)
			return nil
		}
	}
}

func (r *REPL) execute(ctx context.Context, line string) error {
	args, err := SplitArgs(line)
	if err != nil {
		return err
	}
	if len(args) == 0 {
		return nil
	}
	return r.exec(ctx, args)
}

// SplitArgs splits a line on whitespace, keeping quoted text together.
func SplitArgs(line string) ([]string, error) {
	var (
		args    []string
		cur     strings.Builder
		quote   rune
		inToken bool
	)
	for _, c := range line {
		switch {
		case quote != 0:
			if c == quote {
				quote = 0
			} else {
				cur.WriteRune(c)
			}
		case c == '"' || c == '\'':
			quote = c
			inToken = true
		case c == ' ' || c == '\t':
			if inToken {
				args = append(args, cur.String())
				cur.Reset()
				inToken = false
			}
		default:
			cur.WriteRune(c)
			inToken = true
		}
	}
	if quote != 0 {
		return nil, fmt.Errorf("unterminated %c quote", quote)
	}
	if inToken {
		args = append(args, cur.String())
	}
	return args, nil
}
