package repl

import (
	"bytes"
	"context"
	"errors"
	"os"
	"path/filepath"
	"reflect"
	"strings"
	"testing"
)

type recorder struct {
	calls [][]string
	err   error
}

func (rec *recorder) exec(_ context.Context, args []string) error {
	rec.calls = append(rec.calls, args)
	return rec.err
}

func TestREPL_Run_Exit(t *testing.T) {
	tests := []struct {
		name  string
		input string
	}{
		{"exit", "exit\n"},
		{"quit", "quit\n"},
		{"EOF", ""},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rec := &recorder{}
			r := New(strings.NewReader(tt.input), &bytes.Buffer{}, rec.exec, nil)
			if err := r.Run(context.Background()); err != nil {
				t.Errorf("Run() error = %v", err)
			}
			if len(rec.calls) != 0 {
				t.Errorf("unexpected calls: %v", rec.calls)
			}
		})
	}
}

func TestREPL_Run_ExecutesLines(t *testing.T) {
	rec := &recorder{}
	input := "\n  employee add 1 'Ann Smith' Clerk \n\nattendance submit 1\nexit\nsystem health\n"
	r := New(strings.NewReader(input), &bytes.Buffer{}, rec.exec, nil)

	if err := r.Run(context.Background()); err != nil {
		t.Fatal(err)
	}
	want := [][]string{
		{"employee", "add", "1", "Ann Smith", "Clerk"},
		{"attendance", "submit", "1"},
	}
	if !reflect.DeepEqual(rec.calls, want) {
		t.Errorf("calls = %q, want %q", rec.calls, want)
	}
	if r.history.Len() != 2 || r.history.Get(0) != "attendance submit 1" {
		t.Errorf("history = %v", r.history.entries)
	}
}

func TestREPL_Run_LastLineWithoutNewline(t *testing.T) {
	rec := &recorder{}
	r := New(strings.NewReader("system status"), &bytes.Buffer{}, rec.exec, nil)
	if err := r.Run(context.Background()); err != nil {
		t.Fatal(err)
	}
	if len(rec.calls) != 1 || rec.calls[0][1] != "status" {
		t.Errorf("calls = %q", rec.calls)
	}
}

func TestREPL_Run_ReportsErrors(t *testing.T) {
	rec := &recorder{err: errors.New("[RC-EMP-4040] employee not found")}
	var out bytes.Buffer
	r := New(strings.NewReader("employee get 9\nemployee add 'oops\n"), &out, rec.exec, nil)

	if err := r.Run(context.Background()); err != nil {
		t.Fatal(err)
	}
	if !strings.Contains(out.String(), "error: [RC-EMP-4040] employee not found") {
		t.Errorf("output = %q", out.String())
	}
	if !strings.Contains(out.String(), "error: unterminated ' quote") {
		t.Errorf("output = %q", out.String())
	}
}

func TestREPL_Run_Completion(t *testing.T) {
	rec := &recorder{}
	var out bytes.Buffer
	r := New(strings.NewReader("employee ?\n"), &out, rec.exec, nil)

	if err := r.Run(context.Background()); err != nil {
		t.Fatal(err)
	}
	for _, want := range []string{"employee add", "employee update", "employee get"} {
		if !strings.Contains(out.String(), want) {
			t.Errorf("completion missing %q: %q", want, out.String())
		}
	}
	if len(rec.calls) != 0 {
		t.Errorf("completion should not execute: %v", rec.calls)
	}
}

func TestREPL_Run_CanceledContext(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	rec := &recorder{}
	r := New(strings.NewReader("system health\n"), &bytes.Buffer{}, rec.exec, nil)
	if err := r.Run(ctx); err != nil {
		t.Fatal(err)
	}
	if len(rec.calls) != 0 {
		t.Errorf("calls = %v", rec.calls)
	}
}

func TestREPL_Run_PersistsHistory(t *testing.T) {
	file := filepath.Join(t.TempDir(), "history")
	if err := os.WriteFile(file, []byte("backup list\n"), 0o600); err != nil {
		t.Fatal(err)
	}

	rec := &recorder{}
	r := New(strings.NewReader("system gc\n"), &bytes.Buffer{}, rec.exec, NewHistory(file))
	if err := r.Run(context.Background()); err != nil {
		t.Fatal(err)
	}

	data, err := os.ReadFile(file)
	if err != nil {
		t.Fatal(err)
	}
	if string(data) != "backup list\nsystem gc\n" {
		t.Errorf("history file = %q", data)
	}
}

func TestSplitArgs(t *testing.T) {
	tests := []struct {
		line    string
		want    []string
		wantErr bool
	}{
		{"a b  c", []string{"a", "b", "c"}, false},
		{`employee add 1 "Ann Smith"`, []string{"employee", "add", "1", "Ann Smith"}, false},
		{`x 'it"s'`, []string{"x", `it"s`}, false},
		{`x ""`, []string{"x", ""}, false},
		{"\tx\t", []string{"x"}, false},
		{"", nil, false},
		{`x "open`, nil, true},
	}
	for _, tt := range tests {
		t.Run(tt.line, func(t *testing.T) {
			got, err := SplitArgs(tt.line)
			if (err != nil) != tt.wantErr {
				t.Fatalf("SplitArgs() error = %v, wantErr %v", err, tt.wantErr)
			}
			if !reflect.DeepEqual(got, tt.want) {
				t.Errorf("SplitArgs() = %q, want %q", got, tt.want)
			}
		})
	}
}
