package main

import (
	"bytes"
	"flag"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/urfave/cli/v2"
)

func TestLoadConfig_FileAndOverrides(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "server.yaml")
	content := `
server:
  http:
    addr: "127.0.0.1:7000"
log:
  level: warn
storage:
  data_dir: ` + filepath.Join(dir, "data") + `
`
	if err := os.WriteFile(path, []byte(content), 0o600); err != nil {
		t.Fatal(err)
	}

	cfg, err := loadConfig(path, map[string]any{"log.level": "debug"})
	if err != nil {
		t.Fatalf("loadConfig() error = %v", err)
	}
	if cfg.Server.HTTP.Addr != "127.0.0.1:7000" {
		t.Errorf("http addr = %q, want file value", cfg.Server.HTTP.Addr)
	}
	if cfg.Log.Level != "debug" {
		t.Errorf("log level = %q, want override", cfg.Log.Level)
	}
	if cfg.Storage.DataDir != filepath.Join(dir, "data") {
		t.Errorf("data dir = %q", cfg.Storage.DataDir)
	}
}

func TestLoadConfig_Invalid(t *testing.T) {
	_, err := loadConfig("", map[string]any{"server.http.addr": "not-an-address"})
	if err == nil {
		t.Fatal("expected verification error")
	}
	if !strings.Contains(err.Error(), "invalid configuration") {
		t.Errorf("error = %v", err)
	}
}

func TestLoadConfig_MissingFile(t *testing.T) {
	if _, err := loadConfig(filepath.Join(t.TempDir(), "absent.yaml"), nil); err == nil {
		t.Fatal("expected error for missing config file")
	}
}

func TestFlagOverrides(t *testing.T) {
	set := flag.NewFlagSet("test", flag.ContinueOnError)
	for _, f := range configFlags() {
		if err := f.Apply(set); err != nil {
			t.Fatal(err)
		}
	}
	if err := set.Parse([]string{"--data-dir", "/tmp/rc", "--in-memory"}); err != nil {
		t.Fatal(err)
	}
	c := cli.NewContext(newApp(), set, nil)

	got := flagOverrides(c)
	if len(got) != 2 {
		t.Fatalf("overrides = %v, want 2 entries", got)
	}
	if got["storage.data_dir"] != "/tmp/rc" {
		t.Errorf("data_dir = %v", got["storage.data_dir"])
	}
	if got["storage.in_memory"] != true {
		t.Errorf("in_memory = %v", got["storage.in_memory"])
	}
}

func TestVersionCommand(t *testing.T) {
	var buf bytes.Buffer
	app := newApp()
	app.Writer = &buf

	if err := app.Run([]string{"rollcall-server", "version"}); err != nil {
		t.Fatalf("Run() error = %v", err)
	}
	if !strings.HasPrefix(buf.String(), "rollcall-server ") {
		t.Errorf("output = %q", buf.String())
	}
}

func TestRestore_RejectsInMemory(t *testing.T) {
	app := newApp()
	app.Writer = &bytes.Buffer{}
	err := app.Run([]string{"rollcall-server", "restore", "--in-memory"})
	if err == nil || !strings.Contains(err.Error(), "durable") {
		t.Fatalf("Run() error = %v, want durable data directory error", err)
	}
}
