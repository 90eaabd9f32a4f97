package main

import (
	"bytes"
	"os"
	"path/filepath"
	"strings"
	"testing"
)

const testWorkspace = `
series:
  - id: coarse
    gating: g
    points:
      - {ts: 0, values: {up: false}}
      - {ts: 120000, values: {up: true}}
      - {ts: 240000, values: {up: true}}
    signals:
      - {id: g, type: SignalExternalFlag, params: {signal_key: up, true_value: "true"}}
  - id: fine
    points:
      - {ts: 0, values: {x: true}}
      - {ts: 60000, values: {x: true}}
      - {ts: 120000, values: {x: true}}
      - {ts: 180000, values: {x: false}}
      - {ts: 240000, values: {x: true}}
    signals:
      - {id: f, type: SignalExternalFlag, params: {signal_key: x, true_value: "true"}}
`

func runCLI(t *testing.T, args ...string) string {
	t.Helper()
	var out bytes.Buffer
	rootCmd.SetOut(&out)
	rootCmd.SetErr(&out)
	rootCmd.SetArgs(append(args, "--config", filepath.Join(t.TempDir(), "absent.yaml"), "--log-level", "error"))
	if err := rootCmd.Execute(); err != nil {
		t.Fatalf("htf %s: %v\n%s", strings.Join(args, " "), err, out.String())
	}
	return out.String()
}

func writeTemp(t *testing.T, name, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), name)
	if err := os.WriteFile(path, []byte(content), 0o600); err != nil {
		t.Fatalf("write %s: %v", name, err)
	}
	return path
}

func readFile(t *testing.T, path string) string {
	t.Helper()
	data, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("read %s: %v", path, err)
	}
	return string(data)
}

func TestEvaluate_CSV(t *testing.T) {
	ws := writeTemp(t, "ws.yaml", testWorkspace)
	out := filepath.Join(t.TempDir(), "summary.csv")

	runCLI(t, "evaluate", "--workspace", ws, "--format", "csv", "--out", out)

	got := readFile(t, out)
	if !strings.Contains(got, "fine,f,SignalExternalFlag,SignalExternalFlag,5,4,2,0.800000,3,false") {
		t.Errorf("unexpected summary:\n%s", got)
	}
}

func TestMasks_Table(t *testing.T) {
	ws := writeTemp(t, "ws.yaml", testWorkspace)

	got := runCLI(t, "masks", "--workspace", ws, "--verbose")

	if !strings.Contains(got, "mask 00111") {
		t.Errorf("expected fine mask 00111 in:\n%s", got)
	}
	if !strings.Contains(got, "window 120000..240000") {
		t.Errorf("expected coarse window in:\n%s", got)
	}
}

func TestExport_GatedColumns(t *testing.T) {
	ws := writeTemp(t, "ws.yaml", testWorkspace)
	out := filepath.Join(t.TempDir(), "f.csv")

	runCLI(t, "export", "--workspace", ws, "--series", "fine", "--type", "SignalExternalFlag", "--hierarchy", "--out", out)

	lines := strings.Split(strings.TrimSpace(readFile(t, out)), "\n")
	if len(lines) != 6 {
		t.Fatalf("expected header + 5 rows, got %d", len(lines))
	}
	if !strings.HasSuffix(lines[0], "SignalExternalFlag_raw,SignalExternalFlag_gated") {
		t.Errorf("unexpected header %q", lines[0])
	}
	if !strings.HasSuffix(lines[1], ",1,0") || !strings.HasSuffix(lines[3], ",1,1") {
		t.Errorf("unexpected rows %q %q", lines[1], lines[3])
	}
}

func TestVerify_Deterministic(t *testing.T) {
	ws := writeTemp(t, "ws.yaml", testWorkspace)

	got := runCLI(t, "verify", "--workspace", ws)

	if !strings.Contains(got, "Series:  2 matched, 0 divergent of 2") {
		t.Errorf("unexpected verify output:\n%s", got)
	}
}

func TestResample_Minutes(t *testing.T) {
	in := writeTemp(t, "raw.csv", "ts,close\n0,1\n30000,3\n60000,5\n")
	out := filepath.Join(t.TempDir(), "points.csv")

	runCLI(t, "resample", "--in", in, "--unit", "minute", "--step", "1", "--method", "mean", "--value-column", "close", "--out", out)

	lines := strings.Split(strings.TrimSpace(readFile(t, out)), "\n")
	if len(lines) != 3 {
		t.Fatalf("expected header + 2 buckets, got %d:\n%s", len(lines), strings.Join(lines, "\n"))
	}
	if !strings.Contains(lines[1], ",2,2") {
		t.Errorf("expected first bucket mean 2 for close and value, got %q", lines[1])
	}
}

func TestReplay_RejectsMemoryStore(t *testing.T) {
	ws := writeTemp(t, "ws.yaml", testWorkspace)

	var out bytes.Buffer
	rootCmd.SetOut(&out)
	rootCmd.SetErr(&out)
	rootCmd.SetArgs([]string{"replay", "--workspace", ws, "--series", "fine", "--store", "memory",
		"--config", filepath.Join(t.TempDir(), "absent.yaml"), "--log-level", "error"})

	err := rootCmd.Execute()
	if err == nil || !strings.Contains(err.Error(), "persistent store") {
		t.Errorf("expected persistent store error, got %v", err)
	}
}
