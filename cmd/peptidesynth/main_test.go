package main

import (
	"bytes"
	"os"
	"path/filepath"
	"strings"
	"testing"
)

type env struct {
	layouts string
	db      string
	out     string
}

func newEnv(t *testing.T) env {
	t.Helper()
	dir := t.TempDir()
	return env{
		layouts: filepath.Join(dir, "layouts"),
		db:      filepath.Join(dir, "history.db"),
		out:     filepath.Join(dir, "out"),
	}
}

func (e env) args(extra ...string) []string {
	base := []string{"--fs-root", e.layouts, "--history", "sqlite", "--history-dsn", e.db, "--log-level", "warn"}
	return append(base, extra...)
}

func run(t *testing.T, args ...string) (string, string, int) {
	t.Helper()
	var stdout, stderr bytes.Buffer
	code := cli(args, &stdout, &stderr)
	return stdout.String(), stderr.String(), code
}

func mustRun(t *testing.T, args ...string) string {
	t.Helper()
	stdout, stderr, code := run(t, args...)
	if code != 0 {
		t.Fatalf("cli %v exited %d: %s", args, code, stderr)
	}
	return stdout
}

func TestPlanWritesExports(t *testing.T) {
	e := newEnv(t)
	out := mustRun(t, append([]string{"plan"}, e.args("--layout", "batch1", "--out", e.out, "--xlsx", "--autosampler", "GAGA")...)...)
	for _, want := range []string{"residues: 4", "vials: 2", "layout batch1 saved as generation 1", "deprotection: 1 vials on rack 2"} {
		if !strings.Contains(out, want) {
			t.Fatalf("stdout missing %q:\n%s", want, out)
		}
	}
	for _, name := range []string{vialPlanFile, synthesisFile, autosamplerFile, workbookFile} {
		info, err := os.Stat(filepath.Join(e.out, name))
		if err != nil || info.Size() == 0 {
			t.Fatalf("export %s: %v", name, err)
		}
	}
	vials, err := os.ReadFile(filepath.Join(e.out, vialPlanFile))
	if err != nil {
		t.Fatalf("read vial plan: %v", err)
	}
	if !strings.HasPrefix(string(vials), "Rack,Position,Vial,Code,Occurrences") {
		t.Fatalf("unexpected vial plan header: %s", vials)
	}
}

func TestPlanQuietWithoutOut(t *testing.T) {
	e := newEnv(t)
	out := mustRun(t, append([]string{"plan", "-q"}, e.args("G A G A")...)...)
	if strings.Contains(out, "Occurrences") {
		t.Fatalf("quiet run printed tables:\n%s", out)
	}
	if strings.Contains(out, "saved as generation") {
		t.Fatalf("plan without --layout should not save:\n%s", out)
	}
	if _, _, code := run(t, append([]string{"plan", "--xlsx"}, e.args("GAGA")...)...); code != 1 {
		t.Fatalf("--xlsx without --out should fail")
	}
}

func TestExtendStoredLayout(t *testing.T) {
	e := newEnv(t)
	mustRun(t, append([]string{"plan", "-q"}, e.args("--layout", "batch1", "GAGA")...)...)
	out := mustRun(t, append([]string{"extend", "-q"}, e.args("--layout", "batch1", "GAGAC")...)...)
	for _, want := range []string{"appended: 1", "position 5: - -> C", "layout batch1 saved as generation 2"} {
		if !strings.Contains(out, want) {
			t.Fatalf("stdout missing %q:\n%s", want, out)
		}
	}

	show := mustRun(t, append([]string{"layouts", "show", "batch1"}, e.args()...)...)
	if !strings.Contains(show, "generation 2") || !strings.Contains(show, "sequence: G A G A C") {
		t.Fatalf("unexpected show output:\n%s", show)
	}
	first := mustRun(t, append([]string{"layouts", "show", "batch1"}, e.args("--generation", "1")...)...)
	if !strings.Contains(first, "sequence: G A G A\n") {
		t.Fatalf("unexpected generation 1 output:\n%s", first)
	}

	hist := mustRun(t, append([]string{"layouts", "history", "batch1"}, e.args()...)...)
	if !strings.Contains(hist, "extend") || !strings.Contains(hist, "plan") {
		t.Fatalf("history missing runs:\n%s", hist)
	}
	empty := mustRun(t, append([]string{"layouts", "history", "other"}, e.args()...)...)
	if !strings.Contains(empty, "no runs recorded for other") {
		t.Fatalf("unexpected empty history output:\n%s", empty)
	}
}

func TestExtendFromPriorVialPlan(t *testing.T) {
	e := newEnv(t)
	mustRun(t, append([]string{"plan", "-q"}, e.args("--out", e.out, "GAGA")...)...)
	prior := filepath.Join(e.out, vialPlanFile)
	out := mustRun(t, append([]string{"extend", "-q"}, e.args("--prior", prior, "--previous", "GAGA", "GAGW")...)...)
	if !strings.Contains(out, "position 4: A -> W") || !strings.Contains(out, "appended: 1") {
		t.Fatalf("unexpected extend output:\n%s", out)
	}
	if strings.Contains(out, "saved as generation") {
		t.Fatalf("extend without --layout should not save:\n%s", out)
	}
}

func TestExtendChainKeepsIdleVialsOccupied(t *testing.T) {
	e := newEnv(t)
	first := filepath.Join(e.out, "1")
	second := filepath.Join(e.out, "2")
	third := filepath.Join(e.out, "3")
	mustRun(t, append([]string{"plan", "-q"}, e.args("--out", first, "AAG")...)...)
	mustRun(t, append([]string{"extend", "-q"}, e.args("--prior", filepath.Join(first, vialPlanFile), "--out", second, "AA")...)...)
	out := mustRun(t, append([]string{"extend", "-q"}, e.args("--prior", filepath.Join(second, vialPlanFile), "--out", third, "AC")...)...)
	if !strings.Contains(out, "appended: 1") {
		t.Fatalf("unexpected extend output:\n%s", out)
	}

	data, err := os.ReadFile(filepath.Join(third, vialPlanFile))
	if err != nil {
		t.Fatalf("read vial plan: %v", err)
	}
	got := make(map[string]string)
	for _, line := range strings.Split(strings.TrimSpace(string(data)), "\n")[1:] {
		fields := strings.Split(line, ",")
		got[fields[2]] = fields[0] + "," + fields[1] + "," + fields[4]
	}
	want := map[string]string{"A": "1,1,1", "G": "1,2,0", "C": "1,3,1"}
	for vial, slot := range want {
		if got[vial] != slot {
			t.Fatalf("vial %s: got %q, want %q (plan:\n%s)", vial, got[vial], slot, data)
		}
	}
}

func TestExtendReportsDeprotectionRackMove(t *testing.T) {
	e := newEnv(t)
	mustRun(t, append([]string{"plan", "-q"}, e.args("--rack-size", "2", "--layout", "small", "AC")...)...)
	out := mustRun(t, append([]string{"extend", "-q"}, e.args("--rack-size", "2", "--layout", "small", "ACD")...)...)
	if !strings.Contains(out, "note: deprotection rack moved from 2 to 3") {
		t.Fatalf("expected a re-rack note:\n%s", out)
	}
	show := mustRun(t, append([]string{"layouts", "show", "small"}, e.args("--rack-size", "2")...)...)
	if !strings.Contains(show, "deprotection rack: 3") {
		t.Fatalf("unexpected show output:\n%s", show)
	}
}

func TestExtendNeedsPrior(t *testing.T) {
	e := newEnv(t)
	_, stderr, code := run(t, append([]string{"extend"}, e.args("GAGA")...)...)
	if code != 1 || !strings.Contains(stderr, "--layout or --prior") {
		t.Fatalf("expected missing prior error, got %d %q", code, stderr)
	}
	_, stderr, code = run(t, append([]string{"extend"}, e.args("--layout", "missing", "GAGA")...)...)
	if code != 1 || !strings.Contains(stderr, "missing") {
		t.Fatalf("expected not found error, got %d %q", code, stderr)
	}
}

func TestResiduesAddAndList(t *testing.T) {
	e := newEnv(t)
	table := filepath.Join(t.TempDir(), "residues.csv")
	if err := os.WriteFile(table, []byte("AA,MW,Name\nA,89.09,Alanine\nG,75.07,Glycine\n"), 0o600); err != nil {
		t.Fatalf("write table: %v", err)
	}
	mustRun(t, append([]string{"residues", "add", "Pra", "137.14", "Propargylglycine"}, e.args("--residues", table)...)...)
	list := mustRun(t, append([]string{"residues", "list"}, e.args("--residues", table)...)...)
	if !strings.Contains(list, "Propargylglycine") || !strings.Contains(list, "Glycine") {
		t.Fatalf("list missing residues:\n%s", list)
	}
	out := mustRun(t, append([]string{"plan", "-q"}, e.args("--residues", table, "GPraA")...)...)
	if !strings.Contains(out, "residues: 3") {
		t.Fatalf("compact sequence not tokenized with the new code:\n%s", out)
	}

	if _, _, code := run(t, append([]string{"residues", "add", "A", "89.09"}, e.args("--residues", table)...)...); code != 1 {
		t.Fatalf("duplicate code should fail")
	}
	if _, _, code := run(t, append([]string{"residues", "add", "X", "heavy"}, e.args("--residues", table)...)...); code != 1 {
		t.Fatalf("non-numeric weight should fail")
	}
	if _, _, code := run(t, append([]string{"residues", "add", "X", "100"}, e.args()...)...); code != 1 {
		t.Fatalf("add without a table path should fail")
	}
}

func TestInvalidSettingsFailBeforePlanning(t *testing.T) {
	e := newEnv(t)
	cases := [][]string{
		e.args("--rack-size", "0", "GAGA"),
		e.args("--max-per-vial", "-1", "GAGA"),
		e.args("--direction", "sideways", "GAGA"),
		e.args("--log-format", "xml", "GAGA"),
		e.args("GAXGA"),
	}
	for _, args := range cases {
		if _, _, code := run(t, append([]string{"plan"}, args...)...); code != 1 {
			t.Fatalf("plan %v should fail", args)
		}
	}
}

func TestMetricsAndTraceFiles(t *testing.T) {
	e := newEnv(t)
	dir := t.TempDir()
	prom := filepath.Join(dir, "peptidesynth.prom")
	trace := filepath.Join(dir, "trace.jsonl")
	mustRun(t, append([]string{"plan", "-q"}, e.args("--metrics-textfile", prom, "--trace-file", trace, "GAGA")...)...)
	metrics, err := os.ReadFile(prom)
	if err != nil {
		t.Fatalf("read metrics: %v", err)
	}
	if !strings.Contains(string(metrics), `peptidesynth_runs_total{operation="plan",status="success"} 1`) {
		t.Fatalf("unexpected metrics:\n%s", metrics)
	}
	spans, err := os.ReadFile(trace)
	if err != nil {
		t.Fatalf("read trace: %v", err)
	}
	if !strings.Contains(string(spans), `"plan"`) {
		t.Fatalf("unexpected trace:\n%s", spans)
	}
}

func TestConfigFileAndEnvironment(t *testing.T) {
	e := newEnv(t)
	cfg := filepath.Join(t.TempDir(), "peptidesynth.yaml")
	if err := os.WriteFile(cfg, []byte("vial:\n  max_per_vial: 1\ndeprotection:\n  enabled: false\n"), 0o600); err != nil {
		t.Fatalf("write config: %v", err)
	}
	out := mustRun(t, append([]string{"plan", "-q", "--config", cfg}, e.args("GAGA")...)...)
	if !strings.Contains(out, "vials: 4") || strings.Contains(out, "deprotection:") {
		t.Fatalf("config file not applied:\n%s", out)
	}
	t.Setenv("PEPTIDESYNTH_VIAL_MAX_PER_VIAL", "2")
	out = mustRun(t, append([]string{"plan", "-q", "--config", cfg}, e.args("GAGA")...)...)
	if !strings.Contains(out, "vials: 2") {
		t.Fatalf("environment override not applied:\n%s", out)
	}
	out = mustRun(t, append([]string{"plan", "-q", "--config", cfg, "--max-per-vial", "3"}, e.args("GAGA")...)...)
	if !strings.Contains(out, "vials: 2") {
		t.Fatalf("flag override not applied:\n%s", out)
	}
	if _, _, code := run(t, append([]string{"plan", "--config", filepath.Join(t.TempDir(), "absent.yaml")}, e.args("GAGA")...)...); code != 1 {
		t.Fatalf("explicit missing config should fail")
	}
}

func TestMainExitCodes(t *testing.T) {
	var codes []int
	old := exitFunc
	exitFunc = func(code int) { codes = append(codes, code) }
	defer func() { exitFunc = old }()
	oldArgs := os.Args
	defer func() { os.Args = oldArgs }()

	os.Args = []string{"peptidesynth", "--version"}
	main()
	os.Args = []string{"peptidesynth", "bogus"}
	main()
	if len(codes) != 2 || codes[0] != 0 || codes[1] != 1 {
		t.Fatalf("unexpected exit codes: %v", codes)
	}
}
