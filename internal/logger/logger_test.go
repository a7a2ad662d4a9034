package logger

import (
	"bytes"
	"encoding/json"
	"errors"
	"testing"
)

func TestJSONConsistency(t *testing.T) {
	var buf bytes.Buffer
	l, closer, err := New(Options{Out: &buf, Format: "json", Level: "debug"})
	if err != nil {
		t.Fatalf("new: %v", err)
	}
	if closer != nil {
		_ = closer.Close()
	}
	l = l.With("run_id", "abc123", "command", "extform doctor")
	l2 := l.With("component", "doctor")

	st := StartStep(l2, "doctor_check", "git")
	st.OK()

	// Parse the last line as JSON and verify stable keys exist
	lines := bytes.Split(bytes.TrimSpace(buf.Bytes()), []byte("\n"))
	if len(lines) < 2 {
		t.Fatalf("expected at least 2 lines, got %d: %s", len(lines), buf.String())
	}
	got := map[string]any{}
	if err := json.Unmarshal(lines[len(lines)-1], &got); err != nil {
		t.Fatalf("json: %v: %s", err, string(lines[len(lines)-1]))
	}
	for _, k := range []string{"run_id", "command", "component", "status", "action", "resource", "duration_ms"} {
		if _, ok := got[k]; !ok {
			t.Fatalf("missing key %q in %v", k, got)
		}
	}
}

func TestStepFailReturnsErrorUnchanged(t *testing.T) {
	var buf bytes.Buffer
	l, _, err := New(Options{Out: &buf, Format: "json", Level: "debug"})
	if err != nil {
		t.Fatalf("new: %v", err)
	}
	boom := errors.New("boom")
	st := StartStep(l, "probe", "python3")
	if got := st.Fail(boom); got != boom {
		t.Fatalf("Fail must return the same error, got %v", got)
	}
	if !bytes.Contains(buf.Bytes(), []byte(`"status":"failed"`)) {
		t.Fatalf("expected failed status in output: %s", buf.String())
	}
	if !bytes.Contains(buf.Bytes(), []byte(`"error":"boom"`)) {
		t.Fatalf("expected error detail in output: %s", buf.String())
	}
}

func TestDefaultLevelIsWarn(t *testing.T) {
	var buf bytes.Buffer
	l, _, err := New(Options{Out: &buf, Format: "json"})
	if err != nil {
		t.Fatalf("new: %v", err)
	}
	l.Info("hidden")
	l.Warn("visible")
	if bytes.Contains(buf.Bytes(), []byte("hidden")) {
		t.Fatalf("info should be suppressed at default level: %s", buf.String())
	}
	if !bytes.Contains(buf.Bytes(), []byte("visible")) {
		t.Fatalf("warn should be emitted at default level: %s", buf.String())
	}
}

func TestFileSinkReceivesLogs(t *testing.T) {
	var buf bytes.Buffer
	path := t.TempDir() + "/extform.log"
	l, closer, err := New(Options{Out: &buf, Format: "json", Level: "info", LogFile: path})
	if err != nil {
		t.Fatalf("new: %v", err)
	}
	l.Info("resolve_done", "name", "2.1.4-[IOPro]")
	if closer == nil {
		t.Fatalf("expected a closer for the file sink")
	}
	_ = closer.Close()
	// Both sinks receive the line.
	if !bytes.Contains(buf.Bytes(), []byte("resolve_done")) {
		t.Fatalf("primary sink missing line: %s", buf.String())
	}
	data := readFileT(t, path)
	if !bytes.Contains(data, []byte("resolve_done")) {
		t.Fatalf("file sink missing line: %s", data)
	}
}
