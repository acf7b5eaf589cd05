package manifest

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/dialqa/dialqa/pkg/reaction"
)

func TestLoadDir(t *testing.T) {
	dir := t.TempDir()

	first := `
name: morning-shift
recording: calls/morning.wav
turns:
  - start: 3.25
    end: 8.43
  - start: 10
    end: 12.5
`
	second := `
recording: /data/evening.wav
turns:
  - start: 1.0
    end: 2.0
`
	if err := os.WriteFile(filepath.Join(dir, "a.yaml"), []byte(first), 0644); err != nil {
		t.Fatalf("write manifest: %v", err)
	}
	if err := os.WriteFile(filepath.Join(dir, "b.yml"), []byte(second), 0644); err != nil {
		t.Fatalf("write manifest: %v", err)
	}
	if err := os.WriteFile(filepath.Join(dir, "notes.txt"), []byte("ignore me"), 0644); err != nil {
		t.Fatalf("write notes: %v", err)
	}

	manifests, err := LoadDir(dir)
	if err != nil {
		t.Fatalf("LoadDir: %v", err)
	}
	if len(manifests) != 2 {
		t.Fatalf("loaded %d manifests, want 2", len(manifests))
	}

	m := manifests[0]
	if m.Name != "morning-shift" {
		t.Errorf("Name = %q, want %q", m.Name, "morning-shift")
	}
	if want := filepath.Join(dir, "calls/morning.wav"); m.Recording != want {
		t.Errorf("Recording = %q, want %q", m.Recording, want)
	}
	if len(m.Turns) != 2 {
		t.Fatalf("len(Turns) = %d, want 2", len(m.Turns))
	}
	if m.Turns[0] != (reaction.Turn{Start: 3.25, End: 8.43}) {
		t.Errorf("Turns[0] = %+v, want {3.25 8.43}", m.Turns[0])
	}

	// An unnamed manifest takes its file base name; an absolute
	// recording path stays as written.
	m = manifests[1]
	if m.Name != "b" {
		t.Errorf("Name = %q, want %q", m.Name, "b")
	}
	if m.Recording != "/data/evening.wav" {
		t.Errorf("Recording = %q, want %q", m.Recording, "/data/evening.wav")
	}
}

func TestLoadDirEmpty(t *testing.T) {
	manifests, err := LoadDir(t.TempDir())
	if err != nil {
		t.Fatalf("LoadDir: %v", err)
	}
	if len(manifests) != 0 {
		t.Errorf("loaded %d manifests, want 0", len(manifests))
	}
}

func TestLoadInvalidYAML(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "bad.yaml")
	os.WriteFile(path, []byte("{{invalid yaml"), 0644)

	_, err := Load(path)
	if err == nil {
		t.Fatal("expected error for invalid YAML")
	}
	if !strings.Contains(err.Error(), path) {
		t.Errorf("error %q does not name the file", err)
	}
}

func TestLoadMissingRecording(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "norec.yaml")
	os.WriteFile(path, []byte("name: x\nturns: []\n"), 0644)

	if _, err := Load(path); err == nil {
		t.Error("expected error for manifest without recording")
	}
}

func TestWatchDispatch(t *testing.T) {
	dir := t.TempDir()
	if err := os.WriteFile(filepath.Join(dir, "call.wav"), []byte("placeholder"), 0644); err != nil {
		t.Fatalf("write recording: %v", err)
	}

	done := make(chan struct{})
	got := make(chan *Manifest, 8)
	watchErr := make(chan error, 1)
	go func() {
		watchErr <- Watch(dir, done, func(m *Manifest) { got <- m })
	}()
	// Give the watcher a moment to register the directory.
	time.Sleep(100 * time.Millisecond)

	os.WriteFile(filepath.Join(dir, "notes.txt"), []byte("recording: call.wav\n"), 0644)
	os.WriteFile(filepath.Join(dir, "broken.yaml"), []byte("{{not yaml"), 0644)
	if err := os.WriteFile(filepath.Join(dir, "call.yaml"), []byte("recording: call.wav\n"), 0644); err != nil {
		t.Fatalf("write manifest: %v", err)
	}

	select {
	case m := <-got:
		if m.Name != "call" {
			t.Errorf("Name = %q, want %q", m.Name, "call")
		}
		if want := filepath.Join(dir, "call.wav"); m.Recording != want {
			t.Errorf("Recording = %q, want %q", m.Recording, want)
		}
	case <-time.After(5 * time.Second):
		t.Fatal("manifest was not dispatched")
	}

	close(done)
	if err := <-watchErr; err != nil {
		t.Fatalf("Watch: %v", err)
	}

	// Repeat events for call.yaml are fine. The unparsable and non-YAML
	// files must never reach the handler.
	for {
		select {
		case m := <-got:
			if m.Name != "call" {
				t.Errorf("dispatched %q, want only %q", m.Name, "call")
			}
		default:
			return
		}
	}
}

func TestParseTurns(t *testing.T) {
	turns, err := ParseTurns("3.25:8.43, 10:12.5")
	if err != nil {
		t.Fatalf("ParseTurns: %v", err)
	}
	want := []reaction.Turn{
		{Start: 3.25, End: 8.43},
		{Start: 10, End: 12.5},
	}
	if len(turns) != len(want) {
		t.Fatalf("len(turns) = %d, want %d", len(turns), len(want))
	}
	for i := range want {
		if turns[i] != want[i] {
			t.Errorf("turns[%d] = %+v, want %+v", i, turns[i], want[i])
		}
	}
}

func TestParseTurnsMalformed(t *testing.T) {
	cases := []string{"", "3.25", "a:b", "1:2:3x", "1;2"}
	for _, arg := range cases {
		if _, err := ParseTurns(arg); err == nil {
			t.Errorf("ParseTurns(%q) = nil error, want failure", arg)
		}
	}
}
