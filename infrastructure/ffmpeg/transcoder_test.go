package ffmpeg

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"
)

// mockRunner records invocations and optionally inspects the concat list
type mockRunner struct {
	name     string
	args     []string
	listBody string
	err      error
}

func (m *mockRunner) Run(ctx context.Context, name string, args ...string) error {
	m.name = name
	m.args = args
	for i, a := range args {
		if a == "-i" && strings.HasSuffix(args[i+1], ".txt") {
			b, err := os.ReadFile(args[i+1])
			if err != nil {
				return err
			}
			m.listBody = string(b)
		}
	}
	return m.err
}

func (m *mockRunner) Output(ctx context.Context, name string, args ...string) ([]byte, error) {
	m.name = name
	m.args = args
	if m.err != nil {
		return nil, m.err
	}
	return []byte("ffmpeg version 6.1"), nil
}

func TestTranscoder_Trim(t *testing.T) {
	runner := &mockRunner{}
	tr := NewTranscoder(WithCommandRunner(runner), WithFFmpegPath("/usr/local/bin/ffmpeg"))

	if err := tr.Trim(context.Background(), "/in/merged.webm", "/out/clip.webm", 14, 8); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if runner.name != "/usr/local/bin/ffmpeg" {
		t.Errorf("name = %q", runner.name)
	}
	want := "-ss 14.000 -i /in/merged.webm -t 8.000 -c copy -y /out/clip.webm"
	if got := strings.Join(runner.args, " "); got != want {
		t.Errorf("args = %q, want %q", got, want)
	}
}

func TestTranscoder_TrimFractionalOffset(t *testing.T) {
	runner := &mockRunner{}
	tr := NewTranscoder(WithCommandRunner(runner))

	if err := tr.Trim(context.Background(), "in", "out", 2.5, 7.25); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if runner.args[1] != "2.500" || runner.args[5] != "7.250" {
		t.Errorf("args = %v", runner.args)
	}
}

func TestTranscoder_TrimError(t *testing.T) {
	runner := &mockRunner{err: errors.New("exit status 1")}
	tr := NewTranscoder(WithCommandRunner(runner))

	err := tr.Trim(context.Background(), "in", "out", 0, 8)
	if err == nil || !strings.Contains(err.Error(), "ffmpeg trim failed") {
		t.Errorf("error = %v", err)
	}
}

func TestTranscoder_Concat(t *testing.T) {
	dir := t.TempDir()
	runner := &mockRunner{}
	tr := NewTranscoder(WithCommandRunner(runner))

	a := filepath.Join(dir, "prev.webm")
	b := filepath.Join(dir, "curr.webm")
	out := filepath.Join(dir, "merged.webm")

	if err := tr.Concat(context.Background(), []string{a, b}, out); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	want := "file '" + a + "'\nfile '" + b + "'\n"
	if runner.listBody != want {
		t.Errorf("list = %q, want %q", runner.listBody, want)
	}
	if got := strings.Join(runner.args[:4], " "); got != "-f concat -safe 0" {
		t.Errorf("args = %v", runner.args)
	}
	if runner.args[len(runner.args)-1] != out {
		t.Errorf("output = %q", runner.args[len(runner.args)-1])
	}
	if _, err := os.Stat(out + ".txt"); !os.IsNotExist(err) {
		t.Error("concat list should be removed")
	}
}

func TestTranscoder_ConcatErrors(t *testing.T) {
	tr := NewTranscoder(WithCommandRunner(&mockRunner{}))
	if err := tr.Concat(context.Background(), nil, "out"); err == nil {
		t.Error("expected error for empty input list")
	}

	dir := t.TempDir()
	tr = NewTranscoder(WithCommandRunner(&mockRunner{err: errors.New("codec mismatch")}))
	err := tr.Concat(context.Background(), []string{"a"}, filepath.Join(dir, "m.webm"))
	if err == nil || !strings.Contains(err.Error(), "ffmpeg concat failed") {
		t.Errorf("error = %v", err)
	}
}

func TestConcatListEscapesQuotes(t *testing.T) {
	got := concatList([]string{"/tmp/it's.webm"})
	if got != `file '/tmp/it'\''s.webm'`+"\n" {
		t.Errorf("list = %q", got)
	}
}

func TestTranscoder_VerifyInstalled(t *testing.T) {
	tr := NewTranscoder(WithCommandRunner(&mockRunner{}))
	if err := tr.VerifyInstalled(context.Background()); err != nil {
		t.Errorf("unexpected error: %v", err)
	}

	tr = NewTranscoder(WithCommandRunner(&mockRunner{err: errors.New("not found")}))
	if err := tr.VerifyInstalled(context.Background()); err == nil {
		t.Error("expected error")
	}
}
