package history

import (
	"context"
	"errors"
	"strconv"
	"strings"
	"testing"
	"time"
)

// fakeExecutor records the last call and replays canned output.
type fakeExecutor struct {
	out      string
	err      error
	gotDir   string
	gotArgs  []string
	deadline bool
}

func (f *fakeExecutor) Run(ctx context.Context, dir string, name string, args ...string) ([]byte, error) {
	f.gotDir = dir
	f.gotArgs = append([]string{name}, args...)
	_, f.deadline = ctx.Deadline()
	return []byte(f.out), f.err
}

func record(hash string, ts int64, msg string) string {
	return hash + fieldSep + strconv.FormatInt(ts, 10) + fieldSep + msg + "\n" + recordSep + "\n"
}

func TestRecentCommits_Parses(t *testing.T) {
	fe := &fakeExecutor{
		out: record("aaa", 1700000200, "feat(P_TDD): add tests") +
			record("bbb", 1700000100, "docs(P_PLANNING): plan\n\nLonger body\nwith lines"),
	}
	g := NewGitReader("/repo", WithExecutor(fe))

	commits, err := g.RecentCommits(context.Background(), "feature/42-login", 10)
	if err != nil {
		t.Fatalf("RecentCommits() error: %v", err)
	}
	if len(commits) != 2 {
		t.Fatalf("len = %d, want 2", len(commits))
	}
	if commits[0].Hash != "aaa" || commits[0].Message != "feat(P_TDD): add tests" {
		t.Errorf("commits[0] = %+v", commits[0])
	}
	if !commits[0].Timestamp.Equal(time.Unix(1700000200, 0)) {
		t.Errorf("timestamp = %v", commits[0].Timestamp)
	}
	if commits[1].Message != "docs(P_PLANNING): plan\n\nLonger body\nwith lines" {
		t.Errorf("commits[1].Message = %q", commits[1].Message)
	}

	if fe.gotDir != "/repo" {
		t.Errorf("dir = %q, want /repo", fe.gotDir)
	}
	joined := strings.Join(fe.gotArgs, " ")
	if !strings.Contains(joined, "git log -n 10") || !strings.Contains(joined, "feature/42-login") {
		t.Errorf("args = %q", joined)
	}
	if !fe.deadline {
		t.Error("expected the git call to run under a deadline")
	}
}

func TestRecentCommits_DefaultsToHEAD(t *testing.T) {
	fe := &fakeExecutor{}
	g := NewGitReader(".", WithExecutor(fe))

	commits, err := g.RecentCommits(context.Background(), "", 0)
	if err != nil {
		t.Fatalf("RecentCommits() error: %v", err)
	}
	if len(commits) != 0 {
		t.Errorf("len = %d, want 0", len(commits))
	}
	joined := strings.Join(fe.gotArgs, " ")
	if !strings.Contains(joined, "-n 50") || !strings.Contains(joined, "HEAD") {
		t.Errorf("args = %q", joined)
	}
}

func TestRecentCommits_Error(t *testing.T) {
	fe := &fakeExecutor{err: errors.New("fatal: bad revision")}
	g := NewGitReader(".", WithExecutor(fe))

	_, err := g.RecentCommits(context.Background(), "nope", 5)
	if err == nil || !strings.Contains(err.Error(), "bad revision") {
		t.Fatalf("error = %v, want wrapped git error", err)
	}
}

func TestCurrentBranch(t *testing.T) {
	tests := []struct {
		name    string
		out     string
		err     error
		want    string
		wantErr bool
	}{
		{"named branch", "bug/42-login\n", nil, "bug/42-login", false},
		{"detached", "HEAD\n", nil, "", true},
		{"empty", "", nil, "", true},
		{"git error", "", errors.New("not a git repository"), "", true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			g := NewGitReader(".", WithExecutor(&fakeExecutor{out: tt.out, err: tt.err}))
			got, err := g.CurrentBranch(context.Background())
			if (err != nil) != tt.wantErr {
				t.Fatalf("error = %v, wantErr %v", err, tt.wantErr)
			}
			if got != tt.want {
				t.Errorf("branch = %q, want %q", got, tt.want)
			}
		})
	}
}

func TestParseLog_SkipsMalformed(t *testing.T) {
	raw := "garbage" + recordSep + record("ok", 5, "chore: x")
	commits := parseLog(raw)
	if len(commits) != 1 || commits[0].Hash != "ok" {
		t.Errorf("commits = %+v", commits)
	}
}

func TestMessages(t *testing.T) {
	got := Messages([]Commit{{Message: "a"}, {Message: "b"}})
	if len(got) != 2 || got[0] != "a" || got[1] != "b" {
		t.Errorf("Messages = %v", got)
	}
}

func TestWithTimeout_IgnoresNonPositive(t *testing.T) {
	g := NewGitReader(".", WithTimeout(0))
	if g.timeout != DefaultTimeout {
		t.Errorf("timeout = %v, want %v", g.timeout, DefaultTimeout)
	}
	g = NewGitReader(".", WithTimeout(time.Second))
	if g.timeout != time.Second {
		t.Errorf("timeout = %v, want 1s", g.timeout)
	}
}
