// Copyright (c) 2025 Archmagece
// SPDX-License-Identifier: MIT

package plugin

import (
	"bytes"
	"context"
	"encoding/json"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/gizzahub/gzh-cli-metagit/pkg/plan"
)

func TestResponseMarshalVariants(t *testing.T) {
	tests := []struct {
		name string
		resp Response
		want string
	}{
		{"message", Message("done"), `{"message":"done"}`},
		{"error", Errorf("bad %s", "input"), `{"error":"bad input"}`},
		{"help nil", ShowHelp(nil), `{"showHelp":null}`},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			data, err := json.Marshal(tt.resp)
			if err != nil {
				t.Fatal(err)
			}
			if string(data) != tt.want {
				t.Errorf("got %s, want %s", data, tt.want)
			}
		})
	}

	detail := "usage: ..."
	data, _ := json.Marshal(ShowHelp(&detail))
	if string(data) != `{"showHelp":"usage: ..."}` {
		t.Errorf("help with detail = %s", data)
	}

	p := plan.Sequential([]plan.Command{{Dir: ".", Cmd: "git status"}})
	data, _ = json.Marshal(PlanResponse(p))
	if !strings.Contains(string(data), `"plan"`) || !strings.Contains(string(data), `"git status"`) {
		t.Errorf("plan response = %s", data)
	}
}

func TestResponseRoundTrip(t *testing.T) {
	orig := PlanResponse(plan.Concurrent([]plan.Command{{Dir: "/w", Cmd: "git fetch"}}))
	data, err := json.Marshal(orig)
	if err != nil {
		t.Fatal(err)
	}

	var decoded Response
	if err := json.Unmarshal(data, &decoded); err != nil {
		t.Fatal(err)
	}
	p := decoded.Plan()
	if p == nil || len(p.Commands) != 1 || p.Commands[0].Cmd != "git fetch" {
		t.Errorf("round-trip lost plan: %+v", p)
	}

	var errResp Response
	if err := json.Unmarshal([]byte(`{"error":"boom"}`), &errResp); err != nil {
		t.Fatal(err)
	}
	if !errResp.IsError() || errResp.Text() != "boom" {
		t.Errorf("error round-trip: %+v", errResp)
	}
}

func TestRequestDecoding(t *testing.T) {
	input := `{
		"command": "git worktree create",
		"args": ["f1", "--repo", "app"],
		"projects": ["app", "lib"],
		"cwd": "/workspace",
		"options": {"dry_run": true, "recursive": true, "depth": 3}
	}`
	var req Request
	if err := json.Unmarshal([]byte(input), &req); err != nil {
		t.Fatal(err)
	}
	if req.Command != "git worktree create" || len(req.Args) != 3 {
		t.Errorf("req = %+v", req)
	}
	if !req.Options.DryRun || !req.Options.Recursive {
		t.Errorf("options = %+v", req.Options)
	}
	if req.Options.Depth == nil || *req.Options.Depth != 3 {
		t.Errorf("depth = %v", req.Options.Depth)
	}
	if req.Options.Parallel || req.Options.Strict {
		t.Errorf("absent options must default false: %+v", req.Options)
	}
}

func TestRunInfoMode(t *testing.T) {
	info := Info{
		Name:     "git",
		Version:  "1.2.3",
		Commands: []string{"git clone"},
		Help:     Help{Usage: "meta git <cmd>"},
	}

	var out, errOut bytes.Buffer
	code := Run(context.Background(), "--meta-plugin-info", info, nil, strings.NewReader(""), &out, &errOut)
	if code != ExitOK {
		t.Fatalf("exit = %d, stderr: %s", code, errOut.String())
	}

	var decoded Info
	if err := json.Unmarshal(out.Bytes(), &decoded); err != nil {
		t.Fatal(err)
	}
	if decoded.Name != "git" || decoded.Version != "1.2.3" || decoded.Help.Usage == "" {
		t.Errorf("info = %+v", decoded)
	}
}

func TestRunExecMode(t *testing.T) {
	cwd, _ := os.Getwd()
	t.Cleanup(func() { os.Chdir(cwd) })

	handler := func(_ context.Context, req *Request) Response {
		if req.Command == "git fail" {
			return Errorf("nope")
		}
		return Message("ok: " + req.Command)
	}

	t.Run("success", func(t *testing.T) {
		in := strings.NewReader(`{"command": "git status", "cwd": ""}`)
		var out, errOut bytes.Buffer
		code := Run(context.Background(), "--meta-plugin-exec", Info{}, handler, in, &out, &errOut)
		if code != ExitOK {
			t.Fatalf("exit = %d", code)
		}
		// Exactly one JSON document on stdout.
		var resp Response
		if err := json.Unmarshal(bytes.TrimSpace(out.Bytes()), &resp); err != nil {
			t.Fatalf("stdout is not one JSON response: %q", out.String())
		}
		if resp.Text() != "ok: git status" {
			t.Errorf("resp = %+v", resp)
		}
	})

	t.Run("error response exits 1", func(t *testing.T) {
		in := strings.NewReader(`{"command": "git fail"}`)
		var out, errOut bytes.Buffer
		code := Run(context.Background(), "--meta-plugin-exec", Info{}, handler, in, &out, &errOut)
		if code != ExitFailure {
			t.Errorf("exit = %d, want 1", code)
		}
		var resp Response
		if err := json.Unmarshal(bytes.TrimSpace(out.Bytes()), &resp); err != nil {
			t.Fatal(err)
		}
		if !resp.IsError() {
			t.Errorf("resp = %+v", resp)
		}
	})

	t.Run("cwd is honored", func(t *testing.T) {
		target := t.TempDir()
		var got string
		h := func(_ context.Context, _ *Request) Response {
			got, _ = os.Getwd()
			return Message("")
		}
		in := strings.NewReader(`{"command": "git status", "cwd": "` + target + `"}`)
		var out, errOut bytes.Buffer
		if code := Run(context.Background(), "--meta-plugin-exec", Info{}, h, in, &out, &errOut); code != ExitOK {
			t.Fatalf("exit = %d", code)
		}
		wantDir, _ := filepath.EvalSymlinks(target)
		gotDir, _ := filepath.EvalSymlinks(got)
		if gotDir != wantDir {
			t.Errorf("handler cwd = %q, want %q", gotDir, wantDir)
		}
	})

	t.Run("malformed request", func(t *testing.T) {
		in := strings.NewReader(`{not json`)
		var out, errOut bytes.Buffer
		if code := Run(context.Background(), "--meta-plugin-exec", Info{}, handler, in, &out, &errOut); code != ExitFailure {
			t.Errorf("exit = %d, want 1", code)
		}
	})

	t.Run("unknown mode", func(t *testing.T) {
		var out, errOut bytes.Buffer
		if code := Run(context.Background(), "--bogus", Info{}, handler, strings.NewReader(""), &out, &errOut); code != ExitFailure {
			t.Errorf("exit = %d, want 1", code)
		}
	})
}
