// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package container

import (
	"bytes"
	"errors"
	"io"
	"strings"
	"testing"
)

// fakeExecutor scripts command execution. Binaries listed in available pass
// LookPath and RunSilent; everything else fails.
type fakeExecutor struct {
	available  map[string]bool
	silentErr  error
	pipedArgs  []string
	pipedName  string
	pipedIn    []byte
	pipedOut   string
	pipedErr   error
	silentCmds [][]string
}

func (f *fakeExecutor) LookPath(file string) (string, error) {
	if f.available[file] {
		return "/usr/bin/" + file, nil
	}
	return "", errors.New("not found")
}

func (f *fakeExecutor) RunSilent(name string, args ...string) error {
	f.silentCmds = append(f.silentCmds, append([]string{name}, args...))
	if !f.available[name] {
		return errors.New("not available")
	}
	return f.silentErr
}

func (f *fakeExecutor) RunPiped(name string, args []string, stdin io.Reader, stdout io.Writer) error {
	f.pipedName = name
	f.pipedArgs = args
	if stdin != nil {
		f.pipedIn, _ = io.ReadAll(stdin)
	}
	if f.pipedErr != nil {
		return f.pipedErr
	}
	stdout.Write([]byte(f.pipedOut))
	return nil
}

func TestDetectRuntime_PrefersDocker(t *testing.T) {
	exec := &fakeExecutor{available: map[string]bool{"docker": true, "podman": true}}
	rt, err := detectRuntime(exec)
	if err != nil {
		t.Fatal(err)
	}
	if rt.Name() != "docker" {
		t.Errorf("runtime = %s, want docker", rt.Name())
	}
}

func TestDetectRuntime_FallsBackToPodman(t *testing.T) {
	exec := &fakeExecutor{available: map[string]bool{"podman": true}}
	rt, err := detectRuntime(exec)
	if err != nil {
		t.Fatal(err)
	}
	if rt.Name() != "podman" {
		t.Errorf("runtime = %s, want podman", rt.Name())
	}
}

func TestDetectRuntime_NoneAvailable(t *testing.T) {
	exec := &fakeExecutor{available: map[string]bool{}}
	if _, err := detectRuntime(exec); err == nil {
		t.Fatal("expected error when no runtime is available")
	}
}

func TestRun_ArgumentShape(t *testing.T) {
	exec := &fakeExecutor{available: map[string]bool{"docker": true}, pipedOut: "rendered"}
	rt := newDockerRuntime(exec)

	var out bytes.Buffer
	err := rt.Run("marker:latest",
		[]string{"--output-format", "markdown"},
		[]string{"OPENROUTER_API_KEY=k"},
		strings.NewReader("pdf bytes"), &out)
	if err != nil {
		t.Fatal(err)
	}

	want := []string{"run", "--rm", "-i", "-e", "OPENROUTER_API_KEY=k", "marker:latest", "--output-format", "markdown"}
	if len(exec.pipedArgs) != len(want) {
		t.Fatalf("args = %v, want %v", exec.pipedArgs, want)
	}
	for i := range want {
		if exec.pipedArgs[i] != want[i] {
			t.Errorf("arg %d = %q, want %q", i, exec.pipedArgs[i], want[i])
		}
	}
	if string(exec.pipedIn) != "pdf bytes" {
		t.Errorf("stdin = %q", exec.pipedIn)
	}
	if out.String() != "rendered" {
		t.Errorf("stdout = %q", out.String())
	}
}

func TestImageExists(t *testing.T) {
	exec := &fakeExecutor{available: map[string]bool{"docker": true}}
	rt := newDockerRuntime(exec)
	if err := rt.ImageExists("marker:latest"); err != nil {
		t.Fatal(err)
	}

	last := exec.silentCmds[len(exec.silentCmds)-1]
	want := "docker image inspect marker:latest"
	if strings.Join(last, " ") != want {
		t.Errorf("command = %q, want %q", strings.Join(last, " "), want)
	}
}

func TestImageExists_Missing(t *testing.T) {
	exec := &fakeExecutor{available: map[string]bool{"docker": true}, silentErr: errors.New("no such image")}
	rt := newDockerRuntime(exec)
	if err := rt.ImageExists("absent:latest"); err == nil {
		t.Fatal("expected error for missing image")
	}
}
