package services

import (
	"errors"
	"fmt"
	"strings"
	"testing"
)

func TestWrapTagsMarker(t *testing.T) {
	cause := errors.New("exit status 1")
	err := Wrap(ErrExternalTool, "render-frames", "invoke renderer", "renderer failed", cause)
	if !errors.Is(err, ErrExternalTool) {
		t.Fatalf("expected external tool marker, got %v", err)
	}
	if !errors.Is(err, cause) {
		t.Fatalf("expected cause to be wrapped, got %v", err)
	}
	for _, fragment := range []string{"render-frames", "invoke renderer", "renderer failed"} {
		if !strings.Contains(err.Error(), fragment) {
			t.Fatalf("expected %q in %q", fragment, err.Error())
		}
	}
}

func TestWrapDefaultsMarker(t *testing.T) {
	err := Wrap(nil, "encode", "", "", nil)
	if !errors.Is(err, ErrExternalTool) {
		t.Fatalf("expected default marker, got %v", err)
	}
}

func TestExitCode(t *testing.T) {
	cases := []struct {
		err  error
		want int
	}{
		{nil, ExitOK},
		{ErrNoInput, ExitNoInput},
		{fmt.Errorf("wrapped: %w", ErrConfiguration), ExitConfiguration},
		{Wrap(ErrToolVersion, "render-frames", "version gate", "renderer too old", nil), ExitToolVersion},
		{Wrap(ErrSandbox, "", "open scope", "name collision", nil), ExitSandbox},
		{errors.New("anything else"), ExitFailure},
	}
	for _, tc := range cases {
		if got := ExitCode(tc.err); got != tc.want {
			t.Fatalf("ExitCode(%v) = %d, want %d", tc.err, got, tc.want)
		}
	}
}

func TestFatal(t *testing.T) {
	if Fatal(nil) {
		t.Fatal("nil must not be fatal")
	}
	if Fatal(Wrap(ErrCleanup, "", "close scope", "sandbox teardown failed", nil)) {
		t.Fatal("cleanup failures must not be fatal")
	}
	if !Fatal(ErrExternalTool) {
		t.Fatal("tool errors must be fatal")
	}
}
