package cmd

import (
	"bytes"
	"context"
	"errors"
	"strings"
	"testing"

	"github.com/creativeprojects/go-selfupdate"
)

type fakeReleaseSource struct {
	found bool
	err   error
	repo  selfupdate.Repository
}

func (f *fakeReleaseSource) DetectLatest(_ context.Context, repository selfupdate.Repository) (*selfupdate.Release, bool, error) {
	f.repo = repository
	return nil, f.found, f.err
}

func (f *fakeReleaseSource) UpdateTo(context.Context, *selfupdate.Release, string) error {
	return errors.New("not expected")
}

func useReleaseSource(t *testing.T, source releaseSource) {
	t.Helper()
	original := newReleaseSource
	t.Cleanup(func() { newReleaseSource = original })
	newReleaseSource = func() (releaseSource, error) { return source, nil }
}

func TestNewSelfUpdateCmd(t *testing.T) {
	selfUpdateCmd := newSelfUpdateCmd()

	if selfUpdateCmd.Use != "self-update" {
		t.Errorf("Expected Use to be 'self-update', got %s", selfUpdateCmd.Use)
	}
	if selfUpdateCmd.Flags().Lookup("check") == nil {
		t.Error("Expected --check flag to be registered")
	}
}

func TestRunSelfUpdate_DevelopmentVersions(t *testing.T) {
	for _, version := range []string{"", "dev"} {
		err := runSelfUpdate(context.Background(), &bytes.Buffer{}, version, false)
		if err == nil || !strings.Contains(err.Error(), "cannot self-update a development version") {
			t.Errorf("version %q: unexpected error %v", version, err)
		}
	}
}

func TestRunSelfUpdate_ReleaseNotFound(t *testing.T) {
	source := &fakeReleaseSource{}
	useReleaseSource(t, source)

	var out bytes.Buffer
	err := runSelfUpdate(context.Background(), &out, "1.0.0", true)

	if err == nil || !strings.Contains(err.Error(), releaseRepoSlug) {
		t.Errorf("expected not-found error naming the repository, got %v", err)
	}
	if !strings.Contains(out.String(), "Current version: 1.0.0") {
		t.Errorf("unexpected output %q", out.String())
	}
	if source.repo == nil {
		t.Error("expected DetectLatest to be called")
	}
}

func TestRunSelfUpdate_DetectError(t *testing.T) {
	useReleaseSource(t, &fakeReleaseSource{err: errors.New("rate limited")})

	err := runSelfUpdate(context.Background(), &bytes.Buffer{}, "1.0.0", false)
	if err == nil || !strings.Contains(err.Error(), "rate limited") {
		t.Errorf("expected the detection error, got %v", err)
	}
}
