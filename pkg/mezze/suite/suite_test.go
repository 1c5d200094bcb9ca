package suite

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/mezze-dev/mezze/pkg/mezze"
)

const passingFeature = `Feature: Greeting
  Scenario: saying hello
    Given a person named "Ada"
    When they are greeted
    Then the greeting is "Hello, Ada!"
`

const failingFeature = `Feature: Broken
  Scenario: always fails
    Given a step that fails
`

func writeFeature(t *testing.T, dir, name, content string) string {
	t.Helper()
	path := filepath.Join(dir, name)
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
	return path
}

func TestSuiteRunPassing(t *testing.T) {
	dir := t.TempDir()
	writeFeature(t, dir, "greeting.feature", passingFeature)

	var name string
	var greeted bool
	var greeting string

	b := NewBuilder("greeting suite")
	b.RegisterGiven(`a person named "{name}"`, func(n string) error {
		name = n
		return nil
	})
	b.RegisterWhen("they are greeted", func() error {
		greeted = true
		return nil
	})
	b.RegisterThen(`the greeting is "{text}"`, func(text string) error {
		greeting = text
		return nil
	})
	b.FeatureDirectories(dir)
	b.WithoutCtrlC()

	collector := mezze.NewCollectReporter()
	b.Reporter(collector)

	s, err := b.Build()
	require.NoError(t, err)

	result, err := s.Run(context.Background())
	require.NoError(t, err)

	require.Equal(t, "Ada", name)
	require.True(t, greeted)
	require.Equal(t, "Hello, Ada!", greeting)
	require.Equal(t, 1, result.Summary.Total)
	require.Equal(t, 1, result.Summary.Passed)
	require.True(t, collector.Success())
}

func TestSuiteRunFailing(t *testing.T) {
	dir := t.TempDir()
	writeFeature(t, dir, "broken.feature", failingFeature)

	b := NewBuilder("failing suite")
	b.RegisterGiven("a step that fails", func() error {
		return mezze.Fail("deliberate failure")
	})
	b.FeatureDirectories(dir)
	b.WithoutCtrlC()

	s, err := b.Build()
	require.NoError(t, err)

	_, err = s.Run(context.Background())
	require.Error(t, err)
}

func TestSuiteBuildDefaultsToConsoleReporterUnlessDisabled(t *testing.T) {
	dir := t.TempDir()
	writeFeature(t, dir, "greeting.feature", passingFeature)

	b := NewBuilder("with console reporter")
	b.RegisterStep(`a person named "{name}"`, func(string) error { return nil })
	b.RegisterStep("they are greeted", func() error { return nil })
	b.RegisterStep(`the greeting is "{text}"`, func(string) error { return nil })
	b.FeatureDirectories(dir)
	b.WithoutCtrlC()
	b.WithConfig(&mezze.Config{DisableReporter: true})

	s, err := b.Build()
	require.NoError(t, err)
	require.Empty(t, s.reporters)
	_, err = s.Run(context.Background())
	require.NoError(t, err)
}

func TestSuiteRegisterDuplicatePatternPanics(t *testing.T) {
	b := NewBuilder("dup suite")
	b.RegisterGiven("a duplicate step", func() error { return nil })
	require.Panics(t, func() {
		b.RegisterGiven("a duplicate step", func() error { return nil })
	})
}

func TestSuiteBuildDefaultsToCwdWhenNoFeatureSourceGiven(t *testing.T) {
	b := NewBuilder("no sources given")
	s, err := b.Build()
	require.NoError(t, err)
	require.NotEmpty(t, s.featureDirs)
	require.Empty(t, s.featurePaths)
}
