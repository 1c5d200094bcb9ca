package gherkinfeed

import (
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/mezze-dev/mezze/pkg/mezze"
)

const basicFeature = `@smoke
Feature: Widget ordering

  Background:
    Given a catalog exists

  @fast
  Scenario: ordering one widget
    Given a widget named "bolt"
    When the customer orders 1 "bolt"
    Then the order total is 5

  Scenario: ordering with a table
    Given the following widgets are in stock:
      | name | price |
      | bolt | 5     |
      | nut  | 2     |
    When the customer checks out
    Then a receipt is printed
`

const ruleFeature = `Feature: Returns

  Rule: standard return window
    Background:
      Given a return window of 30 days

    Scenario: return within the window
      Given an order placed 10 days ago
      When the customer requests a return
      Then the return is accepted

  Rule: final sale items
    Scenario: return of a final sale item
      Given a final sale item
      When the customer requests a return
      Then the return is rejected
`

const docStringFeature = `Feature: Notes

  Scenario: attaching a note
    Given a note is attached:
      """
      hello
      world
      """
    Then the note contains "hello"
`

func TestParseBasicFeature(t *testing.T) {
	feature, err := Parse(strings.NewReader(basicFeature), "basic.feature")
	require.NoError(t, err)

	require.Equal(t, "Widget ordering", feature.Name)
	require.Equal(t, []string{"@smoke"}, feature.Tags)
	require.NotNil(t, feature.Background)
	require.Len(t, feature.Background.Steps, 1)
	require.Equal(t, mezze.StepGiven, feature.Background.Steps[0].Type)

	require.Len(t, feature.Scenarios, 2)

	first := feature.Scenarios[0]
	require.Equal(t, "ordering one widget", first.Name)
	require.Equal(t, []string{"@fast"}, first.Tags)
	require.Len(t, first.Steps, 3)
	require.Equal(t, mezze.StepGiven, first.Steps[0].Type)
	require.Equal(t, mezze.StepWhen, first.Steps[1].Type)
	require.Equal(t, mezze.StepThen, first.Steps[2].Type)

	second := feature.Scenarios[1]
	require.NotNil(t, second.Steps[0].Table)
	require.Equal(t, 3, second.Steps[0].Table.Len())
	require.Equal(t, []string{"name", "price"}, second.Steps[0].Table.Headers())
}

func TestParseRuleFeature(t *testing.T) {
	feature, err := Parse(strings.NewReader(ruleFeature), "rules.feature")
	require.NoError(t, err)

	require.Len(t, feature.Rules, 2)

	first := feature.Rules[0]
	require.Equal(t, "standard return window", first.Name)
	require.NotNil(t, first.Background)
	require.Len(t, first.Scenarios, 1)
	require.Equal(t, mezze.StepGiven, first.Scenarios[0].Steps[0].Type)
	require.Equal(t, mezze.StepWhen, first.Scenarios[0].Steps[1].Type)
	require.Equal(t, mezze.StepThen, first.Scenarios[0].Steps[2].Type)

	second := feature.Rules[1]
	require.Nil(t, second.Background)
	require.Len(t, second.Scenarios, 1)
}

func TestParseDocString(t *testing.T) {
	feature, err := Parse(strings.NewReader(docStringFeature), "docstring.feature")
	require.NoError(t, err)

	step := feature.Scenarios[0].Steps[0]
	require.NotNil(t, step.DocString)
	require.Equal(t, "hello\nworld", *step.DocString)
}

func TestParseInvalidGherkin(t *testing.T) {
	t.Run("malformed syntax returns an error", func(t *testing.T) {
		_, err := Parse(strings.NewReader("this is not gherkin at all {{{"), "bad.feature")
		require.Error(t, err)
	})

	t.Run("a document with no Feature block is an error", func(t *testing.T) {
		_, err := Parse(strings.NewReader("# just a comment\n"), "empty.feature")
		require.Error(t, err)
	})
}

func TestFindFeatureFilesAndFeed(t *testing.T) {
	dir := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(dir, "a.feature"), []byte(basicFeature), 0o644))
	require.NoError(t, os.WriteFile(filepath.Join(dir, "b.feature"), []byte(ruleFeature), 0o644))
	require.NoError(t, os.WriteFile(filepath.Join(dir, "not-a-feature.txt"), []byte("ignore me"), 0o644))

	sub := filepath.Join(dir, "nested")
	require.NoError(t, os.Mkdir(sub, 0o755))
	require.NoError(t, os.WriteFile(filepath.Join(sub, "c.feature"), []byte(docStringFeature), 0o644))

	files, err := FindFeatureFiles([]string{dir})
	require.NoError(t, err)
	require.Len(t, files, 3)

	featuresCh, errsCh := Feed(files)
	var names []string
	for f := range featuresCh {
		names = append(names, f.Name)
	}
	require.NoError(t, <-errsCh)
	require.ElementsMatch(t, []string{"Widget ordering", "Returns", "Notes"}, names)
}

func TestFeedStopsOnFirstParseError(t *testing.T) {
	dir := t.TempDir()
	good := filepath.Join(dir, "good.feature")
	bad := filepath.Join(dir, "bad.feature")
	require.NoError(t, os.WriteFile(good, []byte(basicFeature), 0o644))
	require.NoError(t, os.WriteFile(bad, []byte("not gherkin {{{"), 0o644))

	featuresCh, errsCh := Feed([]string{good, bad})
	for range featuresCh {
	}
	require.Error(t, <-errsCh)
}
