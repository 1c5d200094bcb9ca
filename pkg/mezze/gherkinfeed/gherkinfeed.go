// Package gherkinfeed converts parsed Gherkin documents into the engine's
// own mezze.Feature tree, and walks a directory for .feature files to feed
// a mezze.Feature channel. Grounded on pkg/gherkin_parser/parser.go's
// ParseGherkinFile/SearchFeatureFilesIn and pkg/cacik/scenario.go's
// ScenarioFromMessage/StepFromMessage conversion helpers.
package gherkinfeed

import (
	"fmt"
	"io"
	"io/fs"
	"os"
	"path/filepath"
	"strings"

	gherkin "github.com/cucumber/gherkin/go/v26"
	messages "github.com/cucumber/messages/go/v21"

	"github.com/mezze-dev/mezze/pkg/mezze"
)

const featureExtension = ".feature"

// FindFeatureFiles walks each directory, collecting paths of every file
// named *.feature. Grounded on pkg/gherkin_parser/parser.go's
// SearchFeatureFilesIn.
func FindFeatureFiles(directories []string) ([]string, error) {
	var files []string
	for _, dir := range directories {
		err := filepath.Walk(dir, func(path string, info fs.FileInfo, err error) error {
			if err != nil {
				return err
			}
			if !info.IsDir() && strings.HasSuffix(info.Name(), featureExtension) {
				files = append(files, path)
			}
			return nil
		})
		if err != nil {
			return nil, err
		}
	}
	return files, nil
}

// ParseFile parses a single .feature file from path into a mezze.Feature.
func ParseFile(path string) (mezze.Feature, error) {
	f, err := os.Open(path)
	if err != nil {
		return mezze.Feature{}, err
	}
	defer f.Close()
	return Parse(f, path)
}

// Parse reads a Gherkin document from r and converts it into a
// mezze.Feature, tagging it with path (used for display and -n/-e
// matching against Feature.Path, if the caller chooses to match against
// it).
func Parse(r io.Reader, path string) (mezze.Feature, error) {
	newID := (&messages.Incrementing{}).NewId
	doc, err := gherkin.ParseGherkinDocument(r, newID)
	if err != nil {
		return mezze.Feature{}, fmt.Errorf("parsing %s: %w", path, err)
	}
	if doc.Feature == nil {
		return mezze.Feature{}, fmt.Errorf("%s: no Feature block", path)
	}
	return convertFeature(doc.Feature, path), nil
}

// Feed parses every file in paths and sends the resulting Features on a
// channel it returns, closing the channel once every file has been
// parsed (or the first parse error is encountered, which is sent to
// errs). Grounded on spec.md §6's "external parser feeds the engine a
// stream of Features".
func Feed(paths []string) (<-chan mezze.Feature, <-chan error) {
	out := make(chan mezze.Feature)
	errs := make(chan error, 1)
	go func() {
		defer close(out)
		defer close(errs)
		for _, p := range paths {
			feature, err := ParseFile(p)
			if err != nil {
				errs <- err
				return
			}
			out <- feature
		}
	}()
	return out, errs
}

func convertFeature(f *messages.Feature, path string) mezze.Feature {
	feature := mezze.Feature{
		Name:    f.Name,
		Path:    path,
		Keyword: f.Keyword,
		Tags:    tagNames(f.Tags),
	}

	lastType := mezze.StepGiven
	for _, child := range f.Children {
		switch {
		case child.Background != nil:
			bg := convertBackground(child.Background, &lastType)
			feature.Background = &bg
		case child.Rule != nil:
			feature.Rules = append(feature.Rules, convertRule(child.Rule))
		case child.Scenario != nil:
			feature.Scenarios = append(feature.Scenarios, convertScenario(child.Scenario, &lastType))
		}
	}
	return feature
}

func convertRule(r *messages.Rule) mezze.Rule {
	rule := mezze.Rule{
		Name: r.Name,
		Tags: tagNames(r.Tags),
	}

	lastType := mezze.StepGiven
	for _, child := range r.Children {
		switch {
		case child.Background != nil:
			bg := convertBackground(child.Background, &lastType)
			rule.Background = &bg
		case child.Scenario != nil:
			rule.Scenarios = append(rule.Scenarios, convertScenario(child.Scenario, &lastType))
		}
	}
	return rule
}

func convertBackground(b *messages.Background, lastType *mezze.StepType) mezze.Background {
	bg := mezze.Background{}
	for _, s := range b.Steps {
		bg.Steps = append(bg.Steps, convertStep(s, lastType))
	}
	return bg
}

func convertScenario(s *messages.Scenario, lastType *mezze.StepType) mezze.Scenario {
	scenario := mezze.Scenario{
		Name: s.Name,
		Tags: tagNames(s.Tags),
	}
	if s.Location != nil {
		scenario.Line = s.Location.Line
	}
	// Each scenario resolves a leading And/But from the type the
	// background's last step left (Given when there is no background);
	// a scenario's own steps work on a copy, so they do not carry over to
	// later scenarios.
	scenarioType := *lastType
	for _, step := range s.Steps {
		scenario.Steps = append(scenario.Steps, convertStep(step, &scenarioType))
	}
	return scenario
}

func convertStep(s *messages.Step, lastType *mezze.StepType) mezze.Step {
	keyword := strings.TrimSpace(s.Keyword)
	switch strings.ToLower(keyword) {
	case "given":
		*lastType = mezze.StepGiven
	case "when":
		*lastType = mezze.StepWhen
	case "then":
		*lastType = mezze.StepThen
	// "and", "but", "*" inherit *lastType unchanged.
	default:
	}

	step := mezze.Step{
		Keyword: s.Keyword,
		Type:    *lastType,
		Text:    s.Text,
	}
	if s.Location != nil {
		step.Line = s.Location.Line
	}
	if s.DocString != nil {
		content := s.DocString.Content
		step.DocString = &content
	}
	if s.DataTable != nil {
		table := mezze.NewTableFromDataTable(s.DataTable)
		step.Table = &table
	}
	return step
}

func tagNames(tags []*messages.Tag) []string {
	if len(tags) == 0 {
		return nil
	}
	names := make([]string, len(tags))
	for i, t := range tags {
		names[i] = t.Name
	}
	return names
}
