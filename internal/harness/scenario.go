package harness

import (
	"bytes"
	"fmt"
	"os"
	"path/filepath"

	"gopkg.in/yaml.v3"
)

// Scenario defines a recompute scenario: a document, a sequence of edits
// each followed by a pass, and assertions over the resulting trace and
// final document state.
type Scenario struct {
	// Name uniquely identifies this scenario. It also names the golden file.
	Name string `yaml:"name"`

	// Description explains what this scenario validates.
	Description string `yaml:"description"`

	// Document is the definition to build: a YAML file, a CUE file or a CUE
	// package directory. Relative paths are resolved against the scenario
	// file's directory when loaded with LoadScenario.
	Document string `yaml:"document"`

	// Passes run in order. Each applies its edits and then recomputes.
	Passes []PassStep `yaml:"passes"`

	// Assertions validate the final trace and document.
	// Supported types: executed_order, executed_count, final_status,
	// final_value, final_links
	Assertions []Assertion `yaml:"assertions"`

	// TokenPrefix names the pass tokens ("<prefix>-1", "<prefix>-2", ...).
	// Defaults to "pass".
	TokenPrefix string `yaml:"token_prefix,omitempty"`
}

// PassStep is one group of edits followed by one recompute.
type PassStep struct {
	// Edits are applied in order before the pass.
	Edits []Edit `yaml:"edits,omitempty"`

	// Object, when set, recomputes only the named object instead of
	// running a document pass.
	Object string `yaml:"object,omitempty"`

	// Expect is checked against the pass report. Nil checks nothing.
	Expect *ExpectClause `yaml:"expect,omitempty"`
}

// Edit changes one object. The fields apply in this order: Add, Remove,
// Label, Set, Link, Touch. Remove ends the edit.
type Edit struct {
	// Object names the object to edit.
	Object string `yaml:"object"`

	// Add creates the object with this type first.
	Add string `yaml:"add,omitempty"`

	// Remove deletes the object.
	Remove bool `yaml:"remove,omitempty"`

	// Label renames the object's label.
	Label string `yaml:"label,omitempty"`

	// Set writes plain property values.
	Set map[string]any `yaml:"set,omitempty"`

	// Link replaces link targets, by object name.
	Link map[string][]string `yaml:"link,omitempty"`

	// Touch marks the object for recomputation without changing anything.
	Touch bool `yaml:"touch,omitempty"`
}

// ExpectClause describes the expected pass report.
type ExpectClause struct {
	// Executed is the exact list of objects whose computation ran, in
	// order. Nil skips the check; an empty list expects nothing to run.
	Executed []string `yaml:"executed,omitempty"`

	// Failed maps objects to the reason they are expected to fail with.
	// Objects not listed are not checked.
	Failed map[string]string `yaml:"failed,omitempty"`
}

// Assertion validates trace or final state.
type Assertion struct {
	// Type specifies the assertion type:
	// - "executed_order": objects first executed in this relative order
	// - "executed_count": object executed exactly Count times overall
	// - "final_status": object's status string equals Status
	// - "final_value": property value equals Value
	// - "final_links": link property targets equal Targets
	Type string `yaml:"type"`

	// Object is the object under test (all types except executed_order).
	Object string `yaml:"object,omitempty"`

	// Objects is the expected order (used by executed_order).
	Objects []string `yaml:"objects,omitempty"`

	// Property names the property (used by final_value and final_links).
	Property string `yaml:"property,omitempty"`

	// Value is the expected property value (used by final_value).
	Value any `yaml:"value,omitempty"`

	// Status is the expected status string, e.g. "Valid" or
	// "Error: Profile has errors" (used by final_status).
	Status string `yaml:"status,omitempty"`

	// Count is the expected number of executions (used by executed_count).
	Count int `yaml:"count,omitempty"`

	// Targets are the expected link targets (used by final_links).
	Targets []string `yaml:"targets,omitempty"`
}

// Assertion type constants.
const (
	AssertExecutedOrder = "executed_order"
	AssertExecutedCount = "executed_count"
	AssertFinalStatus   = "final_status"
	AssertFinalValue    = "final_value"
	AssertFinalLinks    = "final_links"
)

// LoadScenario reads and parses a scenario YAML file. The document path is
// resolved relative to the scenario file.
// Returns an error if the file doesn't exist, is malformed,
// contains unknown fields (typos), or is missing required fields.
func LoadScenario(path string) (*Scenario, error) {
	return LoadScenarioWithBasePath(path, filepath.Dir(path))
}

// LoadScenarioWithBasePath reads and parses a scenario YAML file,
// resolving the document path relative to basePath.
func LoadScenarioWithBasePath(path, basePath string) (*Scenario, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read scenario file: %w", err)
	}

	// Strict decoding catches typos like "assertion:" vs "assertions:".
	var scenario Scenario
	decoder := yaml.NewDecoder(bytes.NewReader(data))
	decoder.KnownFields(true)
	if err := decoder.Decode(&scenario); err != nil {
		return nil, fmt.Errorf("failed to parse YAML: %w", err)
	}

	if scenario.Document != "" && !filepath.IsAbs(scenario.Document) && basePath != "" {
		scenario.Document = filepath.Join(basePath, scenario.Document)
	}

	if err := validateScenario(&scenario); err != nil {
		return nil, fmt.Errorf("invalid scenario: %w", err)
	}

	return &scenario, nil
}

// validateScenario checks that required fields are present and valid.
func validateScenario(s *Scenario) error {
	if s.Name == "" {
		return fmt.Errorf("name is required")
	}

	if s.Description == "" {
		return fmt.Errorf("description is required")
	}

	if s.Document == "" {
		return fmt.Errorf("document is required")
	}

	if len(s.Passes) == 0 {
		return fmt.Errorf("passes list is required and must be non-empty")
	}

	if len(s.Assertions) == 0 {
		return fmt.Errorf("assertions list is required and must be non-empty")
	}

	if _, err := os.Stat(s.Document); os.IsNotExist(err) {
		return fmt.Errorf("document not found: %s", s.Document)
	}

	for i, pass := range s.Passes {
		for j, edit := range pass.Edits {
			if err := validateEdit(i, j, &edit); err != nil {
				return err
			}
		}
	}

	for i, assertion := range s.Assertions {
		if err := validateAssertion(i, &assertion); err != nil {
			return err
		}
	}

	return nil
}

func validateEdit(pass, index int, e *Edit) error {
	if e.Object == "" {
		return fmt.Errorf("passes[%d].edits[%d]: object is required", pass, index)
	}
	if e.Remove && (e.Add != "" || e.Label != "" || len(e.Set) > 0 || len(e.Link) > 0 || e.Touch) {
		return fmt.Errorf("passes[%d].edits[%d]: remove cannot be combined with other changes", pass, index)
	}
	if !e.Remove && e.Add == "" && e.Label == "" && len(e.Set) == 0 && len(e.Link) == 0 && !e.Touch {
		return fmt.Errorf("passes[%d].edits[%d]: edit of %s changes nothing", pass, index, e.Object)
	}
	return nil
}

// validateAssertion validates a single assertion based on its type.
func validateAssertion(index int, a *Assertion) error {
	if a.Type == "" {
		return fmt.Errorf("assertions[%d]: type is required", index)
	}

	switch a.Type {
	case AssertExecutedOrder:
		if len(a.Objects) == 0 {
			return fmt.Errorf("assertions[%d]: objects list is required for executed_order", index)
		}
	case AssertExecutedCount:
		if a.Object == "" {
			return fmt.Errorf("assertions[%d]: object is required for executed_count", index)
		}
		if a.Count < 0 {
			return fmt.Errorf("assertions[%d]: count must be non-negative for executed_count", index)
		}
	case AssertFinalStatus:
		if a.Object == "" || a.Status == "" {
			return fmt.Errorf("assertions[%d]: object and status are required for final_status", index)
		}
	case AssertFinalValue:
		if a.Object == "" || a.Property == "" {
			return fmt.Errorf("assertions[%d]: object and property are required for final_value", index)
		}
		if a.Value == nil {
			return fmt.Errorf("assertions[%d]: value is required for final_value", index)
		}
	case AssertFinalLinks:
		if a.Object == "" || a.Property == "" {
			return fmt.Errorf("assertions[%d]: object and property are required for final_links", index)
		}
	default:
		return fmt.Errorf("assertions[%d]: unknown assertion type %q", index, a.Type)
	}

	return nil
}
