package service

import (
	"errors"
	"fmt"
	"sort"
	"strings"

	"github.com/google/cel-go/cel"
)

// Tab is a report view that shows a subset of the environments.
type Tab string

const (
	TabAll         Tab = "all"
	TabDeploy      Tab = "deploy"
	TabMetadata    Tab = "metadata"
	TabIntegration Tab = "integration"
)

var ErrUnknownTab = errors.New("unknown report tab")

// ParseTab accepts a tab name case-insensitively. Empty means all.
func ParseTab(s string) (Tab, error) {
	switch t := Tab(strings.ToLower(strings.TrimSpace(s))); t {
	case "":
		return TabAll, nil
	case TabAll, TabDeploy, TabMetadata, TabIntegration:
		return t, nil
	}
	return "", fmt.Errorf("%w: %q", ErrUnknownTab, s)
}

// TabRules maps each tab to a CEL expression over the string variable env.
type TabRules map[Tab]string

func DefaultTabRules() TabRules {
	return TabRules{
		TabDeploy:      `env.contains("OpenMRS")`,
		TabMetadata:    `env.contains("OCL")`,
		TabIntegration: `env.contains("DHIS2")`,
	}
}

// TabClassifier decides which environments appear on which tab.
type TabClassifier struct {
	programs map[Tab]cel.Program
}

func NewTabClassifier(rules TabRules) (*TabClassifier, error) {
	env, err := cel.NewEnv(cel.Variable("env", cel.StringType))
	if err != nil {
		return nil, fmt.Errorf("creating CEL environment: %w", err)
	}
	c := &TabClassifier{programs: make(map[Tab]cel.Program, len(rules))}
	for tab, expr := range rules {
		if tab == TabAll {
			return nil, fmt.Errorf("tab %q cannot have a rule", tab)
		}
		ast, iss := env.Compile(expr)
		if iss != nil && iss.Err() != nil {
			return nil, fmt.Errorf("compiling rule for tab %s: %w", tab, iss.Err())
		}
		if !ast.OutputType().IsExactType(cel.BoolType) {
			return nil, fmt.Errorf("rule for tab %s must be a bool expression, got %s", tab, ast.OutputType())
		}
		prg, err := env.Program(ast)
		if err != nil {
			return nil, fmt.Errorf("building program for tab %s: %w", tab, err)
		}
		c.programs[tab] = prg
	}
	return c, nil
}

func (c *TabClassifier) matches(tab Tab, envName string) (bool, error) {
	prg, ok := c.programs[tab]
	if !ok {
		return false, fmt.Errorf("%w: %q", ErrUnknownTab, tab)
	}
	out, _, err := prg.Eval(map[string]interface{}{"env": envName})
	if err != nil {
		return false, fmt.Errorf("evaluating rule for tab %s: %w", tab, err)
	}
	b, ok := out.Value().(bool)
	if !ok {
		return false, fmt.Errorf("rule for tab %s did not return a bool", tab)
	}
	return b, nil
}

// Filter keeps the environments shown on tab, preserving order.
func (c *TabClassifier) Filter(tab Tab, environments []string) ([]string, error) {
	if tab == TabAll {
		return append([]string{}, environments...), nil
	}
	out := make([]string, 0, len(environments))
	for _, envName := range environments {
		ok, err := c.matches(tab, envName)
		if err != nil {
			return nil, err
		}
		if ok {
			out = append(out, envName)
		}
	}
	return out, nil
}

// Classify returns the tabs env appears on, sorted.
func (c *TabClassifier) Classify(envName string) ([]Tab, error) {
	tabs := make([]Tab, 0, 1)
	for tab := range c.programs {
		ok, err := c.matches(tab, envName)
		if err != nil {
			return nil, err
		}
		if ok {
			tabs = append(tabs, tab)
		}
	}
	sort.Slice(tabs, func(i, j int) bool { return tabs[i] < tabs[j] })
	return tabs, nil
}
