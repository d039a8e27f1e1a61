// Package workflow provides the phase sequences and phase metadata that
// the rest of the tracker treats as read-only input.
//
// A workflow is a named, ordered list of phases (e.g. bug: research →
// planning → tdd → integration → documentation). Each phase also carries a
// default conventional commit type, which the inference engine inverts to
// guess a phase from untagged commits.
//
// The built-in catalog is embedded; a project file may add workflows or
// replace built-in ones by name.
package workflow

import (
	_ "embed"
	"errors"
	"fmt"
	"os"
	"regexp"
	"sort"

	"github.com/HendryAvila/phasekeep/internal/phase"
	"github.com/go-playground/validator/v10"
	"gopkg.in/yaml.v3"
)

//go:embed workflows.yaml
var builtinYAML []byte

// phaseNamePattern keeps phase names representable as scope tokens.
var phaseNamePattern = regexp.MustCompile(`^[a-z][a-z0-9-]*$`)

var validate = newValidator()

func newValidator() *validator.Validate {
	v := validator.New()
	_ = v.RegisterValidation("phasename", func(fl validator.FieldLevel) bool {
		return phaseNamePattern.MatchString(fl.Field().String())
	})
	return v
}

// Definition is one workflow as written in YAML.
type Definition struct {
	Name        string   `yaml:"name" validate:"required,phasename"`
	Description string   `yaml:"description"`
	Phases      []string `yaml:"phases" validate:"required,min=1,unique,dive,phasename"`
}

// document is the on-disk shape of a workflows file.
type document struct {
	Default     string            `yaml:"default" validate:"omitempty,phasename"`
	CommitTypes map[string]string `yaml:"commit_types" validate:"dive,keys,phasename,endkeys,oneof=feat fix docs test refactor chore perf style build ci"`
	Workflows   []Definition      `yaml:"workflows" validate:"dive"`
}

// Metadata is the per-workflow phase metadata consumed by the codec and
// the inference engine. Phases is the ordered phase sequence.
type Metadata struct {
	Workflow    string
	Phases      []string
	CommitTypes map[string]string // phase -> default commit type
}

// Catalog is an immutable set of workflows.
type Catalog struct {
	workflows   map[string]Definition
	order       []string
	commitTypes map[string]string
	defaultName string
}

// Builtin returns the embedded catalog.
func Builtin() *Catalog {
	c, err := Parse(builtinYAML)
	if err != nil {
		panic(fmt.Sprintf("workflow: embedded catalog is invalid: %v", err))
	}
	return c
}

// Parse builds a catalog from a workflows document.
func Parse(data []byte) (*Catalog, error) {
	doc, err := parseDocument(data)
	if err != nil {
		return nil, err
	}
	c := &Catalog{
		workflows:   make(map[string]Definition),
		commitTypes: make(map[string]string),
	}
	c.merge(doc)
	if err := c.check(); err != nil {
		return nil, err
	}
	return c, nil
}

// Load returns the built-in catalog overlaid with the workflows file at
// path. A missing file yields the built-in catalog without error.
func Load(path string) (*Catalog, error) {
	c := Builtin()
	if path == "" {
		return c, nil
	}
	data, err := os.ReadFile(path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return c, nil
		}
		return nil, fmt.Errorf("reading workflows file: %w", err)
	}
	doc, err := parseDocument(data)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	c.merge(doc)
	if err := c.check(); err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	return c, nil
}

func parseDocument(data []byte) (*document, error) {
	var doc document
	if err := yaml.Unmarshal(data, &doc); err != nil {
		return nil, fmt.Errorf("parsing workflows: %w", err)
	}
	if err := validate.Struct(&doc); err != nil {
		return nil, fmt.Errorf("invalid workflows: %w", err)
	}
	return &doc, nil
}

func (c *Catalog) merge(doc *document) {
	for _, def := range doc.Workflows {
		if _, exists := c.workflows[def.Name]; !exists {
			c.order = append(c.order, def.Name)
		}
		phases := make([]string, len(def.Phases))
		copy(phases, def.Phases)
		def.Phases = phases
		c.workflows[def.Name] = def
	}
	for p, t := range doc.CommitTypes {
		c.commitTypes[p] = t
	}
	if doc.Default != "" {
		c.defaultName = doc.Default
	}
}

func (c *Catalog) check() error {
	if len(c.workflows) == 0 {
		return errors.New("invalid workflows: at least one workflow is required")
	}
	if c.defaultName == "" {
		c.defaultName = c.order[0]
	}
	if _, ok := c.workflows[c.defaultName]; !ok {
		return fmt.Errorf("invalid workflows: default workflow %q is not defined", c.defaultName)
	}
	return nil
}

// Names returns workflow names in definition order.
func (c *Catalog) Names() []string {
	out := make([]string, len(c.order))
	copy(out, c.order)
	return out
}

// DefaultWorkflow is the workflow assumed when nothing better is known.
func (c *Catalog) DefaultWorkflow() string {
	return c.defaultName
}

// Sequence returns a copy of the ordered phases of a workflow.
func (c *Catalog) Sequence(name string) ([]string, error) {
	def, ok := c.workflows[name]
	if !ok {
		return nil, &phase.UnknownWorkflowError{Workflow: name, Valid: c.Names()}
	}
	out := make([]string, len(def.Phases))
	copy(out, def.Phases)
	return out, nil
}

// Metadata returns the phase metadata of a workflow.
func (c *Catalog) Metadata(name string) (Metadata, error) {
	seq, err := c.Sequence(name)
	if err != nil {
		return Metadata{}, err
	}
	types := make(map[string]string, len(seq))
	for _, p := range seq {
		if t, ok := c.commitTypes[p]; ok {
			types[p] = t
		}
	}
	return Metadata{Workflow: name, Phases: seq, CommitTypes: types}, nil
}

// CommitType returns the default commit type of a phase, or "" if none.
func (c *Catalog) CommitType(phaseName string) string {
	return c.commitTypes[phaseName]
}

// AllPhases returns the sorted union of phases across every workflow.
func (c *Catalog) AllPhases() []string {
	seen := make(map[string]bool)
	var out []string
	for _, def := range c.workflows {
		for _, p := range def.Phases {
			if !seen[p] {
				seen[p] = true
				out = append(out, p)
			}
		}
	}
	sort.Strings(out)
	return out
}

// Description returns the human description of a workflow.
func (c *Catalog) Description(name string) string {
	return c.workflows[name].Description
}
