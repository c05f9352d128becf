package discovery

import (
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"sort"
	"time"

	"gopkg.in/yaml.v3"

	"rfr/internal/engine"
	"rfr/internal/execution"
)

// ErrInvalidSuite is returned for suite files that cannot be turned into a test tree.
var ErrInvalidSuite = errors.New("invalid suite file")

// NodeDef is one node of a suite file: a suite when Describe is set, a test when It is set.
type NodeDef struct {
	Describe string `yaml:"describe"`
	It       string `yaml:"it"`
	Timeout  string `yaml:"timeout"`
	Skip     bool   `yaml:"skip"`
	Sequence bool   `yaml:"sequence"`
	Story    bool   `yaml:"story"`

	// Suite fields
	Before     []StepDef `yaml:"before"`
	After      []StepDef `yaml:"after"`
	BeforeEach []StepDef `yaml:"before_each"`
	AfterEach  []StepDef `yaml:"after_each"`
	Children   []NodeDef `yaml:"children"`

	// Test fields: a single inline step, or a list of steps
	StepDef `yaml:",inline"`
	Steps   []StepDef `yaml:"steps"`
}

// StepDef is a shell command (run) or a query (sql) with its expectations.
type StepDef struct {
	Run          string            `yaml:"run"`
	SQL          string            `yaml:"sql"`
	Env          map[string]string `yaml:"env"`
	Dir          string            `yaml:"dir"`
	ExpectExit   int               `yaml:"expect_exit"`
	ExpectOutput string            `yaml:"expect_output"`
	Expect       *string           `yaml:"expect"`
}

func (s StepDef) empty() bool {
	return s.Run == "" && s.SQL == "" && s.Env == nil && s.Dir == "" &&
		s.ExpectExit == 0 && s.ExpectOutput == "" && s.Expect == nil
}

// SuiteFile is a parsed suite file.
type SuiteFile struct {
	Path string
	Root NodeDef
}

// Parse decodes a suite definition, rejecting unknown fields.
func Parse(r io.Reader) (*NodeDef, error) {
	dec := yaml.NewDecoder(r)
	dec.KnownFields(true)

	var def NodeDef
	if err := dec.Decode(&def); err != nil {
		if errors.Is(err, io.EOF) {
			return nil, errors.New("empty document")
		}
		return nil, err
	}
	return &def, nil
}

// ParseFile reads and validates a suite file.
func ParseFile(path string) (*SuiteFile, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("error reading file %s: %w", path, err)
	}
	defer f.Close()

	def, err := Parse(f)
	if err != nil {
		return nil, fmt.Errorf("%w: %s: %v", ErrInvalidSuite, path, err)
	}
	if def.Describe == "" {
		return nil, fmt.Errorf("%w: %s: top level must declare describe", ErrInvalidSuite, path)
	}
	if err := validate(def, "describe "+def.Describe); err != nil {
		return nil, fmt.Errorf("%w: %s: %v", ErrInvalidSuite, path, err)
	}
	return &SuiteFile{Path: path, Root: *def}, nil
}

func validate(n *NodeDef, where string) error {
	if _, err := parseTimeout(n.Timeout); err != nil {
		return fmt.Errorf("%s: %w", where, err)
	}

	switch {
	case n.Describe != "" && n.It != "":
		return fmt.Errorf("%s: node declares both describe and it", where)
	case n.Describe == "" && n.It == "":
		return fmt.Errorf("%s: node must declare describe or it", where)
	case n.Describe != "":
		if !n.StepDef.empty() || len(n.Steps) > 0 {
			return fmt.Errorf("%s: steps belong to tests, not suites", where)
		}
		hooks := []struct {
			name  string
			steps []StepDef
		}{
			{"before", n.Before}, {"after", n.After}, {"before_each", n.BeforeEach}, {"after_each", n.AfterEach},
		}
		for _, hook := range hooks {
			if err := validateSteps(hook.steps, where+" "+hook.name); err != nil {
				return err
			}
		}
		for i := range n.Children {
			child := &n.Children[i]
			title := child.Describe
			if title == "" {
				title = child.It
			}
			if err := validate(child, fmt.Sprintf("%s > [%d] %s", where, i, title)); err != nil {
				return err
			}
		}
	default:
		if n.Before != nil || n.After != nil || n.BeforeEach != nil || n.AfterEach != nil || n.Children != nil {
			return fmt.Errorf("%s: hooks and children belong to suites, not tests", where)
		}
		if n.Sequence || n.Story {
			return fmt.Errorf("%s: sequence and story apply to suites only", where)
		}
		if !n.StepDef.empty() && len(n.Steps) > 0 {
			return fmt.Errorf("%s: use either an inline step or steps, not both", where)
		}
		if !n.StepDef.empty() {
			return validateStep(n.StepDef, where)
		}
		return validateSteps(n.Steps, where+" steps")
	}
	return nil
}

func validateSteps(steps []StepDef, where string) error {
	for i, step := range steps {
		if err := validateStep(step, fmt.Sprintf("%s[%d]", where, i)); err != nil {
			return err
		}
	}
	return nil
}

func validateStep(s StepDef, where string) error {
	switch {
	case s.Run != "" && s.SQL != "":
		return fmt.Errorf("%s: step declares both run and sql", where)
	case s.Run == "" && s.SQL == "":
		return fmt.Errorf("%s: step must declare run or sql", where)
	case s.SQL != "" && (s.ExpectOutput != "" || s.ExpectExit != 0 || s.Env != nil || s.Dir != ""):
		return fmt.Errorf("%s: expect_output, expect_exit, env and dir apply to run steps", where)
	case s.Run != "" && s.Expect != nil:
		return fmt.Errorf("%s: expect applies to sql steps, use expect_output", where)
	}
	return nil
}

func parseTimeout(v string) (time.Duration, error) {
	if v == "" {
		return 0, nil
	}
	d, err := time.ParseDuration(v)
	if err != nil {
		return 0, fmt.Errorf("invalid timeout %q: %w", v, err)
	}
	if d <= 0 {
		return 0, fmt.Errorf("invalid timeout %q: must be positive", v)
	}
	return d, nil
}

// Loader turns suite files into engine suites.
type Loader struct {
	db execution.Querier
}

// NewLoader creates a Loader. db serves sql steps and may be nil when no suite uses them.
func NewLoader(db execution.Querier) *Loader {
	return &Loader{db: db}
}

// Load parses every file and declares each as a top-level suite of r, in the given order.
// Nothing is declared unless all files are valid.
func (l *Loader) Load(r *engine.Runner, paths []string) ([]*engine.Suite, error) {
	files := make([]*SuiteFile, 0, len(paths))
	for _, path := range paths {
		file, err := ParseFile(path)
		if err != nil {
			return nil, err
		}
		files = append(files, file)
	}

	suites := make([]*engine.Suite, 0, len(files))
	for _, file := range files {
		suites = append(suites, l.Declare(r.Root(), file))
	}
	return suites, nil
}

// Declare adds a parsed file as a nested suite of parent. Relative step
// directories resolve against the file's directory.
func (l *Loader) Declare(parent *engine.Suite, file *SuiteFile) *engine.Suite {
	return l.declareSuite(parent, &file.Root, filepath.Dir(file.Path))
}

func (l *Loader) declareSuite(parent *engine.Suite, n *NodeDef, baseDir string) *engine.Suite {
	return parent.Describe(n.Describe, func(s *engine.Suite) {
		if len(n.Before) > 0 {
			s.Before(l.sequence(n.Before, baseDir).Run)
		}
		if len(n.After) > 0 {
			s.After(l.sequence(n.After, baseDir).Run)
		}
		if len(n.BeforeEach) > 0 {
			s.BeforeEach(l.sequence(n.BeforeEach, baseDir).Run)
		}
		if len(n.AfterEach) > 0 {
			s.AfterEach(l.sequence(n.AfterEach, baseDir).Run)
		}

		for i := range n.Children {
			child := &n.Children[i]
			if child.Describe != "" {
				l.declareSuite(s, child, baseDir)
				continue
			}
			l.declareTest(s, child, baseDir)
		}
	}, nodeOptions(n)...)
}

func (l *Loader) declareTest(parent *engine.Suite, n *NodeDef, baseDir string) *engine.Unit {
	steps := n.Steps
	if !n.StepDef.empty() {
		steps = []StepDef{n.StepDef}
	}

	// A test without steps is declared without a body and reported as skipped
	var fn engine.TestFunc
	if len(steps) > 0 {
		fn = l.sequence(steps, baseDir).Run
	}
	return parent.It(n.It, fn, nodeOptions(n)...)
}

func nodeOptions(n *NodeDef) []engine.Option {
	var opts []engine.Option
	if n.Skip {
		opts = append(opts, engine.Skip())
	}
	// Already validated
	if d, _ := parseTimeout(n.Timeout); d > 0 {
		opts = append(opts, engine.Timeout(d))
	}
	if n.Sequence {
		opts = append(opts, engine.Sequence())
	}
	if n.Story {
		opts = append(opts, engine.Story())
	}
	return opts
}

func (l *Loader) sequence(defs []StepDef, baseDir string) execution.Sequence {
	seq := make(execution.Sequence, 0, len(defs))
	for _, def := range defs {
		seq = append(seq, l.step(def, baseDir))
	}
	return seq
}

func (l *Loader) step(def StepDef, baseDir string) execution.Step {
	if def.SQL != "" {
		return &execution.SQLStep{Query: def.SQL, Expect: def.Expect, DB: l.db}
	}

	dir := def.Dir
	if dir == "" {
		dir = baseDir
	} else if !filepath.IsAbs(dir) {
		dir = filepath.Join(baseDir, dir)
	}
	return &execution.CommandStep{
		Command:      def.Run,
		Env:          envList(def.Env),
		Dir:          dir,
		ExpectExit:   def.ExpectExit,
		ExpectOutput: def.ExpectOutput,
	}
}

func envList(env map[string]string) []string {
	if len(env) == 0 {
		return nil
	}
	list := make([]string, 0, len(env))
	for k, v := range env {
		list = append(list, k+"="+v)
	}
	sort.Strings(list)
	return list
}
