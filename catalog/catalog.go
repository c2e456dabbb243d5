package catalog

import (
	_ "embed"
	"errors"
	"fmt"
	"regexp"
	"strings"
	"sync"

	"github.com/go-playground/validator/v10"
	"gopkg.in/yaml.v3"
)

//go:embed examples.yaml
var builtin []byte

// ErrUnknownExample is returned by Lookup for ids the catalog does not hold
var ErrUnknownExample = errors.New("unknown example")

// DefaultExample is the id selected when a session starts
const DefaultExample = "playground"

// Example is one pitfall with its problem and solution variants
type Example struct {
	ID             string `yaml:"id" json:"id" validate:"required,example_id"`
	Title          string `yaml:"title" json:"title" validate:"required"`
	Description    string `yaml:"description" json:"description" validate:"required"`
	Explanation    string `yaml:"explanation" json:"explanation" validate:"required"`
	ProblemSource  string `yaml:"problem" json:"problem_source" validate:"required"`
	SolutionSource string `yaml:"solution" json:"solution_source" validate:"required"`
	// Playground examples have no separate solution to toggle to
	Playground bool `yaml:"playground" json:"playground,omitempty"`
}

// Source returns the solution variant when solution is set, the problem otherwise
func (e Example) Source(solution bool) string {
	if solution {
		return e.SolutionSource
	}
	return e.ProblemSource
}

// Group is a titled set of examples, in display order
type Group struct {
	ID       string   `yaml:"id" json:"id" validate:"required,example_id"`
	Title    string   `yaml:"title" json:"title" validate:"required"`
	Examples []string `yaml:"examples" json:"examples" validate:"min=1,dive,required"`
}

type document struct {
	Groups   []Group   `yaml:"groups" validate:"min=1,dive"`
	Examples []Example `yaml:"examples" validate:"min=1,dive"`
}

// Repository holds the examples offered by the playground
type Repository struct {
	examples map[string]Example
	order    []string
	groups   []Group
}

var (
	validatorOnce sync.Once
	validateInst  *validator.Validate

	exampleIDPattern = regexp.MustCompile(`^[a-z0-9]+(-[a-z0-9]+)*$`)
)

func validatorInstance() *validator.Validate {
	validatorOnce.Do(func() {
		v := validator.New()
		_ = v.RegisterValidation("example_id", func(fl validator.FieldLevel) bool {
			return exampleIDPattern.MatchString(fl.Field().String())
		})
		validateInst = v
	})
	return validateInst
}

// Default loads the catalog embedded in the binary
func Default() (*Repository, error) {
	return Load(builtin)
}

// Load parses and validates a catalog document
func Load(data []byte) (*Repository, error) {
	var doc document
	if err := yaml.Unmarshal(data, &doc); err != nil {
		return nil, fmt.Errorf("failed to parse catalog: %w", err)
	}

	if err := validatorInstance().Struct(doc); err != nil {
		return nil, fmt.Errorf("invalid catalog: %w", describeValidation(err))
	}

	repo := &Repository{
		examples: make(map[string]Example, len(doc.Examples)),
		groups:   doc.Groups,
	}

	for _, ex := range doc.Examples {
		if _, dup := repo.examples[ex.ID]; dup {
			return nil, fmt.Errorf("invalid catalog: duplicate example id %q", ex.ID)
		}
		repo.examples[ex.ID] = ex
		repo.order = append(repo.order, ex.ID)
	}

	for _, g := range doc.Groups {
		for _, id := range g.Examples {
			if _, ok := repo.examples[id]; !ok {
				return nil, fmt.Errorf("invalid catalog: group %q references %w %q", g.ID, ErrUnknownExample, id)
			}
		}
	}

	return repo, nil
}

func describeValidation(err error) error {
	var verrs validator.ValidationErrors
	if !errors.As(err, &verrs) {
		return err
	}

	msgs := make([]string, 0, len(verrs))
	for _, fe := range verrs {
		msgs = append(msgs, fmt.Sprintf("%s failed %q", fe.Namespace(), fe.Tag()))
	}
	return errors.New(strings.Join(msgs, "; "))
}

// Lookup returns the example with the given id
func (r *Repository) Lookup(id string) (Example, error) {
	ex, ok := r.examples[id]
	if !ok {
		return Example{}, fmt.Errorf("%w: %q", ErrUnknownExample, id)
	}
	return ex, nil
}

// List returns every example in catalog order
func (r *Repository) List() []Example {
	out := make([]Example, 0, len(r.order))
	for _, id := range r.order {
		out = append(out, r.examples[id])
	}
	return out
}

// Groups returns the display groups
func (r *Repository) Groups() []Group {
	return append([]Group(nil), r.groups...)
}
