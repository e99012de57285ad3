package webtask

import (
	"encoding/json"
	"fmt"
	"os"
	"sync"
	"time"

	"github.com/invopop/jsonschema"
	"gopkg.in/yaml.v3"
)

// Options configures a createAgent call (spec.md §6: "wait_after_action,
// max_steps, use_screenshot, optional files: [path]"). Field names and
// yaml tags follow the teacher's config package style (internal/config's
// per-concern structs, each a flat yaml-tagged struct) scaled down to
// this package's single concern.
type Options struct {
	// WaitAfterAction is how long the Dispatcher pauses after each
	// successful non-terminal tool call before the next observation.
	WaitAfterAction time.Duration `yaml:"wait_after_action"`

	// MaxSteps bounds every Do call started by this Agent unless
	// overridden per-call with WithMaxSteps. Zero uses runner.DefaultMaxSteps.
	MaxSteps int `yaml:"max_steps"`

	// UseScreenshot controls whether observations include a PNG
	// alongside the textual snapshot, for the Task Runner, Verifier,
	// and Extractor alike.
	UseScreenshot bool `yaml:"use_screenshot"`

	// Files seeds the upload tool's FileManager with the paths a task
	// is allowed to attach (spec.md §6's createAgent `files` option).
	Files []string `yaml:"files"`
}

// DefaultOptions returns the Options every createAgent call starts from
// when the caller only overrides a few fields.
func DefaultOptions() Options {
	return Options{
		UseScreenshot: true,
	}
}

// LoadOptions reads Options from a YAML file, environment-expanding its
// contents first (internal/config/loader.go's `os.ExpandEnv` step), so a
// caller can keep `wait_after_action`/`max_steps`/etc. in a config file
// instead of constructing Options in code.
func LoadOptions(path string) (Options, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return Options{}, fmt.Errorf("webtask: reading options file %s: %w", path, err)
	}
	expanded := os.ExpandEnv(string(data))

	opts := DefaultOptions()
	if err := yaml.Unmarshal([]byte(expanded), &opts); err != nil {
		return Options{}, fmt.Errorf("webtask: parsing options file %s: %w", path, err)
	}
	return opts, nil
}

var (
	optionsSchemaOnce sync.Once
	optionsSchemaJSON []byte
	optionsSchemaErr  error
)

// OptionsJSONSchema returns the JSON Schema for Options, reflected off
// its yaml tags — the same `jsonschema.Reflector{FieldNameTag: "yaml"}`
// pattern internal/config/schema.go uses for the teacher's Config.
func OptionsJSONSchema() ([]byte, error) {
	optionsSchemaOnce.Do(func() {
		r := &jsonschema.Reflector{FieldNameTag: "yaml"}
		schema := r.Reflect(&Options{})
		optionsSchemaJSON, optionsSchemaErr = json.MarshalIndent(schema, "", "  ")
	})
	return optionsSchemaJSON, optionsSchemaErr
}

// DoOption overrides one field of a single Agent.Do call without
// reconstructing the Agent's Options (spec.md §6: "do(task, max_steps?,
// output_schema?)").
type DoOption func(*doConfig)

type doConfig struct {
	maxSteps     int
	outputSchema json.RawMessage
}

// WithMaxSteps overrides this Do call's step budget.
func WithMaxSteps(n int) DoOption {
	return func(c *doConfig) { c.maxSteps = n }
}

// WithOutputSchema wires a JSON Schema into this Do call's complete_work
// tool, validating whatever `output` the model reports.
func WithOutputSchema(schema json.RawMessage) DoOption {
	return func(c *doConfig) { c.outputSchema = schema }
}
