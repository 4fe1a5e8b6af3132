package collector

import (
	"errors"
	"fmt"
	"io"
	"os"
	"regexp"

	"github.com/Masterminds/semver/v3"
	"github.com/go-playground/validator/v10"
	"gopkg.in/yaml.v3"
)

type Config struct {
	Sources     map[string]typeConfig `yaml:"sources" validate:"required,min=1"`
	Collections []*CollectionConfig   `yaml:"collections" validate:"required,min=1,dive"`
}

func (c *Config) init() error {
	for _, col := range c.Collections {
		if err := col.init(); err != nil {
			return fmt.Errorf("collection %q: %w", col.Name, err)
		}
	}
	return nil
}

func (c *Config) validate() error {
	if err := validator.New().Struct(c); err != nil {
		return err
	}
	names := make(map[string]struct{}, len(c.Collections))
	for _, col := range c.Collections {
		if _, ok := names[col.Name]; ok {
			return fmt.Errorf("duplicate collection %q", col.Name)
		}
		names[col.Name] = struct{}{}

		if err := col.Source.validate(c); err != nil {
			return fmt.Errorf("collection %q: %w", col.Name, err)
		}
	}
	return nil
}

type typeConfig struct {
	Type   string                 `validate:"required"`
	Config map[string]interface{} `validate:"required"`
}

func (tc *typeConfig) UnmarshalYAML(value *yaml.Node) error {
	tmp := struct {
		Type string `yaml:"type"`
	}{}
	if err := value.Decode(&tmp); err != nil {
		return err
	}
	tc.Type = tmp.Type

	tc.Config = map[string]interface{}{}
	// Decode the rest...
	if err := value.Decode(tc.Config); err != nil {
		return err
	}
	delete(tc.Config, "type")

	return nil
}

type CollectionConfig struct {
	Name   string                 `yaml:"name" validate:"required"`
	Source collectionSourceConfig `yaml:"source" validate:"required"`

	// Items not matching are dropped. If the regex has a capture group,
	// the first group is used as the version.
	Match string `yaml:"match"`
	// Order by semantic version, newest first, and drop items that aren't one.
	Semver     bool   `yaml:"semver"`
	Constraint string `yaml:"constraint"`
	Prerelease bool   `yaml:"prerelease"`
	Limit      int    `yaml:"limit" validate:"gte=0"`

	// These will be filled in by init()
	mregex     *regexp.Regexp
	constraint *semver.Constraints
}

func (c *CollectionConfig) init() error {
	var err error
	if c.Match != "" {
		if c.mregex, err = regexp.Compile(c.Match); err != nil {
			return err
		}
		if c.mregex.NumSubexp() > 1 {
			return errors.New("the match regex must have at most 1 capture group")
		}
	}

	if c.Constraint != "" {
		if !c.Semver {
			return errors.New("constraint requires semver")
		}
		if c.constraint, err = semver.NewConstraint(c.Constraint); err != nil {
			return err
		}
	}
	return nil
}

type collectionSourceConfig struct {
	Name   string                 `validate:"required"`
	Config map[string]interface{} `validate:"required"`
	// The actual config that will be passed to the source
	sourceConfig interface{}
}

func (csc *collectionSourceConfig) UnmarshalYAML(value *yaml.Node) error {
	tmp := struct {
		Name string `yaml:"name"`
	}{}
	// First get the name
	if err := value.Decode(&tmp); err != nil {
		return err
	}
	csc.Name = tmp.Name

	csc.Config = map[string]interface{}{}
	// Decode the rest...
	if err := value.Decode(csc.Config); err != nil {
		return err
	}
	delete(csc.Config, "name")

	return nil
}

func (csc *collectionSourceConfig) validate(cfg *Config) error {
	if _, ok := cfg.Sources[csc.Name]; !ok {
		return fmt.Errorf("source %q does not exist", csc.Name)
	}
	return nil
}

// SourceType returns the type of the source the collection reads from.
func (c *Config) SourceType(col *CollectionConfig) string {
	return c.Sources[col.Source.Name].Type
}

func ReadConfig(path string) (*Config, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()

	return decodeConfig(f)
}

func decodeConfig(r io.Reader) (*Config, error) {
	d := yaml.NewDecoder(r)
	d.KnownFields(true)

	c := &Config{}
	// https://github.com/go-yaml/yaml/issues/639#issuecomment-666935833
	if err := d.Decode(c); err != nil && err != io.EOF {
		return nil, err
	}

	if err := c.init(); err != nil {
		return nil, err
	}

	if err := c.validate(); err != nil {
		return nil, err
	}

	return c, nil
}

// ValidateConfig checks a config without initializing any source.
func ValidateConfig(c *Config) error {
	return c.validate()
}
