// Package source streams items from paginated APIs.
package source

import (
	"context"
	"fmt"
	"strings"

	"github.com/devon-mar/nextlinks/utils/envtag"
	"github.com/go-playground/validator/v10"
	"github.com/mitchellh/mapstructure"
	log "github.com/sirupsen/logrus"
)

const (
	cfgTag    = "cfg"
	envPrefix = "NEXTLINKS_SOURCE_"
)

var validate = validator.New()

type Source interface {
	// Items streams the items described by config across all pages.
	// Both channels are closed when done. Cancel ctx to stop early.
	Items(ctx context.Context, config interface{}) (chan *Item, chan error)
	// NewConfig decodes and validates a collection's source config.
	NewConfig(c map[string]interface{}) (interface{}, error)
}

type Item struct {
	Name string
	URL  string
	// The page the item was found on.
	Page string
}

func NewSource(name string, typ string, cfg map[string]interface{}, logger log.FieldLogger) (Source, error) {
	s, err := getSource(name, typ, cfg)
	if err != nil {
		return nil, err
	}

	if v, ok := s.(interface{ init(log.FieldLogger) error }); ok {
		if err := v.init(logger.WithField("source", name)); err != nil {
			return nil, fmt.Errorf("error initializing source: %w", err)
		}
	}

	return s, nil
}

func Validate(name string, typ string, cfg map[string]interface{}) error {
	_, err := getSource(name, typ, cfg)
	return err
}

func ValidateCollection(typ string, cfg map[string]interface{}) error {
	s, err := getSourceType(typ)
	if err != nil {
		return err
	}
	_, err = s.NewConfig(cfg)
	return err
}

// Returns a new empty Source for the given typ.
func getSourceType(typ string) (Source, error) {
	switch typ {
	case typeContainer:
		return &ContainerRegistry{}, nil
	case typeGiteaTags:
		return &GiteaTags{}, nil
	case typeGitHubTags:
		return &GitHubTags{}, nil
	case typeJSON:
		return &JSON{}, nil
	case typeRSS:
		return &RSS{}, nil
	default:
		return nil, fmt.Errorf("unsupported source type %q", typ)
	}
}

func decode(in map[string]interface{}, out interface{}) error {
	d, err := mapstructure.NewDecoder(&mapstructure.DecoderConfig{
		Result:      out,
		ErrorUnused: true,
		TagName:     cfgTag,
		DecodeHook:  mapstructure.StringToTimeDurationHookFunc(),
	})
	if err != nil {
		return fmt.Errorf("error initializing config decoder: %w", err)
	}
	return d.Decode(in)
}

// Validates and returns the source.
func getSource(name string, typ string, cfg map[string]interface{}) (Source, error) {
	s, err := getSourceType(typ)
	if err != nil {
		return nil, err
	}

	if err := decode(cfg, s); err != nil {
		return nil, err
	}

	if err := envtag.Unmarshal(cfgTag, envPrefix+strings.ToUpper(name)+"_", s); err != nil {
		return nil, err
	}

	if err := validate.Struct(s); err != nil {
		return nil, err
	}

	return s, nil
}

func newConfig(configMap map[string]interface{}, config interface{}) (interface{}, error) {
	if err := decode(configMap, config); err != nil {
		return nil, fmt.Errorf("error unmarshalling collection source config: %w", err)
	}
	if err := validate.Struct(config); err != nil {
		return nil, err
	}
	return config, nil
}

func sendItem(ctx context.Context, itemChan chan<- *Item, item *Item) bool {
	select {
	case itemChan <- item:
		return true
	case <-ctx.Done():
		return false
	}
}

func sendErr(ctx context.Context, errChan chan<- error, err error) {
	select {
	case errChan <- err:
	case <-ctx.Done():
	}
}

// Limit the number of items to limit. 0 means no limit.
func limit(ctx context.Context, itemChan chan *Item, errChan chan error, limit int) (chan *Item, chan error) {
	if limit == 0 {
		return itemChan, errChan
	}

	ourItems := make(chan *Item)
	ourErr := make(chan error)

	go func() {
		defer close(ourItems)
		defer close(ourErr)

		var sent int
		for {
			select {
			case it, ok := <-itemChan:
				if !ok {
					return
				}
				if !sendItem(ctx, ourItems, it) {
					return
				}
				sent++
				if sent == limit {
					return
				}
			case err, ok := <-errChan:
				if !ok {
					return
				}
				sendErr(ctx, ourErr, err)
				return
			}
		}
	}()
	return ourItems, ourErr
}
