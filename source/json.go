package source

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"

	"github.com/devon-mar/nextlinks/pager"
	log "github.com/sirupsen/logrus"
)

const typeJSON = "json"

type jsonConfig struct {
	// Appended to the source URL.
	Path string `cfg:"path"`
	// Object key holding the item name.
	// If empty, the array must contain strings.
	Field    string `cfg:"field"`
	URLField string `cfg:"url_field"`
}

// JSON reads items from any API that returns a JSON array per page and
// paginates with Link headers.
type JSON struct {
	Paging  `cfg:",squash"`
	URL     string            `cfg:"url" validate:"required,url"`
	Headers map[string]string `cfg:"headers"`
}

func (j *JSON) init(logger log.FieldLogger) error {
	j.URL = strings.TrimRight(j.URL, "/")
	j.initPager(logger, j.Headers)
	return nil
}

// NewConfig implements Source
func (*JSON) NewConfig(c map[string]interface{}) (interface{}, error) {
	return newConfig(c, &jsonConfig{})
}

// Items implements Source
func (j *JSON) Items(ctx context.Context, config interface{}) (chan *Item, chan error) {
	cfg := config.(*jsonConfig)

	url := j.URL
	if cfg.Path != "" {
		url += "/" + strings.TrimLeft(cfg.Path, "/")
	}

	return j.items(ctx, url, func(page *pager.Page) ([]*Item, error) {
		return parseJSONArray(page.Body, cfg)
	})
}

func parseJSONArray(body []byte, cfg *jsonConfig) ([]*Item, error) {
	var elems []json.RawMessage
	if err := json.Unmarshal(body, &elems); err != nil {
		return nil, fmt.Errorf("error unmarshalling response: %w", err)
	}

	items := make([]*Item, 0, len(elems))
	for i, e := range elems {
		if cfg.Field == "" {
			var name string
			if err := json.Unmarshal(e, &name); err != nil {
				return nil, fmt.Errorf("element %d is not a string: %w", i, err)
			}
			items = append(items, &Item{Name: name})
			continue
		}

		var obj map[string]interface{}
		if err := json.Unmarshal(e, &obj); err != nil {
			return nil, fmt.Errorf("element %d is not an object: %w", i, err)
		}
		name, ok := obj[cfg.Field].(string)
		if !ok {
			return nil, fmt.Errorf("element %d has no string field %q", i, cfg.Field)
		}
		it := &Item{Name: name}
		if cfg.URLField != "" {
			it.URL, _ = obj[cfg.URLField].(string)
		}
		items = append(items, it)
	}
	return items, nil
}
