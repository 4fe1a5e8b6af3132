package source

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"

	"github.com/devon-mar/nextlinks/pager"
	log "github.com/sirupsen/logrus"
)

const typeContainer = "container_registry"

type containerRegistryConfig struct {
	Repo string `cfg:"repo" validate:"required"`
}

// ContainerRegistry lists the tags of a repository in an OCI distribution registry.
type ContainerRegistry struct {
	Paging   `cfg:",squash"`
	URL      string `cfg:"url" validate:"required,url"`
	PageSize int    `cfg:"page_size" validate:"omitempty,gt=0"`
}

func (c *ContainerRegistry) init(logger log.FieldLogger) error {
	c.URL = strings.TrimRight(c.URL, "/")
	// Anonymous pulls still need a token from the registry's auth server.
	c.Challenge = true
	c.initPager(logger, nil)
	return nil
}

// NewConfig implements Source
func (*ContainerRegistry) NewConfig(c map[string]interface{}) (interface{}, error) {
	return newConfig(c, &containerRegistryConfig{})
}

// Items implements Source
func (c *ContainerRegistry) Items(ctx context.Context, config interface{}) (chan *Item, chan error) {
	cfg := config.(*containerRegistryConfig)

	url := c.URL + "/v2/" + cfg.Repo + "/tags/list"
	if c.PageSize != 0 {
		url += fmt.Sprintf("?n=%d", c.PageSize)
	}

	return c.items(ctx, url, parseTagList)
}

func parseTagList(page *pager.Page) ([]*Item, error) {
	tags := struct {
		Name string   `json:"name"`
		Tags []string `json:"tags"`
	}{}
	if err := json.Unmarshal(page.Body, &tags); err != nil {
		return nil, fmt.Errorf("error unmarshalling response: %w", err)
	}

	items := make([]*Item, 0, len(tags.Tags))
	for _, t := range tags.Tags {
		items = append(items, &Item{Name: t})
	}
	return items, nil
}
