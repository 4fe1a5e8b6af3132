// Package collector runs configured collections against their sources.
package collector

import (
	"context"
	"errors"
	"fmt"
	"sort"

	"github.com/Masterminds/semver/v3"
	"github.com/devon-mar/nextlinks/source"
	log "github.com/sirupsen/logrus"
	"golang.org/x/exp/maps"
	"golang.org/x/exp/slices"
)

var ErrNoItems = errors.New("no items found")

type Entry struct {
	Item    *source.Item
	Version string
	// nil unless the collection uses semver.
	SV *semver.Version
}

func (e *Entry) String() string {
	if e.SV != nil {
		return e.SV.String()
	}
	return e.Version
}

type Collector struct {
	sources map[string]source.Source
}

// New initializes every source in config.
func New(config *Config, logger log.FieldLogger) (*Collector, error) {
	c := &Collector{sources: make(map[string]source.Source, len(config.Sources))}

	names := maps.Keys(config.Sources)
	slices.Sort(names)
	for _, name := range names {
		sc := config.Sources[name]
		s, err := source.NewSource(name, sc.Type, sc.Config, logger)
		if err != nil {
			return nil, fmt.Errorf("error initializing source %q: %w", name, err)
		}
		c.sources[name] = s
	}

	for _, col := range config.Collections {
		s, ok := c.sources[col.Source.Name]
		if !ok {
			return nil, fmt.Errorf("collection %q: source %q does not exist", col.Name, col.Source.Name)
		}
		var err error
		col.Source.sourceConfig, err = s.NewConfig(col.Source.Config)
		if err != nil {
			return nil, fmt.Errorf("collection %q: %w", col.Name, err)
		}
	}
	return c, nil
}

// Collect returns the entries of the collection col.
// Without semver, entries are in source order.
func (c *Collector) Collect(ctx context.Context, col *CollectionConfig, logger log.FieldLogger) ([]*Entry, error) {
	s, ok := c.sources[col.Source.Name]
	if !ok {
		return nil, fmt.Errorf("source %q does not exist", col.Source.Name)
	}

	ctx, cancel := context.WithCancel(ctx)
	// Stops the source if we return early.
	defer cancel()

	itemChan, errChan := s.Items(ctx, col.Source.sourceConfig)

	var entries []*Entry
	for {
		select {
		case it, ok := <-itemChan:
			if !ok {
				return finish(col, entries), nil
			}
			e := col.entry(it, logger)
			if e == nil {
				continue
			}
			entries = append(entries, e)
			// With semver every item is needed to find the newest.
			if !col.Semver && col.Limit > 0 && len(entries) == col.Limit {
				return entries, nil
			}
		case err, ok := <-errChan:
			if !ok {
				return finish(col, entries), nil
			}
			return nil, err
		}
	}
}

// Latest returns the first entry of the collection.
func (c *Collector) Latest(ctx context.Context, col *CollectionConfig, logger log.FieldLogger) (*Entry, error) {
	entries, err := c.Collect(ctx, col, logger)
	if err != nil {
		return nil, err
	}
	if len(entries) == 0 {
		return nil, ErrNoItems
	}
	return entries[0], nil
}

// entry returns nil if the item is filtered out.
func (col *CollectionConfig) entry(it *source.Item, logger log.FieldLogger) *Entry {
	logger = logger.WithField("item", it.Name)

	e := &Entry{Item: it, Version: it.Name}
	if col.mregex != nil {
		m := col.mregex.FindStringSubmatch(it.Name)
		if m == nil {
			logger.Debug("Item does not match.")
			return nil
		}
		if len(m) > 1 {
			e.Version = m[1]
		}
	}

	if !col.Semver {
		return e
	}

	var err error
	e.SV, err = semver.NewVersion(e.Version)
	if err != nil {
		logger.WithError(err).Debug("Item is not a semantic version.")
		return nil
	}
	if e.SV.Prerelease() != "" && !col.Prerelease {
		logger.Debug("Ignoring prerelease.")
		return nil
	}
	if col.constraint != nil && !col.constraint.Check(e.SV) {
		logger.Debug("Item does not satisfy the constraint.")
		return nil
	}
	return e
}

func finish(col *CollectionConfig, entries []*Entry) []*Entry {
	if col.Semver {
		sort.SliceStable(entries, func(i, j int) bool {
			return entries[i].SV.GreaterThan(entries[j].SV)
		})
	}
	if col.Limit > 0 && len(entries) > col.Limit {
		entries = entries[:col.Limit]
	}
	return entries
}
