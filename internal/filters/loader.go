package filters

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"os"

	"gopkg.in/yaml.v3"

	"pokewatch/internal/types"
)

// sectionKinds maps filter file sections to event kinds.
var sectionKinds = map[string]types.EventKind{
	"monsters":  types.KindMonster,
	"raids":     types.KindRaid,
	"eggs":      types.KindEgg,
	"gyms":      types.KindGym,
	"weather":   types.KindWeather,
	"quests":    types.KindQuest,
	"invasions": types.KindInvasion,
}

// LoadFile reads a filter file. The format is YAML or JSON:
//
//	monsters:
//	  enabled: true
//	  defaults: {min_iv: 90}
//	  filters:
//	    hundos: {min_iv: 100}
//
// Filters keep file order. Defaults are merged under each filter's own keys.
func (b *Builder) LoadFile(path string) (Sets, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, types.NewAppErrorWithDetails(types.ErrCodeConfigUnreadable,
			fmt.Sprintf("read filter file: %v", err), err, map[string]any{"path": path})
	}
	sets, err := b.Load(bytes.NewReader(data))
	if err != nil {
		return nil, fmt.Errorf("filter file %s: %w", path, err)
	}
	return sets, nil
}

// Load reads filter sections from r. An empty document yields no sets.
func (b *Builder) Load(r io.Reader) (Sets, error) {
	var doc yaml.Node
	if err := yaml.NewDecoder(r).Decode(&doc); err != nil {
		if errors.Is(err, io.EOF) {
			return Sets{}, nil
		}
		return nil, configErr(types.ErrCodeConfigUnreadable, "parse filter file", err, nil)
	}
	if len(doc.Content) == 0 {
		return Sets{}, nil
	}
	root := doc.Content[0]
	if root.Kind != yaml.MappingNode {
		return nil, configErr(types.ErrCodeConfigInvalidValue, "filter file must be a mapping of sections", nil, nil)
	}

	sets := Sets{}
	for i := 0; i+1 < len(root.Content); i += 2 {
		section := root.Content[i].Value
		kind, ok := sectionKinds[section]
		if !ok {
			return nil, configErr(types.ErrCodeConfigUnknownKey,
				fmt.Sprintf("%q is not a recognized filter section", section), nil,
				map[string]any{"key": section})
		}
		s, err := b.loadSection(kind, section, root.Content[i+1])
		if err != nil {
			return nil, err
		}
		sets[kind] = s
	}
	return sets, nil
}

func (b *Builder) loadSection(kind types.EventKind, section string, node *yaml.Node) (*Set, error) {
	if node.Kind != yaml.MappingNode {
		return nil, configErr(types.ErrCodeConfigInvalidValue,
			fmt.Sprintf("section %q must be a mapping", section), nil, map[string]any{"key": section})
	}

	s := &Set{Kind: kind, Enabled: true}
	var (
		defaults map[string]any
		filters  *yaml.Node
	)
	for i := 0; i+1 < len(node.Content); i += 2 {
		key, val := node.Content[i].Value, node.Content[i+1]
		switch key {
		case "enabled":
			if err := val.Decode(&s.Enabled); err != nil {
				return nil, configErr(types.ErrCodeConfigInvalidValue,
					fmt.Sprintf("section %q: enabled must be true or false", section), err,
					map[string]any{"key": key})
			}
		case "defaults":
			if err := val.Decode(&defaults); err != nil {
				return nil, configErr(types.ErrCodeConfigInvalidValue,
					fmt.Sprintf("section %q: defaults must be a mapping", section), err,
					map[string]any{"key": key})
			}
		case "filters":
			filters = val
		default:
			return nil, configErr(types.ErrCodeConfigUnknownKey,
				fmt.Sprintf("%q is not a recognized key of section %q", key, section), nil,
				map[string]any{"key": key})
		}
	}
	if filters == nil || filters.Tag == "!!null" {
		return s, nil
	}
	if filters.Kind != yaml.MappingNode {
		return nil, configErr(types.ErrCodeConfigInvalidValue,
			fmt.Sprintf("section %q: filters must be a mapping of name to settings", section), nil,
			map[string]any{"key": "filters"})
	}

	seen := make(map[string]bool, len(filters.Content)/2)
	for i := 0; i+1 < len(filters.Content); i += 2 {
		name := filters.Content[i].Value
		if seen[name] {
			return nil, configErr(types.ErrCodeConfigInvalidValue,
				fmt.Sprintf("section %q: filter %q is defined twice", section, name), nil,
				map[string]any{"filter": name})
		}
		seen[name] = true
		var own map[string]any
		if err := filters.Content[i+1].Decode(&own); err != nil {
			return nil, configErr(types.ErrCodeConfigInvalidValue,
				fmt.Sprintf("section %q: filter %q must be a mapping", section, name), err,
				map[string]any{"filter": name})
		}
		record := make(map[string]any, len(defaults)+len(own))
		for k, v := range defaults {
			record[k] = v
		}
		for k, v := range own {
			record[k] = v
		}
		f, err := b.Build(kind, name, record)
		if err != nil {
			return nil, err
		}
		s.Filters = append(s.Filters, f)
	}
	return s, nil
}

func configErr(code types.ErrorCode, msg string, err error, details map[string]any) error {
	return types.NewAppErrorWithDetails(code, msg, err, details)
}
