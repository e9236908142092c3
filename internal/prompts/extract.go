package prompts

import (
	"github.com/vileikis/clementine/internal/preset"
)

// mediaCollector gathers preview media in encounter order, keyed by kind and name.
type mediaCollector struct {
	inputs    preset.TestInputs
	variables preset.Variables
	registry  preset.MediaRegistry

	seen  map[string]bool
	items []MediaReference
}

func (c *mediaCollector) scan(text string) {
	for _, m := range mediaReferencePattern.FindAllStringSubmatch(text, -1) {
		c.add(Reference{Kind: RefKind(m[1]), Name: m[2]})
	}
}

func (c *mediaCollector) add(ref Reference) {
	key := string(ref.Kind) + ":" + ref.Name
	if c.seen[key] {
		return
	}

	var item MediaReference
	switch ref.Kind {
	case RefInput:
		if _, ok := c.variables.Image(ref.Name); !ok {
			return
		}
		mv, ok := c.inputs.MediaOf(ref.Name)
		if !ok {
			return
		}
		item = MediaReference{Name: ref.Name, URL: mv.URL, Source: SourceTest, Type: RefInput}
	case RefMedia:
		entry, ok := c.registry.Lookup(ref.Name)
		if !ok {
			return
		}
		item = MediaReference{Name: ref.Name, URL: entry.URL, Source: SourceRegistry, Type: RefMedia}
	default:
		return
	}

	c.seen[key] = true
	c.items = append(c.items, item)
}

// ExtractMediaReferences lists the concrete media a preview of template would
// show. The outer template is scanned first, then the text of every value
// mapping currently selected by a text input, in variable order. Tokens whose
// target is absent produce no entry, and each kind and name pair appears once.
func ExtractMediaReferences(template string, inputs preset.TestInputs, variables preset.Variables, registry preset.MediaRegistry) []MediaReference {
	c := &mediaCollector{
		inputs:    inputs,
		variables: variables,
		registry:  registry,
		seen:      make(map[string]bool),
		items:     []MediaReference{},
	}

	c.scan(template)

	for _, v := range variables {
		tv, ok := v.(*preset.TextVariable)
		if !ok || tv.ValueMap == nil {
			continue
		}
		input := inputs.TextOf(tv.Name)
		if input == "" {
			continue
		}
		if m, ok := tv.Mapping(input); ok {
			c.scan(m.Text)
		}
	}

	return c.items
}
