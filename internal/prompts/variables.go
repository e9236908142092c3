package prompts

// resolveText resolves one @{text:name} token. The first applicable rule wins:
// an undefined variable is unresolved; a value map is consulted when the input
// is non-empty and falls back to the default; without a value map the input
// itself, then the default, is used.
func (r *resolution) resolveText(name string) string {
	v, ok := r.variables.Text(name)
	if !ok {
		r.markUnresolved(RefText, name)
		return undefinedPlaceholder(name)
	}

	input := r.inputs.TextOf(name)

	if v.ValueMap != nil {
		if input != "" {
			if m, ok := v.Mapping(input); ok {
				return r.resolveMappedText(m.Text)
			}
		}
		if def, ok := v.Default(); ok {
			return def
		}
		return noMappingPlaceholder(name)
	}

	if input != "" {
		return input
	}
	if def, ok := v.Default(); ok {
		return def
	}
	return noValuePlaceholder(name)
}
