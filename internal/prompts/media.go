package prompts

func (r *resolution) resolveMedia(ref Reference) string {
	if ref.Kind == RefInput {
		return r.resolveInput(ref.Name)
	}
	return r.resolveRegistryRef(ref.Name)
}

// resolveInput resolves @{input:name}. A missing upload is a completeness
// problem for the validator, not an unresolved reference.
func (r *resolution) resolveInput(name string) string {
	if _, ok := r.variables.Image(name); !ok {
		r.markUnresolved(RefInput, name)
		return undefinedPlaceholder(name)
	}
	if _, ok := r.inputs.MediaOf(name); ok {
		return imagePlaceholder(name)
	}
	return missingImagePlaceholder(name)
}

func (r *resolution) resolveRegistryRef(name string) string {
	if _, ok := r.registry.Lookup(name); ok {
		return mediaPlaceholder(name)
	}
	r.markUnresolved(RefMedia, name)
	return missingMediaPlaceholder(name)
}
