package testutil

import (
	"os"
	"path/filepath"
	"testing"
)

// PortraitPreset is a preset document exercising every reference kind:
// a mapped text variable whose mapping embeds a media reference, a text
// variable with a default, an image variable and a registry entry.
const PortraitPreset = `id: portrait
name: Portrait
description: Studio portrait with a selectable style
template: "Portrait of @{input:photo} in @{text:style} style, mood @{text:mood}. Logo: @{ref:logo}"
variables:
  - type: text
    id: var-style
    name: style
    valueMap:
      - value: modern
        text: "clean lines, see @{ref:moodboard}"
      - value: vintage
        text: warm film grain
  - type: text
    id: var-mood
    name: mood
    defaultValue: calm
  - type: image
    id: var-photo
    name: photo
mediaRegistry:
  - name: logo
    url: https://cdn.example.com/logo.png
    mediaAssetId: asset-logo
  - name: moodboard
    url: https://cdn.example.com/moodboard.png
    mediaAssetId: asset-moodboard
`

// BrokenRefsPreset references a variable and a media entry it never defines.
const BrokenRefsPreset = `id: broken
name: Broken references
template: "Hello @{text:who} with @{ref:ghost}"
variables: []
mediaRegistry: []
`

// WritePreset writes a preset document into dir and returns its path.
func WritePreset(t *testing.T, dir, fileName, doc string) string {
	t.Helper()

	path := filepath.Join(dir, fileName)
	if err := os.WriteFile(path, []byte(doc), 0o644); err != nil {
		t.Fatalf("failed to write preset fixture: %v", err)
	}
	return path
}
