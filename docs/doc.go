// Package docs provides generated OpenAPI documentation.
//
// Clementine API
//
//	@title			Clementine API
//	@version		1.0
//	@description	Preset prompt templates: storage, resolution, media extraction and validation.
//
//	@contact.name	API Support
//	@contact.url	https://github.com/vileikis/clementine
//
//	@license.name	MIT
//	@license.url	https://opensource.org/licenses/MIT
//
//	@host		localhost:8080
//	@BasePath	/
//
//	@schemes	http
package docs

//go:generate swag init -g ../cmd/clementine/serve.go -o ./swagger --parseDependency --parseInternal
