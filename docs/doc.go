// Package docs provides generated OpenAPI documentation.
//
// Docuflow API
//
//	@title			Docuflow API
//	@version		1.0
//	@description	Structures, translates and renders scanned Korean civil documents.
//
//	@contact.name	API Support
//	@contact.url	https://github.com/kdocs/docuflow
//
//	@license.name	MIT
//	@license.url	https://opensource.org/licenses/MIT
//
//	@host		localhost:8000
//	@BasePath	/
//
//	@schemes	http https
package docs

//go:generate swag init -g ../cmd/docuflow/serve.go -d ../cmd/docuflow,../internal/server/endpoints,../internal/pipeline -o ./swagger --parseInternal
