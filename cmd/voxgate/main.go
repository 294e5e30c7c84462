// Package main is the entry point for Voxgate.
//
//	@title						Voxgate - Metered Provider Proxy
//	@version					1.0
//	@description				Admin backend and metered proxy for speech-to-text and chat-completion providers.
//
//	@license.name				MIT
//	@license.url				https://opensource.org/licenses/MIT
//
//	@host						localhost:8080
//	@BasePath					/
//
//	@securityDefinitions.apikey	BearerAuth
//	@in							header
//	@name						Authorization
//	@description				Bearer token authentication (format: "Bearer {token}")
package main

func main() {
	Execute()
}
