// Package docs provides Swagger documentation for the API.
package docs

// @title VoiceReach Backend API
// @version 1.0
// @description API for the VoiceReach outbound calling and lead management platform

// @contact.name API Support
// @contact.email support@voicereach.io

// @license.name Apache 2.0
// @license.url http://www.apache.org/licenses/LICENSE-2.0.html

// @host localhost:8080
// @BasePath /api/v1
// @schemes http https
