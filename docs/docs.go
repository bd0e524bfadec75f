// Package docs registers the OpenAPI document served under /swagger.
// Regenerate with: swag init -g cmd/api/main.go
package docs

import "github.com/swaggo/swag"

const docTemplate = `{
    "schemes": {{ marshal .Schemes }},
    "swagger": "2.0",
    "info": {
        "description": "{{escape .Description}}",
        "title": "{{.Title}}",
        "contact": {},
        "version": "{{.Version}}"
    },
    "host": "{{.Host}}",
    "basePath": "{{.BasePath}}",
    "paths": {
        "/admin/auth/login": {
            "post": {
                "tags": ["Auth"],
                "summary": "Admin login",
                "parameters": [{"in": "body", "name": "request", "required": true, "schema": {"$ref": "#/definitions/dto.LoginRequest"}}],
                "responses": {"200": {"description": "Successfully authenticated"}, "401": {"description": "Invalid credentials"}, "403": {"description": "Not an admin"}}
            }
        },
        "/admin/auth/verify": {
            "get": {"security": [{"BearerAuth": []}], "tags": ["Auth"], "summary": "Verify token", "responses": {"200": {"description": "OK"}}}
        },
        "/admin/users": {
            "get": {"security": [{"BearerAuth": []}], "tags": ["Users"], "summary": "List users", "responses": {"200": {"description": "OK"}}}
        },
        "/admin/jobs": {
            "get": {"security": [{"BearerAuth": []}], "tags": ["Jobs"], "summary": "List jobs", "responses": {"200": {"description": "OK"}}}
        },
        "/admin/jobs/stats": {
            "get": {"security": [{"BearerAuth": []}], "tags": ["Jobs"], "summary": "Job statistics", "responses": {"200": {"description": "OK"}}}
        },
        "/admin/conversations": {
            "get": {"security": [{"BearerAuth": []}], "tags": ["Conversations"], "summary": "List conversations", "responses": {"200": {"description": "OK"}}}
        },
        "/admin/chatbot/stats": {
            "get": {"security": [{"BearerAuth": []}], "tags": ["Chatbot"], "summary": "Chatbot statistics", "responses": {"200": {"description": "OK"}}}
        },
        "/admin/system/alerts": {
            "get": {"security": [{"BearerAuth": []}], "tags": ["Alerts"], "summary": "List alerts", "responses": {"200": {"description": "OK"}}}
        },
        "/admin/system/health": {
            "get": {"security": [{"BearerAuth": []}], "tags": ["System"], "summary": "System health", "responses": {"200": {"description": "OK"}}}
        },
        "/health": {
            "get": {"tags": ["Health"], "summary": "Service health", "responses": {"200": {"description": "OK"}}}
        }
    },
    "definitions": {
        "dto.LoginRequest": {
            "type": "object",
            "required": ["email", "password"],
            "properties": {
                "email": {"type": "string"},
                "password": {"type": "string", "minLength": 6}
            }
        }
    },
    "securityDefinitions": {
        "BearerAuth": {"type": "apiKey", "name": "Authorization", "in": "header"}
    }
}`

// SwaggerInfo holds exported Swagger Info so clients can modify it
var SwaggerInfo = &swag.Spec{
	Version:          "1.0.0",
	Host:             "",
	BasePath:         "/",
	Schemes:          []string{},
	Title:            "FutureGuide Admin Service API",
	Description:      "Admin backend for users, schools, analysis jobs, chatbot conversations and system alerts.",
	InfoInstanceName: "swagger",
	SwaggerTemplate:  docTemplate,
	LeftDelim:        "{{",
	RightDelim:       "}}",
}

func init() {
	swag.Register(SwaggerInfo.InstanceName(), SwaggerInfo)
}
