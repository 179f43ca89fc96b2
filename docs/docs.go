// Package docs is generated by swag init. Regenerate with
// swag init -g cmd/app/main.go after changing handler annotations.
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
        "/health": {
            "get": {
                "description": "Pings the database and redis. Answers 503 when either is down.",
                "produces": ["application/json"],
                "tags": ["system"],
                "summary": "Health check",
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/api.HealthResponse"}},
                    "503": {"description": "Service Unavailable", "schema": {"$ref": "#/definitions/api.HealthResponse"}}
                }
            }
        },
        "/metrics": {
            "get": {
                "description": "Exposes Prometheus metrics in text format",
                "produces": ["text/plain"],
                "tags": ["system"],
                "summary": "Prometheus metrics",
                "responses": {
                    "200": {"description": "OK", "schema": {"type": "string"}}
                }
            }
        }
    },
    "definitions": {
        "api.HealthResponse": {
            "type": "object",
            "properties": {
                "checks": {"type": "object", "additionalProperties": {"type": "string"}},
                "status": {"type": "string", "example": "ok"}
            }
        },
        "api.Response": {
            "type": "object",
            "properties": {
                "data": {},
                "errors": {},
                "message": {"type": "string"},
                "pagination": {"$ref": "#/definitions/api.Pagination"},
                "success": {"type": "boolean"}
            }
        },
        "api.Pagination": {
            "type": "object",
            "properties": {
                "limit": {"type": "integer"},
                "page": {"type": "integer"},
                "total": {"type": "integer"},
                "totalPages": {"type": "integer"}
            }
        }
    },
    "securityDefinitions": {
        "BearerAuth": {
            "type": "apiKey",
            "name": "Authorization",
            "in": "header"
        }
    }
}`

// SwaggerInfo holds exported Swagger Info so clients can modify it
var SwaggerInfo = &swag.Spec{
	Version:          "1.0",
	Host:             "localhost:8080",
	BasePath:         "/api/v1",
	Schemes:          []string{},
	Title:            "GymDesk API",
	Description:      "Gym memberships, personal training and dues.",
	InfoInstanceName: "swagger",
	SwaggerTemplate:  docTemplate,
	LeftDelim:        "{{",
	RightDelim:       "}}",
}

func init() {
	swag.Register(SwaggerInfo.InstanceName(), SwaggerInfo)
}
