// Package docs registers the OpenAPI document served under /swagger.
package docs

import "github.com/swaggo/swag/v2"

//go:generate swag init -g ../cmd/server/main.go -d ../ -o . --v3.1

const docTemplate = `{
    "schemes": {{ marshal .Schemes }},
    "swagger": "2.0",
    "info": {
        "description": "{{escape .Description}}",
        "title": "{{.Title}}",
        "contact": {
            "name": "StockPilot API Support"
        },
        "version": "{{.Version}}"
    },
    "host": "{{.Host}}",
    "basePath": "{{.BasePath}}",
    "paths": {
        "/products": {
            "get": {"security": [{"BearerAuth": []}], "tags": ["products"], "summary": "List products", "responses": {"200": {"description": "OK"}}},
            "post": {"security": [{"BearerAuth": []}], "tags": ["products"], "summary": "Create a product", "responses": {"201": {"description": "Created"}, "422": {"description": "Validation failed"}}}
        },
        "/products/{id}": {
            "get": {"security": [{"BearerAuth": []}], "tags": ["products"], "summary": "Get a product", "responses": {"200": {"description": "OK"}, "404": {"description": "Not found"}}},
            "put": {"security": [{"BearerAuth": []}], "tags": ["products"], "summary": "Update a product", "responses": {"200": {"description": "OK"}}},
            "delete": {"security": [{"BearerAuth": []}], "tags": ["products"], "summary": "Delete a product", "responses": {"204": {"description": "No Content"}}}
        },
        "/products/{id}/variants/{variant_id}/adjust": {
            "post": {"security": [{"BearerAuth": []}], "tags": ["products"], "summary": "Adjust variant stock", "responses": {"200": {"description": "OK"}}}
        },
        "/suppliers": {
            "get": {"security": [{"BearerAuth": []}], "tags": ["suppliers"], "summary": "List suppliers", "responses": {"200": {"description": "OK"}}},
            "post": {"security": [{"BearerAuth": []}], "tags": ["suppliers"], "summary": "Create a supplier", "responses": {"201": {"description": "Created"}}}
        },
        "/purchase-orders": {
            "get": {"security": [{"BearerAuth": []}], "tags": ["purchase-orders"], "summary": "List purchase orders", "responses": {"200": {"description": "OK"}}},
            "post": {"security": [{"BearerAuth": []}], "tags": ["purchase-orders"], "summary": "Create a draft purchase order", "responses": {"201": {"description": "Created"}}}
        },
        "/purchase-orders/{id}/receive": {
            "post": {"security": [{"BearerAuth": []}], "tags": ["purchase-orders"], "summary": "Receive goods into stock", "responses": {"200": {"description": "OK"}}}
        },
        "/orders": {
            "get": {"security": [{"BearerAuth": []}], "tags": ["orders"], "summary": "List synced sales orders", "responses": {"200": {"description": "OK"}}}
        },
        "/integrations": {
            "get": {"security": [{"BearerAuth": []}], "tags": ["integrations"], "summary": "List integrations", "responses": {"200": {"description": "OK"}}},
            "post": {"security": [{"BearerAuth": []}], "tags": ["integrations"], "summary": "Connect a platform", "responses": {"201": {"description": "Created"}}}
        },
        "/integrations/{id}/sync": {
            "post": {"security": [{"BearerAuth": []}], "tags": ["integrations"], "summary": "Queue a sync", "responses": {"202": {"description": "Accepted"}, "409": {"description": "Sync in progress"}, "503": {"description": "Queue full"}}}
        },
        "/analytics/dashboard": {
            "get": {"security": [{"BearerAuth": []}], "tags": ["analytics"], "summary": "Dashboard summary", "responses": {"200": {"description": "OK"}}}
        },
        "/imports/{entity}": {
            "post": {"security": [{"BearerAuth": []}], "tags": ["imports"], "summary": "Import a CSV file", "consumes": ["multipart/form-data"], "responses": {"200": {"description": "OK"}, "422": {"description": "Rejected"}}}
        },
        "/exports/{entity}": {
            "get": {"security": [{"BearerAuth": []}], "tags": ["exports"], "summary": "Export a CSV file", "produces": ["text/csv"], "responses": {"200": {"description": "OK"}}}
        }
    },
    "securityDefinitions": {
        "BearerAuth": {
            "description": "Bearer token authentication. Format: \"Bearer {token}\"",
            "type": "apiKey",
            "name": "Authorization",
            "in": "header"
        }
    }
}`

// SwaggerInfo holds exported Swagger Info so clients can modify it
var SwaggerInfo = &swag.Spec{
	Version:          "1.0",
	Host:             "",
	BasePath:         "/api/v1",
	Schemes:          []string{},
	Title:            "StockPilot API",
	Description:      "Multi-tenant inventory management and e-commerce sync API",
	InfoInstanceName: "swagger",
	SwaggerTemplate:  docTemplate,
	LeftDelim:        "{{",
	RightDelim:       "}}",
}

func init() {
	swag.Register(SwaggerInfo.InstanceName(), SwaggerInfo)
}
