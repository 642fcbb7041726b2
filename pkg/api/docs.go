package api

import "github.com/swaggo/swag"

const docTemplate = `{
    "schemes": {{ marshal .Schemes }},
    "swagger": "2.0",
    "info": {
        "description": "{{escape .Description}}",
        "title": "{{.Title}}",
        "version": "{{.Version}}"
    },
    "host": "{{.Host}}",
    "basePath": "{{.BasePath}}",
    "paths": {
        "/health": {
            "get": {
                "security": [{"ApiKeyAuth": []}],
                "produces": ["application/json"],
                "tags": ["health"],
                "summary": "Health check",
                "responses": {"200": {"description": "OK", "schema": {"$ref": "#/definitions/api.APIResponse"}}}
            }
        },
        "/encode": {
            "post": {
                "security": [{"ApiKeyAuth": []}],
                "consumes": ["application/json", "application/msgpack"],
                "produces": ["application/octet-stream"],
                "tags": ["codec"],
                "summary": "Encode a document",
                "parameters": [{"type": "string", "description": "Document format (json or msgpack)", "name": "format", "in": "query"}],
                "responses": {
                    "200": {"description": "OK", "schema": {"type": "string"}},
                    "400": {"description": "Bad Request", "schema": {"$ref": "#/definitions/api.APIResponse"}}
                }
            }
        },
        "/decode": {
            "post": {
                "security": [{"ApiKeyAuth": []}],
                "consumes": ["application/octet-stream"],
                "produces": ["application/json", "application/msgpack"],
                "tags": ["codec"],
                "summary": "Decode a gram",
                "parameters": [{"type": "string", "description": "Document format (json or msgpack)", "name": "format", "in": "query"}],
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/bridge.Document"}},
                    "400": {"description": "Bad Request", "schema": {"$ref": "#/definitions/api.APIResponse"}}
                }
            }
        },
        "/inspect": {
            "post": {
                "security": [{"ApiKeyAuth": []}],
                "consumes": ["application/octet-stream"],
                "produces": ["application/json"],
                "tags": ["codec"],
                "summary": "Inspect a gram",
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/api.InspectResponse"}},
                    "400": {"description": "Bad Request", "schema": {"$ref": "#/definitions/api.APIResponse"}}
                }
            }
        },
        "/send": {
            "post": {
                "security": [{"ApiKeyAuth": []}],
                "consumes": ["application/json", "application/msgpack"],
                "produces": ["application/json"],
                "tags": ["transport"],
                "summary": "Send a document",
                "parameters": [{"type": "string", "description": "Document format (json or msgpack)", "name": "format", "in": "query"}],
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/api.APIResponse"}},
                    "400": {"description": "Bad Request", "schema": {"$ref": "#/definitions/api.APIResponse"}},
                    "503": {"description": "Service Unavailable", "schema": {"$ref": "#/definitions/api.APIResponse"}}
                }
            }
        },
        "/grams": {
            "get": {
                "security": [{"ApiKeyAuth": []}],
                "produces": ["application/json"],
                "tags": ["archive"],
                "summary": "List archived grams",
                "parameters": [{"type": "integer", "description": "Maximum number of grams (default 100)", "name": "limit", "in": "query"}],
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/api.APIResponse"}},
                    "503": {"description": "Service Unavailable", "schema": {"$ref": "#/definitions/api.APIResponse"}}
                }
            }
        },
        "/grams/{id}": {
            "get": {
                "security": [{"ApiKeyAuth": []}],
                "produces": ["application/json", "application/msgpack", "application/octet-stream"],
                "tags": ["archive"],
                "summary": "Get an archived gram",
                "parameters": [
                    {"type": "string", "description": "Gram id", "name": "id", "in": "path", "required": true},
                    {"type": "string", "description": "Representation (json, msgpack or gram)", "name": "format", "in": "query"}
                ],
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/bridge.Document"}},
                    "404": {"description": "Not Found", "schema": {"$ref": "#/definitions/api.APIResponse"}}
                }
            },
            "delete": {
                "security": [{"ApiKeyAuth": []}],
                "produces": ["application/json"],
                "tags": ["archive"],
                "summary": "Delete an archived gram",
                "parameters": [{"type": "string", "description": "Gram id", "name": "id", "in": "path", "required": true}],
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/api.APIResponse"}},
                    "404": {"description": "Not Found", "schema": {"$ref": "#/definitions/api.APIResponse"}}
                }
            }
        },
        "/sockets": {
            "get": {
                "security": [{"ApiKeyAuth": []}],
                "produces": ["application/json"],
                "tags": ["sockets"],
                "summary": "List UDP sockets",
                "responses": {"200": {"description": "OK", "schema": {"$ref": "#/definitions/api.APIResponse"}}}
            },
            "post": {
                "security": [{"ApiKeyAuth": []}],
                "consumes": ["application/json"],
                "produces": ["application/json"],
                "tags": ["sockets"],
                "summary": "Open a UDP socket",
                "parameters": [{"description": "Address pair", "name": "request", "in": "body", "required": true, "schema": {"$ref": "#/definitions/api.OpenSocketRequest"}}],
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/api.APIResponse"}},
                    "400": {"description": "Bad Request", "schema": {"$ref": "#/definitions/api.APIResponse"}},
                    "503": {"description": "Service Unavailable", "schema": {"$ref": "#/definitions/api.APIResponse"}}
                }
            },
            "delete": {
                "security": [{"ApiKeyAuth": []}],
                "produces": ["application/json"],
                "tags": ["sockets"],
                "summary": "Close every UDP socket",
                "responses": {"200": {"description": "OK", "schema": {"$ref": "#/definitions/api.APIResponse"}}}
            }
        },
        "/sockets/{id}": {
            "delete": {
                "security": [{"ApiKeyAuth": []}],
                "produces": ["application/json"],
                "tags": ["sockets"],
                "summary": "Close a UDP socket",
                "parameters": [{"type": "integer", "description": "Socket id", "name": "id", "in": "path", "required": true}],
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/api.APIResponse"}},
                    "404": {"description": "Not Found", "schema": {"$ref": "#/definitions/api.APIResponse"}}
                }
            }
        },
        "/sockets/{id}/send": {
            "post": {
                "security": [{"ApiKeyAuth": []}],
                "consumes": ["application/json", "application/msgpack"],
                "produces": ["application/json"],
                "tags": ["sockets"],
                "summary": "Send on a UDP socket",
                "parameters": [
                    {"type": "integer", "description": "Socket id", "name": "id", "in": "path", "required": true},
                    {"type": "string", "description": "Document format (json or msgpack)", "name": "format", "in": "query"}
                ],
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/api.APIResponse"}},
                    "400": {"description": "Bad Request", "schema": {"$ref": "#/definitions/api.APIResponse"}},
                    "404": {"description": "Not Found", "schema": {"$ref": "#/definitions/api.APIResponse"}}
                }
            }
        },
        "/sockets/{id}/receive": {
            "get": {
                "security": [{"ApiKeyAuth": []}],
                "produces": ["application/json", "application/msgpack"],
                "tags": ["sockets"],
                "summary": "Receive from a UDP socket",
                "parameters": [
                    {"type": "integer", "description": "Socket id", "name": "id", "in": "path", "required": true},
                    {"type": "integer", "description": "How long to wait (default 0)", "name": "timeout_ms", "in": "query"},
                    {"type": "string", "description": "Document format (json or msgpack)", "name": "format", "in": "query"}
                ],
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/bridge.Document"}},
                    "204": {"description": "No Content"},
                    "404": {"description": "Not Found", "schema": {"$ref": "#/definitions/api.APIResponse"}}
                }
            }
        }
    },
    "definitions": {
        "api.OpenSocketRequest": {
            "type": "object",
            "properties": {
                "local": {"type": "string"},
                "remote": {"type": "string"}
            }
        },
        "api.APIResponse": {
            "type": "object",
            "properties": {
                "success": {"type": "boolean"},
                "data": {},
                "error": {"type": "string"},
                "code": {"type": "integer"}
            }
        },
        "api.InspectResponse": {
            "type": "object",
            "properties": {
                "size": {"type": "integer"},
                "lines": {"type": "array", "items": {"type": "string"}}
            }
        },
        "bridge.Document": {
            "type": "object",
            "properties": {
                "kind": {"type": "string"},
                "dims": {"type": "array", "items": {"type": "integer"}},
                "data": {"type": "array", "items": {}},
                "width": {"type": "integer"},
                "text": {"type": "string"},
                "units": {"type": "array", "items": {"type": "integer"}},
                "items": {"type": "array", "items": {"$ref": "#/definitions/bridge.Document"}},
                "fields": {"type": "array", "items": {"type": "string"}},
                "instances": {"type": "array", "items": {"type": "array", "items": {"$ref": "#/definitions/bridge.Document"}}},
                "source": {"type": "string"}
            }
        }
    },
    "securityDefinitions": {
        "ApiKeyAuth": {"type": "apiKey", "name": "X-API-Key", "in": "header"}
    }
}`

// SwaggerInfo holds exported Swagger Info so clients can modify it
var SwaggerInfo = &swag.Spec{
	Version:          "1.0.0",
	Host:             "localhost:8080",
	BasePath:         "/api/v1",
	Schemes:          []string{},
	Title:            "mxgram REST API",
	Description:      "Encode, decode, inspect and relay gram datagrams.",
	InfoInstanceName: "swagger",
	SwaggerTemplate:  docTemplate,
	LeftDelim:        "{{",
	RightDelim:       "}}",
}

func init() {
	swag.Register(SwaggerInfo.InstanceName(), SwaggerInfo)
}
