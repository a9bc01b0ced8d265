// Package docs registers the podsub OpenAPI document with swag.
package docs

import "github.com/swaggo/swag"

const docTemplate = `{
    "swagger": "2.0",
    "info": {
        "title": "{{.Title}}",
        "description": "{{escape .Description}}",
        "version": "{{.Version}}"
    },
    "host": "{{.Host}}",
    "basePath": "{{.BasePath}}",
    "schemes": {{ marshal .Schemes }},
    "securityDefinitions": {
        "BearerAuth": {"type": "apiKey", "name": "Authorization", "in": "header"}
    },
    "paths": {
        "/healthz": {
            "get": {
                "summary": "Liveness and storage reachability",
                "produces": ["application/json"],
                "responses": {"200": {"description": "ok"}, "503": {"description": "storage unreachable"}}
            }
        },
        "/api/auth/register": {
            "post": {
                "summary": "Create an account with role USER",
                "parameters": [{"in": "body", "name": "body", "required": true, "schema": {"$ref": "#/definitions/credentials"}}],
                "responses": {
                    "201": {"description": "created", "schema": {"type": "object", "properties": {"stableId": {"type": "string", "format": "uuid"}}}},
                    "400": {"description": "missing fields", "schema": {"$ref": "#/definitions/error"}},
                    "409": {"description": "username taken", "schema": {"$ref": "#/definitions/error"}}
                }
            }
        },
        "/api/auth/login": {
            "post": {
                "summary": "Exchange credentials for a token pair",
                "parameters": [{"in": "body", "name": "body", "required": true, "schema": {"$ref": "#/definitions/credentials"}}],
                "responses": {
                    "200": {"description": "token pair", "schema": {"$ref": "#/definitions/loginResponse"}},
                    "400": {"description": "missing fields", "schema": {"$ref": "#/definitions/error"}},
                    "401": {"description": "bad credentials", "schema": {"$ref": "#/definitions/error"}},
                    "429": {"description": "temporarily locked", "schema": {"$ref": "#/definitions/error"}}
                }
            }
        },
        "/api/auth/refresh": {
            "post": {
                "summary": "Exchange a refresh token for a new access token",
                "parameters": [{"in": "body", "name": "body", "required": true, "schema": {"$ref": "#/definitions/refreshRequest"}}],
                "responses": {
                    "200": {"description": "new access token", "schema": {"$ref": "#/definitions/refreshResponse"}},
                    "400": {"description": "invalid or expired refresh token (plain text)"}
                }
            }
        },
        "/api/auth/logout": {
            "post": {
                "summary": "Revoke a refresh token",
                "parameters": [{"in": "body", "name": "body", "required": true, "schema": {"$ref": "#/definitions/refreshRequest"}}],
                "responses": {"204": {"description": "revoked or unknown"}}
            }
        },
        "/api/feeds/uuid": {
            "get": {
                "summary": "Derive the feed UUID of a URL",
                "parameters": [{"in": "query", "name": "url", "type": "string", "required": true}],
                "responses": {
                    "200": {"description": "derived id", "schema": {"$ref": "#/definitions/feedUUID"}},
                    "400": {"description": "invalid feed url", "schema": {"$ref": "#/definitions/error"}}
                }
            }
        },
        "/api/users/me": {
            "get": {
                "summary": "Current principal",
                "security": [{"BearerAuth": []}],
                "responses": {
                    "200": {"description": "principal", "schema": {"$ref": "#/definitions/principal"}},
                    "401": {"description": "unauthenticated", "schema": {"$ref": "#/definitions/error"}}
                }
            }
        },
        "/api/users/{stableId}": {
            "get": {
                "summary": "Look up a user (ADMIN)",
                "security": [{"BearerAuth": []}],
                "parameters": [{"in": "path", "name": "stableId", "type": "string", "required": true}],
                "responses": {
                    "200": {"description": "user", "schema": {"$ref": "#/definitions/principal"}},
                    "401": {"description": "unauthenticated", "schema": {"$ref": "#/definitions/error"}},
                    "403": {"description": "missing role", "schema": {"$ref": "#/definitions/error"}},
                    "404": {"description": "no such user", "schema": {"$ref": "#/definitions/error"}}
                }
            }
        },
        "/api/admin/users/{stableId}/roles": {
            "put": {
                "summary": "Replace a user's roles (ADMIN)",
                "security": [{"BearerAuth": []}],
                "parameters": [
                    {"in": "path", "name": "stableId", "type": "string", "required": true},
                    {"in": "body", "name": "body", "required": true, "schema": {"$ref": "#/definitions/roles"}}
                ],
                "responses": {
                    "200": {"description": "stored roles", "schema": {"$ref": "#/definitions/roles"}},
                    "400": {"description": "empty or unknown roles", "schema": {"$ref": "#/definitions/error"}},
                    "403": {"description": "missing role", "schema": {"$ref": "#/definitions/error"}}
                }
            }
        },
        "/api/subscriptions": {
            "get": {
                "summary": "List the caller's subscriptions",
                "security": [{"BearerAuth": []}],
                "parameters": [
                    {"in": "query", "name": "limit", "type": "integer"},
                    {"in": "query", "name": "offset", "type": "integer"}
                ],
                "responses": {
                    "200": {"description": "page", "schema": {"type": "array", "items": {"$ref": "#/definitions/subscription"}}}
                }
            },
            "post": {
                "summary": "Subscribe to a feed",
                "security": [{"BearerAuth": []}],
                "parameters": [{"in": "body", "name": "body", "required": true, "schema": {"$ref": "#/definitions/subscribeRequest"}}],
                "responses": {
                    "201": {"description": "stored", "schema": {"$ref": "#/definitions/subscription"}},
                    "400": {"description": "invalid feed url", "schema": {"$ref": "#/definitions/error"}},
                    "409": {"description": "already subscribed", "schema": {"$ref": "#/definitions/error"}}
                }
            }
        },
        "/api/subscriptions/{uuid}": {
            "delete": {
                "summary": "Unsubscribe",
                "security": [{"BearerAuth": []}],
                "parameters": [{"in": "path", "name": "uuid", "type": "string", "required": true}],
                "responses": {"204": {"description": "removed"}, "404": {"description": "not subscribed", "schema": {"$ref": "#/definitions/error"}}}
            }
        }
    },
    "definitions": {
        "error": {"type": "object", "properties": {"error": {"type": "string"}, "message": {"type": "string"}}},
        "credentials": {"type": "object", "required": ["username", "password"], "properties": {"username": {"type": "string"}, "password": {"type": "string"}}},
        "refreshRequest": {"type": "object", "required": ["username", "refreshToken"], "properties": {"username": {"type": "string"}, "refreshToken": {"type": "string"}}},
        "loginResponse": {"type": "object", "properties": {"accessToken": {"type": "string"}, "refreshToken": {"type": "string"}, "expiresIn": {"type": "string"}}},
        "refreshResponse": {"type": "object", "properties": {"accessToken": {"type": "string"}, "expiresIn": {"type": "string"}}},
        "principal": {"type": "object", "properties": {"id": {"type": "integer"}, "stableId": {"type": "string"}, "username": {"type": "string"}, "roles": {"type": "array", "items": {"type": "string"}}}},
        "roles": {"type": "object", "properties": {"roles": {"type": "array", "items": {"type": "string"}}}},
        "subscribeRequest": {"type": "object", "required": ["url"], "properties": {"url": {"type": "string"}, "uuid": {"type": "string"}}},
        "subscription": {"type": "object", "properties": {"uuid": {"type": "string"}, "url": {"type": "string"}, "createdAt": {"type": "string", "format": "date-time"}, "uuidMismatch": {"type": "boolean"}}},
        "feedUUID": {"type": "object", "properties": {"url": {"type": "string"}, "canonical": {"type": "string"}, "uuid": {"type": "string"}}}
    }
}`

// SwaggerInfo holds the exported document metadata.
var SwaggerInfo = &swag.Spec{
	Version:          "1.0.0",
	Host:             "",
	BasePath:         "/",
	Schemes:          []string{},
	Title:            "podsub API",
	Description:      "Accounts, token lifecycle and podcast feed subscriptions.",
	InfoInstanceName: "swagger",
	SwaggerTemplate:  docTemplate,
	LeftDelim:        "{{",
	RightDelim:       "}}",
}

func init() {
	swag.Register(SwaggerInfo.InstanceName(), SwaggerInfo)
}
