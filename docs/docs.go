// Package docs registers the OpenAPI description served at /swagger.
// Regenerate with: swag init -g cmd/server/main.go -o docs
package docs

import "github.com/swaggo/swag"

const docTemplate = `{
    "schemes": {{ marshal .Schemes }},
    "swagger": "2.0",
    "info": {
        "description": "{{escape .Description}}",
        "title": "{{.Title}}",
        "contact": {},
        "license": {
            "name": "MIT",
            "url": "https://opensource.org/licenses/MIT"
        },
        "version": "{{.Version}}"
    },
    "host": "{{.Host}}",
    "basePath": "{{.BasePath}}",
    "paths": {
        "/": {
            "get": {
                "description": "All posts, newest first. Pages are cached and are not invalidated by writes.",
                "produces": ["application/json"],
                "tags": ["feeds"],
                "summary": "Global feed",
                "parameters": [
                    {"type": "string", "description": "1-based page number; invalid values show page 1", "name": "page", "in": "query"}
                ],
                "responses": {"200": {"description": "OK", "schema": {"$ref": "#/definitions/server.feedResponse"}}}
            }
        },
        "/group/{slug}/": {
            "get": {
                "produces": ["application/json"],
                "tags": ["feeds"],
                "summary": "Group feed",
                "parameters": [
                    {"type": "string", "description": "Group slug", "name": "slug", "in": "path", "required": true},
                    {"type": "string", "description": "Page number", "name": "page", "in": "query"}
                ],
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/server.feedResponse"}},
                    "404": {"description": "Not Found", "schema": {"$ref": "#/definitions/models.ErrorResponse"}}
                }
            }
        },
        "/profile/{username}/": {
            "get": {
                "description": "Posts of one author with their post count and whether the viewer follows them.",
                "produces": ["application/json"],
                "tags": ["feeds"],
                "summary": "Author feed",
                "parameters": [
                    {"type": "string", "description": "Username", "name": "username", "in": "path", "required": true},
                    {"type": "string", "description": "Page number", "name": "page", "in": "query"}
                ],
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/server.feedResponse"}},
                    "404": {"description": "Not Found", "schema": {"$ref": "#/definitions/models.ErrorResponse"}}
                }
            }
        },
        "/profile/{username}/follow/": {
            "get": {
                "description": "Idempotent. Following yourself does nothing.",
                "tags": ["follows"],
                "summary": "Follow an author",
                "parameters": [{"type": "string", "description": "Username", "name": "username", "in": "path", "required": true}],
                "responses": {"302": {"description": "Redirect to the profile"}}
            }
        },
        "/profile/{username}/unfollow/": {
            "get": {
                "description": "Unfollowing an author you do not follow does nothing.",
                "tags": ["follows"],
                "summary": "Unfollow an author",
                "parameters": [{"type": "string", "description": "Username", "name": "username", "in": "path", "required": true}],
                "responses": {"302": {"description": "Redirect to the profile"}}
            }
        },
        "/follow/": {
            "get": {
                "description": "Posts by authors the signed-in user follows.",
                "produces": ["application/json"],
                "tags": ["feeds"],
                "summary": "Follow feed",
                "parameters": [{"type": "string", "description": "Page number", "name": "page", "in": "query"}],
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/server.feedResponse"}},
                    "302": {"description": "Redirect to login"}
                }
            }
        },
        "/posts/{id}/": {
            "get": {
                "produces": ["application/json"],
                "tags": ["posts"],
                "summary": "Post detail",
                "parameters": [{"type": "integer", "description": "Post ID", "name": "id", "in": "path", "required": true}],
                "responses": {
                    "200": {"description": "OK"},
                    "404": {"description": "Not Found", "schema": {"$ref": "#/definitions/models.ErrorResponse"}}
                }
            }
        },
        "/create/": {
            "post": {
                "consumes": ["application/x-www-form-urlencoded", "multipart/form-data"],
                "tags": ["posts"],
                "summary": "Publish a post",
                "parameters": [
                    {"type": "string", "description": "Post text", "name": "text", "in": "formData", "required": true},
                    {"type": "string", "description": "Group ID", "name": "group", "in": "formData"},
                    {"type": "file", "description": "Image", "name": "image", "in": "formData"}
                ],
                "responses": {"302": {"description": "Redirect to the author's profile"}, "400": {"description": "Bad Request"}}
            }
        },
        "/posts/{id}/edit/": {
            "post": {
                "consumes": ["application/x-www-form-urlencoded", "multipart/form-data"],
                "tags": ["posts"],
                "summary": "Update a post",
                "parameters": [
                    {"type": "integer", "description": "Post ID", "name": "id", "in": "path", "required": true},
                    {"type": "string", "description": "Post text", "name": "text", "in": "formData", "required": true},
                    {"type": "string", "description": "Group ID, empty to clear", "name": "group", "in": "formData"},
                    {"type": "file", "description": "Replacement image", "name": "image", "in": "formData"}
                ],
                "responses": {"302": {"description": "Redirect to the post"}, "400": {"description": "Bad Request"}}
            }
        },
        "/posts/{id}/comment/": {
            "post": {
                "consumes": ["application/x-www-form-urlencoded"],
                "tags": ["posts"],
                "summary": "Comment on a post",
                "parameters": [
                    {"type": "integer", "description": "Post ID", "name": "id", "in": "path", "required": true},
                    {"type": "string", "description": "Comment text", "name": "text", "in": "formData", "required": true}
                ],
                "responses": {"302": {"description": "Redirect to the post"}, "400": {"description": "Bad Request"}}
            }
        },
        "/auth/login/": {
            "post": {
                "tags": ["auth"],
                "summary": "Login",
                "responses": {"200": {"description": "OK"}, "401": {"description": "Unauthorized", "schema": {"$ref": "#/definitions/models.ErrorResponse"}}}
            }
        },
        "/auth/signup/": {
            "post": {
                "tags": ["auth"],
                "summary": "User signup",
                "responses": {"201": {"description": "Created"}, "400": {"description": "Bad Request", "schema": {"$ref": "#/definitions/models.ErrorResponse"}}}
            }
        },
        "/admin/cache/clear/": {
            "post": {
                "description": "Drops every cached global feed page. Staff only.",
                "tags": ["admin"],
                "summary": "Clear the listing cache",
                "responses": {"200": {"description": "OK"}, "403": {"description": "Forbidden", "schema": {"$ref": "#/definitions/models.ErrorResponse"}}}
            }
        }
    },
    "definitions": {
        "models.ErrorResponse": {
            "type": "object",
            "properties": {
                "code": {"type": "string"},
                "details": {"type": "string"},
                "error": {"type": "string"},
                "fields": {"type": "object", "additionalProperties": {"type": "string"}}
            }
        },
        "server.feedResponse": {
            "type": "object",
            "properties": {
                "kind": {"type": "string"},
                "group": {"type": "object"},
                "author": {"type": "object"},
                "post_count": {"type": "integer"},
                "following": {"type": "boolean"},
                "page": {
                    "type": "object",
                    "properties": {
                        "items": {"type": "array", "items": {"type": "object"}},
                        "number": {"type": "integer"},
                        "total_pages": {"type": "integer"},
                        "page_size": {"type": "integer"},
                        "total_items": {"type": "integer"},
                        "has_next": {"type": "boolean"},
                        "has_previous": {"type": "boolean"}
                    }
                }
            }
        }
    }
}`

// SwaggerInfo holds exported Swagger Info so clients can modify it
var SwaggerInfo = &swag.Spec{
	Version:          "1.0",
	Host:             "localhost:8000",
	BasePath:         "/",
	Schemes:          []string{"http", "https"},
	Title:            "yatube API",
	Description:      "Blog feeds, posts, comments and follows",
	InfoInstanceName: "swagger",
	SwaggerTemplate:  docTemplate,
	LeftDelim:        "{{",
	RightDelim:       "}}",
}

func init() {
	swag.Register(SwaggerInfo.InstanceName(), SwaggerInfo)
}
