// Package docs registers the swagger specification served at /swagger/doc.json.
package docs

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
        "/v1/outreach/campaigns": {
            "get": {
                "produces": ["application/json"],
                "tags": ["campaigns"],
                "summary": "List campaigns for a team",
                "parameters": [
                    {"type": "string", "name": "X-Team-Id", "in": "header", "required": true},
                    {"type": "string", "name": "status", "in": "query"}
                ],
                "responses": {"200": {"description": "OK"}}
            },
            "post": {
                "consumes": ["application/json"],
                "produces": ["application/json"],
                "tags": ["campaigns"],
                "summary": "Create an outreach campaign",
                "parameters": [
                    {"type": "string", "name": "X-Team-Id", "in": "header", "required": true}
                ],
                "responses": {"201": {"description": "Created"}}
            }
        },
        "/v1/outreach/campaigns/{campaign_id}": {
            "get": {
                "produces": ["application/json"],
                "tags": ["campaigns"],
                "summary": "Fetch a campaign",
                "parameters": [
                    {"type": "string", "name": "campaign_id", "in": "path", "required": true}
                ],
                "responses": {"200": {"description": "OK"}}
            }
        },
        "/v1/outreach/campaigns/{campaign_id}/start": {
            "post": {
                "produces": ["application/json"],
                "tags": ["campaigns"],
                "summary": "Start dispatching a campaign",
                "parameters": [
                    {"type": "string", "name": "campaign_id", "in": "path", "required": true}
                ],
                "responses": {"202": {"description": "Accepted"}}
            }
        },
        "/v1/outreach/campaigns/{campaign_id}/pause": {
            "post": {
                "produces": ["application/json"],
                "tags": ["campaigns"],
                "summary": "Pause a running campaign",
                "parameters": [
                    {"type": "string", "name": "campaign_id", "in": "path", "required": true}
                ],
                "responses": {"200": {"description": "OK"}}
            }
        },
        "/v1/outreach/campaigns/{campaign_id}/progress": {
            "get": {
                "produces": ["application/json"],
                "tags": ["campaigns"],
                "summary": "Poll live dispatch progress",
                "parameters": [
                    {"type": "string", "name": "campaign_id", "in": "path", "required": true}
                ],
                "responses": {"200": {"description": "OK"}}
            }
        },
        "/v1/outreach/campaigns/{campaign_id}/results": {
            "get": {
                "produces": ["application/json"],
                "tags": ["campaigns"],
                "summary": "List per-recipient delivery results",
                "parameters": [
                    {"type": "string", "name": "campaign_id", "in": "path", "required": true}
                ],
                "responses": {"200": {"description": "OK"}}
            }
        },
        "/v1/outreach/sessions": {
            "get": {
                "produces": ["application/json"],
                "tags": ["sessions"],
                "summary": "List sending sessions for a team",
                "parameters": [
                    {"type": "string", "name": "X-Team-Id", "in": "header", "required": true},
                    {"type": "boolean", "name": "active", "in": "query"}
                ],
                "responses": {"200": {"description": "OK"}}
            },
            "post": {
                "consumes": ["application/json"],
                "produces": ["application/json"],
                "tags": ["sessions"],
                "summary": "Register a sending session",
                "parameters": [
                    {"type": "string", "name": "X-Team-Id", "in": "header", "required": true}
                ],
                "responses": {"201": {"description": "Created"}}
            }
        },
        "/v1/outreach/sessions/{session_id}/deactivate": {
            "post": {
                "tags": ["sessions"],
                "summary": "Deactivate a sending session",
                "parameters": [
                    {"type": "string", "name": "session_id", "in": "path", "required": true}
                ],
                "responses": {"204": {"description": "No Content"}}
            }
        },
        "/v1/outreach/groups/{group_id}/members": {
            "post": {
                "consumes": ["application/json"],
                "produces": ["application/json"],
                "tags": ["members"],
                "summary": "Import extracted group members",
                "parameters": [
                    {"type": "string", "name": "group_id", "in": "path", "required": true}
                ],
                "responses": {"200": {"description": "OK"}}
            }
        }
    }
}`

var SwaggerInfo = &swag.Spec{
	Version:          "1.0",
	Host:             "",
	BasePath:         "/",
	Schemes:          []string{},
	Title:            "Herald Outreach Dispatch API",
	Description:      "Campaign dispatch engine for Telegram outreach.",
	InfoInstanceName: "swagger",
	SwaggerTemplate:  docTemplate,
}

func init() {
	swag.Register(SwaggerInfo.InstanceName(), SwaggerInfo)
}
