package swagger

import "github.com/swaggo/swag"

const docTemplate = `{
    "swagger": "2.0",
    "info": {
        "title": "ProCESO API",
        "description": "Community extension activities, faculty assignments and notifications",
        "version": "1.0.0"
    },
    "basePath": "/api",
    "schemes": [
        "http",
        "https"
    ],
    "securityDefinitions": {
        "BearerAuth": {"type": "apiKey", "name": "Authorization", "in": "header"}
    },
    "tags": [
        {"name": "Feed", "description": "Calendar feeds, cached at the edge"},
        {"name": "Activities", "description": "Activity management"},
        {"name": "Assignments", "description": "Faculty nomination, RSVP and volunteer requests"},
        {"name": "Notifications", "description": "Job gated email dispatch"},
        {"name": "Certificates", "description": "Certificate issuance and verification"},
        {"name": "Jobs", "description": "Background run status"}
    ],
    "paths": {
        "/activities/feed": {
            "get": {
                "tags": ["Feed"],
                "summary": "Activity calendar feed",
                "parameters": [
                    {"name": "start", "in": "query", "type": "string"},
                    {"name": "end", "in": "query", "type": "string"}
                ],
                "responses": {
                    "200": {"description": "OK", "schema": {"type": "array", "items": {"$ref": "#/definitions/FeedItem"}}},
                    "400": {"description": "Invalid bounds", "schema": {"$ref": "#/definitions/ResponseEnvelope"}}
                }
            }
        },
        "/events/feed": {
            "get": {
                "tags": ["Feed"],
                "summary": "Legacy event calendar feed",
                "parameters": [
                    {"name": "start", "in": "query", "type": "string"},
                    {"name": "end", "in": "query", "type": "string"}
                ],
                "responses": {
                    "200": {"description": "OK", "schema": {"type": "array", "items": {"$ref": "#/definitions/FeedItem"}}},
                    "400": {"description": "Invalid bounds", "schema": {"$ref": "#/definitions/ResponseEnvelope"}}
                }
            }
        },
        "/notifications/{kind}": {
            "post": {
                "tags": ["Notifications"],
                "summary": "Send a job triggered notice",
                "security": [{"BearerAuth": []}],
                "parameters": [
                    {"name": "kind", "in": "path", "required": true, "type": "string", "enum": ["nomination", "request", "unassigned", "activity"]},
                    {"name": "payload", "in": "body", "required": true, "schema": {"$ref": "#/definitions/RunNotificationRequest"}}
                ],
                "responses": {
                    "200": {"description": "Sent", "schema": {"$ref": "#/definitions/ResponseEnvelope"}},
                    "409": {"description": "Job run is not executing", "schema": {"$ref": "#/definitions/ResponseEnvelope"}},
                    "502": {"description": "Provider refused the batch", "schema": {"$ref": "#/definitions/ResponseEnvelope"}}
                }
            }
        },
        "/certificates/send": {
            "post": {
                "tags": ["Certificates"],
                "summary": "Email certificates",
                "security": [{"BearerAuth": []}],
                "responses": {
                    "200": {"description": "Sent, with any refused recipients listed", "schema": {"$ref": "#/definitions/ResponseEnvelope"}},
                    "409": {"description": "Job run is not executing", "schema": {"$ref": "#/definitions/ResponseEnvelope"}}
                }
            }
        },
        "/jobs/{runId}": {
            "get": {
                "tags": ["Jobs"],
                "summary": "Job run status",
                "security": [{"BearerAuth": []}],
                "parameters": [
                    {"name": "runId", "in": "path", "required": true, "type": "string"}
                ],
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/ResponseEnvelope"}},
                    "404": {"description": "Unknown run", "schema": {"$ref": "#/definitions/ResponseEnvelope"}}
                }
            }
        }
    },
    "definitions": {
        "FeedItem": {
            "type": "object",
            "properties": {
                "id": {"type": "string"},
                "title": {"type": "string"},
                "start": {"type": "string"},
                "end": {"type": "string"},
                "color": {"type": "string"},
                "description": {"type": "string"},
                "url": {"type": "string"},
                "allDay": {"type": "boolean"}
            }
        },
        "ActivityRef": {
            "type": "object",
            "required": ["id", "title"],
            "properties": {
                "id": {"type": "string"},
                "title": {"type": "string"},
                "date_starting": {"type": "string", "format": "date-time"},
                "date_ending": {"type": "string", "format": "date-time"}
            }
        },
        "RunNotificationRequest": {
            "type": "object",
            "required": ["runId", "emails"],
            "properties": {
                "runId": {"type": "string"},
                "activity": {"$ref": "#/definitions/ActivityRef"},
                "event": {"$ref": "#/definitions/ActivityRef"},
                "emails": {"type": "array", "items": {"type": "string", "format": "email"}}
            }
        },
        "APIError": {
            "type": "object",
            "properties": {
                "code": {"type": "string"},
                "message": {"type": "string"},
                "status": {"type": "integer"}
            }
        },
        "ResponseEnvelope": {
            "type": "object",
            "properties": {
                "data": {"type": "object"},
                "error": {"$ref": "#/definitions/APIError"},
                "meta": {"type": "object"}
            }
        }
    }
}`

type swaggerDoc struct{}

// ReadDoc returns the Swagger document.
func (s *swaggerDoc) ReadDoc() string {
	return docTemplate
}

func init() {
	swag.Register(swag.Name, &swaggerDoc{})
}
