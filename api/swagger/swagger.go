package swagger

import "github.com/swaggo/swag"

const docTemplate = `{
    "swagger": "2.0",
    "info": {
        "title": "GymMate API",
        "description": "Gym time-slot queueing and booking allocation",
        "version": "1.0.0"
    },
    "basePath": "/",
    "schemes": [
        "http"
    ],
    "tags": [
        {"name": "Queues", "description": "Waiting queue admission"},
        {"name": "Allocations", "description": "Allocation runs, statuses, and delivery"},
        {"name": "Schedules", "description": "Gym days and time slots"},
        {"name": "Bookings", "description": "Committed bookings and attendance"},
        {"name": "Students", "description": "Member management"},
        {"name": "Notifications", "description": "Outcome notifications"},
        {"name": "Receipts", "description": "Acknowledgement receipts"},
        {"name": "Auth", "description": "Admin authentication"}
    ],
    "paths": {
        "/health": {
            "get": {
                "summary": "Health check",
                "responses": {
                    "200": {"description": "OK"}
                }
            }
        },
        "/ready": {
            "get": {
                "summary": "Readiness check",
                "responses": {
                    "200": {"description": "Ready"}
                }
            }
        },
        "/api/v1/queues": {
            "post": {
                "tags": ["Queues"],
                "summary": "Join the waiting queue for a time slot",
                "parameters": [
                    {"name": "payload", "in": "body", "required": true, "schema": {"$ref": "#/definitions/EnqueueRequest"}}
                ],
                "responses": {
                    "201": {"description": "Queued", "schema": {"$ref": "#/definitions/ResponseEnvelope"}},
                    "400": {"description": "Validation error"},
                    "409": {"description": "Already booked or queued"}
                }
            }
        },
        "/api/v1/allocations/run": {
            "post": {
                "tags": ["Allocations"],
                "summary": "Run allocation over all waiting queues",
                "security": [{"BearerAuth": []}],
                "responses": {
                    "200": {"description": "Run summary", "schema": {"$ref": "#/definitions/ResponseEnvelope"}}
                }
            }
        },
        "/api/v1/allocations/status/{studentId}": {
            "get": {
                "tags": ["Allocations"],
                "summary": "Get a student's current allocation status",
                "parameters": [
                    {"name": "studentId", "in": "path", "required": true, "type": "string"}
                ],
                "responses": {
                    "200": {"description": "Status", "schema": {"$ref": "#/definitions/ResponseEnvelope"}},
                    "404": {"description": "No status recorded"}
                }
            }
        },
        "/api/v1/allocations/notify": {
            "post": {
                "tags": ["Allocations"],
                "summary": "Deliver the notification for a student's stored allocation outcome",
                "parameters": [
                    {"name": "payload", "in": "body", "required": true, "schema": {"$ref": "#/definitions/NotifyRequest"}}
                ],
                "responses": {
                    "200": {"description": "Delivery result", "schema": {"$ref": "#/definitions/ResponseEnvelope"}}
                }
            }
        },
        "/api/v1/schedules/{date}": {
            "get": {
                "tags": ["Schedules"],
                "summary": "Get the schedule for one day",
                "parameters": [
                    {"name": "date", "in": "path", "required": true, "type": "string"}
                ],
                "responses": {
                    "200": {"description": "Schedule with slots", "schema": {"$ref": "#/definitions/ResponseEnvelope"}}
                }
            }
        },
        "/api/v1/bookings": {
            "get": {
                "tags": ["Bookings"],
                "summary": "List bookings for one day",
                "parameters": [
                    {"name": "date", "in": "query", "required": true, "type": "string"}
                ],
                "responses": {
                    "200": {"description": "Bookings", "schema": {"$ref": "#/definitions/ResponseEnvelope"}}
                }
            }
        },
        "/api/v1/students/{studentId}/notifications": {
            "get": {
                "tags": ["Notifications"],
                "summary": "List a student's notifications",
                "parameters": [
                    {"name": "studentId", "in": "path", "required": true, "type": "string"},
                    {"name": "unread", "in": "query", "type": "boolean"}
                ],
                "responses": {
                    "200": {"description": "Notifications", "schema": {"$ref": "#/definitions/ResponseEnvelope"}}
                }
            }
        },
        "/api/v1/auth/login": {
            "post": {
                "tags": ["Auth"],
                "summary": "Admin login",
                "parameters": [
                    {"name": "payload", "in": "body", "required": true, "schema": {"$ref": "#/definitions/LoginRequest"}}
                ],
                "responses": {
                    "200": {"description": "Access token", "schema": {"$ref": "#/definitions/ResponseEnvelope"}},
                    "401": {"description": "Invalid credentials"}
                }
            }
        }
    },
    "securityDefinitions": {
        "BearerAuth": {
            "type": "apiKey",
            "name": "Authorization",
            "in": "header"
        }
    },
    "definitions": {
        "EnqueueRequest": {
            "type": "object",
            "required": ["student_id", "receipt_id", "date", "start_time", "end_time"],
            "properties": {
                "student_id": {"type": "string"},
                "receipt_id": {"type": "string"},
                "date": {"type": "string", "example": "2024-11-04"},
                "start_time": {"type": "string", "example": "08:00"},
                "end_time": {"type": "string", "example": "09:00"}
            }
        },
        "NotifyRequest": {
            "type": "object",
            "required": ["student_id"],
            "properties": {
                "student_id": {"type": "string"},
                "booking_id": {"type": "string"}
            }
        },
        "LoginRequest": {
            "type": "object",
            "required": ["email", "password"],
            "properties": {
                "email": {"type": "string"},
                "password": {"type": "string"}
            }
        },
        "Pagination": {
            "type": "object",
            "properties": {
                "page": {"type": "integer"},
                "page_size": {"type": "integer"},
                "total_count": {"type": "integer"}
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
                "pagination": {"$ref": "#/definitions/Pagination"},
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
