// Package docs holds the OpenAPI document served under /swagger.
// Regenerate with `swag init -g main.go` after changing controller annotations.
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
        "/v1/rentals": {
            "post": {
                "security": [{"BearerAuth": []}],
                "description": "Rents an idle bike, or queues the caller when it is already rented",
                "consumes": ["application/json"],
                "produces": ["application/json"],
                "tags": ["rentals"],
                "summary": "Rent a bike or join its waiting list",
                "parameters": [
                    {"description": "Rent payload", "name": "payload", "in": "body", "required": true, "schema": {"$ref": "#/definitions/rental.RentReq"}}
                ],
                "responses": {
                    "201": {"description": "rented", "schema": {"$ref": "#/definitions/rentalsvc.RentResult"}},
                    "202": {"description": "waitlisted", "schema": {"$ref": "#/definitions/rentalsvc.RentResult"}},
                    "400": {"description": "Bad Request", "schema": {"type": "object", "additionalProperties": {}}},
                    "401": {"description": "Unauthorized", "schema": {"type": "object", "additionalProperties": {}}},
                    "404": {"description": "Not Found", "schema": {"type": "object", "additionalProperties": {}}},
                    "409": {"description": "already waiting or concurrent update", "schema": {"type": "object", "additionalProperties": {}}}
                }
            }
        },
        "/v1/rentals/my": {
            "get": {
                "security": [{"BearerAuth": []}],
                "produces": ["application/json"],
                "tags": ["rentals"],
                "summary": "My rentals",
                "responses": {
                    "200": {"description": "OK", "schema": {"type": "object", "additionalProperties": {}}}
                }
            }
        },
        "/v1/rentals/{id}/return": {
            "post": {
                "security": [{"BearerAuth": []}],
                "description": "Closes the rental, records a note and hands the bike to the first waiting customer",
                "consumes": ["application/json"],
                "produces": ["application/json"],
                "tags": ["rentals"],
                "summary": "Return a rented bike",
                "parameters": [
                    {"type": "integer", "description": "Rental ID", "name": "id", "in": "path", "required": true},
                    {"description": "Return payload", "name": "payload", "in": "body", "required": true, "schema": {"$ref": "#/definitions/rental.ReturnReq"}}
                ],
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/rentalsvc.ReturnResult"}}
                }
            }
        },
        "/v1/rentals/{id}/payments": {
            "get": {
                "security": [{"BearerAuth": []}],
                "produces": ["application/json"],
                "tags": ["payments"],
                "summary": "Payments of a rental",
                "parameters": [
                    {"type": "integer", "description": "Rental ID", "name": "id", "in": "path", "required": true}
                ],
                "responses": {
                    "200": {"description": "OK", "schema": {"type": "object", "additionalProperties": {}}}
                }
            },
            "post": {
                "security": [{"BearerAuth": []}],
                "description": "Converts the amount to EUR, authorizes and captures it with the card processor",
                "consumes": ["application/json"],
                "produces": ["application/json"],
                "tags": ["payments"],
                "summary": "Pay for a rental",
                "parameters": [
                    {"type": "integer", "description": "Rental ID", "name": "id", "in": "path", "required": true},
                    {"description": "Payment payload", "name": "payload", "in": "body", "required": true, "schema": {"$ref": "#/definitions/payment.PayReq"}}
                ],
                "responses": {
                    "201": {"description": "recorded, whatever its status", "schema": {"$ref": "#/definitions/model.RentalPayment"}},
                    "502": {"description": "FX or card processor unavailable", "schema": {"type": "object", "additionalProperties": {}}}
                }
            }
        },
        "/v1/notifications/my": {
            "get": {
                "security": [{"BearerAuth": []}],
                "produces": ["application/json"],
                "tags": ["notifications"],
                "summary": "My notifications",
                "responses": {
                    "200": {"description": "OK", "schema": {"type": "object", "additionalProperties": {}}}
                }
            }
        },
        "/v1/waitlist/my": {
            "get": {
                "security": [{"BearerAuth": []}],
                "produces": ["application/json"],
                "tags": ["waitlist"],
                "summary": "My open waiting-list entries",
                "responses": {
                    "200": {"description": "OK", "schema": {"type": "object", "additionalProperties": {}}}
                }
            }
        },
        "/v1/waitlist/{id}": {
            "delete": {
                "security": [{"BearerAuth": []}],
                "tags": ["waitlist"],
                "summary": "Leave a waiting list",
                "parameters": [
                    {"type": "integer", "description": "Entry ID", "name": "id", "in": "path", "required": true}
                ],
                "responses": {
                    "204": {"description": "No Content"}
                }
            }
        }
    },
    "definitions": {
        "rental.RentReq": {
            "type": "object",
            "required": ["bike_id", "days"],
            "properties": {
                "bike_id": {"type": "integer"},
                "days": {"type": "integer", "maximum": 365, "minimum": 1}
            }
        },
        "rental.ReturnReq": {
            "type": "object",
            "required": ["condition"],
            "properties": {
                "comment": {"type": "string", "maxLength": 2000},
                "condition": {"type": "string", "maxLength": 255}
            }
        },
        "payment.PayReq": {
            "type": "object",
            "required": ["currency", "payment_method_id"],
            "properties": {
                "amount": {"type": "string", "example": "12.50"},
                "currency": {"type": "string", "example": "USD"},
                "payment_method_id": {"type": "string", "maxLength": 255}
            }
        },
        "rentalsvc.RentResult": {
            "type": "object",
            "properties": {
                "result": {"type": "string", "enum": ["RENTED", "WAITLISTED"]},
                "rental": {"type": "object"},
                "entry": {"type": "object"}
            }
        },
        "rentalsvc.ReturnResult": {
            "type": "object",
            "properties": {
                "closed_rental": {"type": "object"},
                "next_rental": {"type": "object"},
                "notification": {"type": "object"}
            }
        },
        "model.RentalPayment": {
            "type": "object",
            "properties": {
                "id": {"type": "integer"},
                "rental_id": {"type": "integer"},
                "original_amount": {"type": "string"},
                "original_currency": {"type": "string"},
                "fx_rate_to_eur": {"type": "string", "x-nullable": true},
                "amount_eur": {"type": "string", "x-nullable": true},
                "created_at": {"type": "string", "format": "date-time"},
                "paid_at": {"type": "string", "format": "date-time"},
                "authorization_id": {"type": "string"},
                "payment_id": {"type": "string"},
                "status": {"type": "string", "enum": ["AUTHORIZED", "REQUIRES_ACTION", "FAILED", "PAID"]},
                "failure_reason": {"type": "string"}
            }
        }
    },
    "securityDefinitions": {
        "BearerAuth": {
            "description": "Use:  Bearer <JWT>",
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
	BasePath:         "/",
	Schemes:          []string{"http"},
	Title:            "Bike Rental API",
	Description:      "Bike rentals with FIFO waiting lists and card payments.",
	InfoInstanceName: "swagger",
	SwaggerTemplate:  docTemplate,
	LeftDelim:        "{{",
	RightDelim:       "}}",
}

func init() {
	swag.Register(SwaggerInfo.InstanceName(), SwaggerInfo)
}
