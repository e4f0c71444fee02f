// Copyright (C) 2019-2025, Lux Industries Inc All rights reserved.
// See the file LICENSE for licensing terms.

// Package docs registers the swagger document for the validation API.
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
        "/api/fhe": {
            "get": {
                "produces": ["application/json"],
                "summary": "List FHE endpoints",
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/api.InfoResponse"}}
                }
            },
            "post": {
                "consumes": ["application/json"],
                "produces": ["application/json"],
                "summary": "Initialize or verify the session",
                "parameters": [
                    {
                        "description": "operation is init or verify",
                        "name": "request",
                        "in": "body",
                        "required": true,
                        "schema": {"$ref": "#/definitions/api.OperationRequest"}
                    }
                ],
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/api.OperationResponse"}},
                    "400": {"description": "Bad Request", "schema": {"$ref": "#/definitions/api.ErrorResponse"}},
                    "500": {"description": "Internal Server Error", "schema": {"$ref": "#/definitions/api.ErrorResponse"}}
                }
            }
        },
        "/api/fhe/encrypt": {
            "get": {
                "produces": ["application/json"],
                "summary": "Describe the encryption endpoint",
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/api.EndpointResponse"}}
                }
            },
            "post": {
                "consumes": ["application/json"],
                "produces": ["application/json"],
                "summary": "Validate an encryption request",
                "parameters": [
                    {
                        "description": "type defaults to euint32",
                        "name": "request",
                        "in": "body",
                        "required": true,
                        "schema": {"$ref": "#/definitions/api.EncryptRequest"}
                    }
                ],
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/api.ValidatedResponse"}},
                    "400": {"description": "Bad Request", "schema": {"$ref": "#/definitions/api.ErrorResponse"}}
                }
            }
        },
        "/api/fhe/decrypt": {
            "get": {
                "produces": ["application/json"],
                "summary": "Describe the decryption endpoint",
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/api.EndpointResponse"}}
                }
            },
            "post": {
                "consumes": ["application/json"],
                "produces": ["application/json"],
                "summary": "Validate a decryption request",
                "parameters": [
                    {
                        "description": "ciphertext handle and contract",
                        "name": "request",
                        "in": "body",
                        "required": true,
                        "schema": {"$ref": "#/definitions/api.DecryptRequest"}
                    }
                ],
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/api.ValidatedResponse"}},
                    "400": {"description": "Bad Request", "schema": {"$ref": "#/definitions/api.ErrorResponse"}}
                }
            }
        },
        "/api/fhe/compute": {
            "get": {
                "produces": ["application/json"],
                "summary": "Describe the computation endpoint",
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/api.EndpointResponse"}}
                }
            },
            "post": {
                "consumes": ["application/json"],
                "produces": ["application/json"],
                "summary": "Validate a computation request",
                "parameters": [
                    {
                        "description": "operation and operands",
                        "name": "request",
                        "in": "body",
                        "required": true,
                        "schema": {"$ref": "#/definitions/api.ComputeRequest"}
                    }
                ],
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/api.ValidatedResponse"}},
                    "400": {"description": "Bad Request", "schema": {"$ref": "#/definitions/api.ErrorResponse"}}
                }
            }
        },
        "/api/oplog": {
            "get": {
                "produces": ["application/json"],
                "summary": "List recent operations",
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/api.OpLogResponse"}}
                }
            }
        },
        "/api/keys": {
            "get": {
                "produces": ["application/json"],
                "summary": "Report public key availability",
                "parameters": [
                    {
                        "type": "string",
                        "description": "network name, defaults to the server's",
                        "name": "network",
                        "in": "query"
                    }
                ],
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/api.KeysResponse"}},
                    "400": {"description": "Bad Request", "schema": {"$ref": "#/definitions/api.ErrorResponse"}}
                }
            },
            "post": {
                "consumes": ["application/json"],
                "produces": ["application/json"],
                "summary": "Refresh or validate the public key",
                "parameters": [
                    {
                        "description": "action is refresh or validate",
                        "name": "request",
                        "in": "body",
                        "required": true,
                        "schema": {"$ref": "#/definitions/api.KeysRequest"}
                    }
                ],
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/api.KeysActionResponse"}},
                    "400": {"description": "Bad Request", "schema": {"$ref": "#/definitions/api.ErrorResponse"}},
                    "500": {"description": "Internal Server Error", "schema": {"$ref": "#/definitions/api.ErrorResponse"}}
                }
            }
        }
    },
    "definitions": {
        "api.ErrorResponse": {
            "type": "object",
            "properties": {"error": {"type": "string"}}
        },
        "api.InfoResponse": {
            "type": "object",
            "properties": {
                "status": {"type": "string"},
                "message": {"type": "string"},
                "endpoints": {"type": "array", "items": {"type": "string"}}
            }
        },
        "api.EndpointResponse": {
            "type": "object",
            "properties": {
                "endpoint": {"type": "string"},
                "description": {"type": "string"},
                "method": {"type": "string"},
                "supportedTypes": {"type": "array", "items": {"type": "string"}},
                "supportedOperations": {"type": "array", "items": {"type": "string"}}
            }
        },
        "api.OperationRequest": {
            "type": "object",
            "properties": {
                "operation": {"type": "string"},
                "data": {"type": "object"}
            }
        },
        "api.OperationResponse": {
            "type": "object",
            "properties": {
                "success": {"type": "boolean"},
                "message": {"type": "string"},
                "isValid": {"type": "boolean"}
            }
        },
        "api.EncryptRequest": {
            "type": "object",
            "properties": {
                "value": {},
                "type": {"type": "string"}
            }
        },
        "api.DecryptRequest": {
            "type": "object",
            "properties": {
                "ciphertext": {},
                "contractAddress": {"type": "string"},
                "signature": {"type": "string"}
            }
        },
        "api.ComputeRequest": {
            "type": "object",
            "properties": {
                "operation": {"type": "string"},
                "operands": {"type": "array", "items": {}},
                "contractAddress": {"type": "string"}
            }
        },
        "api.ValidatedResponse": {
            "type": "object",
            "properties": {
                "success": {"type": "boolean"},
                "message": {"type": "string"},
                "type": {"type": "string"},
                "operation": {"type": "string"},
                "operandCount": {"type": "integer"},
                "timestamp": {"type": "integer"}
            }
        },
        "api.KeyAvailability": {
            "type": "object",
            "properties": {
                "available": {"type": "boolean"},
                "timestamp": {"type": "integer"}
            }
        },
        "api.KeysResponse": {
            "type": "object",
            "properties": {
                "success": {"type": "boolean"},
                "network": {"type": "string"},
                "publicKey": {"$ref": "#/definitions/api.KeyAvailability"},
                "message": {"type": "string"}
            }
        },
        "api.KeysRequest": {
            "type": "object",
            "properties": {"action": {"type": "string"}}
        },
        "api.KeysActionResponse": {
            "type": "object",
            "properties": {
                "success": {"type": "boolean"},
                "message": {"type": "string"},
                "valid": {"type": "boolean"}
            }
        },
        "api.OpLogResponse": {
            "type": "object",
            "properties": {
                "entries": {
                    "type": "array",
                    "items": {"$ref": "#/definitions/binding.Entry"}
                }
            }
        },
        "binding.Entry": {
            "type": "object",
            "properties": {
                "id": {"type": "string"},
                "kind": {"type": "string"},
                "inputSummary": {"type": "string"},
                "started": {"type": "string"},
                "duration": {"type": "integer"},
                "success": {"type": "boolean"},
                "error": {"type": "string"}
            }
        }
    }
}`

// SwaggerInfo holds exported Swagger Info so clients can modify it
var SwaggerInfo = &swag.Spec{
	Version:          "1.0",
	Host:             "",
	BasePath:         "/",
	Schemes:          []string{},
	Title:            "FHEVM validation API",
	Description:      "Validates FHEVM encryption, decryption and computation requests.",
	InfoInstanceName: "swagger",
	SwaggerTemplate:  docTemplate,
	LeftDelim:        "{{",
	RightDelim:       "}}",
}

func init() {
	swag.Register(SwaggerInfo.InstanceName(), SwaggerInfo)
}
