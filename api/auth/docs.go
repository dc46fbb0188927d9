// Package auth holds the OpenAPI description served at /swagger/.
//
// Regenerate with: swag init -g internal/auth/http/router.go -o api/auth
package auth

import "github.com/swaggo/swag"

const docTemplate = `{
	"schemes": {{ marshal .Schemes }},
	"swagger": "2.0",
	"info": {
		"description": "{{escape .Description}}",
		"title": "{{.Title}}",
		"contact": {
			"name": "ChefStream Team",
			"url": "https://github.com/chefstream/auth"
		},
		"license": {
			"name": "MIT",
			"url": "https://opensource.org/licenses/MIT"
		},
		"version": "{{.Version}}"
	},
	"host": "{{.Host}}",
	"basePath": "{{.BasePath}}",
	"paths": {
		"/v1/auth/register": {
			"post": {
				"tags": [
					"Auth"
				],
				"summary": "Register a local account",
				"produces": [
					"application/json"
				],
				"responses": {
					"201": {
						"description": "OK",
						"schema": {
							"$ref": "#/definitions/authsdk.UserResponse"
						}
					},
					"400": {
						"description": "Error",
						"schema": {
							"$ref": "#/definitions/authsdk.ErrorResponse"
						}
					},
					"429": {
						"description": "Error",
						"schema": {
							"$ref": "#/definitions/authsdk.ErrorResponse"
						}
					}
				},
				"parameters": [
					{
						"in": "body",
						"name": "request",
						"required": true,
						"schema": {
							"$ref": "#/definitions/authsdk.RegisterRequest"
						}
					}
				]
			}
		},
		"/v1/auth/token": {
			"post": {
				"tags": [
					"Auth"
				],
				"summary": "Password login",
				"produces": [
					"application/json"
				],
				"responses": {
					"200": {
						"description": "OK",
						"schema": {
							"$ref": "#/definitions/authsdk.TokenResponse"
						}
					},
					"400": {
						"description": "Error",
						"schema": {
							"$ref": "#/definitions/authsdk.ErrorResponse"
						}
					},
					"401": {
						"description": "Error",
						"schema": {
							"$ref": "#/definitions/authsdk.ErrorResponse"
						}
					},
					"429": {
						"description": "Error",
						"schema": {
							"$ref": "#/definitions/authsdk.ErrorResponse"
						}
					}
				},
				"parameters": [
					{
						"in": "body",
						"name": "request",
						"required": true,
						"schema": {
							"$ref": "#/definitions/authsdk.LoginRequest"
						}
					}
				]
			}
		},
		"/v1/auth/verify-2fa": {
			"post": {
				"tags": [
					"Auth"
				],
				"summary": "Complete a 2FA login",
				"produces": [
					"application/json"
				],
				"responses": {
					"200": {
						"description": "OK",
						"schema": {
							"$ref": "#/definitions/authsdk.TokenResponse"
						}
					},
					"400": {
						"description": "Error",
						"schema": {
							"$ref": "#/definitions/authsdk.ErrorResponse"
						}
					},
					"429": {
						"description": "Error",
						"schema": {
							"$ref": "#/definitions/authsdk.ErrorResponse"
						}
					}
				},
				"parameters": [
					{
						"in": "body",
						"name": "request",
						"required": true,
						"schema": {
							"$ref": "#/definitions/authsdk.VerifyTwoFactorRequest"
						}
					}
				]
			}
		},
		"/v1/auth/logout": {
			"post": {
				"tags": [
					"Auth"
				],
				"summary": "Log out",
				"produces": [
					"application/json"
				],
				"responses": {
					"200": {
						"description": "OK",
						"schema": {
							"$ref": "#/definitions/authsdk.StatusResponse"
						}
					}
				}
			}
		},
		"/v1/auth/me": {
			"get": {
				"tags": [
					"Auth"
				],
				"summary": "Current user",
				"produces": [
					"application/json"
				],
				"responses": {
					"200": {
						"description": "OK",
						"schema": {
							"$ref": "#/definitions/authsdk.UserResponse"
						}
					},
					"401": {
						"description": "Error",
						"schema": {
							"$ref": "#/definitions/authsdk.ErrorResponse"
						}
					}
				},
				"security": [
					{
						"BearerAuth": []
					}
				]
			}
		},
		"/v1/auth/google/login": {
			"get": {
				"tags": [
					"Auth"
				],
				"summary": "Start Google sign-in",
				"produces": [
					"application/json"
				],
				"responses": {
					"307": {
						"description": "Redirect"
					},
					"400": {
						"description": "Error",
						"schema": {
							"$ref": "#/definitions/authsdk.ErrorResponse"
						}
					}
				}
			}
		},
		"/v1/auth/google/callback": {
			"get": {
				"tags": [
					"Auth"
				],
				"summary": "Finish Google sign-in",
				"produces": [
					"application/json"
				],
				"responses": {
					"307": {
						"description": "Redirect"
					},
					"400": {
						"description": "Error",
						"schema": {
							"$ref": "#/definitions/authsdk.ErrorResponse"
						}
					}
				},
				"parameters": [
					{
						"in": "query",
						"name": "code",
						"type": "string",
						"required": true
					},
					{
						"in": "query",
						"name": "state",
						"type": "string",
						"required": true
					}
				]
			}
		},
		"/v1/security/sessions": {
			"get": {
				"tags": [
					"Security"
				],
				"summary": "List active sessions",
				"produces": [
					"application/json"
				],
				"responses": {
					"200": {
						"description": "OK",
						"schema": {
							"type": "array",
							"items": {
								"$ref": "#/definitions/authsdk.SessionResponse"
							}
						}
					},
					"401": {
						"description": "Error",
						"schema": {
							"$ref": "#/definitions/authsdk.ErrorResponse"
						}
					}
				},
				"security": [
					{
						"BearerAuth": []
					}
				]
			}
		},
		"/v1/security/sessions/{id}/revoke": {
			"post": {
				"tags": [
					"Security"
				],
				"summary": "Revoke a session",
				"produces": [
					"application/json"
				],
				"responses": {
					"200": {
						"description": "OK",
						"schema": {
							"$ref": "#/definitions/authsdk.StatusResponse"
						}
					},
					"401": {
						"description": "Error",
						"schema": {
							"$ref": "#/definitions/authsdk.ErrorResponse"
						}
					},
					"404": {
						"description": "Error",
						"schema": {
							"$ref": "#/definitions/authsdk.ErrorResponse"
						}
					}
				},
				"security": [
					{
						"BearerAuth": []
					}
				],
				"parameters": [
					{
						"in": "path",
						"name": "id",
						"type": "string",
						"required": true
					}
				]
			}
		},
		"/v1/security/sessions/revoke-others": {
			"post": {
				"tags": [
					"Security"
				],
				"summary": "Sign out everywhere else",
				"produces": [
					"application/json"
				],
				"responses": {
					"200": {
						"description": "OK",
						"schema": {
							"$ref": "#/definitions/authsdk.RevokeOthersResponse"
						}
					},
					"401": {
						"description": "Error",
						"schema": {
							"$ref": "#/definitions/authsdk.ErrorResponse"
						}
					}
				},
				"security": [
					{
						"BearerAuth": []
					}
				]
			}
		},
		"/v1/security/2fa/setup": {
			"post": {
				"tags": [
					"Two-factor"
				],
				"summary": "Start TOTP enrolment",
				"produces": [
					"application/json"
				],
				"responses": {
					"200": {
						"description": "OK",
						"schema": {
							"$ref": "#/definitions/authsdk.TwoFactorSetupResponse"
						}
					},
					"400": {
						"description": "Error",
						"schema": {
							"$ref": "#/definitions/authsdk.ErrorResponse"
						}
					},
					"401": {
						"description": "Error",
						"schema": {
							"$ref": "#/definitions/authsdk.ErrorResponse"
						}
					}
				},
				"security": [
					{
						"BearerAuth": []
					}
				]
			}
		},
		"/v1/security/2fa/enable": {
			"post": {
				"tags": [
					"Two-factor"
				],
				"summary": "Confirm TOTP enrolment",
				"produces": [
					"application/json"
				],
				"responses": {
					"200": {
						"description": "OK",
						"schema": {
							"$ref": "#/definitions/authsdk.BackupCodesResponse"
						}
					},
					"400": {
						"description": "Error",
						"schema": {
							"$ref": "#/definitions/authsdk.ErrorResponse"
						}
					},
					"401": {
						"description": "Error",
						"schema": {
							"$ref": "#/definitions/authsdk.ErrorResponse"
						}
					}
				},
				"security": [
					{
						"BearerAuth": []
					}
				],
				"parameters": [
					{
						"in": "body",
						"name": "request",
						"required": true,
						"schema": {
							"$ref": "#/definitions/authsdk.EnableTwoFactorRequest"
						}
					}
				]
			}
		},
		"/v1/security/2fa/disable": {
			"post": {
				"tags": [
					"Two-factor"
				],
				"summary": "Turn off 2FA",
				"produces": [
					"application/json"
				],
				"responses": {
					"200": {
						"description": "OK",
						"schema": {
							"$ref": "#/definitions/authsdk.StatusResponse"
						}
					},
					"400": {
						"description": "Error",
						"schema": {
							"$ref": "#/definitions/authsdk.ErrorResponse"
						}
					},
					"401": {
						"description": "Error",
						"schema": {
							"$ref": "#/definitions/authsdk.ErrorResponse"
						}
					}
				},
				"security": [
					{
						"BearerAuth": []
					}
				]
			}
		},
		"/v1/security/2fa/backup-codes": {
			"post": {
				"tags": [
					"Two-factor"
				],
				"summary": "Regenerate backup codes",
				"produces": [
					"application/json"
				],
				"responses": {
					"200": {
						"description": "OK",
						"schema": {
							"$ref": "#/definitions/authsdk.BackupCodesResponse"
						}
					},
					"400": {
						"description": "Error",
						"schema": {
							"$ref": "#/definitions/authsdk.ErrorResponse"
						}
					},
					"401": {
						"description": "Error",
						"schema": {
							"$ref": "#/definitions/authsdk.ErrorResponse"
						}
					}
				},
				"security": [
					{
						"BearerAuth": []
					}
				],
				"parameters": [
					{
						"in": "body",
						"name": "request",
						"required": true,
						"schema": {
							"$ref": "#/definitions/authsdk.RegenerateBackupCodesRequest"
						}
					}
				]
			}
		},
		"/v1/security/notifications/toggle": {
			"post": {
				"tags": [
					"Security"
				],
				"summary": "Toggle security notifications",
				"produces": [
					"application/json"
				],
				"responses": {
					"200": {
						"description": "OK",
						"schema": {
							"$ref": "#/definitions/authsdk.NotificationToggleResponse"
						}
					},
					"400": {
						"description": "Error",
						"schema": {
							"$ref": "#/definitions/authsdk.ErrorResponse"
						}
					},
					"401": {
						"description": "Error",
						"schema": {
							"$ref": "#/definitions/authsdk.ErrorResponse"
						}
					}
				},
				"security": [
					{
						"BearerAuth": []
					}
				],
				"parameters": [
					{
						"in": "query",
						"name": "enabled",
						"type": "boolean"
					}
				]
			}
		},
		"/v1/security/events": {
			"get": {
				"tags": [
					"Security"
				],
				"summary": "Security history",
				"produces": [
					"application/json"
				],
				"responses": {
					"200": {
						"description": "OK",
						"schema": {
							"type": "array",
							"items": {
								"$ref": "#/definitions/authsdk.EventResponse"
							}
						}
					},
					"400": {
						"description": "Error",
						"schema": {
							"$ref": "#/definitions/authsdk.ErrorResponse"
						}
					},
					"401": {
						"description": "Error",
						"schema": {
							"$ref": "#/definitions/authsdk.ErrorResponse"
						}
					}
				},
				"security": [
					{
						"BearerAuth": []
					}
				],
				"parameters": [
					{
						"in": "query",
						"name": "limit",
						"type": "integer"
					}
				]
			}
		},
		"/livez": {
			"get": {
				"tags": [
					"Health"
				],
				"summary": "Liveness probe",
				"produces": [
					"application/json"
				],
				"responses": {
					"200": {
						"description": "OK",
						"schema": {
							"$ref": "#/definitions/authsdk.HealthResponse"
						}
					}
				}
			}
		},
		"/readyz": {
			"get": {
				"tags": [
					"Health"
				],
				"summary": "Readiness probe",
				"produces": [
					"application/json"
				],
				"responses": {
					"200": {
						"description": "OK",
						"schema": {
							"$ref": "#/definitions/authsdk.HealthResponse"
						}
					}
				}
			}
		}
	},
	"definitions": {
		"authsdk.ErrorResponse": {
			"type": "object",
			"properties": {
				"error": {
					"type": "string"
				},
				"error_description": {
					"type": "string"
				}
			}
		},
		"authsdk.RegisterRequest": {
			"type": "object",
			"properties": {
				"email": {
					"type": "string"
				},
				"password": {
					"type": "string"
				},
				"full_name": {
					"type": "string"
				}
			}
		},
		"authsdk.LoginRequest": {
			"type": "object",
			"properties": {
				"email": {
					"type": "string"
				},
				"password": {
					"type": "string"
				}
			}
		},
		"authsdk.TokenResponse": {
			"type": "object",
			"properties": {
				"access_token": {
					"type": "string"
				},
				"token_type": {
					"type": "string"
				},
				"expires_in": {
					"type": "integer"
				},
				"requires_2fa": {
					"type": "boolean"
				},
				"challenge_token": {
					"type": "string"
				}
			}
		},
		"authsdk.VerifyTwoFactorRequest": {
			"type": "object",
			"properties": {
				"challenge_token": {
					"type": "string"
				},
				"code": {
					"type": "string"
				}
			}
		},
		"authsdk.StatusResponse": {
			"type": "object",
			"properties": {
				"status": {
					"type": "string"
				},
				"message": {
					"type": "string"
				}
			}
		},
		"authsdk.UserResponse": {
			"type": "object",
			"properties": {
				"id": {
					"type": "integer"
				},
				"email": {
					"type": "string"
				},
				"full_name": {
					"type": "string"
				},
				"is_active": {
					"type": "boolean"
				},
				"auth_provider": {
					"type": "string"
				},
				"last_login_at": {
					"type": "string",
					"format": "date-time"
				},
				"last_login_ip": {
					"type": "string"
				},
				"is_2fa_enabled": {
					"type": "boolean"
				},
				"security_notifications_enabled": {
					"type": "boolean"
				},
				"created_at": {
					"type": "string",
					"format": "date-time"
				}
			}
		},
		"authsdk.SessionResponse": {
			"type": "object",
			"properties": {
				"id": {
					"type": "string"
				},
				"device_type": {
					"type": "string"
				},
				"browser_name": {
					"type": "string"
				},
				"browser_version": {
					"type": "string"
				},
				"os_name": {
					"type": "string"
				},
				"os_version": {
					"type": "string"
				},
				"ip_address": {
					"type": "string"
				},
				"location_city": {
					"type": "string"
				},
				"location_country": {
					"type": "string"
				},
				"created_at": {
					"type": "string",
					"format": "date-time"
				},
				"last_active_at": {
					"type": "string",
					"format": "date-time"
				},
				"is_current": {
					"type": "boolean"
				}
			}
		},
		"authsdk.RevokeOthersResponse": {
			"type": "object",
			"properties": {
				"status": {
					"type": "string"
				},
				"revoked_count": {
					"type": "integer"
				}
			}
		},
		"authsdk.TwoFactorSetupResponse": {
			"type": "object",
			"properties": {
				"secret": {
					"type": "string"
				},
				"otpauth_url": {
					"type": "string"
				},
				"qr_code_base64": {
					"type": "string"
				}
			}
		},
		"authsdk.EnableTwoFactorRequest": {
			"type": "object",
			"properties": {
				"secret": {
					"type": "string"
				},
				"code": {
					"type": "string"
				}
			}
		},
		"authsdk.RegenerateBackupCodesRequest": {
			"type": "object",
			"properties": {
				"code": {
					"type": "string"
				}
			}
		},
		"authsdk.BackupCodesResponse": {
			"type": "object",
			"properties": {
				"status": {
					"type": "string"
				},
				"backup_codes": {
					"type": "array",
					"items": {
						"type": "string"
					}
				}
			}
		},
		"authsdk.NotificationToggleResponse": {
			"type": "object",
			"properties": {
				"status": {
					"type": "string"
				},
				"enabled": {
					"type": "boolean"
				}
			}
		},
		"authsdk.EventResponse": {
			"type": "object",
			"properties": {
				"id": {
					"type": "string"
				},
				"event_type": {
					"type": "string"
				},
				"metadata": {
					"type": "object",
					"additionalProperties": {
						"type": "string"
					}
				},
				"created_at": {
					"type": "string",
					"format": "date-time"
				}
			}
		},
		"authsdk.HealthChecks": {
			"type": "object",
			"properties": {
				"database": {
					"type": "string"
				},
				"redis": {
					"type": "string"
				}
			}
		},
		"authsdk.HealthResponse": {
			"type": "object",
			"properties": {
				"status": {
					"type": "string"
				},
				"uptime": {
					"type": "string"
				},
				"version": {
					"type": "string"
				},
				"checks": {
					"$ref": "#/definitions/authsdk.HealthChecks"
				}
			}
		}
	},
	"securityDefinitions": {
		"BearerAuth": {
			"description": "JWT access token. Format: \"Bearer {token}\".",
			"type": "apiKey",
			"name": "Authorization",
			"in": "header"
		}
	}
}`

// SwaggerInfo holds exported Swagger Info so clients can modify it
var SwaggerInfo = &swag.Spec{
	Version:          "0.1.0",
	Host:             "localhost:8080",
	BasePath:         "/",
	Schemes:          []string{"http", "https"},
	Title:            "ChefStream Authentication Service API",
	Description:      "Password and Google sign-in with TOTP two-factor, server-side sessions and a security event log.",
	InfoInstanceName: "swagger",
	SwaggerTemplate:  docTemplate,
	LeftDelim:        "{{",
	RightDelim:       "}}",
}

func init() {
	swag.Register(SwaggerInfo.InstanceName(), SwaggerInfo)
}
