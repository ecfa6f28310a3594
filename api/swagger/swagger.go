package swagger

import "github.com/swaggo/swag"

const docTemplate = `{
    "swagger": "2.0",
    "info": {
        "title": "KnowledgeVault API",
        "description": "Academic achievements registry with filtered listing, attachments and exports",
        "version": "1.0.0"
    },
    "basePath": "/",
    "schemes": [
        "http"
    ],
    "produces": [
        "application/json"
    ],
    "securityDefinitions": {
        "ClientToken": {
            "type": "apiKey",
            "in": "header",
            "name": "Authorization"
        }
    },
    "tags": [
        {
            "name": "Achievements",
            "description": "Achievement records, attachments and exports"
        },
        {
            "name": "Ops",
            "description": "Health and metrics"
        }
    ],
    "paths": {
        "/health": {
            "get": {
                "tags": [
                    "Ops"
                ],
                "summary": "Liveness probe",
                "responses": {
                    "200": {
                        "description": "OK"
                    }
                }
            }
        },
        "/ready": {
            "get": {
                "tags": [
                    "Ops"
                ],
                "summary": "Readiness probe",
                "responses": {
                    "200": {
                        "description": "Ready"
                    },
                    "503": {
                        "description": "A dependency is unavailable"
                    }
                }
            }
        },
        "/metrics": {
            "get": {
                "tags": [
                    "Ops"
                ],
                "summary": "Prometheus metrics",
                "produces": [
                    "text/plain"
                ],
                "responses": {
                    "200": {
                        "description": "OK"
                    }
                }
            }
        },
        "/metrics/summary": {
            "get": {
                "tags": [
                    "Ops"
                ],
                "summary": "Aggregated runtime metrics",
                "responses": {
                    "200": {
                        "description": "OK",
                        "schema": {
                            "$ref": "#/definitions/ResponseEnvelope"
                        }
                    }
                }
            }
        },
        "/api/v1/achievements": {
            "get": {
                "tags": [
                    "Achievements"
                ],
                "summary": "List achievements",
                "description": "A page or page size below 1 returns every match.",
                "parameters": [
                    {
                        "name": "year",
                        "in": "query",
                        "type": "integer",
                        "description": "Exact year"
                    },
                    {
                        "name": "type",
                        "in": "query",
                        "type": "integer",
                        "description": "Exact type"
                    },
                    {
                        "name": "subType",
                        "in": "query",
                        "type": "string",
                        "description": "Exact sub type"
                    },
                    {
                        "name": "theme",
                        "in": "query",
                        "type": "string",
                        "description": "Exact theme"
                    },
                    {
                        "name": "author",
                        "in": "query",
                        "type": "string",
                        "description": "First author contains, case-insensitive"
                    },
                    {
                        "name": "correspond",
                        "in": "query",
                        "type": "string",
                        "description": "Corresponding author contains, case-insensitive"
                    },
                    {
                        "name": "title",
                        "in": "query",
                        "type": "string",
                        "description": "Title contains, case-insensitive"
                    },
                    {
                        "name": "sortField",
                        "in": "query",
                        "type": "string",
                        "enum": [
                            "createtime",
                            "modifiedtime",
                            "year",
                            "firstauthor",
                            "correspond",
                            "type",
                            "subtype",
                            "title",
                            "theme"
                        ]
                    },
                    {
                        "name": "sortOrder",
                        "in": "query",
                        "type": "string",
                        "default": "desc",
                        "enum": [
                            "asc",
                            "desc",
                            "true",
                            "false"
                        ]
                    },
                    {
                        "name": "pageIndex",
                        "in": "query",
                        "type": "integer",
                        "default": 1
                    },
                    {
                        "name": "pageSize",
                        "in": "query",
                        "type": "integer",
                        "default": 20
                    }
                ],
                "responses": {
                    "200": {
                        "description": "OK",
                        "schema": {
                            "$ref": "#/definitions/ResponseEnvelope"
                        }
                    },
                    "400": {
                        "description": "Invalid query",
                        "schema": {
                            "$ref": "#/definitions/ResponseEnvelope"
                        }
                    }
                }
            },
            "post": {
                "tags": [
                    "Achievements"
                ],
                "summary": "Create achievement",
                "parameters": [
                    {
                        "name": "payload",
                        "in": "body",
                        "required": true,
                        "schema": {
                            "$ref": "#/definitions/AchievementRequest"
                        }
                    }
                ],
                "responses": {
                    "201": {
                        "description": "Created",
                        "schema": {
                            "$ref": "#/definitions/ResponseEnvelope"
                        }
                    },
                    "400": {
                        "description": "Validation failed",
                        "schema": {
                            "$ref": "#/definitions/ResponseEnvelope"
                        }
                    },
                    "401": {
                        "description": "Missing client token",
                        "schema": {
                            "$ref": "#/definitions/ResponseEnvelope"
                        }
                    },
                    "409": {
                        "description": "Duplicate title and type",
                        "schema": {
                            "$ref": "#/definitions/ResponseEnvelope"
                        }
                    }
                }
            }
        },
        "/api/v1/achievements/export": {
            "get": {
                "tags": [
                    "Achievements"
                ],
                "summary": "Export achievements",
                "produces": [
                    "text/csv",
                    "application/pdf"
                ],
                "parameters": [
                    {
                        "name": "year",
                        "in": "query",
                        "type": "integer",
                        "description": "Exact year"
                    },
                    {
                        "name": "type",
                        "in": "query",
                        "type": "integer",
                        "description": "Exact type"
                    },
                    {
                        "name": "subType",
                        "in": "query",
                        "type": "string",
                        "description": "Exact sub type"
                    },
                    {
                        "name": "theme",
                        "in": "query",
                        "type": "string",
                        "description": "Exact theme"
                    },
                    {
                        "name": "author",
                        "in": "query",
                        "type": "string",
                        "description": "First author contains, case-insensitive"
                    },
                    {
                        "name": "correspond",
                        "in": "query",
                        "type": "string",
                        "description": "Corresponding author contains, case-insensitive"
                    },
                    {
                        "name": "title",
                        "in": "query",
                        "type": "string",
                        "description": "Title contains, case-insensitive"
                    },
                    {
                        "name": "sortField",
                        "in": "query",
                        "type": "string",
                        "enum": [
                            "createtime",
                            "modifiedtime",
                            "year",
                            "firstauthor",
                            "correspond",
                            "type",
                            "subtype",
                            "title",
                            "theme"
                        ]
                    },
                    {
                        "name": "sortOrder",
                        "in": "query",
                        "type": "string",
                        "default": "desc",
                        "enum": [
                            "asc",
                            "desc",
                            "true",
                            "false"
                        ]
                    },
                    {
                        "name": "format",
                        "in": "query",
                        "type": "string",
                        "enum": [
                            "csv",
                            "pdf"
                        ],
                        "default": "csv"
                    }
                ],
                "responses": {
                    "200": {
                        "description": "Document",
                        "schema": {
                            "type": "file"
                        }
                    },
                    "400": {
                        "description": "Unknown format",
                        "schema": {
                            "$ref": "#/definitions/ResponseEnvelope"
                        }
                    }
                }
            }
        },
        "/api/v1/achievements/{id}": {
            "get": {
                "tags": [
                    "Achievements"
                ],
                "summary": "Get achievement",
                "parameters": [
                    {
                        "name": "id",
                        "in": "path",
                        "type": "integer",
                        "required": true
                    }
                ],
                "responses": {
                    "200": {
                        "description": "OK",
                        "schema": {
                            "$ref": "#/definitions/ResponseEnvelope"
                        }
                    },
                    "404": {
                        "description": "Not found",
                        "schema": {
                            "$ref": "#/definitions/ResponseEnvelope"
                        }
                    }
                }
            },
            "put": {
                "tags": [
                    "Achievements"
                ],
                "summary": "Update achievement",
                "parameters": [
                    {
                        "name": "id",
                        "in": "path",
                        "type": "integer",
                        "required": true
                    },
                    {
                        "name": "payload",
                        "in": "body",
                        "required": true,
                        "schema": {
                            "$ref": "#/definitions/AchievementRequest"
                        }
                    }
                ],
                "responses": {
                    "200": {
                        "description": "OK",
                        "schema": {
                            "$ref": "#/definitions/ResponseEnvelope"
                        }
                    },
                    "400": {
                        "description": "Validation failed",
                        "schema": {
                            "$ref": "#/definitions/ResponseEnvelope"
                        }
                    },
                    "404": {
                        "description": "Not found",
                        "schema": {
                            "$ref": "#/definitions/ResponseEnvelope"
                        }
                    },
                    "409": {
                        "description": "Duplicate title and type",
                        "schema": {
                            "$ref": "#/definitions/ResponseEnvelope"
                        }
                    }
                }
            },
            "delete": {
                "tags": [
                    "Achievements"
                ],
                "summary": "Delete achievement",
                "parameters": [
                    {
                        "name": "id",
                        "in": "path",
                        "type": "integer",
                        "required": true
                    }
                ],
                "responses": {
                    "204": {
                        "description": "Deleted"
                    },
                    "404": {
                        "description": "Not found",
                        "schema": {
                            "$ref": "#/definitions/ResponseEnvelope"
                        }
                    }
                }
            }
        },
        "/api/v1/achievements/{id}/file": {
            "post": {
                "tags": [
                    "Achievements"
                ],
                "summary": "Attach a file",
                "consumes": [
                    "multipart/form-data"
                ],
                "parameters": [
                    {
                        "name": "id",
                        "in": "path",
                        "type": "integer",
                        "required": true
                    },
                    {
                        "name": "file",
                        "in": "formData",
                        "type": "file",
                        "required": true
                    }
                ],
                "responses": {
                    "200": {
                        "description": "OK",
                        "schema": {
                            "$ref": "#/definitions/ResponseEnvelope"
                        }
                    },
                    "400": {
                        "description": "Missing, oversize or disallowed file",
                        "schema": {
                            "$ref": "#/definitions/ResponseEnvelope"
                        }
                    },
                    "404": {
                        "description": "Not found",
                        "schema": {
                            "$ref": "#/definitions/ResponseEnvelope"
                        }
                    }
                }
            }
        },
        "/api/v1/achievements/{id}/file-url": {
            "get": {
                "tags": [
                    "Achievements"
                ],
                "summary": "Issue a signed download link",
                "parameters": [
                    {
                        "name": "id",
                        "in": "path",
                        "type": "integer",
                        "required": true
                    }
                ],
                "responses": {
                    "200": {
                        "description": "OK",
                        "schema": {
                            "$ref": "#/definitions/ResponseEnvelope"
                        }
                    },
                    "404": {
                        "description": "No attachment",
                        "schema": {
                            "$ref": "#/definitions/ResponseEnvelope"
                        }
                    }
                }
            }
        },
        "/api/v1/achievements/files/{fileId}": {
            "get": {
                "tags": [
                    "Achievements"
                ],
                "summary": "Download an attachment",
                "produces": [
                    "application/octet-stream"
                ],
                "parameters": [
                    {
                        "name": "fileId",
                        "in": "path",
                        "type": "string",
                        "required": true
                    },
                    {
                        "name": "token",
                        "in": "query",
                        "type": "string",
                        "required": true
                    }
                ],
                "responses": {
                    "200": {
                        "description": "File",
                        "schema": {
                            "type": "file"
                        }
                    },
                    "401": {
                        "description": "Invalid or expired token",
                        "schema": {
                            "$ref": "#/definitions/ResponseEnvelope"
                        }
                    },
                    "404": {
                        "description": "Unknown file",
                        "schema": {
                            "$ref": "#/definitions/ResponseEnvelope"
                        }
                    }
                }
            }
        }
    },
    "definitions": {
        "AchievementRequest": {
            "type": "object",
            "required": [
                "title",
                "first_author",
                "year"
            ],
            "properties": {
                "title": {
                    "type": "string"
                },
                "first_author": {
                    "type": "string"
                },
                "correspond": {
                    "type": "string"
                },
                "other_authors": {
                    "type": "string"
                },
                "year": {
                    "type": "integer"
                },
                "type": {
                    "type": "integer"
                },
                "sub_type": {
                    "type": "string"
                },
                "theme": {
                    "type": "string"
                },
                "journal": {
                    "type": "string"
                },
                "note": {
                    "type": "string"
                }
            }
        },
        "Achievement": {
            "type": "object",
            "properties": {
                "id": {
                    "type": "integer"
                },
                "title": {
                    "type": "string"
                },
                "first_author": {
                    "type": "string"
                },
                "correspond": {
                    "type": "string"
                },
                "other_authors": {
                    "type": "string"
                },
                "year": {
                    "type": "integer"
                },
                "type": {
                    "type": "integer"
                },
                "sub_type": {
                    "type": "string"
                },
                "theme": {
                    "type": "string"
                },
                "journal": {
                    "type": "string"
                },
                "note": {
                    "type": "string"
                },
                "file_id": {
                    "type": "string"
                },
                "file_extension": {
                    "type": "string"
                },
                "created_at": {
                    "type": "string",
                    "format": "date-time"
                },
                "modified_at": {
                    "type": "string",
                    "format": "date-time"
                }
            }
        },
        "APIError": {
            "type": "object",
            "properties": {
                "code": {
                    "type": "string"
                },
                "message": {
                    "type": "string"
                },
                "status": {
                    "type": "integer"
                }
            }
        },
        "Pagination": {
            "type": "object",
            "properties": {
                "page": {
                    "type": "integer"
                },
                "page_size": {
                    "type": "integer"
                },
                "total_count": {
                    "type": "integer"
                }
            }
        },
        "ResponseEnvelope": {
            "type": "object",
            "properties": {
                "data": {
                    "type": "object"
                },
                "error": {
                    "$ref": "#/definitions/APIError"
                },
                "pagination": {
                    "$ref": "#/definitions/Pagination"
                },
                "meta": {
                    "type": "object"
                }
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
