package swagger

import "github.com/swaggo/swag"

const docTemplate = `{
    "swagger": "2.0",
    "info": {
        "title": "University Exam Admin API",
        "description": "Administrative console API for university examinations: master data, exam configuration, marks, results and reports.",
        "version": "1.0.0"
    },
    "basePath": "/api/v1",
    "schemes": [
        "http"
    ],
    "securityDefinitions": {
        "BearerAuth": {"type": "apiKey", "name": "Authorization", "in": "header"}
    },
    "tags": [
        {"name": "Auth", "description": "Console authentication"},
        {"name": "Institutes", "description": "Institute master data"},
        {"name": "Lookups", "description": "Streams, degrees and categories"},
        {"name": "Programs", "description": "Program master data"},
        {"name": "ExamCenters", "description": "Exam center master data"},
        {"name": "AcademicYears", "description": "Academic year master data"},
        {"name": "ExamGroups", "description": "Exam group configuration"},
        {"name": "ExamFees", "description": "Exam fee configuration"},
        {"name": "BacklogNorms", "description": "Backlog norm configuration"},
        {"name": "AttendanceRules", "description": "Attendance rule configuration"},
        {"name": "Marks", "description": "Mark entry per exam group"},
        {"name": "Results", "description": "Result preview and declaration"},
        {"name": "Reports", "description": "Asynchronous report generation"}
    ],
    "paths": {
        "/auth/login": {
            "post": {
                "tags": ["Auth"],
                "summary": "Authenticate a console operator",
                "parameters": [
                    {"name": "payload", "in": "body", "required": true, "schema": {"$ref": "#/definitions/LoginRequest"}}
                ],
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/ResponseEnvelope"}},
                    "401": {"description": "Invalid credentials"}
                }
            }
        },
        "/auth/me": {
            "get": {
                "tags": ["Auth"],
                "summary": "Current operator profile",
                "security": [{"BearerAuth": []}],
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/ResponseEnvelope"}}
                }
            }
        },
        "/institutes": {
            "get": {
                "tags": ["Institutes"],
                "summary": "List institutes",
                "parameters": [
                    {"name": "search", "in": "query", "type": "string"},
                    {"name": "sort_by", "in": "query", "type": "string"},
                    {"name": "sort_order", "in": "query", "type": "string"},
                    {"name": "page", "in": "query", "type": "integer"},
                    {"name": "page_size", "in": "query", "type": "integer"},
                    {"name": "export", "in": "query", "type": "string", "description": "csv or xlsx for an inline file export"}
                ],
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/ResponseEnvelope"}}
                }
            },
            "post": {
                "tags": ["Institutes"],
                "summary": "Create institute",
                "parameters": [
                    {"name": "payload", "in": "body", "required": true, "schema": {"type": "object"}}
                ],
                "responses": {
                    "201": {"description": "Created", "schema": {"$ref": "#/definitions/ResponseEnvelope"}},
                    "409": {"description": "Duplicate institute id"}
                }
            }
        },
        "/institutes/{id}": {
            "get": {
                "tags": ["Institutes"],
                "summary": "Get institute",
                "parameters": [{"name": "id", "in": "path", "type": "string", "required": true}],
                "responses": {"200": {"description": "OK"}, "404": {"description": "Not found"}}
            },
            "put": {
                "tags": ["Institutes"],
                "summary": "Update institute",
                "parameters": [
                    {"name": "id", "in": "path", "type": "string", "required": true},
                    {"name": "payload", "in": "body", "required": true, "schema": {"type": "object"}}
                ],
                "responses": {"200": {"description": "OK"}}
            },
            "delete": {
                "tags": ["Institutes"],
                "summary": "Soft-delete institute",
                "parameters": [{"name": "id", "in": "path", "type": "string", "required": true}],
                "responses": {"204": {"description": "Deleted"}}
            }
        },
        "/institutes/{id}/restore": {
            "post": {
                "tags": ["Institutes"],
                "summary": "Restore a soft-deleted institute",
                "parameters": [{"name": "id", "in": "path", "type": "string", "required": true}],
                "responses": {"204": {"description": "Restored"}}
            }
        },
        "/imports/institutes": {
            "post": {
                "tags": ["Institutes"],
                "summary": "Bulk import institutes from a workbook",
                "consumes": ["multipart/form-data"],
                "parameters": [{"name": "file", "in": "formData", "type": "file", "required": true}],
                "responses": {"200": {"description": "Import outcome", "schema": {"$ref": "#/definitions/BulkOutcome"}}}
            }
        },
        "/exam-groups/{id}/marks": {
            "get": {
                "tags": ["Marks"],
                "summary": "List marks for an exam group",
                "parameters": [
                    {"name": "id", "in": "path", "type": "string", "required": true},
                    {"name": "search", "in": "query", "type": "string"},
                    {"name": "export", "in": "query", "type": "string"}
                ],
                "responses": {"200": {"description": "OK"}}
            },
            "post": {
                "tags": ["Marks"],
                "summary": "Enter or overwrite a mark",
                "parameters": [
                    {"name": "id", "in": "path", "type": "string", "required": true},
                    {"name": "payload", "in": "body", "required": true, "schema": {"type": "object"}}
                ],
                "responses": {
                    "200": {"description": "OK"},
                    "409": {"description": "Result already declared"}
                }
            }
        },
        "/exam-groups/{id}/result": {
            "get": {
                "tags": ["Results"],
                "summary": "Get the stored result",
                "parameters": [{"name": "id", "in": "path", "type": "string", "required": true}],
                "responses": {"200": {"description": "OK"}, "404": {"description": "No result yet"}}
            }
        },
        "/exam-groups/{id}/result/declare": {
            "post": {
                "tags": ["Results"],
                "summary": "Declare the result (irreversible)",
                "parameters": [{"name": "id", "in": "path", "type": "string", "required": true}],
                "responses": {
                    "200": {"description": "Declared"},
                    "409": {"description": "Already declared"},
                    "412": {"description": "No marks entered"}
                }
            }
        },
        "/reports": {
            "get": {
                "tags": ["Reports"],
                "summary": "List recent report jobs",
                "parameters": [{"name": "limit", "in": "query", "type": "integer"}],
                "responses": {"200": {"description": "OK"}}
            },
            "post": {
                "tags": ["Reports"],
                "summary": "Queue a report for generation",
                "parameters": [
                    {"name": "payload", "in": "body", "required": true, "schema": {"$ref": "#/definitions/ReportRequest"}}
                ],
                "responses": {"202": {"description": "Accepted"}}
            }
        },
        "/reports/download/{token}": {
            "get": {
                "tags": ["Reports"],
                "summary": "Download a generated report via its signed token",
                "parameters": [{"name": "token", "in": "path", "type": "string", "required": true}],
                "responses": {"200": {"description": "File"}, "401": {"description": "Invalid or expired token"}}
            }
        }
    },
    "definitions": {
        "LoginRequest": {
            "type": "object",
            "properties": {
                "email": {"type": "string"},
                "password": {"type": "string"}
            }
        },
        "ReportRequest": {
            "type": "object",
            "properties": {
                "type": {"type": "string", "enum": ["MARKS_REGISTER", "RESULT_SUMMARY", "FEE_COLLECTION"]},
                "format": {"type": "string", "enum": ["csv", "xlsx", "pdf"]},
                "exam_group_id": {"type": "string"},
                "year_id": {"type": "string"},
                "program_id": {"type": "string"}
            }
        },
        "BulkOutcome": {
            "type": "object",
            "properties": {
                "inserted": {"type": "integer"},
                "updated": {"type": "integer"},
                "skipped": {"type": "integer"},
                "failed": {"type": "integer"},
                "row_errors": {"type": "array", "items": {"type": "object"}}
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
