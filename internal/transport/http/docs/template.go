package docs

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
    "securityDefinitions": {
        "ApiKey": {"type": "apiKey", "name": "x-api-key", "in": "header"},
        "Bearer": {"type": "apiKey", "name": "Authorization", "in": "header"}
    },
    "security": [{"ApiKey": []}, {"Bearer": []}],
    "paths": {
        "/sessions": {
            "get": {
                "tags": ["Sessions"],
                "summary": "List sessions",
                "produces": ["application/json"],
                "parameters": [
                    {"type": "integer", "description": "page size, 0 or absent returns all, capped at 200", "name": "limit", "in": "query"},
                    {"type": "integer", "description": "offset", "name": "offset", "in": "query"}
                ],
                "responses": {"200": {"description": "OK", "schema": {"$ref": "#/definitions/httptransport.APIResponse"}}}
            },
            "post": {
                "tags": ["Sessions"],
                "summary": "Start a session",
                "produces": ["application/json"],
                "responses": {"201": {"description": "Created", "schema": {"$ref": "#/definitions/httptransport.APIResponse"}}}
            }
        },
        "/sessions/{id}": {
            "get": {
                "tags": ["Sessions"],
                "summary": "Get a session with its translations",
                "produces": ["application/json"],
                "parameters": [{"type": "string", "description": "session id", "name": "id", "in": "path", "required": true}],
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/httptransport.APIResponse"}},
                    "404": {"description": "Not Found", "schema": {"$ref": "#/definitions/httptransport.APIResponse"}}
                }
            }
        },
        "/sessions/{id}/language": {
            "post": {
                "tags": ["Sessions"],
                "summary": "Select the visitor language",
                "consumes": ["application/json"],
                "produces": ["application/json"],
                "parameters": [
                    {"type": "string", "description": "session id", "name": "id", "in": "path", "required": true},
                    {"description": "language", "name": "body", "in": "body", "required": true, "schema": {"$ref": "#/definitions/sessions.LanguageRequest"}}
                ],
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/httptransport.APIResponse"}},
                    "400": {"description": "Bad Request", "schema": {"$ref": "#/definitions/httptransport.APIResponse"}}
                }
            }
        },
        "/sessions/{id}/turns": {
            "post": {
                "tags": ["Sessions"],
                "summary": "Translate one turn",
                "description": "multipart with an audio file (plus from/to form fields) or JSON {from,to,text}",
                "consumes": ["multipart/form-data", "application/json"],
                "produces": ["application/json"],
                "parameters": [
                    {"type": "string", "description": "session id", "name": "id", "in": "path", "required": true},
                    {"type": "file", "description": "audio file", "name": "audio", "in": "formData"},
                    {"type": "string", "description": "source language", "name": "from", "in": "formData"},
                    {"type": "string", "description": "target language", "name": "to", "in": "formData"}
                ],
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/httptransport.APIResponse"}},
                    "502": {"description": "Bad Gateway", "schema": {"$ref": "#/definitions/httptransport.APIResponse"}}
                }
            }
        },
        "/sessions/{id}/finish": {
            "post": {
                "tags": ["Sessions"],
                "summary": "Finish a session",
                "produces": ["application/json"],
                "parameters": [{"type": "string", "description": "session id", "name": "id", "in": "path", "required": true}],
                "responses": {"200": {"description": "OK", "schema": {"$ref": "#/definitions/httptransport.APIResponse"}}}
            }
        },
        "/sessions/{id}/recap": {
            "get": {
                "tags": ["Sessions"],
                "summary": "Summarize a session",
                "produces": ["application/json"],
                "parameters": [{"type": "string", "description": "session id", "name": "id", "in": "path", "required": true}],
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/httptransport.APIResponse"}},
                    "502": {"description": "Bad Gateway", "schema": {"$ref": "#/definitions/httptransport.APIResponse"}}
                }
            }
        },
        "/sessions/{id}/events": {
            "get": {
                "tags": ["Sessions"],
                "summary": "Session audit trail",
                "produces": ["application/json"],
                "parameters": [{"type": "string", "description": "session id", "name": "id", "in": "path", "required": true}],
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/httptransport.APIResponse"}},
                    "404": {"description": "Not Found", "schema": {"$ref": "#/definitions/httptransport.APIResponse"}}
                }
            }
        },
        "/sessions/{id}/live": {
            "get": {
                "tags": ["Sessions"],
                "summary": "Live websocket turn channel",
                "description": "text frames: {type: config|turn|ping|finish}; binary frames: audio for the configured direction",
                "parameters": [{"type": "string", "description": "session id", "name": "id", "in": "path", "required": true}],
                "responses": {
                    "101": {"description": "Switching Protocols"},
                    "404": {"description": "Not Found", "schema": {"$ref": "#/definitions/httptransport.APIResponse"}}
                }
            }
        },
        "/transcribe": {
            "post": {
                "tags": ["Speech"],
                "summary": "Transcribe only",
                "consumes": ["multipart/form-data"],
                "produces": ["application/json"],
                "parameters": [
                    {"type": "file", "description": "audio file", "name": "audio", "in": "formData", "required": true},
                    {"type": "string", "description": "language code", "name": "language", "in": "formData", "required": true}
                ],
                "responses": {"200": {"description": "OK", "schema": {"$ref": "#/definitions/httptransport.APIResponse"}}}
            }
        },
        "/tts": {
            "post": {
                "tags": ["Speech"],
                "summary": "Text to speech",
                "consumes": ["application/json"],
                "produces": ["application/octet-stream"],
                "parameters": [{"description": "text and optional voice/lang/session_id", "name": "body", "in": "body", "required": true, "schema": {"$ref": "#/definitions/speech.Request"}}],
                "responses": {"200": {"description": "audio", "schema": {"type": "file"}}}
            }
        },
        "/voices": {
            "get": {
                "tags": ["Speech"],
                "summary": "Voice catalog",
                "produces": ["application/json"],
                "responses": {"200": {"description": "OK", "schema": {"$ref": "#/definitions/httptransport.APIResponse"}}}
            }
        },
        "/languages/settings": {
            "get": {
                "tags": ["Languages"],
                "summary": "List language settings",
                "produces": ["application/json"],
                "responses": {"200": {"description": "OK", "schema": {"$ref": "#/definitions/httptransport.APIResponse"}}}
            },
            "put": {
                "tags": ["Languages"],
                "summary": "Bulk update language settings",
                "consumes": ["application/json"],
                "produces": ["application/json"],
                "parameters": [{"description": "settings", "name": "body", "in": "body", "required": true, "schema": {"type": "array", "items": {"$ref": "#/definitions/language.SettingPatch"}}}],
                "responses": {"200": {"description": "OK", "schema": {"$ref": "#/definitions/httptransport.APIResponse"}}}
            }
        },
        "/languages/settings/{code}": {
            "get": {
                "tags": ["Languages"],
                "summary": "Get a language setting",
                "produces": ["application/json"],
                "parameters": [{"type": "string", "description": "language code", "name": "code", "in": "path", "required": true}],
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/httptransport.APIResponse"}},
                    "404": {"description": "Not Found", "schema": {"$ref": "#/definitions/httptransport.APIResponse"}}
                }
            },
            "put": {
                "tags": ["Languages"],
                "summary": "Update a language setting",
                "consumes": ["application/json"],
                "produces": ["application/json"],
                "parameters": [
                    {"type": "string", "description": "language code", "name": "code", "in": "path", "required": true},
                    {"description": "fields to change", "name": "body", "in": "body", "required": true, "schema": {"$ref": "#/definitions/language.SettingPatch"}}
                ],
                "responses": {"200": {"description": "OK", "schema": {"$ref": "#/definitions/httptransport.APIResponse"}}}
            }
        },
        "/languages/enabled": {
            "get": {
                "tags": ["Languages"],
                "summary": "Enabled languages",
                "produces": ["application/json"],
                "responses": {"200": {"description": "OK", "schema": {"$ref": "#/definitions/httptransport.APIResponse"}}}
            }
        },
        "/languages/available": {
            "get": {
                "tags": ["Languages"],
                "summary": "Visitor languages offered to clients",
                "produces": ["application/json"],
                "responses": {"200": {"description": "OK", "schema": {"$ref": "#/definitions/httptransport.APIResponse"}}}
            }
        },
        "/languages/seed": {
            "post": {
                "tags": ["Languages"],
                "summary": "Seed settings from the voice catalog",
                "produces": ["application/json"],
                "parameters": [{"type": "boolean", "description": "refetch the voice catalog first", "name": "refresh", "in": "query"}],
                "responses": {"200": {"description": "OK", "schema": {"$ref": "#/definitions/httptransport.APIResponse"}}}
            }
        },
        "/misc/ping": {
            "get": {
                "tags": ["Misc"],
                "summary": "Health check",
                "security": [],
                "produces": ["application/json"],
                "responses": {"200": {"description": "OK", "schema": {"$ref": "#/definitions/httptransport.APIResponse"}}}
            }
        },
        "/misc/status": {
            "get": {
                "tags": ["Misc"],
                "summary": "Process and host status",
                "produces": ["application/json"],
                "responses": {"200": {"description": "OK", "schema": {"$ref": "#/definitions/httptransport.APIResponse"}}}
            }
        }
    },
    "definitions": {
        "httptransport.APIResponse": {
            "type": "object",
            "properties": {
                "code": {"type": "integer"},
                "data": {},
                "message": {"type": "string"},
                "success": {"type": "boolean"}
            }
        },
        "sessions.LanguageRequest": {
            "type": "object",
            "required": ["code"],
            "properties": {"code": {"type": "string", "example": "fr-FR"}}
        },
        "speech.Request": {
            "type": "object",
            "properties": {
                "text": {"type": "string"},
                "voice": {"type": "string"},
                "lang": {"type": "string"},
                "session_id": {"type": "string"}
            }
        },
        "language.SettingPatch": {
            "type": "object",
            "properties": {
                "code": {"type": "string"},
                "enabled": {"type": "boolean"},
                "voice": {"type": "string"},
                "transcribe_model": {"type": "string"},
                "translation_model": {"type": "string"},
                "summary_model": {"type": "string"}
            }
        }
    }
}`
