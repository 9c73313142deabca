// Package docs registra la especificación OpenAPI que sirve /swagger/*.
// Regenerar con: swag init -g cmd/api/main.go
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
        "/patients": {
            "get": {"tags": ["patients"], "summary": "Listar pacientes", "produces": ["application/json"], "responses": {"200": {"description": "OK"}}}
        },
        "/patients/{patientID}": {
            "get": {
                "tags": ["patients"], "summary": "Perfil de paciente", "produces": ["application/json"],
                "parameters": [{"type": "string", "name": "patientID", "in": "path", "required": true}],
                "responses": {"200": {"description": "OK"}, "404": {"description": "patient not found"}}
            }
        },
        "/patients/{patientID}/schedule": {
            "get": {
                "tags": ["doses"], "summary": "Estado de dosis de un paciente", "produces": ["application/json"],
                "parameters": [{"type": "string", "name": "patientID", "in": "path", "required": true}],
                "responses": {"200": {"description": "OK"}, "404": {"description": "patient not found"}}
            }
        },
        "/patients/{patientID}/dose": {
            "post": {
                "tags": ["doses"], "summary": "Marcar / revertir la dosis actual", "produces": ["application/json"],
                "parameters": [{"type": "string", "name": "patientID", "in": "path", "required": true}],
                "responses": {"200": {"description": "OK"}, "404": {"description": "patient not found"}, "429": {"description": "too many requests"}}
            }
        },
        "/patients/{patientID}/schedule/current": {
            "put": {
                "tags": ["doses"], "summary": "Cambiar el horario de la dosis actual", "consumes": ["application/json"], "produces": ["application/json"],
                "parameters": [
                    {"type": "string", "name": "patientID", "in": "path", "required": true},
                    {"name": "payload", "in": "body", "required": true, "schema": {"type": "object", "properties": {"new_time": {"type": "string", "example": "08:30 PM"}}}}
                ],
                "responses": {"200": {"description": "OK"}, "400": {"description": "invalid time format / no schedule"}, "404": {"description": "patient not found"}}
            }
        },
        "/get_medicine_schedule": {
            "get": {"tags": ["doses"], "summary": "Schedules de todos los pacientes", "produces": ["application/json"], "responses": {"200": {"description": "OK"}}}
        },
        "/update_medicine_status": {
            "post": {
                "tags": ["doses"], "summary": "Marcar / revertir la dosis actual (kiosk)", "consumes": ["application/json"], "produces": ["application/json"],
                "parameters": [{"name": "payload", "in": "body", "required": true, "schema": {"type": "object", "properties": {"patient_id": {"type": "string"}}}}],
                "responses": {"200": {"description": "OK"}, "400": {"description": "invalid json / patient_id required"}, "404": {"description": "patient not found"}}
            }
        },
        "/update_manual_time": {
            "post": {
                "tags": ["doses"], "summary": "Cambiar el horario de la dosis actual (kiosk)", "consumes": ["application/json"], "produces": ["application/json"],
                "parameters": [{"name": "payload", "in": "body", "required": true, "schema": {"type": "object", "properties": {"patient_id": {"type": "string"}, "new_time": {"type": "string"}}}}],
                "responses": {"200": {"description": "OK"}, "400": {"description": "invalid time format / no schedule"}, "404": {"description": "patient not found"}}
            }
        },
        "/history": {
            "get": {
                "tags": ["history"], "summary": "Historial de dosis", "produces": ["application/json"],
                "parameters": [
                    {"type": "array", "items": {"type": "string"}, "collectionFormat": "multi", "name": "patient_id", "in": "query", "required": true},
                    {"type": "string", "name": "order", "in": "query", "enum": ["asc", "desc"]}
                ],
                "responses": {"200": {"description": "OK"}, "400": {"description": "patient_id required / invalid order"}}
            }
        },
        "/nurses/{nurseID}/patients": {
            "get": {"tags": ["nurses"], "summary": "Pacientes asignados a una enfermera", "parameters": [{"type": "string", "name": "nurseID", "in": "path", "required": true}], "responses": {"200": {"description": "OK"}, "404": {"description": "nurse not found"}}}
        },
        "/nurses/{nurseID}/history": {
            "get": {"tags": ["nurses"], "summary": "Historial de los pacientes de una enfermera", "parameters": [{"type": "string", "name": "nurseID", "in": "path", "required": true}], "responses": {"200": {"description": "OK"}, "404": {"description": "nurse not found"}}}
        },
        "/doctors/{doctorID}/patients": {
            "get": {"tags": ["doctors"], "summary": "Pacientes de un médico", "parameters": [{"type": "string", "name": "doctorID", "in": "path", "required": true}], "responses": {"200": {"description": "OK"}, "404": {"description": "doctor not found"}}}
        },
        "/doctors/{doctorID}/history": {
            "get": {"tags": ["doctors"], "summary": "Historial de los pacientes de un médico", "parameters": [{"type": "string", "name": "doctorID", "in": "path", "required": true}], "responses": {"200": {"description": "OK"}, "404": {"description": "doctor not found"}}}
        },
        "/alerts/stream": {
            "get": {"tags": ["alerts"], "summary": "Stream de alertas de dosis", "produces": ["text/event-stream"], "responses": {"200": {"description": "OK"}}}
        }
    }
}`

var SwaggerInfo = &swag.Spec{
	Version:          "1.0",
	Host:             "",
	BasePath:         "/",
	Schemes:          []string{},
	Title:            "MediDispense API",
	Description:      "Seguimiento de dosis programadas por paciente: ventanas de administración, dosis perdidas, historial y alertas.",
	InfoInstanceName: "swagger",
	SwaggerTemplate:  docTemplate,
	LeftDelim:        "{{",
	RightDelim:       "}}",
}

func init() {
	swag.Register(SwaggerInfo.InstanceName(), SwaggerInfo)
}
