package swagger

import "github.com/swaggo/swag"

const docTemplate = `{
    "swagger": "2.0",
    "info": {
        "title": "TimeFlow API",
        "description": "University timetable scheduling service",
        "version": "1.0.0"
    },
    "basePath": "/api/v1",
    "schemes": [
        "http"
    ],
    "securityDefinitions": {
        "BearerAuth": {
            "type": "apiKey",
            "name": "Authorization",
            "in": "header"
        }
    },
    "tags": [
        {
            "name": "Lessons",
            "description": "Lesson scheduling with conflict checks"
        },
        {
            "name": "Timetable",
            "description": "Timetable windows and exports"
        },
        {
            "name": "Availability",
            "description": "Free resources lookups"
        },
        {
            "name": "Directory",
            "description": "Reference data"
        }
    ],
    "paths": {
        "/lessons": {
            "post": {
                "tags": [
                    "Lessons"
                ],
                "summary": "Schedule a lesson",
                "security": [
                    {
                        "BearerAuth": []
                    }
                ],
                "parameters": [
                    {
                        "name": "payload",
                        "in": "body",
                        "required": true,
                        "schema": {
                            "$ref": "#/definitions/CreateLessonRequest"
                        }
                    }
                ],
                "responses": {
                    "201": {
                        "description": "OK",
                        "schema": {
                            "$ref": "#/definitions/ResponseEnvelope"
                        }
                    },
                    "400": {
                        "description": "Validation error",
                        "schema": {
                            "$ref": "#/definitions/ResponseEnvelope"
                        }
                    },
                    "404": {
                        "description": "Unknown reference",
                        "schema": {
                            "$ref": "#/definitions/ResponseEnvelope"
                        }
                    },
                    "409": {
                        "description": "TEACHER_CONFLICT, CLASSROOM_CONFLICT or STUDENT_GROUP_CONFLICT",
                        "schema": {
                            "$ref": "#/definitions/ResponseEnvelope"
                        }
                    }
                }
            },
            "delete": {
                "tags": [
                    "Lessons"
                ],
                "summary": "Delete every lesson in a date range",
                "security": [
                    {
                        "BearerAuth": []
                    }
                ],
                "parameters": [
                    {
                        "name": "startDate",
                        "in": "query",
                        "required": true,
                        "type": "string",
                        "format": "date"
                    },
                    {
                        "name": "endDate",
                        "in": "query",
                        "required": true,
                        "type": "string",
                        "format": "date"
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
                        "description": "Validation error",
                        "schema": {
                            "$ref": "#/definitions/ResponseEnvelope"
                        }
                    }
                }
            }
        },
        "/lessons/for-a-few-weeks": {
            "post": {
                "tags": [
                    "Lessons"
                ],
                "summary": "Schedule a lesson on consecutive weeks",
                "security": [
                    {
                        "BearerAuth": []
                    }
                ],
                "parameters": [
                    {
                        "name": "payload",
                        "in": "body",
                        "required": true,
                        "schema": {
                            "$ref": "#/definitions/CreateRecurringLessonRequest"
                        }
                    }
                ],
                "responses": {
                    "201": {
                        "description": "OK",
                        "schema": {
                            "$ref": "#/definitions/ResponseEnvelope"
                        }
                    },
                    "400": {
                        "description": "Validation error",
                        "schema": {
                            "$ref": "#/definitions/ResponseEnvelope"
                        }
                    },
                    "409": {
                        "description": "Conflict in one of the weeks; nothing was stored",
                        "schema": {
                            "$ref": "#/definitions/ResponseEnvelope"
                        }
                    }
                }
            }
        },
        "/lessons/{id}": {
            "get": {
                "tags": [
                    "Lessons"
                ],
                "summary": "Get lesson",
                "parameters": [
                    {
                        "name": "id",
                        "in": "path",
                        "required": true,
                        "type": "string",
                        "description": "Lesson ID"
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
                    "Lessons"
                ],
                "summary": "Replace a lesson",
                "security": [
                    {
                        "BearerAuth": []
                    }
                ],
                "parameters": [
                    {
                        "name": "id",
                        "in": "path",
                        "required": true,
                        "type": "string",
                        "description": "Lesson ID"
                    },
                    {
                        "name": "payload",
                        "in": "body",
                        "required": true,
                        "schema": {
                            "$ref": "#/definitions/CreateLessonRequest"
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
                    "404": {
                        "description": "Not found",
                        "schema": {
                            "$ref": "#/definitions/ResponseEnvelope"
                        }
                    },
                    "409": {
                        "description": "Conflict",
                        "schema": {
                            "$ref": "#/definitions/ResponseEnvelope"
                        }
                    }
                }
            },
            "delete": {
                "tags": [
                    "Lessons"
                ],
                "summary": "Delete a lesson",
                "security": [
                    {
                        "BearerAuth": []
                    }
                ],
                "parameters": [
                    {
                        "name": "id",
                        "in": "path",
                        "required": true,
                        "type": "string",
                        "description": "Lesson ID"
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
        "/lessons/group/{id}": {
            "get": {
                "tags": [
                    "Timetable"
                ],
                "summary": "Timetable of a student group",
                "parameters": [
                    {
                        "name": "id",
                        "in": "path",
                        "required": true,
                        "type": "string",
                        "description": "Student group ID"
                    },
                    {
                        "name": "page",
                        "in": "query",
                        "type": "integer",
                        "minimum": 1
                    },
                    {
                        "name": "startDate",
                        "in": "query",
                        "type": "string",
                        "format": "date"
                    },
                    {
                        "name": "endDate",
                        "in": "query",
                        "type": "string",
                        "format": "date"
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
                        "description": "Validation error",
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
        "/lessons/group/{id}/export": {
            "get": {
                "tags": [
                    "Timetable"
                ],
                "summary": "Download the timetable of a student group",
                "produces": [
                    "text/csv",
                    "application/pdf",
                    "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet",
                    "text/calendar"
                ],
                "parameters": [
                    {
                        "name": "id",
                        "in": "path",
                        "required": true,
                        "type": "string",
                        "description": "Student group ID"
                    },
                    {
                        "name": "format",
                        "in": "query",
                        "type": "string",
                        "enum": [
                            "csv",
                            "pdf",
                            "xlsx",
                            "ics"
                        ],
                        "default": "csv"
                    },
                    {
                        "name": "page",
                        "in": "query",
                        "type": "integer",
                        "minimum": 1
                    },
                    {
                        "name": "startDate",
                        "in": "query",
                        "type": "string",
                        "format": "date"
                    },
                    {
                        "name": "endDate",
                        "in": "query",
                        "type": "string",
                        "format": "date"
                    }
                ],
                "responses": {
                    "200": {
                        "description": "File",
                        "schema": {
                            "type": "file"
                        }
                    },
                    "400": {
                        "description": "Validation error",
                        "schema": {
                            "$ref": "#/definitions/ResponseEnvelope"
                        }
                    }
                }
            }
        },
        "/lessons/teacher/{id}": {
            "get": {
                "tags": [
                    "Timetable"
                ],
                "summary": "Timetable of a teacher",
                "parameters": [
                    {
                        "name": "id",
                        "in": "path",
                        "required": true,
                        "type": "string",
                        "description": "Teacher ID"
                    },
                    {
                        "name": "page",
                        "in": "query",
                        "type": "integer",
                        "minimum": 1
                    },
                    {
                        "name": "startDate",
                        "in": "query",
                        "type": "string",
                        "format": "date"
                    },
                    {
                        "name": "endDate",
                        "in": "query",
                        "type": "string",
                        "format": "date"
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
                        "description": "Validation error",
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
        "/lessons/teacher/{id}/export": {
            "get": {
                "tags": [
                    "Timetable"
                ],
                "summary": "Download the timetable of a teacher",
                "produces": [
                    "text/csv",
                    "application/pdf",
                    "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet",
                    "text/calendar"
                ],
                "parameters": [
                    {
                        "name": "id",
                        "in": "path",
                        "required": true,
                        "type": "string",
                        "description": "Teacher ID"
                    },
                    {
                        "name": "format",
                        "in": "query",
                        "type": "string",
                        "enum": [
                            "csv",
                            "pdf",
                            "xlsx",
                            "ics"
                        ],
                        "default": "csv"
                    },
                    {
                        "name": "page",
                        "in": "query",
                        "type": "integer",
                        "minimum": 1
                    },
                    {
                        "name": "startDate",
                        "in": "query",
                        "type": "string",
                        "format": "date"
                    },
                    {
                        "name": "endDate",
                        "in": "query",
                        "type": "string",
                        "format": "date"
                    }
                ],
                "responses": {
                    "200": {
                        "description": "File",
                        "schema": {
                            "type": "file"
                        }
                    },
                    "400": {
                        "description": "Validation error",
                        "schema": {
                            "$ref": "#/definitions/ResponseEnvelope"
                        }
                    }
                }
            }
        },
        "/lessons/classroom/{id}": {
            "get": {
                "tags": [
                    "Timetable"
                ],
                "summary": "Timetable of a classroom",
                "parameters": [
                    {
                        "name": "id",
                        "in": "path",
                        "required": true,
                        "type": "string",
                        "description": "Classroom ID"
                    },
                    {
                        "name": "page",
                        "in": "query",
                        "type": "integer",
                        "minimum": 1
                    },
                    {
                        "name": "startDate",
                        "in": "query",
                        "type": "string",
                        "format": "date"
                    },
                    {
                        "name": "endDate",
                        "in": "query",
                        "type": "string",
                        "format": "date"
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
                        "description": "Validation error",
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
        "/lessons/classroom/{id}/export": {
            "get": {
                "tags": [
                    "Timetable"
                ],
                "summary": "Download the timetable of a classroom",
                "produces": [
                    "text/csv",
                    "application/pdf",
                    "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet",
                    "text/calendar"
                ],
                "parameters": [
                    {
                        "name": "id",
                        "in": "path",
                        "required": true,
                        "type": "string",
                        "description": "Classroom ID"
                    },
                    {
                        "name": "format",
                        "in": "query",
                        "type": "string",
                        "enum": [
                            "csv",
                            "pdf",
                            "xlsx",
                            "ics"
                        ],
                        "default": "csv"
                    },
                    {
                        "name": "page",
                        "in": "query",
                        "type": "integer",
                        "minimum": 1
                    },
                    {
                        "name": "startDate",
                        "in": "query",
                        "type": "string",
                        "format": "date"
                    },
                    {
                        "name": "endDate",
                        "in": "query",
                        "type": "string",
                        "format": "date"
                    }
                ],
                "responses": {
                    "200": {
                        "description": "File",
                        "schema": {
                            "type": "file"
                        }
                    },
                    "400": {
                        "description": "Validation error",
                        "schema": {
                            "$ref": "#/definitions/ResponseEnvelope"
                        }
                    }
                }
            }
        },
        "/available-timeslots": {
            "get": {
                "tags": [
                    "Availability"
                ],
                "summary": "Free timeslots on a date",
                "security": [
                    {
                        "BearerAuth": []
                    }
                ],
                "parameters": [
                    {
                        "name": "date",
                        "in": "query",
                        "required": true,
                        "type": "string",
                        "format": "date"
                    },
                    {
                        "name": "teacherId",
                        "in": "query",
                        "type": "string"
                    },
                    {
                        "name": "classroomId",
                        "in": "query",
                        "type": "string"
                    },
                    {
                        "name": "studentGroupId",
                        "in": "query",
                        "type": "string"
                    }
                ],
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
        "/available-teachers": {
            "get": {
                "tags": [
                    "Availability"
                ],
                "summary": "Teachers free in a timeslot",
                "security": [
                    {
                        "BearerAuth": []
                    }
                ],
                "parameters": [
                    {
                        "name": "date",
                        "in": "query",
                        "required": true,
                        "type": "string",
                        "format": "date"
                    },
                    {
                        "name": "timeslotId",
                        "in": "query",
                        "required": true,
                        "type": "string"
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
                        "description": "Unknown timeslot",
                        "schema": {
                            "$ref": "#/definitions/ResponseEnvelope"
                        }
                    }
                }
            }
        },
        "/available-classrooms": {
            "get": {
                "tags": [
                    "Availability"
                ],
                "summary": "Classrooms free in a timeslot",
                "security": [
                    {
                        "BearerAuth": []
                    }
                ],
                "parameters": [
                    {
                        "name": "date",
                        "in": "query",
                        "required": true,
                        "type": "string",
                        "format": "date"
                    },
                    {
                        "name": "timeslotId",
                        "in": "query",
                        "required": true,
                        "type": "string"
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
                        "description": "Unknown timeslot",
                        "schema": {
                            "$ref": "#/definitions/ResponseEnvelope"
                        }
                    }
                }
            }
        },
        "/timeslots": {
            "get": {
                "tags": [
                    "Directory"
                ],
                "summary": "List timeslots",
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
        "/timeslots/{id}": {
            "get": {
                "tags": [
                    "Directory"
                ],
                "summary": "Get one of timeslots",
                "parameters": [
                    {
                        "name": "id",
                        "in": "path",
                        "required": true,
                        "type": "string",
                        "description": "ID"
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
            }
        },
        "/classrooms": {
            "get": {
                "tags": [
                    "Directory"
                ],
                "summary": "List classrooms",
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
        "/classrooms/{id}": {
            "get": {
                "tags": [
                    "Directory"
                ],
                "summary": "Get one of classrooms",
                "parameters": [
                    {
                        "name": "id",
                        "in": "path",
                        "required": true,
                        "type": "string",
                        "description": "ID"
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
            }
        },
        "/teachers": {
            "get": {
                "tags": [
                    "Directory"
                ],
                "summary": "List teachers",
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
        "/teachers/{id}": {
            "get": {
                "tags": [
                    "Directory"
                ],
                "summary": "Get one of teachers",
                "parameters": [
                    {
                        "name": "id",
                        "in": "path",
                        "required": true,
                        "type": "string",
                        "description": "ID"
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
            }
        },
        "/student-groups": {
            "get": {
                "tags": [
                    "Directory"
                ],
                "summary": "List student groups",
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
        "/student-groups/{id}": {
            "get": {
                "tags": [
                    "Directory"
                ],
                "summary": "Get one of student groups",
                "parameters": [
                    {
                        "name": "id",
                        "in": "path",
                        "required": true,
                        "type": "string",
                        "description": "ID"
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
            }
        },
        "/subjects": {
            "get": {
                "tags": [
                    "Directory"
                ],
                "summary": "List subjects",
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
        "/subjects/{id}": {
            "get": {
                "tags": [
                    "Directory"
                ],
                "summary": "Get one of subjects",
                "parameters": [
                    {
                        "name": "id",
                        "in": "path",
                        "required": true,
                        "type": "string",
                        "description": "ID"
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
            }
        }
    },
    "definitions": {
        "CreateLessonRequest": {
            "type": "object",
            "properties": {
                "studentGroupId": {
                    "type": "string",
                    "format": "uuid"
                },
                "subjectId": {
                    "type": "string",
                    "format": "uuid"
                },
                "teacherId": {
                    "type": "string",
                    "format": "uuid"
                },
                "classroomId": {
                    "type": "string",
                    "format": "uuid"
                },
                "timeslotId": {
                    "type": "string",
                    "format": "uuid"
                },
                "date": {
                    "type": "string",
                    "format": "date"
                },
                "lessonType": {
                    "type": "string",
                    "enum": [
                        "LECTURE",
                        "SEMINAR",
                        "PRACTICAL_LESSON",
                        "LABORATORY_LESSON",
                        "EXAM"
                    ]
                }
            },
            "required": [
                "studentGroupId",
                "subjectId",
                "teacherId",
                "classroomId",
                "timeslotId",
                "date",
                "lessonType"
            ]
        },
        "CreateRecurringLessonRequest": {
            "type": "object",
            "properties": {
                "studentGroupId": {
                    "type": "string",
                    "format": "uuid"
                },
                "subjectId": {
                    "type": "string",
                    "format": "uuid"
                },
                "teacherId": {
                    "type": "string",
                    "format": "uuid"
                },
                "classroomId": {
                    "type": "string",
                    "format": "uuid"
                },
                "timeslotId": {
                    "type": "string",
                    "format": "uuid"
                },
                "date": {
                    "type": "string",
                    "format": "date"
                },
                "lessonType": {
                    "type": "string",
                    "enum": [
                        "LECTURE",
                        "SEMINAR",
                        "PRACTICAL_LESSON",
                        "LABORATORY_LESSON",
                        "EXAM"
                    ]
                },
                "numberOfWeeks": {
                    "type": "integer",
                    "minimum": 1
                }
            },
            "required": [
                "studentGroupId",
                "subjectId",
                "teacherId",
                "classroomId",
                "timeslotId",
                "date",
                "lessonType",
                "numberOfWeeks"
            ]
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
                },
                "details": {
                    "type": "object"
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
