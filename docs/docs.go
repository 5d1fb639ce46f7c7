// Package docs 注册 Swagger 文档，由 gin-swagger 在 /swagger 下提供
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
        "/reservations": {
            "get": {"security": [{"Bearer": []}], "tags": ["预订"], "summary": "获取预订列表",
                "parameters": [
                    {"type": "integer", "name": "property_id", "in": "query"},
                    {"type": "string", "name": "status", "in": "query"},
                    {"type": "string", "name": "code", "in": "query"},
                    {"type": "string", "name": "start_from", "in": "query"},
                    {"type": "string", "name": "start_to", "in": "query"},
                    {"type": "integer", "name": "page", "in": "query"},
                    {"type": "integer", "name": "page_size", "in": "query"}
                ],
                "responses": {"200": {"description": "OK", "schema": {"$ref": "#/definitions/response.Response"}}}},
            "post": {"security": [{"Bearer": []}], "tags": ["预订"], "summary": "创建预订",
                "parameters": [{"name": "request", "in": "body", "required": true, "schema": {"$ref": "#/definitions/reservation.CreateRequest"}}],
                "responses": {"201": {"description": "Created", "schema": {"$ref": "#/definitions/response.Response"}}}}
        },
        "/reservations/{id}": {
            "get": {"security": [{"Bearer": []}], "tags": ["预订"], "summary": "获取预订详情",
                "parameters": [{"$ref": "#/parameters/id"}],
                "responses": {"200": {"description": "OK", "schema": {"$ref": "#/definitions/response.Response"}}}}
        },
        "/reservations/{id}/history": {
            "get": {"security": [{"Bearer": []}], "tags": ["预订"], "summary": "预订操作记录",
                "parameters": [{"$ref": "#/parameters/id"}],
                "responses": {"200": {"description": "OK", "schema": {"$ref": "#/definitions/response.Response"}}}}
        },
        "/reservation-codes/{code}": {
            "get": {"security": [{"Bearer": []}], "tags": ["预订"], "summary": "根据预订码获取预订",
                "parameters": [{"type": "string", "name": "code", "in": "path", "required": true}],
                "responses": {"200": {"description": "OK", "schema": {"$ref": "#/definitions/response.Response"}}}}
        },
        "/reservations/{id}/confirm": {
            "post": {"security": [{"Bearer": []}], "tags": ["预订"], "summary": "确认预订",
                "parameters": [{"$ref": "#/parameters/id"}],
                "responses": {"200": {"description": "OK", "schema": {"$ref": "#/definitions/response.Response"}}}}
        },
        "/reservations/{id}/cancel": {
            "post": {"security": [{"Bearer": []}], "tags": ["预订"], "summary": "取消预订",
                "parameters": [{"$ref": "#/parameters/id"}, {"name": "request", "in": "body", "schema": {"$ref": "#/definitions/reservation.CancelRequest"}}],
                "responses": {"200": {"description": "OK", "schema": {"$ref": "#/definitions/response.Response"}}}}
        },
        "/reservations/{id}/complete": {
            "post": {"security": [{"Bearer": []}], "tags": ["预订"], "summary": "完成预订（退房）",
                "parameters": [{"$ref": "#/parameters/id"}],
                "responses": {"200": {"description": "OK", "schema": {"$ref": "#/definitions/response.Response"}}}}
        },
        "/reservations/{id}/qrcode": {
            "get": {"security": [{"Bearer": []}], "tags": ["预订"], "summary": "获取入住二维码", "produces": ["image/png"],
                "parameters": [{"$ref": "#/parameters/id"}],
                "responses": {"200": {"description": "OK", "schema": {"type": "file"}}}}
        },
        "/reservations/{id}/payments": {
            "get": {"security": [{"Bearer": []}], "tags": ["支付"], "summary": "预订收款汇总",
                "parameters": [{"$ref": "#/parameters/id"}],
                "responses": {"200": {"description": "OK", "schema": {"$ref": "#/definitions/response.Response"}}}}
        },
        "/reservations/{id}/evaluation": {
            "post": {"security": [{"Bearer": []}], "tags": ["评价"], "summary": "提交住宿评价",
                "parameters": [{"$ref": "#/parameters/id"}, {"name": "request", "in": "body", "required": true, "schema": {"$ref": "#/definitions/evaluation.CreateRequest"}}],
                "responses": {"201": {"description": "Created", "schema": {"$ref": "#/definitions/response.Response"}}}}
        },
        "/properties": {
            "get": {"security": [{"Bearer": []}], "tags": ["房源"], "summary": "获取房源列表",
                "parameters": [
                    {"type": "string", "name": "name", "in": "query"},
                    {"type": "string", "name": "occupancy_status", "in": "query"},
                    {"type": "integer", "name": "min_capacity", "in": "query"},
                    {"type": "integer", "name": "page", "in": "query"},
                    {"type": "integer", "name": "page_size", "in": "query"}
                ],
                "responses": {"200": {"description": "OK", "schema": {"$ref": "#/definitions/response.Response"}}}}
        },
        "/properties/{id}": {
            "get": {"security": [{"Bearer": []}], "tags": ["房源"], "summary": "获取房源详情",
                "parameters": [{"$ref": "#/parameters/id"}],
                "responses": {"200": {"description": "OK", "schema": {"$ref": "#/definitions/response.Response"}}}}
        },
        "/properties/{id}/quote": {
            "post": {"tags": ["预订"], "summary": "计算住宿报价",
                "parameters": [{"$ref": "#/parameters/id"}, {"name": "request", "in": "body", "required": true, "schema": {"$ref": "#/definitions/reservation.QuoteRequest"}}],
                "responses": {"200": {"description": "OK", "schema": {"$ref": "#/definitions/response.Response"}}}}
        },
        "/properties/{id}/calendar": {
            "get": {"tags": ["预订"], "summary": "获取房源月历",
                "parameters": [{"$ref": "#/parameters/id"}, {"type": "integer", "name": "year", "in": "query", "required": true}, {"type": "integer", "name": "month", "in": "query", "required": true}],
                "responses": {"200": {"description": "OK", "schema": {"$ref": "#/definitions/response.Response"}}}}
        },
        "/properties/{id}/availability": {
            "get": {"tags": ["预订"], "summary": "查询日期段可用性",
                "parameters": [{"$ref": "#/parameters/id"}, {"$ref": "#/parameters/start_date"}, {"$ref": "#/parameters/end_date"}],
                "responses": {"200": {"description": "OK", "schema": {"$ref": "#/definitions/response.Response"}}}}
        },
        "/properties/{id}/overrides": {
            "get": {"security": [{"Bearer": []}], "tags": ["房源"], "summary": "获取区间内的覆盖设置",
                "parameters": [{"$ref": "#/parameters/id"}, {"$ref": "#/parameters/start_date"}, {"$ref": "#/parameters/end_date"}],
                "responses": {"200": {"description": "OK", "schema": {"$ref": "#/definitions/response.Response"}}}},
            "put": {"security": [{"Bearer": []}], "tags": ["房源"], "summary": "设置单日封锁或特价",
                "parameters": [{"$ref": "#/parameters/id"}, {"name": "request", "in": "body", "required": true, "schema": {"$ref": "#/definitions/property.OverrideRequest"}}],
                "responses": {"200": {"description": "OK", "schema": {"$ref": "#/definitions/response.Response"}}}}
        },
        "/properties/{id}/block": {
            "post": {"security": [{"Bearer": []}], "tags": ["房源"], "summary": "封锁日期段",
                "parameters": [{"$ref": "#/parameters/id"}, {"name": "request", "in": "body", "required": true, "schema": {"$ref": "#/definitions/property.PeriodRequest"}}],
                "responses": {"200": {"description": "OK", "schema": {"$ref": "#/definitions/response.Response"}}}}
        },
        "/properties/{id}/free": {
            "post": {"security": [{"Bearer": []}], "tags": ["房源"], "summary": "解除日期段封锁",
                "parameters": [{"$ref": "#/parameters/id"}, {"name": "request", "in": "body", "required": true, "schema": {"$ref": "#/definitions/property.PeriodRequest"}}],
                "responses": {"200": {"description": "OK", "schema": {"$ref": "#/definitions/response.Response"}}}}
        },
        "/properties/{id}/maintenance": {
            "put": {"security": [{"Bearer": []}], "tags": ["房源"], "summary": "开启或结束维护",
                "parameters": [{"$ref": "#/parameters/id"}, {"name": "request", "in": "body", "required": true, "schema": {"$ref": "#/definitions/property.SwitchRequest"}}],
                "responses": {"200": {"description": "OK", "schema": {"$ref": "#/definitions/response.Response"}}}}
        },
        "/properties/{id}/listed": {
            "put": {"security": [{"Bearer": []}], "tags": ["房源"], "summary": "上架或下架房源",
                "parameters": [{"$ref": "#/parameters/id"}, {"name": "request", "in": "body", "required": true, "schema": {"$ref": "#/definitions/property.SwitchRequest"}}],
                "responses": {"200": {"description": "OK", "schema": {"$ref": "#/definitions/response.Response"}}}}
        },
        "/properties/{id}/ledger": {
            "get": {"security": [{"Bearer": []}], "tags": ["支付"], "summary": "房源收支汇总",
                "parameters": [{"$ref": "#/parameters/id"}, {"$ref": "#/parameters/start_date"}, {"$ref": "#/parameters/end_date"}],
                "responses": {"200": {"description": "OK", "schema": {"$ref": "#/definitions/response.Response"}}}}
        },
        "/properties/{id}/stats": {
            "get": {"security": [{"Bearer": []}], "tags": ["房源"], "summary": "房源预订状态统计",
                "parameters": [{"$ref": "#/parameters/id"}],
                "responses": {"200": {"description": "OK", "schema": {"$ref": "#/definitions/response.Response"}}}}
        },
        "/cleaning-tasks": {
            "get": {"security": [{"Bearer": []}], "tags": ["房源"], "summary": "某天的清洁任务",
                "parameters": [{"type": "string", "name": "date", "in": "query", "required": true}],
                "responses": {"200": {"description": "OK", "schema": {"$ref": "#/definitions/response.Response"}}}}
        },
        "/properties/{id}/evaluations": {
            "get": {"tags": ["评价"], "summary": "房源评价列表",
                "parameters": [{"$ref": "#/parameters/id"}, {"type": "integer", "name": "page", "in": "query"}, {"type": "integer", "name": "page_size", "in": "query"}],
                "responses": {"200": {"description": "OK", "schema": {"$ref": "#/definitions/response.Response"}}}}
        },
        "/properties/{id}/rating": {
            "get": {"tags": ["评价"], "summary": "房源评分",
                "parameters": [{"$ref": "#/parameters/id"}],
                "responses": {"200": {"description": "OK", "schema": {"$ref": "#/definitions/response.Response"}}}}
        },
        "/payments": {
            "post": {"security": [{"Bearer": []}], "tags": ["支付"], "summary": "登记支付",
                "parameters": [{"name": "request", "in": "body", "required": true, "schema": {"$ref": "#/definitions/payment.RecordRequest"}}],
                "responses": {"201": {"description": "Created", "schema": {"$ref": "#/definitions/response.Response"}}}}
        },
        "/payments/{id}": {
            "get": {"security": [{"Bearer": []}], "tags": ["支付"], "summary": "查询支付",
                "parameters": [{"$ref": "#/parameters/id"}],
                "responses": {"200": {"description": "OK", "schema": {"$ref": "#/definitions/response.Response"}}}}
        },
        "/payments/{id}/validate": {
            "post": {"security": [{"Bearer": []}], "tags": ["支付"], "summary": "确认到账",
                "parameters": [{"$ref": "#/parameters/id"}],
                "responses": {"200": {"description": "OK", "schema": {"$ref": "#/definitions/response.Response"}}}}
        },
        "/payments/{id}/ledger": {
            "get": {"security": [{"Bearer": []}], "tags": ["支付"], "summary": "支付对应的财务流水",
                "parameters": [{"$ref": "#/parameters/id"}],
                "responses": {"200": {"description": "OK", "schema": {"$ref": "#/definitions/response.Response"}}}}
        },
        "/payments/{id}/fail": {
            "post": {"security": [{"Bearer": []}], "tags": ["支付"], "summary": "标记支付失败",
                "parameters": [{"$ref": "#/parameters/id"}],
                "responses": {"200": {"description": "OK", "schema": {"$ref": "#/definitions/response.Response"}}}}
        },
        "/payments/{id}/refund": {
            "post": {"security": [{"Bearer": []}], "tags": ["支付"], "summary": "退款",
                "parameters": [{"$ref": "#/parameters/id"}],
                "responses": {"200": {"description": "OK", "schema": {"$ref": "#/definitions/response.Response"}}}}
        },
        "/payment-types": {
            "get": {"tags": ["支付"], "summary": "支付方式列表",
                "responses": {"200": {"description": "OK", "schema": {"$ref": "#/definitions/response.Response"}}}},
            "post": {"security": [{"Bearer": []}], "tags": ["支付"], "summary": "新增支付方式",
                "parameters": [{"name": "request", "in": "body", "required": true, "schema": {"$ref": "#/definitions/payment.CreateTypeRequest"}}],
                "responses": {"201": {"description": "Created", "schema": {"$ref": "#/definitions/response.Response"}}}}
        },
        "/evaluations/{id}/moderate": {
            "post": {"security": [{"Bearer": []}], "tags": ["评价"], "summary": "审核评价",
                "parameters": [{"$ref": "#/parameters/id"}, {"name": "request", "in": "body", "required": true, "schema": {"$ref": "#/definitions/evaluation.ModerateRequest"}}],
                "responses": {"200": {"description": "OK", "schema": {"$ref": "#/definitions/response.Response"}}}}
        },
        "/evaluations/{id}/respond": {
            "post": {"security": [{"Bearer": []}], "tags": ["评价"], "summary": "回复评价",
                "parameters": [{"$ref": "#/parameters/id"}, {"name": "request", "in": "body", "required": true, "schema": {"$ref": "#/definitions/evaluation.RespondRequest"}}],
                "responses": {"200": {"description": "OK", "schema": {"$ref": "#/definitions/response.Response"}}}}
        }
    },
    "parameters": {
        "id": {"type": "integer", "name": "id", "in": "path", "required": true},
        "start_date": {"type": "string", "name": "start_date", "in": "query", "required": true},
        "end_date": {"type": "string", "name": "end_date", "in": "query", "required": true}
    },
    "definitions": {
        "response.Response": {"type": "object", "properties": {
            "code": {"type": "integer"}, "message": {"type": "string"}, "data": {}
        }},
        "reservation.CreateRequest": {"type": "object", "required": ["property_id", "start_date", "end_date"], "properties": {
            "property_id": {"type": "integer"}, "client_id": {"type": "integer"},
            "start_date": {"type": "string"}, "end_date": {"type": "string"},
            "guest_count": {"type": "integer"}, "payment_mode": {"type": "string", "enum": ["full", "deposit", "installments"]},
            "discount_amount": {"type": "number"}, "discount_reason": {"type": "string"},
            "client_comment": {"type": "string"}
        }},
        "reservation.CancelRequest": {"type": "object", "properties": {"reason": {"type": "string"}}},
        "reservation.QuoteRequest": {"type": "object", "required": ["start_date", "end_date"], "properties": {
            "start_date": {"type": "string"}, "end_date": {"type": "string"},
            "discount_amount": {"type": "number"}, "payment_mode": {"type": "string"}
        }},
        "property.OverrideRequest": {"type": "object", "required": ["date"], "properties": {
            "date": {"type": "string"}, "blocked": {"type": "boolean"},
            "special_price": {"type": "number"}, "reason": {"type": "string"}
        }},
        "property.PeriodRequest": {"type": "object", "required": ["start_date", "end_date"], "properties": {
            "start_date": {"type": "string"}, "end_date": {"type": "string"}, "reason": {"type": "string"}
        }},
        "property.SwitchRequest": {"type": "object", "required": ["on"], "properties": {"on": {"type": "boolean"}}},
        "payment.RecordRequest": {"type": "object", "required": ["reservation_id", "payment_type_id", "amount"], "properties": {
            "reservation_id": {"type": "integer"}, "payment_type_id": {"type": "integer"},
            "amount": {"type": "number"}, "external_ref": {"type": "string"},
            "notes": {"type": "string"}, "gateway_response": {"type": "object"}
        }},
        "payment.CreateTypeRequest": {"type": "object", "required": ["name"], "properties": {
            "name": {"type": "string"}, "fee_percent": {"type": "number"}, "fee_fixed": {"type": "number"}
        }},
        "evaluation.CreateRequest": {"type": "object", "required": ["overall_rating", "cleanliness_rating", "equipment_rating", "location_rating", "value_rating", "comment"], "properties": {
            "overall_rating": {"type": "integer"}, "cleanliness_rating": {"type": "integer"},
            "equipment_rating": {"type": "integer"}, "location_rating": {"type": "integer"},
            "value_rating": {"type": "integer"}, "comment": {"type": "string"},
            "positives": {"type": "string"}, "improvements": {"type": "string"},
            "recommends": {"type": "boolean"}, "would_return": {"type": "boolean"}
        }},
        "evaluation.ModerateRequest": {"type": "object", "required": ["approved"], "properties": {
            "approved": {"type": "boolean"}, "reason": {"type": "string"}
        }},
        "evaluation.RespondRequest": {"type": "object", "required": ["response"], "properties": {"response": {"type": "string"}}}
    },
    "securityDefinitions": {
        "Bearer": {"type": "apiKey", "name": "Authorization", "in": "header"}
    }
}`

// SwaggerInfo 文档元信息，Host 与 Schemes 运行时可覆盖
var SwaggerInfo = &swag.Spec{
	Version:          "1.0",
	Host:             "",
	BasePath:         "/api/v1",
	Schemes:          []string{},
	Title:            "Lodges Reservation API",
	Description:      "房源预订、计价、房态与收款接口",
	InfoInstanceName: "swagger",
	SwaggerTemplate:  docTemplate,
	LeftDelim:        "{{",
	RightDelim:       "}}",
}

func init() {
	swag.Register(SwaggerInfo.InstanceName(), SwaggerInfo)
}
