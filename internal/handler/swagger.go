package handler

import (
	"encoding/json"
	"net/http"
	"strings"

	"github.com/labstack/echo/v4"
	"github.com/spendly/spendly-backend/docs"
	"github.com/swaggo/swag"
)

// OpenAPI3Spec represents an OpenAPI 3.0 spec structure
type OpenAPI3Spec struct {
	OpenAPI    string                 `json:"openapi"`
	Info       map[string]interface{} `json:"info"`
	Servers    []Server               `json:"servers"`
	Paths      map[string]interface{} `json:"paths"`
	Components map[string]interface{} `json:"components,omitempty"`
}

// Server represents an OpenAPI 3.0 server
type Server struct {
	URL         string `json:"url"`
	Description string `json:"description"`
}

var openAPIServers = []Server{
	{URL: "http://localhost:8080/api/v1", Description: "Local Development"},
	{URL: "https://api.spendly.app/api/v1", Description: "Production"},
}

// transformRefs recursively rewrites $ref from #/definitions/ to #/components/schemas/
// and converts Swagger 2.0 parameters to OpenAPI 3.0 format
func transformRefs(data interface{}) interface{} {
	switch v := data.(type) {
	case map[string]interface{}:
		result := make(map[string]interface{})

		// A parameter object has both "in" and "name"
		if _, hasIn := v["in"]; hasIn {
			if _, hasName := v["name"]; hasName {
				return transformParameter(v)
			}
		}

		for key, value := range v {
			if key == "$ref" {
				if ref, ok := value.(string); ok {
					result[key] = strings.Replace(ref, "#/definitions/", "#/components/schemas/", 1)
				} else {
					result[key] = value
				}
			} else {
				result[key] = transformRefs(value)
			}
		}
		return result
	case []interface{}:
		result := make([]interface{}, len(v))
		for i, item := range v {
			result[i] = transformRefs(item)
		}
		return result
	default:
		return data
	}
}

// transformParameter converts a Swagger 2.0 parameter to OpenAPI 3.0 format
func transformParameter(param map[string]interface{}) map[string]interface{} {
	// Body parameters are lifted into requestBody by transformOperation
	if param["in"] == "body" {
		return param
	}

	result := make(map[string]interface{})
	for _, field := range []string{"name", "in", "description", "required"} {
		if val, ok := param[field]; ok {
			result[field] = val
		}
	}

	schema := make(map[string]interface{})
	for _, field := range []string{"type", "format", "enum", "default", "minimum", "maximum", "items"} {
		if val, ok := param[field]; ok {
			if field == "items" {
				schema[field] = transformRefs(val)
			} else {
				schema[field] = val
			}
		}
	}
	if len(schema) > 0 {
		result["schema"] = schema
	}

	return result
}

// transformOperation moves body parameters into requestBody and wraps
// response schemas in a content map. Errors are always served as JSON.
func transformOperation(op map[string]interface{}) map[string]interface{} {
	result := transformRefs(op).(map[string]interface{})

	produces := "application/json"
	if list, ok := op["produces"].([]interface{}); ok && len(list) > 0 {
		if mt, ok := list[0].(string); ok {
			produces = mt
		}
	}
	delete(result, "produces")
	delete(result, "consumes")

	if params, ok := result["parameters"].([]interface{}); ok {
		kept := make([]interface{}, 0, len(params))
		for _, p := range params {
			param, _ := p.(map[string]interface{})
			if param["in"] != "body" {
				kept = append(kept, p)
				continue
			}
			result["requestBody"] = map[string]interface{}{
				"description": param["description"],
				"required":    param["required"],
				"content": map[string]interface{}{
					"application/json": map[string]interface{}{"schema": transformRefs(param["schema"])},
				},
			}
		}
		if len(kept) > 0 {
			result["parameters"] = kept
		} else {
			delete(result, "parameters")
		}
	}

	if responses, ok := result["responses"].(map[string]interface{}); ok {
		for code, r := range responses {
			resp, ok := r.(map[string]interface{})
			if !ok {
				continue
			}
			schema, hasSchema := resp["schema"]
			if !hasSchema {
				continue
			}
			delete(resp, "schema")
			mediaType := produces
			if !strings.HasPrefix(code, "2") {
				mediaType = "application/json"
			}
			resp["content"] = map[string]interface{}{
				mediaType: map[string]interface{}{"schema": schema},
			}
		}
	}

	return result
}

// transformPaths converts every operation of every path
func transformPaths(paths map[string]interface{}) map[string]interface{} {
	result := make(map[string]interface{}, len(paths))
	for path, item := range paths {
		ops, ok := item.(map[string]interface{})
		if !ok {
			continue
		}
		converted := make(map[string]interface{}, len(ops))
		for method, op := range ops {
			if operation, ok := op.(map[string]interface{}); ok {
				converted[method] = transformOperation(operation)
			}
		}
		result[path] = converted
	}
	return result
}

// ServeOpenAPI3Spec serves the swagger spec converted to OpenAPI 3.0 with multiple servers
func ServeOpenAPI3Spec(c echo.Context) error {
	doc, err := swag.ReadDoc(docs.SwaggerInfo.InstanceName())
	if err != nil {
		return NewInternalError(c, "Failed to read swagger doc")
	}

	var swagger2 map[string]interface{}
	if err := json.Unmarshal([]byte(doc), &swagger2); err != nil {
		return NewInternalError(c, "Failed to parse swagger doc")
	}

	info, _ := swagger2["info"].(map[string]interface{})
	paths, _ := swagger2["paths"].(map[string]interface{})

	components := make(map[string]interface{})
	if _, ok := swagger2["securityDefinitions"].(map[string]interface{}); ok {
		// The API only issues HS256 bearer tokens
		components["securitySchemes"] = map[string]interface{}{
			"BearerAuth": map[string]interface{}{
				"type":         "http",
				"scheme":       "bearer",
				"bearerFormat": "JWT",
			},
		}
	}
	if definitions, ok := swagger2["definitions"].(map[string]interface{}); ok {
		components["schemas"] = transformRefs(definitions)
	}

	return c.JSON(http.StatusOK, OpenAPI3Spec{
		OpenAPI:    "3.0.3",
		Info:       info,
		Servers:    openAPIServers,
		Paths:      transformPaths(paths),
		Components: components,
	})
}
