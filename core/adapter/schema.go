package adapter

// geminiUnsupportedSchemaKeys Gemini responseSchema 不接受的 JSON Schema 字段
var geminiUnsupportedSchemaKeys = []string{
	"default", "minLength", "maxLength", "additionalProperties",
	"title", "examples", "$schema", "$id",
}

// SanitizeSchema 返回清洗后的 JSON Schema 副本，入参不会被修改
// 删除 Gemini 不支持的字段；["string","null"] 这类联合类型取第一个非 null 类型
func SanitizeSchema(schema map[string]any) map[string]any {
	if schema == nil {
		return nil
	}
	out := make(map[string]any, len(schema))
	for k, v := range schema {
		out[k] = v
	}
	for _, k := range geminiUnsupportedSchemaKeys {
		delete(out, k)
	}

	if types, ok := out["type"].([]any); ok {
		for _, t := range types {
			if s, ok := t.(string); ok && s != "null" {
				out["type"] = s
				break
			}
		}
	}

	if props, ok := out["properties"].(map[string]any); ok {
		clean := make(map[string]any, len(props))
		for name, v := range props {
			if child, ok := v.(map[string]any); ok {
				clean[name] = SanitizeSchema(child)
			} else {
				clean[name] = v
			}
		}
		out["properties"] = clean
	}
	if items, ok := out["items"].(map[string]any); ok {
		out["items"] = SanitizeSchema(items)
	}
	return out
}
