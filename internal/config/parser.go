// Package config provides parsing and validation of job configuration
// files (JSON/YAML).
package config

import (
	"encoding/json"
	"fmt"
	"os"
	"path"
	"strings"

	"gopkg.in/yaml.v3"
)

// ParseJobFile parses and validates a job file. The format (JSON/YAML)
// is detected from the file extension, falling back to content sniffing.
// Returns a Result with parsed data, validation results, and any errors.
func ParseJobFile(filepath string) *Result {
	result := &Result{FilePath: filepath}

	format := DetectFormat(filepath)
	if format == "" {
		content, err := os.ReadFile(filepath)
		if err != nil {
			result.ParseErrors = append(result.ParseErrors, readError(filepath, err))
			return result
		}
		return finishJobResult(result, parseSniffed(string(content), filepath))
	}

	return finishJobResult(result, parseFile(filepath, format))
}

// ParseJobString parses and validates job file content from a string.
// If format is empty, it is auto-detected from the content.
func ParseJobString(content string, format string) *Result {
	result := &Result{Format: format}

	switch format {
	case "":
		return finishJobResult(result, parseSniffed(content, ""))
	case "json":
		return finishJobResult(result, ParseJSONString(content))
	case "yaml":
		return finishJobResult(result, ParseYAMLString(content))
	default:
		result.ParseErrors = append(result.ParseErrors, ParseError{
			Message: fmt.Sprintf("unsupported format: %s", format),
			Type:    ErrorTypeFormat,
		})
		return result
	}
}

// finishJobResult folds a parse result into the combined result and runs
// schema validation when parsing succeeded.
func finishJobResult(result *Result, parsed *ParseResult) *Result {
	result.Data = parsed.Data
	result.ParseErrors = parsed.Errors
	result.Format = parsed.Format

	if parsed.IsValid() {
		result.ValidationErrors = ValidateJobConfig(parsed.Data).Errors
	}
	return result
}

// parseSniffed parses content whose format could not be determined from
// a file extension. JSON is tried first since JSON is also valid YAML.
func parseSniffed(content, filepath string) *ParseResult {
	var parsed *ParseResult
	switch {
	case IsJSON(content):
		parsed = ParseJSONString(content)
	case IsYAML(content):
		parsed = ParseYAMLString(content)
	default:
		return &ParseResult{
			FilePath: filepath,
			Errors: []ParseError{{
				Path:    filepath,
				Message: "unable to detect job file format: not valid JSON or YAML",
				Type:    ErrorTypeFormat,
			}},
		}
	}
	parsed.FilePath = filepath
	stampErrorPaths(parsed, filepath)
	return parsed
}

// parseFile reads and parses a job file in a known format.
func parseFile(filepath, format string) *ParseResult {
	content, err := os.ReadFile(filepath)
	if err != nil {
		return &ParseResult{
			FilePath: filepath,
			Format:   format,
			Errors:   []ParseError{readError(filepath, err)},
		}
	}

	var parsed *ParseResult
	if format == "json" {
		parsed = ParseJSONString(string(content))
	} else {
		parsed = ParseYAMLString(string(content))
	}
	parsed.FilePath = filepath
	stampErrorPaths(parsed, filepath)
	return parsed
}

func readError(filepath string, err error) ParseError {
	return ParseError{
		Path:    filepath,
		Message: fmt.Sprintf("failed to read file: %v", err),
		Type:    ErrorTypeIO,
	}
}

func stampErrorPaths(parsed *ParseResult, filepath string) {
	if filepath == "" {
		return
	}
	for i := range parsed.Errors {
		if parsed.Errors[i].Path == "" {
			parsed.Errors[i].Path = filepath
		}
	}
}

// DetectFormat detects the job file format from the file extension.
// Returns "json", "yaml", or empty string if the format is unknown.
func DetectFormat(filepath string) string {
	switch strings.ToLower(path.Ext(filepath)) {
	case ".json":
		return "json"
	case ".yaml", ".yml":
		return "yaml"
	default:
		return ""
	}
}

// IsJSON checks if the content appears to be JSON.
func IsJSON(content string) bool {
	content = strings.TrimSpace(content)
	return strings.HasPrefix(content, "{") || strings.HasPrefix(content, "[")
}

// IsYAML checks if the content parses as YAML. JSON is also valid YAML,
// so this may return true for JSON content.
func IsYAML(content string) bool {
	content = strings.TrimSpace(content)
	if content == "" {
		return false
	}
	var data interface{}
	err := yaml.Unmarshal([]byte(content), &data)
	return err == nil && data != nil
}

// ParseJSONFile parses a JSON job file from the given path.
func ParseJSONFile(filepath string) *ParseResult {
	return parseFile(filepath, "json")
}

// ParseYAMLFile parses a YAML job file from the given path.
func ParseYAMLFile(filepath string) *ParseResult {
	return parseFile(filepath, "yaml")
}

// ParseJSONString parses JSON job content from a string.
func ParseJSONString(content string) *ParseResult {
	result := &ParseResult{Format: "json"}

	content = strings.TrimSpace(content)
	if content == "" {
		result.Errors = append(result.Errors, ParseError{
			Message: "empty content: expected JSON object",
			Type:    ErrorTypeSyntax,
		})
		return result
	}

	var data interface{}
	if err := json.Unmarshal([]byte(content), &data); err != nil {
		result.Errors = append(result.Errors, parseJSONError(err, content))
		return result
	}

	result.Data, result.Errors = requireMapping(data, "JSON object", result.Errors)
	return result
}

// ParseYAMLString parses YAML job content from a string.
func ParseYAMLString(content string) *ParseResult {
	result := &ParseResult{Format: "yaml"}

	if strings.TrimSpace(content) == "" {
		result.Errors = append(result.Errors, ParseError{
			Message: "empty content: expected YAML document",
			Type:    ErrorTypeSyntax,
		})
		return result
	}

	var data interface{}
	if err := yaml.Unmarshal([]byte(content), &data); err != nil {
		result.Errors = append(result.Errors, parseYAMLError(err))
		return result
	}

	result.Data, result.Errors = requireMapping(data, "YAML mapping", result.Errors)
	return result
}

// requireMapping checks that the decoded document is a string-keyed
// mapping, the only valid top-level shape for a job file. A nil document
// (e.g. a file of only comments) yields no data and no error; the
// schema validator reports the missing job section.
func requireMapping(data interface{}, want string, errs []ParseError) (map[string]interface{}, []ParseError) {
	if data == nil {
		return nil, errs
	}
	dataMap, ok := data.(map[string]interface{})
	if !ok {
		return nil, append(errs, ParseError{
			Message: fmt.Sprintf("invalid job file: expected %s, got %T", want, data),
			Type:    ErrorTypeFormat,
		})
	}
	return dataMap, errs
}

// parseJSONError extracts location information from a JSON unmarshaling
// error.
func parseJSONError(err error, content string) ParseError {
	parseErr := ParseError{
		Message: err.Error(),
		Type:    ErrorTypeSyntax,
	}

	if syntaxErr, ok := err.(*json.SyntaxError); ok {
		parseErr.Offset = syntaxErr.Offset
		parseErr.Line, parseErr.Column = offsetToLineColumn(content, syntaxErr.Offset)
		parseErr.Message = fmt.Sprintf("JSON syntax error at offset %d: %s", syntaxErr.Offset, syntaxErr.Error())
	}
	if typeErr, ok := err.(*json.UnmarshalTypeError); ok {
		parseErr.Offset = typeErr.Offset
		parseErr.Line, parseErr.Column = offsetToLineColumn(content, typeErr.Offset)
		parseErr.Message = fmt.Sprintf("type error at field '%s': expected %s, got %s",
			typeErr.Field, typeErr.Type.String(), typeErr.Value)
	}
	return parseErr
}

// offsetToLineColumn converts a byte offset to 1-based line and column.
func offsetToLineColumn(content string, offset int64) (line, column int) {
	if offset <= 0 {
		return 1, 1
	}
	line = 1
	column = 1
	for i := int64(0); i < offset && i < int64(len(content)); i++ {
		if content[i] == '\n' {
			line++
			column = 1
		} else {
			column++
		}
	}
	return line, column
}

// parseYAMLError extracts location information from a YAML unmarshaling
// error. The yaml.v3 library encodes line info in the message as
// "yaml: line X: ...".
func parseYAMLError(err error) ParseError {
	parseErr := ParseError{
		Message: err.Error(),
		Type:    ErrorTypeSyntax,
	}

	if typeErr, ok := err.(*yaml.TypeError); ok {
		parseErr.Message = fmt.Sprintf("YAML type error: %s", strings.Join(typeErr.Errors, "; "))
	}

	if strings.Contains(err.Error(), "yaml: line ") {
		var line int
		if _, scanErr := fmt.Sscanf(err.Error(), "yaml: line %d:", &line); scanErr == nil {
			parseErr.Line = line
		}
	}
	return parseErr
}
