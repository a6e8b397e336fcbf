package store

import (
	"bytes"
	"fmt"
	"mime/multipart"
	"sort"
	"strings"
)

// Multipart field names understood by the prediction service
const (
	FieldFormula   = "formula"
	FieldModelType = "model_type"
	FieldFile      = "file"
)

// FileField is an uploaded file, typically a CSV with formulas in the first column
type FileField struct {
	Name    string
	Content []byte
}

// PredictPayload is the form sent to the prediction endpoint
type PredictPayload struct {
	Formulas  []string
	ModelType string
	File      *FileField
	Fields    map[string]string
}

// IsEmpty reports whether the payload carries neither formulas nor a file
func (p PredictPayload) IsEmpty() bool {
	return len(p.Formulas) == 0 && (p.File == nil || len(p.File.Content) == 0)
}

// Encode writes the payload as multipart form data and returns the body and its content type
func (p PredictPayload) Encode() (*bytes.Buffer, string, error) {
	body := &bytes.Buffer{}
	writer := multipart.NewWriter(body)

	for _, formula := range p.Formulas {
		if err := writer.WriteField(FieldFormula, formula); err != nil {
			return nil, "", fmt.Errorf("failed to write formula field: %w", err)
		}
	}

	if p.ModelType != "" {
		if err := writer.WriteField(FieldModelType, p.ModelType); err != nil {
			return nil, "", fmt.Errorf("failed to write model type field: %w", err)
		}
	}

	keys := make([]string, 0, len(p.Fields))
	for key := range p.Fields {
		keys = append(keys, key)
	}
	sort.Strings(keys)
	for _, key := range keys {
		if err := writer.WriteField(key, p.Fields[key]); err != nil {
			return nil, "", fmt.Errorf("failed to write field %s: %w", key, err)
		}
	}

	if p.File != nil {
		name := p.File.Name
		if name == "" {
			name = "formulas.csv"
		}
		part, err := writer.CreateFormFile(FieldFile, name)
		if err != nil {
			return nil, "", fmt.Errorf("failed to create form file: %w", err)
		}
		if _, err := part.Write(p.File.Content); err != nil {
			return nil, "", fmt.Errorf("failed to copy file data: %w", err)
		}
	}

	if err := writer.Close(); err != nil {
		return nil, "", fmt.Errorf("failed to close writer: %w", err)
	}
	return body, writer.FormDataContentType(), nil
}

// ParseFormulas splits a comma separated list of chemical formulas, dropping blanks
func ParseFormulas(input string) []string {
	var formulas []string
	for _, formula := range strings.Split(input, ",") {
		if formula = strings.TrimSpace(formula); formula != "" {
			formulas = append(formulas, formula)
		}
	}
	return formulas
}
