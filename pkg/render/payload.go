package render

import (
	"bytes"
	"encoding/json"
	"fmt"
	"mime/multipart"
	"net/textproto"
	"strconv"

	"github.com/goliatone/go-formengine/pkg/schema"
)

// RemovedSuffix is appended to an image field name to mark an explicit
// removal in the payload ("avatar_removed=true").
const RemovedSuffix = "_removed"

// Part is one entry of a submission payload. Exactly one of Value or File is
// meaningful.
type Part struct {
	Name  string
	Value string
	File  *Upload
}

// Payload is the outbound submission built from answer state in schema
// order. Parts is the multipart view; Values the JSON view of the same data.
type Payload struct {
	Parts  []Part
	Values map[string]any
}

// HasFile reports whether any part carries a file.
func (p Payload) HasFile() bool {
	for _, part := range p.Parts {
		if part.File != nil {
			return true
		}
	}
	return false
}

// Get returns the first value recorded for name.
func (p Payload) Get(name string) (string, bool) {
	for _, part := range p.Parts {
		if part.Name == name && part.File == nil {
			return part.Value, true
		}
	}
	return "", false
}

// Encode renders the payload as multipart/form-data when a file is present
// and as application/json otherwise. It returns the body and content type.
func (p Payload) Encode() ([]byte, string, error) {
	if !p.HasFile() {
		values := p.Values
		if values == nil {
			values = map[string]any{}
		}
		body, err := json.Marshal(values)
		if err != nil {
			return nil, "", fmt.Errorf("render: encode json payload: %w", err)
		}
		return body, "application/json", nil
	}

	var buf bytes.Buffer
	w := multipart.NewWriter(&buf)
	for _, part := range p.Parts {
		if part.File == nil {
			if err := w.WriteField(part.Name, part.Value); err != nil {
				return nil, "", fmt.Errorf("render: write field %s: %w", part.Name, err)
			}
			continue
		}
		header := make(textproto.MIMEHeader)
		header.Set("Content-Disposition", fmt.Sprintf(`form-data; name=%s; filename=%s`,
			strconv.Quote(part.Name), strconv.Quote(part.File.Filename)))
		contentType := part.File.ContentType
		if contentType == "" {
			contentType = "application/octet-stream"
		}
		header.Set("Content-Type", contentType)
		fw, err := w.CreatePart(header)
		if err != nil {
			return nil, "", fmt.Errorf("render: create file part %s: %w", part.Name, err)
		}
		if _, err := fw.Write(part.File.Data); err != nil {
			return nil, "", fmt.Errorf("render: write file part %s: %w", part.Name, err)
		}
	}
	if err := w.Close(); err != nil {
		return nil, "", fmt.Errorf("render: close multipart: %w", err)
	}
	return buf.Bytes(), w.FormDataContentType(), nil
}

// BuildPayload walks fields in order and converts answers into parts. Fields
// whose answer is absent are omitted. Images contribute a file only when
// changed, or a removal marker when removed. Lists become indexed entries.
func BuildPayload(fields []schema.Field, answers map[string]any) Payload {
	p := Payload{Values: make(map[string]any)}
	for _, field := range fields {
		name := field.Name
		value, ok := answers[name]
		if !ok || value == nil {
			continue
		}

		switch v := value.(type) {
		case ImageValue:
			switch {
			case v.Changed && v.File != nil:
				p.Parts = append(p.Parts, Part{Name: name, File: v.File})
				p.Values[name] = v.File.Filename
			case v.Removed:
				p.Parts = append(p.Parts, Part{Name: name + RemovedSuffix, Value: "true"})
				p.Values[name+RemovedSuffix] = true
			}
		case []string:
			for i, item := range v {
				p.Parts = append(p.Parts, Part{Name: fmt.Sprintf("%s[%d]", name, i), Value: item})
			}
			p.Values[name] = append([]string{}, v...)
		case bool:
			p.Parts = append(p.Parts, Part{Name: name, Value: strconv.FormatBool(v)})
			p.Values[name] = v
		case string:
			p.Parts = append(p.Parts, Part{Name: name, Value: v})
			p.Values[name] = v
		default:
			s := fmt.Sprint(v)
			p.Parts = append(p.Parts, Part{Name: name, Value: s})
			p.Values[name] = s
		}
	}
	return p
}
