package domain

import (
	"encoding/json"
	"fmt"
	"slices"
)

type FieldType string

const (
	FieldText     FieldType = "text"
	FieldDropdown FieldType = "dropdown"
	FieldCheckbox FieldType = "checkbox"
	FieldFile     FieldType = "file"
)

// FormField is one entry of a custom registration form. The concrete types
// are TextField, DropdownField, CheckboxField and FileField.
type FormField interface {
	FieldID() string
	Kind() FieldType
	IsRequired() bool

	validateDefinition() error
}

type FieldBase struct {
	ID       string `json:"id"`
	Label    string `json:"label"`
	Required bool   `json:"required"`
}

func (b FieldBase) FieldID() string  { return b.ID }
func (b FieldBase) IsRequired() bool { return b.Required }

func (b FieldBase) validateBase() error {
	if b.ID == "" {
		return Invalid("custom_form_schema", "every field needs an id")
	}
	if b.Label == "" {
		return Invalid(b.ID, "label is required")
	}

	return nil
}

type TextField struct {
	FieldBase
	MaxLength int
}

func (TextField) Kind() FieldType { return FieldText }

func (f TextField) validateDefinition() error {
	if f.MaxLength < 0 {
		return Invalid(f.ID, "max_length must not be negative")
	}

	return f.validateBase()
}

type DropdownField struct {
	FieldBase
	Options []string
}

func (DropdownField) Kind() FieldType { return FieldDropdown }

func (f DropdownField) validateDefinition() error {
	if len(f.Options) == 0 {
		return Invalid(f.ID, "dropdown fields need at least one option")
	}

	return f.validateBase()
}

type CheckboxField struct {
	FieldBase
	Options []string
}

func (CheckboxField) Kind() FieldType { return FieldCheckbox }

func (f CheckboxField) validateDefinition() error {
	if len(f.Options) == 0 {
		return Invalid(f.ID, "checkbox fields need at least one option")
	}

	return f.validateBase()
}

type FileField struct {
	FieldBase
	AllowedMimeTypes []string
	MaxSizeBytes     int64
}

func (FileField) Kind() FieldType { return FieldFile }

func (f FileField) validateDefinition() error {
	if f.MaxSizeBytes < 0 {
		return Invalid(f.ID, "max_size_bytes must not be negative")
	}

	return f.validateBase()
}

func (f FileField) accepts(file FileAnswer) error {
	if len(f.AllowedMimeTypes) > 0 && !slices.Contains(f.AllowedMimeTypes, file.MimeType) {
		return Invalid(f.ID, "file type %q is not allowed", file.MimeType)
	}
	if f.MaxSizeBytes > 0 && file.Size > f.MaxSizeBytes {
		return Invalid(f.ID, "file exceeds the %d byte limit", f.MaxSizeBytes)
	}

	return nil
}

// FormSchema is the ordered list of fields a NORMAL event asks for.
type FormSchema []FormField

func (s FormSchema) Validate() error {
	seen := make(map[string]struct{}, len(s))
	for _, f := range s {
		if f == nil {
			return Invalid("custom_form_schema", "empty field definition")
		}
		if err := f.validateDefinition(); err != nil {
			return err
		}
		if _, ok := seen[f.FieldID()]; ok {
			return Invalid(f.FieldID(), "duplicate field id")
		}
		seen[f.FieldID()] = struct{}{}
	}

	return nil
}

func (s FormSchema) Field(id string) (FormField, bool) {
	for _, f := range s {
		if f.FieldID() == id {
			return f, true
		}
	}

	return nil, false
}

func (s FormSchema) FileFields() []FileField {
	var out []FileField
	for _, f := range s {
		if ff, ok := f.(FileField); ok {
			out = append(out, ff)
		}
	}

	return out
}

type wireField struct {
	ID               string    `json:"id"`
	Label            string    `json:"label"`
	Type             FieldType `json:"type"`
	Required         bool      `json:"required"`
	Options          []string  `json:"options,omitempty"`
	MaxLength        int       `json:"max_length,omitempty"`
	AllowedMimeTypes []string  `json:"allowed_mime_types,omitempty"`
	MaxSizeBytes     int64     `json:"max_size_bytes,omitempty"`
}

func (s FormSchema) MarshalJSON() ([]byte, error) {
	out := make([]wireField, 0, len(s))
	for _, f := range s {
		w := wireField{Type: f.Kind()}
		switch v := f.(type) {
		case TextField:
			w.ID, w.Label, w.Required = v.ID, v.Label, v.Required
			w.MaxLength = v.MaxLength
		case DropdownField:
			w.ID, w.Label, w.Required = v.ID, v.Label, v.Required
			w.Options = v.Options
		case CheckboxField:
			w.ID, w.Label, w.Required = v.ID, v.Label, v.Required
			w.Options = v.Options
		case FileField:
			w.ID, w.Label, w.Required = v.ID, v.Label, v.Required
			w.AllowedMimeTypes = v.AllowedMimeTypes
			w.MaxSizeBytes = v.MaxSizeBytes
		default:
			return nil, fmt.Errorf("unknown form field %T", f)
		}
		out = append(out, w)
	}

	return json.Marshal(out)
}

func (s *FormSchema) UnmarshalJSON(data []byte) error {
	var wires []wireField
	if err := json.Unmarshal(data, &wires); err != nil {
		return err
	}

	fields := make(FormSchema, 0, len(wires))
	for _, w := range wires {
		f, err := w.toField()
		if err != nil {
			return err
		}
		fields = append(fields, f)
	}
	*s = fields

	return nil
}

func (w wireField) toField() (FormField, error) {
	base := FieldBase{ID: w.ID, Label: w.Label, Required: w.Required}

	switch w.Type {
	case FieldText:
		if len(w.Options) > 0 {
			return nil, Invalid(w.ID, "text fields do not take options")
		}
		return TextField{FieldBase: base, MaxLength: w.MaxLength}, nil
	case FieldDropdown:
		return DropdownField{FieldBase: base, Options: w.Options}, nil
	case FieldCheckbox:
		return CheckboxField{FieldBase: base, Options: w.Options}, nil
	case FieldFile:
		if len(w.Options) > 0 {
			return nil, Invalid(w.ID, "file fields do not take options")
		}
		return FileField{FieldBase: base, AllowedMimeTypes: w.AllowedMimeTypes, MaxSizeBytes: w.MaxSizeBytes}, nil
	default:
		return nil, Invalid(w.ID, "unknown field type %q", w.Type)
	}
}

// FileAnswer is the stored response for a file field.
type FileAnswer struct {
	FileID   string `json:"file_id,omitempty"`
	Name     string `json:"name"`
	MimeType string `json:"mime_type"`
	Size     int64  `json:"size"`
}

func (a FileAnswer) sameFile(b FileAnswer) bool {
	return a.Name == b.Name && a.MimeType == b.MimeType && a.Size == b.Size
}

// BlobResolver looks up an already stored file by id.
type BlobResolver func(fileID string) (FileAnswer, error)

// Responses maps field id to its normalized answer: string for text and
// dropdown, []string for checkbox, FileAnswer for file.
type Responses map[string]any

// ValidateResponses checks raw answers against the schema. attached holds the
// metadata of files uploaded with the request, keyed by field id; their
// FileAnswer in the result has an empty FileID until the upload happens.
func (s FormSchema) ValidateResponses(values map[string]json.RawMessage, attached map[string]FileAnswer, resolve BlobResolver) (Responses, error) {
	for key := range values {
		if _, ok := s.Field(key); !ok {
			return nil, Invalid(key, "unknown form field")
		}
	}
	for key := range attached {
		f, ok := s.Field(key)
		if !ok || f.Kind() != FieldFile {
			return nil, Invalid(key, "not a file field")
		}
	}

	out := make(Responses, len(s))
	for _, f := range s {
		raw, present := values[f.FieldID()]
		if present && isJSONNull(raw) {
			present = false
		}

		if ff, ok := f.(FileField); ok {
			answer, has, err := ff.answer(raw, present, attached, resolve)
			if err != nil {
				return nil, err
			}
			if has {
				out[ff.ID] = answer
			} else if ff.Required {
				return nil, Invalid(ff.ID, "is required")
			}
			continue
		}

		if !present {
			if f.IsRequired() {
				return nil, Invalid(f.FieldID(), "is required")
			}
			continue
		}

		v, err := checkValue(f, raw)
		if err != nil {
			return nil, err
		}
		if v != nil {
			out[f.FieldID()] = v
		}
	}

	return out, nil
}

func checkValue(f FormField, raw json.RawMessage) (any, error) {
	switch v := f.(type) {
	case TextField:
		var s string
		if err := json.Unmarshal(raw, &s); err != nil {
			return nil, Invalid(v.ID, "must be a string")
		}
		if s == "" {
			if v.Required {
				return nil, Invalid(v.ID, "is required")
			}
			return nil, nil
		}
		if v.MaxLength > 0 && len([]rune(s)) > v.MaxLength {
			return nil, Invalid(v.ID, "must be at most %d characters", v.MaxLength)
		}
		return s, nil

	case DropdownField:
		var s string
		if err := json.Unmarshal(raw, &s); err != nil {
			return nil, Invalid(v.ID, "must be a string")
		}
		if s == "" {
			if v.Required {
				return nil, Invalid(v.ID, "is required")
			}
			return nil, nil
		}
		if !slices.Contains(v.Options, s) {
			return nil, Invalid(v.ID, "%q is not one of the options", s)
		}
		return s, nil

	case CheckboxField:
		var picked []string
		if err := json.Unmarshal(raw, &picked); err != nil {
			return nil, Invalid(v.ID, "must be a list of strings")
		}
		if len(picked) == 0 {
			if v.Required {
				return nil, Invalid(v.ID, "select at least one option")
			}
			return nil, nil
		}
		for _, p := range picked {
			if !slices.Contains(v.Options, p) {
				return nil, Invalid(v.ID, "%q is not one of the options", p)
			}
		}
		return picked, nil
	}

	return nil, Invalid(f.FieldID(), "unsupported field")
}

func (f FileField) answer(raw json.RawMessage, present bool, attached map[string]FileAnswer, resolve BlobResolver) (FileAnswer, bool, error) {
	var declared FileAnswer
	if present {
		if err := json.Unmarshal(raw, &declared); err != nil {
			return FileAnswer{}, false, Invalid(f.ID, "must be an object with name, mime_type and size")
		}
	}

	if file, ok := attached[f.ID]; ok {
		if present && !declared.sameFile(file) {
			return FileAnswer{}, false, Invalid(f.ID, "declared file does not match the attachment")
		}
		if err := f.accepts(file); err != nil {
			return FileAnswer{}, false, err
		}
		file.FileID = ""
		return file, true, nil
	}

	if !present {
		return FileAnswer{}, false, nil
	}
	if declared.FileID == "" {
		return FileAnswer{}, false, Invalid(f.ID, "no file attached")
	}
	if resolve == nil {
		return FileAnswer{}, false, Invalid(f.ID, "unknown file")
	}

	stored, err := resolve(declared.FileID)
	if err != nil {
		return FileAnswer{}, false, err
	}
	if !declared.sameFile(stored) {
		return FileAnswer{}, false, Invalid(f.ID, "declared file does not match the stored file")
	}
	if err = f.accepts(stored); err != nil {
		return FileAnswer{}, false, err
	}
	stored.FileID = declared.FileID

	return stored, true, nil
}

func isJSONNull(raw json.RawMessage) bool {
	return len(raw) == 0 || string(raw) == "null"
}

func fieldPath(parent string, i int, child string) string {
	return fmt.Sprintf("%s[%d].%s", parent, i, child)
}
