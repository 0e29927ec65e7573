package domain

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func sampleSchema() FormSchema {
	return FormSchema{
		TextField{FieldBase: FieldBase{ID: "team", Label: "Team", Required: true}, MaxLength: 10},
		DropdownField{FieldBase: FieldBase{ID: "track", Label: "Track", Required: true}, Options: []string{"web", "ml"}},
		CheckboxField{FieldBase: FieldBase{ID: "diet", Label: "Diet"}, Options: []string{"veg", "vegan"}},
		FileField{
			FieldBase:        FieldBase{ID: "cv", Label: "CV"},
			AllowedMimeTypes: []string{"application/pdf"},
			MaxSizeBytes:     1024,
		},
	}
}

func raw(t *testing.T, v any) json.RawMessage {
	t.Helper()
	b, err := json.Marshal(v)
	require.NoError(t, err)
	return b
}

func TestFormSchemaRoundTrip(t *testing.T) {
	schema := sampleSchema()

	b, err := json.Marshal(schema)
	require.NoError(t, err)

	var decoded FormSchema
	require.NoError(t, json.Unmarshal(b, &decoded))
	assert.Equal(t, schema, decoded)
}

func TestFormSchemaRejectsOptionsOnText(t *testing.T) {
	var s FormSchema
	err := json.Unmarshal([]byte(`[{"id":"a","label":"A","type":"text","options":["x"]}]`), &s)
	assert.ErrorIs(t, err, ErrValidation)

	err = json.Unmarshal([]byte(`[{"id":"a","label":"A","type":"color"}]`), &s)
	assert.ErrorIs(t, err, ErrValidation)
}

func TestFormSchemaValidate(t *testing.T) {
	assert.NoError(t, sampleSchema().Validate())

	dup := FormSchema{
		TextField{FieldBase: FieldBase{ID: "a", Label: "A"}},
		TextField{FieldBase: FieldBase{ID: "a", Label: "B"}},
	}
	assert.ErrorIs(t, dup.Validate(), ErrValidation)

	noOptions := FormSchema{DropdownField{FieldBase: FieldBase{ID: "a", Label: "A"}}}
	assert.ErrorIs(t, noOptions.Validate(), ErrValidation)
}

func TestValidateResponses(t *testing.T) {
	schema := sampleSchema()
	stored := FileAnswer{Name: "cv.pdf", MimeType: "application/pdf", Size: 100}
	resolve := func(id string) (FileAnswer, error) {
		if id == "blob-1" {
			return stored, nil
		}
		return FileAnswer{}, ErrBlobNotFound
	}

	t.Run("valid with attachment", func(t *testing.T) {
		got, err := schema.ValidateResponses(map[string]json.RawMessage{
			"team":  raw(t, "rockets"),
			"track": raw(t, "ml"),
			"diet":  raw(t, []string{"veg"}),
		}, map[string]FileAnswer{"cv": stored}, resolve)

		require.NoError(t, err)
		assert.Equal(t, "rockets", got["team"])
		assert.Equal(t, []string{"veg"}, got["diet"])
		assert.Equal(t, stored, got["cv"])
	})

	t.Run("valid with stored file", func(t *testing.T) {
		got, err := schema.ValidateResponses(map[string]json.RawMessage{
			"team":  raw(t, "rockets"),
			"track": raw(t, "web"),
			"cv":    raw(t, FileAnswer{FileID: "blob-1", Name: "cv.pdf", MimeType: "application/pdf", Size: 100}),
		}, nil, resolve)

		require.NoError(t, err)
		assert.Equal(t, "blob-1", got["cv"].(FileAnswer).FileID)
	})

	failures := []struct {
		name     string
		values   map[string]json.RawMessage
		attached map[string]FileAnswer
		field    string
	}{
		{
			name:   "missing required",
			values: map[string]json.RawMessage{"track": raw(t, "ml")},
			field:  "team",
		},
		{
			name:   "text not a string",
			values: map[string]json.RawMessage{"team": raw(t, 5), "track": raw(t, "ml")},
			field:  "team",
		},
		{
			name:   "text too long",
			values: map[string]json.RawMessage{"team": raw(t, "a very long team"), "track": raw(t, "ml")},
			field:  "team",
		},
		{
			name:   "dropdown outside options",
			values: map[string]json.RawMessage{"team": raw(t, "x"), "track": raw(t, "art")},
			field:  "track",
		},
		{
			name:   "checkbox outside options",
			values: map[string]json.RawMessage{"team": raw(t, "x"), "track": raw(t, "ml"), "diet": raw(t, []string{"keto"})},
			field:  "diet",
		},
		{
			name:   "unknown key",
			values: map[string]json.RawMessage{"team": raw(t, "x"), "track": raw(t, "ml"), "shoe": raw(t, "42")},
			field:  "shoe",
		},
		{
			name:     "wrong mime",
			values:   map[string]json.RawMessage{"team": raw(t, "x"), "track": raw(t, "ml")},
			attached: map[string]FileAnswer{"cv": {Name: "cv.png", MimeType: "image/png", Size: 10}},
			field:    "cv",
		},
		{
			name:     "too large",
			values:   map[string]json.RawMessage{"team": raw(t, "x"), "track": raw(t, "ml")},
			attached: map[string]FileAnswer{"cv": {Name: "cv.pdf", MimeType: "application/pdf", Size: 4096}},
			field:    "cv",
		},
		{
			name: "declared metadata mismatch",
			values: map[string]json.RawMessage{
				"team":  raw(t, "x"),
				"track": raw(t, "ml"),
				"cv":    raw(t, FileAnswer{Name: "other.pdf", MimeType: "application/pdf", Size: 100}),
			},
			attached: map[string]FileAnswer{"cv": stored},
			field:    "cv",
		},
		{
			name:     "attachment on non file field",
			values:   map[string]json.RawMessage{"team": raw(t, "x"), "track": raw(t, "ml")},
			attached: map[string]FileAnswer{"team": stored},
			field:    "team",
		},
	}

	for _, tt := range failures {
		t.Run(tt.name, func(t *testing.T) {
			_, err := schema.ValidateResponses(tt.values, tt.attached, resolve)

			var vErr *ValidationError
			require.ErrorAs(t, err, &vErr)
			assert.Equal(t, tt.field, vErr.Field)
		})
	}

	t.Run("unknown stored file", func(t *testing.T) {
		_, err := schema.ValidateResponses(map[string]json.RawMessage{
			"team":  raw(t, "x"),
			"track": raw(t, "ml"),
			"cv":    raw(t, FileAnswer{FileID: "nope", Name: "cv.pdf", MimeType: "application/pdf", Size: 100}),
		}, nil, resolve)

		assert.ErrorIs(t, err, ErrNotFound)
	})
}
