package form

import (
	"errors"
	"strings"
	"testing"
)

func validTemplate() Template {
	return Template{
		ID:   "tpl-1",
		Name: "Registration",
		Fields: []Field{
			{ID: "f1", Type: FieldHeader, Value: "Welcome"},
			{ID: "f2", Type: FieldText, Label: "Full name", Required: true},
			{ID: "f3", Type: FieldEmail, Label: "Email", Required: true},
			{ID: "f4", Type: FieldSelect, Label: "Shirt size", Options: []string{"S", "M", "L"}},
		},
	}
}

func TestValidateAccepts(t *testing.T) {
	if err := Validate(validTemplate()); err != nil {
		t.Fatalf("valid template rejected: %v", err)
	}
}

func TestValidateRejectsEmptyFields(t *testing.T) {
	tpl := validTemplate()
	tpl.Fields = nil
	err := Validate(tpl)
	if !errors.Is(err, ErrNoFields) {
		t.Fatalf("expected ErrNoFields, got %v", err)
	}
	if !strings.Contains(err.Error(), "please add fields") {
		t.Fatalf("unexpected message: %v", err)
	}
}

func TestValidateRejections(t *testing.T) {
	cases := []struct {
		name   string
		mutate func(*Template)
		want   string
	}{
		{
			name:   "missing name",
			mutate: func(tpl *Template) { tpl.Name = "  " },
			want:   "template name is required",
		},
		{
			name: "choice field without options",
			mutate: func(tpl *Template) {
				tpl.Fields[3].Options = nil
			},
			want: "options must not be empty",
		},
		{
			name: "radio field without options",
			mutate: func(tpl *Template) {
				tpl.Fields[3] = Field{ID: "f4", Type: FieldRadio, Label: "Meal"}
			},
			want: "options must not be empty",
		},
		{
			name: "header without value",
			mutate: func(tpl *Template) {
				tpl.Fields[0].Value = ""
			},
			want: "static content is required in value",
		},
		{
			name: "unknown type",
			mutate: func(tpl *Template) {
				tpl.Fields[1].Type = "slider"
			},
			want: "unknown field type",
		},
		{
			name: "duplicate ids",
			mutate: func(tpl *Template) {
				tpl.Fields[2].ID = "f2"
			},
			want: "duplicate field id",
		},
		{
			name: "input without label",
			mutate: func(tpl *Template) {
				tpl.Fields[1].Label = ""
			},
			want: "label is required",
		},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			tpl := validTemplate()
			tc.mutate(&tpl)
			err := Validate(tpl)
			if err == nil {
				t.Fatal("expected validation error")
			}
			if !strings.Contains(err.Error(), tc.want) {
				t.Fatalf("error %q does not contain %q", err.Error(), tc.want)
			}
		})
	}
}
