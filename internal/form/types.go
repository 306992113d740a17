package form

// FieldType 是报名表单字段的封闭类型集合。
type FieldType string

const (
	FieldText      FieldType = "text"
	FieldEmail     FieldType = "email"
	FieldNumber    FieldType = "number"
	FieldSelect    FieldType = "select"
	FieldTextarea  FieldType = "textarea"
	FieldCheckbox  FieldType = "checkbox"
	FieldRadio     FieldType = "radio"
	FieldHeader    FieldType = "header"
	FieldParagraph FieldType = "paragraph"
	FieldDate      FieldType = "date"
	FieldFile      FieldType = "file"
)

// Valid reports whether t is one of the known field types.
func (t FieldType) Valid() bool {
	switch t {
	case FieldText, FieldEmail, FieldNumber, FieldSelect, FieldTextarea,
		FieldCheckbox, FieldRadio, FieldHeader, FieldParagraph, FieldDate, FieldFile:
		return true
	}
	return false
}

// HasOptions reports whether the type requires a non-empty option list.
func (t FieldType) HasOptions() bool {
	switch t {
	case FieldSelect, FieldRadio, FieldCheckbox:
		return true
	}
	return false
}

// Static reports whether the type is display-only content. 此类字段的内容存放在
// Value 而不是 Label。
func (t FieldType) Static() bool {
	return t == FieldHeader || t == FieldParagraph
}

// Field 是报名表单中的单个输入定义。
type Field struct {
	ID          string    `json:"id"`
	Type        FieldType `json:"type"`
	Label       string    `json:"label"`
	Placeholder string    `json:"placeholder,omitempty"`
	Required    bool      `json:"required"`
	Options     []string  `json:"options,omitempty"`
	Value       string    `json:"value,omitempty"`
	Description string    `json:"description,omitempty"`
}

// Template 是存储在 Template.Content(JSONB) 中的报名表单数据。
// 字段有序：渲染与存储都保持此顺序。
type Template struct {
	ID     string  `json:"id"`
	Name   string  `json:"name"`
	Fields []Field `json:"fields"`
}
