package validator

// Validator validates structs using `validate` tags.
type Validator interface {
	Validate(data any) error
}
