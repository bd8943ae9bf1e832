package validation

const (
	RuleValidationRequiredField    = "validation-required-field"
	RuleValidationTypeMismatch     = "validation-type-mismatch"
	RuleValidationInvalidFormat    = "validation-invalid-format"
	RuleValidationEmptyValue       = "validation-empty-value"
	RuleValidationInvalidSyntax    = "validation-invalid-syntax"
	RuleValidationInvalidSchema    = "validation-invalid-schema"
	RuleValidationAllowedValues    = "validation-allowed-values"
	RuleValidationUnknownField     = "validation-unknown-field"
	RuleValidationConflictingValue = "validation-conflicting-value"
)
