package profile

import (
	"bytes"
	"errors"
	"reflect"
	"regexp"
	"strings"
	"sync"

	_ "embed"

	"github.com/go-playground/validator/v10"
	jsValidator "github.com/santhosh-tekuri/jsonschema/v6"
	"github.com/santhosh-tekuri/jsonschema/v6/kind"
	"github.com/specslim/specslim/json"
	"github.com/specslim/specslim/jsonpointer"
	"github.com/specslim/specslim/validation"
	"github.com/specslim/specslim/yml"
	"golang.org/x/text/language"
	"golang.org/x/text/message"
	"gopkg.in/yaml.v3"
)

//go:embed schema.json
var schemaJSON string

var defaultPrinter = message.NewPrinter(language.English)

var profileSchema = sync.OnceValue(func() *jsValidator.Schema {
	doc, err := jsValidator.UnmarshalJSON(strings.NewReader(schemaJSON))
	if err != nil {
		panic(err)
	}

	c := jsValidator.NewCompiler()
	if err := c.AddResource("profile.schema.json", doc); err != nil {
		panic(err)
	}
	return c.MustCompile("profile.schema.json")
})

var structValidator = sync.OnceValue(func() *validator.Validate {
	v := validator.New(validator.WithRequiredStructEnabled())
	v.RegisterTagNameFunc(func(field reflect.StructField) string {
		name, _, _ := strings.Cut(field.Tag.Get("yaml"), ",")
		if name == "-" {
			return ""
		}
		return name
	})
	return v
})

func validateSchema(root *yaml.Node) []error {
	buf := bytes.NewBuffer([]byte{})
	if err := json.YAMLToJSON(root, 0, buf); err != nil {
		return []error{validation.Errorf(validation.RuleValidationInvalidSyntax, yml.Unwrap(root), "profile is not valid json: %s", err.Error())}
	}

	instance, err := jsValidator.UnmarshalJSON(buf)
	if err != nil {
		return []error{validation.Errorf(validation.RuleValidationInvalidSyntax, yml.Unwrap(root), "profile is not valid json: %s", err.Error())}
	}

	err = profileSchema().Validate(instance)
	if err == nil {
		return nil
	}

	var validationErr *jsValidator.ValidationError
	if errors.As(err, &validationErr) {
		return getRootCauses(validationErr, root)
	}
	return []error{validation.Errorf(validation.RuleValidationInvalidSchema, yml.Unwrap(root), "profile invalid: %s", err.Error())}
}

func getRootCauses(err *jsValidator.ValidationError, root *yaml.Node) []error {
	if len(err.Causes) == 0 {
		return []error{schemaError(err, root)}
	}

	errs := []error{}
	for _, cause := range err.Causes {
		errs = append(errs, getRootCauses(cause, root)...)
	}
	return errs
}

func schemaError(cause *jsValidator.ValidationError, root *yaml.Node) error {
	pointer := jsonpointer.PartsToJSONPointer(cause.InstanceLocation)

	node, lookupErr := jsonpointer.GetTarget(root, pointer)
	if lookupErr != nil {
		node = yml.Unwrap(root)
	}

	field := strings.Join(cause.InstanceLocation, ".")
	if field == "" {
		field = "profile"
	}

	rule := validation.RuleValidationInvalidSchema
	switch cause.ErrorKind.(type) {
	case *kind.Type:
		rule = validation.RuleValidationTypeMismatch
	case *kind.Required:
		rule = validation.RuleValidationRequiredField
	case *kind.Enum, *kind.Const:
		rule = validation.RuleValidationAllowedValues
	case *kind.AdditionalProperties:
		rule = validation.RuleValidationUnknownField
	case *kind.MinItems, *kind.MinLength, *kind.MinProperties:
		rule = validation.RuleValidationEmptyValue
	case *kind.Pattern:
		rule = validation.RuleValidationInvalidFormat
	}

	vErr := validation.Errorf(rule, node, "%s %s", field, cause.ErrorKind.LocalizedString(defaultPrinter))
	vErr.Location = string(pointer)
	return vErr
}

var indexedField = regexp.MustCompile(`^(.*)\[(\d+)\]$`)

func validateStruct(p *Profile, root *yaml.Node) []error {
	err := structValidator().Struct(p)
	if err == nil {
		return nil
	}

	var fieldErrs validator.ValidationErrors
	if !errors.As(err, &fieldErrs) {
		return []error{validation.Errorf(validation.RuleValidationInvalidSchema, yml.Unwrap(root), "%s", err.Error())}
	}

	errs := make([]error, 0, len(fieldErrs))
	for _, fe := range fieldErrs {
		node, pointer := fieldNode(root, fe.Field())

		rule := validation.RuleValidationInvalidFormat
		switch fe.Tag() {
		case "required", "min":
			rule = validation.RuleValidationRequiredField
		case "oneof":
			rule = validation.RuleValidationAllowedValues
		case "nefield":
			rule = validation.RuleValidationConflictingValue
		}

		var msg string
		if fe.Param() != "" {
			msg = defaultPrinter.Sprintf("%s fails %s=%s", fe.Field(), fe.Tag(), fe.Param())
		} else {
			msg = defaultPrinter.Sprintf("%s fails %s", fe.Field(), fe.Tag())
		}

		vErr := validation.Errorf(rule, node, "%s", msg)
		vErr.Location = pointer
		errs = append(errs, vErr)
	}

	return errs
}

// fieldNode finds the node of a top level field such as "inputs" or "inputs[2]".
func fieldNode(root *yaml.Node, field string) (*yaml.Node, string) {
	parts := []string{field}
	if m := indexedField.FindStringSubmatch(field); m != nil {
		parts = []string{m[1], m[2]}
	}
	pointer := jsonpointer.PartsToJSONPointer(parts)

	node, err := jsonpointer.GetTarget(root, pointer)
	if err != nil {
		return yml.Unwrap(root), string(pointer)
	}
	return node, string(pointer)
}
