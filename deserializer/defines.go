// Package deserializer implements the declarative validation engine:
// schemas of typed fields that clean untrusted payload maps into typed
// values, collecting failures into a nested error tree instead of
// stopping at the first one.
//
//	var payment = deserializer.MustCompile(deserializer.Spec{Fields: deserializer.Fields{
//		"amount":   deserializer.Float(deserializer.MinValue(0)),
//		"currency": deserializer.Text(deserializer.MaxLength(3)),
//		"note":     deserializer.Text(deserializer.Optional()),
//	}})
//
//	bound := payment.Bind(data)
//	if !bound.IsValid() {
//		tree := bound.Errors() // {"amount": ["Enter a number."], ...}
//	}
package deserializer

// Messages carried by the error tree. The wording is part of the wire
// contract; clients match on it.
const (
	msgRequired     = "This field is required."
	msgNotObject    = "This field should be an object."
	msgInvalidInt   = "Enter a whole number."
	msgInvalidFloat = "Enter a number."
	msgInvalidText  = "Enter a valid string."
	msgInvalidBool  = "Enter a valid boolean value."
	msgInvalidUUID  = "Enter a valid UUID."
	msgMinValue     = "Ensure this value is greater than or equal to %s."
	msgMaxValue     = "Ensure this value is less than or equal to %s."
	msgMinLength    = "Ensure this value has at least %d characters (it has %d)."
	msgMaxLength    = "Ensure this value has at most %d characters (it has %d)."
)

// NonFieldErrors is the error tree key holding failures that concern the
// payload as a whole rather than one field.
const NonFieldErrors = "__all__"
