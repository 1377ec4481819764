// Package validator builds declarative request validation.
//
// Each rule pairs a check with a translation key; Apply evaluates every rule
// and returns ValidationErrors listing all failing fields at once:
//
//	err := validator.Apply(
//		validator.Required("topic", req.Topic),
//		validator.MaxLen("topic", req.Topic, 200),
//		validator.OneOf("education_level", req.EducationLevel, levels),
//	)
//
// Lengths are counted in runes.
package validator
