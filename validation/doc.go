// Package validation validates configuration structs with go-playground
// validator struct tags and reports failures as *errors.AppError values with
// code INVALID_INPUT.
//
//	type Config struct {
//	    Host      string `mapstructure:"host" validate:"required"`
//	    StartPort int    `mapstructure:"start_port" validate:"min=1,max=65535"`
//	}
//	err := validation.Validate(cfg)
//
// Field names in messages come from the mapstructure tag, falling back to the
// snake_cased Go field name.
package validation
