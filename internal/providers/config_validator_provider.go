package providers

import (
	"errors"

	"github.com/gookit/validate"

	"anonchat/internal/structures"
)

// CnfValidator validates the loaded config against the validate tags on
// the structures.Config tree. Validation fails closed: the daemon does
// not start with a config it cannot fully vouch for.
type CnfValidator struct {
	conf *structures.Config
}

func NewCnfValidator(conf *structures.Config) *CnfValidator {
	return &CnfValidator{conf: conf}
}

func (cv *CnfValidator) Validate() error {
	v := validate.Struct(cv.conf)
	if v.Validate() {
		return nil
	}
	return errors.New(v.Errors.One())
}
