package importer

import (
	"reflect"
	"regexp"
	"strings"
	"sync"

	"github.com/go-playground/validator/v10"
	"github.com/idia-astro/ilifudb/internal/domain"
	"github.com/idia-astro/ilifudb/internal/password"
)

var (
	validateOnce sync.Once
	validate     *validator.Validate
)

// V returns the package validator with the tree file tags registered.
func V() *validator.Validate {
	validateOnce.Do(func() {
		validate = validator.New()
		validate.RegisterTagNameFunc(yamlFieldName)
		validate.RegisterValidation("treeposn", treePositionValidator)
		validate.RegisterValidation("authorizedkey", authorizedKeyValidator)
		validate.RegisterValidation("username", usernameValidator)
	})
	return validate
}

// yamlFieldName reports fields by their file key so errors read
// "projects[2].parent_fraction" rather than Go field names.
func yamlFieldName(fld reflect.StructField) string {
	name, _, _ := strings.Cut(fld.Tag.Get("yaml"), ",")
	if name == "-" {
		return ""
	}
	if name == "" {
		return fld.Name
	}
	return name
}

// treePositionValidator accepts a storable, non-root tree position.
func treePositionValidator(fl validator.FieldLevel) bool {
	pos, err := domain.ParseTreePosition(fl.Field().String())
	if err != nil || pos.IsRoot() {
		return false
	}
	return pos.Validate() == nil
}

func authorizedKeyValidator(fl validator.FieldLevel) bool {
	_, err := password.ValidatePublicKey(fl.Field().String())
	return err == nil
}

var usernameRe = regexp.MustCompile(`^[a-z_][a-z0-9_.-]*$`)

func usernameValidator(fl validator.FieldLevel) bool {
	return usernameRe.MatchString(fl.Field().String())
}
