package validate

import (
	"fmt"
	"regexp"
	"strings"

	"github.com/go-playground/validator/v10"
)

// v is the package-level singleton validator. It is initialised once at
// package load time. Any custom type registrations must be made during init()
// before the first call to Struct.
var v = validator.New()

var (
	phoneCodeRe     = regexp.MustCompile(`^\+?[1-9]\d{0,3}$`)
	phoneNumberRe   = regexp.MustCompile(`^\d{4,15}$`)
	transactionIDRe = regexp.MustCompile(`^[a-zA-Z0-9\s_-]{10,128}$`)
)

func init() {
	must(v.RegisterValidation("phonecode", regexRule(phoneCodeRe)))
	must(v.RegisterValidation("phonenum", regexRule(phoneNumberRe)))
	must(v.RegisterValidation("txnid", regexRule(transactionIDRe)))
}

func must(err error) {
	if err != nil {
		panic(err)
	}
}

func regexRule(re *regexp.Regexp) validator.Func {
	return func(fl validator.FieldLevel) bool {
		return re.MatchString(fl.Field().String())
	}
}

// Struct validates the given struct using its validate tags.
// Returns a human-readable error string or nil.
func Struct(s interface{}) error {
	if err := v.Struct(s); err != nil {
		ve, ok := err.(validator.ValidationErrors)
		if !ok {
			return err
		}
		var msgs []string
		for _, fe := range ve {
			msgs = append(msgs, fmt.Sprintf("field '%s' failed '%s'", fe.Field(), fe.Tag()))
		}
		return fmt.Errorf("%s", strings.Join(msgs, "; "))
	}
	return nil
}
