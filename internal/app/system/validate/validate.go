// Package validate wraps go-playground/validator with English messages,
// JSON field names, and the custom tags used by request payloads.
package validate

import (
	"errors"
	"reflect"
	"strings"

	"github.com/dalemusser/fypcollab/internal/app/system/apierr"
	"github.com/dalemusser/fypcollab/internal/domain/models"
	"github.com/go-playground/locales/en"
	ut "github.com/go-playground/universal-translator"
	"github.com/go-playground/validator/v10"
	en_translations "github.com/go-playground/validator/v10/translations/en"
	"go.mongodb.org/mongo-driver/bson/primitive"
)

var (
	v     *validator.Validate
	trans ut.Translator
)

const (
	notBlankTag     = "notblank"
	objectIDTag     = "objectid"
	signupRoleTag   = "signuprole"
	requestTypeTag  = "requesttype"
	decisionTag     = "decision"
	projectStateTag = "projectstatus"
)

var customMessages = map[string]string{
	notBlankTag:     "this field cannot be blank",
	objectIDTag:     "must be a valid identifier",
	signupRoleTag:   "must be one of student, supervisor, recruiter",
	requestTypeTag:  "must be one of join_project, request_supervisor, request_recruiter",
	decisionTag:     "must be approved or rejected",
	projectStateTag: "must be one of open, closed, completed",
}

func init() {
	v = validator.New()

	enLocale := en.New()
	uni := ut.New(enLocale, enLocale)
	trans, _ = uni.GetTranslator("en")
	_ = en_translations.RegisterDefaultTranslations(v, trans)

	v.RegisterTagNameFunc(func(fld reflect.StructField) string {
		name := strings.SplitN(fld.Tag.Get("json"), ",", 2)[0]
		if name == "-" {
			return ""
		}
		return name
	})

	_ = v.RegisterValidation(notBlankTag, notBlank)
	_ = v.RegisterValidation(objectIDTag, objectID)
	_ = v.RegisterValidation(signupRoleTag, signupRole)
	_ = v.RegisterValidation(requestTypeTag, requestType)
	_ = v.RegisterValidation(decisionTag, decision)
	_ = v.RegisterValidation(projectStateTag, projectStatus)

	noop := func(ut.Translator) error { return nil }
	for tag := range customMessages {
		_ = v.RegisterTranslation(tag, trans, noop, func(_ ut.Translator, fe validator.FieldError) string {
			return customMessages[fe.Tag()]
		})
	}
}

// Struct validates s and returns an apierr.Invalid carrying a field map, or
// nil when s is valid.
func Struct(s any) error {
	err := v.Struct(s)
	if err == nil {
		return nil
	}
	var verrs validator.ValidationErrors
	if !errors.As(err, &verrs) {
		return apierr.Invalid.Wrap(err)
	}
	fields := make(map[string]string, len(verrs))
	for _, fe := range verrs {
		fields[fe.Field()] = fe.Translate(trans)
	}
	e := apierr.Invalid.WithMessage("validation failed")
	e.Code = "validation_failed"
	e.Fields = fields
	return e
}

// Var validates a single value against tag.
func Var(field any, tag string) bool {
	return v.Var(field, tag) == nil
}

func notBlank(fl validator.FieldLevel) bool {
	s, ok := fl.Field().Interface().(string)
	return ok && strings.TrimSpace(s) != ""
}

func objectID(fl validator.FieldLevel) bool {
	s, ok := fl.Field().Interface().(string)
	return ok && primitive.IsValidObjectID(s)
}

func signupRole(fl validator.FieldLevel) bool {
	r, ok := models.ParseRole(fl.Field().String())
	return ok && r != models.RoleAdmin
}

func requestType(fl validator.FieldLevel) bool {
	return models.RequestType(fl.Field().String()).Valid()
}

func decision(fl validator.FieldLevel) bool {
	s := models.RequestStatus(fl.Field().String())
	return s == models.RequestApproved || s == models.RequestRejected
}

func projectStatus(fl validator.FieldLevel) bool {
	return models.ProjectStatus(fl.Field().String()).Valid()
}
