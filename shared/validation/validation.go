// Package validation holds the request rules for user and group payloads.
package validation

import (
	"html"
	"strconv"
	"strings"

	"github.com/ggonzalesd/UniTable/shared/apperrors"
	"github.com/ggonzalesd/UniTable/shared/cqrs"
	"github.com/go-playground/validator/v10"
	"github.com/microcosm-cc/bluemonday"
)

var (
	validate = newValidator()
	strict   = bluemonday.StrictPolicy()
)

// maxCleanPasses bounds how many times Clean decodes entities and sanitises
// again before giving up on reaching a stable string.
const maxCleanPasses = 4

func newValidator() *validator.Validate {
	v := validator.New()
	// bytesmax limits the encoded length, unlike max which counts runes.
	_ = v.RegisterValidation("bytesmax", func(fl validator.FieldLevel) bool {
		n, err := strconv.Atoi(fl.Param())
		if err != nil {
			return false
		}
		return len(fl.Field().String()) <= n
	})
	return v
}

// Struct runs the `validate` tags of obj and returns one FieldError per
// failing field, or nil.
func Struct(obj any) []apperrors.FieldError {
	err := validate.Struct(obj)
	if err == nil {
		return nil
	}
	fieldErrs, ok := err.(validator.ValidationErrors)
	if !ok {
		return []apperrors.FieldError{{Message: err.Error(), Type: "invalid"}}
	}

	var details []apperrors.FieldError
	for _, fe := range fieldErrs {
		details = append(details, apperrors.FieldError{
			Field:   fe.Field(),
			Message: getErrorMsg(fe),
			Type:    fe.Tag(),
		})
	}
	return details
}

func getErrorMsg(err validator.FieldError) string {
	switch err.Tag() {
	case "required":
		return "This field is required"
	case "email":
		return "Invalid email format"
	case "min":
		return "Value is too short"
	case "max":
		return "Value is too long"
	case "bytesmax":
		return "Value must be at most " + err.Param() + " bytes"
	case "gt":
		return "Value must be greater than " + err.Param()
	case "gte":
		return "Value must be greater than or equal to " + err.Param()
	default:
		return "Invalid value"
	}
}

// ValidateUser normalises d in place and checks it. Free-text fields lose any
// markup, the email is lower-cased, the password is left untouched.
func ValidateUser(d *cqrs.UserDetails) error {
	d.Names = Clean(d.Names)
	d.Surnames = Clean(d.Surnames)
	d.Program = Clean(d.Program)
	d.UserType = Clean(d.UserType)
	d.Email = NormalizeEmail(d.Email)

	if details := Struct(d); details != nil {
		return apperrors.Validation("invalid user data", details...)
	}
	return nil
}

// ValidateFollow rejects a user following themselves.
func ValidateFollow(actorID, targetID string) error {
	if actorID == targetID {
		return apperrors.Validation("a user cannot follow themselves", apperrors.FieldError{
			Field:   "userId",
			Message: "Cannot follow yourself",
			Type:    "self",
		})
	}
	return nil
}

func ValidateGroup(cmd *cqrs.CreateGroupCommand) error {
	cmd.Name = Clean(cmd.Name)
	cmd.Description = Clean(cmd.Description)
	cmd.Course = Clean(cmd.Course)
	if details := Struct(cmd); details != nil {
		return apperrors.Validation("invalid group data", details...)
	}
	return nil
}

// Clean trims s and strips every HTML element from it. Entities are decoded
// and the result sanitised again until it stops changing, so encoded markup
// cannot come back as live markup.
func Clean(s string) string {
	for i := 0; i < maxCleanPasses; i++ {
		next := html.UnescapeString(strict.Sanitize(s))
		if next == s {
			return strings.TrimSpace(s)
		}
		s = next
	}
	return strings.TrimSpace(strict.Sanitize(s))
}

func NormalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}
