package handler

import (
	"regexp"

	"auth_api/internal/common"
	"auth_api/internal/common/validate"
	"auth_api/internal/domain/model"
)

var emailPattern = regexp.MustCompile(`^\S+@\S+\.\S+$`)

// Request payload schemas. The validation gate applies these before
// authentication and business logic; coercion (trim, lowercase) happens
// only where declared.
var (
	RegisterSchema = validate.Schema{
		"name":     {Required: true, Trim: true, MinLen: 2, MaxLen: 50},
		"email":    {Required: true, Trim: true, Lowercase: true, Pattern: emailPattern, PatternMsg: common.MsgInvalidEmail},
		"password": {Required: true, MinLen: 6, MaxLen: 72},
		"role":     {Enum: []string{model.RoleAdmin, model.RoleUser}, EnumMsg: common.MsgInvalidRole},
	}

	LoginSchema = validate.Schema{
		"email":    {Required: true, Trim: true, Lowercase: true, Pattern: emailPattern, PatternMsg: common.MsgInvalidEmail},
		"password": {Required: true},
	}

	UpdateProfileSchema = validate.Schema{
		"name": {Trim: true, MinLen: 2, MaxLen: 50},
	}

	ChangePasswordSchema = validate.Schema{
		"currentPassword": {Required: true, Label: "Current password"},
		"newPassword":     {Required: true, MinLen: 6, MaxLen: 72, Label: "New password"},
	}
)
