package forms

import (
	"strings"
	"unicode"
)

type LoginForm struct {
	Email    string `form:"email" validate:"required,email"`
	Password string `form:"password" validate:"required"`
	Redirect string `form:"redirect"`
}

var authLabels = map[string]string{
	"name":     "Name",
	"email":    "Email",
	"password": "Password",
	"photoURL": "Photo URL",
}

func (f *LoginForm) Validate() FieldErrors {
	f.Email = strings.TrimSpace(f.Email)
	return check(f, authLabels)
}

type RegisterForm struct {
	Name     string `form:"name" validate:"required"`
	Email    string `form:"email" validate:"required,email"`
	Password string `form:"password" validate:"required"`
	PhotoURL string `form:"photoURL" validate:"omitempty,url"`
}

// PasswordRule is one line of the password checklist.
type PasswordRule struct {
	Label string
	Met   bool
}

func PasswordRules(pw string) []PasswordRule {
	var upper, lower bool
	for _, r := range pw {
		upper = upper || unicode.IsUpper(r)
		lower = lower || unicode.IsLower(r)
	}
	return []PasswordRule{
		{Label: "At least one uppercase letter", Met: upper},
		{Label: "At least one lowercase letter", Met: lower},
		{Label: "At least 6 characters", Met: len([]rune(pw)) >= 6},
	}
}

func (f *RegisterForm) Validate() FieldErrors {
	f.Name = strings.TrimSpace(f.Name)
	f.Email = strings.TrimSpace(f.Email)
	errs := check(f, authLabels)
	if _, ok := errs["password"]; !ok {
		for _, rule := range PasswordRules(f.Password) {
			if !rule.Met {
				errs.Add("password", "Password needs: "+strings.ToLower(rule.Label))
				break
			}
		}
	}
	return errs
}

type ForgotForm struct {
	Email string `form:"email" validate:"required,email"`
}

func (f *ForgotForm) Validate() FieldErrors {
	f.Email = strings.TrimSpace(f.Email)
	return check(f, authLabels)
}
