package model

import (
	"net/mail"
	"strings"
	"time"
	"unicode"
)

const (
	minPasswordLength = 8
	// bcrypt ignores everything past 72 bytes.
	maxPasswordBytes = 72
)

type RegisterDTO struct {
	Validator
	Email    string `json:"email"`
	Password string `json:"password"`
	Name     string `json:"name"`
	Role     string `json:"role"`
}

type LoginDTO struct {
	Validator
	Email    string `json:"email"`
	Password string `json:"password"`
}

type ChangePasswordDTO struct {
	Validator

	Password    string `json:"password"`
	NewPassword string `json:"newPassword"`
}

func (dto *RegisterDTO) Validate() map[string]string {
	err := make(map[string]string)

	validateEmail(dto.Email, err)

	if strings.TrimSpace(dto.Name) == "" {
		err["name"] = ErrEmptyField
	}

	if dto.Role == "" {
		err["role"] = ErrEmptyField
	} else if !contains(SelfRegisterRoles, dto.Role) {
		err["role"] = ErrInvalidField
	}

	if dto.Password == "" {
		err["password"] = ErrEmptyField
	} else if !isStrongPassword(dto.Password) {
		err["password"] = ErrInvalidField
	}

	return err
}

func (dto *LoginDTO) Validate() map[string]string {
	err := make(map[string]string)

	validateEmail(dto.Email, err)

	if dto.Password == "" {
		err["password"] = ErrEmptyField
	}

	return err
}

func (dto *ChangePasswordDTO) Validate() map[string]string {
	err := make(map[string]string)
	if dto.Password == "" {
		err["password"] = ErrEmptyField
	}

	switch {
	case dto.NewPassword == "":
		err["newPassword"] = ErrEmptyField
	case dto.Password == dto.NewPassword:
		err["newPassword"] = ErrInvalidField
	case !isStrongPassword(dto.NewPassword):
		err["newPassword"] = ErrInvalidField
	}

	return err
}

func validateEmail(email string, err map[string]string) {
	if strings.TrimSpace(email) == "" {
		err["email"] = ErrEmptyField
	} else if _, pErr := mail.ParseAddress(email); pErr != nil {
		err["email"] = ErrInvalidField
	}
}

// isStrongPassword requires a lowercase letter, an uppercase letter, a digit
// and a length between minPasswordLength runes and maxPasswordBytes bytes.
func isStrongPassword(p string) bool {
	var hasLower, hasUpper, hasDigit bool

	for _, char := range p {
		switch {
		case unicode.IsLower(char):
			hasLower = true
		case unicode.IsUpper(char):
			hasUpper = true
		case unicode.IsDigit(char):
			hasDigit = true
		}
	}

	return hasLower && hasUpper && hasDigit && len([]rune(p)) >= minPasswordLength && len(p) <= maxPasswordBytes
}

type LoginResponse struct {
	TokenType   string    `json:"tokenType"`
	AccessToken string    `json:"accessToken"`
	ExpiresAt   time.Time `json:"expiresAt"`
	User        Identity  `json:"user"`
}

// JwtDTO is what gets signed into an access token.
type JwtDTO struct {
	ID                int64  `json:"id"`
	Role              string `json:"role"`
	Email             string `json:"email,omitempty"`
	Name              string `json:"name,omitempty"`
	PasswordTemporary bool   `json:"passwordTemporary"`
}

func (u User) TokenDTO() JwtDTO {
	return JwtDTO{
		ID:                u.ID,
		Role:              u.Role,
		Email:             u.Email,
		Name:              u.Name,
		PasswordTemporary: u.PasswordTemporary,
	}
}
