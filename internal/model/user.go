package model

import (
	"net/url"
	"strconv"
	"time"
)

const (
	RoleStudent  = "STUDENT"
	RoleEmployer = "EMPLOYER"
	RoleAdmin    = "ADMIN"
)

var PossibleRoles = []string{RoleStudent, RoleEmployer, RoleAdmin}

// SelfRegisterRoles are the roles a visitor may pick at signup.
var SelfRegisterRoles = []string{RoleStudent, RoleEmployer}

func IsValidRole(role string) bool {
	return contains(PossibleRoles, role)
}

type User struct {
	ID                int64     `db:"id" json:"id"`
	Email             string    `db:"email" json:"email"`
	Name              string    `db:"name" json:"name,omitempty"`
	Role              string    `db:"role" json:"role"`
	Password          string    `db:"password_hash" json:"-"`
	PasswordTemporary bool      `db:"password_temporary" json:"passwordTemporary"`
	CreatedAt         time.Time `db:"created_at" json:"createdAt"`
}

func (u User) Identity() Identity {
	return Identity{
		ID:                u.ID,
		Role:              u.Role,
		Email:             u.Email,
		Name:              u.Name,
		PasswordTemporary: u.PasswordTemporary,
	}
}

type UserListQuery struct {
	Role   string
	Limit  int
	Offset int
}

func ParseUserListQuery(v url.Values) (UserListQuery, map[string]string) {
	q := UserListQuery{Role: v.Get("role")}
	errs := map[string]string{}

	if q.Role != "" && !IsValidRole(q.Role) {
		errs["role"] = ErrInvalidField
	}
	q.Limit, q.Offset = parsePage(v, errs)

	return q, errs
}

type UserListResponse struct {
	Items []User `json:"items"`
	Total int64  `json:"total"`
}

type ResetPasswordResponse struct {
	TemporaryPassword string `json:"temporaryPassword"`
}

func parsePage(v url.Values, errs map[string]string) (limit, offset int) {
	limit = DefaultPageLimit
	if raw := v.Get("limit"); raw != "" {
		n, err := strconv.Atoi(raw)
		if err != nil || n < 1 || n > MaxPageLimit {
			errs["limit"] = ErrInvalidField
		} else {
			limit = n
		}
	}
	if raw := v.Get("offset"); raw != "" {
		n, err := strconv.Atoi(raw)
		if err != nil || n < 0 {
			errs["offset"] = ErrInvalidField
		} else {
			offset = n
		}
	}
	return limit, offset
}

func contains(list []string, v string) bool {
	for _, item := range list {
		if item == v {
			return true
		}
	}
	return false
}
