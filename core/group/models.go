package group

import (
	"time"

	"github.com/darasa-app/darasa/core"
)

type Group struct {
	ID           string    `json:"id"`
	Name         string    `json:"name"`
	AcademicYear string    `json:"academic_year"`
	CreatedAt    time.Time `json:"created_at"` // UTC
	UpdatedAt    time.Time `json:"updated_at"` // UTC
}

// Member is a user enrolled in a group, as exposed by the members endpoint.
type Member struct {
	UserID   string `json:"user_id"`
	Name     string `json:"name"`
	Username string `json:"username"`
	Email    string `json:"email"`
}

// NewGroup contains information needed to create a new Group.
type NewGroup struct {
	Name         string `json:"name" validate:"required"`
	AcademicYear string `json:"academic_year" validate:"required,len=9"` // e.g. 2025/2026
}

func (ng *NewGroup) Validate() error {
	ng.Name = core.CleanString(ng.Name)
	ng.AcademicYear = core.CleanString(ng.AcademicYear)
	return core.Validate.Struct(ng)
}

// UpdateGroup defines what information may be provided to modify an existing Group.
type UpdateGroup struct {
	Name         string `json:"name"`
	AcademicYear string `json:"academic_year" validate:"omitempty,len=9"`
}

func (ug *UpdateGroup) Validate(orig Group) error {
	name := core.CleanString(ug.Name)
	if name != "" {
		ug.Name = name
	} else {
		ug.Name = orig.Name
	}

	year := core.CleanString(ug.AcademicYear)
	if year != "" {
		ug.AcademicYear = year
	} else {
		ug.AcademicYear = orig.AcademicYear
	}
	return core.Validate.Struct(ug)
}

// AddMembersRequest enrolls users into a group.
type AddMembersRequest struct {
	UserIDs []string `json:"user_ids" validate:"required,min=1"`
}

func (am AddMembersRequest) Validate() error { return core.Validate.Struct(am) }
