package homework

import (
	"time"

	"github.com/darasa-app/darasa/core"
)

type Homework struct {
	ID          string    `json:"id"`
	GroupID     string    `json:"group_id"`
	Title       string    `json:"title"`
	Description string    `json:"description"`
	DueAt       time.Time `json:"due_at"`     // UTC
	CreatedAt   time.Time `json:"created_at"` // UTC
	UpdatedAt   time.Time `json:"updated_at"` // UTC
	RemindedAt  time.Time `json:"-"`          // UTC; zero = no deadline reminder sent yet
	DeletedAt   time.Time `json:"-"`          // UTC; zero = live
}

func (hw *Homework) IsDeleted() bool {
	return !hw.DeletedAt.IsZero()
}

// NewHomework contains information needed to create a new Homework assignment.
type NewHomework struct {
	Title       string    `json:"title" validate:"required"`
	Description string    `json:"description"`
	DueAt       time.Time `json:"due_at" validate:"required"`
}

func (nh *NewHomework) Validate() error {
	nh.Title = core.CleanString(nh.Title)
	nh.Description = core.CleanString(nh.Description)
	if err := core.Validate.Struct(nh); err != nil {
		return err
	}
	if !nh.DueAt.After(time.Now()) {
		return core.NewValidationError(nil, core.FieldError{Field: "due_at", Error: "due date must be in the future"})
	}
	return nil
}

// UpdateHomework defines what information may be provided to modify an existing Homework.
type UpdateHomework struct {
	Title       string    `json:"title"`
	Description string    `json:"description"`
	DueAt       time.Time `json:"due_at"`
}

func (uh *UpdateHomework) Validate(orig Homework) error {
	title := core.CleanString(uh.Title)
	if title != "" {
		uh.Title = title
	} else {
		uh.Title = orig.Title
	}

	desc := core.CleanString(uh.Description)
	if desc != "" {
		uh.Description = desc
	} else {
		uh.Description = orig.Description
	}

	if uh.DueAt.IsZero() {
		uh.DueAt = orig.DueAt
	}
	return core.Validate.Struct(uh)
}
