package tutor

import (
	"github.com/go-playground/validator/v10"

	"github.com/findmytutor/findmytutor/core"
)

var (
	experienceText = "experience must be a non-negative whole number of years"
	dateJoinedText = "dateJoined must be a date (YYYY-MM-DD) or an ISO 8601 timestamp"
)

func (nt *NewTutor) Validate(validate *validator.Validate) error {
	nt.Name = core.CleanString(nt.Name)
	nt.Qualification = core.CleanString(nt.Qualification)
	nt.DateJoined = core.CleanString(nt.DateJoined)
	if err := validate.Struct(nt); err != nil {
		return err
	}
	if _, err := parseExperience(nt.Experience); err != nil {
		return err
	}
	if nt.AssignedTuitions == nil {
		nt.AssignedTuitions = []Assignment{}
	}
	return nil
}

func (ut *UpdateTutor) Validate(validate *validator.Validate) error {
	ut.Name = core.CleanString(ut.Name)
	ut.Qualification = core.CleanString(ut.Qualification)
	ut.DateJoined = core.CleanString(ut.DateJoined)
	if err := validate.Struct(ut); err != nil {
		return err
	}
	_, err := parseExperience(ut.Experience)
	return err
}

func (na *NewAssignmentRequest) Validate(validate *validator.Validate) error {
	na.TutorID = core.CleanString(na.TutorID)
	na.Tuition = core.CleanString(na.Tuition)
	na.Date = core.CleanString(na.Date)
	return validate.Struct(na)
}

func (ra *ReplaceAssignments) Validate(validate *validator.Validate) error {
	ra.ID = core.CleanString(ra.ID)
	return validate.Struct(ra)
}
