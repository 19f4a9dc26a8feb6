package domain

import (
	"encoding/json"
	"fmt"
	"strconv"
	"time"
)

const (
	// VibeQuestionCount is the number of bubble questions on a vibe sheet.
	VibeQuestionCount = 14
	// StatsQuestionCount is the number of free-form questions on a stats sheet.
	StatsQuestionCount = 15
)

// FieldSet is the variant-specific payload of a record. Each sheet variant
// carries its own fixed field-set type; the set of fields never changes at
// runtime, only their values do.
type FieldSet interface {
	Variant() SheetVariant
	// Columns returns the export column names in their fixed order,
	// Student ID first.
	Columns() []string
	// Row returns the values aligned with Columns.
	Row() []string
	// Map returns a flat field-name to value view of the set.
	Map() map[string]any
	Validate() error
}

// InfoFields holds the extracted fields of an info sheet.
type InfoFields struct {
	FirstName   string `json:"firstName"`
	LastName    string `json:"lastName"`
	ParentName  string `json:"parentName"`
	SchoolName  string `json:"schoolName"`
	Date        string `json:"date"`
	Grade       string `json:"grade"`
	City        string `json:"city"`
	PhoneNumber string `json:"phoneNumber"`
	Email       string `json:"email"`
	StudentID   string `json:"studentId"`
}

func (f *InfoFields) Variant() SheetVariant { return VariantInfo }

func (f *InfoFields) Columns() []string {
	return []string{
		"Student ID", "First Name", "Last Name", "Parent Name", "School Name",
		"Date", "Grade", "City", "Phone Number", "Email",
	}
}

func (f *InfoFields) Row() []string {
	return []string{
		f.StudentID, f.FirstName, f.LastName, f.ParentName, f.SchoolName,
		f.Date, f.Grade, f.City, f.PhoneNumber, f.Email,
	}
}

func (f *InfoFields) Map() map[string]any {
	return map[string]any{
		"firstName":   f.FirstName,
		"lastName":    f.LastName,
		"parentName":  f.ParentName,
		"schoolName":  f.SchoolName,
		"date":        f.Date,
		"grade":       f.Grade,
		"city":        f.City,
		"phoneNumber": f.PhoneNumber,
		"email":       f.Email,
		"studentId":   f.StudentID,
	}
}

func (f *InfoFields) Validate() error {
	if f.Date != "" {
		if _, err := time.Parse("2006-01-02", f.Date); err != nil {
			return ValidationError(fmt.Sprintf("info sheet date %q is not YYYY-MM-DD", f.Date), err)
		}
	}
	return nil
}

// VibeFields holds the extracted fields of a vibe sheet. Answers are the
// flattened q1..q14 bubble values; nil means the question was left blank.
type VibeFields struct {
	Answers              [VibeQuestionCount]*int
	HandwrittenStatement string
	StudentID            string
}

func (f *VibeFields) Variant() SheetVariant { return VariantVibe }

func (f *VibeFields) Columns() []string {
	cols := make([]string, 0, VibeQuestionCount+2)
	cols = append(cols, "Student ID")
	for i := 1; i <= VibeQuestionCount; i++ {
		cols = append(cols, "Q"+strconv.Itoa(i))
	}
	return append(cols, "Handwritten Statement")
}

func (f *VibeFields) Row() []string {
	row := make([]string, 0, VibeQuestionCount+2)
	row = append(row, f.StudentID)
	for _, a := range f.Answers {
		if a == nil {
			row = append(row, "")
		} else {
			row = append(row, strconv.Itoa(*a))
		}
	}
	return append(row, f.HandwrittenStatement)
}

func (f *VibeFields) Map() map[string]any {
	m := make(map[string]any, VibeQuestionCount+2)
	for i, a := range f.Answers {
		key := "q" + strconv.Itoa(i+1)
		if a == nil {
			m[key] = nil
		} else {
			m[key] = *a
		}
	}
	m["handwrittenStatement"] = f.HandwrittenStatement
	m["studentId"] = f.StudentID
	return m
}

func (f *VibeFields) Validate() error {
	for i, a := range f.Answers {
		if a != nil && *a < 0 {
			return ValidationError(fmt.Sprintf("vibe sheet q%d has negative answer %d", i+1, *a), nil)
		}
	}
	return nil
}

// MarshalJSON emits the flat q1..q14 shape used by the record API.
func (f *VibeFields) MarshalJSON() ([]byte, error) {
	return json.Marshal(f.Map())
}

func (f *VibeFields) UnmarshalJSON(data []byte) error {
	var raw struct {
		HandwrittenStatement string `json:"handwrittenStatement"`
		StudentID            string `json:"studentId"`
	}
	if err := json.Unmarshal(data, &raw); err != nil {
		return err
	}
	var answers map[string]*int
	qOnly := make(map[string]json.RawMessage)
	if err := json.Unmarshal(data, &qOnly); err != nil {
		return err
	}
	answers = make(map[string]*int, VibeQuestionCount)
	for i := 1; i <= VibeQuestionCount; i++ {
		key := "q" + strconv.Itoa(i)
		if msg, ok := qOnly[key]; ok {
			var v *int
			if err := json.Unmarshal(msg, &v); err != nil {
				return fmt.Errorf("field %s: %w", key, err)
			}
			answers[key] = v
		}
	}
	f.HandwrittenStatement = raw.HandwrittenStatement
	f.StudentID = raw.StudentID
	for i := 0; i < VibeQuestionCount; i++ {
		f.Answers[i] = answers["q"+strconv.Itoa(i+1)]
	}
	return nil
}

// StatsFields holds the extracted fields of a stats sheet: fifteen free-form
// string answers plus the student identifier.
type StatsFields struct {
	Answers   [StatsQuestionCount]string
	StudentID string
}

func (f *StatsFields) Variant() SheetVariant { return VariantStats }

func (f *StatsFields) Columns() []string {
	cols := make([]string, 0, StatsQuestionCount+1)
	cols = append(cols, "Student ID")
	for i := 1; i <= StatsQuestionCount; i++ {
		cols = append(cols, "Q"+strconv.Itoa(i))
	}
	return cols
}

func (f *StatsFields) Row() []string {
	row := make([]string, 0, StatsQuestionCount+1)
	row = append(row, f.StudentID)
	return append(row, f.Answers[:]...)
}

func (f *StatsFields) Map() map[string]any {
	m := make(map[string]any, StatsQuestionCount+1)
	for i, a := range f.Answers {
		m["q"+strconv.Itoa(i+1)] = a
	}
	m["studentId"] = f.StudentID
	return m
}

func (f *StatsFields) Validate() error { return nil }

func (f *StatsFields) MarshalJSON() ([]byte, error) {
	return json.Marshal(f.Map())
}

func (f *StatsFields) UnmarshalJSON(data []byte) error {
	raw := make(map[string]json.RawMessage)
	if err := json.Unmarshal(data, &raw); err != nil {
		return err
	}
	for i := 1; i <= StatsQuestionCount; i++ {
		key := "q" + strconv.Itoa(i)
		if msg, ok := raw[key]; ok {
			if err := json.Unmarshal(msg, &f.Answers[i-1]); err != nil {
				return fmt.Errorf("field %s: %w", key, err)
			}
		}
	}
	if msg, ok := raw["studentId"]; ok {
		if err := json.Unmarshal(msg, &f.StudentID); err != nil {
			return fmt.Errorf("field studentId: %w", err)
		}
	}
	return nil
}

// NewFieldSet returns the zero field set for a variant.
func NewFieldSet(variant SheetVariant) (FieldSet, error) {
	switch variant {
	case VariantInfo:
		return &InfoFields{}, nil
	case VariantVibe:
		return &VibeFields{}, nil
	case VariantStats:
		return &StatsFields{}, nil
	default:
		return nil, ValidationError(fmt.Sprintf("unknown sheet variant %q", variant), nil)
	}
}

// DecodeFieldSet parses a flat JSON field object into the variant's typed
// field set and validates it.
func DecodeFieldSet(variant SheetVariant, data []byte) (FieldSet, error) {
	fields, err := NewFieldSet(variant)
	if err != nil {
		return nil, err
	}
	if err := json.Unmarshal(data, fields); err != nil {
		return nil, ValidationError("malformed field payload", err)
	}
	if err := fields.Validate(); err != nil {
		return nil, err
	}
	return fields, nil
}
