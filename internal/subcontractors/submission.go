package subcontractors

import (
	"errors"
	"reflect"
	"sort"
	"strings"

	"github.com/go-playground/validator/v10"

	"ascend-backend/internal/extraction"
)

var (
	// ErrMissingFields rejects a pack with an empty required text field.
	ErrMissingFields = errors.New("missing required fields")
	// ErrMissingInsurance rejects a pack without both mandatory certificates.
	ErrMissingInsurance = errors.New("public liability and workers comp insurance are required")
)

// File is one upload as the browser sends it: Data is a base64 data URI.
type File struct {
	Name string `json:"name"`
	Type string `json:"type"`
	Data string `json:"data"`
}

// Files holds the uploads keyed by purpose.
type Files struct {
	PublicLiability *File `json:"publicLiability" validate:"required"`
	WorkersComp     *File `json:"workersComp" validate:"required"`
	OtherCerts      *File `json:"otherCerts"`
}

// Submission is the subcontractor pack form payload.
type Submission struct {
	FirstName       string `json:"firstName" validate:"required"`
	LastName        string `json:"lastName" validate:"required"`
	Email           string `json:"email" validate:"required"`
	Phone           string `json:"phone" validate:"required"`
	BusinessName    string `json:"businessName" validate:"required"`
	ABN             string `json:"abn"`
	BusinessAddress string `json:"businessAddress"`
	BSB             string `json:"bsb" validate:"required"`
	AccountNumber   string `json:"accountNumber" validate:"required"`
	AccountName     string `json:"accountName" validate:"required"`
	Files           Files  `json:"files"`
}

// ValidationError names the fields that failed. It unwraps to
// ErrMissingFields or ErrMissingInsurance.
type ValidationError struct {
	Fields []string
	kind   error
}

func (e *ValidationError) Error() string { return e.kind.Error() }

func (e *ValidationError) Unwrap() error { return e.kind }

var validate = newValidator()

func newValidator() *validator.Validate {
	v := validator.New()
	v.RegisterTagNameFunc(func(fld reflect.StructField) string {
		name := strings.SplitN(fld.Tag.Get("json"), ",", 2)[0]
		if name == "-" {
			return ""
		}
		return name
	})
	return v
}

// normalize trims text fields and drops uploads that carry no data.
func (s Submission) normalize() Submission {
	for _, f := range []*string{
		&s.FirstName, &s.LastName, &s.Email, &s.Phone, &s.BusinessName,
		&s.ABN, &s.BusinessAddress, &s.BSB, &s.AccountNumber, &s.AccountName,
	} {
		*f = strings.TrimSpace(*f)
	}
	s.Email = strings.ToLower(s.Email)
	s.Files.PublicLiability = keepFile(s.Files.PublicLiability)
	s.Files.WorkersComp = keepFile(s.Files.WorkersComp)
	s.Files.OtherCerts = keepFile(s.Files.OtherCerts)
	return s
}

func keepFile(f *File) *File {
	if f == nil || strings.TrimSpace(f.Data) == "" {
		return nil
	}
	out := *f
	out.Name = strings.TrimSpace(out.Name)
	if out.Name == "" {
		out.Name = "document"
	}
	return &out
}

// Validate checks a normalized submission. Text fields are reported before
// files, matching the order the form shows errors.
func (s Submission) Validate() error {
	err := validate.Struct(s)
	if err == nil {
		return nil
	}
	var verrs validator.ValidationErrors
	if !errors.As(err, &verrs) {
		return err
	}

	var fields, files []string
	for _, fe := range verrs {
		if strings.HasPrefix(fe.Namespace(), "Submission.files.") {
			files = append(files, fe.Field())
			continue
		}
		fields = append(fields, fe.Field())
	}
	sort.Strings(fields)
	sort.Strings(files)
	if len(fields) > 0 {
		return &ValidationError{Fields: fields, kind: ErrMissingFields}
	}
	return &ValidationError{Fields: files, kind: ErrMissingInsurance}
}

type upload struct {
	purpose extraction.DocumentType
	file    *File
}

// uploads lists the provided files in processing order.
func (s Submission) uploads() []upload {
	all := []upload{
		{purpose: extraction.PublicLiability, file: s.Files.PublicLiability},
		{purpose: extraction.WorkersComp, file: s.Files.WorkersComp},
		{purpose: extraction.Other, file: s.Files.OtherCerts},
	}
	out := all[:0]
	for _, u := range all {
		if u.file != nil {
			out = append(out, u)
		}
	}
	return out
}
