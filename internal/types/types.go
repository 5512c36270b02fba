// Package types holds the shared data structures used across the
// application. Handlers, storage, validation and the client packages all
// import types without depending on each other.
package types

// Multipart part names used by the add-school form and the ingestion
// endpoint. They are also the keys of per-field validation errors.
const (
	FieldSchoolName    = "schoolName"
	FieldEmailAddress  = "emailAddress"
	FieldAddress       = "address"
	FieldCity          = "city"
	FieldState         = "state"
	FieldContactNumber = "contactNumber"
	FieldSchoolImage   = "schoolImage"
)

// ScalarFields lists the text fields of the form in display order.
var ScalarFields = []string{
	FieldSchoolName,
	FieldEmailAddress,
	FieldAddress,
	FieldCity,
	FieldState,
	FieldContactNumber,
}

// School is one persisted record.
//
// Image is nil when no picture was uploaded; it encodes to JSON null so
// clients can tell "no image" apart from an empty string.
type School struct {
	ID      int64   `json:"id"`
	Name    string  `json:"name"`
	Email   string  `json:"email"`
	Address string  `json:"address"`
	City    string  `json:"city"`
	State   string  `json:"state"`
	Contact string  `json:"contact"`
	Image   *string `json:"image"`
}

// Image is a file chosen on the form. Only the first selected file is
// ever sent.
type Image struct {
	Filename string
	Data     []byte
}

// SchoolForm is the candidate value set checked by the validation schema.
//
// The validate tags are interpreted by go-playground/validator; "phone"
// is a custom tag registered by the validation package.
type SchoolForm struct {
	SchoolName    string `json:"schoolName"    validate:"required,min=2"`
	EmailAddress  string `json:"emailAddress"  validate:"required,email"`
	Address       string `json:"address"       validate:"required,min=5"`
	City          string `json:"city"          validate:"required,min=2"`
	State         string `json:"state"         validate:"required,min=2"`
	ContactNumber string `json:"contactNumber" validate:"required,phone,min=10"`
	SchoolImage   *Image `json:"-"`
}

// Get returns the value of a scalar field by its part name.
func (f SchoolForm) Get(field string) string {
	switch field {
	case FieldSchoolName:
		return f.SchoolName
	case FieldEmailAddress:
		return f.EmailAddress
	case FieldAddress:
		return f.Address
	case FieldCity:
		return f.City
	case FieldState:
		return f.State
	case FieldContactNumber:
		return f.ContactNumber
	}
	return ""
}

// Set assigns a scalar field by its part name and reports whether the
// name was recognised.
func (f *SchoolForm) Set(field, value string) bool {
	switch field {
	case FieldSchoolName:
		f.SchoolName = value
	case FieldEmailAddress:
		f.EmailAddress = value
	case FieldAddress:
		f.Address = value
	case FieldCity:
		f.City = value
	case FieldState:
		f.State = value
	case FieldContactNumber:
		f.ContactNumber = value
	default:
		return false
	}
	return true
}

// School converts a validated form into a record ready for insertion.
// The image URL is filled in by the caller after the blob upload.
func (f SchoolForm) School() School {
	return School{
		Name:    f.SchoolName,
		Email:   f.EmailAddress,
		Address: f.Address,
		City:    f.City,
		State:   f.State,
		Contact: f.ContactNumber,
	}
}
