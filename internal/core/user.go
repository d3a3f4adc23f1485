package core

// User is the record exchanged with the users backend. ID stays empty until
// the backend assigns one.
type User struct {
	ID        string `json:"id,omitempty"`
	FirstName string `json:"firstName"`
	LastName  string `json:"lastName"`
	Email     string `json:"email"`
	Phone     string `json:"phone"`
	Role      string `json:"role,omitempty"`
}

// Field names as they appear in JSON and in form posts.
const (
	FieldFirstName = "firstName"
	FieldLastName  = "lastName"
	FieldEmail     = "email"
	FieldPhone     = "phone"
	FieldRole      = "role"
)

// Fields lists the editable fields in display order.
var Fields = []string{FieldFirstName, FieldLastName, FieldEmail, FieldRole, FieldPhone}

// Get returns the value of the named editable field.
func (u User) Get(field string) string {
	switch field {
	case FieldFirstName:
		return u.FirstName
	case FieldLastName:
		return u.LastName
	case FieldEmail:
		return u.Email
	case FieldPhone:
		return u.Phone
	case FieldRole:
		return u.Role
	}
	return ""
}

// With returns a copy of u with the named field set to v. Unknown fields are ignored.
func (u User) With(field, v string) User {
	switch field {
	case FieldFirstName:
		u.FirstName = v
	case FieldLastName:
		u.LastName = v
	case FieldEmail:
		u.Email = v
	case FieldPhone:
		u.Phone = v
	case FieldRole:
		u.Role = v
	}
	return u
}

// FullName joins the name parts, skipping empty ones.
func (u User) FullName() string {
	switch {
	case u.FirstName == "":
		return u.LastName
	case u.LastName == "":
		return u.FirstName
	}
	return u.FirstName + " " + u.LastName
}
