package filter

import "sort"

// Field is a filterable candidate attribute.
type Field string

const (
	FieldHeadline           Field = "headline"
	FieldBio                Field = "bio"
	FieldLocation           Field = "location"
	FieldRole               Field = "role"
	FieldDescription        Field = "description"
	FieldCompanyName        Field = "company_name"
	FieldCompanyDescription Field = "company_description"
	FieldSchool             Field = "school"
	FieldDegree             Field = "degree"
	FieldFieldOfStudy       Field = "field_of_study"
	FieldPublicationTitle   Field = "publication_title"
	FieldPublicationVenue   Field = "publication_venue"
)

// columns maps each allowed field to the qualified column it reads. The
// table aliases match the joins built by the search executor.
var columns = map[Field]string{
	FieldHeadline:           "c.headline",
	FieldBio:                "c.bio",
	FieldLocation:           "c.location",
	FieldRole:               "e.role",
	FieldDescription:        "e.description",
	FieldCompanyName:        "co.name",
	FieldCompanyDescription: "co.description",
	FieldSchool:             "ed.school",
	FieldDegree:             "ed.degree",
	FieldFieldOfStudy:       "ed.field_of_study",
	FieldPublicationTitle:   "p.title",
	FieldPublicationVenue:   "p.venue",
}

// Column returns the SQL column for f and whether f is allowed.
func Column(f Field) (string, bool) {
	col, ok := columns[f]
	return col, ok
}

// Fields returns the allowed field names in sorted order.
func Fields() []string {
	names := make([]string, 0, len(columns))
	for f := range columns {
		names = append(names, string(f))
	}
	sort.Strings(names)
	return names
}

const (
	OpAnd = "and"
	OpOr  = "or"

	OperatorContains = "contains"
)
