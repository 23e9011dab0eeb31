// internal/models/application.go
package models

// Offered programs an applicant may enrol in.
const (
	CourseCyberSecurity      = "MSc in Cyber Security"
	CourseInformationSystems = "MSc Information Systems & computing"
	CourseDataAnalytics      = "MSc Data Analytics"
)

// Courses lists the offered programs in display order.
var Courses = []string{
	CourseCyberSecurity,
	CourseInformationSystems,
	CourseDataAnalytics,
}

// IsOfferedCourse reports whether course is one of Courses.
func IsOfferedCourse(course string) bool {
	for _, c := range Courses {
		if c == course {
			return true
		}
	}
	return false
}

// ApplicationRecord is the document a submitter sends. It doubles as the
// request body on the wire.
type ApplicationRecord struct {
	Name           string `json:"name"`
	Address        string `json:"address"`
	Qualifications string `json:"qualifications"`
	Course         string `json:"course"`
	StartPeriod    string `json:"start_year_month"`
}

// StoredApplication is a persisted ApplicationRecord.
type StoredApplication struct {
	RowID         int64  `json:"rowId"`
	ApplicationID string `json:"applicationId"`
	ApplicationRecord
	CreatedAt string `json:"createdAt"` // ISO 8601
}
