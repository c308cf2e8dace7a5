package model

// Department is an academic department questions can be addressed to.
type Department struct {
	ID   int
	Name string
}

// StaffMember is a staff member questions or reports can be addressed to.
type StaffMember struct {
	ID         int
	Name       string
	Department string
}

// Departments lists the departments offered by the director forms.
var Departments = []Department{
	{ID: 1, Name: "Computer Science"},
	{ID: 2, Name: "Information Technology"},
}

// StaffMembers lists the staff offered by the director forms.
var StaffMembers = []StaffMember{
	{ID: 1, Name: "John Doe", Department: "Computer Science"},
	{ID: 2, Name: "Jane Smith", Department: "Information Technology"},
}

// StudyYears are the student years a question can target.
var StudyYears = []int{1, 2, 3, 4}

// DepartmentName returns the name of department id, or "" if unknown.
func DepartmentName(id int) string {
	for _, d := range Departments {
		if d.ID == id {
			return d.Name
		}
	}
	return ""
}
