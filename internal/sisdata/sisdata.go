// Package sisdata holds the sample student-information-system dataset used by
// the demo binary and the engine tests. In production the record store is an
// external collaborator; the engine only ever sees pre-fetched rows like these.
package sisdata

import (
	"github.com/edushield/edushield/internal/model"
	"github.com/edushield/edushield/internal/registry"
)

// User ids present in the sample dataset.
const (
	AdminID    = "admin-1"
	Teacher1ID = "teacher-1"
	Teacher2ID = "teacher-2"
	Student1ID = "student-1"
	Student2ID = "student-2"
	Student3ID = "student-3"
)

// Records returns a fresh copy of the sample dataset. Each call builds new
// maps so tests can mutate their copy freely.
func Records() model.RecordSet {
	return model.RecordSet{
		registry.ResourcePersons: {
			{"person_id": AdminID, "name": "Robert Torres", "role": "admin", "email": "rtorres@school.edu", "ssn": "211-45-6789", "title": "Registrar"},
			{"person_id": Teacher1ID, "name": "Sarah Chen", "role": "teacher", "email": "schen@school.edu", "ssn": "301-22-8890", "department": "Computer Science"},
			{"person_id": Teacher2ID, "name": "Miguel Alvarez", "role": "teacher", "email": "malvarez@school.edu", "ssn": "302-67-1145", "department": "Philosophy"},
			{"person_id": Student1ID, "name": "Alex Rivera", "role": "student", "email": "arivera@school.edu", "ssn": "410-55-2231", "major": "Computer Science", "year": 2},
			{"person_id": Student2ID, "name": "Diana Wu", "role": "student", "email": "dwu@school.edu", "ssn": "411-09-7764", "major": "Data Science", "year": 3},
			{"person_id": Student3ID, "name": "Eve Okafor", "role": "student", "email": "eokafor@school.edu", "ssn": "412-81-3359", "major": "Philosophy", "year": 1},
		},
		registry.ResourceFinancial: {
			{"person_id": Student1ID, "type": "tuition", "amount_due": 5000.0, "amount_paid": 3500.0, "balance": 1500.0, "scholarship": "merit", "status": "current"},
			{"person_id": Student2ID, "type": "tuition", "amount_due": 5000.0, "amount_paid": 5000.0, "balance": 0.0, "scholarship": "none", "status": "paid"},
			{"person_id": Student3ID, "type": "tuition", "amount_due": 5000.0, "amount_paid": 1000.0, "balance": 4000.0, "scholarship": "need", "status": "overdue"},
			{"person_id": Teacher1ID, "type": "salary", "annual_salary": 75000.0, "amount": 75000.0, "pay_frequency": "monthly", "benefits": "full", "status": "active", "description": "Annual"},
			{"person_id": Teacher2ID, "type": "salary", "annual_salary": 72000.0, "amount": 72000.0, "pay_frequency": "monthly", "benefits": "full", "status": "active", "description": "Annual"},
		},
		registry.ResourceGrades: {
			{"student_id": Student1ID, "class_id": "CS101", "midterm": 92, "final": 95, "grade": "A", "attendance_rate": 0.97},
			{"student_id": Student1ID, "class_id": "CS102", "midterm": 85, "final": 88, "grade": "B", "attendance_rate": 0.92},
			{"student_id": Student2ID, "class_id": "CS102", "midterm": 94, "final": 96, "grade": "A", "attendance_rate": 0.99},
			{"student_id": Student2ID, "class_id": "PHIL201", "midterm": 88, "final": 90, "grade": "B+", "attendance_rate": 0.95},
			{"student_id": Student3ID, "class_id": "CS101", "midterm": 81, "final": 86, "grade": "B", "attendance_rate": 0.89},
			{"student_id": Student3ID, "class_id": "PHIL201", "midterm": 93, "final": 94, "grade": "A", "attendance_rate": 0.98},
		},
		registry.ResourceClasses: {
			{"class_id": "CS101", "name": "Introduction to AI", "teacher_name": "Sarah Chen", "schedule": "MWF 09:00", "room": "H-204", "credits": 4, "enrolled_students": []string{"Alex Rivera", "Eve Okafor"}},
			{"class_id": "CS102", "name": "Data Privacy", "teacher_name": "Sarah Chen", "schedule": "TTh 11:00", "room": "H-110", "credits": 3, "enrolled_students": []string{"Alex Rivera", "Diana Wu"}},
			{"class_id": "PHIL201", "name": "Ethics in Tech", "teacher_name": "Miguel Alvarez", "schedule": "MWF 14:00", "room": "B-017", "credits": 3, "enrolled_students": []string{"Diana Wu", "Eve Okafor"}},
		},
		registry.ResourceDocuments: {
			{"doc_id": "doc-001", "title": "Student Handbook 2026", "snippet": "Attendance and grading policies for the academic year.", "source": "handbook.pdf"},
			{"doc_id": "doc-002", "title": "FERPA Compliance Guide", "snippet": "How the institution handles education records.", "source": "ferpa.pdf"},
		},
	}
}
