package cache

import "fmt"

const keyPrefix = "grading"

// GradebookKey caches the aggregated gradebook of a course.
func GradebookKey(courseID string) string {
	return fmt.Sprintf("%s:gradebook:%s", keyPrefix, courseID)
}

// StudentSummaryKey caches one student's summary within a course.
func StudentSummaryKey(courseID, studentID string) string {
	return fmt.Sprintf("%s:gradebook:%s:student:%s", keyPrefix, courseID, studentID)
}

// StudentSummaryPattern matches every cached student summary of a course.
// The course gradebook itself is removed with GradebookKey.
func StudentSummaryPattern(courseID string) string {
	return fmt.Sprintf("%s:gradebook:%s:student:*", keyPrefix, courseID)
}
