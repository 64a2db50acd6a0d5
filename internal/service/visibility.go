package service

import "app/internal/model"

// ContentPreviewLimit is the number of characters of course content shown
// to viewers without full access.
const ContentPreviewLimit = 200

// The visibility policy is a set of pure predicates over (course, viewer,
// roster membership). Every course-serving path evaluates these same
// functions; a viewer's access is never cached across requests.

// CanSeeFullContent reports whether the viewer may read the full course
// content: the owner or an enrolled student.
func CanSeeFullContent(course *model.Course, viewerID string, enrolled bool) bool {
	if viewerID == "" {
		return false
	}
	return course.InstructorID == viewerID || enrolled
}

// CanSeeRoster reports whether the viewer may read the roster list. Only
// the owner: enrolled peers may learn the roster count, never the list.
func CanSeeRoster(course *model.Course, viewerID string) bool {
	return viewerID != "" && course.InstructorID == viewerID
}

// CanSeeInstructorContactInfo follows the same rule as CanSeeFullContent.
func CanSeeInstructorContactInfo(course *model.Course, viewerID string, enrolled bool) bool {
	return CanSeeFullContent(course, viewerID, enrolled)
}

// PreviewContent truncates content for viewers without full access. The
// second return value marks that content was withheld.
func PreviewContent(content string) (string, bool) {
	runes := []rune(content)
	if len(runes) <= ContentPreviewLimit {
		return content, false
	}
	return string(runes[:ContentPreviewLimit]), true
}
