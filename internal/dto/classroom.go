package dto

// RegisterRequest creates a new account.
type RegisterRequest struct {
	Name              string `json:"name" validate:"required,max=120"`
	Email             string `json:"email" validate:"required,email"`
	Password          string `json:"password" validate:"required,min=6"`
	Role              string `json:"role" validate:"required,oneof=teacher student"`
	PreferredLanguage string `json:"preferredLanguage" validate:"omitempty,bcp47_language_tag"`
}

// LoginRequest holds credentials for authenticating a user.
type LoginRequest struct {
	Email    string `json:"email" validate:"required,email"`
	Password string `json:"password" validate:"required"`
}

// UpdateProfileRequest changes any subset of the caller's profile.
type UpdateProfileRequest struct {
	Name     *string `json:"name" validate:"omitempty,min=1,max=120"`
	Email    *string `json:"email" validate:"omitempty,email"`
	Language *string `json:"language" validate:"omitempty,min=2"`
}

// Empty reports whether no field was provided.
func (r UpdateProfileRequest) Empty() bool {
	return r.Name == nil && r.Email == nil && r.Language == nil
}

// UploadFileRequest carries the multipart fields sent with an upload.
type UploadFileRequest struct {
	Name    string `form:"name" json:"name" validate:"required,max=255"`
	ClassID string `form:"classId" json:"classId" validate:"required"`
	Type    string `form:"type" json:"type" validate:"required,oneof=resource assignment"`
}

// UpdateFileRequest renames a file or changes its type.
type UpdateFileRequest struct {
	Name *string `json:"name" validate:"omitempty,min=1,max=255"`
	Type *string `json:"type" validate:"omitempty,oneof=resource assignment"`
}

// SubmitAssignmentRequest carries the multipart fields of a submission.
type SubmitAssignmentRequest struct {
	AssignmentID string `form:"assignmentId" json:"assignmentId" validate:"required"`
}

// CreateClassRequest creates a class owned by the caller.
type CreateClassRequest struct {
	Name string `json:"name" validate:"required,max=120"`
}

// AddStudentRequest enrolls a student in a class.
type AddStudentRequest struct {
	StudentID string `json:"studentId" validate:"required"`
}

// GradeSubmissionRequest records a grade and optional feedback.
type GradeSubmissionRequest struct {
	Grade    *float64 `json:"grade" validate:"required,gte=0,lte=100"`
	Feedback string   `json:"feedback" validate:"max=2000"`
}
