package service

import (
	"context"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/noah-isme/classroom-api/internal/dto"
	"github.com/noah-isme/classroom-api/internal/models"
	appErrors "github.com/noah-isme/classroom-api/pkg/errors"
)

type classRepository interface {
	Create(ctx context.Context, class *models.Class) error
	FindByID(ctx context.Context, id string) (*models.Class, error)
	ListByTeacher(ctx context.Context, teacherID string) ([]models.Class, error)
	ListByStudent(ctx context.Context, studentID string) ([]models.Class, error)
	AddStudent(ctx context.Context, classID, studentID string, updatedAt time.Time) (bool, error)
}

type userLookup interface {
	FindByID(ctx context.Context, id string) (*models.User, error)
}

// ClassService manages classes and enrollment.
type ClassService struct {
	classes   classRepository
	users     userLookup
	validator *validator.Validate
	logger    *zap.Logger
}

// NewClassService constructs a ClassService.
func NewClassService(classes classRepository, users userLookup, validate *validator.Validate, logger *zap.Logger) *ClassService {
	if logger == nil {
		logger = zap.NewNop()
	}
	if validate == nil {
		validate = validator.New()
	}
	return &ClassService{classes: classes, users: users, validator: validate, logger: logger}
}

// Create registers a class taught by the caller.
func (s *ClassService) Create(ctx context.Context, claims *models.JWTClaims, req dto.CreateClassRequest) (*models.Class, error) {
	if err := requireTeacher(claims); err != nil {
		return nil, err
	}
	if err := s.validator.Struct(req); err != nil {
		return nil, validationError(err, "invalid class payload")
	}
	if err := notBlank(appErrors.ErrValidation, "name", req.Name); err != nil {
		return nil, err
	}

	now := time.Now().UTC()
	class := &models.Class{
		ID:        uuid.NewString(),
		Name:      strings.TrimSpace(req.Name),
		TeacherID: claims.UserID,
		Students:  []string{},
		CreatedAt: now,
		UpdatedAt: now,
	}
	if err := s.classes.Create(ctx, class); err != nil {
		return nil, appErrors.Internal(err, "failed to create class")
	}
	return class, nil
}

// List returns the classes a teacher teaches or a student attends.
func (s *ClassService) List(ctx context.Context, claims *models.JWTClaims) ([]models.Class, error) {
	var (
		classes []models.Class
		err     error
	)
	if claims.Role == models.RoleTeacher {
		classes, err = s.classes.ListByTeacher(ctx, claims.UserID)
	} else {
		classes, err = s.classes.ListByStudent(ctx, claims.UserID)
	}
	if err != nil {
		return nil, appErrors.Internal(err, "failed to list classes")
	}
	if classes == nil {
		classes = []models.Class{}
	}
	return classes, nil
}

// Get returns a class visible to its teacher and enrolled students.
func (s *ClassService) Get(ctx context.Context, claims *models.JWTClaims, classID string) (*models.Class, error) {
	class, err := s.load(ctx, classID)
	if err != nil {
		return nil, err
	}
	if !class.CanAccess(claims.UserID) {
		return nil, appErrors.ErrNotEnrolled
	}
	return class, nil
}

// AddStudent enrolls a student. Enrolling twice is a no-op.
func (s *ClassService) AddStudent(ctx context.Context, claims *models.JWTClaims, classID string, req dto.AddStudentRequest) (*models.Class, error) {
	if err := s.validator.Struct(req); err != nil {
		return nil, validationError(err, "invalid enrollment payload")
	}
	if err := requireID("studentId", req.StudentID); err != nil {
		return nil, err
	}
	class, err := s.load(ctx, classID)
	if err != nil {
		return nil, err
	}
	if class.TeacherID != claims.UserID {
		return nil, appErrors.Clone(appErrors.ErrForbidden, "only the class teacher can enroll students")
	}

	student, err := s.users.FindByID(ctx, req.StudentID)
	if err != nil {
		return nil, notFoundOr(err, "student not found", "failed to load student")
	}
	if student.Role != models.RoleStudent {
		return nil, fieldError("studentId", "user is not a student", "must reference a student account")
	}

	changed, err := s.classes.AddStudent(ctx, class.ID, student.ID, time.Now().UTC())
	if err != nil {
		return nil, appErrors.Internal(err, "failed to enroll student")
	}
	if changed {
		s.logger.Info("student enrolled", zap.String("class_id", class.ID), zap.String("student_id", student.ID))
	}
	return s.load(ctx, class.ID)
}

func (s *ClassService) load(ctx context.Context, classID string) (*models.Class, error) {
	if err := requireID("classId", classID); err != nil {
		return nil, err
	}
	class, err := s.classes.FindByID(ctx, classID)
	if err != nil {
		return nil, notFoundOr(err, "class not found", "failed to load class")
	}
	return class, nil
}
