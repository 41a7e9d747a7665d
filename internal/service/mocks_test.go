package service

import (
	"bytes"
	"context"
	"database/sql"
	"errors"
	"io"
	"os"
	"sort"
	"sync"
	"time"

	"github.com/noah-isme/classroom-api/internal/models"
	"github.com/noah-isme/classroom-api/pkg/jobs"
)

const (
	teacherID = "7a1e0c52-4d2f-4e0b-9a11-0d1f6f3c0001"
	otherID   = "7a1e0c52-4d2f-4e0b-9a11-0d1f6f3c0002"
	studentID = "7a1e0c52-4d2f-4e0b-9a11-0d1f6f3c0003"
	classID   = "5b9c2e10-8f3a-4c55-b0d2-1e2f3a4b0001"
	missingID = "5b9c2e10-8f3a-4c55-b0d2-1e2f3a4b9999"
)

func teacherClaims() *models.JWTClaims {
	return &models.JWTClaims{UserID: teacherID, Role: models.RoleTeacher}
}

func studentClaims() *models.JWTClaims {
	return &models.JWTClaims{UserID: studentID, Role: models.RoleStudent}
}

type mockClassRepo struct {
	classes map[string]*models.Class
	err     error
}

func newMockClassRepo(classes ...*models.Class) *mockClassRepo {
	m := &mockClassRepo{classes: map[string]*models.Class{}}
	for _, c := range classes {
		m.classes[c.ID] = c
	}
	return m
}

func (m *mockClassRepo) Create(ctx context.Context, class *models.Class) error {
	if m.err != nil {
		return m.err
	}
	m.classes[class.ID] = class
	return nil
}

func (m *mockClassRepo) FindByID(ctx context.Context, id string) (*models.Class, error) {
	if m.err != nil {
		return nil, m.err
	}
	c, ok := m.classes[id]
	if !ok {
		return nil, sql.ErrNoRows
	}
	clone := *c
	clone.Students = append([]string(nil), c.Students...)
	return &clone, nil
}

func (m *mockClassRepo) ListByTeacher(ctx context.Context, teacherID string) ([]models.Class, error) {
	var out []models.Class
	for _, c := range m.classes {
		if c.TeacherID == teacherID {
			out = append(out, *c)
		}
	}
	return out, nil
}

func (m *mockClassRepo) ListByStudent(ctx context.Context, studentID string) ([]models.Class, error) {
	var out []models.Class
	for _, c := range m.classes {
		if c.HasStudent(studentID) {
			out = append(out, *c)
		}
	}
	return out, nil
}

func (m *mockClassRepo) AddStudent(ctx context.Context, classID, studentID string, updatedAt time.Time) (bool, error) {
	c, ok := m.classes[classID]
	if !ok || c.HasStudent(studentID) {
		return false, nil
	}
	c.Students = append(c.Students, studentID)
	return true, nil
}

type mockFileRepo struct {
	files     map[string]*models.File
	createErr error
}

func newMockFileRepo(files ...*models.File) *mockFileRepo {
	m := &mockFileRepo{files: map[string]*models.File{}}
	for _, f := range files {
		m.files[f.ID] = f
	}
	return m
}

func (m *mockFileRepo) Create(ctx context.Context, file *models.File) error {
	if m.createErr != nil {
		return m.createErr
	}
	clone := *file
	m.files[file.ID] = &clone
	return nil
}

func (m *mockFileRepo) FindByID(ctx context.Context, id string) (*models.File, error) {
	f, ok := m.files[id]
	if !ok {
		return nil, sql.ErrNoRows
	}
	clone := *f
	return &clone, nil
}

func (m *mockFileRepo) ListByClass(ctx context.Context, classID string) ([]models.File, error) {
	var out []models.File
	for _, f := range m.files {
		if f.ClassID == classID {
			out = append(out, *f)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].CreatedAt.Before(out[j].CreatedAt) })
	return out, nil
}

func (m *mockFileRepo) Update(ctx context.Context, file *models.File) error {
	if _, ok := m.files[file.ID]; !ok {
		return sql.ErrNoRows
	}
	clone := *file
	m.files[file.ID] = &clone
	return nil
}

func (m *mockFileRepo) Delete(ctx context.Context, id string) error {
	if _, ok := m.files[id]; !ok {
		return sql.ErrNoRows
	}
	delete(m.files, id)
	return nil
}

type mockSubmissionRepo struct {
	subs      map[string]*models.Submission
	gradebook []models.GradebookRow
}

func newMockSubmissionRepo(subs ...*models.Submission) *mockSubmissionRepo {
	m := &mockSubmissionRepo{subs: map[string]*models.Submission{}}
	for _, s := range subs {
		m.subs[s.ID] = s
	}
	return m
}

func (m *mockSubmissionRepo) Create(ctx context.Context, submission *models.Submission) error {
	m.subs[submission.ID] = submission
	return nil
}

func (m *mockSubmissionRepo) FindByID(ctx context.Context, id string) (*models.Submission, error) {
	s, ok := m.subs[id]
	if !ok {
		return nil, sql.ErrNoRows
	}
	clone := *s
	return &clone, nil
}

func (m *mockSubmissionRepo) ListByStudent(ctx context.Context, studentID string) ([]models.Submission, error) {
	var out []models.Submission
	for _, s := range m.subs {
		if s.StudentID == studentID {
			out = append(out, *s)
		}
	}
	return out, nil
}

func (m *mockSubmissionRepo) ListByAssignment(ctx context.Context, assignmentID string) ([]models.Submission, error) {
	var out []models.Submission
	for _, s := range m.subs {
		if s.AssignmentID == assignmentID {
			out = append(out, *s)
		}
	}
	return out, nil
}

func (m *mockSubmissionRepo) UpdateGrade(ctx context.Context, id string, grade float64, feedback string, updatedAt time.Time) error {
	s, ok := m.subs[id]
	if !ok {
		return sql.ErrNoRows
	}
	s.Grade = &grade
	s.Feedback = feedback
	return nil
}

func (m *mockSubmissionRepo) Gradebook(ctx context.Context, classID string) ([]models.GradebookRow, error) {
	return m.gradebook, nil
}

type memoryStorage struct {
	blobs   map[string][]byte
	deleted []string
	saveErr error
}

func newMemoryStorage() *memoryStorage {
	return &memoryStorage{blobs: map[string][]byte{}}
}

func (s *memoryStorage) Save(originalName string, r io.Reader) (string, int64, error) {
	if s.saveErr != nil {
		return "", 0, s.saveErr
	}
	data, err := io.ReadAll(r)
	if err != nil {
		return "", 0, err
	}
	path := "uploads/1700000000000-" + originalName
	s.blobs[path] = data
	return path, int64(len(data)), nil
}

func (s *memoryStorage) Open(storedPath string) (*os.File, error) {
	return nil, os.ErrNotExist
}

func (s *memoryStorage) Delete(storedPath string) error {
	s.deleted = append(s.deleted, storedPath)
	delete(s.blobs, storedPath)
	return nil
}

type fakeQueue struct {
	mu   sync.Mutex
	jobs []jobs.Job
	err  error
}

func (q *fakeQueue) Enqueue(ctx context.Context, job jobs.Job) error {
	q.mu.Lock()
	defer q.mu.Unlock()
	if q.err != nil {
		return q.err
	}
	q.jobs = append(q.jobs, job)
	return nil
}

type enqueueCounter struct {
	accepted, rejected int
}

func (c *enqueueCounter) RecordEnqueue(accepted bool) {
	if accepted {
		c.accepted++
	} else {
		c.rejected++
	}
}

var errQueueDown = errors.New("redis: connection refused")

func blob(name, body string) *Blob {
	return &Blob{Name: name, Size: int64(len(body)), ContentType: "application/pdf", Body: bytes.NewBufferString(body)}
}
