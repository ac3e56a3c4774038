package repository

import (
	"context"
	"strings"
	"time"

	"gorm.io/gorm"

	"github.com/noah-isme/lms-admin-api/internal/models"
)

// StudentFilter defines filters for listing students from the admin panel.
type StudentFilter struct {
	Search   string
	Page     int
	PageSize int
}

// StudentRepository exposes persistence helpers for student records and enrollments.
type StudentRepository interface {
	List(ctx context.Context, filter StudentFilter) ([]models.Student, int64, error)
	GetByID(ctx context.Context, id string) (models.Student, error)
	Create(ctx context.Context, student *models.Student) error
	SoftDelete(ctx context.Context, id string) error
	TouchActivity(ctx context.Context, id string, at time.Time) error
	Enroll(ctx context.Context, studentID, courseID string) error
	EnrolledCourseIDs(ctx context.Context, studentID string) ([]string, error)
	CountByCourse(ctx context.Context) (map[string]int64, error)
	EnrollmentCounts(ctx context.Context, studentIDs []string) (map[string]int, error)
	GetByEmail(ctx context.Context, email string) (models.Student, error)
	EnrolledStudentIDs(ctx context.Context, courseID string) ([]string, error)
}

type studentRepository struct {
	db *gorm.DB
}

// NewStudentRepository constructs the student repository.
func NewStudentRepository(db *gorm.DB) StudentRepository {
	return &studentRepository{db: db}
}

func (r *studentRepository) List(ctx context.Context, filter StudentFilter) ([]models.Student, int64, error) {
	query := r.db.WithContext(ctx).Model(&models.Student{})

	search := strings.ToLower(strings.TrimSpace(filter.Search))
	if search == "" {
		query = query.Where("is_deleted = ?", false)
	} else {
		like := "%" + search + "%"
		condition := r.db.Where("LOWER(name) LIKE ?", like).
			Or("LOWER(surname) LIKE ?", like).
			Or("LOWER(email) LIKE ?", like)
		// the status label is searchable as well
		if strings.Contains("active", search) {
			condition = condition.Or("is_deleted = ?", false)
		}
		if strings.Contains("deleted", search) {
			condition = condition.Or("is_deleted = ?", true)
		}
		query = query.Where(condition)
	}

	countQuery := query.Session(&gorm.Session{})
	var total int64
	if err := countQuery.Count(&total).Error; err != nil {
		return nil, 0, err
	}

	query = query.Order("created_at DESC")

	if filter.PageSize > 0 {
		page := filter.Page
		if page <= 0 {
			page = 1
		}
		offset := (page - 1) * filter.PageSize
		query = query.Limit(filter.PageSize).Offset(offset)
	}

	var students []models.Student
	if err := query.Find(&students).Error; err != nil {
		return nil, 0, err
	}

	return students, total, nil
}

func (r *studentRepository) GetByID(ctx context.Context, id string) (models.Student, error) {
	var student models.Student
	if err := r.db.WithContext(ctx).Where("id = ?", id).First(&student).Error; err != nil {
		return models.Student{}, err
	}

	return student, nil
}

func (r *studentRepository) Create(ctx context.Context, student *models.Student) error {
	return r.db.WithContext(ctx).Create(student).Error
}

func (r *studentRepository) SoftDelete(ctx context.Context, id string) error {
	update := r.db.WithContext(ctx).Model(&models.Student{}).
		Where("id = ?", id).
		Where("is_deleted = ?", false).
		Update("is_deleted", true)
	if update.Error != nil {
		return update.Error
	}
	if update.RowsAffected == 0 {
		return gorm.ErrRecordNotFound
	}

	return nil
}

func (r *studentRepository) TouchActivity(ctx context.Context, id string, at time.Time) error {
	return r.db.WithContext(ctx).Model(&models.Student{}).
		Where("id = ?", id).
		Update("last_activity", at).Error
}

func (r *studentRepository) Enroll(ctx context.Context, studentID, courseID string) error {
	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var existing int64
		if err := tx.Model(&models.Enrollment{}).
			Where("student_id = ? AND course_id = ?", studentID, courseID).
			Count(&existing).Error; err != nil {
			return err
		}
		if existing > 0 {
			return nil
		}

		var position int
		if err := tx.Model(&models.Enrollment{}).
			Where("student_id = ?", studentID).
			Select("COALESCE(MAX(position), 0)").
			Scan(&position).Error; err != nil {
			return err
		}

		return tx.Create(&models.Enrollment{
			StudentID: studentID,
			CourseID:  courseID,
			Position:  position + 1,
		}).Error
	})
}

func (r *studentRepository) EnrolledCourseIDs(ctx context.Context, studentID string) ([]string, error) {
	var courseIDs []string
	err := r.db.WithContext(ctx).Model(&models.Enrollment{}).
		Where("student_id = ?", studentID).
		Order("position ASC").
		Order("id ASC").
		Pluck("course_id", &courseIDs).Error
	if err != nil {
		return nil, err
	}

	return courseIDs, nil
}

func (r *studentRepository) CountByCourse(ctx context.Context) (map[string]int64, error) {
	type row struct {
		CourseID string
		Total    int64
	}

	var rows []row
	err := r.db.WithContext(ctx).Model(&models.Enrollment{}).
		Select("enrollments.course_id AS course_id, COUNT(*) AS total").
		Joins("JOIN students ON students.id = enrollments.student_id").
		Where("students.is_deleted = ?", false).
		Group("enrollments.course_id").
		Scan(&rows).Error
	if err != nil {
		return nil, err
	}

	counts := make(map[string]int64, len(rows))
	for _, item := range rows {
		counts[item.CourseID] = item.Total
	}

	return counts, nil
}

func (r *studentRepository) EnrollmentCounts(ctx context.Context, studentIDs []string) (map[string]int, error) {
	counts := make(map[string]int, len(studentIDs))
	if len(studentIDs) == 0 {
		return counts, nil
	}

	type row struct {
		StudentID string
		Total     int
	}

	var rows []row
	err := r.db.WithContext(ctx).Model(&models.Enrollment{}).
		Select("student_id, COUNT(*) AS total").
		Where("student_id IN ?", studentIDs).
		Group("student_id").
		Scan(&rows).Error
	if err != nil {
		return nil, err
	}

	for _, item := range rows {
		counts[item.StudentID] = item.Total
	}

	return counts, nil
}

func (r *studentRepository) GetByEmail(ctx context.Context, email string) (models.Student, error) {
	var student models.Student
	if err := r.db.WithContext(ctx).Where("LOWER(email) = ?", strings.ToLower(strings.TrimSpace(email))).First(&student).Error; err != nil {
		return models.Student{}, err
	}

	return student, nil
}

func (r *studentRepository) EnrolledStudentIDs(ctx context.Context, courseID string) ([]string, error) {
	var studentIDs []string
	err := r.db.WithContext(ctx).Model(&models.Enrollment{}).
		Where("course_id = ?", courseID).
		Order("id ASC").
		Pluck("student_id", &studentIDs).Error
	if err != nil {
		return nil, err
	}

	return studentIDs, nil
}
