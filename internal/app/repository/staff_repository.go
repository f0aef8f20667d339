package repository

import (
	"github.com/carelink/carelink-backend/internal/app/model"
	"gorm.io/gorm"
)

// StaffFilter narrows staff roster queries
type StaffFilter struct {
	StaffType  model.StaffType
	Department string
	ActiveOnly bool
}

type StaffRepository interface {
	Create(staff *model.MedicalStaff) error
	FindByID(id uint) (*model.MedicalStaff, error)
	FindByEmail(email string) (*model.MedicalStaff, error)
	FindByUserID(userID uint) (*model.MedicalStaff, error)
	Update(staff *model.MedicalStaff) error
	Delete(id uint) error
	List(filter StaffFilter, offset, limit int) ([]model.MedicalStaff, int64, error)
}

type staffRepository struct {
	db *gorm.DB
}

func NewStaffRepository(db *gorm.DB) StaffRepository {
	return &staffRepository{db: db}
}

func (r *staffRepository) Create(staff *model.MedicalStaff) error {
	return r.db.Create(staff).Error
}

func (r *staffRepository) FindByID(id uint) (*model.MedicalStaff, error) {
	var staff model.MedicalStaff
	if err := r.db.First(&staff, id).Error; err != nil {
		return nil, err
	}
	return &staff, nil
}

func (r *staffRepository) FindByEmail(email string) (*model.MedicalStaff, error) {
	var staff model.MedicalStaff
	if err := r.db.Where("email = ?", email).First(&staff).Error; err != nil {
		return nil, err
	}
	return &staff, nil
}

func (r *staffRepository) FindByUserID(userID uint) (*model.MedicalStaff, error) {
	var staff model.MedicalStaff
	if err := r.db.Where("user_id = ?", userID).First(&staff).Error; err != nil {
		return nil, err
	}
	return &staff, nil
}

func (r *staffRepository) Update(staff *model.MedicalStaff) error {
	return r.db.Save(staff).Error
}

func (r *staffRepository) Delete(id uint) error {
	return r.db.Delete(&model.MedicalStaff{}, id).Error
}

func (r *staffRepository) List(filter StaffFilter, offset, limit int) ([]model.MedicalStaff, int64, error) {
	query := r.db.Model(&model.MedicalStaff{})
	if filter.StaffType != "" {
		query = query.Where("staff_type = ?", filter.StaffType)
	}
	if filter.Department != "" {
		query = query.Where("department = ?", filter.Department)
	}
	if filter.ActiveOnly {
		query = query.Where("active = ?", true)
	}

	var total int64
	if err := query.Count(&total).Error; err != nil {
		return nil, 0, err
	}

	var staff []model.MedicalStaff
	err := query.Order("name ASC").
		Offset(offset).
		Limit(limit).
		Find(&staff).Error
	if err != nil {
		return nil, 0, err
	}
	return staff, total, nil
}
