package service

import (
	"errors"

	"github.com/carelink/carelink-backend/internal/app/model"
	"github.com/carelink/carelink-backend/internal/app/repository"
	"github.com/carelink/carelink-backend/pkg/logger"
	"gorm.io/gorm"
)

var (
	ErrStaffNotFound       = errors.New("staff member not found")
	ErrStaffEmailExists    = errors.New("a staff member with this email already exists")
	ErrInvalidStaffKind    = errors.New("invalid staff type")
	ErrInvalidPermission   = errors.New("invalid permission level")
	ErrPermissionTooNarrow = errors.New("operation requires a higher permission level")
)

type CreateStaffInput struct {
	Name        string
	Email       string
	StaffType   model.StaffType
	Department  string
	Permission  model.PermissionLevel
	Specialties []string
}

type UpdateStaffInput struct {
	Name        *string
	Department  *string
	StaffType   *model.StaffType
	Permission  *model.PermissionLevel
	Specialties []string
	Active      *bool
}

type StaffService interface {
	Create(input CreateStaffInput) (*model.MedicalStaff, error)
	GetByID(id uint) (*model.MedicalStaff, error)
	GetByUserID(userID uint) (*model.MedicalStaff, error)
	List(filter repository.StaffFilter, page, pageSize int) ([]model.MedicalStaff, int64, error)
	Update(id uint, input UpdateStaffInput) (*model.MedicalStaff, error)
	Deactivate(id uint) error
}

type staffService struct {
	staffRepo repository.StaffRepository
}

func NewStaffService(staffRepo repository.StaffRepository) StaffService {
	return &staffService{staffRepo: staffRepo}
}

func (s *staffService) Create(input CreateStaffInput) (*model.MedicalStaff, error) {
	if !input.StaffType.Valid() {
		return nil, ErrInvalidStaffKind
	}
	if input.Permission == "" {
		input.Permission = model.PermissionNone
	}
	if !input.Permission.Valid() {
		return nil, ErrInvalidPermission
	}

	if _, err := s.staffRepo.FindByEmail(input.Email); err == nil {
		return nil, ErrStaffEmailExists
	} else if !errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, err
	}

	staff := &model.MedicalStaff{
		Name:        input.Name,
		Email:       input.Email,
		StaffType:   input.StaffType,
		Department:  input.Department,
		Permission:  input.Permission,
		Specialties: input.Specialties,
		Active:      true,
	}
	if err := s.staffRepo.Create(staff); err != nil {
		return nil, err
	}

	logger.Info("Staff member created", map[string]interface{}{
		"staff_id":   staff.ID,
		"staff_type": string(staff.StaffType),
		"permission": string(staff.Permission),
	})
	return staff, nil
}

func (s *staffService) GetByID(id uint) (*model.MedicalStaff, error) {
	staff, err := s.staffRepo.FindByID(id)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrStaffNotFound
		}
		return nil, err
	}
	return staff, nil
}

func (s *staffService) GetByUserID(userID uint) (*model.MedicalStaff, error) {
	staff, err := s.staffRepo.FindByUserID(userID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrStaffNotFound
		}
		return nil, err
	}
	return staff, nil
}

func (s *staffService) List(filter repository.StaffFilter, page, pageSize int) ([]model.MedicalStaff, int64, error) {
	if page < 1 {
		page = 1
	}
	if pageSize < 1 || pageSize > 100 {
		pageSize = 20
	}
	return s.staffRepo.List(filter, (page-1)*pageSize, pageSize)
}

func (s *staffService) Update(id uint, input UpdateStaffInput) (*model.MedicalStaff, error) {
	staff, err := s.GetByID(id)
	if err != nil {
		return nil, err
	}

	if input.Name != nil {
		staff.Name = *input.Name
	}
	if input.Department != nil {
		staff.Department = *input.Department
	}
	if input.StaffType != nil {
		if !input.StaffType.Valid() {
			return nil, ErrInvalidStaffKind
		}
		staff.StaffType = *input.StaffType
	}
	if input.Permission != nil {
		if !input.Permission.Valid() {
			return nil, ErrInvalidPermission
		}
		staff.Permission = *input.Permission
	}
	if input.Specialties != nil {
		staff.Specialties = input.Specialties
	}
	if input.Active != nil {
		staff.Active = *input.Active
	}

	if err := s.staffRepo.Update(staff); err != nil {
		return nil, err
	}
	return staff, nil
}

func (s *staffService) Deactivate(id uint) error {
	staff, err := s.GetByID(id)
	if err != nil {
		return err
	}
	staff.Active = false
	staff.Permission = model.PermissionNone
	return s.staffRepo.Update(staff)
}
