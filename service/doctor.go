package service

import (
	"context"
	"errors"
	"strings"

	"github.com/ariebrainware/medlink/model"
	"github.com/ariebrainware/medlink/util"
	"gorm.io/gorm"
)

// DoctorFilter narrows GET /doctors. Zero values match everything.
type DoctorFilter struct {
	Specialization string
	City           string
	HospitalID     uint
	Limit          int
	Offset         int
}

const maxDoctorPage = 100

// ListDoctors returns doctors with their specializations and hospitals.
func ListDoctors(ctx context.Context, db *gorm.DB, f DoctorFilter) ([]model.Doctor, error) {
	q := db.WithContext(ctx).Model(&model.Doctor{}).
		Preload("Specializations").
		Preload("Hospitals").
		Order("doctors.rating DESC, doctors.id ASC")

	if city := strings.TrimSpace(f.City); city != "" {
		q = q.Where("LOWER(doctors.city) = LOWER(?)", city)
	}
	if spec := strings.TrimSpace(f.Specialization); spec != "" {
		q = q.Where("doctors.id IN (?)", db.Table("doctor_specializations").
			Select("doctor_specializations.doctor_id").
			Joins("JOIN specializations ON specializations.id = doctor_specializations.specialization_id").
			Where("LOWER(specializations.name) = LOWER(?)", spec))
	}
	if f.HospitalID != 0 {
		q = q.Where("doctors.id IN (?)", db.Table("doctor_hospitals").
			Select("doctor_id").
			Where("hospital_id = ?", f.HospitalID))
	}
	if f.Limit > 0 {
		if f.Limit > maxDoctorPage {
			f.Limit = maxDoctorPage
		}
		q = q.Limit(f.Limit)
	}
	if f.Offset > 0 {
		q = q.Offset(f.Offset)
	}

	doctors := []model.Doctor{}
	if err := q.Find(&doctors).Error; err != nil {
		return nil, NewInternalError("failed to list doctors", err)
	}
	return doctors, nil
}

// GetDoctor loads one doctor with associations and weekly availability.
func GetDoctor(ctx context.Context, db *gorm.DB, id uint) (*model.Doctor, error) {
	var doctor model.Doctor
	err := db.WithContext(ctx).
		Preload("Specializations").
		Preload("Hospitals").
		Preload("Availability", func(tx *gorm.DB) *gorm.DB {
			return tx.Order("day_of_week ASC, start_time ASC, end_time ASC")
		}).
		First(&doctor, id).Error
	if err != nil {
		return nil, notFoundOr(err, "doctor", id)
	}
	return &doctor, nil
}

// CreateDoctor creates the DOCTOR login and its profile in one transaction.
func CreateDoctor(ctx context.Context, db *gorm.DB, req model.DoctorRequest) (*model.Doctor, error) {
	email := strings.ToLower(strings.TrimSpace(req.Email))
	if email == "" || req.Password == "" {
		return nil, NewValidationError("email and password are required")
	}
	salt, err := util.GenerateSalt()
	if err != nil {
		return nil, NewInternalError("failed to generate salt", err)
	}
	hashed, err := util.HashPasswordArgon2(req.Password, salt)
	if err != nil {
		return nil, NewInternalError("failed to hash password", err)
	}

	var doctor model.Doctor
	err = db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		user := model.User{
			Name:         util.NormalizeName(req.Name),
			Email:        email,
			Password:     hashed,
			PasswordSalt: salt,
			RoleID:       model.RoleIDDoctor,
		}
		if err := tx.Create(&user).Error; err != nil {
			return err
		}
		doctor = model.Doctor{
			UserID:            user.ID,
			Name:              strings.TrimSpace(req.Name),
			Image:             req.Image,
			City:              strings.TrimSpace(req.City),
			YearsOfExperience: req.YearsOfExperience,
		}
		if err := tx.Create(&doctor).Error; err != nil {
			return err
		}
		return replaceDoctorAssociations(tx, &doctor, req)
	})
	if errors.Is(err, gorm.ErrDuplicatedKey) {
		return nil, NewConflictError("email %s is already registered", email)
	}
	if err != nil {
		var appErr *AppError
		if errors.As(err, &appErr) {
			return nil, appErr
		}
		return nil, NewInternalError("failed to create doctor", err)
	}
	return GetDoctor(ctx, db, doctor.ID)
}

// UpdateDoctor overwrites the profile fields and association sets.
func UpdateDoctor(ctx context.Context, db *gorm.DB, id uint, req model.DoctorRequest) (*model.Doctor, error) {
	err := db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		doctor, err := loadDoctor(tx, id)
		if err != nil {
			return err
		}
		err = tx.Model(&doctor).Updates(map[string]interface{}{
			"name":                strings.TrimSpace(req.Name),
			"image":               req.Image,
			"city":                strings.TrimSpace(req.City),
			"years_of_experience": req.YearsOfExperience,
		}).Error
		if err != nil {
			return err
		}
		return replaceDoctorAssociations(tx, &doctor, req)
	})
	if err != nil {
		var appErr *AppError
		if errors.As(err, &appErr) {
			return nil, appErr
		}
		return nil, NewInternalError("failed to update doctor", err)
	}
	return GetDoctor(ctx, db, id)
}

func replaceDoctorAssociations(tx *gorm.DB, doctor *model.Doctor, req model.DoctorRequest) error {
	specs := []model.Specialization{}
	if len(req.SpecializationIDs) > 0 {
		if err := tx.Find(&specs, req.SpecializationIDs).Error; err != nil {
			return err
		}
		if len(specs) != len(uniqueIDs(req.SpecializationIDs)) {
			return NewValidationError("unknown specialization id")
		}
	}
	hospitals := []model.Hospital{}
	if len(req.HospitalIDs) > 0 {
		if err := tx.Find(&hospitals, req.HospitalIDs).Error; err != nil {
			return err
		}
		if len(hospitals) != len(uniqueIDs(req.HospitalIDs)) {
			return NewValidationError("unknown hospital id")
		}
	}
	if err := tx.Model(doctor).Association("Specializations").Replace(specs); err != nil {
		return err
	}
	return tx.Model(doctor).Association("Hospitals").Replace(hospitals)
}

func uniqueIDs(ids []uint) map[uint]struct{} {
	out := make(map[uint]struct{}, len(ids))
	for _, id := range ids {
		out[id] = struct{}{}
	}
	return out
}

// DeleteDoctor soft-deletes the profile and its login. Appointments stay.
func DeleteDoctor(ctx context.Context, db *gorm.DB, id uint) error {
	var userID uint
	err := db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		doctor, err := loadDoctor(tx, id)
		if err != nil {
			return err
		}
		userID = doctor.UserID
		if err := tx.Where("doctor_id = ?", doctor.ID).Delete(&model.AvailabilitySlot{}).Error; err != nil {
			return err
		}
		if err := tx.Delete(&doctor).Error; err != nil {
			return err
		}
		return tx.Delete(&model.User{}, doctor.UserID).Error
	})
	if err != nil {
		var appErr *AppError
		if errors.As(err, &appErr) {
			return appErr
		}
		return NewInternalError("failed to delete doctor", err)
	}
	util.UserEmailCacheDelete(userID)
	return nil
}

// Stats counts the entities shown on the admin dashboard.
func Stats(ctx context.Context, db *gorm.DB) (model.DoctorStats, error) {
	db = db.WithContext(ctx)
	var st model.DoctorStats
	counts := []struct {
		q   *gorm.DB
		out *int64
	}{
		{db.Model(&model.Doctor{}), &st.Doctors},
		{db.Model(&model.Hospital{}), &st.Hospitals},
		{db.Model(&model.Specialization{}), &st.Specializations},
		{db.Model(&model.Appointment{}), &st.Appointments},
		{db.Model(&model.ChangeRequest{}).Where("status = ?", model.ChangeRequestPending), &st.PendingRequests},
	}
	for _, c := range counts {
		if err := c.q.Count(c.out).Error; err != nil {
			return st, NewInternalError("failed to count", err)
		}
	}
	return st, nil
}
