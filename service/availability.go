package service

import (
	"context"

	"github.com/ariebrainware/medlink/model"
	"github.com/google/uuid"
	"gorm.io/gorm"
)

// GetAvailability returns the doctor's weekly windows ordered by day then start.
func (s *Scheduler) GetAvailability(ctx context.Context, db *gorm.DB, doctorID uint) ([]model.AvailabilitySlot, error) {
	db = db.WithContext(ctx)
	if _, err := loadDoctor(db, doctorID); err != nil {
		return nil, err
	}
	return listAvailability(db, doctorID)
}

func listAvailability(db *gorm.DB, doctorID uint) ([]model.AvailabilitySlot, error) {
	slots := []model.AvailabilitySlot{}
	err := db.Where("doctor_id = ?", doctorID).
		Order("day_of_week ASC, start_time ASC, end_time ASC").
		Find(&slots).Error
	if err != nil {
		return nil, NewInternalError("failed to load availability", err)
	}
	return slots, nil
}

// ReplaceAvailability swaps the doctor's whole window set in one transaction.
// Every input is validated first; a single bad window rejects the batch and
// leaves the stored set untouched. Client ids are kept when they are UUIDs
// not owned by another doctor, otherwise a new id is minted.
func (s *Scheduler) ReplaceAvailability(ctx context.Context, db *gorm.DB, doctorID uint, in []model.AvailabilitySlotInput) ([]model.AvailabilitySlot, error) {
	db = db.WithContext(ctx)
	if _, err := loadDoctor(db, doctorID); err != nil {
		return nil, err
	}

	slots := make([]model.AvailabilitySlot, 0, len(in))
	for i, item := range in {
		slot := model.AvailabilitySlot{
			ID:        item.ID,
			DoctorID:  doctorID,
			DayOfWeek: item.DayOfWeek,
			StartTime: item.StartTime,
			EndTime:   item.EndTime,
		}
		if err := slot.Window().Validate(); err != nil {
			return nil, NewValidationError("availability[%d]: %v", i, err)
		}
		slots = append(slots, slot)
	}

	err := db.Transaction(func(tx *gorm.DB) error {
		foreign, err := foreignSlotIDs(tx, doctorID, slots)
		if err != nil {
			return err
		}
		assignSlotIDs(slots, foreign)

		if err := tx.Where("doctor_id = ?", doctorID).Delete(&model.AvailabilitySlot{}).Error; err != nil {
			return err
		}
		if len(slots) == 0 {
			return nil
		}
		return tx.Create(&slots).Error
	})
	if err != nil {
		return nil, NewInternalError("failed to save availability", err)
	}
	return listAvailability(db, doctorID)
}

// foreignSlotIDs returns the requested ids already used by other doctors.
func foreignSlotIDs(tx *gorm.DB, doctorID uint, slots []model.AvailabilitySlot) (map[string]struct{}, error) {
	var ids []string
	for _, s := range slots {
		if _, err := uuid.Parse(s.ID); err == nil {
			ids = append(ids, s.ID)
		}
	}
	out := map[string]struct{}{}
	if len(ids) == 0 {
		return out, nil
	}
	var taken []string
	err := tx.Model(&model.AvailabilitySlot{}).
		Where("id IN ? AND doctor_id <> ?", ids, doctorID).
		Pluck("id", &taken).Error
	if err != nil {
		return nil, err
	}
	for _, id := range taken {
		out[id] = struct{}{}
	}
	return out, nil
}

func assignSlotIDs(slots []model.AvailabilitySlot, foreign map[string]struct{}) {
	seen := make(map[string]struct{}, len(slots))
	for i := range slots {
		id := slots[i].ID
		_, isForeign := foreign[id]
		_, dup := seen[id]
		if _, err := uuid.Parse(id); err != nil || isForeign || dup {
			id = uuid.NewString()
		}
		seen[id] = struct{}{}
		slots[i].ID = id
	}
}
