package model_test

import (
	"encoding/json"
	"fmt"
	"io"
	"log"
	"testing"
	"time"

	"github.com/ariebrainware/medlink/model"
	"github.com/ariebrainware/medlink/util"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
)

// auditDB routes util's security events into a fresh security_logs table.
func auditDB(t *testing.T) *gorm.DB {
	t.Helper()
	dsn := fmt.Sprintf("file:audit_%d?mode=memory&cache=shared", time.Now().UnixNano())
	db, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{})
	require.NoError(t, err)
	require.NoError(t, db.AutoMigrate(&model.SecurityLog{}))

	prev := util.SetSecurityLogger(log.New(io.Discard, "", 0))
	util.SetSecurityLoggerDB(db)
	t.Cleanup(func() {
		util.SetSecurityLoggerDB(nil)
		util.SetSecurityLogger(prev)
	})
	return db
}

func TestSecurityLog_ProfileChangeDecision(t *testing.T) {
	db := auditDB(t)

	util.LogProfileChange(4, 12, "REJECTED", []string{"city", "name"})

	var entry model.SecurityLog
	require.NoError(t, db.Where("event_type = ?", "PROFILE_CHANGE").First(&entry).Error)
	assert.Equal(t, "4", entry.UserID)
	assert.Equal(t, "Change request for doctor 12 rejected", entry.Message)
	assert.Empty(t, entry.Location, "no client address, no location")

	var details struct {
		DoctorID uint     `json:"doctor_id"`
		Status   string   `json:"status"`
		Fields   []string `json:"fields"`
	}
	require.NoError(t, json.Unmarshal(entry.Details, &details))
	assert.Equal(t, uint(12), details.DoctorID)
	assert.Equal(t, "REJECTED", details.Status)
	assert.Equal(t, []string{"city", "name"}, details.Fields)
}

func TestSecurityLog_LocationStamp(t *testing.T) {
	db := auditDB(t)
	util.SetIPLocationForTesting("203.0.113.7", util.IPLocation{City: "Bandung", Country: "Indonesia"})
	util.SetIPLocationForTesting("203.0.113.8", util.IPLocation{Country: "Singapore"})

	tests := []struct {
		ip   string
		want string
	}{
		{"203.0.113.7", "Bandung/Indonesia"},
		{"203.0.113.8", "Singapore"},
		{"10.0.0.5", ""},
	}
	for _, tt := range tests {
		t.Run(tt.ip, func(t *testing.T) {
			util.LogLoginFailure("jane@example.com", tt.ip, "agent/1.0", "invalid password")

			var entry model.SecurityLog
			require.NoError(t, db.Where("ip = ?", tt.ip).First(&entry).Error)
			assert.Equal(t, tt.want, entry.Location)
			assert.Equal(t, "jane@example.com", entry.Email)
		})
	}
}

func TestSecurityLog_JSONHidesDeletedAt(t *testing.T) {
	b, err := json.Marshal(model.SecurityLog{EventType: "LOGOUT", UserID: "3"})
	require.NoError(t, err)

	var out map[string]interface{}
	require.NoError(t, json.Unmarshal(b, &out))
	assert.Equal(t, "LOGOUT", out["event_type"])
	assert.Contains(t, out, "created_at")
	assert.NotContains(t, out, "deleted_at")
	assert.NotContains(t, out, "details")
}
