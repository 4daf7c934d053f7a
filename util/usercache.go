package util

import (
	"fmt"
	"os"
	"time"

	cache "github.com/patrickmn/go-cache"
	"gorm.io/gorm"
)

const defaultUserEmailTTL = 10 * time.Minute

var userEmailCache *cache.Cache

// InitUserEmailCache enables caching of user id -> email lookups made by the
// endpoint logger. A non-positive ttl selects the default of ten minutes.
func InitUserEmailCache(ttl time.Duration) {
	if ttl <= 0 {
		ttl = defaultUserEmailTTL
	}
	userEmailCache = cache.New(ttl, 2*ttl)
}

// InitUserEmailCacheFromEnv reads USER_EMAIL_CACHE_TTL as a Go duration.
func InitUserEmailCacheFromEnv() {
	ttl, _ := time.ParseDuration(os.Getenv("USER_EMAIL_CACHE_TTL"))
	InitUserEmailCache(ttl)
}

func userCacheKey(userID uint) string {
	return fmt.Sprintf("user:%d", userID)
}

// UserEmailCacheGet returns email and true if present in cache.
func UserEmailCacheGet(userID uint) (string, bool) {
	if userEmailCache == nil {
		return "", false
	}
	v, ok := userEmailCache.Get(userCacheKey(userID))
	if !ok {
		return "", false
	}
	email, ok := v.(string)
	return email, ok
}

// UserEmailCacheSet sets the email for a userID in the cache.
func UserEmailCacheSet(userID uint, email string) {
	if userEmailCache == nil {
		return
	}
	userEmailCache.SetDefault(userCacheKey(userID), email)
}

// UserEmailCacheDelete drops a cached entry, e.g. after the user changes email.
func UserEmailCacheDelete(userID uint) {
	if userEmailCache != nil {
		userEmailCache.Delete(userCacheKey(userID))
	}
}

// GetUserEmail returns the email for userID using cache, falling back to DB.
func GetUserEmail(db *gorm.DB, userID uint) string {
	if userID == 0 {
		return ""
	}
	if email, ok := UserEmailCacheGet(userID); ok {
		return email
	}
	if db == nil {
		return ""
	}
	var u struct{ Email string }
	if err := db.Table("users").Select("email").Where("id = ?", userID).Take(&u).Error; err != nil {
		return ""
	}
	if u.Email != "" {
		UserEmailCacheSet(userID, u.Email)
	}
	return u.Email
}
