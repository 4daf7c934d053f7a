package config

import (
	"fmt"
	"log"
	"os"
	"strconv"
	"strings"
	"sync"
	"time"

	"github.com/joho/godotenv"
	"gorm.io/driver/mysql"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
)

const (
	defaultSlotMinutes = 30
	defaultAppPort     = 4000
)

// Config holds the application's configuration values.
type Config struct {
	AppName      string   `json:"appname"`
	AppEnv       string   `json:"appenv"`
	AppPort      uint16   `json:"appport"`
	GinMode      string   `json:"ginmode"`
	DBHost       string   `json:"dbhost"`
	DBPort       uint16   `json:"dbport"`
	DBName       string   `json:"dbname"`
	DBUSER       string   `json:"dbuser"`
	DBPass       string   `json:"dbpass"`
	SlotMinutes  int      `json:"slot_minutes"`
	TimeZone     string   `json:"timezone"`
	Notifier     string   `json:"notifier"`
	KafkaBrokers []string `json:"kafka_brokers"`
	KafkaTopic   string   `json:"kafka_topic"`
}

var config *Config
var once sync.Once

// LoadConfig loads the environment variables from a .env file, and returns a singleton Config instance.
// A missing .env file is not fatal; the process environment is used as-is.
func LoadConfig() *Config {
	once.Do(func() {
		if os.Getenv("APPENV") != "test" {
			if err := godotenv.Load(); err != nil {
				log.Printf("No .env file loaded: %v", err)
			}
		}

		appPort, err := strconv.ParseUint(os.Getenv("APPPORT"), 10, 16)
		if err != nil || appPort == 0 {
			appPort = defaultAppPort
		}
		dbPort, _ := strconv.ParseUint(os.Getenv("DBPORT"), 10, 16)

		slotMinutes, err := strconv.Atoi(os.Getenv("SLOT_MINUTES"))
		if err != nil || slotMinutes <= 0 {
			slotMinutes = defaultSlotMinutes
		}

		appName := os.Getenv("APPNAME")
		if appName == "" {
			appName = "MedLink"
		}

		var brokers []string
		for _, b := range strings.Split(os.Getenv("KAFKA_BROKERS"), ",") {
			if b = strings.TrimSpace(b); b != "" {
				brokers = append(brokers, b)
			}
		}

		config = &Config{
			AppName:      appName,
			AppEnv:       os.Getenv("APPENV"),
			AppPort:      uint16(appPort),
			GinMode:      os.Getenv("GINMODE"),
			DBHost:       os.Getenv("DBHOST"),
			DBPort:       uint16(dbPort),
			DBName:       os.Getenv("DBNAME"),
			DBUSER:       os.Getenv("DBUSER"),
			DBPass:       os.Getenv("DBPASS"),
			SlotMinutes:  slotMinutes,
			TimeZone:     os.Getenv("APPTZ"),
			Notifier:     strings.ToLower(os.Getenv("NOTIFIER")),
			KafkaBrokers: brokers,
			KafkaTopic:   os.Getenv("KAFKA_TOPIC"),
		}
	})
	return config
}

// Location resolves the clinic time zone used to interpret availability windows.
// Unknown or empty zone names fall back to UTC.
func (c *Config) Location() *time.Location {
	if c == nil || c.TimeZone == "" {
		return time.UTC
	}
	loc, err := time.LoadLocation(c.TimeZone)
	if err != nil {
		log.Printf("Unknown APPTZ %q, using UTC: %v", c.TimeZone, err)
		return time.UTC
	}
	return loc
}

// ConnectMySQL establishes a connection to a MySQL database using the configuration values.
// When APPENV is "test" an isolated in-memory SQLite database is returned instead.
func ConnectMySQL() (*gorm.DB, error) {
	if os.Getenv("APPENV") == "test" {
		dsn := fmt.Sprintf("file:medlink_test_%d?mode=memory&cache=shared", time.Now().UnixNano())
		return gorm.Open(sqlite.Open(dsn), &gorm.Config{TranslateError: true})
	}

	cfg := LoadConfig()
	// Build the Data Source Name (DSN) using the configuration values.
	dsn := fmt.Sprintf("%s:%s@tcp(%s:%d)/%s?parseTime=true&loc=UTC", cfg.DBUSER, cfg.DBPass, cfg.DBHost, cfg.DBPort, cfg.DBName)

	db, err := gorm.Open(mysql.Open(dsn), &gorm.Config{TranslateError: true})
	if err != nil {
		return nil, err
	}

	return db, nil
}
