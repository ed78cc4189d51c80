package main

import (
	"encoding/json"
	"io"
	"log"
	"os"
	"strconv"
	"strings"

	"github.com/joho/godotenv"
)

type Config struct {
	TelegramToken  string    `json:"telegram_token"`
	StorageDir     string    `json:"storage_dir"`
	SheetCSVURL    string    `json:"sheet_csv_url"`
	ReminderTime   TimeOfDay `json:"reminder_time"`
	Timezone       string    `json:"timezone"`
	AdminUserIDs   []int64   `json:"admin_user_ids"`
	AdminUsernames []string  `json:"admin_usernames"`
	SourceTimeout  string    `json:"source_timeout"`
	SourceAttempts int       `json:"source_attempts"`
}

var config Config

func loadConfig() error {
	if err := godotenv.Load(".env"); err != nil {
		log.Printf(".env not loaded: %v", err)
	}
	filePath := os.Getenv("FLEET_BOT_CONFIG_FILE")
	if filePath == "" {
		filePath = "config.json"
	}
	configFile, err := os.Open(filePath)
	if err != nil {
		defaultConfig := Config{
			TelegramToken:  os.Getenv("FLEET_BOT_TOKEN"),
			StorageDir:     os.Getenv("FLEET_BOT_STORAGE_DIR"),
			SheetCSVURL:    os.Getenv("FLEET_BOT_SHEET_CSV_URL"),
			ReminderTime:   TimeOfDay{Hour: 8},
			Timezone:       "Europe/Vilnius",
			AdminUserIDs:   parseAdminIDs(os.Getenv("FLEET_BOT_ADMIN_IDS")),
			AdminUsernames: splitList(os.Getenv("FLEET_BOT_ADMIN_USERNAMES")),
			SourceTimeout:  "15s",
			SourceAttempts: 3,
		}
		defaultConfigFile, err := os.Create(filePath)
		if err != nil {
			return err
		}
		enc := json.NewEncoder(defaultConfigFile)
		enc.SetIndent("", "  ")
		enc.Encode(defaultConfig)
		defaultConfigFile.Close()
		log.Printf("created default config file %v", filePath)
		config = defaultConfig
		return nil
	}
	defer configFile.Close()
	byteValue, err := io.ReadAll(configFile)
	if err != nil {
		return err
	}
	return json.Unmarshal(byteValue, &config)
}

func parseAdminIDs(raw string) []int64 {
	var ids []int64
	for _, part := range splitList(raw) {
		id, err := strconv.ParseInt(part, 10, 64)
		if err != nil {
			log.Printf("ignoring bad admin id %q", part)
			continue
		}
		ids = append(ids, id)
	}
	return ids
}

func splitList(raw string) []string {
	var parts []string
	for _, part := range strings.Split(raw, ",") {
		if part = strings.TrimSpace(part); part != "" {
			parts = append(parts, part)
		}
	}
	return parts
}
