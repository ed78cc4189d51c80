package main

import (
	"context"
	"log"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"
	"time"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"

	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
)

func main() {
	if err := loadConfig(); err != nil {
		log.Fatalf("failed to load config: %v", err)
	}
	if config.TelegramToken == "" {
		log.Fatalf("FLEET_BOT_TOKEN is not set")
	}
	if config.StorageDir == "" {
		log.Fatalf("FLEET_BOT_STORAGE_DIR is not set")
	}
	if config.SheetCSVURL == "" {
		log.Fatalf("FLEET_BOT_SHEET_CSV_URL is not set")
	}
	os.MkdirAll(config.StorageDir, 0755)

	loc, err := time.LoadLocation(config.Timezone)
	if err != nil {
		log.Fatalf("invalid timezone %q: %v", config.Timezone, err)
	}
	timeout, err := time.ParseDuration(config.SourceTimeout)
	if err != nil || timeout <= 0 {
		log.Fatalf("invalid source timeout %q: %v", config.SourceTimeout, err)
	}

	db, err := gorm.Open(
		sqlite.Open(filepath.Join(config.StorageDir, "fleet-reminders.db")),
		&gorm.Config{TranslateError: true},
	)
	if err != nil {
		log.Fatalf("failed to connect database: %v", err)
	}
	err = db.AutoMigrate(&User{}, &LedgerEntry{}, &VehicleEvent{}, &ExcludedPlate{}, &SyncState{})
	if err != nil {
		log.Fatalf("failed to migrate database: %v", err)
	}

	api, err := tgbotapi.NewBotAPI(config.TelegramToken)
	if err != nil {
		log.Fatalf("failed to create bot: %v", err)
	}
	log.Printf("Authorized on account %s", api.Self.UserName)

	send := func(chatID int64, text string) error {
		_, err := api.Send(tgbotapi.NewMessage(chatID, text))
		return err
	}

	users := NewUserStore(db, config.AdminUserIDs, config.AdminUsernames)
	ledger := NewLedger(db)
	snapshot := NewSnapshotStore(db)
	source := NewSheetSource(config.SheetCSVURL, timeout, config.SourceAttempts)
	dispatcher := NewDispatcher(source, snapshot, ledger, users, send, loc, config.ReminderTime)
	bot := NewTelegramBot(api, users, snapshot, dispatcher, loc)

	if _, err := api.Request(tgbotapi.NewSetMyCommands(botCommands()...)); err != nil {
		log.Fatalf("failed to set commands: %v", err)
	}

	ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer cancel()

	go dispatcher.RunLoop(ctx)
	bot.Start(ctx)
	log.Printf("shutdown requested")
}
