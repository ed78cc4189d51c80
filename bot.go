package main

import (
	"context"
	"errors"
	"fmt"
	"log"
	"strconv"
	"strings"
	"time"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
)

// TelegramBot handles the interactive command surface. Everything here is
// glue: the decisions live in the engine, the ledger and the user store.
type TelegramBot struct {
	api        *tgbotapi.BotAPI
	users      *UserStore
	snapshot   *SnapshotStore
	dispatcher *Dispatcher
	loc        *time.Location
}

func NewTelegramBot(api *tgbotapi.BotAPI, users *UserStore, snapshot *SnapshotStore, dispatcher *Dispatcher, loc *time.Location) *TelegramBot {
	return &TelegramBot{api: api, users: users, snapshot: snapshot, dispatcher: dispatcher, loc: loc}
}

// Start runs the update polling loop until the context is cancelled.
func (b *TelegramBot) Start(ctx context.Context) {
	u := tgbotapi.NewUpdate(0)
	u.Timeout = 60
	updates := b.api.GetUpdatesChan(u)
	for {
		select {
		case update := <-updates:
			b.handleUpdate(ctx, update)
		case <-ctx.Done():
			b.api.StopReceivingUpdates()
			return
		}
	}
}

func (b *TelegramBot) reply(chatID int64, text string) {
	msg := tgbotapi.NewMessage(chatID, text)
	if _, err := b.api.Send(msg); err != nil {
		log.Printf("sending reply to chat %v: %v", chatID, err)
	}
}

// handleUpdate extracts the command, its arguments and the originating
// user from either a message or an inline-button callback. Callback data
// uses the "/command args" convention.
func (b *TelegramBot) handleUpdate(ctx context.Context, update tgbotapi.Update) {
	var command, args string
	var from *tgbotapi.User
	var chatID int64

	switch {
	case update.Message != nil:
		command = update.Message.Command()
		args = strings.TrimSpace(update.Message.CommandArguments())
		from = update.Message.From
		chatID = update.Message.Chat.ID
	case update.CallbackQuery != nil:
		callback := tgbotapi.NewCallback(update.CallbackQuery.ID, "Apdorojama…")
		if _, err := b.api.Request(callback); err != nil {
			log.Printf("answering callback: %v", err)
		}
		split := strings.SplitN(update.CallbackQuery.Data, " ", 2)
		command = strings.TrimPrefix(split[0], "/")
		if len(split) > 1 {
			args = strings.TrimSpace(split[1])
		}
		from = update.CallbackQuery.From
		chatID = update.CallbackQuery.Message.Chat.ID
	default:
		return
	}
	if from == nil || command == "" {
		return
	}
	log.Printf("[%s (%v)] /%s %s", from.UserName, from.ID, command, args)

	switch command {
	case "start":
		b.handleStart(from, chatID)
	case "pagalba", "help":
		b.reply(chatID, helpText())
	case "whoami":
		b.reply(chatID, fmt.Sprintf("user_id=%d, username=%s", from.ID, from.UserName))
	case "info":
		b.requireApproved(from, chatID, func() { b.handleInfo(chatID) })
	case "sarasas":
		b.requireApproved(from, chatID, func() { b.handleList(chatID) })
	case "id", "plate":
		b.requireApproved(from, chatID, func() { b.handlePlate(chatID, args) })
	case "dryrun":
		b.requireAdmin(from, chatID, func() { b.handleDryRun(chatID) })
	case "sendtoday":
		b.requireAdmin(from, chatID, func() { b.handleSendToday(ctx, chatID) })
	case "update":
		b.requireAdmin(from, chatID, func() { b.handleUpdateData(ctx, chatID) })
	case "pending":
		b.requireAdmin(from, chatID, func() { b.handlePending(chatID) })
	case "users":
		b.requireAdmin(from, chatID, func() { b.handleUsers(chatID) })
	case "approve", "reject":
		b.requireAdmin(from, chatID, func() { b.handleDecision(from, chatID, command, args) })
	case "removeuser":
		b.requireAdmin(from, chatID, func() { b.handleRemoveUser(from, chatID, args) })
	case "remove":
		b.requireAdmin(from, chatID, func() { b.handleExclude(from, chatID, args) })
	case "restore":
		b.requireAdmin(from, chatID, func() { b.handleRestore(chatID, args) })
	default:
		b.reply(chatID, "Nežinoma komanda. Naudokite /pagalba.")
	}
}

func (b *TelegramBot) requireAdmin(from *tgbotapi.User, chatID int64, action func()) {
	if !b.users.IsAdmin(from.ID, from.UserName) {
		b.reply(chatID, "Neturite teisės naudoti šios komandos.")
		return
	}
	action()
}

func (b *TelegramBot) requireApproved(from *tgbotapi.User, chatID int64, action func()) {
	if b.users.IsAdmin(from.ID, from.UserName) {
		action()
		return
	}
	approved, err := b.users.IsApproved(from.ID)
	if err != nil {
		log.Printf("approval check for %v: %v", from.ID, err)
		b.reply(chatID, "Nepavyko patikrinti prieigos. Bandykite vėliau.")
		return
	}
	if !approved {
		b.reply(chatID, "Jūsų prieiga dar nepatvirtinta.")
		return
	}
	action()
}

func (b *TelegramBot) handleStart(from *tgbotapi.User, chatID int64) {
	user, err := b.users.RequestAccess(from.ID, from.UserName, chatID)
	if err != nil {
		log.Printf("access request for %v: %v", from.ID, err)
		b.reply(chatID, "Registracija nepavyko. Bandykite vėliau.")
		return
	}
	if user.Status == StatusApproved {
		b.reply(chatID, "Sveiki! Jūsų prieiga jau patvirtinta.")
		return
	}
	b.reply(chatID, "Sveiki! Jūsų registracija pateikta. Laukite administratoriaus patvirtinimo.")
}

func (b *TelegramBot) handleInfo(chatID int64) {
	records, err := b.snapshot.Records()
	if err != nil {
		log.Printf("reading snapshot: %v", err)
		b.reply(chatID, "Duomenų nėra. Susisiekite su administratoriumi.")
		return
	}
	tasks := dueToday(records, todayIn(b.loc))
	text := renderSummary(tasks)
	if syncedAt, err := b.snapshot.LastSyncedAt(); err == nil && !syncedAt.IsZero() {
		text += "\n\nAtnaujinta: " + syncedAt.In(b.loc).Format("2006-01-02 15:04")
	}
	b.reply(chatID, text)
}

func (b *TelegramBot) handleList(chatID int64) {
	plates, err := b.snapshot.Plates()
	if err != nil {
		log.Printf("listing plates: %v", err)
		b.reply(chatID, "Nepavyko gauti sąrašo.")
		return
	}
	if len(plates) == 0 {
		b.reply(chatID, "Sąrašas tuščias.")
		return
	}
	keyboard := tgbotapi.NewInlineKeyboardMarkup()
	for _, plate := range plates {
		keyboard.InlineKeyboard = append(keyboard.InlineKeyboard,
			tgbotapi.NewInlineKeyboardRow(
				tgbotapi.NewInlineKeyboardButtonData(plate, "/plate "+plate),
			))
	}
	msg := tgbotapi.NewMessage(chatID, "Numerių sąrašas:\n"+strings.Join(plates, "\n"))
	msg.ReplyMarkup = keyboard
	if _, err := b.api.Send(msg); err != nil {
		log.Printf("sending plate list to chat %v: %v", chatID, err)
	}
}

func (b *TelegramBot) handlePlate(chatID int64, args string) {
	if args == "" {
		b.reply(chatID, "Naudojimas: /id <numeris>")
		return
	}
	plate := normalizePlate(args)
	events, err := b.snapshot.PlateEvents(plate)
	if errors.Is(err, ErrNotFound) {
		b.reply(chatID, "Numeris nerastas.")
		return
	}
	if err != nil {
		log.Printf("plate lookup %v: %v", plate, err)
		b.reply(chatID, "Nepavyko gauti duomenų.")
		return
	}
	b.reply(chatID, renderPlateDetails(plate, events, todayIn(b.loc)))
}

func (b *TelegramBot) handleDryRun(chatID int64) {
	text, err := b.dispatcher.DryRun(todayIn(b.loc))
	if err != nil {
		log.Printf("dry run: %v", err)
		b.reply(chatID, "Nepavyko sudaryti pranešimo.")
		return
	}
	b.reply(chatID, text)
}

func (b *TelegramBot) handleSendToday(ctx context.Context, chatID int64) {
	report, err := b.dispatcher.RunOnce(ctx, todayIn(b.loc))
	if err != nil {
		log.Printf("forced run: %v", err)
		b.reply(chatID, "Siuntimas nepavyko: "+err.Error())
		return
	}
	b.reply(chatID, fmt.Sprintf("Išsiųsta. Priminimų: %d, gavėjų: %d, klaidų: %d.",
		report.Tasks, report.Sent, report.Failed))
}

func (b *TelegramBot) handleUpdateData(ctx context.Context, chatID int64) {
	b.reply(chatID, "Atnaujinami duomenys...")
	skipped, err := b.dispatcher.Sync(ctx)
	if err != nil {
		log.Printf("manual sync: %v", err)
		b.reply(chatID, "Atnaujinti nepavyko: "+err.Error())
		return
	}
	text := "Duomenys atnaujinti."
	if skipped > 0 {
		text += fmt.Sprintf(" Praleista netinkamų eilučių: %d.", skipped)
	}
	b.reply(chatID, text)
}

func (b *TelegramBot) handlePending(chatID int64) {
	pending, err := b.users.ListPending()
	if err != nil {
		log.Printf("listing pending users: %v", err)
		b.reply(chatID, "Nepavyko gauti sąrašo.")
		return
	}
	if len(pending) == 0 {
		b.reply(chatID, "Nėra laukiančių vartotojų.")
		return
	}
	keyboard := tgbotapi.NewInlineKeyboardMarkup()
	for _, user := range pending {
		name := user.Username
		if name == "" {
			name = strconv.FormatInt(user.TelegramID, 10)
		}
		id := strconv.FormatInt(user.TelegramID, 10)
		keyboard.InlineKeyboard = append(keyboard.InlineKeyboard,
			tgbotapi.NewInlineKeyboardRow(
				tgbotapi.NewInlineKeyboardButtonData("✅ "+name, "/approve "+id),
				tgbotapi.NewInlineKeyboardButtonData("❌ "+name, "/reject "+id),
			))
	}
	msg := tgbotapi.NewMessage(chatID, fmt.Sprintf("Laukiantys vartotojai (%d):", len(pending)))
	msg.ReplyMarkup = keyboard
	if _, err := b.api.Send(msg); err != nil {
		log.Printf("sending pending list to chat %v: %v", chatID, err)
	}
}

func (b *TelegramBot) handleUsers(chatID int64) {
	users, err := b.users.ListAll()
	if err != nil {
		log.Printf("listing users: %v", err)
		b.reply(chatID, "Nepavyko gauti sąrašo.")
		return
	}
	if len(users) == 0 {
		b.reply(chatID, "Vartotojų nėra.")
		return
	}
	lines := []string{fmt.Sprintf("Vartotojai (%d):", len(users))}
	keyboard := tgbotapi.NewInlineKeyboardMarkup()
	for _, user := range users {
		name := user.Username
		if name == "" {
			name = strconv.FormatInt(user.TelegramID, 10)
		}
		lines = append(lines, fmt.Sprintf("%s — %s (%s)", name, user.Status, user.Role))
		keyboard.InlineKeyboard = append(keyboard.InlineKeyboard,
			tgbotapi.NewInlineKeyboardRow(
				tgbotapi.NewInlineKeyboardButtonData("🗑 "+name,
					"/removeuser "+strconv.FormatInt(user.TelegramID, 10)),
			))
	}
	msg := tgbotapi.NewMessage(chatID, strings.Join(lines, "\n"))
	msg.ReplyMarkup = keyboard
	if _, err := b.api.Send(msg); err != nil {
		log.Printf("sending user list to chat %v: %v", chatID, err)
	}
}

func (b *TelegramBot) handleDecision(from *tgbotapi.User, chatID int64, command, args string) {
	targetID, err := strconv.ParseInt(args, 10, 64)
	if err != nil {
		b.reply(chatID, "Naudojimas: /"+command+" <user_id>")
		return
	}
	outcome := OutcomeApprove
	if command == "reject" {
		outcome = OutcomeReject
	}
	user, err := b.users.Decide(from.ID, from.UserName, targetID, outcome)
	switch {
	case errors.Is(err, ErrNotFound):
		b.reply(chatID, "Vartotojas nerastas.")
		return
	case errors.Is(err, ErrForbidden):
		b.reply(chatID, "Neturite teisės naudoti šios komandos.")
		return
	case err != nil:
		log.Printf("deciding on user %v: %v", targetID, err)
		b.reply(chatID, "Nepavyko išsaugoti sprendimo.")
		return
	}
	if outcome == OutcomeApprove {
		b.reply(chatID, fmt.Sprintf("Vartotojas %v patvirtintas.", targetID))
		if user.ChatID != 0 {
			b.reply(user.ChatID, "Jūsų prieiga patvirtinta. Naudokite /pagalba.")
		}
		return
	}
	b.reply(chatID, fmt.Sprintf("Vartotojas %v atmestas.", targetID))
	if user.ChatID != 0 {
		b.reply(user.ChatID, "Jūsų prieigos prašymas atmestas.")
	}
}

func (b *TelegramBot) handleRemoveUser(from *tgbotapi.User, chatID int64, args string) {
	targetID, err := strconv.ParseInt(args, 10, 64)
	if err != nil {
		b.reply(chatID, "Naudojimas: /removeuser <user_id>")
		return
	}
	err = b.users.Remove(from.ID, from.UserName, targetID)
	switch {
	case errors.Is(err, ErrNotFound):
		b.reply(chatID, "Vartotojas nerastas.")
	case errors.Is(err, ErrForbidden):
		b.reply(chatID, "Neturite teisės naudoti šios komandos.")
	case err != nil:
		log.Printf("removing user %v: %v", targetID, err)
		b.reply(chatID, "Nepavyko pašalinti vartotojo.")
	default:
		b.reply(chatID, fmt.Sprintf("Vartotojas %v pašalintas.", targetID))
	}
}

func (b *TelegramBot) handleExclude(from *tgbotapi.User, chatID int64, args string) {
	if args == "" {
		b.reply(chatID, "Naudojimas: /remove <numeris>")
		return
	}
	plate := normalizePlate(args)
	by := adminIdentity(from.ID, from.UserName)
	if err := b.snapshot.Exclude(plate, by); err != nil {
		if errors.Is(err, ErrNotFound) {
			b.reply(chatID, "Numeris nerastas.")
			return
		}
		log.Printf("excluding plate %v: %v", plate, err)
		b.reply(chatID, "Nepavyko pašalinti numerio.")
		return
	}
	b.reply(chatID, fmt.Sprintf("Numeris %s pašalintas iš pranešimų.", plate))
	b.replyExcludedList(chatID)
}

func (b *TelegramBot) handleRestore(chatID int64, args string) {
	if args == "" {
		b.reply(chatID, "Naudojimas: /restore <numeris>")
		return
	}
	plate := normalizePlate(args)
	if err := b.snapshot.Restore(plate); err != nil {
		if errors.Is(err, ErrNotFound) {
			b.reply(chatID, "Numeris nebuvo pašalintas.")
			return
		}
		log.Printf("restoring plate %v: %v", plate, err)
		b.reply(chatID, "Nepavyko grąžinti numerio.")
		return
	}
	b.reply(chatID, fmt.Sprintf("Numeris %s grąžintas į pranešimus.", plate))
}

func (b *TelegramBot) replyExcludedList(chatID int64) {
	excluded, err := b.snapshot.ExcludedPlates()
	if err != nil || len(excluded) == 0 {
		return
	}
	lines := []string{"Pašalinti numeriai:"}
	for _, e := range excluded {
		lines = append(lines, fmt.Sprintf("%s (pašalino %s)", e.Plate, e.ExcludedBy))
	}
	b.reply(chatID, strings.Join(lines, "\n"))
}

// botCommands is the command list registered with Telegram at startup.
func botCommands() []tgbotapi.BotCommand {
	return []tgbotapi.BotCommand{
		{Command: "start", Description: "Registracija"},
		{Command: "pagalba", Description: "Komandų sąrašas"},
		{Command: "info", Description: "Šiandienos priminimas"},
		{Command: "sarasas", Description: "Visų numerių sąrašas"},
		{Command: "id", Description: "Konkretaus numerio duomenys"},
		{Command: "whoami", Description: "Sužinoti savo ID"},
		{Command: "dryrun", Description: "Peržiūrėti šiandienos pranešimą (admin)"},
		{Command: "pending", Description: "Laukiantys vartotojai (admin)"},
		{Command: "users", Description: "Vartotojų sąrašas (admin)"},
		{Command: "update", Description: "Atnaujinti duomenis (admin)"},
		{Command: "remove", Description: "Pašalinti numerį iš pranešimų (admin)"},
		{Command: "restore", Description: "Grąžinti numerį į pranešimus (admin)"},
		{Command: "sendtoday", Description: "Išsiųsti šiandienos pranešimą (admin)"},
	}
}
