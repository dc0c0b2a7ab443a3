package slotmon

import (
	"fmt"
	"strings"
	"time"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
	"github.com/pkg/errors"
	"github.com/rs/zerolog/log"
)

const (
	FOUND_HEADER   = "🔥 Found available days!"
	CHANGED_HEADER = "⚡ Available days changed!"
	NO_SLOTS_TEXT  = "🙅 No more slots available..."

	// Telegram caption limit, with some slack for the "(cut)" marker
	NOTIFICATION_TEXT_LIMIT = 1000
)

// Notifier posts check results to a Telegram chat.
type Notifier struct {
	bot    *tgbotapi.BotAPI
	chatID int64

	// Message edited with the last-checked timestamp. 0 - disabled
	StatusMessageID int
}

func NewNotifier(token string, chatID int64) (*Notifier, error) {
	bot, err := tgbotapi.NewBotAPI(token)
	if err != nil {
		return nil, errors.Wrap(err, "create telegram bot")
	}
	return &Notifier{bot: bot, chatID: chatID}, nil
}

// NotifySlotsFound sends the calendar screenshots as a media group with the
// diff text attached to the first photo. The notification is silent unless a
// new day was added.
func (n *Notifier) NotifySlotsFound(text string, screenshots [][]byte, added bool) error {
	if len(screenshots) == 0 {
		message := tgbotapi.NewMessage(n.chatID, text)
		message.DisableNotification = !added
		_, err := n.bot.Send(message)
		return errors.Wrap(err, "send notification")
	}

	media := make([]interface{}, 0, len(screenshots))
	for i, screenshot := range screenshots {
		photo := tgbotapi.NewInputMediaPhoto(tgbotapi.FileBytes{
			Name:  fmt.Sprintf("calendar-%d.png", i),
			Bytes: screenshot,
		})
		if i == 0 {
			photo.Caption = text
		}
		media = append(media, photo)
	}

	group := tgbotapi.MediaGroupConfig{
		ChatID: n.chatID,
		Media:  media,
	}
	group.DisableNotification = !added

	_, err := n.bot.SendMediaGroup(group)
	return errors.Wrap(err, "send media group")
}

// NotifyNoSlots tells the chat the previously seen slots are gone.
func (n *Notifier) NotifyNoSlots() error {
	_, err := n.bot.Send(tgbotapi.NewMessage(n.chatID, NO_SLOTS_TEXT))
	return errors.Wrap(err, "send notification")
}

// UpdateStatus edits the pinned status message with the check time.
func (n *Notifier) UpdateStatus(checkedAt time.Time) error {
	if n.StatusMessageID == 0 {
		return nil
	}

	status := fmt.Sprintf("⚡ Last checked at %s (Moscow time)",
		checkedAt.In(moscowTime()).Format("15:04 on Jan 02"))

	edit := tgbotapi.NewEditMessageText(n.chatID, n.StatusMessageID, status)
	if _, err := n.bot.Send(edit); err != nil {
		return errors.Wrap(err, "edit status message")
	}
	return nil
}

func moscowTime() *time.Location {
	location, err := time.LoadLocation("Europe/Moscow")
	if err != nil {
		log.Warn().Err(err).Msg("No tzdata for Moscow, using fixed offset")
		return time.FixedZone("MSK", 3*60*60)
	}
	return location
}

// BuildNotificationText renders the diff between two checks. Reports whether
// any day was added, which controls the notification sound.
func BuildNotificationText(baseline, current map[string][]int, slots []AvailableSlot, schedulingURL string) (string, bool) {
	var header string
	if len(baseline) == 0 {
		header = FOUND_HEADER
	} else {
		header = CHANGED_HEADER
	}

	var description strings.Builder
	var addedSomething bool

	for _, month := range DatesDiff(baseline, current) {
		for _, day := range month.Removed {
			fmt.Fprintf(&description, "❌ %d %s\n", day, month.Month)
		}
		for _, day := range month.Added {
			addedSomething = true

			count := 0
			for _, slot := range slots {
				if slot.Month == month.Month && slot.Day == day {
					count++
				}
			}

			unit := "slots"
			if count == 1 {
				unit = "slot"
			}
			fmt.Fprintf(&description, "🟢 %d %s (%d %s)\n", day, month.Month, count, unit)
		}
	}

	text := header + "\n\n" + description.String() + "\n" + schedulingURL

	// cut the message if too long to at least send it successfully
	if runes := []rune(text); len(runes) > NOTIFICATION_TEXT_LIMIT {
		text = string(runes[:NOTIFICATION_TEXT_LIMIT]) + " (cut)"
	}

	return text, addedSomething
}
