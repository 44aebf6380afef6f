// Package notify is the outbound messaging boundary. Notifier is the single
// send(text) operation the rest of the watchdog depends on; TelegramSender
// is the production implementation speaking the Telegram Bot API directly.
package notify
