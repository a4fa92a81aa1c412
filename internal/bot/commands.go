package bot

// Command constants for Telegram bot commands.
const (
	CommandStart    = "/start"
	CommandSchedule = "/schedule"
	CommandCancel   = "/cancel"
	CommandHelp     = "/help"
)
