package domain

const (
	StartChatCallback          = "start_chat"
	SettingsCallback           = "settings"
	SettingsSendMethodCallback = "settings_send_method"
	SetFormatCallbackPrefix    = "format_"
	BuyCreditsCallback         = "buy_credits"
)
