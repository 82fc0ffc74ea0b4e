package domain

const (
	ProcessingMessage      = "⌛ Обрабатываю ваш запрос..."
	ProcessingAlbumMessage = "⌛ Обрабатываю ваш альбом..."

	UnsupportedInputMessage = "Извините, этот тип файла не поддерживается или запрос неверно сформирован."
	UnavailableMessage      = "Извините, нейросеть временно недоступна. Попробуйте ещё раз чуть позже."
	NoAnswerMessage         = "Не удалось получить ответ."
	SlidesRetryMessage      = "Извините, произошла ошибка при обработке данных для презентации. Пожалуйста, попробуйте снова."
	FileTooLargeMessage     = "Извините, сгенерированный файл слишком большой для отправки в Telegram."
	NotReadableTextMessage  = "Извините, не удалось прочитать этот файл как текст."
	EmptyMessage            = "Пожалуйста, предоставьте текст, фотографию или файл, чтобы я мог помочь."
	DeliveryFailedMessage   = "Не удалось доставить ответ"
	UnknownFormatMessage    = "Такого формата ответа нет. Выберите формат в /settings."

	DefaultImagePrompt = "Проанализируй это изображение."
	DefaultAlbumPrompt = "Реши эти задания."
)

const (
	InsufficientCreditMessage = "🪙 Для этого формата ответа нужны кредиты, а ваш баланс пуст. Пополните его, чтобы продолжить."
	BuyCreditsLabel           = "Купить кредиты"
)
