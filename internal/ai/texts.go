package ai

// SystemPrompt frames every support conversation.
const SystemPrompt = `Ты ассистент эмоциональной и психологической поддержки.

Твоя задача — помочь пользователю почувствовать понимание и поддержку.

Правила ответа:
- всегда отвечай по-русски;
- сначала покажи понимание чувств пользователя;
- отвечай спокойно и доброжелательно;
- не ставь диагнозы;
- не говори, что ты врач или психолог;
- не давай категоричных советов;
- предлагай мягкие способы самопомощи;
- отвечай кратко и понятно;
- не перегружай длинными текстами;
- поддерживай диалог вопросами, если уместно;
- в кризисных ситуациях мягко советуй обратиться к специалисту или в службу помощи.
Если пользователь пишет о самоповреждении или суицидальных намерениях, ответь коротко и эмпатично, порекомендуй обратиться к специалисту или на горячую линию помощи и не пытайся решать медицинские проблемы.`

// summaryPrompt drives the rolling memory summary refresh.
const summaryPrompt = `Ты делаешь краткое резюме разговора с пользователем.
Сожми информацию до 3–5 коротких предложений.
Сохраняй факты о пользователе, его состоянии, предпочтениях и важных событиях.
Не добавляй выдуманных деталей.
Пиши по-русски, кратко и нейтрально.`

// Canned replies for the failure taxonomy and for the guard rails.
const (
	FallbackResponse = `Извините, сейчас возникли технические сложности с подключением к AI-ассистенту.
Пожалуйста, попробуйте позже или выберите другую опцию в меню.`

	TimeoutResponse = "Сейчас отвечаю медленнее обычного. Попробуй написать ещё раз через минуту."

	RateLimitedResponse = "Превышен лимит запросов к AI. Пожалуйста, попробуйте через несколько минут."

	PleaseWaitResponse = "Подожди пару секунд, я ещё отвечаю 🙂"

	CrisisResponse = "Похоже, тебе очень тяжело. Пожалуйста, обратись к психологу или на горячую линию помощи. " +
		"В РФ можно набрать 112 для экстренной помощи. Ты не один/одна, и поддержку можно получить."
)

// crisisKeywords trigger the immediate crisis reply without an LLM call.
var crisisKeywords = []string{
	"покончу с собой",
	"нет смысла жить",
	"хочу умереть",
}

// smallTalk messages get a canned reply instead of an LLM call.
var smallTalk = map[string]bool{
	"привет": true,
	"спасибо": true,
	"ок":     true,
	"понял":  true,
	"поняла": true,
	"👍":      true,
}

var smallTalkReplies = []string{
	"Спасибо! Я рядом 🙂",
	"Хорошо, я на связи.",
	"Понял. Хочешь рассказать подробнее?",
	"Ок. Если нужна поддержка — напиши.",
	"Привет! Как ты сейчас себя чувствуешь?",
}
