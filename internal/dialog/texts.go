package dialog

// Display texts for the ordinary-user flow. These strings are user-visible
// wire content; handlers compare against menu option labels in lowercase.
const (
	MenuText = `🏠 Главное меню

Выберите действие:
1️⃣ Консультация со специалистом
2️⃣ Консультация с ИИ
3️⃣ Условия обращения
4️⃣ Вопрос по психологии

Для возврата в меню в любой момент используйте команду /menu`

	WelcomeText = `👋 Добро пожаловать в PsychoBot!

Я помогу вам получить психологическую поддержку.

`

	TermsText = `📋 Условия обращения и политика конфиденциальности

1. Все консультации анонимны
2. Ваши данные защищены
3. Чаты сохраняются только для истории консультации
4. Вы можете в любой момент прекратить консультацию

Для возврата в меню используйте /menu`

	AIChatText = `🤖 Консультация с ИИ-ассистентом

Вы можете задать любой вопрос. ИИ постарается помочь вам.

Команды:
/clear - очистить контекст диалога
/menu - вернуться в главное меню`

	PsyQuestionText = `❓ Вопрос по психологии

Задайте свой вопрос, и мы постараемся на него ответить.

Для возврата в меню используйте /menu`

	FormTopicPrompt    = "📝 Консультация со специалистом\n\nУкажите тему консультации:"
	FormGenderPrompt   = "Укажите ваш пол:"
	FormAgePrompt      = "Укажите ваш возраст:"
	FormSeverityPrompt = `Укажите критичность вашего обращения:
1. Низкая
2. Средняя
3. Высокая
4. Критическая`
	FormMessagePrompt = "Опишите вашу ситуацию подробно:"

	AgeNotANumber  = "Пожалуйста, введите число (ваш возраст):"
	AgeOutOfRange  = "Пожалуйста, укажите корректный возраст (от 1 до 120):"
	SeverityReask  = "Пожалуйста, выберите критичность (1-4 или название):"
	TicketCreated  = "✅ Заявка создана! Специалист свяжется с вами в ближайшее время.\n\n"
	ContextCleared = "🗑️ Контекст диалога очищен.\n\n"
	UnknownCommand = "Неизвестная команда. Используйте /menu для возврата в главное меню."
)
