package bot

// Panel texts for the role-gated handlers.
const (
	adminMenuText = `🛠 АДМИН-ПАНЕЛЬ

Выберите действие:
1. Назначить заявку
2. Управление психологами
3. Снять психолога
4. Обычное меню

Для возврата в обычное меню используйте /menu`

	psyMenuText = `🩺 ПАНЕЛЬ ПСИХОЛОГА

Выберите действие:
1. Мои заявки
2. Обычное меню

Для возврата в обычное меню используйте /menu`

	backToMenuText = "Вы перешли в обычное меню.\n\n"

	managePsychologistsPrompt = `👥 Управление психологами

Отправьте ID пользователя или @username, чтобы назначить его психологом.
'0' — отмена`

	promoteNotFound       = "❌ Пользователь не найден. Он должен хотя бы раз написать боту."
	promoteAdminRefused   = "❌ Нельзя изменить роль администратора."
	promoteAlreadyAssigned = "ℹ️ Этот пользователь уже психолог."
	promoteDone           = "✅ Пользователь назначен психологом."
	demoteDone            = "✅ Психолог снят с роли."
	demoteFailed          = "❌ Не удалось снять психолога."
	assignDone            = "✅ Заявка назначена психологу."
	assignFailed          = "❌ Не удалось назначить заявку: заявка не найдена."
	noPsychologists       = "Психологов пока нет. Сначала назначьте психолога."
	noAssignedTickets     = "📋 У вас пока нет назначенных заявок."
)
