package assign

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/psyline/psybot/internal/models"
)

// PageSize is the number of entries per picker page.
const PageSize = 10

// Command is the parsed form of a picker input.
type Command int

const (
	CmdInvalid Command = iota
	CmdPick            // a page-relative index 1..PageSize
	CmdNext
	CmdPrev
	CmdExit
)

// ParseCommand interprets one picker message. For CmdPick the second return
// value is the page-relative index (1-based).
func ParseCommand(msg string) (Command, int) {
	m := strings.ToLower(strings.TrimSpace(msg))
	switch m {
	case "next", "далее", "следующие":
		return CmdNext, 0
	case "prev", "назад", "предыдущие":
		return CmdPrev, 0
	case "exit", "отмена", "0":
		return CmdExit, 0
	}
	if n, err := strconv.Atoi(m); err == nil && n >= 1 && n <= PageSize {
		return CmdPick, n
	}
	return CmdInvalid, 0
}

// TotalPages returns the page count for a list, never less than 1 so page
// headers stay well-defined for empty lists.
func TotalPages(total int) int {
	pages := (total + PageSize - 1) / PageSize
	if pages < 1 {
		return 1
	}
	return pages
}

// pageFooter is the trailing command hint; "назад" is omitted on page 1.
func pageFooter(noun string, offset int) string {
	var b strings.Builder
	fmt.Fprintf(&b, "\nВведите номер %s (1-%d)", noun, PageSize)
	b.WriteString(", 'далее' — следующая страница")
	if offset > 0 {
		b.WriteString(", 'назад' — предыдущая")
	}
	b.WriteString(", '0' — отмена")
	return b.String()
}

// RenderTicketsPage renders one page of the assignment backlog.
func RenderTicketsPage(tickets []models.Ticket, offset int) string {
	page := offset/PageSize + 1
	var b strings.Builder
	fmt.Fprintf(&b, "📋 Заявки для назначения (стр. %d/%d)\n\n", page, TotalPages(len(tickets)))

	if len(tickets) == 0 {
		b.WriteString("Заявок для назначения нет.\n")
	}
	for i := offset; i < len(tickets) && i < offset+PageSize; i++ {
		t := tickets[i]
		fmt.Fprintf(&b, "%d. [%s] %s — %s, %s\n",
			i-offset+1, t.Severity, t.Topic, t.Status, t.CreatedAt.Format("02.01.2006 15:04"))
	}

	b.WriteString(pageFooter("заявки", offset))
	return b.String()
}

// RenderPsychologistsPage renders one page of the workload-ranked
// psychologist list for the selected ticket.
func RenderPsychologistsPage(ticket models.Ticket, ranked []Workload, offset int) string {
	page := offset/PageSize + 1
	var b strings.Builder
	fmt.Fprintf(&b, "👥 Выберите психолога для заявки «%s» (стр. %d/%d)\n\n",
		ticket.Topic, page, TotalPages(len(ranked)))

	if len(ranked) == 0 {
		b.WriteString("Психологов пока нет.\n")
	}
	for i := offset; i < len(ranked) && i < offset+PageSize; i++ {
		w := ranked[i]
		fmt.Fprintf(&b, "%d. %s — активных заявок: %d\n", i-offset+1, w.Profile.DisplayName(), w.Active)
	}

	b.WriteString(pageFooter("психолога", offset))
	return b.String()
}

// Picker messages shared by the two selection states.
const (
	LastPageNotice  = "Это последняя страница."
	FirstPageNotice = "Это первая страница."
	NotFoundNotice  = "Элемент с таким номером не найден."
	UsageHint       = "Не понимаю. Введите номер (1-10), 'далее', 'назад' или '0' для отмены."
)
