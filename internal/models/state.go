package models

// State identifies which handler processes the next message for a session.
type State string

// Ordinary user states.
const (
	StateMenu         State = "MENU"
	StateFormTopic    State = "FORM_TOPIC"
	StateFormGender   State = "FORM_GENDER"
	StateFormAge      State = "FORM_AGE"
	StateFormSeverity State = "FORM_SEVERITY"
	StateFormMessage  State = "FORM_MESSAGE"
	StateAIChat       State = "AI_CHAT"
	StateTerms        State = "TERMS"
	StatePsyQuestion  State = "PSY_QUESTION"
)

// Psychologist panel states.
const (
	StatePsyMenu        State = "PSY_MENU"
	StatePsyTicketsList State = "PSY_TICKETS_LIST"
)

// Admin panel states.
const (
	StateAdminMenu                State = "ADMIN_MENU"
	StateAdminManagePsychologists State = "ADMIN_MANAGE_PSYCHOLOGISTS"
	StateAdminDemoteSelect        State = "ADMIN_DEMOTE_SELECT"
	StateAdminAssignTicketSelect  State = "ADMIN_ASSIGN_TICKET_SELECT"
	StateAdminAssignPsychoSelect  State = "ADMIN_ASSIGN_PSYCHO_SELECT"
)

// IsAdmin reports whether the state belongs to the admin panel.
func (s State) IsAdmin() bool {
	switch s {
	case StateAdminMenu, StateAdminManagePsychologists, StateAdminDemoteSelect,
		StateAdminAssignTicketSelect, StateAdminAssignPsychoSelect:
		return true
	}
	return false
}

// IsPsychologist reports whether the state belongs to the psychologist panel.
func (s State) IsPsychologist() bool {
	return s == StatePsyMenu || s == StatePsyTicketsList
}
