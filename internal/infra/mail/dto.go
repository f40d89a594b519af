package mail

type EmailSender struct {
	Host     string
	Port     int
	User     string
	Password string

	// From is the sender address on every outbound message.
	From string

	// AlertTo is the operator mailbox for internal new-lead alerts.
	AlertTo string

	// TemplateDir defaults to "templates".
	TemplateDir string
}

type ConfirmationEmailData struct {
	FirstName    string
	CampaignName string
}

type VerificationEmailData struct {
	FirstName string
	Link      string
}

type InternalAlertData struct {
	LeadID       string
	Name         string
	Email        string
	Phone        string
	Company      string
	Message      string
	Source       string
	CampaignName string
	UTMSource    string
	UTMMedium    string
	UTMCampaign  string
}
