package mail

import (
	"bytes"
	"fmt"
	"html/template"
	"path/filepath"

	"gopkg.in/gomail.v2"

	"github.com/dmarinho/leadcore/internal/entity"
	"github.com/dmarinho/leadcore/internal/infra/http/middleware"
)

func NewEmailSender(host string, port int, user, password, from, alertTo string) *EmailSender {
	return &EmailSender{
		Host:     host,
		Port:     port,
		User:     user,
		Password: password,
		From:     from,
		AlertTo:  alertTo,
	}
}

// SendConfirmation tells the lead their submission landed. The campaign name
// is optional copy, not a requirement.
func (s *EmailSender) SendConfirmation(to, firstName, campaignName string) error {
	subject := fmt.Sprintf("Thanks for reaching out, %s!", firstName)

	body, err := s.render("confirmation.html", ConfirmationEmailData{
		FirstName:    firstName,
		CampaignName: campaignName,
	})
	if err != nil {
		return err
	}

	err = s.send(to, subject, body)
	middleware.RecordEmailSend("confirmation", err == nil)
	return err
}

// SendInternalAlert summarizes the new lead and its attribution for the
// operator mailbox.
func (s *EmailSender) SendInternalAlert(lead *entity.Lead, campaignName string) error {
	subject := fmt.Sprintf("New lead: %s", lead.Name)
	if campaignName != "" {
		subject = fmt.Sprintf("New lead: %s (%s)", lead.Name, campaignName)
	}

	body, err := s.render("internal_alert.html", InternalAlertData{
		LeadID:       lead.ID,
		Name:         lead.Name,
		Email:        lead.Email,
		Phone:        lead.Phone,
		Company:      lead.Company,
		Message:      lead.Message,
		Source:       lead.Source,
		CampaignName: campaignName,
		UTMSource:    lead.UTMSource,
		UTMMedium:    lead.UTMMedium,
		UTMCampaign:  lead.UTMCampaign,
	})
	if err != nil {
		return err
	}

	err = s.send(s.AlertTo, subject, body)
	middleware.RecordEmailSend("internal_alert", err == nil)
	return err
}

// SendVerification delivers the single-use verification link.
func (s *EmailSender) SendVerification(to, firstName, link string) error {
	subject := fmt.Sprintf("%s, please confirm your email", firstName)

	body, err := s.render("verification.html", VerificationEmailData{
		FirstName: firstName,
		Link:      link,
	})
	if err != nil {
		return err
	}

	err = s.send(to, subject, body)
	middleware.RecordEmailSend("verification", err == nil)
	return err
}

func (s *EmailSender) render(name string, data any) (string, error) {
	dir := s.TemplateDir
	if dir == "" {
		dir = "templates"
	}

	t, err := template.ParseFiles(filepath.Join(dir, name))
	if err != nil {
		return "", fmt.Errorf("failed to read email template %s: %w", name, err)
	}

	var body bytes.Buffer
	if err := t.Execute(&body, data); err != nil {
		return "", fmt.Errorf("failed to render email template %s: %w", name, err)
	}

	return body.String(), nil
}

func (s *EmailSender) send(to, subject, htmlBody string) error {
	m := gomail.NewMessage()
	m.SetHeader("From", s.From)
	m.SetHeader("To", to)
	m.SetHeader("Subject", subject)
	m.SetBody("text/html", htmlBody)

	d := gomail.NewDialer(s.Host, s.Port, s.User, s.Password)

	if err := d.DialAndSend(m); err != nil {
		return fmt.Errorf("SMTP send failed: %w", err)
	}

	return nil
}
