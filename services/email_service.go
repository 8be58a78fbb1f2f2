package services

import (
	"bytes"
	"crypto/tls"
	"fmt"
	"html/template"
	"net/smtp"

	"github.com/crownstage/pageant-system/config"
	"github.com/crownstage/pageant-system/models"
)

// EmailService — SMTP-реализация Notifier. Fire-and-forget: движок не ждёт
// гарантий доставки.
type EmailService struct {
	cfg *config.Config
}

func NewEmailService(cfg *config.Config) *EmailService {
	return &EmailService{cfg: cfg}
}

func (s *EmailService) SendEmail(to []string, subject string, body string) error {
	auth := smtp.PlainAuth("", s.cfg.SMTPUser, s.cfg.SMTPPass, s.cfg.SMTPHost)

	msg := []byte("To: " + to[0] + "\r\n" +
		"From: " + s.cfg.SMTPFrom + "\r\n" +
		"Subject: " + subject + "\r\n" +
		"MIME-version: 1.0;\nContent-Type: text/html; charset=\"UTF-8\";\r\n" +
		"\r\n" +
		body + "\r\n")

	addr := fmt.Sprintf("%s:%d", s.cfg.SMTPHost, s.cfg.SMTPPort)

	tlsconfig := &tls.Config{
		InsecureSkipVerify: true,
		ServerName:         s.cfg.SMTPHost,
	}

	var client *smtp.Client
	if s.cfg.SMTPPort == 465 {
		// Прямое TLS-соединение (обычно порт 465)
		conn, err := tls.Dial("tcp", addr, tlsconfig)
		if err != nil {
			return fmt.Errorf("ошибка TLS соединения: %w", err)
		}
		defer conn.Close()
		client, err = smtp.NewClient(conn, s.cfg.SMTPHost)
		if err != nil {
			return fmt.Errorf("ошибка создания SMTP клиента: %w", err)
		}
	} else {
		// STARTTLS (обычно порт 587)
		c, err := smtp.Dial(addr)
		if err != nil {
			return fmt.Errorf("ошибка соединения SMTP: %w", err)
		}
		client = c
		if err = client.StartTLS(tlsconfig); err != nil {
			client.Close()
			return fmt.Errorf("ошибка команды STARTTLS: %w", err)
		}
	}
	defer client.Quit()

	if err := client.Auth(auth); err != nil {
		return fmt.Errorf("ошибка аутентификации SMTP: %w", err)
	}

	if err := client.Mail(s.cfg.SMTPFrom); err != nil {
		return fmt.Errorf("ошибка MAIL FROM: %w", err)
	}
	for _, addr := range to {
		if err := client.Rcpt(addr); err != nil {
			return fmt.Errorf("ошибка RCPT TO: %w", err)
		}
	}

	w, err := client.Data()
	if err != nil {
		return fmt.Errorf("ошибка команды DATA: %w", err)
	}

	_, err = w.Write(msg)
	if err != nil {
		return fmt.Errorf("ошибка записи сообщения: %w", err)
	}

	err = w.Close()
	if err != nil {
		return fmt.Errorf("ошибка закрытия DATA: %w", err)
	}

	return nil
}

func (s *EmailService) GenerateEmailBody(templatePath string, data interface{}) (string, error) {
	t, err := template.ParseFiles(templatePath)
	if err != nil {
		return "", fmt.Errorf("ошибка парсинга шаблона %s: %w", templatePath, err)
	}

	var body bytes.Buffer
	if err := t.Execute(&body, data); err != nil {
		return "", fmt.Errorf("ошибка выполнения шаблона %s: %w", templatePath, err)
	}

	return body.String(), nil
}

// SendNomineeInvite отправляет приглашение заполнить профиль по
// инвайт-ссылке.
func (s *EmailService) SendNomineeInvite(nominee *models.Nominee) error {
	if nominee.InviteToken == nil {
		return ErrInviteNotFound
	}

	subject := "Вас номинировали на конкурс!"
	data := struct {
		Name       string
		InviteLink string
	}{
		Name:       nominee.Name,
		InviteLink: fmt.Sprintf("%s/nominees/claim?token=%s", s.cfg.PublicURL, *nominee.InviteToken),
	}

	htmlBody, err := s.GenerateEmailBody("templates/emails/nominee_invite_email.html", data)
	if err != nil {
		return fmt.Errorf("ошибка генерации тела письма-приглашения: %w", err)
	}

	return s.SendEmail([]string{nominee.Email}, subject, htmlBody)
}

// ResendNomineeInvite повторно отправляет то же приглашение.
func (s *EmailService) ResendNomineeInvite(nominee *models.Nominee) error {
	return s.SendNomineeInvite(nominee)
}

// SendCompetitionStatusEmail уведомляет хоста о смене статуса конкурса.
func (s *EmailService) SendCompetitionStatusEmail(userEmail, competitionName, status string, competitionID int) error {
	subject := fmt.Sprintf("Конкурс '%s': %s", competitionName, status)
	link := fmt.Sprintf("%s/competitions/%d", s.cfg.PublicURL, competitionID)
	data := struct {
		CompetitionName string
		Status          string
		Link            string
	}{
		CompetitionName: competitionName,
		Status:          status,
		Link:            link,
	}
	htmlBody, err := s.GenerateEmailBody("templates/emails/competition_status_email.html", data)
	if err != nil {
		return fmt.Errorf("ошибка генерации тела письма о статусе конкурса: %w", err)
	}
	return s.SendEmail([]string{userEmail}, subject, htmlBody)
}
