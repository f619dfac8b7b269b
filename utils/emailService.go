package utils

import (
	"fmt"
	"log"

	"lms/config"

	"github.com/sendgrid/sendgrid-go"
	"github.com/sendgrid/sendgrid-go/helpers/mail"
)

// SendEmail delivers one HTML email through Sendgrid. Notification mail is
// best effort: when no API key is configured the send is skipped with a log
// line instead of failing the caller.
func SendEmail(toEmail, toName, subject, htmlBody string) error {
	if config.AppConfig == nil || config.AppConfig.SendgridApiKey == "" {
		log.Printf("Skipping email to %s (%s): no Sendgrid API key configured", toEmail, subject)
		return nil
	}

	from := mail.NewEmail("Learning Platform", config.AppConfig.EmailSender)
	to := mail.NewEmail(toName, toEmail)
	message := mail.NewSingleEmail(from, subject, to, "", htmlBody)

	client := sendgrid.NewSendClient(config.AppConfig.SendgridApiKey)
	resp, err := client.Send(message)
	if err != nil {
		log.Printf("Error sending email to %s: %v", toEmail, err)
		return err
	}
	if resp.StatusCode >= 400 {
		log.Printf("Sendgrid rejected email to %s: %d %s", toEmail, resp.StatusCode, resp.Body)
		return fmt.Errorf("sendgrid returned status %d", resp.StatusCode)
	}
	return nil
}

// SendWeekUnlockedEmail notifies a student that the next week opened up
func SendWeekUnlockedEmail(toEmail, toName, weekTitle string) {
	body := emailTemplate("New week unlocked!", fmt.Sprintf(`
		<h2>Nice work, %s!</h2>
		<p>You just unlocked <strong>%s</strong>. Jump back in and keep your streak going.</p>
	`, toName, weekTitle))
	if err := SendEmail(toEmail, toName, "You unlocked a new week", body); err != nil {
		log.Printf("Error sending week-unlocked email: %v", err)
	}
}

// SendCertificateEmail notifies a student that their certificate was issued
func SendCertificateEmail(toEmail, toName, certificateNumber string) {
	body := emailTemplate("Certificate issued", fmt.Sprintf(`
		<h2>Congratulations, %s!</h2>
		<p>You completed the program. Your certificate number is <strong>%s</strong>.</p>
	`, toName, certificateNumber))
	if err := SendEmail(toEmail, toName, "Your certificate is ready", body); err != nil {
		log.Printf("Error sending certificate email: %v", err)
	}
}

// emailTemplate wraps the content in the platform's standard layout
func emailTemplate(title, bodyContent string) string {
	return fmt.Sprintf(`
	<!DOCTYPE html>
	<html>
	<head>
		<style>
			body { font-family: 'Helvetica Neue', Helvetica, Arial, sans-serif; background-color: #F6F6F6; margin: 0; padding: 0; }
			.container { max-width: 600px; margin: 40px auto; background: #FFFFFF; border-radius: 8px; overflow: hidden; }
			.header { background-color: #1A1A40; padding: 30px; text-align: center; }
			.header h1 { color: #FFFFFF; margin: 0; font-size: 24px; }
			.content { padding: 40px 30px; color: #1A1A40; line-height: 1.6; }
			.footer { background-color: #F6F6F6; padding: 20px; text-align: center; font-size: 12px; color: #666666; }
		</style>
	</head>
	<body>
		<div class="container">
			<div class="header"><h1>%s</h1></div>
			<div class="content">%s</div>
			<div class="footer">You are receiving this because you are enrolled in a cohort.</div>
		</div>
	</body>
	</html>`, title, bodyContent)
}
