package services

import (
	"fmt"
	"time"

	"tctc-backend/logger"
)

// SendEmail dispatches an email, queueing it on the emails topic when Kafka
// is configured and falling back to direct SMTP otherwise. Callers treat
// this as fire-and-forget; delivery failures never fail a request.
func SendEmail(to, subject, body string) error {
	if len(brokerList()) == 0 {
		return SendEmailDirect(to, subject, body)
	}

	payload := map[string]interface{}{
		"event":     "email.send",
		"recipient": to,
		"subject":   subject,
		"body":      body,
		"timestamp": time.Now().UTC().Format(time.RFC3339),
	}

	if err := Publish("emails", fmt.Sprintf("email-%s", to), payload); err != nil {
		logger.Warn("Failed to queue email, sending directly: %v", err)
		return SendEmailDirect(to, subject, body)
	}
	return nil
}

// PaymentSubmittedEmail is the admin notification for a new payment
func PaymentSubmittedEmail(studentName, itemName string, total float64, method, trxID string) string {
	return fmt.Sprintf(`
<!DOCTYPE html>
<html>
<head>
    <style>
        body { font-family: Arial, sans-serif; line-height: 1.6; color: #333; }
        .container { max-width: 600px; margin: 0 auto; padding: 20px; }
        .header { background-color: #0056b3; color: white; padding: 20px; text-align: center; border-radius: 5px; }
        .content { background-color: #f9f9f9; padding: 20px; margin-top: 20px; border-radius: 5px; }
    </style>
</head>
<body>
    <div class="container">
        <div class="header"><h2>New Payment Submitted!</h2></div>
        <div class="content">
            <p><strong>Student:</strong> %s</p>
            <p><strong>Item:</strong> %s</p>
            <p><strong>Amount:</strong> %.2f BDT</p>
            <p><strong>Method:</strong> %s</p>
            <p><strong>TrxID:</strong> %s</p>
            <p>Please login to the Admin Dashboard to verify this payment.</p>
        </div>
    </div>
</body>
</html>
	`, studentName, itemName, total, method, trxID)
}

// PaymentVerifiedEmail is the student receipt notification
func PaymentVerifiedEmail(studentName, receiptNo, itemName, rollNo string, total float64) string {
	rollLine := ""
	if rollNo != "" {
		rollLine = fmt.Sprintf(`<p><strong>Roll No:</strong> %s</p>`, rollNo)
	}
	return fmt.Sprintf(`
<!DOCTYPE html>
<html>
<head>
    <style>
        body { font-family: Arial, sans-serif; line-height: 1.6; color: #333; }
        .container { max-width: 600px; margin: 0 auto; padding: 20px; }
        .header { background-color: #4CAF50; color: white; padding: 20px; text-align: center; border-radius: 5px; }
        .content { background-color: #f9f9f9; padding: 20px; margin-top: 20px; border-radius: 5px; }
        .receipt-info { background-color: #e8f5e9; padding: 15px; margin: 15px 0; border-left: 4px solid #4CAF50; }
    </style>
</head>
<body>
    <div class="container">
        <div class="header"><h2>Payment Verified!</h2></div>
        <div class="content">
            <p>Dear <strong>%s</strong>,</p>
            <div class="receipt-info">
                <p><strong>Receipt No:</strong> %s</p>
                <p><strong>Item:</strong> %s</p>
                <p><strong>Total Paid:</strong> %.2f BDT</p>
                %s
            </div>
            <p>Best regards,<br/>Technical Training Center</p>
        </div>
    </div>
</body>
</html>
	`, studentName, receiptNo, itemName, total, rollLine)
}

// AdmissionSubmittedEmail is the admin notification for a new application
func AdmissionSubmittedEmail(studentName, studentID, courseTitle, session, guardianPhone string) string {
	return fmt.Sprintf(`
<!DOCTYPE html>
<html>
<body style="font-family: Arial, sans-serif; color: #333;">
    <h3>New Admission Application Received</h3>
    <p><strong>Student Name:</strong> %s</p>
    <p><strong>Student ID:</strong> %s</p>
    <p><strong>Course:</strong> %s</p>
    <p><strong>Session:</strong> %s</p>
    <p><strong>Guardian Phone:</strong> %s</p>
    <hr/>
    <p>Please login to the Admin Dashboard to review this application.</p>
</body>
</html>
	`, studentName, studentID, courseTitle, session, guardianPhone)
}

// VerificationEmail carries the account activation link
func VerificationEmail(name, studentID, link string) string {
	return fmt.Sprintf(`
<div style="font-family: Arial, sans-serif; padding: 20px; border: 1px solid #ddd;">
    <h2 style="color: #0056b3;">Welcome, %s!</h2>
    <p>Your Student ID: <strong>%s</strong></p>
    <a href="%s"
       style="background-color: #28a745; color: white; padding: 10px 20px;
              text-decoration: none; border-radius: 5px;">
       Verify Email
    </a>
</div>
	`, name, studentID, link)
}

// PasswordResetEmail carries the reset link
func PasswordResetEmail(link string) string {
	return fmt.Sprintf(`
<h1>Password Reset</h1>
<p>Click the link below to reset your password:</p>
<a href="%s">%s</a>
	`, link, link)
}

// ContactEmail forwards a website inquiry to the admin inbox
func ContactEmail(name, email, message string) string {
	return fmt.Sprintf(`
<div style="font-family: Arial, sans-serif; padding: 20px; border: 1px solid #ddd;">
    <h2 style="color: #0056b3;">New Contact Message</h2>
    <p><strong>Name:</strong> %s</p>
    <p><strong>Email:</strong> %s</p>
    <hr />
    <p><strong>Message:</strong></p>
    <blockquote style="background: #f9f9f9; padding: 15px; border-left: 5px solid #0056b3;">
        %s
    </blockquote>
</div>
	`, name, email, message)
}
