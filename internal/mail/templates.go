package mail

import (
	"bytes"
	"fmt"
	"text/template"
	"time"
)

var (
	verificationTmpl = template.Must(template.New("verification").Parse(`Hi {{.Name}},

Thank you for signing up with E-Learning. Please verify your email address using the following one-time passcode:

OTP: {{.Code}}

This code is valid for {{.Minutes}} minutes. If you did not sign up, please ignore this email or contact support.

Best regards,
E-Learning Team`))

	passwordResetTmpl = template.Must(template.New("password_reset").Parse(`Dear {{.Name}},

You requested to reset your password for your E-Learning account. Please use the following one-time passcode (OTP) to proceed:

OTP: {{.Code}}

This code is valid for {{.Minutes}} minutes. If you did not request a password reset, please contact our support team immediately.

Best regards,
E-Learning Team`))

	certificateTmpl = template.Must(template.New("certificate").Parse(`Congratulations, {{.Name}}!

You have successfully completed the course "{{.Course}}".

Certificate type: {{.Type}}
Verification code: {{.Code}}
Issued: {{.Issued}}

Anyone can confirm this certificate with the verification code.

Keep learning and growing!
E-Learning Team`))

	applicationTmpl = template.Must(template.New("application").Parse(`Hi {{.Name}},

The status of your application for "{{.Job}}" is now: {{.Status}}.

Best regards,
E-Learning Team`))

	enrollmentTmpl = template.Must(template.New("enrollment").Parse(`Hi {{.Name}},

You are now enrolled in "{{.Course}}". Happy learning!

Best regards,
E-Learning Team`))
)

func render(t *template.Template, data any) string {
	var buf bytes.Buffer
	if err := t.Execute(&buf, data); err != nil {
		return fmt.Sprintf("%v", data)
	}
	return buf.String()
}

// VerificationMessage carries an account verification passcode
func VerificationMessage(to, name, code string, ttl time.Duration) Message {
	return Message{
		To:      to,
		ToName:  name,
		Subject: "One-Time Passcode for Email Verification",
		Text: render(verificationTmpl, map[string]any{
			"Name": name, "Code": code, "Minutes": int(ttl.Minutes()),
		}),
	}
}

// PasswordResetMessage carries a password reset passcode
func PasswordResetMessage(to, name, code string, ttl time.Duration) Message {
	return Message{
		To:      to,
		ToName:  name,
		Subject: "One-Time Passcode for Password Reset",
		Text: render(passwordResetTmpl, map[string]any{
			"Name": name, "Code": code, "Minutes": int(ttl.Minutes()),
		}),
	}
}

func CertificateIssuedMessage(to, name, course, certType, code string, issued time.Time) Message {
	return Message{
		To:      to,
		ToName:  name,
		Subject: fmt.Sprintf("Congratulations! You've completed %s", course),
		Text: render(certificateTmpl, map[string]any{
			"Name": name, "Course": course, "Type": certType, "Code": code,
			"Issued": issued.Format("2006-01-02"),
		}),
	}
}

func ApplicationStatusMessage(to, name, job, status string) Message {
	return Message{
		To:      to,
		ToName:  name,
		Subject: fmt.Sprintf("Application update: %s", job),
		Text:    render(applicationTmpl, map[string]any{"Name": name, "Job": job, "Status": status}),
	}
}

func EnrollmentMessage(to, name, course string) Message {
	return Message{
		To:      to,
		ToName:  name,
		Subject: fmt.Sprintf("Welcome to %s", course),
		Text:    render(enrollmentTmpl, map[string]any{"Name": name, "Course": course}),
	}
}
