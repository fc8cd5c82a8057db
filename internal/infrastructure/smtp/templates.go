package smtp

import "fmt"

// VerificationEmail renders the account-verification message carrying the
// one-time code.
func VerificationEmail(firstName, code string) (subject, body string) {
	subject = "Verify your email address"
	body = fmt.Sprintf(`<!DOCTYPE html>
<html>
  <body style="margin:0;padding:0;background:#f4f4f7;font-family:Arial,Helvetica,sans-serif;">
    <table role="presentation" width="100%%" cellpadding="0" cellspacing="0">
      <tr><td align="center" style="padding:32px 16px;">
        <table role="presentation" width="480" cellpadding="0" cellspacing="0"
               style="background:#ffffff;border-radius:8px;padding:32px;">
          <tr><td style="font-size:20px;font-weight:bold;color:#222;padding-bottom:16px;">
            Hi %s,
          </td></tr>
          <tr><td style="font-size:14px;color:#555;padding-bottom:24px;">
            Use the code below to verify your email address. It expires shortly,
            so enter it soon.
          </td></tr>
          <tr><td align="center" style="padding-bottom:24px;">
            <span style="display:inline-block;font-size:32px;letter-spacing:8px;
                         font-weight:bold;color:#1a73e8;">%s</span>
          </td></tr>
          <tr><td style="font-size:12px;color:#999;">
            If you didn't request this, you can safely ignore this email.
          </td></tr>
        </table>
      </td></tr>
    </table>
  </body>
</html>`, firstName, code)
	return subject, body
}

// RecoveryEmail renders the password-recovery message carrying the
// one-time code.
func RecoveryEmail(firstName, code string) (subject, body string) {
	subject = "Reset your password"
	body = fmt.Sprintf(`<!DOCTYPE html>
<html>
  <body style="margin:0;padding:0;background:#f4f4f7;font-family:Arial,Helvetica,sans-serif;">
    <table role="presentation" width="100%%" cellpadding="0" cellspacing="0">
      <tr><td align="center" style="padding:32px 16px;">
        <table role="presentation" width="480" cellpadding="0" cellspacing="0"
               style="background:#ffffff;border-radius:8px;padding:32px;">
          <tr><td style="font-size:20px;font-weight:bold;color:#222;padding-bottom:16px;">
            Hi %s,
          </td></tr>
          <tr><td style="font-size:14px;color:#555;padding-bottom:24px;">
            We received a request to reset your password. Enter the code below
            to continue.
          </td></tr>
          <tr><td align="center" style="padding-bottom:24px;">
            <span style="display:inline-block;font-size:32px;letter-spacing:8px;
                         font-weight:bold;color:#d93025;">%s</span>
          </td></tr>
          <tr><td style="font-size:12px;color:#999;">
            If you didn't request a password reset, no action is needed.
          </td></tr>
        </table>
      </td></tr>
    </table>
  </body>
</html>`, firstName, code)
	return subject, body
}
