package services

import (
	"fmt"
	"time"
)

const otpEmailSubject = "Your verification code - Idea Box"

func otpEmail(to, code string, ttl time.Duration) EmailMessage {
	html := fmt.Sprintf(`<div style="font-family: Arial, sans-serif; max-width: 600px; margin: 0 auto;">
  <h2 style="color: #333;">Idea Box</h2>
  <p>Hello,</p>
  <p>Your verification code to submit an idea is:</p>
  <div style="background-color: #f4f4f4; padding: 20px; text-align: center; font-size: 32px; font-weight: bold; letter-spacing: 5px; margin: 20px 0;">%s</div>
  <p style="color: #666; font-size: 14px;">This code expires in %d minutes.</p>
  <p style="color: #666; font-size: 14px;">If you did not request this code, you can ignore this message.</p>
</div>`, code, int(ttl.Minutes()))

	return EmailMessage{To: to, Subject: otpEmailSubject, HTML: html}
}
