package notify

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/classifieds-api/internal/infrastructure/smtp"
	"github.com/classifieds-api/internal/infrastructure/sns"
)

const deliveryTimeout = 30 * time.Second

// Dispatcher delivers verification codes out-of-band. DispatchCode returns
// immediately; delivery happens on its own goroutine and failures are logged,
// never propagated — signup must not block on or roll back for a transport.
type Dispatcher struct {
	mailer smtp.Mailer
	sms    sns.SMSSender // nil disables the SMS channel
}

func NewDispatcher(mailer smtp.Mailer, sms sns.SMSSender) *Dispatcher {
	return &Dispatcher{mailer: mailer, sms: sms}
}

func (d *Dispatcher) DispatchCode(verificationCode, email string, phone *string) {
	go d.deliver(verificationCode, email, phone)
}

func (d *Dispatcher) deliver(verificationCode, email string, phone *string) {
	body := fmt.Sprintf("Your verification code is %s. Enter it to activate your account.", verificationCode)

	if err := d.mailer.SendEmail(email, "Verify your account", body); err != nil {
		slog.Warn("verification email not delivered", "email", email, "err", err)
	}

	if phone == nil || d.sms == nil {
		return
	}
	ctx, cancel := context.WithTimeout(context.Background(), deliveryTimeout)
	defer cancel()
	if err := d.sms.SendSMS(ctx, *phone, body); err != nil {
		slog.Warn("verification SMS not delivered", "err", err)
	}
}
