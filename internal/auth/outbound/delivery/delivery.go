// Package delivery dispatches one-time passcodes to users. Delivery is the
// one hard dependency of issuance: a code the user never receives makes the
// whole challenge pointless.
package delivery

import (
	"bytes"
	"context"
	"fmt"
	"html/template"

	"github.com/danupratama/authgate/internal/auth/usecase"
	"github.com/danupratama/authgate/internal/pkg/instrument"
	"github.com/danupratama/authgate/internal/pkg/mail"
	"go.opentelemetry.io/otel/codes"
)

const passcodeSubject = "Your sign-in code"

const passcodeBody = `<html>
<body style="font-family: sans-serif;">
  <p>Use this code to sign in:</p>
  <p style="font-size: 28px; letter-spacing: 6px; font-weight: bold;">{{.code}}</p>
  <p>The code expires in {{.valid_minutes}} minutes. If you did not request it, you can ignore this email.</p>
</body>
</html>`

type Email struct {
	client mail.Mail
	tpl    *template.Template
	ins    instrument.Instrumentation
}

func NewEmail(client mail.Mail, ins instrument.Instrumentation) *Email {
	return &Email{
		client: client,
		tpl:    template.Must(template.New("passcode").Option("missingkey=zero").Parse(passcodeBody)),
		ins:    ins,
	}
}

// SendPasscode renders and sends the passcode email. Any failure is returned
// to the caller, which must treat it as a hard issuance failure.
func (m *Email) SendPasscode(ctx context.Context, in usecase.PasscodeDelivery) error {
	ctx, span := m.ins.Tracer("auth.outbound.delivery").Start(ctx, "SendPasscode")
	defer span.End()

	var buf bytes.Buffer
	if err := m.tpl.Execute(&buf, map[string]any{
		"code":          in.Code,
		"valid_minutes": in.ValidMinutes,
	}); err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		return fmt.Errorf("render passcode email: %w", err)
	}

	if err := m.client.Send(ctx, mail.Message{
		To:       []string{in.To},
		Subject:  passcodeSubject,
		HTMLBody: buf.String(),
	}); err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		return err
	}

	return nil
}
