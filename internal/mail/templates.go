// Nazca360 - Immersive VR Experience Platform
// Copyright 2026 Nazca360 SAC
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/nazca360/nazca360

package mail

import (
	"fmt"
	"html/template"
	"strings"

	qrcode "github.com/skip2/go-qrcode"
)

// Template identifiers. Used as the Message.Template metrics label.
const (
	TemplateVerification        = "verification"
	TemplatePasswordReset       = "password_reset"
	TemplateWelcome             = "welcome"
	TemplateSubscriptionReceipt = "subscription_receipt"
	TemplateReservationQR       = "reservation_qr"
	TemplateReservationExpired  = "reservation_expired"
)

// qrImageSize is the edge length in pixels of the embedded QR PNG.
const qrImageSize = 256

// layoutHTML wraps every transactional mail in the shared branding shell.
const layoutHTML = `<!DOCTYPE html>
<html lang="es">
<head><meta charset="UTF-8"></head>
<body style="margin:0;padding:0;background:#f4f1ea;font-family:Helvetica,Arial,sans-serif;">
<table role="presentation" width="100%" cellpadding="0" cellspacing="0">
<tr><td align="center" style="padding:24px;">
<table role="presentation" width="560" cellpadding="0" cellspacing="0" style="background:#ffffff;border-radius:8px;overflow:hidden;">
<tr><td style="background:#1a1423;padding:20px 32px;">
<span style="color:#e8c468;font-size:22px;font-weight:bold;">Nazca360</span>
<span style="color:#9b8fb0;font-size:13px;"> · Experiencias VR</span>
</td></tr>
<tr><td style="padding:32px;color:#2d2438;font-size:15px;line-height:1.6;">
{{.Body}}
</td></tr>
<tr><td style="padding:20px 32px;background:#f4f1ea;color:#8a8191;font-size:12px;">
Nazca360 SAC · Av. Larco 812, Miraflores, Lima, Perú<br>
Este es un mensaje automático, por favor no respondas a este correo.
</td></tr>
</table>
</td></tr>
</table>
</body>
</html>`

var layoutTmpl = template.Must(template.New("layout").Parse(layoutHTML))

// renderLayout places an already-escaped body fragment inside the shell.
func renderLayout(body string) (string, error) {
	var sb strings.Builder
	data := struct{ Body template.HTML }{Body: template.HTML(body)} //nolint:gosec // Body fragments are rendered from trusted templates below
	if err := layoutTmpl.Execute(&sb, data); err != nil {
		return "", fmt.Errorf("failed to render mail layout: %w", err)
	}
	return sb.String(), nil
}

// renderFragment executes a body template with the given data.
func renderFragment(name, text string, data interface{}) (string, error) {
	tmpl, err := template.New(name).Parse(text)
	if err != nil {
		return "", fmt.Errorf("failed to parse template %s: %w", name, err)
	}
	var sb strings.Builder
	if err := tmpl.Execute(&sb, data); err != nil {
		return "", fmt.Errorf("failed to render template %s: %w", name, err)
	}
	return sb.String(), nil
}

func buttonHTML(url, label string) string {
	return fmt.Sprintf(`<table role="presentation" cellpadding="0" cellspacing="0" style="margin:24px 0;"><tr><td style="background:#c2403a;border-radius:6px;"><a href="%s" style="display:inline-block;padding:12px 28px;color:#ffffff;text-decoration:none;font-weight:bold;">%s</a></td></tr></table>`, template.HTMLEscapeString(url), template.HTMLEscapeString(label))
}

const verificationBody = `<h2 style="margin-top:0;">Hola {{.Name}},</h2>
<p>Gracias por registrarte en Nazca360. Para activar tu cuenta, confirma tu dirección de correo haciendo clic en el botón:</p>
{{.Button}}
<p>El enlace es válido por {{.TTL}}. Si no creaste esta cuenta, puedes ignorar este mensaje.</p>`

// NewVerificationMessage builds the account verification mail.
func NewVerificationMessage(to, name, verifyURL, ttl string) (*Message, error) {
	body, err := renderFragment(TemplateVerification, verificationBody, struct {
		Name   string
		Button template.HTML
		TTL    string
	}{name, template.HTML(buttonHTML(verifyURL, "Verificar mi correo")), ttl}) //nolint:gosec // buttonHTML escapes its inputs
	if err != nil {
		return nil, err
	}
	html, err := renderLayout(body)
	if err != nil {
		return nil, err
	}
	return &Message{
		To:       to,
		ToName:   name,
		Subject:  "Verifica tu cuenta de Nazca360",
		HTML:     html,
		Text:     fmt.Sprintf("Hola %s,\n\nConfirma tu correo visitando: %s\n\nEl enlace es válido por %s.", name, verifyURL, ttl),
		Template: TemplateVerification,
	}, nil
}

const passwordResetBody = `<h2 style="margin-top:0;">Hola {{.Name}},</h2>
<p>Recibimos una solicitud para restablecer tu contraseña. Haz clic en el botón para elegir una nueva:</p>
{{.Button}}
<p>El enlace es válido por {{.TTL}}. Si no solicitaste este cambio, tu contraseña sigue siendo la misma y puedes ignorar este mensaje.</p>`

// NewPasswordResetMessage builds the password reset mail.
func NewPasswordResetMessage(to, name, resetURL, ttl string) (*Message, error) {
	body, err := renderFragment(TemplatePasswordReset, passwordResetBody, struct {
		Name   string
		Button template.HTML
		TTL    string
	}{name, template.HTML(buttonHTML(resetURL, "Restablecer contraseña")), ttl}) //nolint:gosec // buttonHTML escapes its inputs
	if err != nil {
		return nil, err
	}
	html, err := renderLayout(body)
	if err != nil {
		return nil, err
	}
	return &Message{
		To:       to,
		ToName:   name,
		Subject:  "Restablece tu contraseña de Nazca360",
		HTML:     html,
		Text:     fmt.Sprintf("Hola %s,\n\nRestablece tu contraseña visitando: %s\n\nEl enlace es válido por %s.", name, resetURL, ttl),
		Template: TemplatePasswordReset,
	}, nil
}

const welcomeBody = `<h2 style="margin-top:0;">¡Bienvenido, {{.Name}}!</h2>
<p>Tu cuenta en Nazca360 está lista. Ya puedes explorar nuestro catálogo de videos 360° y reservar tu próxima sesión en cabina VR.</p>
{{.Button}}
<p>Nos vemos pronto en las Líneas de Nazca.</p>`

// NewWelcomeMessage builds the post-registration welcome mail.
func NewWelcomeMessage(to, name, siteURL string) (*Message, error) {
	body, err := renderFragment(TemplateWelcome, welcomeBody, struct {
		Name   string
		Button template.HTML
	}{name, template.HTML(buttonHTML(siteURL, "Explorar el catálogo"))}) //nolint:gosec // buttonHTML escapes its inputs
	if err != nil {
		return nil, err
	}
	html, err := renderLayout(body)
	if err != nil {
		return nil, err
	}
	return &Message{
		To:       to,
		ToName:   name,
		Subject:  "Bienvenido a Nazca360",
		HTML:     html,
		Text:     fmt.Sprintf("¡Bienvenido, %s!\n\nTu cuenta en Nazca360 está lista: %s", name, siteURL),
		Template: TemplateWelcome,
	}, nil
}

const subscriptionReceiptBody = `<h2 style="margin-top:0;">Hola {{.Name}},</h2>
<p>Tu pago fue procesado con éxito. Detalles de tu suscripción:</p>
<table role="presentation" cellpadding="6" cellspacing="0" style="border-collapse:collapse;margin:16px 0;">
<tr><td style="color:#8a8191;">Plan</td><td style="font-weight:bold;">{{.Plan}}</td></tr>
<tr><td style="color:#8a8191;">Monto</td><td style="font-weight:bold;">{{.Amount}}</td></tr>
<tr><td style="color:#8a8191;">Válida hasta</td><td style="font-weight:bold;">{{.ExpiresAt}}</td></tr>
</table>
<p>Con tu suscripción activa tienes acceso a todo el contenido premium del catálogo.</p>`

// NewSubscriptionReceiptMessage builds the payment receipt mail for an
// activated subscription. Amount is pre-formatted (e.g. "S/ 49.90 PEN").
func NewSubscriptionReceiptMessage(to, name, plan, amount, expiresAt string) (*Message, error) {
	body, err := renderFragment(TemplateSubscriptionReceipt, subscriptionReceiptBody, struct {
		Name, Plan, Amount, ExpiresAt string
	}{name, plan, amount, expiresAt})
	if err != nil {
		return nil, err
	}
	html, err := renderLayout(body)
	if err != nil {
		return nil, err
	}
	return &Message{
		To:       to,
		ToName:   name,
		Subject:  "Tu suscripción a Nazca360 está activa",
		HTML:     html,
		Text:     fmt.Sprintf("Hola %s,\n\nTu pago fue procesado. Plan: %s, monto: %s, válida hasta: %s.", name, plan, amount, expiresAt),
		Template: TemplateSubscriptionReceipt,
	}, nil
}

const reservationQRBody = `<h2 style="margin-top:0;">Hola {{.Name}},</h2>
<p>Tu reserva de cabina VR está confirmada. Presenta este código QR al llegar:</p>
<p style="text-align:center;margin:24px 0;"><img src="cid:{{.QRFilename}}" width="200" height="200" alt="{{.QRCode}}" style="border:8px solid #f4f1ea;border-radius:8px;"></p>
<p style="text-align:center;font-size:18px;font-weight:bold;letter-spacing:2px;">{{.QRCode}}</p>
<table role="presentation" cellpadding="6" cellspacing="0" style="border-collapse:collapse;margin:16px 0;">
<tr><td style="color:#8a8191;">Fecha</td><td style="font-weight:bold;">{{.Date}}</td></tr>
<tr><td style="color:#8a8191;">Horario</td><td style="font-weight:bold;">{{.StartTime}} – {{.EndTime}}</td></tr>
<tr><td style="color:#8a8191;">Cabina</td><td style="font-weight:bold;">{{.Cabin}}</td></tr>
</table>
<p>Te recomendamos llegar 10 minutos antes de tu sesión.</p>`

// NewReservationQRMessage builds the reservation confirmation mail with the
// entry QR code embedded as an inline PNG.
func NewReservationQRMessage(to, name, qrCode, date, startTime, endTime string, cabin int) (*Message, error) {
	png, err := qrcode.Encode(qrCode, qrcode.Medium, qrImageSize)
	if err != nil {
		return nil, fmt.Errorf("failed to encode QR code: %w", err)
	}
	const qrFilename = "reserva-qr.png"

	body, err := renderFragment(TemplateReservationQR, reservationQRBody, struct {
		Name, QRFilename, QRCode, Date, StartTime, EndTime string
		Cabin                                              int
	}{name, qrFilename, qrCode, date, startTime, endTime, cabin})
	if err != nil {
		return nil, err
	}
	html, err := renderLayout(body)
	if err != nil {
		return nil, err
	}
	return &Message{
		To:       to,
		ToName:   name,
		Subject:  fmt.Sprintf("Reserva confirmada: %s %s", date, startTime),
		HTML:     html,
		Text:     fmt.Sprintf("Hola %s,\n\nTu reserva está confirmada.\nCódigo: %s\nFecha: %s\nHorario: %s – %s\nCabina: %d", name, qrCode, date, startTime, endTime, cabin),
		Template: TemplateReservationQR,
		Inline: []Attachment{{
			Filename:    qrFilename,
			ContentType: "image/png",
			Data:        png,
		}},
	}, nil
}

const reservationExpiredBody = `<h2 style="margin-top:0;">Hola {{.Name}},</h2>
<p>Tu reserva del {{.Date}} a las {{.StartTime}} expiró porque no se completó el pago dentro del tiempo de espera.</p>
<p>El horario quedó liberado, pero puedes reservar de nuevo cuando quieras:</p>
{{.Button}}`

// NewReservationExpiredMessage builds the hold-expiry notice mail.
func NewReservationExpiredMessage(to, name, date, startTime, bookingURL string) (*Message, error) {
	body, err := renderFragment(TemplateReservationExpired, reservationExpiredBody, struct {
		Name, Date, StartTime string
		Button                template.HTML
	}{name, date, startTime, template.HTML(buttonHTML(bookingURL, "Reservar otra sesión"))}) //nolint:gosec // buttonHTML escapes its inputs
	if err != nil {
		return nil, err
	}
	html, err := renderLayout(body)
	if err != nil {
		return nil, err
	}
	return &Message{
		To:       to,
		ToName:   name,
		Subject:  "Tu reserva en Nazca360 expiró",
		HTML:     html,
		Text:     fmt.Sprintf("Hola %s,\n\nTu reserva del %s a las %s expiró por falta de pago. Puedes reservar de nuevo en: %s", name, date, startTime, bookingURL),
		Template: TemplateReservationExpired,
	}, nil
}
