package mailer

import (
	"bytes"
	"fmt"
	"html/template"
	"time"
)

// Template names double as the email_log template column.
const (
	TplAppointmentAdminNew  = "appointment_admin_new"
	TplAppointmentConfirmed = "appointment_confirmed"
	TplAppointmentCancelled = "appointment_cancelled"
	TplAppointmentProposal  = "appointment_reschedule_proposal"
	TplAppointmentReminder  = "appointment_reminder"
	TplQuoteAdminNew        = "quote_admin_new"
	TplQuoteReceived        = "quote_received"
	TplQuoteAccepted        = "quote_accepted"
	TplQuoteRejected        = "quote_rejected"
)

// templateData carries every field any template can reference. Unused fields
// stay zero.
type templateData struct {
	ClientName      string
	ClientEmail     string
	ClientPhone     string
	Reason          string
	Message         string
	ScheduledAt     string
	ProposedAt      string
	AcceptURL       string
	RejectURL       string
	RescheduleURL   string
	ConfirmURL      string
	CancelURL       string
	BackofficeURL   string
	QuoteDocument   string
	QuoteValidUntil string
	RejectionReason string
}

var subjects = map[string]string{
	TplAppointmentAdminNew:  "Nouvelle demande de rendez-vous - %s",
	TplAppointmentConfirmed: "Votre rendez-vous est confirmé",
	TplAppointmentCancelled: "Votre demande de rendez-vous a été annulée",
	TplAppointmentProposal:  "Proposition de nouvelle date pour votre rendez-vous",
	TplAppointmentReminder:  "Rappel : votre rendez-vous approche",
	TplQuoteAdminNew:        "Nouvelle demande de devis - %s",
	TplQuoteReceived:        "Votre demande de devis a bien été reçue",
	TplQuoteAccepted:        "Votre devis est disponible",
	TplQuoteRejected:        "Votre demande de devis n'a pas pu aboutir",
}

var emailTemplates = template.Must(template.New("emails").Parse(`
{{define "layout_top"}}<div style="font-family:Arial,sans-serif;max-width:600px;margin:0 auto;color:#1f2937">
<h2 style="color:#0f766e">SystemsMatic</h2>{{end}}
{{define "layout_bottom"}}<p style="font-size:12px;color:#6b7280;margin-top:24px">SystemsMatic — Climatisation &amp; maintenance, Guadeloupe</p></div>{{end}}

{{define "appointment_admin_new"}}{{template "layout_top"}}
<p>Nouvelle demande de rendez-vous de <strong>{{.ClientName}}</strong> ({{.ClientEmail}}{{if .ClientPhone}}, {{.ClientPhone}}{{end}}).</p>
<p><strong>Motif :</strong> {{.Reason}}</p>
{{if .Message}}<p><strong>Message :</strong> {{.Message}}</p>{{end}}
<p>
<a href="{{.AcceptURL}}" style="background:#0f766e;color:#fff;padding:10px 18px;text-decoration:none;border-radius:4px">Accepter</a>
&nbsp;<a href="{{.RejectURL}}" style="background:#b91c1c;color:#fff;padding:10px 18px;text-decoration:none;border-radius:4px">Refuser</a>
&nbsp;<a href="{{.RescheduleURL}}" style="background:#6b7280;color:#fff;padding:10px 18px;text-decoration:none;border-radius:4px">Proposer une autre date</a>
</p>
{{template "layout_bottom"}}{{end}}

{{define "appointment_confirmed"}}{{template "layout_top"}}
<p>Bonjour {{.ClientName}},</p>
<p>Rendez-vous accepté avec succès.{{if .ScheduledAt}} Votre intervention est planifiée le <strong>{{.ScheduledAt}}</strong>.{{end}}</p>
<p>Nous vous enverrons un rappel la veille de l'intervention.</p>
{{template "layout_bottom"}}{{end}}

{{define "appointment_cancelled"}}{{template "layout_top"}}
<p>Bonjour {{.ClientName}},</p>
<p>Votre demande de rendez-vous a été annulée. N'hésitez pas à soumettre une nouvelle demande.</p>
{{template "layout_bottom"}}{{end}}

{{define "appointment_reschedule_proposal"}}{{template "layout_top"}}
<p>Bonjour {{.ClientName}},</p>
<p>Nous vous proposons une nouvelle date pour votre rendez-vous : <strong>{{.ProposedAt}}</strong>.</p>
<p>
<a href="{{.ConfirmURL}}" style="background:#0f766e;color:#fff;padding:10px 18px;text-decoration:none;border-radius:4px">Confirmer cette date</a>
&nbsp;<a href="{{.CancelURL}}" style="background:#b91c1c;color:#fff;padding:10px 18px;text-decoration:none;border-radius:4px">Annuler le rendez-vous</a>
</p>
{{template "layout_bottom"}}{{end}}

{{define "appointment_reminder"}}{{template "layout_top"}}
<p>Bonjour {{.ClientName}},</p>
<p>Petit rappel : votre rendez-vous est prévu le <strong>{{.ScheduledAt}}</strong>.</p>
<p>En cas d'empêchement, contactez-nous au plus vite.</p>
{{template "layout_bottom"}}{{end}}

{{define "quote_admin_new"}}{{template "layout_top"}}
<p>Nouvelle demande de devis de <strong>{{.ClientName}}</strong> ({{.ClientEmail}}{{if .ClientPhone}}, {{.ClientPhone}}{{end}}).</p>
<p><strong>Projet :</strong> {{.Message}}</p>
<p>
<a href="{{.AcceptURL}}" style="background:#0f766e;color:#fff;padding:10px 18px;text-decoration:none;border-radius:4px">Accepter</a>
&nbsp;<a href="{{.RejectURL}}" style="background:#b91c1c;color:#fff;padding:10px 18px;text-decoration:none;border-radius:4px">Refuser</a>
</p>
{{if .BackofficeURL}}<p><a href="{{.BackofficeURL}}">Ouvrir dans le backoffice</a></p>{{end}}
{{template "layout_bottom"}}{{end}}

{{define "quote_received"}}{{template "layout_top"}}
<p>Bonjour {{.ClientName}},</p>
<p>Nous avons bien reçu votre demande de devis. Notre équipe l'étudie et revient vers vous sous 48h ouvrées.</p>
{{template "layout_bottom"}}{{end}}

{{define "quote_accepted"}}{{template "layout_top"}}
<p>Bonjour {{.ClientName}},</p>
<p>Bonne nouvelle : votre devis est prêt.{{if .QuoteDocument}} Vous pouvez le consulter ici : <a href="{{.QuoteDocument}}">votre devis</a>.{{end}}</p>
{{if .QuoteValidUntil}}<p>Ce devis est valable jusqu'au <strong>{{.QuoteValidUntil}}</strong>.</p>{{end}}
{{template "layout_bottom"}}{{end}}

{{define "quote_rejected"}}{{template "layout_top"}}
<p>Bonjour {{.ClientName}},</p>
<p>Nous ne sommes malheureusement pas en mesure de donner suite à votre demande de devis.</p>
{{if .RejectionReason}}<p><strong>Motif :</strong> {{.RejectionReason}}</p>{{end}}
{{template "layout_bottom"}}{{end}}
`))

// render executes the named template against data.
func render(name string, data templateData) (string, error) {
	var buf bytes.Buffer
	if err := emailTemplates.ExecuteTemplate(&buf, name, data); err != nil {
		return "", fmt.Errorf("mailer: render %s: %w", name, err)
	}
	return buf.String(), nil
}

// guadeloupe is the display timezone for every date in an email.
var guadeloupe = mustLoadLocation("America/Guadeloupe")

func mustLoadLocation(name string) *time.Location {
	loc, err := time.LoadLocation(name)
	if err != nil {
		return time.UTC
	}
	return loc
}

var frenchMonths = [...]string{
	"janvier", "février", "mars", "avril", "mai", "juin",
	"juillet", "août", "septembre", "octobre", "novembre", "décembre",
}

var frenchDays = [...]string{
	"dimanche", "lundi", "mardi", "mercredi", "jeudi", "vendredi", "samedi",
}

// formatDateTime renders t as e.g. "mardi 3 mars 2026 à 14h30" in local time.
func formatDateTime(t time.Time) string {
	t = t.In(guadeloupe)
	return fmt.Sprintf("%s %d %s %d à %02dh%02d",
		frenchDays[t.Weekday()], t.Day(), frenchMonths[t.Month()-1], t.Year(), t.Hour(), t.Minute())
}

// formatDate renders t as e.g. "3 mars 2026" in local time.
func formatDate(t time.Time) string {
	t = t.In(guadeloupe)
	return fmt.Sprintf("%d %s %d", t.Day(), frenchMonths[t.Month()-1], t.Year())
}
