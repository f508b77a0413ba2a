package notify

import (
	"fmt"
	"html/template"
	"strings"
	"time"

	"github.com/alltechdigital/leads-api/internal/leads"
)

// Template data shared by both notification emails.
type templateData struct {
	LeadID       string
	Name         string
	FirstName    string
	Email        string
	Phone        string
	PhoneDigits  string
	Company      string
	Employees    string
	Location     string
	Service      string
	ServiceIcon  string
	Message      string
	Profile      string
	Rep          leads.SalesRepresentative
	SubmittedAt  string
	WhatsAppLink string
}

var emailStyles = template.HTML(`<style>
  body { font-family: -apple-system, 'Segoe UI', Roboto, sans-serif; line-height: 1.6; color: #374151; background: #f9fafb; margin: 0; }
  .container { max-width: 600px; margin: 0 auto; background: #ffffff; }
  .header { background: linear-gradient(135deg, #06b6d4 0%, #1e40af 50%, #7c3aed 100%); padding: 24px; text-align: center; color: #1f2937; }
  .header-logo { font-size: 24px; font-weight: bold; }
  .content { padding: 40px 32px; }
  .greeting { font-size: 28px; font-weight: bold; color: #1f2937; }
  .highlight { color: #06b6d4; font-weight: 600; }
  .info-section { background: #f8fafc; border-left: 4px solid #06b6d4; padding: 20px; margin: 24px 0; }
  .info-label { font-weight: 600; color: #374151; display: inline-block; min-width: 100px; }
  .message-box { background: #f3f4f6; padding: 20px; border-left: 4px solid #fbbf24; margin: 24px 0; font-style: italic; }
  .button { display: inline-block; background: #06b6d4; color: white; padding: 12px 24px; border-radius: 8px; text-decoration: none; font-weight: 600; margin: 8px 8px 8px 0; }
  .footer { background: #f9fafb; padding: 24px; text-align: center; border-top: 1px solid #e5e7eb; font-size: 14px; color: #6b7280; }
  .footer-brand { font-weight: 600; color: #06b6d4; }
</style>`)

var salesAlertHTML = template.Must(template.New("sales_alert").Parse(`<!DOCTYPE html>
<html lang="pt-BR">
<head><meta charset="utf-8"><title>Novo Lead - AllTech Digital</title>{{.Styles}}</head>
<body>
<div class="container">
  <div class="header"><div class="header-logo">AllTech Digital</div><div>Sistema de Leads</div></div>
  <div class="content">
    <h1 class="greeting">Novo Lead Recebido!</h1>
    <p>Você tem um novo lead interessado em <span class="highlight">{{.Data.Service}}</span>.</p>
    <div class="info-section">
      <h3>📋 Informações do Lead</h3>
      <div><span class="info-label">Nome:</span> {{.Data.Name}}</div>
      <div><span class="info-label">Empresa:</span> {{.Data.Company}}</div>
      <div><span class="info-label">Email:</span> <a href="mailto:{{.Data.Email}}">{{.Data.Email}}</a></div>
      {{if .Data.Phone}}<div><span class="info-label">Telefone:</span> {{.Data.Phone}}</div>{{end}}
      {{if .Data.Location}}<div><span class="info-label">Local:</span> {{.Data.Location}}</div>{{end}}
      <div><span class="info-label">Serviço:</span> {{.Data.ServiceIcon}} {{.Data.Service}}</div>
      {{if .Data.Employees}}<div><span class="info-label">Funcionários:</span> {{.Data.Employees}}</div>{{end}}
      <div><span class="info-label">Lead ID:</span> {{.Data.LeadID}}</div>
    </div>
    <div class="message-box"><strong>💬 Mensagem do cliente:</strong><br>{{.Data.Message}}</div>
    <p>Próximas ações recomendadas:</p>
    <a href="mailto:{{.Data.Email}}" class="button">📧 Responder por Email</a>
    {{if .Data.WhatsAppLink}}<a href="{{.Data.WhatsAppLink}}" class="button">💬 WhatsApp</a>{{end}}
    <div class="info-section">
      <h3>💡 Perfil do Lead</h3>
      <div><span class="info-label">Categoria:</span> {{.Data.Profile}}</div>
      <div><span class="info-label">Origem:</span> Formulário de contato do site</div>
      <div><span class="info-label">Data:</span> {{.Data.SubmittedAt}}</div>
    </div>
  </div>
  <div class="footer"><span class="footer-brand">AllTech Digital</span> - Inovação que respeita e conecta<br>Este email foi gerado automaticamente pelo sistema</div>
</div>
</body>
</html>`))

var clientConfirmationHTML = template.Must(template.New("client_confirmation").Parse(`<!DOCTYPE html>
<html lang="pt-BR">
<head><meta charset="utf-8"><title>Obrigado pelo contato - AllTech Digital</title>{{.Styles}}</head>
<body>
<div class="container">
  <div class="header"><div class="header-logo">✅ AllTech Digital</div><div>Confirmação de Contato</div></div>
  <div class="content">
    <h1 class="greeting">Olá, {{.Data.FirstName}}!</h1>
    <p>Obrigado por entrar em contato sobre <span class="highlight">{{.Data.Service}}</span>.</p>
    <p>Sua mensagem foi recebida e direcionada para nossa equipe especializada. Em breve você receberá uma resposta detalhada.</p>
    <div class="info-section">
      <h3>🎯 Próximos Passos</h3>
      <div>• Análise do seu perfil</div>
      <div>• Contato em até 24 horas</div>
      <div>• Diagnóstico gratuito da infraestrutura</div>
      <div>• Proposta personalizada com cronograma e valores</div>
    </div>
    <div class="info-section">
      <h3>👤 Seu consultor responsável</h3>
      <div><span class="info-label">Nome:</span> {{.Data.Rep.Name}}</div>
      <div><span class="info-label">Email:</span> <a href="mailto:{{.Data.Rep.Email}}">{{.Data.Rep.Email}}</a></div>
      <div><span class="info-label">Região:</span> {{.Data.Rep.Region}}</div>
    </div>
    <div class="info-section">
      <h3>🎯 O que esperar da AllTech Digital</h3>
      <div>• Metodologia PDCA para migração segura</div>
      <div>• Preservação de 100% dos seus dados</div>
      <div>• Suporte completo durante todo o processo</div>
      <div>• Equipe certificada Microsoft</div>
      <div>• Zero downtime durante a migração</div>
    </div>
    <p>Enquanto isso, fique à vontade para entrar em contato conosco pelo WhatsApp <a href="https://wa.me/5512992367544">(12) 99236-7544</a> se tiver alguma dúvida urgente.</p>
  </div>
  <div class="footer"><span class="footer-brand">AllTech Digital</span> - Inovação que respeita e conecta<br>Este email foi enviado automaticamente em resposta ao seu contato</div>
</div>
</body>
</html>`))

// RenderSalesAlert builds the new-lead email sent to the assigned
// representative.
func RenderSalesAlert(p leads.NotificationPayload, now time.Time) (EmailMessage, error) {
	data := buildTemplateData(p, now)

	var html strings.Builder
	err := salesAlertHTML.Execute(&html, struct {
		Styles template.HTML
		Data   templateData
	}{emailStyles, data})
	if err != nil {
		return EmailMessage{}, fmt.Errorf("notify: render sales alert: %w", err)
	}

	var text strings.Builder
	fmt.Fprintf(&text, "🚀 NOVO LEAD RECEBIDO - AllTech Digital\n\n")
	fmt.Fprintf(&text, "👤 %s (%s)\n", data.Name, data.Company)
	fmt.Fprintf(&text, "🆔 Lead ID: %s\n\n", data.LeadID)
	fmt.Fprintf(&text, "📧 Email: %s\n", data.Email)
	if data.Phone != "" {
		fmt.Fprintf(&text, "📱 Telefone: %s\n", data.Phone)
	}
	if data.Location != "" {
		fmt.Fprintf(&text, "📍 Local: %s\n", data.Location)
	}
	fmt.Fprintf(&text, "🎯 Serviço: %s\n", data.Service)
	if data.Employees != "" {
		fmt.Fprintf(&text, "👥 Funcionários: %s\n", data.Employees)
	}
	fmt.Fprintf(&text, "\n💬 MENSAGEM:\n%s\n\n", data.Message)
	fmt.Fprintf(&text, "💡 PERFIL: %s\n", data.Profile)
	fmt.Fprintf(&text, "📅 DATA: %s\n", data.SubmittedAt)

	return EmailMessage{
		To:      p.Rep.Email,
		ToName:  p.Rep.Name,
		Subject: fmt.Sprintf("🚀 Novo Lead: %s - %s", data.Name, data.Company),
		ReplyTo: p.Submission.Email,
		Body:    text.String(),
		HTML:    html.String(),
	}, nil
}

// RenderClientConfirmation builds the thank-you email sent back to the
// submitter.
func RenderClientConfirmation(p leads.NotificationPayload, now time.Time) (EmailMessage, error) {
	data := buildTemplateData(p, now)

	var html strings.Builder
	err := clientConfirmationHTML.Execute(&html, struct {
		Styles template.HTML
		Data   templateData
	}{emailStyles, data})
	if err != nil {
		return EmailMessage{}, fmt.Errorf("notify: render client confirmation: %w", err)
	}

	var text strings.Builder
	fmt.Fprintf(&text, "✅ MENSAGEM RECEBIDA - AllTech Digital\n\n")
	fmt.Fprintf(&text, "Olá %s!\n\n", data.FirstName)
	fmt.Fprintf(&text, "Obrigado por entrar em contato sobre %s.\n\n", data.Service)
	text.WriteString("🎯 PRÓXIMOS PASSOS:\n1. ✅ Análise do seu perfil\n2. 📞 Contato em até 24 horas\n3. 🎁 Diagnóstico gratuito\n4. 📋 Proposta personalizada\n\n")
	fmt.Fprintf(&text, "👤 SEU CONSULTOR:\n%s\n📧 %s\n🌎 %s\n\n", p.Rep.Name, p.Rep.Email, p.Rep.Region)
	text.WriteString("📱 WhatsApp: (12) 99236-7544\n")

	return EmailMessage{
		To:      p.Submission.Email,
		ToName:  p.Submission.Name,
		Subject: fmt.Sprintf("✅ Obrigado pelo contato, %s! - AllTech Digital", data.FirstName),
		Body:    text.String(),
		HTML:    html.String(),
	}, nil
}

func buildTemplateData(p leads.NotificationPayload, now time.Time) templateData {
	s := p.Submission

	company := s.Company
	if company == "" {
		company = "Pessoa Física"
	}
	service := s.ServiceOfInterest
	if service == "" {
		service = "nossas soluções Microsoft"
	}

	var location string
	switch {
	case s.City != "" && s.State != "":
		location = s.City + ", " + s.State
	case s.City != "":
		location = s.City
	case s.State != "":
		location = s.State
	}

	digits := strings.Map(func(r rune) rune {
		if r >= '0' && r <= '9' {
			return r
		}
		return -1
	}, s.Phone)
	var whatsapp string
	if digits != "" {
		whatsapp = "https://wa.me/55" + digits
	}

	return templateData{
		LeadID:       p.LeadID,
		Name:         s.Name,
		FirstName:    firstName(s.Name),
		Email:        s.Email,
		Phone:        s.Phone,
		PhoneDigits:  digits,
		Company:      company,
		Employees:    s.NumberOfEmployees,
		Location:     location,
		Service:      service,
		ServiceIcon:  serviceIcon(s.ServiceOfInterest),
		Message:      s.Message,
		Profile:      leadProfile(s),
		Rep:          p.Rep,
		SubmittedAt:  now.Format("02/01/2006 15:04"),
		WhatsAppLink: whatsapp,
	}
}

func firstName(name string) string {
	if fields := strings.Fields(name); len(fields) > 0 {
		return fields[0]
	}
	return name
}

func serviceIcon(service string) string {
	switch service {
	case "Migração para Microsoft 365":
		return "🔄"
	case "Treinamentos Microsoft":
		return "🎓"
	case "Consultoria em Cloud":
		return "☁️"
	case "Automação de Processos":
		return "🤖"
	case "Diagnóstico Gratuito":
		return "🔍"
	default:
		return "💼"
	}
}

// leadProfile categorizes the lead by company size for the rep's first read.
func leadProfile(s leads.CreateLeadParams) string {
	if s.Company == "" {
		return "Pessoa Física"
	}
	switch s.NumberOfEmployees {
	case "1-10":
		return "Micro empresa"
	case "11-50":
		return "Pequena empresa"
	case "51-100":
		return "Média empresa"
	case "101-500":
		return "Grande empresa"
	case "500+":
		return "Enterprise"
	default:
		return "Empresa"
	}
}
