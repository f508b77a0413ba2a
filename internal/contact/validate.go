package contact

import (
	"fmt"
	"regexp"
	"slices"
	"strings"
)

var (
	phoneRe = regexp.MustCompile(`^\(\d{2}\) \d{4,5}-\d{4}$`)
	cnpjRe  = regexp.MustCompile(`^\d{2}\.\d{3}\.\d{3}/\d{4}-\d{2}$`)
	nameRe  = regexp.MustCompile(`^[a-zA-ZÀ-ÿ\x{00C0}-\x{017F}\s]+$`)
	spaceRe = regexp.MustCompile(`\s+`)

	// Injection probes scanned in free-text fields. Matches reject the whole
	// submission without revealing which pattern fired.
	suspiciousRes = []*regexp.Regexp{
		regexp.MustCompile(`(?i)<script`),
		regexp.MustCompile(`(?i)javascript:`),
		regexp.MustCompile(`(?i)vbscript:`),
		regexp.MustCompile(`(?i)on\w+\s*=`),
		regexp.MustCompile(`(?i)<iframe`),
		regexp.MustCompile(`(?i)<object`),
		regexp.MustCompile(`(?i)<embed`),
		regexp.MustCompile(`(?i)data:text/html`),
		regexp.MustCompile(`(?i)eval\s*\(`),
		regexp.MustCompile(`(?i)document\.`),
		regexp.MustCompile(`(?i)window\.`),
	}

	throwawayEmailMarkers = []string{"test", "example", "fake", "spam"}

	// CNPJs rejected outright regardless of checksum.
	blockedCNPJs = []string{
		"00000000000000", "11111111111111", "22222222222222", "33333333333333",
		"44444444444444", "55555555555555", "66666666666666", "77777777777777",
		"88888888888888", "12345678901234",
	}

	// Well-known fixture CNPJs accepted outside production.
	testCNPJs = []string{"99999999999999", "12345678000195", "11222333000181"}
)

// ValidationResult carries the outcome of a full form validation pass.
// Advisories flag oddities worth logging that do not block the submission.
type ValidationResult struct {
	Valid      bool
	Errors     []string
	Advisories []string
}

// Validator checks contact submissions. AcceptTestCNPJs loosens CNPJ
// verification for well-known fixtures and must stay false in production.
type Validator struct {
	AcceptTestCNPJs bool
}

// Normalize trims and canonicalizes a raw submission in place. Runs before
// validation so error messages refer to the cleaned values.
func (v *Validator) Normalize(s *Submission) {
	s.Name = spaceRe.ReplaceAllString(strings.TrimSpace(s.Name), " ")
	s.Email = strings.ToLower(strings.TrimSpace(s.Email))
	s.ServiceOfInterest = strings.TrimSpace(s.ServiceOfInterest)
	s.Phone = strings.TrimSpace(s.Phone)
	s.Company = strings.TrimSpace(s.Company)
	s.CNPJ = strings.TrimSpace(s.CNPJ)
	s.NumberOfEmployees = strings.TrimSpace(s.NumberOfEmployees)
	s.State = strings.ToUpper(strings.TrimSpace(s.State))
	s.City = strings.TrimSpace(s.City)
	s.Message = strings.TrimSpace(s.Message)
}

// Validate runs schema, content-safety and business-rule checks, collecting
// every violation so the form can render all inline errors in one round trip.
func (v *Validator) Validate(s Submission) ValidationResult {
	var errs []string

	errs = append(errs, v.checkName(s.Name)...)
	errs = append(errs, v.checkEmail(s.Email)...)
	errs = append(errs, v.checkService(s.ServiceOfInterest)...)
	errs = append(errs, v.checkPhone(s.Phone)...)
	errs = append(errs, v.checkCompany(s.Company)...)
	errs = append(errs, v.checkCNPJ(s.CNPJ)...)
	errs = append(errs, v.checkState(s.State)...)
	errs = append(errs, v.checkCity(s.City)...)
	errs = append(errs, v.checkMessage(s.Message)...)
	errs = append(errs, v.checkContentSafety(s)...)
	errs = append(errs, v.checkBusinessRules(s)...)

	result := ValidationResult{Valid: len(errs) == 0, Errors: errs}
	for _, marker := range throwawayEmailMarkers {
		if strings.Contains(s.Email, marker) {
			result.Advisories = append(result.Advisories, "Email parece ser de teste ou spam")
			break
		}
	}
	return result
}

func (v *Validator) checkName(name string) []string {
	if name == "" {
		return []string{"Nome é obrigatório"}
	}
	var errs []string
	if len([]rune(name)) < 2 {
		errs = append(errs, "Nome deve ter pelo menos 2 caracteres")
	}
	if len([]rune(name)) > 100 {
		errs = append(errs, "Nome muito longo")
	}
	if !nameRe.MatchString(name) {
		errs = append(errs, "Nome deve conter apenas letras, espaços e acentos")
	}
	if len(strings.Fields(name)) < 2 {
		errs = append(errs, "Digite nome e sobrenome completos")
	}
	return errs
}

func (v *Validator) checkEmail(email string) []string {
	if email == "" {
		return []string{"Email é obrigatório"}
	}
	if len(email) > 254 {
		return []string{"Email muito longo"}
	}
	at := strings.LastIndex(email, "@")
	if at <= 0 || at == len(email)-1 {
		return []string{"Formato de email inválido"}
	}
	domain := email[at+1:]
	if !strings.Contains(domain, ".") ||
		strings.Contains(email, "..") ||
		strings.HasPrefix(email, ".") ||
		strings.HasSuffix(email, ".") ||
		strings.ContainsAny(email, " \t") {
		return []string{"Formato de email inválido"}
	}
	return nil
}

func (v *Validator) checkService(service string) []string {
	if service == "" || !slices.Contains(ValidServices, service) {
		return []string{"Por favor, selecione um serviço de interesse"}
	}
	return nil
}

func (v *Validator) checkPhone(phone string) []string {
	if phone != "" && !phoneRe.MatchString(phone) {
		return []string{"Formato de telefone inválido. Use: (11) 99999-9999"}
	}
	return nil
}

func (v *Validator) checkCompany(company string) []string {
	if company != "" {
		if n := len([]rune(company)); n < 2 || n > 100 {
			return []string{"Nome da empresa deve ter entre 2 e 100 caracteres"}
		}
	}
	return nil
}

func (v *Validator) checkCNPJ(cnpj string) []string {
	if cnpj == "" {
		return nil
	}
	if !cnpjRe.MatchString(cnpj) || !v.validCNPJDigits(cnpj) {
		return []string{"CNPJ inválido. Verifique os dígitos ou deixe em branco se não tiver empresa"}
	}
	return nil
}

func (v *Validator) checkState(state string) []string {
	if state != "" && !slices.Contains(ValidStates, state) {
		return []string{"Estado inválido"}
	}
	return nil
}

func (v *Validator) checkCity(city string) []string {
	if city != "" {
		if n := len([]rune(city)); n < 2 || n > 50 {
			return []string{"Nome da cidade deve ter entre 2 e 50 caracteres"}
		}
	}
	return nil
}

func (v *Validator) checkMessage(message string) []string {
	if message == "" {
		return []string{"Mensagem é obrigatória"}
	}
	var errs []string
	if len([]rune(message)) < 10 {
		errs = append(errs, "Mensagem deve ter pelo menos 10 caracteres")
	}
	if len([]rune(message)) > 1000 {
		errs = append(errs, "Mensagem muito longa (máximo 1000 caracteres)")
	}
	return errs
}

func (v *Validator) checkContentSafety(s Submission) []string {
	fields := []struct{ value, label string }{
		{s.Name, "nome"},
		{s.Company, "empresa"},
		{s.Message, "mensagem"},
		{s.City, "cidade"},
	}
	var errs []string
	for _, f := range fields {
		if f.value != "" && IsSuspicious(f.value) {
			errs = append(errs, fmt.Sprintf("Conteúdo suspeito detectado no campo %s", f.label))
		}
	}
	return errs
}

func (v *Validator) checkBusinessRules(s Submission) []string {
	var errs []string
	if s.CNPJ != "" && s.Company == "" {
		errs = append(errs, "Nome da empresa é obrigatório quando CNPJ é fornecido")
	}
	if s.State != "" && s.City == "" {
		errs = append(errs, "Cidade é obrigatória quando estado é fornecido")
	}
	return errs
}

// IsSuspicious reports whether free text contains a known injection probe.
// Exported for the request-scanning middleware.
func IsSuspicious(content string) bool {
	for _, re := range suspiciousRes {
		if re.MatchString(content) {
			return true
		}
	}
	return false
}

// validCNPJDigits runs the registry checksum over a formatted CNPJ.
func (v *Validator) validCNPJDigits(cnpj string) bool {
	clean := strings.Map(func(r rune) rune {
		if r >= '0' && r <= '9' {
			return r
		}
		return -1
	}, cnpj)
	if len(clean) != 14 {
		return false
	}
	digits := make([]int, 14)
	for i := range clean {
		digits[i] = int(clean[i] - '0')
	}

	allSame := true
	for i := 1; i < len(clean); i++ {
		if clean[i] != clean[0] {
			allSame = false
			break
		}
	}
	if allSame {
		return false
	}

	if v.AcceptTestCNPJs && slices.Contains(testCNPJs, clean) {
		return true
	}
	if slices.Contains(blockedCNPJs, clean) {
		return false
	}

	// First check digit: weights cycle 5..2 then 9..2.
	sum, pos := 0, 5
	for i := 0; i < 12; i++ {
		sum += digits[i] * pos
		pos--
		if pos < 2 {
			pos = 9
		}
	}
	digit := 0
	if sum%11 >= 2 {
		digit = 11 - sum%11
	}
	if digit != digits[12] {
		return false
	}

	// Second check digit: weights cycle 6..2 then 9..2.
	sum, pos = 0, 6
	for i := 0; i < 13; i++ {
		sum += digits[i] * pos
		pos--
		if pos < 2 {
			pos = 9
		}
	}
	digit = 0
	if sum%11 >= 2 {
		digit = 11 - sum%11
	}
	return digit == digits[13]
}
