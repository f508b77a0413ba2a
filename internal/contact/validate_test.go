package contact

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func validSubmission() Submission {
	return Submission{
		Name:              "Maria Silva",
		Email:             "maria@exemplo.com",
		ServiceOfInterest: "Diagnóstico Gratuito",
		Message:           "Gostaria de agendar uma avaliação gratuita.",
	}
}

func TestValidateAcceptsMinimalSubmission(t *testing.T) {
	v := &Validator{}
	res := v.Validate(validSubmission())
	assert.True(t, res.Valid)
	assert.Empty(t, res.Errors)
}

func TestValidateAcceptsFullSubmission(t *testing.T) {
	v := &Validator{}
	s := validSubmission()
	s.Phone = "(11) 99999-9999"
	s.Company = "Acme Tecnologia"
	s.CNPJ = "11.444.777/0001-61"
	s.NumberOfEmployees = "10-50"
	s.State = "SP"
	s.City = "São Paulo"

	res := v.Validate(s)
	assert.True(t, res.Valid, "errors: %v", res.Errors)
}

func TestNormalizeCanonicalizesFields(t *testing.T) {
	v := &Validator{}
	s := Submission{
		Name:  "  Maria    Silva  ",
		Email: " MARIA@Exemplo.COM ",
		State: " sp ",
	}
	v.Normalize(&s)
	assert.Equal(t, "Maria Silva", s.Name)
	assert.Equal(t, "maria@exemplo.com", s.Email)
	assert.Equal(t, "SP", s.State)
}

func TestValidateCollectsAllErrors(t *testing.T) {
	v := &Validator{}
	res := v.Validate(Submission{})

	require.False(t, res.Valid)
	assert.Contains(t, res.Errors, "Nome é obrigatório")
	assert.Contains(t, res.Errors, "Email é obrigatório")
	assert.Contains(t, res.Errors, "Por favor, selecione um serviço de interesse")
	assert.Contains(t, res.Errors, "Mensagem é obrigatória")
}

func TestValidateName(t *testing.T) {
	v := &Validator{}

	s := validSubmission()
	s.Name = "Maria"
	res := v.Validate(s)
	assert.Contains(t, res.Errors, "Digite nome e sobrenome completos")

	s.Name = "Maria123 Silva"
	res = v.Validate(s)
	assert.Contains(t, res.Errors, "Nome deve conter apenas letras, espaços e acentos")

	s.Name = "João Gonçalves"
	res = v.Validate(s)
	assert.True(t, res.Valid, "accented names must pass: %v", res.Errors)
}

func TestValidateEmail(t *testing.T) {
	v := &Validator{}
	bad := []string{
		"not-an-email",
		"a@b",
		"a..b@exemplo.com",
		".maria@exemplo.com",
		"maria@exemplo.com.",
		"maria silva@exemplo.com",
	}
	for _, email := range bad {
		s := validSubmission()
		s.Email = email
		res := v.Validate(s)
		assert.Contains(t, res.Errors, "Formato de email inválido", "email %q", email)
	}

	s := validSubmission()
	s.Email = "m@" + strings.Repeat("a", 250) + ".com"
	res := v.Validate(s)
	assert.Contains(t, res.Errors, "Email muito longo")
}

func TestValidateService(t *testing.T) {
	v := &Validator{}
	s := validSubmission()
	s.ServiceOfInterest = "Serviço Inexistente"
	res := v.Validate(s)
	assert.Contains(t, res.Errors, "Por favor, selecione um serviço de interesse")
}

func TestValidatePhone(t *testing.T) {
	v := &Validator{}

	for _, phone := range []string{"(11) 99999-9999", "(21) 3333-4444", ""} {
		s := validSubmission()
		s.Phone = phone
		res := v.Validate(s)
		assert.True(t, res.Valid, "phone %q should pass: %v", phone, res.Errors)
	}

	for _, phone := range []string{"11999999999", "(11)99999-9999", "(11) 999-9999"} {
		s := validSubmission()
		s.Phone = phone
		res := v.Validate(s)
		assert.Contains(t, res.Errors, "Formato de telefone inválido. Use: (11) 99999-9999", "phone %q", phone)
	}
}

func TestValidateCNPJChecksum(t *testing.T) {
	v := &Validator{}

	valid := []string{"11.444.777/0001-61", "11.222.333/0001-81"}
	for _, cnpj := range valid {
		s := validSubmission()
		s.CNPJ = cnpj
		s.Company = "Acme Tecnologia"
		res := v.Validate(s)
		assert.True(t, res.Valid, "cnpj %q should pass: %v", cnpj, res.Errors)
	}

	invalid := []string{
		"11.444.777/0001-62", // wrong check digit
		"11.111.111/1111-11", // all identical digits
		"12.345.678/9012-34", // blocked sequence
		"11444777000161",     // unformatted
	}
	for _, cnpj := range invalid {
		s := validSubmission()
		s.CNPJ = cnpj
		s.Company = "Acme Tecnologia"
		res := v.Validate(s)
		assert.Contains(t, res.Errors, "CNPJ inválido. Verifique os dígitos ou deixe em branco se não tiver empresa", "cnpj %q", cnpj)
	}
}

func TestValidateTestCNPJFixtures(t *testing.T) {
	strict := &Validator{}
	loose := &Validator{AcceptTestCNPJs: true}

	s := validSubmission()
	s.CNPJ = "99.999.999/9999-99"
	s.Company = "Acme Tecnologia"

	res := strict.Validate(s)
	assert.False(t, res.Valid, "all-nines must fail strict validation")

	res = loose.Validate(s)
	assert.False(t, res.Valid, "all-identical digits fail even as fixtures")

	s.CNPJ = "12.345.678/0001-95"
	res = strict.Validate(s)
	assert.True(t, res.Valid, "checksum-valid fixture passes everywhere: %v", res.Errors)
}

func TestValidateStateAndCity(t *testing.T) {
	v := &Validator{}

	s := validSubmission()
	s.State = "XX"
	s.City = "Lugar Nenhum"
	res := v.Validate(s)
	assert.Contains(t, res.Errors, "Estado inválido")

	s = validSubmission()
	s.City = "A"
	res = v.Validate(s)
	assert.Contains(t, res.Errors, "Nome da cidade deve ter entre 2 e 50 caracteres")
}

func TestValidateMessageLength(t *testing.T) {
	v := &Validator{}

	s := validSubmission()
	s.Message = "curta"
	res := v.Validate(s)
	assert.Contains(t, res.Errors, "Mensagem deve ter pelo menos 10 caracteres")

	s.Message = strings.Repeat("a", 1001)
	res = v.Validate(s)
	assert.Contains(t, res.Errors, "Mensagem muito longa (máximo 1000 caracteres)")
}

func TestValidateCrossFieldRules(t *testing.T) {
	v := &Validator{}

	s := validSubmission()
	s.CNPJ = "11.444.777/0001-61"
	res := v.Validate(s)
	assert.Contains(t, res.Errors, "Nome da empresa é obrigatório quando CNPJ é fornecido")

	s = validSubmission()
	s.State = "SP"
	res = v.Validate(s)
	assert.Contains(t, res.Errors, "Cidade é obrigatória quando estado é fornecido")
}

func TestValidateRejectsInjectionProbes(t *testing.T) {
	v := &Validator{}

	s := validSubmission()
	s.Message = `Olá <script>alert(1)</script> gostaria de um orçamento`
	res := v.Validate(s)
	require.False(t, res.Valid)
	assert.Contains(t, res.Errors, "Conteúdo suspeito detectado no campo mensagem")
	for _, msg := range res.Errors {
		assert.NotContains(t, msg, "<script", "rejection must not echo the payload")
	}

	s = validSubmission()
	s.Company = "Empresa javascript:void(0)"
	res = v.Validate(s)
	assert.Contains(t, res.Errors, "Conteúdo suspeito detectado no campo empresa")
}

func TestValidateFlagsThrowawayEmail(t *testing.T) {
	v := &Validator{}
	s := validSubmission()
	s.Email = "maria@example.com"
	res := v.Validate(s)
	assert.True(t, res.Valid, "advisory must not block the submission")
	assert.Contains(t, res.Advisories, "Email parece ser de teste ou spam")
}

func TestIsSuspicious(t *testing.T) {
	assert.True(t, IsSuspicious(`<IFRAME src="x">`))
	assert.True(t, IsSuspicious("onclick=alert(1)"))
	assert.True(t, IsSuspicious("eval (payload)"))
	assert.False(t, IsSuspicious("Gostaria de migrar para a nuvem"))
}
