// redact маскирует персональные данные и секреты перед записью в лог.
package redact

import "strings"

// Email оставляет первые две руны локальной части и домен.
func Email(s string) string {
	local, domain, ok := strings.Cut(s, "@")
	if !ok || strings.Contains(domain, "@") {
		return "***"
	}

	r := []rune(local)
	if len(r) > 2 {
		return string(r[:2]) + "***@" + domain
	}

	return "***@" + domain
}

// Username оставляет первую руну.
func Username(s string) string {
	r := []rune(s)
	if len(r) < 2 {
		return "***"
	}

	return string(r[:1]) + "***"
}

// Token никогда не раскрывает содержимое токена.
func Token() string { return "[REDACTED_TOKEN]" }

// Password никогда не раскрывает пароль.
func Password() string { return "[REDACTED_PASSWORD]" }
