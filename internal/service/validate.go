package service

import (
	"net/mail"
	"strings"
	"unicode/utf8"

	"github.com/pribylovaa/go-profile-auth/internal/models"
)

// Доменные ограничения профиля и публикаций.
const (
	MinAge           = 18
	MaxAge           = 150
	MaxBioLength     = 300
	MaxUsernameLen   = 50
	MinTitleLength   = 3
	MinContentLength = 10
)

// normalizeEmail приводит email к нижнему регистру и проверяет формат.
// Допускается только «голый» адрес без display name.
func normalizeEmail(raw string) (string, error) {
	email := strings.TrimSpace(raw)
	if email == "" {
		return "", invalid("email", "is required")
	}

	addr, err := mail.ParseAddress(email)
	if err != nil || addr.Address != email {
		return "", invalid("email", "has invalid format")
	}

	return strings.ToLower(email), nil
}

func validateUsername(raw string) (string, error) {
	username := strings.TrimSpace(raw)
	if username == "" {
		return "", invalid("username", "is required")
	}

	if utf8.RuneCountInString(username) > MaxUsernameLen {
		return "", invalid("username", "is too long")
	}

	return username, nil
}

func validateAge(age int) error {
	if age < MinAge {
		return invalid("age", "must be at least 18")
	}

	if age > MaxAge {
		return invalid("age", "is out of range")
	}

	return nil
}

func validateGender(raw string) (models.Gender, error) {
	if strings.TrimSpace(raw) == "" {
		return "", invalid("gender", "is required")
	}

	g, ok := models.ParseGender(raw)
	if !ok {
		return "", invalid("gender", "must be one of male, female, other")
	}

	return g, nil
}

func validateBio(bio string) error {
	if utf8.RuneCountInString(bio) > MaxBioLength {
		return invalid("bio", "must be at most 300 characters")
	}

	return nil
}

// PreferencesInput — предпочтения в том виде, в котором их прислал клиент.
type PreferencesInput struct {
	Genders []string
	MinAge  int
	MaxAge  int
}

// validatePreferences проверяет диапазон возрастов и набор полов.
// Нулевые границы заменяются значениями по умолчанию.
func validatePreferences(in *PreferencesInput) (models.Preferences, error) {
	prefs := models.DefaultPreferences()
	if in == nil {
		return prefs, nil
	}

	if len(in.Genders) > 0 {
		prefs.Genders = make([]models.Gender, 0, len(in.Genders))
		for _, raw := range in.Genders {
			g, ok := models.ParseGender(raw)
			if !ok {
				return models.Preferences{}, invalid("preferences.gender", "must be one of male, female, other")
			}
			prefs.Genders = append(prefs.Genders, g)
		}
	}

	if in.MinAge != 0 {
		prefs.MinAge = in.MinAge
	}
	if in.MaxAge != 0 {
		prefs.MaxAge = in.MaxAge
	}

	if prefs.MinAge < models.DefaultPrefMinAge || prefs.MaxAge > models.DefaultPrefMaxAge || prefs.MinAge > prefs.MaxAge {
		return models.Preferences{}, invalid("preferences", "age range must satisfy 18 <= minAge <= maxAge <= 100")
	}

	return prefs, nil
}

// cleanInterests обрезает пробелы и отбрасывает пустые элементы.
func cleanInterests(in []string) []string {
	out := make([]string, 0, len(in))
	for _, s := range in {
		if s = strings.TrimSpace(s); s != "" {
			out = append(out, s)
		}
	}
	return out
}
