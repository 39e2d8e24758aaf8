// models содержит доменные сущности сервиса.
// Эти типы используются слоями бизнес-логики, хранилища и транспорта.
package models

import (
	"strings"
	"time"

	"github.com/google/uuid"
)

// Gender — пол пользователя; хранится и сериализуется строкой в нижнем регистре.
type Gender string

const (
	GenderMale   Gender = "male"
	GenderFemale Gender = "female"
	GenderOther  Gender = "other"
)

// ParseGender нормализует строку (регистр, пробелы) и проверяет вхождение в допустимый набор.
func ParseGender(s string) (Gender, bool) {
	g := Gender(strings.ToLower(strings.TrimSpace(s)))
	switch g {
	case GenderMale, GenderFemale, GenderOther:
		return g, true
	default:
		return "", false
	}
}

// Значения предпочтений по умолчанию.
const (
	DefaultPrefMinAge = 18
	DefaultPrefMaxAge = 100
)

// Preferences — предпочтения пользователя при подборе собеседников.
type Preferences struct {
	Genders []Gender
	MinAge  int
	MaxAge  int
}

// DefaultPreferences возвращает предпочтения нового пользователя.
func DefaultPreferences() Preferences {
	return Preferences{
		Genders: []Gender{GenderMale, GenderFemale},
		MinAge:  DefaultPrefMinAge,
		MaxAge:  DefaultPrefMaxAge,
	}
}

// User — модель пользователя в системе.
// PasswordHash никогда не содержит открытый пароль и не покидает сервис.
type User struct {
	ID             uuid.UUID
	Username       string
	Email          string
	PasswordHash   string
	FirstName      string
	LastName       string
	Age            int
	Gender         Gender
	Location       string
	Interests      []string
	Bio            string
	ProfilePicture string
	Preferences    Preferences
	CreatedAt      time.Time
	UpdatedAt      time.Time
}
