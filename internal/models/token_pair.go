package models

import "time"

// TokenPair — пара токенов, выдаваемая при регистрации и входе.
//
// Описание:
//   - AccessToken — короткоживущий JWT для доступа к API;
//   - RefreshToken — долгоживущий JWT, который передаётся клиенту только через
//     HTTP-only cookie и используется исключительно для выпуска новых access-токенов;
//   - AccessExpiresAt/RefreshExpiresAt — моменты истечения (UTC).
type TokenPair struct {
	AccessToken      string
	RefreshToken     string
	AccessExpiresAt  time.Time
	RefreshExpiresAt time.Time
}
