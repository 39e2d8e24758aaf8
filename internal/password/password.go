// password реализует одностороннее хэширование и проверку паролей на bcrypt.
//
// Каждый вызов Hash использует случайную соль, поэтому два хэша одного
// и того же пароля различаются. Verify никогда не паникует: несовпадение
// и повреждённый хэш одинаково дают false.
package password

import (
	"errors"
	"fmt"

	"golang.org/x/crypto/bcrypt"
)

// DefaultCost — стоимость bcrypt по умолчанию.
const DefaultCost = 10

// ErrPasswordTooLong — bcrypt учитывает только первые 72 байта пароля.
var ErrPasswordTooLong = errors.New("password is too long")

// Hasher хэширует и проверяет пароли с заданной стоимостью.
type Hasher struct {
	cost int
}

// New создаёт Hasher. Стоимость вне [bcrypt.MinCost, bcrypt.MaxCost] заменяется на DefaultCost.
func New(cost int) *Hasher {
	if cost < bcrypt.MinCost || cost > bcrypt.MaxCost {
		cost = DefaultCost
	}

	return &Hasher{cost: cost}
}

// Cost возвращает используемую стоимость.
func (h *Hasher) Cost() int {
	return h.cost
}

// Hash хэширует пароль.
func (h *Hasher) Hash(plain string) (string, error) {
	const op = "password.Hash"

	b, err := bcrypt.GenerateFromPassword([]byte(plain), h.cost)
	if err != nil {
		if errors.Is(err, bcrypt.ErrPasswordTooLong) {
			return "", fmt.Errorf("%s: %w", op, ErrPasswordTooLong)
		}

		return "", fmt.Errorf("%s: %w", op, err)
	}

	return string(b), nil
}

// Verify сравнивает пароль с хэшем за постоянное время.
func (h *Hasher) Verify(plain, hash string) bool {
	return bcrypt.CompareHashAndPassword([]byte(hash), []byte(plain)) == nil
}
