package password

import (
	"fmt"

	"golang.org/x/crypto/bcrypt"
)

// Params ajusta el costo del hash.
type Params struct {
	Cost int
}

// Default usa el costo estándar de bcrypt (10). Subirlo encarece cada
// login de forma deliberada; no cachear ni paralelizar la verificación.
var Default = Params{Cost: bcrypt.DefaultCost}

// Hash devuelve un hash bcrypt del password. El output es auto-descriptivo:
// embebe salt y costo, así Verify no necesita configuración externa.
func Hash(p Params, plain string) (string, error) {
	if plain == "" {
		return "", fmt.Errorf("empty password")
	}
	cost := p.Cost
	if cost < bcrypt.MinCost || cost > bcrypt.MaxCost {
		cost = bcrypt.DefaultCost
	}
	b, err := bcrypt.GenerateFromPassword([]byte(plain), cost)
	if err != nil {
		return "", err
	}
	return string(b), nil
}

// Verify compara plain contra un hash bcrypt almacenado.
// Un hash malformado retorna false, nunca error: un registro corrupto se
// comporta igual que un password incorrecto.
func Verify(plain, hash string) bool {
	return bcrypt.CompareHashAndPassword([]byte(hash), []byte(plain)) == nil
}
