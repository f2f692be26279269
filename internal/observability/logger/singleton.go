package logger

import (
	"sync"

	"go.uber.org/zap"
)

// Singleton de proceso: main lo inicializa una vez y el resto del código
// lo obtiene vía L() o, con campos de request, vía From(ctx).

var (
	initOnce sync.Once
	root     *zap.Logger
)

// Init construye el logger raíz. Idempotente: solo la primera llamada
// tiene efecto.
func Init(cfg Config) {
	initOnce.Do(func() {
		root = build(cfg)
	})
}

// L retorna el logger raíz. Si Init no corrió todavía (tests, tooling),
// arma uno de desarrollo con nivel info.
func L() *zap.Logger {
	if root == nil {
		Init(Config{Env: "dev", Level: "info"})
	}
	return root
}

// Named retorna un logger hijo con nombre de componente.
func Named(name string) *zap.Logger {
	return L().Named(name)
}

// Sync flushea buffers pendientes; va con defer en main.
func Sync() error {
	if root != nil {
		return root.Sync()
	}
	return nil
}
