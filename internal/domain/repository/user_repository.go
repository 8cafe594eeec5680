package repository

import "context"

// UserRepository define el puerto de lectura de usuarios.
// Solo se usa para validar que el principal de una transacción exista.
type UserRepository interface {
	Exists(ctx context.Context, id string) (bool, error)
}
