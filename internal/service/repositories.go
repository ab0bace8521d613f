package service

import (
	"context"

	"collab-events/internal/database"
	"collab-events/internal/repository"
)

// TxRunner is the slice of *database.Gateway the services use: plain reads
// go through Runner, every write through InTx.
type TxRunner interface {
	database.Runner
	InTx(ctx context.Context, fn func(tx *database.Tx) error) error
}

// Repositories groups the repository implementations shared by all services.
type Repositories struct {
	Events      repository.EventsRepository
	Versions    repository.EventVersionsRepository
	Changelog   repository.EventChangelogRepository
	Permissions repository.EventPermissionsRepository
	Users       repository.UsersRepository
}

func NewPostgresRepositories() Repositories {
	return Repositories{
		Events:      repository.NewPostgresEventsRepository(),
		Versions:    repository.NewPostgresEventVersionsRepository(),
		Changelog:   repository.NewPostgresEventChangelogRepository(),
		Permissions: repository.NewPostgresEventPermissionsRepository(),
		Users:       repository.NewPostgresUsersRepository(),
	}
}
