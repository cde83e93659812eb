// Package repository holds the storage backends for relationship data.
package repository

import "github.com/pingup/backend/internal/domain"

var (
	_ domain.RelationshipStore           = (*MemoryStore)(nil)
	_ domain.ConnectionRequestRepository = (*MemoryStore)(nil)
	_ domain.MessageLog                  = (*MemoryStore)(nil)

	_ domain.RelationshipStore           = (*PostgresRepository)(nil)
	_ domain.ConnectionRequestRepository = (*PostgresRepository)(nil)
	_ domain.MessageLog                  = (*PostgresRepository)(nil)
)
