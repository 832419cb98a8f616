// Package main — Repository katmanı başlatma.
//
// initRepositories, tüm repository implementasyonlarını oluşturur.
// Her repository aynı *sql.DB'yi alır ve interface döner.
package main

import (
	"database/sql"

	"github.com/akinalp/unread/repository"
)

// Repositories, tüm repository instance'larını tutan container struct.
type Repositories struct {
	Message    repository.MessageRepository
	Group      repository.GroupRepository
	ReadMarker repository.ReadMarkerRepository
	Unread     repository.UnreadRepository
}

// initRepositories, veritabanı bağlantısından tüm repository'leri oluşturur.
// sql.DB thread-safe bir connection pool'dur, paylaşılması güvenlidir.
func initRepositories(conn *sql.DB) *Repositories {
	return &Repositories{
		Message:    repository.NewSQLiteMessageRepo(conn),
		Group:      repository.NewSQLiteGroupRepo(conn),
		ReadMarker: repository.NewSQLiteReadStateRepo(conn),
		Unread:     repository.NewSQLiteUnreadRepo(conn),
	}
}
