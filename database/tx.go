// Package database: Transaction yönetimi.
//
// WithTx, birden fazla DB operasyonunun atomik (all-or-nothing) çalışmasını sağlar.
//
// Transaction nedir?
// Normal DB operasyonlarında her query bağımsız commit edilir. Grup oluşturma
// iki adımdır: groups satırı ve kurucunun group_members satırı. İkinci adım
// başarısız olursa ilk adım DB'de kalır ve hiç üyesi olmayan, kimsenin
// unread sayımına girmeyen sahipsiz bir grup oluşur.
//
// Transaction ile tüm adımlar tek bir birim olarak çalışır:
//   - Hepsi başarılı: COMMIT (kalıcı yaz)
//   - Herhangi biri başarısız: ROLLBACK (hiçbirini yazma)
//
// Kullanım:
//
//	err := database.WithTx(ctx, db.Conn, func(tx *sql.Tx) error {
//	    groups := repository.NewSQLiteGroupRepo(tx)
//	    if err := groups.Create(ctx, group); err != nil {
//	        return err  // → ROLLBACK
//	    }
//	    return groups.AddMember(ctx, group.ID, ownerID, now)  // nil → COMMIT
//	})
//
// Repository'ler ile kullanım:
// Repository constructor'ları TxQuerier alır. *sql.DB de *sql.Tx de bu
// interface'i karşılar, bu yüzden aynı repository hem normal bağlantıyla
// hem transaction içinde çalışır. Change feed yayını commit'ten SONRA
// yapılır: rollback olan bir yazma hiçbir session'ı tetiklemez.
package database

import (
	"context"
	"database/sql"
	"fmt"
)

// TxQuerier, hem *sql.DB hem *sql.Tx tarafından karşılanan interface.
// Repository'ler bunu alır — normalde *sql.DB, transaction içinde *sql.Tx geçilir.
type TxQuerier interface {
	ExecContext(ctx context.Context, query string, args ...any) (sql.Result, error)
	QueryContext(ctx context.Context, query string, args ...any) (*sql.Rows, error)
	QueryRowContext(ctx context.Context, query string, args ...any) *sql.Row
}

// WithTx, fn'i bir transaction içinde çalıştırır.
// fn nil dönerse COMMIT, error dönerse ROLLBACK; panic'te ROLLBACK + re-panic.
func WithTx(ctx context.Context, db *sql.DB, fn func(tx *sql.Tx) error) (err error) {
	tx, err := db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}

	defer func() {
		if p := recover(); p != nil {
			_ = tx.Rollback()
			panic(p)
		}

		if err != nil {
			if rbErr := tx.Rollback(); rbErr != nil {
				err = fmt.Errorf("%w (rollback also failed: %v)", err, rbErr)
			}
			return
		}

		if commitErr := tx.Commit(); commitErr != nil {
			err = fmt.Errorf("failed to commit transaction: %w", commitErr)
		}
	}()

	err = fn(tx)
	return
}
