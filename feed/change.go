// Package feed, mesaj deposundaki satır değişikliklerini (insert/update/delete)
// abonelere ileten process-içi change feed'dir.
//
// Akış:
// 1. Service bir satırı DB'ye yazar (ör. yeni DM)
// 2. Commit sonrası Broker.Publish(Change) çağrılır
// 3. Filtresi eşleşen her Subscription'ın kanalına Change bırakılır
// 4. Unread session'ları bu kanalları dinleyip yeniden sayım tetikler
//
// Teslimat "at most once"dır: yavaş bir abonenin buffer'ı doluysa
// değişiklik o abone için düşürülür. Abone tam yeniden hesaplama yaptığı
// için kayıp event bir sonraki event'te telafi edilir.
package feed

import (
	"fmt"
	"slices"
	"time"
)

// Op, satır seviyesindeki değişiklik türü.
type Op string

const (
	OpInsert Op = "insert"
	OpUpdate Op = "update"
	OpDelete Op = "delete"
)

// Yayınlanan tablolar.
const (
	TableDirectMessages = "direct_messages"
	TableGroupMessages  = "group_messages"
	TableGroupMembers   = "group_members"
	TableGroupReads     = "group_reads"
)

// Change, tek bir satır değişikliği.
// Row sadece filtrelemede kullanılan kolonları taşır (ör. receiver_id, group_id, sender_id).
type Change struct {
	Table string            `json:"table"`
	Op    Op                `json:"op"`
	Row   map[string]string `json:"row"`
	Seq   int64             `json:"seq"`
	At    time.Time         `json:"at"`
}

// Filter, bir aboneliğin hangi değişiklikleri alacağını belirler.
//
//	Filter{Table: "direct_messages", Ops: []Op{OpInsert, OpUpdate}, Column: "receiver_id", Value: userID}
//
// Column boşsa tablonun tüm satırları, Ops boşsa tüm operasyonlar eşleşir.
type Filter struct {
	Table  string
	Ops    []Op
	Column string
	Value  string
}

// Validate, filtrenin en azından bir tablo belirttiğini kontrol eder.
func (f Filter) Validate() error {
	if f.Table == "" {
		return fmt.Errorf("feed filter requires a table")
	}
	return nil
}

// Matches, değişikliğin bu filtreye uyup uymadığını döner.
func (f Filter) Matches(c Change) bool {
	if c.Table != f.Table {
		return false
	}
	if len(f.Ops) > 0 && !slices.Contains(f.Ops, c.Op) {
		return false
	}
	if f.Column != "" && c.Row[f.Column] != f.Value {
		return false
	}
	return true
}

// String, log satırları için kısa gösterim.
func (f Filter) String() string {
	if f.Column == "" {
		return f.Table
	}
	return fmt.Sprintf("%s[%s=%s]", f.Table, f.Column, f.Value)
}
