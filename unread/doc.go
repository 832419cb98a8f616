// Package unread, oturum açmış bir kullanıcının toplam okunmamış mesaj
// sayısını (bildirim rozeti) hesaplar ve canlı tutar.
//
// Toplam = okunmamış DM'ler + üyesi olunan her grupta okuma işaretçisinden
// KESİNLİKLE sonra, başkalarının gönderdiği mesajlar. İşaretçisi olmayan
// gruplar 0 katkı yapar.
//
// Bileşenler:
//   - Store: sıra numarasıyla korunan sayı, eski sonuçları atar
//   - Counter: fast path (tek aggregate sorgu) + fallback (kaynak başına sayım)
//   - Session: change feed aboneliklerini yönetir, değişiklikte yeniden sayar
//   - Manager: kullanıcı başına referans sayılı Session
package unread
