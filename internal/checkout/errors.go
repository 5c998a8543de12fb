package checkout

import "errors"

// Hata sınıfları. Servis katmanı HTTP bilmez; handler errors.Is ile
// durum koduna çevirir.
var (
	// İstek transaction açılmadan reddedildi (boş isim, boş sepet vs.)
	ErrValidation = errors.New("doğrulama hatası")
	// Telefon 10 haneye normalize edilemedi
	ErrInvalidPhone = errors.New("geçersiz telefon numarası")
	// Sepetteki ürün id'si menüde yok; işlem geri alınır
	ErrNotFound = errors.New("kayıt bulunamadı")
	// Eşzamanlı kasa işlemleri çakıştı; sınırlı sayıda yeniden denenir
	ErrConflict = errors.New("eşzamanlılık çakışması")
	// Diğer tüm veritabanı/G-Ç hataları
	ErrStore = errors.New("veritabanı hatası")
)
