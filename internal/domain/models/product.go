package models

// Product представляет товар каталога. Ядро оформления использует его только
// для проверки, что зафиксированная в корзине цена всё ещё актуальна.
type Product struct {
	ID       int64   `json:"id"`
	Name     string  `json:"name"`
	Price    float64 `json:"price"`
	IsActive bool    `json:"is_active"`
}
