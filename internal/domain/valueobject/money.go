package valueobject

import (
	"math"
	"time"

	"github.com/ignatzorin/freelance-escrow/internal/pkg/apperror"
)

// RoundMoney округляет сумму до копеек.
func RoundMoney(amount float64) float64 {
	return math.Round(amount*100) / 100
}

// IsFiniteAmount отсекает NaN и бесконечности, которые пропускает JSON-декодер через строки.
func IsFiniteAmount(amount float64) bool {
	return !math.IsNaN(amount) && !math.IsInf(amount, 0)
}

// AddonLine - выбранное дополнение с ценой на момент покупки.
type AddonLine struct {
	UnitPrice         float64
	Quantity          int
	DeliveryDaysDelta int
}

// OrderTerms - итоговая цена и срок, фиксируемые при создании заказа.
type OrderTerms struct {
	TotalPrice   float64
	DeliveryDays int
	DueAt        time.Time
}

// MinDeliveryDays - нижняя граница срока, какими бы ни были дельты дополнений.
const MinDeliveryDays = 1

// ComputeOrderTerms считает цену пакета плюс дополнения с учётом количества.
// Срок: дни пакета плюс сумма дельт дополнений (без умножения на количество), не меньше одного дня.
func ComputeOrderTerms(packagePrice float64, packageDays int, addons []AddonLine, now time.Time) (OrderTerms, error) {
	if !IsFiniteAmount(packagePrice) || packagePrice < 0 {
		return OrderTerms{}, apperror.New(apperror.ErrCodeValidation, "некорректная цена пакета")
	}

	total := packagePrice
	days := packageDays
	for _, line := range addons {
		if line.Quantity < 1 {
			return OrderTerms{}, apperror.New(apperror.ErrCodeValidation, "количество дополнения должно быть не меньше 1")
		}
		if !IsFiniteAmount(line.UnitPrice) || line.UnitPrice < 0 {
			return OrderTerms{}, apperror.New(apperror.ErrCodeValidation, "некорректная цена дополнения")
		}
		total += line.UnitPrice * float64(line.Quantity)
		days += line.DeliveryDaysDelta
	}

	if days < MinDeliveryDays {
		days = MinDeliveryDays
	}

	return OrderTerms{
		TotalPrice:   RoundMoney(total),
		DeliveryDays: days,
		DueAt:        now.AddDate(0, 0, days),
	}, nil
}

// AvailableBalance: заработано минус выведенное минус ожидающее вывода.
func AvailableBalance(totalEarned, withdrawn, pending float64) float64 {
	return RoundMoney(totalEarned - withdrawn - pending)
}
