package validation

import (
	"errors"
	"fmt"
	"math"
	"strings"
	"unicode/utf8"
)

// Константы валидации
const (
	MinProjectBriefLength       = 1
	MaxProjectBriefLength       = 5000
	MinReviewCommentLength      = 10
	MaxReviewCommentLength      = 1000
	MinRating                   = 0.0
	MaxRating                   = 5.0
	MinRevisionReasonLength     = 1
	MaxRevisionReasonLength     = 1000
	MinDisputeDescriptionLength = 10
	MaxDisputeDescriptionLength = 2000
	MaxResolutionLength         = 2000
	MaxDeliveryNoteLength       = 2000
	MaxWithdrawalNoteLength     = 500
	MaxAddonsPerOrder           = 20
	MaxAddonQuantity            = 100
)

// ValidateLength проверяет длину строки.
func ValidateLength(fieldName, value string, min, max int) error {
	length := utf8.RuneCountInString(value)
	if min > 0 && length < min {
		return fmt.Errorf("%s должен быть не менее %d символов", fieldName, min)
	}
	if max > 0 && length > max {
		return fmt.Errorf("%s должен быть не более %d символов", fieldName, max)
	}
	return nil
}

// ValidateNonEmpty проверяет, что строка не пустая.
func ValidateNonEmpty(fieldName, value string) error {
	if strings.TrimSpace(value) == "" {
		return fmt.Errorf("%s не может быть пустым", fieldName)
	}
	return nil
}

// ValidateProjectBrief проверяет описание задачи к заказу.
func ValidateProjectBrief(brief string) error {
	brief = strings.TrimSpace(brief)
	if err := ValidateNonEmpty("описание задачи", brief); err != nil {
		return err
	}
	return ValidateLength("описание задачи", brief, MinProjectBriefLength, MaxProjectBriefLength)
}

// ValidateRating допускает оценки от 0 до 5 с шагом 0.5.
func ValidateRating(rating float64) error {
	if math.IsNaN(rating) || rating < MinRating || rating > MaxRating {
		return fmt.Errorf("оценка должна быть от %.0f до %.0f", MinRating, MaxRating)
	}
	if doubled := rating * 2; doubled != math.Trunc(doubled) {
		return errors.New("оценка должна быть кратна 0.5")
	}
	return nil
}

// ValidateReviewComment ожидает уже обрезанный по краям текст.
func ValidateReviewComment(comment string) error {
	if comment == "" {
		return errors.New("комментарий к отзыву обязателен")
	}
	return ValidateLength("комментарий к отзыву", comment, MinReviewCommentLength, MaxReviewCommentLength)
}

// ValidateRevisionReason проверяет причину запроса правок.
func ValidateRevisionReason(reason string) error {
	if err := ValidateNonEmpty("причина правок", reason); err != nil {
		return err
	}
	return ValidateLength("причина правок", reason, MinRevisionReasonLength, MaxRevisionReasonLength)
}

// ValidateDisputeDescription проверяет описание спора.
func ValidateDisputeDescription(description string) error {
	if description == "" {
		return errors.New("описание спора обязательно")
	}
	return ValidateLength("описание спора", description, MinDisputeDescriptionLength, MaxDisputeDescriptionLength)
}

// ValidateOptionalText проверяет необязательный текст ограниченной длины.
func ValidateOptionalText(fieldName string, value *string, max int) error {
	if value == nil {
		return nil
	}
	return ValidateLength(fieldName, strings.TrimSpace(*value), 0, max)
}

// ValidateWithdrawalAmount: конечное положительное число не меньше минимума, не более двух знаков после запятой.
func ValidateWithdrawalAmount(amount, minAmount float64) error {
	if math.IsNaN(amount) || math.IsInf(amount, 0) || amount <= 0 {
		return errors.New("сумма вывода должна быть положительным числом")
	}
	if amount < minAmount {
		return fmt.Errorf("минимальная сумма вывода: %.2f", minAmount)
	}
	if cents := amount * 100; math.Abs(cents-math.Round(cents)) > 1e-6 {
		return errors.New("сумма вывода должна содержать не более двух знаков после запятой")
	}
	return nil
}
