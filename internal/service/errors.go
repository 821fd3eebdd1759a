package service

import (
	"github.com/sirupsen/logrus"

	"github.com/ignatzorin/freelance-escrow/internal/logger"
	"github.com/ignatzorin/freelance-escrow/internal/pkg/apperror"
)

var (
	ErrOrderNotFound      = apperror.New(apperror.ErrCodeNotFound, "заказ не найден")
	ErrPackageNotFound    = apperror.New(apperror.ErrCodeNotFound, "пакет услуги не найден")
	ErrEscrowNotFound     = apperror.New(apperror.ErrCodeNotFound, "платёж по заказу не найден")
	ErrDisputeNotFound    = apperror.New(apperror.ErrCodeNotFound, "спор не найден")
	ErrWithdrawalNotFound = apperror.New(apperror.ErrCodeNotFound, "заявка на вывод не найдена")

	ErrOwnService              = apperror.New(apperror.ErrCodeValidation, "нельзя заказать собственную услугу")
	ErrUnsupportedPayment      = apperror.New(apperror.ErrCodeValidation, "неподдерживаемый способ оплаты")
	ErrDeliverableRequired     = apperror.New(apperror.ErrCodeValidation, "к сдаче работы нужно приложить файл")
	ErrRatingRequired          = apperror.New(apperror.ErrCodeValidation, "оценка обязательна")
	ErrUnknownDisputeOutcome   = apperror.New(apperror.ErrCodeValidation, "решение спора должно быть resolved или rejected")
	ErrUnknownWithdrawalAction = apperror.New(apperror.ErrCodeValidation, "действие должно быть approve или reject")

	ErrOrderChanged            = apperror.New(apperror.ErrCodeConflict, "статус заказа изменился, обновите данные")
	ErrEscrowAlreadySettled    = apperror.New(apperror.ErrCodeConflict, "средства по заказу уже распределены")
	ErrRevisionLimitReached    = apperror.New(apperror.ErrCodeConflict, "лимит правок по заказу исчерпан")
	ErrAlreadyReviewed         = apperror.New(apperror.ErrCodeConflict, "отзыв по заказу уже оставлен")
	ErrDisputeBlocksCompletion = apperror.New(apperror.ErrCodeConflict, "нельзя завершить заказ, пока спор не решён")
	ErrOrderNotArbitrable      = apperror.New(apperror.ErrCodeConflict, "спор можно открыть только по заказу в работе, на правках или после сдачи")
	ErrDisputeAlreadyExists    = apperror.New(apperror.ErrCodeConflict, "по заказу уже открыт спор")
	ErrDisputeNotOpen          = apperror.New(apperror.ErrCodeConflict, "спор уже на рассмотрении или закрыт")
	ErrDisputeAlreadyClosed    = apperror.New(apperror.ErrCodeConflict, "спор уже закрыт")
	ErrWithdrawalProcessed     = apperror.New(apperror.ErrCodeConflict, "заявка на вывод уже обработана")
	ErrWithdrawalNotApproved   = apperror.New(apperror.ErrCodeConflict, "заявка на вывод не одобрена")

	ErrFreelancerOnly = apperror.New(apperror.ErrCodeForbidden, "действие доступно только фрилансерам")
)

// internalError логирует сбой хранилища и возвращает клиенту общее сообщение.
func internalError(op string, err error) error {
	logger.Log.WithFields(logrus.Fields{"op": op}).WithError(err).Error("ошибка хранилища")
	return apperror.Internal(err)
}

// passOrInternal пропускает доменные ошибки как есть, остальное считает инфраструктурным сбоем.
func passOrInternal(op string, err error) error {
	if err == nil {
		return nil
	}
	if _, ok := apperror.As(err); ok {
		return err
	}
	return internalError(op, err)
}
