// Package common — errors.go определяет пользовательские ошибки,
// которые используются во всех модулях игры.
// Эти ошибки позволяют обработчикам (бот, веб-API) различать типы проблем
// и отправлять игроку понятные сообщения.
package common

import "errors"

// Ошибки валидации и поиска
var (
	// ErrInvalidRequest — в запросе не хватает полей или они некорректны
	ErrInvalidRequest = errors.New("некорректный запрос: не хватает данных")
	// ErrPlayerNotFound — игрок не найден в базе
	ErrPlayerNotFound = errors.New("игрок не найден")
	// ErrColonyNotFound — колония не найдена или принадлежит другому игроку
	ErrColonyNotFound = errors.New("колония не найдена")
)

// Ошибки игровых правил (Rule Engine всегда отвечает конкретной причиной)
var (
	// ErrColonyLimit — достигнут лимит колоний на игрока
	ErrColonyLimit = errors.New("достигнут лимит колоний")
	// ErrUnknownColonyKind — такого типа колонии нет в каталоге цен
	ErrUnknownColonyKind = errors.New("неизвестный тип колонии")
	// ErrUnknownBeeKind — такого типа пчелы нет в каталоге цен
	ErrUnknownBeeKind = errors.New("неизвестный тип пчелы")
	// ErrStarterColony — стартовая (бесплатная) колония не принимает покупных пчёл
	ErrStarterColony = errors.New("в стартовую колонию нельзя добавлять пчёл")
	// ErrBeeNotAllowed — этот тип пчелы не разрешён для данного типа колонии
	ErrBeeNotAllowed = errors.New("этот тип пчелы не разрешён в данной колонии")
	// ErrColonyFull — превышена вместимость колонии для данного типа пчёл
	ErrColonyFull = errors.New("превышена вместимость колонии")
	// ErrCooldownActive — с прошлого сбора нектара прошло меньше кулдауна
	ErrCooldownActive = errors.New("нектар ещё не созрел, сбор раз в сутки")
	// ErrBelowMinWithdraw — сумма вывода меньше минимальной
	ErrBelowMinWithdraw = errors.New("сумма вывода меньше минимальной")
	// ErrInsufficientBalance — недостаточно гот на счёте
	ErrInsufficientBalance = errors.New("недостаточно гот на счёте")
	// ErrInvalidAmount — некорректная сумма (ноль или отрицательная)
	ErrInvalidAmount = errors.New("сумма должна быть положительной")
)

// Ошибки проверки платежей
var (
	// ErrPaymentNotMatched — транзакция найдена, но сумма/адрес/хеш не совпали
	ErrPaymentNotMatched = errors.New("платёж не подтверждён: данные транзакции не совпадают")
	// ErrPaymentUnavailable — оракул недоступен или транзакция не найдена.
	// Трактуется как НЕ-доказательство, никогда как успех.
	ErrPaymentUnavailable = errors.New("не удалось проверить транзакцию")
	// ErrReplayDetected — этот txid уже был использован для покупки
	ErrReplayDetected = errors.New("эта транзакция уже была использована")
	// ErrInvalidAddress — адрес кошелька не удалось нормализовать
	ErrInvalidAddress = errors.New("некорректный адрес кошелька")
	// ErrClaimNotFound — запись о погашенном платеже не найдена
	ErrClaimNotFound = errors.New("платёж с таким txid не найден")
)

// Ошибки админки
var (
	// ErrNotAdmin — пользователь не является администратором
	ErrNotAdmin = errors.New("у вас нет прав администратора")
	// ErrWrongPassword — неверный пароль
	ErrWrongPassword = errors.New("неверный пароль")
	// ErrTooManyAttempts — слишком много неудачных попыток входа
	ErrTooManyAttempts = errors.New("слишком много попыток, подождите 1 час")
	// ErrWithdrawalNotFound — заявка на вывод не найдена
	ErrWithdrawalNotFound = errors.New("заявка на вывод не найдена")
)
