// Package game — rules.go содержит чистые функции-решения Rule Engine.
// Каждая функция возвращает nil (ALLOW) или конкретную ошибку-причину (DENY).
// Функции вызываются дважды: до любых сетевых вызовов (дешёвый отсев)
// и повторно внутри транзакции БД на свежих данных.
package game

import (
	"time"

	"beesmart.ct.ws/colony-bot/internal/common"
)

// CheckColonyPurchase решает, можно ли игроку купить колонию типа kind,
// если у него уже currentColonies колоний.
func CheckColonyPurchase(s *Settings, kind ColonyKind, currentColonies int) error {
	if currentColonies >= s.MaxColonies {
		return common.ErrColonyLimit
	}
	if _, ok := ColonyPriceNano[kind]; !ok {
		return common.ErrUnknownColonyKind
	}
	return nil
}

// CheckBeePurchase решает, можно ли добавить qty пчёл типа beeKind
// в колонию типа colonyKind, где уже живёт current пчёл этого типа.
//
// Порядок проверок:
//  1. Стартовая колония не принимает покупных пчёл вообще.
//  2. Тип пчелы должен продаваться (быть в каталоге цен).
//  3. Тип пчелы должен быть разрешён для этого типа колонии.
//  4. current + qty не должно превышать вместимость.
func CheckBeePurchase(colonyKind ColonyKind, beeKind BeeKind, current, qty int) error {
	if qty <= 0 {
		return common.ErrInvalidAmount
	}
	if colonyKind == ColonyFree {
		return common.ErrStarterColony
	}
	if _, ok := BeePriceNano[beeKind]; !ok {
		return common.ErrUnknownBeeKind
	}
	allowed, ok := ColonyCapacity[colonyKind]
	if !ok {
		// Колония неизвестного типа в базе — пчёл в неё не продаём
		return common.ErrBeeNotAllowed
	}
	capacity, ok := allowed[beeKind]
	if !ok {
		return common.ErrBeeNotAllowed
	}
	if current+qty > capacity {
		return common.ErrColonyFull
	}
	return nil
}

// CheckCollection решает, можно ли собрать нектар в момент now,
// если последний сбор был в last (nil — игрок ещё ни разу не собирал).
// Неравенство строгое: ровно на границе кулдауна сбор уже разрешён.
func CheckCollection(s *Settings, last *time.Time, now time.Time) error {
	if last == nil {
		return nil
	}
	if now.Sub(*last) < s.CollectionCooldown {
		return common.ErrCooldownActive
	}
	return nil
}

// CollectionReward считает награду за сбор: сумма дневных ставок
// по всем пчёлам игрока. counts — количество пчёл по типам.
// Типы, которых нет в DailyReward, дают ноль, а не ошибку.
func CollectionReward(counts map[BeeKind]int) int64 {
	var total int64
	for kind, n := range counts {
		total += DailyReward[kind] * int64(n)
	}
	return total
}

// WithdrawGotas конвертирует запрошенный вывод litros (внешняя деноминация)
// в готы по фиксированному курсу. Вся арифметика целочисленная,
// курс — целое число гот за литр, так что конвертация всегда точная.
func WithdrawGotas(s *Settings, litros int64) (int64, error) {
	if litros <= 0 {
		return 0, common.ErrInvalidAmount
	}
	if litros < s.MinWithdrawLitros {
		return 0, common.ErrBelowMinWithdraw
	}
	return litros * s.GotasPerLitro, nil
}
