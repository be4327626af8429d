// Package game содержит игровые правила экономики: каталог колоний и пчёл,
// таблицу вместимости, цены и чистые функции-решения ALLOW/DENY.
// В этом пакете нет ни сети, ни БД — только данные и арифметика.
// catalog.go описывает неизменяемый каталог игры.
package game

import (
	"time"

	"beesmart.ct.ws/colony-bot/internal/ton"
)

// BeeKind — тип пчелы из фиксированного перечисления.
type BeeKind string

// Типы пчёл. Free выдаётся один раз при регистрации и не продаётся.
const (
	BeeFree     BeeKind = "free"
	BeeStandard BeeKind = "standard"
	BeeGold     BeeKind = "gold"
)

// ColonyKind — тип колонии, фиксируется при создании.
type ColonyKind string

// Типы колоний. Free — стартовая, в неё нельзя докупать пчёл.
const (
	ColonyFree     ColonyKind = "free"
	ColonyBasica   ColonyKind = "basica"
	ColonyEstandar ColonyKind = "estandar"
	ColonyOro      ColonyKind = "oro"
	ColonyDiamante ColonyKind = "diamante"
	ColonyRubi     ColonyKind = "rubi"
)

// Nano — количество наноТОН в одном TON.
const Nano = int64(1_000_000_000)

// DailyReward — сколько гот в сутки приносит одна пчела каждого типа.
// Неизвестные типы дают ноль (не ошибку): сбор не должен падать,
// если в базе окажется пчела снятого с продажи типа.
var DailyReward = map[BeeKind]int64{
	BeeFree:     2,
	BeeStandard: 4,
	BeeGold:     6,
}

// ColonyCapacity — таблица вместимости: (тип колонии, тип пчелы) → максимум.
// Отсутствие типа пчелы в карте колонии означает «нельзя вообще».
// Стартовая колония free отсутствует здесь намеренно: покупных пчёл
// она не принимает ни одного типа.
var ColonyCapacity = map[ColonyKind]map[BeeKind]int{
	ColonyBasica:   {BeeStandard: 10},
	ColonyEstandar: {BeeStandard: 15},
	ColonyOro:      {BeeGold: 20},
	ColonyDiamante: {BeeGold: 25},
	ColonyRubi:     {BeeGold: 30},
}

// ColonyPriceNano — цены колоний в наноТОН.
// Литералы записаны в TON и конвертируются точной целочисленной
// конвертацией при старте; дальше сравнение платежей всегда int64.
var ColonyPriceNano = map[ColonyKind]int64{
	ColonyBasica:   ton.MustNano("0.38"),
	ColonyEstandar: ton.MustNano("8"),
	ColonyOro:      ton.MustNano("15"),
	ColonyDiamante: ton.MustNano("20"),
	ColonyRubi:     ton.MustNano("25"),
}

// BeePriceNano — цены пчёл в наноТОН (за одну штуку).
var BeePriceNano = map[BeeKind]int64{
	BeeStandard: ton.MustNano("0.38"),
	BeeGold:     ton.MustNano("5"),
}

// Settings — настраиваемые параметры экономики.
// Заполняется из конфигурации при старте, дальше только читается.
type Settings struct {
	MaxColonies        int           // Максимум колоний у одного игрока
	CollectionCooldown time.Duration // Минимальный интервал между сборами нектара
	GotasPerLitro      int64         // Курс: сколько гот в одном литре
	MinWithdrawLitros  int64         // Минимальный вывод в литрах
}

// ColonyCost возвращает цену колонии в наноТОН.
// Второй результат false, если типа нет в каталоге (free не продаётся).
func ColonyCost(kind ColonyKind) (int64, bool) {
	price, ok := ColonyPriceNano[kind]
	return price, ok
}

// BeeCost возвращает суммарную цену qty пчёл указанного типа в наноТОН.
func BeeCost(kind BeeKind, qty int) (int64, bool) {
	price, ok := BeePriceNano[kind]
	if !ok || qty <= 0 {
		return 0, false
	}
	return price * int64(qty), true
}
