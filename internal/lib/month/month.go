// Package month содержит расчёты дат расчётного периода.
package month

import (
	"time"
)

// AddMonths прибавляет n месяцев, не перескакивая через конец месяца:
// 31 января + 1 месяц даёт 28 (29) февраля, а не начало марта.
func AddMonths(t time.Time, n int) time.Time {
	y, m, d := t.Date()
	first := time.Date(y, m+time.Month(n), 1, t.Hour(), t.Minute(), t.Second(), t.Nanosecond(), t.Location())
	if last := daysIn(first); d > last {
		d = last
	}
	return first.AddDate(0, 0, d-1)
}

// NextBillingDate возвращает дату следующего списания через месяц от now.
func NextBillingDate(now time.Time) time.Time {
	return AddMonths(now, 1)
}

// AdvancePast сдвигает due на целое число месяцев так, чтобы результат был позже now.
// Количество месяцев считается от исходной даты, поэтому день месяца не «съезжает».
func AdvancePast(due, now time.Time) time.Time {
	if due.After(now) {
		return due
	}
	months := (now.Year()-due.Year())*12 + int(now.Month()) - int(due.Month())
	if months < 1 {
		months = 1
	}
	next := AddMonths(due, months)
	for !next.After(now) {
		months++
		next = AddMonths(due, months)
	}
	return next
}

func daysIn(first time.Time) int {
	return first.AddDate(0, 1, -1).Day()
}
