// Package analytics contiene las reglas de agrupación temporal del reporte de ventas.
package analytics

import "time"

// Granularidades soportadas para la serie temporal.
const (
	GroupByDay   = "day"
	GroupByWeek  = "week"
	GroupByMonth = "month"
)

// NormalizeGroupBy devuelve la granularidad válida; cualquier valor desconocido cae en day.
func NormalizeGroupBy(groupBy string) string {
	switch groupBy {
	case GroupByDay, GroupByWeek, GroupByMonth:
		return groupBy
	}
	return GroupByDay
}

// StartOfDay devuelve la medianoche local de t en loc.
func StartOfDay(t time.Time, loc *time.Location) time.Time {
	t = t.In(loc)
	return time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, loc)
}

// BucketStart trunca t al inicio de su cubeta en loc. Las semanas empiezan el lunes.
func BucketStart(t time.Time, groupBy string, loc *time.Location) time.Time {
	day := StartOfDay(t, loc)
	switch groupBy {
	case GroupByWeek:
		offset := (int(day.Weekday()) + 6) % 7 // lunes = 0
		return day.AddDate(0, 0, -offset)
	case GroupByMonth:
		return time.Date(day.Year(), day.Month(), 1, 0, 0, 0, 0, loc)
	default:
		return day
	}
}

// Buckets enumera el inicio de cada cubeta que cubre [startDay, endDay] (ambos inclusive).
// La primera cubeta puede empezar antes de startDay (lunes o día 1 del mes).
func Buckets(groupBy string, startDay, endDay time.Time, loc *time.Location) []time.Time {
	groupBy = NormalizeGroupBy(groupBy)
	end := StartOfDay(endDay, loc)
	cur := BucketStart(startDay, groupBy, loc)

	var out []time.Time
	for !cur.After(end) {
		out = append(out, cur)
		switch groupBy {
		case GroupByWeek:
			cur = cur.AddDate(0, 0, 7)
		case GroupByMonth:
			cur = cur.AddDate(0, 1, 0)
		default:
			cur = cur.AddDate(0, 0, 1)
		}
	}
	return out
}

// Key identifica una cubeta por su fecha local de inicio (YYYY-MM-DD).
// Sirve para cruzar filas de la base (hora local sin zona) con las cubetas generadas.
func Key(bucket time.Time) string {
	return bucket.Format("2006-01-02")
}

// DayRange convierte un rango de días locales inclusivo en el intervalo semiabierto [from, to).
func DayRange(startDay, endDay time.Time, loc *time.Location) (from, to time.Time) {
	from = StartOfDay(startDay, loc)
	to = StartOfDay(endDay, loc).AddDate(0, 0, 1)
	return from, to
}
