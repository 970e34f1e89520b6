package main

import (
	"bytes"
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"strings"
	"unicode/utf8"

	"github.com/shopspring/decimal"
	"golang.org/x/text/encoding/charmap"
	"golang.org/x/text/transform"
)

var utf8BOM = []byte{0xEF, 0xBB, 0xBF}

// row fila del CSV: name,price,cost_price,barcode,quantity[,category].
type row struct {
	Line     int
	Name     string
	Price    decimal.Decimal
	Cost     decimal.Decimal
	Barcode  string
	Quantity decimal.Decimal
	Category string
}

// rowError fila descartada con su motivo.
type rowError struct {
	Line int
	Err  error
}

func (e rowError) Error() string { return fmt.Sprintf("línea %d: %v", e.Line, e.Err) }

// decode convierte el contenido a UTF-8. enc: auto, utf8, cp1251 o latin1.
// En auto, lo que no es UTF-8 válido se trata como Windows-1251 si abundan los bytes
// 0xC0-0xFF frente a las letras ASCII, si no como ISO-8859-1.
func decode(raw []byte, enc string) ([]byte, string, error) {
	raw = bytes.TrimPrefix(raw, utf8BOM)
	switch strings.ToLower(enc) {
	case "", "auto":
		if utf8.Valid(raw) {
			return raw, "utf8", nil
		}
		if looksCyrillic(raw) {
			return transcode(raw, charmap.Windows1251, "cp1251")
		}
		return transcode(raw, charmap.ISO8859_1, "latin1")
	case "utf8", "utf-8":
		if !utf8.Valid(raw) {
			return nil, "", errors.New("el archivo no es UTF-8 válido")
		}
		return raw, "utf8", nil
	case "cp1251", "windows-1251":
		return transcode(raw, charmap.Windows1251, "cp1251")
	case "latin1", "iso-8859-1":
		return transcode(raw, charmap.ISO8859_1, "latin1")
	default:
		return nil, "", fmt.Errorf("codificación desconocida %q", enc)
	}
}

func transcode(raw []byte, cm *charmap.Charmap, name string) ([]byte, string, error) {
	out, _, err := transform.Bytes(cm.NewDecoder(), raw)
	if err != nil {
		return nil, "", fmt.Errorf("decodificar %s: %w", name, err)
	}
	return out, name, nil
}

// looksCyrillic: en cp1251 las letras cirílicas ocupan 0xC0-0xFF, en latin1 esos bytes
// son acentos sueltos entre letras ASCII.
func looksCyrillic(raw []byte) bool {
	var ascii, high int
	for _, b := range raw {
		switch {
		case b >= 0xC0:
			high++
		case (b >= 'a' && b <= 'z') || (b >= 'A' && b <= 'Z'):
			ascii++
		}
	}
	return high > 0 && high*10 >= (ascii+high)*3
}

// parse lee el CSV ya en UTF-8. La primera fila se salta si parece cabecera.
// Las filas inválidas se devuelven en errs y no detienen la lectura.
func parse(r io.Reader) (rows []row, errs []rowError, err error) {
	cr := csv.NewReader(r)
	cr.FieldsPerRecord = -1
	cr.TrimLeadingSpace = true
	cr.LazyQuotes = true

	for {
		rec, err := cr.Read()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			var pe *csv.ParseError
			if errors.As(err, &pe) {
				errs = append(errs, rowError{Line: pe.StartLine, Err: err})
				continue
			}
			return nil, nil, fmt.Errorf("leer CSV: %w", err)
		}
		line, _ := cr.FieldPos(0)
		if line == 1 && isHeader(rec) {
			continue
		}
		if len(rec) == 1 && strings.TrimSpace(rec[0]) == "" {
			continue
		}
		r, rerr := toRow(line, rec)
		if rerr != nil {
			errs = append(errs, rowError{Line: line, Err: rerr})
			continue
		}
		rows = append(rows, r)
	}
	return rows, errs, nil
}

func isHeader(rec []string) bool {
	return len(rec) > 0 && strings.EqualFold(strings.TrimSpace(rec[0]), "name")
}

func toRow(line int, rec []string) (row, error) {
	if len(rec) < 5 {
		return row{}, fmt.Errorf("se esperaban al menos 5 columnas, hay %d", len(rec))
	}
	r := row{
		Line:    line,
		Name:    strings.TrimSpace(rec[0]),
		Barcode: strings.TrimSpace(rec[3]),
	}
	if r.Name == "" {
		return row{}, errors.New("name vacío")
	}
	var err error
	if r.Price, err = number(rec[1]); err != nil {
		return row{}, fmt.Errorf("price: %w", err)
	}
	if r.Cost, err = number(rec[2]); err != nil {
		return row{}, fmt.Errorf("cost_price: %w", err)
	}
	if r.Quantity, err = number(rec[4]); err != nil {
		return row{}, fmt.Errorf("quantity: %w", err)
	}
	if len(rec) > 5 {
		r.Category = strings.TrimSpace(rec[5])
	}
	return r, nil
}

// number acepta coma decimal y separadores de miles con espacio ("12 500,50").
func number(s string) (decimal.Decimal, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return decimal.Zero, nil
	}
	s = strings.NewReplacer(" ", "", "\u00a0", "", ",", ".").Replace(s)
	d, err := decimal.NewFromString(s)
	if err != nil {
		return decimal.Zero, fmt.Errorf("número inválido %q", s)
	}
	if d.IsNegative() {
		return decimal.Zero, errors.New("no puede ser negativo")
	}
	return d, nil
}
