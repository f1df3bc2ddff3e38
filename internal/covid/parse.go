package covid

import (
	"math"
	"strconv"

	"github.com/tidwall/gjson"
)

const globalKey = "Global"

var summaryFields = [...]string{"TotalConfirmed", "TotalDeaths", "TotalRecovered"}

// Parse decodes a summary document into a Record.
// Any shape or type mismatch yields a *ParseError; Total is computed here.
func Parse(raw []byte) (Record, error) {
	if !gjson.ValidBytes(raw) {
		return Record{}, &ParseError{Reason: "invalid json"}
	}

	root := gjson.ParseBytes(raw)
	if !root.IsObject() {
		return Record{}, &ParseError{Reason: "top-level value is not an object"}
	}

	global := root.Get(globalKey)
	if !global.Exists() {
		return Record{}, &ParseError{Field: globalKey, Reason: "missing"}
	}
	if !global.IsObject() {
		return Record{}, &ParseError{Field: globalKey, Reason: "not an object"}
	}

	var values [len(summaryFields)]int64
	for i, name := range summaryFields {
		n, err := parseCount(global, name)
		if err != nil {
			return Record{}, err
		}
		values[i] = n
	}

	confirmed, deaths, recovered := values[0], values[1], values[2]
	if confirmed > math.MaxInt64-deaths || confirmed+deaths > math.MaxInt64-recovered {
		return Record{}, &ParseError{Field: globalKey, Reason: "total overflows int64"}
	}

	return Record{
		Confirmed: confirmed,
		Deaths:    deaths,
		Recovered: recovered,
		Total:     confirmed + deaths + recovered,
	}, nil
}

// parseCount reads a non-negative integer field. Only plain integer literals
// are accepted: fractions and exponents are rejected even when integral.
func parseCount(global gjson.Result, name string) (int64, error) {
	path := globalKey + "." + name

	field := global.Get(name)
	if !field.Exists() {
		return 0, &ParseError{Field: path, Reason: "missing"}
	}
	if field.Type != gjson.Number {
		return 0, &ParseError{Field: path, Reason: "not a number"}
	}

	n, err := strconv.ParseInt(field.Raw, 10, 64)
	if err != nil {
		return 0, &ParseError{Field: path, Reason: "not an integer"}
	}
	if n < 0 {
		return 0, &ParseError{Field: path, Reason: "negative"}
	}
	return n, nil
}
